package parser

import "recipeparser/internal/recipe"

// Token-level scores used by the tagger. Span confidences are the mean of the
// scores of their tokens.
const (
	confNumber        = 0.99
	confFraction      = 0.98
	confRange         = 0.95
	confArticle       = 0.90
	confUnit          = 0.98
	confUnitAmbiguous = 0.80
	confNameWord      = 0.95
	confNameOther     = 0.70
	confSize          = 0.95
	confPreparation   = 0.95
	confAdverb        = 0.90
	confClauseWord    = 0.85
	confComment       = 0.90
	confCommentKnown  = 0.97
	confParenthetical = 0.92
)

// clamp limits c to [0, 1].
func clamp(c float64) float64 {
	switch {
	case c != c, c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}

// mean returns the arithmetic mean of values, or 0 for none.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// fieldScore is one field's value presence and its confidence.
type fieldScore struct {
	filled     bool
	confidence float64
}

// newConfidence builds an IngredientConfidence whose average only counts the
// filled fields.
func newConfidence(qty, unit, food, comment fieldScore) recipe.IngredientConfidence {
	var filled []float64
	for _, f := range []fieldScore{qty, unit, food, comment} {
		if f.filled {
			filled = append(filled, clamp(f.confidence))
		}
	}
	return recipe.IngredientConfidence{
		Average:  clamp(mean(filled)),
		Quantity: clamp(qty.confidence),
		Unit:     clamp(unit.confidence),
		Food:     clamp(food.confidence),
		Comment:  clamp(comment.confidence),
	}
}

// sentinelConfidence scores every filled field 1 and every empty field 0.
func sentinelConfidence(hasQty, hasUnit, hasFood, hasNote bool) recipe.IngredientConfidence {
	score := func(ok bool) fieldScore {
		if ok {
			return fieldScore{filled: true, confidence: 1}
		}
		return fieldScore{}
	}
	return newConfidence(score(hasQty), score(hasUnit), score(hasFood), score(hasNote))
}
