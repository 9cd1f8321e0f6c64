package parser

import (
	"context"
	"strings"

	"recipeparser/internal/recipe"
)

// NLPParser projects the output of a Classifier onto a ParsedIngredient.
type NLPParser struct {
	classifier Classifier
	matcher    *Matcher
}

// NewNLPParser creates an NLPParser. A nil classifier selects the default Tagger.
func NewNLPParser(classifier Classifier, matcher *Matcher) *NLPParser {
	if classifier == nil {
		classifier = NewTagger(nil)
	}
	return &NLPParser{classifier: classifier, matcher: matcher}
}

// ParseOne parses a single ingredient line.
func (p *NLPParser) ParseOne(ctx context.Context, ingredient string) (recipe.ParsedIngredient, error) {
	parsed := p.convert(ingredient, p.classifier.Classify(ingredient))
	return p.matcher.Match(ctx, parsed)
}

// Parse parses each line in order.
func (p *NLPParser) Parse(ctx context.Context, ingredients []string) ([]recipe.ParsedIngredient, error) {
	return parseEach(ctx, ingredients, p.ParseOne)
}

func (p *NLPParser) convert(input string, ingredient ClassifiedIngredient) recipe.ParsedIngredient {
	amount := extractAmount(ingredient)
	qty, qtyConf := extractQuantity(amount)
	unit, unitConf := extractUnit(amount)
	food, foodConf := extractFood(ingredient)
	note, noteConf := extractNote(ingredient)

	parsed := recipe.ParsedIngredient{
		Input: input,
		Confidence: newConfidence(
			fieldScore{filled: qty != 0, confidence: qtyConf},
			fieldScore{filled: unit != "", confidence: unitConf},
			fieldScore{filled: food != "", confidence: foodConf},
			fieldScore{filled: note != "", confidence: noteConf},
		),
		Ingredient: recipe.RecipeIngredient{
			Quantity: qty,
			Note:     note,
		},
	}
	if unit != "" {
		parsed.Ingredient.Unit = recipe.NewUnitCandidate(unit)
	}
	if food != "" {
		parsed.Ingredient.Food = recipe.NewFoodCandidate(food)
	}
	return parsed
}

// extractAmount returns the first amount of the ingredient. Composite amounts
// are reduced to their first part.
func extractAmount(ingredient ClassifiedIngredient) IngredientAmount {
	empty := IngredientAmount{Quantity: 0.0, StartIndex: -1}
	if len(ingredient.Amounts) == 0 {
		return empty
	}

	switch a := ingredient.Amounts[0].(type) {
	case IngredientAmount:
		return a
	case CompositeAmount:
		if len(a.Amounts) > 0 {
			return a.Amounts[0]
		}
	}
	return empty
}

// extractQuantity converts the amount's quantity to a float. Textual
// quantities go through ExtractQuantity; anything else that is not a number
// yields (0, 0).
func extractQuantity(amount IngredientAmount) (float64, float64) {
	switch q := amount.Quantity.(type) {
	case string:
		v, c := ExtractQuantity(q)
		if c == 0 {
			return 0, 0
		}
		return v, amount.Confidence
	case float64:
		return q, amount.Confidence
	case float32:
		return float64(q), amount.Confidence
	case int:
		return float64(q), amount.Confidence
	case int64:
		return float64(q), amount.Confidence
	}
	return 0, 0
}

func extractUnit(amount IngredientAmount) (string, float64) {
	if amount.Unit == "" {
		return "", 0
	}
	return amount.Unit, amount.Confidence
}

func extractFood(ingredient ClassifiedIngredient) (string, float64) {
	if ingredient.Name == nil {
		return "", 0
	}
	return ingredient.Name.Text, ingredient.Name.Confidence
}

// extractNote joins size, preparation and comment. Parentheses are stripped
// from the result.
func extractNote(ingredient ClassifiedIngredient) (string, float64) {
	var parts []string
	var confidences []float64
	for _, span := range []*Span{ingredient.Size, ingredient.Preparation, ingredient.Comment} {
		if span == nil {
			continue
		}
		parts = append(parts, span.Text)
		confidences = append(confidences, span.Confidence)
	}

	note := strings.Join(parts, ", ")
	note = strings.NewReplacer("(", "", ")", "").Replace(note)
	return strings.TrimSpace(note), mean(confidences)
}
