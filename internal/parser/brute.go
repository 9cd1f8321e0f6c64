package parser

import (
	"context"
	"strings"

	"recipeparser/internal/recipe"
)

// BruteForceParser splits a line with fixed rules: leading quantity, a known
// unit, the first comma clause and any parentheticals as the note, and the
// rest as the food. It does not score its output; filled fields get confidence 1.
type BruteForceParser struct {
	vocab   *Vocabulary
	matcher *Matcher
}

// NewBruteForceParser creates a BruteForceParser. A nil vocabulary selects
// the built-in one.
func NewBruteForceParser(vocab *Vocabulary, matcher *Matcher) *BruteForceParser {
	if vocab == nil {
		vocab = NewVocabulary()
	}
	return &BruteForceParser{vocab: vocab, matcher: matcher}
}

// ParseOne parses a single ingredient line.
func (p *BruteForceParser) ParseOne(ctx context.Context, ingredient string) (recipe.ParsedIngredient, error) {
	qty, unit, food, note := p.split(ingredient)

	parsed := recipe.ParsedIngredient{
		Input:      ingredient,
		Confidence: sentinelConfidence(qty != 0, unit != "", food != "", note != ""),
		Ingredient: recipe.RecipeIngredient{
			Quantity:      qty,
			Note:          note,
			DisableAmount: false,
		},
	}
	if unit != "" {
		parsed.Ingredient.Unit = recipe.NewUnitCandidate(unit)
	}
	if food != "" {
		parsed.Ingredient.Food = recipe.NewFoodCandidate(food)
	}

	return p.matcher.Match(ctx, parsed)
}

// Parse parses each line in order.
func (p *BruteForceParser) Parse(ctx context.Context, ingredients []string) ([]recipe.ParsedIngredient, error) {
	return parseEach(ctx, ingredients, p.ParseOne)
}

func (p *BruteForceParser) split(ingredient string) (qty float64, unit, food, note string) {
	s := reDigitHyphenWord.ReplaceAllString(normalizeText(ingredient), "$1 $2")

	var notes []string
	s, tail := splitClause(s)
	if tail != "" {
		notes = append(notes, tail)
	}
	s, parens := stripParentheticals(s)
	notes = append(notes, parens...)

	if q, rest, ok := scanQuantity(s); ok {
		qty = q.Value
		s = rest
	}

	// a unit needs a food after it: "2 cloves" keeps cloves as the food
	if m, rest, ok := p.vocab.matchUnit(s); ok && rest != "" {
		unit = m.Canonical
		s = skipOf(rest)
	}

	food = strings.Trim(s, " ,;:.")
	var kept []string
	for _, n := range notes {
		if n != "" {
			kept = append(kept, n)
		}
	}
	note = strings.Join(kept, ", ")
	return qty, unit, food, note
}

// stripParentheticals removes every balanced parenthetical group from s and
// returns the remaining text with the groups' contents. An unclosed group is
// left in place.
func stripParentheticals(s string) (string, []string) {
	var groups []string
	var kept strings.Builder
	for {
		open := strings.IndexByte(s, '(')
		if open < 0 {
			kept.WriteString(s)
			break
		}
		inner, after, closed := cutParenthetical(s[open:])
		if !closed {
			kept.WriteString(s)
			break
		}
		kept.WriteString(s[:open])
		kept.WriteByte(' ')
		if inner = strings.TrimSpace(inner); inner != "" {
			groups = append(groups, inner)
		}
		s = after
	}
	return strings.Join(strings.Fields(kept.String()), " "), groups
}
