package parser

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"recipeparser/internal/recipe"
)

// VocabularyLookup is the read side of the group vocabulary.
type VocabularyLookup interface {
	LookupFood(ctx context.Context, groupID uuid.UUID, name string) (*recipe.IngredientFood, error)
	LookupUnit(ctx context.Context, groupID uuid.UUID, name string) (*recipe.IngredientUnit, error)
}

// Matcher binds parsed food and unit names to the group's existing
// vocabulary. Names that are not found stay as new proposals.
type Matcher struct {
	groupID uuid.UUID
	lookup  VocabularyLookup
}

// NewMatcher creates a Matcher for a group. A nil lookup disables matching.
func NewMatcher(groupID uuid.UUID, lookup VocabularyLookup) *Matcher {
	return &Matcher{groupID: groupID, lookup: lookup}
}

// Match resolves the food and unit of p.
func (m *Matcher) Match(ctx context.Context, p recipe.ParsedIngredient) (recipe.ParsedIngredient, error) {
	if m == nil || m.lookup == nil {
		return p, nil
	}

	if food := p.Ingredient.Food; food != nil && food.IsNew() {
		if name := strings.TrimSpace(food.Name); name != "" {
			found, err := m.lookup.LookupFood(ctx, m.groupID, name)
			if err != nil {
				return p, fmt.Errorf("failed to match food %q: %w", name, err)
			}
			if found != nil {
				p.Ingredient.Food = found
			}
		}
	}

	if unit := p.Ingredient.Unit; unit != nil && unit.IsNew() {
		if name := strings.TrimSpace(unit.Name); name != "" {
			found, err := m.lookup.LookupUnit(ctx, m.groupID, name)
			if err != nil {
				return p, fmt.Errorf("failed to match unit %q: %w", name, err)
			}
			if found != nil {
				p.Ingredient.Unit = found
			}
		}
	}

	return p, nil
}
