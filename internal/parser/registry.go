// Package parser turns free-text ingredient lines into structured
// ingredients. Three strategies are available (rule-based, tagger-based and
// LLM-delegated); each runs the food/unit Matcher as its last step.
package parser

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"recipeparser/internal/recipe"
)

// IngredientParser is implemented by every parsing strategy. Parse returns one
// result per input, in input order.
type IngredientParser interface {
	ParseOne(ctx context.Context, ingredient string) (recipe.ParsedIngredient, error)
	Parse(ctx context.Context, ingredients []string) ([]recipe.ParsedIngredient, error)
}

// Deps are the process-wide collaborators parsers are built from. Only Lookup
// is group specific; it is scoped by the group id passed to GetParser.
type Deps struct {
	Lookup     VocabularyLookup
	Vocabulary *Vocabulary
	Classifier Classifier
	Generator  Generator
}

type constructor func(groupID uuid.UUID, deps Deps) IngredientParser

var registrar = map[recipe.RegisteredParser]constructor{
	recipe.ParserNLP: func(groupID uuid.UUID, deps Deps) IngredientParser {
		classifier := deps.Classifier
		if classifier == nil {
			classifier = NewTagger(deps.Vocabulary)
		}
		return NewNLPParser(classifier, NewMatcher(groupID, deps.Lookup))
	},
	recipe.ParserBrute: func(groupID uuid.UUID, deps Deps) IngredientParser {
		return NewBruteForceParser(deps.Vocabulary, NewMatcher(groupID, deps.Lookup))
	},
	recipe.ParserOpenAI: func(groupID uuid.UUID, deps Deps) IngredientParser {
		return NewLLMParser(deps.Generator, NewMatcher(groupID, deps.Lookup))
	},
}

// GetParser returns the parser registered for kind. Unknown kinds get the NLP
// parser.
func GetParser(kind recipe.RegisteredParser, groupID uuid.UUID, deps Deps) IngredientParser {
	build, ok := registrar[kind]
	if !ok {
		build = registrar[recipe.ParserNLP]
	}
	return build(groupID, deps)
}

func parseEach(ctx context.Context, ingredients []string, parseOne func(context.Context, string) (recipe.ParsedIngredient, error)) ([]recipe.ParsedIngredient, error) {
	results := make([]recipe.ParsedIngredient, 0, len(ingredients))
	for i, ing := range ingredients {
		parsed, err := parseOne(ctx, ing)
		if err != nil {
			return nil, fmt.Errorf("failed to parse ingredient %d: %w", i, err)
		}
		results = append(results, parsed)
	}
	return results, nil
}
