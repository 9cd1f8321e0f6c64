package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"recipeparser/internal/recipe"
)

var (
	// ErrMalformedResponse is returned when the generative service answers with
	// a document that does not match the ingredient schema.
	ErrMalformedResponse = errors.New("malformed llm response")
	// ErrLLMDisabled is returned when the LLM parser is used without a generator.
	ErrLLMDisabled = errors.New("llm ingredient parser is not configured")

	reNulls = regexp.MustCompile(`\x00|\\u0000`)
)

// Generator sends a prompt to a generative text service and returns its answer.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// llmIngredient is one entry of the schema the model is asked to follow.
type llmIngredient struct {
	Input      string   `json:"input"`
	Confidence *float64 `json:"confidence"`
	Quantity   *float64 `json:"quantity"`
	Unit       *string  `json:"unit"`
	Food       *string  `json:"food"`
	Note       *string  `json:"note"`
}

type llmResponse struct {
	Ingredients []llmIngredient `json:"ingredients"`
}

const llmSchema = `{
  "type": "object",
  "properties": {
    "ingredients": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "input": {"type": "string", "description": "the ingredient line exactly as given"},
          "confidence": {"type": ["number", "null"], "description": "0 to 1, how sure you are of this parse"},
          "quantity": {"type": ["number", "null"], "description": "amount as a decimal number, e.g. 1.5 for 1 1/2"},
          "unit": {"type": ["string", "null"], "description": "singular unit name, e.g. cup, teaspoon, pound"},
          "food": {"type": ["string", "null"], "description": "the food, without quantity, unit or preparation"},
          "note": {"type": ["string", "null"], "description": "preparation, size or other remarks"}
        },
        "required": ["input"],
        "additionalProperties": false
      }
    }
  },
  "required": ["ingredients"],
  "additionalProperties": false
}`

const llmPrompt = `You are a parser for recipe ingredient lines. For each numbered line below,
return one entry in "ingredients", in the same order, split into quantity, unit, food and note.
Use null for anything the line does not contain. Answer with a single JSON document that
validates against this JSON schema and nothing else:

%s

Ingredient lines:
%s`

// LLMParser delegates parsing to a generative text service.
type LLMParser struct {
	generator Generator
	matcher   *Matcher
}

// NewLLMParser creates an LLMParser. With a nil generator every call fails
// with ErrLLMDisabled.
func NewLLMParser(generator Generator, matcher *Matcher) *LLMParser {
	return &LLMParser{generator: generator, matcher: matcher}
}

// ParseOne parses a single ingredient line.
func (p *LLMParser) ParseOne(ctx context.Context, ingredient string) (recipe.ParsedIngredient, error) {
	parsed, err := p.Parse(ctx, []string{ingredient})
	if err != nil {
		return recipe.ParsedIngredient{}, err
	}
	return parsed[0], nil
}

// Parse sends all lines in one prompt and returns one result per line, in order.
func (p *LLMParser) Parse(ctx context.Context, ingredients []string) ([]recipe.ParsedIngredient, error) {
	if len(ingredients) == 0 {
		return []recipe.ParsedIngredient{}, nil
	}
	if p.generator == nil {
		return nil, ErrLLMDisabled
	}

	raw, err := p.generator.Generate(ctx, buildPrompt(ingredients))
	if err != nil {
		return nil, fmt.Errorf("failed to generate ingredient parse: %w", err)
	}

	resp, err := parseLLMResponse(raw, len(ingredients))
	if err != nil {
		return nil, err
	}

	results := make([]recipe.ParsedIngredient, 0, len(ingredients))
	for i, ing := range resp.Ingredients {
		parsed, err := p.matcher.Match(ctx, convertLLMIngredient(ingredients[i], ing))
		if err != nil {
			return nil, err
		}
		results = append(results, parsed)
	}
	return results, nil
}

func buildPrompt(ingredients []string) string {
	var lines strings.Builder
	for i, ing := range ingredients {
		fmt.Fprintf(&lines, "%d. %s\n", i+1, strings.TrimSpace(ing))
	}
	return fmt.Sprintf(llmPrompt, llmSchema, lines.String())
}

// parseLLMResponse cleans and strictly decodes the model's answer. Any
// mismatch with the schema is reported as ErrMalformedResponse.
func parseLLMResponse(raw string, want int) (*llmResponse, error) {
	cleaned := reNulls.ReplaceAllString(raw, "")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || start > end {
		return nil, malformed(raw, errors.New("no JSON object in response"))
	}
	cleaned = cleaned[start : end+1]

	var resp struct {
		Ingredients *[]llmIngredient `json:"ingredients"`
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(cleaned)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&resp); err != nil {
		return nil, malformed(raw, err)
	}
	if resp.Ingredients == nil {
		return nil, malformed(raw, errors.New(`missing "ingredients"`))
	}
	if got := len(*resp.Ingredients); got != want {
		return nil, malformed(raw, fmt.Errorf("expected %d ingredients, got %d", want, got))
	}

	return &llmResponse{Ingredients: *resp.Ingredients}, nil
}

func malformed(raw string, err error) error {
	log.Printf("Failed to parse LLM ingredient response: %v. Response: %s", err, raw)
	return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
}

// convertLLMIngredient maps a response entry onto a ParsedIngredient. The
// single confidence the model reports is applied to every filled field.
func convertLLMIngredient(input string, ing llmIngredient) recipe.ParsedIngredient {
	conf := 0.0
	if ing.Confidence != nil {
		conf = clamp(*ing.Confidence)
	}
	qty := 0.0
	if ing.Quantity != nil {
		qty = *ing.Quantity
	}
	unit := trimmed(ing.Unit)
	food := trimmed(ing.Food)
	note := trimmed(ing.Note)

	score := func(filled bool) fieldScore {
		if !filled {
			return fieldScore{}
		}
		return fieldScore{filled: true, confidence: conf}
	}

	parsed := recipe.ParsedIngredient{
		Input:      input,
		Confidence: newConfidence(score(qty != 0), score(unit != ""), score(food != ""), score(note != "")),
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

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
