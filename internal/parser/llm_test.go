package parser

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipeparser/internal/recipe"
)

// mockGenerator is a mock of a generative text service.
type mockGenerator struct {
	response string
	err      error
	prompts  []string
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func TestLLMParserParse(t *testing.T) {
	gen := &mockGenerator{response: `{"ingredients": [
		{"input": "2 cups flour", "confidence": 0.9, "quantity": 2, "unit": "cup", "food": "flour", "note": null},
		{"input": "salt to taste", "confidence": 0.8, "quantity": null, "unit": null, "food": "salt", "note": "to taste"}
	]}`}

	inputs := []string{"2 cups flour", "salt to taste"}
	got, err := NewLLMParser(gen, nil).Parse(context.Background(), inputs)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "2 cups flour", got[0].Input)
	assert.Equal(t, 2.0, got[0].Ingredient.Quantity)
	assert.Equal(t, "cup", got[0].Ingredient.Unit.Name)
	assert.Equal(t, "flour", got[0].Ingredient.Food.Name)
	assert.Equal(t, "", got[0].Ingredient.Note)
	assert.Equal(t, 0.9, got[0].Confidence.Quantity)
	assert.Equal(t, 0.0, got[0].Confidence.Comment)
	assert.InDelta(t, 0.9, got[0].Confidence.Average, 1e-9)

	assert.Equal(t, "salt to taste", got[1].Input)
	assert.Equal(t, 0.0, got[1].Ingredient.Quantity)
	assert.Nil(t, got[1].Ingredient.Unit)
	assert.Equal(t, "to taste", got[1].Ingredient.Note)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "1. 2 cups flour\n2. salt to taste")
}

func TestLLMParserCleansResponse(t *testing.T) {
	gen := &mockGenerator{response: "```json\n" +
		`{"ingredients": [{"input": "1 onion", "confidence": 1.7, "quantity": 1, "unit": null, "food": "onion\u0000", "note": null}]}` +
		"\n```"}

	got, err := NewLLMParser(gen, nil).ParseOne(context.Background(), "1 onion")
	require.NoError(t, err)
	assert.Equal(t, "onion", got.Ingredient.Food.Name)
	assert.Equal(t, 1.0, got.Confidence.Food)
}

func TestLLMParserStripsRawNulBytes(t *testing.T) {
	gen := &mockGenerator{response: "{\"ingredients\": [{\"input\": \"1 onion\", \"confidence\": 0.9, \"quantity\": 1, \"food\": \"on\x00ion\"}]}\x00"}

	got, err := NewLLMParser(gen, nil).ParseOne(context.Background(), "1 onion")
	require.NoError(t, err)
	assert.Equal(t, "onion", got.Ingredient.Food.Name)
}

func TestLLMParserMalformedResponse(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"not json", "I cannot help with that"},
		{"missing ingredients", `{"items": []}`},
		{"unknown field", `{"ingredients": [{"input": "x", "amount": 2}]}`},
		{"wrong type", `{"ingredients": [{"input": "x", "quantity": "two"}]}`},
		{"wrong count", `{"ingredients": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewLLMParser(&mockGenerator{response: tt.response}, nil)
			_, err := p.ParseOne(context.Background(), "x")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedResponse))
		})
	}
}

func TestLLMParserServiceError(t *testing.T) {
	p := NewLLMParser(&mockGenerator{err: errors.New("connection refused")}, nil)
	_, err := p.ParseOne(context.Background(), "1 egg")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMalformedResponse))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestLLMParserDisabled(t *testing.T) {
	_, err := NewLLMParser(nil, nil).ParseOne(context.Background(), "1 egg")
	assert.ErrorIs(t, err, ErrLLMDisabled)

	got, err := NewLLMParser(nil, nil).Parse(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLLMParserMatchesVocabulary(t *testing.T) {
	group := uuid.New()
	store := recipe.NewMemoryStore()
	require.NoError(t, store.SaveFood(context.Background(), &recipe.IngredientFood{GroupID: group, Name: "flour"}))

	gen := &mockGenerator{response: `{"ingredients": [{"input": "2 cups flour", "confidence": 0.9, "quantity": 2, "unit": "cup", "food": "flour", "note": null}]}`}
	got, err := NewLLMParser(gen, NewMatcher(group, store)).ParseOne(context.Background(), "2 cups flour")
	require.NoError(t, err)
	assert.False(t, got.Ingredient.Food.IsNew())
	assert.True(t, got.Ingredient.Unit.IsNew())
}
