package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipeparser/internal/recipe"
)

// mockGenerator is a mock of the generative text service.
type mockGenerator struct {
	response string
	err      error
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

// failingStore is a VocabularyStore whose every call fails.
type failingStore struct {
	*recipe.MemoryStore
}

func (failingStore) ListFoods(ctx context.Context, groupID uuid.UUID) ([]*recipe.IngredientFood, error) {
	return nil, errors.New("connection reset")
}

func (failingStore) LookupFood(ctx context.Context, groupID uuid.UUID, name string) (*recipe.IngredientFood, error) {
	return nil, errors.New("connection reset")
}

func setupRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r)
	return r
}

func doJSON(r http.Handler, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestParseIngredient(t *testing.T) {
	h := NewHandler(recipe.NewMemoryStore(), nil, nil, uuid.Nil, time.Second)
	r := setupRouter(h)

	w := doJSON(r, http.MethodPost, "/api/parser/ingredient", `{"parser": "nlp", "ingredient": "1 1/2 cups chopped onion"}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var got recipe.ParsedIngredient
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "1 1/2 cups chopped onion", got.Input)
	assert.Equal(t, 1.5, got.Ingredient.Quantity)
	assert.Equal(t, "cup", got.Ingredient.Unit.Name)
	assert.Equal(t, "onion", got.Ingredient.Food.Name)
	assert.Equal(t, "chopped", got.Ingredient.Note)
}

func TestParseIngredientUnknownParserFallsBack(t *testing.T) {
	r := setupRouter(NewHandler(recipe.NewMemoryStore(), nil, nil, uuid.Nil, time.Second))

	w := doJSON(r, http.MethodPost, "/api/parser/ingredient", `{"parser": "crf", "ingredient": "2 eggs"}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestParseIngredientEmptyLine(t *testing.T) {
	r := setupRouter(NewHandler(recipe.NewMemoryStore(), nil, nil, uuid.Nil, time.Second))

	w := doJSON(r, http.MethodPost, "/api/parser/ingredient", `{"parser": "nlp", "ingredient": ""}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got recipe.ParsedIngredient
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "", got.Input)
	assert.Nil(t, got.Ingredient.Food)
	assert.Equal(t, recipe.IngredientConfidence{}, got.Confidence)
}

func TestParseIngredientBadRequest(t *testing.T) {
	r := setupRouter(NewHandler(recipe.NewMemoryStore(), nil, nil, uuid.Nil, time.Second))

	w := doJSON(r, http.MethodPost, "/api/parser/ingredient", `{"parser": "nlp"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/api/parser/ingredient", `not json`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/api/parser/ingredient", `{"ingredient": "2 eggs"}`, http.Header{GroupHeader: {"nope"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseIngredientsUsesGroupVocabulary(t *testing.T) {
	ctx := context.Background()
	store := recipe.NewMemoryStore()
	group := uuid.New()
	onion := &recipe.IngredientFood{GroupID: group, Name: "onion", PluralName: "onions"}
	require.NoError(t, store.SaveFood(ctx, onion))

	r := setupRouter(NewHandler(store, nil, nil, uuid.Nil, time.Second))
	body := `{"parser": "brute", "ingredients": ["2 onions", "1 cup rice", "salt"]}`

	w := doJSON(r, http.MethodPost, "/api/parser/ingredients", body, http.Header{GroupHeader: {group.String()}})
	require.Equal(t, http.StatusOK, w.Code)

	var got []recipe.ParsedIngredient
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 3)
	assert.Equal(t, "2 onions", got[0].Input)
	assert.Equal(t, onion.ID, got[0].Ingredient.Food.ID)
	assert.Equal(t, "1 cup rice", got[1].Input)
	assert.Equal(t, "salt", got[2].Input)

	// the default group does not know onions
	w = doJSON(r, http.MethodPost, "/api/parser/ingredients", body, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, uuid.Nil, got[0].Ingredient.Food.ID)
}

func TestParseIngredientsLLMErrors(t *testing.T) {
	tests := []struct {
		name      string
		generator *mockGenerator
		want      int
	}{
		{"disabled", nil, http.StatusBadRequest},
		{"malformed", &mockGenerator{response: `{"ingredients": "nope"}`}, http.StatusBadGateway},
		{"service error", &mockGenerator{err: errors.New("quota exceeded")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(recipe.NewMemoryStore(), nil, nil, uuid.Nil, time.Second)
			if tt.generator != nil {
				h.Generator = tt.generator
			}
			r := setupRouter(h)

			w := doJSON(r, http.MethodPost, "/api/parser/ingredients", `{"parser": "openai", "ingredients": ["1 egg"]}`, nil)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestParseIngredientsLLM(t *testing.T) {
	gen := &mockGenerator{response: `{"ingredients": [{"input": "1 egg", "confidence": 0.95, "quantity": 1, "unit": null, "food": "egg", "note": null}]}`}
	r := setupRouter(NewHandler(recipe.NewMemoryStore(), nil, gen, uuid.Nil, time.Second))

	w := doJSON(r, http.MethodPost, "/api/parser/ingredients", `{"parser": "openai", "ingredients": ["1 egg"]}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got []recipe.ParsedIngredient
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "egg", got[0].Ingredient.Food.Name)
	assert.Equal(t, 0.95, got[0].Confidence.Food)
}

func TestParseIngredientStoreError(t *testing.T) {
	r := setupRouter(NewHandler(failingStore{recipe.NewMemoryStore()}, nil, nil, uuid.Nil, time.Second))

	w := doJSON(r, http.MethodPost, "/api/parser/ingredient", `{"ingredient": "2 eggs"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "connection reset")
}

func TestFoods(t *testing.T) {
	group := uuid.New()
	r := setupRouter(NewHandler(recipe.NewMemoryStore(), nil, nil, group, time.Second))

	w := doJSON(r, http.MethodGet, "/api/foods", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = doJSON(r, http.MethodPost, "/api/foods", `{"name": " onion ", "plural_name": "onions"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var created recipe.IngredientFood
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, group, created.GroupID)
	assert.Equal(t, "onion", created.Name)

	w = doJSON(r, http.MethodPost, "/api/foods", `{"plural_name": "onions"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/api/foods", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var foods []recipe.IngredientFood
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &foods))
	require.Len(t, foods, 1)
	assert.Equal(t, created.ID, foods[0].ID)
}

func TestListFoodsStoreError(t *testing.T) {
	r := setupRouter(NewHandler(failingStore{recipe.NewMemoryStore()}, nil, nil, uuid.Nil, time.Second))

	w := doJSON(r, http.MethodGet, "/api/foods", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestUnits(t *testing.T) {
	r := setupRouter(NewHandler(recipe.NewMemoryStore(), nil, nil, uuid.Nil, time.Second))
	group := uuid.New()
	header := http.Header{GroupHeader: {group.String()}}

	w := doJSON(r, http.MethodPost, "/api/units", `{"name": "tablespoon", "abbreviation": "tbsp"}`, header)
	require.Equal(t, http.StatusCreated, w.Code)
	var created recipe.IngredientUnit
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.True(t, created.Fraction)
	assert.Equal(t, group, created.GroupID)

	w = doJSON(r, http.MethodPost, "/api/units", `{"name": "pinch", "fraction": false}`, header)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, http.MethodGet, "/api/units", "", header)
	require.Equal(t, http.StatusOK, w.Code)
	var units []recipe.IngredientUnit
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &units))
	require.Len(t, units, 2)
	assert.Equal(t, "pinch", units[0].Name)
	assert.False(t, units[0].Fraction)

	// the unit is now matched when parsing for the group
	w = doJSON(r, http.MethodPost, "/api/parser/ingredient", `{"parser": "brute", "ingredient": "2 tbsp butter"}`, header)
	require.Equal(t, http.StatusOK, w.Code)
	var parsed recipe.ParsedIngredient
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	assert.Equal(t, created.ID, parsed.Ingredient.Unit.ID)
}
