package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipeparser/internal/api"
	"recipeparser/internal/config"
	"recipeparser/internal/parser"
	"recipeparser/internal/recipe"
)

func TestOpenStoreInMemory(t *testing.T) {
	cfg := config.Default()

	store, closeStore, err := openStore(cfg)
	require.NoError(t, err)
	defer closeStore()
	assert.IsType(t, &recipe.MemoryStore{}, store)
}

func TestOpenStoreSQLite(t *testing.T) {
	cfg := config.Default()
	cfg.DatabaseDriver = "sqlite"
	cfg.DatabaseURL = ":memory:"

	store, closeStore, err := openStore(cfg)
	require.NoError(t, err)
	defer closeStore()
	assert.IsType(t, &recipe.SQLStore{}, store)
}

func TestRouterCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	handler := api.NewHandler(recipe.NewMemoryStore(), parser.NewVocabulary(), nil, uuid.Nil, time.Second)
	r := newRouter(cfg, handler)

	req := httptest.NewRequest(http.MethodOptions, "/api/parser/ingredient", nil)
	req.Header.Set("Origin", "http://localhost:8081")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", api.GroupHeader)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:8081", w.Header().Get("Access-Control-Allow-Origin"))

	body := bytes.NewBufferString(`{"ingredient": "2 teaspoons salt (to taste)"}`)
	req = httptest.NewRequest(http.MethodPost, "/api/parser/ingredient", body)
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"note":"to taste"`)
}
