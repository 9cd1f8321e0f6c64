package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"recipeparser/internal/parser"
	"recipeparser/internal/recipe"
)

// GroupHeader carries the group whose vocabulary a request works on.
const GroupHeader = "X-Group-ID"

// VocabularyStore defines the interface for food and unit data operations.
type VocabularyStore interface {
	LookupFood(ctx context.Context, groupID uuid.UUID, name string) (*recipe.IngredientFood, error)
	LookupUnit(ctx context.Context, groupID uuid.UUID, name string) (*recipe.IngredientUnit, error)
	SaveFood(ctx context.Context, food *recipe.IngredientFood) error
	SaveUnit(ctx context.Context, unit *recipe.IngredientUnit) error
	ListFoods(ctx context.Context, groupID uuid.UUID) ([]*recipe.IngredientFood, error)
	ListUnits(ctx context.Context, groupID uuid.UUID) ([]*recipe.IngredientUnit, error)
}

// Handler handles HTTP requests.
type Handler struct {
	Store        VocabularyStore
	Vocabulary   *parser.Vocabulary
	Generator    parser.Generator
	DefaultGroup uuid.UUID
	Timeout      time.Duration
}

// NewHandler creates a new Handler. generator may be nil, which disables the
// openai parser.
func NewHandler(store VocabularyStore, vocab *parser.Vocabulary, generator parser.Generator, defaultGroup uuid.UUID, timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &Handler{
		Store:        store,
		Vocabulary:   vocab,
		Generator:    generator,
		DefaultGroup: defaultGroup,
		Timeout:      timeout,
	}
}

// RegisterRoutes mounts the API on r.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	g := r.Group("/api")
	g.POST("/parser/ingredient", h.ParseIngredient)
	g.POST("/parser/ingredients", h.ParseIngredients)
	g.GET("/foods", h.ListFoods)
	g.POST("/foods", h.CreateFood)
	g.GET("/units", h.ListUnits)
	g.POST("/units", h.CreateUnit)
}

type parseIngredientRequest struct {
	Parser     recipe.RegisteredParser `json:"parser"`
	Ingredient *string                 `json:"ingredient" binding:"required"`
}

type parseIngredientsRequest struct {
	Parser      recipe.RegisteredParser `json:"parser"`
	Ingredients []string                `json:"ingredients" binding:"required"`
}

// ParseIngredient parses a single ingredient line. An empty line is parsed
// like any other and comes back with every field empty.
func (h *Handler) ParseIngredient(c *gin.Context) {
	var req parseIngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, fmt.Sprintf("invalid request: %s", err.Error()))
		return
	}
	groupID, ok := h.groupID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.Timeout)
	defer cancel()

	p := parser.GetParser(req.Parser, groupID, h.deps())
	parsed, err := p.ParseOne(ctx, *req.Ingredient)
	if err != nil {
		h.parseError(c, req.Parser, err)
		return
	}

	c.JSON(http.StatusOK, parsed)
}

// ParseIngredients parses a list of ingredient lines and answers in input order.
func (h *Handler) ParseIngredients(c *gin.Context) {
	var req parseIngredientsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, fmt.Sprintf("invalid request: %s", err.Error()))
		return
	}
	groupID, ok := h.groupID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.Timeout)
	defer cancel()

	p := parser.GetParser(req.Parser, groupID, h.deps())
	parsed, err := p.Parse(ctx, req.Ingredients)
	if err != nil {
		h.parseError(c, req.Parser, err)
		return
	}

	c.JSON(http.StatusOK, parsed)
}

// ListFoods returns the foods of the request's group.
func (h *Handler) ListFoods(c *gin.Context) {
	groupID, ok := h.groupID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.Timeout)
	defer cancel()

	foods, err := h.Store.ListFoods(ctx, groupID)
	if err != nil {
		c.String(http.StatusInternalServerError, fmt.Sprintf("database error: %s", err.Error()))
		return
	}

	c.JSON(http.StatusOK, foods)
}

type createFoodRequest struct {
	Name        string `json:"name" binding:"required"`
	PluralName  string `json:"plural_name"`
	Description string `json:"description"`
}

// CreateFood adds a food to the request's group.
func (h *Handler) CreateFood(c *gin.Context) {
	var req createFoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, fmt.Sprintf("invalid request: %s", err.Error()))
		return
	}
	groupID, ok := h.groupID(c)
	if !ok {
		return
	}

	food := &recipe.IngredientFood{
		GroupID:     groupID,
		Name:        strings.TrimSpace(req.Name),
		PluralName:  strings.TrimSpace(req.PluralName),
		Description: req.Description,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.Timeout)
	defer cancel()

	if err := h.Store.SaveFood(ctx, food); err != nil {
		c.String(http.StatusInternalServerError, fmt.Sprintf("failed to save food: %s", err.Error()))
		return
	}

	c.JSON(http.StatusCreated, food)
}

// ListUnits returns the units of the request's group.
func (h *Handler) ListUnits(c *gin.Context) {
	groupID, ok := h.groupID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.Timeout)
	defer cancel()

	units, err := h.Store.ListUnits(ctx, groupID)
	if err != nil {
		c.String(http.StatusInternalServerError, fmt.Sprintf("database error: %s", err.Error()))
		return
	}

	c.JSON(http.StatusOK, units)
}

type createUnitRequest struct {
	Name               string `json:"name" binding:"required"`
	PluralName         string `json:"plural_name"`
	Abbreviation       string `json:"abbreviation"`
	PluralAbbreviation string `json:"plural_abbreviation"`
	UseAbbreviation    bool   `json:"use_abbreviation"`
	Fraction           *bool  `json:"fraction"`
	Description        string `json:"description"`
}

// CreateUnit adds a unit to the request's group.
func (h *Handler) CreateUnit(c *gin.Context) {
	var req createUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, fmt.Sprintf("invalid request: %s", err.Error()))
		return
	}
	groupID, ok := h.groupID(c)
	if !ok {
		return
	}

	fraction := true
	if req.Fraction != nil {
		fraction = *req.Fraction
	}
	unit := &recipe.IngredientUnit{
		GroupID:            groupID,
		Name:               strings.TrimSpace(req.Name),
		PluralName:         strings.TrimSpace(req.PluralName),
		Abbreviation:       strings.TrimSpace(req.Abbreviation),
		PluralAbbreviation: strings.TrimSpace(req.PluralAbbreviation),
		UseAbbreviation:    req.UseAbbreviation,
		Fraction:           fraction,
		Description:        req.Description,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.Timeout)
	defer cancel()

	if err := h.Store.SaveUnit(ctx, unit); err != nil {
		c.String(http.StatusInternalServerError, fmt.Sprintf("failed to save unit: %s", err.Error()))
		return
	}

	c.JSON(http.StatusCreated, unit)
}

func (h *Handler) deps() parser.Deps {
	return parser.Deps{
		Lookup:     h.Store,
		Vocabulary: h.Vocabulary,
		Generator:  h.Generator,
	}
}

// groupID resolves the request's group and writes a 400 when the header is
// not a valid uuid.
func (h *Handler) groupID(c *gin.Context) (uuid.UUID, bool) {
	header := strings.TrimSpace(c.GetHeader(GroupHeader))
	if header == "" {
		return h.DefaultGroup, true
	}
	id, err := uuid.Parse(header)
	if err != nil {
		c.String(http.StatusBadRequest, fmt.Sprintf("invalid %s header: %s", GroupHeader, err.Error()))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) parseError(c *gin.Context, kind recipe.RegisteredParser, err error) {
	switch {
	case errors.Is(err, parser.ErrLLMDisabled):
		c.String(http.StatusBadRequest, err.Error())
	case errors.Is(err, parser.ErrMalformedResponse):
		c.String(http.StatusBadGateway, fmt.Sprintf("llm err: %s", err.Error()))
	case errors.Is(err, context.DeadlineExceeded):
		c.String(http.StatusRequestTimeout, fmt.Sprintf("parsing timed out after %s", h.Timeout))
	default:
		log.Printf("Failed to parse ingredients with %q parser: %v", kind, err)
		c.String(http.StatusInternalServerError, fmt.Sprintf("parse err: %s", err.Error()))
	}
}
