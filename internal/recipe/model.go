package recipe

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// RegisteredParser identifies an ingredient parsing strategy.
type RegisteredParser string

const (
	ParserNLP    RegisteredParser = "nlp"
	ParserBrute  RegisteredParser = "brute"
	ParserOpenAI RegisteredParser = "openai"
)

// UnmarshalJSON implements the json.Unmarshaler interface for RegisteredParser.
// Values are trimmed and lowercased; unknown values are kept as-is and resolved
// by the parser registry.
func (p *RegisteredParser) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*p = RegisteredParser(strings.ToLower(strings.TrimSpace(s)))
	return nil
}

// IngredientFood is either a food bound to the group vocabulary or, when ID is
// uuid.Nil, a name-only proposal for a new food.
type IngredientFood struct {
	ID          uuid.UUID `json:"id" db:"id"`
	GroupID     uuid.UUID `json:"group_id" db:"group_id"`
	Name        string    `json:"name" db:"name"`
	PluralName  string    `json:"plural_name" db:"plural_name"`
	Description string    `json:"description" db:"description"`
}

// IsNew reports whether the food has not been resolved against the vocabulary.
func (f *IngredientFood) IsNew() bool {
	return f.ID == uuid.Nil
}

// IngredientUnit is either a unit bound to the group vocabulary or, when ID is
// uuid.Nil, a name-only proposal for a new unit.
type IngredientUnit struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	GroupID            uuid.UUID `json:"group_id" db:"group_id"`
	Name               string    `json:"name" db:"name"`
	PluralName         string    `json:"plural_name" db:"plural_name"`
	Abbreviation       string    `json:"abbreviation" db:"abbreviation"`
	PluralAbbreviation string    `json:"plural_abbreviation" db:"plural_abbreviation"`
	UseAbbreviation    bool      `json:"use_abbreviation" db:"use_abbreviation"`
	Fraction           bool      `json:"fraction" db:"fraction"`
	Description        string    `json:"description" db:"description"`
}

// IsNew reports whether the unit has not been resolved against the vocabulary.
func (u *IngredientUnit) IsNew() bool {
	return u.ID == uuid.Nil
}

// NewFoodCandidate returns a name-only food proposal.
func NewFoodCandidate(name string) *IngredientFood {
	return &IngredientFood{Name: name}
}

// NewUnitCandidate returns a name-only unit proposal.
func NewUnitCandidate(name string) *IngredientUnit {
	return &IngredientUnit{Name: name}
}

// RecipeIngredient is the structured form of a single ingredient line.
type RecipeIngredient struct {
	Title         string          `json:"title"`
	Quantity      float64         `json:"quantity"`
	Unit          *IngredientUnit `json:"unit"`
	Food          *IngredientFood `json:"food"`
	Note          string          `json:"note"`
	DisableAmount bool            `json:"disable_amount"`
}

// IngredientConfidence holds per-field confidences in [0, 1].
type IngredientConfidence struct {
	Average  float64 `json:"average"`
	Quantity float64 `json:"quantity"`
	Unit     float64 `json:"unit"`
	Food     float64 `json:"food"`
	Comment  float64 `json:"comment"`
}

// ParsedIngredient is the result of parsing one input line. Input is always
// the verbatim source line.
type ParsedIngredient struct {
	Input      string               `json:"input"`
	Ingredient RecipeIngredient     `json:"ingredient"`
	Confidence IngredientConfidence `json:"confidence"`
}
