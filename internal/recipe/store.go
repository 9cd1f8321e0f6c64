package recipe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Store defines the interface for the food and unit vocabulary of a group.
// Lookups return nil, nil when nothing matches.
type Store interface {
	LookupFood(ctx context.Context, groupID uuid.UUID, name string) (*IngredientFood, error)
	LookupUnit(ctx context.Context, groupID uuid.UUID, name string) (*IngredientUnit, error)
	SaveFood(ctx context.Context, food *IngredientFood) error
	SaveUnit(ctx context.Context, unit *IngredientUnit) error
	ListFoods(ctx context.Context, groupID uuid.UUID) ([]*IngredientFood, error)
	ListUnits(ctx context.Context, groupID uuid.UUID) ([]*IngredientUnit, error)
}

const (
	foodColumns = "id, group_id, name, plural_name, description"
	unitColumns = "id, group_id, name, plural_name, abbreviation, plural_abbreviation, use_abbreviation, fraction, description"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS ingredient_foods (
		id TEXT PRIMARY KEY,
		group_id TEXT NOT NULL,
		name TEXT NOT NULL,
		plural_name TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ingredient_foods_group ON ingredient_foods(group_id)`,
	`CREATE TABLE IF NOT EXISTS ingredient_units (
		id TEXT PRIMARY KEY,
		group_id TEXT NOT NULL,
		name TEXT NOT NULL,
		plural_name TEXT NOT NULL DEFAULT '',
		abbreviation TEXT NOT NULL DEFAULT '',
		plural_abbreviation TEXT NOT NULL DEFAULT '',
		use_abbreviation BOOLEAN NOT NULL DEFAULT FALSE,
		fraction BOOLEAN NOT NULL DEFAULT TRUE,
		description TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ingredient_units_group ON ingredient_units(group_id)`,
}

// SQLStore implements Store on top of PostgreSQL or SQLite.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore connects with the given driver ("postgres" or "sqlite") and
// creates the vocabulary tables if they do not exist.
func NewSQLStore(driverName, dataSourceName string) (*SQLStore, error) {
	db, err := sqlx.Connect(driverName, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if driverName == "sqlite" {
		// every sqlite connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create vocabulary schema: %w", err)
		}
	}

	return &SQLStore{db: db}, nil
}

// NewPostgresStore creates a new SQLStore backed by PostgreSQL.
func NewPostgresStore(dataSourceName string) (*SQLStore, error) {
	return NewSQLStore("postgres", dataSourceName)
}

// Close closes the underlying database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// LookupFood finds a food by name or plural name, case-insensitively. An exact
// name match wins over a plural match.
func (s *SQLStore) LookupFood(ctx context.Context, groupID uuid.UUID, name string) (*IngredientFood, error) {
	query := s.db.Rebind("SELECT " + foodColumns + ` FROM ingredient_foods
		WHERE group_id = ? AND (LOWER(name) = ? OR LOWER(plural_name) = ?)
		ORDER BY CASE WHEN LOWER(name) = ? THEN 0 ELSE 1 END, name
		LIMIT 1`)

	var f IngredientFood
	lower := strings.ToLower(name)
	err := s.db.GetContext(ctx, &f, query, groupID, lower, lower, lower)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lookup food %q: %w", name, err)
	}
	return &f, nil
}

// LookupUnit finds a unit by name, plural name, abbreviation or plural
// abbreviation, case-insensitively. An exact name match wins.
func (s *SQLStore) LookupUnit(ctx context.Context, groupID uuid.UUID, name string) (*IngredientUnit, error) {
	query := s.db.Rebind("SELECT " + unitColumns + ` FROM ingredient_units
		WHERE group_id = ? AND (
			LOWER(name) = ? OR LOWER(plural_name) = ?
			OR LOWER(abbreviation) = ? OR LOWER(plural_abbreviation) = ?
		)
		ORDER BY CASE WHEN LOWER(name) = ? THEN 0 ELSE 1 END, name
		LIMIT 1`)

	var u IngredientUnit
	lower := strings.ToLower(name)
	err := s.db.GetContext(ctx, &u, query, groupID, lower, lower, lower, lower, lower)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lookup unit %q: %w", name, err)
	}
	return &u, nil
}

// SaveFood inserts or updates a food. A new id is assigned when the food has none.
func (s *SQLStore) SaveFood(ctx context.Context, food *IngredientFood) error {
	if food.ID == uuid.Nil {
		food.ID = uuid.New()
	}
	query := s.db.Rebind(`INSERT INTO ingredient_foods (` + foodColumns + `)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, plural_name = excluded.plural_name, description = excluded.description`)

	_, err := s.db.ExecContext(ctx, query, food.ID, food.GroupID, food.Name, food.PluralName, food.Description)
	if err != nil {
		return fmt.Errorf("failed to save food: %w", err)
	}
	return nil
}

// SaveUnit inserts or updates a unit. A new id is assigned when the unit has none.
func (s *SQLStore) SaveUnit(ctx context.Context, unit *IngredientUnit) error {
	if unit.ID == uuid.Nil {
		unit.ID = uuid.New()
	}
	query := s.db.Rebind(`INSERT INTO ingredient_units (` + unitColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, plural_name = excluded.plural_name,
			abbreviation = excluded.abbreviation, plural_abbreviation = excluded.plural_abbreviation,
			use_abbreviation = excluded.use_abbreviation, fraction = excluded.fraction,
			description = excluded.description`)

	_, err := s.db.ExecContext(ctx, query,
		unit.ID,
		unit.GroupID,
		unit.Name,
		unit.PluralName,
		unit.Abbreviation,
		unit.PluralAbbreviation,
		unit.UseAbbreviation,
		unit.Fraction,
		unit.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to save unit: %w", err)
	}
	return nil
}

// ListFoods returns every food of a group ordered by name.
func (s *SQLStore) ListFoods(ctx context.Context, groupID uuid.UUID) ([]*IngredientFood, error) {
	foods := []*IngredientFood{}
	query := s.db.Rebind("SELECT " + foodColumns + " FROM ingredient_foods WHERE group_id = ? ORDER BY name")
	if err := s.db.SelectContext(ctx, &foods, query, groupID); err != nil {
		return nil, fmt.Errorf("failed to list foods: %w", err)
	}
	return foods, nil
}

// ListUnits returns every unit of a group ordered by name.
func (s *SQLStore) ListUnits(ctx context.Context, groupID uuid.UUID) ([]*IngredientUnit, error) {
	units := []*IngredientUnit{}
	query := s.db.Rebind("SELECT " + unitColumns + " FROM ingredient_units WHERE group_id = ? ORDER BY name")
	if err := s.db.SelectContext(ctx, &units, query, groupID); err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	return units, nil
}

// MemoryStore is an in-process Store. It is safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	foods map[uuid.UUID]*IngredientFood
	units map[uuid.UUID]*IngredientUnit
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		foods: make(map[uuid.UUID]*IngredientFood),
		units: make(map[uuid.UUID]*IngredientUnit),
	}
}

// LookupFood finds a food by name or plural name, case-insensitively. An exact
// name match wins over a plural match.
func (m *MemoryStore) LookupFood(ctx context.Context, groupID uuid.UUID, name string) (*IngredientFood, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var plural *IngredientFood
	for _, f := range m.sortedFoods(groupID) {
		if strings.EqualFold(f.Name, name) {
			c := *f
			return &c, nil
		}
		if plural == nil && f.PluralName != "" && strings.EqualFold(f.PluralName, name) {
			plural = f
		}
	}
	if plural != nil {
		c := *plural
		return &c, nil
	}
	return nil, nil
}

// LookupUnit finds a unit by name, plural name, abbreviation or plural
// abbreviation, case-insensitively. An exact name match wins.
func (m *MemoryStore) LookupUnit(ctx context.Context, groupID uuid.UUID, name string) (*IngredientUnit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var alias *IngredientUnit
	for _, u := range m.sortedUnits(groupID) {
		if strings.EqualFold(u.Name, name) {
			c := *u
			return &c, nil
		}
		if alias == nil && matchesAny(name, u.PluralName, u.Abbreviation, u.PluralAbbreviation) {
			alias = u
		}
	}
	if alias != nil {
		c := *alias
		return &c, nil
	}
	return nil, nil
}

// SaveFood inserts or replaces a food. A new id is assigned when the food has none.
func (m *MemoryStore) SaveFood(ctx context.Context, food *IngredientFood) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if food.ID == uuid.Nil {
		food.ID = uuid.New()
	}
	c := *food
	m.foods[food.ID] = &c
	return nil
}

// SaveUnit inserts or replaces a unit. A new id is assigned when the unit has none.
func (m *MemoryStore) SaveUnit(ctx context.Context, unit *IngredientUnit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if unit.ID == uuid.Nil {
		unit.ID = uuid.New()
	}
	c := *unit
	m.units[unit.ID] = &c
	return nil
}

// ListFoods returns every food of a group ordered by name.
func (m *MemoryStore) ListFoods(ctx context.Context, groupID uuid.UUID) ([]*IngredientFood, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*IngredientFood{}
	for _, f := range m.sortedFoods(groupID) {
		c := *f
		out = append(out, &c)
	}
	return out, nil
}

// ListUnits returns every unit of a group ordered by name.
func (m *MemoryStore) ListUnits(ctx context.Context, groupID uuid.UUID) ([]*IngredientUnit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*IngredientUnit{}
	for _, u := range m.sortedUnits(groupID) {
		c := *u
		out = append(out, &c)
	}
	return out, nil
}

// sortedFoods returns the group's foods ordered by name so lookups are
// deterministic. Callers must hold the lock.
func (m *MemoryStore) sortedFoods(groupID uuid.UUID) []*IngredientFood {
	out := []*IngredientFood{}
	for _, f := range m.foods {
		if f.GroupID == groupID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *MemoryStore) sortedUnits(groupID uuid.UUID) []*IngredientUnit {
	out := []*IngredientUnit{}
	for _, u := range m.units {
		if u.GroupID == groupID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func matchesAny(name string, candidates ...string) bool {
	for _, c := range candidates {
		if c != "" && strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}
