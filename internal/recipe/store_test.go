package recipe

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	store, err := NewSQLStore("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func storesUnderTest(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": newSQLiteStore(t),
	}
}

func TestStoreFoods(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			group := uuid.New()

			onion := &IngredientFood{GroupID: group, Name: "onion", PluralName: "onions"}
			require.NoError(t, store.SaveFood(ctx, onion))
			assert.NotEqual(t, uuid.Nil, onion.ID)
			require.NoError(t, store.SaveFood(ctx, &IngredientFood{GroupID: group, Name: "Garlic"}))
			require.NoError(t, store.SaveFood(ctx, &IngredientFood{GroupID: uuid.New(), Name: "leek"}))

			found, err := store.LookupFood(ctx, group, "ONIONS")
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, onion.ID, found.ID)
			assert.Equal(t, group, found.GroupID)

			found, err = store.LookupFood(ctx, group, "garlic")
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, "Garlic", found.Name)

			found, err = store.LookupFood(ctx, group, "leek")
			require.NoError(t, err)
			assert.Nil(t, found)

			foods, err := store.ListFoods(ctx, group)
			require.NoError(t, err)
			require.Len(t, foods, 2)
			assert.Equal(t, "Garlic", foods[0].Name)
			assert.Equal(t, "onion", foods[1].Name)

			onion.Description = "yellow"
			require.NoError(t, store.SaveFood(ctx, onion))
			found, err = store.LookupFood(ctx, group, "onion")
			require.NoError(t, err)
			assert.Equal(t, "yellow", found.Description)
		})
	}
}

func TestStoreFoodExactNameWins(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			group := uuid.New()

			// "greens" is both a plural and a name
			require.NoError(t, store.SaveFood(ctx, &IngredientFood{GroupID: group, Name: "green", PluralName: "greens"}))
			require.NoError(t, store.SaveFood(ctx, &IngredientFood{GroupID: group, Name: "greens"}))

			found, err := store.LookupFood(ctx, group, "greens")
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, "greens", found.Name)
		})
	}
}

func TestStoreUnits(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			group := uuid.New()

			tbsp := &IngredientUnit{
				GroupID:            group,
				Name:               "tablespoon",
				PluralName:         "tablespoons",
				Abbreviation:       "tbsp",
				PluralAbbreviation: "tbsps",
				Fraction:           true,
			}
			require.NoError(t, store.SaveUnit(ctx, tbsp))

			for _, alias := range []string{"tablespoon", "Tablespoons", "TBSP", "tbsps"} {
				found, err := store.LookupUnit(ctx, group, alias)
				require.NoError(t, err)
				require.NotNil(t, found, alias)
				assert.Equal(t, tbsp.ID, found.ID)
				assert.True(t, found.Fraction)
				assert.False(t, found.UseAbbreviation)
			}

			found, err := store.LookupUnit(ctx, group, "cup")
			require.NoError(t, err)
			assert.Nil(t, found)

			units, err := store.ListUnits(ctx, uuid.New())
			require.NoError(t, err)
			assert.Empty(t, units)
		})
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	group := uuid.New()
	require.NoError(t, store.SaveFood(ctx, &IngredientFood{GroupID: group, Name: "onion"}))

	found, err := store.LookupFood(ctx, group, "onion")
	require.NoError(t, err)
	found.Name = "shallot"

	again, err := store.LookupFood(ctx, group, "onion")
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, "onion", again.Name)
}

func TestNewSQLStoreRejectsUnknownDriver(t *testing.T) {
	_, err := NewSQLStore("oracle", "whatever")
	assert.Error(t, err)
}
