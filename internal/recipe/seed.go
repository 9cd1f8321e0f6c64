package recipe

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// SeedFile is the on-disk format of a vocabulary seed.
//
//	foods:
//	  - name: onion
//	    plural_name: onions
//	units:
//	  - name: tablespoon
//	    abbreviation: tbsp
type SeedFile struct {
	Foods []struct {
		Name        string `yaml:"name"`
		PluralName  string `yaml:"plural_name"`
		Description string `yaml:"description"`
	} `yaml:"foods"`
	Units []struct {
		Name               string `yaml:"name"`
		PluralName         string `yaml:"plural_name"`
		Abbreviation       string `yaml:"abbreviation"`
		PluralAbbreviation string `yaml:"plural_abbreviation"`
		UseAbbreviation    bool   `yaml:"use_abbreviation"`
		Fraction           *bool  `yaml:"fraction"`
		Description        string `yaml:"description"`
	} `yaml:"units"`
}

// LoadSeedFile reads a YAML seed file.
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return &seed, nil
}

// Seed writes the seed's foods and units into a group. Entries whose name
// already resolves in the store are skipped, so seeding is repeatable.
func Seed(ctx context.Context, store Store, groupID uuid.UUID, seed *SeedFile) (foods, units int, err error) {
	for _, f := range seed.Foods {
		if f.Name == "" {
			continue
		}
		existing, err := store.LookupFood(ctx, groupID, f.Name)
		if err != nil {
			return foods, units, err
		}
		if existing != nil {
			continue
		}
		food := &IngredientFood{GroupID: groupID, Name: f.Name, PluralName: f.PluralName, Description: f.Description}
		if err := store.SaveFood(ctx, food); err != nil {
			return foods, units, err
		}
		foods++
	}

	for _, u := range seed.Units {
		if u.Name == "" {
			continue
		}
		existing, err := store.LookupUnit(ctx, groupID, u.Name)
		if err != nil {
			return foods, units, err
		}
		if existing != nil {
			continue
		}
		fraction := true
		if u.Fraction != nil {
			fraction = *u.Fraction
		}
		unit := &IngredientUnit{
			GroupID:            groupID,
			Name:               u.Name,
			PluralName:         u.PluralName,
			Abbreviation:       u.Abbreviation,
			PluralAbbreviation: u.PluralAbbreviation,
			UseAbbreviation:    u.UseAbbreviation,
			Fraction:           fraction,
			Description:        u.Description,
		}
		if err := store.SaveUnit(ctx, unit); err != nil {
			return foods, units, err
		}
		units++
	}

	log.Printf("Seeded %d foods and %d units for group %s", foods, units, groupID)
	return foods, units, nil
}
