package parser

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// UnitDef describes a measurement unit and the ways it is written.
// Ambiguous variants are matched case-insensitively but scored lower;
// CaseSensitive variants ("T" for tablespoon, "t" for teaspoon) only match
// exactly and are also scored lower.
type UnitDef struct {
	Canonical     string   `yaml:"canonical"`
	Variants      []string `yaml:"variants"`
	Ambiguous     []string `yaml:"ambiguous"`
	CaseSensitive []string `yaml:"case_sensitive"`
}

// VocabularyFile is the YAML format accepted by LoadVocabulary.
//
//	units:
//	  - canonical: cup
//	    variants: [cups]
//	    ambiguous: [c]
//	preparations: [chopped, diced]
//	comments: [to taste]
type VocabularyFile struct {
	Units        []UnitDef `yaml:"units"`
	Sizes        []string  `yaml:"sizes"`
	Preparations []string  `yaml:"preparations"`
	Adverbs      []string  `yaml:"adverbs"`
	Comments     []string  `yaml:"comments"`
}

type unitMatch struct {
	Canonical  string
	Confidence float64
}

// Vocabulary holds the word lists the tagger and the rule-based parser use to
// recognize units, sizes, preparations and trailing comments. It is read-only
// once built and can be shared between parsers.
type Vocabulary struct {
	units        map[string]unitMatch // lowercase variant -> unit
	exactUnits   map[string]unitMatch // case-sensitive variant -> unit
	maxUnitWords int
	sizes        map[string]struct{}
	preparations map[string]struct{}
	adverbs      map[string]struct{}
	comments     []string // longest first
}

// NewVocabulary returns the built-in vocabulary.
func NewVocabulary() *Vocabulary {
	v := &Vocabulary{
		units:        make(map[string]unitMatch),
		exactUnits:   make(map[string]unitMatch),
		maxUnitWords: 1,
		sizes:        make(map[string]struct{}),
		preparations: make(map[string]struct{}),
		adverbs:      make(map[string]struct{}),
	}
	v.Merge(defaultVocabulary)
	return v
}

// LoadVocabulary reads a YAML vocabulary file and merges it on top of the
// built-in vocabulary.
func LoadVocabulary(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary %s: %w", path, err)
	}
	var file VocabularyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary %s: %w", path, err)
	}
	v := NewVocabulary()
	v.Merge(file)
	return v, nil
}

// Merge adds every entry of f to the vocabulary. Later definitions of the same
// variant win.
func (v *Vocabulary) Merge(f VocabularyFile) {
	for _, u := range f.Units {
		v.AddUnit(u)
	}
	addWords(v.sizes, f.Sizes)
	addWords(v.preparations, f.Preparations)
	addWords(v.adverbs, f.Adverbs)

	seen := make(map[string]bool, len(v.comments))
	for _, c := range v.comments {
		seen[c] = true
	}
	for _, c := range f.Comments {
		c = strings.ToLower(strings.TrimSpace(c))
		if c != "" && !seen[c] {
			v.comments = append(v.comments, c)
			seen[c] = true
		}
	}
	sort.SliceStable(v.comments, func(i, j int) bool { return len(v.comments[i]) > len(v.comments[j]) })
}

// AddUnit registers a unit with its variants.
func (v *Vocabulary) AddUnit(u UnitDef) {
	canonical := strings.ToLower(strings.TrimSpace(u.Canonical))
	if canonical == "" {
		return
	}
	add := func(variant string, conf float64) {
		variant = strings.ToLower(strings.TrimSpace(variant))
		if variant == "" {
			return
		}
		v.units[variant] = unitMatch{Canonical: canonical, Confidence: conf}
		if n := len(strings.Fields(variant)); n > v.maxUnitWords {
			v.maxUnitWords = n
		}
	}

	add(canonical, confUnit)
	for _, variant := range u.Variants {
		add(variant, confUnit)
	}
	for _, variant := range u.Ambiguous {
		add(variant, confUnitAmbiguous)
	}
	for _, variant := range u.CaseSensitive {
		variant = strings.TrimSpace(variant)
		if variant != "" {
			v.exactUnits[variant] = unitMatch{Canonical: canonical, Confidence: confUnitAmbiguous}
		}
	}
}

// matchUnit finds the longest unit phrase at the start of s. rest is what
// follows the unit; a trailing period on abbreviations is consumed.
func (v *Vocabulary) matchUnit(s string) (unitMatch, string, bool) {
	fields := strings.Fields(s)
	n := v.maxUnitWords
	if n > len(fields) {
		n = len(fields)
	}

	for ; n >= 1; n-- {
		phrase := strings.Join(fields[:n], " ")
		rest := strings.Join(fields[n:], " ")
		if n == 1 {
			if m, ok := v.exactUnits[strings.TrimSuffix(phrase, ".")]; ok {
				return m, rest, true
			}
		}
		key := strings.ToLower(phrase)
		if m, ok := v.units[key]; ok {
			return m, rest, true
		}
		if m, ok := v.units[strings.TrimSuffix(key, ".")]; ok {
			return m, rest, true
		}
	}
	return unitMatch{}, s, false
}

// Canonical returns the canonical unit name for word, or "" when word is not a
// known unit.
func (v *Vocabulary) Canonical(word string) string {
	m, rest, ok := v.matchUnit(word)
	if !ok || rest != "" {
		return ""
	}
	return m.Canonical
}

func (v *Vocabulary) isSize(word string) bool {
	_, ok := v.sizes[cleanWord(word)]
	return ok
}

func (v *Vocabulary) isPreparation(word string) bool {
	_, ok := v.preparations[cleanWord(word)]
	return ok
}

func (v *Vocabulary) isAdverb(word string) bool {
	_, ok := v.adverbs[cleanWord(word)]
	return ok
}

// trailingComment splits a known comment phrase ("to taste", "for garnish")
// off the end of s.
func (v *Vocabulary) trailingComment(s string) (head, comment string, ok bool) {
	lower := strings.ToLower(s)
	for _, c := range v.comments {
		if lower == c {
			return "", s, true
		}
		if strings.HasSuffix(lower, " "+c) {
			cut := len(s) - len(c)
			return strings.TrimSpace(s[:cut]), s[cut:], true
		}
	}
	return s, "", false
}

func addWords(set map[string]struct{}, words []string) {
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			set[w] = struct{}{}
		}
	}
}

// cleanWord lowercases a token and strips surrounding punctuation.
func cleanWord(word string) string {
	return strings.ToLower(strings.Trim(word, ".,;:!?\"'"))
}

var defaultVocabulary = VocabularyFile{
	Units: []UnitDef{
		{Canonical: "teaspoon", Variants: []string{"teaspoons", "tsp", "tsps", "tspn", "ts"}, CaseSensitive: []string{"t"}},
		{Canonical: "tablespoon", Variants: []string{"tablespoons", "tbsp", "tbsps", "tbs", "tbl", "tbls", "tblsp"}, CaseSensitive: []string{"T", "Tb"}},
		{Canonical: "cup", Variants: []string{"cups"}, Ambiguous: []string{"c"}},
		{Canonical: "fluid ounce", Variants: []string{"fluid ounces", "fl oz", "fl. oz", "fl.oz", "floz"}},
		{Canonical: "ounce", Variants: []string{"ounces", "oz"}},
		{Canonical: "pound", Variants: []string{"pounds", "lb", "lbs"}},
		{Canonical: "gram", Variants: []string{"grams", "gramme", "grammes", "g", "gr", "gm"}},
		{Canonical: "kilogram", Variants: []string{"kilograms", "kilo", "kilos", "kg", "kgs"}},
		{Canonical: "milligram", Variants: []string{"milligrams", "mg"}},
		{Canonical: "milliliter", Variants: []string{"milliliters", "millilitre", "millilitres", "ml"}},
		{Canonical: "centiliter", Variants: []string{"centiliters", "centilitre", "centilitres", "cl"}},
		{Canonical: "deciliter", Variants: []string{"deciliters", "decilitre", "decilitres", "dl"}},
		{Canonical: "liter", Variants: []string{"liters", "litre", "litres"}, Ambiguous: []string{"l"}},
		{Canonical: "pint", Variants: []string{"pints"}, Ambiguous: []string{"pt", "pts"}},
		{Canonical: "quart", Variants: []string{"quarts", "qt", "qts"}},
		{Canonical: "gallon", Variants: []string{"gallons", "gal", "gals"}},
		{Canonical: "pinch", Variants: []string{"pinches"}},
		{Canonical: "dash", Variants: []string{"dashes"}},
		{Canonical: "drop", Variants: []string{"drops"}},
		{Canonical: "smidgen", Variants: []string{"smidgens"}},
		{Canonical: "clove", Variants: []string{"cloves"}},
		{Canonical: "can", Variants: []string{"cans"}},
		{Canonical: "jar", Variants: []string{"jars"}},
		{Canonical: "package", Variants: []string{"packages", "pkg", "pkgs", "pack", "packs"}},
		{Canonical: "packet", Variants: []string{"packets"}},
		{Canonical: "bag", Variants: []string{"bags"}},
		{Canonical: "box", Variants: []string{"boxes"}},
		{Canonical: "bottle", Variants: []string{"bottles"}},
		{Canonical: "bunch", Variants: []string{"bunches"}},
		{Canonical: "sprig", Variants: []string{"sprigs"}},
		{Canonical: "slice", Variants: []string{"slices"}},
		{Canonical: "stalk", Variants: []string{"stalks"}},
		{Canonical: "handful", Variants: []string{"handfuls"}},
		{Canonical: "sheet", Variants: []string{"sheets"}},
		{Canonical: "piece", Variants: []string{"pieces", "pc", "pcs"}},
		{Canonical: "stick", Ambiguous: []string{"sticks"}},
		{Canonical: "head", Ambiguous: []string{"heads"}},
		{Canonical: "inch", Variants: []string{"inches"}},
	},
	Sizes: []string{"small", "medium", "large", "extra-large", "jumbo", "big", "heaping", "heaped", "scant", "level", "generous"},
	Preparations: []string{
		"chopped", "diced", "minced", "sliced", "peeled", "grated", "shredded", "melted",
		"softened", "beaten", "crushed", "cubed", "halved", "quartered", "julienned", "mashed",
		"drained", "rinsed", "trimmed", "seeded", "cored", "pitted", "zested", "juiced",
		"sifted", "thawed", "divided", "cooked", "cut", "torn", "separated", "deveined",
		"whisked", "crumbled", "squeezed", "cooled", "warmed", "chilled", "packed", "stemmed",
		"hulled", "scrubbed", "shelled", "blanched", "patted",
	},
	Adverbs:  []string{"finely", "roughly", "coarsely", "thinly", "thickly", "lightly", "firmly", "loosely", "well", "very", "freshly"},
	Comments: []string{"to taste", "or to taste", "or more to taste", "for garnish", "for serving", "for dusting", "as needed", "optional", "if desired"},
}
