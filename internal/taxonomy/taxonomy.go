// Package taxonomy holds the immutable achievement category table: keywords, subcategories,
// base points per complexity, and impact multipliers.
package taxonomy

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jonathan/achievement-classifier/internal/schemas"
	"github.com/jonathan/achievement-classifier/internal/types"
	"go.yaml.in/yaml/v3"
)

//go:embed taxonomy.json
var defaultTable []byte

//go:embed taxonomy.schema.json
var tableSchema string

// Taxonomy is the loaded category table. It is never mutated after construction and may be
// shared freely across goroutines.
type Taxonomy struct {
	categories  []types.CategoryDefinition
	index       map[types.Category]int
	multipliers map[types.Impact]float64
}

type tableFile struct {
	Version           int                        `json:"version" yaml:"version"`
	ImpactMultipliers map[types.Impact]float64   `json:"impact_multipliers" yaml:"impact_multipliers"`
	Categories        []types.CategoryDefinition `json:"categories" yaml:"categories"`
}

var (
	defaultOnce sync.Once
	defaultTax  *Taxonomy
	defaultErr  error
)

// Default returns the embedded taxonomy, loading it on first use.
// It panics if the embedded table is invalid, which can only happen with a broken build.
func Default() *Taxonomy {
	defaultOnce.Do(func() {
		defaultTax, defaultErr = Load()
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("embedded taxonomy is invalid: %v", defaultErr))
	}
	return defaultTax
}

// Load parses and validates the embedded taxonomy table.
func Load() (*Taxonomy, error) {
	return parseJSON("(embedded)", defaultTable)
}

// LoadFile loads an override taxonomy from a .json, .yaml or .yml file.
func LoadFile(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: "failed to read taxonomy file", Cause: err}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return parseJSON(path, data)
	case ".yaml", ".yml":
		return parseYAML(path, data)
	default:
		return nil, &LoadError{Path: path, Message: fmt.Sprintf("unsupported taxonomy format %q", filepath.Ext(path))}
	}
}

func parseJSON(source string, data []byte) (*Taxonomy, error) {
	if err := schemas.ValidateJSONString(tableSchema, string(data)); err != nil {
		return nil, &LoadError{Path: source, Message: "taxonomy does not match schema", Cause: err}
	}

	var tf tableFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, &LoadError{Path: source, Message: "failed to parse taxonomy JSON", Cause: err}
	}
	return build(source, &tf)
}

func parseYAML(source string, data []byte) (*Taxonomy, error) {
	var tf tableFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, &LoadError{Path: source, Message: "failed to parse taxonomy YAML", Cause: err}
	}
	if err := schemas.ValidateValue(tableSchema, &tf); err != nil {
		return nil, &LoadError{Path: source, Message: "taxonomy does not match schema", Cause: err}
	}
	return build(source, &tf)
}

// build enforces the invariants the schema cannot express and freezes the table.
func build(source string, tf *tableFile) (*Taxonomy, error) {
	t := &Taxonomy{
		categories:  make([]types.CategoryDefinition, 0, len(tf.Categories)),
		index:       make(map[types.Category]int, len(tf.Categories)),
		multipliers: make(map[types.Impact]float64, len(tf.ImpactMultipliers)),
	}

	for _, def := range tf.Categories {
		if !def.Name.IsValid() {
			return nil, &LoadError{Path: source, Message: fmt.Sprintf("unknown category %q", def.Name)}
		}
		if _, dup := t.index[def.Name]; dup {
			return nil, &LoadError{Path: source, Message: fmt.Sprintf("category %q declared twice", def.Name)}
		}

		frozen, err := freeze(def)
		if err != nil {
			return nil, &LoadError{Path: source, Message: err.Error()}
		}
		t.index[def.Name] = len(t.categories)
		t.categories = append(t.categories, frozen)
	}

	for _, cat := range types.AllCategories() {
		if _, ok := t.index[cat]; !ok {
			return nil, &LoadError{Path: source, Message: fmt.Sprintf("category %q is missing", cat)}
		}
	}

	prev := 0.0
	for _, impact := range types.AllImpacts() {
		m, ok := tf.ImpactMultipliers[impact]
		if !ok {
			return nil, &LoadError{Path: source, Message: fmt.Sprintf("impact multiplier %q is missing", impact)}
		}
		if m < prev {
			return nil, &LoadError{Path: source, Message: fmt.Sprintf("impact multiplier %q must not be lower than the narrower tier", impact)}
		}
		t.multipliers[impact] = m
		prev = m
	}

	return t, nil
}

// freeze copies a definition, lower-casing keywords and checking per-category invariants.
func freeze(def types.CategoryDefinition) (types.CategoryDefinition, error) {
	out := types.CategoryDefinition{
		Name:          def.Name,
		Description:   strings.TrimSpace(def.Description),
		Keywords:      make([]string, 0, len(def.Keywords)),
		Subcategories: make([]string, 0, len(def.Subcategories)),
		BasePoints:    make(map[types.Complexity]int, len(def.BasePoints)),
	}

	seen := make(map[string]bool, len(def.Keywords))
	for _, kw := range def.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			return out, fmt.Errorf("category %q has an empty keyword", def.Name)
		}
		if seen[kw] {
			return out, fmt.Errorf("category %q repeats keyword %q", def.Name, kw)
		}
		seen[kw] = true
		out.Keywords = append(out.Keywords, kw)
	}
	if len(out.Keywords) == 0 {
		return out, fmt.Errorf("category %q has no keywords", def.Name)
	}

	for _, sub := range def.Subcategories {
		sub = strings.ToLower(strings.TrimSpace(sub))
		if sub == "" {
			return out, fmt.Errorf("category %q has an empty subcategory", def.Name)
		}
		out.Subcategories = append(out.Subcategories, sub)
	}
	if len(out.Subcategories) == 0 {
		return out, fmt.Errorf("category %q has no subcategories", def.Name)
	}

	for _, level := range types.AllComplexities() {
		points, ok := def.BasePoints[level]
		if !ok || points <= 0 {
			return out, fmt.Errorf("category %q needs positive base points for %q complexity", def.Name, level)
		}
		out.BasePoints[level] = points
	}

	return out, nil
}

// Categories returns the category definitions in declaration order.
// The definitions share backing storage with the taxonomy and must not be modified.
func (t *Taxonomy) Categories() []types.CategoryDefinition {
	out := make([]types.CategoryDefinition, len(t.categories))
	copy(out, t.categories)
	return out
}

// Lookup returns the definition for a category.
func (t *Taxonomy) Lookup(cat types.Category) (types.CategoryDefinition, bool) {
	i, ok := t.index[cat]
	if !ok {
		return types.CategoryDefinition{}, false
	}
	return t.categories[i], true
}

// ImpactMultiplier returns the point multiplier for an impact tier, or 1.0 for unknown tiers.
func (t *Taxonomy) ImpactMultiplier(impact types.Impact) float64 {
	if m, ok := t.multipliers[impact]; ok {
		return m
	}
	return 1.0
}
