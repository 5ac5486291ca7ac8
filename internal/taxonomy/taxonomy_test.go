package taxonomy

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonathan/achievement-classifier/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_LoadsClosedSetInOrder(t *testing.T) {
	tax := Default()
	cats := tax.Categories()

	require.Len(t, cats, len(types.AllCategories()))
	for i, want := range types.AllCategories() {
		assert.Equal(t, want, cats[i].Name, "category %d out of order", i)
		assert.NotEmpty(t, cats[i].Keywords)
		assert.NotEmpty(t, cats[i].Subcategories)
		assert.NotEmpty(t, cats[i].Description)
		for _, level := range types.AllComplexities() {
			assert.Positive(t, cats[i].BasePoints[level])
		}
	}
}

func TestDefault_KeywordsAreLowercaseAndUnique(t *testing.T) {
	for _, def := range Default().Categories() {
		seen := map[string]bool{}
		for _, kw := range def.Keywords {
			assert.Equal(t, strings.ToLower(kw), kw)
			assert.False(t, seen[kw], "duplicate keyword %q in %s", kw, def.Name)
			seen[kw] = true
		}
	}
}

func TestDefault_ImpactMultipliers(t *testing.T) {
	tax := Default()
	assert.InDelta(t, 1.0, tax.ImpactMultiplier(types.ImpactLocal), 1e-9)
	assert.InDelta(t, 1.1, tax.ImpactMultiplier(types.ImpactRegional), 1e-9)
	assert.InDelta(t, 1.25, tax.ImpactMultiplier(types.ImpactNational), 1e-9)
	assert.InDelta(t, 1.5, tax.ImpactMultiplier(types.ImpactInternational), 1e-9)
	assert.InDelta(t, 1.0, tax.ImpactMultiplier("galactic"), 1e-9)
}

func TestLookup(t *testing.T) {
	def, ok := Default().Lookup(types.CategoryCompetition)
	require.True(t, ok)
	assert.Contains(t, def.Keywords, "hackathon")
	assert.Equal(t, "hackathon", def.Subcategories[0])

	_, ok = Default().Lookup("sports")
	assert.False(t, ok)
}

func TestCategories_ReturnsCopy(t *testing.T) {
	tax := Default()
	cats := tax.Categories()
	cats[0] = types.CategoryDefinition{Name: "mutated"}
	assert.Equal(t, types.CategoryAcademic, tax.Categories()[0].Name)
}

// defaultFile decodes the embedded table so tests can derive variants from it.
func defaultFile(t *testing.T) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(defaultTable, &m))
	return m
}

func writeJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "taxonomy.json")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestLoadFile_JSONOverride(t *testing.T) {
	m := defaultFile(t)
	cats := m["categories"].([]any)
	first := cats[0].(map[string]any)
	first["keywords"] = []any{"GPA", "Scholarship"}

	tax, err := LoadFile(writeJSON(t, m))
	require.NoError(t, err)

	def, ok := tax.Lookup(types.CategoryAcademic)
	require.True(t, ok)
	assert.Equal(t, []string{"gpa", "scholarship"}, def.Keywords)
}

func TestLoadFile_YAML(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("version: 1\n")
	sb.WriteString("impact_multipliers: {local: 1.0, regional: 1.2, national: 1.4, international: 2.0}\n")
	sb.WriteString("categories:\n")
	for _, cat := range types.AllCategories() {
		sb.WriteString("  - name: " + string(cat) + "\n")
		sb.WriteString("    description: " + string(cat) + " work\n")
		sb.WriteString("    keywords: [" + string(cat) + "]\n")
		sb.WriteString("    subcategories: [general]\n")
		sb.WriteString("    base_points: {low: 10, medium: 20, high: 30}\n")
	}
	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0644))

	tax, err := LoadFile(path)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, tax.ImpactMultiplier(types.ImpactInternational), 1e-9)

	def, ok := tax.Lookup(types.CategoryProject)
	require.True(t, ok)
	assert.Equal(t, 20, def.BasePoints[types.ComplexityMedium])
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m map[string]any)
		errMsg string
	}{
		{
			name: "unknown category",
			mutate: func(m map[string]any) {
				m["categories"].([]any)[0].(map[string]any)["name"] = "sports"
			},
			errMsg: "does not match schema",
		},
		{
			name: "missing category",
			mutate: func(m map[string]any) {
				m["categories"] = m["categories"].([]any)[1:]
			},
			errMsg: "is missing",
		},
		{
			name: "duplicate category",
			mutate: func(m map[string]any) {
				cats := m["categories"].([]any)
				m["categories"] = append(cats, cats[0])
			},
			errMsg: "declared twice",
		},
		{
			name: "empty subcategories",
			mutate: func(m map[string]any) {
				m["categories"].([]any)[2].(map[string]any)["subcategories"] = []any{}
			},
			errMsg: "does not match schema",
		},
		{
			name: "non-positive base points",
			mutate: func(m map[string]any) {
				m["categories"].([]any)[2].(map[string]any)["base_points"] = map[string]any{"low": 0, "medium": 1, "high": 2}
			},
			errMsg: "does not match schema",
		},
		{
			name: "case-insensitive duplicate keyword",
			mutate: func(m map[string]any) {
				m["categories"].([]any)[1].(map[string]any)["keywords"] = []any{"AWS", "aws"}
			},
			errMsg: "repeats keyword",
		},
		{
			name: "decreasing multipliers",
			mutate: func(m map[string]any) {
				m["impact_multipliers"] = map[string]any{"local": 1.0, "regional": 1.3, "national": 1.2, "international": 1.5}
			},
			errMsg: "must not be lower",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := defaultFile(t)
			tt.mutate(m)

			_, err := LoadFile(writeJSON(t, m))
			require.Error(t, err)
			var loadErr *LoadError
			assert.ErrorAs(t, err, &loadErr)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadFile_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxonomy.toml")
	require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0644))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported taxonomy format")
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read taxonomy file")
}
