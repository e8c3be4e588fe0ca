package item

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"A1", A1, false},
		{"a2", A2, false},
		{" B1 ", B1, false},
		{"B2", B2, false},
		{"C1", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestLevelOrdering(t *testing.T) {
	levels := AllLevels()
	for i := 1; i < len(levels); i++ {
		assert.Less(t, levels[i-1], levels[i])
	}
	assert.Equal(t, "B1", B1.String())
	assert.Equal(t, "Level(7)", Level(7).String())
}

func TestMemoryCatalog(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemoryCatalog([]Item{
		{ID: "verb-ser", Level: A2, Skill: "grammar"},
		{ID: "hola", Level: A1, Skill: "vocabulary"},
		{ID: "adios", Level: A1, Skill: "vocabulary"},
		{ID: "subjuntivo", Level: B2, Skill: "grammar"},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, c.Len())

	it, err := c.Resolve(ctx, "verb-ser")
	require.NoError(t, err)
	assert.Equal(t, A2, it.Level)

	_, err = c.Resolve(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	items, err := c.Items(ctx)
	require.NoError(t, err)
	var ids []string
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{"adios", "hola", "verb-ser", "subjuntivo"}, ids)

	// Returned slice must not alias internal state.
	items[0].ID = "mutated"
	again, _ := c.Items(ctx)
	assert.Equal(t, "adios", again[0].ID)
}

func TestMemoryCatalog_Rejects(t *testing.T) {
	_, err := NewMemoryCatalog([]Item{{ID: "", Level: A1, Skill: "x"}})
	assert.Error(t, err)

	_, err = NewMemoryCatalog([]Item{{ID: "a", Level: 0, Skill: "x"}})
	assert.Error(t, err)

	_, err = NewMemoryCatalog([]Item{
		{ID: "a", Level: A1, Skill: "x"},
		{ID: "a", Level: A2, Skill: "y"},
	})
	assert.Error(t, err)
}

func TestLoadCatalog_YAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/catalog.yaml", []byte(`
items:
  - id: q-001
    level: A1
    skill: vocabulary
  - id: q-002
    level: B1
    skill: listening
`), 0o644))

	c, err := LoadCatalog(fs, "/catalog.yaml")
	require.NoError(t, err)

	it, err := c.Resolve(context.Background(), "q-002")
	require.NoError(t, err)
	assert.Equal(t, Item{ID: "q-002", Level: B1, Skill: "listening"}, it)
}

func TestLoadCatalog_JSON(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/catalog.json",
		[]byte(`{"items":[{"id":"q-1","level":"A2","skill":"grammar"}]}`), 0o644))

	c, err := LoadCatalog(fs, "/catalog.json")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
}

func TestLoadCatalog_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing items", `{}`},
		{"unknown level", `{"items":[{"id":"q","level":"C2","skill":"x"}]}`},
		{"missing skill", `{"items":[{"id":"q","level":"A1"}]}`},
		{"numeric id", `{"items":[{"id":7,"level":"A1","skill":"x"}]}`},
		{"extra field", `{"items":[{"id":"q","level":"A1","skill":"x","text":"hola"}]}`},
		{"duplicate id", `{"items":[{"id":"q","level":"A1","skill":"x"},{"id":"q","level":"A2","skill":"y"}]}`},
		{"not yaml", "items: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadCatalog_MissingFile(t *testing.T) {
	_, err := LoadCatalog(afero.NewMemMapFs(), "/nope.yaml")
	assert.Error(t, err)
}
