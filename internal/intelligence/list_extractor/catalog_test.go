package list_extractor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ListSense/pkg/errors"
	"github.com/turtacn/ListSense/pkg/types/entity"
)

const sampleCatalog = `
lists:
  - name: fruit
    tolerance: medium
    values:
      - name: Blueberry
        synonyms: [blueberries, blueberry, blue berries]
      - name: Apple
        synonyms: [apple, red apple]
  - name: airport
    fuzzy: 0.9
    values:
      - name: SFO
        synonyms: [SFO, SF, San-Francisco]
patterns:
  - name: flight
    pattern: '[a-z]{2}\d{3,4}'
    examples: [AC1234]
`

func writeCatalog(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "entities.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseCatalog(t *testing.T) {
	f, err := ParseCatalog([]byte(sampleCatalog))
	require.NoError(t, err)
	require.Len(t, f.Lists, 2)
	require.Len(t, f.Patterns, 1)
	assert.Equal(t, entity.ToleranceMedium, f.Lists[0].Tolerance)
	require.NotNil(t, f.Lists[1].Fuzzy)
	assert.Equal(t, 0.9, *f.Lists[1].Fuzzy)
	assert.Equal(t, []string{"blueberries", "blueberry", "blue berries"}, f.Lists[0].Values[0].Synonyms)
}

func TestParseCatalog_JSON(t *testing.T) {
	f, err := ParseCatalog([]byte(`{"lists":[{"name":"x","values":[{"name":"a","synonyms":["a b"]}]}]}`))
	require.NoError(t, err)
	require.Len(t, f.Lists, 1)
	assert.Equal(t, "x", f.Lists[0].Name)
}

func TestParseCatalog_Invalid(t *testing.T) {
	_, err := ParseCatalog([]byte("lists: [unterminated"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeCatalogLoadFailed))
}

func TestCatalog_LoadFile(t *testing.T) {
	c := NewCatalog(nil, nil)
	require.NoError(t, c.LoadFile(writeCatalog(t, t.TempDir(), sampleCatalog)))
	assert.Equal(t, 3, c.Len())

	e, ok := c.Get("fruit")
	require.True(t, ok)
	assert.Equal(t, entity.KindList, e.Kind)
	require.NotNil(t, e.List)
	assert.Equal(t, 0.8, e.List.Fuzzy)
	assert.Equal(t, []string{"blue", " ", "berries"}, e.List.Values[0].Synonyms[2].Tokens)

	e, ok = c.Get("flight")
	require.True(t, ok)
	assert.Equal(t, entity.KindPattern, e.Kind)
	assert.Nil(t, e.List)

	names := []string{}
	for _, entry := range c.List() {
		names = append(names, entry.Name)
	}
	assert.Equal(t, []string{"fruit", "airport", "flight"}, names)
}

func TestCatalog_LoadFile_Missing(t *testing.T) {
	c := NewCatalog(nil, nil)
	err := c.LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeCatalogLoadFailed))
}

func TestCatalog_LoadFile_Empty(t *testing.T) {
	c := NewCatalog(nil, nil)
	err := c.LoadFile(writeCatalog(t, t.TempDir(), "  \n"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeCatalogLoadFailed))
}

func TestCatalog_Replace_KeepsPreviousOnError(t *testing.T) {
	c := NewCatalog(nil, nil)
	f, err := ParseCatalog([]byte(sampleCatalog))
	require.NoError(t, err)
	require.NoError(t, c.Replace(f))

	dup := CatalogFile{Lists: []entity.ListEntityDef{
		{Name: "x", Values: []entity.ListValueDef{{Name: "a", Synonyms: []string{"a"}}}},
		{Name: "x", Values: []entity.ListValueDef{{Name: "b", Synonyms: []string{"b"}}}},
	}}
	err = c.Replace(dup)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConflict))
	assert.Equal(t, 3, c.Len())

	bad := CatalogFile{Patterns: []entity.PatternEntityDefinition{{Name: "p", Pattern: "("}}}
	err = c.Replace(bad)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidPattern))
	assert.Equal(t, 3, c.Len())
}

func TestCatalog_PutAndDelete(t *testing.T) {
	c := NewCatalog(nil, nil)

	def, err := c.PutList(entity.ListEntityDef{
		Name:      "color",
		Tolerance: entity.ToleranceStrict,
		Values:    []entity.ListValueDef{{Name: "Red", Synonyms: []string{"red", "crimson"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, def.Fuzzy)

	require.NoError(t, c.PutPattern(entity.PatternEntityDefinition{Name: "num", Pattern: `\d+`}))
	assert.Equal(t, 2, c.Len())

	// Replacing keeps one entry per name.
	require.NoError(t, c.PutPattern(entity.PatternEntityDefinition{Name: "color", Pattern: `red`}))
	assert.Equal(t, 2, c.Len())
	e, _ := c.Get("color")
	assert.Equal(t, entity.KindPattern, e.Kind)

	assert.True(t, c.Delete("num"))
	assert.False(t, c.Delete("num"))
	assert.Equal(t, 1, c.Len())

	_, err = c.PutList(entity.ListEntityDef{Name: "bad", Tolerance: "fuzzy-ish"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownTolerance))
}

func TestCatalog_Resolve(t *testing.T) {
	c := NewCatalog(nil, nil)
	require.NoError(t, c.LoadFile(writeCatalog(t, t.TempDir(), sampleCatalog)))

	all, err := c.Resolve(nil)
	require.NoError(t, err)
	assert.Len(t, all.Lists, 2)
	assert.Len(t, all.Patterns, 1)
	assert.Equal(t, 3, all.Len())

	some, err := c.Resolve([]string{"airport"})
	require.NoError(t, err)
	require.Len(t, some.Lists, 1)
	assert.Equal(t, "airport", some.Lists[0].Name)

	_, err = c.Resolve([]string{"airport", "ghost"})
	assert.True(t, errors.IsNotFound(err))
}

func TestCatalog_GenerationAdvancesOnChange(t *testing.T) {
	c := NewCatalog(nil, nil)
	require.NoError(t, c.LoadFile(writeCatalog(t, t.TempDir(), sampleCatalog)))

	before, err := c.Resolve(nil)
	require.NoError(t, err)
	assert.Equal(t, c.Generation(), before.Generation)

	_, err = c.PutList(entity.ListEntityDef{Name: "bad", Tolerance: "fuzzy-ish"})
	require.Error(t, err)
	assert.Equal(t, before.Generation, c.Generation())
	assert.False(t, c.Delete("ghost"))
	assert.Equal(t, before.Generation, c.Generation())

	require.NoError(t, c.PutPattern(entity.PatternEntityDefinition{Name: "zip", Pattern: `\d{5}`}))
	afterPut := c.Generation()
	assert.Greater(t, afterPut, before.Generation)

	require.True(t, c.Delete("zip"))
	assert.Greater(t, c.Generation(), afterPut)

	after, err := c.Resolve(nil)
	require.NoError(t, err)
	assert.NotEqual(t, before.Generation, after.Generation)
}

func TestCatalog_ResolvedSetExtracts(t *testing.T) {
	c := NewCatalog(nil, nil)
	require.NoError(t, c.LoadFile(writeCatalog(t, t.TempDir(), sampleCatalog)))
	set, err := c.Resolve([]string{"fruit"})
	require.NoError(t, err)

	e := NewExtractor(DefaultExtractorConfig(), nil, nil, nil)
	got, err := e.Extract(context.Background(), "Blue berries are berries that are blue", set)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Blueberry", got[0].Value)
	assert.InDelta(t, 0.971825, got[0].Confidence, 1e-5)
}

func TestCatalogWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeCatalog(t, dir, sampleCatalog)

	c := NewCatalog(nil, nil)
	require.NoError(t, c.LoadFile(path))

	reloaded := make(chan error, 16)
	w, err := NewCatalogWatcher(c, path, nil, func(err error) { reloaded <- err })
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	defer w.Stop()

	updated := `
lists:
  - name: color
    values:
      - name: Red
        synonyms: [red]
`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	require.Eventually(t, func() bool {
		_, ok := c.Get("color")
		return ok && c.Len() == 1
	}, 5*time.Second, 20*time.Millisecond)

	// An invalid write keeps the last good catalog.
	require.NoError(t, os.WriteFile(path, []byte("lists: [broken"), 0o644))
	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("no reload notification")
	}
	time.Sleep(100 * time.Millisecond)
	_, ok := c.Get("color")
	assert.True(t, ok)
}

func TestCatalogWatcher_StopIsIdempotent(t *testing.T) {
	path := writeCatalog(t, t.TempDir(), sampleCatalog)
	w, err := NewCatalogWatcher(NewCatalog(nil, nil), path, nil, nil)
	require.NoError(t, err)
	w.Start(context.Background())
	w.Stop()
	w.Stop()
}

//Personal.AI order the ending
