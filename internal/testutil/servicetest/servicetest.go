// Package servicetest builds a real extraction service over a small sample
// catalog for boundary-layer tests.
package servicetest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/turtacn/ListSense/internal/application/extraction"
	"github.com/turtacn/ListSense/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ListSense/internal/intelligence/list_extractor"
)

// CatalogYAML holds two list entities and one pattern entity.
const CatalogYAML = `
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
`

// Limits applied by New.
const (
	MaxTokens    = 50
	MaxBatchSize = 3
)

// NewCatalog returns a catalog loaded from CatalogYAML.
func NewCatalog(t testing.TB) *list_extractor.Catalog {
	t.Helper()
	cat := list_extractor.NewCatalog(list_extractor.SpaceTokenizer, logging.NewNopLogger())
	f, err := list_extractor.ParseCatalog([]byte(CatalogYAML))
	require.NoError(t, err)
	require.NoError(t, cat.Replace(f))
	return cat
}

// New returns a service over NewCatalog.
func New(t testing.TB, opts ...extraction.ServiceOption) extraction.Service {
	t.Helper()
	ext := list_extractor.NewExtractor(list_extractor.DefaultExtractorConfig(), list_extractor.SpaceTokenizer, logging.NewNopLogger(), nil)
	return extraction.NewService(ext, NewCatalog(t),
		extraction.ServiceConfig{MaxTokens: MaxTokens, MaxBatchSize: MaxBatchSize},
		logging.NewNopLogger(), opts...)
}

//Personal.AI order the ending
