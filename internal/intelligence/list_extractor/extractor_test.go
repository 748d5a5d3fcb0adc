package list_extractor

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ListSense/pkg/errors"
	"github.com/turtacn/ListSense/pkg/types/entity"
)

// =========================================================================
// Mocks
// =========================================================================

type recordingMetrics struct {
	mu      sync.Mutex
	records []ExtractionMetricParams
}

func (m *recordingMetrics) RecordExtraction(_ context.Context, p *ExtractionMetricParams) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, *p)
}

func (m *recordingMetrics) last() ExtractionMetricParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[len(m.records)-1]
}

func newTestExtractor(cfg ExtractorConfig) (*Extractor, *recordingMetrics) {
	m := &recordingMetrics{}
	return NewExtractor(cfg, nil, nil, m), m
}

// =========================================================================
// Construction
// =========================================================================

func TestNewExtractor_Defaults(t *testing.T) {
	e := NewExtractor(ExtractorConfig{}, nil, nil, nil)
	require.NotNil(t, e)
	assert.Equal(t, 1, e.Config().BatchConcurrency)
	assert.Equal(t, []string{"a", " ", "b"}, e.Tokenize("a b"))
}

func TestDefaultExtractorConfig(t *testing.T) {
	cfg := DefaultExtractorConfig()
	assert.Equal(t, 100000, cfg.MaxTextLength)
	assert.Equal(t, 4, cfg.BatchConcurrency)
	assert.True(t, cfg.NormalizeText)
}

// =========================================================================
// Token level
// =========================================================================

func TestExtractor_ExtractSingle(t *testing.T) {
	e, m := newTestExtractor(DefaultExtractorConfig())

	got, err := e.ExtractSingle(context.Background(), SpaceTokenizer("blueberry are berries"), fruitEntity())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Blueberry", got[0].Value)

	rec := m.last()
	assert.Equal(t, OpExtractSingle, rec.Operation)
	assert.True(t, rec.Success)
	assert.Equal(t, 17, rec.Stats.Synonyms)
	assert.Equal(t, 1, rec.Stats.Results)
}

func TestExtractor_ExtractSingle_InvalidDefinition(t *testing.T) {
	e, _ := newTestExtractor(DefaultExtractorConfig())
	def := entity.EntityDefinition{Name: "bad", Fuzzy: 1.5}
	_, err := e.ExtractSingle(context.Background(), []string{"x"}, def)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidDefinition))
}

func TestExtractor_ExtractSingle_Cancelled(t *testing.T) {
	e, _ := newTestExtractor(DefaultExtractorConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.ExtractSingle(ctx, []string{"x"}, fruitEntity())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractor_ExtractMultiple_MatchesEngine(t *testing.T) {
	e, m := newTestExtractor(DefaultExtractorConfig())
	tokens := SpaceTokenizer("an apple can be a fruit but also apple corporation")
	defs := []entity.EntityDefinition{fruitEntity(), companyEntity(), airportEntity()}

	want, err := ExtractMultiple(tokens, defs)
	require.NoError(t, err)

	got, err := e.ExtractMultiple(context.Background(), tokens, defs)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	rec := m.last()
	assert.Equal(t, OpExtractMultiple, rec.Operation)
	assert.Equal(t, 3, rec.EntityCount)
	assert.Equal(t, 4, rec.Stats.Results)
}

func TestExtractor_ExtractMultiple_ValidatesAll(t *testing.T) {
	e, _ := newTestExtractor(DefaultExtractorConfig())
	defs := []entity.EntityDefinition{fruitEntity(), {Name: ""}}
	_, err := e.ExtractMultiple(context.Background(), []string{"apple"}, defs)
	assert.True(t, errors.IsValidation(err))
}

// =========================================================================
// Text level
// =========================================================================

func TestExtractor_Extract_SortsByOffset(t *testing.T) {
	e, m := newTestExtractor(DefaultExtractorConfig())
	set := EntitySet{Lists: []entity.EntityDefinition{fruitEntity(), companyEntity()}}

	got, err := e.Extract(context.Background(), "an apple can be a fruit but also apple corporation", set)
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, "fruit", got[0].Name)
	assert.Equal(t, 3, got[0].CharStart)
	assert.Equal(t, "company", got[1].Name)
	assert.Equal(t, 3, got[1].CharStart)
	assert.Equal(t, "fruit", got[2].Name)
	assert.Equal(t, 33, got[2].CharStart)
	assert.Equal(t, "company", got[3].Name)
	assert.Equal(t, "apple corporation", got[3].Source)
	for _, ent := range got {
		assert.Equal(t, entity.KindList, ent.Type)
	}
	assert.Equal(t, OpExtractText, m.last().Operation)
}

func TestExtractor_Extract_WithPatterns(t *testing.T) {
	e, _ := newTestExtractor(DefaultExtractorConfig())
	flight, err := NewPatternExtractor(entity.PatternEntityDefinition{Name: "flight", Pattern: `[a-z]{2}\d{3,4}`})
	require.NoError(t, err)
	set := EntitySet{
		Lists:    []entity.EntityDefinition{airportEntity()},
		Patterns: []*PatternExtractor{flight},
	}

	got, err := e.Extract(context.Background(), "AC1234 to SF", set)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, entity.KindPattern, got[0].Type)
	assert.Equal(t, "AC1234", got[0].Value)
	assert.Equal(t, entity.KindList, got[1].Type)
	assert.Equal(t, "SFO", got[1].Value)
	assert.Equal(t, 10, got[1].CharStart)
}

func TestExtractor_Extract_Normalization(t *testing.T) {
	text := "cafe\u0301 blueberry"
	set := EntitySet{Lists: []entity.EntityDefinition{fruitEntity()}}

	e, _ := newTestExtractor(DefaultExtractorConfig())
	got, err := e.Extract(context.Background(), text, set)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 6, got[0].CharStart)
	assert.Equal(t, 15, got[0].CharEnd)

	cfg := DefaultExtractorConfig()
	cfg.NormalizeText = false
	raw, _ := newTestExtractor(cfg)
	got, err = raw.Extract(context.Background(), text, set)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 7, got[0].CharStart)
	assert.Equal(t, 16, got[0].CharEnd)
}

func TestExtractor_Extract_EmptyText(t *testing.T) {
	e, _ := newTestExtractor(DefaultExtractorConfig())
	got, err := e.Extract(context.Background(), "", EntitySet{Lists: []entity.EntityDefinition{fruitEntity()}})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestExtractor_Extract_TooLong(t *testing.T) {
	cfg := DefaultExtractorConfig()
	cfg.MaxTextLength = 10
	e, _ := newTestExtractor(cfg)
	_, err := e.Extract(context.Background(), strings.Repeat("a", 11), EntitySet{})
	assert.True(t, errors.IsCode(err, errors.ErrCodeUtteranceTooLong))
}

// =========================================================================
// Batch
// =========================================================================

func TestExtractor_ExtractBatch(t *testing.T) {
	cfg := DefaultExtractorConfig()
	cfg.MaxTextLength = 40
	e, _ := newTestExtractor(cfg)
	set := EntitySet{Lists: []entity.EntityDefinition{fruitEntity()}}

	texts := []string{
		"blueberry pie",
		strings.Repeat("x", 41),
		"red apple",
	}
	items, err := e.ExtractBatch(context.Background(), texts, set)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.NoError(t, items[0].Err)
	require.Len(t, items[0].Entities, 1)
	assert.Equal(t, "Blueberry", items[0].Entities[0].Value)

	assert.True(t, errors.IsCode(items[1].Err, errors.ErrCodeUtteranceTooLong))
	assert.Empty(t, items[1].Entities)

	assert.NoError(t, items[2].Err)
	assert.Equal(t, 2, items[2].Index)
}

func TestExtractor_ExtractBatch_AllFail(t *testing.T) {
	cfg := DefaultExtractorConfig()
	cfg.MaxTextLength = 2
	e, _ := newTestExtractor(cfg)

	items, err := e.ExtractBatch(context.Background(), []string{"abc", "defg"}, EntitySet{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "every extraction in the batch failed")
	assert.Equal(t, errors.ErrCodeUtteranceTooLong, errors.GetCode(err))
	assert.Len(t, items, 2)
}

func TestExtractor_ExtractBatch_Empty(t *testing.T) {
	e, _ := newTestExtractor(DefaultExtractorConfig())
	items, err := e.ExtractBatch(context.Background(), nil, EntitySet{})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestExtractor_ConcurrentUse(t *testing.T) {
	e, _ := newTestExtractor(DefaultExtractorConfig())
	set := EntitySet{Lists: []entity.EntityDefinition{fruitEntity(), companyEntity()}}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := e.Extract(context.Background(), "the red apple corporation", set)
			assert.NoError(t, err)
			assert.Len(t, got, 2)
		}()
	}
	wg.Wait()
}

//Personal.AI order the ending
