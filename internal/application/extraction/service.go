// Package extraction provides the application-level service for list and
// pattern entity extraction. HTTP, gRPC, the worker and the CLI all go
// through it.
package extraction

import (
	"context"
	"time"

	"github.com/turtacn/ListSense/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ListSense/internal/intelligence/list_extractor"
	"github.com/turtacn/ListSense/pkg/errors"
	"github.com/turtacn/ListSense/pkg/types/entity"
)

// Service defines the extraction operations exposed to every boundary.
type Service interface {
	ExtractSingle(ctx context.Context, input *ExtractSingleInput) ([]entity.ExtractionResult, error)
	ExtractMultiple(ctx context.Context, input *ExtractMultipleInput) ([]entity.ExtractionResult, error)
	ExtractText(ctx context.Context, input *ExtractTextInput) (*ExtractTextResult, error)
	ExtractBatch(ctx context.Context, input *ExtractBatchInput) (*ExtractBatchResult, error)
	Similarity(ctx context.Context, input *SimilarityInput) (*SimilarityResult, error)

	ListEntities(ctx context.Context) ([]list_extractor.CatalogEntry, error)
	GetEntity(ctx context.Context, name string) (*list_extractor.CatalogEntry, error)
	PutListEntity(ctx context.Context, def entity.ListEntityDef) (*list_extractor.CatalogEntry, error)
	PutPatternEntity(ctx context.Context, def entity.PatternEntityDefinition) (*list_extractor.CatalogEntry, error)
	DeleteEntity(ctx context.Context, name string) error
}

// ResultCache memoizes ExtractText output. Satisfied by redis.ResultCache.
type ResultCache interface {
	GetOrCompute(ctx context.Context, text string, names []string, generation uint64,
		compute func(ctx context.Context) ([]entity.Entity, error)) ([]entity.Entity, bool, error)
	Invalidate(ctx context.Context) (int64, error)
}

// CatalogMetrics observes catalog size. Optional.
type CatalogMetrics interface {
	SetCatalogSize(lists, patterns int)
}

// ExtractSingleInput carries pre-tokenized text and one inline definition.
type ExtractSingleInput struct {
	Tokens []string                `json:"tokens"`
	Entity entity.EntityDefinition `json:"entity"`
}

// ExtractMultipleInput carries pre-tokenized text and inline definitions.
type ExtractMultipleInput struct {
	Tokens   []string                  `json:"tokens"`
	Entities []entity.EntityDefinition `json:"entities"`
}

// ExtractTextInput selects catalog entities by name. Empty Entities means
// the whole catalog.
type ExtractTextInput struct {
	Text     string   `json:"text"`
	Entities []string `json:"entities,omitempty"`
	NoCache  bool     `json:"no_cache,omitempty"`
}

// ExtractTextResult is the output of ExtractText.
type ExtractTextResult struct {
	Entities []entity.Entity `json:"entities"`
	Cached   bool            `json:"cached"`
}

// ExtractBatchInput runs the same entity selection over several texts.
type ExtractBatchInput struct {
	Texts    []string `json:"texts"`
	Entities []string `json:"entities,omitempty"`
}

// BatchItemResult is one text's outcome.
type BatchItemResult struct {
	Index    int             `json:"index"`
	Entities []entity.Entity `json:"entities"`
	Error    string          `json:"error,omitempty"`
}

// ExtractBatchResult is the output of ExtractBatch.
type ExtractBatchResult struct {
	Items  []BatchItemResult `json:"items"`
	Failed int               `json:"failed"`
}

// Similarity metric names.
const (
	MetricLevenshtein = "levenshtein"
	MetricJaroWinkler = "jaro-winkler"
)

// SimilarityInput compares two strings. Jaro-Winkler compares case
// sensitively unless CaseSensitive is set to false.
type SimilarityInput struct {
	Metric        string `json:"metric"`
	A             string `json:"a"`
	B             string `json:"b"`
	CaseSensitive *bool  `json:"case_sensitive,omitempty"`
}

func (in *SimilarityInput) caseSensitive() bool {
	return in.CaseSensitive == nil || *in.CaseSensitive
}

// SimilarityResult is the output of Similarity.
type SimilarityResult struct {
	Metric string  `json:"metric"`
	Score  float64 `json:"score"`
}

// ServiceConfig bounds request sizes.
type ServiceConfig struct {
	MaxTokens    int
	MaxBatchSize int
}

type serviceImpl struct {
	extractor *list_extractor.Extractor
	catalog   *list_extractor.Catalog
	cache     ResultCache
	metrics   CatalogMetrics
	config    ServiceConfig
	logger    logging.Logger
}

// ServiceOption customises the service.
type ServiceOption func(*serviceImpl)

// WithResultCache enables caching of ExtractText.
func WithResultCache(c ResultCache) ServiceOption {
	return func(s *serviceImpl) { s.cache = c }
}

// WithCatalogMetrics reports catalog size after every change.
func WithCatalogMetrics(m CatalogMetrics) ServiceOption {
	return func(s *serviceImpl) { s.metrics = m }
}

// NewService creates the extraction application service.
func NewService(extractor *list_extractor.Extractor, catalog *list_extractor.Catalog, cfg ServiceConfig, logger logging.Logger, opts ...ServiceOption) Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &serviceImpl{
		extractor: extractor,
		catalog:   catalog,
		config:    cfg,
		logger:    logger.Named("extraction_service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.reportCatalog()
	return s
}

// ─────────────────────────────────────────────────────────────────────────────
// Extraction
// ─────────────────────────────────────────────────────────────────────────────

func (s *serviceImpl) checkTokens(tokens []string) error {
	if s.config.MaxTokens > 0 && len(tokens) > s.config.MaxTokens {
		return errors.New(errors.ErrCodeUtteranceTooLong, "too many tokens").
			WithDetailf("tokens=%d max=%d", len(tokens), s.config.MaxTokens)
	}
	return nil
}

func (s *serviceImpl) ExtractSingle(ctx context.Context, input *ExtractSingleInput) ([]entity.ExtractionResult, error) {
	if input == nil {
		return nil, errors.New(errors.ErrCodeValidation, "input is required")
	}
	if err := s.checkTokens(input.Tokens); err != nil {
		return nil, err
	}
	return s.extractor.ExtractSingle(ctx, input.Tokens, input.Entity)
}

func (s *serviceImpl) ExtractMultiple(ctx context.Context, input *ExtractMultipleInput) ([]entity.ExtractionResult, error) {
	if input == nil {
		return nil, errors.New(errors.ErrCodeValidation, "input is required")
	}
	if err := s.checkTokens(input.Tokens); err != nil {
		return nil, err
	}
	return s.extractor.ExtractMultiple(ctx, input.Tokens, input.Entities)
}

func (s *serviceImpl) ExtractText(ctx context.Context, input *ExtractTextInput) (*ExtractTextResult, error) {
	if input == nil {
		return nil, errors.New(errors.ErrCodeValidation, "input is required")
	}
	set, err := s.catalog.Resolve(input.Entities)
	if err != nil {
		return nil, err
	}

	compute := func(ctx context.Context) ([]entity.Entity, error) {
		return s.extractor.Extract(ctx, input.Text, set)
	}
	if s.cache == nil || input.NoCache || input.Text == "" {
		ents, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		return &ExtractTextResult{Entities: ents}, nil
	}

	ents, hit, err := s.cache.GetOrCompute(ctx, input.Text, input.Entities, set.Generation, compute)
	if err != nil {
		return nil, err
	}
	return &ExtractTextResult{Entities: ents, Cached: hit}, nil
}

func (s *serviceImpl) ExtractBatch(ctx context.Context, input *ExtractBatchInput) (*ExtractBatchResult, error) {
	if input == nil || len(input.Texts) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "texts must not be empty")
	}
	if s.config.MaxBatchSize > 0 && len(input.Texts) > s.config.MaxBatchSize {
		return nil, errors.New(errors.ErrCodeValidation, "batch too large").
			WithDetailf("texts=%d max=%d", len(input.Texts), s.config.MaxBatchSize)
	}
	set, err := s.catalog.Resolve(input.Entities)
	if err != nil {
		return nil, err
	}

	items, err := s.extractor.ExtractBatch(ctx, input.Texts, set)
	if err != nil {
		return nil, err
	}
	out := &ExtractBatchResult{Items: make([]BatchItemResult, len(items))}
	for i, it := range items {
		out.Items[i] = BatchItemResult{Index: it.Index, Entities: it.Entities}
		if it.Err != nil {
			out.Items[i].Error = it.Err.Error()
			out.Failed++
		}
	}
	return out, nil
}

func (s *serviceImpl) Similarity(_ context.Context, input *SimilarityInput) (*SimilarityResult, error) {
	if input == nil {
		return nil, errors.New(errors.ErrCodeValidation, "input is required")
	}
	switch input.Metric {
	case MetricLevenshtein:
		return &SimilarityResult{Metric: input.Metric, Score: list_extractor.LevenshteinSimilarity(input.A, input.B)}, nil
	case MetricJaroWinkler:
		return &SimilarityResult{Metric: input.Metric, Score: list_extractor.JaroWinklerSimilarity(input.A, input.B, input.caseSensitive())}, nil
	default:
		return nil, errors.New(errors.ErrCodeValidation, "unknown similarity metric").
			WithDetailf("metric=%q, expected %s or %s", input.Metric, MetricLevenshtein, MetricJaroWinkler)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Catalog
// ─────────────────────────────────────────────────────────────────────────────

func (s *serviceImpl) ListEntities(_ context.Context) ([]list_extractor.CatalogEntry, error) {
	return s.catalog.List(), nil
}

func (s *serviceImpl) GetEntity(_ context.Context, name string) (*list_extractor.CatalogEntry, error) {
	e, ok := s.catalog.Get(name)
	if !ok {
		return nil, errors.New(errors.ErrCodeEntityNotFound, "unknown entity").WithDetailf("entity=%s", name)
	}
	return &e, nil
}

func (s *serviceImpl) PutListEntity(ctx context.Context, def entity.ListEntityDef) (*list_extractor.CatalogEntry, error) {
	if _, err := s.catalog.PutList(def); err != nil {
		return nil, err
	}
	s.logger.Info("list entity stored", logging.String(logging.FieldEntity, def.Name))
	s.catalogChanged(ctx)
	return s.GetEntity(ctx, def.Name)
}

func (s *serviceImpl) PutPatternEntity(ctx context.Context, def entity.PatternEntityDefinition) (*list_extractor.CatalogEntry, error) {
	if err := s.catalog.PutPattern(def); err != nil {
		return nil, err
	}
	s.logger.Info("pattern entity stored", logging.String(logging.FieldEntity, def.Name))
	s.catalogChanged(ctx)
	return s.GetEntity(ctx, def.Name)
}

func (s *serviceImpl) DeleteEntity(ctx context.Context, name string) error {
	if !s.catalog.Delete(name) {
		return errors.New(errors.ErrCodeEntityNotFound, "unknown entity").WithDetailf("entity=%s", name)
	}
	s.logger.Info("entity deleted", logging.String(logging.FieldEntity, name))
	s.catalogChanged(ctx)
	return nil
}

// CatalogReloaded is called by the catalog watcher after a reload attempt.
func CatalogReloaded(svc Service, err error) {
	if s, ok := svc.(*serviceImpl); ok && err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.catalogChanged(ctx)
	}
}

func (s *serviceImpl) catalogChanged(ctx context.Context) {
	s.reportCatalog()
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("result cache invalidation failed", logging.Err(err))
	}
}

func (s *serviceImpl) reportCatalog() {
	if s.metrics == nil {
		return
	}
	lists, patterns := 0, 0
	for _, e := range s.catalog.List() {
		if e.Kind == entity.KindList {
			lists++
		} else {
			patterns++
		}
	}
	s.metrics.SetCatalogSize(lists, patterns)
}

//Personal.AI order the ending
