package list_extractor

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/turtacn/ListSense/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ListSense/pkg/errors"
	"github.com/turtacn/ListSense/pkg/types/entity"
)

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// ExtractorConfig holds tuneable parameters of the extraction service.
type ExtractorConfig struct {
	MaxTextLength    int  `json:"max_text_length" yaml:"max_text_length" mapstructure:"max_text_length"`
	BatchConcurrency int  `json:"batch_concurrency" yaml:"batch_concurrency" mapstructure:"batch_concurrency"`
	NormalizeText    bool `json:"normalize_text" yaml:"normalize_text" mapstructure:"normalize_text"`
}

// DefaultExtractorConfig returns production defaults.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		MaxTextLength:    100000,
		BatchConcurrency: 4,
		NormalizeText:    true,
	}
}

// ---------------------------------------------------------------------------
// Dependency interfaces
// ---------------------------------------------------------------------------

// Operation names used in metrics and logs.
const (
	OpExtractSingle   = "extract_single"
	OpExtractMultiple = "extract_multiple"
	OpExtractText     = "extract_text"
)

// ExtractionMetricParams describes one finished extraction call.
type ExtractionMetricParams struct {
	Operation   string
	EntityCount int
	Stats       Stats
	Duration    time.Duration
	Success     bool
}

// Metrics records operational telemetry of the extractor.
type Metrics interface {
	RecordExtraction(ctx context.Context, params *ExtractionMetricParams)
}

type noopMetrics struct{}

func (noopMetrics) RecordExtraction(context.Context, *ExtractionMetricParams) {}

// ---------------------------------------------------------------------------
// EntitySet
// ---------------------------------------------------------------------------

// EntitySet is the group of entities one text extraction runs against.
type EntitySet struct {
	Lists    []entity.EntityDefinition
	Patterns []*PatternExtractor

	// Generation of the catalog the set was resolved from; zero for
	// hand-built sets.
	Generation uint64
}

// Len returns the number of entities in the set.
func (s EntitySet) Len() int { return len(s.Lists) + len(s.Patterns) }

// ---------------------------------------------------------------------------
// Extractor
// ---------------------------------------------------------------------------

// Extractor is the service facade over the list engine and pattern
// extractors. It is safe for concurrent use.
type Extractor struct {
	config    ExtractorConfig
	tokenizer Tokenizer
	logger    logging.Logger
	metrics   Metrics
}

// NewExtractor builds an Extractor. A nil tokenizer selects SpaceTokenizer;
// nil logger and metrics are replaced by no-op implementations.
func NewExtractor(config ExtractorConfig, tokenizer Tokenizer, logger logging.Logger, metrics Metrics) *Extractor {
	if tokenizer == nil {
		tokenizer = SpaceTokenizer
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if config.BatchConcurrency <= 0 {
		config.BatchConcurrency = 1
	}
	return &Extractor{
		config:    config,
		tokenizer: tokenizer,
		logger:    logger.Named("list_extractor"),
		metrics:   metrics,
	}
}

// Config returns the effective configuration.
func (e *Extractor) Config() ExtractorConfig { return e.config }

// Tokenize splits text with the configured tokenizer.
func (e *Extractor) Tokenize(text string) []string { return e.tokenizer(text) }

// ---------------------------------------------------------------------------
// Token-level operations
// ---------------------------------------------------------------------------

// ExtractSingle validates def and runs the engine on tokens.
func (e *Extractor) ExtractSingle(ctx context.Context, tokens []string, def entity.EntityDefinition) ([]entity.ExtractionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	results, stats, err := extractSingle(ToTokens(tokens), def)
	e.record(ctx, OpExtractSingle, 1, stats, start, err)
	if err != nil {
		e.logger.Error("list extraction failed", logging.String("entity", def.Name), logging.Err(err))
		return nil, err
	}
	return results, nil
}

// ExtractMultiple validates every definition, runs them in parallel and
// concatenates the results in definition order.
func (e *Extractor) ExtractMultiple(ctx context.Context, tokens []string, defs []entity.EntityDefinition) ([]entity.ExtractionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i := range defs {
		if err := defs[i].Validate(); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	results, stats, err := e.runLists(ctx, ToTokens(tokens), defs)
	e.record(ctx, OpExtractMultiple, len(defs), stats, start, err)
	if err != nil {
		e.logger.Error("list extraction failed", logging.Int("entities", len(defs)), logging.Err(err))
		return nil, err
	}
	return results, nil
}

func (e *Extractor) runLists(ctx context.Context, utt []Token, defs []entity.EntityDefinition) ([]entity.ExtractionResult, Stats, error) {
	if len(defs) <= 1 {
		return extractMultiple(utt, defs)
	}

	perDef := make([][]entity.ExtractionResult, len(defs))
	perStats := make([]Stats, len(defs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.BatchConcurrency)
	for i := range defs {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, stats, err := extractSingle(utt, defs[i])
			if err != nil {
				return err
			}
			perDef[i] = res
			perStats[i] = stats
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Stats{}, err
	}

	var total Stats
	all := make([]entity.ExtractionResult, 0)
	for i := range defs {
		all = append(all, perDef[i]...)
		total.add(perStats[i])
	}
	return all, total, nil
}

// ---------------------------------------------------------------------------
// Text-level operations
// ---------------------------------------------------------------------------

// Extract tokenizes text and runs every list and pattern entity of set over
// it. Results are ordered by CharStart; ties keep list entities first, in
// set order, then pattern entities. Offsets refer to the text after NFC
// normalization when NormalizeText is on.
func (e *Extractor) Extract(ctx context.Context, text string, set EntitySet) ([]entity.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if text == "" {
		return []entity.Entity{}, nil
	}
	if e.config.NormalizeText {
		text = norm.NFC.String(text)
	}
	if e.config.MaxTextLength > 0 && len(text) > e.config.MaxTextLength {
		return nil, errors.New(errors.ErrCodeUtteranceTooLong, "text exceeds maximum length").
			WithDetailf("length=%d max=%d", len(text), e.config.MaxTextLength)
	}
	for i := range set.Lists {
		if err := set.Lists[i].Validate(); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	lists, stats, err := e.runLists(ctx, ToTokens(e.tokenizer(text)), set.Lists)
	e.record(ctx, OpExtractText, set.Len(), stats, start, err)
	if err != nil {
		e.logger.Error("text extraction failed", logging.Int("text_length", len(text)), logging.Err(err))
		return nil, err
	}

	out := make([]entity.Entity, 0, len(lists))
	for _, r := range lists {
		out = append(out, entity.Entity{Type: entity.KindList, ExtractionResult: r})
	}
	for _, p := range set.Patterns {
		for _, r := range p.Extract(text) {
			out = append(out, entity.Entity{Type: entity.KindPattern, ExtractionResult: r})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CharStart < out[j].CharStart
	})

	e.logger.Debug("text extraction finished",
		logging.Int("text_length", len(text)),
		logging.Int("entities", set.Len()),
		logging.Int("results", len(out)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

// BatchItem is the outcome of one text in ExtractBatch.
type BatchItem struct {
	Index    int             `json:"index"`
	Entities []entity.Entity `json:"entities"`
	Err      error           `json:"-"`
}

// ExtractBatch runs Extract over texts with bounded parallelism. Per-item
// failures are reported on the item; the call fails only when every item
// fails.
func (e *Extractor) ExtractBatch(ctx context.Context, texts []string, set EntitySet) ([]BatchItem, error) {
	items := make([]BatchItem, len(texts))
	if len(texts) == 0 {
		return items, nil
	}

	var g errgroup.Group
	g.SetLimit(e.config.BatchConcurrency)
	for i := range texts {
		i := i
		g.Go(func() error {
			ents, err := e.Extract(ctx, texts[i], set)
			if ents == nil {
				ents = []entity.Entity{}
			}
			items[i] = BatchItem{Index: i, Entities: ents, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for i := range items {
		if items[i].Err != nil {
			failed++
		}
	}
	if failed > 0 {
		e.logger.Warn("batch extraction had failures", logging.Int("failed", failed), logging.Int("total", len(texts)))
	}
	if failed == len(texts) {
		return items, errors.Wrap(items[0].Err, errors.CodeUnknown, "every extraction in the batch failed").
			WithDetailf("total=%d", len(texts))
	}
	return items, nil
}

func (e *Extractor) record(ctx context.Context, op string, entities int, stats Stats, start time.Time, err error) {
	e.metrics.RecordExtraction(ctx, &ExtractionMetricParams{
		Operation:   op,
		EntityCount: entities,
		Stats:       stats,
		Duration:    time.Since(start),
		Success:     err == nil,
	})
}

//Personal.AI order the ending
