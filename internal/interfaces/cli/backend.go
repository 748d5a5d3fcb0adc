package cli

import (
	"context"
	"fmt"

	"github.com/turtacn/ListSense/internal/application/extraction"
	"github.com/turtacn/ListSense/internal/config"
	"github.com/turtacn/ListSense/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ListSense/internal/intelligence/list_extractor"
	"github.com/turtacn/ListSense/pkg/client"
	"github.com/turtacn/ListSense/pkg/errors"
	"github.com/turtacn/ListSense/pkg/types/entity"
)

// Backend is what the commands run against: an in-process service over a
// catalog file, or a remote server through the SDK.
type Backend interface {
	ExtractText(ctx context.Context, text string, names []string) ([]entity.Entity, error)
	ExtractTokens(ctx context.Context, tokens []string, defs []entity.EntityDefinition) ([]entity.ExtractionResult, error)
	Similarity(ctx context.Context, metric, a, b string, caseSensitive bool) (float64, error)
	ListEntities(ctx context.Context, kind entity.Kind) ([]client.EntityInfo, error)
	GetEntity(ctx context.Context, name string) (*client.EntityInfo, error)
}

// ---------------------------------------------------------------------------
// Local
// ---------------------------------------------------------------------------

type localBackend struct {
	svc extraction.Service
}

// NewLocalBackend loads catalogPath, when set, into an in-process service.
func NewLocalBackend(cfg *config.Config, catalogPath string, logger logging.Logger) (Backend, error) {
	catalog := list_extractor.NewCatalog(list_extractor.SpaceTokenizer, logger)
	if catalogPath != "" {
		if err := catalog.LoadFile(catalogPath); err != nil {
			return nil, err
		}
		logger.Debug("catalog loaded", logging.String("path", catalogPath), logging.Int("entities", catalog.Len()))
	}
	ext := list_extractor.NewExtractor(list_extractor.ExtractorConfig{
		MaxTextLength:    cfg.Extraction.MaxTextLength,
		BatchConcurrency: cfg.Extraction.BatchConcurrency,
		NormalizeText:    cfg.Extraction.NormalizeText,
	}, list_extractor.SpaceTokenizer, logger, nil)
	svc := extraction.NewService(ext, catalog, extraction.ServiceConfig{
		MaxTokens:    cfg.Extraction.MaxTokens,
		MaxBatchSize: cfg.Extraction.MaxBatchSize,
	}, logger)
	return &localBackend{svc: svc}, nil
}

func (b *localBackend) ExtractText(ctx context.Context, text string, names []string) ([]entity.Entity, error) {
	res, err := b.svc.ExtractText(ctx, &extraction.ExtractTextInput{Text: text, Entities: names})
	if err != nil {
		return nil, err
	}
	return res.Entities, nil
}

func (b *localBackend) ExtractTokens(ctx context.Context, tokens []string, defs []entity.EntityDefinition) ([]entity.ExtractionResult, error) {
	return b.svc.ExtractMultiple(ctx, &extraction.ExtractMultipleInput{Tokens: tokens, Entities: defs})
}

func (b *localBackend) Similarity(ctx context.Context, metric, a, bs string, caseSensitive bool) (float64, error) {
	res, err := b.svc.Similarity(ctx, &extraction.SimilarityInput{Metric: metric, A: a, B: bs, CaseSensitive: &caseSensitive})
	if err != nil {
		return 0, err
	}
	return res.Score, nil
}

func (b *localBackend) ListEntities(ctx context.Context, kind entity.Kind) ([]client.EntityInfo, error) {
	entries, err := b.svc.ListEntities(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]client.EntityInfo, 0, len(entries))
	for _, e := range entries {
		if kind != "" && e.Kind != kind {
			continue
		}
		out = append(out, toInfo(e))
	}
	return out, nil
}

func (b *localBackend) GetEntity(ctx context.Context, name string) (*client.EntityInfo, error) {
	e, err := b.svc.GetEntity(ctx, name)
	if err != nil {
		return nil, err
	}
	info := toInfo(*e)
	return &info, nil
}

func toInfo(e list_extractor.CatalogEntry) client.EntityInfo {
	return client.EntityInfo{Name: e.Name, Kind: e.Kind, List: e.List, Pattern: e.Pattern}
}

// ---------------------------------------------------------------------------
// Remote
// ---------------------------------------------------------------------------

type remoteBackend struct {
	client *client.Client
}

type sdkLogger struct{ l logging.Logger }

func (s sdkLogger) Debugf(format string, args ...interface{}) { s.l.Debug(fmt.Sprintf(format, args...)) }
func (s sdkLogger) Infof(format string, args ...interface{})  { s.l.Info(fmt.Sprintf(format, args...)) }
func (s sdkLogger) Errorf(format string, args ...interface{}) { s.l.Error(fmt.Sprintf(format, args...)) }

// NewRemoteBackend talks to the server at addr. opts are applied after the
// CLI defaults.
func NewRemoteBackend(addr string, logger logging.Logger, opts ...client.Option) (Backend, error) {
	base := []client.Option{
		client.WithLogger(sdkLogger{l: logger.Named("sdk")}),
		client.WithUserAgent("listsense-cli/" + Version),
	}
	c, err := client.NewClient(addr, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	return &remoteBackend{client: c}, nil
}

func (b *remoteBackend) ExtractText(ctx context.Context, text string, names []string) ([]entity.Entity, error) {
	res, err := b.client.ExtractText(ctx, text, names...)
	if err != nil {
		return nil, err
	}
	return res.Entities, nil
}

func (b *remoteBackend) ExtractTokens(ctx context.Context, tokens []string, defs []entity.EntityDefinition) ([]entity.ExtractionResult, error) {
	return b.client.ExtractMultiple(ctx, tokens, defs)
}

func (b *remoteBackend) Similarity(ctx context.Context, metric, a, bs string, caseSensitive bool) (float64, error) {
	switch metric {
	case extraction.MetricLevenshtein:
		return b.client.Levenshtein(ctx, a, bs, caseSensitive)
	case extraction.MetricJaroWinkler:
		return b.client.JaroWinkler(ctx, a, bs, caseSensitive)
	default:
		return 0, errors.New(errors.ErrCodeValidation, "unknown similarity metric").WithDetailf("metric=%q", metric)
	}
}

func (b *remoteBackend) ListEntities(ctx context.Context, kind entity.Kind) ([]client.EntityInfo, error) {
	return b.client.ListEntities(ctx, kind)
}

func (b *remoteBackend) GetEntity(ctx context.Context, name string) (*client.EntityInfo, error) {
	return b.client.GetEntity(ctx, name)
}

//Personal.AI order the ending
