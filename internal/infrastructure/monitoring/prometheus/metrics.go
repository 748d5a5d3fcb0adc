package prometheus

import (
	"context"
	"strconv"
	"time"

	"github.com/turtacn/ListSense/internal/intelligence/list_extractor"
)

// Default buckets, in seconds.
var (
	DefaultHTTPDurationBuckets       = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}
	DefaultExtractionDurationBuckets = []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5}
	DefaultCountBuckets              = []float64{0, 1, 5, 10, 50, 100, 500, 1000, 10000, 100000}
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// ExtractionMetrics is the metric set of the ListSense services. It
// implements list_extractor.Metrics.
type ExtractionMetrics struct {
	// Engine
	ExtractionsTotal   CounterVec
	ExtractionDuration HistogramVec
	CandidatesTotal    CounterVec
	EliminatedTotal    CounterVec
	ResultsPerCall     HistogramVec

	// Cache
	CacheRequestsTotal CounterVec

	// Catalog
	CatalogEntities     GaugeVec
	CatalogReloadsTotal CounterVec

	// Transport
	HTTPRequestsTotal      CounterVec
	HTTPRequestDuration    HistogramVec
	GRPCRequestsTotal      CounterVec
	MessagesTotal          CounterVec
	MessageProcessDuration HistogramVec
	BatchJobsTotal         CounterVec
}

// NewExtractionMetrics registers every metric on collector.
func NewExtractionMetrics(c MetricsCollector) *ExtractionMetrics {
	return &ExtractionMetrics{
		ExtractionsTotal:   c.RegisterCounter("extractions_total", "Extraction calls by operation and outcome.", "operation", "outcome"),
		ExtractionDuration: c.RegisterHistogram("extraction_duration_seconds", "Extraction latency.", DefaultExtractionDurationBuckets, "operation"),
		CandidatesTotal:    c.RegisterCounter("extraction_candidates_total", "Candidates generated by the list engine.", "operation"),
		EliminatedTotal:    c.RegisterCounter("extraction_candidates_eliminated_total", "Candidates removed by overlap elimination.", "operation"),
		ResultsPerCall:     c.RegisterHistogram("extraction_results", "Results returned per extraction call.", DefaultCountBuckets, "operation"),

		CacheRequestsTotal: c.RegisterCounter("cache_requests_total", "Result cache lookups by result.", "cache", "result"),

		CatalogEntities:     c.RegisterGauge("catalog_entities", "Entities currently in the catalog.", "kind"),
		CatalogReloadsTotal: c.RegisterCounter("catalog_reloads_total", "Catalog file reloads by outcome.", "outcome"),

		HTTPRequestsTotal:      c.RegisterCounter("http_requests_total", "HTTP requests.", "method", "route", "status_code"),
		HTTPRequestDuration:    c.RegisterHistogram("http_request_duration_seconds", "HTTP request latency.", DefaultHTTPDurationBuckets, "method", "route"),
		GRPCRequestsTotal:      c.RegisterCounter("grpc_requests_total", "gRPC requests.", "method", "code"),
		MessagesTotal:          c.RegisterCounter("messages_total", "Consumed messages by topic and outcome.", "topic", "outcome"),
		MessageProcessDuration: c.RegisterHistogram("message_process_duration_seconds", "Message handling latency.", DefaultHTTPDurationBuckets, "topic"),
		BatchJobsTotal:         c.RegisterCounter("batch_jobs_total", "Object storage batch jobs by outcome.", "outcome"),
	}
}

func outcome(ok bool) string {
	if ok {
		return OutcomeSuccess
	}
	return OutcomeFailure
}

// RecordExtraction implements list_extractor.Metrics.
func (m *ExtractionMetrics) RecordExtraction(_ context.Context, p *list_extractor.ExtractionMetricParams) {
	if p == nil {
		return
	}
	m.ExtractionsTotal.WithLabelValues(p.Operation, outcome(p.Success)).Inc()
	m.ExtractionDuration.WithLabelValues(p.Operation).Observe(p.Duration.Seconds())
	if !p.Success {
		return
	}
	m.CandidatesTotal.WithLabelValues(p.Operation).Add(float64(p.Stats.Candidates))
	m.EliminatedTotal.WithLabelValues(p.Operation).Add(float64(p.Stats.Eliminated))
	m.ResultsPerCall.WithLabelValues(p.Operation).Observe(float64(p.Stats.Results))
}

// RecordCacheAccess counts a cache lookup. result is "hit", "miss" or "error".
func (m *ExtractionMetrics) RecordCacheAccess(cache, result string) {
	m.CacheRequestsTotal.WithLabelValues(cache, result).Inc()
}

// SetCatalogSize publishes the current number of entities per kind.
func (m *ExtractionMetrics) SetCatalogSize(lists, patterns int) {
	m.CatalogEntities.WithLabelValues("list").Set(float64(lists))
	m.CatalogEntities.WithLabelValues("pattern").Set(float64(patterns))
}

// RecordCatalogReload counts a catalog reload attempt.
func (m *ExtractionMetrics) RecordCatalogReload(err error) {
	m.CatalogReloadsTotal.WithLabelValues(outcome(err == nil)).Inc()
}

// RecordHTTPRequest counts and times one HTTP request. route is the
// matched route pattern, never the raw path.
func (m *ExtractionMetrics) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordGRPCRequest counts one unary call by its status code name.
func (m *ExtractionMetrics) RecordGRPCRequest(method, code string) {
	m.GRPCRequestsTotal.WithLabelValues(method, code).Inc()
}

// RecordMessage counts and times one consumed message.
func (m *ExtractionMetrics) RecordMessage(topic string, err error, d time.Duration) {
	m.MessagesTotal.WithLabelValues(topic, outcome(err == nil)).Inc()
	m.MessageProcessDuration.WithLabelValues(topic).Observe(d.Seconds())
}

// RecordBatchJob counts one finished object storage batch job.
func (m *ExtractionMetrics) RecordBatchJob(err error) {
	m.BatchJobsTotal.WithLabelValues(outcome(err == nil)).Inc()
}

var _ list_extractor.Metrics = (*ExtractionMetrics)(nil)

//Personal.AI order the ending
