package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/turtacn/ListSense/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ListSense/pkg/errors"
	"github.com/turtacn/ListSense/pkg/types/common"
	"github.com/turtacn/ListSense/pkg/types/entity"
)

// EventPublisher publishes a typed event. Satisfied by kafka.Producer.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key, eventType string, payload interface{}) error
}

// ObjectStore reads and writes line-oriented objects. Satisfied by
// minio.BatchStore.
type ObjectStore interface {
	ReadLines(ctx context.Context, bucket, object string) ([][]byte, error)
	WriteLines(ctx context.Context, bucket, object string, lines [][]byte) error
}

// Lock is a lease held while a batch job runs.
type Lock interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}

// LockFactory returns the lock guarding the named job.
type LockFactory func(name string) Lock

// JobMetrics observes finished batch jobs. Optional.
type JobMetrics interface {
	RecordBatchJob(err error)
}

// WorkerConfig names the topics the worker answers on.
type WorkerConfig struct {
	ResultTopic  string
	MaxBatchSize int
}

// Worker turns broker messages into Service calls.
type Worker struct {
	svc     Service
	pub     EventPublisher
	store   ObjectStore
	locks   LockFactory
	metrics JobMetrics
	config  WorkerConfig
	logger  logging.Logger
}

// NewWorker builds a Worker. store and locks may be nil when batch jobs are
// not consumed; metrics may be nil.
func NewWorker(svc Service, pub EventPublisher, store ObjectStore, locks LockFactory, metrics JobMetrics, cfg WorkerConfig, logger logging.Logger) *Worker {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 256
	}
	return &Worker{
		svc:     svc,
		pub:     pub,
		store:   store,
		locks:   locks,
		metrics: metrics,
		config:  cfg,
		logger:  logger.Named("worker"),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Single requests
// ─────────────────────────────────────────────────────────────────────────────

// HandleRequest processes one ExtractionRequest message and publishes the
// response. Malformed messages return a serialization or validation error;
// extraction failures are reported in the response and return nil.
func (w *Worker) HandleRequest(ctx context.Context, msg *common.Message) error {
	var req ExtractionRequest
	if err := decodeStrict(msg.Value, &req); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "malformed extraction request")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	ctx = logging.WithRequestID(ctx, req.ID)
	log := w.logger.With(logging.String(logging.FieldRequestID, req.ID))

	resp := ExtractionResponse{ID: req.ID}
	var err error
	if len(req.Tokens) > 0 {
		resp.Results, err = w.svc.ExtractMultiple(ctx, &ExtractMultipleInput{Tokens: req.Tokens, Entities: req.Entities})
	} else {
		var out *ExtractTextResult
		out, err = w.svc.ExtractText(ctx, &ExtractTextInput{Text: req.Text, Entities: req.EntityNames})
		if out != nil {
			resp.Entities = out.Entities
		}
	}
	if err != nil {
		log.Warn("extraction request failed", logging.Err(err))
		resp.Error = newResponseError(err)
	}
	resp.ProcessedAt = time.Now().UTC()

	if err := w.pub.PublishEvent(ctx, w.config.ResultTopic, req.ID, EventExtractionCompleted, resp); err != nil {
		return errors.Wrap(err, errors.ErrCodeMessagingError, "failed to publish extraction response")
	}
	log.Debug("extraction request answered")
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Batch jobs
// ─────────────────────────────────────────────────────────────────────────────

// HandleBatchJob processes one BatchJob message. A job already leased by
// another worker is skipped.
func (w *Worker) HandleBatchJob(ctx context.Context, msg *common.Message) error {
	if w.store == nil {
		return errors.New(errors.ErrCodeNotImplemented, "batch jobs are not enabled")
	}
	var job BatchJob
	if err := decodeStrict(msg.Value, &job); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "malformed batch job")
	}
	if err := job.Validate(); err != nil {
		return err
	}
	if job.OutputObject == "" {
		job.OutputObject = defaultOutputObject(job.InputObject)
	}

	ctx = logging.WithRequestID(ctx, job.ID)
	log := w.logger.With(logging.String("job_id", job.ID))

	if w.locks != nil {
		lock := w.locks("batch:" + job.ID)
		ok, lerr := lock.TryLock(ctx)
		if lerr != nil {
			return lerr
		}
		if !ok {
			log.Info("batch job already running elsewhere; skipping")
			return nil
		}
		defer func() {
			if uerr := lock.Unlock(context.Background()); uerr != nil {
				log.Warn("failed to release batch job lock", logging.Err(uerr))
			}
		}()
	}

	start := time.Now()
	result, err := w.runBatch(ctx, &job)
	if w.metrics != nil {
		w.metrics.RecordBatchJob(err)
	}
	if err != nil {
		log.Error("batch job failed", logging.Err(err))
		result = &BatchJobResult{JobID: job.ID, OutputObject: job.OutputObject, Error: err.Error(), CompletedAt: time.Now().UTC()}
	} else {
		log.Info("batch job finished",
			logging.Int("total", result.Total),
			logging.Int("failed", result.Failed),
			logging.Duration("elapsed", time.Since(start)))
	}

	if perr := w.pub.PublishEvent(ctx, w.config.ResultTopic, job.ID, EventBatchCompleted, result); perr != nil {
		return errors.Wrap(perr, errors.ErrCodeMessagingError, "failed to publish batch result")
	}
	return nil
}

func (w *Worker) runBatch(ctx context.Context, job *BatchJob) (*BatchJobResult, error) {
	lines, err := w.store.ReadLines(ctx, job.Bucket, job.InputObject)
	if err != nil {
		return nil, err
	}

	records := make([]UtteranceRecord, 0, len(lines))
	for i, line := range lines {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var rec UtteranceRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "malformed input line").WithDetailf("line=%d", i+1)
		}
		records = append(records, rec)
	}

	out := make([][]byte, 0, len(records))
	result := &BatchJobResult{JobID: job.ID, OutputObject: job.OutputObject, Total: len(records)}
	for lo := 0; lo < len(records); lo += w.config.MaxBatchSize {
		hi := lo + w.config.MaxBatchSize
		if hi > len(records) {
			hi = len(records)
		}
		chunk := records[lo:hi]
		texts := make([]string, len(chunk))
		for i, r := range chunk {
			texts[i] = r.Text
		}

		items := make([]BatchItemResult, len(chunk))
		res, berr := w.svc.ExtractBatch(ctx, &ExtractBatchInput{Texts: texts, Entities: job.EntityNames})
		switch {
		case berr == nil:
			items = res.Items
		case errors.IsCode(berr, errors.ErrCodeEntityNotFound), ctx.Err() != nil:
			return nil, berr
		default:
			for i := range items {
				items[i] = BatchItemResult{Index: i, Entities: []entity.Entity{}, Error: berr.Error()}
			}
		}

		for i, it := range items {
			rec := ResultRecord{ID: chunk[i].ID, Index: lo + i, Entities: it.Entities, Error: it.Error}
			if it.Error != "" {
				result.Failed++
			}
			b, err := json.Marshal(rec)
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode result line")
			}
			out = append(out, b)
		}
	}

	if err := w.store.WriteLines(ctx, job.Bucket, job.OutputObject, out); err != nil {
		return nil, err
	}
	result.CompletedAt = time.Now().UTC()
	return result, nil
}

func defaultOutputObject(input string) string {
	return strings.TrimSuffix(input, ".jsonl") + ".results.jsonl"
}

func decodeStrict(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

//Personal.AI order the ending
