package minio

import (
	"bufio"
	"bytes"
	"context"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/ListSense/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ListSense/pkg/errors"
)

const (
	ContentTypeJSONL = "application/x-ndjson"

	defaultMaxLineBytes = 1 << 20
)

// BatchStore reads and writes newline-delimited JSON objects for bulk
// extraction jobs.
type BatchStore struct {
	client       *Client
	maxLineBytes int
}

// BatchStoreOption customises a BatchStore.
type BatchStoreOption func(*BatchStore)

// WithMaxLineBytes caps the size of one input line.
func WithMaxLineBytes(n int) BatchStoreOption {
	return func(s *BatchStore) {
		if n > 0 {
			s.maxLineBytes = n
		}
	}
}

// NewBatchStore creates a BatchStore over client.
func NewBatchStore(client *Client, opts ...BatchStoreOption) *BatchStore {
	s := &BatchStore{client: client, maxLineBytes: defaultMaxLineBytes}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BatchStore) bucket(b string) string {
	if b == "" {
		return s.client.DefaultBucket()
	}
	return b
}

// ReadLines returns the non-blank lines of object. Lines longer than the
// configured maximum fail the whole read.
func (s *BatchStore) ReadLines(ctx context.Context, bucket, object string) ([][]byte, error) {
	if err := s.client.check(); err != nil {
		return nil, err
	}
	bucket = s.bucket(bucket)
	start := time.Now()

	body, err := s.client.api.OpenObject(ctx, bucket, object)
	if err != nil {
		return nil, translate(err, bucket, object)
	}
	defer body.Close()

	sc := bufio.NewScanner(body)
	initial := 64 * 1024
	if initial > s.maxLineBytes {
		initial = s.maxLineBytes
	}
	sc.Buffer(make([]byte, 0, initial), s.maxLineBytes)
	var lines [][]byte
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		lines = append(lines, append([]byte(nil), line...))
	}
	if err := sc.Err(); err != nil {
		if err == bufio.ErrTooLong {
			return nil, errors.New(errors.ErrCodeValidation, "input line too long").
				WithDetailf("%s/%s max=%d", bucket, object, s.maxLineBytes)
		}
		return nil, translate(err, bucket, object)
	}

	s.client.logger.Debug("batch input read",
		logging.String("bucket", bucket),
		logging.String("object", object),
		logging.Int("lines", len(lines)),
		logging.Duration("latency", time.Since(start)))
	return lines, nil
}

// WriteLines stores lines as one JSONL object, each line newline terminated.
func (s *BatchStore) WriteLines(ctx context.Context, bucket, object string, lines [][]byte) error {
	if err := s.client.check(); err != nil {
		return err
	}
	if object == "" {
		return errors.New(errors.ErrCodeValidation, "object name is required")
	}
	bucket = s.bucket(bucket)

	var buf bytes.Buffer
	for _, l := range lines {
		buf.Write(l)
		buf.WriteByte('\n')
	}
	size := int64(buf.Len())
	_, err := s.client.api.PutObject(ctx, bucket, object, &buf, size, minio.PutObjectOptions{
		ContentType: ContentTypeJSONL,
	})
	if err != nil {
		return translate(err, bucket, object)
	}

	s.client.logger.Info("batch output written",
		logging.String("bucket", bucket),
		logging.String("object", object),
		logging.Int("lines", len(lines)),
		logging.Int64("bytes", size))
	return nil
}

// Exists reports whether object is present.
func (s *BatchStore) Exists(ctx context.Context, bucket, object string) (bool, error) {
	if err := s.client.check(); err != nil {
		return false, err
	}
	bucket = s.bucket(bucket)
	_, err := s.client.api.StatObject(ctx, bucket, object, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	terr := translate(err, bucket, object)
	if errors.IsNotFound(terr) {
		return false, nil
	}
	return false, terr
}

// Remove deletes object.
func (s *BatchStore) Remove(ctx context.Context, bucket, object string) error {
	if err := s.client.check(); err != nil {
		return err
	}
	bucket = s.bucket(bucket)
	return translate(s.client.api.RemoveObject(ctx, bucket, object, minio.RemoveObjectOptions{}), bucket, object)
}

//Personal.AI order the ending
