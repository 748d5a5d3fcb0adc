// Package minio stores bulk extraction inputs and results in MinIO or any
// S3 compatible object store.
package minio

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/turtacn/ListSense/internal/config"
	"github.com/turtacn/ListSense/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ListSense/pkg/errors"
)

var (
	ErrClientClosed     = errors.New(errors.ErrCodeStorageError, "minio client is closed")
	ErrObjectNotFound   = errors.New(errors.ErrCodeNotFound, "object not found")
	ErrBucketNotFound   = errors.New(errors.ErrCodeNotFound, "bucket not found")
	ErrConnectionFailed = errors.New(errors.ErrCodeServiceUnavailable, "minio connection failed")
)

const connectTimeout = 10 * time.Second

// ObjectAPI is the subset of the MinIO client used here.
type ObjectAPI interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, object string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	StatObject(ctx context.Context, bucket, object string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	RemoveObject(ctx context.Context, bucket, object string, opts minio.RemoveObjectOptions) error
	// OpenObject returns the object body. Missing objects fail here rather
	// than on first read.
	OpenObject(ctx context.Context, bucket, object string) (io.ReadCloser, error)
}

// sdkAPI adapts *minio.Client to ObjectAPI.
type sdkAPI struct {
	*minio.Client
}

func (a sdkAPI) OpenObject(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	obj, err := a.GetObject(ctx, bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, err
	}
	return obj, nil
}

// Client owns the object store connection and the default bucket.
type Client struct {
	api    ObjectAPI
	cfg    config.MinIOConfig
	logger logging.Logger

	mu     sync.RWMutex
	closed bool
}

// NewClient connects to cfg.Endpoint and makes sure cfg.Bucket exists.
func NewClient(cfg config.MinIOConfig, log logging.Logger) (*Client, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigError, "invalid minio settings")
	}

	c := NewClientFrom(sdkAPI{mc}, cfg, log)
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := c.EnsureBucket(ctx, cfg.Bucket); err != nil {
		return nil, err
	}

	c.logger.Info("minio client connected",
		logging.String("endpoint", cfg.Endpoint),
		logging.String("bucket", cfg.Bucket),
		logging.Bool("ssl", cfg.UseSSL))
	return c, nil
}

// NewClientFrom wraps an existing ObjectAPI.
func NewClientFrom(api ObjectAPI, cfg config.MinIOConfig, log logging.Logger) *Client {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	return &Client{api: api, cfg: cfg, logger: log.Named("minio")}
}

// DefaultBucket is the bucket used when a job names none.
func (c *Client) DefaultBucket() string { return c.cfg.Bucket }

// EnsureBucket creates bucket when it is missing.
func (c *Client) EnsureBucket(ctx context.Context, bucket string) error {
	if err := c.check(); err != nil {
		return err
	}
	exists, err := c.api.BucketExists(ctx, bucket)
	if err != nil {
		return ErrConnectionFailed.WithCause(err)
	}
	if exists {
		return nil
	}
	if err := c.api.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: c.cfg.Region}); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "failed to create bucket").WithDetail(bucket)
	}
	c.logger.Info("created bucket", logging.String("bucket", bucket))
	return nil
}

// HealthCheck verifies the default bucket is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.check(); err != nil {
		return err
	}
	ok, err := c.api.BucketExists(ctx, c.cfg.Bucket)
	if err != nil {
		return ErrConnectionFailed.WithCause(err)
	}
	if !ok {
		return ErrBucketNotFound.WithDetail(c.cfg.Bucket)
	}
	return nil
}

// Close marks the client closed. Calls after Close fail with ErrClientClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *Client) check() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClientClosed
	}
	return nil
}

// translate maps S3 error responses onto application errors.
func translate(err error, bucket, object string) error {
	if err == nil {
		return nil
	}
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey":
		return ErrObjectNotFound.WithDetailf("%s/%s", bucket, object).WithCause(err)
	case "NoSuchBucket":
		return ErrBucketNotFound.WithDetail(bucket).WithCause(err)
	}
	return errors.Wrap(err, errors.ErrCodeStorageError, "object store request failed").
		WithDetailf("%s/%s", bucket, object)
}

//Personal.AI order the ending
