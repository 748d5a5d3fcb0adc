package redis

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/turtacn/ListSense/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ListSense/pkg/errors"
)

var (
	ErrLockNotAcquired = errors.New(errors.ErrCodeConflict, "failed to acquire lock")
	ErrLockNotHeld     = errors.New(errors.ErrCodeConflict, "lock not held by this owner")
)

var unlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	end
	return 0
`)

var extendScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("PEXPIRE", KEYS[1], ARGV[2])
	end
	return 0
`)

// JobLock is a single-owner lease on a named resource, used so that a
// batch job redelivered to several workers is processed once.
type JobLock struct {
	client *Client
	logger logging.Logger
	key    string
	token  string
	ttl    time.Duration

	mu       sync.Mutex
	stopKeep context.CancelFunc
	kept     chan struct{}
}

// NewJobLock prepares a lock on name. Nothing is acquired until TryLock.
func NewJobLock(client *Client, log logging.Logger, prefix, name string, ttl time.Duration) *JobLock {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &JobLock{
		client: client,
		logger: log.Named("lock"),
		key:    prefix + "lock:" + name,
		token:  uuid.NewString(),
		ttl:    ttl,
	}
}

// Key returns the redis key backing the lock.
func (l *JobLock) Key() string { return l.key }

// TryLock acquires the lease without waiting. While held, the lease is
// renewed every ttl/3 until Unlock.
func (l *JobLock) TryLock(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "failed to acquire lock")
	}
	if ok {
		l.startKeepAlive()
	}
	return ok, nil
}

// Extend pushes the expiry out to ttl if the lease is still ours.
func (l *JobLock) Extend(ctx context.Context, ttl time.Duration) (bool, error) {
	res, err := extendScript.Run(ctx, l.client.Underlying(), []string{l.key}, l.token, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

// Unlock releases the lease. ErrLockNotHeld means it expired or was taken.
func (l *JobLock) Unlock(ctx context.Context) error {
	l.stopKeepAlive()
	res, err := unlockScript.Run(ctx, l.client.Underlying(), []string{l.key}, l.token).Int64()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to release lock")
	}
	if res == 0 {
		return ErrLockNotHeld
	}
	return nil
}

func (l *JobLock) startKeepAlive() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopKeep != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	l.stopKeep = cancel
	l.kept = make(chan struct{})
	go l.keepAlive(ctx, l.kept)
}

func (l *JobLock) stopKeepAlive() {
	l.mu.Lock()
	cancel, done := l.stopKeep, l.kept
	l.stopKeep, l.kept = nil, nil
	l.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
}

func (l *JobLock) keepAlive(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ok, err := l.Extend(ctx, l.ttl)
			if err != nil {
				if ctx.Err() == nil {
					l.logger.Error("lock renewal failed", logging.String("key", l.key), logging.Err(err))
				}
				return
			}
			if !ok {
				l.logger.Warn("lock lost", logging.String("key", l.key))
				return
			}
		}
	}
}

//Personal.AI order the ending
