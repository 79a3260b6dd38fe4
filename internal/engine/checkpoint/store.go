package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Common checkpoint errors.
var (
	ErrNotFound       = errors.New("checkpoint not found")
	ErrInvalidBatchID = errors.New("invalid batch id")
)

// Backend names accepted by Open.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Store is a checkpoint backend.
type Store interface {
	Save(ctx context.Context, batchID string, data json.RawMessage) error
	Load(ctx context.Context, batchID string) (json.RawMessage, error)
	Clear(ctx context.Context, batchID string) error
	List(ctx context.Context) ([]string, error)
	Close() error
}

// Option configures a store.
type Option func(*storeOptions)

type storeOptions struct {
	retention time.Duration
	prefix    string
	now       func() time.Time
}

func defaultStoreOptions() storeOptions {
	return storeOptions{
		retention: DefaultRetention,
		prefix:    DefaultKeyPrefix,
		now:       time.Now,
	}
}

// WithRetention sets how long checkpoints are kept. Zero keeps them forever.
func WithRetention(d time.Duration) Option {
	return func(o *storeOptions) {
		if d >= 0 {
			o.retention = d
		}
	}
}

// WithKeyPrefix sets the Redis key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(o *storeOptions) {
		if prefix != "" {
			o.prefix = prefix
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *storeOptions) { o.now = now }
}

// Options selects and configures a backend for Open.
type Options struct {
	Backend   string
	Dir       string
	Retention time.Duration
	Redis     RedisOptions
}

// Open builds the backend named by opts.Backend. An empty backend means
// BackendFile.
//
//nolint:ireturn // the backend is chosen at runtime.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendFile:
		return NewFileStore(opts.Dir, WithRetention(opts.Retention))
	case BackendRedis:
		client, err := ConnectRedis(ctx, opts.Redis)
		if err != nil {
			return nil, err
		}
		return NewRedisStore(client, WithRetention(opts.Retention), WithKeyPrefix(opts.Redis.Prefix)), nil
	default:
		return nil, fmt.Errorf("unknown checkpoint backend %q", opts.Backend)
	}
}

func validateBatchID(batchID string) error {
	if strings.TrimSpace(batchID) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidBatchID)
	}
	if batchID == "." || batchID == ".." || strings.ContainsAny(batchID, `/\:*?`) {
		return fmt.Errorf("%w: %q", ErrInvalidBatchID, batchID)
	}
	return nil
}
