package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rshade/promptbatch/internal/logging"
)

const checkpointFileExtension = ".json"

// FileStore keeps one JSON file per batch in a directory. Safe for
// concurrent use.
type FileStore struct {
	directory string
	opts      storeOptions

	mu sync.RWMutex
}

// NewFileStore creates a store rooted at directory, creating it if needed.
func NewFileStore(directory string, opts ...Option) (*FileStore, error) {
	if directory == "" {
		return nil, errors.New("checkpoint directory cannot be empty")
	}
	if err := os.MkdirAll(directory, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	o := defaultStoreOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &FileStore{directory: directory, opts: o}, nil
}

// Dir returns the checkpoint directory.
func (s *FileStore) Dir() string {
	return s.directory
}

// Save writes the checkpoint for batchID, replacing any previous one.
func (s *FileStore) Save(_ context.Context, batchID string, data json.RawMessage) error {
	if err := validateBatchID(batchID); err != nil {
		return err
	}

	raw, err := encodeEntry(NewEntry(batchID, data, s.opts.retention, s.opts.now()))
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(batchID)
	tmp := path + ".tmp"
	if writeErr := os.WriteFile(tmp, raw, 0o600); writeErr != nil {
		return fmt.Errorf("failed to write checkpoint file: %w", writeErr)
	}
	if renameErr := os.Rename(tmp, path); renameErr != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to rename checkpoint file: %w", renameErr)
	}
	return nil
}

// Load returns the checkpoint payload for batchID, or ErrNotFound when it
// is absent or expired.
func (s *FileStore) Load(ctx context.Context, batchID string) (json.RawMessage, error) {
	if err := validateBatchID(batchID); err != nil {
		return nil, err
	}

	s.mu.RLock()
	raw, err := os.ReadFile(s.path(batchID))
	s.mu.RUnlock()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read checkpoint file: %w", err)
	}

	entry, err := decodeEntry(raw)
	if err != nil {
		return nil, err
	}
	if entry.IsExpired(s.opts.now()) {
		logging.FromContext(ctx).Debug().
			Ctx(ctx).
			Str("component", "checkpoint").
			Str("batch_id", batchID).
			Msg("removing expired checkpoint")
		_ = s.Clear(ctx, batchID)
		return nil, ErrNotFound
	}
	if schemaErr := entry.CheckSchema(); schemaErr != nil {
		return nil, schemaErr
	}
	return entry.Data, nil
}

// Clear removes the checkpoint for batchID. Clearing an absent checkpoint
// is not an error.
func (s *FileStore) Clear(_ context.Context, batchID string) error {
	if err := validateBatchID(batchID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(batchID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint file: %w", err)
	}
	return nil
}

// List returns the ids of all live checkpoints in sorted order. Expired
// checkpoints are deleted along the way; unreadable files are skipped.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	log := logging.FromContext(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	dirEntries, err := os.ReadDir(s.directory)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint directory: %w", err)
	}

	now := s.opts.now()
	ids := make([]string, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || filepath.Ext(de.Name()) != checkpointFileExtension {
			continue
		}

		path := filepath.Join(s.directory, de.Name())
		raw, readErr := os.ReadFile(path)
		if readErr != nil {
			continue
		}
		entry, decodeErr := decodeEntry(raw)
		if decodeErr != nil {
			log.Debug().Ctx(ctx).Str("component", "checkpoint").Str("file", path).Err(decodeErr).
				Msg("skipping unreadable checkpoint")
			continue
		}
		if entry.IsExpired(now) {
			_ = os.Remove(path)
			continue
		}
		ids = append(ids, strings.TrimSuffix(de.Name(), checkpointFileExtension))
	}

	sort.Strings(ids)
	return ids, nil
}

// Close is a no-op for file stores.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) path(batchID string) string {
	return filepath.Join(s.directory, batchID+checkpointFileExtension)
}
