package checkpoint

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestFileStore_SaveLoadClear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())

	payload := json.RawMessage(`{"batchId":"b1","pendingRows":[]}`)
	require.NoError(t, store.Save(ctx, "b1", payload))

	_, statErr := os.Stat(filepath.Join(dir, "b1.json"))
	require.NoError(t, statErr)

	got, err := store.Load(ctx, "b1")
	require.NoError(t, err)
	assert.JSONEq(t, string(payload), string(got))

	// Overwrite replaces.
	require.NoError(t, store.Save(ctx, "b1", json.RawMessage(`{"v":2}`)))
	got, err = store.Load(ctx, "b1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(got))

	require.NoError(t, store.Clear(ctx, "b1"))
	_, err = store.Load(ctx, "b1")
	assert.ErrorIs(t, err, ErrNotFound)

	// Clearing twice is fine.
	assert.NoError(t, store.Clear(ctx, "b1"))
	assert.NoError(t, store.Close())
}

func TestFileStore_LoadMissing(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_InvalidBatchID(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	for _, id := range []string{"", "  ", "..", "a/b", `a\b`, "c:d"} {
		assert.ErrorIs(t, store.Save(ctx, id, json.RawMessage(`{}`)), ErrInvalidBatchID, id)
		_, loadErr := store.Load(ctx, id)
		assert.ErrorIs(t, loadErr, ErrInvalidBatchID, id)
	}
}

func TestFileStore_Retention(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	dir := t.TempDir()
	store, err := NewFileStore(dir, WithRetention(time.Hour), WithClock(clock.Now))
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "old", json.RawMessage(`{}`)))
	clock.Advance(30 * time.Minute)
	require.NoError(t, store.Save(ctx, "new", json.RawMessage(`{}`)))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "old"}, ids)

	clock.Advance(45 * time.Minute)

	_, err = store.Load(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound)
	_, statErr := os.Stat(filepath.Join(dir, "old.json"))
	assert.True(t, os.IsNotExist(statErr))

	clock.Advance(time.Hour)
	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
	_, statErr = os.Stat(filepath.Join(dir, "new.json"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestFileStore_ListSkipsForeignFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "b2", json.RawMessage(`{}`)))
	require.NoError(t, store.Save(ctx, "b1", json.RawMessage(`{}`)))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b3.json.tmp"), []byte("{}"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0o750))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b1", "b2"}, ids)
}

func TestFileStore_IncompatibleSchema(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	raw := `{"batch_id":"future","schema_version":"2.0.0","saved_at":"2026-01-01T00:00:00Z","data":{}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "future.json"), []byte(raw), 0o600))

	_, err = store.Load(ctx, "future")
	assert.ErrorIs(t, err, ErrIncompatibleSchema)
}

func TestFileStore_ConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			payload, _ := json.Marshal(map[string]int{"n": n})
			assert.NoError(t, store.Save(ctx, "shared", payload))
		}(i)
	}
	wg.Wait()

	got, err := store.Load(ctx, "shared")
	require.NoError(t, err)
	var decoded map[string]int
	require.NoError(t, json.Unmarshal(got, &decoded))
	assert.Contains(t, decoded, "n")
}

func TestNewFileStore_EmptyDir(t *testing.T) {
	_, err := NewFileStore("")
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	store, err := Open(ctx, Options{Dir: t.TempDir()})
	require.NoError(t, err)
	_, ok := store.(*FileStore)
	assert.True(t, ok)

	_, err = Open(ctx, Options{Backend: "s3"})
	assert.ErrorContains(t, err, "unknown checkpoint backend")

	_, err = Open(ctx, Options{Backend: BackendRedis})
	assert.Error(t, err)
}
