package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rshade/promptbatch/internal/engine"
	"github.com/rshade/promptbatch/internal/engine/checkpoint"
	"github.com/rshade/promptbatch/internal/logging"
)

// Queue defaults and bounds.
const (
	DefaultMaxInFlight     = 3
	MinMaxInFlight         = 1
	MaxMaxInFlight         = 10
	DefaultCheckpointEvery = 10
)

// Common queue errors.
var (
	ErrAlreadyRunning     = errors.New("batch queue is already running")
	ErrStopped            = errors.New("batch queue was stopped")
	ErrNoSavedState       = errors.New("no saved state for batch")
	ErrCorruptState       = errors.New("corrupt batch checkpoint")
	ErrInvalidConcurrency = fmt.Errorf("max in flight must be between %d and %d", MinMaxInFlight, MaxMaxInFlight)
	ErrBatchFailed        = errors.New("batch failed")
)

// BatchFailedError reports a run that drained with critical row errors.
// It matches ErrBatchFailed with errors.Is.
//
//nolint:revive // BatchFailedError reads better than FailedError at call sites.
type BatchFailedError struct {
	BatchID            string
	CriticalErrorCount int
	TotalRows          int
}

func (e *BatchFailedError) Error() string {
	return fmt.Sprintf("batch %s failed: %d of %d rows have no API key configured",
		e.BatchID, e.CriticalErrorCount, e.TotalRows)
}

// Unwrap returns ErrBatchFailed.
func (e *BatchFailedError) Unwrap() error {
	return ErrBatchFailed
}

// Executor runs one row. It must always return a terminal result.
type Executor interface {
	Execute(ctx context.Context, row engine.Row) engine.Result
}

// StateStore persists checkpoints. Load returns checkpoint.ErrNotFound when
// nothing is stored for the batch.
type StateStore interface {
	Save(ctx context.Context, batchID string, data json.RawMessage) error
	Load(ctx context.Context, batchID string) (json.RawMessage, error)
	Clear(ctx context.Context, batchID string) error
	List(ctx context.Context) ([]string, error)
}

// Option configures a Queue.
type Option func(*Queue)

// WithMaxInFlight sets the concurrency cap (1..10).
func WithMaxInFlight(n int) Option {
	return func(q *Queue) { q.maxInFlight = n }
}

// WithBatchID sets the batch id. The default is a new ULID.
func WithBatchID(id string) Option {
	return func(q *Queue) {
		if id != "" {
			q.batchID = id
		}
	}
}

// WithObserver registers an event observer.
func WithObserver(o Observer) Option {
	return func(q *Queue) {
		if o != nil {
			q.observers = append(q.observers, o)
		}
	}
}

// WithCheckpointEvery sets how many completions pass between checkpoints.
func WithCheckpointEvery(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.checkpointEvery = n
		}
	}
}

// WithRequeueCritical makes Resume put rows that failed for a missing
// credential back on the pending queue.
func WithRequeueCritical() Option {
	return func(q *Queue) { q.requeueCritical = true }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

// Queue schedules rows through an Executor. All methods are safe for
// concurrent use.
type Queue struct {
	exec            Executor
	store           StateStore
	batchID         string
	maxInFlight     int
	checkpointEvery int
	requeueCritical bool
	observers       []Observer
	now             func() time.Time

	mu        sync.Mutex
	pending   []engine.Row
	active    map[uint64]engine.Row
	seq       uint64
	results   []engine.Result
	critRows  []engine.Row
	processed int
	total     int
	critical  int
	startTime time.Time
	running   bool
	stopping  bool
	persist   bool
	stopped   bool
	done      chan struct{}
	summary   *Summary

	// emitMu keeps event delivery in completion order.
	emitMu sync.Mutex
	// saveMu allows one checkpoint write at a time.
	saveMu sync.Mutex
}

// NewQueue returns an empty queue. store may be nil to disable
// checkpointing.
func NewQueue(exec Executor, store StateStore, opts ...Option) (*Queue, error) {
	if exec == nil {
		return nil, errors.New("batch queue requires an executor")
	}
	q := &Queue{
		exec:            exec,
		store:           store,
		maxInFlight:     DefaultMaxInFlight,
		checkpointEvery: DefaultCheckpointEvery,
		active:          make(map[uint64]engine.Row),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.maxInFlight < MinMaxInFlight || q.maxInFlight > MaxMaxInFlight {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidConcurrency, q.maxInFlight)
	}
	if q.batchID == "" {
		q.batchID = ulid.Make().String()
	}
	return q, nil
}

// Resume rebuilds a queue from the checkpoint stored for batchID. Start
// then runs only the rows that were not finished, and durations keep
// counting from the original start time.
func Resume(ctx context.Context, store StateStore, batchID string, exec Executor, opts ...Option) (*Queue, error) {
	state, err := LoadState(ctx, store, batchID)
	if err != nil {
		return nil, err
	}

	q, err := NewQueue(exec, store, append(opts, WithBatchID(state.BatchID))...)
	if err != nil {
		return nil, err
	}

	q.pending = state.PendingRows
	q.results = state.Results
	q.processed = state.ProcessedCount
	q.total = state.TotalCount
	q.startTime = state.StartTime
	q.critRows = state.CriticalRows

	if q.requeueCritical {
		q.requeueCriticalRows()
	}
	for _, r := range q.results {
		if r.Status.IsCritical() {
			q.critical++
		}
	}

	logging.FromContext(ctx).Info().
		Ctx(ctx).
		Str("component", "batch").
		Str("batch_id", q.batchID).
		Int("processed", q.processed).
		Int("total", q.total).
		Msg("batch resumed from checkpoint")

	return q, nil
}

// LoadState reads and validates the checkpoint stored for batchID without
// building a queue.
func LoadState(ctx context.Context, store StateStore, batchID string) (*QueueState, error) {
	if store == nil {
		return nil, errors.New("loading state requires a state store")
	}
	raw, err := store.Load(ctx, batchID)
	if err != nil {
		if errors.Is(err, checkpoint.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNoSavedState, batchID)
		}
		return nil, fmt.Errorf("loading checkpoint %s: %w", batchID, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSavedState, batchID)
	}
	return decodeState(raw)
}

// ListResumableBatches returns the ids of all stored checkpoints.
func ListResumableBatches(ctx context.Context, store StateStore) ([]string, error) {
	if store == nil {
		return nil, nil
	}
	ids, err := store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing checkpoints: %w", err)
	}
	return ids, nil
}

// requeueCriticalRows moves rows that failed for a missing credential back
// to the head of the pending queue.
func (q *Queue) requeueCriticalRows() {
	if len(q.critRows) == 0 {
		return
	}
	retry := make(map[string]bool, len(q.critRows))
	for _, r := range q.critRows {
		retry[r.ID] = true
	}
	kept := make([]engine.Result, 0, len(q.results))
	for _, r := range q.results {
		if r.Status.IsCritical() && retry[r.ID] {
			continue
		}
		kept = append(kept, r)
	}
	q.processed -= len(q.results) - len(kept)
	q.results = kept
	q.pending = append(slices.Clone(q.critRows), q.pending...)
	q.critRows = nil
}

// BatchID returns the batch id.
func (q *Queue) BatchID() string {
	return q.batchID
}

// Enqueue appends row to the pending queue.
func (q *Queue) Enqueue(row engine.Row) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running {
		return ErrAlreadyRunning
	}
	if q.stopped {
		return ErrStopped
	}
	q.pending = append(q.pending, row)
	q.total++
	return nil
}

// Progress returns the current progress.
func (q *Queue) Progress() Progress {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.progressLocked()
}

// Summary returns the summary of the last drained run, or nil.
func (q *Queue) Summary() *Summary {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.summary == nil {
		return nil
	}
	s := *q.summary
	return &s
}

// Results returns a copy of the results collected so far.
func (q *Queue) Results() []engine.Result {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.results)
}

// Start drains the pending queue and returns every result once all
// in-flight rows have settled.
//
// If any row failed for a missing credential the returned error is a
// *BatchFailedError and the checkpoint is kept. If the queue is stopped,
// or ctx is cancelled, Start returns the results so far with ErrStopped or
// the context error.
func (q *Queue) Start(ctx context.Context) ([]engine.Result, error) {
	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	if q.stopped {
		q.mu.Unlock()
		return nil, ErrStopped
	}
	q.running = true
	q.stopping = false
	q.summary = nil
	q.done = make(chan struct{})
	if q.startTime.IsZero() {
		q.startTime = q.now()
	}
	pending := len(q.pending)
	q.mu.Unlock()

	log := q.logger(ctx)
	log.Info().
		Ctx(ctx).
		Str("operation", "start").
		Int("pending", pending).
		Int("max_in_flight", q.maxInFlight).
		Msg("batch started")

	q.checkpoint(ctx)

	// In-flight rows are never cancelled; ctx only stops dispatch.
	execCtx := context.WithoutCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	for range q.maxInFlight {
		g.Go(func() error {
			return q.work(gctx, execCtx)
		})
	}
	runErr := g.Wait()

	q.mu.Lock()
	stopping, persist := q.stopping, q.persist
	if runErr != nil {
		q.stopped = true
	}
	q.mu.Unlock()

	// The final checkpoint and events are settled before Start returns and
	// before done is closed, so Stop callers observe the persisted state.
	var err error
	switch {
	case stopping:
		q.finishStop(ctx, persist)
		err = ErrStopped
	case runErr != nil:
		log.Warn().Ctx(ctx).Err(runErr).Msg("batch interrupted")
		q.finishStop(ctx, true)
		err = runErr
	default:
		err = q.finish(ctx)
	}

	q.mu.Lock()
	q.running = false
	done := q.done
	results := slices.Clone(q.results)
	q.mu.Unlock()
	close(done)

	return results, err
}

// work is one worker: it pops rows in FIFO order until the queue is
// empty or dispatch is stopped.
func (q *Queue) work(ctx, execCtx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		seq, row, ok := q.next()
		if !ok {
			return nil
		}
		res := q.exec.Execute(execCtx, row)
		q.complete(execCtx, seq, res)
	}
}

func (q *Queue) next() (uint64, engine.Row, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.stopping || len(q.pending) == 0 {
		return 0, engine.Row{}, false
	}
	row := q.pending[0]
	q.pending = q.pending[1:]
	q.seq++
	q.active[q.seq] = row
	return q.seq, row, true
}

func (q *Queue) complete(ctx context.Context, seq uint64, res engine.Result) {
	q.emitMu.Lock()

	q.mu.Lock()
	row := q.active[seq]
	delete(q.active, seq)
	q.results = append(q.results, res)
	q.processed++
	if res.Status.IsCritical() {
		q.critical++
		q.critRows = append(q.critRows, row)
	}
	progress := q.progressLocked()
	due := q.processed%q.checkpointEvery == 0
	q.mu.Unlock()

	q.emit(RowDoneEvent{BatchID: q.batchID, Result: res})
	if res.Status.IsError() {
		q.emit(RowErrorEvent{BatchID: q.batchID, RowID: res.ID, Status: res.Status, Message: res.Error})
	}
	q.emit(ProgressEvent{BatchID: q.batchID, Progress: progress})
	q.emitMu.Unlock()

	if res.Status.IsCritical() {
		q.logger(ctx).Error().
			Ctx(ctx).
			Str("row_id", res.ID).
			Str("model", res.Model).
			Str("error", res.Error).
			Msg("row failed with a missing credential")
	}
	if due {
		q.checkpoint(ctx)
	}
}

// finish produces the summary of a drained run and settles the checkpoint.
func (q *Queue) finish(ctx context.Context) error {
	q.mu.Lock()
	summary := BuildSummary(q.batchID, q.total, q.results, q.startTime, q.now())
	q.summary = &summary
	critical := q.critical
	total := q.total
	q.mu.Unlock()

	log := q.logger(ctx)
	q.emit(SummaryEvent{Summary: summary})

	if critical > 0 {
		// Keep the final state so the batch can be resumed after the
		// missing credentials are configured.
		q.checkpoint(ctx)
		q.emit(FailedEvent{
			BatchID:            q.batchID,
			Reason:             "one or more rows have no API key configured",
			CriticalErrorCount: critical,
			TotalRows:          total,
		})
		log.Error().
			Ctx(ctx).
			Int("critical_errors", critical).
			Int("total_rows", total).
			Msg("batch failed")
		return &BatchFailedError{BatchID: q.batchID, CriticalErrorCount: critical, TotalRows: total}
	}

	q.clearCheckpoint(ctx)
	q.emit(CompleteEvent{BatchID: q.batchID})
	log.Info().
		Ctx(ctx).
		Int("success", summary.SuccessCount).
		Int("errors", summary.ErrorCount).
		Float64("total_cost_usd", summary.TotalCost).
		Int64("duration_ms", summary.DurationMs).
		Msg("batch completed")
	return nil
}

// Stop stops dispatch and waits for in-flight rows to finish. With
// persist, a final checkpoint holding the undispatched rows is written
// before the pending queue is discarded. Stopping an idle queue is a no-op.
//
// The final checkpoint and StoppedEvent are produced by Start once the
// workers drain, so they happen even when ctx expires first; Stop then
// only gives up waiting and returns ctx.Err().
func (q *Queue) Stop(ctx context.Context, persist bool) error {
	q.mu.Lock()
	if !q.running || q.stopping {
		q.mu.Unlock()
		return nil
	}
	q.stopping = true
	q.persist = persist
	q.stopped = true
	done := q.done
	q.mu.Unlock()

	q.logger(ctx).Info().Ctx(ctx).Str("operation", "stop").Bool("persist", persist).
		Msg("stopping batch, waiting for in-flight rows")

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) finishStop(ctx context.Context, persist bool) {
	if persist {
		q.checkpoint(ctx)
	}

	q.mu.Lock()
	processed, total := q.processed, q.total
	q.pending = nil
	q.mu.Unlock()

	q.emit(StoppedEvent{BatchID: q.batchID, Processed: processed, Total: total})
}

// snapshot captures the checkpoint document. Rows in flight are recorded
// as pending, ahead of the undispatched rows, in dispatch order.
func (q *Queue) snapshot() QueueState {
	q.mu.Lock()
	defer q.mu.Unlock()

	seqs := slices.Sorted(maps.Keys(q.active))
	pending := make([]engine.Row, 0, len(seqs)+len(q.pending))
	for _, s := range seqs {
		pending = append(pending, q.active[s])
	}
	pending = append(pending, q.pending...)

	return QueueState{
		BatchID:        q.batchID,
		PendingRows:    pending,
		Results:        slices.Clone(q.results),
		CriticalRows:   slices.Clone(q.critRows),
		ProcessedCount: q.processed,
		TotalCount:     q.total,
		StartTime:      q.startTime,
		SavedAt:        q.now(),
	}
}

// checkpoint writes the current state. Failures are logged and swallowed.
func (q *Queue) checkpoint(ctx context.Context) {
	if q.store == nil {
		return
	}
	q.saveMu.Lock()
	defer q.saveMu.Unlock()

	state := q.snapshot()
	log := q.logger(ctx)
	raw, err := json.Marshal(state)
	if err != nil {
		log.Warn().Ctx(ctx).Err(err).Msg("encoding checkpoint failed")
		return
	}
	if err = q.store.Save(context.WithoutCancel(ctx), q.batchID, raw); err != nil {
		log.Warn().Ctx(ctx).Err(err).Msg("saving checkpoint failed")
		return
	}
	log.Debug().
		Ctx(ctx).
		Int("processed", state.ProcessedCount).
		Int("pending", len(state.PendingRows)).
		Msg("checkpoint saved")
}

func (q *Queue) clearCheckpoint(ctx context.Context) {
	if q.store == nil {
		return
	}
	q.saveMu.Lock()
	defer q.saveMu.Unlock()

	if err := q.store.Clear(context.WithoutCancel(ctx), q.batchID); err != nil {
		q.logger(ctx).Warn().Ctx(ctx).Err(err).Msg("clearing checkpoint failed")
	}
}

func (q *Queue) progressLocked() Progress {
	start := q.startTime
	now := q.now()
	if start.IsZero() {
		start = now
	}
	return newProgress(q.processed, q.total, start, now)
}

func (q *Queue) emit(e Event) {
	for _, o := range q.observers {
		o.Notify(e)
	}
}

func (q *Queue) logger(ctx context.Context) *zerolog.Logger {
	l := logging.FromContext(ctx).With().
		Str("component", "batch").
		Str("batch_id", q.batchID).
		Logger()
	return &l
}
