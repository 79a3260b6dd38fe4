package batch

import (
	"sync"

	"github.com/rshade/promptbatch/internal/engine"
)

// Event is a notification emitted by a Queue. The concrete types are the
// *Event structs in this package.
type Event interface {
	isEvent()
}

// ProgressEvent follows every row completion.
type ProgressEvent struct {
	BatchID  string
	Progress Progress
}

// RowDoneEvent carries each completed row, whatever its status.
type RowDoneEvent struct {
	BatchID string
	Result  engine.Result
}

// RowErrorEvent is emitted in addition to RowDoneEvent for failed rows.
type RowErrorEvent struct {
	BatchID string
	RowID   string
	Status  engine.RowStatus
	Message string
}

// SummaryEvent is emitted once when a run drains, before CompleteEvent or
// FailedEvent.
type SummaryEvent struct {
	Summary Summary
}

// CompleteEvent marks a run that drained without critical errors.
type CompleteEvent struct {
	BatchID string
}

// FailedEvent marks a run that drained with at least one critical error.
type FailedEvent struct {
	BatchID            string
	Reason             string
	CriticalErrorCount int
	TotalRows          int
}

// StoppedEvent marks a run that was stopped before draining.
type StoppedEvent struct {
	BatchID   string
	Processed int
	Total     int
}

func (ProgressEvent) isEvent() {}
func (RowDoneEvent) isEvent()  {}
func (RowErrorEvent) isEvent() {}
func (SummaryEvent) isEvent()  {}
func (CompleteEvent) isEvent() {}
func (FailedEvent) isEvent()   {}
func (StoppedEvent) isEvent()  {}

// Observer receives queue events. Notify is called from worker goroutines,
// one event at a time, and must not call back into the Queue.
type Observer interface {
	Notify(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Notify calls f(e).
func (f ObserverFunc) Notify(e Event) { f(e) }

// ChannelObserver forwards events to a channel. Sends block, so the
// consumer must keep draining Events until Close.
type ChannelObserver struct {
	ch     chan Event
	mu     sync.RWMutex
	closed bool
}

// NewChannelObserver returns an observer with the given channel buffer.
func NewChannelObserver(buffer int) *ChannelObserver {
	if buffer < 0 {
		buffer = 0
	}
	return &ChannelObserver{ch: make(chan Event, buffer)}
}

// Notify sends e, dropping it if the observer is closed.
func (o *ChannelObserver) Notify(e Event) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		return
	}
	o.ch <- e
}

// Events returns the receive side.
func (o *ChannelObserver) Events() <-chan Event {
	return o.ch
}

// Close closes the channel. Safe to call more than once.
func (o *ChannelObserver) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.closed {
		o.closed = true
		close(o.ch)
	}
}
