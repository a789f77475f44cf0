package pool

import (
	"context"
	"io"
	"log"
	"sync/atomic"
)

// EventKind names the admission or execution point an Event was recorded at.
type EventKind string

const (
	EventSubmit EventKind = "submit"
	EventStart  EventKind = "start"
	EventFinish EventKind = "finish"
)

// Event is one occupancy observation. Stats is the delegate's snapshot taken
// immediately before the submission is delegated (or the task starts/ends).
type Event struct {
	Kind  EventKind
	Pool  string
	Stats Stats
}

// Observer receives occupancy events. It runs on the submitting goroutine
// (EventSubmit) or the worker goroutine (EventStart/EventFinish) and should
// return quickly.
type Observer func(Event)

// InstrumentOption configures an Instrumented submitter.
type InstrumentOption func(*Instrumented)

// WithObserver registers fn to receive every event.
func WithObserver(fn Observer) InstrumentOption {
	return func(i *Instrumented) {
		i.observer = fn
	}
}

// WithEventLogger logs every event on l in the form
// "<pool>, do <kind>, taskCount: .., completedTaskCount: .., activeCount: .., queueSize: ..".
func WithEventLogger(l *log.Logger) InstrumentOption {
	return func(i *Instrumented) {
		if l != nil {
			i.logger = l
		}
	}
}

// WithExecutionEvents additionally reports EventStart and EventFinish around
// each task body.
func WithExecutionEvents() InstrumentOption {
	return func(i *Instrumented) {
		i.execEvents = true
	}
}

// WithPoolName sets the pool name reported in events.
func WithPoolName(name string) InstrumentOption {
	return func(i *Instrumented) {
		i.name = name
	}
}

// Instrumented decorates a Submitter with occupancy reporting. It returns
// the delegate's handles and errors unchanged; a panicking observer is
// recovered and counted, never surfaced to the submitter.
type Instrumented struct {
	inner      Submitter
	observer   Observer
	logger     *log.Logger
	name       string
	execEvents bool

	events   atomic.Uint64
	failures atomic.Uint64
}

var _ Submitter = (*Instrumented)(nil)

// Instrument wraps inner.
func Instrument(inner Submitter, opts ...InstrumentOption) *Instrumented {
	i := &Instrumented{
		inner:  inner,
		logger: log.New(io.Discard, "", 0),
		name:   DefaultName,
	}
	if named, ok := inner.(interface{ Name() string }); ok {
		i.name = named.Name()
	}

	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Submit records the delegate's occupancy, then delegates.
func (i *Instrumented) Submit(ctx context.Context, task Runnable) (*Handle, error) {
	i.record(EventSubmit)

	if task == nil || !i.execEvents {
		return i.inner.Submit(ctx, task)
	}

	return i.inner.Submit(ctx, func(ctx context.Context) {
		i.record(EventStart)
		defer i.record(EventFinish)
		task(ctx)
	})
}

// Stats returns the delegate's stats.
func (i *Instrumented) Stats() Stats {
	return i.inner.Stats()
}

// Events returns how many events were recorded.
func (i *Instrumented) Events() uint64 {
	return i.events.Load()
}

// ObserverFailures returns how many observer calls panicked.
func (i *Instrumented) ObserverFailures() uint64 {
	return i.failures.Load()
}

func (i *Instrumented) record(kind EventKind) {
	defer func() {
		if r := recover(); r != nil {
			i.failures.Add(1)
		}
	}()

	i.events.Add(1)
	ev := Event{Kind: kind, Pool: i.name, Stats: i.inner.Stats()}

	i.logger.Printf("%s, do %s, taskCount: %d, completedTaskCount: %d, activeCount: %d, queueSize: %d",
		ev.Pool, ev.Kind, ev.Stats.Submitted, ev.Stats.Completed, ev.Stats.Active, ev.Stats.Queued)

	if i.observer != nil {
		i.observer(ev)
	}
}
