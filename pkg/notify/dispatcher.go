package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/omnibot/pkg/domain"
	"github.com/aretw0/omnibot/pkg/ports"
)

const (
	DefaultBufferSize = 256
	DefaultAttempts   = 3
	DefaultBackoff    = 100 * time.Millisecond
)

// ErrDispatcherClosed is returned by Publish after Close.
var ErrDispatcherClosed = errors.New("dispatcher closed")

// Dispatcher implements ports.EventPublisher. Publish enqueues; a single
// goroutine fans each event out to every sink, retrying failed deliveries.
type Dispatcher struct {
	sinks    []ports.EventSink
	queue    chan domain.Event
	attempts int
	backoff  time.Duration
	logger   *slog.Logger
	onResult func(sink string, err error)

	mu       sync.RWMutex
	closed   bool
	started  bool
	done     chan struct{}
	stopping chan struct{}
	stopOnce sync.Once
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithBufferSize sets the queue capacity.
func WithBufferSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queue = make(chan domain.Event, n)
		}
	}
}

// WithRetry sets how many times a sink is tried and the base delay between tries.
// The delay grows linearly with the attempt number.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(d *Dispatcher) {
		if attempts > 0 {
			d.attempts = attempts
		}
		d.backoff = backoff
	}
}

// WithLogger sets the dispatcher logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithDeliveryObserver registers a callback run after each sink delivery (err is nil on success).
func WithDeliveryObserver(fn func(sink string, err error)) Option {
	return func(d *Dispatcher) { d.onResult = fn }
}

// NewDispatcher creates a dispatcher over sinks. Call Start before publishing.
func NewDispatcher(sinks []ports.EventSink, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sinks:    sinks,
		queue:    make(chan domain.Event, DefaultBufferSize),
		attempts: DefaultAttempts,
		backoff:  DefaultBackoff,
		logger:   slog.New(slog.DiscardHandler),
		done:     make(chan struct{}),
		stopping: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start launches the delivery goroutine. Deliveries use ctx; cancelling it
// aborts retries but queued events are still attempted once.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true
	go d.loop(ctx)
}

// Publish enqueues event, blocking while the queue is full. A blocked
// Publish returns ErrDispatcherClosed once Close is called.
func (d *Dispatcher) Publish(ctx context.Context, event domain.Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}
	select {
	case d.queue <- event:
		return nil
	case <-d.stopping:
		return ErrDispatcherClosed
	case <-ctx.Done():
		return fmt.Errorf("publish %s: %w", event.Type, ctx.Err())
	}
}

// Close stops accepting events and waits until the queue is drained.
func (d *Dispatcher) Close() error {
	// Blocked publishers hold the read lock; release them first.
	d.stopOnce.Do(func() { close(d.stopping) })

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	started := d.started
	d.mu.Unlock()

	if started {
		<-d.done
	}
	return nil
}

func (d *Dispatcher) loop(ctx context.Context) {
	defer close(d.done)
	for event := range d.queue {
		for _, sink := range d.sinks {
			err := d.deliver(ctx, sink, event)
			if d.onResult != nil {
				d.onResult(sink.Name(), err)
			}
			if err != nil {
				d.logger.Error("event delivery failed",
					"sink", sink.Name(), "event_id", event.ID, "type", event.Type,
					"conversation_id", event.ConversationID, "err", err)
			}
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, sink ports.EventSink, event domain.Event) error {
	var err error
	for attempt := 1; attempt <= d.attempts; attempt++ {
		if err = sink.Deliver(ctx, event); err == nil {
			return nil
		}
		if attempt == d.attempts || ctx.Err() != nil {
			break
		}
		d.logger.Warn("event delivery retry", "sink", sink.Name(), "event_id", event.ID, "attempt", attempt, "err", err)
		select {
		case <-time.After(d.backoff * time.Duration(attempt)):
		case <-ctx.Done():
			return err
		}
	}
	return err
}
