package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/orris-inc/lineconnect/internal/shared/logger"
)

const (
	defaultQueueSize      = 100
	defaultWorkers        = 2
	defaultHandlerTimeout = 30 * time.Second
)

type dispatcherState int

const (
	stateIdle dispatcherState = iota
	stateRunning
	stateStopped
)

// Options tunes an AsyncDispatcher. Zero values pick the defaults.
type Options struct {
	QueueSize      int
	Workers        int
	HandlerTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = defaultQueueSize
	}
	if o.Workers <= 0 {
		o.Workers = defaultWorkers
	}
	if o.HandlerTimeout <= 0 {
		o.HandlerTimeout = defaultHandlerTimeout
	}
	return o
}

// AsyncDispatcher queues events in memory and runs their handlers on a fixed
// worker pool. Publish never blocks the request path, and handler failures
// are logged rather than returned.
type AsyncDispatcher struct {
	opts   Options
	logger logger.Interface

	mu       sync.RWMutex
	state    dispatcherState
	handlers map[string][]Handler
	queue    chan Event

	ctx     context.Context
	cancel  context.CancelFunc
	workers sync.WaitGroup
}

func NewAsyncDispatcher(opts Options, log logger.Interface) *AsyncDispatcher {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &AsyncDispatcher{
		opts:     opts,
		logger:   log,
		handlers: make(map[string][]Handler),
		queue:    make(chan Event, opts.QueueSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Publish enqueues event. The caller's ctx only bounds the enqueue; handlers
// run under the dispatcher's own deadline.
func (d *AsyncDispatcher) Publish(_ context.Context, event Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.state != stateRunning {
		return ErrNotRunning
	}

	select {
	case d.queue <- event:
		return nil
	default:
		return fmt.Errorf("%w: dropping %s %s", ErrQueueFull, event.EventName(), event.EventID())
	}
}

func (d *AsyncDispatcher) Subscribe(name string, handler Handler) error {
	if name == "" {
		return fmt.Errorf("event name cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = append(d.handlers[name], handler)
	return nil
}

func (d *AsyncDispatcher) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != stateIdle {
		return fmt.Errorf("event dispatcher cannot be restarted")
	}

	d.state = stateRunning
	for i := 0; i < d.opts.Workers; i++ {
		d.workers.Add(1)
		go d.work()
	}
	return nil
}

// Stop refuses new events, lets the workers drain the queue, and waits until
// ctx expires. On expiry the in-flight handlers see their context cancelled.
func (d *AsyncDispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.state != stateRunning {
		d.mu.Unlock()
		return ErrNotRunning
	}
	d.state = stateStopped
	close(d.queue)
	d.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		d.workers.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		return fmt.Errorf("event dispatcher did not drain: %w", ctx.Err())
	}
}

func (d *AsyncDispatcher) work() {
	defer d.workers.Done()
	for event := range d.queue {
		d.mu.RLock()
		handlers := d.handlers[event.EventName()]
		d.mu.RUnlock()

		for _, h := range handlers {
			d.invoke(h, event)
		}
	}
}

func (d *AsyncDispatcher) invoke(h Handler, event Event) {
	ctx, cancel := context.WithTimeout(d.ctx, d.opts.HandlerTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Errorw("event handler panicked",
				"event", event.EventName(),
				"event_id", event.EventID(),
				"handler", fmt.Sprintf("%T", h),
				"panic", r,
			)
		}
	}()

	if err := h.Handle(ctx, event); err != nil {
		d.logger.Errorw("event handler failed",
			"event", event.EventName(),
			"event_id", event.EventID(),
			"aggregate", event.AggregateKey(),
			"handler", fmt.Sprintf("%T", h),
			"error", err,
		)
	}
}
