package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotRunning = errors.New("event dispatcher is not running")
	ErrQueueFull  = errors.New("event queue is full")
)

// Event is a fact a use case announces after its own writes succeeded.
type Event interface {
	EventID() string
	EventName() string
	AggregateKey() string
	OccurredAt() time.Time
}

// Header carries the fields every event shares. Embed it by value.
type Header struct {
	ID        string    `json:"event_id"`
	Name      string    `json:"event_name"`
	Aggregate string    `json:"aggregate"`
	At        time.Time `json:"occurred_at"`
}

func NewHeader(name, aggregate string) Header {
	return Header{
		ID:        uuid.NewString(),
		Name:      name,
		Aggregate: aggregate,
		At:        time.Now().UTC(),
	}
}

func (h Header) EventID() string       { return h.ID }
func (h Header) EventName() string     { return h.Name }
func (h Header) AggregateKey() string  { return h.Aggregate }
func (h Header) OccurredAt() time.Time { return h.At }

type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc lets a plain function subscribe.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error { return f(ctx, event) }

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Dispatcher routes published events to the handlers subscribed by name.
type Dispatcher interface {
	Publisher
	Subscribe(name string, handler Handler) error
	Start() error
	Stop(ctx context.Context) error
}
