package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	StatusUpdateKind string = "terramatch.workflow.events.status-update"
	defaultTopic     string = "terramatch.workflow.events"
	eventSource      string = "terramatch.workflow"

	defaultBufferSize = 1000
)

var ErrProducerClosed = errors.New("event producer closed")

// Writer is the interface to be implemented by the underlying writer.
type Writer interface {
	Write(ctx context.Context, topic string, e cloudevents.Event) error
	Close(ctx context.Context) error
}

type message struct {
	kind string
	data []byte
}

// EventProducer decouples callers from the writer: events are queued on a bounded channel
// and written by a background goroutine. A full buffer drops the event.
type EventProducer struct {
	messages   chan message
	doneCh     chan struct{}
	closeOnce  sync.Once
	closed     bool
	mu         sync.RWMutex
	writer     Writer
	topic      string
	bufferSize int
}

func NewEventProducer(w Writer, opts ...ProducerOptions) *EventProducer {
	ep := &EventProducer{
		doneCh:     make(chan struct{}),
		writer:     w,
		topic:      defaultTopic,
		bufferSize: defaultBufferSize,
	}

	for _, o := range opts {
		o(ep)
	}
	ep.messages = make(chan message, ep.bufferSize)

	go ep.run()
	return ep
}

// Write queues a JSON encoded event of the given kind.
func (ep *EventProducer) Write(_ context.Context, kind string, body any) error {
	d, err := json.Marshal(body)
	if err != nil {
		return err
	}

	ep.mu.RLock()
	defer ep.mu.RUnlock()
	if ep.closed {
		return ErrProducerClosed
	}

	select {
	case ep.messages <- message{kind: kind, data: d}:
	default:
		zap.S().Named("event_producer").Warnw("event buffer full, dropping event", "kind", kind)
	}
	return nil
}

// StatusUpdated emits the analytics signal for a status change.
func (ep *EventProducer) StatusUpdated(ctx context.Context, e StatusUpdateEvent) error {
	return ep.Write(ctx, StatusUpdateKind, e)
}

func (ep *EventProducer) Close() error {
	ep.closeOnce.Do(func() {
		ep.mu.Lock()
		ep.closed = true
		close(ep.messages)
		ep.mu.Unlock()
	})

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	g, ctx := errgroup.WithContext(closeCtx)
	g.Go(func() error {
		select {
		case <-ep.doneCh:
		case <-ctx.Done():
			return ctx.Err()
		}
		return ep.writer.Close(ctx)
	})
	if err := g.Wait(); err != nil {
		zap.S().Errorf("event producer closed with error: %s", err)
		return err
	}

	zap.S().Named("event_producer").Info("event producer closed")

	return nil
}

func (ep *EventProducer) run() {
	defer close(ep.doneCh)

	for msg := range ep.messages {
		e := cloudevents.NewEvent()
		e.SetID(uuid.NewString())
		e.SetSource(eventSource)
		e.SetType(msg.kind)
		_ = e.SetData(*cloudevents.StringOfApplicationJSON(), msg.data)

		if err := ep.writer.Write(context.TODO(), ep.topic, e); err != nil {
			zap.S().Named("event_producer").Errorw("failed to send message", "error", err, "event", e)
		}
	}
}
