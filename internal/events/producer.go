package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrProducerClosed = errors.New("event producer is closed")

const (
	defaultTopic  string = "portal.events"
	defaultSource string = "assessment.portal"
)

// Writer is the interface to be implemented by the underlying writer.
type Writer interface {
	Write(ctx context.Context, topic string, e cloudevents.Event) error
	Close(ctx context.Context) error
}

// EventProducer is a wrapper around a Writer with the buffer.
// Write only queues the message so callers never wait on the writer.
type EventProducer struct {
	buffer  *buffer
	wakeCh  chan struct{}
	doneCh  chan struct{}
	stopped chan struct{}
	writer  Writer
	topic   string
	source  string

	lock      sync.RWMutex
	closed    bool
	closeOnce sync.Once
	closeErr  error
}

func NewEventProducer(w Writer, opts ...ProducerOptions) *EventProducer {
	ep := &EventProducer{
		buffer:  newBuffer(),
		wakeCh:  make(chan struct{}, 1),
		doneCh:  make(chan struct{}),
		stopped: make(chan struct{}),
		writer:  w,
		topic:   defaultTopic,
		source:  defaultSource,
	}

	for _, o := range opts {
		o(ep)
	}

	go ep.run()
	return ep
}

func (ep *EventProducer) Write(ctx context.Context, kind string, body io.Reader) error {
	d, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	ep.lock.RLock()
	defer ep.lock.RUnlock()
	if ep.closed {
		return ErrProducerClosed
	}

	ep.buffer.PushBack(&message{
		Kind: kind,
		Data: d,
	})

	select {
	case ep.wakeCh <- struct{}{}:
	default:
	}

	return nil
}

// Publish marshals v and queues it under kind.
func (ep *EventProducer) Publish(ctx context.Context, kind string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ep.Write(ctx, kind, bytes.NewReader(data))
}

// Close drains the pending messages and closes the writer. Later calls return the result of
// the first one.
func (ep *EventProducer) Close() error {
	ep.closeOnce.Do(func() {
		ep.lock.Lock()
		ep.closed = true
		ep.lock.Unlock()

		ep.closeErr = ep.shutdown()
	})
	return ep.closeErr
}

func (ep *EventProducer) shutdown() error {
	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	g, ctx := errgroup.WithContext(closeCtx)
	g.Go(func() error {
		close(ep.doneCh)
		select {
		case <-ep.stopped:
		case <-ctx.Done():
			return ctx.Err()
		}
		return ep.writer.Close(ctx)
	})
	if err := g.Wait(); err != nil {
		zap.S().Named("event_producer").Errorf("event producer closed with error: %s", err)
		return err
	}

	zap.S().Named("event_producer").Info("event producer closed")

	return nil
}

func (ep *EventProducer) run() {
	defer close(ep.stopped)

	for {
		for msg := ep.buffer.Pop(); msg != nil; msg = ep.buffer.Pop() {
			ep.send(msg)
		}

		select {
		case <-ep.wakeCh:
		case <-ep.doneCh:
			for msg := ep.buffer.Pop(); msg != nil; msg = ep.buffer.Pop() {
				ep.send(msg)
			}
			return
		}
	}
}

func (ep *EventProducer) send(msg *message) {
	e := cloudevents.NewEvent()
	e.SetID(uuid.NewString())
	e.SetSource(ep.source)
	e.SetType(msg.Kind)
	e.SetTime(time.Now())
	_ = e.SetData(cloudevents.ApplicationJSON, msg.Data)

	if err := ep.writer.Write(context.TODO(), ep.topic, e); err != nil {
		zap.S().Named("event_producer").Errorw("failed to send message", "error", err, "event", e)
	}
}
