package events

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("producer", Ordered, func() {
	Context("write", func() {
		It("writes successfully", func() {
			w := newTestWriter()
			kp := NewEventProducer(w, WithOutputTopic("topic1"))

			err := kp.Write(context.TODO(), AssignmentMessageKind, bytes.NewReader([]byte(`{"a":1}`)))
			Expect(err).To(BeNil())
			err = kp.Write(context.TODO(), BookingMessageKind, bytes.NewReader([]byte(`{"b":2}`)))
			Expect(err).To(BeNil())

			Eventually(w.Len).Should(Equal(2))
			messages := w.Events()
			Expect(messages[0].Type()).To(Equal(AssignmentMessageKind))
			Expect(messages[1].Type()).To(Equal(BookingMessageKind))
			Expect(messages[0].Source()).To(Equal(defaultSource))
			Expect(w.Topics()).To(HaveEach("topic1"))

			Expect(kp.Close()).To(Succeed())
			Expect(w.Closed()).To(BeTrue())
		})

		It("publishes json payloads", func() {
			w := newTestWriter()
			kp := NewEventProducer(w, WithSource("tests"))

			event := AssignmentEvent{TaskID: uuid.New(), Kind: "public_speaking", Outcome: "pooled"}
			Expect(kp.Publish(context.TODO(), AssignmentMessageKind, event)).To(Succeed())

			Eventually(w.Len).Should(Equal(1))
			e := w.Events()[0]
			Expect(e.Source()).To(Equal("tests"))
			Expect(e.DataContentType()).To(Equal(cloudevents.ApplicationJSON))

			var got AssignmentEvent
			Expect(json.Unmarshal(e.Data(), &got)).To(Succeed())
			Expect(got).To(Equal(event))

			Expect(kp.Close()).To(Succeed())
		})

		It("flushes pending messages on close", func() {
			w := newTestWriter()
			kp := NewEventProducer(w)

			for i := 0; i < 20; i++ {
				Expect(kp.Publish(context.TODO(), ReviewMessageKind, map[string]int{"i": i})).To(Succeed())
			}
			Expect(kp.Close()).To(Succeed())
			Expect(w.Len()).To(Equal(20))
		})

		It("rejects writes after close and closes once", func() {
			w := newTestWriter()
			kp := NewEventProducer(w)

			Expect(kp.Publish(context.TODO(), BookingMessageKind, map[string]string{"status": "scheduled"})).To(Succeed())
			Expect(kp.Close()).To(Succeed())
			Expect(kp.Close()).To(Succeed())

			err := kp.Publish(context.TODO(), BookingMessageKind, map[string]string{"status": "deleted"})
			Expect(err).To(MatchError(ErrProducerClosed))
			Expect(w.Len()).To(Equal(1))
		})
	})
})

type testwriter struct {
	lock     sync.Mutex
	messages []cloudevents.Event
	topics   []string
	closed   bool
}

func newTestWriter() *testwriter {
	return &testwriter{}
}

func (t *testwriter) Write(ctx context.Context, topic string, e cloudevents.Event) error {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.messages = append(t.messages, e)
	t.topics = append(t.topics, topic)
	return nil
}

func (t *testwriter) Close(_ context.Context) error {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.closed = true
	return nil
}

func (t *testwriter) Len() int {
	t.lock.Lock()
	defer t.lock.Unlock()
	return len(t.messages)
}

func (t *testwriter) Events() []cloudevents.Event {
	t.lock.Lock()
	defer t.lock.Unlock()
	return append([]cloudevents.Event(nil), t.messages...)
}

func (t *testwriter) Topics() []string {
	t.lock.Lock()
	defer t.lock.Unlock()
	return append([]string(nil), t.topics...)
}

func (t *testwriter) Closed() bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.closed
}
