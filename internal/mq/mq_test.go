package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/inkpost/blogapi/config"
	"github.com/inkpost/blogapi/types"
	amqp "github.com/rabbitmq/amqp091-go"
)

// loopback delivers published messages to the subscriber of the same channel.
type loopback struct {
	queue chan Message
}

func newLoopback() *loopback {
	return &loopback{queue: make(chan Message, 8)}
}

func (l *loopback) Publish(_ context.Context, _ string, data []byte, attrs map[string]string) (string, error) {
	l.queue <- Message{ID: "m", Data: data, Attributes: attrs}
	return "m", nil
}

func (l *loopback) Subscribe(ctx context.Context, _ string, handler Handler) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-l.queue:
			if err := handler(ctx, msg); err != nil {
				return err
			}
		}
	}
}

func (l *loopback) Close() error { return nil }

func TestFromConfigNone(t *testing.T) {
	m, err := FromConfig(context.Background(), config.MQConfig{Backend: config.BackendNone})
	if err != nil || m != nil {
		t.Fatalf("got %v, %v", m, err)
	}
}

func TestFromConfigUnsupported(t *testing.T) {
	if _, err := FromConfig(context.Background(), config.MQConfig{Backend: "kafka"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestFromConfigRabbitMQRequiresURL(t *testing.T) {
	if _, err := FromConfig(context.Background(), config.MQConfig{Backend: config.BackendRabbitMQ}); err == nil {
		t.Fatal("expected error")
	}
}

func TestPublishEventEncodesJSON(t *testing.T) {
	backend := newLoopback()
	events := NewEvents(New(backend), "blog.events")

	event := types.Event{Type: types.EventPostCreated, PostID: "p1", Slug: "hello-world", OccurredAt: time.Now().UTC()}
	if err := events.PublishEvent(context.Background(), event); err != nil {
		t.Fatalf("publish: %v", err)
	}

	msg := <-backend.queue
	if msg.Attributes["type"] != types.EventPostCreated {
		t.Fatalf("attributes = %v", msg.Attributes)
	}
	var decoded types.Event
	if err := json.Unmarshal(msg.Data, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Slug != "hello-world" || decoded.PostID != "p1" {
		t.Fatalf("decoded = %+v", decoded)
	}
}

func TestTailSkipsGarbage(t *testing.T) {
	backend := newLoopback()
	events := NewEvents(New(backend), "blog.events")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend.queue <- Message{Data: []byte("not json")}
	if err := events.PublishEvent(ctx, types.Event{Type: types.EventPostDeleted, PostID: "p2"}); err != nil {
		t.Fatal(err)
	}

	stop := errors.New("stop")
	var got []types.Event
	err := events.Tail(ctx, func(_ context.Context, e types.Event) error {
		got = append(got, e)
		return stop
	})
	if !errors.Is(err, stop) {
		t.Fatalf("tail: %v", err)
	}
	if len(got) != 1 || got[0].Type != types.EventPostDeleted {
		t.Fatalf("events = %+v", got)
	}
}

func TestTableToAttributes(t *testing.T) {
	got := tableToAttributes(amqp.Table{"type": "post.created", "raw": []byte("x"), "n": int32(3)})
	want := map[string]string{"type": "post.created", "raw": "x", "n": "3"}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %q, want %q", k, got[k], v)
		}
	}
	if tableToAttributes(nil) != nil {
		t.Error("empty table should map to nil")
	}
}

func TestClientsRequireConfig(t *testing.T) {
	if _, err := NewRabbitMQClient(config.RabbitMQConfig{}); err == nil {
		t.Error("expected rabbitmq url error")
	}
	if _, err := NewPubSubClient(context.Background(), config.PubSubConfig{}); err == nil {
		t.Error("expected pubsub project error")
	}
}
