package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/inkpost/blogapi/config"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQClient maps each channel onto a fanout exchange of the same name,
// so every subscriber gets its own copy of each event.
//
// Subscribers bind a queue named "<channel>.<suffix>" when QueueDurable is
// set, which lets a restarted tail pick up where it left off; otherwise they
// get a server-named exclusive queue that disappears with the connection.
type RabbitMQClient struct {
	conn *amqp.Connection

	mu       sync.Mutex
	pub      *amqp.Channel
	declared map[string]bool

	prefetch   int
	durable    bool
	autoDelete bool
}

func NewRabbitMQClient(cfg config.RabbitMQConfig) (*RabbitMQClient, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("rabbitmq url is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}
	pub, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &RabbitMQClient{
		conn:       conn,
		pub:        pub,
		declared:   make(map[string]bool),
		prefetch:   cfg.PrefetchCount,
		durable:    cfg.QueueDurable,
		autoDelete: cfg.QueueAutoDelete,
	}, nil
}

func (r *RabbitMQClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("rabbitmq channel is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.declareExchange(r.pub, channel); err != nil {
		return "", err
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Transient,
		MessageId:    uuid.NewString(),
		Headers:      make(amqp.Table, len(attrs)),
		Body:         data,
	}
	if r.durable {
		msg.DeliveryMode = amqp.Persistent
	}
	for k, v := range attrs {
		msg.Headers[k] = v
	}

	if err := r.pub.PublishWithContext(ctx, channel, "", false, false, msg); err != nil {
		return "", fmt.Errorf("publish to %s: %w", channel, err)
	}
	return msg.MessageId, nil
}

// Subscribe consumes on a dedicated AMQP channel until ctx is done. A
// handler error requeues the delivery.
func (r *RabbitMQClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("rabbitmq channel is required")
	}

	ch, err := r.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if r.prefetch > 0 {
		if err := ch.Qos(r.prefetch, 0, false); err != nil {
			return err
		}
	}
	if err := r.declareExchange(ch, channel); err != nil {
		return err
	}

	queueName, exclusive := "", true
	if r.durable {
		queueName, exclusive = channel+".tail", false
	}
	queue, err := ch.QueueDeclare(queueName, r.durable, r.autoDelete, exclusive, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(queue.Name, "", channel, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	deliveries, err := ch.ConsumeWithContext(ctx, queue.Name, "", false, exclusive, false, false, nil)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("rabbitmq delivery channel closed")
			}
			msg := Message{ID: d.MessageId, Data: d.Body, Attributes: tableToAttributes(d.Headers)}
			if err := handler(ctx, msg); err != nil {
				_ = d.Nack(false, true)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (r *RabbitMQClient) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pub != nil {
		_ = r.pub.Close()
	}
	return r.conn.Close()
}

func (r *RabbitMQClient) declareExchange(ch *amqp.Channel, name string) error {
	if ch == r.pub && r.declared[name] {
		return nil
	}
	if err := ch.ExchangeDeclare(name, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", name, err)
	}
	if ch == r.pub {
		r.declared[name] = true
	}
	return nil
}

func tableToAttributes(table amqp.Table) map[string]string {
	if len(table) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(table))
	for k, v := range table {
		switch s := v.(type) {
		case string:
			attrs[k] = s
		case []byte:
			attrs[k] = string(s)
		default:
			attrs[k] = fmt.Sprint(v)
		}
	}
	return attrs
}
