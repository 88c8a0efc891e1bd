package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher delivers activity events. Callers treat failures as
// non-fatal.
type Publisher interface {
	Publish(ctx context.Context, ev ActivityEvent) error
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ActivityEvent) error { return nil }

// DefaultDialTimeout bounds connecting to the broker and the AMQP
// handshake for one publish.
const DefaultDialTimeout = 2 * time.Second

// AMQPPublisher publishes events as persistent JSON messages on the
// default exchange, routed to ActivityQueueName. Each call opens its own
// connection so a broker restart never leaves a stale channel behind.
type AMQPPublisher struct {
	url         string
	dialTimeout time.Duration
	dial        func(ctx context.Context, url string, timeout time.Duration) (*amqp.Connection, error)
}

func NewAMQPPublisher(url string) *AMQPPublisher {
	return &AMQPPublisher{url: url, dialTimeout: DefaultDialTimeout, dial: dialContext}
}

// dialContext connects like amqp.Dial but gives up after timeout or when
// ctx ends, whichever comes first. The deadline also covers the handshake;
// the client library clears it once the connection is open.
func dialContext(ctx context.Context, url string, timeout time.Duration) (*amqp.Connection, error) {
	return amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial: func(network, addr string) (net.Conn, error) {
			deadline := time.Now().Add(timeout)
			if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
				deadline = d
			}
			dialer := net.Dialer{Deadline: deadline}
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			if err := conn.SetDeadline(deadline); err != nil {
				_ = conn.Close()
				return nil, err
			}
			return conn, nil
		},
	})
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev ActivityEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	conn, err := p.dial(ctx, p.url, p.dialTimeout)
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := declareActivityQueue(ch); err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         string(ev.Kind),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", ActivityQueueName, false, false, pub); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func declareActivityQueue(ch *amqp.Channel) error {
	if _, err := ch.QueueDeclare(
		ActivityQueueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	return nil
}
