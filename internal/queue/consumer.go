package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const (
	activityLogName     = "activity.log"
	maxBackoff          = 30 * time.Second
	consumerDialTimeout = 10 * time.Second
)

// ActivityLog appends rendered events to <dir>/activity.log.
type ActivityLog struct {
	dir string
	mu  sync.Mutex
}

func NewActivityLog(dir string) *ActivityLog {
	if dir == "" {
		dir = "logs"
	}
	return &ActivityLog{dir: dir}
}

// Path returns the file events are appended to.
func (l *ActivityLog) Path() string { return filepath.Join(l.dir, activityLogName) }

// Handle decodes one message body and appends it to the log.
func (l *ActivityLog) Handle(body []byte) error {
	var ev ActivityEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Kind == "" {
		return errors.New("event has no kind")
	}
	return l.Append(ev)
}

func (l *ActivityLog) Append(ev ActivityEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", l.dir, err)
	}
	f, err := os.OpenFile(l.Path(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(ev.Line()); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// StartActivityConsumer consumes ActivityQueueName and appends each event
// to <dir>/activity.log. It reconnects with exponential backoff and
// returns only when ctx is done. Malformed messages are rejected without
// requeue.
func StartActivityConsumer(ctx context.Context, url, dir string, logger *logrus.Logger) error {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	sink := NewActivityLog(dir)
	log := logger.WithField("component", "activity-consumer")

	backoff := time.Second
	for {
		conn, err := dialContext(ctx, url, consumerDialTimeout)
		if err != nil {
			log.WithError(err).WithField("retry_in", backoff.String()).Warn("failed to dial broker")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < maxBackoff {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, sink, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithError(err).Warn("consume loop ended, reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, sink *ActivityLog, log *logrus.Entry) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.WithError(err).Warn("set QoS failed")
	}
	if err := declareActivityQueue(ch); err != nil {
		return err
	}

	msgs, err := ch.Consume(ActivityQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := sink.Handle(d.Body); err != nil {
				log.WithError(err).Error("handle message failed")
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
