package queue

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher publishes task events over a single managed connection that is
// opened lazily and reused across requests. Publish failures are logged
// and returned so callers can ignore them: a failed publish must never
// fail the task mutation it follows.
type Publisher struct {
	url string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher creates a publisher for the broker at url. No connection is
// made until the first Publish, so the task service starts even when the
// broker is down.
func NewPublisher(url string) *Publisher {
	return &Publisher{url: url}
}

// Publish sends a task event to the task_notifications queue. Messages are
// marked persistent. On a send failure the cached connection is discarded
// and one redial is attempted before giving up; any error is logged here
// and returned for callers that care.
func (p *Publisher) Publish(ctx context.Context, ev TaskEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		log.Printf("queue: marshal event failed: %v", err)
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.send(ctx, pub)
	if err != nil {
		// The cached channel may be stale after a broker restart; redial
		// once before reporting failure.
		p.reset()
		err = p.send(ctx, pub)
	}
	if err != nil {
		log.Printf("queue: publish %s event for task %d failed: %v", ev.Status, ev.TaskID, err)
		p.reset()
	}
	return err
}

// Close releases the broker connection. Safe to call when nothing was ever
// connected.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
}

// send publishes on the cached channel, dialing first if needed. The
// caller must hold mu.
func (p *Publisher) send(ctx context.Context, pub amqp.Publishing) error {
	if p.ch == nil {
		conn, err := amqp.Dial(p.url)
		if err != nil {
			return err
		}
		ch, err := conn.Channel()
		if err != nil {
			_ = conn.Close()
			return err
		}
		// Durable queue so events survive broker restarts. Declaration is
		// idempotent and shared with the consumer.
		if _, err := ch.QueueDeclare(TaskQueueName, true, false, false, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return err
		}
		p.conn, p.ch = conn, ch
	}
	return p.ch.PublishWithContext(ctx, "", TaskQueueName, false, false, pub)
}

// reset drops the cached connection and channel. The caller must hold mu.
func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}
