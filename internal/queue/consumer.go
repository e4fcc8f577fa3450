package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// reconnectDelay is the fixed pause between broker connection attempts.
// The worker's availability is decoupled from the broker's: it waits and
// retries forever instead of terminating.
const reconnectDelay = 5 * time.Second

// StartNotificationConsumer runs the notification worker's consumption
// loop. It connects to the broker at url, consumes task events from the
// task_notifications queue and writes one log line per event. The function
// never returns; on any transport failure it sleeps reconnectDelay and
// dials again.
func StartNotificationConsumer(url string, log *logrus.Logger) {
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.WithError(err).Warnf("broker unavailable, retrying in %s", reconnectDelay)
			time.Sleep(reconnectDelay)
			continue
		}
		if err := consumeLoop(conn, log); err != nil {
			log.WithError(err).Warnf("consume loop ended, reconnecting in %s", reconnectDelay)
		}
		_ = conn.Close()
		time.Sleep(reconnectDelay)
	}
}

func consumeLoop(conn *amqp.Connection, log *logrus.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(TaskQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(TaskQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	log.Info("notification worker started, waiting for task events")
	for d := range msgs {
		handleDelivery(log, d.Body)
		// Always ack, including malformed payloads: requeueing a message
		// that can never parse would loop it forever.
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// handleDelivery turns one message body into a log line. Malformed
// payloads are logged as processing errors and dropped.
func handleDelivery(log *logrus.Logger, body []byte) {
	var ev TaskEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		log.WithError(err).Error("discarding malformed event payload")
		return
	}
	log.WithFields(logrus.Fields{
		"task_id": ev.TaskID,
		"user_id": ev.UserID,
		"status":  ev.Status,
	}).Info(formatNotification(ev))
}

// formatNotification maps a status tag to its human-readable template.
// Unknown tags still produce a generic line instead of failing.
func formatNotification(ev TaskEvent) string {
	switch ev.Status {
	case StatusCreated:
		return fmt.Sprintf("Task %q (ID: %d) was created by user %d", ev.Title, ev.TaskID, ev.UserID)
	case StatusUpdated:
		return fmt.Sprintf("Task %q (ID: %d) of user %d was updated", ev.Title, ev.TaskID, ev.UserID)
	case StatusCompleted:
		return fmt.Sprintf("Task %q (ID: %d) of user %d was marked as COMPLETED", ev.Title, ev.TaskID, ev.UserID)
	case StatusDeleted:
		return fmt.Sprintf("Task %q (ID: %d) of user %d was deleted", ev.Title, ev.TaskID, ev.UserID)
	default:
		return fmt.Sprintf("Task %q (ID: %d) of user %d changed (status %q)", ev.Title, ev.TaskID, ev.UserID, ev.Status)
	}
}
