// Package queue defines the task lifecycle events exchanged over the
// message broker, the publisher used by the task service and the consumer
// run by the notification worker.
package queue

// TaskQueueName is the queue all task lifecycle events travel on. There is
// no schema versioning; producers and consumers agree on TaskEvent as-is.
const TaskQueueName = "task_notifications"

// Status tags carried by TaskEvent. The task service currently folds
// completion into StatusUpdated; StatusCompleted exists so the worker can
// render it if a producer ever starts emitting it.
const (
	StatusCreated   = "created"
	StatusUpdated   = "updated"
	StatusCompleted = "completed"
	StatusDeleted   = "deleted"
)

// TaskEvent describes a task lifecycle transition. Title is a snapshot
// taken at publish time, not a live reference; for deletions it is the
// title captured before the row was removed.
type TaskEvent struct {
	TaskID uint64 `json:"task_id"`
	UserID uint64 `json:"user_id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}
