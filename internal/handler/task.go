package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/aminjonov/taskhub/internal/middleware"
	"github.com/aminjonov/taskhub/internal/model"
	"github.com/aminjonov/taskhub/internal/queue"
	"github.com/aminjonov/taskhub/internal/repository"
)

// EventPublisher is the slice of the queue publisher the task handlers
// need. Publishing is best-effort: handlers ignore the returned error, the
// publisher has already logged it.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.TaskEvent) error
}

// TaskStore is the persistence capability the task handlers depend on,
// implemented by repository.TaskRepo. Absent and foreign tasks surface as
// repository.ErrTaskNotFound.
type TaskStore interface {
	Create(ctx context.Context, t *model.Task) error
	ListByUser(ctx context.Context, userID uint64) ([]model.Task, error)
	Filter(ctx context.Context, userID uint64, f repository.TaskFilter) ([]model.Task, error)
	Get(ctx context.Context, userID, taskID uint64) (model.Task, error)
	Update(ctx context.Context, userID, taskID uint64, p repository.TaskPatch) (model.Task, error)
	Delete(ctx context.Context, userID, taskID uint64) error
}

// TaskHandler bundles dependencies for the task endpoints. Every route is
// wrapped by the JWT middleware, so handlers read the owner id straight
// from the request context.
type TaskHandler struct {
	Tasks  TaskStore
	Events EventPublisher
}

func NewTaskHandler(tasks TaskStore, events EventPublisher) *TaskHandler {
	return &TaskHandler{Tasks: tasks, Events: events}
}

// ----- DTOs -----

type createTaskReq struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"due_date"` // "YYYY-MM-DD"
	IsImportant bool    `json:"is_important"`
}

// updateTaskReq carries a partial update; absent and null fields leave the
// task unchanged.
type updateTaskReq struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"due_date"`
	IsImportant *bool   `json:"is_important"`
	IsCompleted *bool   `json:"is_completed"`
}

// Create persists a new task for the caller and publishes a created event.
func (h *TaskHandler) Create(c echo.Context) error {
	var req createTaskReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title must not be empty"})
	}
	if req.DueDate != nil {
		if _, err := time.Parse(model.DateLayout, *req.DueDate); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "due_date must be YYYY-MM-DD"})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t := model.Task{
		UserID:      middleware.UserID(c),
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		IsImportant: req.IsImportant,
	}
	if err := h.Tasks.Create(ctx, &t); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create task failed"})
	}

	h.publish(c, t, queue.StatusCreated)
	return c.JSON(http.StatusOK, t)
}

// List returns all of the caller's tasks, important ones first, then by
// ascending due date.
func (h *TaskHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tasks, err := h.Tasks.ListByUser(ctx, middleware.UserID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, tasks)
}

// Filter returns the caller's tasks matching at most one filter branch,
// picked by precedence: overdue, no_deadline, start+end range, exact start
// date, otherwise everything.
func (h *TaskHandler) Filter(c echo.Context) error {
	f := repository.TaskFilter{
		Overdue:    queryBool(c, "overdue"),
		NoDeadline: queryBool(c, "no_deadline"),
		Today:      time.Now().UTC().Format(model.DateLayout),
	}
	for _, p := range []struct {
		name string
		dst  **string
	}{{"start_date", &f.Start}, {"end_date", &f.End}} {
		v := c.QueryParam(p.name)
		if v == "" {
			continue
		}
		if _, err := time.Parse(model.DateLayout, v); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": p.name + " must be YYYY-MM-DD"})
		}
		val := v
		*p.dst = &val
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tasks, err := h.Tasks.Filter(ctx, middleware.UserID(c), f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, tasks)
}

// Update applies a partial update to one of the caller's tasks and
// publishes an updated event. Foreign and missing tasks both yield 404.
func (h *TaskHandler) Update(c echo.Context) error {
	taskID, err := parseTaskID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task id"})
	}
	var req updateTaskReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		if trimmed == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "title must not be empty"})
		}
		req.Title = &trimmed
	}
	if req.DueDate != nil {
		if _, err := time.Parse(model.DateLayout, *req.DueDate); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "due_date must be YYYY-MM-DD"})
		}
	}

	patch := repository.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		IsImportant: req.IsImportant,
		IsCompleted: req.IsCompleted,
	}
	return h.applyPatch(c, taskID, patch)
}

// Complete marks a task as done. It is a plain partial update under the
// hood and therefore publishes an updated event, not a distinct completed
// one. Completing an already-completed task succeeds and changes nothing.
func (h *TaskHandler) Complete(c echo.Context) error {
	taskID, err := parseTaskID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task id"})
	}
	done := true
	return h.applyPatch(c, taskID, repository.TaskPatch{IsCompleted: &done})
}

// Delete removes one of the caller's tasks and publishes a deleted event
// carrying the title captured before removal.
func (h *TaskHandler) Delete(c echo.Context) error {
	taskID, err := parseTaskID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID := middleware.UserID(c)
	t, err := h.Tasks.Get(ctx, userID, taskID)
	if err == nil {
		err = h.Tasks.Delete(ctx, userID, taskID)
	}
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete task failed"})
	}

	h.publish(c, t, queue.StatusDeleted)
	return c.JSON(http.StatusOK, echo.Map{"message": "task deleted"})
}

func (h *TaskHandler) applyPatch(c echo.Context, taskID uint64, patch repository.TaskPatch) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Tasks.Update(ctx, middleware.UserID(c), taskID, patch)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update task failed"})
	}

	h.publish(c, t, queue.StatusUpdated)
	return c.JSON(http.StatusOK, t)
}

// publish emits a task event after a committed mutation. The mutation's
// success never depends on the broker; failures are logged inside the
// publisher and dropped here.
func (h *TaskHandler) publish(c echo.Context, t model.Task, status string) {
	if h.Events == nil {
		return
	}
	_ = h.Events.Publish(c.Request().Context(), queue.TaskEvent{
		TaskID: t.ID,
		UserID: t.UserID,
		Title:  t.Title,
		Status: status,
	})
}

func parseTaskID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

func queryBool(c echo.Context, name string) bool {
	switch strings.ToLower(c.QueryParam(name)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
