package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/aminjonov/taskhub/internal/model"
	"github.com/aminjonov/taskhub/internal/queue"
	"github.com/aminjonov/taskhub/internal/repository"
)

// memTaskStore implements TaskStore in memory with the repository's
// contract: a task that is absent or owned by someone else is
// ErrTaskNotFound, never a hint that it exists.
type memTaskStore struct {
	nextID uint64
	tasks  map[uint64]model.Task
}

func newMemTaskStore() *memTaskStore {
	return &memTaskStore{tasks: map[uint64]model.Task{}}
}

func (s *memTaskStore) Create(_ context.Context, t *model.Task) error {
	s.nextID++
	t.ID = s.nextID
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	s.tasks[t.ID] = *t
	return nil
}

func (s *memTaskStore) ListByUser(_ context.Context, userID uint64) ([]model.Task, error) {
	out := make([]model.Task, 0)
	for _, t := range s.tasks {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *memTaskStore) Filter(ctx context.Context, userID uint64, _ repository.TaskFilter) ([]model.Task, error) {
	return s.ListByUser(ctx, userID)
}

func (s *memTaskStore) Get(_ context.Context, userID, taskID uint64) (model.Task, error) {
	t, ok := s.tasks[taskID]
	if !ok || t.UserID != userID {
		return model.Task{}, repository.ErrTaskNotFound
	}
	return t, nil
}

func (s *memTaskStore) Update(ctx context.Context, userID, taskID uint64, p repository.TaskPatch) (model.Task, error) {
	t, err := s.Get(ctx, userID, taskID)
	if err != nil {
		return model.Task{}, err
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = p.Description
	}
	if p.DueDate != nil {
		t.DueDate = p.DueDate
	}
	if p.IsImportant != nil {
		t.IsImportant = *p.IsImportant
	}
	if p.IsCompleted != nil {
		t.IsCompleted = *p.IsCompleted
	}
	t.UpdatedAt = time.Now().UTC()
	s.tasks[taskID] = t
	return t, nil
}

func (s *memTaskStore) Delete(ctx context.Context, userID, taskID uint64) error {
	if _, err := s.Get(ctx, userID, taskID); err != nil {
		return err
	}
	delete(s.tasks, taskID)
	return nil
}

// recordPublisher implements EventPublisher and records every event. A
// non-nil err simulates a broker outage.
type recordPublisher struct {
	events []queue.TaskEvent
	err    error
}

func (p *recordPublisher) Publish(_ context.Context, ev queue.TaskEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

func taskCtxAs(userID uint64, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	c, rec := newTaskCtx(method, target, body)
	c.Set("user_id", userID)
	return c, rec
}

func seedTask(t *testing.T, h *TaskHandler, userID uint64, title string) model.Task {
	t.Helper()
	c, rec := taskCtxAs(userID, http.MethodPost, "/tasks/", `{"title":"`+title+`"}`)
	if err := h.Create(c); err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("create: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var created model.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created task: %v", err)
	}
	return created
}

func TestTaskOwnership_ForeignTaskIs404(t *testing.T) {
	h := NewTaskHandler(newMemTaskStore(), &recordPublisher{})
	owned := seedTask(t, h, 1, "secret errand")
	id := strconv.FormatUint(owned.ID, 10)

	calls := []struct {
		name    string
		method  string
		target  string
		body    string
		handler func(echo.Context) error
	}{
		{"update", http.MethodPatch, "/tasks/" + id, `{"title":"hijacked"}`, h.Update},
		{"complete", http.MethodPatch, "/tasks/" + id + "/complete", "", h.Complete},
		{"delete", http.MethodDelete, "/tasks/" + id, "", h.Delete},
	}
	for _, call := range calls {
		c, rec := taskCtxAs(2, call.method, call.target, call.body)
		c.SetParamNames("id")
		c.SetParamValues(id)
		if err := call.handler(c); err != nil {
			t.Fatalf("%s: handler error: %v", call.name, err)
		}
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s as another user: expected 404, got %d", call.name, rec.Code)
		}
		if strings.Contains(rec.Body.String(), "secret errand") {
			t.Fatalf("%s as another user leaked task data: %s", call.name, rec.Body.String())
		}
	}

	// The owner still sees the task untouched.
	c, rec := taskCtxAs(1, http.MethodGet, "/tasks/", "")
	if err := h.List(c); err != nil {
		t.Fatalf("list: %v", err)
	}
	var tasks []model.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &tasks); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "secret errand" || tasks[0].IsCompleted {
		t.Fatalf("owner's task changed by foreign requests: %+v", tasks)
	}
}

func TestComplete_Idempotent(t *testing.T) {
	h := NewTaskHandler(newMemTaskStore(), &recordPublisher{})
	owned := seedTask(t, h, 1, "buy milk")
	id := strconv.FormatUint(owned.ID, 10)

	for i := 0; i < 2; i++ {
		c, rec := taskCtxAs(1, http.MethodPatch, "/tasks/"+id+"/complete", "")
		c.SetParamNames("id")
		c.SetParamValues(id)
		if err := h.Complete(c); err != nil {
			t.Fatalf("complete #%d: %v", i+1, err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("complete #%d: expected 200, got %d", i+1, rec.Code)
		}
		var got model.Task
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("complete #%d: decode: %v", i+1, err)
		}
		if !got.IsCompleted {
			t.Fatalf("complete #%d: expected is_completed=true, got %+v", i+1, got)
		}
	}
}

func TestMutations_PublishEvents(t *testing.T) {
	pub := &recordPublisher{}
	h := NewTaskHandler(newMemTaskStore(), pub)

	owned := seedTask(t, h, 1, "buy milk")
	id := strconv.FormatUint(owned.ID, 10)

	c, _ := taskCtxAs(1, http.MethodPatch, "/tasks/"+id, `{"title":"buy oat milk"}`)
	c.SetParamNames("id")
	c.SetParamValues(id)
	if err := h.Update(c); err != nil {
		t.Fatalf("update: %v", err)
	}

	c, _ = taskCtxAs(1, http.MethodPatch, "/tasks/"+id+"/complete", "")
	c.SetParamNames("id")
	c.SetParamValues(id)
	if err := h.Complete(c); err != nil {
		t.Fatalf("complete: %v", err)
	}

	c, _ = taskCtxAs(1, http.MethodDelete, "/tasks/"+id, "")
	c.SetParamNames("id")
	c.SetParamValues(id)
	if err := h.Delete(c); err != nil {
		t.Fatalf("delete: %v", err)
	}

	want := []string{
		queue.StatusCreated,
		queue.StatusUpdated,
		queue.StatusUpdated, // complete folds into the generic updated tag
		queue.StatusDeleted,
	}
	if len(pub.events) != len(want) {
		t.Fatalf("expected %d events, got %d: %+v", len(want), len(pub.events), pub.events)
	}
	for i, status := range want {
		if pub.events[i].Status != status {
			t.Fatalf("event %d: expected status %q, got %q", i, status, pub.events[i].Status)
		}
		if pub.events[i].TaskID != owned.ID || pub.events[i].UserID != 1 {
			t.Fatalf("event %d carries wrong identifiers: %+v", i, pub.events[i])
		}
	}
	// The delete event snapshots the title as it was before removal.
	if got := pub.events[len(pub.events)-1].Title; got != "buy oat milk" {
		t.Fatalf("delete event title = %q, want %q", got, "buy oat milk")
	}
}

func TestMutation_SucceedsWhenPublishFails(t *testing.T) {
	pub := &recordPublisher{err: context.DeadlineExceeded}
	h := NewTaskHandler(newMemTaskStore(), pub)

	owned := seedTask(t, h, 1, "buy milk") // seedTask asserts the 200
	id := strconv.FormatUint(owned.ID, 10)

	c, rec := taskCtxAs(1, http.MethodPatch, "/tasks/"+id+"/complete", "")
	c.SetParamNames("id")
	c.SetParamValues(id)
	if err := h.Complete(c); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("broker failure must not fail the mutation, got %d", rec.Code)
	}
	if len(pub.events) != 2 {
		t.Fatalf("expected publish attempts despite failures, got %d", len(pub.events))
	}
}

func TestNoForeignTasksInList(t *testing.T) {
	h := NewTaskHandler(newMemTaskStore(), &recordPublisher{})
	seedTask(t, h, 1, "mine")
	seedTask(t, h, 2, "theirs")

	c, rec := taskCtxAs(1, http.MethodGet, "/tasks/", "")
	if err := h.List(c); err != nil {
		t.Fatalf("list: %v", err)
	}
	var tasks []model.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &tasks); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "mine" {
		t.Fatalf("list leaked another user's tasks: %+v", tasks)
	}
}
