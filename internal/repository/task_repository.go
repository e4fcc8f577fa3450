package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/aminjonov/taskhub/internal/model"
)

// TaskRepo manages persistence for the `tasks` table. Every query is
// scoped by user_id so a task is never reachable through another user's
// requests.
type TaskRepo struct{ DB *sql.DB }

func NewTaskRepo(db *sql.DB) *TaskRepo { return &TaskRepo{DB: db} }

const taskCols = "id,user_id,title,description,due_date,is_important,is_completed,created_at,updated_at"

// taskOrder sorts important tasks first, then by ascending due date with
// undated tasks last inside each importance bucket.
const taskOrder = " ORDER BY is_important DESC, due_date IS NULL, due_date ASC, id ASC"

// TaskPatch describes a partial update. Nil fields are left untouched.
type TaskPatch struct {
	Title       *string
	Description *string
	DueDate     *string // "YYYY-MM-DD"
	IsImportant *bool
	IsCompleted *bool
}

// TaskFilter selects one of the mutually-prioritized filter branches.
// Precedence: Overdue, then NoDeadline, then Start+End range, then exact
// Start date, then no filtering at all. Today is the caller's current
// calendar date used for the overdue comparison.
type TaskFilter struct {
	Overdue    bool
	NoDeadline bool
	Start      *string // "YYYY-MM-DD"
	End        *string // "YYYY-MM-DD"
	Today      string  // "YYYY-MM-DD"
}

// Create inserts a task and re-reads the stored row so DB defaults and
// timestamps are populated on t.
func (r *TaskRepo) Create(ctx context.Context, t *model.Task) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO tasks (user_id, title, description, due_date, is_important) VALUES (?,?,?,?,?)",
		t.UserID, t.Title, t.Description, t.DueDate, t.IsImportant)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := r.Get(ctx, t.UserID, uint64(id))
	if err != nil {
		return err
	}
	*t = stored
	return nil
}

// ListByUser returns every task owned by userID in the standard order.
func (r *TaskRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Task, error) {
	return r.query(ctx,
		"SELECT "+taskCols+" FROM tasks WHERE user_id=?"+taskOrder, userID)
}

// Filter returns the tasks selected by f, in the standard order.
func (r *TaskRepo) Filter(ctx context.Context, userID uint64, f TaskFilter) ([]model.Task, error) {
	q, args := taskFilterQuery(userID, f)
	return r.query(ctx, q, args...)
}

// taskFilterQuery builds the SQL for a filter request. Kept separate from
// Filter so the branch selection is testable without a database.
func taskFilterQuery(userID uint64, f TaskFilter) (string, []any) {
	var (
		where = "user_id=?"
		args  = []any{userID}
	)
	switch {
	case f.Overdue:
		// Incomplete tasks strictly past their due date; a task due today
		// is not overdue.
		where += " AND is_completed=0 AND due_date IS NOT NULL AND due_date < ?"
		args = append(args, f.Today)
	case f.NoDeadline:
		where += " AND due_date IS NULL"
	case f.Start != nil && f.End != nil:
		where += " AND due_date IS NOT NULL AND due_date BETWEEN ? AND ?"
		args = append(args, *f.Start, *f.End)
	case f.Start != nil:
		where += " AND due_date = ?"
		args = append(args, *f.Start)
	}
	return "SELECT " + taskCols + " FROM tasks WHERE " + where + taskOrder, args
}

// Get fetches a single task owned by userID. Absent and not-owned both
// surface as ErrTaskNotFound.
func (r *TaskRepo) Get(ctx context.Context, userID, taskID uint64) (model.Task, error) {
	var (
		t    model.Task
		desc sql.NullString
		due  sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+taskCols+" FROM tasks WHERE id=? AND user_id=? LIMIT 1", taskID, userID).
		Scan(&t.ID, &t.UserID, &t.Title, &desc, &due, &t.IsImportant, &t.IsCompleted, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Task{}, ErrTaskNotFound
	}
	if err != nil {
		return model.Task{}, err
	}
	applyNullable(&t, desc, due)
	return t, nil
}

// Update applies the non-nil fields of p to the task and returns the
// updated row. The ownership check happens up front so a patch against a
// foreign or missing task fails with ErrTaskNotFound before any write.
func (r *TaskRepo) Update(ctx context.Context, userID, taskID uint64, p TaskPatch) (model.Task, error) {
	if _, err := r.Get(ctx, userID, taskID); err != nil {
		return model.Task{}, err
	}

	sets := make([]string, 0, 6)
	args := make([]any, 0, 8)
	if p.Title != nil {
		sets = append(sets, "title=?")
		args = append(args, *p.Title)
	}
	if p.Description != nil {
		sets = append(sets, "description=?")
		args = append(args, *p.Description)
	}
	if p.DueDate != nil {
		sets = append(sets, "due_date=?")
		args = append(args, *p.DueDate)
	}
	if p.IsImportant != nil {
		sets = append(sets, "is_important=?")
		args = append(args, *p.IsImportant)
	}
	if p.IsCompleted != nil {
		sets = append(sets, "is_completed=?")
		args = append(args, *p.IsCompleted)
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at=UTC_TIMESTAMP()")
		args = append(args, taskID, userID)
		q := "UPDATE tasks SET " + strings.Join(sets, ", ") + " WHERE id=? AND user_id=?"
		if _, err := r.DB.ExecContext(ctx, q, args...); err != nil {
			return model.Task{}, err
		}
	}
	return r.Get(ctx, userID, taskID)
}

// Delete removes a task owned by userID. Deleting an absent or foreign
// task yields ErrTaskNotFound.
func (r *TaskRepo) Delete(ctx context.Context, userID, taskID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM tasks WHERE id=? AND user_id=?", taskID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepo) query(ctx context.Context, q string, args ...any) ([]model.Task, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		var (
			t    model.Task
			desc sql.NullString
			due  sql.NullTime
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &desc, &due, &t.IsImportant, &t.IsCompleted, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		applyNullable(&t, desc, due)
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func applyNullable(t *model.Task, desc sql.NullString, due sql.NullTime) {
	if desc.Valid {
		t.Description = &desc.String
	}
	if due.Valid {
		d := due.Time.Format(model.DateLayout)
		t.DueDate = &d
	}
}
