package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// TaskFilters defines list filters.
type TaskFilters struct {
	Status   string
	Priority string
	Zone     string
	DueBy    time.Time // zero time = no due filter
}

// TaskRepo handles tasks and their subtasks.
type TaskRepo struct {
	db *sql.DB
}

func NewTaskRepo(db *sql.DB) *TaskRepo { return &TaskRepo{db: db} }

func (r *TaskRepo) Insert(ctx context.Context, t Task) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO tasks(id, title, status, priority, zone, due_date, created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);
	`, t.ID, t.Title, t.Status, t.Priority, t.Zone, t.DueDate)
	return err
}

func (r *TaskRepo) UpdateStatus(ctx context.Context, id, status string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE tasks SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, status, id)
	return err
}

func (r *TaskRepo) Update(ctx context.Context, t Task) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE tasks SET title = ?, status = ?, priority = ?, zone = ?, due_date = ?, updated_at = CURRENT_TIMESTAMP
	WHERE id = ?`, t.Title, t.Status, t.Priority, t.Zone, t.DueDate, t.ID)
	return err
}

func (r *TaskRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *TaskRepo) Get(ctx context.Context, id string) (*Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, title, status, priority, zone, due_date, created_at, updated_at FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	subs, err := r.fetchSubtasks(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	t.Subtasks = subs
	return &t, nil
}

func (r *TaskRepo) List(ctx context.Context, f TaskFilters) ([]Task, error) {
	var where []string
	var args []interface{}

	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.Priority != "" {
		where = append(where, "priority = ?")
		args = append(args, f.Priority)
	}
	if f.Zone != "" {
		where = append(where, "zone = ?")
		args = append(args, f.Zone)
	}
	if !f.DueBy.IsZero() {
		where = append(where, "due_date IS NOT NULL AND due_date <= ?")
		args = append(args, f.DueBy)
	}

	query := "SELECT id, title, status, priority, zone, due_date, created_at, updated_at FROM tasks"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		subs, err := r.fetchSubtasks(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Subtasks = subs
	}
	return out, nil
}

// CompletionRate returns done/(done+open) over non-archived tasks.
// Zero tasks yields rate 0.
func (r *TaskRepo) CompletionRate(ctx context.Context) (float64, error) {
	var total, done int
	row := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE status != 'archived'`)
	if err := row.Scan(&total); err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	row = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE status = 'done'`)
	if err := row.Scan(&done); err != nil {
		return 0, err
	}
	return float64(done) / float64(total), nil
}

func (r *TaskRepo) AddSubtask(ctx context.Context, s Subtask) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO task_subtasks(id, task_id, title, done, position)
	VALUES(?, ?, ?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM task_subtasks WHERE task_id = ?));
	`, s.ID, s.TaskID, s.Title, s.Done, s.TaskID)
	return err
}

func (r *TaskRepo) SetSubtaskDone(ctx context.Context, id string, done bool) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE task_subtasks SET done = ? WHERE id = ?`, done, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *TaskRepo) fetchSubtasks(ctx context.Context, taskID string) ([]Subtask, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, task_id, title, done, position FROM task_subtasks WHERE task_id = ? ORDER BY position`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Subtask
	for rows.Next() {
		var s Subtask
		if err := rows.Scan(&s.ID, &s.TaskID, &s.Title, &s.Done, &s.Position); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanTask(row scanner) (Task, error) {
	var t Task
	var zone sql.NullString
	var due sql.NullTime
	if err := row.Scan(&t.ID, &t.Title, &t.Status, &t.Priority, &zone, &due, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return Task{}, err
	}
	if zone.Valid {
		t.Zone = &zone.String
	}
	if due.Valid {
		t.DueDate = &due.Time
	}
	return t, nil
}
