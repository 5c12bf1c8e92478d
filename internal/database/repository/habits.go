package repository

import (
	"context"
	"database/sql"
	"time"
)

// HabitRepo handles habits and per-date completions.
type HabitRepo struct {
	db *sql.DB
}

func NewHabitRepo(db *sql.DB) *HabitRepo { return &HabitRepo{db: db} }

func (r *HabitRepo) Insert(ctx context.Context, h Habit) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO habits(id, name, cadence, created_at)
	VALUES(?, ?, ?, CURRENT_TIMESTAMP);
	`, h.ID, h.Name, h.Cadence)
	return err
}

func (r *HabitRepo) Get(ctx context.Context, id string) (*Habit, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, cadence, created_at FROM habits WHERE id = ?`, id)
	var h Habit
	if err := row.Scan(&h.ID, &h.Name, &h.Cadence, &h.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &h, nil
}

func (r *HabitRepo) List(ctx context.Context) ([]Habit, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, cadence, created_at FROM habits ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Habit
	for rows.Next() {
		var h Habit
		if err := rows.Scan(&h.ID, &h.Name, &h.Cadence, &h.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *HabitRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM habits WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// LogCompletion records a completion for a date. Logging the same date twice
// is a no-op; the bool reports whether a new row was written.
func (r *HabitRepo) LogCompletion(ctx context.Context, habitID string, date time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
	INSERT OR IGNORE INTO habit_completions(habit_id, completed_on, created_at)
	VALUES(?, ?, CURRENT_TIMESTAMP);
	`, habitID, date.Format("2006-01-02"))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// CompletionsSince returns completion dates on or after the given date,
// oldest first.
func (r *HabitRepo) CompletionsSince(ctx context.Context, habitID string, since time.Time) ([]time.Time, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT completed_on FROM habit_completions
	WHERE habit_id = ? AND completed_on >= ?
	ORDER BY completed_on`, habitID, since.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d.UTC())
	}
	return out, rows.Err()
}
