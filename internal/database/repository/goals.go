package repository

import (
	"context"
	"database/sql"
)

// GoalRepo handles goals and their progress log.
type GoalRepo struct {
	db *sql.DB
}

func NewGoalRepo(db *sql.DB) *GoalRepo { return &GoalRepo{db: db} }

func (r *GoalRepo) Insert(ctx context.Context, g Goal) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO goals(id, title, description, target_value, unit, status, created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);
	`, g.ID, g.Title, g.Description, g.TargetValue, g.Unit, g.Status)
	return err
}

func (r *GoalRepo) UpdateStatus(ctx context.Context, id, status string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE goals SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, status, id)
	return err
}

func (r *GoalRepo) Get(ctx context.Context, id string) (*Goal, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, title, description, target_value, unit, status, created_at, updated_at FROM goals WHERE id = ?`, id)
	g, err := scanGoal(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	progress, err := r.fetchProgress(ctx, g.ID)
	if err != nil {
		return nil, err
	}
	g.Progress = progress
	return &g, nil
}

func (r *GoalRepo) List(ctx context.Context, status string) ([]Goal, error) {
	query := `SELECT id, title, description, target_value, unit, status, created_at, updated_at FROM goals`
	var args []interface{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC"
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// AppendProgress adds one entry to the append-only progress log.
func (r *GoalRepo) AppendProgress(ctx context.Context, p GoalProgress) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO goal_progress(id, goal_id, value, note, recorded_at)
	VALUES(?, ?, ?, ?, ?);
	`, p.ID, p.GoalID, p.Value, p.Note, p.RecordedAt)
	return err
}

func (r *GoalRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *GoalRepo) fetchProgress(ctx context.Context, goalID string) ([]GoalProgress, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, goal_id, value, note, recorded_at FROM goal_progress WHERE goal_id = ? ORDER BY recorded_at, id`, goalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []GoalProgress
	for rows.Next() {
		var p GoalProgress
		var note sql.NullString
		if err := rows.Scan(&p.ID, &p.GoalID, &p.Value, &note, &p.RecordedAt); err != nil {
			return nil, err
		}
		if note.Valid {
			p.Note = &note.String
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanGoal(row scanner) (Goal, error) {
	var g Goal
	var target sql.NullFloat64
	var unit sql.NullString
	if err := row.Scan(&g.ID, &g.Title, &g.Description, &target, &unit, &g.Status, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return Goal{}, err
	}
	if target.Valid {
		g.TargetValue = &target.Float64
	}
	if unit.Valid {
		g.Unit = &unit.String
	}
	return g, nil
}
