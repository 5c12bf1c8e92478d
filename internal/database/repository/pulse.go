package repository

import (
	"context"
	"database/sql"
	"time"
)

// PulseRepo handles daily pulse logs. One row per (user, date).
type PulseRepo struct {
	db *sql.DB
}

func NewPulseRepo(db *sql.DB) *PulseRepo { return &PulseRepo{db: db} }

// Upsert writes the pulse log for (user, date). The bool reports whether a
// row already existed, so callers can answer created vs updated.
func (r *PulseRepo) Upsert(ctx context.Context, p PulseLog) (updated bool, err error) {
	existing, err := r.Get(ctx, p.UserID, p.LoggedOn)
	if err != nil {
		return false, err
	}
	if existing == nil {
		_, err = r.db.ExecContext(ctx, `
		INSERT INTO pulse_logs(id, user_id, logged_on, mood, energy, stress, notes, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);
		`, p.ID, p.UserID, p.LoggedOn.Format("2006-01-02"), p.Mood, p.Energy, p.Stress, p.Notes)
		return false, err
	}
	_, err = r.db.ExecContext(ctx, `
	UPDATE pulse_logs SET mood = ?, energy = ?, stress = ?, notes = ?, updated_at = CURRENT_TIMESTAMP
	WHERE user_id = ? AND logged_on = ?;
	`, p.Mood, p.Energy, p.Stress, p.Notes, p.UserID, p.LoggedOn.Format("2006-01-02"))
	return true, err
}

func (r *PulseRepo) Get(ctx context.Context, userID string, date time.Time) (*PulseLog, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, user_id, logged_on, mood, energy, stress, notes, created_at, updated_at
	FROM pulse_logs WHERE user_id = ? AND logged_on = ?`, userID, date.Format("2006-01-02"))
	p, err := scanPulse(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// ListSince returns logs on or after the given date, oldest first.
func (r *PulseRepo) ListSince(ctx context.Context, userID string, since time.Time) ([]PulseLog, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, user_id, logged_on, mood, energy, stress, notes, created_at, updated_at
	FROM pulse_logs WHERE user_id = ? AND logged_on >= ?
	ORDER BY logged_on`, userID, since.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PulseLog
	for rows.Next() {
		p, err := scanPulse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPulse(row scanner) (PulseLog, error) {
	var p PulseLog
	var loggedOn time.Time
	var stress sql.NullInt64
	var notes sql.NullString
	if err := row.Scan(&p.ID, &p.UserID, &loggedOn, &p.Mood, &p.Energy, &stress, &notes, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return PulseLog{}, err
	}
	p.LoggedOn = loggedOn.UTC()
	if stress.Valid {
		v := int(stress.Int64)
		p.Stress = &v
	}
	if notes.Valid {
		p.Notes = &notes.String
	}
	return p, nil
}
