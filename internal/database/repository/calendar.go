package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// EventFilters defines list filters for calendar events.
type EventFilters struct {
	ContactID string
	From      time.Time // zero = unbounded
	To        time.Time // zero = unbounded
}

// EventRepo handles calendar events, stored as interaction rows with
// kind = 'calendar_event'.
type EventRepo struct {
	db *sql.DB
}

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) Insert(ctx context.Context, e Event) error {
	err := execInTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO interactions(id, kind, contact_id, title, description, location, starts_at, ends_at, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);
		`, e.ID, KindCalendarEvent, e.ContactID, e.Title, e.Description, e.Location, e.StartsAt, e.EndsAt)
		if err != nil {
			return err
		}
		return insertAttendees(ctx, tx, e.ID, e.Attendees)
	})
	return err
}

func (r *EventRepo) Update(ctx context.Context, e Event) error {
	return execInTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
		UPDATE interactions SET contact_id = ?, title = ?, description = ?, location = ?, starts_at = ?, ends_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND kind = ?`, e.ContactID, e.Title, e.Description, e.Location, e.StartsAt, e.EndsAt, e.ID, KindCalendarEvent)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM interaction_attendees WHERE interaction_id = ?`, e.ID); err != nil {
			return err
		}
		return insertAttendees(ctx, tx, e.ID, e.Attendees)
	})
}

// Delete removes the event row. The bool reports whether a row existed, so
// callers can surface EVENT_NOT_FOUND on a repeated delete.
func (r *EventRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM interactions WHERE id = ? AND kind = ?`, id, KindCalendarEvent)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *EventRepo) Get(ctx context.Context, id string) (*Event, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, kind, contact_id, title, description, location, starts_at, ends_at, created_at, updated_at
	FROM interactions WHERE id = ? AND kind = ?`, id, KindCalendarEvent)
	e, err := scanEvent(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	attendees, err := r.fetchAttendees(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	e.Attendees = attendees
	return &e, nil
}

func (r *EventRepo) List(ctx context.Context, f EventFilters) ([]Event, error) {
	where := []string{"kind = ?"}
	args := []interface{}{KindCalendarEvent}

	if f.ContactID != "" {
		where = append(where, "contact_id = ?")
		args = append(args, f.ContactID)
	}
	if !f.From.IsZero() {
		where = append(where, "ends_at >= ?")
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		where = append(where, "starts_at < ?")
		args = append(args, f.To)
	}

	query := `SELECT id, kind, contact_id, title, description, location, starts_at, ends_at, created_at, updated_at FROM interactions WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY starts_at`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		attendees, err := r.fetchAttendees(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Attendees = attendees
	}
	return out, nil
}

func (r *EventRepo) fetchAttendees(ctx context.Context, eventID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT email FROM interaction_attendees WHERE interaction_id = ? ORDER BY email`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		out = append(out, email)
	}
	return out, rows.Err()
}

func insertAttendees(ctx context.Context, tx *sql.Tx, eventID string, attendees []string) error {
	for _, a := range attendees {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO interaction_attendees(interaction_id, email) VALUES(?, ?)`, eventID, a); err != nil {
			return err
		}
	}
	return nil
}

func execInTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func scanEvent(row scanner) (Event, error) {
	var e Event
	var contact, location sql.NullString
	if err := row.Scan(&e.ID, &e.Kind, &contact, &e.Title, &e.Description, &location, &e.StartsAt, &e.EndsAt, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return Event{}, err
	}
	if contact.Valid {
		e.ContactID = &contact.String
	}
	if location.Valid {
		e.Location = &location.String
	}
	return e, nil
}
