package repository

import (
	"context"
	"database/sql"
	"strings"
)

// NoteRepo handles notes.
type NoteRepo struct {
	db *sql.DB
}

func NewNoteRepo(db *sql.DB) *NoteRepo { return &NoteRepo{db: db} }

// themes are stored comma-joined; a note rarely has more than a handful.
func joinThemes(themes []string) string  { return strings.Join(themes, ",") }
func splitThemes(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

func (r *NoteRepo) Insert(ctx context.Context, n Note) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO notes(id, contact_id, body, sentiment, sentiment_score, themes, created_at)
	VALUES(?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP);
	`, n.ID, n.ContactID, n.Body, n.Sentiment, n.SentimentScore, joinThemes(n.Themes))
	return err
}

func (r *NoteRepo) Get(ctx context.Context, id string) (*Note, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, contact_id, body, sentiment, sentiment_score, themes, created_at FROM notes WHERE id = ?`, id)
	n, err := scanNote(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

// ListByContact returns the newest notes first.
func (r *NoteRepo) ListByContact(ctx context.Context, contactID string, limit int) ([]Note, error) {
	query := `SELECT id, contact_id, body, sentiment, sentiment_score, themes, created_at FROM notes WHERE contact_id = ? ORDER BY created_at DESC, id DESC`
	args := []interface{}{contactID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *NoteRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func scanNote(row scanner) (Note, error) {
	var n Note
	var themes string
	if err := row.Scan(&n.ID, &n.ContactID, &n.Body, &n.Sentiment, &n.SentimentScore, &themes, &n.CreatedAt); err != nil {
		return Note{}, err
	}
	n.Themes = splitThemes(themes)
	return n, nil
}
