package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// ContactFilters defines list filters.
type ContactFilters struct {
	LifecycleStage string
	Tag            string
	Search         string
	Limit          int
}

// ContactRepo handles contacts.
type ContactRepo struct {
	db *sql.DB
}

func NewContactRepo(db *sql.DB) *ContactRepo { return &ContactRepo{db: db} }

func (r *ContactRepo) Insert(ctx context.Context, c Contact) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO contacts(id, first_name, last_name, email, phone, lifecycle_stage, created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);
	`, c.ID, c.FirstName, c.LastName, c.Email, c.Phone, c.LifecycleStage)
	return err
}

// Update rewrites the mutable identity fields of a contact.
func (r *ContactRepo) Update(ctx context.Context, c Contact) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE contacts SET first_name = ?, last_name = ?, email = ?, phone = ?, updated_at = CURRENT_TIMESTAMP
	WHERE id = ?`, c.FirstName, c.LastName, c.Email, c.Phone, c.ID)
	return err
}

func (r *ContactRepo) UpdateLifecycleStage(ctx context.Context, id, stage string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE contacts SET lifecycle_stage = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, stage, id)
	return err
}

func (r *ContactRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *ContactRepo) AttachTag(ctx context.Context, contactID, tagID string) error {
	_, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO contact_tags(contact_id, tag_id) VALUES(?, ?)`, contactID, tagID)
	return err
}

func (r *ContactRepo) RemoveTag(ctx context.Context, contactID, tagID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM contact_tags WHERE contact_id = ? AND tag_id = ?`, contactID, tagID)
	return err
}

func (r *ContactRepo) Get(ctx context.Context, id string) (*Contact, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, first_name, last_name, email, phone, lifecycle_stage, created_at, updated_at FROM contacts WHERE id = ?`, id)
	c, err := scanContact(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	tags, err := r.fetchTags(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Tags = tags
	return &c, nil
}

func (r *ContactRepo) List(ctx context.Context, f ContactFilters) ([]Contact, error) {
	var where []string
	var args []interface{}

	if f.LifecycleStage != "" {
		where = append(where, "lifecycle_stage = ?")
		args = append(args, f.LifecycleStage)
	}
	if f.Tag != "" {
		where = append(where, "id IN (SELECT ct.contact_id FROM contact_tags ct JOIN tags t ON t.id = ct.tag_id WHERE t.name = ?)")
		args = append(args, f.Tag)
	}
	if f.Search != "" {
		where = append(where, "(first_name LIKE ? OR last_name LIKE ? OR email LIKE ?)")
		pat := "%" + f.Search + "%"
		args = append(args, pat, pat, pat)
	}

	query := "SELECT id, first_name, last_name, email, phone, lifecycle_stage, created_at, updated_at FROM contacts"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY last_name, first_name"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		tags, err := r.fetchTags(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Tags = tags
	}
	return out, nil
}

func (r *ContactRepo) fetchTags(ctx context.Context, contactID string) ([]Tag, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT t.id, t.name FROM tags t JOIN contact_tags ct ON ct.tag_id = t.id WHERE ct.contact_id = ? ORDER BY t.name`, contactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tags []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// CountByStage returns contact counts grouped by lifecycle stage.
func (r *ContactRepo) CountByStage(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT lifecycle_stage, COUNT(*) FROM contacts GROUP BY lifecycle_stage`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var stage string
		var n int
		if err := rows.Scan(&stage, &n); err != nil {
			return nil, err
		}
		out[stage] = n
	}
	return out, rows.Err()
}

// scanContact handles nullable fields for both Row and Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanContact(row scanner) (Contact, error) {
	var c Contact
	var email, phone sql.NullString
	var created, updated time.Time
	if err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &email, &phone, &c.LifecycleStage, &created, &updated); err != nil {
		return Contact{}, err
	}
	if email.Valid {
		c.Email = &email.String
	}
	if phone.Valid {
		c.Phone = &phone.String
	}
	c.CreatedAt = created
	c.UpdatedAt = updated
	return c, nil
}
