package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/omnihq/omnicrm/internal/database"
)

// MaintenanceService houses destructive/ops actions surfaced through the CLI.
type MaintenanceService struct {
	DB *sql.DB
}

// Reset wipes all user data. It keeps the schema intact so the app can
// continue running; default tags must be re-seeded afterwards.
func (s *MaintenanceService) Reset(ctx context.Context) error {
	if s.DB == nil {
		return fmt.Errorf("maintenance: db not configured")
	}
	if err := database.WithTx(s.DB, func(tx *sql.Tx) error {
		tables := []string{
			"interaction_attendees",
			"interactions",
			"pulse_logs",
			"habit_completions",
			"habits",
			"goal_progress",
			"goals",
			"task_subtasks",
			"tasks",
			"notes",
			"contact_tags",
			"contacts",
			"tags",
		}
		for _, t := range tables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
				return fmt.Errorf("reset table %s: %w", t, err)
			}
		}
		return nil
	}); err != nil {
		return err
	}
	_, _ = s.DB.ExecContext(ctx, "VACUUM")
	return nil
}
