package tools

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/omnihq/omnicrm/internal/apperr"
	"github.com/omnihq/omnicrm/internal/database/repository"
	"github.com/omnihq/omnicrm/internal/service"
)

// Deps wires the repositories and services tool handlers depend on.
type Deps struct {
	Contacts  *repository.ContactRepo
	Tags      *repository.TagRepo
	Notes     *repository.NoteRepo
	Tasks     *repository.TaskRepo
	Goals     *repository.GoalRepo
	Habits    *repository.HabitRepo
	Events    *repository.EventRepo
	Pulse     *repository.PulseRepo
	Analytics *service.AnalyticsService
	Now       func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now().UTC()
}

// New builds a registry with the full tool surface registered.
func New(d Deps, opts Options) *Registry {
	r := NewRegistry(opts)
	registerContactTools(r, d)
	registerNoteTools(r, d)
	registerTaskTools(r, d)
	registerGoalTools(r, d)
	registerHabitTools(r, d)
	registerCalendarTools(r, d)
	registerPulseTools(r, d)
	registerWellnessTools(r, d)
	return r
}

// decode unmarshals validated input into a typed struct.
func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return apperr.Invalid("INVALID_PARAMS", "decode input: %v", err)
	}
	return nil
}

// requireUUID rejects malformed identifiers before any repository call.
func requireUUID(field, value string) error {
	if _, err := uuid.Parse(value); err != nil {
		return apperr.Invalid("INVALID_PARAMS", "%s is not a valid UUID: %s", field, value)
	}
	return nil
}

// parseDate parses a YYYY-MM-DD parameter.
func parseDate(field, value string) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", value, time.UTC)
	if err != nil {
		return time.Time{}, apperr.Invalid("INVALID_PARAMS", "%s is not a valid date (want YYYY-MM-DD): %s", field, value)
	}
	return d, nil
}
