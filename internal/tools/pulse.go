package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/omnihq/omnicrm/internal/apperr"
	"github.com/omnihq/omnicrm/internal/database/repository"
)

type logMoodInput struct {
	UserID string `json:"user_id" jsonschema:"minLength=1" jsonschema_description:"Practitioner identifier the pulse belongs to."`
	Mood   int    `json:"mood" jsonschema:"minimum=1,maximum=10"`
	Energy int    `json:"energy" jsonschema:"minimum=1,maximum=10"`
	Stress int    `json:"stress,omitempty" jsonschema:"minimum=1,maximum=10"`
	Notes  string `json:"notes,omitempty"`
	Date   string `json:"date,omitempty" jsonschema:"format=date" jsonschema_description:"YYYY-MM-DD, defaults to today."`
}

type getDailyPulseInput struct {
	UserID string `json:"user_id" jsonschema:"minLength=1"`
	Date   string `json:"date,omitempty" jsonschema:"format=date" jsonschema_description:"YYYY-MM-DD, defaults to today."`
}

type pulseDTO struct {
	UserID   string  `json:"user_id"`
	LoggedOn string  `json:"logged_on"`
	Mood     int     `json:"mood"`
	Energy   int     `json:"energy"`
	Stress   *int    `json:"stress,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

func toPulseDTO(p repository.PulseLog) pulseDTO {
	return pulseDTO{
		UserID:   p.UserID,
		LoggedOn: p.LoggedOn.Format("2006-01-02"),
		Mood:     p.Mood,
		Energy:   p.Energy,
		Stress:   p.Stress,
		Notes:    p.Notes,
	}
}

func registerPulseTools(r *Registry, d Deps) {
	r.MustRegister(ToolDefinition{
		Name:        "log_mood",
		Description: "Record mood and energy for a day. Logging the same day again overwrites the entry.",
		Permission:  PermissionWrite,
		CreditCost:  1,
		Idempotent:  true,
		InputSchema: GenerateSchema[logMoodInput](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in logMoodInput
			if err := decode(raw, &in); err != nil {
				return nil, err
			}
			date := d.now()
			if in.Date != "" {
				var err error
				date, err = parseDate("date", in.Date)
				if err != nil {
					return nil, err
				}
			}
			p := repository.PulseLog{
				ID:       uuid.NewString(),
				UserID:   in.UserID,
				LoggedOn: date,
				Mood:     in.Mood,
				Energy:   in.Energy,
			}
			if in.Stress != 0 {
				p.Stress = &in.Stress
			}
			if in.Notes != "" {
				p.Notes = &in.Notes
			}
			updated, err := d.Pulse.Upsert(ctx, p)
			if err != nil {
				return nil, err
			}
			action := "created"
			if updated {
				action = "updated"
			}
			stored, err := d.Pulse.Get(ctx, in.UserID, date)
			if err != nil {
				return nil, err
			}
			return map[string]any{"action": action, "pulse": toPulseDTO(*stored)}, nil
		},
	})

	r.MustRegister(ToolDefinition{
		Name:        "get_daily_pulse",
		Description: "Fetch the pulse entry for a day.",
		Permission:  PermissionRead,
		CreditCost:  1,
		CacheTTL:    30 * time.Second,
		Idempotent:  true,
		InputSchema: GenerateSchema[getDailyPulseInput](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in getDailyPulseInput
			if err := decode(raw, &in); err != nil {
				return nil, err
			}
			date := d.now()
			if in.Date != "" {
				var err error
				date, err = parseDate("date", in.Date)
				if err != nil {
					return nil, err
				}
			}
			p, err := d.Pulse.Get(ctx, in.UserID, date)
			if err != nil {
				return nil, err
			}
			if p == nil {
				return nil, apperr.NotFound("PULSE_NOT_FOUND", "no pulse logged for %s on %s", in.UserID, date.Format("2006-01-02"))
			}
			return toPulseDTO(*p), nil
		},
	})
}
