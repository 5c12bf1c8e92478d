package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/omnihq/omnicrm/internal/apperr"
	"github.com/omnihq/omnicrm/internal/database/repository"
)

type createHabitInput struct {
	Name    string `json:"name" jsonschema:"minLength=1"`
	Cadence string `json:"cadence,omitempty" jsonschema:"enum=daily,enum=weekly" jsonschema_description:"How often the habit is intended to happen (default daily)."`
}

type logHabitCompletionInput struct {
	HabitID string `json:"habit_id" jsonschema:"format=uuid"`
	Date    string `json:"date,omitempty" jsonschema:"format=date" jsonschema_description:"YYYY-MM-DD, defaults to today."`
}

type habitPatternsInput struct {
	HabitID string `json:"habit_id" jsonschema:"format=uuid"`
	Days    int    `json:"days,omitempty" jsonschema:"minimum=1,maximum=365" jsonschema_description:"Window size in days (default 30)."`
}

type deleteHabitInput struct {
	HabitID string `json:"habit_id" jsonschema:"format=uuid"`
}

type habitDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Cadence string `json:"cadence"`
}

func toHabitDTO(h repository.Habit) habitDTO {
	return habitDTO{ID: h.ID, Name: h.Name, Cadence: h.Cadence}
}

func registerHabitTools(r *Registry, d Deps) {
	r.MustRegister(ToolDefinition{
		Name:        "create_habit",
		Description: "Create a recurring habit to track.",
		Permission:  PermissionWrite,
		CreditCost:  2,
		InputSchema: GenerateSchema[createHabitInput](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in createHabitInput
			if err := decode(raw, &in); err != nil {
				return nil, err
			}
			cadence := in.Cadence
			if cadence == "" {
				cadence = "daily"
			}
			h := repository.Habit{ID: uuid.NewString(), Name: in.Name, Cadence: cadence}
			if err := d.Habits.Insert(ctx, h); err != nil {
				return nil, err
			}
			return toHabitDTO(h), nil
		},
	})

	r.MustRegister(ToolDefinition{
		Name:        "list_habits",
		Description: "List all tracked habits.",
		Permission:  PermissionRead,
		CreditCost:  1,
		CacheTTL:    30 * time.Second,
		Idempotent:  true,
		InputSchema: GenerateSchema[struct{}](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			habits, err := d.Habits.List(ctx)
			if err != nil {
				return nil, err
			}
			out := make([]habitDTO, 0, len(habits))
			for _, h := range habits {
				out = append(out, toHabitDTO(h))
			}
			return map[string]any{"habits": out, "count": len(out)}, nil
		},
	})

	r.MustRegister(ToolDefinition{
		Name:        "log_habit_completion",
		Description: "Record a habit as done for a date. Logging the same date twice is a no-op.",
		Permission:  PermissionWrite,
		CreditCost:  1,
		Idempotent:  true,
		InputSchema: GenerateSchema[logHabitCompletionInput](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in logHabitCompletionInput
			if err := decode(raw, &in); err != nil {
				return nil, err
			}
			if err := requireUUID("habit_id", in.HabitID); err != nil {
				return nil, err
			}
			h, err := d.Habits.Get(ctx, in.HabitID)
			if err != nil {
				return nil, err
			}
			if h == nil {
				return nil, apperr.NotFound("HABIT_NOT_FOUND", "habit %s not found", in.HabitID)
			}
			date := d.now()
			if in.Date != "" {
				date, err = parseDate("date", in.Date)
				if err != nil {
					return nil, err
				}
			}
			logged, err := d.Habits.LogCompletion(ctx, in.HabitID, date)
			if err != nil {
				return nil, err
			}
			action := "logged"
			if !logged {
				action = "already_logged"
			}
			return map[string]any{
				"habit_id": in.HabitID,
				"date":     date.Format("2006-01-02"),
				"action":   action,
			}, nil
		},
	})

	r.MustRegister(ToolDefinition{
		Name:        "get_habit_patterns",
		Description: "Streaks, completion rate, best weekday and heatmap for a habit.",
		Permission:  PermissionRead,
		CreditCost:  2,
		CacheTTL:    time.Minute,
		Idempotent:  true,
		InputSchema: GenerateSchema[habitPatternsInput](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in habitPatternsInput
			if err := decode(raw, &in); err != nil {
				return nil, err
			}
			if err := requireUUID("habit_id", in.HabitID); err != nil {
				return nil, err
			}
			h, err := d.Habits.Get(ctx, in.HabitID)
			if err != nil {
				return nil, err
			}
			if h == nil {
				return nil, apperr.NotFound("HABIT_NOT_FOUND", "habit %s not found", in.HabitID)
			}
			pattern, err := d.Analytics.HabitPatterns(ctx, in.HabitID, in.Days)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"habit":   toHabitDTO(*h),
				"pattern": pattern,
			}, nil
		},
	})

	r.MustRegister(ToolDefinition{
		Name:        "delete_habit",
		Description: "Permanently delete a habit and its completion history.",
		Permission:  PermissionAdmin,
		CreditCost:  5,
		InputSchema: GenerateSchema[deleteHabitInput](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in deleteHabitInput
			if err := decode(raw, &in); err != nil {
				return nil, err
			}
			if err := requireUUID("habit_id", in.HabitID); err != nil {
				return nil, err
			}
			deleted, err := d.Habits.Delete(ctx, in.HabitID)
			if err != nil {
				return nil, err
			}
			if !deleted {
				return nil, apperr.NotFound("HABIT_NOT_FOUND", "habit %s not found", in.HabitID)
			}
			return map[string]any{"habit_id": in.HabitID, "deleted": true}, nil
		},
	})
}
