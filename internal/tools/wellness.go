package tools

import (
	"context"
	"encoding/json"
	"time"
)

type moodTrendsInput struct {
	UserID string `json:"user_id" jsonschema:"minLength=1"`
	Days   int    `json:"days,omitempty" jsonschema:"minimum=2,maximum=365" jsonschema_description:"Window size in days (default 30)."`
}

type wellnessScoreInput struct {
	UserID string `json:"user_id" jsonschema:"minLength=1"`
	Days   int    `json:"days,omitempty" jsonschema:"minimum=1,maximum=365"`
}

type correlateInput struct {
	UserID string `json:"user_id" jsonschema:"minLength=1"`
	Days   int    `json:"days,omitempty" jsonschema:"minimum=1,maximum=365"`
}

func registerWellnessTools(r *Registry, d Deps) {
	r.MustRegister(ToolDefinition{
		Name:        "get_mood_trends",
		Description: "Mood trend over a window: improving, declining, stable or insufficient_data, with per-weekday averages.",
		Permission:  PermissionRead,
		CreditCost:  2,
		CacheTTL:    time.Minute,
		Idempotent:  true,
		InputSchema: GenerateSchema[moodTrendsInput](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in moodTrendsInput
			if err := decode(raw, &in); err != nil {
				return nil, err
			}
			return d.Analytics.MoodTrends(ctx, in.UserID, in.Days)
		},
	})

	r.MustRegister(ToolDefinition{
		Name:        "get_wellness_score",
		Description: "Composite wellness score (0-100) from mood, habit consistency, task completion and streaks.",
		Permission:  PermissionRead,
		CreditCost:  3,
		CacheTTL:    time.Minute,
		Idempotent:  true,
		InputSchema: GenerateSchema[wellnessScoreInput](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in wellnessScoreInput
			if err := decode(raw, &in); err != nil {
				return nil, err
			}
			return d.Analytics.Wellness(ctx, in.UserID, in.Days)
		},
	})

	r.MustRegister(ToolDefinition{
		Name:        "correlate_mood_habits",
		Description: "Compare average energy on days each habit was completed against days it was not.",
		Permission:  PermissionRead,
		CreditCost:  3,
		CacheTTL:    time.Minute,
		Idempotent:  true,
		InputSchema: GenerateSchema[correlateInput](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in correlateInput
			if err := decode(raw, &in); err != nil {
				return nil, err
			}
			correlations, err := d.Analytics.CorrelateMoodHabits(ctx, in.UserID, in.Days)
			if err != nil {
				return nil, err
			}
			return map[string]any{"correlations": correlations, "count": len(correlations)}, nil
		},
	})
}
