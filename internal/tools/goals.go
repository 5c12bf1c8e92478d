package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/omnihq/omnicrm/internal/apperr"
	"github.com/omnihq/omnicrm/internal/database/repository"
)

type createGoalInput struct {
	Title       string  `json:"title" jsonschema:"minLength=1"`
	Description string  `json:"description,omitempty"`
	TargetValue float64 `json:"target_value,omitempty" jsonschema_description:"Numeric target, e.g. 12 for '12 retreats'."`
	Unit        string  `json:"unit,omitempty" jsonschema_description:"Unit for the target value, e.g. sessions."`
}

type getGoalInput struct {
	GoalID string `json:"goal_id" jsonschema:"format=uuid"`
}

type listGoalsInput struct {
	Status string `json:"status,omitempty" jsonschema:"enum=active,enum=completed,enum=abandoned"`
}

type logGoalProgressInput struct {
	GoalID string  `json:"goal_id" jsonschema:"format=uuid"`
	Value  float64 `json:"value"`
	Note   string  `json:"note,omitempty"`
}

type updateGoalStatusInput struct {
	GoalID string `json:"goal_id" jsonschema:"format=uuid"`
	Status string `json:"status" jsonschema:"enum=active,enum=completed,enum=abandoned"`
}

type goalProgressDTO struct {
	ID         string  `json:"id"`
	Value      float64 `json:"value"`
	Note       *string `json:"note,omitempty"`
	RecordedAt string  `json:"recorded_at"`
}

type goalDTO struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	TargetValue *float64          `json:"target_value,omitempty"`
	Unit        *string           `json:"unit,omitempty"`
	Status      string            `json:"status"`
	Current     float64           `json:"current_value"`
	Progress    []goalProgressDTO `json:"progress"`
}

func toGoalDTO(g repository.Goal) goalDTO {
	dto := goalDTO{
		ID:          g.ID,
		Title:       g.Title,
		Description: g.Description,
		TargetValue: g.TargetValue,
		Unit:        g.Unit,
		Status:      g.Status,
		Progress:    []goalProgressDTO{},
	}
	for _, p := range g.Progress {
		dto.Current = p.Value
		dto.Progress = append(dto.Progress, goalProgressDTO{
			ID:         p.ID,
			Value:      p.Value,
			Note:       p.Note,
			RecordedAt: p.RecordedAt.UTC().Format(time.RFC3339),
		})
	}
	return dto
}

func registerGoalTools(r *Registry, d Deps) {
	r.MustRegister(ToolDefinition{
		Name:        "create_goal",
		Description: "Create a goal with an optional numeric target.",
		Permission:  PermissionWrite,
		CreditCost:  2,
		InputSchema: GenerateSchema[createGoalInput](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in createGoalInput
			if err := decode(raw, &in); err != nil {
				return nil, err
			}
			g := repository.Goal{
				ID:          uuid.NewString(),
				Title:       in.Title,
				Description: in.Description,
				Status:      "active",
			}
			if in.TargetValue != 0 {
				g.TargetValue = &in.TargetValue
			}
			if in.Unit != "" {
				g.Unit = &in.Unit
			}
			if err := d.Goals.Insert(ctx, g); err != nil {
				return nil, err
			}
			created, err := d.Goals.Get(ctx, g.ID)
			if err != nil {
				return nil, err
			}
			return toGoalDTO(*created), nil
		},
	})

	r.MustRegister(ToolDefinition{
		Name:        "get_goal",
		Description: "Fetch a goal with its progress history.",
		Permission:  PermissionRead,
		CreditCost:  1,
		CacheTTL:    30 * time.Second,
		Idempotent:  true,
		InputSchema: GenerateSchema[getGoalInput](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in getGoalInput
			if err := decode(raw, &in); err != nil {
				return nil, err
			}
			if err := requireUUID("goal_id", in.GoalID); err != nil {
				return nil, err
			}
			g, err := d.Goals.Get(ctx, in.GoalID)
			if err != nil {
				return nil, err
			}
			if g == nil {
				return nil, apperr.NotFound("GOAL_NOT_FOUND", "goal %s not found", in.GoalID)
			}
			return toGoalDTO(*g), nil
		},
	})

	r.MustRegister(ToolDefinition{
		Name:        "list_goals",
		Description: "List goals, optionally filtered by status.",
		Permission:  PermissionRead,
		CreditCost:  1,
		CacheTTL:    30 * time.Second,
		Idempotent:  true,
		InputSchema: GenerateSchema[listGoalsInput](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in listGoalsInput
			if err := decode(raw, &in); err != nil {
				return nil, err
			}
			goals, err := d.Goals.List(ctx, in.Status)
			if err != nil {
				return nil, err
			}
			out := make([]goalDTO, 0, len(goals))
			for _, g := range goals {
				out = append(out, toGoalDTO(g))
			}
			return map[string]any{"goals": out, "count": len(out)}, nil
		},
	})

	r.MustRegister(ToolDefinition{
		Name:        "log_goal_progress",
		Description: "Append a progress entry to a goal's history.",
		Permission:  PermissionWrite,
		CreditCost:  1,
		InputSchema: GenerateSchema[logGoalProgressInput](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in logGoalProgressInput
			if err := decode(raw, &in); err != nil {
				return nil, err
			}
			if err := requireUUID("goal_id", in.GoalID); err != nil {
				return nil, err
			}
			g, err := d.Goals.Get(ctx, in.GoalID)
			if err != nil {
				return nil, err
			}
			if g == nil {
				return nil, apperr.NotFound("GOAL_NOT_FOUND", "goal %s not found", in.GoalID)
			}
			p := repository.GoalProgress{
				ID:         uuid.NewString(),
				GoalID:     in.GoalID,
				Value:      in.Value,
				RecordedAt: d.now(),
			}
			if in.Note != "" {
				p.Note = &in.Note
			}
			if err := d.Goals.AppendProgress(ctx, p); err != nil {
				return nil, err
			}
			updated, err := d.Goals.Get(ctx, in.GoalID)
			if err != nil {
				return nil, err
			}
			return toGoalDTO(*updated), nil
		},
	})

	r.MustRegister(ToolDefinition{
		Name:        "update_goal_status",
		Description: "Mark a goal active, completed or abandoned.",
		Permission:  PermissionWrite,
		CreditCost:  1,
		Idempotent:  true,
		InputSchema: GenerateSchema[updateGoalStatusInput](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in updateGoalStatusInput
			if err := decode(raw, &in); err != nil {
				return nil, err
			}
			if err := requireUUID("goal_id", in.GoalID); err != nil {
				return nil, err
			}
			g, err := d.Goals.Get(ctx, in.GoalID)
			if err != nil {
				return nil, err
			}
			if g == nil {
				return nil, apperr.NotFound("GOAL_NOT_FOUND", "goal %s not found", in.GoalID)
			}
			if err := d.Goals.UpdateStatus(ctx, in.GoalID, in.Status); err != nil {
				return nil, err
			}
			return map[string]any{"goal_id": in.GoalID, "status": in.Status}, nil
		},
	})
}
