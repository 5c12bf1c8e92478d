package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/omnihq/omnicrm/internal/apperr"
	"github.com/omnihq/omnicrm/internal/database/repository"
)

type createTaskInput struct {
	Title    string `json:"title" jsonschema:"minLength=1"`
	Priority string `json:"priority,omitempty" jsonschema:"enum=low,enum=medium,enum=high"`
	Zone     string `json:"zone,omitempty" jsonschema_description:"Project or life zone the task belongs to."`
	DueDate  string `json:"due_date,omitempty" jsonschema:"format=date" jsonschema_description:"YYYY-MM-DD."`
}

type getTaskInput struct {
	TaskID string `json:"task_id" jsonschema:"format=uuid"`
}

type listTasksInput struct {
	Status   string `json:"status,omitempty" jsonschema:"enum=todo,enum=in_progress,enum=done,enum=archived"`
	Priority string `json:"priority,omitempty" jsonschema:"enum=low,enum=medium,enum=high"`
	Zone     string `json:"zone,omitempty"`
}

type updateTaskStatusInput struct {
	TaskID string `json:"task_id" jsonschema:"format=uuid"`
	Status string `json:"status" jsonschema:"enum=todo,enum=in_progress,enum=done,enum=archived"`
}

type addSubtaskInput struct {
	TaskID string `json:"task_id" jsonschema:"format=uuid"`
	Title  string `json:"title" jsonschema:"minLength=1"`
}

type completeSubtaskInput struct {
	SubtaskID string `json:"subtask_id" jsonschema:"format=uuid"`
}

type deleteTaskInput struct {
	TaskID string `json:"task_id" jsonschema:"format=uuid"`
}

type subtaskDTO struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

type taskDTO struct {
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	Status   string       `json:"status"`
	Priority string       `json:"priority"`
	Zone     *string      `json:"zone,omitempty"`
	DueDate  *string      `json:"due_date,omitempty"`
	Subtasks []subtaskDTO `json:"subtasks"`
}

func toTaskDTO(t repository.Task) taskDTO {
	dto := taskDTO{
		ID:       t.ID,
		Title:    t.Title,
		Status:   t.Status,
		Priority: t.Priority,
		Zone:     t.Zone,
		Subtasks: []subtaskDTO{},
	}
	if t.DueDate != nil {
		s := t.DueDate.UTC().Format("2006-01-02")
		dto.DueDate = &s
	}
	for _, sub := range t.Subtasks {
		dto.Subtasks = append(dto.Subtasks, subtaskDTO{ID: sub.ID, Title: sub.Title, Done: sub.Done})
	}
	return dto
}

func registerTaskTools(r *Registry, d Deps) {
	r.MustRegister(ToolDefinition{
		Name:        "create_task",
		Description: "Create a task with optional priority, zone and due date.",
		Permission:  PermissionWrite,
		CreditCost:  2,
		InputSchema: GenerateSchema[createTaskInput](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in createTaskInput
			if err := decode(raw, &in); err != nil {
				return nil, err
			}
			priority := in.Priority
			if priority == "" {
				priority = "medium"
			}
			t := repository.Task{
				ID:       uuid.NewString(),
				Title:    in.Title,
				Status:   repository.TaskStatusTodo,
				Priority: priority,
			}
			if in.Zone != "" {
				t.Zone = &in.Zone
			}
			if in.DueDate != "" {
				due, err := parseDate("due_date", in.DueDate)
				if err != nil {
					return nil, err
				}
				t.DueDate = &due
			}
			if err := d.Tasks.Insert(ctx, t); err != nil {
				return nil, err
			}
			created, err := d.Tasks.Get(ctx, t.ID)
			if err != nil {
				return nil, err
			}
			return toTaskDTO(*created), nil
		},
	})

	r.MustRegister(ToolDefinition{
		Name:        "get_task",
		Description: "Fetch a task with its subtasks.",
		Permission:  PermissionRead,
		CreditCost:  1,
		CacheTTL:    30 * time.Second,
		Idempotent:  true,
		InputSchema: GenerateSchema[getTaskInput](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in getTaskInput
			if err := decode(raw, &in); err != nil {
				return nil, err
			}
			if err := requireUUID("task_id", in.TaskID); err != nil {
				return nil, err
			}
			t, err := d.Tasks.Get(ctx, in.TaskID)
			if err != nil {
				return nil, err
			}
			if t == nil {
				return nil, apperr.NotFound("TASK_NOT_FOUND", "task %s not found", in.TaskID)
			}
			return toTaskDTO(*t), nil
		},
	})

	r.MustRegister(ToolDefinition{
		Name:        "list_tasks",
		Description: "List tasks filtered by status, priority or zone.",
		Permission:  PermissionRead,
		CreditCost:  1,
		CacheTTL:    30 * time.Second,
		Idempotent:  true,
		InputSchema: GenerateSchema[listTasksInput](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in listTasksInput
			if err := decode(raw, &in); err != nil {
				return nil, err
			}
			tasks, err := d.Tasks.List(ctx, repository.TaskFilters{
				Status:   in.Status,
				Priority: in.Priority,
				Zone:     in.Zone,
			})
			if err != nil {
				return nil, err
			}
			out := make([]taskDTO, 0, len(tasks))
			for _, t := range tasks {
				out = append(out, toTaskDTO(t))
			}
			return map[string]any{"tasks": out, "count": len(out)}, nil
		},
	})

	r.MustRegister(ToolDefinition{
		Name:        "update_task_status",
		Description: "Move a task between statuses.",
		Permission:  PermissionWrite,
		CreditCost:  1,
		Idempotent:  true,
		InputSchema: GenerateSchema[updateTaskStatusInput](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in updateTaskStatusInput
			if err := decode(raw, &in); err != nil {
				return nil, err
			}
			if err := requireUUID("task_id", in.TaskID); err != nil {
				return nil, err
			}
			t, err := d.Tasks.Get(ctx, in.TaskID)
			if err != nil {
				return nil, err
			}
			if t == nil {
				return nil, apperr.NotFound("TASK_NOT_FOUND", "task %s not found", in.TaskID)
			}
			if err := d.Tasks.UpdateStatus(ctx, in.TaskID, in.Status); err != nil {
				return nil, err
			}
			return map[string]any{"task_id": in.TaskID, "status": in.Status}, nil
		},
	})

	r.MustRegister(ToolDefinition{
		Name:        "add_subtask",
		Description: "Append a subtask to a task.",
		Permission:  PermissionWrite,
		CreditCost:  1,
		InputSchema: GenerateSchema[addSubtaskInput](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in addSubtaskInput
			if err := decode(raw, &in); err != nil {
				return nil, err
			}
			if err := requireUUID("task_id", in.TaskID); err != nil {
				return nil, err
			}
			t, err := d.Tasks.Get(ctx, in.TaskID)
			if err != nil {
				return nil, err
			}
			if t == nil {
				return nil, apperr.NotFound("TASK_NOT_FOUND", "task %s not found", in.TaskID)
			}
			sub := repository.Subtask{ID: uuid.NewString(), TaskID: in.TaskID, Title: in.Title}
			if err := d.Tasks.AddSubtask(ctx, sub); err != nil {
				return nil, err
			}
			return subtaskDTO{ID: sub.ID, Title: sub.Title, Done: false}, nil
		},
	})

	r.MustRegister(ToolDefinition{
		Name:        "complete_subtask",
		Description: "Mark a subtask done.",
		Permission:  PermissionWrite,
		CreditCost:  1,
		Idempotent:  true,
		InputSchema: GenerateSchema[completeSubtaskInput](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in completeSubtaskInput
			if err := decode(raw, &in); err != nil {
				return nil, err
			}
			if err := requireUUID("subtask_id", in.SubtaskID); err != nil {
				return nil, err
			}
			ok, err := d.Tasks.SetSubtaskDone(ctx, in.SubtaskID, true)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, apperr.NotFound("SUBTASK_NOT_FOUND", "subtask %s not found", in.SubtaskID)
			}
			return map[string]any{"subtask_id": in.SubtaskID, "done": true}, nil
		},
	})

	r.MustRegister(ToolDefinition{
		Name:        "delete_task",
		Description: "Permanently delete a task and its subtasks.",
		Permission:  PermissionAdmin,
		CreditCost:  5,
		InputSchema: GenerateSchema[deleteTaskInput](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in deleteTaskInput
			if err := decode(raw, &in); err != nil {
				return nil, err
			}
			if err := requireUUID("task_id", in.TaskID); err != nil {
				return nil, err
			}
			deleted, err := d.Tasks.Delete(ctx, in.TaskID)
			if err != nil {
				return nil, err
			}
			if !deleted {
				return nil, apperr.NotFound("TASK_NOT_FOUND", "task %s not found", in.TaskID)
			}
			return map[string]any{"task_id": in.TaskID, "deleted": true}, nil
		},
	})
}
