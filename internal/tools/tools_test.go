package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/omnihq/omnicrm/internal/apperr"
	"github.com/omnihq/omnicrm/internal/database"
	"github.com/omnihq/omnicrm/internal/database/repository"
	"github.com/omnihq/omnicrm/internal/service"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.RunMigrations(db))
	require.NoError(t, database.SeedDefaults(context.Background(), db))

	pulse := repository.NewPulseRepo(db)
	habits := repository.NewHabitRepo(db)
	tasks := repository.NewTaskRepo(db)
	now := func() time.Time { return testNow }

	return New(Deps{
		Contacts:  repository.NewContactRepo(db),
		Tags:      repository.NewTagRepo(db),
		Notes:     repository.NewNoteRepo(db),
		Tasks:     tasks,
		Goals:     repository.NewGoalRepo(db),
		Habits:    habits,
		Events:    repository.NewEventRepo(db),
		Pulse:     pulse,
		Analytics: &service.AnalyticsService{Pulse: pulse, Habits: habits, Tasks: tasks, Now: now},
		Now:       now,
	}, Options{StartingCredits: 10_000})
}

func invoke(t *testing.T, r *Registry, name, input string) map[string]any {
	t.Helper()
	payload, err := r.Invoke(context.Background(), Caller{ID: "t", Permission: PermissionAdmin}, name, json.RawMessage(input))
	require.NoError(t, err, "tool %s", name)
	var out map[string]any
	require.NoError(t, json.Unmarshal(payload, &out))
	return out
}

func invokeErr(t *testing.T, r *Registry, name, input string) *apperr.AppError {
	t.Helper()
	_, err := r.Invoke(context.Background(), Caller{ID: "t", Permission: PermissionAdmin}, name, json.RawMessage(input))
	require.Error(t, err, "tool %s", name)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	return ae
}

func TestContactToolsLifecycle(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(t)

	created := invoke(t, r, "create_contact", `{"first_name":"Maya","last_name":"Chen","email":"maya@example.com","tags":["vip"]}`)
	id := created["id"].(string)
	require.Equal(t, "lead", created["lifecycle_stage"])
	require.Equal(t, []any{"vip"}, created["tags"])

	got := invoke(t, r, "get_contact", fmt.Sprintf(`{"contact_id":%q}`, id))
	require.Equal(t, "Maya", got["first_name"])

	moved := invoke(t, r, "update_lifecycle_stage", fmt.Sprintf(`{"contact_id":%q,"stage":"active"}`, id))
	require.Equal(t, "active", moved["lifecycle_stage"])

	search := invoke(t, r, "search_contacts", `{"query":"maya"}`)
	require.EqualValues(t, 1, search["count"])

	// malformed uuid is stopped by schema validation
	ae := invokeErr(t, r, "get_contact", `{"contact_id":"not-a-uuid"}`)
	require.Equal(t, "INVALID_PARAMS", ae.Code)

	// unknown stage is stopped by the enum
	ae = invokeErr(t, r, "update_lifecycle_stage", fmt.Sprintf(`{"contact_id":%q,"stage":"vanished"}`, id))
	require.Equal(t, "INVALID_PARAMS", ae.Code)

	ae = invokeErr(t, r, "get_contact", `{"contact_id":"00000000-0000-0000-0000-000000000099"}`)
	require.Equal(t, "CONTACT_NOT_FOUND", ae.Code)
	require.Contains(t, ae.Message, "00000000-0000-0000-0000-000000000099")

	invoke(t, r, "delete_contact", fmt.Sprintf(`{"contact_id":%q}`, id))
	ae = invokeErr(t, r, "delete_contact", fmt.Sprintf(`{"contact_id":%q}`, id))
	require.Equal(t, "CONTACT_NOT_FOUND", ae.Code)
}

func TestNoteToolsDeriveSentiment(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(t)

	created := invoke(t, r, "create_contact", `{"first_name":"Priya"}`)
	id := created["id"].(string)

	note := invoke(t, r, "add_note", fmt.Sprintf(`{"contact_id":%q,"body":"Tired and stressed, work deadline pressure."}`, id))
	require.Equal(t, "negative", note["sentiment"])
	themes := note["themes"].([]any)
	require.Contains(t, themes, "stress")
	require.Contains(t, themes, "work")

	insights := invoke(t, r, "get_note_insights", fmt.Sprintf(`{"contact_id":%q}`, id))
	require.EqualValues(t, 1, insights["note_count"])
	sentiments := insights["sentiments"].(map[string]any)
	require.EqualValues(t, 1, sentiments["negative"])
}

func TestTaskToolsSubtasks(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(t)

	task := invoke(t, r, "create_task", `{"title":"Prepare retreat","priority":"high","due_date":"2026-04-01"}`)
	id := task["id"].(string)
	require.Equal(t, "todo", task["status"])

	sub := invoke(t, r, "add_subtask", fmt.Sprintf(`{"task_id":%q,"title":"Book venue"}`, id))
	subID := sub["id"].(string)

	invoke(t, r, "complete_subtask", fmt.Sprintf(`{"subtask_id":%q}`, subID))
	invoke(t, r, "update_task_status", fmt.Sprintf(`{"task_id":%q,"status":"done"}`, id))

	got := invoke(t, r, "get_task", fmt.Sprintf(`{"task_id":%q}`, id))
	require.Equal(t, "done", got["status"])
	subtasks := got["subtasks"].([]any)
	require.Len(t, subtasks, 1)
	require.Equal(t, true, subtasks[0].(map[string]any)["done"])

	ae := invokeErr(t, r, "create_task", `{"title":"x","due_date":"01/04/2026"}`)
	require.Equal(t, "INVALID_PARAMS", ae.Code)
}

func TestGoalToolsProgress(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(t)

	goal := invoke(t, r, "create_goal", `{"title":"Run 12 retreats","target_value":12,"unit":"retreats"}`)
	id := goal["id"].(string)
	require.Equal(t, "active", goal["status"])

	invoke(t, r, "log_goal_progress", fmt.Sprintf(`{"goal_id":%q,"value":3,"note":"Q1 done"}`, id))
	updated := invoke(t, r, "log_goal_progress", fmt.Sprintf(`{"goal_id":%q,"value":5}`, id))
	require.EqualValues(t, 5, updated["current_value"])
	require.Len(t, updated["progress"].([]any), 2)

	invoke(t, r, "update_goal_status", fmt.Sprintf(`{"goal_id":%q,"status":"completed"}`, id))
	list := invoke(t, r, "list_goals", `{"status":"completed"}`)
	require.EqualValues(t, 1, list["count"])
}

func TestHabitToolsIdempotentLogging(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(t)

	habit := invoke(t, r, "create_habit", `{"name":"Morning meditation"}`)
	id := habit["id"].(string)
	require.Equal(t, "daily", habit["cadence"])

	first := invoke(t, r, "log_habit_completion", fmt.Sprintf(`{"habit_id":%q,"date":"2026-03-10"}`, id))
	require.Equal(t, "logged", first["action"])

	second := invoke(t, r, "log_habit_completion", fmt.Sprintf(`{"habit_id":%q,"date":"2026-03-10"}`, id))
	require.Equal(t, "already_logged", second["action"])

	patterns := invoke(t, r, "get_habit_patterns", fmt.Sprintf(`{"habit_id":%q}`, id))
	pattern := patterns["pattern"].(map[string]any)
	require.EqualValues(t, 1, pattern["current_streak"])
}

func TestCalendarToolsTimeRange(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(t)

	ae := invokeErr(t, r, "create_event", `{"title":"Backwards","starts_at":"2026-03-12T10:00:00Z","ends_at":"2026-03-12T09:00:00Z"}`)
	require.Equal(t, "INVALID_TIME_RANGE", ae.Code)

	event := invoke(t, r, "create_event", `{"title":"Intro session","starts_at":"2026-03-12T09:00:00Z","ends_at":"2026-03-12T10:00:00Z","attendees":["maya@example.com"]}`)
	id := event["id"].(string)
	require.Equal(t, []any{"maya@example.com"}, event["attendees"])

	list := invoke(t, r, "list_events", `{"from":"2026-03-12T00:00:00Z","to":"2026-03-13T00:00:00Z"}`)
	require.EqualValues(t, 1, list["count"])

	moved := invoke(t, r, "update_event", fmt.Sprintf(`{"event_id":%q,"starts_at":"2026-03-12T11:00:00Z","ends_at":"2026-03-12T12:00:00Z"}`, id))
	require.Equal(t, "2026-03-12T11:00:00Z", moved["starts_at"])

	invoke(t, r, "delete_event", fmt.Sprintf(`{"event_id":%q}`, id))
	ae = invokeErr(t, r, "delete_event", fmt.Sprintf(`{"event_id":%q}`, id))
	require.Equal(t, "EVENT_NOT_FOUND", ae.Code)
}

func TestPulseToolsUpsert(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(t)

	first := invoke(t, r, "log_mood", `{"user_id":"default","mood":6,"energy":5,"date":"2026-03-10"}`)
	require.Equal(t, "created", first["action"])

	second := invoke(t, r, "log_mood", `{"user_id":"default","mood":8,"energy":7,"date":"2026-03-10"}`)
	require.Equal(t, "updated", second["action"])
	pulse := second["pulse"].(map[string]any)
	require.EqualValues(t, 8, pulse["mood"])

	// mood outside 1..10 is a schema violation
	ae := invokeErr(t, r, "log_mood", `{"user_id":"default","mood":11,"energy":5}`)
	require.Equal(t, "INVALID_PARAMS", ae.Code)

	ae = invokeErr(t, r, "get_daily_pulse", `{"user_id":"default","date":"2026-03-09"}`)
	require.Equal(t, "PULSE_NOT_FOUND", ae.Code)

	got := invoke(t, r, "get_daily_pulse", `{"user_id":"default","date":"2026-03-10"}`)
	require.Equal(t, "2026-03-10", got["logged_on"])
}

func TestWellnessToolsOverSeededData(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(t)

	habit := invoke(t, r, "create_habit", `{"name":"Morning meditation"}`)
	habitID := habit["id"].(string)

	// alternating energy over a week; habit done on the high days
	for i := 0; i < 7; i++ {
		day := testNow.AddDate(0, 0, -i).Format("2006-01-02")
		mood := 4
		if i%2 == 0 {
			mood = 8
			invoke(t, r, "log_habit_completion", fmt.Sprintf(`{"habit_id":%q,"date":%q}`, habitID, day))
		}
		invoke(t, r, "log_mood", fmt.Sprintf(`{"user_id":"default","mood":%d,"energy":%d,"date":%q}`, mood, mood, day))
	}

	trends := invoke(t, r, "get_mood_trends", `{"user_id":"default","days":30}`)
	require.EqualValues(t, 7, trends["points"])

	correlations := invoke(t, r, "correlate_mood_habits", `{"user_id":"default"}`)
	list := correlations["correlations"].([]any)
	require.Len(t, list, 1)
	require.Equal(t, "positive", list[0].(map[string]any)["correlation"])

	score := invoke(t, r, "get_wellness_score", `{"user_id":"default"}`)
	require.LessOrEqual(t, score["totalScore"].(float64), 100.0)
	require.Greater(t, score["totalScore"].(float64), 0.0)

	// no data for an unknown user is still a valid trend answer
	empty := invoke(t, r, "get_mood_trends", `{"user_id":"nobody"}`)
	require.Equal(t, "insufficient_data", empty["trend"])
}
