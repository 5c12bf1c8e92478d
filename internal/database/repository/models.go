package repository

import "time"

// Lifecycle stages a contact moves through.
const (
	StageLead     = "lead"
	StageProspect = "prospect"
	StageActive   = "active"
	StageDormant  = "dormant"
	StageFormer   = "former"
)

// Contact represents a client row.
type Contact struct {
	ID             string
	FirstName      string
	LastName       string
	Email          *string
	Phone          *string
	LifecycleStage string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Tags           []Tag
}

// Tag represents a tag row.
type Tag struct {
	ID   string
	Name string
}

// Note represents a free-text entry attached to a contact. Sentiment and
// themes are computed at write time by keyword counting.
type Note struct {
	ID             string
	ContactID      string
	Body           string
	Sentiment      string
	SentimentScore int
	Themes         []string
	CreatedAt      time.Time
}

// Task statuses and priorities.
const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in_progress"
	TaskStatusDone       = "done"
	TaskStatusArchived   = "archived"
)

// Task represents a work item. Subtasks live in their own table rather than
// an embedded JSON column.
type Task struct {
	ID        string
	Title     string
	Status    string
	Priority  string
	Zone      *string
	DueDate   *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	Subtasks  []Subtask
}

// Subtask represents a task_subtasks row.
type Subtask struct {
	ID       string
	TaskID   string
	Title    string
	Done     bool
	Position int
}

// Goal represents a tracked objective. Progress history is an append-only
// goal_progress log, not a JSON details blob.
type Goal struct {
	ID          string
	Title       string
	Description string
	TargetValue *float64
	Unit        *string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Progress    []GoalProgress
}

// GoalProgress represents one progress entry.
type GoalProgress struct {
	ID         string
	GoalID     string
	Value      float64
	Note       *string
	RecordedAt time.Time
}

// Habit represents a recurring activity.
type Habit struct {
	ID        string
	Name      string
	Cadence   string
	CreatedAt time.Time
}

// HabitCompletion represents one per-date completion record.
type HabitCompletion struct {
	HabitID     string
	CompletedOn time.Time
	CreatedAt   time.Time
}

// KindCalendarEvent is the interactions.kind value for calendar events.
const KindCalendarEvent = "calendar_event"

// Event represents a calendar event stored as an interaction row.
type Event struct {
	ID          string
	Kind        string
	ContactID   *string
	Title       string
	Description string
	Location    *string
	StartsAt    time.Time
	EndsAt      time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Attendees   []string
}

// PulseLog represents one mood/energy entry per user per date.
type PulseLog struct {
	ID        string
	UserID    string
	LoggedOn  time.Time
	Mood      int
	Energy    int
	Stress    *int
	Notes     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
