package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/omnihq/omnicrm/internal/database"
	"github.com/omnihq/omnicrm/internal/database/repository"
)

func pulseSeries(start time.Time, moods ...int) []repository.PulseLog {
	logs := make([]repository.PulseLog, 0, len(moods))
	for i, m := range moods {
		logs = append(logs, repository.PulseLog{
			UserID:   "default",
			LoggedOn: start.AddDate(0, 0, i),
			Mood:     m,
			Energy:   m,
		})
	}
	return logs
}

func TestMoodTrendLabels(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) // a Monday

	improving := MoodTrend(pulseSeries(start, 5, 5, 6, 6))
	require.Equal(t, TrendImproving, improving.Trend)
	require.InDelta(t, 5.0, improving.FirstHalfAvg, 0.001)
	require.InDelta(t, 6.0, improving.SecondHalfAvg, 0.001)

	declining := MoodTrend(pulseSeries(start, 6, 6, 5, 5))
	require.Equal(t, TrendDeclining, declining.Trend)

	// within the 10% band either way
	stable := MoodTrend(pulseSeries(start, 5, 5, 5, 5))
	require.Equal(t, TrendStable, stable.Trend)
	require.InDelta(t, 5.0, stable.Average, 0.001)

	require.Equal(t, TrendInsufficientData, MoodTrend(pulseSeries(start, 7)).Trend)
	require.Equal(t, TrendInsufficientData, MoodTrend(nil).Trend)
}

func TestMoodTrendOddCountSplitsShortFirstHalf(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	report := MoodTrend(pulseSeries(start, 4, 4, 8))
	require.Equal(t, 3, report.Points)
	require.InDelta(t, 4.0, report.FirstHalfAvg, 0.001)
	require.InDelta(t, 6.0, report.SecondHalfAvg, 0.001)
	require.Equal(t, TrendImproving, report.Trend)
}

func TestMoodTrendByDayOfWeek(t *testing.T) {
	t.Parallel()
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	report := MoodTrend(pulseSeries(monday, 4, 6)) // Monday, Tuesday
	require.InDelta(t, 4.0, report.ByDayOfWeek["Monday"], 0.001)
	require.InDelta(t, 6.0, report.ByDayOfWeek["Tuesday"], 0.001)
}

func TestWellnessScoreCapAndLabels(t *testing.T) {
	t.Parallel()

	max := WellnessScore(10, 1, 1, 30)
	require.InDelta(t, 100, max.TotalScore, 0.001)
	require.InDelta(t, 40, max.MoodComponent, 0.001)
	require.InDelta(t, 10, max.StreakBonus, 0.001)
	require.Equal(t, "thriving", max.Label)

	mid := WellnessScore(5, 0.5, 0.5, 3)
	require.InDelta(t, 48, mid.TotalScore, 0.001)
	require.Equal(t, "steady", mid.Label)

	low := WellnessScore(0, 0, 0, 0)
	require.Zero(t, low.TotalScore)
	require.Equal(t, "strained", low.Label)

	// rates outside [0,1] are clamped
	clamped := WellnessScore(0, 2, -1, 0)
	require.InDelta(t, 30, clamped.TotalScore, 0.001)
}

func TestCorrelateHabitPositive(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	habit := repository.Habit{ID: uuid.NewString(), Name: "Morning meditation"}

	// seven days of alternating energy; completions land on three high days
	logs := pulseSeries(start, 8, 4, 8, 4, 8, 4, 8)
	completions := []time.Time{start, start.AddDate(0, 0, 2), start.AddDate(0, 0, 4)}

	c := CorrelateHabit(habit, logs, completions)
	require.Equal(t, CorrelationPositive, c.Correlation)
	require.Equal(t, 3, c.DaysWith)
	require.Equal(t, 4, c.DaysWithout)
	require.InDelta(t, 8.0, c.AvgEnergyWithHabit, 0.001)
	require.InDelta(t, 5.0, c.AvgEnergyWithoutHabit, 0.001)
}

func TestCorrelateHabitNeedsBothSides(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	habit := repository.Habit{ID: uuid.NewString(), Name: "Evening walk"}

	logs := pulseSeries(start, 6, 6)
	all := []time.Time{start, start.AddDate(0, 0, 1)}

	require.Equal(t, TrendInsufficientData, CorrelateHabit(habit, logs, all).Correlation)
	require.Equal(t, TrendInsufficientData, CorrelateHabit(habit, logs, nil).Correlation)
}

func TestAnalyzeCompletionsStreaks(t *testing.T) {
	t.Parallel()
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	// done yesterday and the day before, missed today: streak still counts
	dates := []time.Time{today.AddDate(0, 0, -1), today.AddDate(0, 0, -2)}
	p := AnalyzeCompletions(dates, today, 30)
	require.Equal(t, 2, p.CurrentStreak)
	require.Equal(t, 2, p.LongestStreak)

	// a gap resets the current streak but not the longest
	dates = []time.Time{
		today,
		today.AddDate(0, 0, -3),
		today.AddDate(0, 0, -4),
		today.AddDate(0, 0, -5),
	}
	p = AnalyzeCompletions(dates, today, 30)
	require.Equal(t, 1, p.CurrentStreak)
	require.Equal(t, 3, p.LongestStreak)
	require.InDelta(t, 4.0/30.0, p.CompletionRate, 0.001)
	require.Len(t, p.Heatmap, 4)
}

func TestAnalyzeCompletionsBestDay(t *testing.T) {
	t.Parallel()
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC) // a Tuesday
	dates := []time.Time{
		today,                   // Tuesday
		today.AddDate(0, 0, -7), // Tuesday
		today.AddDate(0, 0, -1), // Monday
	}
	p := AnalyzeCompletions(dates, today, 30)
	require.Equal(t, "Tuesday", p.BestDay)
}

func newAnalyticsService(t *testing.T) (*AnalyticsService, *sql.DB) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.RunMigrations(db))

	svc := &AnalyticsService{
		Pulse:  repository.NewPulseRepo(db),
		Habits: repository.NewHabitRepo(db),
		Tasks:  repository.NewTaskRepo(db),
	}
	return svc, db
}

func TestAnalyticsServiceEndToEnd(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, db := newAnalyticsService(t)

	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return today }

	pulse := repository.NewPulseRepo(db)
	habits := repository.NewHabitRepo(db)
	tasks := repository.NewTaskRepo(db)

	h := repository.Habit{ID: uuid.NewString(), Name: "Morning meditation", Cadence: "daily"}
	require.NoError(t, habits.Insert(ctx, h))

	// alternating energy over a week; habit done on the high days
	for i := 0; i < 7; i++ {
		day := today.AddDate(0, 0, -i)
		energy := 4
		if i%2 == 0 {
			energy = 8
			_, err := habits.LogCompletion(ctx, h.ID, day)
			require.NoError(t, err)
		}
		_, err := pulse.Upsert(ctx, repository.PulseLog{
			ID: uuid.NewString(), UserID: "default", LoggedOn: day, Mood: energy, Energy: energy,
		})
		require.NoError(t, err)
	}

	done := repository.Task{ID: uuid.NewString(), Title: "a", Status: repository.TaskStatusDone, Priority: "low"}
	require.NoError(t, tasks.Insert(ctx, done))

	trend, err := svc.MoodTrends(ctx, "default", 30)
	require.NoError(t, err)
	require.Equal(t, 7, trend.Points)

	correlations, err := svc.CorrelateMoodHabits(ctx, "default", 30)
	require.NoError(t, err)
	require.Len(t, correlations, 1)
	require.Equal(t, CorrelationPositive, correlations[0].Correlation)

	wellness, err := svc.Wellness(ctx, "default", 30)
	require.NoError(t, err)
	require.Greater(t, wellness.TotalScore, 0.0)
	require.LessOrEqual(t, wellness.TotalScore, 100.0)
	require.InDelta(t, 20, wellness.TaskComponent, 0.001)
}
