package service

import (
	"context"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/omnihq/omnicrm/internal/database/repository"
)

// Trend labels.
const (
	TrendImproving        = "improving"
	TrendDeclining        = "declining"
	TrendStable           = "stable"
	TrendInsufficientData = "insufficient_data"
)

// trendThreshold is the relative change between half-averages that separates
// stable from improving/declining.
const trendThreshold = 0.10

// correlationDelta is the minimum energy gap between with-habit and
// without-habit days before the correlation is labelled.
const correlationDelta = 0.5

// TrendReport summarizes mood over a window.
type TrendReport struct {
	Trend         string             `json:"trend"`
	Points        int                `json:"points"`
	Average       float64            `json:"average"`
	FirstHalfAvg  float64            `json:"first_half_avg"`
	SecondHalfAvg float64            `json:"second_half_avg"`
	ByDayOfWeek   map[string]float64 `json:"by_day_of_week"`
}

// MoodTrend labels a series of mood values. Fewer than two points is
// insufficient data; otherwise the first-half average is compared against the
// second-half average with a 10% threshold.
func MoodTrend(logs []repository.PulseLog) TrendReport {
	report := TrendReport{ByDayOfWeek: dayOfWeekAverages(logs)}
	report.Points = len(logs)
	if len(logs) < 2 {
		report.Trend = TrendInsufficientData
		return report
	}

	moods := make([]float64, len(logs))
	for i, l := range logs {
		moods[i] = float64(l.Mood)
	}
	report.Average = mean(moods)

	half := len(moods) / 2
	report.FirstHalfAvg = mean(moods[:half])
	report.SecondHalfAvg = mean(moods[half:])

	switch {
	case report.FirstHalfAvg == 0:
		report.Trend = TrendStable
	case report.SecondHalfAvg > report.FirstHalfAvg*(1+trendThreshold):
		report.Trend = TrendImproving
	case report.SecondHalfAvg < report.FirstHalfAvg*(1-trendThreshold):
		report.Trend = TrendDeclining
	default:
		report.Trend = TrendStable
	}
	return report
}

func dayOfWeekAverages(logs []repository.PulseLog) map[string]float64 {
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, l := range logs {
		day := l.LoggedOn.Weekday().String()
		sums[day] += float64(l.Mood)
		counts[day]++
	}
	out := map[string]float64{}
	for day, sum := range sums {
		out[day] = round2(sum / float64(counts[day]))
	}
	return out
}

// WellnessReport is the composite score with its parts. TotalScore never
// exceeds 100.
type WellnessReport struct {
	TotalScore     float64 `json:"totalScore"`
	MoodComponent  float64 `json:"mood_component"`      // avg mood x4, max 40
	HabitComponent float64 `json:"habit_component"`     // completion rate x30
	TaskComponent  float64 `json:"task_component"`      // completion rate x20
	StreakBonus    float64 `json:"streak_bonus"`        // best current streak, max 10
	Label          string  `json:"label"`               // thriving | steady | strained
}

// WellnessScore combines mood, habit consistency, task completion and streaks.
func WellnessScore(avgMood, habitRate, taskRate float64, bestStreak int) WellnessReport {
	r := WellnessReport{
		MoodComponent:  math.Min(avgMood*4, 40),
		HabitComponent: clamp01f(habitRate) * 30,
		TaskComponent:  clamp01f(taskRate) * 20,
		StreakBonus:    math.Min(float64(bestStreak), 10),
	}
	total := r.MoodComponent + r.HabitComponent + r.TaskComponent + r.StreakBonus
	r.TotalScore = round2(math.Min(total, 100))
	switch {
	case r.TotalScore >= 70:
		r.Label = "thriving"
	case r.TotalScore >= 40:
		r.Label = "steady"
	default:
		r.Label = "strained"
	}
	return r
}

// Correlation labels.
const (
	CorrelationPositive = "positive"
	CorrelationNegative = "negative"
	CorrelationNeutral  = "neutral"
)

// HabitCorrelation compares average energy on days a habit was completed
// against the remaining days.
type HabitCorrelation struct {
	HabitID               string  `json:"habit_id"`
	HabitName             string  `json:"habit_name"`
	Correlation           string  `json:"correlation"`
	AvgEnergyWithHabit    float64 `json:"avgEnergyWithHabit"`
	AvgEnergyWithoutHabit float64 `json:"avgEnergyWithoutHabit"`
	DaysWith              int     `json:"days_with"`
	DaysWithout           int     `json:"days_without"`
}

// CorrelateHabit partitions pulse logs by whether the habit was completed on
// that date. Either side being empty yields insufficient_data.
func CorrelateHabit(habit repository.Habit, logs []repository.PulseLog, completions []time.Time) HabitCorrelation {
	done := map[string]bool{}
	for _, d := range completions {
		done[d.Format("2006-01-02")] = true
	}

	var with, without []float64
	for _, l := range logs {
		if done[l.LoggedOn.Format("2006-01-02")] {
			with = append(with, float64(l.Energy))
		} else {
			without = append(without, float64(l.Energy))
		}
	}

	c := HabitCorrelation{
		HabitID:     habit.ID,
		HabitName:   habit.Name,
		DaysWith:    len(with),
		DaysWithout: len(without),
	}
	if len(with) == 0 || len(without) == 0 {
		c.Correlation = TrendInsufficientData
		return c
	}
	c.AvgEnergyWithHabit = round2(mean(with))
	c.AvgEnergyWithoutHabit = round2(mean(without))
	diff := c.AvgEnergyWithHabit - c.AvgEnergyWithoutHabit
	switch {
	case diff >= correlationDelta:
		c.Correlation = CorrelationPositive
	case diff <= -correlationDelta:
		c.Correlation = CorrelationNegative
	default:
		c.Correlation = CorrelationNeutral
	}
	return c
}

// HabitPattern summarizes completion behaviour over a window.
type HabitPattern struct {
	CurrentStreak  int            `json:"current_streak"`
	LongestStreak  int            `json:"longest_streak"`
	CompletionRate float64        `json:"completion_rate"`
	BestDay        string         `json:"best_day"`
	Heatmap        map[string]int `json:"heatmap"`
}

// AnalyzeCompletions derives streaks and a heatmap from completion dates.
// The current streak counts consecutive days ending today or yesterday.
func AnalyzeCompletions(dates []time.Time, today time.Time, windowDays int) HabitPattern {
	p := HabitPattern{Heatmap: map[string]int{}}
	if windowDays <= 0 {
		windowDays = 30
	}

	done := map[string]bool{}
	dayCounts := map[time.Weekday]int{}
	for _, d := range dates {
		key := d.Format("2006-01-02")
		if !done[key] {
			done[key] = true
			dayCounts[d.Weekday()]++
		}
		p.Heatmap[key]++
	}
	p.CompletionRate = round2(float64(len(done)) / float64(windowDays))

	// current streak: walk back from today, forgiving a miss today
	cursor := today
	if !done[cursor.Format("2006-01-02")] {
		cursor = cursor.AddDate(0, 0, -1)
	}
	for done[cursor.Format("2006-01-02")] {
		p.CurrentStreak++
		cursor = cursor.AddDate(0, 0, -1)
	}

	// longest streak over sorted distinct days
	keys := make([]string, 0, len(done))
	for k := range done {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	run := 0
	var prev time.Time
	for i, k := range keys {
		d, _ := time.ParseInLocation("2006-01-02", k, time.UTC)
		if i > 0 && d.Sub(prev) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > p.LongestStreak {
			p.LongestStreak = run
		}
		prev = d
	}

	best := time.Sunday
	bestCount := 0
	for day, n := range dayCounts {
		if n > bestCount || (n == bestCount && day < best) {
			best, bestCount = day, n
		}
	}
	if bestCount > 0 {
		p.BestDay = best.String()
	}
	return p
}

// AnalyticsService runs the wellness analytics over repository data.
type AnalyticsService struct {
	Pulse  *repository.PulseRepo
	Habits *repository.HabitRepo
	Tasks  *repository.TaskRepo
	Now    func() time.Time
}

func (s *AnalyticsService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *AnalyticsService) windowStart(days int) time.Time {
	if days <= 0 {
		days = 30
	}
	n := s.now()
	day := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -(days - 1))
}

// MoodTrends fetches the pulse window and labels the trend.
func (s *AnalyticsService) MoodTrends(ctx context.Context, userID string, days int) (TrendReport, error) {
	logs, err := s.Pulse.ListSince(ctx, userID, s.windowStart(days))
	if err != nil {
		return TrendReport{}, err
	}
	return MoodTrend(logs), nil
}

// Wellness computes the composite score for a user over a window.
func (s *AnalyticsService) Wellness(ctx context.Context, userID string, days int) (WellnessReport, error) {
	if days <= 0 {
		days = 30
	}
	since := s.windowStart(days)

	logs, err := s.Pulse.ListSince(ctx, userID, since)
	if err != nil {
		return WellnessReport{}, err
	}
	avgMood := 0.0
	if len(logs) > 0 {
		moods := make([]float64, len(logs))
		for i, l := range logs {
			moods[i] = float64(l.Mood)
		}
		avgMood = mean(moods)
	}

	habits, err := s.Habits.List(ctx)
	if err != nil {
		return WellnessReport{}, err
	}
	habitRate := 0.0
	bestStreak := 0
	if len(habits) > 0 {
		var sum float64
		for _, h := range habits {
			dates, err := s.Habits.CompletionsSince(ctx, h.ID, since)
			if err != nil {
				return WellnessReport{}, err
			}
			pattern := AnalyzeCompletions(dates, s.now(), days)
			sum += pattern.CompletionRate
			if pattern.CurrentStreak > bestStreak {
				bestStreak = pattern.CurrentStreak
			}
		}
		habitRate = sum / float64(len(habits))
	}

	taskRate, err := s.Tasks.CompletionRate(ctx)
	if err != nil {
		return WellnessReport{}, err
	}

	return WellnessScore(avgMood, habitRate, taskRate, bestStreak), nil
}

// CorrelateMoodHabits analyzes each habit in parallel; habits are independent
// so the per-habit queries fan out on an errgroup.
func (s *AnalyticsService) CorrelateMoodHabits(ctx context.Context, userID string, days int) ([]HabitCorrelation, error) {
	since := s.windowStart(days)

	logs, err := s.Pulse.ListSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	habits, err := s.Habits.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]HabitCorrelation, len(habits))
	g, gctx := errgroup.WithContext(ctx)
	for i, h := range habits {
		g.Go(func() error {
			completions, err := s.Habits.CompletionsSince(gctx, h.ID, since)
			if err != nil {
				return err
			}
			out[i] = CorrelateHabit(h, logs, completions)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// HabitPatterns derives streaks and heatmap for one habit.
func (s *AnalyticsService) HabitPatterns(ctx context.Context, habitID string, days int) (HabitPattern, error) {
	if days <= 0 {
		days = 30
	}
	dates, err := s.Habits.CompletionsSince(ctx, habitID, s.windowStart(days))
	if err != nil {
		return HabitPattern{}, err
	}
	return AnalyzeCompletions(dates, s.now(), days), nil
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func clamp01f(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
