package testdata

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/omnihq/omnicrm/internal/database/repository"
)

// Repos bundles repos used by Seed.
type Repos struct {
	Contacts *repository.ContactRepo
	Tags     *repository.TagRepo
	Notes    *repository.NoteRepo
	Tasks    *repository.TaskRepo
	Habits   *repository.HabitRepo
	Pulse    *repository.PulseRepo
}

// Seed creates a plausible demo dataset: a handful of clients with notes,
// open tasks, two habits with spotty completion history, and a month of
// pulse logs for the default user.
func Seed(ctx context.Context, repos Repos) error {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	names := [][2]string{
		{"Maya", "Chen"},
		{"Jordan", "Oduya"},
		{"Priya", "Raman"},
		{"Sam", "Whitfield"},
		{"Elena", "Vasquez"},
	}
	stages := []string{
		repository.StageActive,
		repository.StageActive,
		repository.StageProspect,
		repository.StageLead,
		repository.StageDormant,
	}
	noteBodies := []string{
		"Great session today, client felt calm and rested after breathwork.",
		"Struggling with sleep again, work stress is piling up.",
		"Energized and motivated, wants to add a morning yoga block.",
		"Tired this week, partner conflict draining energy.",
	}

	for i, n := range names {
		c := repository.Contact{
			ID:             uuid.NewString(),
			FirstName:      n[0],
			LastName:       n[1],
			LifecycleStage: stages[i],
		}
		email := fmt.Sprintf("%s.%s@example.com", n[0], n[1])
		c.Email = &email
		if err := repos.Contacts.Insert(ctx, c); err != nil {
			return err
		}
		if tag, err := repos.Tags.ByName(ctx, "new-client"); err == nil && tag != nil && i < 2 {
			_ = repos.Contacts.AttachTag(ctx, c.ID, tag.ID)
		}
		for j := 0; j < 1+rng.Intn(3); j++ {
			note := repository.Note{
				ID:        uuid.NewString(),
				ContactID: c.ID,
				Body:      noteBodies[rng.Intn(len(noteBodies))],
				Sentiment: "neutral",
			}
			if err := repos.Notes.Insert(ctx, note); err != nil {
				return err
			}
		}
	}

	taskTitles := []string{
		"Prepare retreat schedule",
		"Follow up with waitlist",
		"Order new yoga mats",
		"Write March newsletter",
		"Renew insurance",
	}
	for i, title := range taskTitles {
		status := repository.TaskStatusTodo
		if i%2 == 0 {
			status = repository.TaskStatusDone
		}
		due := today.AddDate(0, 0, rng.Intn(14))
		t := repository.Task{
			ID:       uuid.NewString(),
			Title:    title,
			Status:   status,
			Priority: []string{"low", "medium", "high"}[rng.Intn(3)],
			DueDate:  &due,
		}
		if err := repos.Tasks.Insert(ctx, t); err != nil {
			return err
		}
	}

	habits := []repository.Habit{
		{ID: uuid.NewString(), Name: "Morning meditation", Cadence: "daily"},
		{ID: uuid.NewString(), Name: "Evening walk", Cadence: "daily"},
	}
	for _, h := range habits {
		if err := repos.Habits.Insert(ctx, h); err != nil {
			return err
		}
		for d := 0; d < 30; d++ {
			if rng.Intn(10) < 6 {
				if _, err := repos.Habits.LogCompletion(ctx, h.ID, today.AddDate(0, 0, -d)); err != nil {
					return err
				}
			}
		}
	}

	for d := 0; d < 30; d++ {
		stress := 2 + rng.Intn(6)
		p := repository.PulseLog{
			ID:       uuid.NewString(),
			UserID:   "default",
			LoggedOn: today.AddDate(0, 0, -d),
			Mood:     4 + rng.Intn(6),
			Energy:   3 + rng.Intn(7),
			Stress:   &stress,
		}
		if _, err := repos.Pulse.Upsert(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
