package main

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/omnihq/omnicrm/internal/config"
	"github.com/omnihq/omnicrm/internal/database"
	"github.com/omnihq/omnicrm/internal/database/repository"
	"github.com/omnihq/omnicrm/internal/logger"
	"github.com/omnihq/omnicrm/internal/service"
	"github.com/omnihq/omnicrm/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

var flagLogLevel string

var rootCmd = &cobra.Command{
	Use:   "omnicrm",
	Short: "Client CRM and wellness tracker for solo practitioners",
	Long: `omnicrm manages clients, session notes, tasks, goals, habits, calendar
events and daily mood logs. Every operation is exposed as a metered tool that
the built-in assistant and the HTTP API share.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Configure(flagLogLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

// app bundles everything a command needs after bootstrap.
type app struct {
	cfg      config.Config
	db       *sql.DB
	registry *tools.Registry
}

func (a *app) Close() { _ = a.db.Close() }

// bootstrap loads config, migrates and seeds the database, and wires the
// registry the way main always has.
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.Log.File != "" {
		if _, err := logger.SetupFile(cfg.Log.File); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := database.SeedDefaults(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	contacts := repository.NewContactRepo(db)
	tags := repository.NewTagRepo(db)
	notes := repository.NewNoteRepo(db)
	tasks := repository.NewTaskRepo(db)
	goals := repository.NewGoalRepo(db)
	habits := repository.NewHabitRepo(db)
	events := repository.NewEventRepo(db)
	pulse := repository.NewPulseRepo(db)

	analytics := &service.AnalyticsService{Pulse: pulse, Habits: habits, Tasks: tasks}

	registry := tools.New(tools.Deps{
		Contacts:  contacts,
		Tags:      tags,
		Notes:     notes,
		Tasks:     tasks,
		Goals:     goals,
		Habits:    habits,
		Events:    events,
		Pulse:     pulse,
		Analytics: analytics,
	}, tools.Options{
		StartingCredits: cfg.Metering.StartingCredits,
		CacheSize:       cfg.Metering.CacheSize,
	})

	return &app{cfg: cfg, db: db, registry: registry}, nil
}
