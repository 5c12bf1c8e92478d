package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/omnihq/omnicrm/internal/config"
	"github.com/omnihq/omnicrm/internal/database/repository"
	"github.com/omnihq/omnicrm/internal/secrets"
	"github.com/omnihq/omnicrm/internal/testdata"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		fmt.Println("database.path:", cfg.Database.Path)
		fmt.Println("llm.model:", cfg.LLM.Model)
		fmt.Println("llm.base_url:", cfg.LLM.BaseURL)
		fmt.Println("server.addr:", cfg.Server.Addr)
		fmt.Println("metering.starting_credits:", cfg.Metering.StartingCredits)
		fmt.Println("metering.cache_size:", cfg.Metering.CacheSize)
		fmt.Println("log.level:", cfg.Log.Level)
		return nil
	},
}

var configSetKeyCmd = &cobra.Command{
	Use:   "set-key <api-key>",
	Short: "Store the OpenAI API key in the encrypted secret store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := secrets.StoreProviderKey("openai", args[0]); err != nil {
			return err
		}
		fmt.Println("key stored")
		return nil
	},
}

var seedDemoCmd = &cobra.Command{
	Use:   "seed-demo",
	Short: "Populate the database with sample clients, tasks, habits and mood logs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		err = testdata.Seed(ctx, testdata.Repos{
			Contacts: repository.NewContactRepo(a.db),
			Tags:     repository.NewTagRepo(a.db),
			Notes:    repository.NewNoteRepo(a.db),
			Tasks:    repository.NewTaskRepo(a.db),
			Habits:   repository.NewHabitRepo(a.db),
			Pulse:    repository.NewPulseRepo(a.db),
		})
		if err != nil {
			return err
		}
		fmt.Println("demo data seeded")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetKeyCmd)
	rootCmd.AddCommand(configCmd, seedDemoCmd)
}
