package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/omnihq/omnicrm/internal/database"
	"github.com/omnihq/omnicrm/internal/service"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		fmt.Println("database is up to date:", a.cfg.Database.Path)
		return nil
	},
}

var flagResetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all data, keeping the schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !flagResetYes {
			return fmt.Errorf("refusing to wipe data without --yes")
		}
		ctx := cmd.Context()
		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		maintenance := &service.MaintenanceService{DB: a.db}
		if err := maintenance.Reset(ctx); err != nil {
			return err
		}
		if err := database.SeedDefaults(ctx, a.db); err != nil {
			return err
		}
		fmt.Println("all data deleted")
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&flagResetYes, "yes", false, "confirm the wipe")
	rootCmd.AddCommand(migrateCmd, resetCmd)
}
