package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	database "github.com/FACorreiaa/skill-registry/app/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}

		dbConfig, err := database.NewDatabaseConfig(cfg, logger)
		if err != nil {
			return fmt.Errorf("database config: %w", err)
		}
		if err := database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
			return err
		}
		logger.Info("Migrations complete", slog.String("service", serviceName))
		return nil
	},
}
