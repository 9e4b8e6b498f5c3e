package cmd

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	appLogger "github.com/FACorreiaa/skill-registry/app/logger"
	"github.com/FACorreiaa/skill-registry/config"
)

const serviceName = "skill-registry"

// Version is overridden at build time with -ldflags "-X .../cmd.Version=...".
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   serviceName,
	Short: "Registry API for uploading, tagging and sharing skill files",
	Long: `Skill registry HTTP API.

Without a subcommand it behaves like "serve": migrations are applied and the
API and metrics servers start.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "Start without applying database migrations")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

// bootstrap loads .env and configuration and installs the process logger.
func bootstrap() (*config.Config, *slog.Logger, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("initializing config: %w", err)
	}

	logger := appLogger.New(os.Stdout, cfg.IsDevelopment())
	slog.SetDefault(logger)
	return &cfg, logger, nil
}
