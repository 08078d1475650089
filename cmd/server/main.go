package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"fitwell/backend/internal/config"
	"fitwell/backend/internal/logger"
	"fitwell/backend/internal/repository/mongo"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd creates the top-level "fitwell" command. Running it without a
// subcommand starts the server.
func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "fitwell",
		Short:         "Fitness planning backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", ".", "directory containing config.yaml")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP API server",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runServe(cmd.Context(), configPath)
			},
		},
		&cobra.Command{
			Use:   "ensure-indexes",
			Short: "Create MongoDB indexes and exit",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runEnsureIndexes(cmd.Context(), configPath)
			},
		},
	)
	return root
}

// bootstrap loads configuration and builds the logger shared by commands.
func bootstrap(configPath string) (config.Config, *logger.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return cfg, nil, fmt.Errorf("loading config: %w", err)
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return cfg, nil, fmt.Errorf("building logger: %w", err)
	}
	return cfg, log, nil
}

func runEnsureIndexes(ctx context.Context, configPath string) error {
	cfg, log, err := bootstrap(configPath)
	if err != nil {
		return err
	}
	defer log.Sync()

	client, err := mongo.ConnectDB(ctx, cfg.Database.URI)
	if err != nil {
		return fmt.Errorf("connecting to MongoDB: %w", err)
	}
	defer func() {
		if err := mongo.DisconnectDB(client); err != nil {
			log.Warn("Failed to disconnect MongoDB", "error", err)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	if err := mongo.EnsureIndexes(ctx, client.Database(cfg.Database.Name), log); err != nil {
		return fmt.Errorf("ensuring indexes: %w", err)
	}
	log.Info("Indexes ensured", "database", cfg.Database.Name)
	return nil
}
