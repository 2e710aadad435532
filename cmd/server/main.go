package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/surenab/ireland-property-market-backend/internal/api"
	"github.com/surenab/ireland-property-market-backend/internal/cache"
	"github.com/surenab/ireland-property-market-backend/internal/config"
	"github.com/surenab/ireland-property-market-backend/internal/database"
)

func main() {
	serve := serveCmd()

	rootCmd := &cobra.Command{
		Use:   "property-server",
		Short: "Ireland property sale records API",
		RunE:  serve.RunE,
	}
	rootCmd.Flags().AddFlagSet(serve.Flags())

	rootCmd.AddCommand(serve)
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var (
		port   string
		dbPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			if port != "" {
				cfg.Port = port
			}
			if dbPath != "" {
				cfg.DBPath = dbPath
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "listen address, e.g. :8080 (overrides PORT)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (overrides DB_PATH)")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	db := database.GetDB()

	// Apply pending migrations so a fresh database serves immediately
	if err := database.NewMigrator(db, cfg.MigrationsPath).Up(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	store := cache.NewMemory(cfg.CacheTTL)
	defer store.Close()

	router := api.SetupRouter(cfg, db, store)

	log.Printf("[Server] listening on %s", cfg.Port)
	return router.Run(cfg.Port)
}

func migrateCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			if dbPath != "" {
				cfg.DBPath = dbPath
			}
			if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer database.Close()

			return database.NewMigrator(database.GetDB(), cfg.MigrationsPath).Up(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (overrides DB_PATH)")
	return cmd
}
