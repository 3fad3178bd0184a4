package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"assettracker/internal/config"
	"assettracker/internal/core/container"
	"assettracker/internal/core/logger"
	"assettracker/internal/core/routes"
	"assettracker/internal/database"
	"assettracker/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Version is set at build time with -ldflags "-X assettracker/cmd.Version=...".
var Version = "dev"

func newMigrateCmd(cfg config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations.",
		Long:  `Applies every pending migration. Embedded migrations are used unless --dir is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := logger.NewLogger(cfg.LogLevel)
			defer log.Sync()

			migrationDir, _ := cmd.Flags().GetString("dir")
			if err := database.RunMigrations(cfg.DatabaseURL, migrationDir, log); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}

			return nil
		},
	}
	cmd.Flags().String("dir", cfg.MigrationsDir, "Directory containing the migration files")

	return cmd
}

func newServeCmd(cfg config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			migrate, _ := cmd.Flags().GetBool("migrate")
			return serve(cmd.Context(), cfg, migrate)
		},
	}
	cmd.Flags().Bool("migrate", true, "Apply pending migrations before serving")

	return cmd
}

func serve(ctx context.Context, cfg config.Config, migrate bool) error {
	log := logger.NewLogger(cfg.LogLevel)
	defer log.Sync()

	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is not set")
	}

	if migrate {
		if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir, log); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	db, err := database.NewPostgresConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info("Connected to the database successfully")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	gin.SetMode(gin.ReleaseMode)
	middleware.SetVersion(Version)
	app := container.NewAppContainer(db, cfg, log)
	go app.RateLimiter.Run(ctx, time.Minute)

	router := routes.NewRouter(app, cfg.RequestTimeout, log)
	server := &http.Server{
		Addr:              cfg.AppHost,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("addr", cfg.AppHost))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	middleware.UpdateHealthStatus("shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func Execute(ctx context.Context) {
	cfg := config.Load()

	rootCmd := &cobra.Command{
		Use:     "assettracker",
		Short:   "IT asset inventory service",
		Version: Version,
	}
	rootCmd.AddCommand(newServeCmd(cfg), newMigrateCmd(cfg))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
