package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quizrec/internal/catalog"
	"quizrec/internal/configuration"
	"quizrec/internal/events"
	"quizrec/internal/metrics"
	"quizrec/internal/score"
	"quizrec/internal/server"
	"quizrec/internal/service"
	"quizrec/internal/session"

	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the recommendation HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := configuration.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("unable to load configuration: %w", err)
			}
			prepareLogger(config.Logger.Level, os.Stdout)

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return serve(ctx, config)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "/etc/quizrec/config.yaml", "configuration file")
	return cmd
}

// serve runs the service until ctx is cancelled.
func serve(ctx context.Context, config *configuration.AppConfig) error {
	preset, err := loadPreset(config.Quiz.Preset, config.Quiz.Rules)
	if err != nil {
		return fmt.Errorf("unable to load rules: %w", err)
	}
	engine, err := preset.Engine(score.WithWorkers(config.Quiz.Workers))
	if err != nil {
		return fmt.Errorf("unable to initialize engine: %w", err)
	}

	products, err := catalog.Load(config.Quiz.Catalog, config.Quiz.CatalogFormat)
	if err != nil {
		return fmt.Errorf("unable to load catalog: %w", err)
	}
	slog.Info("Catalog loaded", "preset", preset.Name, "products", products.Len(), "rules", len(preset.Scoring.Rules))

	sessions := session.NewRepository(
		config.Sessions.Length,
		config.Sessions.TTL,
		session.WithCleanInterval(config.Sessions.CleanInterval),
	)
	go sessions.Serve()
	defer sessions.Stop()

	var eventsRepo events.Repository = events.NopRepository{}
	if config.Events.File != "" {
		eventsRepo = events.NewJSONRepository(config.Events.File, config.Events.Size, config.Events.Amount)
	}
	defer func() {
		if err := eventsRepo.Close(); err != nil {
			slog.Error("Events close", "error", err)
		}
	}()

	m := metrics.New()
	svc := service.New(service.Dependencies{
		Preset:       preset,
		Engine:       engine,
		Catalog:      products,
		Sessions:     sessions,
		Events:       eventsRepo,
		Metrics:      m,
		DefaultLimit: config.Quiz.DefaultLimit,
	})

	srv := server.NewServer(config.Server, config.Quiz, svc, m)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	slog.Info("Server listening " + config.Server.Address)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second*10)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown", "error", err)
	}
	slog.Info("Server stopped")
	return nil
}
