package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "resume-builder/internal/adapter/http"
	repo "resume-builder/internal/adapter/repository"
	"resume-builder/internal/adapter/repository/memory"
	"resume-builder/internal/adapter/repository/sqlite"
	"resume-builder/internal/autosave"
	"resume-builder/internal/config"
	"resume-builder/internal/infrastructure/migration"
	"resume-builder/internal/render"
	"resume-builder/internal/usecase"
	infra "resume-builder/pkg/infrastructure"

	"github.com/gofiber/fiber/v2"
)

func main() {
	cfg := config.Load()
	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// openStore picks the persistence driver. The returned func releases it.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (usecase.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := infra.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := migration.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repo.NewDocumentsRepo(pool), pool.Close, nil
	case config.DriverSQLite:
		s, err := sqlite.NewStore(cfg.SQLiteDir)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using sqlite store", "path", s.Path())
		return s, func() { _ = s.Close() }, nil
	case config.DriverMemory:
		logger.Warn("using in-memory store; documents are lost on exit")
		return memory.NewStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	renderer, err := render.New(logger)
	if err != nil {
		return err
	}
	exporter := usecase.NewExporter(renderer, infra.NewChromedpRenderer(cfg.ChromePath),
		usecase.WithAttempts(cfg.ExportAttempts),
		usecase.WithArtifactDir(cfg.ArtifactDir),
		usecase.WithExportLogger(logger))
	manager := autosave.NewManager(
		autosave.WithQuietPeriod(cfg.AutosaveQuiet),
		autosave.WithSaveTimeout(cfg.AutosaveTimeout),
		autosave.WithRetry(cfg.AutosaveRetryBase, cfg.AutosaveRetryMax),
		autosave.WithLogger(logger))
	docs := usecase.NewDocumentService(store, renderer, exporter, manager,
		usecase.WithPreviewScale(cfg.PreviewScale),
		usecase.WithLogger(logger))

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	httpadapter.Register(app, httpadapter.NewHandler(docs, logger))

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "port", cfg.Port, "store", cfg.StoreDriver)
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	// pending edits are written before the store goes away
	return docs.Shutdown(shutdownCtx)
}
