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

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/Lllllllleong/pagepick/internal/config"
	"github.com/Lllllllleong/pagepick/internal/gcp"
	"github.com/Lllllllleong/pagepick/internal/handler"
	"github.com/Lllllllleong/pagepick/internal/router"
	"github.com/Lllllllleong/pagepick/internal/services"
	s3storage "github.com/Lllllllleong/pagepick/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server stopped with error.", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	slog.SetDefault(cfg.Log.NewLogger(os.Stdout))
	if err := cfg.ValidateServer(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	archive, err := newArchiveStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize archive store: %w", err)
	}

	// Initialize handlers
	extractor := services.NewExtractor()
	healthH := handler.NewHealthHandler()
	extractH := handler.NewExtractHandler(extractor, cfg, archive)

	r := router.Setup(healthH, extractH, cfg.Upload.MaxFileSize())
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Server starting.", "addr", srv.Addr, "archive", cfg.Archive.Provider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		slog.Info("Shutting down server.")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newArchiveStore returns the configured store, or nil when archiving is off.
func newArchiveStore(ctx context.Context, cfg *config.Config) (services.ObjectStore, error) {
	switch cfg.Archive.Provider {
	case config.ArchiveS3:
		client, err := s3storage.NewClient(ctx, &cfg.S3)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.ArchiveGCS:
		client, err := gcp.NewStorageClient(ctx)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, nil
	}
}
