package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/huddlehq/huddle/internal/blob"
	"github.com/huddlehq/huddle/internal/logging"
	"github.com/huddlehq/huddle/internal/server"
	"github.com/huddlehq/huddle/internal/store"
	"go.uber.org/zap"
)

func main() {
	envFile := flag.String("env", ".env", "optional env file")
	flag.Parse()

	if err := run(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(envFile string) error {
	cfg, err := server.LoadConfig(envFile)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogPath, "huddle-server")
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	result, err := db.Migrate()
	if err != nil {
		return err
	}
	logger.Info("database ready",
		zap.String("path", cfg.DBPath),
		zap.Uint("from", result.From),
		zap.Uint("version", result.Version),
		zap.Bool("migrated", result.Changed))

	var blobs blob.Store
	switch cfg.BlobBackend {
	case "s3":
		blobs, err = blob.NewS3(ctx, cfg.S3)
	default:
		blobs, err = blob.NewLocal(cfg.BlobDir)
	}
	if err != nil {
		return fmt.Errorf("blob store: %w", err)
	}

	var broker server.Broker = server.NewLocalBroker()
	if cfg.RedisURL != "" {
		rb, err := server.ConnectRedis(ctx, cfg.RedisURL, logger)
		if err != nil {
			return err
		}
		broker = rb
		logger.Info("presence fan-out over redis")
	}
	defer func() { _ = broker.Close() }()

	hub := server.NewHub(broker, logger)
	if err := hub.Start(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.New(db, blobs, hub, int64(cfg.MaxUploadMB)<<20, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr), zap.String("blobs", cfg.BlobBackend))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
