package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"badminton-scoring/internal/config"
	"badminton-scoring/internal/handlers"
	"badminton-scoring/internal/middleware"
	"badminton-scoring/internal/session"
	"badminton-scoring/internal/store"
)

func main() {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Choose store backend via STORE_BACKEND env var.
	kv, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize store")
	}
	records := store.New(kv, store.WithLogger(logger))
	defer records.Close()

	sess := session.New(records, logger)
	state := sess.Restore(ctx)
	switch {
	case state.Match != nil && state.TeamMatch != nil:
		logger.Info("Resuming sub-match in progress")
	case state.Match != nil:
		logger.Info("Resuming quick match in progress")
	case state.TeamMatch != nil:
		logger.WithField("title", state.TeamMatch.Title).Info("Resuming team match")
	}

	h := handlers.New(sess, logger)
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           middleware.CORS(cfg.CORSOrigin)(h.Router()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Handle shutdown signals
	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop

		logger.Info("Shutting down...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("HTTP server shutdown error")
		}
	}()

	logger.WithField("backend", cfg.Store.Backend).Info("Server starting")
	fmt.Printf("Server running on http://%s\n", cfg.ListenAddr)
	fmt.Printf("Allowed CORS origin: %s\n", cfg.CORSOrigin)

	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("HTTP server error")
	}

	logger.Info("Server stopped")
}
