package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PabloGalante/heartdx/internal/adapters/scoring/mockserver"
	"github.com/PabloGalante/heartdx/internal/config"
	"github.com/PabloGalante/heartdx/internal/observability"
)

func main() {
	cfg := config.Load()
	observability.Setup(os.Stdout, cfg.LogLevel)
	log := observability.Logger()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mockserver.NewServer(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("scoring service listening", "addr", srv.Addr, "model_version", mockserver.ModelVersion)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown failed", "error", err)
		os.Exit(1)
	}
}
