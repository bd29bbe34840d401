package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"ludoterm/mockauth"
)

const shutdownTimeout = 5 * time.Second

func serveMockAuthority(ctx context.Context, cfg *mockConfig, log *zap.Logger) error {
	script, err := mockauth.LoadScript(cfg.script)
	if err != nil {
		return err
	}

	server := mockauth.New(script, mockauth.Options{
		LogDir:  cfg.logDir,
		AIDelay: cfg.aiDelay,
		Logger:  log,
	})

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.bind, strconv.Itoa(cfg.port)),
		Handler:           server.Handler(),
		IdleTimeout:       10 * time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.Info("mock authority listening",
			zap.String("addr", "http://"+srv.Addr),
			zap.Int("turns", len(script.Turns)),
			zap.Duration("ai_delay", cfg.aiDelay),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("mock authority stopped")
	return nil
}
