package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go-chi-calculator/internal/calculator"
	"go-chi-calculator/internal/config"
	"go-chi-calculator/internal/observability"
	"go-chi-calculator/internal/server"
	"go-chi-calculator/internal/sessions"

	"go.uber.org/zap"
)

func main() {

	ctx := context.Background()

	// Config
	if err := loadDotEnv(); err != nil {
		panic(err)
	}
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	locale, err := cfg.LanguageTag()
	if err != nil {
		panic(err)
	}

	// Logger
	err = observability.InitLogger()
	if err != nil {
		panic(err)
	}
	defer observability.SyncLogger()

	// Sessions
	store := sessions.NewStore(sessions.StoreConfig{
		TTL:           cfg.SessionTTL,
		SweepInterval: cfg.SweepInterval,
		MaxSessions:   cfg.MaxSessions,
	}, observability.Logger)

	// Tracing, metrics, logs
	telemetryShutdown, err := initTelemetry(ctx, cfg, store)
	if err != nil {
		panic(err)
	}
	defer telemetryShutdown(ctx)

	runCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	go store.Run(runCtx)

	// Router
	handler := sessions.NewHandler(store, calculator.NewFormatter(locale))
	router := server.NewRouter(handler)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}

	go func() {
		observability.Logger.Info("server started",
			zap.String("addr", cfg.Addr),
			zap.String("locale", locale.String()),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(err)
		}
	}()

	waitForShutdown(srv, cfg)
}

func waitForShutdown(srv *http.Server, cfg config.Config) {

	stop := make(chan os.Signal, 1)

	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		observability.Logger.Error("server shutdown failed", zap.Error(err))
		return
	}
	observability.Logger.Info("server stopped")
}
