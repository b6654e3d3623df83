package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/segyhp/finance-ledger/internal/bootstrap"
	"github.com/segyhp/finance-ledger/internal/config"
	"github.com/segyhp/finance-ledger/internal/handler"
	"github.com/segyhp/finance-ledger/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "json").Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	rt, err := bootstrap.Build(cfg, log)
	if err != nil {
		log.Error("failed to initialize backends", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := rt.Close(); err != nil {
			log.Warn("closing backends", "error", err)
		}
	}()

	validate := handler.NewValidator()
	router := handler.NewRouter(handler.Handlers{
		Loans:     handler.NewLoanHandler(rt.Services.Loans, validate),
		Schedules: handler.NewScheduleHandler(rt.Services.Schedules, validate),
		Journal:   handler.NewJournalHandler(rt.Services.Journal, validate),
		Health:    handler.NewHealthHandler(rt.DB, rt.RedisClient(), cfg.GetHealthTimeout()),
	}, rt.Metrics, log)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
	}

	// Start server in a goroutine
	go func() {
		log.Info("server starting", "addr", server.Addr, "env", cfg.Server.Env, "store", cfg.Database.Store)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		return
	}

	log.Info("server exited")
}
