package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segyhp/finance-ledger/internal/bootstrap"
	"github.com/segyhp/finance-ledger/internal/config"
	"github.com/segyhp/finance-ledger/internal/metrics"
	"github.com/segyhp/finance-ledger/internal/service"
	"github.com/segyhp/finance-ledger/pkg/logger"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "json").Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format).With("component", "scheduler")

	rt, err := bootstrap.Build(cfg, log)
	if err != nil {
		log.Error("failed to initialize backends", "error", err)
		os.Exit(1)
	}
	defer rt.Close()

	c := cron.New(cron.WithLocation(cfg.GetSchedulerLocation()))
	j := &jobs{
		loans:   rt.Services.Loans,
		metrics: rt.Metrics,
		logger:  log,
		window:  cfg.Business.ReminderWindowDays,
		loc:     cfg.GetSchedulerLocation(),
	}
	if err := j.register(c, cfg); err != nil {
		log.Error("failed to schedule jobs", "error", err)
		os.Exit(1)
	}

	var srv *http.Server
	if cfg.Scheduler.MetricsAddr != "" {
		srv = &http.Server{
			Addr:              cfg.Scheduler.MetricsAddr,
			Handler:           metricsRouter(rt.Metrics),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info("serving scheduler metrics", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics listener failed", "error", err)
			}
		}()
	}

	c.Start()
	log.Info("scheduler started", "timezone", cfg.Scheduler.Timezone)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down scheduler")
	<-c.Stop().Done()
	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("metrics listener shutdown failed", "error", err)
		}
	}
	log.Info("scheduler stopped")
}

// metricsRouter exposes the job counters and the overdue gauge for scraping
func metricsRouter(m *metrics.Metrics) http.Handler {
	r := mux.NewRouter()
	r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	return r
}

type jobs struct {
	loans   *service.LoanService
	metrics *metrics.Metrics
	logger  *slog.Logger
	window  int
	loc     *time.Location
}

func (j *jobs) register(c *cron.Cron, cfg *config.Config) error {
	if _, err := c.AddFunc(cfg.Scheduler.OverdueCron, j.run("overdue_scan", j.overdueScan)); err != nil {
		return err
	}
	if _, err := c.AddFunc(cfg.Scheduler.ReminderCron, j.run("payment_reminders", j.paymentReminders)); err != nil {
		return err
	}
	j.logger.Info("cron jobs scheduled", "overdue", cfg.Scheduler.OverdueCron, "reminders", cfg.Scheduler.ReminderCron)
	return nil
}

func (j *jobs) run(name string, job func(ctx context.Context, now time.Time) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		start := time.Now()
		err := job(ctx, start.In(j.loc))
		result := "success"
		if err != nil {
			result = "error"
			j.logger.Error("job failed", "job", name, "error", err)
		} else {
			j.logger.Info("job finished", "job", name, "duration", time.Since(start))
		}
		j.metrics.SchedulerRuns.WithLabelValues(name, result).Inc()
	}
}

// overdueScan logs every pending installment past its due date
func (j *jobs) overdueScan(ctx context.Context, now time.Time) error {
	overdue, err := j.loans.ListOverdueInstallments(ctx, now)
	if err != nil {
		return err
	}
	j.metrics.OverdueInstallments.Set(float64(len(overdue)))
	for _, inst := range overdue {
		j.logger.Warn("installment overdue",
			"loan_id", inst.LoanID,
			"user_id", inst.UserID,
			"installment", inst.Number,
			"due_date", inst.DueDate.Format("2006-01-02"),
			"outstanding", inst.Outstanding.StringFixed(2),
		)
	}
	return nil
}

// paymentReminders logs a reminder for each installment due inside the reminder window
func (j *jobs) paymentReminders(ctx context.Context, now time.Time) error {
	upcoming, err := j.loans.ListUpcomingInstallments(ctx, now, j.window)
	if err != nil {
		return err
	}
	for _, inst := range upcoming {
		j.logger.Info("payment reminder",
			"loan_id", inst.LoanID,
			"user_id", inst.UserID,
			"installment", inst.Number,
			"due_date", inst.DueDate.Format("2006-01-02"),
			"amount_due", inst.Outstanding.StringFixed(2),
		)
	}
	return nil
}
