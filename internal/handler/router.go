package handler

import (
	"log/slog"
	"net/http"

	"github.com/segyhp/finance-ledger/internal/metrics"
	"github.com/segyhp/finance-ledger/pkg/response"

	"github.com/gorilla/mux"
)

type Handlers struct {
	Loans     *LoanHandler
	Schedules *ScheduleHandler
	Journal   *JournalHandler
	Health    *HealthHandler
}

// NewRouter wires every route under /api/v1 plus /health and /metrics
func NewRouter(h Handlers, m *metrics.Metrics, logger *slog.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.CORSMiddleware)
	if logger != nil {
		router.Use(response.LoggingMiddleware(logger))
	}
	if m != nil {
		router.Use(m.Middleware)
		router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	}

	// Health check
	if h.Health != nil {
		router.HandleFunc("/health", h.Health.Health).Methods(http.MethodGet)
		router.HandleFunc("/health/ready", h.Health.Ready).Methods(http.MethodGet)
	}

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	loans := h.Loans
	api.HandleFunc("/loans", loans.ApplyForLoan).Methods(http.MethodPost)
	api.HandleFunc("/loans", loans.ListLoans).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}", loans.GetLoan).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}", loans.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/loans/{loanId}/approve", loans.Approve).Methods(http.MethodPost)
	api.HandleFunc("/loans/{loanId}/reject", loans.Reject).Methods(http.MethodPost)
	api.HandleFunc("/loans/{loanId}/cancel", loans.Cancel).Methods(http.MethodPost)
	api.HandleFunc("/loans/{loanId}/close", loans.Close).Methods(http.MethodPost)
	api.HandleFunc("/loans/{loanId}/disburse", loans.Disburse).Methods(http.MethodPost)
	api.HandleFunc("/loans/{loanId}/payments", loans.MakePayment).Methods(http.MethodPost)
	api.HandleFunc("/loans/{loanId}/transactions", loans.GetTransactionHistory).Methods(http.MethodGet)
	api.HandleFunc("/installments/overdue", loans.ListOverdue).Methods(http.MethodGet)
	api.HandleFunc("/installments/upcoming", loans.ListUpcoming).Methods(http.MethodGet)

	schedules := h.Schedules
	api.HandleFunc("/loans/{loanId}/schedule", schedules.GetSchedule).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}/schedule", schedules.AddSchedule).Methods(http.MethodPost)
	api.HandleFunc("/loans/{loanId}/schedule/auto", schedules.AutoAddSchedule).Methods(http.MethodPost)
	api.HandleFunc("/loans/{loanId}/schedule/extend", schedules.Extend).Methods(http.MethodPost)
	api.HandleFunc("/loans/{loanId}/schedule/regenerate", schedules.Regenerate).Methods(http.MethodPost)
	api.HandleFunc("/loans/{loanId}/schedule/{number:[0-9]+}", schedules.UpdateInstallment).Methods(http.MethodPatch)
	api.HandleFunc("/loans/{loanId}/schedule/{number:[0-9]+}", schedules.DeleteInstallment).Methods(http.MethodDelete)
	api.HandleFunc("/loans/{loanId}/schedule/{number:[0-9]+}/pay", schedules.MarkInstallmentPaid).Methods(http.MethodPost)

	journal := h.Journal
	api.HandleFunc("/journal/entries", journal.Record).Methods(http.MethodPost)
	api.HandleFunc("/journal/entries", journal.ListByUser).Methods(http.MethodGet)
	api.HandleFunc("/journal/entries/{entryId}", journal.Get).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}/journal", journal.ListByLoan).Methods(http.MethodGet)

	return router
}
