// Package handler exposes the loan, schedule and journal services over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/segyhp/finance-ledger/internal/domain"
	"github.com/segyhp/finance-ledger/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type LoanService interface {
	ApplyForLoan(ctx context.Context, req *domain.ApplyLoanRequest) (*domain.ApplyLoanResponse, error)
	GetLoan(ctx context.Context, loanID uuid.UUID) (*domain.LoanDetailResponse, error)
	ListLoans(ctx context.Context, userID uuid.UUID) ([]*domain.Loan, error)
	Approve(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error)
	Reject(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error)
	Cancel(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error)
	Close(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error)
	Disburse(ctx context.Context, loanID uuid.UUID, req *domain.DisburseRequest) (*domain.Loan, error)
	Delete(ctx context.Context, loanID uuid.UUID) error
	MakePayment(ctx context.Context, loanID uuid.UUID, req *domain.MakePaymentRequest) (*domain.PaymentResponse, error)
	GetTransactionHistory(ctx context.Context, loanID uuid.UUID) (*domain.TransactionHistoryResponse, error)
	ListOverdueInstallments(ctx context.Context, asOf time.Time) ([]*domain.OverdueInstallment, error)
	ListUpcomingInstallments(ctx context.Context, asOf time.Time, days int) ([]*domain.OverdueInstallment, error)
}

type ScheduleService interface {
	GetSchedule(ctx context.Context, loanID uuid.UUID) (*domain.ScheduleResponse, error)
	Extend(ctx context.Context, loanID uuid.UUID, req *domain.ExtendScheduleRequest) (*domain.ScheduleResponse, error)
	AddSchedule(ctx context.Context, loanID uuid.UUID, req *domain.AddScheduleRequest) (*domain.ScheduleResponse, error)
	AutoAddSchedule(ctx context.Context, loanID uuid.UUID, req *domain.AutoAddScheduleRequest) (*domain.ScheduleResponse, error)
	Regenerate(ctx context.Context, loanID uuid.UUID, req *domain.RegenerateScheduleRequest) (*domain.ScheduleResponse, error)
	DeleteInstallment(ctx context.Context, loanID uuid.UUID, number int) (*domain.ScheduleResponse, error)
	UpdateInstallment(ctx context.Context, loanID uuid.UUID, number int, req *domain.UpdateInstallmentRequest) (*domain.ScheduleResponse, error)
	MarkInstallmentPaid(ctx context.Context, loanID uuid.UUID, number int, req *domain.MarkInstallmentPaidRequest) (*domain.PaymentResponse, error)
}

type JournalService interface {
	Record(ctx context.Context, req *domain.RecordJournalEntryRequest) (*domain.JournalEntry, error)
	Get(ctx context.Context, entryID uuid.UUID) (*domain.JournalEntry, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.JournalEntry, error)
	ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.JournalEntry, error)
}

// decode reads a JSON body into dst and validates it. It writes the 400 itself and reports
// whether the handler may continue.
func decode(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst interface{}) bool {
	if r.Body == nil || r.ContentLength == 0 {
		response.BadRequest(w, "Request body is required", nil)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return false
	}
	if err := v.Struct(dst); err != nil {
		response.BadRequest(w, "Validation failed", validationError(err))
		return false
	}
	return true
}

func validationError(err error) error {
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return err
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", f.Field(), f.Tag(), f.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s", f.Field(), f.Tag()))
		}
	}
	return errors.New(strings.Join(parts, "; "))
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		response.BadRequest(w, "Invalid "+name, err)
		return uuid.Nil, false
	}
	return id, true
}

func pathNumber(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := strconv.Atoi(mux.Vars(r)["number"])
	if err != nil || n < 1 {
		response.BadRequest(w, "Invalid installment number", err)
		return 0, false
	}
	return n, true
}

func queryUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		response.BadRequest(w, name+" is required", nil)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		response.BadRequest(w, "Invalid "+name, err)
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		response.BadRequest(w, "Invalid "+name, err)
		return 0, false
	}
	return n, true
}

// queryDate parses YYYY-MM-DD, defaulting to now
func queryDate(w http.ResponseWriter, r *http.Request, name string, now time.Time) (time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return now, true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		response.BadRequest(w, "Invalid "+name+", expected YYYY-MM-DD", err)
		return time.Time{}, false
	}
	return t, true
}
