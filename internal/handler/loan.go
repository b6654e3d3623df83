package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/segyhp/finance-ledger/internal/domain"
	"github.com/segyhp/finance-ledger/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type LoanHandler struct {
	service   LoanService
	validator *validator.Validate
	now       func() time.Time
}

func NewLoanHandler(service LoanService, v *validator.Validate) *LoanHandler {
	if v == nil {
		v = NewValidator()
	}
	return &LoanHandler{
		service:   service,
		validator: v,
		now:       time.Now,
	}
}

// ApplyForLoan handles POST /loans
func (h *LoanHandler) ApplyForLoan(w http.ResponseWriter, r *http.Request) {
	var req domain.ApplyLoanRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	resp, err := h.service.ApplyForLoan(r.Context(), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, resp)
}

// ListLoans handles GET /loans?user_id=
func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryUUID(w, r, "user_id")
	if !ok {
		return
	}

	loans, err := h.service.ListLoans(r.Context(), userID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, loans)
}

func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}

	resp, err := h.service.GetLoan(r.Context(), loanID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, resp)
}

func (h *LoanHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Approve)
}

func (h *LoanHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Reject)
}

func (h *LoanHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Cancel)
}

func (h *LoanHandler) Close(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Close)
}

func (h *LoanHandler) transition(w http.ResponseWriter, r *http.Request, fire func(context.Context, uuid.UUID) (*domain.Loan, error)) {
	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}

	loan, err := fire(r.Context(), loanID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, loan)
}

// Disburse handles POST /loans/{loanId}/disburse
func (h *LoanHandler) Disburse(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}
	var req domain.DisburseRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	loan, err := h.service.Disburse(r.Context(), loanID, &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, loan)
}

func (h *LoanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), loanID); err != nil {
		response.FromError(w, err)
		return
	}
	response.NoContent(w)
}

// MakePayment handles POST /loans/{loanId}/payments
func (h *LoanHandler) MakePayment(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}
	var req domain.MakePaymentRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	resp, err := h.service.MakePayment(r.Context(), loanID, &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, resp)
}

func (h *LoanHandler) GetTransactionHistory(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}

	resp, err := h.service.GetTransactionHistory(r.Context(), loanID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, resp)
}

// ListOverdue handles GET /installments/overdue?as_of=YYYY-MM-DD
func (h *LoanHandler) ListOverdue(w http.ResponseWriter, r *http.Request) {
	asOf, ok := queryDate(w, r, "as_of", h.now())
	if !ok {
		return
	}

	overdue, err := h.service.ListOverdueInstallments(r.Context(), asOf)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, overdue)
}

// ListUpcoming handles GET /installments/upcoming?as_of=YYYY-MM-DD&days=N
func (h *LoanHandler) ListUpcoming(w http.ResponseWriter, r *http.Request) {
	asOf, ok := queryDate(w, r, "as_of", h.now())
	if !ok {
		return
	}
	days, ok := queryInt(w, r, "days")
	if !ok {
		return
	}

	upcoming, err := h.service.ListUpcomingInstallments(r.Context(), asOf, days)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, upcoming)
}
