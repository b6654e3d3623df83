package handler

import (
	"net/http"

	"github.com/segyhp/finance-ledger/internal/domain"
	"github.com/segyhp/finance-ledger/pkg/response"

	"github.com/go-playground/validator/v10"
)

type JournalHandler struct {
	service   JournalService
	validator *validator.Validate
}

func NewJournalHandler(service JournalService, v *validator.Validate) *JournalHandler {
	if v == nil {
		v = NewValidator()
	}
	return &JournalHandler{service: service, validator: v}
}

// Record handles POST /journal/entries
func (h *JournalHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req domain.RecordJournalEntryRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	entry, err := h.service.Record(r.Context(), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, entry)
}

// ListByUser handles GET /journal/entries?user_id=&limit=
func (h *JournalHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryUUID(w, r, "user_id")
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}

	entries, err := h.service.ListByUser(r.Context(), userID, limit)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, entries)
}

func (h *JournalHandler) Get(w http.ResponseWriter, r *http.Request) {
	entryID, ok := pathUUID(w, r, "entryId")
	if !ok {
		return
	}

	entry, err := h.service.Get(r.Context(), entryID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, entry)
}

// ListByLoan handles GET /loans/{loanId}/journal
func (h *JournalHandler) ListByLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}

	entries, err := h.service.ListByLoan(r.Context(), loanID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, entries)
}
