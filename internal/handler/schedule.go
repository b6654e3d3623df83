package handler

import (
	"net/http"

	"github.com/segyhp/finance-ledger/internal/domain"
	"github.com/segyhp/finance-ledger/pkg/response"

	"github.com/go-playground/validator/v10"
)

type ScheduleHandler struct {
	service   ScheduleService
	validator *validator.Validate
}

func NewScheduleHandler(service ScheduleService, v *validator.Validate) *ScheduleHandler {
	if v == nil {
		v = NewValidator()
	}
	return &ScheduleHandler{service: service, validator: v}
}

func (h *ScheduleHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}

	resp, err := h.service.GetSchedule(r.Context(), loanID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, resp)
}

// Extend handles POST /loans/{loanId}/schedule/extend
func (h *ScheduleHandler) Extend(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}
	var req domain.ExtendScheduleRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	resp, err := h.service.Extend(r.Context(), loanID, &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, resp)
}

// AddSchedule handles POST /loans/{loanId}/schedule
func (h *ScheduleHandler) AddSchedule(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}
	var req domain.AddScheduleRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	resp, err := h.service.AddSchedule(r.Context(), loanID, &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, resp)
}

// AutoAddSchedule handles POST /loans/{loanId}/schedule/auto
func (h *ScheduleHandler) AutoAddSchedule(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}
	var req domain.AutoAddScheduleRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	resp, err := h.service.AutoAddSchedule(r.Context(), loanID, &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, resp)
}

func (h *ScheduleHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}
	var req domain.RegenerateScheduleRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	resp, err := h.service.Regenerate(r.Context(), loanID, &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, resp)
}

// UpdateInstallment handles PATCH /loans/{loanId}/schedule/{number}
func (h *ScheduleHandler) UpdateInstallment(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}
	number, ok := pathNumber(w, r)
	if !ok {
		return
	}
	var req domain.UpdateInstallmentRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	resp, err := h.service.UpdateInstallment(r.Context(), loanID, number, &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, resp)
}

func (h *ScheduleHandler) DeleteInstallment(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}
	number, ok := pathNumber(w, r)
	if !ok {
		return
	}

	resp, err := h.service.DeleteInstallment(r.Context(), loanID, number)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, resp)
}

// MarkInstallmentPaid handles POST /loans/{loanId}/schedule/{number}/pay
func (h *ScheduleHandler) MarkInstallmentPaid(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}
	number, ok := pathNumber(w, r)
	if !ok {
		return
	}
	var req domain.MarkInstallmentPaidRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	resp, err := h.service.MarkInstallmentPaid(r.Context(), loanID, number, &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, resp)
}
