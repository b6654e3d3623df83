package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/segyhp/finance-ledger/internal/domain"
	customError "github.com/segyhp/finance-ledger/pkg/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestLoanHandler_ApplyForLoan(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name           string
		requestBody    interface{}
		setupMock      func(*MockLoanService)
		expectedStatus int
		checkResponse  func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name: "successful application",
			requestBody: map[string]interface{}{
				"user_id":         userID,
				"principal":       "1000",
				"term":            12,
				"interest_method": "FLAT_RATE",
			},
			setupMock: func(m *MockLoanService) {
				m.On("ApplyForLoan", anyCtx, mock.MatchedBy(func(req *domain.ApplyLoanRequest) bool {
					return req.UserID == userID &&
						req.Principal.Equal(decimal.NewFromInt(1000)) &&
						req.Term == 12 &&
						req.InterestMethod == domain.InterestMethodFlatRate &&
						req.InterestRate == nil
				})).Return(&domain.ApplyLoanResponse{
					Loan: &domain.Loan{ID: uuid.New(), UserID: userID, Status: domain.LoanStatusPending},
				}, nil).Once()
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp domain.ApplyLoanResponse
				data(t, w, &resp)
				if assert.NotNil(t, resp.Loan) {
					assert.Equal(t, userID, resp.Loan.UserID)
					assert.Equal(t, domain.LoanStatusPending, resp.Loan.Status)
				}
			},
		},
		{
			name:           "non-positive principal",
			requestBody:    map[string]interface{}{"user_id": userID, "principal": "0"},
			setupMock:      func(m *MockLoanService) {},
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				body := errorBody(t, w)
				assert.Contains(t, body.Error, "decimal_gt")
			},
		},
		{
			name:           "negative interest rate",
			requestBody:    map[string]interface{}{"user_id": userID, "principal": "100", "interest_rate": "-1"},
			setupMock:      func(m *MockLoanService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown method",
			requestBody:    map[string]interface{}{"user_id": userID, "principal": "100", "interest_method": "BALLOON"},
			setupMock:      func(m *MockLoanService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed json",
			requestBody:    `{"user_id": `,
			setupMock:      func(m *MockLoanService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "service rejects terms",
			requestBody: map[string]interface{}{"user_id": userID, "principal": "100"},
			setupMock: func(m *MockLoanService) {
				m.On("ApplyForLoan", anyCtx, mock.Anything).
					Return(nil, customError.WrapInsufficientPayment("1.00", "2.00")).Once()
			},
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				assert.Equal(t, customError.ErrCodeInsufficientPayment, errorBody(t, w).Code)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, m := newRouter(t)
			tt.setupMock(m.loans)

			w := serve(router, http.MethodPost, "/api/v1/loans", tt.requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.checkResponse != nil {
				tt.checkResponse(t, w)
			}
		})
	}
}

func TestLoanHandler_Transitions(t *testing.T) {
	loanID := uuid.New()

	tests := []struct {
		name           string
		path           string
		method         string
		err            error
		expectedStatus int
	}{
		{name: "approve", path: "approve", method: "Approve", expectedStatus: http.StatusOK},
		{name: "reject conflict", path: "reject", method: "Reject", err: customError.WrapInvalidTransition(loanID.String(), "ACTIVE", "reject"), expectedStatus: http.StatusConflict},
		{name: "cancel missing", path: "cancel", method: "Cancel", err: customError.WrapLoanNotFound(loanID.String()), expectedStatus: http.StatusNotFound},
		{name: "close", path: "close", method: "Close", expectedStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, m := newRouter(t)
			if tt.err != nil {
				m.loans.On(tt.method, anyCtx, loanID).Return(nil, tt.err).Once()
			} else {
				m.loans.On(tt.method, anyCtx, loanID).Return(&domain.Loan{ID: loanID}, nil).Once()
			}

			w := serve(router, http.MethodPost, "/api/v1/loans/"+loanID.String()+"/"+tt.path, nil)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
		})
	}
}

func TestLoanHandler_InvalidLoanID(t *testing.T) {
	router, _ := newRouter(t)

	w := serve(router, http.MethodGet, "/api/v1/loans/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoanHandler_Disburse(t *testing.T) {
	loanID := uuid.New()

	t.Run("requires bank account", func(t *testing.T) {
		router, _ := newRouter(t)
		w := serve(router, http.MethodPost, "/api/v1/loans/"+loanID.String()+"/disburse", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bank failure is internal", func(t *testing.T) {
		router, m := newRouter(t)
		m.loans.On("Disburse", anyCtx, loanID, &domain.DisburseRequest{BankAccountID: "ACC-1"}).
			Return(nil, customError.WrapBankError(assert.AnError)).Once()

		w := serve(router, http.MethodPost, "/api/v1/loans/"+loanID.String()+"/disburse", map[string]string{"bank_account_id": "ACC-1"})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), assert.AnError.Error())
	})
}

func TestLoanHandler_MakePayment(t *testing.T) {
	loanID := uuid.New()
	router, m := newRouter(t)

	m.loans.On("MakePayment", anyCtx, loanID, mock.MatchedBy(func(req *domain.MakePaymentRequest) bool {
		return req.Amount.Equal(decimal.RequireFromString("250.50")) && req.Reference == "TRX-1"
	})).Return(&domain.PaymentResponse{
		Payment: &domain.Payment{Reference: "TRX-1", Amount: decimal.RequireFromString("250.50")},
		Loan:    &domain.Loan{ID: loanID},
	}, nil).Once()

	w := serve(router, http.MethodPost, "/api/v1/loans/"+loanID.String()+"/payments", map[string]string{
		"amount": "250.50", "method": "BANK_TRANSFER", "reference": "TRX-1",
	})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp domain.PaymentResponse
	data(t, w, &resp)
	assert.Equal(t, "TRX-1", resp.Payment.Reference)

	w = serve(router, http.MethodPost, "/api/v1/loans/"+loanID.String()+"/payments", map[string]string{
		"amount": "10", "method": "CASH",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "reference is required")

	w = serve(router, http.MethodPost, "/api/v1/loans/"+loanID.String()+"/payments", map[string]string{
		"amount": "0.001", "method": "CASH", "reference": "TRX-2",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "sub-cent amounts are rejected before the service")
}

func TestLoanHandler_DeleteAndHistory(t *testing.T) {
	loanID := uuid.New()
	router, m := newRouter(t)

	m.loans.On("Delete", anyCtx, loanID).Return(nil).Once()
	m.loans.On("GetTransactionHistory", anyCtx, loanID).Return(&domain.TransactionHistoryResponse{
		LoanID:       loanID,
		Transactions: []*domain.Payment{{TransactionType: domain.TransactionTypeDisbursement}},
	}, nil).Once()

	w := serve(router, http.MethodDelete, "/api/v1/loans/"+loanID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = serve(router, http.MethodGet, "/api/v1/loans/"+loanID.String()+"/transactions", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var history domain.TransactionHistoryResponse
	data(t, w, &history)
	assert.Len(t, history.Transactions, 1)
}

func TestLoanHandler_ListLoans(t *testing.T) {
	userID := uuid.New()
	router, m := newRouter(t)

	w := serve(router, http.MethodGet, "/api/v1/loans", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	m.loans.On("ListLoans", anyCtx, userID).Return([]*domain.Loan{{UserID: userID}, {UserID: userID}}, nil).Once()
	w = serve(router, http.MethodGet, "/api/v1/loans?user_id="+userID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var loans []*domain.Loan
	data(t, w, &loans)
	assert.Len(t, loans, 2)
}

func TestLoanHandler_Installments(t *testing.T) {
	router, m := newRouter(t)
	asOf := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	m.loans.On("ListUpcomingInstallments", anyCtx, asOf, 5).Return([]*domain.OverdueInstallment{{Number: 2}}, nil).Once()
	w := serve(router, http.MethodGet, "/api/v1/installments/upcoming?as_of=2026-03-01&days=5", nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	m.loans.On("ListOverdueInstallments", anyCtx, asOf).Return([]*domain.OverdueInstallment{}, nil).Once()
	w = serve(router, http.MethodGet, "/api/v1/installments/overdue?as_of=2026-03-01", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(router, http.MethodGet, "/api/v1/installments/overdue?as_of=03/01/2026", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	router, _ := newRouter(t)

	w := serve(router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(router, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"memory"`)
}
