package handler_test

import (
	"net/http"
	"testing"

	"github.com/segyhp/finance-ledger/internal/domain"
	customError "github.com/segyhp/finance-ledger/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestJournalHandler_Record(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name           string
		body           map[string]interface{}
		setupMock      func(*MockJournalService)
		expectedStatus int
	}{
		{
			name: "expense recorded",
			body: map[string]interface{}{"kind": "expense", "user_id": userID, "amount": "42.10", "category": "groceries"},
			setupMock: func(m *MockJournalService) {
				m.On("Record", anyCtx, mock.MatchedBy(func(req *domain.RecordJournalEntryRequest) bool {
					return req.Kind == domain.JournalKindExpense && req.Category == "groceries"
				})).Return(&domain.JournalEntry{ID: uuid.New(), EntryType: domain.EntryTypeExpense}, nil).Once()
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "unknown kind",
			body:           map[string]interface{}{"kind": "lottery", "user_id": userID, "amount": "1"},
			setupMock:      func(m *MockJournalService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing user",
			body:           map[string]interface{}{"kind": "income", "amount": "1"},
			setupMock:      func(m *MockJournalService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "same account transfer",
			body: map[string]interface{}{"kind": "bank_transfer", "user_id": userID, "amount": "5", "bank_account": "BCA", "to_bank_account": "BCA"},
			setupMock: func(m *MockJournalService) {
				m.On("Record", anyCtx, mock.Anything).Return(nil, customError.WrapTransferSameAccount("Bank Account - BCA")).Once()
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, m := newRouter(t)
			tt.setupMock(m.journal)

			w := serve(router, http.MethodPost, "/api/v1/journal/entries", tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
		})
	}
}

func TestJournalHandler_Listing(t *testing.T) {
	userID := uuid.New()
	loanID := uuid.New()
	entryID := uuid.New()
	router, m := newRouter(t)

	m.journal.On("ListByUser", anyCtx, userID, 5).Return([]*domain.JournalEntry{{ID: entryID}}, nil).Once()
	m.journal.On("ListByLoan", anyCtx, loanID).Return([]*domain.JournalEntry{}, nil).Once()
	m.journal.On("Get", anyCtx, entryID).Return(&domain.JournalEntry{ID: entryID}, nil).Once()

	w := serve(router, http.MethodGet, "/api/v1/journal/entries?user_id="+userID.String()+"&limit=5", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var entries []*domain.JournalEntry
	data(t, w, &entries)
	assert.Len(t, entries, 1)

	w = serve(router, http.MethodGet, "/api/v1/loans/"+loanID.String()+"/journal", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(router, http.MethodGet, "/api/v1/journal/entries/"+entryID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(router, http.MethodGet, "/api/v1/journal/entries?user_id="+userID.String()+"&limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
