package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/segyhp/finance-ledger/internal/handler"
	"github.com/segyhp/finance-ledger/pkg/response"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mocks struct {
	loans     *MockLoanService
	schedules *MockScheduleService
	journal   *MockJournalService
}

func newRouter(t *testing.T) (*mux.Router, *mocks) {
	t.Helper()

	m := &mocks{
		loans:     new(MockLoanService),
		schedules: new(MockScheduleService),
		journal:   new(MockJournalService),
	}
	v := handler.NewValidator()
	router := handler.NewRouter(handler.Handlers{
		Loans:     handler.NewLoanHandler(m.loans, v),
		Schedules: handler.NewScheduleHandler(m.schedules, v),
		Journal:   handler.NewJournalHandler(m.journal, v),
		Health:    handler.NewHealthHandler(nil, nil, time.Second),
	}, nil, nil)

	t.Cleanup(func() {
		m.loans.AssertExpectations(t)
		m.schedules.AssertExpectations(t)
		m.journal.AssertExpectations(t)
	})
	return router, m
}

func serve(router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// data unwraps the success envelope into dst
func data(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.True(t, envelope.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, dst))
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) response.ErrorResponse {
	t.Helper()
	var body response.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.False(t, body.Success)
	return body
}

var anyCtx = mock.Anything
