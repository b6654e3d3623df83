package handler_test

import (
	"context"
	"time"

	"github.com/segyhp/finance-ledger/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockLoanService struct {
	mock.Mock
}

func (m *MockLoanService) ApplyForLoan(ctx context.Context, req *domain.ApplyLoanRequest) (*domain.ApplyLoanResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ApplyLoanResponse), args.Error(1)
}

func (m *MockLoanService) GetLoan(ctx context.Context, loanID uuid.UUID) (*domain.LoanDetailResponse, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanDetailResponse), args.Error(1)
}

func (m *MockLoanService) ListLoans(ctx context.Context, userID uuid.UUID) ([]*domain.Loan, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Loan), args.Error(1)
}

func (m *MockLoanService) loan(method string, ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	args := m.MethodCalled(method, ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanService) Approve(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	return m.loan("Approve", ctx, loanID)
}

func (m *MockLoanService) Reject(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	return m.loan("Reject", ctx, loanID)
}

func (m *MockLoanService) Cancel(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	return m.loan("Cancel", ctx, loanID)
}

func (m *MockLoanService) Close(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	return m.loan("Close", ctx, loanID)
}

func (m *MockLoanService) Disburse(ctx context.Context, loanID uuid.UUID, req *domain.DisburseRequest) (*domain.Loan, error) {
	args := m.Called(ctx, loanID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanService) Delete(ctx context.Context, loanID uuid.UUID) error {
	args := m.Called(ctx, loanID)
	return args.Error(0)
}

func (m *MockLoanService) MakePayment(ctx context.Context, loanID uuid.UUID, req *domain.MakePaymentRequest) (*domain.PaymentResponse, error) {
	args := m.Called(ctx, loanID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentResponse), args.Error(1)
}

func (m *MockLoanService) GetTransactionHistory(ctx context.Context, loanID uuid.UUID) (*domain.TransactionHistoryResponse, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransactionHistoryResponse), args.Error(1)
}

func (m *MockLoanService) ListOverdueInstallments(ctx context.Context, asOf time.Time) ([]*domain.OverdueInstallment, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.OverdueInstallment), args.Error(1)
}

func (m *MockLoanService) ListUpcomingInstallments(ctx context.Context, asOf time.Time, days int) ([]*domain.OverdueInstallment, error) {
	args := m.Called(ctx, asOf, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.OverdueInstallment), args.Error(1)
}

type MockScheduleService struct {
	mock.Mock
}

func (m *MockScheduleService) schedule(args mock.Arguments) (*domain.ScheduleResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScheduleResponse), args.Error(1)
}

func (m *MockScheduleService) GetSchedule(ctx context.Context, loanID uuid.UUID) (*domain.ScheduleResponse, error) {
	return m.schedule(m.Called(ctx, loanID))
}

func (m *MockScheduleService) Extend(ctx context.Context, loanID uuid.UUID, req *domain.ExtendScheduleRequest) (*domain.ScheduleResponse, error) {
	return m.schedule(m.Called(ctx, loanID, req))
}

func (m *MockScheduleService) AddSchedule(ctx context.Context, loanID uuid.UUID, req *domain.AddScheduleRequest) (*domain.ScheduleResponse, error) {
	return m.schedule(m.Called(ctx, loanID, req))
}

func (m *MockScheduleService) AutoAddSchedule(ctx context.Context, loanID uuid.UUID, req *domain.AutoAddScheduleRequest) (*domain.ScheduleResponse, error) {
	return m.schedule(m.Called(ctx, loanID, req))
}

func (m *MockScheduleService) Regenerate(ctx context.Context, loanID uuid.UUID, req *domain.RegenerateScheduleRequest) (*domain.ScheduleResponse, error) {
	return m.schedule(m.Called(ctx, loanID, req))
}

func (m *MockScheduleService) DeleteInstallment(ctx context.Context, loanID uuid.UUID, number int) (*domain.ScheduleResponse, error) {
	return m.schedule(m.Called(ctx, loanID, number))
}

func (m *MockScheduleService) UpdateInstallment(ctx context.Context, loanID uuid.UUID, number int, req *domain.UpdateInstallmentRequest) (*domain.ScheduleResponse, error) {
	return m.schedule(m.Called(ctx, loanID, number, req))
}

func (m *MockScheduleService) MarkInstallmentPaid(ctx context.Context, loanID uuid.UUID, number int, req *domain.MarkInstallmentPaidRequest) (*domain.PaymentResponse, error) {
	args := m.Called(ctx, loanID, number, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentResponse), args.Error(1)
}

type MockJournalService struct {
	mock.Mock
}

func (m *MockJournalService) Record(ctx context.Context, req *domain.RecordJournalEntryRequest) (*domain.JournalEntry, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalService) Get(ctx context.Context, entryID uuid.UUID) (*domain.JournalEntry, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalService) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.JournalEntry, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalService) ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.JournalEntry, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.JournalEntry), args.Error(1)
}
