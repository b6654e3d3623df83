package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/segyhp/finance-ledger/internal/bank"
	"github.com/segyhp/finance-ledger/internal/domain"
	"github.com/segyhp/finance-ledger/internal/repository/memory"
	"github.com/segyhp/finance-ledger/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testAccount = "ACC-001"

var testNow = time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr[T any](v T) *T {
	return &v
}

type fixture struct {
	store *memory.Store
	bank  *bank.MemoryAccounts
	cache *mapCache
	svc   *service.Services
	user  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store: memory.NewStore(),
		bank:  bank.NewMemoryAccounts(),
		cache: newMapCache(),
		user:  uuid.New(),
	}
	f.bank.Open(testAccount, decimal.Zero)
	f.svc = service.New(service.Deps{
		Store: f.store,
		Bank:  f.bank,
		Cache: f.cache,
		Defaults: service.Defaults{
			InterestRate:   d("12"),
			Term:           12,
			InterestMethod: domain.InterestMethodFlatRate,
		},
		Now: func() time.Time { return testNow },
	})
	return f
}

// apply creates a PENDING loan
func (f *fixture) apply(t *testing.T, principal, rate string, term int, method domain.InterestMethod) *domain.Loan {
	t.Helper()

	resp, err := f.svc.Loans.ApplyForLoan(context.Background(), &domain.ApplyLoanRequest{
		UserID:         f.user,
		Principal:      d(principal),
		InterestRate:   ptr(d(rate)),
		Term:           term,
		InterestMethod: method,
		Purpose:        "working capital",
	})
	require.NoError(t, err)
	return resp.Loan
}

// active creates, approves and disburses a loan
func (f *fixture) active(t *testing.T, principal, rate string, term int, method domain.InterestMethod) *domain.Loan {
	t.Helper()
	ctx := context.Background()

	loan := f.apply(t, principal, rate, term, method)
	_, err := f.svc.Loans.Approve(ctx, loan.ID)
	require.NoError(t, err)
	loan, err = f.svc.Loans.Disburse(ctx, loan.ID, &domain.DisburseRequest{BankAccountID: testAccount})
	require.NoError(t, err)
	return loan
}

// zeroRate is an ACTIVE loan of term installments of 100 each
func (f *fixture) zeroRate(t *testing.T, term int) *domain.Loan {
	t.Helper()
	principal := decimal.NewFromInt(int64(100 * term)).String()
	return f.active(t, principal, "0", term, domain.InterestMethodAmortized)
}

func (f *fixture) loan(t *testing.T, id uuid.UUID) *domain.Loan {
	t.Helper()
	loan, err := f.store.GetLoan(context.Background(), id)
	require.NoError(t, err)
	return loan
}

func (f *fixture) schedule(t *testing.T, id uuid.UUID) []*domain.RepaymentInstallment {
	t.Helper()
	installments, err := f.store.GetSchedule(context.Background(), id)
	require.NoError(t, err)
	return installments
}

func (f *fixture) payments(t *testing.T, id uuid.UUID, txType domain.TransactionType) []*domain.Payment {
	t.Helper()
	all, err := f.store.ListPayments(context.Background(), id)
	require.NoError(t, err)

	var out []*domain.Payment
	for _, p := range all {
		if p.TransactionType == txType {
			out = append(out, p)
		}
	}
	return out
}

func installment(t *testing.T, installments []*domain.RepaymentInstallment, number int) *domain.RepaymentInstallment {
	t.Helper()
	for _, inst := range installments {
		if inst.Number == number {
			return inst
		}
	}
	t.Fatalf("installment %d not found", number)
	return nil
}

type mapCache struct {
	mu          sync.Mutex
	schedules   map[uuid.UUID][]*domain.RepaymentInstallment
	sets        int
	invalidated int
}

func newMapCache() *mapCache {
	return &mapCache{schedules: make(map[uuid.UUID][]*domain.RepaymentInstallment)}
}

func (c *mapCache) GetSchedule(_ context.Context, loanID uuid.UUID) ([]*domain.RepaymentInstallment, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.schedules[loanID]
	return s, ok, nil
}

func (c *mapCache) SetSchedule(_ context.Context, loanID uuid.UUID, schedule []*domain.RepaymentInstallment) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.schedules[loanID] = schedule
	c.sets++
	return nil
}

func (c *mapCache) Invalidate(_ context.Context, loanIDs ...uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range loanIDs {
		if _, ok := c.schedules[id]; ok {
			c.invalidated++
		}
		delete(c.schedules, id)
	}
	return nil
}

func (c *mapCache) has(loanID uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.schedules[loanID]
	return ok
}
