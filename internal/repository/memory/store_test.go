package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segyhp/finance-ledger/internal/domain"
	"github.com/segyhp/finance-ledger/internal/uow"
	customError "github.com/segyhp/finance-ledger/pkg/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

func newLoan(status domain.LoanStatus) *domain.Loan {
	return &domain.Loan{
		ID:               uuid.New(),
		UserID:           uuid.New(),
		Principal:        decimal.NewFromInt(1000),
		TotalAmount:      decimal.NewFromInt(1020),
		RemainingBalance: decimal.NewFromInt(1020),
		Status:           status,
		AppliedAt:        base,
	}
}

func newInstallment(loanID uuid.UUID, number int, due time.Time) *domain.RepaymentInstallment {
	return &domain.RepaymentInstallment{
		ID:      uuid.New(),
		LoanID:  loanID,
		Number:  number,
		DueDate: due,
		Amount:  decimal.NewFromInt(510),
		Status:  domain.InstallmentStatusPending,
	}
}

func payment(loanID uuid.UUID, ref string) *domain.Payment {
	return &domain.Payment{ID: uuid.New(), LoanID: loanID, Reference: ref, Amount: decimal.NewFromInt(10), PaymentDate: base}
}

func TestStore_CommitIsAllOrNothing(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	loan := newLoan(domain.LoanStatusActive)
	w := uow.New()
	w.SaveLoan(loan)
	w.AddPayment(payment(loan.ID, "A"))
	require.NoError(t, s.Commit(ctx, w))

	changed := loan.Clone()
	changed.RemainingBalance = decimal.NewFromInt(1)
	w = uow.New()
	w.SaveLoan(changed)
	w.AddPayment(payment(loan.ID, "A"))

	err := s.Commit(ctx, w)
	assert.ErrorIs(t, err, customError.ErrDuplicateReference)

	got, err := s.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.True(t, got.RemainingBalance.Equal(decimal.NewFromInt(1020)))
}

func TestStore_FailNextCommit(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	s.FailNextCommit(errors.New("disk full"))

	loan := newLoan(domain.LoanStatusPending)
	w := uow.New()
	w.SaveLoan(loan)

	err := s.Commit(ctx, w)
	assert.ErrorIs(t, err, customError.ErrInternal)

	_, err = s.GetLoan(ctx, loan.ID)
	assert.ErrorIs(t, err, customError.ErrLoanNotFound)

	require.NoError(t, s.Commit(ctx, w))
}

func TestStore_InstallmentNumberConflict(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	loan := newLoan(domain.LoanStatusActive)
	w := uow.New()
	w.SaveLoan(loan)
	w.SaveInstallment(newInstallment(loan.ID, 1, base))
	require.NoError(t, s.Commit(ctx, w))

	w = uow.New()
	w.SaveInstallment(newInstallment(loan.ID, 1, base))
	assert.ErrorIs(t, s.Commit(ctx, w), customError.ErrInstallmentConflict)
}

func TestStore_ReadsReturnCopies(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	loan := newLoan(domain.LoanStatusActive)
	w := uow.New()
	w.SaveLoan(loan)
	w.SaveInstallment(newInstallment(loan.ID, 1, base))
	require.NoError(t, s.Commit(ctx, w))

	got, _ := s.GetLoan(ctx, loan.ID)
	got.Status = domain.LoanStatusCancelled
	schedule, _ := s.GetSchedule(ctx, loan.ID)
	schedule[0].Status = domain.InstallmentStatusPaid

	again, _ := s.GetLoan(ctx, loan.ID)
	assert.Equal(t, domain.LoanStatusActive, again.Status)
	schedule, _ = s.GetSchedule(ctx, loan.ID)
	assert.Equal(t, domain.InstallmentStatusPending, schedule[0].Status)
}

func TestStore_OverdueAndUpcoming(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	active := newLoan(domain.LoanStatusActive)
	pending := newLoan(domain.LoanStatusPending)
	w := uow.New()
	w.SaveLoan(active)
	w.SaveLoan(pending)
	w.SaveInstallment(newInstallment(active.ID, 1, base.AddDate(0, 0, -1)))
	w.SaveInstallment(newInstallment(active.ID, 2, base))
	w.SaveInstallment(newInstallment(active.ID, 3, base.AddDate(0, 0, 3)))
	w.SaveInstallment(newInstallment(pending.ID, 1, base.AddDate(0, 0, -10)))
	require.NoError(t, s.Commit(ctx, w))

	overdue, err := s.ListOverdueInstallments(ctx, base.Add(10*time.Hour))
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, 1, overdue[0].Number)
	assert.Equal(t, active.UserID, overdue[0].UserID)

	upcoming, err := s.ListInstallmentsDueBetween(ctx, base, base.AddDate(0, 0, 3))
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, 2, upcoming[0].Number)
	assert.Equal(t, 3, upcoming[1].Number)
}

func TestStore_DeleteLoanDetachesEntries(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	loan := newLoan(domain.LoanStatusPending)
	w := uow.New()
	w.SaveLoan(loan)
	w.SaveInstallment(newInstallment(loan.ID, 1, base))
	w.AddJournalEntry(&domain.JournalEntry{ID: uuid.New(), UserID: loan.UserID, LoanID: &loan.ID, EntryDate: base})
	require.NoError(t, s.Commit(ctx, w))

	w = uow.New()
	w.DeleteLoan(loan.ID)
	require.NoError(t, s.Commit(ctx, w))

	_, err := s.GetLoan(ctx, loan.ID)
	assert.ErrorIs(t, err, customError.ErrNotFound)
	schedule, _ := s.GetSchedule(ctx, loan.ID)
	assert.Empty(t, schedule)

	entries, err := s.ListJournalEntriesByUser(ctx, loan.UserID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].LoanID)
}
