package service

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

var allocNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func pendingInstallment(loanID uuid.UUID, number int, principal, interest string) *domain.RepaymentInstallment {
	p, i := dec(principal), dec(interest)
	return &domain.RepaymentInstallment{
		ID:        uuid.New(),
		LoanID:    loanID,
		Number:    number,
		DueDate:   allocNow.AddDate(0, number, 0),
		Principal: p,
		Interest:  i,
		Amount:    p.Add(i),
		Status:    domain.InstallmentStatusPending,
	}
}

func activeLoan(balance string) *domain.Loan {
	return &domain.Loan{
		ID:               uuid.New(),
		UserID:           uuid.New(),
		Status:           domain.LoanStatusActive,
		TotalAmount:      dec(balance),
		RemainingBalance: dec(balance),
	}
}

func TestAllocate_PartialIsProportional(t *testing.T) {
	inst := pendingInstallment(uuid.New(), 1, "80", "20")

	principal, interest := allocate(inst, dec("30"), allocNow)
	assert.True(t, dec("24").Equal(principal), principal.String())
	assert.True(t, dec("6").Equal(interest), interest.String())
	assert.Equal(t, domain.InstallmentStatusPending, inst.Status)
	assert.True(t, dec("70").Equal(inst.Outstanding()))

	principal, interest = allocate(inst, dec("90"), allocNow)
	assert.True(t, dec("76").Equal(principal), "excess counts as principal, got %s", principal)
	assert.True(t, dec("14").Equal(interest), interest.String())
	assert.Equal(t, domain.InstallmentStatusPaid, inst.Status)
	require.NotNil(t, inst.PaidAt)
	assert.Equal(t, allocNow, *inst.PaidAt)
	assert.True(t, inst.Outstanding().IsZero())
}

func TestAllocate_RoundingStaysWithinOwed(t *testing.T) {
	inst := pendingInstallment(uuid.New(), 1, "83.33", "10")

	principal, interest := allocate(inst, dec("0.01"), allocNow)
	assert.True(t, principal.Add(interest).Equal(dec("0.01")))
	assert.False(t, interest.IsNegative())
	assert.True(t, principal.LessThanOrEqual(dec("83.33")))
}

func TestApply_PicksEarliestPending(t *testing.T) {
	loan := activeLoan("300")
	installments := []*domain.RepaymentInstallment{
		pendingInstallment(loan.ID, 2, "100", "0"),
		pendingInstallment(loan.ID, 1, "100", "0"),
		pendingInstallment(loan.ID, 3, "100", "0"),
	}
	w := uow.New()

	payment, err := NewPaymentAllocator(func() time.Time { return allocNow }).Apply(context.Background(), w, loan, installments, PaymentInput{
		Amount: dec("100"), Method: "CASH", Reference: "R1",
	})
	require.NoError(t, err)
	require.NotNil(t, payment.InstallmentNumber)
	assert.Equal(t, 1, *payment.InstallmentNumber)
	assert.Equal(t, domain.TransactionTypePayment, payment.TransactionType)
	assert.Equal(t, "Installment 1: principal 100.00, interest 0.00", payment.Description)
	assert.True(t, dec("200").Equal(loan.RemainingBalance))

	assert.Len(t, w.Installments(), 1)
	assert.Len(t, w.Loans(), 1)
	assert.Len(t, w.Payments(), 1)
	assert.Empty(t, w.JournalEntries())
}

func TestApply_PinnedInstallment(t *testing.T) {
	loan := activeLoan("200")
	first := pendingInstallment(loan.ID, 1, "100", "0")
	second := pendingInstallment(loan.ID, 2, "100", "0")
	installments := []*domain.RepaymentInstallment{first, second}
	a := NewPaymentAllocator(func() time.Time { return allocNow })

	_, err := a.Apply(context.Background(), uow.New(), loan, installments, PaymentInput{Amount: dec("100"), Number: 2})
	require.NoError(t, err)
	assert.Equal(t, domain.InstallmentStatusPending, first.Status)
	assert.Equal(t, domain.InstallmentStatusPaid, second.Status)

	_, err = a.Apply(context.Background(), uow.New(), loan, installments, PaymentInput{Amount: dec("10"), Number: 2})
	assert.True(t, errors.Is(err, customError.ErrInstallmentNotPending))

	_, err = a.Apply(context.Background(), uow.New(), loan, installments, PaymentInput{Amount: dec("10"), Number: 7})
	assert.True(t, errors.Is(err, customError.ErrInstallmentNotFound))
}

func TestApply_WithoutPendingInstallmentsCompletes(t *testing.T) {
	loan := activeLoan("50")
	paid := pendingInstallment(loan.ID, 1, "100", "0")
	paid.Status = domain.InstallmentStatusPaid
	paid.PaidAmount = paid.Amount

	payment, err := NewPaymentAllocator(func() time.Time { return allocNow }).Apply(context.Background(), uow.New(), loan,
		[]*domain.RepaymentInstallment{paid}, PaymentInput{Amount: dec("50"), Reference: "R1"})
	require.NoError(t, err)
	assert.Nil(t, payment.InstallmentNumber)
	assert.True(t, dec("50").Equal(payment.PrincipalAmount))
	assert.Equal(t, "Principal reduction 50.00", payment.Description)
	assert.Equal(t, domain.LoanStatusCompleted, loan.Status)
	assert.True(t, loan.RemainingBalance.IsZero())
}

func TestApply_Guards(t *testing.T) {
	a := NewPaymentAllocator(nil)
	ctx := context.Background()

	loan := activeLoan("100")
	loan.Status = domain.LoanStatusApproved
	_, err := a.Apply(ctx, uow.New(), loan, nil, PaymentInput{Amount: dec("10")})
	assert.True(t, errors.Is(err, customError.ErrInvalidTransition))

	loan = activeLoan("100")
	_, err = a.Apply(ctx, uow.New(), loan, nil, PaymentInput{Amount: dec("0")})
	assert.True(t, errors.Is(err, customError.ErrNonPositiveAmount))

	_, err = a.Apply(ctx, uow.New(), loan, nil, PaymentInput{Amount: dec("100.01")})
	assert.True(t, errors.Is(err, customError.ErrAmountExceedsBalance))
	assert.True(t, dec("100").Equal(loan.RemainingBalance))
}
