package service

import (
	"context"
	"fmt"
	"time"

	"github.com/segyhp/finance-ledger/internal/domain"
	"github.com/segyhp/finance-ledger/internal/lifecycle"
	"github.com/segyhp/finance-ledger/internal/schedule"
	"github.com/segyhp/finance-ledger/internal/uow"
	customError "github.com/segyhp/finance-ledger/pkg/errors"
	"github.com/segyhp/finance-ledger/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentInput is one incoming payment
type PaymentInput struct {
	Amount    decimal.Decimal
	Method    string
	Reference string
	Type      domain.TransactionType
	PaidAt    time.Time

	// Number pins the payment to one PENDING installment. Zero picks the earliest PENDING one.
	Number int
}

// PaymentAllocator splits a payment into principal and interest against the schedule and
// updates the running balance. It never writes ledger entries.
type PaymentAllocator struct {
	now func() time.Time
}

func NewPaymentAllocator(now func() time.Time) *PaymentAllocator {
	if now == nil {
		now = time.Now
	}
	return &PaymentAllocator{now: now}
}

// Apply mutates loan and the chosen installment, registers both with w and adds the Payment
// record. installments must be the loan's full schedule.
func (a *PaymentAllocator) Apply(ctx context.Context, w *uow.Work, loan *domain.Loan, installments []*domain.RepaymentInstallment, in PaymentInput) (*domain.Payment, error) {
	if !lifecycle.CanAcceptPayment(loan) {
		return nil, customError.WrapInvalidTransition(loan.ID.String(), string(loan.Status), "accept payments")
	}
	if !in.Amount.IsPositive() {
		return nil, customError.WrapNonPositiveAmount("payment amount")
	}
	if !utils.IsWholeCents(in.Amount) {
		return nil, customError.WrapAmountPrecision("payment amount", in.Amount.String())
	}
	if in.Amount.GreaterThan(loan.RemainingBalance) {
		return nil, customError.WrapAmountExceedsBalance(in.Amount.String(), loan.RemainingBalance.String())
	}

	paidAt := in.PaidAt
	if paidAt.IsZero() {
		paidAt = a.now()
	}

	var target *domain.RepaymentInstallment
	if in.Number > 0 {
		target = findInstallment(installments, in.Number)
		if target == nil {
			return nil, customError.WrapInstallmentNotFound(loan.ID.String(), in.Number)
		}
		if !target.IsPending() {
			return nil, customError.WrapInstallmentNotPending(target.Number)
		}
	} else if earliest, ok := schedule.EarliestPending(installments); ok {
		target = earliest
	}

	principal, interest := in.Amount, decimal.Zero
	var number *int
	if target != nil {
		principal, interest = allocate(target, in.Amount, paidAt)
		target.UpdatedAt = a.now()
		w.SaveInstallment(target)
		number = intPtr(target.Number)
	}

	loan.RemainingBalance = utils.ClampZero(loan.RemainingBalance.Sub(in.Amount))
	loan.UpdatedAt = a.now()

	if !loan.RemainingBalance.IsPositive() || !schedule.HasPending(installments) {
		if err := lifecycle.New(loan, a.now).Complete(ctx); err != nil {
			return nil, err
		}
	}
	w.SaveLoan(loan)

	txType := in.Type
	if txType == "" {
		txType = domain.TransactionTypePayment
	}
	now := a.now()
	payment := &domain.Payment{
		ID:                uuid.New(),
		LoanID:            loan.ID,
		InstallmentNumber: number,
		Amount:            in.Amount,
		PrincipalAmount:   principal,
		InterestAmount:    interest,
		Method:            in.Method,
		Reference:         in.Reference,
		Status:            domain.PaymentStatusCompleted,
		TransactionType:   txType,
		Description:       describe(number, principal, interest),
		PaymentDate:       paidAt,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	w.AddPayment(payment)

	return payment, nil
}

// allocate applies amount to inst's outstanding split. A full payment settles the outstanding
// principal and interest, and any excess counts as extra principal. A partial payment is
// split in proportion to what is still owed.
func allocate(inst *domain.RepaymentInstallment, amount decimal.Decimal, paidAt time.Time) (principal, interest decimal.Decimal) {
	outstanding := inst.Outstanding()
	owedPrincipal := inst.OutstandingPrincipal()
	owedInterest := inst.OutstandingInterest()

	if amount.GreaterThanOrEqual(outstanding) {
		principal = owedPrincipal.Add(amount.Sub(outstanding))
		interest = owedInterest

		inst.PaidAmount = inst.Amount
		inst.PaidPrincipal = inst.Principal
		inst.PaidInterest = inst.Interest
		inst.Status = domain.InstallmentStatusPaid
		at := paidAt
		inst.PaidAt = &at
		return principal, interest
	}

	principal = utils.RoundCurrency(owedPrincipal.Mul(amount).Div(outstanding))
	if principal.GreaterThan(owedPrincipal) {
		principal = owedPrincipal
	}
	interest = amount.Sub(principal)
	if interest.GreaterThan(owedInterest) {
		interest = owedInterest
		principal = amount.Sub(interest)
	}

	inst.PaidAmount = inst.PaidAmount.Add(amount)
	inst.PaidPrincipal = inst.PaidPrincipal.Add(principal)
	inst.PaidInterest = inst.PaidInterest.Add(interest)
	return principal, interest
}

func describe(number *int, principal, interest decimal.Decimal) string {
	if number == nil {
		return fmt.Sprintf("Principal reduction %s", principal.StringFixed(2))
	}
	return fmt.Sprintf("Installment %d: principal %s, interest %s", *number, principal.StringFixed(2), interest.StringFixed(2))
}
