// Package schedule generates repayment installments. It is pure: callers own loading,
// conflict checks against stored state and persistence.
package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/segyhp/finance-ledger/internal/amortization"
	"github.com/segyhp/finance-ledger/internal/domain"
	customError "github.com/segyhp/finance-ledger/pkg/errors"
	"github.com/segyhp/finance-ledger/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Params describe an initial schedule. Installment i (1-based) is due StartDate + i months.
type Params struct {
	LoanID         uuid.UUID
	MonthlyPayment decimal.Decimal
	Term           int
	AnnualRate     decimal.Decimal
	StartDate      time.Time
	Method         domain.InterestMethod
	FinancedAmount decimal.Decimal
}

// Generate builds term installments. The final installment absorbs rounding residuals so the
// principal portions sum exactly to the financed amount.
func Generate(p Params, now time.Time) ([]*domain.RepaymentInstallment, error) {
	if err := validateParams(p); err != nil {
		return nil, err
	}

	var flatInterestPer, flatInterestTotal decimal.Decimal
	if p.Method == domain.InterestMethodFlatRate && p.AnnualRate.IsPositive() {
		total, err := amortization.TotalInterest(p.FinancedAmount, p.AnnualRate, p.Term, p.Method)
		if err != nil {
			return nil, err
		}
		flatInterestTotal = total
		flatInterestPer = utils.RoundCurrency(total.Div(decimal.NewFromInt(int64(p.Term))))
	}

	// A standard amortized payment follows the exact annuity balance: each principal portion is
	// the change in the rounded exact balance, so rounding cannot retire the loan early.
	var (
		tracking     bool
		exactPayment decimal.Decimal
		exactBalance = p.FinancedAmount
	)
	if p.Method == domain.InterestMethodAmortized && p.AnnualRate.IsPositive() {
		exact, err := amortization.ExactAmortizedPayment(p.FinancedAmount, p.AnnualRate, p.Term)
		if err != nil {
			return nil, err
		}
		exactPayment = exact
		tracking = utils.RoundCurrency(exact).Equal(p.MonthlyPayment)
	}

	// Zero-rate and flat schedules repay a level principal. If the rounded payment would repay
	// the financed amount before the last period, the share is truncated to whole cents.
	levelPrincipal := p.MonthlyPayment.Sub(flatInterestPer)
	if !tracking && p.Term > 1 && (p.AnnualRate.IsZero() || p.Method == domain.InterestMethodFlatRate) {
		standard, err := amortization.MonthlyPayment(p.FinancedAmount, p.AnnualRate, p.Term, p.Method)
		if err != nil {
			return nil, err
		}
		periods := decimal.NewFromInt(int64(p.Term))
		early := levelPrincipal.Mul(periods.Sub(decimal.NewFromInt(1))).GreaterThanOrEqual(p.FinancedAmount)
		if early && standard.Equal(p.MonthlyPayment) {
			levelPrincipal = p.FinancedAmount.Div(periods).Truncate(2)
		}
	}

	rate := amortization.MonthlyRate(p.AnnualRate)
	balance := p.FinancedAmount
	interestSoFar := decimal.Zero
	installments := make([]*domain.RepaymentInstallment, 0, p.Term)

	for n := 1; n <= p.Term; n++ {
		last := n == p.Term

		var principal, interest decimal.Decimal
		switch {
		case p.AnnualRate.IsZero():
			principal = levelPrincipal
		case p.Method == domain.InterestMethodFlatRate:
			interest = flatInterestPer
			principal = levelPrincipal
			if last {
				interest = flatInterestTotal.Sub(interestSoFar)
			}
		case tracking && !last:
			next := amortization.NextExactBalance(exactBalance, p.AnnualRate, exactPayment)
			principal = utils.RoundCurrency(p.FinancedAmount.Sub(next)).
				Sub(utils.RoundCurrency(p.FinancedAmount.Sub(exactBalance)))
			interest = utils.ClampZero(p.MonthlyPayment.Sub(principal))
			exactBalance = next
		default:
			interest = utils.RoundCurrency(balance.Mul(rate))
			principal = p.MonthlyPayment.Sub(interest)
		}

		if last {
			principal = balance
		} else {
			if !principal.IsPositive() {
				return nil, customError.WrapInsufficientPayment(p.MonthlyPayment.String(), interest.String())
			}
			if principal.GreaterThanOrEqual(balance) {
				return nil, customError.WrapInvalidInput(
					fmt.Sprintf("monthly payment %s retires the loan before installment %d", p.MonthlyPayment, p.Term))
			}
		}

		balance = balance.Sub(principal)
		interestSoFar = interestSoFar.Add(interest)
		installments = append(installments, newInstallment(p.LoanID, n, utils.AddMonths(p.StartDate, n), principal, interest, now))
	}

	return installments, nil
}

// ContinueParams describe installments appended after an existing schedule. Installment k
// (0-based) is due Anchor + FirstOffset + k months.
type ContinueParams struct {
	LoanID         uuid.UUID
	StartNumber    int
	Count          int
	Anchor         time.Time
	FirstOffset    int
	MonthlyPayment decimal.Decimal
	Balance        decimal.Decimal
	AnnualRate     decimal.Decimal
}

// Continue applies declining-balance splits from Balance: interest is Balance * monthly rate,
// principal is the rest of the fixed payment, and the balance never goes below zero.
func Continue(p ContinueParams, now time.Time) ([]*domain.RepaymentInstallment, error) {
	if p.StartNumber < 1 {
		return nil, customError.WrapInvalidInput("starting installment number must be at least 1")
	}
	if p.Count <= 0 {
		return nil, customError.WrapInvalidInput("installment count must be greater than zero")
	}
	if !p.MonthlyPayment.IsPositive() {
		return nil, customError.WrapNonPositiveAmount("monthly payment")
	}
	if !utils.IsWholeCents(p.MonthlyPayment) {
		return nil, customError.WrapAmountPrecision("monthly payment", p.MonthlyPayment.String())
	}
	if p.AnnualRate.IsNegative() {
		return nil, customError.WrapInvalidInput("interest rate must not be negative")
	}

	rate := amortization.MonthlyRate(p.AnnualRate)
	balance := utils.ClampZero(p.Balance)
	installments := make([]*domain.RepaymentInstallment, 0, p.Count)

	for k := 0; k < p.Count; k++ {
		interest := utils.RoundCurrency(balance.Mul(rate))
		if interest.GreaterThan(p.MonthlyPayment) {
			interest = p.MonthlyPayment
		}
		principal := p.MonthlyPayment.Sub(interest)
		balance = utils.ClampZero(balance.Sub(principal))

		due := utils.AddMonths(p.Anchor, p.FirstOffset+k)
		installments = append(installments, newInstallment(p.LoanID, p.StartNumber+k, due, principal, interest, now))
	}

	return installments, nil
}

// Conflict returns the first installment number in [start, start+count) already present
func Conflict(existing []*domain.RepaymentInstallment, start, count int) (int, bool) {
	taken := make(map[int]struct{}, len(existing))
	for _, inst := range existing {
		taken[inst.Number] = struct{}{}
	}
	for n := start; n < start+count; n++ {
		if _, ok := taken[n]; ok {
			return n, true
		}
	}
	return 0, false
}

// NextNumber is max(existing)+1, or 1 for an empty schedule
func NextNumber(existing []*domain.RepaymentInstallment) int {
	highest := 0
	for _, inst := range existing {
		if inst.Number > highest {
			highest = inst.Number
		}
	}
	return highest + 1
}

// Last returns the installment with the highest number
func Last(existing []*domain.RepaymentInstallment) (*domain.RepaymentInstallment, bool) {
	var last *domain.RepaymentInstallment
	for _, inst := range existing {
		if last == nil || inst.Number > last.Number {
			last = inst
		}
	}
	return last, last != nil
}

// Total sums installment amounts
func Total(installments []*domain.RepaymentInstallment) decimal.Decimal {
	total := decimal.Zero
	for _, inst := range installments {
		total = total.Add(inst.Amount)
	}
	return total
}

// Sort orders installments by number in place
func Sort(installments []*domain.RepaymentInstallment) {
	sort.Slice(installments, func(i, j int) bool {
		return installments[i].Number < installments[j].Number
	})
}

// EarliestPending returns the lowest-numbered PENDING installment
func EarliestPending(installments []*domain.RepaymentInstallment) (*domain.RepaymentInstallment, bool) {
	var earliest *domain.RepaymentInstallment
	for _, inst := range installments {
		if inst.IsPending() && (earliest == nil || inst.Number < earliest.Number) {
			earliest = inst
		}
	}
	return earliest, earliest != nil
}

// HasPending reports whether any installment is still PENDING
func HasPending(installments []*domain.RepaymentInstallment) bool {
	_, ok := EarliestPending(installments)
	return ok
}

// HasPaid reports whether any installment is PAID
func HasPaid(installments []*domain.RepaymentInstallment) bool {
	for _, inst := range installments {
		if inst.Status == domain.InstallmentStatusPaid {
			return true
		}
	}
	return false
}

func newInstallment(loanID uuid.UUID, number int, due time.Time, principal, interest decimal.Decimal, now time.Time) *domain.RepaymentInstallment {
	return &domain.RepaymentInstallment{
		ID:            uuid.New(),
		LoanID:        loanID,
		Number:        number,
		DueDate:       due,
		Principal:     principal,
		Interest:      interest,
		Amount:        principal.Add(interest),
		PaidAmount:    decimal.Zero,
		PaidPrincipal: decimal.Zero,
		PaidInterest:  decimal.Zero,
		Status:        domain.InstallmentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func validateParams(p Params) error {
	if !p.FinancedAmount.IsPositive() {
		return customError.WrapNonPositiveAmount("financed amount")
	}
	if !p.MonthlyPayment.IsPositive() {
		return customError.WrapNonPositiveAmount("monthly payment")
	}
	if !utils.IsWholeCents(p.FinancedAmount) || !utils.IsWholeCents(p.MonthlyPayment) {
		return customError.WrapAmountPrecision("financed amount and monthly payment", p.FinancedAmount.String()+"/"+p.MonthlyPayment.String())
	}
	if p.Term <= 0 {
		return customError.WrapInvalidInput("term must be greater than zero")
	}
	if p.AnnualRate.IsNegative() {
		return customError.WrapInvalidInput("interest rate must not be negative")
	}
	if !p.Method.IsValid() {
		return customError.WrapInvalidInput("unknown interest method " + string(p.Method))
	}
	return nil
}
