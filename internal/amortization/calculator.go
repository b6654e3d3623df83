// Package amortization computes loan payment terms. All functions are pure and use fixed-point
// decimals; results are rounded to currency precision.
package amortization

import (
	"github.com/segyhp/finance-ledger/internal/domain"
	customError "github.com/segyhp/finance-ledger/pkg/errors"
	"github.com/segyhp/finance-ledger/pkg/utils"

	"github.com/shopspring/decimal"
)

// ratePrecision bounds the scale of intermediate rate terms
const ratePrecision = 20

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
	one     = decimal.NewFromInt(1)
)

// MonthlyRate converts an annual percentage rate into the periodic rate r = rate/100/12
func MonthlyRate(annualRate decimal.Decimal) decimal.Decimal {
	return annualRate.DivRound(hundred.Mul(twelve), ratePrecision)
}

// MonthlyPayment returns the fixed installment for the given terms.
//
//	rate == 0:  principal / term
//	FLAT_RATE:  (principal + principal*rate/100*term/12) / term
//	AMORTIZED:  principal * r(1+r)^n / ((1+r)^n - 1)
func MonthlyPayment(principal, annualRate decimal.Decimal, term int, method domain.InterestMethod) (decimal.Decimal, error) {
	if err := validate(principal, annualRate, term, method); err != nil {
		return decimal.Zero, err
	}

	n := decimal.NewFromInt(int64(term))

	if annualRate.IsZero() {
		return utils.RoundCurrency(principal.DivRound(n, ratePrecision)), nil
	}

	switch method {
	case domain.InterestMethodFlatRate:
		totalInterest := flatInterest(principal, annualRate, term)
		return utils.RoundCurrency(principal.Add(totalInterest).DivRound(n, ratePrecision)), nil
	default:
		return utils.RoundCurrency(annuity(principal, annualRate, term)), nil
	}
}

// ExactAmortizedPayment is the unrounded annuity payment. Schedules track the exact balance it
// implies so per-period rounding never accumulates.
func ExactAmortizedPayment(principal, annualRate decimal.Decimal, term int) (decimal.Decimal, error) {
	if err := validate(principal, annualRate, term, domain.InterestMethodAmortized); err != nil {
		return decimal.Zero, err
	}
	if annualRate.IsZero() {
		return principal.DivRound(decimal.NewFromInt(int64(term)), ratePrecision), nil
	}
	return annuity(principal, annualRate, term), nil
}

// NextExactBalance rolls an exact balance forward one period: balance*(1+r) - payment
func NextExactBalance(balance, annualRate, exactPayment decimal.Decimal) decimal.Decimal {
	return balance.Mul(one.Add(MonthlyRate(annualRate))).Sub(exactPayment).Round(ratePrecision)
}

func annuity(principal, annualRate decimal.Decimal, term int) decimal.Decimal {
	r := MonthlyRate(annualRate)
	factor := one.Add(r).Pow(decimal.NewFromInt(int64(term)))
	return principal.Mul(r).Mul(factor).DivRound(factor.Sub(one), ratePrecision)
}

// TotalInterest returns the interest payable over the whole term. For AMORTIZED loans it is
// derived from the rounded monthly payment: payment*term - principal.
func TotalInterest(principal, annualRate decimal.Decimal, term int, method domain.InterestMethod) (decimal.Decimal, error) {
	if err := validate(principal, annualRate, term, method); err != nil {
		return decimal.Zero, err
	}

	if annualRate.IsZero() {
		return decimal.Zero, nil
	}

	if method == domain.InterestMethodFlatRate {
		return utils.RoundCurrency(flatInterest(principal, annualRate, term)), nil
	}

	payment, err := MonthlyPayment(principal, annualRate, term, method)
	if err != nil {
		return decimal.Zero, err
	}
	return payment.Mul(decimal.NewFromInt(int64(term))).Sub(principal), nil
}

// Terms bundles the figures stored on a loan at application time
type Terms struct {
	MonthlyPayment decimal.Decimal
	TotalInterest  decimal.Decimal
	TotalAmount    decimal.Decimal
}

// Compute returns monthly payment, total interest and total payable in one call
func Compute(principal, annualRate decimal.Decimal, term int, method domain.InterestMethod) (Terms, error) {
	payment, err := MonthlyPayment(principal, annualRate, term, method)
	if err != nil {
		return Terms{}, err
	}
	interest, err := TotalInterest(principal, annualRate, term, method)
	if err != nil {
		return Terms{}, err
	}
	return Terms{
		MonthlyPayment: payment,
		TotalInterest:  interest,
		TotalAmount:    principal.Add(interest),
	}, nil
}

func flatInterest(principal, annualRate decimal.Decimal, term int) decimal.Decimal {
	return principal.
		Mul(annualRate).
		Mul(decimal.NewFromInt(int64(term))).
		DivRound(hundred.Mul(twelve), ratePrecision)
}

func validate(principal, annualRate decimal.Decimal, term int, method domain.InterestMethod) error {
	if !principal.IsPositive() {
		return customError.WrapNonPositiveAmount("principal")
	}
	if !utils.IsWholeCents(principal) {
		return customError.WrapAmountPrecision("principal", principal.String())
	}
	if annualRate.IsNegative() {
		return customError.WrapInvalidInput("interest rate must not be negative")
	}
	if term <= 0 {
		return customError.WrapInvalidInput("term must be greater than zero")
	}
	if !method.IsValid() {
		return customError.WrapInvalidInput("unknown interest method " + string(method))
	}
	return nil
}
