package amortization

import (
	"errors"
	"testing"

	"github.com/segyhp/finance-ledger/internal/domain"
	customError "github.com/segyhp/finance-ledger/pkg/errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestMonthlyPayment(t *testing.T) {
	tests := []struct {
		name      string
		principal decimal.Decimal
		rate      decimal.Decimal
		term      int
		method    domain.InterestMethod
		expected  decimal.Decimal
	}{
		{
			name:      "zero rate divides principal evenly",
			principal: d("1200"),
			rate:      decimal.Zero,
			term:      12,
			method:    domain.InterestMethodAmortized,
			expected:  d("100"),
		},
		{
			name:      "zero rate ignores flat method",
			principal: d("1200"),
			rate:      decimal.Zero,
			term:      12,
			method:    domain.InterestMethodFlatRate,
			expected:  d("100"),
		},
		{
			name:      "flat rate one year",
			principal: d("10000"),
			rate:      d("12"),
			term:      12,
			method:    domain.InterestMethodFlatRate,
			expected:  d("933.33"), // (10000 + 1200) / 12
		},
		{
			name:      "amortized one year at 1% monthly",
			principal: d("10000"),
			rate:      d("12"),
			term:      12,
			method:    domain.InterestMethodAmortized,
			expected:  d("888.49"),
		},
		{
			name:      "amortized thirty years",
			principal: d("200000"),
			rate:      d("6"),
			term:      360,
			method:    domain.InterestMethodAmortized,
			expected:  d("1199.10"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MonthlyPayment(tt.principal, tt.rate, tt.term, tt.method)
			require.NoError(t, err)
			assert.True(t, result.Equal(tt.expected), "Expected %s, but got %s", tt.expected, result)
		})
	}
}

func TestTotalInterest(t *testing.T) {
	flat, err := TotalInterest(d("10000"), d("12"), 12, domain.InterestMethodFlatRate)
	require.NoError(t, err)
	assert.True(t, flat.Equal(d("1200")), "flat interest %s", flat)

	amortized, err := TotalInterest(d("10000"), d("12"), 12, domain.InterestMethodAmortized)
	require.NoError(t, err)
	assert.True(t, amortized.LessThan(flat), "amortized %s should be below flat %s", amortized, flat)
	assert.True(t, amortized.Equal(d("661.88")), "amortized interest %s", amortized)

	zero, err := TotalInterest(d("1200"), decimal.Zero, 12, domain.InterestMethodFlatRate)
	require.NoError(t, err)
	assert.True(t, zero.IsZero())
}

func TestComputeTerms(t *testing.T) {
	terms, err := Compute(d("10000"), d("12"), 24, domain.InterestMethodFlatRate)
	require.NoError(t, err)

	assert.True(t, terms.TotalInterest.Equal(d("2400")))
	assert.True(t, terms.TotalAmount.Equal(d("12400")))
	assert.True(t, terms.MonthlyPayment.Equal(d("516.67")))
}

func TestMonthlyPaymentValidation(t *testing.T) {
	tests := []struct {
		name      string
		principal decimal.Decimal
		rate      decimal.Decimal
		term      int
		method    domain.InterestMethod
	}{
		{name: "zero principal", principal: decimal.Zero, rate: d("5"), term: 12, method: domain.InterestMethodAmortized},
		{name: "negative rate", principal: d("100"), rate: d("-1"), term: 12, method: domain.InterestMethodAmortized},
		{name: "zero term", principal: d("100"), rate: d("5"), term: 0, method: domain.InterestMethodAmortized},
		{name: "unknown method", principal: d("100"), rate: d("5"), term: 12, method: "WEEKLY"},
		{name: "sub-cent principal", principal: d("100.005"), rate: d("5"), term: 12, method: domain.InterestMethodAmortized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MonthlyPayment(tt.principal, tt.rate, tt.term, tt.method)
			require.Error(t, err)
			assert.True(t, errors.Is(err, customError.ErrValidation))
		})
	}
}

func TestMonthlyRate(t *testing.T) {
	assert.True(t, MonthlyRate(d("12")).Equal(d("0.01")))
	assert.True(t, MonthlyRate(d("6")).Equal(d("0.005")))
}
