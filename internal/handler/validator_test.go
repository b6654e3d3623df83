package handler

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidatorDecimals(t *testing.T) {
	type payload struct {
		Amount   decimal.Decimal  `validate:"decimal_gt=0,decimal_cents"`
		Optional *decimal.Decimal `validate:"omitempty,decimal_gte=10.5"`
	}

	v := NewValidator()

	ten := decimal.NewFromInt(10)
	eleven := decimal.NewFromInt(11)

	tests := []struct {
		name    string
		payload payload
		valid   bool
	}{
		{name: "one cent", payload: payload{Amount: decimal.RequireFromString("0.01")}, valid: true},
		{name: "trailing zeros", payload: payload{Amount: decimal.RequireFromString("12.500")}, valid: true},
		{name: "zero", payload: payload{Amount: decimal.Zero}},
		{name: "negative", payload: payload{Amount: decimal.NewFromInt(-3)}},
		{name: "sub-cent", payload: payload{Amount: decimal.RequireFromString("0.001")}},
		{name: "sub-cent above a cent", payload: payload{Amount: decimal.RequireFromString("10.015")}},
		{name: "optional below bound", payload: payload{Amount: decimal.NewFromInt(1), Optional: &ten}},
		{name: "optional above bound", payload: payload{Amount: decimal.NewFromInt(1), Optional: &eleven}, valid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.payload)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
