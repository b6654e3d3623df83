package handler

import (
	"fmt"
	"reflect"

	"github.com/segyhp/finance-ledger/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// NewValidator returns a validator that understands decimal.Decimal fields. Decimals are
// validated as their string form; decimal_gt and decimal_gte compare against the tag param and
// decimal_cents rejects digits beyond currency precision. It panics if a rule cannot be registered.
func NewValidator() *validator.Validate {
	v := validator.New()

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	rules := map[string]validator.Func{
		"decimal_gt": compareDecimal(func(value, bound decimal.Decimal) bool {
			return value.GreaterThan(bound)
		}),
		"decimal_gte": compareDecimal(func(value, bound decimal.Decimal) bool {
			return value.GreaterThanOrEqual(bound)
		}),
		"decimal_cents": func(fl validator.FieldLevel) bool {
			value, err := decimal.NewFromString(fl.Field().String())
			return err == nil && utils.IsWholeCents(value)
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register %s validator: %v", tag, err))
		}
	}

	return v
}

func compareDecimal(ok func(value, bound decimal.Decimal) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}
		bound, err := decimal.NewFromString(fl.Param())
		if err != nil {
			return false
		}
		return ok(value, bound)
	}
}
