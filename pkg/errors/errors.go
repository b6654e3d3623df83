package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a BusinessError for callers that only care about the category of failure.
type Kind string

const (
	KindValidation Kind = "VALIDATION"
	KindState      Kind = "STATE"
	KindNotFound   Kind = "NOT_FOUND"
	KindIntegrity  Kind = "INTEGRITY"
	KindInternal   Kind = "INTERNAL"
)

// Category sentinels. errors.Is(err, ErrValidation) holds for any validation BusinessError.
var (
	ErrValidation = errors.New("validation error")
	ErrState      = errors.New("state error")
	ErrNotFound   = errors.New("not found")
	ErrIntegrity  = errors.New("integrity error")
	ErrInternal   = errors.New("internal error")
)

// Domain errors
var (
	ErrLoanNotFound           = errors.New("loan not found")
	ErrInstallmentNotFound    = errors.New("installment not found")
	ErrAccountNotFound        = errors.New("account not found")
	ErrNonPositiveAmount      = errors.New("amount must be greater than zero")
	ErrLedgerImbalance        = errors.New("ledger entry is not balanced")
	ErrTooFewLines            = errors.New("ledger entry needs at least two lines")
	ErrLedgerTotalsMismatch   = errors.New("ledger totals do not match line sums")
	ErrTransferSameAccount    = errors.New("transfer source and destination must differ")
	ErrDuplicateReference     = errors.New("payment reference already used for this loan")
	ErrAmountExceedsBalance   = errors.New("payment amount exceeds remaining balance")
	ErrInstallmentConflict    = errors.New("installment number already exists")
	ErrInvalidTransition      = errors.New("loan status does not allow this operation")
	ErrPaidInstallmentsExist  = errors.New("schedule has paid installments")
	ErrInstallmentNotPending  = errors.New("installment is not pending")
	ErrInsufficientPayment    = errors.New("monthly payment does not cover interest")
	ErrInvalidInput           = errors.New("invalid input")
	ErrInsufficientBankAmount = errors.New("insufficient bank account balance")
	ErrAmountPrecision        = errors.New("amount has more than two decimal places")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// Is matches the category sentinel of the error's kind.
func (e *BusinessError) Is(target error) bool {
	return target == kindSentinel(e.Kind)
}

func kindSentinel(k Kind) error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindState:
		return ErrState
	case KindNotFound:
		return ErrNotFound
	case KindIntegrity:
		return ErrIntegrity
	default:
		return ErrInternal
	}
}

// NewBusinessError creates a new business error
func NewBusinessError(kind Kind, code, message string, err error) *BusinessError {
	return &BusinessError{
		Kind:    kind,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewValidationError(code, message string, err error) *BusinessError {
	return NewBusinessError(KindValidation, code, message, err)
}

func NewStateError(code, message string, err error) *BusinessError {
	return NewBusinessError(KindState, code, message, err)
}

func NewNotFoundError(code, message string, err error) *BusinessError {
	return NewBusinessError(KindNotFound, code, message, err)
}

func NewIntegrityError(code, message string, err error) *BusinessError {
	return NewBusinessError(KindIntegrity, code, message, err)
}

// KindOf reports the kind of err, or KindInternal when err is not a BusinessError.
func KindOf(err error) Kind {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindInternal
}

// Error codes
const (
	ErrCodeLoanNotFound          = "LOAN_NOT_FOUND"
	ErrCodeInstallmentNotFound   = "INSTALLMENT_NOT_FOUND"
	ErrCodeAccountNotFound       = "ACCOUNT_NOT_FOUND"
	ErrCodeNonPositiveAmount     = "NON_POSITIVE_AMOUNT"
	ErrCodeLedgerImbalance       = "LEDGER_IMBALANCE"
	ErrCodeTooFewLines           = "LEDGER_TOO_FEW_LINES"
	ErrCodeLedgerIntegrity       = "LEDGER_INTEGRITY"
	ErrCodeTransferSameAccount   = "TRANSFER_SAME_ACCOUNT"
	ErrCodeDuplicateReference    = "DUPLICATE_REFERENCE"
	ErrCodeAmountExceedsBalance  = "AMOUNT_EXCEEDS_BALANCE"
	ErrCodeInstallmentConflict   = "INSTALLMENT_CONFLICT"
	ErrCodeInvalidTransition     = "INVALID_TRANSITION"
	ErrCodePaidInstallmentsExist = "PAID_INSTALLMENTS_EXIST"
	ErrCodeInstallmentNotPending = "INSTALLMENT_NOT_PENDING"
	ErrCodeInsufficientPayment   = "INSUFFICIENT_MONTHLY_PAYMENT"
	ErrCodeInvalidInput          = "INVALID_INPUT"
	ErrCodeInsufficientFunds     = "INSUFFICIENT_FUNDS"
	ErrCodeDatabaseError         = "DATABASE_ERROR"
	ErrCodeCacheError            = "CACHE_ERROR"
	ErrCodeBankError             = "BANK_ERROR"
	ErrCodeAmountPrecision       = "AMOUNT_PRECISION"
)

// Wrap common errors with business context
func WrapLoanNotFound(loanID string) *BusinessError {
	return NewNotFoundError(
		ErrCodeLoanNotFound,
		fmt.Sprintf("Loan with ID %s not found", loanID),
		ErrLoanNotFound,
	)
}

func WrapInstallmentNotFound(loanID string, number int) *BusinessError {
	return NewNotFoundError(
		ErrCodeInstallmentNotFound,
		fmt.Sprintf("Installment %d of loan %s not found", number, loanID),
		ErrInstallmentNotFound,
	)
}

func WrapAccountNotFound(accountID string) *BusinessError {
	return NewNotFoundError(
		ErrCodeAccountNotFound,
		fmt.Sprintf("Account %s not found", accountID),
		ErrAccountNotFound,
	)
}

func WrapNonPositiveAmount(field string) *BusinessError {
	return NewValidationError(
		ErrCodeNonPositiveAmount,
		fmt.Sprintf("%s must be greater than zero", field),
		ErrNonPositiveAmount,
	)
}

func WrapAmountPrecision(field, amount string) *BusinessError {
	return NewValidationError(
		ErrCodeAmountPrecision,
		fmt.Sprintf("%s %s has more than two decimal places", field, amount),
		ErrAmountPrecision,
	)
}

func WrapLedgerImbalance(debit, credit string) *BusinessError {
	return NewValidationError(
		ErrCodeLedgerImbalance,
		fmt.Sprintf("Debits %s do not equal credits %s", debit, credit),
		ErrLedgerImbalance,
	)
}

func WrapTooFewLines(count int) *BusinessError {
	return NewValidationError(
		ErrCodeTooFewLines,
		fmt.Sprintf("Journal entry has %d lines, at least 2 required", count),
		ErrTooFewLines,
	)
}

func WrapLedgerTotalsMismatch(side, recorded, computed string) *BusinessError {
	return NewIntegrityError(
		ErrCodeLedgerIntegrity,
		fmt.Sprintf("Recorded total %s %s does not match line sum %s", side, recorded, computed),
		ErrLedgerTotalsMismatch,
	)
}

func WrapTransferSameAccount(account string) *BusinessError {
	return NewValidationError(
		ErrCodeTransferSameAccount,
		fmt.Sprintf("Cannot transfer from %s to itself", account),
		ErrTransferSameAccount,
	)
}

func WrapDuplicateReference(reference string) *BusinessError {
	return NewValidationError(
		ErrCodeDuplicateReference,
		fmt.Sprintf("Payment reference %s already exists for this loan", reference),
		ErrDuplicateReference,
	)
}

func WrapAmountExceedsBalance(amount, balance string) *BusinessError {
	return NewValidationError(
		ErrCodeAmountExceedsBalance,
		fmt.Sprintf("Payment amount %s exceeds remaining balance %s", amount, balance),
		ErrAmountExceedsBalance,
	)
}

func WrapInstallmentConflict(number int) *BusinessError {
	return NewValidationError(
		ErrCodeInstallmentConflict,
		fmt.Sprintf("Installment number %d already exists", number),
		ErrInstallmentConflict,
	)
}

func WrapInvalidTransition(loanID, status, operation string) *BusinessError {
	return NewStateError(
		ErrCodeInvalidTransition,
		fmt.Sprintf("Loan %s in status %s cannot %s", loanID, status, operation),
		ErrInvalidTransition,
	)
}

func WrapPaidInstallmentsExist(loanID string) *BusinessError {
	return NewStateError(
		ErrCodePaidInstallmentsExist,
		fmt.Sprintf("Loan %s has paid installments, extend the schedule instead", loanID),
		ErrPaidInstallmentsExist,
	)
}

func WrapInstallmentNotPending(number int) *BusinessError {
	return NewStateError(
		ErrCodeInstallmentNotPending,
		fmt.Sprintf("Installment %d is not pending", number),
		ErrInstallmentNotPending,
	)
}

func WrapInsufficientPayment(payment, interest string) *BusinessError {
	return NewValidationError(
		ErrCodeInsufficientPayment,
		fmt.Sprintf("Monthly payment %s is below the interest portion %s", payment, interest),
		ErrInsufficientPayment,
	)
}

func WrapInvalidInput(message string) *BusinessError {
	return NewValidationError(ErrCodeInvalidInput, message, ErrInvalidInput)
}

func WrapInsufficientFunds(accountID string) *BusinessError {
	return NewValidationError(
		ErrCodeInsufficientFunds,
		fmt.Sprintf("Account %s has insufficient funds", accountID),
		ErrInsufficientBankAmount,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		KindInternal,
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		KindInternal,
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}

func WrapBankError(err error) *BusinessError {
	return NewBusinessError(
		KindInternal,
		ErrCodeBankError,
		"bank account operation failed",
		err,
	)
}
