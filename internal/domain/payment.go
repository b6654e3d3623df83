package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeDisbursement       TransactionType = "DISBURSEMENT"
	TransactionTypePayment            TransactionType = "PAYMENT"
	TransactionTypeInstallmentPayment TransactionType = "INSTALLMENT_PAYMENT"
	TransactionTypeScheduleUpdate     TransactionType = "SCHEDULE_UPDATE"
)

func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeDisbursement, TransactionTypePayment,
		TransactionTypeInstallmentPayment, TransactionTypeScheduleUpdate:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// Payment is the ledger-side transaction record of one financial event on a loan
type Payment struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	LoanID            uuid.UUID       `json:"loan_id" db:"loan_id"`
	InstallmentNumber *int            `json:"installment_number,omitempty" db:"installment_number"`
	Amount            decimal.Decimal `json:"amount" db:"amount"`
	PrincipalAmount   decimal.Decimal `json:"principal_amount" db:"principal_amount"`
	InterestAmount    decimal.Decimal `json:"interest_amount" db:"interest_amount"`
	Method            string          `json:"method" db:"method"`
	Reference         string          `json:"reference" db:"reference"`
	Status            PaymentStatus   `json:"status" db:"status"`
	TransactionType   TransactionType `json:"transaction_type" db:"transaction_type"`
	Description       string          `json:"description" db:"description"`
	PaymentDate       time.Time       `json:"payment_date" db:"payment_date"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

type MakePaymentRequest struct {
	Amount    decimal.Decimal `json:"amount" validate:"decimal_gt=0,decimal_cents"`
	Method    string          `json:"method" validate:"required,max=50"`
	Reference string          `json:"reference" validate:"required,max=100"`
}

type PaymentResponse struct {
	Payment *Payment `json:"payment"`
	Loan    *Loan    `json:"loan"`
}

type TransactionHistoryResponse struct {
	LoanID       uuid.UUID  `json:"loan_id"`
	Transactions []*Payment `json:"transactions"`
}
