package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanStatus is the lifecycle state of a loan
type LoanStatus string

const (
	LoanStatusPending   LoanStatus = "PENDING"
	LoanStatusApproved  LoanStatus = "APPROVED"
	LoanStatusActive    LoanStatus = "ACTIVE"
	LoanStatusCompleted LoanStatus = "COMPLETED"
	LoanStatusRejected  LoanStatus = "REJECTED"
	LoanStatusCancelled LoanStatus = "CANCELLED"
)

func (s LoanStatus) IsValid() bool {
	switch s {
	case LoanStatusPending, LoanStatusApproved, LoanStatusActive,
		LoanStatusCompleted, LoanStatusRejected, LoanStatusCancelled:
		return true
	}
	return false
}

// InterestMethod selects how interest is computed over the term
type InterestMethod string

const (
	InterestMethodFlatRate  InterestMethod = "FLAT_RATE"
	InterestMethodAmortized InterestMethod = "AMORTIZED"
)

func (m InterestMethod) IsValid() bool {
	return m == InterestMethodFlatRate || m == InterestMethodAmortized
}

// Loan represents a loan entity. InterestRate is an annual percentage (12 means 12%).
type Loan struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	UserID           uuid.UUID       `json:"user_id" db:"user_id"`
	Purpose          string          `json:"purpose" db:"purpose"`
	Principal        decimal.Decimal `json:"principal" db:"principal"`
	InterestRate     decimal.Decimal `json:"interest_rate" db:"interest_rate"`
	Term             int             `json:"term" db:"term"`
	InterestMethod   InterestMethod  `json:"interest_method" db:"interest_method"`
	MonthlyPayment   decimal.Decimal `json:"monthly_payment" db:"monthly_payment"`
	TotalAmount      decimal.Decimal `json:"total_amount" db:"total_amount"`
	RemainingBalance decimal.Decimal `json:"remaining_balance" db:"remaining_balance"`
	Status           LoanStatus      `json:"status" db:"status"`
	BankAccountID    string          `json:"bank_account_id,omitempty" db:"bank_account_id"`
	AppliedAt        time.Time       `json:"applied_at" db:"applied_at"`
	ApprovedAt       *time.Time      `json:"approved_at,omitempty" db:"approved_at"`
	DisbursedAt      *time.Time      `json:"disbursed_at,omitempty" db:"disbursed_at"`
	CompletedAt      *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

// Clone returns a deep copy so an operation can mutate it without touching stored state
func (l *Loan) Clone() *Loan {
	c := *l
	c.ApprovedAt = cloneTime(l.ApprovedAt)
	c.DisbursedAt = cloneTime(l.DisbursedAt)
	c.CompletedAt = cloneTime(l.CompletedAt)
	return &c
}

// TotalPaid is the part of the total amount already settled
func (l *Loan) TotalPaid() decimal.Decimal {
	paid := l.TotalAmount.Sub(l.RemainingBalance)
	if paid.IsNegative() {
		return decimal.Zero
	}
	return paid
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// DTOs for requests and responses

// ApplyLoanRequest leaves rate, term and method to the configured defaults when omitted
type ApplyLoanRequest struct {
	UserID         uuid.UUID        `json:"user_id" validate:"required"`
	Principal      decimal.Decimal  `json:"principal" validate:"decimal_gt=0,decimal_cents"`
	InterestRate   *decimal.Decimal `json:"interest_rate,omitempty" validate:"omitempty,decimal_gte=0"`
	Term           int              `json:"term,omitempty" validate:"omitempty,gt=0,lte=600"`
	InterestMethod InterestMethod   `json:"interest_method,omitempty" validate:"omitempty,oneof=FLAT_RATE AMORTIZED"`
	Purpose        string           `json:"purpose" validate:"max=255"`
	StartDate      *time.Time       `json:"start_date,omitempty"`
}

type ApplyLoanResponse struct {
	Loan     *Loan                   `json:"loan"`
	Schedule []*RepaymentInstallment `json:"schedule"`
}

type DisburseRequest struct {
	BankAccountID string `json:"bank_account_id" validate:"required,max=100"`
}

type LoanDetailResponse struct {
	Loan     *Loan                   `json:"loan"`
	Schedule []*RepaymentInstallment `json:"schedule"`
}
