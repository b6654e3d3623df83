package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InstallmentStatus is PENDING until the installment is fully settled
type InstallmentStatus string

const (
	InstallmentStatusPending InstallmentStatus = "PENDING"
	InstallmentStatusPaid    InstallmentStatus = "PAID"
)

func (s InstallmentStatus) IsValid() bool {
	return s == InstallmentStatusPending || s == InstallmentStatusPaid
}

// RepaymentInstallment represents one scheduled repayment. Amount is Principal + Interest.
// PaidAmount, PaidPrincipal and PaidInterest track partial payments applied so far.
type RepaymentInstallment struct {
	ID            uuid.UUID         `json:"id" db:"id"`
	LoanID        uuid.UUID         `json:"loan_id" db:"loan_id"`
	Number        int               `json:"installment_number" db:"installment_number"`
	DueDate       time.Time         `json:"due_date" db:"due_date"`
	Principal     decimal.Decimal   `json:"principal" db:"principal"`
	Interest      decimal.Decimal   `json:"interest" db:"interest"`
	Amount        decimal.Decimal   `json:"amount" db:"amount"`
	PaidAmount    decimal.Decimal   `json:"paid_amount" db:"paid_amount"`
	PaidPrincipal decimal.Decimal   `json:"paid_principal" db:"paid_principal"`
	PaidInterest  decimal.Decimal   `json:"paid_interest" db:"paid_interest"`
	Status        InstallmentStatus `json:"status" db:"status"`
	PaidAt        *time.Time        `json:"paid_at,omitempty" db:"paid_at"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at" db:"updated_at"`
}

func (i *RepaymentInstallment) IsPending() bool {
	return i.Status == InstallmentStatusPending
}

// Outstanding is the unpaid part of the installment
func (i *RepaymentInstallment) Outstanding() decimal.Decimal {
	return clampZero(i.Amount.Sub(i.PaidAmount))
}

func (i *RepaymentInstallment) OutstandingPrincipal() decimal.Decimal {
	return clampZero(i.Principal.Sub(i.PaidPrincipal))
}

func (i *RepaymentInstallment) OutstandingInterest() decimal.Decimal {
	return clampZero(i.Interest.Sub(i.PaidInterest))
}

func (i *RepaymentInstallment) Clone() *RepaymentInstallment {
	c := *i
	c.PaidAt = cloneTime(i.PaidAt)
	return &c
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

type ExtendScheduleRequest struct {
	AdditionalMonths int `json:"additional_months" validate:"required,gt=0,lte=600"`
}

type AddScheduleRequest struct {
	StartingNumber int             `json:"starting_installment_number" validate:"required,gt=0"`
	FirstDueDate   time.Time       `json:"first_due_date" validate:"required"`
	Count          int             `json:"count" validate:"required,gt=0,lte=600"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment" validate:"decimal_gt=0,decimal_cents"`
}

type AutoAddScheduleRequest struct {
	FirstDueDate   *time.Time      `json:"first_due_date,omitempty"`
	Count          int             `json:"count" validate:"required,gt=0,lte=600"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment" validate:"decimal_gt=0,decimal_cents"`
}

type RegenerateScheduleRequest struct {
	MonthlyPayment decimal.Decimal `json:"monthly_payment" validate:"decimal_gt=0,decimal_cents"`
	Term           int             `json:"term" validate:"required,gt=0,lte=600"`
	StartDate      time.Time       `json:"start_date" validate:"required"`
}

// UpdateInstallmentRequest carries optional field edits; nil fields are left unchanged
type UpdateInstallmentRequest struct {
	Amount   *decimal.Decimal   `json:"amount,omitempty" validate:"omitempty,decimal_gt=0,decimal_cents"`
	Status   *InstallmentStatus `json:"status,omitempty" validate:"omitempty,oneof=PENDING PAID"`
	DueDate  *time.Time         `json:"due_date,omitempty"`
	PaidDate *time.Time         `json:"paid_date,omitempty"`
}

type MarkInstallmentPaidRequest struct {
	Amount    decimal.Decimal `json:"amount" validate:"decimal_gte=0,decimal_cents"`
	Method    string          `json:"method" validate:"required,max=50"`
	Reference string          `json:"reference" validate:"max=100"`
	PaidDate  *time.Time      `json:"paid_date,omitempty"`
}

type ScheduleResponse struct {
	LoanID   uuid.UUID               `json:"loan_id"`
	Schedule []*RepaymentInstallment `json:"schedule"`
}

// OverdueInstallment pairs an overdue installment with its loan owner for reminder jobs
type OverdueInstallment struct {
	LoanID      uuid.UUID       `json:"loan_id" db:"loan_id"`
	UserID      uuid.UUID       `json:"user_id" db:"user_id"`
	Number      int             `json:"installment_number" db:"installment_number"`
	DueDate     time.Time       `json:"due_date" db:"due_date"`
	Outstanding decimal.Decimal `json:"outstanding" db:"outstanding"`
}
