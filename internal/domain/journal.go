package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EntryType string

const (
	EntryTypeDisbursement      EntryType = "DISBURSEMENT"
	EntryTypePayment           EntryType = "PAYMENT"
	EntryTypeBillPayment       EntryType = "BILL_PAYMENT"
	EntryTypeSavingsDeposit    EntryType = "SAVINGS_DEPOSIT"
	EntryTypeSavingsWithdrawal EntryType = "SAVINGS_WITHDRAWAL"
	EntryTypeExpense           EntryType = "EXPENSE"
	EntryTypeIncome            EntryType = "INCOME"
	EntryTypeTransfer          EntryType = "TRANSFER"
	EntryTypeInterestAccrual   EntryType = "INTEREST_ACCRUAL"
	EntryTypeBillAccrual       EntryType = "BILL_ACCRUAL"
	EntryTypeReceivableAccrual EntryType = "RECEIVABLE_ACCRUAL"
	EntryTypeReceivablePayment EntryType = "RECEIVABLE_PAYMENT"
)

func (t EntryType) IsValid() bool {
	switch t {
	case EntryTypeDisbursement, EntryTypePayment, EntryTypeBillPayment,
		EntryTypeSavingsDeposit, EntryTypeSavingsWithdrawal, EntryTypeExpense,
		EntryTypeIncome, EntryTypeTransfer, EntryTypeInterestAccrual,
		EntryTypeBillAccrual, EntryTypeReceivableAccrual, EntryTypeReceivablePayment:
		return true
	}
	return false
}

type AccountCategory string

const (
	AccountCategoryAsset     AccountCategory = "ASSET"
	AccountCategoryLiability AccountCategory = "LIABILITY"
	AccountCategoryExpense   AccountCategory = "EXPENSE"
	AccountCategoryRevenue   AccountCategory = "REVENUE"
)

type Side string

const (
	SideDebit  Side = "DEBIT"
	SideCredit Side = "CREDIT"
)

// JournalEntry is one balanced financial event. Entries are never edited after creation.
type JournalEntry struct {
	ID               uuid.UUID          `json:"id" db:"id"`
	UserID           uuid.UUID          `json:"user_id" db:"user_id"`
	LoanID           *uuid.UUID         `json:"loan_id,omitempty" db:"loan_id"`
	BillID           *uuid.UUID         `json:"bill_id,omitempty" db:"bill_id"`
	SavingsAccountID *uuid.UUID         `json:"savings_account_id,omitempty" db:"savings_account_id"`
	ReceivableID     *uuid.UUID         `json:"receivable_id,omitempty" db:"receivable_id"`
	EntryType        EntryType          `json:"entry_type" db:"entry_type"`
	EntryDate        time.Time          `json:"entry_date" db:"entry_date"`
	Description      string             `json:"description" db:"description"`
	Reference        string             `json:"reference" db:"reference"`
	TotalDebit       decimal.Decimal    `json:"total_debit" db:"total_debit"`
	TotalCredit      decimal.Decimal    `json:"total_credit" db:"total_credit"`
	Lines            []JournalEntryLine `json:"lines" db:"-"`
	CreatedAt        time.Time          `json:"created_at" db:"created_at"`
}

type JournalEntryLine struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	EntryID         uuid.UUID       `json:"entry_id" db:"entry_id"`
	LineNumber      int             `json:"line_number" db:"line_number"`
	AccountName     string          `json:"account_name" db:"account_name"`
	AccountCategory AccountCategory `json:"account_category" db:"account_category"`
	Side            Side            `json:"side" db:"side"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	Description     string          `json:"description" db:"description"`
}

// Sums returns the debit and credit line totals
func (e *JournalEntry) Sums() (debit, credit decimal.Decimal) {
	for _, line := range e.Lines {
		switch line.Side {
		case SideDebit:
			debit = debit.Add(line.Amount)
		case SideCredit:
			credit = credit.Add(line.Amount)
		}
	}
	return debit, credit
}

// JournalEntryKind names the collaborator-facing entry builders exposed over HTTP
type JournalEntryKind string

const (
	JournalKindBillPayment            JournalEntryKind = "bill_payment"
	JournalKindBillAccrual            JournalEntryKind = "bill_accrual"
	JournalKindBillPaymentFromPayable JournalEntryKind = "bill_payment_from_payable"
	JournalKindSavingsDeposit         JournalEntryKind = "savings_deposit"
	JournalKindSavingsWithdrawal      JournalEntryKind = "savings_withdrawal"
	JournalKindInterestIncome         JournalEntryKind = "interest_income"
	JournalKindExpense                JournalEntryKind = "expense"
	JournalKindIncome                 JournalEntryKind = "income"
	JournalKindBankTransfer           JournalEntryKind = "bank_transfer"
	JournalKindReceivableAccrual      JournalEntryKind = "receivable_accrual"
	JournalKindReceivablePayment      JournalEntryKind = "receivable_payment"
)

type RecordJournalEntryRequest struct {
	Kind             JournalEntryKind `json:"kind" validate:"required,oneof=bill_payment bill_accrual bill_payment_from_payable savings_deposit savings_withdrawal interest_income expense income bank_transfer receivable_accrual receivable_payment"`
	UserID           uuid.UUID        `json:"user_id" validate:"required"`
	Amount           decimal.Decimal  `json:"amount" validate:"decimal_gt=0,decimal_cents"`
	BankAccount      string           `json:"bank_account" validate:"max=100"`
	ToBankAccount    string           `json:"to_bank_account" validate:"max=100"`
	Category         string           `json:"category" validate:"max=100"`
	SavingsAccount   string           `json:"savings_account" validate:"max=100"`
	Reference        string           `json:"reference" validate:"max=100"`
	Description      string           `json:"description" validate:"max=255"`
	EntryDate        *time.Time       `json:"entry_date,omitempty"`
	BillID           *uuid.UUID       `json:"bill_id,omitempty"`
	SavingsAccountID *uuid.UUID       `json:"savings_account_id,omitempty"`
	ReceivableID     *uuid.UUID       `json:"receivable_id,omitempty"`
}
