// Package ledger builds balanced double-entry journal entries for every money-moving event.
// The engine never persists anything: validated entries are handed to a Sink, normally the
// caller's unit of work.
package ledger

import (
	"strings"
	"time"

	"github.com/segyhp/finance-ledger/internal/domain"
	customError "github.com/segyhp/finance-ledger/pkg/errors"
	"github.com/segyhp/finance-ledger/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sink receives entries that passed validation
type Sink interface {
	AddJournalEntry(entry *domain.JournalEntry)
}

// Params are the business inputs shared by every entry builder
type Params struct {
	UserID uuid.UUID
	Amount decimal.Decimal

	// Account-name hints. BankAccount qualifies "Bank Account", SavingsAccount qualifies
	// "Savings Account" and Category drives the expense/income rule tables.
	BankAccount    string
	SavingsAccount string
	Category       string

	Reference   string
	Description string
	Date        *time.Time

	LoanID           *uuid.UUID
	BillID           *uuid.UUID
	SavingsAccountID *uuid.UUID
	ReceivableID     *uuid.UUID
}

// PaymentParams splits a loan repayment into principal and interest; Amount is the total
type PaymentParams struct {
	Params
	Principal decimal.Decimal
	Interest  decimal.Decimal
}

// TransferParams moves Amount from one bank account to another
type TransferParams struct {
	UserID      uuid.UUID
	Amount      decimal.Decimal
	FromAccount string
	ToAccount   string
	Reference   string
	Description string
	Date        *time.Time
}

type Engine struct {
	expense RuleTable
	income  RuleTable
	now     func() time.Time
}

type Option func(*Engine)

// WithClock overrides the clock used for default entry dates
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRules replaces the expense and income rule tables
func WithRules(expense, income RuleTable) Option {
	return func(e *Engine) {
		e.expense = expense
		e.income = income
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		expense: ExpenseRules,
		income:  IncomeRules,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExpenseAccount resolves a bill type or expense category to its expense account
func (e *Engine) ExpenseAccount(category string) string {
	return e.expense.Resolve(category)
}

// IncomeAccount resolves an income category to its revenue account
func (e *Engine) IncomeAccount(category string) string {
	return e.income.Resolve(category)
}

// CreateDisbursementEntry records loan funds arriving in the borrower's bank account
func (e *Engine) CreateDisbursementEntry(sink Sink, p Params) (*domain.JournalEntry, error) {
	return e.simple(sink, p, domain.EntryTypeDisbursement,
		"Loan disbursement",
		account{qualified(AccountBank, p.BankAccount), domain.AccountCategoryAsset},
		account{AccountLoanPayable, domain.AccountCategoryLiability},
	)
}

// CreatePaymentEntry records a loan repayment: principal reduces Loan Payable, interest is
// expensed, and the total leaves the bank account. A zero interest portion produces no line.
func (e *Engine) CreatePaymentEntry(sink Sink, p PaymentParams) (*domain.JournalEntry, error) {
	if err := requirePositive("total", p.Amount); err != nil {
		return nil, err
	}
	if p.Principal.IsNegative() {
		return nil, customError.WrapNonPositiveAmount("principal")
	}
	if p.Interest.IsNegative() {
		return nil, customError.WrapNonPositiveAmount("interest")
	}
	if !utils.IsWholeCents(p.Principal) || !utils.IsWholeCents(p.Interest) {
		return nil, customError.WrapAmountPrecision("principal and interest", p.Principal.String()+"/"+p.Interest.String())
	}

	entry := e.newEntry(p.Params, domain.EntryTypePayment, "Loan payment")
	if p.Principal.IsPositive() {
		entry.addLine(AccountLoanPayable, domain.AccountCategoryLiability, domain.SideDebit, p.Principal, "Principal repayment")
	}
	if p.Interest.IsPositive() {
		entry.addLine(AccountInterestExpense, domain.AccountCategoryExpense, domain.SideDebit, p.Interest, "Interest payment")
	}
	entry.addLine(qualified(AccountBank, p.BankAccount), domain.AccountCategoryAsset, domain.SideCredit, p.Amount, "Loan payment")

	return e.finish(sink, entry.JournalEntry)
}

// CreateBillPaymentEntry expenses a bill paid straight from the bank account
func (e *Engine) CreateBillPaymentEntry(sink Sink, p Params) (*domain.JournalEntry, error) {
	return e.simple(sink, p, domain.EntryTypeBillPayment,
		"Bill payment",
		account{e.ExpenseAccount(p.Category), domain.AccountCategoryExpense},
		account{qualified(AccountBank, p.BankAccount), domain.AccountCategoryAsset},
	)
}

// CreateBillAccrualEntry recognises a bill as owed before it is paid
func (e *Engine) CreateBillAccrualEntry(sink Sink, p Params) (*domain.JournalEntry, error) {
	return e.simple(sink, p, domain.EntryTypeBillAccrual,
		"Bill accrual",
		account{e.ExpenseAccount(p.Category), domain.AccountCategoryExpense},
		account{AccountAccountsPayable, domain.AccountCategoryLiability},
	)
}

// CreateBillPaymentFromPayableEntry settles a previously accrued bill
func (e *Engine) CreateBillPaymentFromPayableEntry(sink Sink, p Params) (*domain.JournalEntry, error) {
	return e.simple(sink, p, domain.EntryTypeBillPayment,
		"Bill payment from payable",
		account{AccountAccountsPayable, domain.AccountCategoryLiability},
		account{qualified(AccountBank, p.BankAccount), domain.AccountCategoryAsset},
	)
}

func (e *Engine) CreateSavingsDepositEntry(sink Sink, p Params) (*domain.JournalEntry, error) {
	return e.simple(sink, p, domain.EntryTypeSavingsDeposit,
		"Savings deposit",
		account{qualified(AccountSavings, p.SavingsAccount), domain.AccountCategoryAsset},
		account{qualified(AccountBank, p.BankAccount), domain.AccountCategoryAsset},
	)
}

func (e *Engine) CreateSavingsWithdrawalEntry(sink Sink, p Params) (*domain.JournalEntry, error) {
	return e.simple(sink, p, domain.EntryTypeSavingsWithdrawal,
		"Savings withdrawal",
		account{qualified(AccountBank, p.BankAccount), domain.AccountCategoryAsset},
		account{qualified(AccountSavings, p.SavingsAccount), domain.AccountCategoryAsset},
	)
}

// CreateInterestIncomeEntry accrues interest earned on a savings account
func (e *Engine) CreateInterestIncomeEntry(sink Sink, p Params) (*domain.JournalEntry, error) {
	return e.simple(sink, p, domain.EntryTypeInterestAccrual,
		"Savings interest",
		account{qualified(AccountSavings, p.SavingsAccount), domain.AccountCategoryAsset},
		account{AccountInterestIncome, domain.AccountCategoryRevenue},
	)
}

func (e *Engine) CreateExpenseEntry(sink Sink, p Params) (*domain.JournalEntry, error) {
	return e.simple(sink, p, domain.EntryTypeExpense,
		"Expense",
		account{e.ExpenseAccount(p.Category), domain.AccountCategoryExpense},
		account{qualified(AccountBank, p.BankAccount), domain.AccountCategoryAsset},
	)
}

func (e *Engine) CreateIncomeEntry(sink Sink, p Params) (*domain.JournalEntry, error) {
	return e.simple(sink, p, domain.EntryTypeIncome,
		"Income",
		account{qualified(AccountBank, p.BankAccount), domain.AccountCategoryAsset},
		account{e.IncomeAccount(p.Category), domain.AccountCategoryRevenue},
	)
}

// CreateBankTransferEntry debits the destination and credits the source. The two accounts
// must differ, compared case-insensitively.
func (e *Engine) CreateBankTransferEntry(sink Sink, p TransferParams) (*domain.JournalEntry, error) {
	if err := requirePositive("transfer amount", p.Amount); err != nil {
		return nil, err
	}

	from := qualified(AccountBank, p.FromAccount)
	to := qualified(AccountBank, p.ToAccount)
	if strings.EqualFold(strings.TrimSpace(from), strings.TrimSpace(to)) {
		return nil, customError.WrapTransferSameAccount(from)
	}

	params := Params{
		UserID:      p.UserID,
		Amount:      p.Amount,
		Reference:   p.Reference,
		Description: p.Description,
		Date:        p.Date,
	}
	return e.simple(sink, params, domain.EntryTypeTransfer,
		"Bank transfer",
		account{to, domain.AccountCategoryAsset},
		account{from, domain.AccountCategoryAsset},
	)
}

func (e *Engine) CreateReceivableAccrualEntry(sink Sink, p Params) (*domain.JournalEntry, error) {
	return e.simple(sink, p, domain.EntryTypeReceivableAccrual,
		"Receivable accrual",
		account{AccountAccountsReceivable, domain.AccountCategoryAsset},
		account{e.IncomeAccount(p.Category), domain.AccountCategoryRevenue},
	)
}

func (e *Engine) CreateReceivablePaymentEntry(sink Sink, p Params) (*domain.JournalEntry, error) {
	return e.simple(sink, p, domain.EntryTypeReceivablePayment,
		"Receivable collected",
		account{qualified(AccountBank, p.BankAccount), domain.AccountCategoryAsset},
		account{AccountAccountsReceivable, domain.AccountCategoryAsset},
	)
}

type account struct {
	name     string
	category domain.AccountCategory
}

// simple builds the common two-line entry: debit one account, credit another, same amount
func (e *Engine) simple(sink Sink, p Params, entryType domain.EntryType, defaultDescription string, debit, credit account) (*domain.JournalEntry, error) {
	if err := requirePositive("amount", p.Amount); err != nil {
		return nil, err
	}

	entry := e.newEntry(p, entryType, defaultDescription)
	entry.addLine(debit.name, debit.category, domain.SideDebit, p.Amount, entry.Description)
	entry.addLine(credit.name, credit.category, domain.SideCredit, p.Amount, entry.Description)

	return e.finish(sink, entry.JournalEntry)
}

func (e *Engine) finish(sink Sink, entry *domain.JournalEntry) (*domain.JournalEntry, error) {
	if err := Validate(entry); err != nil {
		return nil, err
	}
	if sink != nil {
		sink.AddJournalEntry(entry)
	}
	return entry, nil
}

type entryBuilder struct {
	*domain.JournalEntry
}

func (e *Engine) newEntry(p Params, entryType domain.EntryType, defaultDescription string) entryBuilder {
	date := e.now()
	if p.Date != nil {
		date = *p.Date
	}
	description := strings.TrimSpace(p.Description)
	if description == "" {
		description = defaultDescription
	}

	return entryBuilder{&domain.JournalEntry{
		ID:               uuid.New(),
		UserID:           p.UserID,
		LoanID:           p.LoanID,
		BillID:           p.BillID,
		SavingsAccountID: p.SavingsAccountID,
		ReceivableID:     p.ReceivableID,
		EntryType:        entryType,
		EntryDate:        date,
		Description:      description,
		Reference:        p.Reference,
		TotalDebit:       p.Amount,
		TotalCredit:      p.Amount,
		CreatedAt:        e.now(),
	}}
}

func (b entryBuilder) addLine(name string, category domain.AccountCategory, side domain.Side, amount decimal.Decimal, description string) {
	b.Lines = append(b.Lines, domain.JournalEntryLine{
		ID:              uuid.New(),
		EntryID:         b.ID,
		LineNumber:      len(b.Lines) + 1,
		AccountName:     name,
		AccountCategory: category,
		Side:            side,
		Amount:          amount,
		Description:     description,
	})
}

func requirePositive(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return customError.WrapNonPositiveAmount(field)
	}
	if !utils.IsWholeCents(amount) {
		return customError.WrapAmountPrecision(field, amount.String())
	}
	return nil
}
