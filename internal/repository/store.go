package repository

import (
	"context"
	"errors"

	"github.com/segyhp/finance-ledger/internal/uow"
	customError "github.com/segyhp/finance-ledger/pkg/errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// PostgresStore bundles the sqlx repositories and commits a Work in one transaction
type PostgresStore struct {
	LoanRepository
	PaymentRepository
	JournalRepository
	db *sqlx.DB
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{
		LoanRepository:    NewLoanRepository(db),
		PaymentRepository: NewPaymentRepository(db),
		JournalRepository: NewJournalRepository(db),
		db:                db,
	}
}

// Commit writes every pending change of w or none of them
func (s *PostgresStore) Commit(ctx context.Context, w *uow.Work) error {
	if w == nil || w.Empty() {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	defer tx.Rollback()

	for _, loan := range w.Loans() {
		if _, err := tx.NamedExecContext(ctx, upsertLoanQuery, loan); err != nil {
			return translate(err)
		}
	}

	for _, id := range w.DeletedInstallments() {
		if _, err := tx.ExecContext(ctx, `DELETE FROM repayment_installments WHERE id = $1`, id); err != nil {
			return translate(err)
		}
	}

	for _, inst := range w.Installments() {
		if _, err := tx.NamedExecContext(ctx, upsertInstallmentQuery, inst); err != nil {
			return translate(err)
		}
	}

	for _, p := range w.Payments() {
		if _, err := tx.NamedExecContext(ctx, insertPaymentQuery, p); err != nil {
			return translatePayment(err, p.Reference)
		}
	}

	for _, entry := range w.JournalEntries() {
		if _, err := tx.NamedExecContext(ctx, insertEntryQuery, entry); err != nil {
			return translate(err)
		}
		for i := range entry.Lines {
			if _, err := tx.NamedExecContext(ctx, insertLineQuery, &entry.Lines[i]); err != nil {
				return translate(err)
			}
		}
	}

	for _, id := range w.DeletedLoans() {
		if _, err := tx.ExecContext(ctx, `DELETE FROM loans WHERE id = $1`, id); err != nil {
			return translate(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return customError.WrapDatabaseError(err)
	}
	return nil
}

func translate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return customError.NewValidationError("UNIQUE_VIOLATION", pqErr.Message, customError.ErrInvalidInput)
	}
	return customError.WrapDatabaseError(err)
}

func translatePayment(err error, reference string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation && pqErr.Constraint == "uq_loan_payments_reference" {
		return customError.WrapDuplicateReference(reference)
	}
	return translate(err)
}

const upsertLoanQuery = `
	INSERT INTO loans (` + loanColumns + `)
	VALUES (:id, :user_id, :purpose, :principal, :interest_rate, :term, :interest_method, :monthly_payment,
		:total_amount, :remaining_balance, :status, :bank_account_id, :applied_at, :approved_at, :disbursed_at,
		:completed_at, :created_at, :updated_at)
	ON CONFLICT (id) DO UPDATE SET
		purpose = EXCLUDED.purpose,
		principal = EXCLUDED.principal,
		interest_rate = EXCLUDED.interest_rate,
		term = EXCLUDED.term,
		interest_method = EXCLUDED.interest_method,
		monthly_payment = EXCLUDED.monthly_payment,
		total_amount = EXCLUDED.total_amount,
		remaining_balance = EXCLUDED.remaining_balance,
		status = EXCLUDED.status,
		bank_account_id = EXCLUDED.bank_account_id,
		approved_at = EXCLUDED.approved_at,
		disbursed_at = EXCLUDED.disbursed_at,
		completed_at = EXCLUDED.completed_at,
		updated_at = EXCLUDED.updated_at`

const upsertInstallmentQuery = `
	INSERT INTO repayment_installments (` + installmentColumns + `)
	VALUES (:id, :loan_id, :installment_number, :due_date, :principal, :interest, :amount,
		:paid_amount, :paid_principal, :paid_interest, :status, :paid_at, :created_at, :updated_at)
	ON CONFLICT (id) DO UPDATE SET
		installment_number = EXCLUDED.installment_number,
		due_date = EXCLUDED.due_date,
		principal = EXCLUDED.principal,
		interest = EXCLUDED.interest,
		amount = EXCLUDED.amount,
		paid_amount = EXCLUDED.paid_amount,
		paid_principal = EXCLUDED.paid_principal,
		paid_interest = EXCLUDED.paid_interest,
		status = EXCLUDED.status,
		paid_at = EXCLUDED.paid_at,
		updated_at = EXCLUDED.updated_at`

const insertPaymentQuery = `
	INSERT INTO loan_payments (` + paymentColumns + `)
	VALUES (:id, :loan_id, :installment_number, :amount, :principal_amount, :interest_amount, :method,
		:reference, :status, :transaction_type, :description, :payment_date, :created_at, :updated_at)`

const insertEntryQuery = `
	INSERT INTO journal_entries (` + entryColumns + `)
	VALUES (:id, :user_id, :loan_id, :bill_id, :savings_account_id, :receivable_id, :entry_type, :entry_date,
		:description, :reference, :total_debit, :total_credit, :created_at)`

const insertLineQuery = `
	INSERT INTO journal_entry_lines (` + lineColumns + `)
	VALUES (:id, :entry_id, :line_number, :account_name, :account_category, :side, :amount, :description)`
