package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/segyhp/finance-ledger/internal/domain"
	customError "github.com/segyhp/finance-ledger/pkg/errors"
	"github.com/segyhp/finance-ledger/pkg/utils"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const loanColumns = `id, user_id, purpose, principal, interest_rate, term, interest_method, monthly_payment,
	total_amount, remaining_balance, status, bank_account_id, applied_at, approved_at, disbursed_at,
	completed_at, created_at, updated_at`

const installmentColumns = `id, loan_id, installment_number, due_date, principal, interest, amount,
	paid_amount, paid_principal, paid_interest, status, paid_at, created_at, updated_at`

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) GetLoan(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`

	var loan domain.Loan
	err := r.db.GetContext(ctx, &loan, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapLoanNotFound(id.String())
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return &loan, nil
}

func (r *loanRepository) ListLoansByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE user_id = $1 ORDER BY applied_at DESC`

	var loans []*domain.Loan
	if err := r.db.SelectContext(ctx, &loans, query, userID); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return loans, nil
}

func (r *loanRepository) GetSchedule(ctx context.Context, loanID uuid.UUID) ([]*domain.RepaymentInstallment, error) {
	query := `
		SELECT ` + installmentColumns + `
		FROM repayment_installments
		WHERE loan_id = $1
		ORDER BY installment_number
	`

	var installments []*domain.RepaymentInstallment
	if err := r.db.SelectContext(ctx, &installments, query, loanID); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return installments, nil
}

func (r *loanRepository) ListOverdueInstallments(ctx context.Context, asOf time.Time) ([]*domain.OverdueInstallment, error) {
	query := `
		SELECT i.loan_id, l.user_id, i.installment_number, i.due_date, (i.amount - i.paid_amount) AS outstanding
		FROM repayment_installments i
		JOIN loans l ON l.id = i.loan_id
		WHERE l.status = 'ACTIVE' AND i.status = 'PENDING' AND i.due_date < $1
		ORDER BY i.due_date, i.loan_id, i.installment_number
	`

	var overdue []*domain.OverdueInstallment
	if err := r.db.SelectContext(ctx, &overdue, query, utils.StartOfDay(asOf)); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return overdue, nil
}

func (r *loanRepository) ListInstallmentsDueBetween(ctx context.Context, from, to time.Time) ([]*domain.OverdueInstallment, error) {
	query := `
		SELECT i.loan_id, l.user_id, i.installment_number, i.due_date, (i.amount - i.paid_amount) AS outstanding
		FROM repayment_installments i
		JOIN loans l ON l.id = i.loan_id
		WHERE l.status = 'ACTIVE' AND i.status = 'PENDING' AND i.due_date >= $1 AND i.due_date < $2
		ORDER BY i.due_date, i.loan_id, i.installment_number
	`

	var due []*domain.OverdueInstallment
	err := r.db.SelectContext(ctx, &due, query, utils.StartOfDay(from), utils.StartOfDay(to).AddDate(0, 0, 1))
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return due, nil
}
