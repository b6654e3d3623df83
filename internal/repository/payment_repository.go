package repository

import (
	"context"

	"github.com/segyhp/finance-ledger/internal/domain"
	customError "github.com/segyhp/finance-ledger/pkg/errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const paymentColumns = `id, loan_id, installment_number, amount, principal_amount, interest_amount, method,
	reference, status, transaction_type, description, payment_date, created_at, updated_at`

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) ListPayments(ctx context.Context, loanID uuid.UUID) ([]*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM loan_payments
		WHERE loan_id = $1
		ORDER BY payment_date, created_at
	`

	var payments []*domain.Payment
	if err := r.db.SelectContext(ctx, &payments, query, loanID); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return payments, nil
}

func (r *paymentRepository) PaymentReferenceExists(ctx context.Context, loanID uuid.UUID, reference string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM loan_payments WHERE loan_id = $1 AND reference = $2)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, loanID, reference); err != nil {
		return false, customError.WrapDatabaseError(err)
	}

	return exists, nil
}
