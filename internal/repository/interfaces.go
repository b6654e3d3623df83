package repository

import (
	"context"
	"time"

	"github.com/segyhp/finance-ledger/internal/domain"
	"github.com/segyhp/finance-ledger/internal/uow"

	"github.com/google/uuid"
)

// LoanRepository defines the read side for loans and their schedules. Writes go through Commit.
type LoanRepository interface {
	// GetLoan retrieves a loan, or a NotFound error
	GetLoan(ctx context.Context, id uuid.UUID) (*domain.Loan, error)

	// ListLoansByUser retrieves the loans owned by a user, newest first
	ListLoansByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Loan, error)

	// GetSchedule retrieves the installments of a loan ordered by number
	GetSchedule(ctx context.Context, loanID uuid.UUID) ([]*domain.RepaymentInstallment, error)

	// ListOverdueInstallments lists PENDING installments of ACTIVE loans due before asOf's day
	ListOverdueInstallments(ctx context.Context, asOf time.Time) ([]*domain.OverdueInstallment, error)

	// ListInstallmentsDueBetween lists PENDING installments of ACTIVE loans due in [from, to]
	ListInstallmentsDueBetween(ctx context.Context, from, to time.Time) ([]*domain.OverdueInstallment, error)
}

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	// ListPayments retrieves all payment records of a loan ordered by payment date
	ListPayments(ctx context.Context, loanID uuid.UUID) ([]*domain.Payment, error)

	// PaymentReferenceExists reports whether reference was already used for the loan
	PaymentReferenceExists(ctx context.Context, loanID uuid.UUID, reference string) (bool, error)
}

// JournalRepository defines the read side for journal entries
type JournalRepository interface {
	GetJournalEntry(ctx context.Context, id uuid.UUID) (*domain.JournalEntry, error)
	ListJournalEntriesByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.JournalEntry, error)
	ListJournalEntriesByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.JournalEntry, error)
}

// Store is everything the services need from persistence
type Store interface {
	LoanRepository
	PaymentRepository
	JournalRepository
	uow.Committer
}
