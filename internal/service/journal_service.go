package service

import (
	"context"
	"log/slog"

	"github.com/segyhp/finance-ledger/internal/domain"
	"github.com/segyhp/finance-ledger/internal/ledger"
	"github.com/segyhp/finance-ledger/internal/uow"
	customError "github.com/segyhp/finance-ledger/pkg/errors"

	"github.com/google/uuid"
)

const defaultJournalLimit = 100

// JournalService records journal entries for events outside the loan flows
type JournalService struct {
	*core
}

// Record builds the entry for req.Kind and persists it on its own
func (s *JournalService) Record(ctx context.Context, req *domain.RecordJournalEntryRequest) (*domain.JournalEntry, error) {
	w := uow.New()

	entry, err := s.build(w, req)
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, w); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "journal entry recorded",
		slog.String("entry_id", entry.ID.String()),
		slog.String("entry_type", string(entry.EntryType)),
		slog.String("amount", entry.TotalDebit.String()),
	)
	return entry, nil
}

func (s *JournalService) build(w *uow.Work, req *domain.RecordJournalEntryRequest) (*domain.JournalEntry, error) {
	p := ledger.Params{
		UserID:           req.UserID,
		Amount:           req.Amount,
		BankAccount:      req.BankAccount,
		SavingsAccount:   req.SavingsAccount,
		Category:         req.Category,
		Reference:        req.Reference,
		Description:      req.Description,
		Date:             req.EntryDate,
		BillID:           req.BillID,
		SavingsAccountID: req.SavingsAccountID,
		ReceivableID:     req.ReceivableID,
	}

	switch req.Kind {
	case domain.JournalKindBillPayment:
		return s.ledger.CreateBillPaymentEntry(w, p)
	case domain.JournalKindBillAccrual:
		return s.ledger.CreateBillAccrualEntry(w, p)
	case domain.JournalKindBillPaymentFromPayable:
		return s.ledger.CreateBillPaymentFromPayableEntry(w, p)
	case domain.JournalKindSavingsDeposit:
		return s.ledger.CreateSavingsDepositEntry(w, p)
	case domain.JournalKindSavingsWithdrawal:
		return s.ledger.CreateSavingsWithdrawalEntry(w, p)
	case domain.JournalKindInterestIncome:
		return s.ledger.CreateInterestIncomeEntry(w, p)
	case domain.JournalKindExpense:
		return s.ledger.CreateExpenseEntry(w, p)
	case domain.JournalKindIncome:
		return s.ledger.CreateIncomeEntry(w, p)
	case domain.JournalKindReceivableAccrual:
		return s.ledger.CreateReceivableAccrualEntry(w, p)
	case domain.JournalKindReceivablePayment:
		return s.ledger.CreateReceivablePaymentEntry(w, p)
	case domain.JournalKindBankTransfer:
		return s.ledger.CreateBankTransferEntry(w, ledger.TransferParams{
			UserID:      req.UserID,
			Amount:      req.Amount,
			FromAccount: req.BankAccount,
			ToAccount:   req.ToBankAccount,
			Reference:   req.Reference,
			Description: req.Description,
			Date:        req.EntryDate,
		})
	}
	return nil, customError.WrapInvalidInput("unknown journal entry kind " + string(req.Kind))
}

func (s *JournalService) Get(ctx context.Context, entryID uuid.UUID) (*domain.JournalEntry, error) {
	return s.store.GetJournalEntry(ctx, entryID)
}

// ListByUser returns the newest entries first. A non-positive limit uses the default.
func (s *JournalService) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.JournalEntry, error) {
	if limit <= 0 {
		limit = defaultJournalLimit
	}
	return s.store.ListJournalEntriesByUser(ctx, userID, limit)
}

func (s *JournalService) ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.JournalEntry, error) {
	if _, err := s.store.GetLoan(ctx, loanID); err != nil {
		return nil, err
	}
	return s.store.ListJournalEntriesByLoan(ctx, loanID)
}
