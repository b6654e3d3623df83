// Package uow collects the mutations of one financial operation so they can be committed
// atomically. Nothing is written until a Committer receives the Work; dropping the Work
// discards every pending change.
package uow

import (
	"context"

	"github.com/segyhp/finance-ledger/internal/domain"

	"github.com/google/uuid"
)

// Committer persists a Work in a single transaction
type Committer interface {
	Commit(ctx context.Context, w *Work) error
}

type Work struct {
	loans              []*domain.Loan
	deletedLoans       []uuid.UUID
	installments       []*domain.RepaymentInstallment
	deletedInstallment []uuid.UUID
	payments           []*domain.Payment
	entries            []*domain.JournalEntry
}

func New() *Work {
	return &Work{}
}

// SaveLoan registers an insert-or-update of loan. Saving the same loan twice keeps the latest pointer.
func (w *Work) SaveLoan(loan *domain.Loan) {
	for i, l := range w.loans {
		if l.ID == loan.ID {
			w.loans[i] = loan
			return
		}
	}
	w.loans = append(w.loans, loan)
}

// DeleteLoan removes the loan with its installments and payments
func (w *Work) DeleteLoan(id uuid.UUID) {
	w.deletedLoans = append(w.deletedLoans, id)
}

func (w *Work) SaveInstallment(inst *domain.RepaymentInstallment) {
	for i, existing := range w.installments {
		if existing.ID == inst.ID {
			w.installments[i] = inst
			return
		}
	}
	w.installments = append(w.installments, inst)
}

func (w *Work) SaveInstallments(insts []*domain.RepaymentInstallment) {
	for _, inst := range insts {
		w.SaveInstallment(inst)
	}
}

func (w *Work) DeleteInstallment(id uuid.UUID) {
	kept := w.installments[:0]
	for _, inst := range w.installments {
		if inst.ID != id {
			kept = append(kept, inst)
		}
	}
	w.installments = kept
	w.deletedInstallment = append(w.deletedInstallment, id)
}

func (w *Work) AddPayment(p *domain.Payment) {
	w.payments = append(w.payments, p)
}

// AddJournalEntry satisfies ledger.Sink
func (w *Work) AddJournalEntry(entry *domain.JournalEntry) {
	w.entries = append(w.entries, entry)
}

func (w *Work) Loans() []*domain.Loan                       { return w.loans }
func (w *Work) DeletedLoans() []uuid.UUID                   { return w.deletedLoans }
func (w *Work) Installments() []*domain.RepaymentInstallment { return w.installments }
func (w *Work) DeletedInstallments() []uuid.UUID            { return w.deletedInstallment }
func (w *Work) Payments() []*domain.Payment                 { return w.payments }
func (w *Work) JournalEntries() []*domain.JournalEntry      { return w.entries }

// LoanIDs lists every loan touched by the Work, for cache invalidation
func (w *Work) LoanIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	add := func(id uuid.UUID) {
		if id == uuid.Nil {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, l := range w.loans {
		add(l.ID)
	}
	for _, id := range w.deletedLoans {
		add(id)
	}
	for _, inst := range w.installments {
		add(inst.LoanID)
	}
	for _, p := range w.payments {
		add(p.LoanID)
	}
	return ids
}

func (w *Work) Empty() bool {
	return len(w.loans) == 0 && len(w.deletedLoans) == 0 &&
		len(w.installments) == 0 && len(w.deletedInstallment) == 0 &&
		len(w.payments) == 0 && len(w.entries) == 0
}
