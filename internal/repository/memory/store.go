// Package memory is an in-process Store used when no database is configured and in tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/segyhp/finance-ledger/internal/domain"
	"github.com/segyhp/finance-ledger/internal/repository"
	"github.com/segyhp/finance-ledger/internal/uow"
	customError "github.com/segyhp/finance-ledger/pkg/errors"
	"github.com/segyhp/finance-ledger/pkg/utils"

	"github.com/google/uuid"
)

type Store struct {
	mu           sync.RWMutex
	loans        map[uuid.UUID]*domain.Loan
	installments map[uuid.UUID]*domain.RepaymentInstallment
	payments     map[uuid.UUID][]*domain.Payment
	entries      []*domain.JournalEntry

	failNext error
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		loans:        make(map[uuid.UUID]*domain.Loan),
		installments: make(map[uuid.UUID]*domain.RepaymentInstallment),
		payments:     make(map[uuid.UUID][]*domain.Payment),
	}
}

// FailNextCommit makes the next Commit return err without applying anything
func (s *Store) FailNextCommit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

func (s *Store) GetLoan(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loan, ok := s.loans[id]
	if !ok {
		return nil, customError.WrapLoanNotFound(id.String())
	}
	return loan.Clone(), nil
}

func (s *Store) ListLoansByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var loans []*domain.Loan
	for _, loan := range s.loans {
		if loan.UserID == userID {
			loans = append(loans, loan.Clone())
		}
	}
	sort.Slice(loans, func(i, j int) bool { return loans[i].AppliedAt.After(loans[j].AppliedAt) })
	return loans, nil
}

func (s *Store) GetSchedule(ctx context.Context, loanID uuid.UUID) ([]*domain.RepaymentInstallment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.scheduleLocked(loanID), nil
}

func (s *Store) scheduleLocked(loanID uuid.UUID) []*domain.RepaymentInstallment {
	var out []*domain.RepaymentInstallment
	for _, inst := range s.installments {
		if inst.LoanID == loanID {
			out = append(out, inst.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func (s *Store) ListOverdueInstallments(ctx context.Context, asOf time.Time) ([]*domain.OverdueInstallment, error) {
	cutoff := utils.StartOfDay(asOf)
	return s.pendingWhere(func(due time.Time) bool { return due.Before(cutoff) }), nil
}

func (s *Store) ListInstallmentsDueBetween(ctx context.Context, from, to time.Time) ([]*domain.OverdueInstallment, error) {
	start := utils.StartOfDay(from)
	end := utils.StartOfDay(to).AddDate(0, 0, 1)
	return s.pendingWhere(func(due time.Time) bool { return !due.Before(start) && due.Before(end) }), nil
}

func (s *Store) pendingWhere(match func(due time.Time) bool) []*domain.OverdueInstallment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.OverdueInstallment
	for _, inst := range s.installments {
		loan, ok := s.loans[inst.LoanID]
		if !ok || loan.Status != domain.LoanStatusActive || !inst.IsPending() || !match(inst.DueDate) {
			continue
		}
		out = append(out, &domain.OverdueInstallment{
			LoanID:      inst.LoanID,
			UserID:      loan.UserID,
			Number:      inst.Number,
			DueDate:     inst.DueDate,
			Outstanding: inst.Outstanding(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		if out[i].LoanID != out[j].LoanID {
			return out[i].LoanID.String() < out[j].LoanID.String()
		}
		return out[i].Number < out[j].Number
	})
	return out
}

func (s *Store) ListPayments(ctx context.Context, loanID uuid.UUID) ([]*domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Payment, 0, len(s.payments[loanID]))
	for _, p := range s.payments[loanID] {
		c := *p
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PaymentDate.Before(out[j].PaymentDate) })
	return out, nil
}

func (s *Store) PaymentReferenceExists(ctx context.Context, loanID uuid.UUID, reference string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.referenceUsedLocked(loanID, reference), nil
}

func (s *Store) referenceUsedLocked(loanID uuid.UUID, reference string) bool {
	for _, p := range s.payments[loanID] {
		if p.Reference == reference {
			return true
		}
	}
	return false
}

func (s *Store) GetJournalEntry(ctx context.Context, id uuid.UUID) (*domain.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if e.ID == id {
			return cloneEntry(e), nil
		}
	}
	return nil, customError.NewNotFoundError("JOURNAL_ENTRY_NOT_FOUND", "Journal entry "+id.String()+" not found", customError.ErrNotFound)
}

func (s *Store) ListJournalEntriesByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.JournalEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.JournalEntry
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if s.entries[i].UserID == userID {
			out = append(out, cloneEntry(s.entries[i]))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EntryDate.After(out[j].EntryDate) })
	return out, nil
}

func (s *Store) ListJournalEntriesByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.JournalEntry
	for _, e := range s.entries {
		if e.LoanID != nil && *e.LoanID == loanID {
			out = append(out, cloneEntry(e))
		}
	}
	return out, nil
}

// Commit checks the constraints the database would enforce and then applies w in full
func (s *Store) Commit(ctx context.Context, w *uow.Work) error {
	if w == nil || w.Empty() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return customError.WrapDatabaseError(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return customError.WrapDatabaseError(err)
	}

	if err := s.checkLocked(w); err != nil {
		return err
	}

	for _, loan := range w.Loans() {
		s.loans[loan.ID] = loan.Clone()
	}
	for _, id := range w.DeletedInstallments() {
		delete(s.installments, id)
	}
	for _, inst := range w.Installments() {
		s.installments[inst.ID] = inst.Clone()
	}
	for _, p := range w.Payments() {
		c := *p
		s.payments[p.LoanID] = append(s.payments[p.LoanID], &c)
	}
	for _, e := range w.JournalEntries() {
		s.entries = append(s.entries, cloneEntry(e))
	}
	for _, id := range w.DeletedLoans() {
		s.deleteLoanLocked(id)
	}
	return nil
}

func (s *Store) checkLocked(w *uow.Work) error {
	references := make(map[uuid.UUID]map[string]struct{})
	for _, p := range w.Payments() {
		if _, ok := s.loans[p.LoanID]; !ok && !savesLoan(w, p.LoanID) {
			return customError.WrapLoanNotFound(p.LoanID.String())
		}
		seen := references[p.LoanID]
		if seen == nil {
			seen = make(map[string]struct{})
			references[p.LoanID] = seen
		}
		if _, dup := seen[p.Reference]; dup || s.referenceUsedLocked(p.LoanID, p.Reference) {
			return customError.WrapDuplicateReference(p.Reference)
		}
		seen[p.Reference] = struct{}{}
	}

	// Resulting (loan, number) pairs must stay unique
	deleted := make(map[uuid.UUID]struct{}, len(w.DeletedInstallments()))
	for _, id := range w.DeletedInstallments() {
		deleted[id] = struct{}{}
	}
	saved := make(map[uuid.UUID]*domain.RepaymentInstallment, len(w.Installments()))
	for _, inst := range w.Installments() {
		saved[inst.ID] = inst
	}

	type slot struct {
		loan   uuid.UUID
		number int
	}
	taken := make(map[slot]uuid.UUID)
	claim := func(inst *domain.RepaymentInstallment) error {
		key := slot{inst.LoanID, inst.Number}
		if other, ok := taken[key]; ok && other != inst.ID {
			return customError.WrapInstallmentConflict(inst.Number)
		}
		taken[key] = inst.ID
		return nil
	}
	for id, inst := range s.installments {
		if _, gone := deleted[id]; gone {
			continue
		}
		if _, replaced := saved[id]; replaced {
			continue
		}
		if err := claim(inst); err != nil {
			return err
		}
	}
	for _, inst := range w.Installments() {
		if err := claim(inst); err != nil {
			return err
		}
	}
	return nil
}

func savesLoan(w *uow.Work, id uuid.UUID) bool {
	for _, l := range w.Loans() {
		if l.ID == id {
			return true
		}
	}
	return false
}

func (s *Store) deleteLoanLocked(id uuid.UUID) {
	delete(s.loans, id)
	delete(s.payments, id)
	for instID, inst := range s.installments {
		if inst.LoanID == id {
			delete(s.installments, instID)
		}
	}
	for _, e := range s.entries {
		if e.LoanID != nil && *e.LoanID == id {
			e.LoanID = nil
		}
	}
}

func cloneEntry(e *domain.JournalEntry) *domain.JournalEntry {
	c := *e
	c.Lines = append([]domain.JournalEntryLine(nil), e.Lines...)
	if e.LoanID != nil {
		id := *e.LoanID
		c.LoanID = &id
	}
	return &c
}
