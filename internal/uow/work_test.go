package uow

import (
	"testing"

	"github.com/segyhp/finance-ledger/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkCollectsMutations(t *testing.T) {
	w := New()
	assert.True(t, w.Empty())

	loan := &domain.Loan{ID: uuid.New(), Term: 12}
	w.SaveLoan(loan)
	updated := loan.Clone()
	updated.Term = 15
	w.SaveLoan(updated)

	require.Len(t, w.Loans(), 1)
	assert.Equal(t, 15, w.Loans()[0].Term)

	inst := &domain.RepaymentInstallment{ID: uuid.New(), LoanID: loan.ID, Number: 1}
	other := &domain.RepaymentInstallment{ID: uuid.New(), LoanID: loan.ID, Number: 2}
	w.SaveInstallments([]*domain.RepaymentInstallment{inst, other})
	w.DeleteInstallment(inst.ID)

	require.Len(t, w.Installments(), 1)
	assert.Equal(t, 2, w.Installments()[0].Number)
	assert.Equal(t, []uuid.UUID{inst.ID}, w.DeletedInstallments())

	w.AddPayment(&domain.Payment{ID: uuid.New(), LoanID: loan.ID})
	w.AddJournalEntry(&domain.JournalEntry{ID: uuid.New()})

	assert.Len(t, w.Payments(), 1)
	assert.Len(t, w.JournalEntries(), 1)
	assert.False(t, w.Empty())
	assert.Equal(t, []uuid.UUID{loan.ID}, w.LoanIDs())
}

func TestWorkLoanIDsIncludesDeletions(t *testing.T) {
	w := New()
	id := uuid.New()
	w.DeleteLoan(id)

	assert.Equal(t, []uuid.UUID{id}, w.LoanIDs())
	assert.Equal(t, []uuid.UUID{id}, w.DeletedLoans())
}
