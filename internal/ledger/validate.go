package ledger

import (
	"github.com/segyhp/finance-ledger/internal/domain"
	customError "github.com/segyhp/finance-ledger/pkg/errors"
	"github.com/segyhp/finance-ledger/pkg/utils"
)

// Validate checks the double-entry invariant: at least two lines, every line positive,
// debits equal credits, and the recorded totals equal the line sums.
func Validate(entry *domain.JournalEntry) error {
	if len(entry.Lines) < 2 {
		return customError.WrapTooFewLines(len(entry.Lines))
	}

	for _, line := range entry.Lines {
		if !line.Amount.IsPositive() {
			return customError.WrapNonPositiveAmount("line amount for " + line.AccountName)
		}
		if !utils.IsWholeCents(line.Amount) {
			return customError.WrapAmountPrecision("line amount for "+line.AccountName, line.Amount.String())
		}
		if line.Side != domain.SideDebit && line.Side != domain.SideCredit {
			return customError.WrapInvalidInput("unknown line side " + string(line.Side))
		}
	}

	debit, credit := entry.Sums()
	if !debit.Equal(credit) {
		return customError.WrapLedgerImbalance(debit.String(), credit.String())
	}

	if !entry.TotalDebit.Equal(debit) {
		return customError.WrapLedgerTotalsMismatch("debit", entry.TotalDebit.String(), debit.String())
	}
	if !entry.TotalCredit.Equal(credit) {
		return customError.WrapLedgerTotalsMismatch("credit", entry.TotalCredit.String(), credit.String())
	}

	return nil
}
