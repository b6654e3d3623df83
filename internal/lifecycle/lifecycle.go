// Package lifecycle is the loan status state machine.
//
//	PENDING -> APPROVED -> ACTIVE -> COMPLETED
//	PENDING -> REJECTED
//	PENDING | APPROVED -> CANCELLED
//	PENDING | APPROVED | ACTIVE -> COMPLETED (administrative close)
//	COMPLETED -> ACTIVE (reopen after a schedule correction)
package lifecycle

import (
	"context"
	"time"

	"github.com/segyhp/finance-ledger/internal/domain"
	customError "github.com/segyhp/finance-ledger/pkg/errors"

	"github.com/looplab/fsm"
	"github.com/shopspring/decimal"
)

const (
	EventApprove  = "approve"
	EventReject   = "reject"
	EventCancel   = "cancel"
	EventDisburse = "disburse"
	EventComplete = "complete"
	EventReopen   = "reopen"
	EventClose    = "close"
)

var events = fsm.Events{
	{Name: EventApprove, Src: []string{string(domain.LoanStatusPending)}, Dst: string(domain.LoanStatusApproved)},
	{Name: EventReject, Src: []string{string(domain.LoanStatusPending)}, Dst: string(domain.LoanStatusRejected)},
	{Name: EventCancel, Src: []string{string(domain.LoanStatusPending), string(domain.LoanStatusApproved)}, Dst: string(domain.LoanStatusCancelled)},
	{Name: EventDisburse, Src: []string{string(domain.LoanStatusApproved)}, Dst: string(domain.LoanStatusActive)},
	{Name: EventComplete, Src: []string{string(domain.LoanStatusActive)}, Dst: string(domain.LoanStatusCompleted)},
	{Name: EventReopen, Src: []string{string(domain.LoanStatusCompleted)}, Dst: string(domain.LoanStatusActive)},
	{Name: EventClose, Src: []string{string(domain.LoanStatusPending), string(domain.LoanStatusApproved), string(domain.LoanStatusActive)}, Dst: string(domain.LoanStatusCompleted)},
}

// Lifecycle wraps a loan with its state machine. Transitions mutate the wrapped loan.
type Lifecycle struct {
	loan *domain.Loan
	fsm  *fsm.FSM
	now  func() time.Time
}

func New(loan *domain.Loan, now func() time.Time) *Lifecycle {
	if now == nil {
		now = time.Now
	}
	l := &Lifecycle{loan: loan, now: now}

	l.fsm = fsm.NewFSM(
		string(loan.Status),
		events,
		fsm.Callbacks{
			"enter_" + string(domain.LoanStatusApproved): func(_ context.Context, _ *fsm.Event) {
				at := l.now()
				l.loan.ApprovedAt = &at
			},
			"enter_" + string(domain.LoanStatusActive): func(_ context.Context, e *fsm.Event) {
				switch e.Event {
				case EventDisburse:
					at := l.now()
					l.loan.DisbursedAt = &at
				case EventReopen:
					l.loan.CompletedAt = nil
				}
			},
			"enter_" + string(domain.LoanStatusCompleted): func(_ context.Context, e *fsm.Event) {
				at := l.now()
				l.loan.CompletedAt = &at
				if e.Event == EventComplete {
					l.loan.RemainingBalance = decimal.Zero
				}
			},
		},
	)

	return l
}

func (l *Lifecycle) Approve(ctx context.Context) error  { return l.fire(ctx, EventApprove) }
func (l *Lifecycle) Reject(ctx context.Context) error   { return l.fire(ctx, EventReject) }
func (l *Lifecycle) Cancel(ctx context.Context) error   { return l.fire(ctx, EventCancel) }
func (l *Lifecycle) Complete(ctx context.Context) error { return l.fire(ctx, EventComplete) }
func (l *Lifecycle) Reopen(ctx context.Context) error   { return l.fire(ctx, EventReopen) }

// Disburse activates the loan. The balance is left to the caller, which owns the schedule.
func (l *Lifecycle) Disburse(ctx context.Context) error { return l.fire(ctx, EventDisburse) }

// Close completes the loan regardless of its balance
func (l *Lifecycle) Close(ctx context.Context) error { return l.fire(ctx, EventClose) }

// Can checks if a transition is possible
func (l *Lifecycle) Can(event string) bool {
	return l.fsm.Can(event)
}

// Current returns the current state
func (l *Lifecycle) Current() domain.LoanStatus {
	return domain.LoanStatus(l.fsm.Current())
}

func (l *Lifecycle) fire(ctx context.Context, event string) error {
	if !l.fsm.Can(event) {
		return customError.WrapInvalidTransition(l.loan.ID.String(), string(l.loan.Status), event)
	}
	if err := l.fsm.Event(ctx, event); err != nil {
		return customError.NewStateError(customError.ErrCodeInvalidTransition, "failed to "+event+" loan", err)
	}
	l.loan.Status = l.Current()
	return nil
}

// CanAcceptPayment reports whether payments may be applied
func CanAcceptPayment(loan *domain.Loan) bool {
	return loan.Status == domain.LoanStatusActive
}

// CanDelete is false for loans with ledger-relevant history
func CanDelete(loan *domain.Loan) bool {
	switch loan.Status {
	case domain.LoanStatusPending, domain.LoanStatusRejected, domain.LoanStatusCancelled:
		return true
	}
	return false
}

// CanExtend gates extension and installment insertion
func CanExtend(loan *domain.Loan) bool {
	return loan.Status == domain.LoanStatusApproved || loan.Status == domain.LoanStatusActive
}

// CanRegenerate gates schedule regeneration; paid installments are checked separately
func CanRegenerate(loan *domain.Loan) bool {
	switch loan.Status {
	case domain.LoanStatusPending, domain.LoanStatusApproved, domain.LoanStatusActive:
		return true
	}
	return false
}

// CanEditSchedule gates installment deletion and field edits
func CanEditSchedule(loan *domain.Loan) bool {
	switch loan.Status {
	case domain.LoanStatusPending, domain.LoanStatusApproved, domain.LoanStatusActive, domain.LoanStatusCompleted:
		return true
	}
	return false
}

// RecomputeStatus completes or reopens a disbursed loan after an installment status change.
// Loans that were never disbursed keep their status.
func RecomputeStatus(ctx context.Context, loan *domain.Loan, hasPending bool, now func() time.Time) error {
	settled := !hasPending || !loan.RemainingBalance.IsPositive()
	l := New(loan, now)

	switch {
	case loan.Status == domain.LoanStatusActive && settled:
		return l.Complete(ctx)
	case loan.Status == domain.LoanStatusCompleted && !settled:
		return l.Reopen(ctx)
	}
	return nil
}
