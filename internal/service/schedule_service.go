package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segyhp/finance-ledger/internal/domain"
	"github.com/segyhp/finance-ledger/internal/lifecycle"
	"github.com/segyhp/finance-ledger/internal/schedule"
	"github.com/segyhp/finance-ledger/internal/uow"
	customError "github.com/segyhp/finance-ledger/pkg/errors"
	"github.com/segyhp/finance-ledger/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ScheduleService edits a loan's repayment schedule
type ScheduleService struct {
	*core
}

// GetSchedule serves the schedule from cache when possible
func (s *ScheduleService) GetSchedule(ctx context.Context, loanID uuid.UUID) (*domain.ScheduleResponse, error) {
	installments, err := s.cachedSchedule(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return &domain.ScheduleResponse{LoanID: loanID, Schedule: installments}, nil
}

// cachedSchedule fills the cache under the loan lock so a concurrent commit cannot be
// overwritten by a stale read
func (c *core) cachedSchedule(ctx context.Context, loanID uuid.UUID) ([]*domain.RepaymentInstallment, error) {
	cached, ok, err := c.cache.GetSchedule(ctx, loanID)
	if err != nil {
		c.logger.WarnContext(ctx, "schedule cache read failed", slog.String("loan_id", loanID.String()), slog.String("error", err.Error()))
	}
	if ok {
		return cached, nil
	}

	unlock, err := c.lockLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, err := c.store.GetLoan(ctx, loanID); err != nil {
		return nil, err
	}
	installments, err := c.store.GetSchedule(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if err := c.cache.SetSchedule(ctx, loanID, installments); err != nil {
		c.logger.WarnContext(ctx, "schedule cache write failed", slog.String("loan_id", loanID.String()), slog.String("error", err.Error()))
	}
	return installments, nil
}

// mutation is one locked schedule edit: load, change, commit
type mutation struct {
	loan         *domain.Loan
	installments []*domain.RepaymentInstallment
	work         *uow.Work
}

func (s *ScheduleService) mutate(ctx context.Context, loanID uuid.UUID, guard func(*domain.Loan) bool, operation string, edit func(m *mutation) error) (*domain.ScheduleResponse, error) {
	unlock, err := s.lockLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	loan, err := s.store.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !guard(loan) {
		return nil, customError.WrapInvalidTransition(loan.ID.String(), string(loan.Status), operation)
	}
	installments, err := s.store.GetSchedule(ctx, loanID)
	if err != nil {
		return nil, err
	}

	from := loan.Status
	m := &mutation{loan: loan, installments: installments, work: uow.New()}
	if err := edit(m); err != nil {
		return nil, err
	}
	m.loan.UpdatedAt = s.now()
	m.work.SaveLoan(m.loan)

	if err := s.commit(ctx, m.work); err != nil {
		return nil, err
	}

	s.transitioned(ctx, m.loan, from)
	s.logger.InfoContext(ctx, "schedule updated",
		slog.String("loan_id", loan.ID.String()),
		slog.String("operation", operation),
		slog.Int("term", m.loan.Term),
		slog.String("total_amount", m.loan.TotalAmount.String()),
		slog.String("remaining_balance", m.loan.RemainingBalance.String()),
	)

	schedule.Sort(m.installments)
	return &domain.ScheduleResponse{LoanID: loanID, Schedule: m.installments}, nil
}

// append adds continuation installments and grows the loan's term and totals
func (m *mutation) append(added []*domain.RepaymentInstallment) decimal.Decimal {
	total := schedule.Total(added)
	m.loan.Term += len(added)
	m.loan.TotalAmount = m.loan.TotalAmount.Add(total)
	m.loan.RemainingBalance = m.loan.RemainingBalance.Add(total)
	m.installments = append(m.installments, added...)
	m.work.SaveInstallments(added)
	return total
}

// Extend appends months installments after the last one, reusing the monthly payment and
// splitting interest on the current remaining balance
func (s *ScheduleService) Extend(ctx context.Context, loanID uuid.UUID, req *domain.ExtendScheduleRequest) (*domain.ScheduleResponse, error) {
	if req.AdditionalMonths <= 0 {
		return nil, customError.WrapInvalidInput("additional_months must be greater than zero")
	}

	return s.mutate(ctx, loanID, lifecycle.CanExtend, "extend its schedule", func(m *mutation) error {
		anchor := utils.StartOfDay(s.now())
		if last, ok := schedule.Last(m.installments); ok {
			anchor = last.DueDate
		}

		added, err := schedule.Continue(schedule.ContinueParams{
			LoanID:         m.loan.ID,
			StartNumber:    schedule.NextNumber(m.installments),
			Count:          req.AdditionalMonths,
			Anchor:         anchor,
			FirstOffset:    1,
			MonthlyPayment: m.loan.MonthlyPayment,
			Balance:        m.loan.RemainingBalance,
			AnnualRate:     m.loan.InterestRate,
		}, s.now())
		if err != nil {
			return err
		}

		total := m.append(added)
		m.work.AddPayment(s.auditPayment(m.loan, nil, domain.TransactionTypeScheduleUpdate, total,
			newReference("EXT"), fmt.Sprintf("Schedule extended by %d months", req.AdditionalMonths)))
		return nil
	})
}

// AddSchedule inserts count installments starting at a caller chosen number and date
func (s *ScheduleService) AddSchedule(ctx context.Context, loanID uuid.UUID, req *domain.AddScheduleRequest) (*domain.ScheduleResponse, error) {
	if req.StartingNumber < 1 || req.Count <= 0 {
		return nil, customError.WrapInvalidInput("starting_installment_number and count must be positive")
	}

	return s.mutate(ctx, loanID, lifecycle.CanExtend, "add installments", func(m *mutation) error {
		if n, conflict := schedule.Conflict(m.installments, req.StartingNumber, req.Count); conflict {
			return customError.WrapInstallmentConflict(n)
		}
		return s.insert(m, req.StartingNumber, req.FirstDueDate, req.Count, req.MonthlyPayment)
	})
}

// AutoAddSchedule inserts count installments after the highest existing number. Without a
// first due date the new installments continue monthly from the last one.
func (s *ScheduleService) AutoAddSchedule(ctx context.Context, loanID uuid.UUID, req *domain.AutoAddScheduleRequest) (*domain.ScheduleResponse, error) {
	if req.Count <= 0 {
		return nil, customError.WrapInvalidInput("count must be greater than zero")
	}

	return s.mutate(ctx, loanID, lifecycle.CanExtend, "add installments", func(m *mutation) error {
		start := schedule.NextNumber(m.installments)
		if req.FirstDueDate != nil {
			return s.insert(m, start, *req.FirstDueDate, req.Count, req.MonthlyPayment)
		}

		first := utils.AddMonths(utils.StartOfDay(s.now()), 1)
		if last, ok := schedule.Last(m.installments); ok {
			first = utils.AddMonths(last.DueDate, 1)
		}
		return s.insert(m, start, first, req.Count, req.MonthlyPayment)
	})
}

func (s *ScheduleService) insert(m *mutation, start int, firstDue time.Time, count int, payment decimal.Decimal) error {
	added, err := schedule.Continue(schedule.ContinueParams{
		LoanID:         m.loan.ID,
		StartNumber:    start,
		Count:          count,
		Anchor:         firstDue,
		FirstOffset:    0,
		MonthlyPayment: payment,
		Balance:        m.loan.RemainingBalance,
		AnnualRate:     m.loan.InterestRate,
	}, s.now())
	if err != nil {
		return err
	}

	total := m.append(added)
	m.work.AddPayment(s.auditPayment(m.loan, intPtr(start), domain.TransactionTypeScheduleUpdate, total,
		newReference("ADD"), fmt.Sprintf("Added installments %d-%d", start, start+count-1)))
	return nil
}

// Regenerate replaces the whole schedule. It is refused once any installment is PAID.
func (s *ScheduleService) Regenerate(ctx context.Context, loanID uuid.UUID, req *domain.RegenerateScheduleRequest) (*domain.ScheduleResponse, error) {
	return s.mutate(ctx, loanID, lifecycle.CanRegenerate, "regenerate its schedule", func(m *mutation) error {
		if schedule.HasPaid(m.installments) {
			return customError.WrapPaidInstallmentsExist(m.loan.ID.String())
		}

		generated, err := schedule.Generate(schedule.Params{
			LoanID:         m.loan.ID,
			MonthlyPayment: req.MonthlyPayment,
			Term:           req.Term,
			AnnualRate:     m.loan.InterestRate,
			StartDate:      req.StartDate,
			Method:         m.loan.InterestMethod,
			FinancedAmount: m.loan.Principal,
		}, s.now())
		if err != nil {
			return err
		}

		paid := m.loan.TotalPaid()
		for _, inst := range m.installments {
			m.work.DeleteInstallment(inst.ID)
		}
		m.work.SaveInstallments(generated)
		m.installments = generated

		m.loan.MonthlyPayment = req.MonthlyPayment
		m.loan.Term = req.Term
		m.loan.TotalAmount = schedule.Total(generated)
		m.loan.RemainingBalance = utils.ClampZero(m.loan.TotalAmount.Sub(paid))

		m.work.AddPayment(s.auditPayment(m.loan, nil, domain.TransactionTypeScheduleUpdate, m.loan.TotalAmount,
			newReference("REGEN"), fmt.Sprintf("Schedule regenerated: %d installments of %s", req.Term, req.MonthlyPayment.StringFixed(2))))
		return nil
	})
}

// DeleteInstallment removes one PENDING installment and shrinks the loan accordingly
func (s *ScheduleService) DeleteInstallment(ctx context.Context, loanID uuid.UUID, number int) (*domain.ScheduleResponse, error) {
	return s.mutate(ctx, loanID, lifecycle.CanEditSchedule, "edit its schedule", func(m *mutation) error {
		inst := findInstallment(m.installments, number)
		if inst == nil {
			return customError.WrapInstallmentNotFound(m.loan.ID.String(), number)
		}
		if !inst.IsPending() {
			return customError.WrapInstallmentNotPending(number)
		}

		m.loan.Term--
		m.loan.TotalAmount = utils.ClampZero(m.loan.TotalAmount.Sub(inst.Amount))
		m.loan.RemainingBalance = utils.ClampZero(m.loan.RemainingBalance.Sub(inst.Outstanding()))

		m.work.DeleteInstallment(inst.ID)
		m.installments = without(m.installments, inst.ID)

		if err := lifecycle.RecomputeStatus(ctx, m.loan, schedule.HasPending(m.installments), s.now); err != nil {
			return err
		}

		m.work.AddPayment(s.auditPayment(m.loan, intPtr(number), domain.TransactionTypeScheduleUpdate, inst.Amount,
			newReference("DEL"), fmt.Sprintf("Installment %d deleted", number)))
		return nil
	})
}

// UpdateInstallment edits amount, status, due date or paid date of one installment
func (s *ScheduleService) UpdateInstallment(ctx context.Context, loanID uuid.UUID, number int, req *domain.UpdateInstallmentRequest) (*domain.ScheduleResponse, error) {
	if req.Status != nil && !req.Status.IsValid() {
		return nil, customError.WrapInvalidInput("unknown installment status " + string(*req.Status))
	}

	return s.mutate(ctx, loanID, lifecycle.CanEditSchedule, "edit its schedule", func(m *mutation) error {
		inst := findInstallment(m.installments, number)
		if inst == nil {
			return customError.WrapInstallmentNotFound(m.loan.ID.String(), number)
		}

		var notes []string
		if req.Amount != nil && !req.Amount.Equal(inst.Amount) {
			if err := s.changeAmount(m.loan, inst, *req.Amount); err != nil {
				return err
			}
			notes = append(notes, "amount "+req.Amount.StringFixed(2))
		}
		if req.DueDate != nil {
			inst.DueDate = *req.DueDate
			notes = append(notes, "due date "+req.DueDate.Format("2006-01-02"))
		}

		statusChanged := false
		if req.Status != nil && *req.Status != inst.Status {
			statusChanged = true
			if *req.Status == domain.InstallmentStatusPaid {
				settled := s.markPaid(m.loan, inst, req)
				m.work.AddPayment(s.auditPayment(m.loan, intPtr(number), domain.TransactionTypeInstallmentPayment, settled,
					newReference("INST"), fmt.Sprintf("Installment %d marked paid", number)))
			} else {
				s.markPending(m.loan, inst)
				notes = append(notes, "status PENDING")
			}
		} else if req.PaidDate != nil && inst.Status == domain.InstallmentStatusPaid {
			at := *req.PaidDate
			inst.PaidAt = &at
			notes = append(notes, "paid date "+at.Format("2006-01-02"))
		}

		inst.UpdatedAt = s.now()
		m.work.SaveInstallment(inst)

		if statusChanged {
			if err := lifecycle.RecomputeStatus(ctx, m.loan, schedule.HasPending(m.installments), s.now); err != nil {
				return err
			}
		}

		if len(notes) > 0 {
			m.work.AddPayment(s.auditPayment(m.loan, intPtr(number), domain.TransactionTypeScheduleUpdate, inst.Amount,
				newReference("UPD"), fmt.Sprintf("Installment %d updated: %s", number, strings.Join(notes, ", "))))
		}
		return nil
	})
}

// changeAmount keeps the installment's principal/interest ratio and moves the loan totals by the delta
func (s *ScheduleService) changeAmount(loan *domain.Loan, inst *domain.RepaymentInstallment, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return customError.WrapNonPositiveAmount("installment amount")
	}
	if !utils.IsWholeCents(amount) {
		return customError.WrapAmountPrecision("installment amount", amount.String())
	}
	// A pending installment must still owe something after the edit
	if inst.IsPending() && inst.PaidAmount.IsPositive() && amount.LessThanOrEqual(inst.PaidAmount) {
		return customError.WrapInvalidInput(fmt.Sprintf("amount %s must exceed the %s already paid", amount.StringFixed(2), inst.PaidAmount.StringFixed(2)))
	}

	principal := amount
	if inst.Amount.IsPositive() {
		principal = utils.RoundCurrency(inst.Principal.Mul(amount).Div(inst.Amount))
	}
	delta := amount.Sub(inst.Amount)

	inst.Principal = principal
	inst.Interest = amount.Sub(principal)
	inst.Amount = amount

	loan.TotalAmount = loan.TotalAmount.Add(delta)
	if inst.IsPending() {
		loan.RemainingBalance = utils.ClampZero(loan.RemainingBalance.Add(delta))
	} else {
		inst.PaidAmount = inst.Amount
		inst.PaidPrincipal = inst.Principal
		inst.PaidInterest = inst.Interest
	}
	return nil
}

func (s *ScheduleService) markPaid(loan *domain.Loan, inst *domain.RepaymentInstallment, req *domain.UpdateInstallmentRequest) decimal.Decimal {
	settled := inst.Outstanding()
	at := s.now()
	if req.PaidDate != nil {
		at = *req.PaidDate
	}

	inst.Status = domain.InstallmentStatusPaid
	inst.PaidAt = &at
	inst.PaidAmount = inst.Amount
	inst.PaidPrincipal = inst.Principal
	inst.PaidInterest = inst.Interest

	loan.RemainingBalance = utils.ClampZero(loan.RemainingBalance.Sub(settled))
	return settled
}

func (s *ScheduleService) markPending(loan *domain.Loan, inst *domain.RepaymentInstallment) {
	inst.Status = domain.InstallmentStatusPending
	inst.PaidAt = nil
	inst.PaidAmount = decimal.Zero
	inst.PaidPrincipal = decimal.Zero
	inst.PaidInterest = decimal.Zero

	loan.RemainingBalance = loan.RemainingBalance.Add(inst.Amount)
}

// MarkInstallmentPaid pays one specific installment through the allocator and the ledger.
// A zero amount pays whatever is outstanding on it.
func (s *ScheduleService) MarkInstallmentPaid(ctx context.Context, loanID uuid.UUID, number int, req *domain.MarkInstallmentPaidRequest) (*domain.PaymentResponse, error) {
	if req.Amount.IsNegative() {
		return nil, customError.WrapNonPositiveAmount("payment amount")
	}

	unlock, err := s.lockLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	loan, err := s.store.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !lifecycle.CanAcceptPayment(loan) {
		return nil, customError.WrapInvalidTransition(loan.ID.String(), string(loan.Status), "accept payments")
	}

	installments, err := s.store.GetSchedule(ctx, loanID)
	if err != nil {
		return nil, err
	}
	inst := findInstallment(installments, number)
	if inst == nil {
		return nil, customError.WrapInstallmentNotFound(loan.ID.String(), number)
	}
	if !inst.IsPending() {
		return nil, customError.WrapInstallmentNotPending(number)
	}

	amount := req.Amount
	if amount.IsZero() {
		amount = inst.Outstanding()
	}

	reference := strings.TrimSpace(req.Reference)
	if reference == "" {
		reference = newReference(fmt.Sprintf("INST%d", number))
	}

	in := PaymentInput{
		Amount:    amount,
		Method:    req.Method,
		Reference: reference,
		Type:      domain.TransactionTypeInstallmentPayment,
		Number:    number,
	}
	if req.PaidDate != nil {
		in.PaidAt = *req.PaidDate
	}

	payment, err := s.pay(ctx, loan, in)
	if err != nil {
		return nil, err
	}
	return &domain.PaymentResponse{Payment: payment, Loan: loan}, nil
}

func without(installments []*domain.RepaymentInstallment, id uuid.UUID) []*domain.RepaymentInstallment {
	out := make([]*domain.RepaymentInstallment, 0, len(installments))
	for _, inst := range installments {
		if inst.ID != id {
			out = append(out, inst)
		}
	}
	return out
}
