package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/segyhp/finance-ledger/internal/amortization"
	"github.com/segyhp/finance-ledger/internal/domain"
	"github.com/segyhp/finance-ledger/internal/ledger"
	"github.com/segyhp/finance-ledger/internal/lifecycle"
	"github.com/segyhp/finance-ledger/internal/schedule"
	"github.com/segyhp/finance-ledger/internal/uow"
	customError "github.com/segyhp/finance-ledger/pkg/errors"
	"github.com/segyhp/finance-ledger/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LoanService struct {
	*core
}

// ApplyForLoan creates a PENDING loan with its initial schedule
func (s *LoanService) ApplyForLoan(ctx context.Context, req *domain.ApplyLoanRequest) (*domain.ApplyLoanResponse, error) {
	if req.UserID == uuid.Nil {
		return nil, customError.WrapInvalidInput("user_id is required")
	}

	rate := s.defaults.InterestRate
	if req.InterestRate != nil {
		rate = *req.InterestRate
	}
	term := req.Term
	if term == 0 {
		term = s.defaults.Term
	}
	method := req.InterestMethod
	if method == "" {
		method = s.defaults.InterestMethod
	}

	terms, err := amortization.Compute(req.Principal, rate, term, method)
	if err != nil {
		return nil, err
	}

	now := s.now()
	start := utils.StartOfDay(now)
	if req.StartDate != nil {
		start = *req.StartDate
	}

	loan := &domain.Loan{
		ID:             uuid.New(),
		UserID:         req.UserID,
		Purpose:        strings.TrimSpace(req.Purpose),
		Principal:      req.Principal,
		InterestRate:   rate,
		Term:           term,
		InterestMethod: method,
		MonthlyPayment: terms.MonthlyPayment,
		Status:         domain.LoanStatusPending,
		AppliedAt:      now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	installments, err := schedule.Generate(schedule.Params{
		LoanID:         loan.ID,
		MonthlyPayment: terms.MonthlyPayment,
		Term:           term,
		AnnualRate:     rate,
		StartDate:      start,
		Method:         method,
		FinancedAmount: req.Principal,
	}, now)
	if err != nil {
		return nil, err
	}

	// The schedule is authoritative: paying every installment must settle the loan exactly
	loan.TotalAmount = schedule.Total(installments)
	loan.RemainingBalance = loan.TotalAmount

	w := uow.New()
	w.SaveLoan(loan)
	w.SaveInstallments(installments)
	if err := s.commit(ctx, w); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "loan application created",
		slog.String("loan_id", loan.ID.String()),
		slog.String("user_id", loan.UserID.String()),
		slog.String("principal", loan.Principal.String()),
		slog.String("monthly_payment", loan.MonthlyPayment.String()),
		slog.String("method", string(method)),
	)

	return &domain.ApplyLoanResponse{Loan: loan, Schedule: installments}, nil
}

func (s *LoanService) Approve(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	return s.transition(ctx, loanID, (*lifecycle.Lifecycle).Approve)
}

func (s *LoanService) Reject(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	return s.transition(ctx, loanID, (*lifecycle.Lifecycle).Reject)
}

func (s *LoanService) Cancel(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	return s.transition(ctx, loanID, (*lifecycle.Lifecycle).Cancel)
}

// Close completes a loan administratively, whatever its balance
func (s *LoanService) Close(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	return s.transition(ctx, loanID, (*lifecycle.Lifecycle).Close)
}

func (s *LoanService) transition(ctx context.Context, loanID uuid.UUID, fire func(*lifecycle.Lifecycle, context.Context) error) (*domain.Loan, error) {
	unlock, err := s.lockLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	loan, err := s.store.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	from := loan.Status
	if err := fire(lifecycle.New(loan, s.now), ctx); err != nil {
		return nil, err
	}
	loan.UpdatedAt = s.now()

	w := uow.New()
	w.SaveLoan(loan)
	if err := s.commit(ctx, w); err != nil {
		return nil, err
	}

	s.transitioned(ctx, loan, from)
	return loan, nil
}

// Disburse activates an APPROVED loan, writes the disbursement entry and credits the bank
// account. The credit is reversed if the commit fails.
func (s *LoanService) Disburse(ctx context.Context, loanID uuid.UUID, req *domain.DisburseRequest) (*domain.Loan, error) {
	accountID := strings.TrimSpace(req.BankAccountID)
	if accountID == "" {
		return nil, customError.WrapInvalidInput("bank_account_id is required")
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

	from := loan.Status
	if err := lifecycle.New(loan, s.now).Disburse(ctx); err != nil {
		return nil, err
	}

	// Installments settled while APPROVED stay settled
	installments, err := s.store.GetSchedule(ctx, loanID)
	if err != nil {
		return nil, err
	}
	loan.RemainingBalance = pendingOutstanding(installments)
	loan.BankAccountID = accountID
	loan.UpdatedAt = s.now()

	reference := "DISB-" + loan.ID.String()
	w := uow.New()
	w.SaveLoan(loan)

	if _, err := s.ledger.CreateDisbursementEntry(w, ledger.Params{
		UserID:      loan.UserID,
		Amount:      loan.Principal,
		BankAccount: accountID,
		Reference:   reference,
		LoanID:      &loan.ID,
	}); err != nil {
		return nil, err
	}

	disbursement := s.auditPayment(loan, nil, domain.TransactionTypeDisbursement, loan.Principal, reference, "Loan disbursement")
	disbursement.Method = "BANK_TRANSFER"
	disbursement.PrincipalAmount = loan.Principal
	w.AddPayment(disbursement)

	balance, err := s.bank.CreditAccount(ctx, accountID, loan.Principal)
	if err != nil {
		if customError.KindOf(err) == customError.KindInternal {
			return nil, customError.WrapBankError(err)
		}
		return nil, err
	}

	if err := s.commit(ctx, w); err != nil {
		s.compensateCredit(ctx, loan, accountID, err)
		return nil, err
	}

	s.transitioned(ctx, loan, from)
	s.logger.InfoContext(ctx, "loan disbursed",
		slog.String("loan_id", loan.ID.String()),
		slog.String("bank_account_id", accountID),
		slog.String("amount", loan.Principal.String()),
		slog.String("bank_balance", balance.String()),
	)
	return loan, nil
}

func (s *LoanService) compensateCredit(ctx context.Context, loan *domain.Loan, accountID string, cause error) {
	ctx = context.WithoutCancel(ctx)
	if _, err := s.bank.DebitAccount(ctx, accountID, loan.Principal); err != nil {
		s.logger.ErrorContext(ctx, "disbursement compensation failed",
			slog.String("loan_id", loan.ID.String()),
			slog.String("bank_account_id", accountID),
			slog.String("amount", loan.Principal.String()),
			slog.String("cause", cause.Error()),
			slog.String("error", err.Error()),
		)
		return
	}
	s.logger.WarnContext(ctx, "disbursement rolled back",
		slog.String("loan_id", loan.ID.String()),
		slog.String("bank_account_id", accountID),
		slog.String("cause", cause.Error()),
	)
}

// Delete removes a loan that never became ledger-relevant, with its schedule and payments
func (s *LoanService) Delete(ctx context.Context, loanID uuid.UUID) error {
	unlock, err := s.lockLoan(ctx, loanID)
	if err != nil {
		return err
	}
	defer unlock()

	loan, err := s.store.GetLoan(ctx, loanID)
	if err != nil {
		return err
	}
	if !lifecycle.CanDelete(loan) {
		return customError.WrapInvalidTransition(loan.ID.String(), string(loan.Status), "be deleted")
	}

	w := uow.New()
	w.DeleteLoan(loan.ID)
	if err := s.commit(ctx, w); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "loan deleted", slog.String("loan_id", loan.ID.String()))
	return nil
}

// MakePayment applies amount to the earliest PENDING installment and books the ledger entry
func (s *LoanService) MakePayment(ctx context.Context, loanID uuid.UUID, req *domain.MakePaymentRequest) (*domain.PaymentResponse, error) {
	reference := strings.TrimSpace(req.Reference)
	if reference == "" {
		return nil, customError.WrapInvalidInput("reference is required")
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

	payment, err := s.pay(ctx, loan, PaymentInput{
		Amount:    req.Amount,
		Method:    req.Method,
		Reference: reference,
		Type:      domain.TransactionTypePayment,
	})
	if err != nil {
		return nil, err
	}

	return &domain.PaymentResponse{Payment: payment, Loan: loan}, nil
}

// pay runs the allocator and the ledger inside one unit of work. The caller holds the lock.
func (c *core) pay(ctx context.Context, loan *domain.Loan, in PaymentInput) (*domain.Payment, error) {
	used, err := c.store.PaymentReferenceExists(ctx, loan.ID, in.Reference)
	if err != nil {
		return nil, err
	}
	if used {
		return nil, customError.WrapDuplicateReference(in.Reference)
	}

	installments, err := c.store.GetSchedule(ctx, loan.ID)
	if err != nil {
		return nil, err
	}

	from := loan.Status
	w := uow.New()
	payment, err := c.allocator.Apply(ctx, w, loan, installments, in)
	if err != nil {
		return nil, err
	}

	date := payment.PaymentDate
	if _, err := c.ledger.CreatePaymentEntry(w, ledger.PaymentParams{
		Params: ledger.Params{
			UserID:      loan.UserID,
			Amount:      payment.Amount,
			BankAccount: loan.BankAccountID,
			Reference:   payment.Reference,
			Description: payment.Description,
			Date:        &date,
			LoanID:      &loan.ID,
		},
		Principal: payment.PrincipalAmount,
		Interest:  payment.InterestAmount,
	}); err != nil {
		return nil, err
	}

	if err := c.commit(ctx, w); err != nil {
		return nil, err
	}

	c.transitioned(ctx, loan, from)
	c.logger.InfoContext(ctx, "payment applied",
		slog.String("loan_id", loan.ID.String()),
		slog.String("reference", payment.Reference),
		slog.String("amount", payment.Amount.String()),
		slog.String("principal", payment.PrincipalAmount.String()),
		slog.String("interest", payment.InterestAmount.String()),
		slog.String("remaining_balance", loan.RemainingBalance.String()),
	)
	return payment, nil
}

func (s *LoanService) GetLoan(ctx context.Context, loanID uuid.UUID) (*domain.LoanDetailResponse, error) {
	loan, err := s.store.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	installments, err := s.cachedSchedule(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return &domain.LoanDetailResponse{Loan: loan, Schedule: installments}, nil
}

func (s *LoanService) ListLoans(ctx context.Context, userID uuid.UUID) ([]*domain.Loan, error) {
	return s.store.ListLoansByUser(ctx, userID)
}

// GetTransactionHistory lists the loan's payment records ordered by payment date
func (s *LoanService) GetTransactionHistory(ctx context.Context, loanID uuid.UUID) (*domain.TransactionHistoryResponse, error) {
	if _, err := s.store.GetLoan(ctx, loanID); err != nil {
		return nil, err
	}
	payments, err := s.store.ListPayments(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return &domain.TransactionHistoryResponse{LoanID: loanID, Transactions: payments}, nil
}

// ListOverdueInstallments lists PENDING installments of ACTIVE loans due before asOf's day
func (s *LoanService) ListOverdueInstallments(ctx context.Context, asOf time.Time) ([]*domain.OverdueInstallment, error) {
	overdue, err := s.store.ListOverdueInstallments(ctx, asOf)
	if err != nil {
		return nil, err
	}
	s.metrics.OverdueInstallments.Set(float64(len(overdue)))
	return overdue, nil
}

// ListUpcomingInstallments lists installments due within days of asOf. days <= 0 uses the
// configured reminder window.
func (s *LoanService) ListUpcomingInstallments(ctx context.Context, asOf time.Time, days int) ([]*domain.OverdueInstallment, error) {
	if days <= 0 {
		days = s.defaults.ReminderWindowDays
	}
	return s.store.ListInstallmentsDueBetween(ctx, asOf, asOf.AddDate(0, 0, days))
}

// pendingOutstanding sums what is still owed on PENDING installments
func pendingOutstanding(installments []*domain.RepaymentInstallment) decimal.Decimal {
	total := decimal.Zero
	for _, inst := range installments {
		if inst.IsPending() {
			total = total.Add(inst.Outstanding())
		}
	}
	return total
}

func findInstallment(installments []*domain.RepaymentInstallment, number int) *domain.RepaymentInstallment {
	for _, inst := range installments {
		if inst.Number == number {
			return inst
		}
	}
	return nil
}
