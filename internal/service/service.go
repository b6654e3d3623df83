// Package service orchestrates loan, schedule and journal operations. Every mutation runs
// under the per-loan lock and commits one unit of work; on any error the work is dropped.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/segyhp/finance-ledger/internal/bank"
	"github.com/segyhp/finance-ledger/internal/cache"
	"github.com/segyhp/finance-ledger/internal/domain"
	"github.com/segyhp/finance-ledger/internal/ledger"
	"github.com/segyhp/finance-ledger/internal/lock"
	"github.com/segyhp/finance-ledger/internal/metrics"
	"github.com/segyhp/finance-ledger/internal/repository"
	"github.com/segyhp/finance-ledger/internal/uow"
	"github.com/segyhp/finance-ledger/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Defaults fill loan application fields the caller left out
type Defaults struct {
	InterestRate       decimal.Decimal
	Term               int
	InterestMethod     domain.InterestMethod
	ReminderWindowDays int
}

// Deps are the collaborators shared by every service. Only Store is required.
type Deps struct {
	Store    repository.Store
	Locker   lock.Locker
	Ledger   *ledger.Engine
	Bank     bank.AccountService
	Cache    cache.ScheduleCache
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
	Defaults Defaults
	Now      func() time.Time
}

type core struct {
	store     repository.Store
	locker    lock.Locker
	ledger    *ledger.Engine
	bank      bank.AccountService
	cache     cache.ScheduleCache
	metrics   *metrics.Metrics
	logger    *slog.Logger
	defaults  Defaults
	now       func() time.Time
	allocator *PaymentAllocator
}

func newCore(d Deps) *core {
	c := &core{
		store:    d.Store,
		locker:   d.Locker,
		ledger:   d.Ledger,
		bank:     d.Bank,
		cache:    d.Cache,
		metrics:  d.Metrics,
		logger:   d.Logger,
		defaults: d.Defaults,
		now:      d.Now,
	}
	if c.now == nil {
		c.now = time.Now
	}
	c.allocator = NewPaymentAllocator(c.now)
	if c.locker == nil {
		c.locker = lock.NewKeyedMutex()
	}
	if c.ledger == nil {
		c.ledger = ledger.NewEngine(ledger.WithClock(c.now))
	}
	if c.bank == nil {
		c.bank = bank.NewMemoryAccounts()
	}
	if c.cache == nil {
		c.cache = cache.Noop{}
	}
	if c.metrics == nil {
		c.metrics = metrics.NewNoop()
	}
	if c.logger == nil {
		c.logger = logger.Discard()
	}
	if c.defaults.Term <= 0 {
		c.defaults.Term = 12
	}
	if !c.defaults.InterestMethod.IsValid() {
		c.defaults.InterestMethod = domain.InterestMethodAmortized
	}
	if c.defaults.ReminderWindowDays <= 0 {
		c.defaults.ReminderWindowDays = 3
	}
	return c
}

// Services share one core so loan and schedule operations serialize on the same locks
type Services struct {
	Loans     *LoanService
	Schedules *ScheduleService
	Journal   *JournalService
}

func New(d Deps) *Services {
	c := newCore(d)
	return &Services{
		Loans:     &LoanService{core: c},
		Schedules: &ScheduleService{core: c},
		Journal:   &JournalService{core: c},
	}
}

func (c *core) lockLoan(ctx context.Context, loanID uuid.UUID) (func(), error) {
	return c.locker.Lock(ctx, "loan:"+loanID.String())
}

// commit persists w, then records metrics and drops cached schedules of every touched loan
func (c *core) commit(ctx context.Context, w *uow.Work) error {
	if err := c.store.Commit(ctx, w); err != nil {
		return err
	}

	for _, entry := range w.JournalEntries() {
		c.metrics.JournalEntries.WithLabelValues(string(entry.EntryType)).Inc()
	}
	for _, p := range w.Payments() {
		c.metrics.Payments.WithLabelValues(string(p.TransactionType)).Inc()
	}

	if err := c.cache.Invalidate(ctx, w.LoanIDs()...); err != nil {
		c.logger.WarnContext(ctx, "schedule cache invalidation failed", slog.String("error", err.Error()))
	}
	return nil
}

// transitioned logs and counts a status change made during the operation
func (c *core) transitioned(ctx context.Context, loan *domain.Loan, from domain.LoanStatus) {
	if loan.Status == from {
		return
	}
	c.metrics.LoanTransitions.WithLabelValues(string(loan.Status)).Inc()
	c.logger.InfoContext(ctx, "loan status changed",
		slog.String("loan_id", loan.ID.String()),
		slog.String("from", string(from)),
		slog.String("to", string(loan.Status)),
	)
}

func (c *core) auditPayment(loan *domain.Loan, number *int, txType domain.TransactionType, amount decimal.Decimal, reference, description string) *domain.Payment {
	now := c.now()
	return &domain.Payment{
		ID:                uuid.New(),
		LoanID:            loan.ID,
		InstallmentNumber: number,
		Amount:            amount,
		PrincipalAmount:   decimal.Zero,
		InterestAmount:    decimal.Zero,
		Method:            "SYSTEM",
		Reference:         reference,
		Status:            domain.PaymentStatusCompleted,
		TransactionType:   txType,
		Description:       description,
		PaymentDate:       now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func newReference(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

func intPtr(n int) *int {
	return &n
}
