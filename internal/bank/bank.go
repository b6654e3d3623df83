// Package bank is the bank-account collaborator used to move disbursed funds.
package bank

import (
	"context"
	"sync"

	customError "github.com/segyhp/finance-ledger/pkg/errors"

	"github.com/shopspring/decimal"
)

// AccountService moves money in and out of a user's bank account
type AccountService interface {
	CreditAccount(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error)
	DebitAccount(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error)
}

// MemoryAccounts keeps balances in memory. Accounts must be opened before use.
type MemoryAccounts struct {
	mu       sync.Mutex
	balances map[string]decimal.Decimal
	autoOpen bool
}

var _ AccountService = (*MemoryAccounts)(nil)

type Option func(*MemoryAccounts)

// WithAutoOpen opens unknown accounts with a zero balance on first credit
func WithAutoOpen() Option {
	return func(m *MemoryAccounts) { m.autoOpen = true }
}

func NewMemoryAccounts(opts ...Option) *MemoryAccounts {
	m := &MemoryAccounts{balances: make(map[string]decimal.Decimal)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open creates accountID with an opening balance, or resets it if it exists
func (m *MemoryAccounts) Open(accountID string, balance decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[accountID] = balance
}

func (m *MemoryAccounts) Balance(accountID string) (decimal.Decimal, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.balances[accountID]
	return b, ok
}

func (m *MemoryAccounts) CreditAccount(_ context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, customError.WrapNonPositiveAmount("credit amount")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	balance, ok := m.balances[accountID]
	if !ok && !m.autoOpen {
		return decimal.Zero, customError.WrapAccountNotFound(accountID)
	}
	balance = balance.Add(amount)
	m.balances[accountID] = balance
	return balance, nil
}

func (m *MemoryAccounts) DebitAccount(_ context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, customError.WrapNonPositiveAmount("debit amount")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	balance, ok := m.balances[accountID]
	if !ok {
		return decimal.Zero, customError.WrapAccountNotFound(accountID)
	}
	if balance.LessThan(amount) {
		return decimal.Zero, customError.WrapInsufficientFunds(accountID)
	}
	balance = balance.Sub(amount)
	m.balances[accountID] = balance
	return balance, nil
}
