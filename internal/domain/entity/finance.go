// Package entity defines the core business entities for the domain layer.
package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType represents the kind of money account.
type AccountType string

const (
	AccountTypeChecking   AccountType = "checking"
	AccountTypeSavings    AccountType = "savings"
	AccountTypeCredit     AccountType = "credit"
	AccountTypeInvestment AccountType = "investment"
	AccountTypeCash       AccountType = "cash"
)

// TransactionType represents the type of transaction (expense or income).
type TransactionType string

const (
	TransactionTypeExpense TransactionType = "expense"
	TransactionTypeIncome  TransactionType = "income"
)

// Account represents a money account with a running balance.
type Account struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Type           AccountType     `json:"type"`
	Currency       string          `json:"currency"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	// Balance is derived from OpeningBalance and the account's transactions.
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// NewAccount creates a new Account entity.
func NewAccount(name string, accountType AccountType, currency string, balance decimal.Decimal, now time.Time) *Account {
	return &Account{
		ID:             uuid.NewString(),
		Name:           name,
		Type:           accountType,
		Currency:       currency,
		OpeningBalance: balance,
		Balance:        balance,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// TransactionTotal sums the signed amounts of the transactions booked on
// the account.
func (a Account) TransactionTotal(transactions []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tr := range transactions {
		if tr.AccountID != nil && *tr.AccountID == a.ID {
			total = total.Add(tr.SignedAmount())
		}
	}
	return total
}

// DeriveBalance sets Balance from the opening balance and transactions.
func (a *Account) DeriveBalance(transactions []Transaction) {
	a.Balance = a.OpeningBalance.Add(a.TransactionTotal(transactions))
}

// SetBalance moves the opening balance so the derived balance equals
// balance.
func (a *Account) SetBalance(balance decimal.Decimal, transactions []Transaction) {
	a.OpeningBalance = balance.Sub(a.TransactionTotal(transactions))
	a.Balance = balance
}

// RecordID returns the account id.
func (a Account) RecordID() string { return a.ID }

// Transaction represents money moving in or out of an account. Amount is
// always positive; Type carries the direction.
type Transaction struct {
	ID          string          `json:"id"`
	AccountID   *string         `json:"accountId,omitempty"` // weak reference to Account.ID
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
	Category    string          `json:"category"`
	Description string          `json:"description,omitempty"`
	Date        string          `json:"date"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// NewTransaction creates a new Transaction entity.
func NewTransaction(amount decimal.Decimal, transactionType TransactionType, category, date string, now time.Time) *Transaction {
	return &Transaction{
		ID:        uuid.NewString(),
		Amount:    amount,
		Type:      transactionType,
		Category:  category,
		Date:      date,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RecordID returns the transaction id.
func (t Transaction) RecordID() string { return t.ID }

// SignedAmount returns the amount with expenses negated.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TransactionTypeExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// FinancialGoal represents a savings target.
type FinancialGoal struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	Deadline      string          `json:"deadline,omitempty"`
	Category      string          `json:"category,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// NewFinancialGoal creates a new FinancialGoal entity.
func NewFinancialGoal(name string, target decimal.Decimal, now time.Time) *FinancialGoal {
	return &FinancialGoal{
		ID:            uuid.NewString(),
		Name:          name,
		TargetAmount:  target,
		CurrentAmount: decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// RecordID returns the financial goal id.
func (g FinancialGoal) RecordID() string { return g.ID }

// Reached reports whether the target has been met.
func (g FinancialGoal) Reached() bool {
	return g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}
