package lifestore

import (
	"context"

	"github.com/lifeos/backend/internal/application/validation"
	"github.com/lifeos/backend/internal/domain/entity"
)

// GetAccounts returns every money account with its current balance.
func (s *Store) GetAccounts(ctx context.Context) ([]entity.Account, error) {
	var out []entity.Account
	err := s.view(ctx, func(t *tx) error {
		out = t.accounts()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetAccount returns one money account with its current balance.
func (s *Store) GetAccount(ctx context.Context, id string) (*entity.Account, error) {
	var out entity.Account
	err := s.view(ctx, func(t *tx) error {
		acc, err := find[entity.Account](t, entity.EntityTypeAccount, id)
		if err != nil {
			return err
		}
		acc.DeriveBalance(list[entity.Transaction](t, entity.EntityTypeTransaction))
		out = acc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AddAccount creates a money account with its opening balance.
func (s *Store) AddAccount(ctx context.Context, in validation.AccountCreate) (*entity.Account, error) {
	return create(ctx, s, entity.EntityTypeAccount, in, func(t *tx) (entity.Account, error) {
		return *entity.NewAccount(in.Name, entity.AccountType(in.Type), in.Currency, in.Balance, t.now), nil
	})
}

// UpdateAccount merges the non-nil fields of in.
func (s *Store) UpdateAccount(ctx context.Context, id string, in validation.AccountUpdate) (*entity.Account, error) {
	return modify(ctx, s, entity.EntityTypeAccount, id, in, func(t *tx, a *entity.Account) error {
		if in.Name != nil {
			a.Name = *in.Name
		}
		if in.Type != nil {
			a.Type = entity.AccountType(*in.Type)
		}
		if in.Currency != nil {
			a.Currency = *in.Currency
		}
		transactions := list[entity.Transaction](t, entity.EntityTypeTransaction)
		if in.Balance != nil {
			a.SetBalance(*in.Balance, transactions)
		} else {
			a.DeriveBalance(transactions)
		}
		a.UpdatedAt = t.now
		return nil
	})
}

// DeleteAccount removes an account and clears the account link of its
// transactions.
func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	return destroy(ctx, s, entity.EntityTypeAccount, id, func(t *tx, a entity.Account) error {
		t.nullifyReferences(entity.EntityTypeAccount, a.ID)
		return nil
	})
}

// GetTransactions returns every transaction.
func (s *Store) GetTransactions(ctx context.Context) ([]entity.Transaction, error) {
	return getAll[entity.Transaction](ctx, s, entity.EntityTypeTransaction)
}

// GetTransaction returns one transaction.
func (s *Store) GetTransaction(ctx context.Context, id string) (*entity.Transaction, error) {
	return getOne[entity.Transaction](ctx, s, entity.EntityTypeTransaction, id)
}

// AddTransaction records a transaction. The account balance follows from
// the transactions, so the account itself is not written.
func (s *Store) AddTransaction(ctx context.Context, in validation.TransactionCreate) (*entity.Transaction, error) {
	return create(ctx, s, entity.EntityTypeTransaction, in, func(t *tx) (entity.Transaction, error) {
		if err := t.checkRefs(weakRef{"accountId", entity.EntityTypeAccount, in.AccountID}); err != nil {
			return entity.Transaction{}, err
		}
		tr := entity.NewTransaction(in.Amount, entity.TransactionType(in.Type), in.Category, in.Date, t.now)
		tr.AccountID = optionalID(in.AccountID)
		tr.Description = in.Description
		return *tr, nil
	})
}

// UpdateTransaction merges the non-nil fields of in.
func (s *Store) UpdateTransaction(ctx context.Context, id string, in validation.TransactionUpdate) (*entity.Transaction, error) {
	return modify(ctx, s, entity.EntityTypeTransaction, id, in, func(t *tx, tr *entity.Transaction) error {
		if err := t.checkRefs(weakRef{"accountId", entity.EntityTypeAccount, in.AccountID}); err != nil {
			return err
		}
		if in.AccountID != nil {
			tr.AccountID = optionalID(in.AccountID)
		}
		if in.Amount != nil {
			tr.Amount = *in.Amount
		}
		if in.Type != nil {
			tr.Type = entity.TransactionType(*in.Type)
		}
		if in.Category != nil {
			tr.Category = *in.Category
		}
		if in.Description != nil {
			tr.Description = *in.Description
		}
		if in.Date != nil {
			tr.Date = *in.Date
		}
		tr.UpdatedAt = t.now
		return nil
	})
}

// DeleteTransaction removes a transaction.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	return destroy[entity.Transaction](ctx, s, entity.EntityTypeTransaction, id, nil)
}

// accounts returns a copy of the accounts with derived balances.
func (t *tx) accounts() []entity.Account {
	stored := list[entity.Account](t, entity.EntityTypeAccount)
	transactions := list[entity.Transaction](t, entity.EntityTypeTransaction)
	out := make([]entity.Account, len(stored))
	for i, acc := range stored {
		acc.DeriveBalance(transactions)
		out[i] = acc
	}
	return out
}

// GetFinancialGoals returns every savings target.
func (s *Store) GetFinancialGoals(ctx context.Context) ([]entity.FinancialGoal, error) {
	return getAll[entity.FinancialGoal](ctx, s, entity.EntityTypeFinancialGoal)
}

// GetFinancialGoal returns one savings target.
func (s *Store) GetFinancialGoal(ctx context.Context, id string) (*entity.FinancialGoal, error) {
	return getOne[entity.FinancialGoal](ctx, s, entity.EntityTypeFinancialGoal, id)
}

// AddFinancialGoal creates a savings target.
func (s *Store) AddFinancialGoal(ctx context.Context, in validation.FinancialGoalCreate) (*entity.FinancialGoal, error) {
	return create(ctx, s, entity.EntityTypeFinancialGoal, in, func(t *tx) (entity.FinancialGoal, error) {
		g := entity.NewFinancialGoal(in.Name, in.TargetAmount, t.now)
		if in.CurrentAmount != nil {
			g.CurrentAmount = *in.CurrentAmount
		}
		g.Deadline = in.Deadline
		g.Category = in.Category
		return *g, nil
	})
}

// UpdateFinancialGoal merges the non-nil fields of in.
func (s *Store) UpdateFinancialGoal(ctx context.Context, id string, in validation.FinancialGoalUpdate) (*entity.FinancialGoal, error) {
	return modify(ctx, s, entity.EntityTypeFinancialGoal, id, in, func(t *tx, g *entity.FinancialGoal) error {
		if in.Name != nil {
			g.Name = *in.Name
		}
		if in.TargetAmount != nil {
			g.TargetAmount = *in.TargetAmount
		}
		if in.CurrentAmount != nil {
			g.CurrentAmount = *in.CurrentAmount
		}
		if in.Deadline != nil {
			g.Deadline = *in.Deadline
		}
		if in.Category != nil {
			g.Category = *in.Category
		}
		g.UpdatedAt = t.now
		return nil
	})
}

// ContributeToFinancialGoal adds money to a savings target.
func (s *Store) ContributeToFinancialGoal(ctx context.Context, id string, in validation.Contribution) (*entity.FinancialGoal, error) {
	return modify(ctx, s, entity.EntityTypeFinancialGoal, id, in, func(t *tx, g *entity.FinancialGoal) error {
		g.CurrentAmount = g.CurrentAmount.Add(in.Amount)
		g.UpdatedAt = t.now
		return nil
	})
}

// DeleteFinancialGoal removes a savings target.
func (s *Store) DeleteFinancialGoal(ctx context.Context, id string) error {
	return destroy[entity.FinancialGoal](ctx, s, entity.EntityTypeFinancialGoal, id, nil)
}
