package repository

import (
	"context"

	"gitlab.com/yelinaung/famcoin-bot/internal/database"
	"gitlab.com/yelinaung/famcoin-bot/internal/economy"
)

var _ economy.UnitOfWork = (*UnitOfWork)(nil)

// UnitOfWork runs each economy operation in one PostgreSQL transaction, so an
// approval's purchase row and account document commit together.
type UnitOfWork struct {
	db database.TxBeginner
}

// NewUnitOfWork creates a UnitOfWork on db, usually the pool.
func NewUnitOfWork(db database.TxBeginner) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// Do implements economy.UnitOfWork with repositories bound to the transaction.
func (u *UnitOfWork) Do(ctx context.Context, fn func(economy.Stores) error) error {
	return database.InTx(ctx, u.db, func(tx database.PGXDB) error {
		return fn(economy.Stores{
			Accounts:  NewAccountRepository(tx),
			Purchases: NewPurchaseRepository(tx),
		})
	})
}
