package economy

import (
	"context"
	"errors"
	"fmt"

	"gitlab.com/yelinaung/famcoin-bot/internal/models"
)

// CompensatingUnit is a UnitOfWork for stores without transactions. Purchase
// writes made by fn are journaled and restored when fn fails, which covers an
// approval whose account save did not go through.
type CompensatingUnit struct {
	accounts  AccountStore
	purchases PurchaseStore
}

// NewCompensatingUnit creates a unit over the given stores. The purchase store
// should implement PurchaseRestorer; without it failed writes stay in place.
func NewCompensatingUnit(accounts AccountStore, purchases PurchaseStore) *CompensatingUnit {
	return &CompensatingUnit{accounts: accounts, purchases: purchases}
}

// Do implements UnitOfWork.
func (u *CompensatingUnit) Do(ctx context.Context, fn func(Stores) error) error {
	j := &purchaseJournal{PurchaseStore: u.purchases}
	err := fn(Stores{Accounts: u.accounts, Purchases: j})
	if err == nil {
		return nil
	}
	if undoErr := j.undo(ctx); undoErr != nil {
		return errors.Join(err, undoErr)
	}
	return err
}

type journalEntry struct {
	id   string
	prev *models.PurchaseRequest
}

// purchaseJournal records the state each written request had before fn ran.
type purchaseJournal struct {
	PurchaseStore
	entries []journalEntry
}

func (j *purchaseJournal) Add(ctx context.Context, req *models.PurchaseRequest) error {
	if err := j.PurchaseStore.Add(ctx, req); err != nil {
		return err
	}
	j.entries = append(j.entries, journalEntry{id: req.ID})
	return nil
}

func (j *purchaseJournal) Resolve(ctx context.Context, id string, res Resolution) (*models.PurchaseRequest, error) {
	prev, err := j.PurchaseStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	resolved, err := j.PurchaseStore.Resolve(ctx, id, res)
	if err != nil {
		return nil, err
	}
	j.entries = append(j.entries, journalEntry{id: id, prev: prev})
	return resolved, nil
}

// undo restores journaled requests newest first.
func (j *purchaseJournal) undo(ctx context.Context) error {
	if len(j.entries) == 0 {
		return nil
	}
	restorer, ok := j.PurchaseStore.(PurchaseRestorer)
	if !ok {
		return fmt.Errorf("purchase store %T cannot restore %d request(s)", j.PurchaseStore, len(j.entries))
	}

	var errs []error
	for i := len(j.entries) - 1; i >= 0; i-- {
		e := j.entries[i]
		if err := restorer.Restore(ctx, e.id, e.prev); err != nil {
			errs = append(errs, fmt.Errorf("failed to restore purchase %q: %w", e.id, err))
		}
	}
	return errors.Join(errs...)
}
