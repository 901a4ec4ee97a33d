package economy

import (
	"gitlab.com/yelinaung/famcoin-bot/internal/models"
)

// Ledger appends transactions to an account and snapshots receipts.
type Ledger struct {
	ids IDGenerator
	now Clock
}

// NewLedger creates a ledger using the given id source and clock.
func NewLedger(ids IDGenerator, now Clock) *Ledger {
	if now == nil {
		now = systemClock
	}
	return &Ledger{ids: ids, now: now}
}

// Append assigns an id and timestamp to tx, prepends it to the account's
// transactions, and prepends a receipt of the account's current state.
// Call it after the balances have been mutated.
func (l *Ledger) Append(acc *models.Account, tx models.Transaction) (models.Transaction, models.Receipt) {
	at := l.now()
	if tx.ID == "" {
		tx.ID = l.ids.NewID(prefixTransaction)
	}
	if tx.Timestamp.IsZero() {
		tx.Timestamp = at
	}

	receipt := models.Receipt{
		ID:            l.ids.NewID(prefixReceipt),
		TransactionID: tx.ID,
		Balances:      acc.BalancesSnapshot(),
		TotalBalance:  acc.TotalBalance,
		CreatedAt:     tx.Timestamp,
	}

	acc.Transactions = append([]models.Transaction{tx}, acc.Transactions...)
	acc.Receipts = append([]models.Receipt{receipt}, acc.Receipts...)
	acc.UpdatedAt = at
	return tx, receipt
}

// Page is one most-recent-first slice of a ledger collection.
type Page[T any] struct {
	Items  []T
	Total  int
	Offset int
	Limit  int
}

// HasMore reports whether items exist past this page.
func (p Page[T]) HasMore() bool {
	return p.Offset+len(p.Items) < p.Total
}

// DefaultPageSize is used when a non-positive limit is requested.
const DefaultPageSize = 20

func paginate[T any](items []T, offset, limit int) Page[T] {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	total := len(items)
	start := min(offset, total)
	end := min(start+limit, total)
	return Page[T]{
		Items:  append([]T(nil), items[start:end]...),
		Total:  total,
		Offset: offset,
		Limit:  limit,
	}
}

// TransactionsPage returns a page of the account's transactions.
func TransactionsPage(acc *models.Account, offset, limit int) Page[models.Transaction] {
	return paginate(acc.Transactions, offset, limit)
}

// ReceiptsPage returns a page of the account's receipts.
func ReceiptsPage(acc *models.Account, offset, limit int) Page[models.Receipt] {
	return paginate(acc.Receipts, offset, limit)
}
