package economy

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/famcoin-bot/internal/models"
)

func TestLedger_Append(t *testing.T) {
	t.Parallel()

	t.Run("prepends transaction and receipt snapshot", func(t *testing.T) {
		t.Parallel()
		ledger := NewLedger(&SequenceGenerator{}, fixedClock)
		acc := &models.Account{
			MemberID:     "1",
			TotalBalance: 30,
			Balances:     map[models.SubAccount]int64{models.SubAccountSpending: 30},
		}

		first, r1 := ledger.Append(acc, models.Transaction{Type: models.TransactionDeposit, Amount: 30})
		acc.Balances[models.SubAccountSpending] = 20
		acc.TotalBalance = 20
		second, r2 := ledger.Append(acc, models.Transaction{Type: models.TransactionWithdrawal, Amount: 10})

		require.Equal(t, testNow, first.Timestamp)
		require.Equal(t, []string{second.ID, first.ID}, []string{acc.Transactions[0].ID, acc.Transactions[1].ID})
		require.Equal(t, []string{r2.ID, r1.ID}, []string{acc.Receipts[0].ID, acc.Receipts[1].ID})
		require.Equal(t, first.ID, r1.TransactionID)
		require.Equal(t, int64(30), r1.TotalBalance)
		require.Equal(t, int64(30), r1.Balances[models.SubAccountSpending])
		require.Equal(t, int64(20), r2.Balances[models.SubAccountSpending])
	})

	t.Run("receipt snapshot is detached from live balances", func(t *testing.T) {
		t.Parallel()
		ledger := NewLedger(&SequenceGenerator{}, fixedClock)
		acc := &models.Account{Balances: map[models.SubAccount]int64{models.SubAccountSpending: 5}, TotalBalance: 5}

		_, receipt := ledger.Append(acc, models.Transaction{Type: models.TransactionDeposit, Amount: 5})
		acc.Balances[models.SubAccountSpending] = 999

		require.Equal(t, int64(5), receipt.Balances[models.SubAccountSpending])
		require.Equal(t, int64(5), acc.Receipts[0].Balances[models.SubAccountSpending])
	})

	t.Run("ids stay unique under rapid calls", func(t *testing.T) {
		t.Parallel()
		ledger := NewLedger(&SequenceGenerator{}, fixedClock)
		acc := &models.Account{Balances: map[models.SubAccount]int64{models.SubAccountSpending: 0}}

		seen := make(map[string]bool)
		for range 500 {
			tx, receipt := ledger.Append(acc, models.Transaction{Type: models.TransactionDeposit, Amount: 1})
			require.False(t, seen[tx.ID])
			require.False(t, seen[receipt.ID])
			seen[tx.ID] = true
			seen[receipt.ID] = true
		}
	})

	t.Run("uuid ids are unique", func(t *testing.T) {
		t.Parallel()
		ledger := NewLedger(UUIDGenerator{}, nil)
		acc := &models.Account{Balances: map[models.SubAccount]int64{models.SubAccountSpending: 0}}

		seen := make(map[string]bool)
		for range 200 {
			_, receipt := ledger.Append(acc, models.Transaction{Type: models.TransactionDeposit, Amount: 1})
			require.Contains(t, receipt.ID, "rcpt_")
			require.False(t, seen[receipt.ID])
			seen[receipt.ID] = true
		}
	})
}

func TestPagination(t *testing.T) {
	t.Parallel()

	ledger := NewLedger(&SequenceGenerator{}, fixedClock)
	acc := &models.Account{Balances: map[models.SubAccount]int64{models.SubAccountSpending: 0}}
	var ids []string
	for i := range 7 {
		tx, _ := ledger.Append(acc, models.Transaction{Type: models.TransactionDeposit, Amount: int64(i + 1)})
		ids = append([]string{tx.ID}, ids...)
	}

	t.Run("first page is most recent", func(t *testing.T) {
		t.Parallel()
		page := TransactionsPage(acc, 0, 3)
		require.Equal(t, 7, page.Total)
		require.Len(t, page.Items, 3)
		require.Equal(t, ids[0], page.Items[0].ID)
		require.Equal(t, int64(7), page.Items[0].Amount)
		require.True(t, page.HasMore())
	})

	t.Run("last partial page", func(t *testing.T) {
		t.Parallel()
		page := ReceiptsPage(acc, 6, 3)
		require.Len(t, page.Items, 1)
		require.False(t, page.HasMore())
	})

	t.Run("offset past end", func(t *testing.T) {
		t.Parallel()
		page := TransactionsPage(acc, 50, 3)
		require.Empty(t, page.Items)
		require.Equal(t, 7, page.Total)
	})

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		page := TransactionsPage(acc, -1, 0)
		require.Equal(t, 0, page.Offset)
		require.Equal(t, DefaultPageSize, page.Limit)
		require.Len(t, page.Items, 7)
	})

	t.Run("reading does not mutate", func(t *testing.T) {
		t.Parallel()
		page := TransactionsPage(acc, 0, 2)
		page.Items[0].Amount = -1
		require.Equal(t, int64(7), acc.Transactions[0].Amount)
	})
}
