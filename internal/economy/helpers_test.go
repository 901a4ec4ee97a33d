package economy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/famcoin-bot/internal/models"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func ptr[T any](v T) *T { return &v }

func newTestRegistry(t *testing.T) (*Registry, *MemoryPurchaseStore) {
	t.Helper()
	purchases := NewMemoryPurchaseStore()
	reg := NewRegistry(Options{
		Purchases: purchases,
		IDs:       &SequenceGenerator{},
		Clock:     fixedClock,
	})
	return reg, purchases
}

// newTestAccount opens an account with zero tax and the default 500 threshold.
func newTestAccount(t *testing.T, reg *Registry, memberID string, age int) *models.Account {
	t.Helper()
	acc, err := reg.CreateAccount(memberID, Profile{Name: "Kid " + memberID, Age: age})
	require.NoError(t, err)
	return acc
}

func requireConserved(t require.TestingT, acc *models.Account) {
	var sum int64
	for _, b := range acc.Balances {
		require.GreaterOrEqual(t, b, int64(0))
		sum += b
	}
	require.Equal(t, acc.TotalBalance, sum)
}
