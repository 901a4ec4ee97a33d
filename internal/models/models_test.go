package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestModeForAge(t *testing.T) {
	t.Parallel()

	tests := []struct {
		age  int
		want Mode
	}{
		{age: 4, want: ModeSimple},
		{age: 7, want: ModeSimple},
		{age: 8, want: ModeStandard},
		{age: 12, want: ModeStandard},
		{age: 13, want: ModeAdvanced},
		{age: 17, want: ModeAdvanced},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, ModeForAge(tt.age), "age %d", tt.age)
	}
}

func TestDefaultSplit(t *testing.T) {
	t.Parallel()

	for _, mode := range []Mode{ModeSimple, ModeStandard, ModeAdvanced} {
		total := 0
		for _, pct := range DefaultSplit(mode) {
			total += pct
		}
		require.Equal(t, 100, total, "mode %s", mode)
	}

	require.Equal(t, map[SubAccount]int{SubAccountSpending: 100}, DefaultSplit(ModeSimple))
	require.Equal(t, 50, DefaultSplit(ModeStandard)[SubAccountSpending])
}

func TestParseSubAccount(t *testing.T) {
	t.Parallel()

	s, ok := ParseSubAccount("savings")
	require.True(t, ok)
	require.Equal(t, SubAccountSavings, s)

	_, ok = ParseSubAccount("Savings")
	require.False(t, ok)

	_, ok = ParseSubAccount("")
	require.False(t, ok)
}

func TestAccount_SubAccounts(t *testing.T) {
	t.Parallel()

	t.Run("stable order", func(t *testing.T) {
		t.Parallel()
		acc := &Account{Balances: map[SubAccount]int64{
			SubAccountCharity:   1,
			SubAccountSpending:  2,
			SubAccountInvesting: 3,
			SubAccountSavings:   4,
		}}
		require.Equal(t, SubAccountOrder, acc.SubAccounts())
	})

	t.Run("simple account has only spending", func(t *testing.T) {
		t.Parallel()
		acc := &Account{Balances: map[SubAccount]int64{SubAccountSpending: 0}}
		require.Equal(t, []SubAccount{SubAccountSpending}, acc.SubAccounts())
		require.True(t, acc.HasSubAccount(SubAccountSpending))
		require.False(t, acc.HasSubAccount(SubAccountSavings))
	})
}

func TestAccount_Clone(t *testing.T) {
	t.Parallel()

	limit := int64(300)
	acc := &Account{
		MemberID:     "42",
		Balances:     map[SubAccount]int64{SubAccountSpending: 10},
		Settings:     Settings{AutoSplit: map[SubAccount]int{SubAccountSpending: 100}, SpendingLimit: &limit},
		Transactions: []Transaction{{ID: "t1", Timestamp: time.Now()}},
	}

	c := acc.Clone()
	c.Balances[SubAccountSpending] = 99
	c.Settings.AutoSplit[SubAccountSpending] = 1
	*c.Settings.SpendingLimit = 1
	c.Transactions = append(c.Transactions, Transaction{ID: "t2"})

	require.Equal(t, int64(10), acc.Balances[SubAccountSpending])
	require.Equal(t, 100, acc.Settings.AutoSplit[SubAccountSpending])
	require.Equal(t, int64(300), *acc.Settings.SpendingLimit)
	require.Len(t, acc.Transactions, 1)
}
