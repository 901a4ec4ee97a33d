package economy

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/famcoin-bot/internal/models"
)

func TestNeedsApproval(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		settings models.Settings
		amount   int64
		want     bool
	}{
		{name: "under threshold", settings: models.Settings{RequireApproval: true, AutoApproveUnderAmount: 500}, amount: 500, want: false},
		{name: "over threshold", settings: models.Settings{RequireApproval: true, AutoApproveUnderAmount: 500}, amount: 501, want: true},
		{name: "approval disabled", settings: models.Settings{AutoApproveUnderAmount: 0}, amount: 10_000, want: false},
		{name: "spending limit forces approval", settings: models.Settings{SpendingLimit: ptr(int64(100))}, amount: 101, want: true},
		{name: "at spending limit", settings: models.Settings{SpendingLimit: ptr(int64(100))}, amount: 100, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, NeedsApproval(tt.settings, tt.amount))
		})
	}
}

func TestRegistry_RequestPurchase(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("auto approves small purchases", func(t *testing.T) {
		t.Parallel()
		reg, store := newTestRegistry(t)
		acc := fundedAccount(t, reg)

		res, err := reg.RequestPurchase(ctx, acc, PurchaseDetails{Item: "comic", Amount: 400, Category: "books"})
		require.NoError(t, err)
		require.False(t, res.NeedsApproval)
		require.True(t, res.Purchase.AutoApproved)
		require.Equal(t, models.PurchaseStatusApproved, res.Purchase.Status)
		require.Equal(t, models.ApproverAuto, res.Purchase.ResolvedBy)
		require.NotNil(t, res.Transaction)
		require.Equal(t, "comic", res.Transaction.Metadata["item"])
		require.Equal(t, int64(100), acc.Balances[models.SubAccountSpending])
		require.Equal(t, int64(600), acc.TotalBalance)
		require.Equal(t, int64(400), acc.Stats.TotalSpent)

		pending, err := store.Pending(ctx, "")
		require.NoError(t, err)
		require.Empty(t, pending)
		requireConserved(t, acc)
	})

	t.Run("large purchases wait without touching balances", func(t *testing.T) {
		t.Parallel()
		reg, store := newTestRegistry(t)
		acc := newTestAccount(t, reg, "teen", 14)
		_, err := reg.Deposit(acc, 2000, DepositMeta{})
		require.NoError(t, err)
		before := acc.Clone()

		res, err := reg.RequestPurchase(ctx, acc, PurchaseDetails{Item: "bike", Amount: 1500})
		require.NoError(t, err)
		require.True(t, res.NeedsApproval)
		require.Nil(t, res.Transaction)
		require.Equal(t, models.PurchaseStatusPending, res.Purchase.Status)
		require.Equal(t, models.SubAccountSpending, res.Purchase.FromSubAccount)
		require.Equal(t, before, acc)

		pending, err := store.Pending(ctx, "teen")
		require.NoError(t, err)
		require.Len(t, pending, 1)
		require.Equal(t, res.Purchase.ID, pending[0].ID)
	})

	t.Run("charity purchases are spending, not a second donation", func(t *testing.T) {
		t.Parallel()
		reg, _ := newTestRegistry(t)
		acc := fundedAccount(t, reg)
		donated := acc.Stats.TotalDonated

		_, err := reg.RequestPurchase(ctx, acc, PurchaseDetails{Item: "food bank", Amount: 100, FromSubAccount: models.SubAccountCharity})
		require.NoError(t, err)
		require.Equal(t, donated, acc.Stats.TotalDonated)
		require.Equal(t, int64(100), acc.Stats.TotalSpent)
	})

	t.Run("insufficient funds is rejected up front", func(t *testing.T) {
		t.Parallel()
		reg, store := newTestRegistry(t)
		acc := fundedAccount(t, reg)
		before := acc.Clone()

		_, err := reg.RequestPurchase(ctx, acc, PurchaseDetails{Item: "console", Amount: 5000})
		require.ErrorIs(t, err, ErrInsufficientFunds)
		require.Equal(t, before, acc)

		pending, err := store.Pending(ctx, "")
		require.NoError(t, err)
		require.Empty(t, pending)
	})

	t.Run("validates details", func(t *testing.T) {
		t.Parallel()
		reg, _ := newTestRegistry(t)
		acc := fundedAccount(t, reg)

		_, err := reg.RequestPurchase(ctx, acc, PurchaseDetails{Item: "  ", Amount: 10})
		require.ErrorIs(t, err, ErrInvalidRequest)
		_, err = reg.RequestPurchase(ctx, acc, PurchaseDetails{Item: "gum", Amount: 0})
		require.ErrorIs(t, err, ErrInvalidRequest)
		_, err = reg.RequestPurchase(ctx, acc, PurchaseDetails{Item: "gum", Amount: 1, FromSubAccount: "vault"})
		require.ErrorIs(t, err, ErrInvalidRequest)
	})
}

func pendingPurchase(t *testing.T, reg *Registry, acc *models.Account, amount int64) models.PurchaseRequest {
	t.Helper()
	require.NoError(t, reg.UpdateSettings(acc, SettingsUpdate{AutoApproveUnderAmount: ptr(int64(0))}))
	res, err := reg.RequestPurchase(context.Background(), acc, PurchaseDetails{Item: "lego", Amount: amount})
	require.NoError(t, err)
	require.True(t, res.NeedsApproval)
	return res.Purchase
}

func TestRegistry_ApprovePurchase(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("debits and records approver", func(t *testing.T) {
		t.Parallel()
		reg, store := newTestRegistry(t)
		acc := fundedAccount(t, reg)
		req := pendingPurchase(t, reg, acc, 300)

		res, err := reg.ApprovePurchase(ctx, acc, req.ID, "mom")
		require.NoError(t, err)
		require.Equal(t, models.PurchaseStatusApproved, res.Purchase.Status)
		require.Equal(t, "mom", res.Purchase.ResolvedBy)
		require.False(t, res.Purchase.AutoApproved)
		require.NotNil(t, res.Purchase.ResolvedAt)
		require.Equal(t, "mom", res.Transaction.Metadata["approved_by"])
		require.Equal(t, int64(200), acc.Balances[models.SubAccountSpending])
		requireConserved(t, acc)

		pending, err := store.Pending(ctx, "")
		require.NoError(t, err)
		require.Empty(t, pending)
	})

	t.Run("rechecks funds and keeps request pending", func(t *testing.T) {
		t.Parallel()
		reg, store := newTestRegistry(t)
		acc := fundedAccount(t, reg)
		req := pendingPurchase(t, reg, acc, 400)

		_, err := reg.Withdraw(acc, 300, WithdrawMeta{})
		require.NoError(t, err)
		before := acc.Clone()

		_, err = reg.ApprovePurchase(ctx, acc, req.ID, "dad")
		require.ErrorIs(t, err, ErrInsufficientFunds)
		require.Equal(t, before, acc)

		stored, err := store.Get(ctx, req.ID)
		require.NoError(t, err)
		require.Equal(t, models.PurchaseStatusPending, stored.Status)

		_, err = reg.Deposit(acc, 300, DepositMeta{})
		require.NoError(t, err)
		_, err = reg.ApprovePurchase(ctx, acc, req.ID, "dad")
		require.NoError(t, err)
	})

	t.Run("second resolution is rejected", func(t *testing.T) {
		t.Parallel()
		reg, _ := newTestRegistry(t)
		acc := fundedAccount(t, reg)
		req := pendingPurchase(t, reg, acc, 100)

		_, err := reg.ApprovePurchase(ctx, acc, req.ID, "mom")
		require.NoError(t, err)
		after := acc.Clone()

		_, err = reg.ApprovePurchase(ctx, acc, req.ID, "dad")
		require.ErrorIs(t, err, ErrAlreadyResolved)
		_, err = reg.DenyPurchase(ctx, req.ID, "changed my mind", "dad")
		require.ErrorIs(t, err, ErrAlreadyResolved)
		require.Equal(t, after, acc)
	})

	t.Run("unknown id", func(t *testing.T) {
		t.Parallel()
		reg, _ := newTestRegistry(t)
		acc := fundedAccount(t, reg)

		_, err := reg.ApprovePurchase(ctx, acc, "pur_missing", "mom")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("request of another member is not found", func(t *testing.T) {
		t.Parallel()
		reg, _ := newTestRegistry(t)
		acc := fundedAccount(t, reg)
		req := pendingPurchase(t, reg, acc, 100)
		other := newTestAccount(t, reg, "sibling", 12)

		_, err := reg.ApprovePurchase(ctx, other, req.ID, "mom")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("approver is required", func(t *testing.T) {
		t.Parallel()
		reg, _ := newTestRegistry(t)
		acc := fundedAccount(t, reg)
		req := pendingPurchase(t, reg, acc, 100)

		_, err := reg.ApprovePurchase(ctx, acc, req.ID, " ")
		require.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("concurrent approvals resolve once", func(t *testing.T) {
		t.Parallel()
		reg, _ := newTestRegistry(t)
		acc := fundedAccount(t, reg)
		req := pendingPurchase(t, reg, acc, 100)

		const parents = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
			resolved  int
		)
		for range parents {
			copyOf := acc.Clone()
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := reg.ApprovePurchase(ctx, copyOf, req.ID, "parent")
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					successes++
				case KindOf(err) == KindAlreadyResolved:
					resolved++
				}
			}()
		}
		wg.Wait()

		require.Equal(t, 1, successes)
		require.Equal(t, parents-1, resolved)
	})
}

func TestRegistry_DenyPurchase(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("records reason without moving value", func(t *testing.T) {
		t.Parallel()
		reg, _ := newTestRegistry(t)
		acc := fundedAccount(t, reg)
		req := pendingPurchase(t, reg, acc, 200)
		before := acc.Clone()

		res, err := reg.DenyPurchase(ctx, req.ID, " too expensive ", "dad")
		require.NoError(t, err)
		require.Nil(t, res.Transaction)
		require.Equal(t, models.PurchaseStatusDenied, res.Purchase.Status)
		require.Equal(t, "too expensive", res.Purchase.DeniedReason)
		require.Equal(t, "dad", res.Purchase.ResolvedBy)
		require.Equal(t, before, acc)

		stored, err := reg.Purchase(ctx, req.ID)
		require.NoError(t, err)
		require.Equal(t, models.PurchaseStatusDenied, stored.Status)
	})

	t.Run("approval after denial is rejected", func(t *testing.T) {
		t.Parallel()
		reg, _ := newTestRegistry(t)
		acc := fundedAccount(t, reg)
		req := pendingPurchase(t, reg, acc, 200)

		_, err := reg.DenyPurchase(ctx, req.ID, "", "dad")
		require.NoError(t, err)
		_, err = reg.ApprovePurchase(ctx, acc, req.ID, "mom")
		require.ErrorIs(t, err, ErrAlreadyResolved)
	})

	t.Run("unknown id", func(t *testing.T) {
		t.Parallel()
		reg, _ := newTestRegistry(t)
		_, err := reg.DenyPurchase(ctx, "pur_missing", "", "dad")
		require.ErrorIs(t, err, ErrNotFound)
	})
}
