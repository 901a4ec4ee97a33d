package bot

import (
	"context"
	"strings"
	"testing"

	tgmodels "github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/famcoin-bot/internal/bot/mocks"
	"gitlab.com/yelinaung/famcoin-bot/internal/economy"
	"gitlab.com/yelinaung/famcoin-bot/internal/models"
)

// pendingBike queues an 800 coin purchase for the kid and returns its id.
func pendingBike(t *testing.T, env *testEnv) string {
	t.Helper()
	env.join(t, kidID, "Ava", 10)
	env.earn(t, kidID, 2000)
	res, err := env.svc.RequestPurchase(context.Background(), memberID(kidID),
		economy.PurchaseDetails{Item: "bike", Amount: 800})
	require.NoError(t, err)
	require.True(t, res.NeedsApproval)
	env.tg.Reset()
	return res.Purchase.ID
}

func callbackUpdate(userID int64, data string) *tgmodels.Update {
	return mocks.NewUpdateBuilder().
		WithCallbackQuery("cb-1", userID, userID, 42, data).
		WithCallbackText("🛒 Ava wants to buy bike").
		Build()
}

func TestHandleApproveCallbackCore(t *testing.T) {
	t.Parallel()

	t.Run("parent approves", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		id := pendingBike(t, env)

		env.b.handleApproveCallbackCore(context.Background(), env.tg, callbackUpdate(parentID, callbackApprove+id))

		answer := env.tg.LastAnsweredCallback()
		require.NotNil(t, answer)
		require.Equal(t, "✅ Approved", answer.Text)
		require.False(t, answer.ShowAlert)

		edited := env.tg.LastEditedMessage()
		require.NotNil(t, edited)
		require.Equal(t, 42, edited.MessageID)
		require.Equal(t, "🛒 Ava wants to buy bike\n\n✅ Approved by @testuser.", edited.Text)
		kb, ok := edited.ReplyMarkup.(*tgmodels.InlineKeyboardMarkup)
		require.True(t, ok)
		require.Empty(t, kb.InlineKeyboard)

		require.Contains(t, env.lastTo(t, kidID), "✅ Your request for <b>bike</b> (800 coins) was approved by @testuser.")

		acc, err := env.svc.Account(context.Background(), memberID(kidID))
		require.NoError(t, err)
		require.Equal(t, int64(200), acc.Balances[models.SubAccountSpending])
	})

	t.Run("second press reports the earlier outcome", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		id := pendingBike(t, env)
		_, err := env.svc.ApprovePurchase(context.Background(), id, "@dad")
		require.NoError(t, err)
		env.tg.Reset()

		env.b.handleApproveCallbackCore(context.Background(), env.tg, callbackUpdate(parentID, callbackApprove+id))

		require.Equal(t, "ℹ️ Someone already handled this request.", env.tg.LastAnsweredCallback().Text)
		require.Contains(t, env.tg.LastEditedMessage().Text, "ℹ️ Already approved by @dad.")

		acc, err := env.svc.Account(context.Background(), memberID(kidID))
		require.NoError(t, err)
		require.Equal(t, int64(200), acc.Balances[models.SubAccountSpending])
	})

	t.Run("non-parent is refused", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		id := pendingBike(t, env)

		env.b.handleApproveCallbackCore(context.Background(), env.tg, callbackUpdate(kidID, callbackApprove+id))

		answer := env.tg.LastAnsweredCallback()
		require.Equal(t, "⛔ Only parents can approve or deny purchases.", answer.Text)
		require.True(t, answer.ShowAlert)
		require.Nil(t, env.tg.LastEditedMessage())

		req, err := env.svc.Purchase(context.Background(), id)
		require.NoError(t, err)
		require.Equal(t, models.PurchaseStatusPending, req.Status)
	})

	t.Run("insufficient funds keeps the request pending", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		id := pendingBike(t, env)
		_, err := env.svc.Withdraw(context.Background(), memberID(kidID), 300, economy.WithdrawMeta{Method: "cash"})
		require.NoError(t, err)
		env.tg.Reset()

		env.b.handleApproveCallbackCore(context.Background(), env.tg, callbackUpdate(parentID, callbackApprove+id))

		answer := env.tg.LastAnsweredCallback()
		require.Equal(t, "💸 Not enough coins right now. The request stays pending.", answer.Text)
		require.True(t, answer.ShowAlert)
		require.Nil(t, env.tg.LastEditedMessage())

		req, err := env.svc.Purchase(context.Background(), id)
		require.NoError(t, err)
		require.Equal(t, models.PurchaseStatusPending, req.Status)
	})

	t.Run("empty purchase id", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		env.b.handleApproveCallbackCore(context.Background(), env.tg, callbackUpdate(parentID, callbackApprove))

		require.Equal(t, "❌ Invalid request.", env.tg.LastAnsweredCallback().Text)
	})

	t.Run("unknown purchase", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		env.b.handleApproveCallbackCore(context.Background(), env.tg, callbackUpdate(parentID, callbackApprove+"pur_missing"))

		answer := env.tg.LastAnsweredCallback()
		require.True(t, strings.HasPrefix(answer.Text, "🔍 Not found"))
		require.NotContains(t, answer.Text, "<b>")
	})
}

func TestHandleDenyCallbackCore(t *testing.T) {
	t.Parallel()

	t.Run("parent denies", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		id := pendingBike(t, env)

		env.b.handleDenyCallbackCore(context.Background(), env.tg, callbackUpdate(parentID, callbackDeny+id))

		require.Equal(t, "🚫 Denied", env.tg.LastAnsweredCallback().Text)
		require.Contains(t, env.tg.LastEditedMessage().Text, "🚫 Denied by @testuser.")

		text := env.lastTo(t, kidID)
		require.Contains(t, text, "🚫 Your request for <b>bike</b> was denied by @testuser.")
		require.Contains(t, text, "Reason: "+defaultDenyReason)

		acc, err := env.svc.Account(context.Background(), memberID(kidID))
		require.NoError(t, err)
		require.Equal(t, int64(1000), acc.Balances[models.SubAccountSpending])
	})

	t.Run("deny after approve", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		id := pendingBike(t, env)
		_, err := env.svc.ApprovePurchase(context.Background(), id, "@dad")
		require.NoError(t, err)
		env.tg.Reset()

		env.b.handleDenyCallbackCore(context.Background(), env.tg, callbackUpdate(parentID, callbackDeny+id))

		require.Equal(t, "ℹ️ Someone already handled this request.", env.tg.LastAnsweredCallback().Text)
		req, err := env.svc.Purchase(context.Background(), id)
		require.NoError(t, err)
		require.Equal(t, models.PurchaseStatusApproved, req.Status)
	})
}

func TestStripTags(t *testing.T) {
	t.Parallel()
	require.Equal(t, "🔍 Not found: <x> & y", stripTags("🔍 Not found: <b>&lt;x&gt;</b> &amp; y"))
}
