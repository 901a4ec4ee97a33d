package bot

import (
	"context"
	"errors"
	"testing"

	tgmodels "github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/famcoin-bot/internal/economy"
)

func TestExtractUserID(t *testing.T) {
	t.Parallel()

	t.Run("extracts from message", func(t *testing.T) {
		t.Parallel()
		update := &tgmodels.Update{
			Message: &tgmodels.Message{
				From: &tgmodels.User{ID: 12345},
			},
		}
		require.Equal(t, int64(12345), extractUserID(update))
	})

	t.Run("extracts from callback query", func(t *testing.T) {
		t.Parallel()
		update := &tgmodels.Update{
			CallbackQuery: &tgmodels.CallbackQuery{
				From: tgmodels.User{ID: 67890},
			},
		}
		require.Equal(t, int64(67890), extractUserID(update))
	})

	t.Run("extracts from edited message", func(t *testing.T) {
		t.Parallel()
		update := &tgmodels.Update{
			EditedMessage: &tgmodels.Message{
				From: &tgmodels.User{ID: 11111},
			},
		}
		require.Equal(t, int64(11111), extractUserID(update))
	})

	t.Run("returns zero for empty update", func(t *testing.T) {
		t.Parallel()
		update := &tgmodels.Update{}
		require.Equal(t, int64(0), extractUserID(update))
	})

	t.Run("returns zero for message without from", func(t *testing.T) {
		t.Parallel()
		update := &tgmodels.Update{
			Message: &tgmodels.Message{From: nil},
		}
		require.Equal(t, int64(0), extractUserID(update))
	})
}

func TestCommandName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"/balance":            "/balance",
		"/award Ava bonus":    "/award",
		"/buy@famcoin_bot 30": "/buy",
		"hello":               "",
		"":                    "",
	}
	for text, want := range tests {
		require.Equal(t, want, commandName(text), text)
	}
}

func TestMemberChatID(t *testing.T) {
	t.Parallel()

	id, ok := memberChatID(memberID(1001))
	require.True(t, ok)
	require.Equal(t, int64(1001), id)

	for _, bad := range []string{"", "0", "kid-ava", "12x"} {
		_, ok := memberChatID(bad)
		require.False(t, ok, bad)
	}
}

func TestActorName(t *testing.T) {
	t.Parallel()

	withUsername := &tgmodels.Update{Message: &tgmodels.Message{From: &tgmodels.User{ID: 1, Username: "mom"}}}
	require.Equal(t, "@mom", actorName(withUsername))

	withoutUsername := &tgmodels.Update{Message: &tgmodels.Message{From: &tgmodels.User{ID: 42}}}
	require.Equal(t, "42", actorName(withoutUsername))
}

func TestFindMember(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.join(t, kidID, "Ava", 10)
	env.join(t, teenID, "Mary Jane", 14)
	ctx := context.Background()

	t.Run("by id", func(t *testing.T) {
		t.Parallel()
		acc, err := env.b.findMember(ctx, memberID(teenID))
		require.NoError(t, err)
		require.Equal(t, "Mary Jane", acc.MemberName)
	})

	t.Run("by name ignoring case and at sign", func(t *testing.T) {
		t.Parallel()
		acc, err := env.b.findMember(ctx, "@AVA")
		require.NoError(t, err)
		require.Equal(t, memberID(kidID), acc.MemberID)
	})

	t.Run("multi-word name", func(t *testing.T) {
		t.Parallel()
		acc, err := env.b.findMember(ctx, "mary jane")
		require.NoError(t, err)
		require.Equal(t, memberID(teenID), acc.MemberID)
	})

	t.Run("unknown", func(t *testing.T) {
		t.Parallel()
		_, err := env.b.findMember(ctx, "Zed")
		require.Equal(t, economy.KindNotFound, economy.KindOf(err))
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		_, err := env.b.findMember(ctx, "  ")
		require.Equal(t, economy.KindInvalidRequest, economy.KindOf(err))
	})
}

func TestErrorReply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{economy.NewError(economy.KindInsufficientFunds, "spending has 5"), "💸 Not enough coins: spending has 5"},
		{economy.NewError(economy.KindNotFound, "no member <x>"), "🔍 Not found: no member &lt;x&gt;"},
		{economy.NewError(economy.KindAlreadyResolved, "done"), "ℹ️ Already handled: done"},
		{economy.NewError(economy.KindNoInterestEarned, "no savings"), "ℹ️ No interest this time: no savings"},
		{economy.NewError(economy.KindConfigurationError, "bad split"), "⚙️ Invalid settings: bad split"},
		{economy.NewError(economy.KindInvalidRequest, "amount must be positive"), "❌ amount must be positive"},
		{economy.ErrNotFound, "🔍 Not found: not found"},
		{errors.New("connection reset"), "❌ Failed to award coins. Please try again."},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, errorReply(tt.err, "award coins"))
	}
}
