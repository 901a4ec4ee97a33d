package bot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/famcoin-bot/internal/bot/mocks"
	"gitlab.com/yelinaung/famcoin-bot/internal/config"
	"gitlab.com/yelinaung/famcoin-bot/internal/economy"
	"gitlab.com/yelinaung/famcoin-bot/internal/service"
)

const (
	parentID int64 = 500
	kidID    int64 = 1001
	teenID   int64 = 1002
)

var testNow = time.Date(2026, 6, 1, 8, 15, 0, 0, time.UTC)

type testEnv struct {
	b   *Bot
	tg  *mocks.MockBot
	svc *service.Service
}

// newTestEnv wires a Bot over an in-memory service. Handler replies and
// event notifications both land on the same MockBot.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	clock := func() time.Time { return testNow }
	svc, err := service.New(service.Options{
		Registry: economy.NewRegistry(economy.Options{IDs: &economy.SequenceGenerator{}, Clock: clock}),
		Clock:    clock,
	})
	require.NoError(t, err)

	cfg := &config.Config{
		TelegramBotToken: "test-token",
		ParentUserIDs:    []int64{parentID},
		ParentUsernames:  []string{"mom"},
		InterestEnabled:  true,
		InterestHour:     8,
		InterestTimezone: "UTC",
	}

	tg := mocks.NewMockBot()
	b := newBot(cfg, svc, nil)
	b.messageSender = tg
	svc.SetNotifier(NewNotifier(tg, cfg.ParentUserIDs, b.presenter))

	return &testEnv{b: b, tg: tg, svc: svc}
}

// join opens an account directly through the service and clears the mock.
func (e *testEnv) join(t *testing.T, userID int64, name string, age int) {
	t.Helper()
	_, err := e.svc.CreateAccount(context.Background(), memberID(userID), economy.Profile{Name: name, Age: age}, "test")
	require.NoError(t, err)
	e.tg.Reset()
}

// earn credits a custom amount and clears the mock.
func (e *testEnv) earn(t *testing.T, userID, amount int64) {
	t.Helper()
	_, err := e.svc.Earn(context.Background(), memberID(userID), "", amount, nil, "test")
	require.NoError(t, err)
	e.tg.Reset()
}

// lastTo returns the text of the newest message sent to chatID.
func (e *testEnv) lastTo(t *testing.T, chatID int64) string {
	t.Helper()
	msgs := e.tg.MessagesTo(chatID)
	require.NotEmpty(t, msgs, "no messages to %d", chatID)
	return msgs[len(msgs)-1].Text
}

func ptr[T any](v T) *T {
	return &v
}
