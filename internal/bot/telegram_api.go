package bot

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/famcoin-bot/internal/bot/mocks"
)

// TelegramAPI is what update handlers use to reply. It lives in mocks so the
// fake and the handlers share one definition.
type TelegramAPI = mocks.TelegramAPI

// MessageSender is the part of TelegramAPI used outside of update handling,
// where there is no callback to answer or message to edit.
type MessageSender interface {
	SendMessage(ctx context.Context, params *tgbot.SendMessageParams) (*tgmodels.Message, error)
}

var (
	_ TelegramAPI   = (*tgbot.Bot)(nil)
	_ MessageSender = (*tgbot.Bot)(nil)
	_ MessageSender = (TelegramAPI)(nil)
)
