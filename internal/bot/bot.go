// Package bot provides the Telegram front-end for the family coin economy.
package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/famcoin-bot/internal/config"
	"gitlab.com/yelinaung/famcoin-bot/internal/economy"
	"gitlab.com/yelinaung/famcoin-bot/internal/exchange"
	"gitlab.com/yelinaung/famcoin-bot/internal/logger"
	"gitlab.com/yelinaung/famcoin-bot/internal/models"
	"gitlab.com/yelinaung/famcoin-bot/internal/service"
)

// Bot wraps the Telegram bot with application dependencies.
type Bot struct {
	bot       *bot.Bot
	cfg       *config.Config
	svc       *service.Service
	presenter *exchange.Presenter

	// messageSender is used outside of update handling: event notifications
	// and the interest loop.
	messageSender TelegramAPI
}

// New creates a new Bot instance and registers it as the service notifier.
func New(cfg *config.Config, svc *service.Service, presenter *exchange.Presenter) (*Bot, error) {
	b := newBot(cfg, svc, presenter)

	opts := []bot.Option{
		bot.WithMiddlewares(b.identityMiddleware),
		bot.WithDefaultHandler(b.defaultHandler),
	}

	telegramBot, err := bot.New(cfg.TelegramBotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b.bot = telegramBot
	b.messageSender = telegramBot
	b.registerHandlers()
	svc.SetNotifier(NewNotifier(b.messageSender, cfg.ParentUserIDs, b.presenter))

	return b, nil
}

func newBot(cfg *config.Config, svc *service.Service, presenter *exchange.Presenter) *Bot {
	if presenter == nil {
		presenter = exchange.NewPresenter(svc.Registry().Converter(), nil, "")
	}
	return &Bot{cfg: cfg, svc: svc, presenter: presenter}
}

// Start begins polling for updates.
func (b *Bot) Start(ctx context.Context) {
	logger.Log.Info().Msg("Bot started polling")
	b.bot.Start(ctx)
}

// registerHandlers sets up command and callback handlers.
func (b *Bot) registerHandlers() {
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, b.handleStart)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypePrefix, b.handleHelp)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/join", bot.MatchTypePrefix, b.handleJoin)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/balance", bot.MatchTypePrefix, b.handleBalance)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/family", bot.MatchTypePrefix, b.handleFamily)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/actions", bot.MatchTypePrefix, b.handleActions)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/award", bot.MatchTypePrefix, b.handleAward)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/move", bot.MatchTypePrefix, b.handleMove)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/buy", bot.MatchTypePrefix, b.handleBuy)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/pending", bot.MatchTypePrefix, b.handlePending)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/withdraw", bot.MatchTypePrefix, b.handleWithdraw)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/deposit", bot.MatchTypePrefix, b.handleDeposit)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/interest", bot.MatchTypePrefix, b.handleInterest)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/split", bot.MatchTypePrefix, b.handleSplit)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/history", bot.MatchTypePrefix, b.handleHistory)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/receipts", bot.MatchTypePrefix, b.handleReceipts)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/chart", bot.MatchTypePrefix, b.handleChart)

	b.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, callbackApprove, bot.MatchTypePrefix, b.handleApproveCallback)
	b.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, callbackDeny, bot.MatchTypePrefix, b.handleDenyCallback)
}

// identityMiddleware drops updates without a sender and logs the rest.
func (b *Bot) identityMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
		userID := extractUserID(update)
		if userID == 0 {
			return
		}

		logUserAction(userID, b.isParent(update), update)
		next(ctx, tgBot, update)
	}
}

// logUserAction logs the user's input/action without raw identifiers.
func logUserAction(userID int64, parent bool, update *tgmodels.Update) {
	switch {
	case update.Message != nil:
		event := logger.Log.Info().
			Str("user_hash", logger.HashUserID(userID)).
			Bool("parent", parent)
		if cmd := commandName(update.Message.Text); cmd != "" {
			event = event.Str("command", cmd)
		}
		event.Msg("User input")

	case update.CallbackQuery != nil:
		logger.Log.Info().
			Str("user_hash", logger.HashUserID(userID)).
			Bool("parent", parent).
			Str("data", update.CallbackQuery.Data).
			Msg("Callback query")

	case update.EditedMessage != nil:
		logger.Log.Debug().
			Str("user_hash", logger.HashUserID(userID)).
			Msg("Edited message ignored")
	}
}

// commandName returns the leading /command of text, without any @botname.
func commandName(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	cmd, _, _ := strings.Cut(text, " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return cmd
}

// extractUsername gets the username from the update.
func extractUsername(update *tgmodels.Update) string {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.Username
	}
	if update.CallbackQuery != nil {
		return update.CallbackQuery.From.Username
	}
	if update.EditedMessage != nil && update.EditedMessage.From != nil {
		return update.EditedMessage.From.Username
	}
	return ""
}

// extractUserID gets the user ID from various update types.
func extractUserID(update *tgmodels.Update) int64 {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.ID
	}
	if update.CallbackQuery != nil {
		return update.CallbackQuery.From.ID
	}
	if update.EditedMessage != nil && update.EditedMessage.From != nil {
		return update.EditedMessage.From.ID
	}
	return 0
}

// isParent reports whether the sender of update is a configured parent.
func (b *Bot) isParent(update *tgmodels.Update) bool {
	return b.cfg.IsParent(extractUserID(update), extractUsername(update))
}

// memberID is the economy identity of a Telegram user.
func memberID(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// memberChatID maps a member id back to its private chat.
func memberChatID(id string) (int64, bool) {
	chatID, err := strconv.ParseInt(id, 10, 64)
	if err != nil || chatID == 0 {
		return 0, false
	}
	return chatID, true
}

// actorName identifies the sender in ledger metadata and approvals.
func actorName(update *tgmodels.Update) string {
	if username := extractUsername(update); username != "" {
		return "@" + username
	}
	return memberID(extractUserID(update))
}

// findMember resolves a member reference: a member id or a case-insensitive name.
func (b *Bot) findMember(ctx context.Context, ref string) (*models.Account, error) {
	ref = strings.TrimPrefix(strings.TrimSpace(ref), "@")
	if ref == "" {
		return nil, economy.NewError(economy.KindInvalidRequest, "member is required")
	}

	if acc, err := b.svc.Account(ctx, ref); err == nil {
		return acc, nil
	}

	accounts, err := b.svc.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	for _, acc := range accounts {
		if strings.EqualFold(acc.MemberName, ref) {
			return acc, nil
		}
	}
	return nil, economy.NewError(economy.KindNotFound, "no member named %q", ref)
}

// defaultHandler handles unrecognized messages.
func (b *Bot) defaultHandler(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.defaultHandlerCore(ctx, tgBot, update)
}

func (b *Bot) defaultHandlerCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}

	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    update.Message.Chat.ID,
		Text:      "I didn't understand that. Use /help to see available commands.",
		ParseMode: tgmodels.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send default response")
	}
}
