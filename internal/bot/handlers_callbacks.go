package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/famcoin-bot/internal/economy"
	"gitlab.com/yelinaung/famcoin-bot/internal/logger"
	appmodels "gitlab.com/yelinaung/famcoin-bot/internal/models"
)

// Callback data prefixes; the purchase id follows.
const (
	callbackApprove = "approve_"
	callbackDeny    = "deny_"
)

// defaultDenyReason is recorded when a parent denies from the inline button.
const defaultDenyReason = "denied from Telegram"

// handleApproveCallback handles the Approve button on a purchase request.
func (b *Bot) handleApproveCallback(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleApproveCallbackCore(ctx, tgBot, update)
}

// handleApproveCallbackCore is the testable implementation of handleApproveCallback.
func (b *Bot) handleApproveCallbackCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	b.resolveFromCallback(ctx, tg, update, callbackApprove, func(purchaseID, by string) (economy.ResolveResult, error) {
		return b.svc.ApprovePurchase(ctx, purchaseID, by)
	})
}

// handleDenyCallback handles the Deny button on a purchase request.
func (b *Bot) handleDenyCallback(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleDenyCallbackCore(ctx, tgBot, update)
}

// handleDenyCallbackCore is the testable implementation of handleDenyCallback.
func (b *Bot) handleDenyCallbackCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	b.resolveFromCallback(ctx, tg, update, callbackDeny, func(purchaseID, by string) (economy.ResolveResult, error) {
		return b.svc.DenyPurchase(ctx, purchaseID, defaultDenyReason, by)
	})
}

// resolveFromCallback checks the sender is a parent, resolves the purchase and
// rewrites the request message so the buttons cannot be pressed again.
func (b *Bot) resolveFromCallback(
	ctx context.Context,
	tg TelegramAPI,
	update *models.Update,
	prefix string,
	resolve func(purchaseID, by string) (economy.ResolveResult, error),
) {
	cq := update.CallbackQuery
	if cq == nil {
		return
	}

	answer := func(text string, alert bool) {
		_, _ = tg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: cq.ID,
			Text:            text,
			ShowAlert:       alert,
		})
	}

	if !b.isParent(update) {
		logger.Log.Warn().Str("user_hash", logger.HashUserID(cq.From.ID)).Msg("Blocked non-parent purchase resolution")
		answer("⛔ Only parents can approve or deny purchases.", true)
		return
	}

	purchaseID := strings.TrimPrefix(cq.Data, prefix)
	if purchaseID == "" {
		answer("❌ Invalid request.", true)
		return
	}

	res, err := resolve(purchaseID, actorName(update))
	if err != nil {
		switch economy.KindOf(err) {
		case economy.KindAlreadyResolved:
			answer("ℹ️ Someone already handled this request.", false)
			if req, getErr := b.svc.Purchase(ctx, purchaseID); getErr == nil {
				b.closeRequestMessage(ctx, tg, cq, fmt.Sprintf("ℹ️ Already %s by %s.", req.Status, escapeHTML(req.ResolvedBy)))
			}
		case economy.KindInsufficientFunds:
			answer("💸 Not enough coins right now. The request stays pending.", true)
		default:
			answer(stripTags(errorReply(err, "resolve the purchase")), true)
		}
		return
	}

	verdict := "✅ Approved"
	if res.Purchase.Status != appmodels.PurchaseStatusApproved {
		verdict = "🚫 Denied"
	}
	answer(verdict, false)
	b.closeRequestMessage(ctx, tg, cq, fmt.Sprintf("%s by %s.", verdict, escapeHTML(res.Purchase.ResolvedBy)))
}

// closeRequestMessage appends an outcome line to the request message and drops its buttons.
func (b *Bot) closeRequestMessage(ctx context.Context, tg TelegramAPI, cq *models.CallbackQuery, outcome string) {
	msg := cq.Message.Message
	if msg == nil {
		return
	}

	text := outcome
	if msg.Text != "" {
		text = escapeHTML(msg.Text) + "\n\n" + outcome
	}
	_, err := tg.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      msg.Chat.ID,
		MessageID:   msg.ID,
		Text:        text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: &models.InlineKeyboardMarkup{InlineKeyboard: [][]models.InlineKeyboardButton{}},
	})
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to update purchase request message")
	}
}

// stripTags removes the simple HTML tags used in replies, for plain-text callback answers.
func stripTags(s string) string {
	r := strings.NewReplacer("<b>", "", "</b>", "", "<code>", "", "</code>", "", "&lt;", "<", "&gt;", ">", "&amp;", "&")
	return r.Replace(s)
}
