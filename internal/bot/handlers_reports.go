package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/famcoin-bot/internal/logger"
)

// handleReceipts handles the /receipts command.
func (b *Bot) handleReceipts(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleReceiptsCore(ctx, tgBot, update)
}

// handleReceiptsCore sends the sender's receipts as a CSV document.
func (b *Bot) handleReceiptsCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	acc, err := b.svc.Account(ctx, memberID(update.Message.From.ID))
	if err != nil {
		reply(ctx, tg, update, errorReply(err, "load your account"))
		return
	}
	if len(acc.Receipts) == 0 {
		reply(ctx, tg, update, "🧾 No receipts yet.")
		return
	}

	data, err := GenerateReceiptsCSV(acc.Receipts, acc.Transactions)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to generate receipts CSV")
		reply(ctx, tg, update, "❌ Failed to generate receipts. Please try again.")
		return
	}

	_, err = tg.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID: update.Message.Chat.ID,
		Document: &models.InputFileUpload{
			Filename: generateReceiptsFilename(acc.MemberName, time.Now()),
			Data:     bytes.NewReader(data),
		},
		Caption:   fmt.Sprintf("🧾 <b>%d receipts</b>\nTotal now: %s", len(acc.Receipts), formatCoins(ctx, b.presenter, acc.TotalBalance)),
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send receipts document")
		reply(ctx, tg, update, "❌ Failed to send receipts. Please try again.")
		return
	}

	logger.Log.Info().
		Str("member", logger.HashMemberID(acc.MemberID)).
		Int("receipt_count", len(acc.Receipts)).
		Msg("Receipts exported")
}

// handleChart handles the /chart command.
func (b *Bot) handleChart(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleChartCore(ctx, tgBot, update)
}

// handleChartCore sends a pie chart of the sender's sub-accounts. Parents may
// name a member.
func (b *Bot) handleChartCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	args := extractCommandArgs(update.Message.Text, "/chart")
	acc, err := b.svc.Account(ctx, memberID(update.Message.From.ID))
	if args != "" && b.isParent(update) {
		acc, err = b.findMember(ctx, args)
	}
	if err != nil {
		reply(ctx, tg, update, errorReply(err, "load the account"))
		return
	}

	chartData, err := GenerateBalanceChart(acc)
	if errors.Is(err, errEmptyChart) {
		reply(ctx, tg, update, "📊 No coins to chart yet.")
		return
	}
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to generate chart")
		reply(ctx, tg, update, "❌ Failed to generate chart. Please try again.")
		return
	}

	_, err = tg.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:    update.Message.Chat.ID,
		Document:  &models.InputFileUpload{Filename: generateChartFilename(acc.MemberName, time.Now()), Data: bytes.NewReader(chartData)},
		Caption:   fmt.Sprintf("📊 <b>%s</b>\n\n%sTotal: %s", escapeHTML(acc.MemberName), formatBalances(acc.Balances), formatCoins(ctx, b.presenter, acc.TotalBalance)),
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send chart document")
		reply(ctx, tg, update, "❌ Failed to send chart. Please try again.")
	}
}
