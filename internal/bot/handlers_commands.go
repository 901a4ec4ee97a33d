package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/famcoin-bot/internal/economy"
	"gitlab.com/yelinaung/famcoin-bot/internal/logger"
	appmodels "gitlab.com/yelinaung/famcoin-bot/internal/models"
)

// historyPageSize is the number of transactions shown per /history page.
const historyPageSize = 10

// handleAward handles the /award command.
func (b *Bot) handleAward(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleAwardCore(ctx, tgBot, update)
}

// handleAwardCore credits an action reward or a custom amount to a member.
// Usage: /award <member> <action|amount> [note]
func (b *Bot) handleAwardCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || !b.requireParent(ctx, tg, update) {
		return
	}

	fields := strings.Fields(extractCommandArgs(update.Message.Text, "/award"))
	if len(fields) < 2 {
		reply(ctx, tg, update, "❌ Usage: <code>/award &lt;member&gt; &lt;action|amount&gt; [note]</code>\n\nSee /actions for the reward table.")
		return
	}

	acc, err := b.findMember(ctx, fields[0])
	if err != nil {
		reply(ctx, tg, update, errorReply(err, "find the member"))
		return
	}

	var actionID string
	var custom int64
	if _, ok := economy.ActionRates[strings.ToLower(fields[1])]; ok {
		actionID = strings.ToLower(fields[1])
	} else if custom, err = ParseAmount(fields[1], b.presenter.Converter()); err != nil {
		reply(ctx, tg, update, "❌ "+escapeHTML(err.Error())+". Use an action from /actions or an amount.")
		return
	}

	metadata := map[string]string{"awarded_by": actorName(update)}
	if note := strings.Join(fields[2:], " "); note != "" {
		metadata["note"] = note
	}

	res, err := b.svc.Earn(ctx, acc.MemberID, actionID, custom, metadata, actorName(update))
	if err != nil {
		reply(ctx, tg, update, errorReply(err, "award coins"))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🏅 Awarded <b>%d</b> coins to %s", res.Net, escapeHTML(acc.MemberName))
	if res.Tax > 0 {
		fmt.Fprintf(&sb, " (%d tax withheld)", res.Tax)
	}
	sb.WriteString("\n\n")
	for _, s := range appmodels.SubAccountOrder {
		if share, ok := res.Distribution[s]; ok && share > 0 {
			fmt.Fprintf(&sb, "%s %s +%d\n", subAccountEmoji[s], s, share)
		}
	}
	fmt.Fprintf(&sb, "\nNew total: %s", formatCoins(ctx, b.presenter, res.NewTotalBalance))
	reply(ctx, tg, update, sb.String())
}

// handleMove handles the /move command.
func (b *Bot) handleMove(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleMoveCore(ctx, tgBot, update)
}

// handleMoveCore transfers between the sender's sub-accounts.
// Usage: /move <amount> <from> <to>
func (b *Bot) handleMoveCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	fields := strings.Fields(strings.ToLower(extractCommandArgs(update.Message.Text, "/move")))
	fields = dropWord(fields, "to")
	if len(fields) != 3 {
		reply(ctx, tg, update, "❌ Usage: <code>/move &lt;amount&gt; &lt;from&gt; &lt;to&gt;</code>\n\nExample: <code>/move 200 spending savings</code>")
		return
	}

	amount, err := ParseAmount(fields[0], b.presenter.Converter())
	if err != nil {
		reply(ctx, tg, update, "❌ "+escapeHTML(err.Error()))
		return
	}

	res, err := b.svc.Transfer(ctx, memberID(update.Message.From.ID),
		appmodels.SubAccount(fields[1]), appmodels.SubAccount(fields[2]), amount)
	if err != nil {
		reply(ctx, tg, update, errorReply(err, "move coins"))
		return
	}

	text := fmt.Sprintf("🔁 Moved <b>%d</b> coins from %s to %s\n\n%s",
		amount, fields[1], fields[2], formatBalances(res.NewBalances))
	reply(ctx, tg, update, text)
}

// dropWord removes filler words such as "to" from command fields.
func dropWord(fields []string, word string) []string {
	out := fields[:0:0]
	for _, f := range fields {
		if f != word {
			out = append(out, f)
		}
	}
	return out
}

// handleBuy handles the /buy command.
func (b *Bot) handleBuy(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleBuyCore(ctx, tgBot, update)
}

// handleBuyCore submits a purchase request for the sender.
// Usage: /buy <amount> [sub-account] <item>
func (b *Bot) handleBuyCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	fields := strings.Fields(extractCommandArgs(update.Message.Text, "/buy"))
	if len(fields) < 2 {
		reply(ctx, tg, update, "❌ Usage: <code>/buy &lt;amount&gt; &lt;item&gt;</code>\n\nExample: <code>/buy 300 comic book</code>")
		return
	}

	amount, err := ParseAmount(fields[0], b.presenter.Converter())
	if err != nil {
		reply(ctx, tg, update, "❌ "+escapeHTML(err.Error()))
		return
	}

	details := economy.PurchaseDetails{Amount: amount}
	rest := fields[1:]
	if sub, ok := appmodels.ParseSubAccount(strings.ToLower(rest[0])); ok && len(rest) > 1 {
		details.FromSubAccount = sub
		rest = rest[1:]
	}
	details.Item = strings.Join(rest, " ")
	if details.FromSubAccount == appmodels.SubAccountCharity {
		details.Category = "donation"
	}

	res, err := b.svc.RequestPurchase(ctx, memberID(update.Message.From.ID), details)
	if err != nil {
		reply(ctx, tg, update, errorReply(err, "request the purchase"))
		return
	}

	logger.Log.Info().
		Str("user_hash", logger.HashUserID(update.Message.From.ID)).
		Str("item", logger.SanitizeText(details.Item)).
		Int64("amount", amount).
		Bool("needs_approval", res.NeedsApproval).
		Msg("Purchase requested")

	if res.NeedsApproval {
		reply(ctx, tg, update, fmt.Sprintf("⏳ <b>%s</b> for %s is waiting for a parent's approval.\n\nRequest: <code>%s</code>",
			escapeHTML(res.Purchase.Item), formatCoins(ctx, b.presenter, amount), res.Purchase.ID))
		return
	}

	reply(ctx, tg, update, fmt.Sprintf("✅ Bought <b>%s</b> for %s from %s.",
		escapeHTML(res.Purchase.Item), formatCoins(ctx, b.presenter, amount), res.Purchase.FromSubAccount))
}

// handlePending handles the /pending command.
func (b *Bot) handlePending(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handlePendingCore(ctx, tgBot, update)
}

// handlePendingCore lists pending purchases. Parents see every request with
// approve and deny buttons; members see their own.
func (b *Bot) handlePendingCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	parent := b.isParent(update)
	filter := memberID(update.Message.From.ID)
	if parent {
		filter = ""
	}

	pending, err := b.svc.PendingPurchases(ctx, filter)
	if err != nil {
		reply(ctx, tg, update, errorReply(err, "list pending purchases"))
		return
	}
	if len(pending) == 0 {
		reply(ctx, tg, update, "✅ Nothing is waiting for approval.")
		return
	}

	if !parent {
		var sb strings.Builder
		sb.WriteString("⏳ <b>Waiting for approval</b>\n\n")
		for _, p := range pending {
			fmt.Fprintf(&sb, "• %s: %d coins (%s)\n", escapeHTML(p.Item), p.Amount, p.RequestedAt.Format("Jan 2"))
		}
		reply(ctx, tg, update, sb.String())
		return
	}

	for _, p := range pending {
		name := p.MemberID
		if acc, err := b.svc.Account(ctx, p.MemberID); err == nil {
			name = acc.MemberName
		}
		_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      update.Message.Chat.ID,
			Text:        formatPurchaseRequest(ctx, b.presenter, name, p),
			ParseMode:   models.ParseModeHTML,
			ReplyMarkup: approvalKeyboard(p.ID),
		})
		if err != nil {
			logger.Log.Error().Err(err).Str("purchase_id", p.ID).Msg("Failed to send pending purchase")
		}
	}
}

// handleWithdraw handles the /withdraw command.
func (b *Bot) handleWithdraw(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleWithdrawCore(ctx, tgBot, update)
}

// handleWithdrawCore cashes out coins from the sender's spending.
// Usage: /withdraw <amount> [purpose]
func (b *Bot) handleWithdrawCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	fields := strings.Fields(extractCommandArgs(update.Message.Text, "/withdraw"))
	if len(fields) == 0 {
		reply(ctx, tg, update, "❌ Usage: <code>/withdraw &lt;amount&gt; [purpose]</code>")
		return
	}

	amount, err := ParseAmount(fields[0], b.presenter.Converter())
	if err != nil {
		reply(ctx, tg, update, "❌ "+escapeHTML(err.Error()))
		return
	}

	res, err := b.svc.Withdraw(ctx, memberID(update.Message.From.ID), amount, economy.WithdrawMeta{
		Method:  "cash",
		Purpose: strings.Join(fields[1:], " "),
	})
	if err != nil {
		reply(ctx, tg, update, errorReply(err, "withdraw"))
		return
	}

	reply(ctx, tg, update, fmt.Sprintf("💵 Withdrew <b>%d</b> coins, worth %s.\n\nRemaining total: %s",
		amount, b.presenter.Present(ctx, amount), formatCoins(ctx, b.presenter, res.NewTotalBalance)))
}

// handleDeposit handles the /deposit command.
func (b *Bot) handleDeposit(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleDepositCore(ctx, tgBot, update)
}

// handleDepositCore credits coins from outside the economy to a member.
// Usage: /deposit <member> <amount> [sub-account] [reason]
func (b *Bot) handleDepositCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || !b.requireParent(ctx, tg, update) {
		return
	}

	fields := strings.Fields(extractCommandArgs(update.Message.Text, "/deposit"))
	if len(fields) < 2 {
		reply(ctx, tg, update, "❌ Usage: <code>/deposit &lt;member&gt; &lt;amount&gt; [sub-account] [reason]</code>")
		return
	}

	acc, err := b.findMember(ctx, fields[0])
	if err != nil {
		reply(ctx, tg, update, errorReply(err, "find the member"))
		return
	}
	amount, err := ParseAmount(fields[1], b.presenter.Converter())
	if err != nil {
		reply(ctx, tg, update, "❌ "+escapeHTML(err.Error()))
		return
	}

	meta := economy.DepositMeta{DepositedBy: actorName(update)}
	rest := fields[2:]
	if len(rest) > 0 {
		if sub, ok := appmodels.ParseSubAccount(strings.ToLower(rest[0])); ok {
			meta.ToAccount = sub
			rest = rest[1:]
		}
	}
	meta.Reason = strings.Join(rest, " ")

	res, err := b.svc.Deposit(ctx, acc.MemberID, amount, meta)
	if err != nil {
		reply(ctx, tg, update, errorReply(err, "deposit"))
		return
	}

	to := meta.ToAccount
	if to == "" {
		to = appmodels.SubAccountSpending
	}
	reply(ctx, tg, update, fmt.Sprintf("📥 Deposited <b>%d</b> coins into %s's %s.\n\nNew total: %s",
		amount, escapeHTML(acc.MemberName), to, formatCoins(ctx, b.presenter, res.NewTotalBalance)))
}

// handleInterest handles the /interest command.
func (b *Bot) handleInterest(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleInterestCore(ctx, tgBot, update)
}

// handleInterestCore runs today's interest pass on demand. Members already
// paid today are skipped, so this never double-pays the scheduled run.
func (b *Bot) handleInterestCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || !b.requireParent(ctx, tg, update) {
		return
	}

	run, err := b.svc.RunInterest(ctx, time.Now().In(b.cfg.Location()))
	if err != nil {
		reply(ctx, tg, update, errorReply(err, "pay interest"))
		return
	}
	reply(ctx, tg, update, formatInterestRun(run.Credited, run.NoOp, run.Skipped, run.Failed))
}

// formatInterestRun summarizes an interest pass.
func formatInterestRun(credited map[string]int64, noop, skipped, failed int) string {
	var total int64
	for _, amount := range credited {
		total += amount
	}
	text := fmt.Sprintf("✨ Interest paid to %d member(s), %d coins in total.", len(credited), total)
	if noop > 0 {
		text += fmt.Sprintf("\n%d had too little saved to earn interest.", noop)
	}
	if skipped > 0 {
		text += fmt.Sprintf("\n%d were already paid today.", skipped)
	}
	if failed > 0 {
		text += fmt.Sprintf("\n⚠️ %d failed, see logs.", failed)
	}
	return text
}

// handleSplit handles the /split command.
func (b *Bot) handleSplit(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleSplitCore(ctx, tgBot, update)
}

// handleSplitCore shows or changes the sender's auto-split.
func (b *Bot) handleSplitCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	id := memberID(update.Message.From.ID)
	args := extractCommandArgs(update.Message.Text, "/split")
	if args == "" {
		acc, err := b.svc.Account(ctx, id)
		if err != nil {
			reply(ctx, tg, update, errorReply(err, "load your account"))
			return
		}
		reply(ctx, tg, update, "📊 Your split: "+formatSplit(acc.Settings.AutoSplit))
		return
	}

	split, err := parseSplit(args)
	if err != nil {
		reply(ctx, tg, update, "❌ "+escapeHTML(err.Error()))
		return
	}

	acc, err := b.svc.UpdateSettings(ctx, id, economy.SettingsUpdate{AutoSplit: split}, actorName(update))
	if err != nil {
		reply(ctx, tg, update, errorReply(err, "update your split"))
		return
	}
	reply(ctx, tg, update, "✅ New split: "+formatSplit(acc.Settings.AutoSplit))
}

// handleHistory handles the /history command.
func (b *Bot) handleHistory(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleHistoryCore(ctx, tgBot, update)
}

// handleHistoryCore shows a page of the sender's transactions, newest first.
// Usage: /history [page]
func (b *Bot) handleHistoryCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	page := 1
	if args := extractCommandArgs(update.Message.Text, "/history"); args != "" {
		n, err := strconv.Atoi(args)
		if err != nil || n < 1 {
			reply(ctx, tg, update, "❌ Usage: <code>/history [page]</code>")
			return
		}
		page = n
	}

	res, err := b.svc.History(ctx, memberID(update.Message.From.ID), (page-1)*historyPageSize, historyPageSize)
	if err != nil {
		reply(ctx, tg, update, errorReply(err, "load your history"))
		return
	}
	if len(res.Items) == 0 {
		reply(ctx, tg, update, "📜 No transactions on this page.")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📜 <b>History</b> (page %d, %d total)\n\n", page, res.Total)
	for _, tx := range res.Items {
		sb.WriteString(formatTransaction(tx))
		sb.WriteString("\n")
	}
	if res.HasMore() {
		fmt.Fprintf(&sb, "\nMore: <code>/history %d</code>", page+1)
	}
	reply(ctx, tg, update, sb.String())
}
