package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/famcoin-bot/internal/economy"
	"gitlab.com/yelinaung/famcoin-bot/internal/logger"
)

// reply sends an HTML message to the chat of update.Message.
func reply(ctx context.Context, tg TelegramAPI, update *models.Update, text string) {
	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    update.Message.Chat.ID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Str("command", commandName(update.Message.Text)).Msg("Failed to send reply")
	}
}

// formatGreeting returns a greeting suffix with the user's name.
func formatGreeting(firstName string) string {
	if firstName == "" {
		return ""
	}
	return ", " + escapeHTML(firstName)
}

// handleStart handles the /start command.
func (b *Bot) handleStart(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleStartCore(ctx, tgBot, update)
}

// handleStartCore is the testable implementation of handleStart.
func (b *Bot) handleStartCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	firstName := ""
	if update.Message.From != nil {
		firstName = update.Message.From.FirstName
	}

	text := fmt.Sprintf(`👋 Welcome%s!

I keep the family's coin accounts. Earn coins for chores, save them, give some away, and ask before spending big.

<b>Quick Start:</b>
• Join with <code>/join Ava 10</code>
• Check your coins with /balance
• Ask to buy something with <code>/buy 300 comic book</code>

Use /help to see all available commands.`,
		formatGreeting(firstName))

	if b.isParent(update) {
		text += "\n\n👪 You are set up as a parent: you can award, deposit and approve purchases."
	}

	reply(ctx, tg, update, text)
}

// handleHelp handles the /help command.
func (b *Bot) handleHelp(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleHelpCore(ctx, tgBot, update)
}

// handleHelpCore is the testable implementation of handleHelp.
func (b *Bot) handleHelpCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	text := `📚 <b>Available Commands</b>

<b>Your account:</b>
• <code>/join &lt;name&gt; &lt;age&gt;</code> - Open your account
• <code>/balance</code> - Show your sub-accounts
• <code>/history [page]</code> - Recent transactions
• <code>/receipts</code> - Download receipts as CSV
• <code>/chart</code> - Pie chart of your sub-accounts

<b>Moving coins:</b>
• <code>/move &lt;amount&gt; &lt;from&gt; &lt;to&gt;</code> - Move between sub-accounts
• <code>/buy &lt;amount&gt; &lt;item&gt;</code> - Buy from spending
• <code>/buy &lt;amount&gt; charity &lt;cause&gt;</code> - Donate from charity
• <code>/withdraw &lt;amount&gt; [purpose]</code> - Cash out from spending
• <code>/pending</code> - Purchases waiting for a parent
• <code>/split spending=50 savings=30 investing=10 charity=10</code> - Change your split

<b>Parents:</b>
• <code>/family</code> - Everyone's balances
• <code>/actions</code> - Reward table
• <code>/award &lt;member&gt; &lt;action|amount&gt; [note]</code> - Award coins
• <code>/deposit &lt;member&gt; &lt;amount&gt; [sub-account] [reason]</code> - Add coins
• <code>/interest</code> - Pay today's savings interest now

Amounts are coins (<code>250</code>) or money (<code>$2.50</code>).`

	reply(ctx, tg, update, text)
}

// handleJoin handles the /join command.
func (b *Bot) handleJoin(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleJoinCore(ctx, tgBot, update)
}

// handleJoinCore opens an account for the sender.
func (b *Bot) handleJoinCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	name, age, err := parseJoinArgs(extractCommandArgs(update.Message.Text, "/join"))
	if err != nil {
		reply(ctx, tg, update, "❌ "+escapeHTML(err.Error())+"\n\nExample: <code>/join Ava 10</code>")
		return
	}

	acc, err := b.svc.CreateAccount(ctx, memberID(update.Message.From.ID), economy.Profile{Name: name, Age: age}, actorName(update))
	if err != nil {
		reply(ctx, tg, update, errorReply(err, "open your account"))
		return
	}

	text := fmt.Sprintf("🎉 Welcome to the family bank, <b>%s</b>!\n\nMode: %s\nSplit: %s\nInterest on savings: %d%% per run",
		escapeHTML(acc.MemberName), acc.Mode, formatSplit(acc.Settings.AutoSplit), acc.Settings.InterestRatePercent)
	reply(ctx, tg, update, text)
}

// handleBalance handles the /balance command.
func (b *Bot) handleBalance(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleBalanceCore(ctx, tgBot, update)
}

// handleBalanceCore shows the sender's account, or a named member's for parents.
func (b *Bot) handleBalanceCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	args := extractCommandArgs(update.Message.Text, "/balance")
	acc, err := b.svc.Account(ctx, memberID(update.Message.From.ID))
	if args != "" && b.isParent(update) {
		acc, err = b.findMember(ctx, args)
	}
	if err != nil {
		if economy.KindOf(err) == economy.KindNotFound && args == "" {
			reply(ctx, tg, update, "You don't have an account yet. Use <code>/join &lt;name&gt; &lt;age&gt;</code>.")
			return
		}
		reply(ctx, tg, update, errorReply(err, "load the account"))
		return
	}

	reply(ctx, tg, update, formatAccount(ctx, b.presenter, acc))
}

// handleFamily handles the /family command.
func (b *Bot) handleFamily(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleFamilyCore(ctx, tgBot, update)
}

// handleFamilyCore lists every member's total for parents.
func (b *Bot) handleFamilyCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	if !b.requireParent(ctx, tg, update) {
		return
	}

	accounts, err := b.svc.Accounts(ctx)
	if err != nil {
		reply(ctx, tg, update, errorReply(err, "list accounts"))
		return
	}
	if len(accounts) == 0 {
		reply(ctx, tg, update, "👪 Nobody has joined yet.")
		return
	}

	var sb strings.Builder
	sb.WriteString("👪 <b>Family accounts</b>\n\n")
	for _, acc := range accounts {
		fmt.Fprintf(&sb, "• <b>%s</b> (%d, %s): %s\n",
			escapeHTML(acc.MemberName), acc.Age, acc.Mode, formatCoins(ctx, b.presenter, acc.TotalBalance))
	}
	reply(ctx, tg, update, sb.String())
}

// handleActions handles the /actions command.
func (b *Bot) handleActions(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleActionsCore(ctx, tgBot, update)
}

// handleActionsCore lists the reward table.
func (b *Bot) handleActionsCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString("🏅 <b>Rewards</b>\n\n")
	for _, name := range economy.ActionNames() {
		fmt.Fprintf(&sb, "• <code>%s</code>: %d coins\n", name, economy.ActionRates[name])
	}
	reply(ctx, tg, update, sb.String())
}

// requireParent replies with a refusal and returns false unless the sender is a parent.
func (b *Bot) requireParent(ctx context.Context, tg TelegramAPI, update *models.Update) bool {
	if b.isParent(update) {
		return true
	}
	logger.Log.Warn().
		Str("user_hash", logger.HashUserID(extractUserID(update))).
		Str("command", commandName(update.Message.Text)).
		Msg("Blocked non-parent command")
	reply(ctx, tg, update, "⛔ Only parents can do that.")
	return false
}
