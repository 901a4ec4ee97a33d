package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gitlab.com/yelinaung/famcoin-bot/internal/economy"
	"gitlab.com/yelinaung/famcoin-bot/internal/exchange"
	"gitlab.com/yelinaung/famcoin-bot/internal/logger"
	"gitlab.com/yelinaung/famcoin-bot/internal/models"
)

var subAccountEmoji = map[models.SubAccount]string{
	models.SubAccountSpending:  "🛍",
	models.SubAccountSavings:   "🏦",
	models.SubAccountInvesting: "📈",
	models.SubAccountCharity:   "💝",
}

// escapeHTML escapes HTML special characters for safe interpolation in Telegram HTML messages.
func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// formatCoins renders units with their display value, e.g. "250 coins ($2.50 USD)".
func formatCoins(ctx context.Context, p *exchange.Presenter, units int64) string {
	return fmt.Sprintf("%d coins (%s)", units, p.Present(ctx, units))
}

// formatBalances renders each sub-account on its own line.
func formatBalances(balances map[models.SubAccount]int64) string {
	var sb strings.Builder
	for _, s := range models.SubAccountOrder {
		amount, ok := balances[s]
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "%s %s: <b>%d</b>\n", subAccountEmoji[s], s, amount)
	}
	return sb.String()
}

// formatAccount renders the /balance view of an account.
func formatAccount(ctx context.Context, p *exchange.Presenter, acc *models.Account) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "💰 <b>%s</b> (%s mode)\n\n", escapeHTML(acc.MemberName), acc.Mode)
	sb.WriteString(formatBalances(acc.Balances))
	fmt.Fprintf(&sb, "\nTotal: <b>%s</b>", formatCoins(ctx, p, acc.TotalBalance))

	if acc.Mode != models.ModeSimple {
		st := acc.Stats
		fmt.Fprintf(&sb, "\n\nEarned %d · Spent %d · Saved %d · Donated %d",
			st.TotalEarned, st.TotalSpent, st.TotalSaved, st.TotalDonated)
		if st.TotalTaxesPaid > 0 {
			fmt.Fprintf(&sb, " · Taxes %d", st.TotalTaxesPaid)
		}
	}
	return sb.String()
}

// formatSplit renders an allocation like "spending 50% · savings 30%".
func formatSplit(split map[models.SubAccount]int) string {
	parts := make([]string, 0, len(split))
	for _, s := range models.SubAccountOrder {
		if pct, ok := split[s]; ok {
			parts = append(parts, fmt.Sprintf("%s %d%%", s, pct))
		}
	}
	return strings.Join(parts, " · ")
}

// formatTransaction renders one ledger line for /history.
func formatTransaction(tx models.Transaction) string {
	when := tx.Timestamp.Format("Jan 2 15:04")
	switch tx.Type {
	case models.TransactionEarning:
		label := tx.Metadata["action"]
		if label == "" {
			label = "earning"
		}
		line := fmt.Sprintf("%s ➕ %d %s", when, tx.NetAmount, escapeHTML(label))
		if tx.TaxAmount > 0 {
			line += fmt.Sprintf(" (tax %d)", tx.TaxAmount)
		}
		return line
	case models.TransactionTransfer:
		return fmt.Sprintf("%s 🔁 %d %s → %s", when, tx.Amount, tx.From, tx.To)
	case models.TransactionPurchase:
		return fmt.Sprintf("%s 🛒 %d %s", when, tx.Amount, escapeHTML(tx.Metadata["item"]))
	case models.TransactionWithdrawal:
		return fmt.Sprintf("%s 💵 %d withdrawn", when, tx.Amount)
	case models.TransactionDeposit:
		return fmt.Sprintf("%s 📥 %d to %s", when, tx.Amount, tx.To)
	case models.TransactionInterest:
		return fmt.Sprintf("%s ✨ %d interest", when, tx.Amount)
	default:
		return fmt.Sprintf("%s %s %d", when, tx.Type, tx.Amount)
	}
}

// errorReply maps an operation error to a user-facing message. Unexpected
// errors are logged and reported generically.
func errorReply(err error, action string) string {
	var e *economy.Error
	if !errors.As(err, &e) {
		logger.Log.Error().Err(err).Str("action", action).Msg("Operation failed")
		return fmt.Sprintf("❌ Failed to %s. Please try again.", action)
	}

	msg := escapeHTML(e.Message)
	if msg == "" {
		msg = strings.ReplaceAll(string(e.Kind), "_", " ")
	}
	switch e.Kind {
	case economy.KindInsufficientFunds:
		return "💸 Not enough coins: " + msg
	case economy.KindNotFound:
		return "🔍 Not found: " + msg
	case economy.KindAlreadyResolved:
		return "ℹ️ Already handled: " + msg
	case economy.KindNoInterestEarned:
		return "ℹ️ No interest this time: " + msg
	case economy.KindConfigurationError:
		return "⚙️ Invalid settings: " + msg
	default:
		return "❌ " + msg
	}
}
