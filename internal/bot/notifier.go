package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/famcoin-bot/internal/economy"
	"gitlab.com/yelinaung/famcoin-bot/internal/exchange"
	"gitlab.com/yelinaung/famcoin-bot/internal/logger"
	appmodels "gitlab.com/yelinaung/famcoin-bot/internal/models"
)

// Notifier delivers economy events over Telegram: purchase requests go to
// every parent with approve and deny buttons, outcomes go to the member.
type Notifier struct {
	sender    MessageSender
	parents   []int64
	presenter *exchange.Presenter
}

// NewNotifier creates a Notifier. Parents are addressed by user id, which is
// also their private chat id; parents configured only by username cannot be
// messaged first and see requests through /pending instead.
func NewNotifier(sender MessageSender, parentChatIDs []int64, presenter *exchange.Presenter) *Notifier {
	return &Notifier{sender: sender, parents: parentChatIDs, presenter: presenter}
}

// Notify implements service.Notifier.
func (n *Notifier) Notify(ctx context.Context, ev economy.Event) error {
	switch ev.Kind {
	case economy.EventPurchaseRequested:
		if ev.Purchase == nil {
			return nil
		}
		return n.toParents(ctx, formatPurchaseRequest(ctx, n.presenter, ev.MemberName, *ev.Purchase), approvalKeyboard(ev.Purchase.ID))

	case economy.EventPurchaseApproved:
		if ev.Purchase == nil || ev.Purchase.AutoApproved {
			return nil
		}
		return n.toMember(ctx, ev.MemberID, fmt.Sprintf("✅ Your request for <b>%s</b> (%d coins) was approved by %s.\n\nNew total: %s",
			escapeHTML(ev.Purchase.Item), ev.Purchase.Amount, escapeHTML(ev.Actor), formatCoins(ctx, n.presenter, ev.TotalBalance)))

	case economy.EventPurchaseDenied:
		if ev.Purchase == nil {
			return nil
		}
		text := fmt.Sprintf("🚫 Your request for <b>%s</b> was denied by %s.", escapeHTML(ev.Purchase.Item), escapeHTML(ev.Actor))
		if ev.Purchase.DeniedReason != "" {
			text += "\nReason: " + escapeHTML(ev.Purchase.DeniedReason)
		}
		return n.toMember(ctx, ev.MemberID, text)

	case economy.EventEarned:
		if ev.Actor == ev.MemberID {
			return nil
		}
		return n.toMember(ctx, ev.MemberID, fmt.Sprintf("🏅 You earned <b>%d</b> coins!\n\n%sTotal: %s",
			ev.Amount, formatBalances(ev.Balances), formatCoins(ctx, n.presenter, ev.TotalBalance)))

	case economy.EventDeposited:
		return n.toMember(ctx, ev.MemberID, fmt.Sprintf("📥 %s deposited <b>%d</b> coins.\n\nTotal: %s",
			escapeHTML(ev.Actor), ev.Amount, formatCoins(ctx, n.presenter, ev.TotalBalance)))

	case economy.EventInterestApplied:
		return n.toMember(ctx, ev.MemberID, fmt.Sprintf("✨ Your savings earned <b>%d</b> coins of interest.\n\nSavings: %d",
			ev.Amount, ev.Balances[appmodels.SubAccountSavings]))

	case economy.EventAccountCreated:
		return n.toParents(ctx, fmt.Sprintf("👋 <b>%s</b> joined the family bank.", escapeHTML(ev.MemberName)), nil)
	}
	return nil
}

func (n *Notifier) toMember(ctx context.Context, memberID, text string) error {
	chatID, ok := memberChatID(memberID)
	if !ok {
		return nil
	}
	_, err := n.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("failed to notify member: %w", err)
	}
	return nil
}

// toParents messages every parent, continuing past failures.
func (n *Notifier) toParents(ctx context.Context, text string, markup models.ReplyMarkup) error {
	var errs []error
	for _, chatID := range n.parents {
		_, err := n.sender.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      chatID,
			Text:        text,
			ParseMode:   models.ParseModeHTML,
			ReplyMarkup: markup,
		})
		if err != nil {
			logger.Log.Warn().Err(err).Str("user_hash", logger.HashUserID(chatID)).Msg("Failed to notify parent")
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to notify %d parent(s): %w", len(errs), errors.Join(errs...))
	}
	return nil
}

// formatPurchaseRequest renders a pending purchase for a parent.
func formatPurchaseRequest(ctx context.Context, p *exchange.Presenter, memberName string, req appmodels.PurchaseRequest) string {
	text := fmt.Sprintf("🛒 <b>%s</b> wants to buy <b>%s</b>\n\nAmount: %s\nFrom: %s\nRequested: %s",
		escapeHTML(memberName), escapeHTML(req.Item), formatCoins(ctx, p, req.Amount),
		req.FromSubAccount, req.RequestedAt.Format("Jan 2 15:04"))
	if req.Category != "" {
		text += "\nCategory: " + escapeHTML(req.Category)
	}
	return text
}

// approvalKeyboard builds the approve and deny buttons for a purchase.
func approvalKeyboard(purchaseID string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "✅ Approve", CallbackData: callbackApprove + purchaseID},
				{Text: "🚫 Deny", CallbackData: callbackDeny + purchaseID},
			},
		},
	}
}
