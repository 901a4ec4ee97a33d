package economy

import (
	"time"

	"gitlab.com/yelinaung/famcoin-bot/internal/models"
)

// EventKind names a state change worth broadcasting.
type EventKind string

// Event kinds.
const (
	EventAccountCreated    EventKind = "account_created"
	EventEarned            EventKind = "earned"
	EventTransferred       EventKind = "transferred"
	EventPurchaseRequested EventKind = "purchase_requested"
	EventPurchaseApproved  EventKind = "purchase_approved"
	EventPurchaseDenied    EventKind = "purchase_denied"
	EventWithdrawn         EventKind = "withdrawn"
	EventDeposited         EventKind = "deposited"
	EventInterestApplied   EventKind = "interest_applied"
	EventSettingsUpdated   EventKind = "settings_updated"
)

// Event is the broadcast payload for a committed operation.
type Event struct {
	Kind         EventKind                   `json:"kind"`
	MemberID     string                      `json:"member_id"`
	MemberName   string                      `json:"member_name"`
	Actor        string                      `json:"actor"`
	Amount       int64                       `json:"amount"`
	Balances     map[models.SubAccount]int64 `json:"balances"`
	TotalBalance int64                       `json:"total_balance"`
	Purchase     *models.PurchaseRequest     `json:"purchase,omitempty"`
	Timestamp    time.Time                   `json:"timestamp"`
}

// NewEvent snapshots acc into an event.
func NewEvent(kind EventKind, acc *models.Account, actor string, amount int64, at time.Time) Event {
	return Event{
		Kind:         kind,
		MemberID:     acc.MemberID,
		MemberName:   acc.MemberName,
		Actor:        actor,
		Amount:       amount,
		Balances:     acc.BalancesSnapshot(),
		TotalBalance: acc.TotalBalance,
		Timestamp:    at,
	}
}

// WithPurchase attaches a purchase request to the event.
func (e Event) WithPurchase(p models.PurchaseRequest) Event {
	e.Purchase = &p
	return e
}
