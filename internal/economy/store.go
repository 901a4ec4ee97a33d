package economy

import (
	"context"
	"time"

	"gitlab.com/yelinaung/famcoin-bot/internal/models"
)

// AccountStore persists accounts. Get returns an error of kind NotFound for
// unknown members. Implementations must return copies: mutating a returned
// account must not change stored state until Save.
type AccountStore interface {
	Get(ctx context.Context, memberID string) (*models.Account, error)
	Save(ctx context.Context, account *models.Account) error
	List(ctx context.Context) ([]*models.Account, error)
}

// PurchaseStore is the shared, cross-account collection of purchase requests.
// It must be safe for concurrent use.
type PurchaseStore interface {
	// Add stores a new pending request.
	Add(ctx context.Context, req *models.PurchaseRequest) error
	// Get returns a request in any state, or NotFound.
	Get(ctx context.Context, id string) (*models.PurchaseRequest, error)
	// Resolve moves a pending request to status exactly once. A request that is
	// no longer pending yields AlreadyResolved; an unknown id yields NotFound.
	Resolve(ctx context.Context, id string, res Resolution) (*models.PurchaseRequest, error)
	// Pending lists pending requests, oldest first. An empty memberID lists all members.
	Pending(ctx context.Context, memberID string) ([]models.PurchaseRequest, error)
}

// Resolution describes the terminal transition of a purchase request.
type Resolution struct {
	Status models.PurchaseStatus
	By     string
	Reason string
	At     time.Time
}

// Apply writes the resolution onto req.
func (r Resolution) Apply(req *models.PurchaseRequest) {
	at := r.At
	req.Status = r.Status
	req.ResolvedAt = &at
	req.ResolvedBy = r.By
	if r.Status == models.PurchaseStatusDenied {
		req.DeniedReason = r.Reason
	}
}

// PurchaseRestorer is implemented by purchase stores without transactions. It
// puts a request back to prev, or removes it when prev is nil, so a unit of
// work can undo its purchase writes after the account save fails.
type PurchaseRestorer interface {
	Restore(ctx context.Context, id string, prev *models.PurchaseRequest) error
}

// Stores are the stores an operation reads and writes through.
type Stores struct {
	Accounts  AccountStore
	Purchases PurchaseStore
}

// UnitOfWork runs fn so that its account and purchase writes take effect
// together or not at all.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(Stores) error) error
}
