package economy

import (
	"context"
	"strings"

	"gitlab.com/yelinaung/famcoin-bot/internal/models"
)

// PurchaseDetails is a member's spending request.
type PurchaseDetails struct {
	Item           string
	Amount         int64
	FromSubAccount models.SubAccount
	Category       string
}

// PurchaseResult is returned by RequestPurchase. Transaction and Receipt are
// set only when the purchase was auto-approved.
type PurchaseResult struct {
	Purchase      models.PurchaseRequest
	NeedsApproval bool
	Transaction   *models.Transaction
	Receipt       *models.Receipt
}

// ResolveResult is returned by ApprovePurchase and DenyPurchase. Denials carry
// no transaction.
type ResolveResult struct {
	Purchase    models.PurchaseRequest
	Transaction *models.Transaction
	Receipt     *models.Receipt
}

// ApprovalWorkflow gates spending behind parent approval.
//
//	request ──auto──────────────▶ approved (AutoApproved)
//	request ──manual─▶ pending ─┬▶ approved
//	                            └▶ denied
type ApprovalWorkflow struct {
	ledger    *Ledger
	purchases PurchaseStore
	ids       IDGenerator
	now       Clock
}

// NewApprovalWorkflow creates the workflow over a shared purchase store.
func NewApprovalWorkflow(ledger *Ledger, purchases PurchaseStore, ids IDGenerator, now Clock) *ApprovalWorkflow {
	if now == nil {
		now = systemClock
	}
	return &ApprovalWorkflow{ledger: ledger, purchases: purchases, ids: ids, now: now}
}

// NeedsApproval decides whether a purchase of amount must wait for a parent.
func NeedsApproval(settings models.Settings, amount int64) bool {
	if settings.SpendingLimit != nil && amount > *settings.SpendingLimit {
		return true
	}
	return settings.RequireApproval && amount > settings.AutoApproveUnderAmount
}

// RequestPurchase validates a purchase and either completes it immediately or
// queues it as pending. Balances are untouched for queued requests.
func (w *ApprovalWorkflow) RequestPurchase(ctx context.Context, acc *models.Account, d PurchaseDetails) (PurchaseResult, error) {
	d.Item = strings.TrimSpace(d.Item)
	if d.Item == "" {
		return PurchaseResult{}, newError(KindInvalidRequest, "item is required")
	}
	if err := validateAmount(d.Amount); err != nil {
		return PurchaseResult{}, err
	}
	if d.FromSubAccount == "" {
		d.FromSubAccount = models.SubAccountSpending
	}
	if err := requireFunds(acc, d.FromSubAccount, d.Amount); err != nil {
		return PurchaseResult{}, err
	}

	req := models.PurchaseRequest{
		ID:             w.ids.NewID(prefixPurchase),
		MemberID:       acc.MemberID,
		Item:           d.Item,
		Amount:         d.Amount,
		FromSubAccount: d.FromSubAccount,
		Category:       d.Category,
		Status:         models.PurchaseStatusPending,
		RequestedAt:    w.now(),
	}

	if NeedsApproval(acc.Settings, d.Amount) {
		if err := w.purchases.Add(ctx, &req); err != nil {
			return PurchaseResult{}, err
		}
		return PurchaseResult{Purchase: req, NeedsApproval: true}, nil
	}

	Resolution{Status: models.PurchaseStatusApproved, By: models.ApproverAuto, At: req.RequestedAt}.Apply(&req)
	req.AutoApproved = true
	tx, receipt := w.execute(acc, req)
	return PurchaseResult{Purchase: req, Transaction: &tx, Receipt: &receipt}, nil
}

// ApprovePurchase resolves a pending request and debits the account. The
// source balance is checked again here because it may have changed since the
// request was queued; an insufficient balance leaves the request pending.
func (w *ApprovalWorkflow) ApprovePurchase(ctx context.Context, acc *models.Account, purchaseID, approver string) (ResolveResult, error) {
	if strings.TrimSpace(approver) == "" {
		return ResolveResult{}, newError(KindInvalidRequest, "approver is required")
	}
	req, err := w.purchases.Get(ctx, purchaseID)
	if err != nil {
		return ResolveResult{}, err
	}
	if req.MemberID != acc.MemberID {
		return ResolveResult{}, newError(KindNotFound, "no purchase request %q for member %q", purchaseID, acc.MemberID)
	}
	if req.Status != models.PurchaseStatusPending {
		return ResolveResult{}, newError(KindAlreadyResolved, "purchase %q is already %s", purchaseID, req.Status)
	}
	if err := requireFunds(acc, req.FromSubAccount, req.Amount); err != nil {
		return ResolveResult{}, err
	}

	resolved, err := w.purchases.Resolve(ctx, purchaseID, Resolution{
		Status: models.PurchaseStatusApproved,
		By:     approver,
		At:     w.now(),
	})
	if err != nil {
		return ResolveResult{}, err
	}

	tx, receipt := w.execute(acc, *resolved)
	return ResolveResult{Purchase: *resolved, Transaction: &tx, Receipt: &receipt}, nil
}

// DenyPurchase resolves a pending request without moving value.
func (w *ApprovalWorkflow) DenyPurchase(ctx context.Context, purchaseID, reason, deniedBy string) (ResolveResult, error) {
	resolved, err := w.purchases.Resolve(ctx, purchaseID, Resolution{
		Status: models.PurchaseStatusDenied,
		By:     deniedBy,
		Reason: strings.TrimSpace(reason),
		At:     w.now(),
	})
	if err != nil {
		return ResolveResult{}, err
	}
	return ResolveResult{Purchase: *resolved}, nil
}

// execute debits an approved purchase and records it.
func (w *ApprovalWorkflow) execute(acc *models.Account, req models.PurchaseRequest) (models.Transaction, models.Receipt) {
	acc.Balances[req.FromSubAccount] -= req.Amount
	acc.TotalBalance -= req.Amount
	acc.Stats.TotalSpent += req.Amount

	return w.ledger.Append(acc, models.Transaction{
		Type:   models.TransactionPurchase,
		Amount: req.Amount,
		From:   req.FromSubAccount,
		Metadata: compactMetadata(map[string]string{
			"purchase_id": req.ID,
			"item":        req.Item,
			"category":    req.Category,
			"approved_by": req.ResolvedBy,
		}),
	})
}
