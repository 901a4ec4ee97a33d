package economy

import (
	"context"
	"fmt"
	"strings"

	"gitlab.com/yelinaung/famcoin-bot/internal/exchange"
	"gitlab.com/yelinaung/famcoin-bot/internal/models"
)

// Profile is the data required to open an account. Nil fields take defaults.
type Profile struct {
	Name                   string
	Age                    int
	InterestRatePercent    *int64
	TaxRatePercent         *int64
	SpendingLimit          *int64
	RequireApproval        *bool
	AutoApproveUnderAmount *int64
}

// SettingsUpdate changes selected settings. Nil fields are left alone.
type SettingsUpdate struct {
	AutoSplit              map[models.SubAccount]int
	InterestRatePercent    *int64
	TaxRatePercent         *int64
	SpendingLimit          *int64
	ClearSpendingLimit     bool
	RequireApproval        *bool
	AutoApproveUnderAmount *int64
}

// EarnResult is returned by Earn.
type EarnResult struct {
	Transaction     models.Transaction
	Receipt         models.Receipt
	NewTotalBalance int64
	Distribution    map[models.SubAccount]int64
	Net             int64
	Tax             int64
}

// Options configures a Registry.
type Options struct {
	Purchases PurchaseStore
	IDs       IDGenerator
	Clock     Clock
	Converter exchange.FixedRate
}

// Registry is the public operation set of the economy. It composes the
// allocation, ledger, transfer and approval engines and checks account
// invariants after every mutation.
type Registry struct {
	ledger    *Ledger
	transfers *TransferEngine
	approvals *ApprovalWorkflow
	purchases PurchaseStore
	converter exchange.FixedRate
	now       Clock
}

// NewRegistry wires the engines together.
func NewRegistry(opts Options) *Registry {
	if opts.IDs == nil {
		opts.IDs = UUIDGenerator{}
	}
	if opts.Clock == nil {
		opts.Clock = systemClock
	}
	if opts.Purchases == nil {
		opts.Purchases = NewMemoryPurchaseStore()
	}
	if opts.Converter.Rate().IsZero() {
		opts.Converter = exchange.DefaultFixedRate()
	}

	ledger := NewLedger(opts.IDs, opts.Clock)
	return &Registry{
		ledger:    ledger,
		transfers: NewTransferEngine(ledger, opts.Converter),
		approvals: NewApprovalWorkflow(ledger, opts.Purchases, opts.IDs, opts.Clock),
		purchases: opts.Purchases,
		converter: opts.Converter,
		now:       opts.Clock,
	}
}

// Purchases returns the purchase store the registry was built with.
func (r *Registry) Purchases() PurchaseStore {
	return r.purchases
}

// WithPurchases returns a registry that shares this one's ledger, ids and
// clock but reads and resolves purchases through ps, typically a store bound
// to the current unit of work.
func (r *Registry) WithPurchases(ps PurchaseStore) *Registry {
	c := *r
	c.purchases = ps
	c.approvals = NewApprovalWorkflow(r.ledger, ps, r.approvals.ids, r.now)
	return &c
}

// Converter returns the display converter used for withdrawals.
func (r *Registry) Converter() exchange.FixedRate {
	return r.converter
}

// CreateAccount builds a new account for memberID. It does not persist it.
func (r *Registry) CreateAccount(memberID string, p Profile) (*models.Account, error) {
	memberID = strings.TrimSpace(memberID)
	name := strings.TrimSpace(p.Name)
	if memberID == "" {
		return nil, newError(KindInvalidRequest, "member id is required")
	}
	if name == "" {
		return nil, newError(KindInvalidRequest, "name is required")
	}
	if p.Age < 0 || p.Age > 120 {
		return nil, newError(KindInvalidRequest, "age %d is out of range", p.Age)
	}

	mode := models.ModeForAge(p.Age)
	split := models.DefaultSplit(mode)
	balances := make(map[models.SubAccount]int64, len(split))
	for s := range split {
		balances[s] = 0
	}

	settings := models.Settings{
		AutoSplit:              split,
		InterestRatePercent:    valueOr(p.InterestRatePercent, models.DefaultInterestRatePercent),
		TaxRatePercent:         valueOr(p.TaxRatePercent, models.DefaultTaxRatePercent),
		RequireApproval:        valueOr(p.RequireApproval, true),
		AutoApproveUnderAmount: valueOr(p.AutoApproveUnderAmount, models.DefaultAutoApproveUnderAmount),
	}
	if p.SpendingLimit != nil {
		limit := *p.SpendingLimit
		settings.SpendingLimit = &limit
	}
	if err := validateRates(settings); err != nil {
		return nil, err
	}

	now := r.now()
	acc := &models.Account{
		MemberID:   memberID,
		MemberName: name,
		Age:        p.Age,
		Mode:       mode,
		Balances:   balances,
		Settings:   settings,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := CheckInvariants(acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// UpdateSettings applies a settings change after validating it.
func (r *Registry) UpdateSettings(acc *models.Account, u SettingsUpdate) error {
	next := acc.Settings
	if u.AutoSplit != nil {
		if acc.Mode == models.ModeSimple {
			return newError(KindConfigurationError, "simple accounts keep a fixed 100%% spending split")
		}
		if err := validateSplit(acc, u.AutoSplit); err != nil {
			return err
		}
		next.AutoSplit = make(map[models.SubAccount]int, len(acc.Balances))
		for _, s := range acc.SubAccounts() {
			next.AutoSplit[s] = u.AutoSplit[s]
		}
	}
	if u.InterestRatePercent != nil {
		next.InterestRatePercent = *u.InterestRatePercent
	}
	if u.TaxRatePercent != nil {
		next.TaxRatePercent = *u.TaxRatePercent
	}
	if u.ClearSpendingLimit {
		next.SpendingLimit = nil
	} else if u.SpendingLimit != nil {
		limit := *u.SpendingLimit
		next.SpendingLimit = &limit
	}
	if u.RequireApproval != nil {
		next.RequireApproval = *u.RequireApproval
	}
	if u.AutoApproveUnderAmount != nil {
		next.AutoApproveUnderAmount = *u.AutoApproveUnderAmount
	}
	if err := validateRates(next); err != nil {
		return err
	}

	acc.Settings = next
	acc.UpdatedAt = r.now()
	return CheckInvariants(acc)
}

// Earn converts an action (or a custom amount) into coins and splits them.
func (r *Registry) Earn(acc *models.Account, actionID string, customAmount int64, metadata map[string]string) (EarnResult, error) {
	gross, err := ResolveGross(actionID, customAmount)
	if err != nil {
		return EarnResult{}, err
	}
	if err := requireHeadroom(acc, gross); err != nil {
		return EarnResult{}, err
	}
	if err := validateSplit(acc, acc.Settings.AutoSplit); err != nil {
		return EarnResult{}, err
	}

	alloc := Allocate(acc.Settings, acc.SubAccounts(), gross)
	applyAllocation(acc, alloc)
	tx, receipt := r.ledger.Append(acc, earningTransaction(alloc, actionID, metadata))

	if err := CheckInvariants(acc); err != nil {
		return EarnResult{}, err
	}
	return EarnResult{
		Transaction:     tx,
		Receipt:         receipt,
		NewTotalBalance: acc.TotalBalance,
		Distribution:    alloc.Distribution,
		Net:             alloc.Net,
		Tax:             alloc.Tax,
	}, nil
}

// Transfer moves coins between two of the account's sub-accounts.
func (r *Registry) Transfer(acc *models.Account, from, to models.SubAccount, amount int64) (TransferResult, error) {
	res, err := r.transfers.Transfer(acc, from, to, amount)
	if err != nil {
		return TransferResult{}, err
	}
	return res, CheckInvariants(acc)
}

// Withdraw cashes out coins from spending.
func (r *Registry) Withdraw(acc *models.Account, amount int64, meta WithdrawMeta) (WithdrawResult, error) {
	res, err := r.transfers.Withdraw(acc, amount, meta)
	if err != nil {
		return WithdrawResult{}, err
	}
	return res, CheckInvariants(acc)
}

// Deposit credits coins from outside the economy.
func (r *Registry) Deposit(acc *models.Account, amount int64, meta DepositMeta) (DepositResult, error) {
	res, err := r.transfers.Deposit(acc, amount, meta)
	if err != nil {
		return DepositResult{}, err
	}
	return res, CheckInvariants(acc)
}

// ApplyInterest credits interest on savings, or returns ErrNoInterestEarned.
func (r *Registry) ApplyInterest(acc *models.Account) (InterestResult, error) {
	res, err := r.transfers.ApplyInterest(acc)
	if err != nil {
		return InterestResult{}, err
	}
	return res, CheckInvariants(acc)
}

// RequestPurchase starts the approval workflow for a purchase.
func (r *Registry) RequestPurchase(ctx context.Context, acc *models.Account, d PurchaseDetails) (PurchaseResult, error) {
	res, err := r.approvals.RequestPurchase(ctx, acc, d)
	if err != nil {
		return PurchaseResult{}, err
	}
	return res, CheckInvariants(acc)
}

// ApprovePurchase approves a pending purchase of acc's member.
func (r *Registry) ApprovePurchase(ctx context.Context, acc *models.Account, purchaseID, approver string) (ResolveResult, error) {
	res, err := r.approvals.ApprovePurchase(ctx, acc, purchaseID, approver)
	if err != nil {
		return ResolveResult{}, err
	}
	return res, CheckInvariants(acc)
}

// DenyPurchase denies a pending purchase.
func (r *Registry) DenyPurchase(ctx context.Context, purchaseID, reason, deniedBy string) (ResolveResult, error) {
	return r.approvals.DenyPurchase(ctx, purchaseID, reason, deniedBy)
}

// Purchase returns a purchase request in any state.
func (r *Registry) Purchase(ctx context.Context, purchaseID string) (*models.PurchaseRequest, error) {
	return r.purchases.Get(ctx, purchaseID)
}

// PendingPurchases lists pending requests; an empty memberID lists everyone's.
func (r *Registry) PendingPurchases(ctx context.Context, memberID string) ([]models.PurchaseRequest, error) {
	return r.purchases.Pending(ctx, memberID)
}

// CheckInvariants verifies conservation and configuration of an account.
// A failure means an engine bug; callers must not persist the account.
func CheckInvariants(acc *models.Account) error {
	var sum int64
	for s, b := range acc.Balances {
		if b < 0 {
			return fmt.Errorf("%w: %s balance is negative (%d)", ErrInvariantViolation, s, b)
		}
		sum += b
	}
	if sum != acc.TotalBalance {
		return fmt.Errorf("%w: total %d != sum of balances %d", ErrInvariantViolation, acc.TotalBalance, sum)
	}
	if acc.Mode != models.ModeSimple {
		total := 0
		for _, pct := range acc.Settings.AutoSplit {
			total += pct
		}
		if total != 100 {
			return fmt.Errorf("%w: auto split sums to %d", ErrInvariantViolation, total)
		}
	}
	return nil
}

func validateSplit(acc *models.Account, split map[models.SubAccount]int) error {
	total := 0
	for s, pct := range split {
		if !acc.HasSubAccount(s) {
			return newError(KindConfigurationError, "split names unknown sub-account %q", s)
		}
		if pct < 0 {
			return newError(KindConfigurationError, "split for %s is negative", s)
		}
		total += pct
	}
	if total != 100 {
		return newError(KindConfigurationError, "split percentages sum to %d, want 100", total)
	}
	return nil
}

func validateRates(s models.Settings) error {
	if s.InterestRatePercent < 0 || s.InterestRatePercent > 100 {
		return newError(KindInvalidRequest, "interest rate must be between 0 and 100")
	}
	if s.TaxRatePercent < 0 || s.TaxRatePercent > 100 {
		return newError(KindInvalidRequest, "tax rate must be between 0 and 100")
	}
	if s.SpendingLimit != nil && *s.SpendingLimit < 0 {
		return newError(KindInvalidRequest, "spending limit must not be negative")
	}
	if s.AutoApproveUnderAmount < 0 {
		return newError(KindInvalidRequest, "auto-approve threshold must not be negative")
	}
	return nil
}

func valueOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
