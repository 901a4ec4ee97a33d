// Package models defines the domain entities for the family coin economy.
package models

import (
	"maps"
	"time"
)

// SubAccount names one balance bucket inside a member account.
type SubAccount string

// Sub-account names.
const (
	SubAccountSpending  SubAccount = "spending"
	SubAccountSavings   SubAccount = "savings"
	SubAccountInvesting SubAccount = "investing"
	SubAccountCharity   SubAccount = "charity"
)

// SubAccountOrder is the stable iteration order used for allocation and display.
var SubAccountOrder = []SubAccount{
	SubAccountSpending,
	SubAccountSavings,
	SubAccountInvesting,
	SubAccountCharity,
}

// ParseSubAccount returns the sub-account with the given name.
func ParseSubAccount(name string) (SubAccount, bool) {
	for _, s := range SubAccountOrder {
		if string(s) == name {
			return s, true
		}
	}
	return "", false
}

// Mode controls how much of the economy a member sees.
type Mode string

// Account modes.
const (
	ModeSimple   Mode = "simple"
	ModeStandard Mode = "standard"
	ModeAdvanced Mode = "advanced"
)

// ModeForAge derives the account mode from the member's age.
func ModeForAge(age int) Mode {
	switch {
	case age >= 13:
		return ModeAdvanced
	case age >= 8:
		return ModeStandard
	default:
		return ModeSimple
	}
}

// Profile defaults.
const (
	DefaultInterestRatePercent    = 5
	DefaultTaxRatePercent         = 0
	DefaultAutoApproveUnderAmount = 500
)

// DefaultSplit returns the auto-split percentages for a mode.
func DefaultSplit(mode Mode) map[SubAccount]int {
	switch mode {
	case ModeSimple:
		return map[SubAccount]int{SubAccountSpending: 100}
	case ModeAdvanced:
		return map[SubAccount]int{
			SubAccountSpending:  40,
			SubAccountSavings:   30,
			SubAccountInvesting: 20,
			SubAccountCharity:   10,
		}
	default:
		return map[SubAccount]int{
			SubAccountSpending:  50,
			SubAccountSavings:   30,
			SubAccountInvesting: 10,
			SubAccountCharity:   10,
		}
	}
}

// Settings holds per-account economy settings.
type Settings struct {
	AutoSplit              map[SubAccount]int `json:"auto_split"`
	InterestRatePercent    int64              `json:"interest_rate_percent"`
	TaxRatePercent         int64              `json:"tax_rate_percent"`
	SpendingLimit          *int64             `json:"spending_limit,omitempty"`
	RequireApproval        bool               `json:"require_approval"`
	AutoApproveUnderAmount int64              `json:"auto_approve_under_amount"`
}

// Stats aggregates lifetime totals for an account.
type Stats struct {
	TotalEarned    int64 `json:"total_earned"`
	TotalSpent     int64 `json:"total_spent"`
	TotalSaved     int64 `json:"total_saved"`
	TotalDonated   int64 `json:"total_donated"`
	TotalTaxesPaid int64 `json:"total_taxes_paid"`
}

// Account is a member's coin account. Amounts are in virtual-currency units.
type Account struct {
	MemberID     string               `json:"member_id"`
	MemberName   string               `json:"member_name"`
	Age          int                  `json:"age"`
	Mode         Mode                 `json:"mode"`
	TotalBalance int64                `json:"total_balance"`
	Balances     map[SubAccount]int64 `json:"balances"`
	Settings     Settings             `json:"settings"`
	Transactions []Transaction        `json:"transactions"`
	Receipts     []Receipt            `json:"receipts"`
	Stats        Stats                `json:"stats"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// SubAccounts returns the account's sub-accounts in stable order.
func (a *Account) SubAccounts() []SubAccount {
	out := make([]SubAccount, 0, len(a.Balances))
	for _, s := range SubAccountOrder {
		if _, ok := a.Balances[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

// HasSubAccount reports whether the account holds the named sub-account.
func (a *Account) HasSubAccount(s SubAccount) bool {
	_, ok := a.Balances[s]
	return ok
}

// BalancesSnapshot returns a copy of the balances map.
func (a *Account) BalancesSnapshot() map[SubAccount]int64 {
	return maps.Clone(a.Balances)
}

// Clone returns a deep copy. Stores hand out clones so a failed operation
// never leaks into stored state.
func (a *Account) Clone() *Account {
	c := *a
	c.Balances = maps.Clone(a.Balances)
	c.Settings.AutoSplit = maps.Clone(a.Settings.AutoSplit)
	if a.Settings.SpendingLimit != nil {
		limit := *a.Settings.SpendingLimit
		c.Settings.SpendingLimit = &limit
	}
	c.Transactions = append([]Transaction(nil), a.Transactions...)
	c.Receipts = append([]Receipt(nil), a.Receipts...)
	return &c
}

// TransactionType identifies what kind of value movement a transaction records.
type TransactionType string

// Transaction types.
const (
	TransactionEarning    TransactionType = "earning"
	TransactionTransfer   TransactionType = "transfer"
	TransactionPurchase   TransactionType = "purchase"
	TransactionWithdrawal TransactionType = "withdrawal"
	TransactionDeposit    TransactionType = "deposit"
	TransactionInterest   TransactionType = "interest"
)

// Transaction is an immutable ledger entry.
type Transaction struct {
	ID           string               `json:"id"`
	Type         TransactionType      `json:"type"`
	Amount       int64                `json:"amount"`
	NetAmount    int64                `json:"net_amount,omitempty"`
	TaxAmount    int64                `json:"tax_amount,omitempty"`
	From         SubAccount           `json:"from,omitempty"`
	To           SubAccount           `json:"to,omitempty"`
	Distribution map[SubAccount]int64 `json:"distribution,omitempty"`
	Metadata     map[string]string    `json:"metadata,omitempty"`
	Timestamp    time.Time            `json:"timestamp"`
}

// Receipt is an immutable snapshot of account state taken at a transaction.
type Receipt struct {
	ID            string               `json:"id"`
	TransactionID string               `json:"transaction_id"`
	Balances      map[SubAccount]int64 `json:"balances"`
	TotalBalance  int64                `json:"total_balance"`
	CreatedAt     time.Time            `json:"created_at"`
}

// PurchaseStatus is the state of a purchase request.
type PurchaseStatus string

// Purchase request states.
const (
	PurchaseStatusPending  PurchaseStatus = "pending"
	PurchaseStatusApproved PurchaseStatus = "approved"
	PurchaseStatusDenied   PurchaseStatus = "denied"
)

// ApproverAuto is the approver identity recorded for auto-approved purchases.
const ApproverAuto = "auto"

// PurchaseRequest is a member's request to spend coins.
type PurchaseRequest struct {
	ID             string         `json:"id"`
	MemberID       string         `json:"member_id"`
	Item           string         `json:"item"`
	Amount         int64          `json:"amount"`
	FromSubAccount SubAccount     `json:"from_sub_account"`
	Category       string         `json:"category,omitempty"`
	Status         PurchaseStatus `json:"status"`
	AutoApproved   bool           `json:"auto_approved"`
	RequestedAt    time.Time      `json:"requested_at"`
	ResolvedAt     *time.Time     `json:"resolved_at,omitempty"`
	ResolvedBy     string         `json:"resolved_by,omitempty"`
	DeniedReason   string         `json:"denied_reason,omitempty"`
}
