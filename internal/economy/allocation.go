package economy

import (
	"maps"
	"sort"

	"gitlab.com/yelinaung/famcoin-bot/internal/models"
)

// ActionRates is the fixed reward, in units, for each recognised action.
var ActionRates = map[string]int64{
	"chore_complete": 100,
	"homework_done":  200,
	"reading_30min":  150,
	"task_complete":  250,
	"good_behavior":  50,
	"bonus":          500,
}

// ActionNames returns the recognised action ids in alphabetical order.
func ActionNames() []string {
	names := make([]string, 0, len(ActionRates))
	for name := range ActionRates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveGross picks the gross earning: a positive custom amount wins,
// otherwise the action's rate. Custom amounts are capped at MaxAmount.
func ResolveGross(actionID string, customAmount int64) (int64, error) {
	if customAmount != 0 {
		if err := validateAmount(customAmount); err != nil {
			return 0, err
		}
		return customAmount, nil
	}
	if actionID == "" {
		return 0, newError(KindInvalidRequest, "action or amount is required")
	}
	rate, ok := ActionRates[actionID]
	if !ok {
		return 0, newError(KindInvalidRequest, "unknown action %q", actionID)
	}
	return rate, nil
}

// Allocation is the result of splitting a gross earning.
type Allocation struct {
	Gross        int64
	Tax          int64
	Net          int64
	Distribution map[models.SubAccount]int64
	// Residual is the rounding remainder folded into the first funded sub-account.
	Residual int64
}

// Allocate withholds tax and splits the net across subAccounts in the given order.
//
// tax = floor(gross*taxRate/100), share = floor(net*pct/100). Flooring leaves
// net - Σshares unassigned; that residual is credited to the first sub-account
// with a non-zero percentage so the distribution always sums to net.
func Allocate(settings models.Settings, subAccounts []models.SubAccount, gross int64) Allocation {
	tax := gross * settings.TaxRatePercent / 100
	net := gross - tax

	dist := make(map[models.SubAccount]int64, len(subAccounts))
	var allocated int64
	var first models.SubAccount
	for _, s := range subAccounts {
		pct := int64(settings.AutoSplit[s])
		share := net * pct / 100
		dist[s] = share
		allocated += share
		if first == "" && pct > 0 {
			first = s
		}
	}

	residual := net - allocated
	if residual != 0 && first != "" {
		dist[first] += residual
	}

	return Allocation{
		Gross:        gross,
		Tax:          tax,
		Net:          net,
		Distribution: dist,
		Residual:     residual,
	}
}

// applyAllocation credits an allocation to the account.
func applyAllocation(acc *models.Account, a Allocation) {
	for s, share := range a.Distribution {
		acc.Balances[s] += share
	}
	acc.TotalBalance += a.Net
	acc.Stats.TotalEarned += a.Net
	acc.Stats.TotalTaxesPaid += a.Tax
	acc.Stats.TotalSaved += a.Distribution[models.SubAccountSavings]
	acc.Stats.TotalDonated += a.Distribution[models.SubAccountCharity]
}

func earningTransaction(a Allocation, actionID string, metadata map[string]string) models.Transaction {
	meta := maps.Clone(metadata)
	if meta == nil {
		meta = make(map[string]string)
	}
	if actionID != "" {
		meta["action"] = actionID
	}
	return models.Transaction{
		Type:         models.TransactionEarning,
		Amount:       a.Gross,
		NetAmount:    a.Net,
		TaxAmount:    a.Tax,
		Distribution: maps.Clone(a.Distribution),
		Metadata:     meta,
	}
}
