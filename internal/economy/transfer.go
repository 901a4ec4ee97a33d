package economy

import (
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/famcoin-bot/internal/exchange"
	"gitlab.com/yelinaung/famcoin-bot/internal/models"
)

// TransferResult is returned by a sub-account transfer.
type TransferResult struct {
	Transaction models.Transaction
	Receipt     models.Receipt
	NewBalances map[models.SubAccount]int64
}

// WithdrawMeta describes a cash-out.
type WithdrawMeta struct {
	Method  string
	Purpose string
}

// WithdrawResult is returned by a withdrawal.
type WithdrawResult struct {
	Transaction     models.Transaction
	Receipt         models.Receipt
	DisplayAmount   decimal.Decimal
	DisplayCurrency string
	NewTotalBalance int64
}

// DepositMeta describes an external credit. ToAccount defaults to spending.
type DepositMeta struct {
	ToAccount   models.SubAccount
	Reason      string
	DepositedBy string
}

// DepositResult is returned by a deposit.
type DepositResult struct {
	Transaction     models.Transaction
	Receipt         models.Receipt
	NewTotalBalance int64
}

// InterestResult is returned when interest was credited.
type InterestResult struct {
	InterestEarned    int64
	NewSavingsBalance int64
	Transaction       models.Transaction
	Receipt           models.Receipt
}

// TransferEngine moves value between sub-accounts and across the account boundary.
type TransferEngine struct {
	ledger    *Ledger
	converter exchange.FixedRate
}

// NewTransferEngine creates a TransferEngine.
func NewTransferEngine(ledger *Ledger, converter exchange.FixedRate) *TransferEngine {
	return &TransferEngine{ledger: ledger, converter: converter}
}

// Transfer moves amount from one sub-account to another. The total is unchanged.
func (e *TransferEngine) Transfer(acc *models.Account, from, to models.SubAccount, amount int64) (TransferResult, error) {
	if err := validateAmount(amount); err != nil {
		return TransferResult{}, err
	}
	if from == to {
		return TransferResult{}, newError(KindInvalidRequest, "source and destination must differ")
	}
	if err := requireSubAccount(acc, from); err != nil {
		return TransferResult{}, err
	}
	if err := requireSubAccount(acc, to); err != nil {
		return TransferResult{}, err
	}
	if err := requireFunds(acc, from, amount); err != nil {
		return TransferResult{}, err
	}

	acc.Balances[from] -= amount
	acc.Balances[to] += amount
	switch to {
	case models.SubAccountSavings:
		acc.Stats.TotalSaved += amount
	case models.SubAccountCharity:
		acc.Stats.TotalDonated += amount
	}

	tx, receipt := e.ledger.Append(acc, models.Transaction{
		Type:   models.TransactionTransfer,
		Amount: amount,
		From:   from,
		To:     to,
	})
	return TransferResult{Transaction: tx, Receipt: receipt, NewBalances: acc.BalancesSnapshot()}, nil
}

// Withdraw cashes out amount from the spending sub-account.
func (e *TransferEngine) Withdraw(acc *models.Account, amount int64, meta WithdrawMeta) (WithdrawResult, error) {
	if err := validateAmount(amount); err != nil {
		return WithdrawResult{}, err
	}
	if err := requireFunds(acc, models.SubAccountSpending, amount); err != nil {
		return WithdrawResult{}, err
	}

	acc.Balances[models.SubAccountSpending] -= amount
	acc.TotalBalance -= amount
	acc.Stats.TotalSpent += amount

	display := e.converter.ToDisplay(amount)
	tx, receipt := e.ledger.Append(acc, models.Transaction{
		Type:   models.TransactionWithdrawal,
		Amount: amount,
		From:   models.SubAccountSpending,
		Metadata: compactMetadata(map[string]string{
			"method":         meta.Method,
			"purpose":        meta.Purpose,
			"display_amount": display.StringFixed(2),
			"currency":       e.converter.Currency(),
		}),
	})
	return WithdrawResult{
		Transaction:     tx,
		Receipt:         receipt,
		DisplayAmount:   display,
		DisplayCurrency: e.converter.Currency(),
		NewTotalBalance: acc.TotalBalance,
	}, nil
}

// Deposit credits amount from outside the economy. No sufficiency check applies.
func (e *TransferEngine) Deposit(acc *models.Account, amount int64, meta DepositMeta) (DepositResult, error) {
	if err := validateAmount(amount); err != nil {
		return DepositResult{}, err
	}
	if err := requireHeadroom(acc, amount); err != nil {
		return DepositResult{}, err
	}
	to := meta.ToAccount
	if to == "" {
		to = models.SubAccountSpending
	}
	if err := requireSubAccount(acc, to); err != nil {
		return DepositResult{}, err
	}

	acc.Balances[to] += amount
	acc.TotalBalance += amount

	tx, receipt := e.ledger.Append(acc, models.Transaction{
		Type:   models.TransactionDeposit,
		Amount: amount,
		To:     to,
		Metadata: compactMetadata(map[string]string{
			"reason":       meta.Reason,
			"deposited_by": meta.DepositedBy,
		}),
	})
	return DepositResult{Transaction: tx, Receipt: receipt, NewTotalBalance: acc.TotalBalance}, nil
}

// ApplyInterest credits floor(savings*rate/100) to savings. When that is zero
// it returns ErrNoInterestEarned and changes nothing.
func (e *TransferEngine) ApplyInterest(acc *models.Account) (InterestResult, error) {
	savings, ok := acc.Balances[models.SubAccountSavings]
	if !ok {
		return InterestResult{}, newError(KindNoInterestEarned, "account has no savings")
	}
	earned := savings * acc.Settings.InterestRatePercent / 100
	if earned <= 0 {
		return InterestResult{}, newError(KindNoInterestEarned, "savings too small to earn interest")
	}
	if err := requireHeadroom(acc, earned); err != nil {
		return InterestResult{}, err
	}

	acc.Balances[models.SubAccountSavings] += earned
	acc.TotalBalance += earned
	acc.Stats.TotalEarned += earned

	tx, receipt := e.ledger.Append(acc, models.Transaction{
		Type:   models.TransactionInterest,
		Amount: earned,
		To:     models.SubAccountSavings,
	})
	return InterestResult{
		InterestEarned:    earned,
		NewSavingsBalance: acc.Balances[models.SubAccountSavings],
		Transaction:       tx,
		Receipt:           receipt,
	}, nil
}

func requireSubAccount(acc *models.Account, s models.SubAccount) error {
	if !acc.HasSubAccount(s) {
		return newError(KindInvalidRequest, "account has no %q sub-account", s)
	}
	return nil
}

func requireFunds(acc *models.Account, s models.SubAccount, amount int64) error {
	if err := requireSubAccount(acc, s); err != nil {
		return err
	}
	if acc.Balances[s] < amount {
		return newError(KindInsufficientFunds, "%s has %d, need %d", s, acc.Balances[s], amount)
	}
	return nil
}

func compactMetadata(m map[string]string) map[string]string {
	for k, v := range m {
		if v == "" {
			delete(m, k)
		}
	}
	if len(m) == 0 {
		return nil
	}
	return m
}
