package economy

import "gitlab.com/yelinaung/famcoin-bot/internal/models"

const (
	// MaxAmount is the largest amount one operation accepts.
	MaxAmount int64 = 1_000_000_000
	// MaxBalance caps an account's total. With percentages capped at 100,
	// every rate product stays far inside int64.
	MaxBalance int64 = 1_000_000_000_000_000
)

func validateAmount(amount int64) error {
	if amount <= 0 {
		return newError(KindInvalidRequest, "amount must be positive")
	}
	if amount > MaxAmount {
		return newError(KindInvalidRequest, "amount must not exceed %d", MaxAmount)
	}
	return nil
}

// requireHeadroom rejects credits that would lift the total above MaxBalance.
func requireHeadroom(acc *models.Account, credit int64) error {
	if credit > MaxBalance-acc.TotalBalance {
		return newError(KindInvalidRequest, "balance would exceed %d", MaxBalance)
	}
	return nil
}
