package bot

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/famcoin-bot/internal/economy"
	"gitlab.com/yelinaung/famcoin-bot/internal/exchange"
	"gitlab.com/yelinaung/famcoin-bot/internal/models"
)

// MaxAmount caps any amount typed into the bot.
const MaxAmount = economy.MaxAmount

var (
	errEmptyAmount   = errors.New("amount is required")
	errInvalidAmount = errors.New("amount must be a whole number of coins or a money value like $2.50")
	errAmountRange   = fmt.Errorf("amount must be between 1 and %d coins", MaxAmount)
)

// coinsRegex matches "250", "1,000", "250c" and "250 coins".
var coinsRegex = regexp.MustCompile(`^(\d{1,3}(?:,\d{3})+|\d+)\s*(?:c|coins?)?$`)

// moneyRegex matches display money like "$2.50" or "2.50$".
var moneyRegex = regexp.MustCompile(`^\$?(\d+(?:\.\d{1,2})?)\$?$`)

// ParseAmount parses a user-typed amount into coin units. Plain numbers are
// coins; values with a "$" or a decimal point are display money converted at
// the fixed rate, flooring to whole coins.
func ParseAmount(input string, conv exchange.FixedRate) (int64, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return 0, errEmptyAmount
	}

	if m := coinsRegex.FindStringSubmatch(input); m != nil {
		units, err := strconv.ParseInt(strings.ReplaceAll(m[1], ",", ""), 10, 64)
		if err != nil || units <= 0 || units > MaxAmount {
			return 0, errAmountRange
		}
		return units, nil
	}

	m := moneyRegex.FindStringSubmatch(input)
	if m == nil || (!strings.Contains(input, "$") && !strings.Contains(input, ".")) {
		return 0, errInvalidAmount
	}
	money, err := decimal.NewFromString(m[1])
	if err != nil {
		return 0, errInvalidAmount
	}
	if money.GreaterThan(conv.ToDisplay(MaxAmount)) {
		return 0, errAmountRange
	}
	units := conv.FromDisplay(money)
	if units <= 0 || units > MaxAmount {
		return 0, errAmountRange
	}
	return units, nil
}

// extractCommandArgs strips the /command prefix (and optional @botname suffix)
// from a message and returns the remaining trimmed arguments.
func extractCommandArgs(text, command string) string {
	args := strings.TrimSpace(strings.TrimPrefix(text, command))
	if strings.HasPrefix(args, "@") {
		if spaceIdx := strings.Index(args, " "); spaceIdx != -1 {
			args = strings.TrimSpace(args[spaceIdx:])
		} else {
			args = ""
		}
	}
	return args
}

// parseJoinArgs splits "/join" arguments into a name and an age. The age is
// the last word so names may contain spaces.
func parseJoinArgs(args string) (string, int, error) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return "", 0, errors.New("usage: /join <name> <age>")
	}
	age, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil || age < 0 || age > 120 {
		return "", 0, fmt.Errorf("%q is not a valid age", fields[len(fields)-1])
	}
	return strings.Join(fields[:len(fields)-1], " "), age, nil
}

// parseSplit parses "spending=60 savings=40" into an allocation. Omitted
// sub-accounts are left for validation to reject or zero-fill.
func parseSplit(args string) (map[models.SubAccount]int, error) {
	fields := strings.Fields(strings.ReplaceAll(args, ",", " "))
	if len(fields) == 0 {
		return nil, errors.New("usage: /split spending=50 savings=30 investing=10 charity=10")
	}

	split := make(map[models.SubAccount]int, len(fields))
	for _, field := range fields {
		name, value, ok := strings.Cut(field, "=")
		if !ok {
			return nil, fmt.Errorf("%q should look like savings=30", field)
		}
		sub, ok := models.ParseSubAccount(strings.ToLower(name))
		if !ok {
			return nil, fmt.Errorf("unknown sub-account %q", name)
		}
		pct, err := strconv.Atoi(strings.TrimSuffix(value, "%"))
		if err != nil {
			return nil, fmt.Errorf("%q is not a percentage", value)
		}
		split[sub] = pct
	}
	return split, nil
}
