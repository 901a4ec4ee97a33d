package bot

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-analyze/charts"
	"gitlab.com/yelinaung/famcoin-bot/internal/models"
)

var errEmptyChart = errors.New("no coins to chart")

// GenerateBalanceChart creates a pie chart of an account's sub-account balances.
// Returns PNG image as bytes.
func GenerateBalanceChart(acc *models.Account) ([]byte, error) {
	var values []float64
	var names []string
	for _, s := range acc.SubAccounts() {
		if amount := acc.Balances[s]; amount > 0 {
			names = append(names, string(s))
			values = append(values, float64(amount))
		}
	}
	if len(values) == 0 {
		return nil, errEmptyChart
	}

	p, err := charts.PieRender(
		values,
		charts.TitleOptionFunc(charts.TitleOption{
			Text: fmt.Sprintf("%s's coins (%d total)", acc.MemberName, acc.TotalBalance),
		}),
		charts.LegendLabelsOptionFunc(names),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	return buf, nil
}

// generateChartFilename creates a filename like "coins_ava_2026-10-18.png".
func generateChartFilename(memberName string, now time.Time) string {
	return fmt.Sprintf("coins_%s_%s.png", slug(memberName), now.Format("2006-01-02"))
}
