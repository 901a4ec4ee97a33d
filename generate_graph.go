//go:build ignore
// +build ignore

package main

import (
	"fmt"
	"os"

	"gitlab.com/yelinaung/famcoin-bot/internal/bot"
	"gitlab.com/yelinaung/famcoin-bot/internal/models"
)

func main() {
	acc := &models.Account{
		MemberID:   "1001",
		MemberName: "Ava",
		Mode:       models.ModeStandard,
		Balances: map[models.SubAccount]int64{
			models.SubAccountSpending:  1250,
			models.SubAccountSavings:   900,
			models.SubAccountInvesting: 300,
			models.SubAccountCharity:   150,
		},
		TotalBalance: 2600,
	}

	chartData, err := bot.GenerateBalanceChart(acc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile("graph.png", chartData, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✓ Created graph.png - Example sub-account breakdown chart")
}
