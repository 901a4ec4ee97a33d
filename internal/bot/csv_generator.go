package bot

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"gitlab.com/yelinaung/famcoin-bot/internal/models"
)

// receiptsCSVHeader is the header row of the receipts export.
var receiptsCSVHeader = []string{
	"Receipt", "Date", "Transaction", "Type", "Amount",
	"Spending", "Savings", "Investing", "Charity", "Total",
}

// GenerateReceiptsCSV renders receipts in the given order, joined with the
// transactions that produced them. Sub-accounts the member does not hold are
// left blank.
func GenerateReceiptsCSV(receipts []models.Receipt, transactions []models.Transaction) ([]byte, error) {
	byID := make(map[string]models.Transaction, len(transactions))
	for _, tx := range transactions {
		byID[tx.ID] = tx
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(receiptsCSVHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i := range receipts {
		r := receipts[i]
		tx := byID[r.TransactionID]

		row := []string{
			r.ID,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.TransactionID,
			string(tx.Type),
			strconv.FormatInt(tx.Amount, 10),
		}
		for _, s := range models.SubAccountOrder {
			cell := ""
			if amount, ok := r.Balances[s]; ok {
				cell = strconv.FormatInt(amount, 10)
			}
			row = append(row, cell)
		}
		row = append(row, strconv.FormatInt(r.TotalBalance, 10))

		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// generateReceiptsFilename creates a filename like "receipts_ava_2026-10-18.csv".
func generateReceiptsFilename(memberName string, now time.Time) string {
	return fmt.Sprintf("receipts_%s_%s.csv", slug(memberName), now.Format("2006-01-02"))
}

// slug lowercases name and keeps only letters and digits, joined by underscores.
func slug(name string) string {
	out := make([]rune, 0, len(name))
	sep := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
			sep = false
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
			sep = false
		case !sep && len(out) > 0:
			out = append(out, '_')
			sep = true
		}
	}
	for len(out) > 0 && out[len(out)-1] == '_' {
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return "member"
	}
	return string(out)
}
