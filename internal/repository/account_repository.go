// Package repository implements the economy stores on PostgreSQL.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/famcoin-bot/internal/database"
	"gitlab.com/yelinaung/famcoin-bot/internal/economy"
	"gitlab.com/yelinaung/famcoin-bot/internal/models"
)

var _ economy.AccountStore = (*AccountRepository)(nil)

// AccountRepository stores each account as one JSONB document. Balances,
// settings, transactions and receipts always change together, so the whole
// aggregate is written in one statement.
type AccountRepository struct {
	db database.PGXDB
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db database.PGXDB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Get loads an account by member id.
func (r *AccountRepository) Get(ctx context.Context, memberID string) (*models.Account, error) {
	var doc []byte
	err := r.db.QueryRow(ctx, `
		SELECT document FROM accounts WHERE member_id = $1
	`, memberID).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, economy.NewError(economy.KindNotFound, "no account for member %q", memberID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return decodeAccount(doc)
}

// Save upserts the account document.
func (r *AccountRepository) Save(ctx context.Context, account *models.Account) error {
	doc, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to encode account: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO accounts (member_id, member_name, total_balance, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (member_id) DO UPDATE SET
			member_name = EXCLUDED.member_name,
			total_balance = EXCLUDED.total_balance,
			document = EXCLUDED.document,
			updated_at = EXCLUDED.updated_at
	`, account.MemberID, account.MemberName, account.TotalBalance, doc, account.CreatedAt, account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

// List returns all accounts ordered by member id.
func (r *AccountRepository) List(ctx context.Context) ([]*models.Account, error) {
	rows, err := r.db.Query(ctx, `SELECT document FROM accounts ORDER BY member_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		acc, err := decodeAccount(doc)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}
	return accounts, nil
}

func decodeAccount(doc []byte) (*models.Account, error) {
	var acc models.Account
	if err := json.Unmarshal(doc, &acc); err != nil {
		return nil, fmt.Errorf("failed to decode account: %w", err)
	}
	if acc.Balances == nil {
		acc.Balances = make(map[models.SubAccount]int64)
	}
	return &acc, nil
}
