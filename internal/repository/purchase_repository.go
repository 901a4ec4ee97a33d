package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"gitlab.com/yelinaung/famcoin-bot/internal/database"
	"gitlab.com/yelinaung/famcoin-bot/internal/economy"
	"gitlab.com/yelinaung/famcoin-bot/internal/models"
)

var _ economy.PurchaseStore = (*PurchaseRepository)(nil)

const uniqueViolation = "23505"

const purchaseColumns = `id, member_id, item, amount, from_sub_account, category, status,
	auto_approved, requested_at, resolved_at, resolved_by, denied_reason`

// PurchaseRepository handles purchase request database operations.
type PurchaseRepository struct {
	db database.PGXDB
}

// NewPurchaseRepository creates a new PurchaseRepository.
func NewPurchaseRepository(db database.PGXDB) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

// Add inserts a pending request.
func (r *PurchaseRepository) Add(ctx context.Context, req *models.PurchaseRequest) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO purchase_requests (id, member_id, item, amount, from_sub_account, category, status, auto_approved, requested_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, req.ID, req.MemberID, req.Item, req.Amount, string(req.FromSubAccount), req.Category,
		string(req.Status), req.AutoApproved, req.RequestedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return economy.NewError(economy.KindInvalidRequest, "duplicate purchase id %q", req.ID)
		}
		return fmt.Errorf("failed to add purchase request: %w", err)
	}
	return nil
}

// Get retrieves a request in any state.
func (r *PurchaseRepository) Get(ctx context.Context, id string) (*models.PurchaseRequest, error) {
	req, err := scanPurchase(r.db.QueryRow(ctx, `
		SELECT `+purchaseColumns+` FROM purchase_requests WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, economy.NewError(economy.KindNotFound, "no purchase request %q", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase request: %w", err)
	}
	return req, nil
}

// Resolve transitions a pending request. The status guard in the UPDATE makes
// concurrent resolutions race on the row lock; only one of them matches.
func (r *PurchaseRepository) Resolve(ctx context.Context, id string, res economy.Resolution) (*models.PurchaseRequest, error) {
	var reason string
	if res.Status == models.PurchaseStatusDenied {
		reason = res.Reason
	}
	req, err := scanPurchase(r.db.QueryRow(ctx, `
		UPDATE purchase_requests
		SET status = $2, resolved_at = $3, resolved_by = $4, denied_reason = $5
		WHERE id = $1 AND status = 'pending'
		RETURNING `+purchaseColumns, id, string(res.Status), res.At, res.By, reason))
	if errors.Is(err, pgx.ErrNoRows) {
		current, getErr := r.Get(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return nil, economy.NewError(economy.KindAlreadyResolved, "purchase %q is already %s", id, current.Status)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve purchase request: %w", err)
	}
	return req, nil
}

// Pending lists pending requests, oldest first. An empty memberID lists all.
func (r *PurchaseRepository) Pending(ctx context.Context, memberID string) ([]models.PurchaseRequest, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+purchaseColumns+`
		FROM purchase_requests
		WHERE status = 'pending' AND ($1 = '' OR member_id = $1)
		ORDER BY seq
	`, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending purchases: %w", err)
	}
	defer rows.Close()

	var out []models.PurchaseRequest
	for rows.Next() {
		req, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase request: %w", err)
		}
		out = append(out, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate purchase requests: %w", err)
	}
	return out, nil
}

func scanPurchase(row pgx.Row) (*models.PurchaseRequest, error) {
	var (
		req    models.PurchaseRequest
		from   string
		status string
	)
	err := row.Scan(&req.ID, &req.MemberID, &req.Item, &req.Amount, &from, &req.Category, &status,
		&req.AutoApproved, &req.RequestedAt, &req.ResolvedAt, &req.ResolvedBy, &req.DeniedReason)
	if err != nil {
		return nil, err
	}
	req.FromSubAccount = models.SubAccount(from)
	req.Status = models.PurchaseStatus(status)
	return &req, nil
}
