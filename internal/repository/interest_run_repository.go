package repository

import (
	"context"
	"fmt"
	"time"

	"gitlab.com/yelinaung/famcoin-bot/internal/database"
)

// InterestRunRepository records which members have had interest applied on a
// given local date.
type InterestRunRepository struct {
	db database.PGXDB
}

// NewInterestRunRepository creates a new InterestRunRepository.
func NewInterestRunRepository(db database.PGXDB) *InterestRunRepository {
	return &InterestRunRepository{db: db}
}

// Claim marks memberID as processed for day. It returns false when another
// run already claimed the same member and day.
func (r *InterestRunRepository) Claim(ctx context.Context, memberID string, day time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO interest_runs (member_id, run_date)
		VALUES ($1, $2)
		ON CONFLICT (member_id, run_date) DO NOTHING
	`, memberID, dateOnly(day))
	if err != nil {
		return false, fmt.Errorf("failed to claim interest run: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Record stores the amount credited by a claimed run.
func (r *InterestRunRepository) Record(ctx context.Context, memberID string, day time.Time, amount int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE interest_runs SET amount = $3 WHERE member_id = $1 AND run_date = $2
	`, memberID, dateOnly(day), amount)
	if err != nil {
		return fmt.Errorf("failed to record interest run: %w", err)
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
