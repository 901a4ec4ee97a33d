package service

import (
	"context"
	"fmt"
	"time"

	"gitlab.com/yelinaung/famcoin-bot/internal/economy"
	"gitlab.com/yelinaung/famcoin-bot/internal/logger"
)

// InterestRun summarizes one pass of RunInterest.
type InterestRun struct {
	Day      time.Time
	Credited map[string]int64
	NoOp     int
	Skipped  int
	Failed   int
}

// RunInterest applies interest to every account that has not yet been
// processed for day. Claims are taken before applying, so a crash between
// claim and apply skips that member for the day rather than paying twice.
func (s *Service) RunInterest(ctx context.Context, day time.Time) (InterestRun, error) {
	run := InterestRun{Day: day, Credited: make(map[string]int64)}

	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return run, fmt.Errorf("failed to list accounts: %w", err)
	}

	for _, acc := range accounts {
		if err := ctx.Err(); err != nil {
			return run, err
		}

		claimed, err := s.claims.Claim(ctx, acc.MemberID, day)
		if err != nil {
			return run, err
		}
		if !claimed {
			run.Skipped++
			continue
		}

		res, err := s.ApplyInterest(ctx, acc.MemberID)
		switch {
		case economy.IsNoOp(err):
			run.NoOp++
		case err != nil:
			run.Failed++
			logger.Log.Error().Err(err).Str("member", logger.HashMemberID(acc.MemberID)).Msg("Failed to apply interest")
			continue
		default:
			run.Credited[acc.MemberID] = res.InterestEarned
		}

		if err := s.claims.Record(ctx, acc.MemberID, day, res.InterestEarned); err != nil {
			logger.Log.Warn().Err(err).Str("member", logger.HashMemberID(acc.MemberID)).Msg("Failed to record interest run")
		}
	}

	logger.Log.Info().
		Str("day", day.Format(time.DateOnly)).
		Int("credited", len(run.Credited)).
		Int("noop", run.NoOp).
		Int("skipped", run.Skipped).
		Int("failed", run.Failed).
		Msg("Interest run finished")
	return run, nil
}
