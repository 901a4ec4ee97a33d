package bot

import (
	"context"
	"time"

	"gitlab.com/yelinaung/famcoin-bot/internal/logger"
)

const (
	// InterestCheckInterval is how often the interest loop checks whether to run.
	InterestCheckInterval = 30 * time.Minute
	// InterestTimeout is the maximum time a single interest pass can take.
	InterestTimeout = 5 * time.Minute
)

// StartInterestLoop runs daily savings interest at the configured local hour
// until ctx is cancelled. Members are paid at most once per local day even
// across restarts, because the service records each day's claim.
func (b *Bot) StartInterestLoop(ctx context.Context) {
	if !b.cfg.InterestEnabled {
		logger.Log.Info().Msg("Interest loop is disabled")
		return
	}

	loc := b.cfg.Location()
	logger.Log.Info().
		Int("hour", b.cfg.InterestHour).
		Str("timezone", loc.String()).
		Msg("Interest loop started")

	ticker := time.NewTicker(InterestCheckInterval)
	defer ticker.Stop()

	select {
	case <-ctx.Done():
		logger.Log.Info().Msg("Interest loop stopped")
		return
	default:
	}

	// Check once immediately so a start during the interest hour still pays.
	b.checkAndApplyInterest(ctx, time.Now().In(loc))

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info().Msg("Interest loop stopped")
			return
		case <-ticker.C:
			b.checkAndApplyInterest(ctx, time.Now().In(loc))
		}
	}
}

// checkAndApplyInterest runs the interest pass when now falls in the
// configured hour. It reports whether a pass ran.
func (b *Bot) checkAndApplyInterest(ctx context.Context, now time.Time) bool {
	if now.Hour() != b.cfg.InterestHour {
		return false
	}

	runCtx, cancel := context.WithTimeout(ctx, InterestTimeout)
	defer cancel()

	run, err := b.svc.RunInterest(runCtx, now)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Interest run failed")
		return true
	}
	if run.Failed > 0 {
		logger.Log.Warn().Int("failed", run.Failed).Msg("Interest run had failures")
	}
	return true
}
