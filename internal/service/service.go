// Package service runs economy operations against persistent stores. Each
// operation locks its member, loads the account, applies the engine change,
// saves, and then publishes an event.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/yelinaung/famcoin-bot/internal/economy"
	"gitlab.com/yelinaung/famcoin-bot/internal/logger"
	"gitlab.com/yelinaung/famcoin-bot/internal/models"
)

const instrumentationName = "gitlab.com/yelinaung/famcoin-bot/internal/service"

// Options configures a Service. Nil stores fall back to memory. Units must
// write through the same stores as Accounts and the registry's purchases;
// when nil a compensating unit over those two is used.
type Options struct {
	Registry *economy.Registry
	Accounts economy.AccountStore
	Units    economy.UnitOfWork
	Claims   InterestClaims
	Notifier Notifier
	Clock    economy.Clock
}

// Service is safe for concurrent use.
type Service struct {
	registry *economy.Registry
	accounts economy.AccountStore
	units    economy.UnitOfWork
	claims   InterestClaims
	notifier Notifier
	now      economy.Clock
	locks    *memberLocks

	tracer trace.Tracer
	ops    metric.Int64Counter
	coins  metric.Int64Counter
}

// New creates a Service using the global OpenTelemetry providers.
func New(opts Options) (*Service, error) {
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return time.Now().UTC() }
	}
	if opts.Registry == nil {
		opts.Registry = economy.NewRegistry(economy.Options{Clock: opts.Clock})
	}
	if opts.Accounts == nil {
		opts.Accounts = economy.NewMemoryAccountStore()
	}
	if opts.Units == nil {
		opts.Units = economy.NewCompensatingUnit(opts.Accounts, opts.Registry.Purchases())
	}
	if opts.Claims == nil {
		opts.Claims = NewMemoryInterestClaims()
	}

	meter := otel.Meter(instrumentationName)
	ops, err := meter.Int64Counter("famcoin.operations",
		metric.WithDescription("Economy operations by outcome"))
	if err != nil {
		return nil, fmt.Errorf("failed to create operations counter: %w", err)
	}
	coins, err := meter.Int64Counter("famcoin.coins",
		metric.WithDescription("Coins moved by committed operations"),
		metric.WithUnit("{coin}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create coins counter: %w", err)
	}

	return &Service{
		registry: opts.Registry,
		accounts: opts.Accounts,
		units:    opts.Units,
		claims:   opts.Claims,
		notifier: opts.Notifier,
		now:      opts.Clock,
		locks:    newMemberLocks(),
		tracer:   otel.Tracer(instrumentationName),
		ops:      ops,
		coins:    coins,
	}, nil
}

// Registry exposes the engine, mainly for its display converter.
func (s *Service) Registry() *economy.Registry {
	return s.registry
}

// SetNotifier replaces the event notifier. Call before serving traffic.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// change is a mutation applied to a loaded account through a registry bound
// to the current unit of work. It returns the event to publish once the
// account is saved, or nil for none.
type change func(reg *economy.Registry, acc *models.Account) (*economy.Event, error)

func (s *Service) begin(ctx context.Context, op, memberID string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "economy."+op, trace.WithAttributes(
		attribute.String("famcoin.operation", op),
		attribute.String("famcoin.member", logger.HashMemberID(memberID)),
	))
}

// finish records the outcome of an operation on its span, counter and log.
func (s *Service) finish(ctx context.Context, span trace.Span, op, memberID string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case economy.IsNoOp(err):
		outcome = "noop"
	case economy.KindOf(err) != "":
		outcome = string(economy.KindOf(err))
	default:
		outcome = "error"
	}
	s.ops.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("outcome", outcome),
	))

	log := logger.Log.With().Str("op", op).Str("member", logger.HashMemberID(memberID)).Str("outcome", outcome).Logger()
	switch outcome {
	case "ok":
		log.Info().Msg("Economy operation committed")
	case "error":
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error().Err(err).Msg("Economy operation failed")
	default:
		log.Debug().Err(err).Msg("Economy operation rejected")
	}
}

// mutate runs fn under the member lock on a freshly loaded account and saves
// the result in the same unit of work. A failed fn or save leaves both the
// account and any purchase request untouched.
func (s *Service) mutate(ctx context.Context, op, memberID string, fn change) (acc *models.Account, err error) {
	ctx, span := s.begin(ctx, op, memberID)
	defer span.End()
	defer func() { s.finish(ctx, span, op, memberID, err) }()

	unlock := s.locks.Lock(memberID)
	defer unlock()

	var ev *economy.Event
	err = s.units.Do(ctx, func(st economy.Stores) error {
		loaded, err := st.Accounts.Get(ctx, memberID)
		if err != nil {
			return err
		}
		e, err := fn(s.registry.WithPurchases(st.Purchases), loaded)
		if err != nil {
			if errors.Is(err, economy.ErrInvariantViolation) {
				logger.Log.Error().Err(err).Str("member", logger.HashMemberID(memberID)).Msg("Refusing to save account")
			}
			return err
		}
		if err := st.Accounts.Save(ctx, loaded); err != nil {
			return fmt.Errorf("failed to save account: %w", err)
		}
		acc, ev = loaded, e
		return nil
	})
	if err != nil {
		return nil, err
	}

	if ev != nil {
		if ev.Amount > 0 {
			s.coins.Add(ctx, ev.Amount, metric.WithAttributes(attribute.String("operation", op)))
		}
		s.publish(ctx, *ev)
	}
	return acc, nil
}

func (s *Service) publish(ctx context.Context, ev economy.Event) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, ev); err != nil {
		logger.Log.Warn().Err(err).Str("event", string(ev.Kind)).Str("member", logger.HashMemberID(ev.MemberID)).Msg("Failed to deliver event")
	}
}

func (s *Service) event(kind economy.EventKind, acc *models.Account, actor string, amount int64) *economy.Event {
	ev := economy.NewEvent(kind, acc, actor, amount, s.now())
	return &ev
}

// CreateAccount opens an account for a new member.
func (s *Service) CreateAccount(ctx context.Context, memberID string, p economy.Profile, actor string) (acc *models.Account, err error) {
	ctx, span := s.begin(ctx, "create_account", memberID)
	defer span.End()
	defer func() { s.finish(ctx, span, "create_account", memberID, err) }()

	unlock := s.locks.Lock(memberID)
	defer unlock()

	err = s.units.Do(ctx, func(st economy.Stores) error {
		if _, err := st.Accounts.Get(ctx, memberID); err == nil {
			return economy.NewError(economy.KindInvalidRequest, "member %q already has an account", memberID)
		} else if !errors.Is(err, economy.ErrNotFound) {
			return err
		}

		created, err := s.registry.CreateAccount(memberID, p)
		if err != nil {
			return err
		}
		if err := st.Accounts.Save(ctx, created); err != nil {
			return fmt.Errorf("failed to save account: %w", err)
		}
		acc = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, *s.event(economy.EventAccountCreated, acc, actor, 0))
	return acc, nil
}

// Account returns the current state of a member's account.
func (s *Service) Account(ctx context.Context, memberID string) (*models.Account, error) {
	return s.accounts.Get(ctx, memberID)
}

// Accounts returns every account ordered by member id.
func (s *Service) Accounts(ctx context.Context) ([]*models.Account, error) {
	return s.accounts.List(ctx)
}

// UpdateSettings changes a member's settings.
func (s *Service) UpdateSettings(ctx context.Context, memberID string, u economy.SettingsUpdate, actor string) (*models.Account, error) {
	return s.mutate(ctx, "update_settings", memberID, func(reg *economy.Registry, acc *models.Account) (*economy.Event, error) {
		if err := reg.UpdateSettings(acc, u); err != nil {
			return nil, err
		}
		return s.event(economy.EventSettingsUpdated, acc, actor, 0), nil
	})
}

// Earn credits an earning to a member.
func (s *Service) Earn(ctx context.Context, memberID, actionID string, customAmount int64, metadata map[string]string, actor string) (economy.EarnResult, error) {
	var res economy.EarnResult
	_, err := s.mutate(ctx, "earn", memberID, func(reg *economy.Registry, acc *models.Account) (*economy.Event, error) {
		var err error
		if res, err = reg.Earn(acc, actionID, customAmount, metadata); err != nil {
			return nil, err
		}
		return s.event(economy.EventEarned, acc, actor, res.Net), nil
	})
	return res, err
}

// Transfer moves coins between a member's sub-accounts.
func (s *Service) Transfer(ctx context.Context, memberID string, from, to models.SubAccount, amount int64) (economy.TransferResult, error) {
	var res economy.TransferResult
	_, err := s.mutate(ctx, "transfer", memberID, func(reg *economy.Registry, acc *models.Account) (*economy.Event, error) {
		var err error
		if res, err = reg.Transfer(acc, from, to, amount); err != nil {
			return nil, err
		}
		return s.event(economy.EventTransferred, acc, memberID, amount), nil
	})
	return res, err
}

// Withdraw cashes out coins from a member's spending.
func (s *Service) Withdraw(ctx context.Context, memberID string, amount int64, meta economy.WithdrawMeta) (economy.WithdrawResult, error) {
	var res economy.WithdrawResult
	_, err := s.mutate(ctx, "withdraw", memberID, func(reg *economy.Registry, acc *models.Account) (*economy.Event, error) {
		var err error
		if res, err = reg.Withdraw(acc, amount, meta); err != nil {
			return nil, err
		}
		return s.event(economy.EventWithdrawn, acc, memberID, amount), nil
	})
	return res, err
}

// Deposit credits coins from outside the economy.
func (s *Service) Deposit(ctx context.Context, memberID string, amount int64, meta economy.DepositMeta) (economy.DepositResult, error) {
	var res economy.DepositResult
	_, err := s.mutate(ctx, "deposit", memberID, func(reg *economy.Registry, acc *models.Account) (*economy.Event, error) {
		var err error
		if res, err = reg.Deposit(acc, amount, meta); err != nil {
			return nil, err
		}
		return s.event(economy.EventDeposited, acc, meta.DepositedBy, amount), nil
	})
	return res, err
}

// ApplyInterest credits interest on a member's savings.
func (s *Service) ApplyInterest(ctx context.Context, memberID string) (economy.InterestResult, error) {
	var res economy.InterestResult
	_, err := s.mutate(ctx, "apply_interest", memberID, func(reg *economy.Registry, acc *models.Account) (*economy.Event, error) {
		var err error
		if res, err = reg.ApplyInterest(acc); err != nil {
			return nil, err
		}
		return s.event(economy.EventInterestApplied, acc, "system", res.InterestEarned), nil
	})
	return res, err
}

// RequestPurchase submits a purchase. Queued requests publish
// purchase_requested so parents can be asked; auto-approved ones publish
// purchase_approved.
func (s *Service) RequestPurchase(ctx context.Context, memberID string, d economy.PurchaseDetails) (economy.PurchaseResult, error) {
	var res economy.PurchaseResult
	_, err := s.mutate(ctx, "request_purchase", memberID, func(reg *economy.Registry, acc *models.Account) (*economy.Event, error) {
		var err error
		if res, err = reg.RequestPurchase(ctx, acc, d); err != nil {
			return nil, err
		}
		if res.NeedsApproval {
			ev := s.event(economy.EventPurchaseRequested, acc, memberID, 0).WithPurchase(res.Purchase)
			return &ev, nil
		}
		ev := s.event(economy.EventPurchaseApproved, acc, models.ApproverAuto, res.Purchase.Amount).WithPurchase(res.Purchase)
		return &ev, nil
	})
	return res, err
}

// ApprovePurchase approves a pending request on behalf of approver.
func (s *Service) ApprovePurchase(ctx context.Context, purchaseID, approver string) (economy.ResolveResult, error) {
	req, err := s.registry.Purchase(ctx, purchaseID)
	if err != nil {
		return economy.ResolveResult{}, err
	}

	var res economy.ResolveResult
	_, err = s.mutate(ctx, "approve_purchase", req.MemberID, func(reg *economy.Registry, acc *models.Account) (*economy.Event, error) {
		var err error
		if res, err = reg.ApprovePurchase(ctx, acc, purchaseID, approver); err != nil {
			return nil, err
		}
		ev := s.event(economy.EventPurchaseApproved, acc, approver, res.Purchase.Amount).WithPurchase(res.Purchase)
		return &ev, nil
	})
	return res, err
}

// DenyPurchase denies a pending request. Balances never change.
func (s *Service) DenyPurchase(ctx context.Context, purchaseID, reason, deniedBy string) (res economy.ResolveResult, err error) {
	req, err := s.registry.Purchase(ctx, purchaseID)
	if err != nil {
		return economy.ResolveResult{}, err
	}

	ctx, span := s.begin(ctx, "deny_purchase", req.MemberID)
	defer span.End()
	defer func() { s.finish(ctx, span, "deny_purchase", req.MemberID, err) }()

	unlock := s.locks.Lock(req.MemberID)
	defer unlock()

	err = s.units.Do(ctx, func(st economy.Stores) error {
		var err error
		res, err = s.registry.WithPurchases(st.Purchases).DenyPurchase(ctx, purchaseID, reason, deniedBy)
		return err
	})
	if err != nil {
		return economy.ResolveResult{}, err
	}

	acc, getErr := s.accounts.Get(ctx, req.MemberID)
	if getErr != nil {
		logger.Log.Warn().Err(getErr).Str("event", string(economy.EventPurchaseDenied)).Str("member", logger.HashMemberID(req.MemberID)).Msg("Failed to deliver event")
		return res, nil
	}
	s.publish(ctx, s.event(economy.EventPurchaseDenied, acc, deniedBy, 0).WithPurchase(res.Purchase))
	return res, nil
}

// Purchase returns a purchase request in any state.
func (s *Service) Purchase(ctx context.Context, purchaseID string) (*models.PurchaseRequest, error) {
	return s.registry.Purchase(ctx, purchaseID)
}

// PendingPurchases lists pending requests; an empty memberID lists all.
func (s *Service) PendingPurchases(ctx context.Context, memberID string) ([]models.PurchaseRequest, error) {
	return s.registry.PendingPurchases(ctx, memberID)
}

// History returns a page of a member's transactions, most recent first.
func (s *Service) History(ctx context.Context, memberID string, offset, limit int) (economy.Page[models.Transaction], error) {
	acc, err := s.accounts.Get(ctx, memberID)
	if err != nil {
		return economy.Page[models.Transaction]{}, err
	}
	return economy.TransactionsPage(acc, offset, limit), nil
}

// Receipts returns a page of a member's receipts, most recent first.
func (s *Service) Receipts(ctx context.Context, memberID string, offset, limit int) (economy.Page[models.Receipt], error) {
	acc, err := s.accounts.Get(ctx, memberID)
	if err != nil {
		return economy.Page[models.Receipt]{}, err
	}
	return economy.ReceiptsPage(acc, offset, limit), nil
}
