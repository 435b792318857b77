package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"routecrm-go/internal/aggregator"
	"routecrm-go/internal/models"
)

// RateLimiter is the per-owner cooldown collaborator. Syncs hit an expensive
// external API, so callers are throttled before anything is fetched.
type RateLimiter interface {
	Check(key string) (allowed bool, resetAt time.Time)
}

// Syncer is the top-level entry point for one bank sync: authorize, rate
// limit, fetch, reconcile, categorize, classify failures.
type Syncer struct {
	store       Store
	client      aggregator.Client
	limiter     RateLimiter
	reconciler  *Reconciler
	categorizer *Categorizer
	log         zerolog.Logger
}

func NewSyncer(store Store, client aggregator.Client, limiter RateLimiter, log zerolog.Logger) *Syncer {
	return &Syncer{
		store:       store,
		client:      client,
		limiter:     limiter,
		reconciler:  NewReconciler(log),
		categorizer: NewCategorizer(log),
		log:         log,
	}
}

// Sync runs one full synchronization of the item's transactions and
// balances. On failure the returned *Error carries the classification; for
// provider failures the item's status and last error are persisted before
// returning.
func (s *Syncer) Sync(ctx context.Context, userID, itemID uint) (*Result, *Error) {
	item, err := s.store.ItemForOwner(ctx, userID, itemID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Deliberately indistinguishable from a nonexistent item:
			// an item owned by someone else is not revealed.
			return nil, notFoundErr()
		}
		return nil, internalErr("loading linked item", err)
	}

	if allowed, resetAt := s.limiter.Check(fmt.Sprintf("sync:%d", userID)); !allowed {
		return nil, rateLimitedErr(resetAt)
	}

	accounts, err := s.store.AccountsForItem(ctx, itemID)
	if err != nil {
		return nil, internalErr("loading accounts", err)
	}

	// The delta walk and the balance snapshot are independent provider
	// calls; run them concurrently and join before reconciling.
	var (
		delta    *Delta
		balances map[string]decimal.Decimal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		delta, err = FetchDelta(gctx, s.client, item.AccessToken, item.Cursor)
		return err
	})
	g.Go(func() error {
		var err error
		balances, err = s.client.FetchBalances(gctx, item.AccessToken)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.classifyProviderFailure(ctx, item, err)
	}

	result, err := s.reconciler.Apply(ctx, s.store, item, accounts, delta, balances)
	if err != nil {
		// The transaction rolled back: no cursor advance, a retry
		// re-fetches the same range.
		return nil, internalErr("reconciling transactions", err)
	}

	if len(result.InsertedExternalIDs) > 0 {
		if _, err := s.categorizer.Apply(ctx, s.store, userID, result.InsertedExternalIDs); err != nil {
			// The reconciliation already committed; a failed rule pass
			// leaves rows uncategorized, which the sweep endpoint can
			// repair. Do not fail the sync.
			s.log.Error().Err(err).Uint("item_id", itemID).Msg("categorization pass failed")
		}
	}

	s.log.Info().Uint("item_id", itemID).
		Int("added", result.Added).Int("modified", result.Modified).Int("removed", result.Removed).
		Msg("bank sync complete")
	return result, nil
}

// classifyProviderFailure maps a fetch error onto the taxonomy and persists
// the item's failure state. Reconnect-class provider codes become
// LoginRequired; other provider codes become ProviderError; anything else is
// internal and leaves the stored status alone.
func (s *Syncer) classifyProviderFailure(ctx context.Context, item *models.LinkedItem, err error) *Error {
	var pe *aggregator.ProviderError
	if !errors.As(err, &pe) {
		return internalErr("fetching from aggregator", err)
	}

	status := models.ItemStatusError
	kind := KindProvider
	if aggregator.RequiresRelink(pe) {
		status = models.ItemStatusLoginRequired
		kind = KindLoginRequired
	}

	if serr := s.store.SetItemStatus(ctx, item.ID, status, pe.Message); serr != nil {
		s.log.Error().Err(serr).Uint("item_id", item.ID).Msg("persisting item failure state")
	}
	return &Error{Kind: kind, Message: pe.Message, Err: pe}
}

// Sweep applies the owner's rules to every uncategorized transaction. It
// backs the manual "re-run my rules" action and the repair path after a
// failed post-sync categorization.
func (s *Syncer) Sweep(ctx context.Context, userID uint) (int, error) {
	return s.categorizer.Apply(ctx, s.store, userID, nil)
}
