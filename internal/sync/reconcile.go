package sync

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"routecrm-go/internal/aggregator"
	"routecrm-go/internal/models"
)

// Result reports what a sync actually changed. Counts reflect rows touched,
// not rows offered: a duplicate add or a modification with no target row does
// not count.
type Result struct {
	Added    int `json:"added"`
	Modified int `json:"modified"`
	Removed  int `json:"removed"`

	// InsertedExternalIDs identifies the rows step 3 really inserted, for
	// the categorization pass that follows. Not serialized to callers.
	InsertedExternalIDs []string `json:"-"`
}

// Reconciler applies one accumulated Delta to the owner's data inside a
// single atomic transaction.
type Reconciler struct {
	log zerolog.Logger
}

func NewReconciler(log zerolog.Logger) *Reconciler {
	return &Reconciler{log: log}
}

// Apply runs the reconciliation transaction: filter additions against
// tombstones, insert with duplicate-skip, apply modifications and removals,
// advance the cursor and timestamps, project balances. Everything commits
// together or rolls back together; on error the stored cursor is untouched
// and a retry re-fetches the same page range.
func (r *Reconciler) Apply(
	ctx context.Context,
	store Store,
	item *models.LinkedItem,
	accounts []models.Account,
	delta *Delta,
	balances map[string]decimal.Decimal,
) (*Result, error) {
	accountByExternal := make(map[string]models.Account, len(accounts))
	for _, a := range accounts {
		if a.ExternalAccountID != nil {
			accountByExternal[*a.ExternalAccountID] = a
		}
	}

	result := &Result{}
	err := store.InTx(ctx, func(tx Store) error {
		// Step 1: map additions onto internal accounts, translating the
		// provider's sign convention. Additions for accounts we never
		// linked are dropped, not fatal.
		rows := make([]models.Transaction, 0, len(delta.Added))
		unmapped := 0
		for _, remote := range delta.Added {
			account, ok := accountByExternal[remote.ExternalAccountID]
			if !ok {
				unmapped++
				continue
			}
			rows = append(rows, mapRemote(remote, item.UserID, account.ID))
		}
		if unmapped > 0 {
			r.log.Warn().Uint("item_id", item.ID).Int("count", unmapped).
				Msg("dropped additions for unmapped accounts")
		}

		// Step 2: one batch tombstone lookup covering additions and
		// modifications.
		lookupIDs := make([]string, 0, len(rows)+len(delta.Modified))
		for _, row := range rows {
			lookupIDs = append(lookupIDs, *row.ExternalID)
		}
		for _, remote := range delta.Modified {
			lookupIDs = append(lookupIDs, remote.ExternalID)
		}
		tombstoned, err := tx.TombstonedIDs(ctx, item.UserID, lookupIDs)
		if err != nil {
			return err
		}

		surviving := rows[:0]
		for _, row := range rows {
			if !tombstoned[*row.ExternalID] {
				surviving = append(surviving, row)
			}
		}

		// Step 3: bulk insert, skipping external IDs a prior sync already
		// stored.
		inserted, err := tx.InsertTransactions(ctx, surviving)
		if err != nil {
			return err
		}
		result.Added = len(inserted)
		result.InsertedExternalIDs = inserted

		// Step 4: modifications. A missing target row means the row was
		// never synced or was deleted by something other than the
		// tombstone flow; either way, skip silently.
		for _, remote := range delta.Modified {
			if tombstoned[remote.ExternalID] {
				continue
			}
			updated, err := tx.UpdateTransactionByExternalID(ctx, item.UserID, remote.ExternalID, toUpdate(remote))
			if err != nil {
				return err
			}
			if updated {
				result.Modified++
			}
		}

		// Step 5: removals.
		if len(delta.RemovedIDs) > 0 {
			removed, err := tx.DeleteTransactionsByExternalIDs(ctx, item.UserID, delta.RemovedIDs)
			if err != nil {
				return err
			}
			result.Removed = int(removed)
		}

		// Step 6: cursor and timestamps.
		now := time.Now().UTC()
		if err := tx.AdvanceItemCursor(ctx, item.ID, delta.NextCursor, now); err != nil {
			return err
		}
		if err := tx.TouchAccounts(ctx, item.ID, now); err != nil {
			return err
		}

		// Step 7: projected balances for every account the provider
		// reported on.
		for _, account := range accounts {
			if account.ExternalAccountID == nil {
				continue
			}
			raw, ok := balances[*account.ExternalAccountID]
			if !ok {
				continue
			}
			projected := ProjectBalance(account.Type, &raw)
			if err := tx.UpdateAccountBalance(ctx, account.ID, *projected); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// mapRemote converts a provider transaction to a local row. The provider
// reports negative amounts for money in; locally we store the magnitude plus
// a direction.
func mapRemote(remote aggregator.RemoteTransaction, userID, accountID uint) models.Transaction {
	externalID := remote.ExternalID
	txn := models.Transaction{
		UserID:         userID,
		AccountID:      accountID,
		ExternalID:     &externalID,
		Date:           remote.Date,
		Description:    remote.Description,
		Amount:         remote.Amount.Abs(),
		Direction:      directionOf(remote.Amount),
		Pending:        remote.Pending,
		StatementMonth: int(remote.Date.Month()),
		StatementYear:  remote.Date.Year(),
	}
	if remote.MerchantName != "" {
		merchant := remote.MerchantName
		txn.MerchantName = &merchant
	}
	return txn
}

func toUpdate(remote aggregator.RemoteTransaction) TransactionUpdate {
	upd := TransactionUpdate{
		Date:           remote.Date,
		Description:    remote.Description,
		Amount:         remote.Amount.Abs(),
		Direction:      directionOf(remote.Amount),
		Pending:        remote.Pending,
		StatementMonth: int(remote.Date.Month()),
		StatementYear:  remote.Date.Year(),
	}
	if remote.MerchantName != "" {
		merchant := remote.MerchantName
		upd.MerchantName = &merchant
	}
	return upd
}

func directionOf(providerAmount decimal.Decimal) string {
	if providerAmount.IsNegative() {
		return models.DirectionInflow
	}
	return models.DirectionOutflow
}
