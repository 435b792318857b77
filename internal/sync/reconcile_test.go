package sync

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routecrm-go/internal/aggregator"
	"routecrm-go/internal/models"
)

// reconcileFixture wires a fake store with one linked item and two bound
// accounts (one checking, one credit).
func reconcileFixture(t *testing.T) (*fakeStore, *models.LinkedItem, []models.Account) {
	t.Helper()
	store := newFakeStore()
	item := store.addItem(models.LinkedItem{UserID: 1, InstitutionName: "First Bank", AccessToken: "tok", Status: models.ItemStatusOK})

	checkingExt := "ext-checking"
	creditExt := "ext-credit"
	checking := store.addAccount(models.Account{
		UserID: 1, Name: "Checking", Type: models.AccountTypeChecking,
		LinkedItemID: &item.ID, ExternalAccountID: &checkingExt,
	})
	credit := store.addAccount(models.Account{
		UserID: 1, Name: "Card", Type: models.AccountTypeCredit,
		LinkedItemID: &item.ID, ExternalAccountID: &creditExt,
	})
	return store, item, []models.Account{checking, credit}
}

func apply(t *testing.T, store *fakeStore, item *models.LinkedItem, accounts []models.Account, delta *Delta, balances map[string]decimal.Decimal) *Result {
	t.Helper()
	result, err := NewReconciler(testLogger()).Apply(context.Background(), store, item, accounts, delta, balances)
	require.NoError(t, err)
	return result
}

func TestReconcileInsertTransformsProviderSign(t *testing.T) {
	store, item, accounts := reconcileFixture(t)

	remote := remoteTxn("T1", "ext-checking", -42.50)
	remote.MerchantName = "Corner Cafe"
	delta := &Delta{Added: []aggregator.RemoteTransaction{remote}, NextCursor: "c1"}

	result := apply(t, store, item, accounts, delta, nil)
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, []string{"T1"}, result.InsertedExternalIDs)

	stored := store.transactionByExternalID("T1")
	require.NotNil(t, stored)
	assert.True(t, stored.Amount.Equal(decimal.NewFromFloat(42.50)), "amount stored as magnitude, got %s", stored.Amount)
	assert.Equal(t, models.DirectionInflow, stored.Direction)
	assert.Equal(t, 8, stored.StatementMonth)
	assert.Equal(t, 2026, stored.StatementYear)
	require.NotNil(t, stored.MerchantName)
	assert.Equal(t, "Corner Cafe", *stored.MerchantName)
	assert.Equal(t, accounts[0].ID, stored.AccountID)
}

func TestReconcilePositiveAmountIsOutflow(t *testing.T) {
	store, item, accounts := reconcileFixture(t)
	delta := &Delta{Added: []aggregator.RemoteTransaction{remoteTxn("T1", "ext-checking", 19.99)}, NextCursor: "c1"}

	apply(t, store, item, accounts, delta, nil)

	stored := store.transactionByExternalID("T1")
	require.NotNil(t, stored)
	assert.Equal(t, models.DirectionOutflow, stored.Direction)
	assert.True(t, stored.Amount.Equal(decimal.NewFromFloat(19.99)))
}

func TestReconcileDropsAdditionsForUnmappedAccounts(t *testing.T) {
	store, item, accounts := reconcileFixture(t)
	delta := &Delta{
		Added: []aggregator.RemoteTransaction{
			remoteTxn("T1", "ext-checking", 10),
			remoteTxn("T2", "ext-unknown", 20),
		},
		NextCursor: "c1",
	}

	result := apply(t, store, item, accounts, delta, nil)
	assert.Equal(t, 1, result.Added)
	assert.Nil(t, store.transactionByExternalID("T2"))
}

func TestReconcileTombstonedAdditionNotResurrected(t *testing.T) {
	store, item, accounts := reconcileFixture(t)
	store.addTombstone(1, "T1")

	delta := &Delta{
		Added: []aggregator.RemoteTransaction{
			remoteTxn("T1", "ext-checking", 10),
			remoteTxn("T2", "ext-checking", 20),
		},
		NextCursor: "c1",
	}

	result := apply(t, store, item, accounts, delta, nil)
	assert.Equal(t, 1, result.Added)
	assert.Nil(t, store.transactionByExternalID("T1"))
	assert.NotNil(t, store.transactionByExternalID("T2"))
}

func TestReconcileDuplicateInsertSkippedSilently(t *testing.T) {
	store, item, accounts := reconcileFixture(t)
	delta := &Delta{Added: []aggregator.RemoteTransaction{remoteTxn("T1", "ext-checking", 10)}, NextCursor: "c1"}

	first := apply(t, store, item, accounts, delta, nil)
	assert.Equal(t, 1, first.Added)

	// The provider re-offers the same addition; it must not error, count,
	// or duplicate.
	delta.NextCursor = "c2"
	second := apply(t, store, item, accounts, delta, nil)
	assert.Equal(t, 0, second.Added)
	assert.Empty(t, second.InsertedExternalIDs)
	assert.Len(t, store.transactions, 1)
}

func TestReconcileIdempotentWithNoNewData(t *testing.T) {
	store, item, accounts := reconcileFixture(t)
	delta := &Delta{Added: []aggregator.RemoteTransaction{remoteTxn("T1", "ext-checking", 10)}, NextCursor: "c1"}
	apply(t, store, item, accounts, delta, nil)

	empty := &Delta{NextCursor: "c1"}
	result := apply(t, store, item, accounts, empty, nil)
	assert.Equal(t, 0, result.Added)
	assert.Equal(t, 0, result.Modified)
	assert.Equal(t, 0, result.Removed)
}

func TestReconcileModificationUpdatesExistingRow(t *testing.T) {
	store, item, accounts := reconcileFixture(t)
	delta := &Delta{Added: []aggregator.RemoteTransaction{remoteTxn("T1", "ext-checking", 10)}, NextCursor: "c1"}
	apply(t, store, item, accounts, delta, nil)

	modified := remoteTxn("T1", "ext-checking", -25)
	modified.Description = "corrected description"
	modDelta := &Delta{Modified: []aggregator.RemoteTransaction{modified}, NextCursor: "c2"}

	result := apply(t, store, item, accounts, modDelta, nil)
	assert.Equal(t, 1, result.Modified)

	stored := store.transactionByExternalID("T1")
	require.NotNil(t, stored)
	assert.Equal(t, "corrected description", stored.Description)
	assert.Equal(t, models.DirectionInflow, stored.Direction)
	assert.True(t, stored.Amount.Equal(decimal.NewFromInt(25)))
}

func TestReconcileModificationMissingRowSkipped(t *testing.T) {
	store, item, accounts := reconcileFixture(t)
	delta := &Delta{Modified: []aggregator.RemoteTransaction{remoteTxn("T-ghost", "ext-checking", 10)}, NextCursor: "c1"}

	result := apply(t, store, item, accounts, delta, nil)
	assert.Equal(t, 0, result.Modified)
}

func TestReconcileModificationOfTombstonedRowSkipped(t *testing.T) {
	store, item, accounts := reconcileFixture(t)
	store.addTombstone(1, "T1")
	delta := &Delta{Modified: []aggregator.RemoteTransaction{remoteTxn("T1", "ext-checking", 10)}, NextCursor: "c1"}

	result := apply(t, store, item, accounts, delta, nil)
	assert.Equal(t, 0, result.Modified)
}

func TestReconcileRemovalsDeleteRows(t *testing.T) {
	store, item, accounts := reconcileFixture(t)
	delta := &Delta{
		Added: []aggregator.RemoteTransaction{
			remoteTxn("T1", "ext-checking", 10),
			remoteTxn("T2", "ext-checking", 20),
		},
		NextCursor: "c1",
	}
	apply(t, store, item, accounts, delta, nil)

	result := apply(t, store, item, accounts, &Delta{RemovedIDs: []string{"T1", "T-ghost"}, NextCursor: "c2"}, nil)
	assert.Equal(t, 1, result.Removed)
	assert.Nil(t, store.transactionByExternalID("T1"))
	assert.NotNil(t, store.transactionByExternalID("T2"))
}

func TestReconcileAdvancesCursorAndTimestamps(t *testing.T) {
	store, item, accounts := reconcileFixture(t)
	before := time.Now().UTC()

	apply(t, store, item, accounts, &Delta{NextCursor: "c9"}, nil)

	stored := store.items[item.ID]
	require.NotNil(t, stored.Cursor)
	assert.Equal(t, "c9", *stored.Cursor)
	assert.Equal(t, models.ItemStatusOK, stored.Status)
	require.NotNil(t, stored.LastSyncedAt)
	assert.False(t, stored.LastSyncedAt.Before(before))

	for _, a := range store.accounts {
		require.NotNil(t, a.LastSyncedAt, "account %s not touched", a.Name)
	}
}

func TestReconcileProjectsBalances(t *testing.T) {
	store, item, accounts := reconcileFixture(t)
	balances := map[string]decimal.Decimal{
		"ext-checking": decimal.NewFromFloat(1500.00),
		"ext-credit":   decimal.NewFromFloat(320.40),
	}

	apply(t, store, item, accounts, &Delta{NextCursor: "c1"}, balances)

	var checking, credit *models.Account
	for i := range store.accounts {
		switch store.accounts[i].Type {
		case models.AccountTypeChecking:
			checking = &store.accounts[i]
		case models.AccountTypeCredit:
			credit = &store.accounts[i]
		}
	}
	require.NotNil(t, checking.CurrentBalance)
	assert.True(t, checking.CurrentBalance.Equal(decimal.NewFromFloat(1500.00)))
	require.NotNil(t, credit.CurrentBalance)
	assert.True(t, credit.CurrentBalance.Equal(decimal.NewFromFloat(-320.40)), "credit stored as liability, got %s", credit.CurrentBalance)
}

func TestReconcileUnreportedBalanceLeftAlone(t *testing.T) {
	store, item, accounts := reconcileFixture(t)
	existing := decimal.NewFromInt(100)
	store.accounts[0].CurrentBalance = &existing

	apply(t, store, item, accounts, &Delta{NextCursor: "c1"}, map[string]decimal.Decimal{})

	require.NotNil(t, store.accounts[0].CurrentBalance)
	assert.True(t, store.accounts[0].CurrentBalance.Equal(decimal.NewFromInt(100)))
}

func TestReconcileFailureRollsBackEverything(t *testing.T) {
	store, item, accounts := reconcileFixture(t)
	stored := "c-before"
	store.items[item.ID].Cursor = &stored
	item.Cursor = &stored
	store.failOn = "AdvanceItemCursor"

	delta := &Delta{Added: []aggregator.RemoteTransaction{remoteTxn("T1", "ext-checking", 10)}, NextCursor: "c-after"}
	_, err := NewReconciler(testLogger()).Apply(context.Background(), store, item, accounts, delta, nil)
	require.Error(t, err)

	// Nothing from the failed attempt sticks: no rows, no cursor advance.
	assert.Nil(t, store.transactionByExternalID("T1"))
	require.NotNil(t, store.items[item.ID].Cursor)
	assert.Equal(t, "c-before", *store.items[item.ID].Cursor)
}
