package sync

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"routecrm-go/internal/aggregator"
	"routecrm-go/internal/models"
)

// fakeStore is an in-memory Store with transaction rollback semantics:
// InTx snapshots the mutable state and restores it when fn fails.
type fakeStore struct {
	items        map[uint]*models.LinkedItem
	accounts     []models.Account
	transactions []models.Transaction
	tombstones   map[uint]map[string]bool
	rules        []models.CategorizationRule
	nextID       uint

	// failOn makes the named operation return an error, to exercise
	// rollback paths.
	failOn string

	assignCategoryCalls int
}

var errFakeFailure = errors.New("fake store failure")

func newFakeStore() *fakeStore {
	return &fakeStore{
		items:      make(map[uint]*models.LinkedItem),
		tombstones: make(map[uint]map[string]bool),
		nextID:     1,
	}
}

func (f *fakeStore) addItem(item models.LinkedItem) *models.LinkedItem {
	if item.ID == 0 {
		item.ID = f.nextID
		f.nextID++
	}
	f.items[item.ID] = &item
	return &item
}

func (f *fakeStore) addAccount(a models.Account) models.Account {
	if a.ID == 0 {
		a.ID = f.nextID
		f.nextID++
	}
	f.accounts = append(f.accounts, a)
	return a
}

func (f *fakeStore) addTombstone(userID uint, externalID string) {
	if f.tombstones[userID] == nil {
		f.tombstones[userID] = make(map[string]bool)
	}
	f.tombstones[userID][externalID] = true
}

func (f *fakeStore) transactionByExternalID(externalID string) *models.Transaction {
	for i := range f.transactions {
		if f.transactions[i].ExternalID != nil && *f.transactions[i].ExternalID == externalID {
			return &f.transactions[i]
		}
	}
	return nil
}

func (f *fakeStore) snapshot() ([]models.Transaction, map[uint]models.LinkedItem, []models.Account) {
	txns := make([]models.Transaction, len(f.transactions))
	copy(txns, f.transactions)
	items := make(map[uint]models.LinkedItem, len(f.items))
	for id, item := range f.items {
		items[id] = *item
	}
	accounts := make([]models.Account, len(f.accounts))
	copy(accounts, f.accounts)
	return txns, items, accounts
}

func (f *fakeStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	txns, items, accounts := f.snapshot()
	if err := fn(f); err != nil {
		f.transactions = txns
		f.accounts = accounts
		f.items = make(map[uint]*models.LinkedItem, len(items))
		for id := range items {
			item := items[id]
			f.items[id] = &item
		}
		return err
	}
	return nil
}

func (f *fakeStore) ItemForOwner(ctx context.Context, userID, itemID uint) (*models.LinkedItem, error) {
	item, ok := f.items[itemID]
	if !ok || item.UserID != userID {
		return nil, ErrNotFound
	}
	copied := *item
	return &copied, nil
}

func (f *fakeStore) AccountsForItem(ctx context.Context, itemID uint) ([]models.Account, error) {
	var out []models.Account
	for _, a := range f.accounts {
		if a.LinkedItemID != nil && *a.LinkedItemID == itemID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) TombstonedIDs(ctx context.Context, userID uint, externalIDs []string) (map[string]bool, error) {
	found := make(map[string]bool)
	for _, id := range externalIDs {
		if f.tombstones[userID][id] {
			found[id] = true
		}
	}
	return found, nil
}

func (f *fakeStore) InsertTransactions(ctx context.Context, rows []models.Transaction) ([]string, error) {
	if f.failOn == "InsertTransactions" {
		return nil, errFakeFailure
	}
	var inserted []string
	for _, row := range rows {
		if f.transactionByExternalID(*row.ExternalID) != nil {
			continue
		}
		row.ID = f.nextID
		f.nextID++
		f.transactions = append(f.transactions, row)
		inserted = append(inserted, *row.ExternalID)
	}
	return inserted, nil
}

func (f *fakeStore) UpdateTransactionByExternalID(ctx context.Context, userID uint, externalID string, upd TransactionUpdate) (bool, error) {
	if f.failOn == "UpdateTransactionByExternalID" {
		return false, errFakeFailure
	}
	txn := f.transactionByExternalID(externalID)
	if txn == nil || txn.UserID != userID {
		return false, nil
	}
	txn.Date = upd.Date
	txn.Description = upd.Description
	txn.MerchantName = upd.MerchantName
	txn.Amount = upd.Amount
	txn.Direction = upd.Direction
	txn.Pending = upd.Pending
	txn.StatementMonth = upd.StatementMonth
	txn.StatementYear = upd.StatementYear
	return true, nil
}

func (f *fakeStore) DeleteTransactionsByExternalIDs(ctx context.Context, userID uint, externalIDs []string) (int64, error) {
	removed := make(map[string]bool, len(externalIDs))
	for _, id := range externalIDs {
		removed[id] = true
	}
	var kept []models.Transaction
	var count int64
	for _, txn := range f.transactions {
		if txn.UserID == userID && txn.ExternalID != nil && removed[*txn.ExternalID] {
			count++
			continue
		}
		kept = append(kept, txn)
	}
	f.transactions = kept
	return count, nil
}

func (f *fakeStore) AdvanceItemCursor(ctx context.Context, itemID uint, cursor string, at time.Time) error {
	if f.failOn == "AdvanceItemCursor" {
		return errFakeFailure
	}
	item := f.items[itemID]
	item.Cursor = &cursor
	item.Status = models.ItemStatusOK
	item.LastError = ""
	item.LastSyncedAt = &at
	return nil
}

func (f *fakeStore) TouchAccounts(ctx context.Context, itemID uint, at time.Time) error {
	for i := range f.accounts {
		if f.accounts[i].LinkedItemID != nil && *f.accounts[i].LinkedItemID == itemID {
			t := at
			f.accounts[i].LastSyncedAt = &t
		}
	}
	return nil
}

func (f *fakeStore) UpdateAccountBalance(ctx context.Context, accountID uint, balance decimal.Decimal) error {
	if f.failOn == "UpdateAccountBalance" {
		return errFakeFailure
	}
	for i := range f.accounts {
		if f.accounts[i].ID == accountID {
			b := balance
			f.accounts[i].CurrentBalance = &b
		}
	}
	return nil
}

func (f *fakeStore) SetItemStatus(ctx context.Context, itemID uint, status, lastError string) error {
	item, ok := f.items[itemID]
	if !ok {
		return ErrNotFound
	}
	item.Status = status
	item.LastError = lastError
	return nil
}

func (f *fakeStore) RulesForOwner(ctx context.Context, userID uint) ([]models.CategorizationRule, error) {
	var out []models.CategorizationRule
	for _, r := range f.rules {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (f *fakeStore) UncategorizedTransactions(ctx context.Context, userID uint, externalIDs []string) ([]models.Transaction, error) {
	var wanted map[string]bool
	if externalIDs != nil {
		wanted = make(map[string]bool, len(externalIDs))
		for _, id := range externalIDs {
			wanted[id] = true
		}
	}
	var out []models.Transaction
	for _, txn := range f.transactions {
		if txn.UserID != userID || txn.CategoryID != nil {
			continue
		}
		if wanted != nil && (txn.ExternalID == nil || !wanted[*txn.ExternalID]) {
			continue
		}
		out = append(out, txn)
	}
	return out, nil
}

func (f *fakeStore) AssignCategory(ctx context.Context, userID, categoryID uint, transactionIDs []uint) (int64, error) {
	if f.failOn == "AssignCategory" {
		return 0, errFakeFailure
	}
	f.assignCategoryCalls++
	ids := make(map[uint]bool, len(transactionIDs))
	for _, id := range transactionIDs {
		ids[id] = true
	}
	var count int64
	for i := range f.transactions {
		if f.transactions[i].UserID == userID && ids[f.transactions[i].ID] {
			cat := categoryID
			f.transactions[i].CategoryID = &cat
			count++
		}
	}
	return count, nil
}

// fakeClient replays scripted delta pages in order and records the cursors
// it was called with.
type fakeClient struct {
	pages      []*aggregator.DeltaPage
	balances   map[string]decimal.Decimal
	pageErrs   map[int]error // by call index
	balanceErr error

	cursors []string
}

func (f *fakeClient) FetchDeltaPage(ctx context.Context, accessToken, cursor string) (*aggregator.DeltaPage, error) {
	call := len(f.cursors)
	f.cursors = append(f.cursors, cursor)
	if err, ok := f.pageErrs[call]; ok {
		return nil, err
	}
	if call >= len(f.pages) {
		return &aggregator.DeltaPage{NextCursor: cursor, HasMore: false}, nil
	}
	return f.pages[call], nil
}

func (f *fakeClient) FetchBalances(ctx context.Context, accessToken string) (map[string]decimal.Decimal, error) {
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	return f.balances, nil
}

type fakeLimiter struct {
	allowed bool
	resetAt time.Time
}

func (f *fakeLimiter) Check(key string) (bool, time.Time) {
	return f.allowed, f.resetAt
}
