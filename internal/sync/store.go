package sync

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"routecrm-go/internal/models"
)

// ErrNotFound is returned by Store lookups when no row matches. Storage
// implementations translate their own not-found sentinel into this one.
var ErrNotFound = errors.New("not found")

// TransactionUpdate carries the refreshed fields applied to an existing row
// when the provider reports a modification. The account binding is not part
// of it: reassignment semantics for a moved transaction are undefined
// upstream, so the original account is kept.
type TransactionUpdate struct {
	Date           time.Time
	Description    string
	MerchantName   *string
	Amount         decimal.Decimal
	Direction      string
	Pending        bool
	StatementMonth int
	StatementYear  int
}

// Store is the narrow persistence surface the sync engine needs. The real
// implementation wraps gorm/postgres; tests substitute an in-memory fake.
// All write methods called from inside InTx must act on the transaction
// handle the callback receives.
type Store interface {
	// InTx runs fn inside one atomic transaction. fn's Store argument is
	// scoped to that transaction; an error rolls everything back.
	InTx(ctx context.Context, fn func(tx Store) error) error

	// ItemForOwner fetches a LinkedItem only if it belongs to userID.
	// Returns ErrNotFound otherwise, without revealing whether the item
	// exists for someone else.
	ItemForOwner(ctx context.Context, userID, itemID uint) (*models.LinkedItem, error)

	// AccountsForItem lists the accounts bound to a LinkedItem.
	AccountsForItem(ctx context.Context, itemID uint) ([]models.Account, error)

	// TombstonedIDs returns which of externalIDs the owner has deleted.
	// One indexed batch lookup, not a query per row.
	TombstonedIDs(ctx context.Context, userID uint, externalIDs []string) (map[string]bool, error)

	// InsertTransactions bulk-inserts rows, silently skipping any whose
	// external ID already exists. Returns the external IDs of rows that
	// were actually inserted.
	InsertTransactions(ctx context.Context, rows []models.Transaction) ([]string, error)

	// UpdateTransactionByExternalID applies upd to the owner's row with the
	// given external ID. Returns false with no error when no such row
	// exists.
	UpdateTransactionByExternalID(ctx context.Context, userID uint, externalID string, upd TransactionUpdate) (bool, error)

	// DeleteTransactionsByExternalIDs bulk-deletes and reports how many
	// rows went away.
	DeleteTransactionsByExternalIDs(ctx context.Context, userID uint, externalIDs []string) (int64, error)

	// AdvanceItemCursor records a successful sync: new cursor, status ok,
	// cleared error, last-synced timestamp.
	AdvanceItemCursor(ctx context.Context, itemID uint, cursor string, at time.Time) error

	// TouchAccounts stamps last-synced on every account of the item.
	TouchAccounts(ctx context.Context, itemID uint, at time.Time) error

	// UpdateAccountBalance persists a projected balance.
	UpdateAccountBalance(ctx context.Context, accountID uint, balance decimal.Decimal) error

	// SetItemStatus persists a failure state on the LinkedItem.
	SetItemStatus(ctx context.Context, itemID uint, status, lastError string) error

	// RulesForOwner returns the owner's categorization rules in stored
	// order.
	RulesForOwner(ctx context.Context, userID uint) ([]models.CategorizationRule, error)

	// UncategorizedTransactions lists the owner's uncategorized rows. A
	// non-nil externalIDs restricts the result to those external IDs; nil
	// means all uncategorized rows (the sweep mode).
	UncategorizedTransactions(ctx context.Context, userID uint, externalIDs []string) ([]models.Transaction, error)

	// AssignCategory sets the category on a batch of transaction IDs in
	// one statement.
	AssignCategory(ctx context.Context, userID, categoryID uint, transactionIDs []uint) (int64, error)
}
