// Package aggregator talks to the external financial-data provider. Only the
// two calls the sync engine needs are modeled: the cursor-paginated
// transaction delta feed and the account balance snapshot.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RemoteTransaction is one transaction as reported by the provider. Amount
// uses the provider's sign convention: negative = money in, positive =
// money out.
type RemoteTransaction struct {
	ExternalID        string
	ExternalAccountID string
	Date              time.Time
	Amount            decimal.Decimal
	Description       string
	MerchantName      string
	Pending           bool
}

// DeltaPage is one page of the provider's change feed.
type DeltaPage struct {
	Added      []RemoteTransaction
	Modified   []RemoteTransaction
	RemovedIDs []string
	NextCursor string
	HasMore    bool
}

// Client is the provider surface consumed by the sync engine. Implementations
// must be safe for concurrent use; the delta walk and the balance fetch run
// in parallel.
type Client interface {
	// FetchDeltaPage returns one page of changes. An empty cursor requests
	// the start of full history.
	FetchDeltaPage(ctx context.Context, accessToken, cursor string) (*DeltaPage, error)
	// FetchBalances returns current balances keyed by external account ID.
	FetchBalances(ctx context.Context, accessToken string) (map[string]decimal.Decimal, error)
}

// ProviderError is a structured failure reported by the provider. Code is
// matched against the reconnect set to decide whether the item needs a
// re-link or the caller can simply retry later.
type ProviderError struct {
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %s: %s", e.Code, e.Message)
}

// Provider codes that mean the stored credential is no longer usable and the
// user has to go through the re-link flow. INTERNAL_SERVER_ERROR is included
// conservatively: the provider recommends re-linking when its own fault
// leaves an item in an unknown state.
var reconnectCodes = map[string]struct{}{
	"ITEM_LOGIN_REQUIRED":   {},
	"INVALID_CREDENTIALS":   {},
	"INVALID_MFA":           {},
	"ITEM_LOCKED":           {},
	"ITEM_NOT_SUPPORTED":    {},
	"USER_SETUP_REQUIRED":   {},
	"INTERNAL_SERVER_ERROR": {},
}

// RequiresRelink reports whether err is a provider error whose code demands
// reauthentication rather than a retry.
func RequiresRelink(err error) bool {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return false
	}
	_, ok := reconnectCodes[pe.Code]
	return ok
}
