package sync

import (
	"github.com/shopspring/decimal"

	"routecrm-go/internal/models"
)

// ProjectBalance maps the provider's reported current balance to the signed
// ledger balance stored on the account. Credit balances are liabilities and
// are always stored negative; every other type keeps the raw value. A nil
// raw balance means "not reported" and the stored balance is left alone.
func ProjectBalance(accountType string, raw *decimal.Decimal) *decimal.Decimal {
	if raw == nil {
		return nil
	}
	if accountType == models.AccountTypeCredit {
		neg := raw.Abs().Neg()
		return &neg
	}
	v := *raw
	return &v
}
