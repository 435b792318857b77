package database

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"routecrm-go/internal/models"
	"routecrm-go/internal/sync"
)

// Store implements sync.Store on top of gorm/postgres.
type Store struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewStore(db *gorm.DB, log zerolog.Logger) *Store {
	return &Store{db: db, log: log}
}

func (s *Store) InTx(ctx context.Context, fn func(tx sync.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, log: s.log})
	})
}

func (s *Store) ItemForOwner(ctx context.Context, userID, itemID uint) (*models.LinkedItem, error) {
	var item models.LinkedItem
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, sync.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) AccountsForItem(ctx context.Context, itemID uint) ([]models.Account, error) {
	var accounts []models.Account
	err := s.db.WithContext(ctx).
		Where("linked_item_id = ?", itemID).
		Find(&accounts).Error
	return accounts, err
}

func (s *Store) TombstonedIDs(ctx context.Context, userID uint, externalIDs []string) (map[string]bool, error) {
	found := make(map[string]bool, len(externalIDs))
	if len(externalIDs) == 0 {
		return found, nil
	}
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&models.DeletedTransaction{}).
		Where("user_id = ? AND external_id IN ?", userID, externalIDs).
		Pluck("external_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		found[id] = true
	}
	return found, nil
}

func (s *Store) InsertTransactions(ctx context.Context, rows []models.Transaction) ([]string, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	candidates := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.ExternalID != nil {
			candidates = append(candidates, *row.ExternalID)
		}
	}

	// Find which external IDs a prior sync already stored, then insert
	// with conflict-skip. The lookup and the insert run inside the same
	// reconciliation transaction, so the difference is the inserted set.
	var existing []string
	err := s.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("external_id IN ?", candidates).
		Pluck("external_id", &existing).Error
	if err != nil {
		return nil, err
	}
	existingSet := make(map[string]bool, len(existing))
	for _, id := range existing {
		existingSet[id] = true
	}

	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoNothing: true,
		}).
		Create(&rows).Error
	if err != nil {
		return nil, err
	}

	var inserted []string
	for _, id := range candidates {
		if !existingSet[id] {
			inserted = append(inserted, id)
		}
	}
	return inserted, nil
}

func (s *Store) UpdateTransactionByExternalID(ctx context.Context, userID uint, externalID string, upd sync.TransactionUpdate) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("user_id = ? AND external_id = ?", userID, externalID).
		Updates(map[string]any{
			"date":            upd.Date,
			"description":     upd.Description,
			"merchant_name":   upd.MerchantName,
			"amount":          upd.Amount,
			"direction":       upd.Direction,
			"pending":         upd.Pending,
			"statement_month": upd.StatementMonth,
			"statement_year":  upd.StatementYear,
		})
	return res.RowsAffected > 0, res.Error
}

func (s *Store) DeleteTransactionsByExternalIDs(ctx context.Context, userID uint, externalIDs []string) (int64, error) {
	if len(externalIDs) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND external_id IN ?", userID, externalIDs).
		Delete(&models.Transaction{})
	return res.RowsAffected, res.Error
}

func (s *Store) AdvanceItemCursor(ctx context.Context, itemID uint, cursor string, at time.Time) error {
	return s.db.WithContext(ctx).
		Model(&models.LinkedItem{}).
		Where("id = ?", itemID).
		Updates(map[string]any{
			"cursor":         cursor,
			"status":         models.ItemStatusOK,
			"last_error":     "",
			"last_synced_at": at,
		}).Error
}

func (s *Store) TouchAccounts(ctx context.Context, itemID uint, at time.Time) error {
	return s.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("linked_item_id = ?", itemID).
		Update("last_synced_at", at).Error
}

func (s *Store) UpdateAccountBalance(ctx context.Context, accountID uint, balance decimal.Decimal) error {
	return s.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", accountID).
		Update("current_balance", balance).Error
}

func (s *Store) SetItemStatus(ctx context.Context, itemID uint, status, lastError string) error {
	return s.db.WithContext(ctx).
		Model(&models.LinkedItem{}).
		Where("id = ?", itemID).
		Updates(map[string]any{"status": status, "last_error": lastError}).Error
}

func (s *Store) RulesForOwner(ctx context.Context, userID uint) ([]models.CategorizationRule, error) {
	var rules []models.CategorizationRule
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("position asc").
		Find(&rules).Error
	return rules, err
}

func (s *Store) UncategorizedTransactions(ctx context.Context, userID uint, externalIDs []string) ([]models.Transaction, error) {
	q := s.db.WithContext(ctx).
		Where("user_id = ? AND category_id IS NULL", userID)
	if externalIDs != nil {
		q = q.Where("external_id IN ?", externalIDs)
	}
	var txns []models.Transaction
	err := q.Find(&txns).Error
	return txns, err
}

func (s *Store) AssignCategory(ctx context.Context, userID, categoryID uint, transactionIDs []uint) (int64, error) {
	if len(transactionIDs) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("user_id = ? AND id IN ?", userID, transactionIDs).
		Update("category_id", categoryID)
	return res.RowsAffected, res.Error
}
