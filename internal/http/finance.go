package http

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"routecrm-go/internal/models"
	"routecrm-go/internal/sync"
)

// Categories

func (s *Server) listCategories(c *gin.Context) {
	var categories []models.Category
	if err := s.db.Where("user_id = ?", currentUserID(c)).Order("name asc").Find(&categories).Error; err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, categories)
}

func (s *Server) createCategory(c *gin.Context) {
	var category models.Category
	if err := c.BindJSON(&category); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	category.ID = 0
	category.UserID = currentUserID(c)

	if err := s.db.Create(&category).Error; err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(201, category)
}

func (s *Server) deleteCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	userID := currentUserID(c)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Orphan instead of cascade: transactions fall back to
		// uncategorized.
		if err := tx.Model(&models.Transaction{}).
			Where("user_id = ? AND category_id = ?", userID, id).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Category{}).Error
	})
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"message": "category deleted"})
}

// Accounts

func (s *Server) listAccounts(c *gin.Context) {
	var accounts []models.Account
	if err := s.db.Where("user_id = ?", currentUserID(c)).Order("name asc").Find(&accounts).Error; err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, accounts)
}

func (s *Server) createAccount(c *gin.Context) {
	var account models.Account
	if err := c.BindJSON(&account); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	account.ID = 0
	account.UserID = currentUserID(c)
	// Provider bindings are only established by the link flow.
	account.LinkedItemID = nil
	account.ExternalAccountID = nil

	if err := s.db.Create(&account).Error; err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(201, account)
}

func (s *Server) updateAccount(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	userID := currentUserID(c)

	var account models.Account
	if err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&account).Error; err != nil {
		c.JSON(404, gin.H{"error": "account not found"})
		return
	}

	var input struct {
		Name string `json:"name"`
		Type string `json:"type"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	if input.Name != "" {
		account.Name = input.Name
	}
	if input.Type != "" {
		account.Type = input.Type
	}

	if err := s.db.Save(&account).Error; err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, account)
}

// Transactions

func (s *Server) listTransactions(c *gin.Context) {
	query := s.db.Where("user_id = ?", currentUserID(c)).Order("date desc, id desc")
	if accountID := c.Query("account_id"); accountID != "" {
		query = query.Where("account_id = ?", accountID)
	}
	if categoryID := c.Query("category_id"); categoryID != "" {
		if categoryID == "none" {
			query = query.Where("category_id IS NULL")
		} else {
			query = query.Where("category_id = ?", categoryID)
		}
	}
	if direction := c.Query("direction"); direction != "" {
		query = query.Where("direction = ?", direction)
	}
	if start := c.Query("start_date"); start != "" {
		query = query.Where("date >= ?", start)
	}
	if end := c.Query("end_date"); end != "" {
		query = query.Where("date <= ?", end)
	}

	var txns []models.Transaction
	if err := query.Limit(500).Find(&txns).Error; err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, txns)
}

func (s *Server) createTransaction(c *gin.Context) {
	var txn models.Transaction
	if err := c.BindJSON(&txn); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	txn.ID = 0
	txn.UserID = currentUserID(c)
	// Manual rows never carry a provider ID.
	txn.ExternalID = nil
	if txn.Direction != models.DirectionInflow {
		txn.Direction = models.DirectionOutflow
	}
	txn.Amount = txn.Amount.Abs()
	txn.StatementMonth = int(txn.Date.Month())
	txn.StatementYear = txn.Date.Year()

	if err := s.db.Create(&txn).Error; err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(201, txn)
}

func (s *Server) updateTransaction(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	userID := currentUserID(c)

	var txn models.Transaction
	if err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&txn).Error; err != nil {
		c.JSON(404, gin.H{"error": "transaction not found"})
		return
	}

	var input struct {
		Description  *string `json:"description"`
		MerchantName *string `json:"merchant_name"`
		CategoryID   *uint   `json:"category_id"`
		Pending      *bool   `json:"pending"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	if input.Description != nil {
		txn.Description = *input.Description
	}
	if input.MerchantName != nil {
		txn.MerchantName = input.MerchantName
	}
	if input.CategoryID != nil {
		if *input.CategoryID == 0 {
			txn.CategoryID = nil
		} else {
			txn.CategoryID = input.CategoryID
		}
	}
	if input.Pending != nil {
		txn.Pending = *input.Pending
	}

	if err := s.db.Save(&txn).Error; err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, txn)
}

// deleteTransaction removes a transaction. When the row came from the
// provider, a tombstone is written in the same database transaction so the
// next sync cannot resurrect it.
func (s *Server) deleteTransaction(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	userID := currentUserID(c)

	var txn models.Transaction
	if err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&txn).Error; err != nil {
		c.JSON(404, gin.H{"error": "transaction not found"})
		return
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if txn.ExternalID != nil {
			tombstone := models.DeletedTransaction{UserID: userID, ExternalID: *txn.ExternalID}
			if err := tx.Where(&tombstone).FirstOrCreate(&tombstone).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&txn).Error
	})
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"message": "transaction deleted"})
}

func (s *Server) importTransactions(c *gin.Context) {
	userID := currentUserID(c)

	accountID, err := pathlessAccountID(c)
	if err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	var account models.Account
	if err := s.db.Where("id = ? AND user_id = ?", accountID, userID).First(&account).Error; err != nil {
		c.JSON(404, gin.H{"error": "account not found"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(400, gin.H{"error": "no file provided"})
		return
	}
	defer file.Close()
	if header.Size > s.cfg.MaxUploadMB*1024*1024 {
		c.JSON(413, gin.H{"error": "file too large"})
		return
	}

	txns, rowErrs, err := s.importer.Parse(file, userID, accountID)
	if err != nil {
		c.JSON(422, gin.H{"error": "could_not_parse"})
		return
	}
	if len(txns) > 0 {
		if err := s.db.Create(&txns).Error; err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
	}

	c.JSON(200, gin.H{"imported": len(txns), "row_errors": rowErrs})
}

// Categorization rules

func (s *Server) listRules(c *gin.Context) {
	var rules []models.CategorizationRule
	if err := s.db.Where("user_id = ?", currentUserID(c)).Order("position asc").Find(&rules).Error; err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, rules)
}

func (s *Server) createRule(c *gin.Context) {
	userID := currentUserID(c)

	var input struct {
		Pattern    string `json:"pattern" binding:"required"`
		CategoryID uint   `json:"category_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	// Reject patterns that will never compile; an invalid rule stored now
	// would just be skipped on every sync.
	if _, err := sync.CompileRule(input.Pattern); err != nil {
		c.JSON(422, gin.H{"error": "invalid_pattern", "details": err.Error()})
		return
	}

	var maxPos int64
	s.db.Model(&models.CategorizationRule{}).
		Where("user_id = ?", userID).
		Count(&maxPos)

	rule := models.CategorizationRule{
		UserID:     userID,
		Pattern:    input.Pattern,
		CategoryID: input.CategoryID,
		Position:   int(maxPos),
	}
	if err := s.db.Create(&rule).Error; err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(201, rule)
}

// reorderRules rewrites rule positions from an ordered ID list. Order is
// semantically meaningful: the categorizer stops at the first match.
func (s *Server) reorderRules(c *gin.Context) {
	userID := currentUserID(c)

	var input struct {
		RuleIDs []uint `json:"rule_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for pos, ruleID := range input.RuleIDs {
			res := tx.Model(&models.CategorizationRule{}).
				Where("id = ? AND user_id = ?", ruleID, userID).
				Update("position", pos)
			if res.Error != nil {
				return res.Error
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"message": "rules reordered"})
}

func (s *Server) deleteRule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.db.Where("id = ? AND user_id = ?", id, currentUserID(c)).Delete(&models.CategorizationRule{}).Error; err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"message": "rule deleted"})
}

// applyRules runs the uncategorized sweep for the current user.
func (s *Server) applyRules(c *gin.Context) {
	categorized, err := s.syncer.Sweep(c.Request.Context(), currentUserID(c))
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"categorized": categorized})
}
