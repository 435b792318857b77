package http

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"routecrm-go/internal/models"
	"routecrm-go/internal/sync"
)

func pathlessAccountID(c *gin.Context) (uint, error) {
	raw := c.PostForm("account_id")
	if raw == "" {
		return 0, fmt.Errorf("account_id is required")
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid account_id")
	}
	return uint(id), nil
}

// GET /v1/items
func (s *Server) listItems(c *gin.Context) {
	var items []models.LinkedItem
	if err := s.db.Where("user_id = ?", currentUserID(c)).Find(&items).Error; err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, items)
}

// linkItem finishes the account-linking handshake: it stores the exchanged
// access token as a LinkedItem and creates one bound Account per external
// account the caller selected. The public-token exchange itself happens
// client-side against the aggregator; this endpoint only persists the
// result.
func (s *Server) linkItem(c *gin.Context) {
	userID := currentUserID(c)

	var input struct {
		InstitutionName string `json:"institution_name" binding:"required"`
		AccessToken     string `json:"access_token" binding:"required"`
		Accounts        []struct {
			ExternalAccountID string `json:"external_account_id" binding:"required"`
			Name              string `json:"name" binding:"required"`
			Type              string `json:"type" binding:"required,oneof=checking savings credit"`
		} `json:"accounts" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	item := models.LinkedItem{
		UserID:          userID,
		InstitutionName: input.InstitutionName,
		AccessToken:     input.AccessToken,
		Status:          models.ItemStatusOK,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		for _, a := range input.Accounts {
			externalID := a.ExternalAccountID
			account := models.Account{
				UserID:            userID,
				Name:              a.Name,
				Type:              a.Type,
				LinkedItemID:      &item.ID,
				ExternalAccountID: &externalID,
			}
			if err := tx.Create(&account).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(201, item)
}

// POST /v1/items/:id/sync
func (s *Server) syncItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(s.cfg.SyncTimeoutSec)*time.Second)
	defer cancel()

	result, serr := s.syncer.Sync(ctx, currentUserID(c), id)
	if serr != nil {
		c.JSON(syncErrorStatus(serr.Kind), syncErrorBody(serr))
		return
	}
	c.JSON(200, result)
}

func syncErrorStatus(kind sync.Kind) int {
	switch kind {
	case sync.KindUnauthorized:
		return 401
	case sync.KindNotFound:
		return 404
	case sync.KindRateLimited:
		return 429
	case sync.KindLoginRequired:
		return 409
	case sync.KindProvider:
		return 502
	default:
		return 500
	}
}

func syncErrorBody(serr *sync.Error) gin.H {
	body := gin.H{"error": string(serr.Kind), "message": serr.Message}
	if !serr.ResetAt.IsZero() {
		body["reset_at"] = serr.ResetAt.UTC().Format(time.RFC3339)
	}
	return body
}
