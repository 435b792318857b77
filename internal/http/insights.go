package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"routecrm-go/internal/models"
)

type MonthlySummary struct {
	Month   string          `json:"month"`
	Inflow  decimal.Decimal `json:"inflow"`
	Outflow decimal.Decimal `json:"outflow"`
	Net     decimal.Decimal `json:"net"`

	ByAccount []AccountSummary `json:"by_account"`
}

type AccountSummary struct {
	AccountID uint            `json:"account_id"`
	Name      string          `json:"name"`
	Inflow    decimal.Decimal `json:"inflow"`
	Outflow   decimal.Decimal `json:"outflow"`
}

// GET /v1/insights/summary?month=2026-08
func (s *Server) insightsSummary(c *gin.Context) {
	userID := currentUserID(c)

	month := c.Query("month")
	if month == "" {
		month = time.Now().Format("2006-01")
	}
	start, err := time.Parse("2006-01", month)
	if err != nil {
		c.JSON(400, gin.H{"error": "invalid month, want YYYY-MM"})
		return
	}
	end := start.AddDate(0, 1, 0)

	var txns []models.Transaction
	if err := s.db.
		Where("user_id = ? AND date >= ? AND date < ?", userID, start, end).
		Find(&txns).Error; err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}

	var accounts []models.Account
	if err := s.db.Where("user_id = ?", userID).Find(&accounts).Error; err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	names := make(map[uint]string, len(accounts))
	for _, a := range accounts {
		names[a.ID] = a.Name
	}

	summary := MonthlySummary{Month: month, Inflow: decimal.Zero, Outflow: decimal.Zero}
	perAccount := make(map[uint]*AccountSummary)
	for _, txn := range txns {
		acct, ok := perAccount[txn.AccountID]
		if !ok {
			acct = &AccountSummary{
				AccountID: txn.AccountID,
				Name:      names[txn.AccountID],
				Inflow:    decimal.Zero,
				Outflow:   decimal.Zero,
			}
			perAccount[txn.AccountID] = acct
		}
		if txn.Direction == models.DirectionInflow {
			summary.Inflow = summary.Inflow.Add(txn.Amount)
			acct.Inflow = acct.Inflow.Add(txn.Amount)
		} else {
			summary.Outflow = summary.Outflow.Add(txn.Amount)
			acct.Outflow = acct.Outflow.Add(txn.Amount)
		}
	}
	summary.Net = summary.Inflow.Sub(summary.Outflow)

	for _, acct := range perAccount {
		summary.ByAccount = append(summary.ByAccount, *acct)
	}

	c.JSON(200, summary)
}
