package http

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"routecrm-go/internal/models"
)

func currentUserID(c *gin.Context) uint {
	return c.MustGet("userID").(uint)
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(400, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

// Customers

func (s *Server) listCustomers(c *gin.Context) {
	userID := currentUserID(c)

	query := s.db.Where("user_id = ?", userID).Order("name asc")
	if routeID := c.Query("route_id"); routeID != "" {
		query = query.Where("route_id = ?", routeID)
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		query = query.Where("name ILIKE ?", "%"+q+"%")
	}

	var customers []models.Customer
	if err := query.Find(&customers).Error; err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, customers)
}

func (s *Server) createCustomer(c *gin.Context) {
	var customer models.Customer
	if err := c.BindJSON(&customer); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	customer.ID = 0
	customer.UserID = currentUserID(c)
	customer.Active = true

	if err := s.db.Create(&customer).Error; err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(201, customer)
}

func (s *Server) getCustomer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var customer models.Customer
	if err := s.db.Where("id = ? AND user_id = ?", id, currentUserID(c)).First(&customer).Error; err != nil {
		c.JSON(404, gin.H{"error": "customer not found"})
		return
	}
	c.JSON(200, customer)
}

func (s *Server) updateCustomer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	userID := currentUserID(c)

	var customer models.Customer
	if err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&customer).Error; err != nil {
		c.JSON(404, gin.H{"error": "customer not found"})
		return
	}

	var input models.Customer
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	customer.Name = input.Name
	customer.Email = input.Email
	customer.Phone = input.Phone
	customer.Address = input.Address
	customer.Notes = input.Notes
	customer.RouteID = input.RouteID
	customer.Active = input.Active

	if err := s.db.Save(&customer).Error; err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, customer)
}

func (s *Server) deleteCustomer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.db.Where("id = ? AND user_id = ?", id, currentUserID(c)).Delete(&models.Customer{}).Error; err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"message": "customer deleted"})
}

// Routes

func (s *Server) listRoutes(c *gin.Context) {
	var routes []models.Route
	if err := s.db.Where("user_id = ?", currentUserID(c)).Order("day_of_week asc, name asc").Find(&routes).Error; err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, routes)
}

func (s *Server) createRoute(c *gin.Context) {
	var route models.Route
	if err := c.BindJSON(&route); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	route.ID = 0
	route.UserID = currentUserID(c)

	if err := s.db.Create(&route).Error; err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(201, route)
}

func (s *Server) updateRoute(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	userID := currentUserID(c)

	var route models.Route
	if err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&route).Error; err != nil {
		c.JSON(404, gin.H{"error": "route not found"})
		return
	}

	var input models.Route
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	route.Name = input.Name
	route.DayOfWeek = input.DayOfWeek
	route.Notes = input.Notes

	if err := s.db.Save(&route).Error; err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, route)
}

func (s *Server) deleteRoute(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.db.Where("id = ? AND user_id = ?", id, currentUserID(c)).Delete(&models.Route{}).Error; err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"message": "route deleted"})
}

// Service logs

func (s *Server) listServiceLogs(c *gin.Context) {
	query := s.db.Where("user_id = ?", currentUserID(c)).Order("date desc")
	if customerID := c.Query("customer_id"); customerID != "" {
		query = query.Where("customer_id = ?", customerID)
	}
	if start := c.Query("start_date"); start != "" {
		query = query.Where("date >= ?", start)
	}
	if end := c.Query("end_date"); end != "" {
		query = query.Where("date <= ?", end)
	}

	var logs []models.ServiceLog
	if err := query.Find(&logs).Error; err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, logs)
}

func (s *Server) createServiceLog(c *gin.Context) {
	var slog models.ServiceLog
	if err := c.BindJSON(&slog); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	slog.ID = 0
	slog.UserID = currentUserID(c)

	if err := s.db.Create(&slog).Error; err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(201, slog)
}

func (s *Server) updateServiceLog(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	userID := currentUserID(c)

	var slog models.ServiceLog
	if err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&slog).Error; err != nil {
		c.JSON(404, gin.H{"error": "service log not found"})
		return
	}

	var input models.ServiceLog
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	slog.CustomerID = input.CustomerID
	slog.RouteID = input.RouteID
	slog.Date = input.Date
	slog.Work = input.Work
	slog.Price = input.Price
	slog.Completed = input.Completed
	slog.Notes = input.Notes

	if err := s.db.Save(&slog).Error; err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, slog)
}

func (s *Server) deleteServiceLog(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.db.Where("id = ? AND user_id = ?", id, currentUserID(c)).Delete(&models.ServiceLog{}).Error; err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"message": "service log deleted"})
}

// Invoices

func (s *Server) listInvoices(c *gin.Context) {
	query := s.db.Where("user_id = ?", currentUserID(c)).Order("date desc")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if customerID := c.Query("customer_id"); customerID != "" {
		query = query.Where("customer_id = ?", customerID)
	}

	var invoices []models.Invoice
	if err := query.Find(&invoices).Error; err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, invoices)
}

func (s *Server) createInvoice(c *gin.Context) {
	var invoice models.Invoice
	if err := c.BindJSON(&invoice); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	invoice.ID = 0
	invoice.UserID = currentUserID(c)
	if invoice.Status == "" {
		invoice.Status = models.InvoiceStatusDraft
	}

	if err := s.db.Create(&invoice).Error; err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(201, invoice)
}

func (s *Server) updateInvoice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	userID := currentUserID(c)

	var invoice models.Invoice
	if err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&invoice).Error; err != nil {
		c.JSON(404, gin.H{"error": "invoice not found"})
		return
	}

	var input models.Invoice
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	invoice.CustomerID = input.CustomerID
	invoice.Number = input.Number
	invoice.Date = input.Date
	invoice.DueDate = input.DueDate
	invoice.Amount = input.Amount
	if input.Status != "" {
		invoice.Status = input.Status
	}
	invoice.Notes = input.Notes

	if err := s.db.Save(&invoice).Error; err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, invoice)
}

func (s *Server) deleteInvoice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.db.Where("id = ? AND user_id = ?", id, currentUserID(c)).Delete(&models.Invoice{}).Error; err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"message": "invoice deleted"})
}
