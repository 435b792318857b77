package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"routecrm-go/internal/config"
	"routecrm-go/internal/importer"
	"routecrm-go/internal/sync"
)

type Server struct {
	cfg      *config.Config
	db       *gorm.DB
	syncer   *sync.Syncer
	importer *importer.Importer
	log      zerolog.Logger
}

func NewServer(cfg *config.Config, db *gorm.DB, syncer *sync.Syncer, imp *importer.Importer, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors(cfg))
	r.Use(logging(log))

	s := &Server{cfg: cfg, db: db, syncer: syncer, importer: imp, log: log}

	r.POST("/v1/auth/register", s.authRegister)
	r.POST("/v1/auth/login", s.authLogin)

	authorized := r.Group("/v1")
	authorized.Use(s.authMiddleware())
	{
		authorized.GET("/customers", s.listCustomers)
		authorized.POST("/customers", s.createCustomer)
		authorized.GET("/customers/:id", s.getCustomer)
		authorized.PUT("/customers/:id", s.updateCustomer)
		authorized.DELETE("/customers/:id", s.deleteCustomer)

		authorized.GET("/routes", s.listRoutes)
		authorized.POST("/routes", s.createRoute)
		authorized.PUT("/routes/:id", s.updateRoute)
		authorized.DELETE("/routes/:id", s.deleteRoute)

		authorized.GET("/service-logs", s.listServiceLogs)
		authorized.POST("/service-logs", s.createServiceLog)
		authorized.PUT("/service-logs/:id", s.updateServiceLog)
		authorized.DELETE("/service-logs/:id", s.deleteServiceLog)

		authorized.GET("/invoices", s.listInvoices)
		authorized.POST("/invoices", s.createInvoice)
		authorized.PUT("/invoices/:id", s.updateInvoice)
		authorized.DELETE("/invoices/:id", s.deleteInvoice)

		authorized.GET("/categories", s.listCategories)
		authorized.POST("/categories", s.createCategory)
		authorized.DELETE("/categories/:id", s.deleteCategory)

		authorized.GET("/accounts", s.listAccounts)
		authorized.POST("/accounts", s.createAccount)
		authorized.PUT("/accounts/:id", s.updateAccount)

		authorized.GET("/transactions", s.listTransactions)
		authorized.POST("/transactions", s.createTransaction)
		authorized.PUT("/transactions/:id", s.updateTransaction)
		authorized.DELETE("/transactions/:id", s.deleteTransaction)
		authorized.POST("/transactions/import", s.importTransactions)

		authorized.GET("/rules", s.listRules)
		authorized.POST("/rules", s.createRule)
		authorized.PUT("/rules/reorder", s.reorderRules)
		authorized.DELETE("/rules/:id", s.deleteRule)
		authorized.POST("/rules/apply", s.applyRules)

		authorized.GET("/items", s.listItems)
		authorized.POST("/items/link", s.linkItem)
		authorized.POST("/items/:id/sync", s.syncItem)

		authorized.GET("/insights/summary", s.insightsSummary)
	}

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })
	return r
}

func cors(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", cfg.AllowOrigins)
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, PUT, DELETE, OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

func logging(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}
