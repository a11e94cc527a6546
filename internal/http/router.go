package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/seatgenie/library/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.Use(RequestIDMiddleware())
	router.Use(auth.SecurityHeadersMiddleware())
	router.Use(auth.StrictTransportSecurityMiddleware())
	if len(cfg.CORSAllowedOrigins) > 0 {
		router.Use(CORSMiddleware(cfg.CORSAllowedOrigins))
	}

	if cfg.ReadOnlyMiddleware != nil && cfg.ReadOnlyMiddleware.IsEnabled() {
		router.Use(cfg.ReadOnlyMiddleware.InjectContext())
		router.Use(cfg.ReadOnlyMiddleware.Handler())
	}

	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	}

	// Health endpoints
	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	api := router.Group("/api")

	if cfg.AuthorStore != nil {
		authors := NewAuthorsController(cfg.AuthorStore, cfg.Recorder)
		api.GET("/authors", authors.List)
		api.GET("/authors/:id", authors.Get)
		api.POST("/authors", authors.Create)
		api.PUT("/authors/:id", authors.Update)
		api.DELETE("/authors/:id", authors.Delete)
	}

	if cfg.MemberStore != nil {
		members := NewMembersController(cfg.MemberStore, cfg.Recorder)
		api.GET("/members", members.List)
		api.GET("/members/:id", members.Get)
		api.POST("/members", members.Create)
		api.PUT("/members/:id", members.Update)
		api.DELETE("/members/:id", members.Delete)
	}

	if cfg.BookStore != nil {
		books := NewBooksController(cfg.BookStore, cfg.Recorder)
		api.GET("/books", books.List)
		api.GET("/books/:id", books.Get)
		api.POST("/books", books.Create)
		api.PUT("/books/:id", books.Update)
		api.DELETE("/books/:id", books.Delete)
	}

	if cfg.LoanStore != nil {
		loans := NewLoansController(cfg.LoanStore, cfg.Recorder)
		api.GET("/loans", loans.List)
		api.GET("/loans/:id", loans.Get)
		api.POST("/loans", loans.Create)
		api.PUT("/loans/:id", loans.Update)
		api.POST("/loans/:id/return", loans.Return)
		api.DELETE("/loans/:id", loans.Delete)
	}

	if cfg.ReportStore != nil {
		reports := NewReportsController(cfg.ReportStore)
		api.GET("/reports/overdue-loans", reports.OverdueLoans)
		api.GET("/reports/most-active-members", reports.MostActiveMembers)
		api.GET("/reports/most-borrowed-books", reports.MostBorrowedBooks)
		api.GET("/reports/inventory-health", reports.InventoryHealth)
		api.GET("/reports/member-loan-history/:id", reports.MemberLoanHistory)
		api.GET("/reports/book-loan-history/:id", reports.BookLoanHistory)
	}

	if cfg.AuditEvents != nil {
		auditController := NewAuditController(cfg.AuditEvents)
		api.GET("/audit-events", auditController.GetAuditEvents)
		api.GET("/audit-events/:entityType/:id", auditController.GetEntityHistory)
	}

	// Task management endpoints
	if cfg.TaskQueue != nil {
		tasksController := NewTasksController(cfg.TaskQueue, cfg.AuditRetentionDays)
		api.GET("/tasks/types", tasksController.ListTaskTypes)
		api.GET("/tasks/:id", tasksController.GetTaskStatus)
		api.POST("/tasks/:type/run", tasksController.RunTask)
	}

	var spa gin.HandlerFunc
	if cfg.StaticPath != "" {
		spa = serveSPA(cfg.StaticPath)
	}
	router.NoRoute(func(c *gin.Context) {
		if spa != nil && c.Request.Method == http.MethodGet && !strings.HasPrefix(c.Request.URL.Path, "/api/") {
			spa(c)
			return
		}
		respondError(c, http.StatusNotFound, CodeNotFound, "Route not found", nil)
	})

	return router
}
