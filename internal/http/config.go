package http

import (
	"github.com/seatgenie/library/internal/auth"
	"github.com/seatgenie/library/internal/demo"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Stores
	AuthorStore AuthorStore
	MemberStore MemberStore
	BookStore   BookStore
	LoanStore   LoanStore
	ReportStore ReportStore

	// Audit trail; both may be nil
	Recorder    ChangeRecorder
	AuditEvents AuditEventReader

	// Health check target
	Database Pinger

	// Task queue (optional)
	TaskQueue          TaskQueue
	AuditRetentionDays int

	// Middleware
	AuthMiddleware     *auth.Middleware
	ReadOnlyMiddleware *demo.Middleware
	CORSAllowedOrigins []string

	// Pre-built SPA bundle served for non-API routes when set
	StaticPath string

	// Application info
	Version string
}
