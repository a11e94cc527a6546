package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/seatgenie/library/internal/audit"
	"github.com/seatgenie/library/internal/auth"
	"github.com/seatgenie/library/internal/database"
	"github.com/seatgenie/library/internal/database/authors"
	"github.com/seatgenie/library/internal/database/books"
	"github.com/seatgenie/library/internal/database/loans"
	"github.com/seatgenie/library/internal/database/members"
	"github.com/seatgenie/library/internal/database/reports"
	"github.com/seatgenie/library/internal/database/staff"
	"github.com/seatgenie/library/internal/http"
	"github.com/seatgenie/library/internal/scheduler"
	"github.com/seatgenie/library/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ http.AuthorStore = (*authors.Repository)(nil)
var _ http.MemberStore = (*members.Repository)(nil)
var _ http.BookStore = (*books.Repository)(nil)
var _ http.LoanStore = (*loans.Repository)(nil)
var _ http.ReportStore = (*reports.Repository)(nil)
var _ auth.StaffStore = (*staff.Repository)(nil)

var _ http.Pinger = (*database.Database)(nil)

// =============================================================================
// Audit Trail
// =============================================================================

var _ http.ChangeRecorder = (*audit.Service)(nil)
var _ http.AuditEventReader = (*audit.Service)(nil)
var _ tasks.Recorder = (*audit.Service)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ tasks.OverdueCounter = (*loans.Repository)(nil)
var _ http.TaskQueue = (*tasks.Client)(nil)
var _ scheduler.Enqueuer = (*tasks.Client)(nil)
