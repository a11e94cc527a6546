// Package interfaces documents the core abstractions used throughout the application.
//
// Controllers depend on small interfaces declared next to them in
// internal/http; repositories and services satisfy them implicitly.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - AuthorStore: Author CRUD (internal/http/authors.go)
//   - MemberStore: Member CRUD (internal/http/members.go)
//   - BookStore: Catalogue CRUD with loan-aware status rules (internal/http/books.go)
//   - LoanStore: Checkout, return and loan edits (internal/http/loans.go)
//   - ReportStore: Read-only reports (internal/http/reports.go)
//   - StaffStore: Staff accounts for basic auth (internal/auth/service.go)
//   - Pinger: Database health (internal/http/health.go)
//
// ## Audit Interfaces
//
//   - ChangeRecorder: Records successful mutations (internal/http/helpers.go)
//   - AuditEventReader: Lists audit events (internal/http/audit.go)
//   - Recorder: Records background task outcomes (internal/tasks/types.go)
//
// ## Background Work Interfaces
//
//   - TaskQueue: Enqueue tasks and read their status (internal/http/tasks.go)
//   - Enqueuer: Used by the cron scheduler (internal/scheduler/maintenance.go)
//   - OverdueCounter, AuditEventCleaner: Task dependencies (internal/tasks/)
//
// # Adding a New Maintenance Task
//
//  1. Define the task and its processor in internal/tasks/
//
//     type ExpireHoldsTask struct {
//         AsOf time.Time `json:"as_of,omitempty"`
//     }
//
//     func (t ExpireHoldsTask) Config() backlite.QueueConfig {
//         return backlite.QueueConfig{Name: TypeExpireHolds, MaxAttempts: 3}
//     }
//
//  2. Register its queue in entrypoint.go and, if it should run
//     periodically, add a scheduler.Job for it
//
//  3. Add it to tasks.Types and to the switch in internal/http/tasks.go
//
// # Adding a New Database Domain
//
//  1. Create sub-package: internal/database/holds/
//
//  2. Define repository:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Declare the store interface next to its controller in internal/http/
//
//  4. Add compile-time check to checks.go:
//
//     var _ http.HoldStore = (*holds.Repository)(nil)
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
