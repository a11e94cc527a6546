package tasks

import (
	"time"

	"github.com/seatgenie/library/internal/entities"
)

// Recorder writes the outcome of a task run to the audit log.
type Recorder interface {
	LogTask(eventType entities.AuditEventType, action, description string, metadata map[string]any, err error)
}

// TypeInfo describes a task that can be triggered manually.
type TypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Queue       string `json:"queue"`
}

const (
	TypeScanOverdueLoans   = "scan_overdue_loans"
	TypeCleanupAuditEvents = "cleanup_audit_events"
)

// Types lists every registered task type.
var Types = []TypeInfo{
	{
		Type:        TypeScanOverdueLoans,
		Description: "Count loans past their due date and record the result in the audit log",
		Queue:       TypeScanOverdueLoans,
	},
	{
		Type:        TypeCleanupAuditEvents,
		Description: "Delete audit events older than the retention period",
		Queue:       TypeCleanupAuditEvents,
	},
}

func retentionFor(days int) time.Duration {
	if days <= 0 {
		days = DefaultAuditRetentionDays
	}
	return time.Duration(days) * 24 * time.Hour
}
