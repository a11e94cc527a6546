package entities

import "time"

type AuditEventType string

const (
	AuditEventCreate      AuditEventType = "create"
	AuditEventUpdate      AuditEventType = "update"
	AuditEventDelete      AuditEventType = "delete"
	AuditEventCheckout    AuditEventType = "checkout"
	AuditEventReturn      AuditEventType = "return"
	AuditEventOverdueScan AuditEventType = "overdue_scan"
	AuditEventMaintenance AuditEventType = "maintenance"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailed  AuditStatus = "failed"
)

type AuditEvent struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	EventType   AuditEventType `gorm:"index;size:50" json:"event_type"`
	Action      string         `gorm:"size:100" json:"action"`      // e.g. "loan_checkout", "member_delete"
	Description string         `gorm:"size:500" json:"description"` // Human-readable summary
	EntityType  string         `gorm:"size:50" json:"entity_type"`  // "book", "loan", "member", "author"
	EntityID    *uint          `gorm:"index" json:"entity_id,omitempty"`
	Actor       string         `gorm:"size:100" json:"actor,omitempty"`
	Metadata    string         `gorm:"type:text" json:"metadata,omitempty"` // JSON for extra data
	IPAddress   string         `gorm:"size:45" json:"ip_address,omitempty"`
	RequestID   string         `gorm:"size:64;index" json:"request_id,omitempty"`
	Status      AuditStatus    `gorm:"size:20" json:"status"`
	ErrorMsg    string         `gorm:"size:500" json:"error_msg,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
