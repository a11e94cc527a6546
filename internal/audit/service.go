package audit

import (
	"log"
	"sync"
	"time"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"

	"github.com/seatgenie/library/internal/database/audit"
	"github.com/seatgenie/library/internal/entities"
)

var json = jsoniter.ConfigFastest

// RequestMeta identifies who triggered a change and through which request.
type RequestMeta struct {
	RequestID string
	IPAddress string
	Actor     string
}

// Change describes a successful mutation of a library entity.
type Change struct {
	EventType   entities.AuditEventType
	Action      string // e.g. "book_create", "loan_return"
	EntityType  string
	EntityID    uint
	Description string
	Metadata    map[string]any
}

// Service provides high-level audit logging functionality.
type Service struct {
	repo    *audit.Repository
	pending sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.repo.LogEvent(event); err != nil {
			log.Printf("Failed to log audit event: %v", err)
		}
	}()
}

// Wait blocks until every pending asynchronous event has been written.
func (s *Service) Wait() {
	s.pending.Wait()
}

// LogChange records a mutation made through the API.
func (s *Service) LogChange(meta RequestMeta, change Change) {
	entityID := change.EntityID
	event := &entities.AuditEvent{
		EventType:   change.EventType,
		Action:      change.Action,
		Description: truncate(change.Description, 500),
		EntityType:  change.EntityType,
		EntityID:    &entityID,
		Actor:       truncate(meta.Actor, 100),
		Metadata:    encodeMetadata(change.Metadata),
		IPAddress:   meta.IPAddress,
		RequestID:   meta.RequestID,
		Status:      entities.AuditStatusSuccess,
		CreatedAt:   time.Now().UTC(),
	}

	s.LogAsync(event)
}

// LogTask records the outcome of a background task run.
func (s *Service) LogTask(eventType entities.AuditEventType, action, description string, metadata map[string]any, err error) {
	event := &entities.AuditEvent{
		EventType:   eventType,
		Action:      action,
		Description: truncate(description, 500),
		Actor:       "system",
		Metadata:    encodeMetadata(metadata),
		Status:      entities.AuditStatusSuccess,
		CreatedAt:   time.Now().UTC(),
	}

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// GetEvents retrieves paginated audit events, optionally of one type.
func (s *Service) GetEvents(eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(eventType, limit, offset)
}

// GetEventsForEntity returns the history of one entity, oldest first.
func (s *Service) GetEventsForEntity(entityType string, entityID uint) ([]entities.AuditEvent, error) {
	return s.repo.GetEventsForEntity(entityType, entityID)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

func encodeMetadata(metadata map[string]any) string {
	if len(metadata) == 0 {
		return ""
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		log.Printf("Failed to encode audit metadata: %v", err)
		return ""
	}
	return string(data)
}

// truncate shortens s to at most maxLen bytes without splitting a rune.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
