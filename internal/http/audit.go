package http

import (
	"github.com/gin-gonic/gin"

	"github.com/seatgenie/library/internal/entities"
)

// AuditEventReader lists recorded audit events.
type AuditEventReader interface {
	GetEvents(eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error)
	GetEventsForEntity(entityType string, entityID uint) ([]entities.AuditEvent, error)
}

type AuditController struct {
	events AuditEventReader
}

func NewAuditController(events AuditEventReader) *AuditController {
	return &AuditController{events: events}
}

type auditListQuery struct {
	pageQuery
	Type string `form:"type" binding:"omitempty,oneof=create update delete checkout return overdue_scan maintenance"`
}

type entityHistoryMeta struct {
	EntityType string `json:"entityType"`
	EntityID   uint   `json:"entityId"`
	Total      int    `json:"total"`
}

type auditMeta struct {
	PageMeta
	Type *string `json:"type"`
}

// GetAuditEvents returns paginated audit events, newest first
// GET /api/audit-events
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	var q auditListQuery
	if !bindQuery(c, &q) {
		return
	}

	events, total, err := ac.events.GetEvents(entities.AuditEventType(q.Type), q.Limit, q.Offset)
	if err != nil {
		respondInternalError(c, err, "list audit events")
		return
	}
	respondList(c, events, auditMeta{PageMeta: q.meta(total), Type: optionalString(q.Type)})
}

// GetEntityHistory returns every event recorded for one entity, oldest first
// GET /api/audit-events/:entityType/:id
func (ac *AuditController) GetEntityHistory(c *gin.Context) {
	entityType := c.Param("entityType")
	switch entityType {
	case "author", "book", "member", "loan":
	default:
		respondValidation(c, map[string]string{"entityType": "oneof"})
		return
	}
	id, ok := parseIDParam(c, entityType)
	if !ok {
		return
	}

	events, err := ac.events.GetEventsForEntity(entityType, id)
	if err != nil {
		respondInternalError(c, err, "list entity history")
		return
	}
	if events == nil {
		events = []entities.AuditEvent{}
	}
	respondList(c, events, entityHistoryMeta{EntityType: entityType, EntityID: id, Total: len(events)})
}
