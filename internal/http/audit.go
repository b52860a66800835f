package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/library/internal/audit"
	dbaudit "github.com/mrlokans/library/internal/database/audit"
	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/http/respond"
)

var auditEventTypes = map[entities.AuditEventType]bool{
	entities.AuditEventAuth:        true,
	entities.AuditEventReservation: true,
	entities.AuditEventLoan:        true,
	entities.AuditEventCatalog:     true,
	entities.AuditEventUsers:       true,
	entities.AuditEventMaintenance: true,
}

type AuditController struct {
	audit  *audit.Service
	logger *zap.Logger
}

func NewAuditController(service *audit.Service, logger *zap.Logger) *AuditController {
	return &AuditController{audit: service, logger: logger}
}

// Logs handles GET /api/admin/logs?type=&user_id=&limit=&offset=.
func (ac *AuditController) Logs(c *gin.Context) {
	eventType := entities.AuditEventType(c.Query("type"))
	if eventType != "" && !auditEventTypes[eventType] {
		respond.BadRequest(c, "unknown event type")
		return
	}
	userID, ok := parseQueryID(c, "user_id")
	if !ok {
		return
	}
	limit, offset := parsePagination(c)

	events, total, err := ac.audit.GetEvents(dbaudit.Filter{
		UserID:    userID,
		EventType: eventType,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}

	respond.OK(c, PaginatedResponse{
		Items:   events,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+len(events)) < total,
	})
}
