// Package audit records who did what to the library's books, loans and
// accounts.
package audit

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mrlokans/library/internal/database/audit"
	"github.com/mrlokans/library/internal/entities"
)

const maxTextLength = 500

// Service provides high-level audit logging functionality.
type Service struct {
	repo    *audit.Repository
	logger  *zap.Logger
	now     func() time.Time
	pending sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:   repo,
		logger: logger.Named("audit"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Log records an audit event synchronously.
func (s *Service) Log(event *entities.AuditEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = s.now()
	}
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background. Failures are logged
// and otherwise ignored.
func (s *Service) LogAsync(event *entities.AuditEvent) {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = s.now()
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.repo.LogEvent(event); err != nil {
			s.logger.Error("failed to record audit event",
				zap.String("event_type", string(event.EventType)),
				zap.String("action", event.Action),
				zap.Error(err))
		}
	}()
}

// Wait blocks until every event queued by LogAsync has been written.
func (s *Service) Wait() {
	s.pending.Wait()
}

// LogAuth records a login, logout, registration or token event.
func (s *Service) LogAuth(userID uint, action, ipAddr string, err error) {
	s.LogAsync(newEvent(userID, entities.AuditEventAuth, action, "", "", nil, ipAddr, err))
}

// LogReservation records a reservation transition.
func (s *Service) LogReservation(actorID uint, action string, reservationID uint, description string, err error) {
	s.LogAsync(newEvent(actorID, entities.AuditEventReservation, action, description, "reservation", idPtr(reservationID), "", err))
}

// LogLoan records a loan transition.
func (s *Service) LogLoan(actorID uint, action string, loanID uint, description string, err error) {
	s.LogAsync(newEvent(actorID, entities.AuditEventLoan, action, description, "loan", idPtr(loanID), "", err))
}

// LogCatalog records a change to a book record.
func (s *Service) LogCatalog(actorID uint, action string, bookID uint, description string) {
	s.LogAsync(newEvent(actorID, entities.AuditEventCatalog, action, description, "book", idPtr(bookID), "", nil))
}

// LogUsers records an account management change.
func (s *Service) LogUsers(actorID uint, action string, userID uint, description string) {
	s.LogAsync(newEvent(actorID, entities.AuditEventUsers, action, description, "user", idPtr(userID), "", nil))
}

// LogMaintenance records a background job run.
func (s *Service) LogMaintenance(action, description string, err error) {
	s.LogAsync(newEvent(0, entities.AuditEventMaintenance, action, description, "", nil, "", err))
}

// GetEvents retrieves one page of events and the total match count.
func (s *Service) GetEvents(f audit.Filter) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(f)
}

// DeleteOldEvents removes events older than retentionDays days.
func (s *Service) DeleteOldEvents(retentionDays int) (int64, error) {
	cutoff := s.now().AddDate(0, 0, -retentionDays)
	return s.repo.DeleteOldEvents(cutoff)
}

func newEvent(userID uint, eventType entities.AuditEventType, action, description, entityType string, entityID *uint, ipAddr string, err error) *entities.AuditEvent {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   eventType,
		Action:      action,
		Description: truncate(description, maxTextLength),
		EntityType:  entityType,
		EntityID:    entityID,
		IPAddress:   ipAddr,
		Status:      entities.AuditStatusSuccess,
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), maxTextLength)
	}
	return event
}

func idPtr(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
