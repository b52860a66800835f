package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/library/internal/audit"
	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/http"
	"github.com/mrlokans/library/internal/lending"
	"github.com/mrlokans/library/internal/scheduler"
	"github.com/mrlokans/library/internal/tasks"
)

// =============================================================================
// Audit Trail
// =============================================================================

// AuditLogger implementations
var _ auth.AuditLogger = (*audit.Service)(nil)

// MaintenanceRecorder implementations
var _ tasks.MaintenanceRecorder = (*audit.Service)(nil)

// AuditEventCleaner implementations
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)

// =============================================================================
// Circulation
// =============================================================================

// ReservationExpirer implementations
var _ tasks.ReservationExpirer = (*lending.Service)(nil)

// =============================================================================
// Background Work
// =============================================================================

// TaskQueue / Enqueuer implementations
var _ http.TaskQueue = (*tasks.Client)(nil)
var _ scheduler.Enqueuer = (*tasks.Client)(nil)

// JobRunner implementations
var _ http.JobRunner = (*scheduler.Scheduler)(nil)
