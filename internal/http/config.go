package http

import (
	"go.uber.org/zap"

	"github.com/mrlokans/library/internal/audit"
	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/database/users"
	"github.com/mrlokans/library/internal/lending"
	"github.com/mrlokans/library/internal/stats"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database *database.Database
	Lending  *lending.Service
	Books    *books.Repository
	Users    *users.Repository
	Stats    *stats.Service
	Audit    *audit.Service

	// Authentication
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	RateLimiter    *auth.RateLimiter

	// CSRF protection is skipped when the secret is empty.
	CSRFSecret    []byte
	SecureCookies bool
	HSTS          bool

	// Background tasks. TaskQueue is nil when the queue is disabled.
	TaskQueue TaskQueue
	JobRunner JobRunner

	Logger  *zap.Logger
	Version string
}
