package auth

import (
	"database/sql"
	"encoding/gob"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/entities"
)

const (
	SessionCookieName = "library_session"

	sessionUserID  = "user_id"
	sessionEmail   = "email"
	sessionRole    = "role"
	sessionLoginAt = "login_at"

	defaultSessionLifetime = 24 * time.Hour
)

// sessionSchema matches what sqlite3store reads and writes.
const sessionSchema = `CREATE TABLE IF NOT EXISTS sessions (
	token TEXT PRIMARY KEY,
	data BLOB NOT NULL,
	expiry REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`

func init() {
	gob.Register(entities.UserRole(""))
	gob.Register(time.Time{})
}

// SessionManager keeps browser sessions in the main SQLite database.
type SessionManager struct {
	*scs.SessionManager
}

// SessionData is the login snapshot stored in a session. The middleware
// still reloads the user on every request, so Role here may be stale.
type SessionData struct {
	UserID  uint
	Email   string
	Role    entities.UserRole
	LoginAt time.Time
}

// NewSessionManager creates the session table if needed and returns a
// manager whose idle timeout is half the configured lifetime.
func NewSessionManager(sqlDB *sql.DB, cfg config.Auth) (*SessionManager, error) {
	if _, err := sqlDB.Exec(sessionSchema); err != nil {
		return nil, fmt.Errorf("failed to create sessions table: %w", err)
	}

	lifetime := cfg.SessionLifetime
	if lifetime <= 0 {
		lifetime = defaultSessionLifetime
	}

	sm := scs.New()
	sm.Store = sqlite3store.New(sqlDB)
	sm.Lifetime = lifetime
	sm.IdleTimeout = lifetime / 2
	sm.Cookie.Name = SessionCookieName
	sm.Cookie.Path = "/"
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteStrictMode
	sm.Cookie.Secure = cfg.SecureCookies

	return &SessionManager{SessionManager: sm}, nil
}

// CreateSession binds user to the request's session under a fresh token.
func (sm *SessionManager) CreateSession(r *http.Request, user *entities.User) error {
	ctx := r.Context()
	if err := sm.RenewToken(ctx); err != nil {
		return err
	}

	// scs round-trips integers as int
	sm.Put(ctx, sessionUserID, int(user.ID))
	sm.Put(ctx, sessionEmail, user.Email)
	sm.Put(ctx, sessionRole, user.Role)
	sm.Put(ctx, sessionLoginAt, time.Now().UTC())
	return nil
}

func (sm *SessionManager) DestroySession(r *http.Request) error {
	return sm.Destroy(r.Context())
}

// GetUserID returns the session's user, or 0 for an anonymous session.
func (sm *SessionManager) GetUserID(r *http.Request) uint {
	return uint(sm.GetInt(r.Context(), sessionUserID))
}

// GetSessionData returns nil for an anonymous session.
func (sm *SessionManager) GetSessionData(r *http.Request) *SessionData {
	ctx := r.Context()
	userID := sm.GetUserID(r)
	if userID == 0 {
		return nil
	}

	role, _ := sm.Get(ctx, sessionRole).(entities.UserRole)
	loginAt, _ := sm.Get(ctx, sessionLoginAt).(time.Time)
	return &SessionData{
		UserID:  userID,
		Email:   sm.GetString(ctx, sessionEmail),
		Role:    role,
		LoginAt: loginAt,
	}
}
