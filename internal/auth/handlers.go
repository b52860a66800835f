package auth

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/http/respond"
)

// CodeAccountLocked and CodeAccountInactive extend the envelope codes for
// login refusals.
const (
	CodeAccountLocked   = "account_locked"
	CodeAccountInactive = "account_inactive"
)

// AuditLogger records authentication events.
type AuditLogger interface {
	LogAuth(userID uint, action, ipAddr string, err error)
}

type loginRequest struct {
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type registerRequest struct {
	FullName  string `json:"full_name" form:"full_name"`
	Email     string `json:"email" form:"email"`
	Password  string `json:"password" form:"password"`
	StudentID string `json:"student_id" form:"student_id"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" form:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" form:"new_password" binding:"required"`
}

// AuthController handles authentication-related HTTP endpoints.
type AuthController struct {
	service        *Service
	sessionManager *SessionManager
	rateLimiter    *RateLimiter
	audit          AuditLogger
	logger         *zap.Logger
}

// NewAuthController creates a new authentication controller. The rate
// limiter may be nil to disable per-client throttling.
func NewAuthController(service *Service, sessionManager *SessionManager, rateLimiter *RateLimiter, audit AuditLogger, logger *zap.Logger) *AuthController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthController{
		service:        service,
		sessionManager: sessionManager,
		rateLimiter:    rateLimiter,
		audit:          audit,
		logger:         logger.Named("auth"),
	}
}

// RegisterRoutes registers the session endpoints on the router root.
func (ac *AuthController) RegisterRoutes(router *gin.Engine) {
	router.POST("/login", ac.Login)
	router.POST("/register", ac.Register)
	router.POST("/logout", ac.Logout)
	router.GET("/logout", ac.Logout)
}

// RegisterAPIRoutes registers the account endpoints under /api.
func (ac *AuthController) RegisterAPIRoutes(api *gin.RouterGroup) {
	api.GET("/me", ac.Me)
	api.GET("/csrf", ac.CSRFToken)
	api.POST("/auth/token", ac.GenerateToken)
	api.DELETE("/auth/token", ac.RevokeToken)
	api.POST("/auth/password", ac.ChangePassword)
}

// Login checks credentials and opens a session.
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		respond.BadRequest(c, "email and password are required")
		return
	}
	clientIP := c.ClientIP()

	if ac.rateLimiter != nil {
		if allowed, retryAfter := ac.rateLimiter.Allow(clientIP, req.Email); !allowed {
			ac.tooManyAttempts(c, retryAfter)
			return
		}
	}

	user, err := ac.service.Authenticate(req.Email, req.Password)
	if err != nil {
		ac.logAuth(0, "login", clientIP, err)
		if errors.Is(err, ErrUserNotFound) {
			// Unknown emails look the same as wrong passwords.
			err = ErrInvalidPassword
		}
		if errors.Is(err, ErrInvalidPassword) {
			if ac.rateLimiter != nil {
				if locked, retryAfter := ac.rateLimiter.RecordFailure(clientIP, req.Email); locked {
					ac.tooManyAttempts(c, retryAfter)
					return
				}
			}
		}
		ac.respondError(c, err)
		return
	}

	if ac.rateLimiter != nil {
		ac.rateLimiter.RecordSuccess(clientIP, req.Email)
	}

	if err := ac.startSession(c, user); err != nil {
		return
	}
	ac.logAuth(user.ID, "login", clientIP, nil)
	respond.Message(c, "logged in", user)
}

// Register creates a reader account and logs it in.
func (ac *AuthController) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		respond.BadRequest(c, "invalid registration form")
		return
	}

	user, err := ac.service.RegisterReader(req.FullName, req.Email, req.Password, req.StudentID)
	if err != nil {
		ac.respondError(c, err)
		return
	}

	if err := ac.startSession(c, user); err != nil {
		return
	}
	ac.logAuth(user.ID, "register", c.ClientIP(), nil)
	respond.Created(c, "registration complete", user)
}

// Logout destroys the session.
func (ac *AuthController) Logout(c *gin.Context) {
	if ac.sessionManager != nil {
		if err := ac.sessionManager.DestroySession(c.Request); err != nil {
			ac.logger.Warn("failed to destroy session", zap.Error(err))
		}
	}
	ac.logAuth(GetUserID(c), "logout", c.ClientIP(), nil)
	respond.Message(c, "logged out", nil)
}

// Me returns the authenticated account.
func (ac *AuthController) Me(c *gin.Context) {
	user, err := ac.service.GetUserByID(GetUserID(c))
	if err != nil {
		ac.respondError(c, err)
		return
	}
	respond.OK(c, user)
}

// CSRFToken hands the current CSRF token to script clients.
func (ac *AuthController) CSRFToken(c *gin.Context) {
	respond.OK(c, gin.H{"token": GetCSRFToken(c), "header": CSRFTokenHeader})
}

// GenerateToken creates a new API token for the authenticated user.
func (ac *AuthController) GenerateToken(c *gin.Context) {
	userID := GetUserID(c)
	token, err := ac.service.GenerateToken(userID)
	if err != nil {
		ac.respondError(c, err)
		return
	}

	ac.logAuth(userID, "token_generate", c.ClientIP(), nil)
	respond.Message(c, "store this token securely, it will not be shown again", gin.H{"token": token})
}

// RevokeToken revokes the API token for the authenticated user.
func (ac *AuthController) RevokeToken(c *gin.Context) {
	userID := GetUserID(c)
	if err := ac.service.RevokeToken(userID); err != nil {
		ac.respondError(c, err)
		return
	}

	ac.logAuth(userID, "token_revoke", c.ClientIP(), nil)
	respond.Message(c, "token revoked", nil)
}

// ChangePassword replaces the caller's password after checking the current one.
func (ac *AuthController) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBind(&req); err != nil {
		respond.BadRequest(c, "current and new password are required")
		return
	}

	userID := GetUserID(c)
	err := ac.service.ChangePassword(userID, req.CurrentPassword, req.NewPassword)
	ac.logAuth(userID, "password_change", c.ClientIP(), err)
	if errors.Is(err, ErrInvalidPassword) {
		respond.BadRequest(c, "current password is incorrect")
		return
	}
	if err != nil {
		ac.respondError(c, err)
		return
	}
	respond.Message(c, "password changed", nil)
}

// startSession writes the session for user. On failure the response has
// already been written.
func (ac *AuthController) startSession(c *gin.Context, user *entities.User) error {
	if ac.sessionManager == nil {
		return nil
	}
	if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
		ac.logger.Error("failed to create session", zap.Uint("user_id", user.ID), zap.Error(err))
		respond.Internal(c)
		return err
	}
	return nil
}

func (ac *AuthController) tooManyAttempts(c *gin.Context, retryAfter time.Duration) {
	c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
	respond.Error(c, http.StatusTooManyRequests, respond.CodeRateLimited, "too many login attempts, try again later")
}

func (ac *AuthController) logAuth(userID uint, action, ip string, err error) {
	if ac.audit != nil {
		ac.audit.LogAuth(userID, action, ip, err)
	}
}

func (ac *AuthController) respondError(c *gin.Context, err error) {
	status, code, message, ok := ErrorResponse(err)
	if !ok {
		ac.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		respond.Internal(c)
		return
	}
	respond.Error(c, status, code, message)
}

// ErrorResponse maps account errors onto an HTTP status, envelope code and
// client-safe message. ok is false for errors it does not recognise.
func ErrorResponse(err error) (status int, code, message string, ok bool) {
	switch {
	case errors.Is(err, ErrInvalidPassword):
		return http.StatusUnauthorized, respond.CodeInvalidLogin, "invalid email or password", true
	case errors.Is(err, ErrAccountLocked):
		return http.StatusForbidden, CodeAccountLocked, err.Error(), true
	case errors.Is(err, ErrAccountInactive):
		return http.StatusForbidden, CodeAccountInactive, err.Error(), true
	case errors.Is(err, ErrCannotChangeSelf), errors.Is(err, ErrSystemAdminOnly):
		return http.StatusForbidden, respond.CodeForbidden, err.Error(), true
	case errors.Is(err, ErrUserExists):
		return http.StatusConflict, respond.CodeConflict, err.Error(), true
	case errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound, respond.CodeNotFound, err.Error(), true
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrTokenExpired):
		return http.StatusUnauthorized, respond.CodeUnauthenticated, err.Error(), true
	case errors.Is(err, ErrFullNameRequired),
		errors.Is(err, ErrEmailRequired),
		errors.Is(err, ErrPasswordRequired),
		errors.Is(err, ErrEmailInvalid),
		errors.Is(err, ErrInvalidRole),
		errors.Is(err, ErrPasswordTooShort),
		errors.Is(err, ErrPasswordTooLong):
		return http.StatusBadRequest, respond.CodeValidation, err.Error(), true
	}
	return 0, "", "", false
}
