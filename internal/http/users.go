package http

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/library/internal/audit"
	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/database/users"
	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/http/respond"
)

type changeRoleRequest struct {
	Role string `json:"role" form:"role" binding:"required"`
}

// UsersController implements account administration.
type UsersController struct {
	auth   *auth.Service
	users  *users.Repository
	audit  *audit.Service
	logger *zap.Logger
}

func NewUsersController(authService *auth.Service, repo *users.Repository, auditService *audit.Service, logger *zap.Logger) *UsersController {
	return &UsersController{auth: authService, users: repo, audit: auditService, logger: logger}
}

// List handles GET /api/admin/users.
func (uc *UsersController) List(c *gin.Context) {
	list, err := uc.users.ListUsers()
	if err != nil {
		respondError(c, uc.logger, err)
		return
	}
	respond.OK(c, list)
}

// ChangeRole handles PATCH /api/admin/users/:id/role.
func (uc *UsersController) ChangeRole(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req changeRoleRequest
	if err := c.ShouldBind(&req); err != nil {
		respond.BadRequest(c, "role is required")
		return
	}
	role, valid := entities.ParseUserRole(req.Role)
	if !valid {
		respondError(c, uc.logger, auth.ErrInvalidRole)
		return
	}

	user, err := uc.auth.ChangeRole(auth.GetIdentity(c), id, role)
	if err != nil {
		respondError(c, uc.logger, err)
		return
	}

	uc.audit.LogUsers(auth.GetUserID(c), "role_change", user.ID, fmt.Sprintf("Role of %s set to %s", user.Email, user.Role))
	respond.Message(c, "role updated", user)
}

// Deactivate handles POST /api/admin/users/:id/deactivate.
func (uc *UsersController) Deactivate(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := uc.auth.Deactivate(auth.GetIdentity(c), id)
	if err != nil {
		respondError(c, uc.logger, err)
		return
	}

	uc.audit.LogUsers(auth.GetUserID(c), "deactivate", user.ID, fmt.Sprintf("Deactivated %s", user.Email))
	respond.Message(c, "user deactivated", user)
}
