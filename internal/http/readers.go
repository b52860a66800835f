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

type enrollRequest struct {
	FullName  string `json:"full_name" form:"full_name"`
	Email     string `json:"email" form:"email"`
	StudentID string `json:"student_id" form:"student_id"`
	Category  string `json:"category" form:"category"`
}

// EnrolledReader is returned once, when staff register a reader.
type EnrolledReader struct {
	Reader            *entities.User `json:"reader"`
	TemporaryPassword string         `json:"temporary_password"`
}

type ReadersController struct {
	auth   *auth.Service
	users  *users.Repository
	audit  *audit.Service
	logger *zap.Logger
}

func NewReadersController(authService *auth.Service, repo *users.Repository, auditService *audit.Service, logger *zap.Logger) *ReadersController {
	return &ReadersController{auth: authService, users: repo, audit: auditService, logger: logger}
}

// List handles GET /api/readers.
func (rc *ReadersController) List(c *gin.Context) {
	readers, err := rc.users.ListActiveReaders()
	if err != nil {
		respondError(c, rc.logger, err)
		return
	}
	respond.OK(c, readers)
}

// Enroll handles POST /api/readers.
func (rc *ReadersController) Enroll(c *gin.Context) {
	var req enrollRequest
	if err := c.ShouldBind(&req); err != nil {
		respond.BadRequest(c, "invalid reader form")
		return
	}

	reader, password, err := rc.auth.EnrollReader(req.FullName, req.Email, req.StudentID, req.Category)
	if err != nil {
		respondError(c, rc.logger, err)
		return
	}

	rc.audit.LogUsers(auth.GetUserID(c), "reader_enroll", reader.ID, fmt.Sprintf("Registered reader %s", reader.Email))
	respond.Created(c, "reader registered", EnrolledReader{Reader: reader, TemporaryPassword: password})
}
