package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/database/users"
	"github.com/mrlokans/library/internal/http/respond"
	"github.com/mrlokans/library/internal/lending"
	"github.com/mrlokans/library/internal/scheduler"
	"github.com/mrlokans/library/internal/tasks"
)

// Envelope codes specific to circulation and task endpoints.
const (
	CodeBookUnavailable   = "book_unavailable"
	CodeAlreadyReserved   = "already_reserved"
	CodeReservationClosed = "reservation_not_active"
	CodeUnknownTaskType   = "unknown_task_type"
	CodeTaskQueueDisabled = "task_queue_disabled"
	CodeTaskRunning       = "task_running"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorTable = []errorMapping{
	{lending.ErrBookNotFound, http.StatusNotFound, respond.CodeNotFound},
	{lending.ErrUserNotFound, http.StatusNotFound, respond.CodeNotFound},
	{lending.ErrReservationNotFound, http.StatusNotFound, respond.CodeNotFound},
	{lending.ErrLoanNotFound, http.StatusNotFound, respond.CodeNotFound},
	{books.ErrNotFound, http.StatusNotFound, respond.CodeNotFound},
	{users.ErrNotFound, http.StatusNotFound, respond.CodeNotFound},
	{lending.ErrBookUnavailable, http.StatusConflict, CodeBookUnavailable},
	{lending.ErrAlreadyReserved, http.StatusConflict, CodeAlreadyReserved},
	{lending.ErrReservationNotActive, http.StatusConflict, CodeReservationClosed},
	{lending.ErrNotReservationOwner, http.StatusForbidden, respond.CodeForbidden},
	{lending.ErrUserInactive, http.StatusForbidden, auth.CodeAccountInactive},
	{books.ErrInvalidBook, http.StatusBadRequest, respond.CodeValidation},
	{tasks.ErrUnknownTaskType, http.StatusNotFound, CodeUnknownTaskType},
	{scheduler.ErrJobRunning, http.StatusConflict, CodeTaskRunning},
}

// respondError writes the envelope for err. Errors outside the table are
// logged and reported as a generic 500.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			respond.Error(c, m.status, m.code, err.Error())
			return
		}
	}
	if status, code, message, ok := auth.ErrorResponse(err); ok {
		respond.Error(c, status, code, message)
		return
	}

	logger.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.String("request_id", GetRequestID(c)),
		zap.Error(err))
	respond.Internal(c)
}
