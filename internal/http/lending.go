package http

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/library/internal/audit"
	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/http/respond"
	"github.com/mrlokans/library/internal/lending"
)

type reserveRequest struct {
	BookID uint `json:"book_id" form:"book_id" binding:"required"`
}

// LendingController exposes the reservation and loan lifecycle.
type LendingController struct {
	lending *lending.Service
	audit   *audit.Service
	logger  *zap.Logger
}

func NewLendingController(service *lending.Service, auditService *audit.Service, logger *zap.Logger) *LendingController {
	return &LendingController{lending: service, audit: auditService, logger: logger}
}

// Reserve handles POST /api/reservations. Readers always reserve for
// themselves.
func (lc *LendingController) Reserve(c *gin.Context) {
	var req reserveRequest
	if err := c.ShouldBind(&req); err != nil {
		respond.BadRequest(c, "book_id is required")
		return
	}

	userID := auth.GetUserID(c)
	reservation, err := lc.lending.Reserve(c.Request.Context(), req.BookID, userID)
	if err != nil {
		lc.audit.LogReservation(userID, "reserve", 0, fmt.Sprintf("Reserve book %d", req.BookID), err)
		respondError(c, lc.logger, err)
		return
	}

	lc.audit.LogReservation(userID, "reserve", reservation.ID,
		fmt.Sprintf("Reserved book %d until %s", req.BookID, reservation.ExpiresAt.Format("2006-01-02 15:04")), nil)
	respond.Created(c, "book reserved", reservation)
}

// Cancel handles POST /api/reservations/:id/cancel.
func (lc *LendingController) Cancel(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	actor := auth.GetIdentity(c)
	reservation, err := lc.lending.CancelReservation(c.Request.Context(), id, actor)
	lc.audit.LogReservation(actor.UserID, "cancel", id, fmt.Sprintf("Cancel reservation %d", id), err)
	if err != nil {
		respondError(c, lc.logger, err)
		return
	}
	respond.Message(c, "reservation cancelled", reservation)
}

// MyBooks handles GET /api/my/books.
func (lc *LendingController) MyBooks(c *gin.Context) {
	shelf, err := lc.lending.ReaderShelf(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		respondError(c, lc.logger, err)
		return
	}
	respond.OK(c, shelf)
}

// ActiveReservations handles GET /api/reservations/active.
func (lc *LendingController) ActiveReservations(c *gin.Context) {
	list, err := lc.lending.ActiveReservations(c.Request.Context())
	if err != nil {
		respondError(c, lc.logger, err)
		return
	}
	respond.OK(c, list)
}

// Issue handles POST /api/reservations/:id/issue.
func (lc *LendingController) Issue(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	actorID := auth.GetUserID(c)
	loan, err := lc.lending.IssueBook(c.Request.Context(), id)
	if err != nil {
		lc.audit.LogLoan(actorID, "issue", 0, fmt.Sprintf("Issue reservation %d", id), err)
		respondError(c, lc.logger, err)
		return
	}

	lc.audit.LogLoan(actorID, "issue", loan.ID,
		fmt.Sprintf("Issued book %d to user %d, due %s", loan.BookID, loan.UserID, loan.DueAt.Format("2006-01-02")), nil)
	respond.Created(c, "book issued", loan)
}

// Return handles POST /api/loans/:id/return.
func (lc *LendingController) Return(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	loan, err := lc.lending.ReturnBook(c.Request.Context(), id)
	lc.audit.LogLoan(auth.GetUserID(c), "return", id, fmt.Sprintf("Return loan %d", id), err)
	if err != nil {
		respondError(c, lc.logger, err)
		return
	}
	respond.Message(c, "book returned", loan)
}

// ActiveLoans handles GET /api/loans/active.
func (lc *LendingController) ActiveLoans(c *gin.Context) {
	list, err := lc.lending.ActiveLoans(c.Request.Context())
	if err != nil {
		respondError(c, lc.logger, err)
		return
	}
	respond.OK(c, list)
}
