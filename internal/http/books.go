package http

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/library/internal/audit"
	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/http/respond"
)

type createBookRequest struct {
	Title           string `json:"title" form:"title"`
	Author          string `json:"author" form:"author"`
	Genre           string `json:"genre" form:"genre"`
	Year            int    `json:"year" form:"year"`
	ISBN            string `json:"isbn" form:"isbn"`
	Description     string `json:"description" form:"description"`
	Location        string `json:"location" form:"location"`
	ReadingRoomOnly bool   `json:"reading_room_only" form:"reading_room_only"`
}

type accessRequest struct {
	ReadingRoomOnly *bool `json:"reading_room_only" form:"reading_room_only" binding:"required"`
}

// CatalogController serves the book catalog.
type CatalogController struct {
	books  *books.Repository
	audit  *audit.Service
	logger *zap.Logger
}

func NewCatalogController(repo *books.Repository, auditService *audit.Service, logger *zap.Logger) *CatalogController {
	return &CatalogController{books: repo, audit: auditService, logger: logger}
}

// List handles GET /api/books.
func (cc *CatalogController) List(c *gin.Context) {
	list, err := cc.books.GetAllBooks()
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}
	respond.OK(c, list)
}

// Search handles GET /api/books/search?q=...&field=title|author|genre|all.
func (cc *CatalogController) Search(c *gin.Context) {
	list, err := cc.books.Search(c.Query("q"), books.ParseSearchField(c.Query("field")))
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}
	respond.OK(c, list)
}

// Get handles GET /api/books/:id.
func (cc *CatalogController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	book, err := cc.books.GetBookByID(id)
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}
	respond.OK(c, book)
}

// Create handles POST /api/books.
func (cc *CatalogController) Create(c *gin.Context) {
	var req createBookRequest
	if err := c.ShouldBind(&req); err != nil {
		respond.BadRequest(c, "invalid book form")
		return
	}

	book, err := cc.books.CreateBook(books.NewBook{
		Title:           req.Title,
		Author:          req.Author,
		Genre:           req.Genre,
		Year:            req.Year,
		ISBN:            req.ISBN,
		Description:     req.Description,
		Location:        req.Location,
		ReadingRoomOnly: req.ReadingRoomOnly,
	})
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}

	cc.audit.LogCatalog(auth.GetUserID(c), "book_create", book.ID, fmt.Sprintf("Added %q by %s", book.Title, book.Author))
	respond.Created(c, "book added", book)
}

// SetAccess handles PATCH /api/books/:id/access.
func (cc *CatalogController) SetAccess(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req accessRequest
	if err := c.ShouldBind(&req); err != nil {
		respond.BadRequest(c, "reading_room_only is required")
		return
	}

	book, err := cc.books.SetReadingRoomOnly(id, *req.ReadingRoomOnly)
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}

	cc.audit.LogCatalog(auth.GetUserID(c), "access_change", book.ID, fmt.Sprintf("Reading room only set to %t", book.ReadingRoomOnly))
	respond.Message(c, "access rules updated", book)
}
