package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/library/internal/audit"
	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database"
	dbaudit "github.com/mrlokans/library/internal/database/audit"
	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/database/users"
	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/http/respond"
	"github.com/mrlokans/library/internal/lending"
	"github.com/mrlokans/library/internal/stats"
	"github.com/mrlokans/library/internal/tasks"
)

const testPassword = "correct-horse-battery"

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	db     *database.Database
	auth   *auth.Service
	audit  *audit.Service
	tokens map[entities.UserRole]string
	users  map[entities.UserRole]*entities.User
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

func setupServer(t *testing.T, mutate ...func(*RouterConfig)) *testServer {
	t.Helper()

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "library.db"), nil)
	require.NoError(t, err)

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sessions, err := auth.NewSessionManager(sqlDB, config.Auth{})
	require.NoError(t, err)

	authService := auth.NewService(db.DB, config.Auth{BcryptCost: 4})
	auditService := audit.NewService(dbaudit.NewRepository(db.DB), nil)
	limiter := auth.NewRateLimiter(config.Auth{})
	t.Cleanup(func() {
		limiter.Stop()
		auditService.Wait()
		db.Close()
	})

	cfg := RouterConfig{
		Database:       db,
		Lending:        lending.NewService(db.DB, config.Lending{}, nil),
		Books:          books.NewRepository(db.DB),
		Users:          users.NewRepository(db.DB),
		Stats:          stats.NewService(db.DB),
		Audit:          auditService,
		AuthService:    authService,
		SessionManager: sessions,
		RateLimiter:    limiter,
		Version:        "test",
	}
	for _, m := range mutate {
		m(&cfg)
	}

	s := &testServer{
		router: NewRouter(cfg),
		db:     db,
		auth:   authService,
		audit:  auditService,
		tokens: map[entities.UserRole]string{},
		users:  map[entities.UserRole]*entities.User{},
	}
	for _, role := range []entities.UserRole{entities.RoleReader, entities.RoleLibrarian, entities.RoleAdmin, entities.RoleSystemAdmin} {
		user, err := authService.CreateUser(auth.NewUser{
			Email:    string(role) + "@example.com",
			FullName: "Test " + string(role),
			Password: testPassword,
			Role:     role,
		})
		require.NoError(t, err)
		token, err := authService.GenerateToken(user.ID)
		require.NoError(t, err)
		s.users[role] = user
		s.tokens[role] = token
	}
	return s
}

func (s *testServer) book(t *testing.T, title string) *entities.Book {
	t.Helper()
	b := &entities.Book{Title: title, Author: "Mikhail Bulgakov", Genre: "Novel", Location: "Hall 2", Status: entities.BookAvailable}
	require.NoError(t, s.db.DB.Create(b).Error)
	return b
}

func (s *testServer) do(t *testing.T, method, path string, role entities.UserRole, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := s.tokens[role]; token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func TestRouter_Health(t *testing.T) {
	s := setupServer(t)

	w, _ := s.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	health := decode[HealthResponse](t, w.Body.Bytes())
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "ok", health.Checks["database"])
	assert.Equal(t, "test", health.Version)

	w, _ = s.do(t, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestRouter_RequiresAuthentication(t *testing.T) {
	s := setupServer(t)

	w, env := s.do(t, http.MethodGet, "/api/books", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, respond.CodeUnauthenticated, env.Code)

	w, env = s.do(t, http.MethodGet, "/api/nowhere", entities.RoleReader, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, respond.CodeNotFound, env.Code)
}

func TestRouter_CirculationFlow(t *testing.T) {
	s := setupServer(t)
	book := s.book(t, "The Master and Margarita")

	w, env := s.do(t, http.MethodPost, "/api/reservations", entities.RoleReader, gin.H{"book_id": book.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, env.Success)
	reservation := decode[entities.Reservation](t, env.Data)
	assert.Equal(t, entities.ReservationActive, reservation.Status)
	assert.Equal(t, s.users[entities.RoleReader].ID, reservation.UserID)

	w, env = s.do(t, http.MethodPost, "/api/reservations", entities.RoleReader, gin.H{"book_id": book.ID})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, CodeAlreadyReserved, env.Code)

	w, env = s.do(t, http.MethodPost, "/api/reservations", entities.RoleLibrarian, gin.H{"book_id": book.ID})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, CodeBookUnavailable, env.Code)

	w, env = s.do(t, http.MethodGet, "/api/my/books", entities.RoleReader, nil)
	require.Equal(t, http.StatusOK, w.Code)
	shelf := decode[lending.Shelf](t, env.Data)
	assert.Len(t, shelf.Reservations, 1)
	assert.Empty(t, shelf.Loans)

	issuePath := "/api/reservations/" + itoa(reservation.ID) + "/issue"
	w, env = s.do(t, http.MethodPost, issuePath, entities.RoleReader, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, respond.CodeForbidden, env.Code)

	w, env = s.do(t, http.MethodPost, issuePath, entities.RoleLibrarian, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	loan := decode[entities.Loan](t, env.Data)
	assert.Equal(t, entities.LoanActive, loan.Status)
	assert.Equal(t, book.ID, loan.BookID)

	w, env = s.do(t, http.MethodPost, issuePath, entities.RoleLibrarian, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, respond.CodeNotFound, env.Code)

	w, env = s.do(t, http.MethodGet, "/api/loans/active", entities.RoleLibrarian, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]lending.LoanView](t, env.Data), 1)

	w, _ = s.do(t, http.MethodPost, "/api/loans/"+itoa(loan.ID)+"/return", entities.RoleLibrarian, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env = s.do(t, http.MethodPost, "/api/loans/"+itoa(loan.ID)+"/return", entities.RoleLibrarian, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, respond.CodeNotFound, env.Code)

	w, env = s.do(t, http.MethodGet, "/api/books/"+itoa(book.ID), entities.RoleReader, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, entities.BookAvailable, decode[entities.Book](t, env.Data).Status)

	s.audit.Wait()
	events, total, err := s.audit.GetEvents(dbaudit.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(len(events)), total)
	actions := map[string]int{}
	for _, e := range events {
		actions[e.Action]++
	}
	assert.Equal(t, 3, actions["reserve"])
	assert.Equal(t, 2, actions["issue"])
	assert.Equal(t, 2, actions["return"])
}

func TestRouter_CancelReservation(t *testing.T) {
	s := setupServer(t)
	book := s.book(t, "Heart of a Dog")

	_, env := s.do(t, http.MethodPost, "/api/reservations", entities.RoleLibrarian, gin.H{"book_id": book.ID})
	reservation := decode[entities.Reservation](t, env.Data)
	cancelPath := "/api/reservations/" + itoa(reservation.ID) + "/cancel"

	w, env := s.do(t, http.MethodPost, cancelPath, entities.RoleReader, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, respond.CodeForbidden, env.Code)

	w, env = s.do(t, http.MethodPost, cancelPath, entities.RoleLibrarian, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, entities.ReservationCancelled, decode[entities.Reservation](t, env.Data).Status)

	w, env = s.do(t, http.MethodPost, cancelPath, entities.RoleLibrarian, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, CodeReservationClosed, env.Code)
}

func TestRouter_ValidationErrors(t *testing.T) {
	s := setupServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"non-numeric id", http.MethodGet, "/api/books/abc", nil, http.StatusBadRequest, respond.CodeValidation},
		{"zero id", http.MethodGet, "/api/books/0", nil, http.StatusBadRequest, respond.CodeValidation},
		{"missing book", http.MethodGet, "/api/books/999", nil, http.StatusNotFound, respond.CodeNotFound},
		{"reserve without book", http.MethodPost, "/api/reservations", gin.H{}, http.StatusBadRequest, respond.CodeValidation},
		{"reserve missing book", http.MethodPost, "/api/reservations", gin.H{"book_id": 999}, http.StatusNotFound, respond.CodeNotFound},
		{"issue missing reservation", http.MethodPost, "/api/reservations/999/issue", nil, http.StatusNotFound, respond.CodeNotFound},
		{"book without title", http.MethodPost, "/api/books", gin.H{"author": "A", "location": "L", "year": 2000}, http.StatusBadRequest, respond.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := s.do(t, tt.method, tt.path, entities.RoleLibrarian, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, env.Code)
			assert.False(t, env.Success)
		})
	}
}

func TestRouter_RoleGuards(t *testing.T) {
	s := setupServer(t)
	book := s.book(t, "The White Guard")
	bookPath := "/api/books/" + itoa(book.ID) + "/access"

	tests := []struct {
		method  string
		path    string
		body    any
		minimum entities.UserRole
	}{
		{http.MethodGet, "/api/dashboard", nil, entities.RoleReader},
		{http.MethodGet, "/api/reservations/active", nil, entities.RoleLibrarian},
		{http.MethodGet, "/api/loans/active", nil, entities.RoleLibrarian},
		{http.MethodGet, "/api/management/stats", nil, entities.RoleLibrarian},
		{http.MethodGet, "/api/readers", nil, entities.RoleLibrarian},
		{http.MethodPatch, bookPath, gin.H{"reading_room_only": true}, entities.RoleAdmin},
		{http.MethodGet, "/api/admin/stats", nil, entities.RoleAdmin},
		{http.MethodGet, "/api/admin/system-stats", nil, entities.RoleAdmin},
		{http.MethodGet, "/api/admin/users", nil, entities.RoleAdmin},
		{http.MethodGet, "/api/admin/logs", nil, entities.RoleSystemAdmin},
		{http.MethodGet, "/api/admin/tasks/types", nil, entities.RoleSystemAdmin},
	}
	rank := map[entities.UserRole]int{
		entities.RoleReader:      0,
		entities.RoleLibrarian:   1,
		entities.RoleAdmin:       2,
		entities.RoleSystemAdmin: 3,
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			for role, r := range rank {
				w, _ := s.do(t, tt.method, tt.path, role, tt.body)
				if r >= rank[tt.minimum] {
					assert.Equal(t, http.StatusOK, w.Code, "%s: %s", role, w.Body.String())
				} else {
					assert.Equal(t, http.StatusForbidden, w.Code, role)
				}
			}
		})
	}
}

func TestRouter_Catalog(t *testing.T) {
	s := setupServer(t)
	s.book(t, "The Master and Margarita")
	s.book(t, "Heart of a Dog")

	w, env := s.do(t, http.MethodPost, "/api/books", entities.RoleReader, gin.H{"title": "X"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = s.do(t, http.MethodPost, "/api/books", entities.RoleLibrarian, gin.H{
		"title":    "Anna Karenina",
		"author":   "Leo Tolstoy",
		"genre":    "Novel",
		"year":     1878,
		"location": "Hall 1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[entities.Book](t, env.Data)
	assert.Equal(t, entities.BookAvailable, created.Status)

	w, env = s.do(t, http.MethodGet, "/api/books", entities.RoleReader, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]entities.Book](t, env.Data), 3)

	w, env = s.do(t, http.MethodGet, "/api/books/search?q=tolstoy&field=author", entities.RoleReader, nil)
	require.Equal(t, http.StatusOK, w.Code)
	found := decode[[]entities.Book](t, env.Data)
	require.Len(t, found, 1)
	assert.Equal(t, created.ID, found[0].ID)

	path := "/api/books/" + itoa(created.ID) + "/access"
	w, env = s.do(t, http.MethodPatch, path, entities.RoleAdmin, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(t, http.MethodPatch, path, entities.RoleAdmin, gin.H{"reading_room_only": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[entities.Book](t, env.Data).ReadingRoomOnly)
}

func TestRouter_Readers(t *testing.T) {
	s := setupServer(t)

	w, env := s.do(t, http.MethodPost, "/api/readers", entities.RoleLibrarian, gin.H{
		"full_name": "Ivan Petrov",
		"email":     "ivan@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	enrolled := decode[EnrolledReader](t, env.Data)
	assert.Len(t, enrolled.TemporaryPassword, auth.TemporaryPasswordLength)
	assert.Equal(t, entities.DefaultReaderCategory, enrolled.Reader.Category)

	_, err := s.auth.Authenticate("ivan@example.com", enrolled.TemporaryPassword)
	assert.NoError(t, err)

	w, env = s.do(t, http.MethodPost, "/api/readers", entities.RoleLibrarian, gin.H{
		"full_name": "Ivan Again",
		"email":     "IVAN@example.com",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, respond.CodeConflict, env.Code)

	w, env = s.do(t, http.MethodGet, "/api/readers", entities.RoleLibrarian, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]entities.User](t, env.Data), 2)
}

func TestRouter_UserAdministration(t *testing.T) {
	s := setupServer(t)
	reader := s.users[entities.RoleReader]
	rolePath := "/api/admin/users/" + itoa(reader.ID) + "/role"

	w, env := s.do(t, http.MethodPatch, rolePath, entities.RoleAdmin, gin.H{"role": "overlord"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, respond.CodeValidation, env.Code)

	w, env = s.do(t, http.MethodPatch, rolePath, entities.RoleAdmin, gin.H{"role": "librarian"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, entities.RoleLibrarian, decode[entities.User](t, env.Data).Role)

	w, env = s.do(t, http.MethodPatch, rolePath, entities.RoleAdmin, gin.H{"role": "system_admin"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, respond.CodeForbidden, env.Code)

	sysadminPath := "/api/admin/users/" + itoa(s.users[entities.RoleSystemAdmin].ID) + "/role"
	w, _ = s.do(t, http.MethodPatch, sysadminPath, entities.RoleAdmin, gin.H{"role": "reader"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	adminPath := "/api/admin/users/" + itoa(s.users[entities.RoleAdmin].ID) + "/role"
	w, _ = s.do(t, http.MethodPatch, adminPath, entities.RoleAdmin, gin.H{"role": "reader"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	deactivatePath := "/api/admin/users/" + itoa(reader.ID) + "/deactivate"
	w, _ = s.do(t, http.MethodPost, deactivatePath, entities.RoleAdmin, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = s.do(t, http.MethodPost, deactivatePath, entities.RoleSystemAdmin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[entities.User](t, env.Data).IsActive)

	w, _ = s.do(t, http.MethodGet, "/api/my/books", entities.RoleReader, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_AuditLogs(t *testing.T) {
	s := setupServer(t)
	book := s.book(t, "Dead Souls")
	s.do(t, http.MethodPost, "/api/reservations", entities.RoleReader, gin.H{"book_id": book.ID})
	s.do(t, http.MethodPost, "/api/reservations", entities.RoleReader, gin.H{"book_id": book.ID})
	s.audit.Wait()

	w, env := s.do(t, http.MethodGet, "/api/admin/logs?type=reservation&limit=1", entities.RoleSystemAdmin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	page := decode[struct {
		Items   []entities.AuditEvent `json:"items"`
		Total   int64                 `json:"total"`
		Limit   int                   `json:"limit"`
		HasMore bool                  `json:"has_more"`
	}](t, env.Data)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 1, page.Limit)
	assert.True(t, page.HasMore)
	require.Len(t, page.Items, 1)

	w, env = s.do(t, http.MethodGet, "/api/admin/logs?type=reservation", entities.RoleSystemAdmin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	all := decode[struct {
		Items []entities.AuditEvent `json:"items"`
	}](t, env.Data)
	statuses := make([]entities.AuditStatus, 0, len(all.Items))
	for _, e := range all.Items {
		statuses = append(statuses, e.Status)
	}
	assert.ElementsMatch(t, []entities.AuditStatus{entities.AuditStatusSuccess, entities.AuditStatusFailed}, statuses)

	w, _ = s.do(t, http.MethodGet, "/api/admin/logs?type=bogus", entities.RoleSystemAdmin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/admin/logs?user_id=x", entities.RoleSystemAdmin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type fakeRunner struct {
	ran []string
	err error
}

func (f *fakeRunner) RunNow(_ context.Context, taskType string) (string, error) {
	f.ran = append(f.ran, taskType)
	return "expired 0 reservations", f.err
}

type fakeQueue struct {
	added  []backlite.Task
	status backlite.TaskStatus
}

func (f *fakeQueue) Enqueue(_ context.Context, task backlite.Task) (string, error) {
	f.added = append(f.added, task)
	return "task-1", nil
}

func (f *fakeQueue) Status(_ context.Context, _ string) (backlite.TaskStatus, error) {
	return f.status, nil
}

func TestRouter_TasksDirect(t *testing.T) {
	runner := &fakeRunner{}
	s := setupServer(t, func(cfg *RouterConfig) { cfg.JobRunner = runner })

	w, env := s.do(t, http.MethodGet, "/api/admin/tasks/types", entities.RoleSystemAdmin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, tasks.Types(), decode[[]string](t, env.Data))

	w, env = s.do(t, http.MethodPost, "/api/admin/tasks/expire_reservations/run", entities.RoleSystemAdmin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	run := decode[TaskRun](t, env.Data)
	assert.Equal(t, "expired 0 reservations", run.Summary)
	assert.Empty(t, run.TaskID)
	assert.Equal(t, []string{tasks.TypeExpireReservations}, runner.ran)

	w, env = s.do(t, http.MethodPost, "/api/admin/tasks/enrich_book/run", entities.RoleSystemAdmin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, CodeUnknownTaskType, env.Code)

	w, env = s.do(t, http.MethodGet, "/api/admin/tasks/task-1", entities.RoleSystemAdmin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, CodeTaskQueueDisabled, env.Code)
}

func TestRouter_TasksQueued(t *testing.T) {
	queue := &fakeQueue{status: backlite.TaskStatusSuccess}
	s := setupServer(t, func(cfg *RouterConfig) { cfg.TaskQueue = queue })

	w, env := s.do(t, http.MethodPost, "/api/admin/tasks/cleanup_audit_events/run", entities.RoleSystemAdmin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "task-1", decode[TaskRun](t, env.Data).TaskID)
	require.Len(t, queue.added, 1)
	assert.IsType(t, tasks.CleanupAuditEventsTask{}, queue.added[0])

	w, env = s.do(t, http.MethodGet, "/api/admin/tasks/task-1", entities.RoleSystemAdmin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, TaskStatusResponse{TaskID: "task-1", Status: "success"}, decode[TaskStatusResponse](t, env.Data))

	queue.status = backlite.TaskStatusNotFound
	w, _ = s.do(t, http.MethodGet, "/api/admin/tasks/task-2", entities.RoleSystemAdmin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_SessionLogin(t *testing.T) {
	s := setupServer(t)

	body, _ := json.Marshal(gin.H{"email": "reader@example.com", "password": testPassword})
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	req = httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}
