package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/http/respond"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(RequestID())
	router.Use(RequestLogger(logger))
	router.Use(Recovery(logger))
	router.Use(auth.SecurityHeadersMiddleware(cfg.HSTS))

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, cfg.AuthService))
	}
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}
	router.Use(auth.NewMiddleware(cfg.AuthService, cfg.SessionManager).Handler())

	health := NewHealthController(cfg.Database, cfg.Version)
	authController := auth.NewAuthController(cfg.AuthService, cfg.SessionManager, cfg.RateLimiter, cfg.Audit, logger)
	catalog := NewCatalogController(cfg.Books, cfg.Audit, logger)
	lendingController := NewLendingController(cfg.Lending, cfg.Audit, logger)
	readers := NewReadersController(cfg.AuthService, cfg.Users, cfg.Audit, logger)
	usersController := NewUsersController(cfg.AuthService, cfg.Users, cfg.Audit, logger)
	statsController := NewStatsController(cfg.Stats, logger)
	auditController := NewAuditController(cfg.Audit, logger)
	tasksController := NewTasksController(cfg.TaskQueue, cfg.JobRunner, logger)

	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)
	authController.RegisterRoutes(router)

	api := router.Group("/api")
	authController.RegisterAPIRoutes(api)
	api.GET("/dashboard", statsController.Dashboard)

	// Catalog
	api.GET("/books", catalog.List)
	api.GET("/books/search", catalog.Search)
	api.GET("/books/:id", catalog.Get)
	api.POST("/books", auth.RequireStaff(), catalog.Create)
	api.PATCH("/books/:id/access", auth.RequireAdmin(), catalog.SetAccess)

	// Reader side of the lifecycle
	api.POST("/reservations", lendingController.Reserve)
	api.POST("/reservations/:id/cancel", lendingController.Cancel)
	api.GET("/my/books", lendingController.MyBooks)

	// Desk operations
	staff := api.Group("", auth.RequireStaff())
	{
		staff.GET("/reservations/active", lendingController.ActiveReservations)
		staff.POST("/reservations/:id/issue", lendingController.Issue)
		staff.POST("/loans/:id/return", lendingController.Return)
		staff.GET("/loans/active", lendingController.ActiveLoans)
		staff.GET("/management/stats", statsController.Management)
		staff.GET("/readers", readers.List)
		staff.POST("/readers", readers.Enroll)
	}

	admin := api.Group("/admin", auth.RequireAdmin())
	{
		admin.GET("/stats", statsController.AdminOverview)
		admin.GET("/system-stats", statsController.SystemStats)
		admin.GET("/users", usersController.List)
		admin.PATCH("/users/:id/role", usersController.ChangeRole)
	}

	system := api.Group("/admin", auth.RequireRole(entities.RoleSystemAdmin))
	{
		system.POST("/users/:id/deactivate", usersController.Deactivate)
		system.GET("/logs", auditController.Logs)
		system.GET("/tasks/types", tasksController.Types)
		system.POST("/tasks/:type/run", tasksController.Run)
		system.GET("/tasks/:id", tasksController.Status)
	}

	router.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "route not found")
	})

	return router
}
