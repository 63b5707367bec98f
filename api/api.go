// Package api exposes the task manager over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"taskmanager-api/auth"
	"taskmanager-api/domain"
)

const maxBodySize = "10M"

// HealthChecker reports whether a backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators of the HTTP layer. Deduper and Registry may be
// nil; idempotency keys are then ignored and a private registry is used.
type Deps struct {
	Users    *domain.UserService
	Projects *domain.ProjectService
	Desks    *domain.DeskService
	Tasks    *domain.TaskService
	Auth     *auth.Service
	Tokens   *auth.Validator
	Deduper  Deduper
	Health   HealthChecker
	Registry *prometheus.Registry
	Logger   *log.Logger
}

type handlers struct {
	users    *domain.UserService
	projects *domain.ProjectService
	desks    *domain.DeskService
	tasks    *domain.TaskService
	auth     *auth.Service
	health   HealthChecker
	log      *log.Entry
}

// Register configures e and mounts every route.
func Register(e *echo.Echo, d Deps) {
	logger := d.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	registry := d.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e.HideBanner = true
	e.JSONSerializer = sonicSerializer{}
	e.HTTPErrorHandler = newErrorHandler(logger)

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "taskmanager",
		Registerer: registry,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))
	e.Use(requestObservability(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(maxBodySize))
	e.Use(gzipRequest())

	h := &handlers{
		users:    d.Users,
		projects: d.Projects,
		desks:    d.Desks,
		tasks:    d.Tasks,
		auth:     d.Auth,
		health:   d.Health,
		log:      logger.WithField("component", "api"),
	}

	e.GET("/healthz", h.healthz)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: registry}))

	authed := requireAuth(d.Tokens)
	idem := idempotency(d.Deduper, logger)
	base := e.Group("/api")

	account := base.Group("/account")
	account.POST("/auth", h.basicLogin)
	account.POST("/login", h.jsonLogin)
	account.GET("/info", h.accountInfo, authed)
	account.PUT("/update", h.accountUpdate, authed)

	users := base.Group("/users", authed, requireRole(domain.StatusAdmin))
	users.POST("/create", h.createUser, idem)
	users.POST("/create/bulk", h.createUsers, idem)
	users.GET("/all", h.listUsers)
	users.GET("/:id", h.getUser)
	users.PUT("/:id", h.updateUser)
	users.DELETE("/:id", h.deleteUser)

	projects := base.Group("/project", authed)
	projects.POST("/create", h.createProject, idem)
	projects.GET("/all", h.listProjects)
	projects.GET("/user/:userId", h.listUserProjects)
	projects.GET("/:id", h.getProject)
	projects.PUT("/:id", h.updateProject)
	projects.DELETE("/:id", h.deleteProject)
	projects.POST("/:projectId/users/:userId", h.addProjectUser)
	projects.DELETE("/:projectId/users/:userId", h.removeProjectUser)

	desks := base.Group("/desk", authed)
	desks.POST("/create", h.createDesk, idem)
	desks.GET("/all", h.listDesks)
	desks.GET("/:id", h.getDesk)
	desks.PUT("/:id", h.updateDesk)
	desks.DELETE("/:id", h.deleteDesk)

	tasks := base.Group("/task", authed)
	tasks.POST("/create", h.createTask, idem)
	tasks.GET("", h.listTasks)
	tasks.GET("/my-tasks", h.myTasks)
	tasks.GET("/desk/:deskId", h.listDeskTasks)
	tasks.GET("/column/:columnId", h.listColumnTasks)
	tasks.GET("/:id", h.getTask)
	tasks.PUT("/:id", h.updateTask)
	tasks.PUT("/:id/move", h.moveTask)
	tasks.PUT("/:id/assign", h.assignTask)
	tasks.DELETE("/:id", h.deleteTask)
}

func (h *handlers) healthz(c echo.Context) error {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.health.Ping(ctx); err != nil {
			h.log.WithError(err).Warn("health check failed")
			return c.JSON(http.StatusServiceUnavailable, statusResponse{Status: "unavailable"})
		}
	}
	return c.JSON(http.StatusOK, statusResponse{Status: "ok"})
}
