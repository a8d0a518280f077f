package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"crm/internal/cache"
	"crm/internal/config"
	"crm/internal/handler"
	"crm/internal/metrics"
	"crm/internal/middleware"
	"crm/internal/model"
	"crm/internal/repository"
	"crm/internal/validation"
)

// Deps are the collaborators the routes are wired to.
type Deps struct {
	Config      *config.Config
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
	Cache       *cache.Client
	AuditLogs   repository.AuditLogRepository
	Tokens      middleware.AccessVerifier
	LoadUser    middleware.UserLoader
	AuthHandler *handler.AuthHandler
	UserHandler *handler.UserHandler
}

// Register wires routes and middleware.
func Register(e *echo.Echo, d Deps) {
	e.HideBanner = true
	e.IPExtractor = middleware.ClientIP(d.Config.TrustedProxies)
	e.Validator = validation.New()
	e.HTTPErrorHandler = handler.NewErrorHandler(d.Logger)

	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(d.Logger))
	e.Use(echomw.Recover())
	e.Use(echomw.BodyLimit("1M"))
	e.Use(middleware.Metrics(d.Metrics))

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api/v1")
	authed := middleware.JWT(d.Tokens, d.LoadUser)
	audit := middleware.Audit(d.AuditLogs, d.Logger)

	// Public routes
	authGroup := api.Group("/auth")
	authGroup.POST("/register", d.AuthHandler.Register)
	authGroup.POST("/login", d.AuthHandler.Login,
		middleware.LoginThrottle(d.Cache, d.Config.LoginRateLimit, d.Config.LoginRateWindow))
	authGroup.POST("/refresh", d.AuthHandler.Refresh)

	// Secured routes (require an active account behind the access token)
	authGroup.POST("/logout", d.AuthHandler.Logout, authed, audit)
	authGroup.GET("/me", d.AuthHandler.Me, authed)

	users := api.Group("/users", authed, middleware.RequireRole(model.RoleAdmin), audit)
	users.GET("", d.UserHandler.ListUsers)
	users.GET("/:id", d.UserHandler.GetUser)
	users.PATCH("/:id/status", d.UserHandler.UpdateStatus)
	users.POST("/:id/unlock", d.UserHandler.Unlock)
}

// NewServer builds the http.Server used by the API binary.
func NewServer(e *echo.Echo, port string) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
