package api

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/charlesng35/releasetrack/internal/app"
	"github.com/charlesng35/releasetrack/internal/handlers"
	"github.com/charlesng35/releasetrack/internal/middleware"
	"github.com/charlesng35/releasetrack/internal/services"
	"github.com/charlesng35/releasetrack/pkg/mail"
)

// Dependencies carries the long-lived collaborators the router hands to handlers.
type Dependencies struct {
	DB     *gorm.DB
	Config *app.Config
	// Sender delivers relay requests to the provider.
	Sender mail.Sender
	// Notifier receives committed ticket mutations. Nil disables email notifications.
	Notifier  services.TicketNotifier
	RateStore middleware.RateStore
}

// NewRouter builds the Gin engine, wires middleware and registers every route.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if deps.DB == nil {
		return nil, errors.New("database handle must be provided")
	}
	if deps.Config == nil {
		return nil, errors.New("config must be provided")
	}
	if deps.Sender == nil {
		return nil, errors.New("email sender must be provided")
	}
	cfg := deps.Config

	rateStore := deps.RateStore
	if rateStore == nil {
		rateStore = middleware.NewMemoryRateStore()
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger("/api/health", "/metrics"))
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders(cfg.Server.HSTS))
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Actor())

	api := r.Group("/api")

	registerHealthRoutes(api, cfg.Email.Settings())

	emailHandler, err := handlers.NewEmailHandler(deps.Sender)
	if err != nil {
		return nil, err
	}
	registerRelayRoutes(api, emailHandler, middleware.RateLimit(rateStore, cfg.RateLimit.Requests, cfg.RateLimit.Window))

	if err := registerTicketRoutes(api, deps.DB, deps.Notifier); err != nil {
		return nil, err
	}

	userHandler, err := handlers.NewUserHandler(deps.DB)
	if err != nil {
		return nil, err
	}
	registerUserRoutes(api, userHandler)

	logHandler, err := handlers.NewNotificationLogHandler(deps.DB)
	if err != nil {
		return nil, err
	}
	api.GET("/notification-logs", logHandler.List)

	releaseHandler, err := handlers.NewReleaseHandler(deps.DB)
	if err != nil {
		return nil, err
	}
	registerReleaseRoutes(api, releaseHandler)

	jumbotronHandler, err := handlers.NewJumbotronHandler(deps.DB)
	if err != nil {
		return nil, err
	}
	settingsHandler, err := handlers.NewSettingsHandler(deps.DB)
	if err != nil {
		return nil, err
	}
	registerSiteRoutes(api, jumbotronHandler, settingsHandler)

	// Metrics endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
