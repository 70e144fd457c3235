package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sumire/issuetracker/internal/service"
)

// RouterConfig holds the dependencies of the HTTP router.
type RouterConfig struct {
	Issues         *service.IssueService
	Metrics        *Metrics
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
	BodyLimit      string
}

// NewRouter builds the echo instance serving the API. Metrics and Gatherer
// are optional.
func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = HTTPErrorHandler

	e.Use(RequestID())
	e.Use(RequestLogger())
	e.Use(middleware.Recover())
	if cfg.Metrics != nil {
		e.Use(cfg.Metrics.Middleware())
	}
	if len(cfg.AllowedOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:  cfg.AllowedOrigins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:  []string{echo.HeaderAccept, echo.HeaderContentType},
			ExposeHeaders: []string{echo.HeaderXRequestID},
			MaxAge:        300,
		}))
	}
	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	issues := NewIssueHandler(cfg.Issues, cfg.Metrics)

	api := e.Group("/api")
	api.GET("/projects", issues.Projects)
	api.GET("/issues/:project", issues.List)
	api.POST("/issues/:project", issues.Create)
	api.PUT("/issues/:project", issues.Update)
	api.DELETE("/issues/:project", issues.Delete)

	return e
}
