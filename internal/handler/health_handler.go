package handler

import (
	"net/http"
	"time"

	"storefront/internal/config"

	"github.com/labstack/echo/v4"
)

type HealthHandler struct {
	version     string
	environment string
	now         func() time.Time
}

func NewHealthHandler(cfg config.Config) *HealthHandler {
	return &HealthHandler{version: cfg.Version, environment: cfg.GoEnv, now: time.Now}
}

type HealthResponse struct {
	Status      string    `json:"status"`
	Version     string    `json:"version"`
	Timestamp   time.Time `json:"timestamp"`
	Environment string    `json:"environment"`
}

func (h *HealthHandler) RegisterRoutes(api *echo.Group, g Guards) {
	api.GET("/health", h.health)
}

func (h *HealthHandler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:      "ok",
		Version:     h.version,
		Timestamp:   h.now().UTC(),
		Environment: h.environment,
	})
}
