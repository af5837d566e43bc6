package handler

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"sync/atomic"
	"time"

	"github.com/compia/backend/internal/interfaces/http/dto"
	"github.com/compia/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const checkTimeout = 2 * time.Second

// CheckFunc probes one dependency
type CheckFunc func(ctx context.Context) error

// SystemHandler serves health, readiness and build information
type SystemHandler struct {
	BaseHandler
	startTime time.Time
	version   string
	database  CheckFunc
	deps      map[string]CheckFunc
	draining  atomic.Bool
}

// NewSystemHandler creates a new SystemHandler. database is probed by both
// health and readiness; extra dependencies only by readiness.
func NewSystemHandler(version string, database CheckFunc) *SystemHandler {
	return &SystemHandler{
		startTime: time.Now(),
		version:   version,
		database:  database,
		deps:      map[string]CheckFunc{},
	}
}

// AddCheck registers a dependency probed by Ready
func (h *SystemHandler) AddCheck(name string, check CheckFunc) {
	h.deps[name] = check
}

// Drain makes Ready fail so load balancers stop routing before shutdown
func (h *SystemHandler) Drain() {
	h.draining.Store(true)
}

// HealthResponse is the liveness probe body
type HealthResponse struct {
	Status   string `json:"status" example:"healthy"`
	Time     string `json:"time" example:"2026-01-23T12:00:00Z"`
	Database string `json:"database" example:"ok"`
}

// ReadyResponse is the readiness probe body
type ReadyResponse struct {
	Ready  bool              `json:"ready"`
	Checks map[string]string `json:"checks"`
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name" example:"compia"`
	Version   string `json:"version" example:"1.0.0"`
	GoVersion string `json:"go_version" example:"go1.25.5"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
}

// Health godoc
// @ID           health
// @Summary      Liveness probe
// @Tags         system
// @Produce      json
// @Success      200 {object} HealthResponse
// @Failure      503 {object} HealthResponse
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
	defer cancel()

	now := time.Now().Format(time.RFC3339)
	if err := h.database(ctx); err != nil {
		logger.L(c.Request.Context()).Warn("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "unhealthy", Time: now, Database: "error"})
		return
	}
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Time: now, Database: "ok"})
}

// Ready godoc
// @ID           ready
// @Summary      Readiness probe
// @Tags         system
// @Produce      json
// @Success      200 {object} ReadyResponse
// @Failure      503 {object} ReadyResponse
// @Router       /ready [get]
func (h *SystemHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
	defer cancel()

	resp := ReadyResponse{Ready: true, Checks: map[string]string{}}
	if h.draining.Load() {
		resp.Ready = false
		resp.Checks["server"] = "draining"
	}

	names := make([]string, 0, len(h.deps)+1)
	for name := range h.deps {
		names = append(names, name)
	}
	sort.Strings(names)
	checks := append([]string{"database"}, names...)

	for _, name := range checks {
		check := h.database
		if name != "database" {
			check = h.deps[name]
		}
		if err := check(ctx); err != nil {
			logger.L(c.Request.Context()).Warn("Readiness check failed", zap.String("check", name), zap.Error(err))
			resp.Ready = false
			resp.Checks[name] = "error"
			continue
		}
		resp.Checks[name] = "ok"
	}

	status := http.StatusOK
	if !resp.Ready {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

// GetSystemInfo godoc
// @ID           getSystemInfo
// @Summary      Get system information
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[SystemInfoResponse]
// @Security     BearerAuth
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(SystemInfoResponse{
		Name:      "compia",
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}))
}
