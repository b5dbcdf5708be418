package health

import (
	"context"
	"time"

	"github.com/Ayash-Bera/reelscout/internal/database"
	"github.com/Ayash-Bera/reelscout/internal/models"
	"github.com/Ayash-Bera/reelscout/internal/recommender"
	"github.com/sirupsen/logrus"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// HealthChecker reports on the recommendation backend and on whichever
// stores the gateway was configured with.
type HealthChecker struct {
	backend    recommender.Backend
	dbManager  *database.Manager
	cache      *database.Cache
	healthRepo models.SystemHealthRepository
	logger     *logrus.Logger
	startTime  time.Time
}

// NewHealthChecker builds a checker. healthRepo may be nil when analytics
// are disabled; results are then only cached, not persisted.
func NewHealthChecker(backend recommender.Backend, dbManager *database.Manager, healthRepo models.SystemHealthRepository, logger *logrus.Logger) *HealthChecker {
	h := &HealthChecker{
		backend:    backend,
		dbManager:  dbManager,
		healthRepo: healthRepo,
		logger:     logger,
		startTime:  time.Now(),
	}
	if dbManager != nil && dbManager.Redis != nil {
		h.cache = database.NewCache(dbManager.Redis, logger)
	}
	return h
}

// ServiceHealth is the outcome of one check.
type ServiceHealth struct {
	Name         string `json:"name"`
	Status       string `json:"status"`
	ResponseTime int    `json:"response_time_ms"`
	Error        string `json:"error,omitempty"`
	LastChecked  string `json:"last_checked"`
}

type OverallHealth struct {
	Status   string          `json:"status"`
	Services []ServiceHealth `json:"services"`
	Uptime   string          `json:"uptime"`
}

func (h *HealthChecker) CheckBackend(ctx context.Context) ServiceHealth {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return h.check("recommender", StatusUnhealthy, func() error {
		return h.backend.Health(ctx)
	})
}

func (h *HealthChecker) CheckPostgreSQL() ServiceHealth {
	return h.check("postgresql", StatusDegraded, h.dbManager.PingDatabase)
}

func (h *HealthChecker) CheckRedis() ServiceHealth {
	return h.check("redis", StatusDegraded, h.dbManager.PingRedis)
}

// check runs ping and reports failureStatus when it errors. Store outages
// only degrade the gateway; a backend outage makes it unhealthy.
func (h *HealthChecker) check(name, failureStatus string, ping func() error) ServiceHealth {
	start := time.Now()
	err := ping()
	responseTime := int(time.Since(start).Milliseconds())

	status := StatusHealthy
	errorMsg := ""
	if err != nil {
		status = failureStatus
		errorMsg = err.Error()
		h.logger.WithError(err).WithField("service", name).Error("Health check failed")
	}

	if h.healthRepo != nil {
		if err := h.healthRepo.UpdateServiceHealth(name, status, responseTime, errorMsg); err != nil {
			h.logger.WithError(err).Warn("Failed to persist health status")
		}
	}

	return ServiceHealth{
		Name:         name,
		Status:       status,
		ResponseTime: responseTime,
		Error:        errorMsg,
		LastChecked:  time.Now().Format(time.RFC3339),
	}
}

// CheckAll checks the backend plus every configured store.
func (h *HealthChecker) CheckAll(ctx context.Context) OverallHealth {
	services := []ServiceHealth{h.CheckBackend(ctx)}
	if h.dbManager != nil && h.dbManager.DB != nil {
		services = append(services, h.CheckPostgreSQL())
	}
	if h.dbManager != nil && h.dbManager.Redis != nil {
		services = append(services, h.CheckRedis())
	}

	return OverallHealth{
		Status:   overallStatus(services),
		Services: services,
		Uptime:   h.getUptime(),
	}
}

func overallStatus(services []ServiceHealth) string {
	status := StatusHealthy
	for _, service := range services {
		if service.Status == StatusUnhealthy {
			return StatusUnhealthy
		}
		if service.Status == StatusDegraded {
			status = StatusDegraded
		}
	}
	return status
}

// CheckCached returns the last periodic result if one is cached. Without
// Redis it always reports database.ErrCacheMiss.
func (h *HealthChecker) CheckCached(ctx context.Context) (*OverallHealth, error) {
	if h.cache == nil {
		return nil, database.ErrCacheMiss
	}
	cachedHealth, err := h.cache.GetCachedSystemHealth(ctx)
	if err != nil {
		return nil, err
	}

	services := make([]ServiceHealth, len(cachedHealth))
	for i, health := range cachedHealth {
		services[i] = ServiceHealth{
			Name:         health.ServiceName,
			Status:       health.Status,
			ResponseTime: health.ResponseTimeMs,
			Error:        health.ErrorMessage,
			LastChecked:  health.CheckedAt.Format(time.RFC3339),
		}
	}

	return &OverallHealth{
		Status:   overallStatus(services),
		Services: services,
		Uptime:   h.getUptime(),
	}, nil
}

// Current prefers the cached result and falls back to a live check.
func (h *HealthChecker) Current(ctx context.Context) OverallHealth {
	if cached, err := h.CheckCached(ctx); err == nil {
		return *cached
	}
	return h.CheckAll(ctx)
}

func (h *HealthChecker) getUptime() string {
	return time.Since(h.startTime).Round(time.Second).String()
}

// RefreshCache runs a full check and caches it for ttl.
func (h *HealthChecker) RefreshCache(ctx context.Context, ttl time.Duration) OverallHealth {
	health := h.CheckAll(ctx)
	if h.cache == nil {
		return health
	}

	healthModels := make([]models.SystemHealth, len(health.Services))
	for i, service := range health.Services {
		checkedAt, _ := time.Parse(time.RFC3339, service.LastChecked)
		healthModels[i] = models.SystemHealth{
			ServiceName:    service.Name,
			Status:         service.Status,
			ResponseTimeMs: service.ResponseTime,
			ErrorMessage:   service.Error,
			CheckedAt:      checkedAt,
		}
	}

	cacheCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := h.cache.CacheSystemHealth(cacheCtx, healthModels, ttl); err != nil {
		h.logger.WithError(err).Error("Failed to cache health status")
	}
	return health
}

// PeriodicHealthCheck refreshes the cached result every interval until ctx
// is cancelled.
func (h *HealthChecker) PeriodicHealthCheck(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			health := h.RefreshCache(ctx, 2*interval)
			h.logger.WithField("status", health.Status).Debug("Periodic health check completed")
		}
	}
}
