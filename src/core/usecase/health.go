package usecase

import (
	"context"
	"log/slog"

	"machinetools/src/core/ports"
)

// HealthService checks the dependencies the catalog needs.
type HealthService struct {
	db  ports.Repository
	log *slog.Logger
}

// NewHealthService creates a new HealthService.
func NewHealthService(db ports.Repository, log *slog.Logger) *HealthService {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &HealthService{
		db:  db,
		log: log,
	}
}

// HealthStatus represents the health of the application.
type HealthStatus struct {
	Status     string                     `json:"status" yaml:"status"`
	Components map[string]ComponentHealth `json:"components,omitempty" yaml:"components,omitempty"`
}

// ComponentHealth represents the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" yaml:"status"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Check performs a health check of all application components.
// Returns the overall health status.
func (s *HealthService) Check(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:     "ok",
		Components: make(map[string]ComponentHealth),
	}

	if err := s.db.Health(ctx); err != nil {
		s.log.Warn("database unhealthy", "error", err)
		status.Status = "degraded"
		status.Components["database"] = ComponentHealth{
			Status:  "unhealthy",
			Message: err.Error(),
		}
	} else {
		status.Components["database"] = ComponentHealth{Status: "healthy"}
	}

	return status
}

// Healthy reports whether every component is healthy.
func (s *HealthStatus) Healthy() bool {
	return s.Status == "ok"
}
