package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

const pingTimeout = 2 * time.Second

// HealthStatus is ordered from best to worst.
type HealthStatus string

// Health statuses.
const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

func (h HealthStatus) rank() int {
	switch h {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Reports whether the store answers and the guest index is loaded. RSVPs are only accepted while the store is healthy.",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  HealthStatus `json:"status" enum:"healthy,degraded,unhealthy"`
	Latency string       `json:"latency,omitempty" doc:"Time taken by the check"`
	Message string       `json:"message,omitempty"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status        HealthStatus               `json:"status" enum:"healthy,degraded,unhealthy" doc:"Worst component status"`
	Backend       string                     `json:"backend" doc:"Store backend in use"`
	AcceptingRSVP bool                       `json:"accepting_rsvp" doc:"Whether submissions can currently be stored"`
	Components    map[string]ComponentHealth `json:"components"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	components := map[string]ComponentHealth{
		"database": s.checkDatabase(ctx),
		"search":   s.checkSearchIndex(),
	}

	overall := StatusHealthy
	for _, c := range components {
		if c.Status.rank() > overall.rank() {
			overall = c.Status
		}
	}

	return &HealthOutput{
		Body: HealthResponse{
			Status:        overall,
			Backend:       s.backend.Name(),
			AcceptingRSVP: components["database"].Status == StatusHealthy,
			Components:    components,
		},
	}, nil
}

func (s *Server) checkDatabase(ctx context.Context) ComponentHealth {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	start := time.Now()
	err := s.backend.Ping(ctx)
	h := ComponentHealth{Status: StatusHealthy, Latency: time.Since(start).String()}
	if err != nil {
		h.Status = StatusUnhealthy
		h.Message = err.Error()
	}
	return h
}

// checkSearchIndex reports on the in-memory guest index. Search is a host
// convenience, so a broken index only degrades the server.
func (s *Server) checkSearchIndex() ComponentHealth {
	if s.services.Index == nil {
		return ComponentHealth{Status: StatusDegraded, Message: "guest index not configured"}
	}

	count, err := s.services.Index.DocumentCount()
	if err != nil {
		return ComponentHealth{Status: StatusDegraded, Message: err.Error()}
	}

	noun := " guests indexed"
	if count == 1 {
		noun = " guest indexed"
	}
	return ComponentHealth{Status: StatusHealthy, Message: strconv.FormatUint(count, 10) + noun}
}
