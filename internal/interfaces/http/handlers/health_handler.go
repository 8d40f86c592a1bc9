package handlers

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/turtacn/KeyIP-Depict/pkg/types/common"
)

// HealthChecker is an interface for components that can report their health.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

// CheckFunc adapts a ping function to HealthChecker.
type CheckFunc struct {
	name string
	fn   func(ctx context.Context) error
}

// NewCheck names fn as a HealthChecker.
func NewCheck(name string, fn func(ctx context.Context) error) CheckFunc {
	return CheckFunc{name: name, fn: fn}
}

func (c CheckFunc) Name() string                    { return c.name }
func (c CheckFunc) Check(ctx context.Context) error { return c.fn(ctx) }

// HealthHandler handles health check HTTP requests.
type HealthHandler struct {
	checkers []HealthChecker
	version  string
	startAt  time.Time
	timeout  time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(version string, checkers ...HealthChecker) *HealthHandler {
	return &HealthHandler{
		checkers: checkers,
		version:  version,
		startAt:  time.Now(),
		timeout:  5 * time.Second,
	}
}

// LivenessResponse is the response for liveness probe.
type LivenessResponse struct {
	Status  common.HealthStatus `json:"status"`
	Version string              `json:"version"`
	Uptime  string              `json:"uptime"`
}

// ReadinessResponse is the response for readiness probe.
type ReadinessResponse struct {
	Status     common.HealthStatus      `json:"status"`
	Components []common.ComponentHealth `json:"components,omitempty"`
}

// Liveness handles GET /healthz.  It never touches a dependency.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LivenessResponse{
		Status:  common.HealthUp,
		Version: h.version,
		Uptime:  time.Since(h.startAt).Truncate(time.Second).String(),
	})
}

// Readiness handles GET /readyz.  Any failing dependency makes it 503.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := ReadinessResponse{Status: common.HealthUp, Components: h.checkAll(ctx)}
	for _, c := range resp.Components {
		if c.Status != common.HealthUp {
			resp.Status = common.HealthDown
			break
		}
	}

	status := http.StatusOK
	if resp.Status != common.HealthUp {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// checkAll runs all health checkers concurrently; results are sorted by name.
func (h *HealthHandler) checkAll(ctx context.Context) []common.ComponentHealth {
	results := make([]common.ComponentHealth, 0, len(h.checkers))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, checker := range h.checkers {
		wg.Add(1)
		go func(c HealthChecker) {
			defer wg.Done()

			start := time.Now()
			err := c.Check(ctx)
			ch := common.ComponentHealth{
				Name:    c.Name(),
				Status:  common.HealthUp,
				Latency: time.Since(start),
			}
			if err != nil {
				ch.Status = common.HealthDown
				ch.Message = err.Error()
			}

			mu.Lock()
			results = append(results, ch)
			mu.Unlock()
		}(checker)
	}

	wg.Wait()
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results
}

//Personal.AI order the ending
