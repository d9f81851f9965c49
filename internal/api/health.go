package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// componentCheckTimeout bounds each component's health check.
const componentCheckTimeout = 2 * time.Second

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status     string            `json:"status"`
	Version    string            `json:"version"`
	Components map[string]string `json:"components"`
}

// handleHealth runs every component check concurrently. Any failure makes
// the whole response 503 so orchestrators can restart the bridge.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	results := make(map[string]string, len(s.components))
	var mu sync.Mutex

	var g errgroup.Group
	for _, c := range s.components {
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(r.Context(), componentCheckTimeout)
			defer cancel()

			status := "ok"
			if err := c.Checker.HealthCheck(ctx); err != nil {
				status = err.Error()
			}

			mu.Lock()
			results[c.Name] = status
			mu.Unlock()
			return nil
		})
	}
	g.Wait() //nolint:errcheck // Checks report through results, never through the group

	resp := HealthResponse{Status: "ok", Version: s.version, Components: results}
	code := http.StatusOK
	for _, status := range results {
		if status != "ok" {
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
			break
		}
	}

	writeJSON(w, code, resp)
}
