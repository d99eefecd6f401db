// Package healthz provides an API enabling the support of service health
// checks. The service reports healthy only once startup has completed, until
// shutdown begins, and while its dependencies respond.
package healthz

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Check verifies a dependency the service requires is reachable.
type Check func(context.Context) error

// checkTimeout bounds the time all checks may take for a single request.
const checkTimeout = 2 * time.Second

// NewHTTP creates an HTTP instance. The instance is sick until Healthy is
// called.
func NewHTTP(checks ...Check) *HTTP {
	return &HTTP{
		mutex:   new(sync.RWMutex),
		healthy: false,
		checks:  checks,
	}
}

// HTTP provides an HTTP handler to correctly handle HTTP-based health checks.
type HTTP struct {
	mutex *sync.RWMutex
	// healthy indicates if the HTTP health check should report healthy to
	// clients.
	healthy bool
	checks  []Check
}

// ServeHTTP implements the http.Handler interface.
func (h *HTTP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.IsHealthy() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	for _, check := range h.checks {
		if err := check(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
}

// IsHealthy indicates if the HTTP instance is indicating it is healthy during
// health checks. See Healthy() and Sick() to mutate the health of the HTTP
// instance.
func (h *HTTP) IsHealthy() bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.healthy
}

// Healthy mutates the HTTP instance to communicate a status of "healthy" during
// health checks.
func (h *HTTP) Healthy() {
	h.mutex.Lock()
	h.healthy = true
	h.mutex.Unlock()
}

// Sick mutates the HTTP instance to communicate a status of "sick" during
// health checks.
func (h *HTTP) Sick() {
	h.mutex.Lock()
	h.healthy = false
	h.mutex.Unlock()
}
