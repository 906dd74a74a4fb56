package httpapi

import (
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// simulated stands in for monitored dependencies during local runs.
type simulated struct {
	roll  func() int // 1..10; 1-3 fail
	delay time.Duration
	now   func() time.Time
}

func newSimulated() *simulated {
	return &simulated{
		roll:  func() int { return rand.IntN(10) + 1 },
		delay: 2 * time.Second,
		now:   time.Now,
	}
}

func (s *simulated) routes(r chi.Router) {
	r.Get("/api/status", s.handleStatus)
	r.Get("/api/unreliable", s.handleUnreliable)
	r.Get("/api/slow", s.handleSlow)
}

func (s *simulated) stamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func (s *simulated) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"service":   "test-api",
		"timestamp": s.stamp(),
		"version":   "1.0.0",
	})
}

func (s *simulated) handleUnreliable(w http.ResponseWriter, r *http.Request) {
	if s.roll() <= 3 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "error",
			"error":  "Service temporarily unavailable",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"service":   "unreliable-api",
		"timestamp": s.stamp(),
	})
}

func (s *simulated) handleSlow(w http.ResponseWriter, r *http.Request) {
	select {
	case <-time.After(s.delay):
	case <-r.Context().Done():
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":        "healthy",
		"service":       "slow-api",
		"timestamp":     s.stamp(),
		"response_time": s.delay.String(),
	})
}
