package scheduler

import (
	"sync"

	"go.uber.org/zap"

	"github.com/hamed0406/healthcheck/internal/domain"
)

// TransitionLog watches aggregations and logs each service going down or
// recovering. The first observation of a service only records its state.
type TransitionLog struct {
	log  *zap.Logger
	mu   sync.Mutex
	last map[string]bool
}

func NewTransitionLog(logger *zap.Logger) *TransitionLog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransitionLog{log: logger, last: make(map[string]bool)}
}

func (t *TransitionLog) Observe(res domain.AggregationResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for name, r := range res.Services {
		prev, seen := t.last[name]
		t.last[name] = r.Healthy
		if !seen || prev == r.Healthy {
			continue
		}

		fields := []zap.Field{
			zap.String("service", name),
			zap.String("endpoint", r.Endpoint),
			zap.Float64("response_time_ms", r.ResponseTimeMS),
		}
		if r.StatusCode != nil {
			fields = append(fields, zap.Int("status_code", *r.StatusCode))
		}
		if r.Healthy {
			t.log.Info("service_recovered", fields...)
			continue
		}
		if r.Error != nil {
			fields = append(fields, zap.String("error", *r.Error))
		}
		t.log.Warn("service_down", fields...)
	}
}
