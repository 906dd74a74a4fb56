// Package metrics projects an aggregation into monitoring-friendly numbers.
package metrics

import "github.com/hamed0406/healthcheck/internal/domain"

// Derive is pure. total is the number of registered services; the average
// response time is 0 when nothing is registered.
func Derive(res domain.AggregationResult, total int) domain.MetricsSnapshot {
	unhealthy := len(res.FailedServices)

	snap := domain.MetricsSnapshot{
		TotalServices:         total,
		HealthyServices:       total - unhealthy,
		UnhealthyServices:     unhealthy,
		MemoryUsagePercentage: res.MemoryUsage.Percentage,
		DiskUsagePercentage:   res.DiskUsage.Percentage,
	}
	if res.Status == domain.StatusHealthy {
		snap.HealthStatus = 1
	}
	if total > 0 {
		snap.AverageResponseTimeMS = domain.Round2(res.TotalResponseTimeMS / float64(total))
	}
	return snap
}
