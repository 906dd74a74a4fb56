package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hamed0406/healthcheck/internal/domain"
)

// Exporter mirrors the latest aggregation into Prometheus gauges on its own
// registry.
type Exporter struct {
	registry *prometheus.Registry
	total    int

	up             prometheus.Gauge
	services       prometheus.Gauge
	healthy        prometheus.Gauge
	unhealthy      prometheus.Gauge
	avgResponse    prometheus.Gauge
	memoryPercent  prometheus.Gauge
	diskPercent    prometheus.Gauge
	serviceUp      *prometheus.GaugeVec
	serviceLatency *prometheus.GaugeVec
}

// NewExporter sizes the derived metrics by the number of registered
// services.
func NewExporter(totalServices int) *Exporter {
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "healthcheck", Name: name, Help: help})
	}
	e := &Exporter{
		registry:      prometheus.NewRegistry(),
		total:         totalServices,
		up:            gauge("up", "1 if every registered service is healthy."),
		services:      gauge("services_total", "Registered services."),
		healthy:       gauge("services_healthy", "Services whose last probe succeeded."),
		unhealthy:     gauge("services_unhealthy", "Services whose last probe failed."),
		avgResponse:   gauge("average_response_time_ms", "Mean probe response time."),
		memoryPercent: gauge("memory_usage_percent", "Process memory against its ceiling."),
		diskPercent:   gauge("disk_usage_percent", "Used share of the monitored filesystem."),
		serviceUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "healthcheck", Name: "service_up", Help: "1 if the service's last probe succeeded.",
		}, []string{"service"}),
		serviceLatency: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "healthcheck", Name: "service_response_time_ms", Help: "Last probe response time.",
		}, []string{"service"}),
	}
	e.registry.MustRegister(
		e.up, e.services, e.healthy, e.unhealthy, e.avgResponse,
		e.memoryPercent, e.diskPercent, e.serviceUp, e.serviceLatency,
	)
	return e
}

// Observe records one aggregation. It satisfies aggregator.Observer.
func (e *Exporter) Observe(res domain.AggregationResult) {
	snap := Derive(res, e.total)
	e.up.Set(float64(snap.HealthStatus))
	e.services.Set(float64(snap.TotalServices))
	e.healthy.Set(float64(snap.HealthyServices))
	e.unhealthy.Set(float64(snap.UnhealthyServices))
	e.avgResponse.Set(snap.AverageResponseTimeMS)
	e.memoryPercent.Set(snap.MemoryUsagePercentage)
	e.diskPercent.Set(snap.DiskUsagePercentage)

	for name, r := range res.Services {
		v := 0.0
		if r.Healthy {
			v = 1
		}
		e.serviceUp.WithLabelValues(name).Set(v)
		e.serviceLatency.WithLabelValues(name).Set(r.ResponseTimeMS)
	}
}

func (e *Exporter) Registry() *prometheus.Registry { return e.registry }

func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}
