package domain

import "time"

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// EndpointSpec is one registered downstream service.
type EndpointSpec struct {
	Name   string `json:"name"`
	Target string `json:"target"`
}

// ProbeResult is the outcome of a single probe against an endpoint.
//
// StatusCode is nil for transport failures (refused, DNS, timeout).
// Error is nil iff Healthy.
type ProbeResult struct {
	Service        string    `json:"service"`
	Endpoint       string    `json:"endpoint"`
	Healthy        bool      `json:"healthy"`
	StatusCode     *int      `json:"status_code"`
	ResponseTimeMS float64   `json:"response_time"`
	Error          *string   `json:"error"`
	ObservedAt     time.Time `json:"timestamp"`
}

// ResourceUsage is a point-in-time reading of a bounded resource.
// For memory, Total is the ceiling and Used the current process usage.
type ResourceUsage struct {
	TotalBytes uint64  `json:"total_bytes"`
	UsedBytes  uint64  `json:"used_bytes"`
	FreeBytes  uint64  `json:"free_bytes"`
	PeakBytes  uint64  `json:"peak_bytes,omitempty"`
	Percentage float64 `json:"percentage"`

	Total string `json:"total"`
	Used  string `json:"used"`
	Free  string `json:"free"`
	Peak  string `json:"peak,omitempty"`
}

type HostSnapshot struct {
	Uptime string        `json:"uptime"`
	Memory ResourceUsage `json:"memory_usage"`
	Disk   ResourceUsage `json:"disk_usage"`
}

// AggregationResult rolls every registered service into one verdict.
// Status is unhealthy iff FailedServices is non-empty.
type AggregationResult struct {
	Status              Status                 `json:"status"`
	ObservedAt          time.Time              `json:"timestamp"`
	TotalResponseTimeMS float64                `json:"total_response_time"`
	FailedServices      []string               `json:"failed_services"`
	Services            map[string]ProbeResult `json:"services"`
	Uptime              string                 `json:"uptime"`
	MemoryUsage         ResourceUsage          `json:"memory_usage"`
	DiskUsage           ResourceUsage          `json:"disk_usage"`
}

func (a AggregationResult) Healthy() bool { return a.Status == StatusHealthy }

type MetricsSnapshot struct {
	HealthStatus          int     `json:"health_status"`
	TotalServices         int     `json:"total_services"`
	HealthyServices       int     `json:"healthy_services"`
	UnhealthyServices     int     `json:"unhealthy_services"`
	AverageResponseTimeMS float64 `json:"average_response_time"`
	MemoryUsagePercentage float64 `json:"memory_usage_percentage"`
	DiskUsagePercentage   float64 `json:"disk_usage_percentage"`
}
