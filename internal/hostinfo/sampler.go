// Package hostinfo samples process memory, disk and host uptime for the
// aggregate health report.
package hostinfo

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/healthcheck/internal/domain"
)

// Unknown is reported when the platform cannot tell us the uptime.
const Unknown = "Unknown"

type UptimeReader interface {
	Uptime(ctx context.Context) (time.Duration, error)
}

type MemoryReader interface {
	// ProcessMemory is the bytes currently held by this process.
	ProcessMemory(ctx context.Context) (uint64, error)
	// MemoryCeiling is the platform limit the process runs under.
	MemoryCeiling(ctx context.Context) (uint64, error)
}

// PeakReader is optional. When a Source implements it, the reported peak is
// the kernel's high-water mark rather than the highest sampled value.
type PeakReader interface {
	PeakMemory(ctx context.Context) (uint64, error)
}

type DiskReader interface {
	DiskUsage(ctx context.Context, path string) (total, free uint64, err error)
}

type Source interface {
	UptimeReader
	MemoryReader
	DiskReader
}

type Sampler struct {
	src      Source
	diskPath string
	memLimit uint64 // 0 = ask the source
	log      *zap.Logger
	peak     atomic.Uint64
}

type Option func(*Sampler)

func WithDiskPath(path string) Option {
	return func(s *Sampler) {
		if path != "" {
			s.diskPath = path
		}
	}
}

// WithMemoryLimit pins the memory ceiling instead of asking the source.
func WithMemoryLimit(bytes uint64) Option {
	return func(s *Sampler) { s.memLimit = bytes }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Sampler) {
		if l != nil {
			s.log = l
		}
	}
}

func NewSampler(src Source, opts ...Option) *Sampler {
	s := &Sampler{src: src, diskPath: "/", log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sample never fails; unavailable readings degrade to "Unknown" or zeros.
func (s *Sampler) Sample(ctx context.Context) domain.HostSnapshot {
	return domain.HostSnapshot{
		Uptime: s.uptime(ctx),
		Memory: s.memory(ctx),
		Disk:   s.disk(ctx),
	}
}

func (s *Sampler) uptime(ctx context.Context) string {
	d, err := s.src.Uptime(ctx)
	if err != nil {
		s.log.Debug("uptime_unavailable", zap.Error(err))
		return Unknown
	}
	return FormatUptime(d)
}

func (s *Sampler) memory(ctx context.Context) domain.ResourceUsage {
	current, err := s.src.ProcessMemory(ctx)
	if err != nil {
		s.log.Debug("process_memory_unavailable", zap.Error(err))
		return usage(0, 0, 0)
	}
	peak := s.observePeak(current)
	if pr, ok := s.src.(PeakReader); ok {
		if hwm, err := pr.PeakMemory(ctx); err != nil {
			s.log.Debug("peak_memory_unavailable", zap.Error(err))
		} else if hwm > peak {
			peak = s.observePeak(hwm)
		}
	}

	ceiling := s.memLimit
	if ceiling == 0 {
		if ceiling, err = s.src.MemoryCeiling(ctx); err != nil {
			s.log.Debug("memory_ceiling_unavailable", zap.Error(err))
			ceiling = 0
		}
	}

	var free uint64
	if ceiling > current {
		free = ceiling - current
	}
	u := usage(ceiling, current, free)
	u.PeakBytes = peak
	u.Peak = FormatBytes(peak)
	return u
}

func (s *Sampler) disk(ctx context.Context) domain.ResourceUsage {
	total, free, err := s.src.DiskUsage(ctx, s.diskPath)
	if err != nil || total == 0 {
		s.log.Debug("disk_usage_unavailable", zap.String("path", s.diskPath), zap.Error(err))
		return usage(0, 0, 0)
	}
	if free > total {
		free = total
	}
	return usage(total, total-free, free)
}

func (s *Sampler) observePeak(v uint64) uint64 {
	for {
		old := s.peak.Load()
		if v <= old {
			return old
		}
		if s.peak.CompareAndSwap(old, v) {
			return v
		}
	}
}

func usage(total, used, free uint64) domain.ResourceUsage {
	var pct float64
	if total > 0 {
		pct = domain.Round2(float64(used) / float64(total) * 100)
	}
	return domain.ResourceUsage{
		TotalBytes: total,
		UsedBytes:  used,
		FreeBytes:  free,
		Percentage: pct,
		Total:      FormatBytes(total),
		Used:       FormatBytes(used),
		Free:       FormatBytes(free),
	}
}
