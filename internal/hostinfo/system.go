package hostinfo

import (
	"context"
	"errors"
	"math"
	"os"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

// SystemSource reads the real host through gopsutil.
type SystemSource struct {
	pid int32
}

func NewSystemSource() *SystemSource {
	return &SystemSource{pid: int32(os.Getpid())}
}

func (s *SystemSource) Uptime(ctx context.Context) (time.Duration, error) {
	secs, err := host.UptimeWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return time.Duration(secs) * time.Second, nil
}

// ProcessMemory is the resident set size; when the process table can't be
// read it falls back to what the Go runtime obtained from the OS.
func (s *SystemSource) ProcessMemory(ctx context.Context) (uint64, error) {
	p, err := process.NewProcessWithContext(ctx, s.pid)
	if err == nil {
		if mi, err := p.MemoryInfoWithContext(ctx); err == nil && mi.RSS > 0 {
			return mi.RSS, nil
		}
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.Sys, nil
}

// PeakMemory is the process high-water mark reported by the kernel.
func (s *SystemSource) PeakMemory(context.Context) (uint64, error) {
	return maxRSS()
}

// MemoryCeiling prefers a GOMEMLIMIT soft limit and otherwise uses total
// physical memory.
func (s *SystemSource) MemoryCeiling(ctx context.Context) (uint64, error) {
	if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
		return uint64(limit), nil
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	if vm.Total == 0 {
		return 0, errors.New("hostinfo: total memory unknown")
	}
	return vm.Total, nil
}

func (s *SystemSource) DiskUsage(ctx context.Context, path string) (uint64, uint64, error) {
	u, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return 0, 0, err
	}
	return u.Total, u.Free, nil
}

var (
	_ Source     = (*SystemSource)(nil)
	_ PeakReader = (*SystemSource)(nil)
)
