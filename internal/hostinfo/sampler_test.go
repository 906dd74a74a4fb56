package hostinfo

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"
)

type fakeSource struct {
	uptime    time.Duration
	uptimeErr error
	mem       uint64
	memErr    error
	ceiling   uint64
	ceilErr   error
	total     uint64
	free      uint64
	diskErr   error
	diskPath  string
}

func (f *fakeSource) Uptime(context.Context) (time.Duration, error) { return f.uptime, f.uptimeErr }
func (f *fakeSource) ProcessMemory(context.Context) (uint64, error) { return f.mem, f.memErr }
func (f *fakeSource) MemoryCeiling(context.Context) (uint64, error) { return f.ceiling, f.ceilErr }
func (f *fakeSource) DiskUsage(_ context.Context, path string) (uint64, uint64, error) {
	f.diskPath = path
	return f.total, f.free, f.diskErr
}

func TestSampler_Sample(t *testing.T) {
	src := &fakeSource{
		uptime:  26 * time.Hour,
		mem:     64 << 20,
		ceiling: 256 << 20,
		total:   100 << 30,
		free:    25 << 30,
	}
	s := NewSampler(src, WithDiskPath("/data"))
	snap := s.Sample(context.Background())

	if snap.Uptime != "up 1 day, 2 hours" {
		t.Fatalf("uptime wrong: %q", snap.Uptime)
	}
	if snap.Memory.Percentage != 25 || snap.Memory.Used != "64 MB" || snap.Memory.Total != "256 MB" {
		t.Fatalf("memory wrong: %+v", snap.Memory)
	}
	if snap.Memory.FreeBytes != 192<<20 {
		t.Fatalf("memory free wrong: %d", snap.Memory.FreeBytes)
	}
	if snap.Disk.UsedBytes != 75<<30 || snap.Disk.Percentage != 75 {
		t.Fatalf("disk wrong: %+v", snap.Disk)
	}
	if snap.Disk.Free != "25 GB" {
		t.Fatalf("disk free wrong: %q", snap.Disk.Free)
	}
	if src.diskPath != "/data" {
		t.Fatalf("disk path not passed through: %q", src.diskPath)
	}
}

func TestSampler_PeakTracksHighestReading(t *testing.T) {
	src := &fakeSource{mem: 10 << 20, ceiling: 100 << 20, total: 1, free: 1}
	s := NewSampler(src)

	s.Sample(context.Background())
	src.mem = 30 << 20
	s.Sample(context.Background())
	src.mem = 20 << 20
	snap := s.Sample(context.Background())

	if snap.Memory.UsedBytes != 20<<20 {
		t.Fatalf("current wrong: %d", snap.Memory.UsedBytes)
	}
	if snap.Memory.PeakBytes != 30<<20 || snap.Memory.Peak != "30 MB" {
		t.Fatalf("peak wrong: %+v", snap.Memory)
	}
}

type peakSource struct {
	*fakeSource
	hwm    uint64
	hwmErr error
}

func (p *peakSource) PeakMemory(context.Context) (uint64, error) { return p.hwm, p.hwmErr }

func TestSampler_PeakUsesHighWaterMark(t *testing.T) {
	src := &peakSource{
		fakeSource: &fakeSource{mem: 10 << 20, ceiling: 100 << 20, total: 1, free: 1},
		hwm:        48 << 20,
	}
	s := NewSampler(src)

	snap := s.Sample(context.Background())
	if snap.Memory.UsedBytes != 10<<20 {
		t.Fatalf("current wrong: %d", snap.Memory.UsedBytes)
	}
	if snap.Memory.PeakBytes != 48<<20 || snap.Memory.Peak != "48 MB" {
		t.Fatalf("first sample should report the high-water mark, got %+v", snap.Memory)
	}

	// A failing reader falls back to the highest value seen so far.
	src.hwmErr = errors.New("no rusage")
	src.mem = 12 << 20
	if snap = s.Sample(context.Background()); snap.Memory.PeakBytes != 48<<20 {
		t.Fatalf("peak should not drop on reader failure: %d", snap.Memory.PeakBytes)
	}
}

func TestSampler_PeakFallsBackToObserved(t *testing.T) {
	src := &peakSource{
		fakeSource: &fakeSource{mem: 10 << 20, ceiling: 100 << 20, total: 1, free: 1},
		hwmErr:     errors.New("unsupported"),
	}
	snap := NewSampler(src).Sample(context.Background())
	if snap.Memory.PeakBytes != 10<<20 {
		t.Fatalf("want observed peak, got %d", snap.Memory.PeakBytes)
	}
}

func TestSampler_MemoryLimitOverridesSource(t *testing.T) {
	src := &fakeSource{mem: 32 << 20, ceiling: 1 << 40, ceilErr: errors.New("should not be asked")}
	s := NewSampler(src, WithMemoryLimit(128<<20))

	snap := s.Sample(context.Background())
	if snap.Memory.Percentage != 25 {
		t.Fatalf("want 25%%, got %v", snap.Memory.Percentage)
	}
}

func TestSampler_DegradesGracefully(t *testing.T) {
	denied := errors.New("permission denied")
	src := &fakeSource{uptimeErr: denied, memErr: denied, diskErr: denied}
	snap := NewSampler(src).Sample(context.Background())

	if snap.Uptime != Unknown {
		t.Fatalf("want %q, got %q", Unknown, snap.Uptime)
	}
	if snap.Memory.Percentage != 0 || snap.Memory.Total != "0 B" {
		t.Fatalf("memory should be zero sentinel: %+v", snap.Memory)
	}
	if snap.Disk.Percentage != 0 || snap.Disk.TotalBytes != 0 {
		t.Fatalf("disk should be zero sentinel: %+v", snap.Disk)
	}
}

func TestSampler_UnknownCeilingGivesZeroPercent(t *testing.T) {
	src := &fakeSource{mem: 1 << 20, ceilErr: errors.New("no meminfo")}
	snap := NewSampler(src).Sample(context.Background())
	if snap.Memory.Percentage != 0 || snap.Memory.UsedBytes != 1<<20 {
		t.Fatalf("unexpected memory: %+v", snap.Memory)
	}
}

func TestSystemSource_Smoke(t *testing.T) {
	// Whatever the platform supports, sampling must not panic or block.
	snap := NewSampler(NewSystemSource()).Sample(context.Background())
	if snap.Uptime == "" {
		t.Fatalf("uptime should be a duration or %q", Unknown)
	}
	if snap.Memory.Percentage < 0 || snap.Disk.Percentage < 0 {
		t.Fatalf("negative percentages: %+v", snap)
	}
}

func TestSystemSource_PeakMemory(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		t.Skip("getrusage high-water mark checked on linux and darwin only")
	}
	src := NewSystemSource()
	hwm, err := src.PeakMemory(context.Background())
	if err != nil || hwm == 0 {
		t.Fatalf("PeakMemory: %d %v", hwm, err)
	}
	snap := NewSampler(src).Sample(context.Background())
	if snap.Memory.PeakBytes < snap.Memory.UsedBytes {
		t.Fatalf("peak %d below current %d", snap.Memory.PeakBytes, snap.Memory.UsedBytes)
	}
}
