package hostinfo

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hamed0406/healthcheck/internal/domain"
)

var byteUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatBytes scales by 1024 up to TB and keeps at most two decimals:
// 0 -> "0 B", 1536 -> "1.5 KB", 1048576 -> "1 MB".
func FormatBytes(n uint64) string {
	v := float64(n)
	i := 0
	for v >= 1024 && i < len(byteUnits)-1 {
		v /= 1024
		i++
	}
	return strconv.FormatFloat(domain.Round2(v), 'f', -1, 64) + " " + byteUnits[i]
}

// FormatUptime renders d the way `uptime -p` does, e.g.
// "up 1 week, 2 days, 3 hours, 4 minutes".
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	mins := int64(d / time.Minute)
	parts := []struct {
		n    int64
		unit string
	}{
		{mins / (7 * 24 * 60), "week"},
		{mins / (24 * 60) % 7, "day"},
		{mins / 60 % 24, "hour"},
		{mins % 60, "minute"},
	}

	var out []string
	for _, p := range parts {
		if p.n == 0 {
			continue
		}
		s := fmt.Sprintf("%d %s", p.n, p.unit)
		if p.n != 1 {
			s += "s"
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return "up 0 minutes"
	}
	return "up " + strings.Join(out, ", ")
}
