package hostinfo

import (
	"testing"
	"time"
)

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		in   uint64
		want string
	}{
		{0, "0 B"},
		{1, "1 B"},
		{1023, "1023 B"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1048576, "1 MB"},
		{1288490189, "1.2 GB"},
		{5 << 40, "5 TB"},
		{3 << 50, "3072 TB"},
	}
	for _, c := range cases {
		if got := FormatBytes(c.in); got != c.want {
			t.Fatalf("FormatBytes(%d)=%q want %q", c.in, got, c.want)
		}
	}
}

func TestFormatUptime(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "up 0 minutes"},
		{59 * time.Second, "up 0 minutes"},
		{time.Minute, "up 1 minute"},
		{3*time.Hour + 4*time.Minute, "up 3 hours, 4 minutes"},
		{26 * time.Hour, "up 1 day, 2 hours"},
		{9*24*time.Hour + 5*time.Minute, "up 1 week, 2 days, 5 minutes"},
	}
	for _, c := range cases {
		if got := FormatUptime(c.in); got != c.want {
			t.Fatalf("FormatUptime(%v)=%q want %q", c.in, got, c.want)
		}
	}
}
