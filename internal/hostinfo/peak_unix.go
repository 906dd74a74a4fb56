//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package hostinfo

import (
	"errors"
	"runtime"
	"syscall"
)

// maxRSS is the process's resident high-water mark from getrusage.
func maxRSS() (uint64, error) {
	var ru syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &ru); err != nil {
		return 0, err
	}
	if ru.Maxrss <= 0 {
		return 0, errors.New("hostinfo: maxrss not reported")
	}
	v := uint64(ru.Maxrss)
	// Darwin reports bytes; the other unixes report kilobytes.
	if runtime.GOOS != "darwin" {
		v *= 1024
	}
	return v, nil
}
