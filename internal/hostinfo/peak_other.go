//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package hostinfo

import "errors"

func maxRSS() (uint64, error) {
	return 0, errors.New("hostinfo: peak memory not available on this platform")
}
