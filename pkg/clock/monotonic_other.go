//go:build !linux && !darwin && !freebsd

package clock

import "errors"

// MonotonicUsec is unavailable on this platform.
func MonotonicUsec() (uint64, error) {
	return 0, errors.New("monotonic clock is not supported on this platform")
}
