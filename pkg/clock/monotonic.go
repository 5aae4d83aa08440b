//go:build linux || darwin || freebsd

// Package clock samples the monotonic clock systemd uses for its
// *TimestampMonotonic unit properties.
package clock

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// MonotonicUsec returns CLOCK_MONOTONIC in microseconds.
func MonotonicUsec() (uint64, error) {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0, fmt.Errorf("clock_gettime: %w", err)
	}
	return uint64(ts.Sec)*1_000_000 + uint64(ts.Nsec)/1_000, nil
}
