package core

import (
	"context"
	"time"
)

// TransitionTimestamp returns the timestamp recording entry into state.
func TransitionTimestamp(state ActiveState) TimestampKind {
	switch state {
	case StateActive, StateReloading:
		return ActiveEnter
	case StateActivating:
		return InactiveExit
	case StateDeactivating:
		return ActiveExit
	default: // failed, inactive
		return InactiveEnter
	}
}

// TimeSince returns the whole seconds elapsed between the unit's last
// transition into state and nowUsec. A transition newer than nowUsec is
// clamped to zero and reported through skewed.
func TimeSince(ctx context.Context, state ActiveState, view UnitView, nowUsec uint64) (elapsed time.Duration, skewed bool, err error) {
	ts, err := view.Timestamp(ctx, TransitionTimestamp(state))
	if err != nil {
		return 0, false, err
	}
	elapsed, skewed = ElapsedSince(ts, nowUsec)
	return elapsed, skewed, nil
}

// ElapsedSince computes nowUsec-transitionUsec truncated to seconds.
func ElapsedSince(transitionUsec, nowUsec uint64) (time.Duration, bool) {
	if transitionUsec > nowUsec {
		return 0, true
	}
	secs := (nowUsec - transitionUsec) / 1_000_000
	return time.Duration(secs) * time.Second, false
}
