package core

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// unitSuffixes lists the unit types systemd knows about.
var unitSuffixes = []string{
	".service",
	".socket",
	".device",
	".mount",
	".automount",
	".swap",
	".target",
	".path",
	".timer",
	".slice",
	".scope",
}

// HasUnitSuffix reports whether name already carries a unit type suffix.
func HasUnitSuffix(name string) bool {
	for _, suffix := range unitSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// NormalizeUnitName returns the canonical unit name for a user-supplied
// token: names without a known suffix are treated as services.
func NormalizeUnitName(raw string) string {
	if HasUnitSuffix(raw) {
		return raw
	}
	return raw + ".service"
}

// ActiveState is the coarse lifecycle state systemd reports for a unit.
type ActiveState string

const (
	StateActive       ActiveState = "active"
	StateActivating   ActiveState = "activating"
	StateDeactivating ActiveState = "deactivating"
	StateFailed       ActiveState = "failed"
	StateInactive     ActiveState = "inactive"
	StateReloading    ActiveState = "reloading"
)

// ActiveStates returns every known state, in declaration order.
func ActiveStates() []ActiveState {
	return []ActiveState{
		StateActive,
		StateActivating,
		StateDeactivating,
		StateFailed,
		StateInactive,
		StateReloading,
	}
}

// ParseActiveState converts a wire value into an ActiveState.
// Anything outside the fixed set yields ErrUnrecognizedState.
func ParseActiveState(s string) (ActiveState, error) {
	switch st := ActiveState(s); st {
	case StateActive, StateActivating, StateDeactivating, StateFailed, StateInactive, StateReloading:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnrecognizedState, s)
	}
}

// UnitState pairs the coarse state with systemd's free-text sub-state.
type UnitState struct {
	State    ActiveState `json:"state"`
	SubState string      `json:"sub_state"`
}

func (s UnitState) String() string {
	return fmt.Sprintf("%s (%s)", s.State, s.SubState)
}

// UnitInfo is the status of one unit at the time of a run.
type UnitInfo struct {
	State               UnitState
	TimeSinceTransition time.Duration

	// ClockSkew is set when the unit's transition timestamp was newer than
	// the sampled clock and TimeSinceTransition was clamped to zero.
	ClockSkew bool
}

// ResultSet maps canonical unit names to their status.
type ResultSet map[string]UnitInfo

// Names returns the unit names in lexicographic order.
func (rs ResultSet) Names() []string {
	names := make([]string, 0, len(rs))
	for name := range rs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
