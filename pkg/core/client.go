package core

import "context"

// UnitHandle identifies a unit inside the manager once its name has been
// resolved. The systemd provider uses the D-Bus object path.
type UnitHandle string

// TimestampKind selects one of the four monotonic transition timestamps
// systemd keeps per unit.
type TimestampKind int

const (
	InactiveExit TimestampKind = iota
	ActiveEnter
	ActiveExit
	InactiveEnter
)

func (k TimestampKind) String() string {
	switch k {
	case InactiveExit:
		return "InactiveExitTimestampMonotonic"
	case ActiveEnter:
		return "ActiveEnterTimestampMonotonic"
	case ActiveExit:
		return "ActiveExitTimestampMonotonic"
	case InactiveEnter:
		return "InactiveEnterTimestampMonotonic"
	default:
		return "UnknownTimestamp"
	}
}

// ManagerClient resolves unit names to handles.
// Implementations must be safe for concurrent use.
type ManagerClient interface {
	// ResolveUnit returns ErrNotFound when the manager does not know the
	// unit and ErrTransport when the call itself failed.
	ResolveUnit(ctx context.Context, name string) (UnitHandle, error)
}

// UnitClient binds handles to live views of a unit.
// Implementations must be safe for concurrent use.
type UnitClient interface {
	ForHandle(ctx context.Context, h UnitHandle) (UnitView, error)
}

// UnitView exposes the unit properties the status pipeline reads.
// Every method may fail with ErrTransport.
type UnitView interface {
	ActiveState(ctx context.Context) (string, error)
	SubState(ctx context.Context) (string, error)
	// Timestamp returns the requested monotonic timestamp in microseconds.
	Timestamp(ctx context.Context, kind TimestampKind) (uint64, error)
}
