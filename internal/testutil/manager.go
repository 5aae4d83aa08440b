package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/modoterra/sdstatus/pkg/core"
)

// Unit is the state a FakeManager serves for one unit.
type Unit struct {
	ActiveState string
	SubState    string
	Timestamps  map[core.TimestampKind]uint64

	// Optional failures injected at each pipeline step.
	BindErr      error
	StateErr     error
	SubStateErr  error
	TimestampErr error
}

// FakeManager implements core.ManagerClient and core.UnitClient over an
// in-memory set of units keyed by canonical name.
type FakeManager struct {
	Units map[string]Unit

	// ResolveErr, when set, fails every resolve with this error.
	ResolveErr error

	mu       sync.Mutex
	resolved []string
	inFlight atomic.Int32
	peak     atomic.Int32
	// Gate, when non-nil, blocks every resolve until it is closed.
	Gate chan struct{}
}

// NewFakeManager returns a manager serving units.
func NewFakeManager(units map[string]Unit) *FakeManager {
	return &FakeManager{Units: units}
}

// ResolveUnit implements core.ManagerClient.
func (m *FakeManager) ResolveUnit(ctx context.Context, name string) (core.UnitHandle, error) {
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if m.Gate != nil {
		select {
		case <-m.Gate:
		case <-ctx.Done():
			return "", core.Transport("resolve", ctx.Err())
		}
	}

	m.mu.Lock()
	m.resolved = append(m.resolved, name)
	m.mu.Unlock()

	if m.ResolveErr != nil {
		return "", m.ResolveErr
	}
	if _, ok := m.Units[name]; !ok {
		return "", core.ErrNotFound
	}
	return core.UnitHandle("/fake/unit/" + name), nil
}

// ForHandle implements core.UnitClient.
func (m *FakeManager) ForHandle(_ context.Context, h core.UnitHandle) (core.UnitView, error) {
	name := string(h)[len("/fake/unit/"):]
	u, ok := m.Units[name]
	if !ok {
		return nil, core.Transport("bind", fmt.Errorf("no object at %s", h))
	}
	if u.BindErr != nil {
		return nil, u.BindErr
	}
	return fakeView{u}, nil
}

// Resolved returns the names passed to ResolveUnit, in call order.
func (m *FakeManager) Resolved() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.resolved...)
}

// InFlight returns the number of resolves currently in progress.
func (m *FakeManager) InFlight() int {
	return int(m.inFlight.Load())
}

// PeakConcurrency returns the highest number of simultaneous resolves seen.
func (m *FakeManager) PeakConcurrency() int {
	return int(m.peak.Load())
}

type fakeView struct{ u Unit }

func (v fakeView) ActiveState(context.Context) (string, error) {
	return v.u.ActiveState, v.u.StateErr
}

func (v fakeView) SubState(context.Context) (string, error) {
	return v.u.SubState, v.u.SubStateErr
}

func (v fakeView) Timestamp(_ context.Context, kind core.TimestampKind) (uint64, error) {
	if v.u.TimestampErr != nil {
		return 0, v.u.TimestampErr
	}
	return v.u.Timestamps[kind], nil
}

// FixedClock returns a clock sampler that always reports usec.
func FixedClock(usec uint64) func() (uint64, error) {
	return func() (uint64, error) { return usec, nil }
}
