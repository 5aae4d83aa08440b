// Package fetcher collects the status of a set of units concurrently.
package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/modoterra/sdstatus/pkg/clock"
	"github.com/modoterra/sdstatus/pkg/core"
)

// Fetcher resolves unit names and reads their state through a shared,
// read-only manager connection.
type Fetcher struct {
	manager core.ManagerClient
	units   core.UnitClient
	now     func() (uint64, error)
	limit   int
	logger  *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClock replaces the monotonic clock sampler.
func WithClock(now func() (uint64, error)) Option {
	return func(f *Fetcher) { f.now = now }
}

// WithLimit bounds the number of units fetched at once. n <= 0 means no limit.
func WithLimit(n int) Option {
	return func(f *Fetcher) { f.limit = n }
}

// WithLogger sets the logger used for per-unit debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = logger }
}

// New creates a fetcher over the given clients.
func New(manager core.ManagerClient, units core.UnitClient, opts ...Option) *Fetcher {
	f := &Fetcher{
		manager: manager,
		units:   units,
		now:     clock.MonotonicUsec,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the status of every named unit. All units are measured
// against one clock sample taken before any lookup starts. The first
// failing unit aborts the whole fetch and no partial result is returned.
func (f *Fetcher) Fetch(ctx context.Context, rawNames []string) (core.ResultSet, error) {
	nowUsec, err := f.now()
	if err != nil {
		return nil, fmt.Errorf("sample clock: %w", err)
	}

	names := make([]string, len(rawNames))
	for i, raw := range rawNames {
		names[i] = core.NormalizeUnitName(raw)
	}

	var (
		mu      sync.Mutex
		results = make(core.ResultSet, len(names))
	)

	g, gctx := errgroup.WithContext(ctx)
	if f.limit > 0 {
		g.SetLimit(f.limit)
	}
	for _, name := range names {
		g.Go(func() error {
			info, err := f.fetchOne(gctx, name, nowUsec)
			if err != nil {
				return err
			}
			mu.Lock()
			results[name] = info
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, name string, nowUsec uint64) (core.UnitInfo, error) {
	fail := func(op string, err error) (core.UnitInfo, error) {
		f.logger.Debug("unit lookup failed", "unit", name, "op", op, "err", err)
		return core.UnitInfo{}, &core.UnitError{Unit: name, Op: op, Err: err}
	}

	handle, err := f.manager.ResolveUnit(ctx, name)
	if err != nil {
		return fail("resolve", err)
	}
	f.logger.Debug("resolved unit", "unit", name, "handle", handle)

	view, err := f.units.ForHandle(ctx, handle)
	if err != nil {
		return fail("bind", err)
	}

	raw, err := view.ActiveState(ctx)
	if err != nil {
		return fail("active state", err)
	}
	state, err := core.ParseActiveState(raw)
	if err != nil {
		return fail("active state", err)
	}

	sub, err := view.SubState(ctx)
	if err != nil {
		return fail("sub state", err)
	}

	elapsed, skewed, err := core.TimeSince(ctx, state, view, nowUsec)
	if err != nil {
		return fail("transition time", err)
	}
	if skewed {
		f.logger.Warn("transition timestamp is newer than clock sample, clamping to zero",
			"unit", name, "state", state, "field", core.TransitionTimestamp(state))
	}

	return core.UnitInfo{
		State:               core.UnitState{State: state, SubState: sub},
		TimeSinceTransition: elapsed,
		ClockSkew:           skewed,
	}, nil
}
