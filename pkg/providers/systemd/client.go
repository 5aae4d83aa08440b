package systemd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/coreos/go-systemd/v22/dbus"
	godbus "github.com/godbus/dbus/v5"

	"github.com/modoterra/sdstatus/pkg/core"
)

// Scope selects which service manager to talk to.
type Scope string

const (
	ScopeSystem Scope = "system"
	ScopeUser   Scope = "user"
)

const errNoSuchUnit = "org.freedesktop.systemd1.NoSuchUnit"

// Client implements core.ManagerClient and core.UnitClient over a single
// D-Bus connection to systemd. It is safe for concurrent use.
type Client struct {
	conn   *dbus.Conn
	logger *slog.Logger
}

// Connect opens a connection to the system or user manager.
func Connect(ctx context.Context, scope Scope, logger *slog.Logger) (*Client, error) {
	var (
		conn *dbus.Conn
		err  error
	)
	switch scope {
	case ScopeSystem, "":
		scope = ScopeSystem
		conn, err = dbus.NewSystemConnectionContext(ctx)
	case ScopeUser:
		conn, err = dbus.NewUserConnectionContext(ctx)
	default:
		return nil, fmt.Errorf("unknown bus scope %q", scope)
	}
	if err != nil {
		return nil, core.Transport("dbus connect", err)
	}
	logger.Debug("connected to service manager", "scope", scope)
	return &Client{conn: conn, logger: logger}, nil
}

// Close releases the D-Bus connection.
func (c *Client) Close() {
	c.conn.Close()
}

// ResolveUnit looks the unit up by name and returns its object path.
// Aliases resolve to the unit they point at.
func (c *Client) ResolveUnit(ctx context.Context, name string) (core.UnitHandle, error) {
	units, err := c.conn.ListUnitsByNamesContext(ctx, []string{name})
	if err != nil {
		return "", classify("list units", err)
	}
	h, err := handleFromReply(units)
	if err != nil {
		c.logger.Debug("unit not loaded", "unit", name, "replies", len(units))
		return "", err
	}
	return h, nil
}

// handleFromReply picks the handle out of a ListUnitsByNames reply for a
// single name. systemd answers with the canonical unit Id, which differs
// from the requested name for aliases.
func handleFromReply(units []dbus.UnitStatus) (core.UnitHandle, error) {
	if len(units) == 0 {
		return "", core.ErrNotFound
	}
	u := units[0]
	if u.LoadState == "not-found" || u.Path == "" {
		return "", core.ErrNotFound
	}
	return core.UnitHandle(u.Path), nil
}

// ForHandle reads a property snapshot of the unit at h.
func (c *Client) ForHandle(ctx context.Context, h core.UnitHandle) (core.UnitView, error) {
	path := godbus.ObjectPath(h)
	if !path.IsValid() {
		return nil, core.Transport("bind", fmt.Errorf("invalid object path %q", h))
	}
	props, err := c.conn.GetUnitPathPropertiesContext(ctx, path)
	if err != nil {
		return nil, classify("get properties", err)
	}
	view, err := decodeProperties(props)
	if err != nil {
		return nil, err
	}
	return view, nil
}

// classify maps D-Bus failures onto the core error kinds.
func classify(op string, err error) error {
	if isDBusError(err, errNoSuchUnit) {
		return core.ErrNotFound
	}
	return core.Transport(op, err)
}

func isDBusError(err error, name string) bool {
	var v godbus.Error
	if errors.As(err, &v) {
		return v.Name == name
	}
	var p *godbus.Error
	if errors.As(err, &p) {
		return p.Name == name
	}
	return false
}
