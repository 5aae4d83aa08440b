package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/modoterra/sdstatus/internal/testutil"
	"github.com/modoterra/sdstatus/pkg/core"
	"github.com/modoterra/sdstatus/pkg/providers/systemd"
	"github.com/modoterra/sdstatus/pkg/render"
)

type fakeClient struct {
	*testutil.FakeManager
	closed bool
}

func (c *fakeClient) Close() { c.closed = true }

// useFakeManager swaps the D-Bus connection for an in-memory manager and
// returns the client plus a pointer to the scope the command asked for.
func useFakeManager(t *testing.T, units map[string]testutil.Unit) (*fakeClient, *systemd.Scope) {
	t.Helper()
	client := &fakeClient{FakeManager: testutil.NewFakeManager(units)}
	var scope systemd.Scope
	orig := connect
	connect = func(_ context.Context, s systemd.Scope, _ *slog.Logger) (managerClient, error) {
		scope = s
		return client, nil
	}
	t.Cleanup(func() { connect = orig })
	return client, &scope
}

func sampleUnits() map[string]testutil.Unit {
	return map[string]testutil.Unit{
		"nginx.service": {ActiveState: "active", SubState: "running"},
		"cups.socket":   {ActiveState: "failed", SubState: "failed"},
	}
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	noConfig := filepath.Join(t.TempDir(), "missing.yaml")
	cmd.SetArgs(append([]string{"--config", noConfig}, args...))
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestStatusJSON(t *testing.T) {
	client, scope := useFakeManager(t, sampleUnits())

	out, _, err := execute(t, "-t", "json", "nginx", "cups.socket")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	records, err := render.ParseJSON(strings.NewReader(out))
	if err != nil {
		t.Fatalf("parse output: %v\n%s", err, out)
	}
	var got []string
	for _, r := range records {
		got = append(got, r.Unit+" "+string(r.State)+" "+r.SubState)
	}
	want := []string{"cups.socket failed failed", "nginx.service active running"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records (-want +got):\n%s", diff)
	}
	if *scope != systemd.ScopeSystem {
		t.Errorf("scope: got %q, want system", *scope)
	}
	if !client.closed {
		t.Error("client was not closed")
	}
}

func TestStatusDefaultsToJSONWhenNotATerminal(t *testing.T) {
	useFakeManager(t, sampleUnits())

	out, _, err := execute(t, "nginx")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "[") {
		t.Errorf("expected JSON output for non-terminal writer, got:\n%s", out)
	}
}

func TestStatusTable(t *testing.T) {
	useFakeManager(t, sampleUnits())

	out, _, err := execute(t, "--output", "table", "nginx", "cups.socket")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got:\n%s", out)
	}
	if !strings.HasPrefix(lines[1], "cups.socket") || !strings.HasPrefix(lines[2], "nginx.service") {
		t.Errorf("rows not sorted by unit:\n%s", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("unexpected color in non-terminal output:\n%s", out)
	}
}

func TestStatusForceColor(t *testing.T) {
	useFakeManager(t, sampleUnits())

	out, _, err := execute(t, "-c", "-t", "table", "nginx")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "\x1b[") {
		t.Errorf("expected colored output with --color:\n%q", out)
	}
}

func TestStatusNotFound(t *testing.T) {
	useFakeManager(t, sampleUnits())

	out, _, err := execute(t, "nginx", "doesnotexist")
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	if out != "" {
		t.Errorf("expected no output on failure, got:\n%s", out)
	}
	if code := exitCode(err); code != exitNoSuchUnit {
		t.Errorf("exit code %d, want %d", code, exitNoSuchUnit)
	}
	if want := "doesnotexist.service: resolve: unit not found"; err.Error() != want {
		t.Errorf("message: got %q, want %q", err, want)
	}
}

func TestStatusUnrecognizedState(t *testing.T) {
	useFakeManager(t, map[string]testutil.Unit{
		"odd.service": {ActiveState: "maintenance"},
	})

	out, _, err := execute(t, "odd")
	if !errors.Is(err, core.ErrUnrecognizedState) {
		t.Fatalf("got %v, want ErrUnrecognizedState", err)
	}
	if out != "" {
		t.Errorf("expected no output, got:\n%s", out)
	}
	if code := exitCode(err); code != 1 {
		t.Errorf("exit code %d, want 1", code)
	}
}

func TestStatusRequiresUnit(t *testing.T) {
	useFakeManager(t, sampleUnits())
	if _, _, err := execute(t); err == nil {
		t.Fatal("expected error without unit arguments")
	}
}

func TestStatusFormatIgnoresCase(t *testing.T) {
	useFakeManager(t, sampleUnits())

	out, _, err := execute(t, "-t", "TABLE", "nginx")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.HasPrefix(out, "UNIT") {
		t.Errorf("expected table output, got:\n%s", out)
	}
}

func TestStatusRejectsUnknownFormat(t *testing.T) {
	useFakeManager(t, sampleUnits())
	if _, _, err := execute(t, "-t", "yaml", "nginx"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestUserFlagSelectsUserBus(t *testing.T) {
	_, scope := useFakeManager(t, sampleUnits())

	if _, _, err := execute(t, "--user", "-t", "json", "nginx"); err != nil {
		t.Fatal(err)
	}
	if *scope != systemd.ScopeUser {
		t.Errorf("scope: got %q, want user", *scope)
	}
}

func TestConfigFileApplies(t *testing.T) {
	useFakeManager(t, sampleUnits())
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("output: table\ncolor: never\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", path, "nginx"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "UNIT") {
		t.Errorf("expected table output from config, got:\n%s", out.String())
	}
}

func TestInvalidConfig(t *testing.T) {
	useFakeManager(t, sampleUnits())
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("color: sometimes\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", path, "nginx"})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "color must be") {
		t.Fatalf("got %v, want color validation error", err)
	}
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "sdstatus dev") {
		t.Errorf("unexpected version output %q", out)
	}
}

func TestDashDashQueriesUnitNamedLikeSubcommand(t *testing.T) {
	useFakeManager(t, map[string]testutil.Unit{
		"version.service": {ActiveState: "active", SubState: "running"},
	})

	out, _, err := execute(t, "-t", "json", "--", "version")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, `"unit": "version.service"`) {
		t.Errorf("expected version.service in output, got:\n%s", out)
	}
}

func TestBufferedLoggerHonorsVerbose(t *testing.T) {
	logger, buf := bufferedLogger(false)
	logger.Debug("resolved unit", "unit", "nginx.service")
	if buf.Len() != 0 {
		t.Errorf("debug output without -v: %q", buf.String())
	}

	logger, buf = bufferedLogger(true)
	logger.Debug("resolved unit", "unit", "nginx.service")
	if !strings.Contains(buf.String(), "unit=nginx.service") {
		t.Errorf("debug output missing with -v: %q", buf.String())
	}
}

func TestUseColor(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	tests := []struct {
		mode  string
		force bool
		tty   bool
		want  bool
	}{
		{"auto", false, false, false},
		{"auto", false, true, true},
		{"auto", true, false, true},
		{"never", false, true, false},
		{"never", true, false, true},
		{"always", false, false, true},
	}
	for _, tt := range tests {
		if got := useColor(tt.mode, tt.force, tt.tty); got != tt.want {
			t.Errorf("useColor(%q, %v, %v) = %v, want %v", tt.mode, tt.force, tt.tty, got, tt.want)
		}
	}
}
