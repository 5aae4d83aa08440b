package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/modoterra/sdstatus/internal/buildinfo"
	"github.com/modoterra/sdstatus/pkg/config"
	"github.com/modoterra/sdstatus/pkg/core"
	"github.com/modoterra/sdstatus/pkg/fetcher"
	"github.com/modoterra/sdstatus/pkg/providers/systemd"
	"github.com/modoterra/sdstatus/pkg/render"
	"github.com/modoterra/sdstatus/pkg/tui/watch"
)

// exitNoSuchUnit matches systemctl's exit status for unknown units.
const exitNoSuchUnit = 4

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "sdstatus: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if errors.Is(err, core.ErrNotFound) {
		return exitNoSuchUnit
	}
	return 1
}

// managerClient is what the commands need from a service manager connection.
type managerClient interface {
	core.ManagerClient
	core.UnitClient
	Close()
}

// connect opens the manager connection; tests replace it with a fake.
var connect = func(ctx context.Context, scope systemd.Scope, logger *slog.Logger) (managerClient, error) {
	c, err := systemd.Connect(ctx, scope, logger)
	if err != nil {
		return nil, err
	}
	return c, nil
}

type options struct {
	configPath  string
	output      string
	forceColor  bool
	user        bool
	timeout     time.Duration
	concurrency int
	verbose     bool
	interval    time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "sdstatus [flags] UNIT...",
		Short: "Show the state of systemd units and how long they have been in it",
		Long: `sdstatus asks systemd for the state of each named unit and reports it with
the time elapsed since the unit entered that state.

Names without a unit type suffix are treated as services:
  sdstatus nginx docker.socket logrotate.timer

Units named like a subcommand need their suffix or a leading "--":
  sdstatus version.service
  sdstatus -- watch`,
		Args:          cobra.MinimumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, opts, args)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/sdstatus/config.yaml)")
	pf.BoolVarP(&opts.forceColor, "color", "c", false, "force colored output")
	pf.BoolVar(&opts.user, "user", false, "query the user service manager instead of the system one")
	pf.DurationVar(&opts.timeout, "timeout", 0, "overall deadline for querying units")
	pf.IntVar(&opts.concurrency, "concurrency", 0, "maximum units queried at once (0 = unlimited)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")

	root.Flags().StringVarP(&opts.output, "output", "t", "", "output format: table or json (default table on a terminal, json otherwise)")

	root.AddCommand(newWatchCmd(opts))
	root.AddCommand(newVersionCmd())
	return root
}

// --- Status ---

func runStatus(cmd *cobra.Command, opts *options, args []string) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), opts.verbose)

	out := cmd.OutOrStdout()
	tty := isTerminal(out)
	format, err := render.ResolveFormat(cfg.Output, tty)
	if err != nil {
		return err
	}

	ctx, cancel := withTimeout(cmd.Context(), cfg.Timeout)
	defer cancel()

	client, err := connect(ctx, systemd.Scope(cfg.Bus), logger)
	if err != nil {
		return err
	}
	defer client.Close()

	f := fetcher.New(client, client, fetcher.WithLogger(logger), fetcher.WithLimit(cfg.Concurrency))
	results, err := f.Fetch(ctx, args)
	if err != nil {
		return err
	}

	return render.Render(out, results, format, render.Options{Color: useColor(cfg.Color, opts.forceColor, tty)})
}

// --- Watch ---

func newWatchCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [flags] UNIT...",
		Short: "Continuously refresh the status table",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			// The TUI owns the terminal; logs are written out once it exits.
			logger, logs := bufferedLogger(opts.verbose)
			defer io.Copy(cmd.ErrOrStderr(), logs)

			client, err := connect(cmd.Context(), systemd.Scope(cfg.Bus), logger)
			if err != nil {
				return err
			}
			defer client.Close()

			f := fetcher.New(client, client, fetcher.WithLogger(logger), fetcher.WithLimit(cfg.Concurrency))
			model := watch.New(f, watch.Config{
				Units:    args,
				Interval: cfg.WatchInterval,
				Timeout:  cfg.Timeout,
				Color:    useColor(cfg.Color, opts.forceColor, isTerminal(cmd.OutOrStdout())),
			})
			_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
	cmd.Flags().DurationVar(&opts.interval, "interval", 0, "refresh interval (default 2s)")
	return cmd
}

// --- Version ---

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sdstatus %s (%s) built %s\n", buildinfo.Version, buildinfo.Commit, buildinfo.Date)
		},
	}
}

// --- Helpers ---

// loadConfig reads the config file and applies flags that were set
// explicitly on the command line.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Output = opts.output
	}
	if flags.Changed("user") {
		cfg.Bus = string(systemd.ScopeSystem)
		if opts.user {
			cfg.Bus = string(systemd.ScopeUser)
		}
	}
	if flags.Changed("timeout") {
		cfg.Timeout = opts.timeout
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency = opts.concurrency
	}
	if flags.Changed("interval") {
		cfg.WatchInterval = opts.interval
	}

	if errs := config.Validate(cfg); len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func bufferedLogger(verbose bool) (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return newLogger(&buf, verbose), &buf
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// useColor decides whether table rows are styled. --color always wins;
// otherwise the config mode applies, with auto meaning "terminal and
// NO_COLOR unset".
func useColor(mode string, force, tty bool) bool {
	if force {
		return true
	}
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default:
		return tty && os.Getenv("NO_COLOR") == ""
	}
}
