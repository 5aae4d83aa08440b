// Package watch is a live-refreshing status table built on Bubble Tea.
package watch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/modoterra/sdstatus/pkg/core"
	"github.com/modoterra/sdstatus/pkg/render"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Fetcher is the status source the model polls.
type Fetcher interface {
	Fetch(ctx context.Context, rawNames []string) (core.ResultSet, error)
}

// Config holds the model's settings.
type Config struct {
	Units    []string
	Interval time.Duration
	Timeout  time.Duration
	Color    bool
}

// Model is the root Bubble Tea model for watch mode.
type Model struct {
	fetcher Fetcher
	cfg     Config

	spinner  spinner.Model
	results  core.ResultSet
	err      error
	fetching bool
	gen      int
	updated  time.Time
	width    int
}

// tickMsg schedules the next refresh; stale generations are ignored.
type tickMsg struct{ gen int }

// resultMsg carries the outcome of one complete fetch.
type resultMsg struct {
	results core.ResultSet
	err     error
	at      time.Time
}

// New creates a watch model.
func New(f Fetcher, cfg Config) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{fetcher: f, cfg: cfg, spinner: sp, fetching: true}
}

// Init starts the first fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		fetchCmd(m.fetcher, m.cfg),
		tea.SetWindowTitle("sdstatus "+strings.Join(m.cfg.Units, " ")),
	)
}

func fetchCmd(f Fetcher, cfg Config) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if cfg.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()
		}
		rs, err := f.Fetch(ctx, cfg.Units)
		return resultMsg{results: rs, err: err, at: time.Now()}
	}
}

func tickCmd(interval time.Duration, gen int) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case resultMsg:
		m.fetching = false
		m.updated = msg.at
		m.err = msg.err
		if msg.err != nil {
			m.results = nil
		} else {
			m.results = msg.results
		}
		m.gen++
		return m, tickCmd(m.cfg.Interval, m.gen)

	case tickMsg:
		if msg.gen != m.gen || m.fetching {
			return m, nil
		}
		m.fetching = true
		return m, fetchCmd(m.fetcher, m.cfg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			if m.fetching {
				return m, nil
			}
			m.fetching = true
			m.gen++
			return m, fetchCmd(m.fetcher, m.cfg)
		}
	}

	return m, nil
}

// View renders the current table or error.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("sdstatus"))
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	case m.results == nil:
		b.WriteString(m.spinner.View() + " querying units...\n")
	default:
		if err := render.Table(&b, m.results, render.Options{Color: m.cfg.Color}); err != nil {
			b.WriteString(errorStyle.Render("render: " + err.Error()))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.statusLine()))
	return b.String()
}

func (m Model) statusLine() string {
	left := "waiting for first refresh"
	if !m.updated.IsZero() {
		left = fmt.Sprintf("refreshed %s, every %s", m.updated.Format("15:04:05"), m.cfg.Interval)
	}
	if m.fetching && !m.updated.IsZero() {
		left += " " + m.spinner.View()
	}
	right := "r:refresh q:quit"

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}
