// Package render prints a status result set as a table or as JSON.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/modoterra/sdstatus/pkg/core"
)

// Format selects the output representation.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat accepts "table", "json" and "structured" (an alias for json).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "table":
		return FormatTable, nil
	case "json", "structured":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table or json)", s)
	}
}

// ResolveFormat picks the output format: an explicit choice wins, otherwise
// terminals get a table and everything else gets JSON.
func ResolveFormat(explicit string, isTTY bool) (Format, error) {
	if explicit != "" {
		return ParseFormat(explicit)
	}
	if isTTY {
		return FormatTable, nil
	}
	return FormatJSON, nil
}

// Options controls presentation details.
type Options struct {
	// Color enables ANSI styling of table rows.
	Color bool
}

// Render writes rs to w in the requested format.
func Render(w io.Writer, rs core.ResultSet, format Format, opts Options) error {
	switch format {
	case FormatTable:
		return Table(w, rs, opts)
	case FormatJSON:
		return JSON(w, rs)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// FormatDuration renders d compactly at two units of precision:
// 45s, 3m12s, 2h5m, 3d4h.
func FormatDuration(d time.Duration) string {
	sec := uint64(d / time.Second)
	switch {
	case sec < 60:
		return fmt.Sprintf("%ds", sec)
	case sec < 3600:
		return fmt.Sprintf("%dm%ds", sec/60, sec%60)
	case sec < 86400:
		return fmt.Sprintf("%dh%dm", sec/3600, (sec%3600)/60)
	default:
		return fmt.Sprintf("%dd%dh", sec/86400, (sec%86400)/3600)
	}
}
