package tui

import (
	"fmt"
	"strings"
)

// Run starts the appropriate TUI based on the view type.
func Run(viewType string, data any) error {
	if !IsTUISupported(viewType) {
		return fmt.Errorf("TUI mode is not supported for %s", viewType)
	}
	return RunInspectTUI(viewType, data)
}

// IsTUISupported reports whether the view type supports TUI mode. Only
// the read-only inspect views do.
func IsTUISupported(viewType string) bool {
	return strings.HasPrefix(viewType, "inspect_")
}

// SupportedTUIViews returns the view types that support TUI.
func SupportedTUIViews() []string {
	return []string{
		"inspect_ledger",
		"inspect_ultimate",
		"inspect_aggregates",
	}
}
