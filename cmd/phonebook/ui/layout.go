// Package ui layout constants for consistent spacing and dimensions
package ui

// Layout constants
const (
	AppPaddingH = 4
	AppPaddingV = 2

	// Rows taken by everything above and below the contact list:
	// title, two notification boxes, filter, form, headers, help.
	ChromeHeight = 18

	MinimumTerminalWidth = 40
	MinimumListRows      = 3
	ModalPadding         = 4
	MaxModalWidth        = 60
)

// LayoutConfig provides computed layout dimensions based on terminal size
type LayoutConfig struct {
	TerminalWidth  int
	TerminalHeight int
}

// NewLayoutConfig creates a layout configuration for the given terminal size
func NewLayoutConfig(width, height int) LayoutConfig {
	return LayoutConfig{TerminalWidth: width, TerminalHeight: height}
}

// ContentWidth returns the usable width inside the app padding
func (l LayoutConfig) ContentWidth() int {
	w := l.TerminalWidth - AppPaddingH
	if w < MinimumTerminalWidth {
		return MinimumTerminalWidth
	}
	return w
}

// ListRows returns how many contacts fit on screen
func (l LayoutConfig) ListRows() int {
	rows := l.TerminalHeight - AppPaddingV - ChromeHeight
	if rows < MinimumListRows {
		return MinimumListRows
	}
	return rows
}

// ModalWidth returns the width of the confirmation box
func (l LayoutConfig) ModalWidth() int {
	w := l.ContentWidth() - ModalPadding*2
	if w > MaxModalWidth {
		return MaxModalWidth
	}
	return w
}

// Window returns the [start, end) slice of n rows that keeps cursor visible
// within size rows.
func Window(n, cursor, size int) (start, end int) {
	if size <= 0 || n <= size {
		return 0, n
	}
	start = cursor - size/2
	if start < 0 {
		start = 0
	}
	if start+size > n {
		start = n - size
	}
	return start, start + size
}
