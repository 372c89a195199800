package layout

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// StripANSI removes ANSI escape codes from a string.
func StripANSI(s string) string {
	return ansi.Strip(s)
}

// VisibleWidth returns the number of terminal cells s occupies.
func VisibleWidth(s string) int {
	return ansi.StringWidth(s)
}

// FitTitle cuts a record title to width cells and marks the cut with the
// ellipsis. Styled titles keep their escape codes.
func FitTitle(title string, width int, cfg TextConfig) string {
	if width <= 0 {
		return ""
	}
	if width <= ansi.StringWidth(cfg.Ellipsis) {
		return ansi.Truncate(title, width, "")
	}
	return ansi.Truncate(title, width, cfg.Ellipsis)
}

// PadTitle is FitTitle padded with spaces to exactly width cells, so a
// highlighted row spans the pane.
func PadTitle(title string, width int, cfg TextConfig) string {
	line := FitTitle(title, width, cfg)
	if pad := width - ansi.StringWidth(line); pad > 0 {
		line += strings.Repeat(" ", pad)
	}
	return line
}

// DisplayURL drops the scheme and a trailing slash from http(s) URLs.
// Anything else (chrome://, javascript:, file://) is returned unchanged.
func DisplayURL(raw string) string {
	for _, scheme := range []string{"https://", "http://"} {
		if rest, ok := strings.CutPrefix(raw, scheme); ok {
			return strings.TrimSuffix(rest, "/")
		}
	}
	return raw
}

// FitURL cuts a URL to width cells by removing its middle, so the host and
// the last path segment stay readable.
func FitURL(url string, width int, cfg TextConfig) string {
	w := ansi.StringWidth(url)
	if w <= width {
		return url
	}
	if width <= ansi.StringWidth(cfg.Ellipsis) {
		return FitTitle(url, width, cfg)
	}

	keep := width - ansi.StringWidth(cfg.Ellipsis)
	head := (keep + 1) / 2
	tail := keep - head
	return ansi.Truncate(url, head, "") + cfg.Ellipsis + ansi.TruncateLeft(url, w-tail, "")
}
