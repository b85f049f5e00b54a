package panel

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/quirelabs/quire/internal/projection"
	"github.com/quirelabs/quire/internal/sync"
	"github.com/quirelabs/quire/utils"
)

// renderRow draws one list row at exactly RowHeight lines: title line,
// summary line, status line.
func renderRow(r projection.Row, selected, deleteMode bool, width int) string {
	title := r.Title
	if title == "" {
		title = "untitled"
	}

	status := fmt.Sprintf(
		"%s  %s",
		syncGlyph(r),
		utils.RelativeTime(r.LastAt),
	)
	if deleteMode {
		status += "  [x to delete]"
	}

	lines := []string{
		rowTitleStyle.Render(truncateLine(title, width)),
		rowSummaryStyle.Render(truncateLine(r.Summary, width)),
		truncateLine(status, width),
	}

	row := strings.Join(lines, "\n")
	if selected {
		return selectedRowStyle.Width(width).Render(row)
	}
	return lipgloss.NewStyle().Width(width).Render(row)
}

// syncGlyph distinguishes synced, in-progress, and failed states. An empty
// reason means a push is still in flight.
func syncGlyph(r projection.Row) string {
	switch {
	case r.InSync:
		return syncOkStyle.Render("●")
	case r.Reason == "" || r.Reason == sync.ReasonSuccess:
		return syncPendingStyle.Render("◌")
	default:
		return syncFailedStyle.Render("✗ " + utils.ReasonText(r.Reason))
	}
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 1 {
		return string(runes[:width])
	}
	return string(runes[:width-1]) + "…"
}
