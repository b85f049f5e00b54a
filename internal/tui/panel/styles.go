package panel

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	appStyle = lipgloss.NewStyle().Padding(1, 2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#0AF")).
			Background(lipgloss.Color("transparent")).
			Bold(true).
			Padding(0, 1)

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#0AF")).
				Background(lipgloss.Color("#224"))

	rowTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EEE")).
			Bold(true)

	rowSummaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888"))

	syncOkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9ece6a"))

	syncPendingStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#e0af68"))

	syncFailedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f7768e"))

	listStyle = lipgloss.NewStyle().
			MarginRight(1).
			Border(lipgloss.NormalBorder(), false, false, false, false).
			BorderForeground(lipgloss.Color("#334455"))

	previewStyle = lipgloss.NewStyle().
			MarginLeft(1).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#334455"))

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888")).
			Padding(1, 2)

	statusBannerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#0AF", Dark: "#0AF"})

	statusStyle = statusBannerStyle.Render
)
