package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/skyscout/skyscout/internal/logging"
)

// logTailMsg carries the latest lines of the log file.
type logTailMsg struct {
	lines []string
	err   error
}

func tailLogCmd(path string) tea.Cmd {
	return func() tea.Msg {
		lines, err := logging.Tail(path, LogTailLines)
		return logTailMsg{lines: lines, err: err}
	}
}

func (m *Model) openLogs() tea.Cmd {
	m.currentView = ViewLogs
	m.logFollow = true
	m.updateLogViewport()
	return tailLogCmd(m.cfg.LogPath())
}

func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.QuitResults),
		key.Matches(msg, m.keys.ShowLogs), key.Matches(msg, m.keys.LogsResult):
		m.currentView = ViewSearch
		return m, nil
	case key.Matches(msg, m.keys.Help), key.Matches(msg, m.keys.HelpResult):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme), key.Matches(msg, m.keys.ThemeResult):
		m.cycleTheme()
		return m, nil
	case key.Matches(msg, m.keys.ToggleFollow):
		m.logFollow = !m.logFollow
		if m.logFollow {
			m.logViewport.GotoBottom()
			return m, tailLogCmd(m.cfg.LogPath())
		}
		return m, nil
	case key.Matches(msg, m.keys.Top):
		m.logFollow = false
		m.logViewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.logViewport.GotoBottom()
		return m, nil
	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.HalfPageUp):
		m.logFollow = false
	}

	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	return m, cmd
}

// updateLogViewport updates the log viewport with current content.
func (m *Model) updateLogViewport() {
	if !m.ready {
		return
	}
	// Box inner = height minus header, cmdbar, status line, borders.
	width, height := m.width-4, max(m.height-5, 1)
	if m.logViewport.Width == 0 {
		m.logViewport = viewport.New(width, height)
	}
	m.logViewport.Width = width
	m.logViewport.Height = height
	m.logViewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))

	m.logViewport.SetContent(m.renderLogContent())
	if m.logFollow {
		m.logViewport.GotoBottom()
	}
}

func (m Model) renderLogContent() string {
	if len(m.logLines) == 0 {
		return m.theme.Styles().FaintText.Render("No log entries yet.")
	}
	return strings.Join(logging.HighlightLines(m.logLines, m.theme.LogPalette()), "\n")
}

// renderLogs renders the log view.
func (m Model) renderLogs() string {
	styles := m.theme.Styles()
	box := styles.FocusBox.
		Width(m.width - boxBorders).
		Height(max(m.height-5, 1))

	status := "following"
	if !m.logFollow {
		status = "paused"
	}
	footer := styles.FaintText.Render(truncateMiddle(m.cfg.LogPath(), max(m.width-20, 20))) +
		"  " + styles.MutedText.Render(status)

	return box.Render(m.logViewport.View()) + "\n" + footer
}
