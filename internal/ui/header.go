package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/skyscout/skyscout/internal/skyapi"
)

const appName = "skyscout"

// renderHeader renders the status bar.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	content := m.buildStatusContent(styles, bg)
	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		Render(content)
}

// buildStatusContent builds the status bar content string.
func (m Model) buildStatusContent(styles Styles, bg BgStyle) string {
	compact := m.width < LayoutCompactWidth
	snap := m.snapshot

	parts := []string{bg.Render(appName, styles.Logo)}

	switch {
	case snap.Searching:
		parts = append(parts,
			bg.Render("● Searching", styles.WarningText.Bold(true))+bg.Space()+
				bg.Render(routeLabel(snap.Query), styles.Text))
	case snap.LastError != nil:
		label := classifyError(snap.LastError)
		if snap.IsOffline() {
			label = fmt.Sprintf("%s (%d failures)", label, snap.ConsecutiveFailures)
		}
		parts = append(parts, bg.Render("● "+label, styles.DangerText))
	case snap.HasQuery:
		count := len(snap.Itineraries)
		noun := "flights"
		if count == 1 {
			noun = "flight"
		}
		parts = append(parts,
			bg.Render("●", styles.SuccessText)+bg.Space()+
				bg.Render(humanize.Comma(int64(count)), styles.Text)+bg.Space()+
				bg.Render(noun, styles.MutedText)+bg.Space()+
				bg.Render(routeLabel(snap.Query), styles.InfoText))
	default:
		parts = append(parts, bg.Render("Ready", styles.MutedText))
	}

	if !snap.LastUpdated.IsZero() && !snap.Searching {
		when := humanize.RelTime(snap.LastUpdated, m.clock.Now(), "ago", "from now")
		if !compact && snap.Elapsed() > 0 {
			when = fmt.Sprintf("%s, took %.1fs", when, snap.Elapsed().Seconds())
		}
		parts = append(parts, bg.Render(when, styles.FaintText))
	}

	if m.notice != "" {
		maxLen := 80
		if compact {
			maxLen = 40
		}
		style := styles.InfoText
		if m.noticeIsErr {
			style = styles.WarningText
		}
		parts = append(parts,
			bg.Render("!", style.Bold(true))+bg.Space()+bg.Render(truncate(m.notice, maxLen), style))
	}

	return bg.Join(parts, "  ")
}

// routeLabel renders "LHR → JFK" for a query, with the dates when set.
func routeLabel(q skyapi.FlightQuery) string {
	label := q.Origin.SkyID + " → " + q.Destination.SkyID
	if q.Date != "" {
		label += " " + q.Date
	}
	if q.ReturnDate != "" {
		label += " ↺ " + q.ReturnDate
	}
	return label
}

// classifyError returns a short description of a search failure.
func classifyError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "TIMEOUT"
	}
	if errors.Is(err, skyapi.ErrMissingCredentials) {
		return "NO API KEY"
	}
	var apiErr *skyapi.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("API %d", apiErr.StatusCode)
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"):
		return "TIMEOUT"
	default:
		return "ERROR"
	}
}

// renderCommandBar renders the command hints bar.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	var commands []commandHint

	switch {
	case m.currentView == ViewLogs:
		followLabel := "Pause"
		if !m.logFollow {
			followLabel = "Follow"
		}
		commands = []commandHint{
			{key: "Space", desc: followLabel},
			{key: "j/k", desc: "Scroll"},
			{key: "g/G", desc: "Top/Bottom"},
			{key: "Esc", desc: "Back"},
		}
	case m.focus == focusResults:
		commands = []commandHint{
			{key: "j/k", desc: "Navigate"},
			{key: "e", desc: "Export"},
			{key: "l", desc: "Logs"},
			{key: "Esc", desc: "Form"},
			{key: "q", desc: "Quit"},
			{key: "?", desc: "More"},
		}
	default:
		commands = []commandHint{
			{key: "Tab", desc: "Next"},
			searchHint(m.searchBlocked()),
			{key: "^T", desc: m.form.Type.Title()},
			{key: "^B", desc: m.form.Cabin.Title()},
			{key: "^P", desc: m.form.Passengers.Summary()},
			{key: "^X", desc: "Swap"},
			{key: "F1", desc: "More"},
		}
	}

	colon := bg.Sep(":")
	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		if c.disabled {
			segments = append(segments,
				bg.Render(c.key, styles.FaintText)+colon+bg.Render(c.desc, styles.FaintText))
			continue
		}
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}
	segments = append(segments,
		bg.Render("F2", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, bg.Spaces(2)))
}

// commandHint is one entry of the command bar. Disabled entries are
// drawn faint.
type commandHint struct {
	key, desc string
	disabled  bool
}

// searchHint is the ^S entry, greyed out with the reason while a search
// cannot start.
func searchHint(blocked string) commandHint {
	if blocked != "" {
		return commandHint{key: "^S", desc: "Search (" + blocked + ")", disabled: true}
	}
	return commandHint{key: "^S", desc: "Search"}
}
