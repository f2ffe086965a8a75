package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/skyscout/skyscout/internal/trip"
)

// renderSearch renders the form panel above the results pane.
func (m Model) renderSearch() string {
	return lipgloss.JoinVertical(lipgloss.Left, m.renderForm(), m.renderResults())
}

func (m Model) renderForm() string {
	styles := m.theme.Styles()
	innerWidth := max(m.width-4, 20)

	lines := make([]string, 0, formInnerHeight)
	lines = append(lines, m.renderRouteLine(styles))

	// Suggestions belong to whichever airport field has focus.
	var list string
	switch m.focus {
	case focusOrigin:
		list = m.origin.renderSuggestions(styles, innerWidth)
	case focusDestination:
		list = m.destination.renderSuggestions(styles, innerWidth)
	}
	listLines := []string{}
	if list != "" {
		listLines = strings.Split(list, "\n")
	}
	for i := 0; i < maxSuggestionRows+1; i++ {
		if i < len(listLines) {
			lines = append(lines, listLines[i])
		} else {
			lines = append(lines, "")
		}
	}

	lines = append(lines, m.renderDatesLine(styles))

	box := styles.Box
	if m.focus != focusResults {
		box = styles.FocusBox
	}
	return box.Width(m.width - boxBorders).Render(strings.Join(lines, "\n"))
}

func (m Model) renderRouteLine(styles Styles) string {
	from := m.renderAirportInput(&m.origin, m.focus == focusOrigin, styles)
	to := m.renderAirportInput(&m.destination, m.focus == focusDestination, styles)
	return m.label("From", m.focus == focusOrigin, styles) + " " + from +
		styles.FaintText.Render("  ⇄  ") +
		m.label("To", m.focus == focusDestination, styles) + " " + to
}

func (m Model) renderAirportInput(f *airportField, focused bool, styles Styles) string {
	if focused {
		return f.input.View()
	}
	if summary := f.summary(); summary != "" {
		style := styles.Text
		if f.selected() == nil {
			style = styles.MutedText
		}
		return style.Render(padRight(truncate(summary, f.input.Width), f.input.Width))
	}
	return styles.FaintText.Render(padRight(f.input.Placeholder, f.input.Width))
}

func (m Model) renderDatesLine(styles Styles) string {
	parts := []string{
		m.label("Depart", m.focus == focusDepart, styles) + " " + m.depart.View(),
	}
	if m.form.Type == trip.RoundTrip {
		parts = append(parts, m.label("Return", m.focus == focusReturn, styles)+" "+m.ret.View())
	} else {
		parts = append(parts, styles.FaintText.Render("Return  one-way"))
	}
	parts = append(parts, styles.MutedText.Render(
		m.form.Type.Title()+" · "+m.form.Cabin.Title()+" · "+m.form.Passengers.Summary()))
	return strings.Join(parts, "   ")
}

func (m Model) label(text string, focused bool, styles Styles) string {
	if focused {
		return styles.AccentText.Bold(true).Render(text)
	}
	return styles.MutedText.Render(text)
}
