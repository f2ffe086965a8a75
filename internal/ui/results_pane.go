package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"

	"github.com/skyscout/skyscout/internal/results"
)

// Column widths for the itinerary table.
const (
	colCarrier = 22
	colPrice   = 12
	colRoute   = 10
	colTimes   = 13
	colDur     = 9
	colStops   = 9
)

// updateResultsViewport re-renders the itinerary rows and keeps the
// selected row visible.
func (m *Model) updateResultsViewport() {
	if !m.ready {
		return
	}
	if m.resultsViewport.Width == 0 {
		m.resultsViewport = viewport.New(m.width-4, m.resultsInnerHeight())
	}
	m.resultsViewport.Width = m.width - 4
	m.resultsViewport.Height = m.resultsInnerHeight()
	m.resultsViewport.SetContent(m.renderResultRows())

	count := len(m.snapshot.Itineraries)
	if count == 0 {
		m.selectedRow = 0
		m.resultsViewport.GotoTop()
		return
	}
	m.selectedRow = min(max(m.selectedRow, 0), count-1)
	top := m.resultsViewport.YOffset
	height := m.resultsViewport.Height
	switch {
	case m.selectedRow < top:
		m.resultsViewport.SetYOffset(m.selectedRow)
	case m.selectedRow >= top+height:
		m.resultsViewport.SetYOffset(m.selectedRow - height + 1)
	}
}

func (m Model) renderResultRows() string {
	styles := m.theme.Styles()
	snap := m.snapshot

	if len(snap.Itineraries) == 0 {
		switch {
		case snap.Searching:
			return styles.WarningText.Render("Searching flights...")
		case snap.LastError != nil:
			return styles.DangerText.Render("Search failed") + "\n" +
				styles.FaintText.Render(truncate(snap.LastError.Error(), max(m.width-8, 20)))
		case snap.HasQuery:
			return styles.MutedText.Render("No flights found for " + routeLabel(snap.Query))
		default:
			return styles.FaintText.Render("Choose airports and dates, then press ctrl+s.")
		}
	}

	wide := m.width >= LayoutWideWidth
	rows := results.SummarizeAll(snap.Itineraries)
	lines := make([]string, 0, len(rows))
	for i, row := range rows {
		line := formatResultRow(row, wide)
		switch {
		case i == m.selectedRow && m.focus == focusResults:
			lines = append(lines, styles.Selected.Render(padRight(line, m.width-4)))
		case i == m.selectedRow:
			lines = append(lines, styles.AccentText.Render(line))
		default:
			lines = append(lines, styles.Text.Render(line))
		}
	}
	return strings.Join(lines, "\n")
}

func formatResultRow(row results.Row, wide bool) string {
	times := "--:-- --:--"
	if !row.Departure.IsZero() {
		times = row.Departure.Format("15:04") + " " + row.Arrival.Format("15:04")
	}
	cols := []string{
		padRight(truncate(row.Carrier, colCarrier), colCarrier),
		padRight(truncate(row.Price, colPrice), colPrice),
		padRight(row.Origin+"-"+row.Destination, colRoute),
		padRight(times, colTimes),
		padRight(row.Duration, colDur),
		padRight(row.Stops, colStops),
	}
	if wide && row.Return != "" {
		cols = append(cols, "↺ "+row.Return)
	}
	return strings.Join(cols, " ")
}

func resultsHeaderLine(wide bool) string {
	cols := []string{
		padRight("Airline", colCarrier),
		padRight("Price", colPrice),
		padRight("Route", colRoute),
		padRight("Dep   Arr", colTimes),
		padRight("Duration", colDur),
		padRight("Stops", colStops),
	}
	if wide {
		cols = append(cols, "Return")
	}
	return strings.Join(cols, " ")
}

// renderResults draws the boxed itinerary table.
func (m Model) renderResults() string {
	styles := m.theme.Styles()
	title := "Results"
	if n := len(m.snapshot.Itineraries); n > 0 {
		title = fmt.Sprintf("Results (%d)", n)
		if m.focus == focusResults {
			title = fmt.Sprintf("Results %d/%d", m.selectedRow+1, n)
		}
	}
	header := styles.AccentText.Bold(true).Render(title) + "  " +
		styles.FaintText.Render(resultsHeaderLine(m.width >= LayoutWideWidth))

	box := styles.Box
	if m.focus == focusResults {
		box = styles.FocusBox
	}
	body := m.resultsViewport.View()
	return box.
		Width(m.width - boxBorders).
		Height(m.resultsInnerHeight() + 1).
		Render(header + "\n" + body)
}
