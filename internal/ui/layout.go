package ui

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutWideWidth is the minimum width to show the return leg column.
	LayoutWideWidth = 130
)

// Vertical layout. The form panel keeps a fixed height so the results
// pane does not jump while suggestions open and close.
const (
	chromeHeight    = 2                     // header + command bar
	formInnerHeight = maxSuggestionRows + 3 // route, suggestions, dates
	boxBorders      = 2
)

// Log display limits.
const (
	// LogTailLines is the number of log lines read per refresh.
	LogTailLines = 500
)

func (m Model) formBoxHeight() int {
	return formInnerHeight + boxBorders
}

// resultsInnerHeight is the number of itinerary rows visible at once.
func (m Model) resultsInnerHeight() int {
	// one line is the column header
	return max(m.height-chromeHeight-m.formBoxHeight()-boxBorders-1, 1)
}
