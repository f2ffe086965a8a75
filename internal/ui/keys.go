package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application. Bindings that
// fire while a text field has focus use ctrl or function keys so they
// never swallow typed characters.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	NextField  key.Binding
	PrevField  key.Binding
	Escape     key.Binding

	// Form
	Search         key.Binding
	ToggleTrip     key.Binding
	CycleCabin     key.Binding
	Passengers     key.Binding
	Swap           key.Binding
	ShowLogs       key.Binding
	Export         key.Binding
	SuggestionUp   key.Binding
	SuggestionDown key.Binding
	Confirm        key.Binding

	// Results and logs
	Up           key.Binding
	Down         key.Binding
	Top          key.Binding
	Bottom       key.Binding
	HalfPageUp   key.Binding
	HalfPageDown key.Binding
	ToggleFollow key.Binding
	QuitResults  key.Binding
	ExportResult key.Binding
	LogsResult   key.Binding
	ThemeResult  key.Binding
	HelpResult   key.Binding

	// Passenger modal
	Increment key.Binding
	Decrement key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("f2"),
			key.WithHelp("F2", "Cycle theme"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous field"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Close list / cancel search / back"),
		),

		Search: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "Search flights"),
		),
		ToggleTrip: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "Round trip / one way"),
		),
		CycleCabin: key.NewBinding(
			key.WithKeys("ctrl+b"),
			key.WithHelp("ctrl+b", "Cycle cabin"),
		),
		Passengers: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("ctrl+p", "Passengers"),
		),
		Swap: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "Swap origin/destination"),
		),
		ShowLogs: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "Logs"),
		),
		Export: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("ctrl+e", "Export CSV"),
		),
		SuggestionUp: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("up", "Previous suggestion"),
		),
		SuggestionDown: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("down", "Next suggestion"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Pick suggestion / search"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),
		HalfPageUp: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "Half page up"),
		),
		HalfPageDown: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "Half page down"),
		),
		ToggleFollow: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("Space", "Toggle follow mode"),
		),
		QuitResults: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "Quit"),
		),
		ExportResult: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "Export CSV"),
		),
		LogsResult: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "Logs"),
		),
		ThemeResult: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		HelpResult: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),

		Increment: key.NewBinding(
			key.WithKeys("right", "+", "l"),
			key.WithHelp("+/right", "Add passenger"),
		),
		Decrement: key.NewBinding(
			key.WithKeys("left", "-", "h"),
			key.WithHelp("-/left", "Remove passenger"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextField, k.PrevField, k.SuggestionUp, k.SuggestionDown, k.Confirm, k.Escape},
		{k.Search, k.ToggleTrip, k.CycleCabin, k.Passengers, k.Swap},
		{k.Up, k.Down, k.Top, k.Bottom, k.HalfPageDown, k.HalfPageUp},
		{k.Export, k.ShowLogs, k.ToggleFollow},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
