// Package ui provides the SkyScout terminal interface, built on Bubble Tea.
//
// # Layout
//
// The search view stacks three regions: a status header, a command bar
// showing the keys that apply to the focused area, then a form panel over
// the results pane. The form panel has two airport fields with their
// suggestion list, the departure and return dates, and a summary of trip
// type, cabin and passengers. A second view tails the application log.
//
// # Suggestions
//
// Each airport field owns a suggest.Controller. Typing hands the text to
// the controller, which debounces it on its clock and runs the lookup in
// the background. The controller reports every change as a fieldStateMsg
// sent into the program; the view reads the controller's current state,
// so a late or reordered message can never show an outdated list.
// Selecting a suggestion, swapping the airports, or shortening the query
// below the minimum all cancel whatever is pending.
//
// # Keys
//
// Shortcuts that work while a text field has focus use ctrl or function
// keys so typing is never intercepted. Single-letter shortcuts apply only
// in the results pane and the log view. F1 lists everything.
//
// # Persistence
//
// Theme, cabin and trip type changes are written to the preferences file
// immediately.
package ui
