package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/skyscout/skyscout/internal/trip"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// passengersModal edits passenger counts. Changes apply only on confirm.
type passengersModal struct {
	counts    trip.Passengers
	cursor    int
	confirmed bool
}

func newPassengersModal(p trip.Passengers) passengersModal {
	return passengersModal{counts: p}
}

func (p passengersModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil, false
	}
	category := trip.Categories[p.cursor]

	switch {
	case key.Matches(keyMsg, keys.Escape):
		p.confirmed = false
		return p, nil, true
	case key.Matches(keyMsg, keys.Confirm):
		p.confirmed = true
		return p, nil, true
	case key.Matches(keyMsg, keys.Up), key.Matches(keyMsg, keys.PrevField):
		p.cursor = (p.cursor - 1 + len(trip.Categories)) % len(trip.Categories)
	case key.Matches(keyMsg, keys.Down), key.Matches(keyMsg, keys.NextField):
		p.cursor = (p.cursor + 1) % len(trip.Categories)
	case key.Matches(keyMsg, keys.Increment):
		p.counts = p.counts.Increment(category)
	case key.Matches(keyMsg, keys.Decrement):
		p.counts = p.counts.Decrement(category)
	}
	return p, nil, false
}

func (p passengersModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Passengers"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")

	for i, c := range trip.Categories {
		label := lipgloss.NewStyle().Width(16).Render(c.Title())
		count := fmt.Sprintf("‹ %d ›", p.counts.Count(c))
		line := label + count
		if i == p.cursor {
			b.WriteString(styles.Selected.Render(line))
		} else {
			b.WriteString(styles.Text.Render(line))
		}
		b.WriteString("  ")
		b.WriteString(styles.FaintText.Render(c.Hint()))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(p.counts.Summary()))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("←/→ change · enter apply · esc cancel"))

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Accent)).
		Padding(1, 2).
		Width(44)

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}
