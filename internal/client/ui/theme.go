// Package ui holds the Lip Gloss styles shared by the command line and the
// interactive list.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/FACorreiaa/go-item-tracker/internal/types"
)

var (
	TitleStyle    = lipgloss.NewStyle().Bold(true)
	SuccessStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	PendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	AccentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	MutedStyle    = lipgloss.NewStyle().Faint(true)
	ErrorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	DoneStyle     = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	SelectedStyle = lipgloss.NewStyle().Bold(true).Reverse(true)
	HelpStyle     = lipgloss.NewStyle().Faint(true)

	BoxChecked   = "☑"
	BoxUnchecked = "☐"
)

// Panel frames inner in a rounded border.
func Panel(inner string) string {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(0, 1)
	return border.Render(inner)
}

// Stats counts done and active items.
func Stats(items []types.Item) (done, active int) {
	for _, it := range items {
		if it.Status == types.StatusDone {
			done++
		} else {
			active++
		}
	}
	return
}

// Header is the "Items ✔ n • n Total n" summary line.
func Header(items []types.Item) string {
	d, a := Stats(items)
	return fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		TitleStyle.Render("Items"),
		SuccessStyle.Render("✔"), d,
		PendingStyle.Render("•"), a,
		AccentStyle.Render("Total"), len(items),
	)
}

// StatusLabel colors a status.
func StatusLabel(s types.ItemStatus) string {
	if s == types.StatusDone {
		return SuccessStyle.Render(string(s))
	}
	return PendingStyle.Render(string(s))
}

// ItemLine renders one item on a single line.
func ItemLine(it types.Item) string {
	box, title := MutedStyle.Render(BoxUnchecked), it.Title
	if it.Status == types.StatusDone {
		box, title = SuccessStyle.Render(BoxChecked), DoneStyle.Render(it.Title)
	}
	line := fmt.Sprintf("%s %s %s", MutedStyle.Render(fmt.Sprintf("#%-4d", it.ID)), box, title)
	if it.Description != "" {
		line += "  " + MutedStyle.Render(FirstLine(it.Description, 48))
	}
	return line
}

// FirstLine returns the first line of s cut to n runes.
func FirstLine(s string, n int) string {
	s, _, _ = strings.Cut(s, "\n")
	r := []rune(s)
	if len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}
