package probe

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Render styles.
var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4ade80")) //nolint:gochecknoglobals // shared style
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8890a0")).Width(20)  //nolint:gochecknoglobals // shared style
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#f87171"))            //nolint:gochecknoglobals // shared style
	passStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#34d474")) //nolint:gochecknoglobals // shared style
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)   //nolint:gochecknoglobals // shared style
)

// maxListed caps how many failures and violations are printed.
const maxListed = 20

// Render writes a human-readable summary of r.
func Render(w io.Writer, r *Report) error {
	rows := []string{
		titleStyle.Render("VANGUARD PROBE"),
		"",
		row("user", r.UserID),
		row("characters", r.Characters),
		row("items checked", r.ItemsChecked),
		row("activities checked", r.ActivitiesChecked),
		row("weapon stat rows", r.WeaponStatRows),
		row("duration", r.Duration.Round(time.Millisecond)),
		"",
	}
	if r.OK() {
		rows = append(rows, passStyle.Render("all checks passed"))
	} else {
		rows = append(rows, failStyle.Render(fmt.Sprintf("%d failures, %d violations", len(r.Failures), len(r.Violations))))
		rows = append(rows, listed(r.Failures, func(s string) string { return s })...)
		rows = append(rows, listed(r.Violations, func(v Violation) string {
			return fmt.Sprintf("[%s] %s: %s", v.Check, v.Subject, v.Detail)
		})...)
	}

	_, err := fmt.Fprintln(w, boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)))
	return err
}

func row(label string, v any) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), fmt.Sprint(v))
}

func listed[T any](items []T, format func(T) string) []string {
	out := make([]string, 0, min(len(items), maxListed)+1)
	for i, it := range items {
		if i == maxListed {
			out = append(out, failStyle.Render(fmt.Sprintf("  ... %d more", len(items)-maxListed)))
			break
		}
		out = append(out, failStyle.Render("  "+strings.TrimSpace(format(it))))
	}
	return out
}
