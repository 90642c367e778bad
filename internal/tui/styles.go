package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sulwork/breakfast/pkg/domain"
)

// Shimmer animation for the BREAKFAST logo and the pending spinner.
type shimmerTickMsg time.Time

func shimmerTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return shimmerTickMsg(t)
	})
}

// renderShimmerLogo renders the spaced wordmark as a wave of warm light,
// roasted brown (#3b2414) to crema (#f0b45a).
func renderShimmerLogo(frame int) string {
	const text = "BREAKFAST"
	n := len(text)
	t := float64(frame)

	var b strings.Builder
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1)
		phase := t*0.1 - x*3.0 + math.Sin(t*0.023)*2.0

		v := math.Pow(math.Sin(phase)*0.5+0.5, 1.3)
		v = v*0.75 + math.Sin(t*0.035)*0.12 + 0.18
		v = math.Max(0.05, math.Min(1, v))

		r := clampByte(59 + v*(240-59))
		g := clampByte(36 + v*(180-36))
		bl := clampByte(20 + v*(90-20))

		b.WriteString(lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", r, g, bl))).
			Render(string(text[i])))
		if i < n-1 {
			b.WriteString("  ")
		}
	}
	return b.String()
}

func clampByte(v float64) int {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return int(v)
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinner returns the spinner glyph for an animation frame.
func spinner(frame int) string {
	if frame < 0 {
		frame = -frame
	}
	return accentStyle.Render(spinnerFrames[frame%len(spinnerFrames)])
}

var (
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8a8078"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f2ebe4")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d0c6bc"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5c524a"))

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8a8078"))

	helpLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5c524a"))

	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f0b45a"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d05a50")).
			Bold(true)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6cc08a"))

	inputPromptStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#f0b45a")).
				Bold(true)

	inputPlaceholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#453c36"))

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3b2f28")).
			Padding(0, 2)

	roleColors = map[domain.Role]lipgloss.Color{
		domain.RoleUser:  lipgloss.Color("#8ab4d8"),
		domain.RoleAdmin: lipgloss.Color("#f0944a"),
	}
)

// RoleStyle returns a bold style colored for role.
func RoleStyle(role domain.Role) lipgloss.Style {
	if c, ok := roleColors[role]; ok {
		return lipgloss.NewStyle().Foreground(c).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#8a8078")).Bold(true)
}

// RoleBadge returns a short colored badge, e.g. "[ADMIN]".
func RoleBadge(role domain.Role) string {
	if role == "" {
		return ""
	}
	return RoleStyle(role).Render("[" + role.String() + "]")
}

// helpEntry renders a single "key label" pair for help bars.
func helpEntry(key, label string) string {
	return helpKeyStyle.Render(key) + " " + helpLabelStyle.Render(label)
}

// helpItem is a selectable link in the help overlay.
type helpItem struct {
	label string
	url   string
}

// helpView renders the help overlay with a cursor over items.
func helpView(items []helpItem, cursor int, version string) string {
	title := accentStyle.Bold(true).Render("B R E A K F A S T")
	cmdStyle := lipgloss.NewStyle().Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	sectionStyle := descStyle.Bold(true)
	cursorStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f0b45a"))

	commands := []struct{ cmd, desc string }{
		{"breakfast", "Open the client"},
		{"breakfast login", "Sign in with CPF and password"},
		{"breakfast logout", "End the session"},
		{"breakfast status", "Show the stored session"},
		{"breakfast token", "Print the bearer token"},
		{"breakfast register", "Create an account"},
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s  %s\n\n", title, metaStyle.Render(version))
	fmt.Fprintf(&b, "  %s\n", sectionStyle.Render("Commands"))
	for _, c := range commands {
		fmt.Fprintf(&b, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-20s", c.cmd)), descStyle.Render(c.desc))
	}
	if len(items) == 0 {
		return b.String()
	}

	fmt.Fprintf(&b, "\n  %s\n", sectionStyle.Render("Links (enter to open)"))
	for i, item := range items {
		label := cmdStyle.Render(fmt.Sprintf("%-20s", item.label))
		prefix := "    "
		if i == cursor {
			label = cursorStyle.Render(fmt.Sprintf("%-20s", item.label))
			prefix = "  > "
		}
		fmt.Fprintf(&b, "%s%s  %s\n", prefix, label, descStyle.Italic(true).Render(item.url))
	}
	return b.String()
}
