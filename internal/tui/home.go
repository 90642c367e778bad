package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/sulwork/breakfast/internal/session"
	"github.com/sulwork/breakfast/pkg/domain"
)

// identityCard renders the signed-in user. expires is zero for tokens without exp.
func identityCard(s session.Session, expires, now time.Time, width int) string {
	if s.Identity == nil {
		return " " + dimStyle.Render("no session")
	}
	id := s.Identity

	rows := [][2]string{
		{"nome", normalStyle.Render(id.DisplayName())},
		{"cpf", normalStyle.Render(domain.MaskCPF(id.CPF))},
		{"perfil", RoleStyle(id.Role).Render(id.Role.String())},
	}
	if id.ID != "" {
		rows = append(rows, [2]string{"id", metaStyle.Render(id.ID)})
	}
	if expires.IsZero() {
		rows = append(rows, [2]string{"sessão", dimStyle.Render("sem expiração")})
	} else {
		rows = append(rows, [2]string{"sessão", okStyle.Render("expira em " + formatRemaining(expires.Sub(now)))})
	}

	var b strings.Builder
	for i, r := range rows {
		fmt.Fprintf(&b, "%s  %s", dimStyle.Render(fmt.Sprintf("%-7s", r[0])), r[1])
		if i < len(rows)-1 {
			b.WriteString("\n")
		}
	}
	card := cardStyle.Render(b.String())
	return indent(card, width, lipgloss.Width(card))
}

// homeView is the landing screen for every authenticated user.
func homeView(s session.Session, expires, now time.Time, width int) string {
	var b strings.Builder
	name := "visitante"
	if s.Identity != nil {
		name = truncStr(s.Identity.DisplayName(), 40)
	}
	b.WriteString("\n " + selectedStyle.Render("Olá, "+name) + "\n\n")
	b.WriteString(identityCard(s, expires, now, width))
	b.WriteString("\n")
	if s.Identity != nil && !s.Identity.IsAdmin() {
		b.WriteString("\n " + metaStyle.Render("a área administrativa é restrita a administradores"))
	}
	return b.String()
}

// adminView is reachable only by ADMIN sessions.
func adminView(s session.Session, expires, now time.Time, width int) string {
	var b strings.Builder
	b.WriteString("\n " + RoleStyle(domain.RoleAdmin).Render("Área administrativa") + "\n\n")
	b.WriteString(identityCard(s, expires, now, width))
	b.WriteString("\n\n " + dimStyle.Render("perfis aceitos: "))
	for i, r := range domain.Roles {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(RoleBadge(r))
	}
	return b.String()
}

// pendingView is shown while the stored session is being restored.
func pendingView(frame, width int) string {
	line := spinner(frame) + " " + dimStyle.Render("restaurando sessão...")
	return "\n" + center(line, width, lipgloss.Width(line))
}

func indent(block string, width, blockWidth int) string {
	pad := 1
	if width > blockWidth {
		pad = (width - blockWidth) / 2
	}
	prefix := strings.Repeat(" ", pad)
	lines := strings.Split(block, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
