package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sulwork/breakfast/internal/session"
	"github.com/sulwork/breakfast/pkg/domain"
)

type loginField int

const (
	fieldCPF loginField = iota
	fieldPassword
	numLoginFields
)

// loginDoneMsg carries the outcome of a login attempt started by the form.
type loginDoneMsg struct {
	err error
}

type loginModel struct {
	mgr        *session.Manager
	fields     [numLoginFields]string
	focus      loginField
	from       string // location to return to after login
	err        string
	submitting bool
	cancel     context.CancelFunc
}

func newLoginModel(mgr *session.Manager) loginModel {
	return loginModel{mgr: mgr}
}

// reset clears the form for a fresh visit that should return to from.
func (m loginModel) reset(from string) loginModel {
	if m.cancel != nil {
		m.cancel()
	}
	return loginModel{mgr: m.mgr, from: from}
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loginDoneMsg:
		m.submitting = false
		m.cancel = nil
		switch {
		case msg.err == nil:
			m.fields[fieldPassword] = ""
			m.err = ""
		case errors.Is(msg.err, context.Canceled):
			m.err = ""
		case errors.Is(msg.err, session.ErrBusy):
			m.err = "Aguarde, outra operação está em andamento."
		default:
			m.err = session.UserMessage(msg.err)
		}
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m loginModel) updateKeys(msg tea.KeyMsg) (loginModel, tea.Cmd) {
	if m.submitting {
		if msg.String() == "esc" && m.cancel != nil {
			m.cancel()
		}
		return m, nil
	}

	switch msg.String() {
	case "tab", "down", "shift+tab", "up":
		m.focus = (m.focus + 1) % numLoginFields
	case "enter":
		if m.focus == fieldCPF && m.fields[fieldPassword] == "" {
			m.focus = fieldPassword
			return m, nil
		}
		return m.submit()
	default:
		f := &m.fields[m.focus]
		*f = editRune(*f, msg.String())
	}
	return m, nil
}

// submit hands the form to the session manager. Field validation and error
// wording live there so the CLI and the TUI report the same messages.
func (m loginModel) submit() (loginModel, tea.Cmd) {
	m.err = ""
	m.submitting = true

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	mgr := m.mgr
	cpf, password := m.fields[fieldCPF], m.fields[fieldPassword]
	return m, func() tea.Msg {
		defer cancel()
		return loginDoneMsg{err: mgr.Login(ctx, cpf, password)}
	}
}

func (m loginModel) View() string {
	var b strings.Builder

	b.WriteString("\n " + selectedStyle.Render("Entrar") + "\n\n")

	labels := [numLoginFields]string{"CPF", "Senha"}
	placeholders := [numLoginFields]string{"000.000.000-00", "sua senha"}
	for i := loginField(0); i < numLoginFields; i++ {
		value := m.fields[i]
		if i == fieldPassword {
			value = maskSecret(value)
		} else {
			value = domain.MaskCPF(value)
		}

		cursor := " "
		style := metaStyle
		if i == m.focus {
			cursor = inputPromptStyle.Render(">")
			style = selectedStyle
		}
		switch {
		case value == "" && i != m.focus:
			value = inputPlaceholderStyle.Render(placeholders[i])
		case i == m.focus && !m.submitting:
			value += accentStyle.Render("█")
		}
		fmt.Fprintf(&b, " %s %s %s\n", cursor, style.Render(fmt.Sprintf("%-6s", labels[i])), value)
	}

	b.WriteString("\n")
	switch {
	case m.submitting:
		b.WriteString(" " + dimStyle.Render("entrando..."))
	case m.err != "":
		b.WriteString(" " + errorStyle.Render(m.err))
	}
	return b.String()
}
