package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

func printHelp(w io.Writer) {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#f0b45a")).
		Bold(true).
		Render("B R E A K F A S T")

	tagline := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		Render("Quem traz o pão hoje?")

	cmdStyle := lipgloss.NewStyle().Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	commands := []struct{ cmd, desc string }{
		{"breakfast", "Open the client (interactive TUI)"},
		{"breakfast login", "Sign in with CPF and password"},
		{"breakfast login <cpf>", "Sign in without the TUI"},
		{"breakfast logout", "End the session"},
		{"breakfast status", "Show the stored session (--remote asks the server)"},
		{"breakfast token", "Print the bearer token (--copy to clipboard)"},
		{"breakfast register", "<name> <cpf>: create an account"},
		{"breakfast web", "Open the web app"},
		{"breakfast --version", "Show version"},
		{"breakfast help", "You are here"},
	}

	fmt.Fprintf(w, "\n  %s\n  %s\n\n  Commands:\n", title, tagline)
	for _, c := range commands {
		fmt.Fprintf(w, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-24s", c.cmd)), descStyle.Render(c.desc))
	}
	env := descStyle.Render("BREAKFAST_API_URL  BREAKFAST_STORE  BREAKFAST_PASSWORD  BREAKFAST_LOG_FILE")
	fmt.Fprintf(w, "\n  Environment:\n    %s\n\n", env)
}
