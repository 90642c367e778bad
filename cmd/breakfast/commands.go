package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"

	"github.com/sulwork/breakfast/internal/browser"
	"github.com/sulwork/breakfast/internal/session"
	"github.com/sulwork/breakfast/pkg/client"
	"github.com/sulwork/breakfast/pkg/domain"
)

// copyToClipboard is replaced in tests; CI machines have no clipboard.
var copyToClipboard = clipboard.WriteAll

var errNotLoggedIn = errors.New("not logged in (run: breakfast login)")

// restore resolves the stored session before a one-shot command.
func restore(ctx context.Context, e *env) error {
	if err := e.mgr.Restore(ctx); err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	return nil
}

// readPassword takes BREAKFAST_PASSWORD, or the first line of in.
func readPassword(in io.Reader, out io.Writer) (string, error) {
	if pw := os.Getenv("BREAKFAST_PASSWORD"); pw != "" {
		return pw, nil
	}
	fmt.Fprint(out, "Senha: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// runLogin signs in without the TUI: breakfast login <cpf>.
func runLogin(ctx context.Context, e *env, args []string, in io.Reader, out io.Writer) error {
	if err := restore(ctx, e); err != nil {
		return err
	}
	password, err := readPassword(in, out)
	if err != nil {
		return err
	}
	if err := e.mgr.Login(ctx, args[0], password); err != nil {
		return errors.New(session.UserMessage(err))
	}
	s := e.mgr.Session()
	fmt.Fprintf(out, "Authenticated as %s %s\n", s.Identity.DisplayName(), s.Identity.Role)
	return nil
}

func runLogout(ctx context.Context, e *env, out io.Writer) error {
	if err := restore(ctx, e); err != nil {
		return err
	}
	if !e.mgr.IsAuthenticated() {
		fmt.Fprintln(out, "Already logged out.")
		return nil
	}
	if err := e.mgr.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "Logged out.")
	return nil
}

// runStatus prints the stored session. --remote also asks the service whether
// the token is still accepted; restore itself never does.
func runStatus(ctx context.Context, e *env, args []string, out io.Writer) error {
	remote := false
	for _, a := range args {
		switch a {
		case "--remote", "-r":
			remote = true
		default:
			return fmt.Errorf("status: unknown flag %q", a)
		}
	}
	if err := restore(ctx, e); err != nil {
		return err
	}

	s := e.mgr.Session()
	row := func(k, v string) { fmt.Fprintf(out, "%-9s %s\n", k+":", v) }
	row("status", s.Status.String())
	row("store", e.storeLabel)
	if !s.IsAuthenticated() {
		return nil
	}
	row("name", s.Identity.DisplayName())
	row("cpf", domain.MaskCPF(s.Identity.CPF))
	row("role", s.Identity.Role.String())
	if exp := e.mgr.ExpiresAt(); exp.IsZero() {
		row("expires", "never")
	} else {
		row("expires", fmt.Sprintf("%s (in %s)", exp.Local().Format(time.DateTime), time.Until(exp).Round(time.Second)))
	}

	if remote {
		ok, err := e.client.Validate(ctx, s.Token)
		switch {
		case err != nil:
			row("remote", "unreachable: "+err.Error())
		case ok:
			row("remote", "valid")
		default:
			row("remote", "rejected")
		}
	}
	return nil
}

func runToken(ctx context.Context, e *env, args []string, out io.Writer) error {
	copyIt := false
	for _, a := range args {
		switch a {
		case "--copy", "-c":
			copyIt = true
		default:
			return fmt.Errorf("token: unknown flag %q", a)
		}
	}
	if err := restore(ctx, e); err != nil {
		return err
	}
	tok := e.mgr.Token()
	if tok == "" {
		return errNotLoggedIn
	}
	if copyIt {
		if err := copyToClipboard(tok); err != nil {
			return fmt.Errorf("copy token: %w", err)
		}
		fmt.Fprintln(out, "Token copied to clipboard.")
		return nil
	}
	fmt.Fprintln(out, tok)
	return nil
}

// runRegister creates an account: breakfast register <name> <cpf>.
func runRegister(ctx context.Context, e *env, args []string, in io.Reader, out io.Writer) error {
	if len(args) != 2 {
		return errors.New("usage: breakfast register <name> <cpf>")
	}
	name := strings.TrimSpace(args[0])
	cpf := domain.SanitizeCPF(args[1])
	if name == "" {
		return errors.New("register: name is required")
	}
	if !domain.ValidCPF(cpf) {
		return fmt.Errorf("register: invalid CPF %q", args[1])
	}
	password, err := readPassword(in, out)
	if err != nil {
		return err
	}
	if password == "" {
		return errors.New("register: password is required")
	}

	err = e.client.Register(ctx, client.RegisterRequest{Name: name, CPF: cpf, Password: password})
	var httpErr *client.HTTPError
	switch {
	case errors.As(err, &httpErr):
		return fmt.Errorf("register: %s", httpErr.Message)
	case err != nil:
		return fmt.Errorf("register: %w", err)
	}
	fmt.Fprintf(out, "Account created for %s. Sign in with: breakfast login\n", name)
	return nil
}

func runWeb(e *env, out io.Writer) error {
	if err := browser.Open(e.cfg.WebURL); err != nil {
		fmt.Fprintf(out, "Could not open browser. Visit:\n  %s\n", e.cfg.WebURL)
	}
	return nil
}
