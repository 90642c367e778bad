package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sulwork/breakfast/internal/browser"
	"github.com/sulwork/breakfast/internal/guard"
	"github.com/sulwork/breakfast/internal/session"
	"github.com/sulwork/breakfast/pkg/domain"
)

// Screen locations.
const (
	PathLogin = "/login"
	PathHome  = "/home"
	PathAdmin = "/admin"
)

// Routes is the guard table for the screens. The login screen is always public.
func Routes() []guard.Route {
	return []guard.Route{
		{Path: PathHome, Requirement: guard.RequireAuth()},
		{Path: PathAdmin, Requirement: guard.RequireRole(domain.RoleAdmin)},
	}
}

type screen int

const (
	screenPending screen = iota
	screenLogin
	screenHome
	screenAdmin
)

// sessionTickInterval paces the expiry re-check and the countdown on the session card.
const sessionTickInterval = time.Second

type sessionTickMsg time.Time

func sessionTickCmd() tea.Cmd {
	return tea.Tick(sessionTickInterval, func(t time.Time) tea.Msg {
		return sessionTickMsg(t)
	})
}

type restoredMsg struct {
	err error
}

type logoutDoneMsg struct {
	err error
}

type sessionChangedMsg struct {
	session session.Session
}

// SessionChanged wraps a manager notification for delivery with tea.Program.Send.
func SessionChanged(s session.Session) tea.Msg {
	return sessionChangedMsg{session: s}
}

// Options configures the App.
type Options struct {
	Start   string // first location requested, PathHome when empty
	Version string
	WebURL  string // offered in the help overlay when set
	Now     func() time.Time
}

// App is the root Bubbletea model. Every screen change goes through the guard router.
type App struct {
	mgr        *session.Manager
	router     *guard.Router
	opts       Options
	screen     screen
	location   string // location shown, or awaited while pending
	login      loginModel
	notice     string
	helpOpen   bool
	helpCursor int
	width      int
	height     int
	frame      int
}

// NewApp creates the TUI over mgr. Call Init to restore the stored session.
func NewApp(mgr *session.Manager, opts Options) App {
	if opts.Start == "" {
		opts.Start = PathHome
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	g := guard.New(mgr, guard.Paths{Login: PathLogin, Landing: PathHome})
	return App{
		mgr:      mgr,
		router:   guard.NewRouter(g, Routes()...),
		opts:     opts,
		screen:   screenPending,
		location: opts.Start,
		login:    newLoginModel(mgr),
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(shimmerTickCmd(), sessionTickCmd(), a.restore())
}

func (a App) restore() tea.Cmd {
	mgr := a.mgr
	return func() tea.Msg {
		return restoredMsg{err: mgr.Restore(context.Background())}
	}
}

func (a App) logout() tea.Cmd {
	mgr := a.mgr
	return func() tea.Msg {
		return logoutDoneMsg{err: mgr.Logout(context.Background())}
	}
}

// navigate re-checks token expiry, then resolves location through the router.
// A redirect to the landing page is followed once; a redirect to login opens the
// form remembering where the user was headed.
func (a App) navigate(location string) App {
	a.mgr.CheckExpiry(context.Background())
	loginPath := a.router.Guard().Paths().Login

	for hop := 0; hop < 2; hop++ {
		d := a.router.Resolve(location)
		switch d.Kind {
		case guard.Pending:
			a.screen = screenPending
			a.location = location
			return a
		case guard.Allow:
			if location == loginPath {
				return a.openLogin("")
			}
			a.location = location
			a.screen = screenFor(location)
			return a
		case guard.Redirect:
			if d.To == loginPath {
				return a.openLogin(d.From)
			}
			location = d.To
		}
	}
	return a
}

func (a App) openLogin(from string) App {
	if a.screen != screenLogin || (from != "" && a.login.from != from) {
		a.login = a.login.reset(from)
	}
	a.screen = screenLogin
	a.location = a.router.Guard().Paths().Login
	return a
}

func screenFor(location string) screen {
	switch location {
	case PathAdmin:
		return screenAdmin
	case PathLogin:
		return screenLogin
	default:
		return screenHome
	}
}

func (a App) helpItems() []helpItem {
	if a.opts.WebURL == "" {
		return nil
	}
	return []helpItem{{label: "Web app", url: a.opts.WebURL}}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case sessionTickMsg:
		if (a.screen == screenHome || a.screen == screenAdmin) && a.mgr.CheckExpiry(context.Background()) {
			a.notice = "Sua sessão expirou. Entre novamente."
			a = a.navigate(a.location)
		}
		return a, sessionTickCmd()

	case restoredMsg:
		if msg.err != nil {
			a.notice = msg.err.Error()
		}
		return a.navigate(a.location), nil

	case sessionChangedMsg:
		if msg.session.Status == session.Restoring || a.screen == screenLogin {
			return a, nil
		}
		return a.navigate(a.location), nil

	case loginDoneMsg:
		var cmd tea.Cmd
		a.login, cmd = a.login.Update(msg)
		if msg.err == nil {
			a.notice = ""
			return a.navigate(a.router.Guard().ReturnTo(a.login.from)), cmd
		}
		return a, cmd

	case logoutDoneMsg:
		if errors.Is(msg.err, session.ErrBusy) {
			a.notice = "Aguarde, outra operação está em andamento."
			return a, nil
		}
		a.notice = ""
		return a.navigate(a.location), nil

	case tea.KeyMsg:
		return a.updateKeys(msg)
	}
	return a, nil
}

func (a App) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return a, tea.Quit
	}

	// Help overlay captures all keys when open
	if a.helpOpen {
		items := a.helpItems()
		switch key {
		case "h", "esc":
			a.helpOpen = false
		case "q":
			return a, tea.Quit
		case "j", "down":
			if a.helpCursor < len(items)-1 {
				a.helpCursor++
			}
		case "k", "up":
			if a.helpCursor > 0 {
				a.helpCursor--
			}
		case "enter":
			if a.helpCursor < len(items) {
				browser.Open(items[a.helpCursor].url) //nolint:errcheck // best-effort browser open
			}
		}
		return a, nil
	}

	// The login form owns the keyboard; esc on an idle form quits.
	if a.screen == screenLogin {
		if key == "esc" && !a.login.submitting {
			return a, tea.Quit
		}
		a.notice = ""
		var cmd tea.Cmd
		a.login, cmd = a.login.Update(msg)
		return a, cmd
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "h":
		a.helpOpen = true
		a.helpCursor = 0
	case "1":
		a.notice = ""
		a = a.navigate(PathHome)
	case "2":
		a.notice = ""
		a = a.navigate(PathAdmin)
		if a.screen == screenHome {
			a.notice = "Acesso restrito a administradores."
		}
	case "o":
		if a.screen == screenHome || a.screen == screenAdmin {
			return a, a.logout()
		}
	}
	return a, nil
}

func (a App) View() string {
	logo := renderShimmerLogo(a.frame)
	header := center(logo, a.width, lipgloss.Width(logo))

	s := a.mgr.Session()
	statusLine := metaStyle.Render(s.Status.String())
	if s.Identity != nil && s.IsAuthenticated() {
		statusLine = normalStyle.Render(s.Identity.DisplayName()) + " " + RoleBadge(s.Identity.Role)
	}
	header += "\n" + center(statusLine, a.width, lipgloss.Width(statusLine))

	tabs := a.tabBar(s)

	now := a.opts.Now()
	var body, help string
	switch a.screen {
	case screenPending:
		body = pendingView(a.frame, a.width)
		help = " " + helpEntry("q", "quit")
	case screenLogin:
		body = a.login.View()
		if a.login.submitting {
			help = " " + helpEntry("esc", "cancel")
		} else {
			help = " " + helpEntry("tab", "next") + "  " + helpEntry("enter", "entrar") + "  " + helpEntry("esc", "quit")
		}
	case screenHome:
		body = homeView(s, a.mgr.ExpiresAt(), now, a.width)
		help = a.navHelp()
	case screenAdmin:
		body = adminView(s, a.mgr.ExpiresAt(), now, a.width)
		help = a.navHelp()
	}

	if a.helpOpen {
		body = helpView(a.helpItems(), a.helpCursor, a.opts.Version)
		help = " " + helpEntry("j/k", "nav") + "  " + helpEntry("enter", "open") + "  " + helpEntry("esc", "close")
	}
	if a.notice != "" {
		body += "\n\n " + errorStyle.Render(a.notice)
	}

	// Chrome budget: header(2) + tabs(1) + help(1)
	body = strings.TrimRight(truncateToHeight(body, a.height-4), "\n")
	return fmt.Sprintf("%s\n%s\n%s\n%s", header, tabs, body, help)
}

func (a App) navHelp() string {
	return " " + helpEntry("1-2", "tabs") + "  " + helpEntry("o", "logout") + "  " + helpEntry("h", "help") + "  " + helpEntry("q", "quit")
}

// tabBar lists the guarded screens. Admin is dimmed for sessions that cannot open it.
func (a App) tabBar(s session.Session) string {
	if a.screen == screenPending || a.screen == screenLogin {
		return ""
	}
	type tabEntry struct {
		key  string
		name string
		scr  screen
	}
	tabs := []tabEntry{
		{"1", "Home", screenHome},
		{"2", "Admin", screenAdmin},
	}

	colWidth := a.width / len(tabs)
	var bar strings.Builder
	for _, t := range tabs {
		var label string
		switch {
		case t.scr == a.screen:
			label = accentStyle.Render(t.key) + " " + selectedStyle.Underline(true).Render(t.name)
		case t.scr == screenAdmin && !s.HasRole(domain.RoleAdmin):
			label = metaStyle.Render(t.key) + " " + inputPlaceholderStyle.Render(t.name)
		default:
			label = metaStyle.Render(t.key) + " " + dimStyle.Render(t.name)
		}
		w := lipgloss.Width(label)
		left := max((colWidth-w)/2, 0)
		right := max(colWidth-w-left, 0)
		bar.WriteString(strings.Repeat(" ", left) + label + strings.Repeat(" ", right))
	}
	return bar.String()
}
