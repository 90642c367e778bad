package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sulwork/breakfast/internal/config"
	"github.com/sulwork/breakfast/internal/logging"
	"github.com/sulwork/breakfast/internal/session"
	"github.com/sulwork/breakfast/internal/store"
	"github.com/sulwork/breakfast/internal/tui"
	"github.com/sulwork/breakfast/pkg/client"
	"github.com/sulwork/breakfast/pkg/token"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cmd := ""
	if len(args) > 0 {
		cmd = args[0]
		args = args[1:]
	}

	switch cmd {
	case "--version", "version", "-v":
		fmt.Println("breakfast " + version)
		return nil
	case "help", "--help", "-h":
		printHelp(os.Stdout)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx := context.Background()
	e, err := boot(ctx, cfg)
	if err != nil {
		return err
	}
	defer e.Close() //nolint:errcheck

	switch cmd {
	case "":
		return runTUI(e, tui.PathHome)
	case "login":
		if len(args) == 0 {
			return runTUI(e, tui.PathLogin)
		}
		return runLogin(ctx, e, args, os.Stdin, os.Stdout)
	case "logout":
		return runLogout(ctx, e, os.Stdout)
	case "status":
		return runStatus(ctx, e, args, os.Stdout)
	case "token":
		return runToken(ctx, e, args, os.Stdout)
	case "register":
		return runRegister(ctx, e, args, os.Stdin, os.Stdout)
	case "web":
		return runWeb(e, os.Stdout)
	default:
		return fmt.Errorf("unknown command %q (see breakfast help)", cmd)
	}
}

// env is everything a command needs, built once per process.
type env struct {
	cfg        config.Config
	logger     *slog.Logger
	store      store.Store
	storeLabel string
	client     *client.Client
	mgr        *session.Manager
	closers    []io.Closer
}

// boot wires config into logger, store, identity client and session manager.
// Outbound requests authorize with whatever token the manager currently holds.
func boot(ctx context.Context, cfg config.Config) (*env, error) {
	logger, logCloser, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, logger: logger, closers: []io.Closer{logCloser}}

	st, label, closer, err := openStore(ctx, cfg)
	if err != nil {
		e.Close() //nolint:errcheck
		return nil, err
	}
	if closer != nil {
		e.closers = append(e.closers, closer)
	}
	e.store, e.storeLabel = st, label

	e.client = client.New(cfg.APIURL,
		client.WithTimeout(cfg.Timeout),
		client.WithTokenSource(func() string { return e.mgr.Token() }),
	)

	var decodeOpts []token.Option
	if cfg.AllowUnexpiringTokens {
		decodeOpts = append(decodeOpts, token.AllowMissingExpiry())
	}
	e.mgr = session.New(st, e.client,
		session.WithLogger(logger.With(slog.String("component", "session"))),
		session.WithDecodeOptions(decodeOpts...),
	)
	logger.Debug("booted", slog.String("api", cfg.APIURL), slog.String("store", label))
	return e, nil
}

func openStore(ctx context.Context, cfg config.Config) (store.Store, string, io.Closer, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return store.NewMemory(), "memory", nil, nil
	case config.StoreRedis:
		rdb, err := store.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, "", nil, err
		}
		r := store.NewRedis(rdb, cfg.Profile)
		return r, "redis " + r.Key(), rdb, nil
	default:
		path := cfg.SessionFile
		if path == "" {
			p, err := store.DefaultPath()
			if err != nil {
				return nil, "", nil, err
			}
			path = p
		}
		return store.NewFile(path), "file " + path, nil, nil
	}
}

// Close releases the manager, the store connection and the log file.
func (e *env) Close() error {
	if e.mgr != nil {
		e.mgr.Close()
	}
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func runTUI(e *env, start string) error {
	app := tui.NewApp(e.mgr, tui.Options{Start: start, Version: version, WebURL: e.cfg.WebURL})
	p := tea.NewProgram(app, tea.WithAltScreen())

	// Transitions can fire from inside Update, so deliver them asynchronously.
	unsubscribe := e.mgr.Subscribe(func(s session.Session) {
		go p.Send(tui.SessionChanged(s))
	})
	defer unsubscribe()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}
