package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/sulwork/breakfast/internal/config"
	"github.com/sulwork/breakfast/pkg/token/tokentest"
)

const testCPF = "52998224725"

// fakeAPI is a minimal identity service.
type fakeAPI struct {
	t          *testing.T
	mu         sync.Mutex
	role       string
	loginCode  int
	logouts    []string
	registered map[string]string
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		if f.loginCode != 0 {
			w.WriteHeader(f.loginCode)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "Credenciais inválidas"})
			return
		}
		var req struct {
			CPF      string `json:"cpf"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		now := time.Now()
		tok := tokentest.Sign(f.t, tokentest.Spec{
			Subject: req.CPF, UserID: 3, CPF: req.CPF, Name: "Bia", Role: f.role,
			IssuedAt: now, ExpiresAt: now.Add(time.Hour),
		})
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user":  map[string]any{"id": 3, "cpf": req.CPF, "name": "Bia", "role": f.role},
			"token": tok,
		})
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.logouts = append(f.logouts, r.Header.Get("Authorization"))
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /auth/validate", func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte("true"))
	})
	mux.HandleFunc("POST /auth/register", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if _, taken := f.registered[req["cpf"]]; taken {
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "CPF já cadastrado"})
			return
		}
		f.registered[req["cpf"]] = req["name"]
		w.WriteHeader(http.StatusCreated)
	})
	return mux
}

func newTestEnv(t *testing.T, environ map[string]string) (*env, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{t: t, role: "USER", registered: map[string]string{}}
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	vars := map[string]string{"BREAKFAST_API_URL": srv.URL, "BREAKFAST_STORE": "memory"}
	for k, v := range environ {
		vars[k] = v
	}
	cfg, err := config.Parse(vars)
	if err != nil {
		t.Fatalf("config.Parse: %v", err)
	}
	e, err := boot(context.Background(), cfg)
	if err != nil {
		t.Fatalf("boot: %v", err)
	}
	t.Cleanup(func() { e.Close() }) //nolint:errcheck
	return e, api
}

func TestLoginStatusTokenLogout(t *testing.T) {
	t.Setenv("BREAKFAST_PASSWORD", "secret")
	e, api := newTestEnv(t, nil)
	ctx := context.Background()

	var out bytes.Buffer
	if err := runLogin(ctx, e, []string{"529.982.247-25"}, strings.NewReader(""), &out); err != nil {
		t.Fatalf("runLogin: %v", err)
	}
	if !strings.Contains(out.String(), "Authenticated as Bia USER") {
		t.Errorf("login output = %q", out.String())
	}

	out.Reset()
	if err := runStatus(ctx, e, []string{"--remote"}, &out); err != nil {
		t.Fatalf("runStatus: %v", err)
	}
	for _, want := range []string{"authenticated", "Bia", "529.982.247-25", "USER", "remote:   valid", "memory"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("status output missing %q:\n%s", want, out.String())
		}
	}

	out.Reset()
	if err := runToken(ctx, e, nil, &out); err != nil {
		t.Fatalf("runToken: %v", err)
	}
	tok := strings.TrimSpace(out.String())
	if strings.Count(tok, ".") != 2 {
		t.Errorf("token output = %q, want a JWT", tok)
	}

	out.Reset()
	if err := runLogout(ctx, e, &out); err != nil {
		t.Fatalf("runLogout: %v", err)
	}
	if strings.TrimSpace(out.String()) != "Logged out." {
		t.Errorf("logout output = %q", out.String())
	}
	if len(api.logouts) != 1 || api.logouts[0] != "Bearer "+tok {
		t.Errorf("remote logouts = %v", api.logouts)
	}

	out.Reset()
	if err := runToken(ctx, e, nil, &out); err != errNotLoggedIn {
		t.Errorf("runToken after logout: err = %v, want errNotLoggedIn", err)
	}
}

func TestLoginRejected(t *testing.T) {
	e, api := newTestEnv(t, nil)
	api.loginCode = http.StatusUnauthorized

	var out bytes.Buffer
	err := runLogin(context.Background(), e, []string{testCPF}, strings.NewReader("wrong\n"), &out)
	if err == nil || err.Error() != "CPF ou Senha incorretos!" {
		t.Fatalf("runLogin err = %v, want invalid credentials message", err)
	}
	if !strings.Contains(out.String(), "Senha:") {
		t.Errorf("expected password prompt, got %q", out.String())
	}
	if e.mgr.IsAuthenticated() {
		t.Error("rejected login must not authenticate")
	}
}

func TestStatusSignedOut(t *testing.T) {
	e, _ := newTestEnv(t, nil)
	var out bytes.Buffer
	if err := runStatus(context.Background(), e, nil, &out); err != nil {
		t.Fatalf("runStatus: %v", err)
	}
	if !strings.Contains(out.String(), "unauthenticated") {
		t.Errorf("status output = %q", out.String())
	}
	if strings.Contains(out.String(), "role:") {
		t.Errorf("signed-out status should not print identity:\n%s", out.String())
	}
}

func TestLogoutWhenSignedOut(t *testing.T) {
	e, api := newTestEnv(t, nil)
	var out bytes.Buffer
	if err := runLogout(context.Background(), e, &out); err != nil {
		t.Fatalf("runLogout: %v", err)
	}
	if strings.TrimSpace(out.String()) != "Already logged out." {
		t.Errorf("logout output = %q", out.String())
	}
	if len(api.logouts) != 0 {
		t.Errorf("no remote call expected, got %v", api.logouts)
	}
}

func TestTokenCopy(t *testing.T) {
	t.Setenv("BREAKFAST_PASSWORD", "secret")
	e, _ := newTestEnv(t, nil)
	ctx := context.Background()
	if err := runLogin(ctx, e, []string{testCPF}, strings.NewReader(""), &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}

	var copied string
	orig := copyToClipboard
	copyToClipboard = func(s string) error { copied = s; return nil }
	t.Cleanup(func() { copyToClipboard = orig })

	var out bytes.Buffer
	if err := runToken(ctx, e, []string{"--copy"}, &out); err != nil {
		t.Fatalf("runToken --copy: %v", err)
	}
	if copied == "" || copied != e.mgr.Token() {
		t.Errorf("copied = %q, want the session token", copied)
	}
	if strings.Contains(out.String(), copied) {
		t.Error("--copy should not print the token")
	}
}

func TestUnknownFlags(t *testing.T) {
	e, _ := newTestEnv(t, nil)
	ctx := context.Background()
	if err := runStatus(ctx, e, []string{"--verbose"}, &bytes.Buffer{}); err == nil {
		t.Error("runStatus should reject unknown flags")
	}
	if err := runToken(ctx, e, []string{"--json"}, &bytes.Buffer{}); err == nil {
		t.Error("runToken should reject unknown flags")
	}
}

func TestRegister(t *testing.T) {
	t.Setenv("BREAKFAST_PASSWORD", "secret")
	e, api := newTestEnv(t, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"ok", []string{"Bia", "529.982.247-25"}, ""},
		{"duplicate", []string{"Bia", testCPF}, "CPF já cadastrado"},
		{"bad cpf", []string{"Bia", "111.111.111-11"}, "invalid CPF"},
		{"missing args", []string{"Bia"}, "usage"},
		{"blank name", []string{" ", testCPF}, "name is required"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			err := runRegister(ctx, e, tc.args, strings.NewReader(""), &out)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("runRegister: %v", err)
				}
				if !strings.Contains(out.String(), "Account created for Bia") {
					t.Errorf("output = %q", out.String())
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("err = %v, want %q", err, tc.wantErr)
			}
		})
	}
	if api.registered[testCPF] != "Bia" {
		t.Errorf("registered = %v", api.registered)
	}
}

func TestReadPasswordFromInput(t *testing.T) {
	t.Setenv("BREAKFAST_PASSWORD", "")
	var out bytes.Buffer
	pw, err := readPassword(strings.NewReader("s3nha\r\n"), &out)
	if err != nil {
		t.Fatal(err)
	}
	if pw != "s3nha" {
		t.Errorf("password = %q, want %q", pw, "s3nha")
	}
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "session")
		st, label, closer, err := openStore(ctx, config.Config{Store: config.StoreFile, SessionFile: path})
		if err != nil {
			t.Fatal(err)
		}
		if closer != nil {
			t.Error("file store needs no closer")
		}
		if label != "file "+path {
			t.Errorf("label = %q", label)
		}
		if err := st.Save(ctx, "x"); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		st, label, closer, err := openStore(ctx, config.Config{
			Store: config.StoreRedis, RedisURL: "redis://" + mr.Addr(), Profile: "kiosk",
		})
		if err != nil {
			t.Fatal(err)
		}
		defer closer.Close() //nolint:errcheck
		if label != "redis breakfast:session:kiosk" {
			t.Errorf("label = %q", label)
		}
		if err := st.Save(ctx, "x"); err != nil {
			t.Fatal(err)
		}
		if got, _ := mr.Get("breakfast:session:kiosk"); got != "x" {
			t.Errorf("redis value = %q", got)
		}
	})

	t.Run("redis unreachable", func(t *testing.T) {
		_, _, _, err := openStore(ctx, config.Config{Store: config.StoreRedis, RedisURL: "redis://127.0.0.1:1"})
		if err == nil {
			t.Error("expected connection error")
		}
	})
}

func TestSessionPersistsAcrossBoots(t *testing.T) {
	t.Setenv("BREAKFAST_PASSWORD", "secret")
	path := filepath.Join(t.TempDir(), "session")
	environ := map[string]string{"BREAKFAST_STORE": "file", "BREAKFAST_SESSION_FILE": path}

	first, _ := newTestEnv(t, environ)
	if err := runLogin(context.Background(), first, []string{testCPF}, strings.NewReader(""), &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}

	second, _ := newTestEnv(t, environ)
	var out bytes.Buffer
	if err := runStatus(context.Background(), second, nil, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "authenticated") || strings.Contains(out.String(), "unauthenticated") {
		t.Errorf("expected restored session:\n%s", out.String())
	}
}

func TestRunUnknownCommand(t *testing.T) {
	t.Setenv("BREAKFAST_STORE", "memory")
	err := run([]string{"bake"})
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("run(bake) = %v", err)
	}
}

func TestPrintHelp(t *testing.T) {
	var out bytes.Buffer
	printHelp(&out)
	for _, want := range []string{"breakfast login", "breakfast status", "BREAKFAST_API_URL"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("help missing %q", want)
		}
	}
}
