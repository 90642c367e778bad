package browser

import (
	"os/exec"
	"strings"
	"testing"
)

func TestCommand(t *testing.T) {
	tests := []struct {
		goos     string
		wantArg0 string
	}{
		{"darwin", "open"},
		{"linux", "xdg-open"},
		{"windows", "rundll32"},
	}
	for _, tc := range tests {
		t.Run(tc.goos, func(t *testing.T) {
			cmd, err := Command(tc.goos, "http://localhost:3000/login")
			if err != nil {
				t.Fatalf("Command: %v", err)
			}
			if !strings.HasSuffix(cmd.Path, tc.wantArg0) && cmd.Args[0] != tc.wantArg0 {
				t.Errorf("launcher = %v, want %s", cmd.Args, tc.wantArg0)
			}
			if last := cmd.Args[len(cmd.Args)-1]; last != "http://localhost:3000/login" {
				t.Errorf("url arg = %q", last)
			}
		})
	}
}

func TestCommandRejects(t *testing.T) {
	for _, raw := range []string{"file:///etc/passwd", "javascript:alert(1)", "not a url", ""} {
		if _, err := Command("linux", raw); err == nil {
			t.Errorf("Command(%q) should fail", raw)
		}
	}
	if _, err := Command("plan9", "https://example.com"); err == nil {
		t.Error("unsupported OS should fail")
	}
}

func TestOpenUsesStarter(t *testing.T) {
	var got *exec.Cmd
	orig := start
	start = func(cmd *exec.Cmd) error { got = cmd; return nil }
	t.Cleanup(func() { start = orig })

	if err := Open("https://example.com"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got == nil {
		t.Fatal("expected a launched command")
	}
}
