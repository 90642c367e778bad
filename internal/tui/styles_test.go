package tui

import (
	"strings"
	"testing"

	"github.com/sulwork/breakfast/pkg/domain"
)

func TestRoleStyleKnownRoles(t *testing.T) {
	for _, r := range domain.Roles {
		t.Run(r.String(), func(t *testing.T) {
			rendered := RoleStyle(r).Render(r.String())
			if !strings.Contains(rendered, r.String()) {
				t.Errorf("RoleStyle(%q).Render = %q, want to contain role", r, rendered)
			}
		})
	}
}

func TestRoleStyleUnknownFallback(t *testing.T) {
	rendered := RoleStyle(domain.Role("GUEST")).Render("GUEST")
	if !strings.Contains(rendered, "GUEST") {
		t.Errorf("RoleStyle fallback did not render text: %q", rendered)
	}
}

func TestRoleBadge(t *testing.T) {
	if got := RoleBadge(domain.RoleAdmin); !strings.Contains(got, "[ADMIN]") {
		t.Errorf("RoleBadge(ADMIN) = %q, want to contain [ADMIN]", got)
	}
	if got := RoleBadge(""); got != "" {
		t.Errorf("RoleBadge(\"\") = %q, want empty string", got)
	}
}

func TestHelpEntryFormat(t *testing.T) {
	result := helpEntry("o", "logout")
	if !strings.Contains(result, "o") || !strings.Contains(result, "logout") {
		t.Errorf("helpEntry('o','logout') = %q", result)
	}
}

func TestHelpViewLinks(t *testing.T) {
	items := []helpItem{{label: "Web app", url: "http://localhost:3000"}}
	view := helpView(items, 0, "v1.2.0")
	for _, want := range []string{"breakfast login", "Web app", "http://localhost:3000", "v1.2.0", ">"} {
		if !strings.Contains(view, want) {
			t.Errorf("helpView missing %q:\n%s", want, view)
		}
	}

	if view := helpView(nil, 0, "dev"); strings.Contains(view, "Links") {
		t.Errorf("helpView without items should not render links section:\n%s", view)
	}
}

func TestShimmerLogoRendersEveryLetter(t *testing.T) {
	for _, frame := range []int{0, 17, 300} {
		logo := renderShimmerLogo(frame)
		for _, ch := range "BREAKFAST" {
			if !strings.ContainsRune(logo, ch) {
				t.Fatalf("frame %d: logo missing %q", frame, ch)
			}
		}
	}
}

func TestSpinnerCycles(t *testing.T) {
	if spinner(0) == "" || spinner(-3) == "" {
		t.Fatal("spinner returned empty frame")
	}
	if spinner(0) != spinner(len(spinnerFrames)) {
		t.Error("spinner should cycle through its frames")
	}
}
