package identity_test

import (
	"testing"

	"github.com/google/uuid"

	"github.com/goliatone/go-resource-cms/internal/identity"
)

func TestUUIDIsStable(t *testing.T) {
	a := identity.UUID("cms:resource:default:about.md")
	b := identity.UUID("  cms:resource:default:about.md ")
	if a == uuid.Nil {
		t.Fatalf("expected non nil uuid")
	}
	if a != b {
		t.Fatalf("expected trimmed keys to match: %s != %s", a, b)
	}
}

func TestUUIDEmptyKey(t *testing.T) {
	if got := identity.UUID("   "); got != uuid.Nil {
		t.Fatalf("expected nil uuid, got %s", got)
	}
	if got := identity.ResourceUUID("default", "/"); got != uuid.Nil {
		t.Fatalf("expected nil uuid for empty source, got %s", got)
	}
}

func TestResourceUUIDScopesBySite(t *testing.T) {
	cases := []struct {
		name string
		a, b uuid.UUID
		same bool
	}{
		{"same source", identity.ResourceUUID("default", "docs/intro.md"), identity.ResourceUUID("DEFAULT", "/docs/intro.md"), true},
		{"other site", identity.ResourceUUID("default", "docs/intro.md"), identity.ResourceUUID("blog", "docs/intro.md"), false},
		{"other source", identity.ResourceUUID("default", "docs/intro.md"), identity.ResourceUUID("default", "docs/setup.md"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if (tc.a == tc.b) != tc.same {
				t.Fatalf("expected same=%v, got %s and %s", tc.same, tc.a, tc.b)
			}
		})
	}
}
