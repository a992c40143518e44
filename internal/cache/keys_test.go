package cache

import (
	"strings"
	"testing"
)

func TestKey_Deterministic(t *testing.T) {
	a := Key(NSDraft, map[string]string{"website": "https://acme.io", "doc_type": "privacy_policy"})
	b := Key(NSDraft, map[string]string{"doc_type": "privacy_policy", "website": "https://acme.io"})
	if a != b {
		t.Fatalf("same fields must produce the same key: %s vs %s", a, b)
	}
}

func TestKey_TrimsWhitespace(t *testing.T) {
	a := Key(NSDraft, map[string]string{"website": "https://acme.io"})
	b := Key(NSDraft, map[string]string{"website": "  https://acme.io  "})
	if a != b {
		t.Fatal("field values must be trimmed before hashing")
	}
}

func TestKey_DistinguishesValues(t *testing.T) {
	a := Key(NSDraft, map[string]string{"website": "https://acme.io"})
	b := Key(NSDraft, map[string]string{"website": "https://other.io"})
	if a == b {
		t.Fatal("different field values must produce different keys")
	}
}

func TestKey_NamespaceIsolation(t *testing.T) {
	fields := map[string]string{"url": "https://acme.io"}
	a := Key(NSCrawl, fields)
	b := Key(NSLandingPatch, fields)
	if a == b {
		t.Fatal("same fields in different namespaces must not collide")
	}
	if !strings.HasPrefix(a, NSCrawl) {
		t.Fatalf("key %q missing namespace prefix %q", a, NSCrawl)
	}
}

func TestKey_Opaque(t *testing.T) {
	key := Key(NSCompetitor, map[string]string{"product": "https://acme.io/a b", "competitor": "https://other.io"})
	hash := strings.TrimPrefix(key, NSCompetitor)
	if len(hash) != 64 {
		t.Fatalf("expected 64 hex chars after namespace, got %d", len(hash))
	}
	if strings.ContainsAny(hash, " /?#") {
		t.Fatalf("key must be safe as a store identifier: %q", key)
	}
}
