package sharing

import (
	"strings"
	"testing"
)

func TestGenerateToken_UniqueAndHashed(t *testing.T) {
	const n = 10000
	seen := make(map[string]struct{}, n)

	for i := 0; i < n; i++ {
		raw, hash := GenerateToken()
		if len(raw) != 43 {
			t.Fatalf("expected 43-char base64url token, got %d (%q)", len(raw), raw)
		}
		if strings.ContainsAny(raw, "+/=") {
			t.Fatalf("token is not url-safe: %q", raw)
		}
		if hash != HashToken(raw) {
			t.Fatalf("hash mismatch for token %d", i)
		}
		if hash == raw {
			t.Fatalf("hash must differ from raw token")
		}
		if _, dup := seen[raw]; dup {
			t.Fatalf("duplicate token after %d generations", i)
		}
		seen[raw] = struct{}{}
	}
}

func TestHashToken_Deterministic(t *testing.T) {
	a := HashToken("abc")
	b := HashToken("abc")
	if a != b {
		t.Fatalf("expected deterministic hash")
	}
	if len(a) != 64 {
		t.Fatalf("expected hex sha256, got len %d", len(a))
	}
	if HashToken("abd") == a {
		t.Fatalf("different tokens must hash differently")
	}
	if tokenPrefix(a) != a[:8] {
		t.Fatalf("unexpected prefix %q", tokenPrefix(a))
	}
}

func TestTokenMatches(t *testing.T) {
	h := HashToken("secret")
	if !TokenMatches(h, HashToken("secret")) {
		t.Fatalf("expected match")
	}
	if TokenMatches(h, HashToken("other")) || TokenMatches(h, "") {
		t.Fatalf("expected mismatch")
	}
}
