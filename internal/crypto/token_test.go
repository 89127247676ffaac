package crypto

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewTokenSecret_ShapeAndUniqueness(t *testing.T) {
	t.Parallel()

	s1, p1, h1, err := NewTokenSecret()
	if err != nil {
		t.Fatalf("NewTokenSecret: %v", err)
	}
	if !strings.HasPrefix(s1, TokenPrefix) {
		t.Fatalf("secret %q missing prefix %q", s1, TokenPrefix)
	}
	if p1 != s1[:displayLen] {
		t.Fatalf("display prefix %q not a prefix of the secret", p1)
	}
	if !bytes.Equal(h1, HashTokenSecret(s1)) {
		t.Fatalf("returned hash does not match HashTokenSecret")
	}

	s2, _, h2, err := NewTokenSecret()
	if err != nil {
		t.Fatalf("NewTokenSecret(2): %v", err)
	}
	if s1 == s2 || bytes.Equal(h1, h2) {
		t.Fatalf("two issued secrets are identical")
	}
}

func TestHashTokenSecret_Deterministic(t *testing.T) {
	t.Parallel()

	if !bytes.Equal(HashTokenSecret("tgk_abc"), HashTokenSecret("tgk_abc")) {
		t.Fatalf("hash not deterministic")
	}
	if bytes.Equal(HashTokenSecret("tgk_abc"), HashTokenSecret("tgk_abd")) {
		t.Fatalf("distinct secrets hash equal")
	}
}
