package sign

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/and161185/ticketgate/internal/errs"
)

func TestNew_EmptySecretFailsClosed(t *testing.T) {
	t.Parallel()

	if _, err := New(nil); !errors.Is(err, errs.ErrNotConfigured) {
		t.Fatalf("New(nil): got %v, want ErrNotConfigured", err)
	}
}

func TestVerify_RoundTrip(t *testing.T) {
	t.Parallel()

	s, err := New([]byte("hop-secret"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	body := []byte(`{"jsonrpc":"2.0","method":"initialize","id":1}`)
	r := httptest.NewRequest("POST", "/mcp?sessionId=abc", nil)
	r.Header.Set(HeaderUserID, "u-1")
	r.Header.Set(HeaderUserEmail, "a@x.com")
	r.Header.Set(HeaderBackendURL, "https://tickets.example.com")

	s.Sign(r, body)
	if err := s.Verify(r, body); err != nil {
		t.Fatalf("Verify of unmodified request: %v", err)
	}
}

func TestVerify_AnyMutatedFieldFails(t *testing.T) {
	t.Parallel()

	s, _ := New([]byte("hop-secret"))
	origBody := []byte(`{"jsonrpc":"2.0","method":"tools/call","id":2}`)

	for _, tc := range []struct {
		name   string
		mutate func(r *http.Request, body []byte) []byte
	}{
		{"method", func(r *http.Request, b []byte) []byte { r.Method = "DELETE"; return b }},
		{"path", func(r *http.Request, b []byte) []byte { r.URL.Path = "/mcp/other"; return b }},
		{"query", func(r *http.Request, b []byte) []byte { r.URL.RawQuery = "sessionId=other"; return b }},
		{"session header", func(r *http.Request, b []byte) []byte { r.Header.Set(HeaderSessionID, "stolen"); return b }},
		{"user id", func(r *http.Request, b []byte) []byte { r.Header.Set(HeaderUserID, "u-2"); return b }},
		{"workspace id", func(r *http.Request, b []byte) []byte { r.Header.Set(HeaderWorkspaceID, "w-9"); return b }},
		{"backend secret", func(r *http.Request, b []byte) []byte { r.Header.Set(HeaderBackendSecret, "hijacked"); return b }},
		{"body", func(r *http.Request, b []byte) []byte { return []byte(`{}`) }},
		{"signature", func(r *http.Request, b []byte) []byte { r.Header.Set(HeaderSignature, "deadbeef"); return b }},
		{"timestamp", func(r *http.Request, b []byte) []byte { r.Header.Set(HeaderTimestamp, "0"); return b }},
		{"version", func(r *http.Request, b []byte) []byte { r.Header.Set(HeaderVersion, "v2"); return b }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/mcp?sessionId=abc", nil)
			r.Header.Set(HeaderSessionID, "abc")
			r.Header.Set(HeaderUserID, "u-1")
			r.Header.Set(HeaderBackendSecret, "api-token")
			body := append([]byte(nil), origBody...)
			s.Sign(r, body)

			body = tc.mutate(r, body)
			if err := s.Verify(r, body); !errors.Is(err, errs.ErrUnauthorized) {
				t.Fatalf("Verify after mutating %s: got %v, want ErrUnauthorized", tc.name, err)
			}
		})
	}
}

func TestVerify_FreshnessWindow(t *testing.T) {
	t.Parallel()

	base, _ := New([]byte("hop-secret"))
	signedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	body := []byte(`{"jsonrpc":"2.0","method":"initialize","id":1}`)
	r := httptest.NewRequest("POST", "/mcp", nil)
	base.WithClock(func() time.Time { return signedAt }).Sign(r, body)

	for _, tc := range []struct {
		name string
		at   time.Time
		ok   bool
	}{
		{"immediate", signedAt, true},
		{"inside window", signedAt.Add(90 * time.Second), true},
		{"boundary", signedAt.Add(FreshnessWindow), true},
		{"replayed late", signedAt.Add(FreshnessWindow + time.Second), false},
		{"from the future", signedAt.Add(-FreshnessWindow - time.Second), false},
	} {
		err := base.WithClock(func() time.Time { return tc.at }).Verify(r, body)
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && !errors.Is(err, errs.ErrUnauthorized) {
			t.Fatalf("%s: got %v, want ErrUnauthorized", tc.name, err)
		}
	}
}

func TestVerify_MissingHeaders(t *testing.T) {
	t.Parallel()

	s, _ := New([]byte("hop-secret"))
	body := []byte(`{}`)

	r := httptest.NewRequest("POST", "/mcp", nil)
	if err := s.Verify(r, body); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("unsigned request: got %v, want ErrUnauthorized", err)
	}

	s.Sign(r, body)
	r.Header.Del(HeaderTimestamp)
	if err := s.Verify(r, body); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("missing timestamp: got %v, want ErrUnauthorized", err)
	}
}

func TestStrip_RemovesInternalHeaders(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest("POST", "/mcp", nil)
	r.Header.Set(HeaderUserID, "forged")
	r.Header.Set(HeaderBackendSecret, "forged")
	r.Header.Set(HeaderSignature, "forged")
	r.Header.Set(HeaderSessionID, "legit-session")

	Strip(r.Header)

	if r.Header.Get(HeaderUserID) != "" || r.Header.Get(HeaderBackendSecret) != "" || r.Header.Get(HeaderSignature) != "" {
		t.Fatalf("internal headers survived Strip")
	}
	if r.Header.Get(HeaderSessionID) != "legit-session" {
		t.Fatalf("session continuity header must survive Strip")
	}
}
