// Package sign authenticates the internal hop between the edge router and a
// session actor. The two sides are separate trust domains: every header the
// actor later uses for an authorization decision is covered by one
// HMAC-SHA256 signature over a canonical string, valid only within a bounded
// freshness window.
package sign

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/and161185/ticketgate/internal/errs"
)

// Version is the canonicalization version; verification requires an exact match.
const Version = "v1"

// FreshnessWindow bounds the absolute clock skew between signing and
// verification. It doubles as the implicit end-to-end request timeout: a
// late-arriving envelope is unconditionally rejected.
const FreshnessWindow = 2 * time.Minute

// Internal hop headers. Never client-set: the edge strips and rewrites them
// on every forwarded request.
const (
	HeaderSignature = "X-Gw-Signature"
	HeaderTimestamp = "X-Gw-Timestamp"
	HeaderVersion   = "X-Gw-Sign-Version"

	HeaderUserID      = "X-Gw-User-Id"
	HeaderUserEmail   = "X-Gw-User-Email"
	HeaderTokenID     = "X-Gw-Token-Id"
	HeaderWorkspaceID = "X-Gw-Workspace-Id"

	HeaderBackendURL      = "X-Gw-Backend-Url"
	HeaderBackendUsername = "X-Gw-Backend-Username"
	HeaderBackendSecret   = "X-Gw-Backend-Secret"
)

// HeaderSessionID carries protocol session continuity; it participates in
// the signature because the actor keys its session table on it.
const HeaderSessionID = "Mcp-Session-Id"

// coveredHeaders is every header downstream authorization reads, in
// canonical order. Adding an authorization-relevant header without listing
// it here would let it be forged post-signature.
var coveredHeaders = []string{
	HeaderSessionID,
	HeaderUserID,
	HeaderUserEmail,
	HeaderTokenID,
	HeaderWorkspaceID,
	HeaderBackendURL,
	HeaderBackendUsername,
	HeaderBackendSecret,
}

// Signer signs and verifies internal requests with a shared static secret.
type Signer struct {
	secret []byte
	now    func() time.Time
}

// New constructs a Signer. An empty secret is a deployment error: the
// constructor refuses it so the gateway fails closed at startup.
func New(secret []byte) (*Signer, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("sign: empty secret: %w", errs.ErrNotConfigured)
	}
	return &Signer{secret: secret, now: time.Now}, nil
}

// WithClock overrides the time source (tests only).
func (s *Signer) WithClock(now func() time.Time) *Signer {
	cp := *s
	cp.now = now
	return &cp
}

// Sign stamps the current time and attaches signature, timestamp and version
// headers computed over the canonical string of r and body.
func (s *Signer) Sign(r *http.Request, body []byte) {
	ts := strconv.FormatInt(s.now().Unix(), 10)
	r.Header.Set(HeaderTimestamp, ts)
	r.Header.Set(HeaderVersion, Version)
	r.Header.Set(HeaderSignature, s.compute(r, body, ts))
}

// Verify recomputes the canonical signature and compares it in constant
// time. Every failure mode (missing headers, version mismatch, stale or
// malformed timestamp, bad signature) maps to the same unauthorized
// sentinel.
func (s *Signer) Verify(r *http.Request, body []byte) error {
	sig := r.Header.Get(HeaderSignature)
	ts := r.Header.Get(HeaderTimestamp)
	ver := r.Header.Get(HeaderVersion)
	if sig == "" || ts == "" || ver != Version {
		return fmt.Errorf("sign: missing or mismatched headers: %w", errs.ErrUnauthorized)
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return fmt.Errorf("sign: bad timestamp: %w", errs.ErrUnauthorized)
	}
	age := s.now().Sub(time.Unix(unix, 0))
	if age > FreshnessWindow || age < -FreshnessWindow {
		return fmt.Errorf("sign: stale timestamp: %w", errs.ErrUnauthorized)
	}

	want := s.compute(r, body, ts)
	if !hmac.Equal([]byte(sig), []byte(want)) {
		return fmt.Errorf("sign: signature mismatch: %w", errs.ErrUnauthorized)
	}
	return nil
}

// compute builds the canonical string and reduces it to a hex MAC.
func (s *Signer) compute(r *http.Request, body []byte, ts string) string {
	bodyHash := sha256.Sum256(body)

	parts := make([]string, 0, 5+len(coveredHeaders))
	parts = append(parts, Version, r.Method, r.URL.Path, r.URL.RawQuery)
	for _, h := range coveredHeaders {
		parts = append(parts, r.Header.Get(h))
	}
	parts = append(parts, ts, hex.EncodeToString(bodyHash[:]))

	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(strings.Join(parts, "\n")))
	return hex.EncodeToString(mac.Sum(nil))
}

// Strip removes every internal header from an inbound external request so a
// caller can never smuggle identity or credentials past the edge.
func Strip(h http.Header) {
	h.Del(HeaderSignature)
	h.Del(HeaderTimestamp)
	h.Del(HeaderVersion)
	for _, name := range coveredHeaders {
		if name == HeaderSessionID {
			continue // client-visible, carries session continuity
		}
		h.Del(name)
	}
}
