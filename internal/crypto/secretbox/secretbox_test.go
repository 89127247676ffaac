package secretbox

import (
	"bytes"
	"errors"
	"testing"

	"github.com/and161185/ticketgate/internal/errs"
)

func TestSealOpen_RoundTrip(t *testing.T) {
	t.Parallel()

	box, err := New("deployment-master-secret")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for _, secret := range []string{
		"12345678",
		"an ordinary api token",
		"unicode-секрет-秘密-!@#$%^&*()",
		"tgk_lo0KQFbcPvXM2H1mCdE3fG4hJ5kL6mN7oP8qR9sT0u",
	} {
		ct, nonce, err := box.Seal([]byte(secret))
		if err != nil {
			t.Fatalf("Seal(%q): %v", secret, err)
		}
		pt, err := box.Open(ct, nonce)
		if err != nil {
			t.Fatalf("Open(%q): %v", secret, err)
		}
		if !bytes.Equal(pt, []byte(secret)) {
			t.Fatalf("round trip mismatch: got %q want %q", pt, secret)
		}
	}
}

func TestSeal_FreshNoncePerRecord(t *testing.T) {
	t.Parallel()

	box, _ := New("k")
	ct1, n1, err := box.Seal([]byte("same plaintext"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	ct2, n2, err := box.Seal([]byte("same plaintext"))
	if err != nil {
		t.Fatalf("Seal(2): %v", err)
	}
	if bytes.Equal(n1, n2) {
		t.Fatalf("nonce reused across records")
	}
	if bytes.Equal(ct1, ct2) {
		t.Fatalf("identical ciphertexts for fresh nonces")
	}
}

func TestOpen_WrongKeyOrTamperFails(t *testing.T) {
	t.Parallel()

	box, _ := New("key-one")
	other, _ := New("key-two")

	ct, nonce, err := box.Seal([]byte("payload"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	if _, err := other.Open(ct, nonce); err == nil {
		t.Fatalf("Open with wrong key must fail")
	}

	flipped := append([]byte(nil), ct...)
	flipped[0] ^= 0x01
	if _, err := box.Open(flipped, nonce); err == nil {
		t.Fatalf("Open of tampered ciphertext must fail")
	}

	if _, err := box.Open(ct, nonce[:4]); err == nil {
		t.Fatalf("Open with truncated nonce must fail")
	}
}

func TestUnconfigured_FailsClosed(t *testing.T) {
	t.Parallel()

	box, err := New("")
	if err != nil {
		t.Fatalf("New(\"\"): %v", err)
	}
	if box != nil {
		t.Fatalf("empty master secret must yield nil box")
	}

	if _, _, err := box.Seal([]byte("x")); !errors.Is(err, errs.ErrNotConfigured) {
		t.Fatalf("Seal on nil box: got %v, want ErrNotConfigured", err)
	}
	if _, err := box.Open([]byte("x"), make([]byte, 24)); !errors.Is(err, errs.ErrNotConfigured) {
		t.Fatalf("Open on nil box: got %v, want ErrNotConfigured", err)
	}
}
