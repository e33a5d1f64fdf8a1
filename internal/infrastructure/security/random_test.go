package security

import (
	"encoding/base64"
	"testing"
)

func TestRandomID(t *testing.T) {
	a, err := RandomID(SessionIDBytes)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	raw, err := base64.RawURLEncoding.DecodeString(a)
	if err != nil || len(raw) != SessionIDBytes {
		t.Fatalf("expected %d url-safe bytes, got %q (%v)", SessionIDBytes, a, err)
	}
	b, _ := RandomID(SessionIDBytes)
	if a == b {
		t.Fatalf("expected distinct ids")
	}
	if _, err := RandomID(0); err == nil {
		t.Fatalf("expected error for zero length")
	}
}
