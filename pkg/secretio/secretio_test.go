package secretio

import (
	"bytes"
	"testing"
)

func TestSanitizePassphraseExcisesEmbeddedZeros(t *testing.T) {
	raw := []byte("sw\x00ord\x00fish")
	got := sanitizePassphrase(raw)
	want := []byte("swordfish")
	if !bytes.Equal(got, want) {
		t.Fatalf("sanitizePassphrase(%q) = %q, want %q", raw, got, want)
	}
}

func TestSanitizePassphraseTrimsTrailingWhitespace(t *testing.T) {
	raw := []byte("swordfish\n\t \x00")
	got := sanitizePassphrase(raw)
	want := []byte("swordfish")
	if !bytes.Equal(got, want) {
		t.Fatalf("sanitizePassphrase(%q) = %q, want %q", raw, got, want)
	}
}

func TestSanitizePassphraseLeavesInteriorWhitespace(t *testing.T) {
	raw := []byte("sword fish")
	got := sanitizePassphrase(raw)
	if !bytes.Equal(got, raw) {
		t.Fatalf("sanitizePassphrase(%q) = %q, want unchanged", raw, got)
	}
}
