package stegocipher

import (
	"bytes"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plain := bytes.Repeat([]byte("A"), 3*BlockSize)
	buf := make([]byte, len(plain))
	copy(buf, plain)

	password := []byte("swordfish")

	if err := Apply(buf, password, Encrypt); err != nil {
		t.Fatalf("Apply(Encrypt): %v", err)
	}
	if bytes.Equal(buf, plain) {
		t.Fatalf("ciphertext equals plaintext")
	}

	if err := Apply(buf, password, Decrypt); err != nil {
		t.Fatalf("Apply(Decrypt): %v", err)
	}
	if !bytes.Equal(buf, plain) {
		t.Fatalf("round trip mismatch: got %v, want %v", buf, plain)
	}
}

func TestApplyRejectsUnalignedBuffer(t *testing.T) {
	buf := make([]byte, BlockSize+1)
	if err := Apply(buf, []byte("key"), Encrypt); err == nil {
		t.Fatalf("expected error for unaligned buffer")
	}
}

func TestApplyDeterministic(t *testing.T) {
	plain := bytes.Repeat([]byte{0x01, 0x02, 0x03, 0x04}, 64)
	password := []byte("swordfish")

	buf1 := append([]byte(nil), plain...)
	buf2 := append([]byte(nil), plain...)

	if err := Apply(buf1, password, Encrypt); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := Apply(buf2, password, Encrypt); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !bytes.Equal(buf1, buf2) {
		t.Fatalf("fixed IV + same key should be deterministic")
	}
}

func TestApplyHandlesChunkBoundary(t *testing.T) {
	plain := make([]byte, chunkSize+BlockSize*3)
	for i := range plain {
		plain[i] = byte(i)
	}
	buf := append([]byte(nil), plain...)
	password := []byte("a long passphrase for chunk testing")

	if err := Apply(buf, password, Encrypt); err != nil {
		t.Fatalf("Apply(Encrypt): %v", err)
	}
	if err := Apply(buf, password, Decrypt); err != nil {
		t.Fatalf("Apply(Decrypt): %v", err)
	}
	if !bytes.Equal(buf, plain) {
		t.Fatalf("chunked round trip mismatch")
	}
}
