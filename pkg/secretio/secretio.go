// Package secretio handles the front-end's passphrase and payload I/O: an
// inline CLI argument, or file descriptor 4 for the passphrase when no
// argument is given, plus reading the hidden payload from stdin.
package secretio

import (
	"bytes"
	"io"
	"os"
)

// trailingCutset is the run of bytes stripped from the end of a passphrase
// read from file descriptor 4, after zero-byte excision.
const trailingCutset = " \t\n\x00"

// ReadPassphraseFD4 reads the whole of file descriptor 4, excises every
// zero byte (not just a trailing run), and trims any trailing run of
// space/tab/newline/NUL. This lets shell pipelines hand the engine a key
// without it ever appearing as a command-line argument.
func ReadPassphraseFD4() ([]byte, error) {
	fd4 := os.NewFile(4, "/dev/fd/4")
	if fd4 == nil {
		return nil, os.ErrInvalid
	}
	defer fd4.Close()

	raw, err := io.ReadAll(fd4)
	if err != nil {
		return nil, err
	}
	return sanitizePassphrase(raw), nil
}

// sanitizePassphrase excises every zero byte from raw, then trims a
// trailing run of space/tab/newline/NUL.
func sanitizePassphrase(raw []byte) []byte {
	excised := bytes.ReplaceAll(raw, []byte{0}, nil)
	trimmed := bytes.TrimRight(excised, trailingCutset)

	out := make([]byte, len(trimmed))
	copy(out, trimmed)
	return out
}

// ReadStdin reads the whole of stdin, the payload for --write.
func ReadStdin() ([]byte, error) {
	return io.ReadAll(os.Stdin)
}
