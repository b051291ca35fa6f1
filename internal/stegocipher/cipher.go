// Package stegocipher wraps Blowfish-CBC encryption/decryption of the
// framed message buffer behind the fixed, compatibility-mandated IV used by
// every image this package can interoperate with.
package stegocipher

import (
	"crypto/cipher"
	"fmt"

	"golang.org/x/crypto/blowfish"
)

// BlockSize is the cipher's block size in bytes. Callers must pad buffers to
// a multiple of this before calling Encrypt/Decrypt, and it is the same
// constant the PRNG counter width and the frame padding rule use.
const BlockSize = blowfish.BlockSize

// fixedIV is the compile-time IV every encode/decode call uses. It is a
// compatibility constant, not a secret: the ciphertext is fully determined
// by the key and plaintext. Changing it breaks interoperability with any
// existing embedded image.
var fixedIV = [BlockSize]byte{0xE7, 0xD9, 0x5C, 0x3A, 0x52, 0x2B, 0x8A, 0x63}

// chunkSize bounds how much of buf is processed per CryptBlocks call, to
// cap scratch footprint on very large payloads. The block mode carries its
// IV state across calls, so chunking here is identical to one shot.
const chunkSize = 128 * 1024

// Direction selects encrypt or decrypt.
type Direction int

const (
	Encrypt Direction = iota
	Decrypt
)

// Apply encrypts or decrypts buf in place using password as key material.
// len(buf) must be a multiple of BlockSize; any bytes beyond a whole
// multiple are left untouched by the caller's padding discipline, not by
// this function, which requires the precondition hold.
func Apply(buf []byte, password []byte, dir Direction) error {
	if len(buf)%BlockSize != 0 {
		return fmt.Errorf("stegocipher: buffer length %d is not a multiple of block size %d", len(buf), BlockSize)
	}

	key := make([]byte, len(password))
	copy(key, password)
	defer zero(key)

	block, err := blowfish.NewCipher(key)
	if err != nil {
		return fmt.Errorf("stegocipher: key setup: %w", err)
	}

	iv := fixedIV
	defer zero(iv[:])

	var mode cipher.BlockMode
	if dir == Encrypt {
		mode = cipher.NewCBCEncrypter(block, iv[:])
	} else {
		mode = cipher.NewCBCDecrypter(block, iv[:])
	}

	for off := 0; off < len(buf); off += chunkSize {
		end := off + chunkSize
		if end > len(buf) {
			end = len(buf)
		}
		mode.CryptBlocks(buf[off:end], buf[off:end])
	}
	return nil
}

// zero overwrites b with zeros. Kept as its own function, rather than
// inlined, so the compiler has a harder time proving the write is dead and
// eliding it.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
