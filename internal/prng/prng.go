// Package prng implements the passphrase-seeded deterministic byte stream
// used to choose which coefficients carry the hidden message: a Blowfish
// keystream in ECB-counter mode, a rejection-sampling uniform draw, and a
// Fisher-Yates permutation built from it.
package prng

import (
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"math/bits"

	"golang.org/x/crypto/blowfish"
)

// blockSize is the width of one keystream block and of the counter that
// drives it; it matches the stegocipher block size by construction, since
// both wrap the same cipher primitive.
const blockSize = blowfish.BlockSize

// PRNG is a keyed, deterministic byte source. Two PRNGs seeded with the
// same passphrase produce identical streams.
type PRNG struct {
	block   blowfishBlock
	counter uint64
	queue   []byte // unused tail of the most recently produced block
}

// blowfishBlock is the subset of cipher.Block this package needs; named so
// the seeding code reads without an import alias.
type blowfishBlock interface {
	Encrypt(dst, src []byte)
}

// New seeds a PRNG from passphrase p. It builds the interleaved buffer
// p[0],1,p[1],2,...,p[L-1],d_{L-1},0 (the counter byte cycles 1..255 and
// wraps), hashes it, and installs the hash as the Blowfish key. The
// interleaved buffer, the digest, and any local key copy are zeroed before
// returning.
func New(passphrase []byte) (*PRNG, error) {
	L := len(passphrase)
	buf := make([]byte, 2*L+1)
	d := byte(1)
	for i, b := range passphrase {
		buf[2*i] = b
		buf[2*i+1] = d
		if d == 255 {
			d = 1
		} else {
			d++
		}
	}
	buf[2*L] = 0
	defer zero(buf)

	sum := sha1.Sum(buf)
	defer zero(sum[:])

	key := make([]byte, len(sum))
	copy(key, sum[:])
	defer zero(key)

	block, err := blowfish.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("prng: key setup: %w", err)
	}

	return &PRNG{block: block}, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// produceBlock encrypts the current little-endian counter and advances it.
func (p *PRNG) produceBlock() []byte {
	var ctr [blockSize]byte
	binary.LittleEndian.PutUint64(ctr[:], p.counter)
	p.counter++
	out := make([]byte, blockSize)
	p.block.Encrypt(out, ctr[:])
	return out
}

// ProduceNBytes returns the next k bytes of the keystream, serving first
// from the leftover tail of the previous block, then full fresh blocks,
// then stashing any new trailing partial block for the next call.
func (p *PRNG) ProduceNBytes(k int) []byte {
	out := make([]byte, 0, k)

	if len(p.queue) > 0 {
		n := len(p.queue)
		if n > k {
			n = k
		}
		out = append(out, p.queue[:n]...)
		p.queue = p.queue[n:]
		k -= n
	}

	for k >= blockSize {
		out = append(out, p.produceBlock()...)
		k -= blockSize
	}

	if k > 0 {
		block := p.produceBlock()
		out = append(out, block[:k]...)
		p.queue = block[k:]
	}

	return out
}

// Uniform draws a value in [a, b] using bit-width rejection sampling: it
// never takes the draw modulo the range, which would bias the result.
func (p *PRNG) Uniform(a, b uint64) uint64 {
	d := b - a
	needBits := bits.Len64(d)
	if needBits == 0 {
		needBits = 1
	}
	needBytes := (needBits + 7) / 8
	mask := (uint64(1) << uint(needBits)) - 1

	for {
		raw := p.ProduceNBytes(needBytes)
		var rval uint64
		for i, b := range raw {
			rval |= uint64(b) << uint(8*i)
		}
		rval &= mask
		if rval <= d {
			return a + rval
		}
	}
}

// Shuffle returns a Fisher-Yates permutation of 1..n (empty for n == 0).
func (p *PRNG) Shuffle(n int) []uint64 {
	values := make([]uint64, n)
	for i := range values {
		values[i] = uint64(i + 1)
	}
	for ksi := n - 1; ksi >= 1; ksi-- {
		choice := p.Uniform(0, uint64(ksi))
		values[choice], values[ksi] = values[ksi], values[choice]
	}
	return values
}
