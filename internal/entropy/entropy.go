// Package entropy exposes the OS random source one unbiased bit at a time,
// the granularity the embedding rule's direction draw needs.
package entropy

import "crypto/rand"

// Source buffers a single byte from the OS RNG and serves it one bit at a
// time, refilling from crypto/rand whenever the cursor runs past bit 7.
// There is no whitening: the OS source is assumed uniform.
type Source struct {
	buf     [1]byte
	nextBit int // 0..8; 8 means the buffer is exhausted
}

// New returns a Source primed to pull its first byte on the first call to
// Bit.
func New() *Source {
	return &Source{nextBit: 8}
}

// Bit returns a single unbiased random bit (0 or 1), pulling a fresh byte
// from the OS entropy device when the current one is exhausted.
func (s *Source) Bit() (byte, error) {
	if s.nextBit == 8 {
		if _, err := rand.Read(s.buf[:]); err != nil {
			return 0, err
		}
		s.nextBit = 0
	}
	bit := (s.buf[0] >> uint(s.nextBit)) & 1
	s.nextBit++
	return bit, nil
}
