package jpegio

import (
	"bytes"
	"testing"
)

// newFixtureSession builds a synthetic single-component session for
// round-trip tests; see NewGrayscaleFixture in fixture.go.
func newFixtureSession(width, height int) *Session {
	return NewGrayscaleFixture(width, height)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	s := newFixtureSession(16, 16)
	c := &s.Components[0]
	for r := range c.Blocks {
		for col := range c.Blocks[r] {
			blk := &c.Blocks[r][col]
			blk[0] = int16(10 * (r + col + 1))
			blk[1] = int16(r - col)
			blk[8] = int16(col - r)
		}
	}

	var buf bytes.Buffer
	if err := s.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if decoded.Width != s.Width || decoded.Height != s.Height {
		t.Fatalf("dimensions = %dx%d, want %dx%d", decoded.Width, decoded.Height, s.Width, s.Height)
	}
	if len(decoded.Components) != 1 {
		t.Fatalf("got %d components, want 1", len(decoded.Components))
	}

	want := &s.Components[0]
	got := &decoded.Components[0]
	for r := range want.Blocks {
		for col := range want.Blocks[r] {
			if got.Blocks[r][col] != want.Blocks[r][col] {
				t.Fatalf("block (%d,%d) = %v, want %v", r, col, got.Blocks[r][col], want.Blocks[r][col])
			}
		}
	}
}

func TestEncodeDecodeWithRestartIntervals(t *testing.T) {
	s := newFixtureSession(32, 16)
	s.RestartInterval = 2
	c := &s.Components[0]
	n := 0
	for r := range c.Blocks {
		for col := range c.Blocks[r] {
			c.Blocks[r][col][0] = int16(n)
			n++
		}
	}

	var buf bytes.Buffer
	if err := s.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got := &decoded.Components[0]
	for r := range c.Blocks {
		for col := range c.Blocks[r] {
			if got.Blocks[r][col][0] != c.Blocks[r][col][0] {
				t.Fatalf("block (%d,%d) DC = %d, want %d", r, col, got.Blocks[r][col][0], c.Blocks[r][col][0])
			}
		}
	}
}

func TestColorSpaceMapping(t *testing.T) {
	s := &Session{AdobeTransform: -1, Components: make([]Component, 1)}
	if s.ColorSpace() != ColorSpaceGrayscale {
		t.Fatalf("1-component ColorSpace = %v, want Grayscale", s.ColorSpace())
	}
	s.Components = make([]Component, 3)
	if s.ColorSpace() != ColorSpaceYCbCr {
		t.Fatalf("3-component ColorSpace = %v, want YCbCr", s.ColorSpace())
	}
	s.AdobeTransform = 0
	if s.ColorSpace() != ColorSpaceRGB {
		t.Fatalf("3-component transform=0 ColorSpace = %v, want RGB", s.ColorSpace())
	}
	s.AdobeTransform = -1
	s.Components = make([]Component, 4)
	if s.ColorSpace() != ColorSpaceUnknown {
		t.Fatalf("4-component ColorSpace = %v, want Unknown colorspace", s.ColorSpace())
	}
}

func TestDecodeRejectsMissingSOI(t *testing.T) {
	if _, err := Decode([]byte{0x00, 0x01, 0x02}); err == nil {
		t.Fatalf("expected error for missing SOI")
	}
}

func TestAfraidFlags(t *testing.T) {
	s := newFixtureSession(20, 16) // 20 is not a multiple of 8
	c := &s.Components[0]
	if !c.AfraidW {
		t.Fatalf("expected AfraidW for width 20")
	}
	if c.AfraidH {
		t.Fatalf("unexpected AfraidH for height 16")
	}
	if c.UsableWbl() != c.WidthInBlocks-1 {
		t.Fatalf("UsableWbl() = %d, want %d", c.UsableWbl(), c.WidthInBlocks-1)
	}
}
