package dctenum

import (
	"errors"
	"testing"
)

func TestUsableCountRadius2(t *testing.T) {
	if k := usableCount(2); k != 4 {
		t.Fatalf("usableCount(2) = %d, want 4", k)
	}
}

// fixedBitSource always returns the configured bit.
type fixedBitSource struct {
	bit byte
	err error
}

func (f fixedBitSource) Bit() (byte, error) { return f.bit, f.err }

func TestLocateSmallEnumerator(t *testing.T) {
	e := New(2) // K=4
	if err := e.Add(3, 2); err != nil {
		t.Fatalf("Add: %v", err)
	}
	total, err := e.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if total != 24 {
		t.Fatalf("Count() = %d, want 24", total)
	}

	cases := []struct {
		idx  uint64
		want Coordinate
	}{
		{0, Coordinate{0, 0, 0, 0, 0}},
		{3, Coordinate{0, 0, 0, 1, 1}},
		{4, Coordinate{0, 0, 1, 0, 0}},
		{23, Coordinate{0, 1, 2, 1, 1}},
	}
	for _, c := range cases {
		got, err := e.Locate(c.idx)
		if err != nil {
			t.Fatalf("Locate(%d): %v", c.idx, err)
		}
		if got != c.want {
			t.Fatalf("Locate(%d) = %+v, want %+v", c.idx, got, c.want)
		}
	}
}

func TestLocateRejectsOutOfRange(t *testing.T) {
	e := New(2)
	if err := e.Add(3, 2); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := e.Locate(24); err == nil {
		t.Fatalf("expected error for out-of-range index")
	}
}

func TestLocateIsInjective(t *testing.T) {
	e := New(2)
	if err := e.Add(5, 4); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := e.Add(2, 3); err != nil {
		t.Fatalf("Add: %v", err)
	}
	total, _ := e.Count()

	seen := make(map[Coordinate]bool)
	for idx := uint64(0); idx < total; idx++ {
		coord, err := e.Locate(idx)
		if err != nil {
			t.Fatalf("Locate(%d): %v", idx, err)
		}
		if seen[coord] {
			t.Fatalf("Locate(%d) coordinate %+v already produced by a smaller index", idx, coord)
		}
		seen[coord] = true
		if coord.I*coord.I+coord.J*coord.J > e.R*e.R {
			t.Fatalf("Locate(%d) coordinate %+v violates radius filter", idx, coord)
		}
	}
}

func TestEmbedNoOpWhenLSBMatches(t *testing.T) {
	src := fixedBitSource{bit: 1}
	got, err := Embed(4, 0, src)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if got != 4 {
		t.Fatalf("Embed(4, 0) = %d, want 4 (no-op)", got)
	}
}

func TestEmbedFlipsToward(t *testing.T) {
	got, err := Embed(4, 1, fixedBitSource{bit: 1})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if got != 5 {
		t.Fatalf("Embed(4,1,dir=1) = %d, want 5", got)
	}

	got, err = Embed(4, 1, fixedBitSource{bit: 0})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if got != 3 {
		t.Fatalf("Embed(4,1,dir=0) = %d, want 3", got)
	}
}

func TestEmbedSaturationForcesDirection(t *testing.T) {
	got, err := Embed(32767, 0, fixedBitSource{bit: 1})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if got != 32766 {
		t.Fatalf("Embed at positive saturation = %d, want 32766", got)
	}

	got, err = Embed(-32768, 1, fixedBitSource{bit: 0})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if got != -32767 {
		t.Fatalf("Embed at negative saturation = %d, want -32767", got)
	}
}

func TestEmbedNeverExceedsSaturation(t *testing.T) {
	forcingBits := map[int16]byte{32767: 0, -32768: 1} // bit != coef's current LSB
	for coef, bit := range forcingBits {
		for _, dir := range []byte{0, 1} {
			got, err := Embed(coef, bit, fixedBitSource{bit: dir})
			if err != nil {
				t.Fatalf("Embed: %v", err)
			}
			if got > 32767 || got < -32768 {
				t.Fatalf("Embed escaped saturation bounds: %d", got)
			}
		}
	}
}

func TestExtractReturnsLSB(t *testing.T) {
	if Extract(4) != 0 {
		t.Fatalf("Extract(4) != 0")
	}
	if Extract(5) != 1 {
		t.Fatalf("Extract(5) != 1")
	}
	if Extract(-3) != 1 {
		t.Fatalf("Extract(-3) != 1")
	}
}

func TestEmbedPropagatesEntropyError(t *testing.T) {
	wantErr := errors.New("entropy exhausted")
	_, err := Embed(4, 1, fixedBitSource{err: wantErr})
	if err != wantErr {
		t.Fatalf("Embed error = %v, want %v", err, wantErr)
	}
}
