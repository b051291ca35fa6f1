package prng

import (
	"reflect"
	"sort"
	"testing"
)

func TestDeterminism(t *testing.T) {
	p1, err := New([]byte("swordfish"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p2, err := New([]byte("swordfish"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	b1 := p1.ProduceNBytes(37)
	b2 := p2.ProduceNBytes(37)
	if !reflect.DeepEqual(b1, b2) {
		t.Fatalf("same passphrase produced different streams")
	}

	s1 := p1.Shuffle(50)
	s2 := p2.Shuffle(50)
	if !reflect.DeepEqual(s1, s2) {
		t.Fatalf("same passphrase produced different permutations")
	}
}

func TestDifferentPassphrasesDiverge(t *testing.T) {
	p1, _ := New([]byte("swordfish"))
	p2, _ := New([]byte("Swordfish"))

	b1 := p1.ProduceNBytes(16)
	b2 := p2.ProduceNBytes(16)
	if reflect.DeepEqual(b1, b2) {
		t.Fatalf("different passphrases produced identical streams")
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	p, _ := New([]byte("key"))
	n := 200
	perm := p.Shuffle(n)
	if len(perm) != n {
		t.Fatalf("Shuffle(%d) returned %d values", n, len(perm))
	}
	sorted := append([]uint64(nil), perm...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for i, v := range sorted {
		if v != uint64(i+1) {
			t.Fatalf("Shuffle(%d) is not a permutation of 1..%d", n, n)
		}
	}
}

func TestShuffleZero(t *testing.T) {
	p, _ := New([]byte("key"))
	perm := p.Shuffle(0)
	if len(perm) != 0 {
		t.Fatalf("Shuffle(0) = %v, want empty", perm)
	}
}

func TestUniformNeverExceedsBound(t *testing.T) {
	p, _ := New([]byte("key"))
	const d = 13
	for i := 0; i < 2000; i++ {
		v := p.Uniform(0, d)
		if v > d {
			t.Fatalf("Uniform(0, %d) = %d, exceeds bound", d, v)
		}
	}
}

func TestUniformDegenerateRange(t *testing.T) {
	p, _ := New([]byte("key"))
	for i := 0; i < 10; i++ {
		if v := p.Uniform(5, 5); v != 5 {
			t.Fatalf("Uniform(5,5) = %d, want 5", v)
		}
	}
}

func TestProduceNBytesAcrossBlockBoundary(t *testing.T) {
	p, _ := New([]byte("key"))
	a := p.ProduceNBytes(5)
	b := p.ProduceNBytes(11)
	if len(a) != 5 || len(b) != 11 {
		t.Fatalf("unexpected lengths: %d, %d", len(a), len(b))
	}

	p2, _ := New([]byte("key"))
	combined := p2.ProduceNBytes(16)
	all := append(append([]byte(nil), a...), b...)
	if !reflect.DeepEqual(all, combined) {
		t.Fatalf("split draws must equal one combined draw")
	}
}
