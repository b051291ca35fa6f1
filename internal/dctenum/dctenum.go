// Package dctenum implements the bijection between a flat embed-index and a
// (component, block row, block column, coefficient i, j) coordinate, and the
// randomised-LSB embed/extract primitive applied at that coordinate.
package dctenum

import "fmt"

// maxComponents is a hard cap on the number of colour-component cards an
// Enumerator can hold, reflecting the JPEG codec's own component limit.
const maxComponents = 255

// Coordinate names one usable DCT coefficient.
type Coordinate struct {
	Component int
	M, N      int // block row, block column
	I, J      int // intra-block coefficient position
}

type card struct {
	Wbl, Hbl int
	Nblocks  uint64
}

// Enumerator realises the bijection described by a DCT radius R over a list
// of per-component block-grid dimensions.
type Enumerator struct {
	R int
	K int // number of usable (i,j) positions per block under R
	cards []card
}

// New builds an empty Enumerator for radius r (0 <= r < 8).
func New(r int) *Enumerator {
	return &Enumerator{R: r, K: usableCount(r)}
}

// UsableCount returns K(R), the number of usable coefficient positions per
// block under radius r.
func UsableCount(r int) int {
	return usableCount(r)
}

// usableCount returns K(R): the count of (i,j) with i^2+j^2 < R^2 over an
// 8x8 block.
func usableCount(r int) int {
	k := 0
	for i := 0; i < 8; i++ {
		for j := 0; j < 8; j++ {
			if i*i+j*j < r*r {
				k++
			}
		}
	}
	return k
}

// Add appends a component card of the given usable block-grid dimensions.
// width = 0 or height = 0 is permitted and contributes zero positions.
func (e *Enumerator) Add(width, height int) error {
	if len(e.cards) >= maxComponents {
		return fmt.Errorf("dctenum: component cap of %d exceeded", maxComponents)
	}
	if width < 0 || height < 0 {
		return fmt.Errorf("dctenum: negative block-grid dimension %dx%d", width, height)
	}
	nblocks, overflow := mulOverflows(uint64(width), uint64(height))
	if overflow {
		return fmt.Errorf("dctenum: block count overflow for %dx%d", width, height)
	}
	e.cards = append(e.cards, card{Wbl: width, Hbl: height, Nblocks: nblocks})
	return nil
}

// Count returns N_total, the enumerator's total capacity, or an error if
// computing it overflows.
func (e *Enumerator) Count() (uint64, error) {
	var total uint64
	for _, c := range e.cards {
		perCard, overflow := mulOverflows(c.Nblocks, uint64(e.K))
		if overflow {
			return 0, fmt.Errorf("dctenum: capacity overflow computing per-component total")
		}
		sum, overflow := addOverflows(total, perCard)
		if overflow {
			return 0, fmt.Errorf("dctenum: capacity overflow summing components")
		}
		total = sum
	}
	return total, nil
}

// Locate resolves idx to its (component, block row, block column, i, j)
// coordinate. idx must be strictly less than Count().
func (e *Enumerator) Locate(idx uint64) (Coordinate, error) {
	total, err := e.Count()
	if err != nil {
		return Coordinate{}, err
	}
	if idx >= total {
		return Coordinate{}, fmt.Errorf("dctenum: index %d out of range [0,%d)", idx, total)
	}

	var prefix uint64
	for c, card := range e.cards {
		cardTotal := card.Nblocks * uint64(e.K)
		if idx < prefix+cardTotal {
			local := idx - prefix
			blockID := local / uint64(e.K)
			blockOff := int(local % uint64(e.K))
			m := int(blockID / uint64(card.Wbl))
			n := int(blockID % uint64(card.Wbl))
			i, j := e.getIJ(blockOff)
			return Coordinate{Component: c, M: m, N: n, I: i, J: j}, nil
		}
		prefix += cardTotal
	}
	return Coordinate{}, fmt.Errorf("dctenum: index %d not located (internal inconsistency)", idx)
}

// getIJ resolves a coefficient ordinal (0..K-1) to its (i,j) position by
// scanning row-major and keeping the off-th usable pair.
func (e *Enumerator) getIJ(off int) (int, int) {
	count := 0
	for i := 0; i < 8; i++ {
		for j := 0; j < 8; j++ {
			if i*i+j*j < e.R*e.R {
				if count == off {
					return i, j
				}
				count++
			}
		}
	}
	return -1, -1
}

func mulOverflows(a, b uint64) (uint64, bool) {
	if a == 0 || b == 0 {
		return 0, false
	}
	p := a * b
	return p, p/a != b
}

func addOverflows(a, b uint64) (uint64, bool) {
	s := a + b
	return s, s < a
}
