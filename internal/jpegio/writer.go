package jpegio

import (
	"io"
	"math/bits"
)

// bitWriter accumulates bits and flushes whole bytes to an output buffer,
// stuffing a 0x00 after every literal 0xFF byte per ITU-T.81 F.1.2.3. The
// bit-packing scheme mirrors dlecorfec-progjpeg's writer.go emit/emitHuff,
// generalised to Huffman tables built from the source image instead of a
// fixed spec.
type bitWriter struct {
	out         []byte
	bits, nBits uint32
}

// emit appends the least significant nBits bits of v to the stream. The
// precondition is v < 1<<nBits && nBits <= 16.
func (w *bitWriter) emit(v, nBits uint32) {
	nBits += w.nBits
	v <<= 32 - nBits
	v |= w.bits
	for nBits >= 8 {
		b := byte(v >> 24)
		w.out = append(w.out, b)
		if b == 0xFF {
			w.out = append(w.out, 0x00)
		}
		v <<= 8
		nBits -= 8
	}
	w.bits, w.nBits = v, nBits
}

func (w *bitWriter) emitHuff(lut huffmanLUT, value int32) {
	x := lut[value]
	w.emit(x&(1<<24-1), x>>24)
}

func (w *bitWriter) emitHuffRLE(lut huffmanLUT, runLength, value int32) {
	a, b := value, value
	if a < 0 {
		a, b = -value, value-1
	}
	nBits := uint32(bits.Len32(uint32(a)))
	w.emitHuff(lut, runLength<<4|int32(nBits))
	if nBits > 0 {
		w.emit(uint32(b)&(1<<nBits-1), nBits)
	}
}

// alignWithOnes pads the current partial byte with 1 bits, the JPEG
// convention for byte-aligning before a restart marker.
func (w *bitWriter) alignWithOnes() {
	if w.nBits == 0 {
		return
	}
	pad := 8 - w.nBits
	w.emit((1<<pad)-1, pad)
}

func encodeBlock(w *bitWriter, blk Block, dcLUT, acLUT huffmanLUT, prevDC int32) int32 {
	dc := int32(blk[0])
	w.emitHuffRLE(dcLUT, 0, dc-prevDC)

	runLength := int32(0)
	for zig := 1; zig < blockSize; zig++ {
		v := int32(blk[unzig[zig]])
		if v == 0 {
			runLength++
			continue
		}
		for runLength > 15 {
			w.emitHuff(acLUT, 0xF0)
			runLength -= 16
		}
		w.emitHuffRLE(acLUT, runLength, v)
		runLength = 0
	}
	if runLength > 0 {
		w.emitHuff(acLUT, 0x00)
	}
	return dc
}

// Encode re-emits the session as a new JPEG, writing back the (possibly
// modified) coefficient blocks through the same quantisation tables,
// Huffman tables, sampling factors, restart interval, and component order
// the source used. Quantisation tables, Huffman tables and colourspace are
// left untouched: only coefficient values can differ from the source.
func (s *Session) Encode(w io.Writer) error {
	var buf []byte
	buf = append(buf, 0xFF, markerSOI)

	// Re-emit the Adobe APP14 transform flag so ColorSpace reads the same
	// value from the new file as from the source.
	if s.AdobeTransform >= 0 {
		buf = appendMarkerHeader(buf, markerAPP14, 14)
		buf = append(buf, 'A', 'd', 'o', 'b', 'e', 0x00, 0x64, 0, 0, 0, 0, byte(s.AdobeTransform))
	}

	buf = appendDQT(buf, &s.QuantTables)

	sofMarker := s.sofMarker
	if sofMarker == 0 {
		sofMarker = markerSOF0
	}
	buf = appendSOF(buf, sofMarker, s.Width, s.Height, s.Components)

	buf = appendDHT(buf, &s.DCTables, &s.ACTables)

	if s.RestartInterval > 0 {
		buf = append(buf, 0xFF, markerDRI, 0x00, 0x04,
			byte(s.RestartInterval>>8), byte(s.RestartInterval))
	}

	order := s.scanOrder
	if order == nil {
		order = make([]int, len(s.Components))
		for i := range order {
			order[i] = i
		}
	}
	buf = appendSOSHeader(buf, s.Components, order)

	scanBytes, err := encodeScanData(s, order)
	if err != nil {
		return err
	}
	buf = append(buf, scanBytes...)

	buf = append(buf, 0xFF, markerEOI)

	_, err = w.Write(buf)
	return err
}

func appendMarkerHeader(buf []byte, marker byte, length int) []byte {
	return append(buf, 0xFF, marker, byte(length>>8), byte(length))
}

func appendDQT(buf []byte, quant *[4]*[blockSize]uint16) []byte {
	for id, tbl := range quant {
		if tbl == nil {
			continue
		}
		precision := 0
		for _, v := range tbl {
			if v > 0xFF {
				precision = 1
				break
			}
		}
		length := 2 + 1 + blockSize*(precision+1)
		buf = appendMarkerHeader(buf, markerDQT, length)
		buf = append(buf, byte(precision<<4)|byte(id))
		for zig := 0; zig < blockSize; zig++ {
			v := tbl[unzig[zig]]
			if precision == 0 {
				buf = append(buf, byte(v))
			} else {
				buf = append(buf, byte(v>>8), byte(v))
			}
		}
	}
	return buf
}

func appendSOF(buf []byte, marker byte, width, height int, comps []Component) []byte {
	length := 2 + 6 + 3*len(comps)
	buf = appendMarkerHeader(buf, marker, length)
	buf = append(buf, 8, byte(height>>8), byte(height), byte(width>>8), byte(width), byte(len(comps)))
	for _, c := range comps {
		buf = append(buf, c.ID, byte(c.H<<4)|byte(c.V), c.TQ)
	}
	return buf
}

func appendDHT(buf []byte, dc, ac *[4]*huffmanSpec) []byte {
	type entry struct {
		class byte
		id    byte
		spec  *huffmanSpec
	}
	var entries []entry
	for id, spec := range dc {
		if spec != nil {
			entries = append(entries, entry{0, byte(id), spec})
		}
	}
	for id, spec := range ac {
		if spec != nil {
			entries = append(entries, entry{1, byte(id), spec})
		}
	}
	if len(entries) == 0 {
		return buf
	}

	length := 2
	for _, e := range entries {
		length += 1 + 16 + len(e.spec.value)
	}
	buf = appendMarkerHeader(buf, markerDHT, length)
	for _, e := range entries {
		buf = append(buf, e.class<<4|e.id)
		buf = append(buf, e.spec.count[:]...)
		buf = append(buf, e.spec.value...)
	}
	return buf
}

func appendSOSHeader(buf []byte, comps []Component, order []int) []byte {
	length := 2 + 1 + 2*len(order) + 3
	buf = appendMarkerHeader(buf, markerSOS, length)
	buf = append(buf, byte(len(order)))
	for _, ci := range order {
		c := comps[ci]
		buf = append(buf, c.ID, c.TD<<4|c.TA)
	}
	buf = append(buf, 0, 63, 0)
	return buf
}

func encodeScanData(s *Session, order []int) ([]byte, error) {
	mxx := 0
	myy := 0
	if len(s.Components) > 0 {
		hmax, vmax := 1, 1
		for _, c := range s.Components {
			if c.H > hmax {
				hmax = c.H
			}
			if c.V > vmax {
				vmax = c.V
			}
		}
		mxx = (s.Width + 8*hmax - 1) / (8 * hmax)
		myy = (s.Height + 8*vmax - 1) / (8 * vmax)
	}

	var dcLUT, acLUT [4]huffmanLUT
	for i, spec := range s.DCTables {
		if spec != nil {
			dcLUT[i] = newHuffmanLUT(spec)
		}
	}
	for i, spec := range s.ACTables {
		if spec != nil {
			acLUT[i] = newHuffmanLUT(spec)
		}
	}

	w := &bitWriter{}
	dcPred := make([]int32, len(s.Components))
	mcusSinceRestart := 0
	restartNum := 0
	totalMCUs := mxx * myy

	for mcu := 0; mcu < totalMCUs; mcu++ {
		my, mx := mcu/mxx, mcu%mxx
		for _, ci := range order {
			c := &s.Components[ci]
			for v := 0; v < c.V; v++ {
				for h := 0; h < c.H; h++ {
					blockRow := my*c.V + v
					blockCol := mx*c.H + h
					blk := c.Blocks[blockRow][blockCol]
					dcPred[ci] = encodeBlock(w, blk, dcLUT[c.TD], acLUT[c.TA], dcPred[ci])
				}
			}
		}
		mcusSinceRestart++
		if s.RestartInterval > 0 && mcusSinceRestart == s.RestartInterval && mcu != totalMCUs-1 {
			w.alignWithOnes()
			w.out = append(w.out, 0xFF, byte(markerRST0+restartNum))
			restartNum = (restartNum + 1) % 8
			for i := range dcPred {
				dcPred[i] = 0
			}
			mcusSinceRestart = 0
		}
	}
	w.alignWithOnes()
	return w.out, nil
}
