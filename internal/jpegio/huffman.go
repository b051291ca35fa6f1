package jpegio

// huffmanSpec is a Huffman table as transmitted in a DHT segment: counts of
// codes at each bit length 1..16, and the symbols assigned to them in
// increasing-code order.
type huffmanSpec struct {
	count [16]byte
	value []byte
}

// huffmanLUT is a compiled encode look-up table: index by symbol, get back
// a uint32 whose top 8 bits are the codeword length and whose low 24 bits
// are the codeword. Grounded on the same bit-packed representation
// dlecorfec-progjpeg's encoder uses for its fixed tables, generalised here
// to the table transmitted by the source image rather than a hardcoded one.
type huffmanLUT []uint32

func newHuffmanLUT(s *huffmanSpec) huffmanLUT {
	maxValue := 0
	for _, v := range s.value {
		if int(v) > maxValue {
			maxValue = int(v)
		}
	}
	lut := make(huffmanLUT, maxValue+1)
	code, k := uint32(0), 0
	for i := 0; i < len(s.count); i++ {
		nBits := uint32(i+1) << 24
		for j := byte(0); j < s.count[i]; j++ {
			lut[s.value[k]] = nBits | code
			code++
			k++
		}
		code <<= 1
	}
	return lut
}

// huffmanDecodeTable is the canonical mincode/maxcode/valptr representation
// used to decode a Huffman-coded bitstream one bit at a time (ITU-T.81
// Annex F.2.2.3).
type huffmanDecodeTable struct {
	maxcode [17]int32 // maxcode[l] == -1 means no codes of length l
	mincode [17]int32
	valptr  [17]int32
	values  []byte
}

func newHuffmanDecodeTable(s *huffmanSpec) *huffmanDecodeTable {
	d := &huffmanDecodeTable{values: s.value}
	for l := range d.maxcode {
		d.maxcode[l] = -1
	}

	var huffsize []int
	for l := 1; l <= 16; l++ {
		for i := byte(0); i < s.count[l-1]; i++ {
			huffsize = append(huffsize, l)
		}
	}

	huffcode := make([]int32, len(huffsize))
	code := int32(0)
	si := 0
	if len(huffsize) > 0 {
		si = huffsize[0]
	}
	for i := range huffsize {
		for huffsize[i] != si {
			code <<= 1
			si++
		}
		huffcode[i] = code
		code++
	}

	k := 0
	for l := 1; l <= 16; l++ {
		if s.count[l-1] == 0 {
			continue
		}
		d.valptr[l] = int32(k)
		d.mincode[l] = huffcode[k]
		k += int(s.count[l-1])
		d.maxcode[l] = huffcode[k-1]
	}

	return d
}

// decode reads one Huffman symbol from br.
func (d *huffmanDecodeTable) decode(br *bitReader) (byte, error) {
	code := int32(0)
	for l := 1; l <= 16; l++ {
		bit, err := br.readBit()
		if err != nil {
			return 0, err
		}
		code = code<<1 | int32(bit)
		if d.maxcode[l] != -1 && code <= d.maxcode[l] {
			idx := d.valptr[l] + (code - d.mincode[l])
			if int(idx) >= len(d.values) {
				return 0, FormatError("huffman decode index out of range")
			}
			return d.values[idx], nil
		}
	}
	return 0, FormatError("bad huffman code")
}
