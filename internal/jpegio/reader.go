package jpegio

// Decode parses a baseline (or extended-sequential) Huffman-coded JPEG and
// returns a Session holding its quantised DCT coefficients per component.
// Progressive (SOF2) JPEGs are rejected with UnsupportedError, matching
// this package's baseline-only scope. Other SOF types (lossless,
// arithmetic-coded, ...) are not recognised: their SOF segment is skipped
// and decoding then fails with a FormatError at SOS.
func Decode(data []byte) (*Session, error) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != markerSOI {
		return nil, FormatError("missing SOI marker")
	}

	s := &Session{AdobeTransform: -1}
	var quant [4]*[blockSize]uint16
	var dcSpecs, acSpecs [4]*huffmanSpec
	var restartInterval int
	sofSeen := false

	p := 2
	for {
		if p+1 >= len(data) || data[p] != 0xFF {
			return nil, FormatError("expected marker")
		}
		marker := data[p+1]
		p += 2

		if marker == markerEOI {
			return nil, FormatError("reached EOI before SOS")
		}
		if p+1 >= len(data) {
			return nil, FormatError("truncated marker segment")
		}
		length := int(data[p])<<8 | int(data[p+1])
		if length < 2 || p+length > len(data) {
			return nil, FormatError("bad marker segment length")
		}
		segStart := p + 2
		segEnd := p + length
		seg := data[segStart:segEnd]

		switch marker {
		case markerAPP14:
			if len(seg) >= 12 && string(seg[0:5]) == "Adobe" {
				s.AdobeTransform = int(seg[11])
			}
		case markerDQT:
			if err := parseDQT(seg, &quant); err != nil {
				return nil, err
			}
		case markerDHT:
			if err := parseDHT(seg, &dcSpecs, &acSpecs); err != nil {
				return nil, err
			}
		case markerDRI:
			if len(seg) != 2 {
				return nil, FormatError("bad DRI segment length")
			}
			restartInterval = int(seg[0])<<8 | int(seg[1])
		case markerSOF0, markerSOF1:
			if sofSeen {
				return nil, FormatError("multiple SOF markers")
			}
			sofSeen = true
			w, h, comps, err := parseSOF(seg)
			if err != nil {
				return nil, err
			}
			s.Width, s.Height = w, h
			s.Components = comps
			s.sofMarker = marker
		case markerSOF2:
			return nil, UnsupportedError("progressive JPEG")
		case markerSOS:
			if !sofSeen {
				return nil, FormatError("SOS before SOF")
			}
			order, err := parseSOSHeader(seg, s.Components)
			if err != nil {
				return nil, err
			}
			s.baseline = true
			s.RestartInterval = restartInterval
			s.QuantTables = quant
			s.DCTables = dcSpecs
			s.ACTables = acSpecs
			s.scanOrder = order
			if err := decodeScan(data, segEnd, s, order); err != nil {
				return nil, err
			}
			return s, nil
		default:
			// APPn, COM, and any other marker we don't need: skip.
		}
		p = segEnd
	}
}

func parseDQT(seg []byte, quant *[4]*[blockSize]uint16) error {
	i := 0
	for i < len(seg) {
		pq := seg[i] >> 4
		tq := seg[i] & 0x0F
		i++
		if tq > 3 {
			return FormatError("bad quantisation table id")
		}
		var tbl [blockSize]uint16
		for k := 0; k < blockSize; k++ {
			var v uint16
			if pq == 0 {
				if i >= len(seg) {
					return FormatError("truncated DQT segment")
				}
				v = uint16(seg[i])
				i++
			} else {
				if i+1 >= len(seg) {
					return FormatError("truncated DQT segment")
				}
				v = uint16(seg[i])<<8 | uint16(seg[i+1])
				i += 2
			}
			tbl[unzig[k]] = v
		}
		quant[tq] = &tbl
	}
	return nil
}

func parseDHT(seg []byte, dc, ac *[4]*huffmanSpec) error {
	i := 0
	for i < len(seg) {
		tc := seg[i] >> 4
		th := seg[i] & 0x0F
		i++
		if th > 3 {
			return FormatError("bad huffman table id")
		}
		if i+16 > len(seg) {
			return FormatError("truncated DHT segment")
		}
		var spec huffmanSpec
		copy(spec.count[:], seg[i:i+16])
		i += 16
		total := 0
		for _, c := range spec.count {
			total += int(c)
		}
		if i+total > len(seg) {
			return FormatError("truncated DHT segment")
		}
		spec.value = append([]byte(nil), seg[i:i+total]...)
		i += total
		if tc == 0 {
			dc[th] = &spec
		} else {
			ac[th] = &spec
		}
	}
	return nil
}

func parseSOF(seg []byte) (int, int, []Component, error) {
	if len(seg) < 6 {
		return 0, 0, nil, FormatError("short SOF segment")
	}
	if seg[0] != 8 {
		return 0, 0, nil, UnsupportedError("non-8-bit sample precision")
	}
	h := int(seg[1])<<8 | int(seg[2])
	w := int(seg[3])<<8 | int(seg[4])
	nc := int(seg[5])
	if nc < 1 || nc > 4 {
		return 0, 0, nil, FormatError("bad component count")
	}
	if len(seg) < 6+3*nc {
		return 0, 0, nil, FormatError("short SOF segment")
	}
	comps := make([]Component, nc)
	for i := 0; i < nc; i++ {
		off := 6 + 3*i
		comps[i].ID = seg[off]
		hv := seg[off+1]
		comps[i].H = int(hv >> 4)
		comps[i].V = int(hv & 0x0F)
		comps[i].TQ = seg[off+2]
		if comps[i].H < 1 || comps[i].H > 4 || comps[i].V < 1 || comps[i].V > 4 {
			return 0, 0, nil, FormatError("bad sampling factor")
		}
	}
	return w, h, comps, nil
}

func parseSOSHeader(seg []byte, comps []Component) ([]int, error) {
	if len(seg) < 1 {
		return nil, FormatError("short SOS segment")
	}
	ns := int(seg[0])
	if len(seg) < 1+2*ns+3 {
		return nil, FormatError("short SOS segment")
	}
	order := make([]int, ns)
	for i := 0; i < ns; i++ {
		cs := seg[1+2*i]
		tdta := seg[2+2*i]
		idx := -1
		for j := range comps {
			if comps[j].ID == cs {
				idx = j
			}
		}
		if idx < 0 {
			return nil, FormatError("unknown component selector in SOS")
		}
		comps[idx].TD = tdta >> 4
		comps[idx].TA = tdta & 0x0F
		order[i] = idx
	}
	tail := seg[1+2*ns:]
	if tail[0] != 0 || tail[1] != 63 || tail[2] != 0 {
		return nil, UnsupportedError("non-baseline spectral selection")
	}
	return order, nil
}

// prepareComponents computes the MCU grid and allocates each component's
// coefficient storage.
func prepareComponents(s *Session) (mxx, myy int) {
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

	for i := range s.Components {
		c := &s.Components[i]
		c.WidthInBlocks = mxx * c.H
		c.HeightInBlocks = myy * c.V
		c.DownsampledWidth = (s.Width*c.H + hmax - 1) / hmax
		c.DownsampledHeight = (s.Height*c.V + vmax - 1) / vmax
		c.AfraidW = c.DownsampledWidth%8 != 0
		c.AfraidH = c.DownsampledHeight%8 != 0
		if c.Blocks == nil {
			c.Blocks = make([][]Block, c.HeightInBlocks)
			for r := range c.Blocks {
				c.Blocks[r] = make([]Block, c.WidthInBlocks)
			}
		}
	}
	return mxx, myy
}

func decodeScan(data []byte, scanStart int, s *Session, order []int) error {
	mxx, myy := prepareComponents(s)

	var dcDecode, acDecode [4]*huffmanDecodeTable
	for i, t := range s.DCTables {
		if t != nil {
			dcDecode[i] = newHuffmanDecodeTable(t)
		}
	}
	for i, t := range s.ACTables {
		if t != nil {
			acDecode[i] = newHuffmanDecodeTable(t)
		}
	}

	br := newBitReader(data, scanStart)
	dcPred := make([]int32, len(s.Components))
	mcusSinceRestart := 0
	totalMCUs := mxx * myy

	for mcu := 0; mcu < totalMCUs; mcu++ {
		my, mx := mcu/mxx, mcu%mxx
		for _, ci := range order {
			c := &s.Components[ci]
			dt := dcDecode[c.TD]
			at := acDecode[c.TA]
			if dt == nil || at == nil {
				return FormatError("SOS references an undefined huffman table")
			}
			for v := 0; v < c.V; v++ {
				for h := 0; h < c.H; h++ {
					blockRow := my*c.V + v
					blockCol := mx*c.H + h
					blk, newDC, err := decodeBlock(br, dt, at, dcPred[ci])
					if err != nil {
						return err
					}
					dcPred[ci] = newDC
					c.Blocks[blockRow][blockCol] = blk
				}
			}
		}
		mcusSinceRestart++
		if s.RestartInterval > 0 && mcusSinceRestart == s.RestartInterval && mcu != totalMCUs-1 {
			if err := br.expectRestart(); err != nil {
				return err
			}
			for i := range dcPred {
				dcPred[i] = 0
			}
			mcusSinceRestart = 0
		}
	}
	return nil
}

func decodeBlock(br *bitReader, dc, ac *huffmanDecodeTable, prevDC int32) (Block, int32, error) {
	var blk Block

	size, err := dc.decode(br)
	if err != nil {
		return blk, 0, err
	}
	diff := int32(0)
	if size > 0 {
		bits, err := br.receive(int(size))
		if err != nil {
			return blk, 0, err
		}
		diff = extend(bits, int(size))
	}
	dcVal := prevDC + diff
	blk[0] = int16(dcVal)

	k := 1
	for k < blockSize {
		rs, err := ac.decode(br)
		if err != nil {
			return blk, 0, err
		}
		run := int(rs >> 4)
		sBits := int(rs & 0x0F)
		if sBits == 0 {
			if run == 15 {
				k += 16
				continue
			}
			break // EOB
		}
		k += run
		if k >= blockSize {
			return blk, 0, FormatError("AC coefficient run exceeds block")
		}
		bits, err := br.receive(sBits)
		if err != nil {
			return blk, 0, err
		}
		blk[unzig[k]] = int16(extend(bits, sBits))
		k++
	}
	return blk, dcVal, nil
}
