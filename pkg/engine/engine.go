package engine

import (
	"fmt"
	"math"
	"os"

	"github.com/thvl3/jpegstego/internal/dctenum"
	"github.com/thvl3/jpegstego/internal/entropy"
	"github.com/thvl3/jpegstego/internal/frame"
	"github.com/thvl3/jpegstego/internal/jpegio"
	"github.com/thvl3/jpegstego/internal/prng"
	"github.com/thvl3/jpegstego/internal/stegocipher"
	"github.com/thvl3/jpegstego/internal/varint"
	"github.com/thvl3/jpegstego/pkg/models"
)

// DefaultRadius is the DCT radius the CLI fixes for every invocation. The
// engine itself is generic over R so tests can exercise other values.
const DefaultRadius = 2

// DefaultOutputName is the hard-coded output filename the CLI passes to
// Encode. The engine accepts the output path as a parameter rather than
// hard-coding it, so it stays testable without touching a fixed relative
// path.
const DefaultOutputName = "out.jpeg"

// capacity bundles the enumerator and decoded session built from a source
// file, shared by all three pipelines' opening steps.
type capacity struct {
	sess  *jpegio.Session
	enum  *dctenum.Enumerator
	total uint64
}

// openCapacity performs pipeline steps 1-2: read the file, decode it down
// to coefficient blocks, and build the enumerator over every component.
func openCapacity(path string, r int) (*capacity, *Error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fail(CodeCannotOpenInput, err)
	}
	sess, err := jpegio.Decode(data)
	if err != nil {
		return nil, fail(CodeCodecError, err)
	}

	enum := dctenum.New(r)
	for _, c := range sess.Components {
		if err := enum.Add(c.UsableWbl(), c.UsableHbl()); err != nil {
			return nil, fail(CodeDataTooLong, err)
		}
	}
	total, err := enum.Count()
	if err != nil {
		return nil, fail(CodeDataTooLong, err)
	}

	return &capacity{sess: sess, enum: enum, total: total}, nil
}

// statistics fills a Statistics record from a decoded session and its
// enumerator, reporting bitsUsed as given.
func (c *capacity) statistics(r int, bitsUsed uint64) models.Statistics {
	stats := models.Statistics{
		ColorSpace:    string(c.sess.ColorSpace()),
		BitsPerBlock:  dctenum.UsableCount(r),
		BitsAvailable: c.total,
		BitsUsed:      bitsUsed,
	}
	for i, comp := range c.sess.Components {
		stats.AddComponent(models.ComponentStatistics{
			Index:             i,
			SamplingH:         comp.H,
			SamplingV:         comp.V,
			DownsampledWidth:  comp.DownsampledWidth,
			DownsampledHeight: comp.DownsampledHeight,
			WidthInBlocks:     comp.WidthInBlocks,
			HeightInBlocks:    comp.HeightInBlocks,
			AfraidW:           comp.AfraidW,
			AfraidH:           comp.AfraidH,
			UsableBlocks:      comp.UsableWbl() * comp.UsableHbl(),
		})
	}
	return stats
}

// permutation seeds a PRNG from password and draws a length-n shuffle,
// guarding against n exceeding what Shuffle's int parameter can address.
func permutation(password []byte, n uint64) ([]uint64, *Error) {
	if n > uint64(math.MaxInt32) {
		return nil, fail(CodeDataTooLong, fmt.Errorf("engine: capacity %d too large to permute", n))
	}
	rng, err := prng.New(password)
	if err != nil {
		return nil, fail(CodeOutOfMemory, err)
	}
	return rng.Shuffle(int(n)), nil
}

// coefficientAt returns a pointer to the coefficient at enumerator index
// idx, resolving it through cs's enumerator and session.
func (c *capacity) coefficientAt(idx uint64) (*int16, *Error) {
	coord, err := c.enum.Locate(idx)
	if err != nil {
		return nil, fail(CodeDataTooLong, err)
	}
	comp := &c.sess.Components[coord.Component]
	blk := &comp.Blocks[coord.M][coord.N]
	return &blk[coord.I*8+coord.J], nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Estimate runs pipeline steps 1-2 only and reports capacity statistics
// without reading or modifying any payload.
func Estimate(path string, r int) (models.Statistics, error) {
	cs, ferr := openCapacity(path, r)
	if ferr != nil {
		return models.Statistics{}, ferr
	}
	return cs.statistics(r, 0), nil
}

// Encode hides plaintext inside the JPEG at path, writing the modified
// image to outPath, and returns capacity/usage statistics.
func Encode(path, outPath string, plaintext, password []byte, r int) (models.Statistics, error) {
	cs, ferr := openCapacity(path, r)
	if ferr != nil {
		return models.Statistics{}, ferr
	}

	perm, ferr := permutation(password, cs.total)
	if ferr != nil {
		return models.Statistics{}, ferr
	}

	framed, err := frame.Build(plaintext, stegocipher.BlockSize)
	if err != nil {
		return models.Statistics{}, fail(CodeDataTooLong, err)
	}
	defer zero(framed)

	if err := stegocipher.Apply(framed, password, stegocipher.Encrypt); err != nil {
		return models.Statistics{}, fail(CodeOutOfMemory, err)
	}

	bitLen := uint64(len(framed)) * 8
	if bitLen > cs.total {
		return models.Statistics{}, fail(CodeDataTooLong,
			fmt.Errorf("engine: message needs %d bits, image has %d", bitLen, cs.total))
	}

	src := entropy.New()

	for k := uint64(0); k < bitLen; k++ {
		byteIdx := k / 8
		bitIdx := 7 - (k % 8)
		bit := (framed[byteIdx] >> bitIdx) & 1

		coef, ferr := cs.coefficientAt(perm[k] - 1)
		if ferr != nil {
			return models.Statistics{}, ferr
		}
		newVal, err := dctenum.Embed(*coef, bit, src)
		if err != nil {
			return models.Statistics{}, fail(CodeCannotOpenEntropy, err)
		}
		*coef = newVal
	}

	out, err := os.Create(outPath)
	if err != nil {
		return models.Statistics{}, fail(CodeWriteError, err)
	}
	defer out.Close()
	if err := cs.sess.Encode(out); err != nil {
		return models.Statistics{}, fail(CodeWriteError, err)
	}

	return cs.statistics(r, bitLen), nil
}

// Decode recovers the hidden plaintext from the JPEG at path, returning it
// together with capacity/usage statistics. A wrong password or a
// non-steganographic image both surface as a CodeGarbage error.
func Decode(path string, password []byte, r int) ([]byte, models.Statistics, error) {
	cs, ferr := openCapacity(path, r)
	if ferr != nil {
		return nil, models.Statistics{}, ferr
	}

	perm, ferr := permutation(password, cs.total)
	if ferr != nil {
		return nil, models.Statistics{}, ferr
	}

	harvest := func(nBits uint64) ([]byte, *Error) {
		if nBits > uint64(len(perm)) {
			return nil, fail(CodeGarbage, fmt.Errorf("engine: frame exceeds image capacity"))
		}
		buf := make([]byte, (nBits+7)/8)
		for k := uint64(0); k < nBits; k++ {
			coef, ferr := cs.coefficientAt(perm[k] - 1)
			if ferr != nil {
				return nil, fail(CodeGarbage, ferr.Err)
			}
			bit := dctenum.Extract(*coef)
			buf[k/8] |= bit << (7 - (k % 8))
		}
		return buf, nil
	}

	headerBytes := frame.MaxHeaderLen()
	if rem := headerBytes % stegocipher.BlockSize; rem != 0 {
		headerBytes += stegocipher.BlockSize - rem
	}
	header, ferr := harvest(uint64(headerBytes) * 8)
	if ferr != nil {
		return nil, models.Statistics{}, ferr
	}
	defer zero(header)
	if err := stegocipher.Apply(header, password, stegocipher.Decrypt); err != nil {
		return nil, models.Statistics{}, fail(CodeGarbage, err)
	}

	bodyLen, consumed, err := varint.Yield(header)
	if err != nil {
		return nil, models.Statistics{}, fail(CodeGarbage, err)
	}
	if bodyLen <= uint64(frame.DigestSize) {
		return nil, models.Statistics{}, fail(CodeGarbage, fmt.Errorf("engine: frame body too short"))
	}

	totalLen := uint64(consumed) + bodyLen
	if totalLen < bodyLen {
		return nil, models.Statistics{}, fail(CodeGarbage, fmt.Errorf("engine: frame length overflow"))
	}
	paddedLen := totalLen
	if rem := paddedLen % uint64(stegocipher.BlockSize); rem != 0 {
		paddedLen += uint64(stegocipher.BlockSize) - rem
	}

	fullCipher, ferr := harvest(paddedLen * 8)
	if ferr != nil {
		return nil, models.Statistics{}, ferr
	}
	defer zero(fullCipher)
	if err := stegocipher.Apply(fullCipher, password, stegocipher.Decrypt); err != nil {
		return nil, models.Statistics{}, fail(CodeGarbage, err)
	}

	plaintext, err := frame.Parse(fullCipher)
	if err != nil {
		return nil, models.Statistics{}, fail(CodeGarbage, err)
	}

	return plaintext, cs.statistics(r, paddedLen*8), nil
}
