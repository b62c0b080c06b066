package jpegli

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"

	"github.com/jpfielding/libjpeg.go/pkg/codec"
)

// decodeScan reconstructs every sample of the entropy-coded scan into
// dst, row-major with components interleaved.
func (d *decoder) decodeScan(dst []byte) error {
	br := newBitReader(bytes.NewReader(d.data[d.scanStart:]))

	rows := int(d.params.Rows)
	cols := int(d.params.Columns)
	ncomp := len(d.comps)
	bps := d.params.BytesPerSample()
	// The point transform codes samples shifted right by Al; outputs
	// scale back up, leaving the low bits zero.
	maxVal := (1 << (int(d.params.Precision) - d.pointTrans)) - 1

	// One prediction row pair per component.
	prev := make([][]int, ncomp)
	curr := make([][]int, ncomp)
	for i := range prev {
		prev[i] = make([]int, cols)
		curr[i] = make([]int, cols)
	}

	mcu := 0
	restarted := false
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if d.restart > 0 && mcu > 0 && mcu%d.restart == 0 {
				if err := br.consumeRestart(); err != nil {
					return err
				}
				for i := range prev {
					for j := range prev[i] {
						prev[i][j] = 0
						curr[i][j] = 0
					}
				}
				restarted = true
			}

			for ci := 0; ci < ncomp; ci++ {
				ht := d.tables[d.comps[ci].dcTable]

				ssss, err := decodeHuffman(br, ht)
				if err != nil {
					return scanError(err, y*cols+x, rows*cols)
				}

				var diff int
				if ssss > 0 {
					bits, err := br.readBits(ssss)
					if err != nil {
						return scanError(err, y*cols+x, rows*cols)
					}
					diff = extend(bits, ssss)
				}

				// The first sample of a restart interval predicts from
				// half the sample range, as at the start of the scan.
				pred := d.predict(curr[ci], prev[ci], x, y)
				if restarted {
					pred = 1 << (int(d.params.Precision) - 1 - d.pointTrans)
				}
				val := (pred + diff) & maxVal
				curr[ci][x] = val

				off := ((y*cols+x)*ncomp + ci) * bps
				if bps == 2 {
					binary.NativeEndian.PutUint16(dst[off:off+2], uint16(val<<d.pointTrans))
				} else {
					dst[off] = byte(val << d.pointTrans)
				}
			}
			restarted = false
			mcu++
		}
		for ci := 0; ci < ncomp; ci++ {
			prev[ci], curr[ci] = curr[ci], prev[ci]
		}
	}
	return nil
}

// scanError maps bitstream failures to the stream/block error classes,
// annotated with how far the scan got.
func scanError(err error, decoded, expected int) error {
	if ce, ok := err.(*codec.Error); ok {
		return ce
	}
	if err == io.EOF {
		return codec.Errorf(codec.CodeStreamEmpty,
			"scan data ended after %d of %d samples", decoded, expected)
	}
	return codec.Errorf(codec.CodeBlockEmpty, "scan data unreadable after %d of %d samples: %v", decoded, expected, err)
}

// predict computes the predicted value for position (x, y) using the
// scan's predictor selector. The first sample of the image predicts from
// half the sample range; edges fall back to the available neighbour.
func (d *decoder) predict(currRow, prevRow []int, x, y int) int {
	var Ra, Rb, Rc int
	if x > 0 {
		Ra = currRow[x-1]
	}
	if y > 0 {
		Rb = prevRow[x]
		if x > 0 {
			Rc = prevRow[x-1]
		}
	}

	if y == 0 && x == 0 {
		return 1 << (int(d.params.Precision) - 1 - d.pointTrans)
	}
	if y == 0 {
		return Ra
	}
	if x == 0 {
		return Rb
	}

	switch d.predictor {
	case 0:
		return 0
	case 1:
		return Ra
	case 2:
		return Rb
	case 3:
		return Rc
	case 4:
		return Ra + Rb - Rc
	case 5:
		return Ra + (Rb-Rc)/2
	case 6:
		return Rb + (Ra-Rc)/2
	case 7:
		return (Ra + Rb) / 2
	default:
		return Ra
	}
}

// extend converts ssss magnitude bits to a signed difference.
func extend(bits, ssss int) int {
	if ssss == 0 {
		return 0
	}
	vt := 1 << (ssss - 1)
	if bits < vt {
		return bits - (1<<ssss - 1)
	}
	return bits
}

// decodeHuffman reads one SSSS category symbol: 8-bit table lookup on
// the fast path, bit-by-bit canonical search beyond 8 bits.
func decodeHuffman(br *bitReader, ht *huffmanTable) (int, error) {
	peek, err := br.peekBits(8)
	if err != nil && err != io.EOF {
		return 0, err
	}
	if entry := ht.lookup[peek&0xFF]; entry >= 0 {
		br.consumeBits(int(entry >> 8))
		return int(entry & 0xFF), nil
	}

	code := 0
	idx := 0
	for size := 1; size <= 16; size++ {
		bit, err := br.readBit()
		if err != nil {
			return 0, err
		}
		code = code<<1 | bit

		for i := 0; i < ht.bits[size]; i++ {
			if ht.codes[idx+i] == uint16(code) {
				return int(ht.values[idx+i]), nil
			}
		}
		idx += ht.bits[size]
	}
	return 0, codec.Errorf(codec.CodeNoHuffmanCode, "no huffman code matches %b after 16 bits", code)
}

// applyTransform rewrites multi-component samples in dst according to
// the selector. Single-component frames ignore the selector entirely.
func (d *decoder) applyTransform(dst []byte, t codec.Transform) error {
	if d.params.Components != 3 {
		return nil
	}

	switch t {
	case codec.TransformNone:
		return nil
	case codec.TransformRCT:
		inverseRCT(dst, d.params)
		return nil
	case codec.TransformYCbCr:
		if d.params.Precision > 8 {
			return codec.Errorf(codec.CodeUnsupportedProfile,
				"YCbCr transform on %d-bit lossless samples", d.params.Precision)
		}
		inverseYCbCr8(dst)
		return nil
	default:
		return codec.Errorf(codec.CodeUnsupportedProfile, "colour transform selector %d for the lossless process", int(t))
	}
}

// inverseYCbCr8 converts interleaved 8-bit YCbCr triples to RGB in
// place, using the same fixed-point coefficients as the DCT path.
func inverseYCbCr8(pix []byte) {
	for i := 0; i+2 < len(pix); i += 3 {
		y := int32(pix[i]) << 8
		cb := int32(pix[i+1]) - 128
		cr := int32(pix[i+2]) - 128

		pix[i] = clip8((y + 359*cr + 128) >> 8)
		pix[i+1] = clip8((y - 88*cb - 183*cr + 128) >> 8)
		pix[i+2] = clip8((y + 454*cb + 128) >> 8)
	}
}

func clip8(v int32) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// bitReader reads bits from entropy-coded data, undoing 0xFF00 byte
// stuffing and stopping cleanly at a trailing marker.
type bitReader struct {
	r    *bufio.Reader
	buf  uint32
	bits int
	eof  bool
}

func newBitReader(r io.Reader) *bitReader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &bitReader{r: br}
}

func (b *bitReader) fill() error {
	for b.bits < 16 && !b.eof {
		c, err := b.r.ReadByte()
		if err != nil {
			if err == io.EOF {
				b.eof = true
				return nil
			}
			return err
		}

		if c == 0xFF {
			next, err := b.r.Peek(1)
			if err != nil {
				if err == io.EOF {
					b.eof = true
					return nil
				}
				return err
			}
			switch {
			case next[0] == 0x00:
				// Stuffed byte: the 0xFF is data.
				b.r.Discard(1)
			case next[0] >= 0xD0 && next[0] <= 0xD7:
				// Restart marker inside the fill window; drop it.
				b.r.Discard(1)
				continue
			default:
				// A real marker (EOI and friends) ends the scan.
				b.r.UnreadByte()
				b.eof = true
				return nil
			}
		}
		b.buf = b.buf<<8 | uint32(c)
		b.bits += 8
	}
	return nil
}

func (b *bitReader) readBit() (int, error) {
	if b.bits < 1 {
		if err := b.fill(); err != nil {
			return 0, err
		}
		if b.bits < 1 {
			return 0, io.EOF
		}
	}
	b.bits--
	return int((b.buf >> b.bits) & 1), nil
}

func (b *bitReader) readBits(n int) (int, error) {
	if n == 0 {
		return 0, nil
	}
	for b.bits < n {
		if err := b.fill(); err != nil {
			return 0, err
		}
		if b.eof && b.bits < n {
			return 0, io.EOF
		}
	}
	b.bits -= n
	return int((b.buf >> b.bits) & uint32((1<<n)-1)), nil
}

// peekBits returns up to n bits without consuming them, padding with 1s
// (STOP codes) once the scan data is exhausted.
func (b *bitReader) peekBits(n int) (int, error) {
	for b.bits < n {
		if err := b.fill(); err != nil {
			return 0, err
		}
		if b.eof && b.bits < n {
			pad := n - b.bits
			val := int(b.buf&((1<<b.bits)-1))<<pad | (1<<pad - 1)
			return val, io.EOF
		}
	}
	return int((b.buf >> (b.bits - n)) & uint32((1<<n)-1)), nil
}

func (b *bitReader) consumeBits(n int) {
	if b.bits < n {
		b.bits = 0
		return
	}
	b.bits -= n
}

// consumeRestart discards the partial byte at a restart point. The RSTn
// marker itself is dropped by fill, which treats it as transparent.
func (b *bitReader) consumeRestart() error {
	b.bits &= ^7
	return nil
}
