package jpegls

import (
	"bufio"
	"io"
)

// BitReader reads MSB-first bits from the entropy-coded segment of a
// JPEG-LS scan, undoing the T.87 C.2.3 marker protection: a byte
// following an 0xFF carries only 7 data bits, its MSB is a stuffed
// zero. An MSB set after an 0xFF is a marker and ends the segment.
type BitReader struct {
	r      *bufio.Reader
	buf    uint32
	bits   int
	lastFF bool
	eof    bool
}

// NewBitReader wraps r for bit-level reads.
func NewBitReader(r io.Reader) *BitReader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &BitReader{r: br}
}

func (b *BitReader) fill(n int) error {
	for b.bits < n {
		if b.eof {
			return io.EOF
		}
		c, err := b.r.ReadByte()
		if err != nil {
			if err == io.EOF {
				b.eof = true
			}
			return err
		}

		if b.lastFF {
			if c&0x80 != 0 {
				// A marker terminates the entropy-coded segment.
				b.eof = true
				return io.EOF
			}
			b.buf = b.buf<<7 | uint32(c)
			b.bits += 7
			b.lastFF = false
			continue
		}
		b.buf = b.buf<<8 | uint32(c)
		b.bits += 8
		b.lastFF = c == 0xFF
	}
	return nil
}

// ReadBit returns the next single bit.
func (b *BitReader) ReadBit() (int, error) {
	if err := b.fill(1); err != nil {
		return 0, err
	}
	b.bits--
	return int((b.buf >> b.bits) & 1), nil
}

// ReadBits returns the next n bits (n <= 24).
func (b *BitReader) ReadBits(n int) (uint32, error) {
	if n == 0 {
		return 0, nil
	}
	if err := b.fill(n); err != nil {
		return 0, err
	}
	b.bits -= n
	return (b.buf >> b.bits) & ((1 << n) - 1), nil
}

// ReadGolomb reads a Golomb-Rice code with parameter k: a unary
// quotient (zeros terminated by a one) followed by k remainder bits.
func (b *BitReader) ReadGolomb(k int) (uint32, error) {
	q := uint32(0)
	for {
		bit, err := b.ReadBit()
		if err != nil {
			return 0, err
		}
		if bit == 1 {
			break
		}
		q++
	}

	if k == 0 {
		return q, nil
	}
	r, err := b.ReadBits(k)
	if err != nil {
		return 0, err
	}
	return q<<k | r, nil
}

// BitWriter writes MSB-first bits with T.87 C.2.3 marker protection:
// after an 0xFF byte only 7 bits accumulate for the next byte, leaving
// its MSB clear. Marker segments are written through the underlying w
// directly; Flush pads the final partial byte with zeros before any
// following marker.
type BitWriter struct {
	w      *bufio.Writer
	buf    uint32
	bits   int
	lastFF bool
}

// NewBitWriter wraps w for bit-level writes.
func NewBitWriter(w io.Writer) *BitWriter {
	bw, ok := w.(*bufio.Writer)
	if !ok {
		bw = bufio.NewWriter(w)
	}
	return &BitWriter{w: bw}
}

// WriteBit writes a single bit.
func (b *BitWriter) WriteBit(bit int) error {
	return b.WriteBits(uint32(bit&1), 1)
}

// WriteBits writes the low n bits of v (n <= 24).
func (b *BitWriter) WriteBits(v uint32, n int) error {
	if n == 0 {
		return nil
	}
	b.buf = b.buf<<n | (v & ((1 << n) - 1))
	b.bits += n

	for {
		width := 8
		if b.lastFF {
			width = 7
		}
		if b.bits < width {
			return nil
		}
		b.bits -= width
		c := byte((b.buf >> b.bits) & ((1 << width) - 1))
		if err := b.w.WriteByte(c); err != nil {
			return err
		}
		b.lastFF = c == 0xFF
	}
}

// WriteGolomb writes v as a Golomb-Rice code with parameter k.
func (b *BitWriter) WriteGolomb(k int, v uint32) error {
	q := v >> k
	for i := uint32(0); i < q; i++ {
		if err := b.WriteBit(0); err != nil {
			return err
		}
	}
	if err := b.WriteBit(1); err != nil {
		return err
	}
	if k == 0 {
		return nil
	}
	return b.WriteBits(v&((1<<k)-1), k)
}

// Flush pads the current byte with zero bits and writes it out. The
// underlying bufio.Writer still needs its own Flush before the stream
// is complete.
func (b *BitWriter) Flush() error {
	if b.bits > 0 {
		width := 8
		if b.lastFF {
			width = 7
		}
		return b.WriteBits(0, width-b.bits)
	}
	return nil
}
