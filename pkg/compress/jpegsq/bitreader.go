package jpegsq

import (
	"bufio"
	"io"
)

// bitReader reads entropy-coded bits, undoing 0xFF00 byte stuffing,
// dropping restart markers and stopping cleanly at a trailing marker.
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

// consumeRestart discards the padding bits before a restart point. The
// RSTn marker itself is dropped by fill, which treats it as transparent.
func (b *bitReader) consumeRestart() {
	b.bits &= ^7
}
