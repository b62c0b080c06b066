package jpegli

import (
	"encoding/binary"
	"image"
	"io"

	"github.com/jpfielding/libjpeg.go/pkg/codec"
)

// Options controls lossless encoding.
type Options struct {
	// Predictor selection (1-7, default 1).
	Predictor int
	// Point transform (0 for fully lossless).
	PointTransform int
}

// Encode writes img to w as a single-component lossless JPEG (SOF3).
// Gray images encode at 8-bit precision, Gray16 at 16-bit.
func Encode(w io.Writer, img image.Image, opts *Options) error {
	enc := &encoder{w: w, predictor: 1}
	if opts != nil {
		if opts.Predictor >= 1 && opts.Predictor <= 7 {
			enc.predictor = opts.Predictor
		}
		enc.pointTrans = opts.PointTransform
	}
	return enc.encode(img)
}

type encoder struct {
	w          io.Writer
	predictor  int
	pointTrans int
	precision  int
	width      int
	height     int
}

func (e *encoder) encode(img image.Image) error {
	bounds := img.Bounds()
	e.width = bounds.Dx()
	e.height = bounds.Dy()
	if e.width <= 0 || e.height <= 0 {
		return codec.Errorf(codec.CodeValueOutOfRange, "image dimensions %dx%d", e.width, e.height)
	}

	switch img.(type) {
	case *image.Gray:
		e.precision = 8
	case *image.Gray16:
		e.precision = 16
	default:
		return codec.Errorf(codec.CodeUnsupportedProfile, "only Gray and Gray16 images encode losslessly")
	}
	if e.pointTrans < 0 || e.pointTrans >= e.precision {
		return codec.Errorf(codec.CodeParameterOutOfRange, "point transform %d for %d-bit samples", e.pointTrans, e.precision)
	}

	if err := e.writeMarker(MarkerSOI); err != nil {
		return err
	}
	if err := e.writeAPP0(); err != nil {
		return err
	}
	if err := e.writeSOF3(); err != nil {
		return err
	}

	ht := defaultLosslessTable()
	if err := e.writeDHT(ht); err != nil {
		return err
	}
	if err := e.writeSOS(img, ht); err != nil {
		return err
	}
	return e.writeMarker(MarkerEOI)
}

func (e *encoder) writeMarker(marker int) error {
	return binary.Write(e.w, binary.BigEndian, uint16(marker))
}

func (e *encoder) writeAPP0() error {
	if err := e.writeMarker(MarkerAPP0); err != nil {
		return err
	}
	data := []byte{
		0x00, 0x10, // length
		0x4A, 0x46, 0x49, 0x46, 0x00, // "JFIF\0"
		0x01, 0x01, // version 1.1
		0x00,       // no density units
		0x00, 0x01, // X density
		0x00, 0x01, // Y density
		0x00, 0x00, // no thumbnail
	}
	_, err := e.w.Write(data)
	return err
}

func (e *encoder) writeSOF3() error {
	if err := e.writeMarker(MarkerSOF3); err != nil {
		return err
	}

	length := 2 + 1 + 2 + 2 + 1 + 3 // one component
	data := make([]byte, length)
	data[0] = byte(length >> 8)
	data[1] = byte(length)
	data[2] = byte(e.precision)
	data[3] = byte(e.height >> 8)
	data[4] = byte(e.height)
	data[5] = byte(e.width >> 8)
	data[6] = byte(e.width)
	data[7] = 1    // component count
	data[8] = 1    // component id
	data[9] = 0x11 // 1x1 sampling
	data[10] = 0   // no quantization table in lossless

	_, err := e.w.Write(data)
	return err
}

func (e *encoder) writeDHT(ht *huffmanTable) error {
	if err := e.writeMarker(MarkerDHT); err != nil {
		return err
	}

	length := 2 + 1 + 16 + len(ht.values)
	data := make([]byte, length)
	data[0] = byte(length >> 8)
	data[1] = byte(length)
	data[2] = 0 // DC class, table 0
	for i := 1; i <= 16; i++ {
		data[2+i] = byte(ht.bits[i])
	}
	copy(data[19:], ht.values)

	_, err := e.w.Write(data)
	return err
}

func (e *encoder) writeSOS(img image.Image, ht *huffmanTable) error {
	if err := e.writeMarker(MarkerSOS); err != nil {
		return err
	}

	length := 2 + 1 + 2 + 3 // one component
	header := make([]byte, length)
	header[0] = byte(length >> 8)
	header[1] = byte(length)
	header[2] = 1 // component count
	header[3] = 1 // component id
	header[4] = 0 // DC table 0
	header[5] = byte(e.predictor)
	header[6] = 0 // Se unused in lossless
	header[7] = byte(e.pointTrans)

	if _, err := e.w.Write(header); err != nil {
		return err
	}
	return e.encodeScan(img, ht)
}

func (e *encoder) encodeScan(img image.Image, ht *huffmanTable) error {
	bw := newBitWriter(e.w)

	prevRow := make([]int, e.width)
	currRow := make([]int, e.width)
	// Samples are coded in the domain shifted down by the point
	// transform; the decoder scales them back up.
	maxVal := (1 << (e.precision - e.pointTrans)) - 1

	for y := 0; y < e.height; y++ {
		for x := 0; x < e.width; x++ {
			val := e.getPixel(img, x, y) >> e.pointTrans
			currRow[x] = val

			pred := e.predict(currRow, prevRow, x, y)

			// Difference with wraparound, reduced to the signed range.
			diff := (val - pred) & maxVal
			if diff > maxVal/2 {
				diff -= maxVal + 1
			}

			ssss := categorize(diff)
			if err := e.encodeHuffman(bw, ht, ssss); err != nil {
				return err
			}
			if ssss > 0 {
				if diff < 0 {
					diff = diff + (1 << ssss) - 1
				}
				bw.writeBits(diff, ssss)
			}
		}
		prevRow, currRow = currRow, prevRow
	}
	return bw.flush()
}

func (e *encoder) getPixel(img image.Image, x, y int) int {
	b := img.Bounds()
	switch g := img.(type) {
	case *image.Gray:
		return int(g.GrayAt(x+b.Min.X, y+b.Min.Y).Y)
	case *image.Gray16:
		return int(g.Gray16At(x+b.Min.X, y+b.Min.Y).Y)
	default:
		return 0
	}
}

func (e *encoder) predict(currRow, prevRow []int, x, y int) int {
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
		return 1 << (e.precision - 1 - e.pointTrans)
	}
	if y == 0 {
		return Ra
	}
	if x == 0 {
		return Rb
	}

	switch e.predictor {
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

// categorize returns the SSSS magnitude category for a difference.
func categorize(diff int) int {
	if diff < 0 {
		diff = -diff
	}
	ssss := 0
	for diff > 0 {
		diff >>= 1
		ssss++
	}
	return ssss
}

func (e *encoder) encodeHuffman(bw *bitWriter, ht *huffmanTable, ssss int) error {
	for i, val := range ht.values {
		if int(val) == ssss {
			bw.writeBits(int(ht.codes[i]), ht.sizes[i])
			return nil
		}
	}
	return codec.Errorf(codec.CodeNoHuffmanCode, "no code defined for SSSS category %d", ssss)
}

// bitWriter writes entropy-coded bits with 0xFF00 byte stuffing.
type bitWriter struct {
	w    io.Writer
	buf  uint32
	bits int
}

func newBitWriter(w io.Writer) *bitWriter {
	return &bitWriter{w: w}
}

func (b *bitWriter) writeBits(val, n int) {
	b.buf = (b.buf << n) | uint32(val&((1<<n)-1))
	b.bits += n

	for b.bits >= 8 {
		b.bits -= 8
		byteVal := byte(b.buf >> b.bits)
		b.w.Write([]byte{byteVal})
		if byteVal == 0xFF {
			b.w.Write([]byte{0x00})
		}
	}
}

func (b *bitWriter) flush() error {
	if b.bits > 0 {
		// Pad the final byte with 1s.
		b.buf = (b.buf << (8 - b.bits)) | ((1 << (8 - b.bits)) - 1)
		byteVal := byte(b.buf)
		b.w.Write([]byte{byteVal})
		if byteVal == 0xFF {
			b.w.Write([]byte{0x00})
		}
		b.bits = 0
	}
	return nil
}
