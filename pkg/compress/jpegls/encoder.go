package jpegls

import (
	"image"
	"io"

	"github.com/jpfielding/libjpeg.go/pkg/codec"
)

// Options controls JPEG-LS encoding.
type Options struct {
	// Near is the allowed reconstruction error. Only 0 (lossless) is
	// supported.
	Near int
}

// Encoder encodes single-component JPEG-LS streams.
type Encoder struct {
	bw      *BitWriter
	params  FrameHeader
	scan    ScanHeader
	context *ContextModel
}

// Encode writes img to w as a JPEG-LS stream. Gray images encode at
// 8-bit precision, Gray16 at 16-bit.
func Encode(w io.Writer, img image.Image, opts *Options) error {
	b := img.Bounds()
	width := b.Dx()
	height := b.Dy()
	if width <= 0 || height <= 0 {
		return codec.Errorf(codec.CodeValueOutOfRange, "image dimensions %dx%d", width, height)
	}

	var precision, maxVal int
	switch img.(type) {
	case *image.Gray:
		precision, maxVal = 8, 255
	case *image.Gray16:
		precision, maxVal = 16, 65535
	default:
		return codec.Errorf(codec.CodeUnsupportedProfile, "only Gray and Gray16 images encode as JPEG-LS")
	}

	if opts != nil && opts.Near != 0 {
		return codec.Errorf(codec.CodeUnsupportedProfile, "near-lossless encoding with NEAR=%d", opts.Near)
	}

	e := &Encoder{
		bw: NewBitWriter(w),
		params: FrameHeader{
			Width:      width,
			Height:     height,
			Components: 1,
			Precision:  precision,
		},
		scan: ScanHeader{Components: 1},
	}
	return e.encode(img, maxVal)
}

func (e *Encoder) encode(img image.Image, maxVal int) error {
	if err := e.writeMarker(MarkerSOI); err != nil {
		return err
	}
	if err := e.writeSOF(); err != nil {
		return err
	}
	if err := e.writeSOS(); err != nil {
		return err
	}

	e.context = NewContextModel(maxVal, e.scan.Near, 64)

	if err := e.encodeScan(img); err != nil {
		return err
	}
	if err := e.bw.Flush(); err != nil {
		return err
	}
	if err := e.writeMarker(MarkerEOI); err != nil {
		return err
	}
	return e.bw.w.Flush()
}

func (e *Encoder) writeMarker(marker int) error {
	if err := e.bw.w.WriteByte(0xFF); err != nil {
		return err
	}
	return e.bw.w.WriteByte(byte(marker & 0xFF))
}

func (e *Encoder) writeWord(v int) error {
	if err := e.bw.w.WriteByte(byte(v >> 8)); err != nil {
		return err
	}
	return e.bw.w.WriteByte(byte(v & 0xFF))
}

func (e *Encoder) writeSOF() error {
	if err := e.writeMarker(MarkerSOF55); err != nil {
		return err
	}
	if err := e.writeWord(8 + e.params.Components*3); err != nil {
		return err
	}
	if err := e.bw.w.WriteByte(byte(e.params.Precision)); err != nil {
		return err
	}
	if err := e.writeWord(e.params.Height); err != nil {
		return err
	}
	if err := e.writeWord(e.params.Width); err != nil {
		return err
	}
	if err := e.bw.w.WriteByte(byte(e.params.Components)); err != nil {
		return err
	}
	for i := 0; i < e.params.Components; i++ {
		// id, 1x1 sampling, no quantization table
		if err := e.bw.w.WriteByte(byte(i + 1)); err != nil {
			return err
		}
		if err := e.bw.w.WriteByte(0x11); err != nil {
			return err
		}
		if err := e.bw.w.WriteByte(0x00); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) writeSOS() error {
	if err := e.writeMarker(MarkerSOS); err != nil {
		return err
	}
	if err := e.writeWord(6 + e.scan.Components*2); err != nil {
		return err
	}
	if err := e.bw.w.WriteByte(byte(e.scan.Components)); err != nil {
		return err
	}
	for i := 0; i < e.scan.Components; i++ {
		// id, no mapping table
		if err := e.bw.w.WriteByte(byte(i + 1)); err != nil {
			return err
		}
		if err := e.bw.w.WriteByte(0x00); err != nil {
			return err
		}
	}
	if err := e.bw.w.WriteByte(byte(e.scan.Near)); err != nil {
		return err
	}
	if err := e.bw.w.WriteByte(byte(e.scan.ILV)); err != nil {
		return err
	}
	return e.bw.w.WriteByte(0x00) // point transform
}

func (e *Encoder) encodeScan(img image.Image) error {
	w := e.params.Width
	h := e.params.Height
	maxVal := e.context.MaxVal
	rangeVal := maxVal + 1

	currLine := make([]int, w)
	prevLine := make([]int, w)

	getPixel := func(x, y int) int {
		switch g := img.(type) {
		case *image.Gray:
			return int(g.GrayAt(x+img.Bounds().Min.X, y+img.Bounds().Min.Y).Y)
		case *image.Gray16:
			return int(g.Gray16At(x+img.Bounds().Min.X, y+img.Bounds().Min.Y).Y)
		}
		return 0
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			currLine[x] = getPixel(x, y)
		}

		for x := 0; x < w; x++ {
			Ra, Rb, Rc, Rd := neighbours(currLine, prevLine, x, y, w)

			D1 := Rd - Rb
			D2 := Rb - Rc
			D3 := Rc - Ra

			if D1 == 0 && D2 == 0 && D3 == 0 {
				if err := e.encodeRun(currLine, &x, Ra, Rb); err != nil {
					return err
				}
				x--
				continue
			}

			Q, sign := e.context.GetContextIndex(D1, D2, D3)

			Px := PredictMED(Ra, Rb, Rc)
			Px += sign * e.context.C[Q]
			Px = clip(Px, 0, maxVal)

			ErrVal := currLine[x] - Px
			if sign == -1 {
				ErrVal = -ErrVal
			}
			if ErrVal < -rangeVal/2 {
				ErrVal += rangeVal
			}
			if ErrVal > rangeVal/2 {
				ErrVal -= rangeVal
			}

			k := e.context.ComputeK(Q)
			if err := e.bw.WriteGolomb(k, mapError(ErrVal)); err != nil {
				return err
			}
			e.context.UpdateStats(Q, ErrVal)
		}

		copy(prevLine, currLine)
	}
	return nil
}
