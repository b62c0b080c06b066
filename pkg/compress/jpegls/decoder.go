package jpegls

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"io"

	"github.com/jpfielding/libjpeg.go/pkg/codec"
)

// Decoder holds per-call state for one JPEG-LS decode.
type Decoder struct {
	br      *BitReader
	params  FrameHeader
	scan    ScanHeader
	context *ContextModel

	maxVal int
	reset  int
	// Preset thresholds from an LSE segment; zero means derive from
	// maxVal the standard way.
	t1, t2, t3 int
}

func (d *Decoder) decode(data, dst []byte) error {
	d.reset = 64
	scanStart, err := d.readSegments(data)
	if err != nil {
		return err
	}

	d.context = NewContextModel(d.maxVal, d.scan.Near, d.reset)
	if d.t1 > 0 {
		d.context.T1, d.context.T2, d.context.T3 = d.t1, d.t2, d.t3
	}

	d.br = NewBitReader(bytes.NewReader(data[scanStart:]))
	return d.decodeScan(dst)
}

// readSegments walks the marker structure up to the start of entropy
// data and returns its offset.
func (d *Decoder) readSegments(data []byte) (int, error) {
	pos := 2 // past SOI, validated by ReadHeader
	sofSeen := false

	for {
		if pos+2 > len(data) {
			return 0, codec.Errorf(codec.CodeStreamEmpty, "stream ended before SOS")
		}
		if data[pos] != 0xFF {
			return 0, codec.Errorf(codec.CodeMisplacedMarker, "expected marker at offset %d", pos)
		}
		for pos < len(data) && data[pos] == 0xFF {
			pos++
		}
		if pos >= len(data) {
			return 0, codec.Errorf(codec.CodeStreamEmpty, "stream ended inside marker")
		}
		marker := 0xFF00 | int(data[pos])
		pos++

		if marker == MarkerEOI {
			return 0, codec.Errorf(codec.CodeMisplacedMarker, "EOI before scan data")
		}

		if pos+2 > len(data) {
			return 0, codec.Errorf(codec.CodeStreamEmpty, "truncated segment length")
		}
		length := int(data[pos])<<8 | int(data[pos+1])
		if length < 2 || pos+length > len(data) {
			return 0, codec.Errorf(codec.CodeStreamEmpty, "segment 0x%04X overruns stream", marker)
		}
		body := data[pos+2 : pos+length]

		switch marker {
		case MarkerSOF55:
			if sofSeen {
				return 0, codec.Errorf(codec.CodeDuplicateMarker, "second SOF55 marker")
			}
			if err := d.readSOF(body); err != nil {
				return 0, err
			}
			sofSeen = true
		case MarkerLSE:
			if err := d.readLSE(body); err != nil {
				return 0, err
			}
		case MarkerSOS:
			if !sofSeen {
				return 0, codec.Errorf(codec.CodeMisplacedMarker, "SOS before SOF55")
			}
			if err := d.readSOS(body); err != nil {
				return 0, err
			}
			return pos + length, nil
		}
		pos += length
	}
}

func (d *Decoder) readSOF(body []byte) error {
	if len(body) < 6 {
		return codec.Errorf(codec.CodeStreamEmpty, "truncated SOF55 segment")
	}
	d.params = FrameHeader{
		Precision:  int(body[0]),
		Height:     int(body[1])<<8 | int(body[2]),
		Width:      int(body[3])<<8 | int(body[4]),
		Components: int(body[5]),
	}
	if d.params.Components != 1 {
		return codec.Errorf(codec.CodeUnsupportedProfile,
			"%d-component JPEG-LS scans are unsupported", d.params.Components)
	}
	if len(body) < 6+3*d.params.Components {
		return codec.Errorf(codec.CodeStreamEmpty, "SOF55 shorter than its components require")
	}
	d.maxVal = (1 << d.params.Precision) - 1
	return nil
}

// readLSE parses a preset parameters segment. Only type 1 (coding
// parameters) is handled; mapping tables change sample semantics and
// are rejected.
func (d *Decoder) readLSE(body []byte) error {
	if len(body) < 1 {
		return codec.Errorf(codec.CodeStreamEmpty, "truncated LSE segment")
	}
	switch body[0] {
	case 1:
		if len(body) < 11 {
			return codec.Errorf(codec.CodeStreamEmpty, "truncated LSE coding parameters")
		}
		word := func(i int) int { return int(body[i])<<8 | int(body[i+1]) }
		if v := word(1); v > 0 {
			d.maxVal = v
		}
		if v := word(3); v > 0 {
			d.t1 = v
			d.t2 = word(5)
			d.t3 = word(7)
		}
		if v := word(9); v > 0 {
			d.reset = v
		}
		return nil
	default:
		return codec.Errorf(codec.CodeUnsupportedProfile, "LSE preset type %d", body[0])
	}
}

func (d *Decoder) readSOS(body []byte) error {
	if len(body) < 1 {
		return codec.Errorf(codec.CodeStreamEmpty, "truncated SOS segment")
	}
	ns := int(body[0])
	if ns != 1 {
		return codec.Errorf(codec.CodeUnsupportedProfile, "scan holds %d components", ns)
	}
	if len(body) < 1+2*ns+3 {
		return codec.Errorf(codec.CodeStreamEmpty, "SOS shorter than its components require")
	}
	tail := body[1+2*ns:]
	d.scan = ScanHeader{
		Components: ns,
		Near:       int(tail[0]),
		ILV:        int(tail[1]),
	}
	if d.scan.Near != 0 {
		return codec.Errorf(codec.CodeUnsupportedProfile, "near-lossless scan with NEAR=%d", d.scan.Near)
	}
	if d.scan.ILV != 0 {
		return codec.Errorf(codec.CodeUnsupportedProfile, "interleave mode %d for a single component", d.scan.ILV)
	}
	return nil
}

// decodeScan reconstructs every sample of the scan into dst, the mirror
// image of the regular/run mode split on the encoding side.
func (d *Decoder) decodeScan(dst []byte) error {
	w := d.params.Width
	h := d.params.Height
	bps := (d.params.Precision + 7) / 8
	maxVal := d.context.MaxVal
	rangeVal := maxVal + 1

	currLine := make([]int, w)
	prevLine := make([]int, w)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			Ra, Rb, Rc, Rd := neighbours(currLine, prevLine, x, y, w)

			D1 := Rd - Rb
			D2 := Rb - Rc
			D3 := Rc - Ra

			if D1 == 0 && D2 == 0 && D3 == 0 {
				if err := d.decodeRun(Ra, Rb, currLine, &x); err != nil {
					return d.scanError(err, y)
				}
				x--
				continue
			}

			Q, sign := d.context.GetContextIndex(D1, D2, D3)

			Px := PredictMED(Ra, Rb, Rc)
			Px += sign * d.context.C[Q]
			Px = clip(Px, 0, maxVal)

			k := d.context.ComputeK(Q)
			mapped, err := d.br.ReadGolomb(k)
			if err != nil {
				return d.scanError(err, y)
			}
			ErrVal := unmapError(mapped)
			d.context.UpdateStats(Q, ErrVal)

			Rx := Px + sign*ErrVal
			if Rx < 0 {
				Rx += rangeVal
			}
			if Rx > maxVal {
				Rx -= rangeVal
			}
			currLine[x] = Rx
		}

		off := y * w * bps
		for x := 0; x < w; x++ {
			if bps == 2 {
				binary.NativeEndian.PutUint16(dst[off+2*x:off+2*x+2], uint16(currLine[x]))
			} else {
				dst[off+x] = byte(currLine[x])
			}
		}
		copy(prevLine, currLine)
	}
	return nil
}

// neighbours returns the reconstructed Ra/Rb/Rc/Rd context of position
// (x, y). Off-image positions take the standard substitutions.
func neighbours(currLine, prevLine []int, x, y, w int) (Ra, Rb, Rc, Rd int) {
	if x > 0 {
		Ra = currLine[x-1]
	} else if y > 0 {
		Ra = prevLine[0]
	}
	if y > 0 {
		Rb = prevLine[x]
		if x > 0 {
			Rc = prevLine[x-1]
		} else {
			Rc = prevLine[0]
		}
		if x < w-1 {
			Rd = prevLine[x+1]
		} else {
			Rd = Rb
		}
	}
	return
}

// unmapError inverts the non-negative error mapping of A.5.3.
func unmapError(mapped uint32) int {
	if mapped%2 == 0 {
		return int(mapped / 2)
	}
	return -int(mapped+1) / 2
}

func (d *Decoder) scanError(err error, line int) error {
	if ce, ok := err.(*codec.Error); ok {
		return ce
	}
	if err == io.EOF {
		return codec.Errorf(codec.CodeStreamEmpty,
			"scan data ended in line %d of %d", line, d.params.Height)
	}
	return codec.Errorf(codec.CodeBlockEmpty, "scan data unreadable in line %d: %v", line, err)
}

// DecodeImage reads a complete JPEG-LS stream and returns the decoded
// image, Gray for precision up to 8 bits and Gray16 above.
func DecodeImage(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	p, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}
	dst := make([]byte, p.FrameSize())
	if err := Decode(data, dst, codec.TransformNone); err != nil {
		return nil, err
	}

	rect := image.Rect(0, 0, int(p.Columns), int(p.Rows))
	if p.BytesPerSample() == 1 {
		return &image.Gray{Pix: dst, Stride: int(p.Columns), Rect: rect}, nil
	}

	img := image.NewGray16(rect)
	for y := 0; y < int(p.Rows); y++ {
		for x := 0; x < int(p.Columns); x++ {
			off := (y*int(p.Columns) + x) * 2
			v := binary.NativeEndian.Uint16(dst[off : off+2])
			img.SetGray16(x, y, color.Gray16{Y: v})
		}
	}
	return img, nil
}
