// Package jpegls implements the LOCO-I near-lossless compression process
// of ITU-T T.87 / ISO 14495-1 in its lossless configuration: MED
// prediction, context modelling with bias correction, Golomb coding and
// run mode.
package jpegls

import (
	"github.com/jpfielding/libjpeg.go/pkg/codec"
)

// Name identifies this codec in registries and log output.
const Name = "jpeg-ls"

// FrameHeader mirrors the SOF55 segment.
type FrameHeader struct {
	Width      int
	Height     int
	Components int
	Precision  int
}

// ScanHeader mirrors the SOS segment.
type ScanHeader struct {
	Components int
	Near       int // allowed reconstruction error, 0 for lossless
	ILV        int // interleave mode
}

// ReadHeader extracts frame parameters from a JPEG-LS stream without
// entropy decoding.
func ReadHeader(data []byte) (codec.Parameters, error) {
	p, marker, err := codec.ReadFrameHeader(data)
	if err != nil {
		return codec.Parameters{}, err
	}
	if marker != codec.MarkerSOF55 {
		return codec.Parameters{}, codec.Errorf(codec.CodeOperationNotApply, "frame marker 0x%02X is not JPEG-LS", marker)
	}
	if p.Components != 1 {
		return codec.Parameters{}, codec.Errorf(codec.CodeUnsupportedProfile,
			"%d-component JPEG-LS scans are unsupported", p.Components)
	}
	return p, nil
}

// Decode reconstructs the samples of a JPEG-LS stream into dst.
// len(dst) must equal the FrameSize of the parameters ReadHeader
// reports. Single-component frames carry no colour, so the transform
// selector only needs to be within range.
func Decode(data, dst []byte, t codec.Transform) error {
	params, err := ReadHeader(data)
	if err != nil {
		return err
	}
	if len(dst) != params.FrameSize() {
		return codec.Errorf(codec.CodeParameterOutOfRange,
			"destination length %d, frame requires %d", len(dst), params.FrameSize())
	}
	if !t.Known() {
		return codec.Errorf(codec.CodeParameterOutOfRange, "colour transform selector %d", int(t))
	}

	d := &Decoder{}
	return d.decode(data, dst)
}
