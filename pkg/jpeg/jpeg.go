// Package jpeg is the boundary layer over the codec packages under
// pkg/compress. It answers two questions in dependency order: what are
// the frame parameters of an encoded stream, and what are its decoded
// samples. Buffer sizing is derived from the first answer, so callers
// never guess at allocation sizes.
package jpeg

import (
	"log/slog"

	"github.com/jpfielding/libjpeg.go/pkg/codec"
)

// GetParameters extracts the frame parameters of an encoded stream by
// walking its marker structure. No entropy decoding happens. On any
// failure the zero Parameters value is returned together with a
// *codec.Error describing the failure class.
func GetParameters(data []byte) (codec.Parameters, error) {
	c, err := Detect(data)
	if err != nil {
		return codec.Parameters{}, err
	}
	return c.ReadHeader(data)
}

// Decode extracts the frame parameters of data, allocates a destination
// buffer of exactly FrameSize bytes and decodes into it. The buffer is
// returned even when decoding fails partway, so callers can inspect how
// far the scan got; on a failed header read the buffer is nil and the
// parameters are zero.
func Decode(data []byte, t codec.Transform) ([]byte, codec.Parameters, error) {
	c, err := Detect(data)
	if err != nil {
		return nil, codec.Parameters{}, err
	}
	params, err := c.ReadHeader(data)
	if err != nil {
		return nil, codec.Parameters{}, err
	}

	dst := make([]byte, params.FrameSize())
	if err := c.Decode(data, dst, t); err != nil {
		return dst, params, err
	}
	return dst, params, nil
}

// photometricTransforms maps DICOM photometric interpretation values to
// the transform selector the decoded samples need. Monochrome and
// already-converted YBR data pass through untouched; RGB sources were
// YCbCr-transformed at encode time and need the inverse on the way out.
var photometricTransforms = map[string]codec.Transform{
	"MONOCHROME1":   codec.TransformNone,
	"MONOCHROME2":   codec.TransformNone,
	"PALETTE COLOR": codec.TransformNone,
	"YBR_FULL":      codec.TransformNone,
	"YBR_FULL_422":  codec.TransformNone,
	"RGB":           codec.TransformYCbCr,
}

// DecodePixelData decodes a stream carried in a DICOM pixel data
// element, selecting the colour transform from the photometric
// interpretation. Unknown interpretations log a warning and decode
// without a transform.
func DecodePixelData(data []byte, photometricInterpretation string) ([]byte, codec.Parameters, error) {
	t, ok := photometricTransforms[photometricInterpretation]
	if !ok {
		slog.Warn("unrecognized photometric interpretation, decoding without colour transform",
			"photometricInterpretation", photometricInterpretation)
		t = codec.TransformNone
	}
	return Decode(data, t)
}
