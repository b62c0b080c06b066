package jpeg

import (
	"github.com/jpfielding/libjpeg.go/pkg/codec"
	"github.com/jpfielding/libjpeg.go/pkg/compress/jpegli"
	"github.com/jpfielding/libjpeg.go/pkg/compress/jpegls"
	"github.com/jpfielding/libjpeg.go/pkg/compress/jpegsq"
)

// sqCodec implements codec.Codec for sequential DCT frames.
type sqCodec struct{}

func (sqCodec) Name() string { return jpegsq.Name }

func (sqCodec) ReadHeader(data []byte) (codec.Parameters, error) {
	return jpegsq.ReadHeader(data)
}

func (sqCodec) Decode(data, dst []byte, t codec.Transform) error {
	return jpegsq.Decode(data, dst, t)
}

// liCodec implements codec.Codec for lossless (process 14) frames.
type liCodec struct{}

func (liCodec) Name() string { return jpegli.Name }

func (liCodec) ReadHeader(data []byte) (codec.Parameters, error) {
	return jpegli.ReadHeader(data)
}

func (liCodec) Decode(data, dst []byte, t codec.Transform) error {
	return jpegli.Decode(data, dst, t)
}

// lsCodec implements codec.Codec for JPEG-LS frames.
type lsCodec struct{}

func (lsCodec) Name() string { return jpegls.Name }

func (lsCodec) ReadHeader(data []byte) (codec.Parameters, error) {
	return jpegls.ReadHeader(data)
}

func (lsCodec) Decode(data, dst []byte, t codec.Transform) error {
	return jpegls.Decode(data, dst, t)
}

// codecsByName maps codec names to implementations.
var codecsByName = map[string]codec.Codec{
	jpegsq.Name: sqCodec{},
	jpegli.Name: liCodec{},
	jpegls.Name: lsCodec{},
}

// codecsBySOF maps frame markers to the codec that decodes them.
var codecsBySOF = map[byte]codec.Codec{
	codec.MarkerSOF0:  sqCodec{},
	codec.MarkerSOF1:  sqCodec{},
	codec.MarkerSOF3:  liCodec{},
	codec.MarkerSOF55: lsCodec{},
}

// CodecByName returns the named codec implementation.
func CodecByName(name string) (codec.Codec, bool) {
	c, ok := codecsByName[name]
	return c, ok
}

// Detect inspects the frame marker of data and returns the codec that
// handles it. Progressive DCT frames (SOF2) are recognized but not
// decodable here.
func Detect(data []byte) (codec.Codec, error) {
	marker, _, err := codec.DetectFrame(data)
	if err != nil {
		return nil, err
	}
	if c, ok := codecsBySOF[marker]; ok {
		return c, nil
	}
	if marker == codec.MarkerSOF2 {
		return nil, codec.Errorf(codec.CodeUnsupportedProfile, "progressive DCT frames are unsupported")
	}
	return nil, codec.Errorf(codec.CodeUnsupportedProfile, "no codec handles frame marker 0x%02X", marker)
}
