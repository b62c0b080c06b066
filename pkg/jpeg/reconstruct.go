package jpeg

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/jpfielding/libjpeg.go/pkg/codec"
)

// Reconstruct decodes the stream at path in and writes the samples to
// path out as a netpbm image: PGM for single-component frames, PPM for
// three-component frames. Samples wider than 8 bits are written
// big-endian per the netpbm format.
func Reconstruct(in, out string, colourspace codec.Transform) (codec.Parameters, error) {
	data, err := os.ReadFile(in)
	if err != nil {
		return codec.Parameters{}, err
	}

	pix, params, err := Decode(data, colourspace)
	if err != nil {
		return params, err
	}

	f, err := os.Create(out)
	if err != nil {
		return params, err
	}
	if err := WriteNetpbm(f, pix, params); err != nil {
		f.Close()
		return params, err
	}
	return params, f.Close()
}

// WriteNetpbm writes a decoded frame buffer to w in binary netpbm form
// (P5 grayscale, P6 colour). len(pix) must equal the FrameSize of p.
func WriteNetpbm(w io.Writer, pix []byte, p codec.Parameters) error {
	px, err := NewPixels(pix, p)
	if err != nil {
		return err
	}

	var magic string
	switch p.Components {
	case 1:
		magic = "P5"
	case 3:
		magic = "P6"
	default:
		return codec.Errorf(codec.CodeUnsupportedProfile, "netpbm output for %d components", p.Components)
	}

	bw := bufio.NewWriter(w)
	maxVal := (1 << p.Precision) - 1
	if _, err := fmt.Fprintf(bw, "%s\n%d %d\n%d\n", magic, p.Columns, p.Rows, maxVal); err != nil {
		return err
	}

	if p.BytesPerSample() == 1 {
		if _, err := bw.Write(pix); err != nil {
			return err
		}
		return bw.Flush()
	}

	// Host-order samples become big-endian on the wire.
	for row := 0; row < int(p.Rows); row++ {
		for _, v := range px.Row(row) {
			if err := bw.WriteByte(byte(v >> 8)); err != nil {
				return err
			}
			if err := bw.WriteByte(byte(v)); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}
