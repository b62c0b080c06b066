package jpeg

import (
	"encoding/binary"

	"github.com/jpfielding/libjpeg.go/pkg/codec"
)

// Pixels is a shaped view over a decoded frame buffer. The underlying
// bytes are row-major with components interleaved; samples wider than
// 8 bits occupy two bytes in host order. The view owns no data and
// performs no copies.
type Pixels struct {
	data   []byte
	params codec.Parameters
}

// NewPixels wraps a decoded buffer. The buffer length must equal the
// FrameSize of the parameters it was decoded with.
func NewPixels(data []byte, p codec.Parameters) (*Pixels, error) {
	if len(data) != p.FrameSize() {
		return nil, codec.Errorf(codec.CodeParameterOutOfRange,
			"buffer length %d, parameters describe %d bytes", len(data), p.FrameSize())
	}
	return &Pixels{data: data, params: p}, nil
}

// Params returns the frame parameters the view was built with.
func (px *Pixels) Params() codec.Parameters { return px.params }

// Bytes returns the flat underlying buffer.
func (px *Pixels) Bytes() []byte { return px.data }

// At returns the sample at (row, col) for component comp as an
// unsigned value. Indices out of shape panic, matching slice semantics.
func (px *Pixels) At(row, col, comp int) int {
	if row < 0 || row >= int(px.params.Rows) ||
		col < 0 || col >= int(px.params.Columns) ||
		comp < 0 || comp >= int(px.params.Components) {
		panic("pixel index out of shape")
	}
	off := ((row*int(px.params.Columns)+col)*int(px.params.Components) + comp) * px.params.BytesPerSample()
	if px.params.BytesPerSample() == 2 {
		return int(binary.NativeEndian.Uint16(px.data[off : off+2]))
	}
	return int(px.data[off])
}

// Row returns the samples of one image row, components interleaved.
func (px *Pixels) Row(row int) []int {
	cols := int(px.params.Columns)
	ncomp := int(px.params.Components)
	out := make([]int, cols*ncomp)
	for col := 0; col < cols; col++ {
		for c := 0; c < ncomp; c++ {
			out[col*ncomp+c] = px.At(row, col, c)
		}
	}
	return out
}
