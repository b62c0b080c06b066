package jpegli

import (
	"encoding/binary"

	"github.com/jpfielding/libjpeg.go/pkg/codec"
)

// Reversible colour transform over interleaved samples. Chroma
// components are carried with a half-range bias so they fit the
// unsigned sample range.

// forwardRCT maps one RGB triple to its reversible Y/Cb/Cr form.
func forwardRCT(r, g, b, bias int) (y, cb, cr int) {
	y = (r + 2*g + b) >> 2
	cb = b - g + bias
	cr = r - g + bias
	return
}

// inverseRCTTriple is the exact inverse of forwardRCT.
func inverseRCTTriple(y, cb, cr, bias int) (r, g, b int) {
	cb -= bias
	cr -= bias
	g = y - ((cb + cr) >> 2)
	r = cr + g
	b = cb + g
	return
}

// inverseRCT rewrites an interleaved three-component frame from
// reversible Y/Cb/Cr to RGB in place.
func inverseRCT(dst []byte, p codec.Parameters) {
	bps := p.BytesPerSample()
	bias := 1 << (int(p.Precision) - 1)
	maxVal := (1 << p.Precision) - 1
	n := int(p.Rows) * int(p.Columns)

	for i := 0; i < n; i++ {
		off := i * 3 * bps
		y := getSample(dst, off, bps)
		cb := getSample(dst, off+bps, bps)
		cr := getSample(dst, off+2*bps, bps)

		r, g, b := inverseRCTTriple(y, cb, cr, bias)

		putSample(dst, off, bps, clampSample(r, maxVal))
		putSample(dst, off+bps, bps, clampSample(g, maxVal))
		putSample(dst, off+2*bps, bps, clampSample(b, maxVal))
	}
}

func getSample(pix []byte, off, bps int) int {
	if bps == 2 {
		return int(binary.NativeEndian.Uint16(pix[off : off+2]))
	}
	return int(pix[off])
}

func putSample(pix []byte, off, bps, val int) {
	if bps == 2 {
		binary.NativeEndian.PutUint16(pix[off:off+2], uint16(val))
		return
	}
	pix[off] = byte(val)
}

func clampSample(v, maxVal int) int {
	if v < 0 {
		return 0
	}
	if v > maxVal {
		return maxVal
	}
	return v
}
