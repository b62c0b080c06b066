package jpegsq

import (
	"github.com/jpfielding/libjpeg.go/pkg/codec"
)

// upsampleNearest expands a subsampled component plane to at least
// width x height by pixel replication. Sampling factors are powers of
// two, so replication is a pair of shifts.
func upsampleNearest(c *component, width, height int) {
	var xShift, yShift uint
	newWidth := c.width
	newHeight := c.height
	for newWidth < width {
		newWidth <<= 1
		xShift++
	}
	for newHeight < height {
		newHeight <<= 1
		yShift++
	}
	if xShift == 0 && yShift == 0 {
		return
	}

	out := make([]byte, newWidth*newHeight)
	for y := 0; y < newHeight; y++ {
		src := c.pixels[(y>>yShift)*c.stride:]
		row := out[y*newWidth:]
		for x := 0; x < newWidth; x++ {
			row[x] = src[x>>xShift]
		}
	}

	c.width = newWidth
	c.height = newHeight
	c.stride = newWidth
	c.pixels = out
}

// assemble upsamples the component planes to full resolution and writes
// the interleaved result to dst, applying the colour transform.
func (d *decoder) assemble(dst []byte, t codec.Transform) error {
	width := int(d.params.Columns)
	height := int(d.params.Rows)

	for i := range d.comps {
		c := &d.comps[i]
		if c.width < width || c.height < height {
			upsampleNearest(c, width, height)
		}
		if c.width < width || c.height < height {
			return codec.Errorf(codec.CodeObjectFailure,
				"component %d upsampled to %dx%d, need %dx%d", c.id, c.width, c.height, width, height)
		}
	}

	if len(d.comps) == 1 {
		c := &d.comps[0]
		for y := 0; y < height; y++ {
			copy(dst[y*width:(y+1)*width], c.pixels[y*c.stride:y*c.stride+width])
		}
		return nil
	}

	c0, c1, c2 := &d.comps[0], &d.comps[1], &d.comps[2]
	off := 0
	for y := 0; y < height; y++ {
		p0 := c0.pixels[y*c0.stride:]
		p1 := c1.pixels[y*c1.stride:]
		p2 := c2.pixels[y*c2.stride:]
		for x := 0; x < width; x++ {
			dst[off] = p0[x]
			dst[off+1] = p1[x]
			dst[off+2] = p2[x]
			off += 3
		}
	}

	if t == codec.TransformYCbCr {
		inverseYCbCr8(dst)
	}
	return nil
}

// inverseYCbCr8 converts interleaved 8-bit YCbCr triples to RGB in
// place with the usual fixed-point coefficients.
func inverseYCbCr8(pix []byte) {
	for i := 0; i+2 < len(pix); i += 3 {
		y := int32(pix[i]) << 8
		cb := int32(pix[i+1]) - 128
		cr := int32(pix[i+2]) - 128

		pix[i] = clip8((y + 359*cr + 128) >> 8)
		pix[i+1] = clip8((y - 88*cb - 183*cr + 128) >> 8)
		pix[i+2] = clip8((y + 454*cb + 128) >> 8)
	}
}
