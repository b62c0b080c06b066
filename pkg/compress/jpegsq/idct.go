package jpegsq

// Fixed-point AAN inverse DCT. Row passes keep 3 fractional bits, the
// column pass folds in the final descale and level shift.

const (
	w1 = 2841 // 2048*sqrt(2)*cos(1*pi/16)
	w2 = 2676 // 2048*sqrt(2)*cos(2*pi/16)
	w3 = 2408 // 2048*sqrt(2)*cos(3*pi/16)
	w5 = 1609 // 2048*sqrt(2)*cos(5*pi/16)
	w6 = 1108 // 2048*sqrt(2)*cos(6*pi/16)
	w7 = 565  // 2048*sqrt(2)*cos(7*pi/16)
)

// idct transforms one dequantized 8x8 block into out at outOffset with
// the given row stride.
func idct(blk *[64]int32, out []byte, outOffset, stride int) {
	for i := 0; i < 64; i += 8 {
		rowIdct(blk, i)
	}
	for i := 0; i < 8; i++ {
		colIdct(blk, i, out, outOffset+i, stride)
	}
}

func rowIdct(blk *[64]int32, offset int) {
	b := blk[offset : offset+8]

	x1 := b[4] << 11
	x2 := b[6]
	x3 := b[2]
	x4 := b[1]
	x5 := b[7]
	x6 := b[5]
	x7 := b[3]

	if x1|x2|x3|x4|x5|x6|x7 == 0 {
		val := b[0] << 3
		for i := range b {
			b[i] = val
		}
		return
	}

	x0 := (b[0] << 11) + 128

	x8 := w7 * (x4 + x5)
	x4 = x8 + (w1-w7)*x4
	x5 = x8 - (w1+w7)*x5
	x8 = w3 * (x6 + x7)
	x6 = x8 - (w3-w5)*x6
	x7 = x8 - (w3+w5)*x7

	x8 = x0 + x1
	x0 -= x1
	x1 = w6 * (x3 + x2)
	x2 = x1 - (w2+w6)*x2
	x3 = x1 + (w2-w6)*x3

	x1 = x4 + x6
	x4 -= x6
	x6 = x5 + x7
	x5 -= x7

	x7 = x8 + x3
	x8 -= x3
	x3 = x0 + x2
	x0 -= x2

	x2 = (181*(x4+x5) + 128) >> 8
	x4 = (181*(x4-x5) + 128) >> 8

	b[0] = (x7 + x1) >> 8
	b[1] = (x3 + x2) >> 8
	b[2] = (x0 + x4) >> 8
	b[3] = (x8 + x6) >> 8
	b[4] = (x8 - x6) >> 8
	b[5] = (x0 - x4) >> 8
	b[6] = (x3 - x2) >> 8
	b[7] = (x7 - x1) >> 8
}

func colIdct(blk *[64]int32, offset int, out []byte, outOffset, stride int) {
	x1 := blk[offset+8*4] << 8
	x2 := blk[offset+8*6]
	x3 := blk[offset+8*2]
	x4 := blk[offset+8*1]
	x5 := blk[offset+8*7]
	x6 := blk[offset+8*5]
	x7 := blk[offset+8*3]

	if x1|x2|x3|x4|x5|x6|x7 == 0 {
		v := clip8((blk[offset+8*0]+32)>>6 + 128)
		for i := 0; i < 8; i++ {
			out[outOffset+i*stride] = v
		}
		return
	}

	x0 := (blk[offset+8*0] << 8) + 8192

	x8 := w7*(x4+x5) + 4
	x4 = (x8 + (w1-w7)*x4) >> 3
	x5 = (x8 - (w1+w7)*x5) >> 3
	x8 = w3*(x6+x7) + 4
	x6 = (x8 - (w3-w5)*x6) >> 3
	x7 = (x8 - (w3+w5)*x7) >> 3

	x8 = x0 + x1
	x0 -= x1
	x1 = w6*(x3+x2) + 4
	x2 = (x1 - (w2+w6)*x2) >> 3
	x3 = (x1 + (w2-w6)*x3) >> 3

	x1 = x4 + x6
	x4 -= x6
	x6 = x5 + x7
	x5 -= x7

	x7 = x8 + x3
	x8 -= x3
	x3 = x0 + x2
	x0 -= x2

	x2 = (181*(x4+x5) + 128) >> 8
	x4 = (181*(x4-x5) + 128) >> 8

	out[outOffset+0*stride] = clip8((x7+x1)>>14 + 128)
	out[outOffset+1*stride] = clip8((x3+x2)>>14 + 128)
	out[outOffset+2*stride] = clip8((x0+x4)>>14 + 128)
	out[outOffset+3*stride] = clip8((x8+x6)>>14 + 128)
	out[outOffset+4*stride] = clip8((x8-x6)>>14 + 128)
	out[outOffset+5*stride] = clip8((x0-x4)>>14 + 128)
	out[outOffset+6*stride] = clip8((x3-x2)>>14 + 128)
	out[outOffset+7*stride] = clip8((x7-x1)>>14 + 128)
}

func clip8(v int32) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
