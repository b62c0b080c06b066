package jpegsq_test

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpfielding/libjpeg.go/pkg/codec"
	"github.com/jpfielding/libjpeg.go/pkg/compress/jpegsq"
)

// The fixtures come from the standard library encoder, the reference
// values from its decoder. The two IDCT implementations round
// differently, so sample comparisons allow a small tolerance.
const tolerance = 2

func encodeGray(t *testing.T, img *image.Gray, quality int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}))
	return buf.Bytes()
}

func encodeRGBA(t *testing.T, img *image.RGBA, quality int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}))
	return buf.Bytes()
}

func within(a, b byte, d int) bool {
	diff := int(a) - int(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= d
}

func TestDecodeGray(t *testing.T) {
	// Dimensions off the MCU grid exercise the partial edge blocks.
	width, height := 37, 23
	src := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			src.SetGray(x, y, color.Gray{Y: uint8((x*7 + y*11) % 256)})
		}
	}
	data := encodeGray(t, src, 90)

	p, err := jpegsq.ReadHeader(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(height), p.Rows)
	assert.Equal(t, uint32(width), p.Columns)
	assert.Equal(t, uint8(1), p.Components)
	assert.Equal(t, uint8(8), p.Precision)

	dst := make([]byte, p.FrameSize())
	require.NoError(t, jpegsq.Decode(data, dst, codec.TransformNone))

	ref, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	refGray, ok := ref.(*image.Gray)
	require.True(t, ok)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			got := dst[y*width+x]
			want := refGray.GrayAt(x, y).Y
			if !within(got, want, tolerance) {
				t.Fatalf("sample (%d, %d): got %d, want %d", x, y, got, want)
			}
		}
	}
}

func TestDecodeColor420(t *testing.T) {
	width, height := 64, 48
	src := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			src.SetRGBA(x, y, color.RGBA{
				R: uint8(x * 4),
				G: uint8(y * 5),
				B: uint8(255 - x*2),
				A: 255,
			})
		}
	}
	data := encodeRGBA(t, src, 85)

	p, err := jpegsq.ReadHeader(data)
	require.NoError(t, err)
	require.Equal(t, uint8(3), p.Components)

	// Selector 0 leaves the upsampled YCbCr planes untouched; compare
	// them against the reference decoder's planes.
	dst := make([]byte, p.FrameSize())
	require.NoError(t, jpegsq.Decode(data, dst, codec.TransformNone))

	ref, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	refYCC, ok := ref.(*image.YCbCr)
	require.True(t, ok)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			off := (y*width + x) * 3
			want := refYCC.YCbCrAt(x, y)
			if !within(dst[off], want.Y, tolerance) ||
				!within(dst[off+1], want.Cb, tolerance) ||
				!within(dst[off+2], want.Cr, tolerance) {
				t.Fatalf("sample (%d, %d): got %v, want %v", x, y, dst[off:off+3], want)
			}
		}
	}
}

func TestTransformSelectorChangesOutput(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			src.SetRGBA(x, y, color.RGBA{R: 220, G: 40, B: 40, A: 255})
		}
	}
	data := encodeRGBA(t, src, 90)

	p, err := jpegsq.ReadHeader(data)
	require.NoError(t, err)

	raw := make([]byte, p.FrameSize())
	require.NoError(t, jpegsq.Decode(data, raw, codec.TransformNone))
	rgb := make([]byte, p.FrameSize())
	require.NoError(t, jpegsq.Decode(data, rgb, codec.TransformYCbCr))

	assert.NotEqual(t, raw, rgb, "selector 1 must produce different samples than selector 0")

	// With the transform applied the first pixel is close to the source red.
	assert.Greater(t, int(rgb[0]), 180)
	assert.Less(t, int(rgb[1]), 100)
	assert.Less(t, int(rgb[2]), 100)
}

func TestDecodeRejectsUnsupportedTransforms(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	data := encodeRGBA(t, src, 90)

	p, err := jpegsq.ReadHeader(data)
	require.NoError(t, err)
	dst := make([]byte, p.FrameSize())

	for _, sel := range []codec.Transform{codec.TransformRCT, codec.TransformFreeform} {
		err := jpegsq.Decode(data, dst, sel)
		var ce *codec.Error
		require.ErrorAs(t, err, &ce, "selector %d", int(sel))
		assert.Equal(t, codec.CodeUnsupportedProfile, ce.Code)
	}
}

func TestDecodeWrongBufferSize(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 8, 8))
	data := encodeGray(t, src, 90)

	p, err := jpegsq.ReadHeader(data)
	require.NoError(t, err)

	err = jpegsq.Decode(data, make([]byte, p.FrameSize()+1), codec.TransformNone)
	var ce *codec.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, codec.CodeParameterOutOfRange, ce.Code)
}

func TestDecodeTruncated(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 64, 64))
	for i := range src.Pix {
		src.Pix[i] = uint8((i * 13) % 256)
	}
	data := encodeGray(t, src, 90)

	truncated := data[:len(data)/2]
	p, err := jpegsq.ReadHeader(truncated)
	if err != nil {
		// The cut may have landed inside the header; shrink less.
		truncated = data[:len(data)-len(data)/4]
		p, err = jpegsq.ReadHeader(truncated)
	}
	require.NoError(t, err)

	err = jpegsq.Decode(truncated, make([]byte, p.FrameSize()), codec.TransformNone)
	var ce *codec.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, codec.CodeStreamEmpty, ce.Code)
}

func TestDecodeRejects12Bit(t *testing.T) {
	// Hand-built SOF1 header declaring 12-bit samples. The precision
	// check fires before any scan data is needed.
	data := []byte{
		0xFF, 0xD8, // SOI
		0xFF, 0xC1, 0x00, 0x0B, // SOF1, length 11
		12,         // precision
		0x00, 0x01, // height 1
		0x00, 0x01, // width 1
		1,                // one component
		0x01, 0x11, 0x00, // id 1, 1x1, qt 0
	}

	p, err := jpegsq.ReadHeader(data)
	require.NoError(t, err)
	require.Equal(t, uint8(12), p.Precision)
	require.Equal(t, 2, p.FrameSize())

	err = jpegsq.Decode(data, make([]byte, 2), codec.TransformNone)
	var ce *codec.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, codec.CodeUnsupportedProfile, ce.Code)
}
