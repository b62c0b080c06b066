package jpeg_test

import (
	"bytes"
	"image"
	"image/color"
	stdjpeg "image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpfielding/libjpeg.go/pkg/codec"
	"github.com/jpfielding/libjpeg.go/pkg/compress/jpegli"
	"github.com/jpfielding/libjpeg.go/pkg/compress/jpegls"
	"github.com/jpfielding/libjpeg.go/pkg/jpeg"
)

func losslessGray(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x*31 + y*7) % 256)})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpegli.Encode(&buf, img, nil))
	return buf.Bytes()
}

func baselineColor(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 8), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, stdjpeg.Encode(&buf, img, &stdjpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func TestGetParametersSuccess(t *testing.T) {
	p, err := jpeg.GetParameters(losslessGray(t, 2, 2))
	require.NoError(t, err)
	assert.True(t, p.Valid())
	assert.Equal(t, codec.Parameters{Rows: 2, Columns: 2, Components: 1, Precision: 8}, p)
	assert.Equal(t, 4, p.FrameSize())
}

func TestGetParametersFailureZeroValue(t *testing.T) {
	cases := map[string][]byte{
		"empty":     nil,
		"not jpeg":  []byte("definitely not a jpeg stream"),
		"soi only":  {0xFF, 0xD8},
		"truncated": losslessGray(t, 8, 8)[:9],
	}
	for name, data := range cases {
		p, err := jpeg.GetParameters(data)
		var ce *codec.Error
		require.ErrorAs(t, err, &ce, name)
		assert.Negative(t, ce.Code, name)
		assert.Equal(t, codec.Parameters{}, p, name)
	}
}

func TestGetParametersIdempotent(t *testing.T) {
	data := losslessGray(t, 5, 3)
	first, err := jpeg.GetParameters(data)
	require.NoError(t, err)
	second, err := jpeg.GetParameters(data)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDecodeRoundTrip2x2(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	img.Pix = []byte{10, 20, 30, 40}

	var buf bytes.Buffer
	require.NoError(t, jpegli.Encode(&buf, img, nil))

	pix, p, err := jpeg.Decode(buf.Bytes(), codec.TransformNone)
	require.NoError(t, err)
	assert.Equal(t, codec.Parameters{Rows: 2, Columns: 2, Components: 1, Precision: 8}, p)
	assert.Equal(t, []byte{10, 20, 30, 40}, pix)
}

func TestDecode16BitDoublesBuffer(t *testing.T) {
	width, height := 7, 5
	data8 := losslessGray(t, width, height)

	img16 := image.NewGray16(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img16.SetGray16(x, y, color.Gray16{Y: uint16(x*1000 + y)})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpegli.Encode(&buf, img16, nil))

	pix8, p8, err := jpeg.Decode(data8, codec.TransformNone)
	require.NoError(t, err)
	pix16, p16, err := jpeg.Decode(buf.Bytes(), codec.TransformNone)
	require.NoError(t, err)

	assert.Equal(t, uint8(8), p8.Precision)
	assert.Equal(t, uint8(16), p16.Precision)
	assert.Equal(t, 2*len(pix8), len(pix16))
}

func TestDecodeSelectorChangesBytes(t *testing.T) {
	data := baselineColor(t, 32, 32)

	raw, pRaw, err := jpeg.Decode(data, codec.TransformNone)
	require.NoError(t, err)
	rgb, pRGB, err := jpeg.Decode(data, codec.TransformYCbCr)
	require.NoError(t, err)

	assert.Equal(t, pRaw, pRGB)
	assert.Equal(t, uint8(3), pRaw.Components)
	assert.NotEqual(t, raw, rgb)
}

func TestDecodeFailureKeepsBuffer(t *testing.T) {
	data := losslessGray(t, 64, 64)
	truncated := data[:len(data)-len(data)/3]

	pix, p, err := jpeg.Decode(truncated, codec.TransformNone)
	var ce *codec.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, codec.CodeStreamEmpty, ce.Code)
	assert.True(t, p.Valid())
	assert.Len(t, pix, p.FrameSize())
}

func TestDecodeNoPanicOnGarbage(t *testing.T) {
	inputs := [][]byte{
		nil,
		{0xFF},
		{0xFF, 0xD8},
		{0xFF, 0xD8, 0xFF, 0xC3},
		bytes.Repeat([]byte{0xFF, 0x00}, 64),
	}
	for i, data := range inputs {
		pix, p, err := jpeg.Decode(data, codec.TransformNone)
		require.Error(t, err, "input %d", i)
		assert.Nil(t, pix, "input %d", i)
		assert.Equal(t, codec.Parameters{}, p, "input %d", i)
	}
}

func TestDetectProgressiveUnsupported(t *testing.T) {
	// A minimal SOF2 frame header.
	data := []byte{
		0xFF, 0xD8,
		0xFF, 0xC2, 0x00, 0x0B,
		8,
		0x00, 0x08,
		0x00, 0x08,
		1,
		0x01, 0x11, 0x00,
	}
	_, err := jpeg.Detect(data)
	var ce *codec.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, codec.CodeUnsupportedProfile, ce.Code)
}

func TestDetectNotAJPEG(t *testing.T) {
	_, err := jpeg.Detect([]byte{0x89, 0x50, 0x4E, 0x47})
	var ce *codec.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, codec.CodeNotAJPEG, ce.Code)
}

func TestDecodeJPEGLSThroughBoundary(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 19, 11))
	for y := 0; y < 11; y++ {
		for x := 0; x < 19; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x + y*19) % 256)})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpegls.Encode(&buf, img, nil))

	pix, p, err := jpeg.Decode(buf.Bytes(), codec.TransformNone)
	require.NoError(t, err)
	assert.Equal(t, codec.Parameters{Rows: 11, Columns: 19, Components: 1, Precision: 8}, p)
	assert.Equal(t, img.Pix, pix)
}

func TestDecodePixelData(t *testing.T) {
	data := baselineColor(t, 16, 16)

	rgb, _, err := jpeg.DecodePixelData(data, "RGB")
	require.NoError(t, err)
	raw, _, err := jpeg.DecodePixelData(data, "YBR_FULL")
	require.NoError(t, err)
	assert.NotEqual(t, raw, rgb)

	// Unknown interpretations fall back to no transform.
	fallback, _, err := jpeg.DecodePixelData(data, "SOMETHING_ELSE")
	require.NoError(t, err)
	assert.Equal(t, raw, fallback)

	mono, _, err := jpeg.DecodePixelData(losslessGray(t, 4, 4), "MONOCHROME2")
	require.NoError(t, err)
	assert.Len(t, mono, 16)
}

func TestCodecByName(t *testing.T) {
	for _, name := range []string{"jpeg-sq", "jpeg-lossless", "jpeg-ls"} {
		c, ok := jpeg.CodecByName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, c.Name())
	}
	_, ok := jpeg.CodecByName("jpeg-2000")
	assert.False(t, ok)
}

func TestPixelsView(t *testing.T) {
	data := losslessGray(t, 6, 4)
	pix, p, err := jpeg.Decode(data, codec.TransformNone)
	require.NoError(t, err)

	px, err := jpeg.NewPixels(pix, p)
	require.NoError(t, err)
	assert.Equal(t, int(pix[0]), px.At(0, 0, 0))
	assert.Equal(t, int(pix[2*6+3]), px.At(2, 3, 0))
	assert.Len(t, px.Row(1), 6)

	_, err = jpeg.NewPixels(pix[:len(pix)-1], p)
	var ce *codec.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, codec.CodeParameterOutOfRange, ce.Code)
}

func TestReconstructPGM(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.jpg")
	out := filepath.Join(dir, "out.pgm")
	require.NoError(t, os.WriteFile(in, losslessGray(t, 8, 6), 0o644))

	p, err := jpeg.Reconstruct(in, out, codec.TransformNone)
	require.NoError(t, err)
	assert.Equal(t, uint32(6), p.Rows)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(got, []byte("P5\n8 6\n255\n")))
	assert.Len(t, got, len("P5\n8 6\n255\n")+8*6)
}

func TestReconstructPPM(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.jpg")
	out := filepath.Join(dir, "out.ppm")
	require.NoError(t, os.WriteFile(in, baselineColor(t, 8, 8), 0o644))

	_, err := jpeg.Reconstruct(in, out, codec.TransformYCbCr)
	require.NoError(t, err)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(got, []byte("P6\n8 8\n255\n")))
	assert.Len(t, got, len("P6\n8 8\n255\n")+8*8*3)
}
