package jpegls_test

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpfielding/libjpeg.go/pkg/codec"
	"github.com/jpfielding/libjpeg.go/pkg/compress/jpegls"
)

func TestRoundTrip16(t *testing.T) {
	width, height := 96, 96

	// Solid regions exercise run mode, the gradient the regular contexts.
	original := image.NewGray16(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var val uint16
			switch {
			case x < 32 && y < 32:
				val = 0
			case x >= 64 && y < 32:
				val = 65535
			default:
				val = uint16((x*651 + y*31) % 65536)
			}
			original.SetGray16(x, y, color.Gray16{Y: val})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, jpegls.Encode(&buf, original, nil))
	t.Logf("encoded %dx%d to %d bytes", width, height, buf.Len())

	decoded, err := jpegls.DecodeImage(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	bounds := decoded.Bounds()
	require.Equal(t, width, bounds.Dx())
	require.Equal(t, height, bounds.Dy())

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, _, _, _ := decoded.At(x, y).RGBA()
			if uint16(r) != original.Gray16At(x, y).Y {
				t.Fatalf("pixel (%d, %d): got %d, want %d", x, y, uint16(r), original.Gray16At(x, y).Y)
			}
		}
	}
}

func TestRoundTrip8(t *testing.T) {
	width, height := 80, 40

	original := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			val := uint8(128)
			if (x/8+y/8)%2 == 0 {
				val = uint8((x + 3*y) % 256)
			}
			original.SetGray(x, y, color.Gray{Y: val})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, jpegls.Encode(&buf, original, nil))

	decoded, err := jpegls.DecodeImage(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	gray, ok := decoded.(*image.Gray)
	require.True(t, ok, "8-bit stream should decode to Gray")
	assert.Equal(t, original.Pix, gray.Pix)
}

func TestRoundTripRowOrder(t *testing.T) {
	// Asymmetric dimensions catch row/column transposition.
	width, height := 100, 50

	original := image.NewGray16(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			original.SetGray16(x, y, color.Gray16{Y: uint16((y*1000 + x) % 65536)})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, jpegls.Encode(&buf, original, nil))

	decoded, err := jpegls.DecodeImage(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	for _, tc := range []struct {
		x, y int
		want uint16
	}{
		{0, 0, 0},
		{99, 0, 99},
		{0, 49, 49000 % 65536},
		{50, 25, (25*1000 + 50) % 65536},
	} {
		r, _, _, _ := decoded.At(tc.x, tc.y).RGBA()
		assert.Equal(t, tc.want, uint16(r), "at (%d, %d)", tc.x, tc.y)
	}
}

func TestDecodeFlat(t *testing.T) {
	width, height := 31, 17

	original := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			original.SetGray(x, y, color.Gray{Y: uint8((x * y) % 256)})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, jpegls.Encode(&buf, original, nil))
	data := buf.Bytes()

	p, err := jpegls.ReadHeader(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(height), p.Rows)
	assert.Equal(t, uint32(width), p.Columns)
	assert.Equal(t, uint8(1), p.Components)
	assert.Equal(t, uint8(8), p.Precision)
	require.Equal(t, width*height, p.FrameSize())

	dst := make([]byte, p.FrameSize())
	require.NoError(t, jpegls.Decode(data, dst, codec.TransformNone))
	assert.Equal(t, original.Pix, dst)

	// A mis-sized destination is rejected before any decoding.
	err = jpegls.Decode(data, make([]byte, p.FrameSize()-1), codec.TransformNone)
	var ce *codec.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, codec.CodeParameterOutOfRange, ce.Code)
}

func TestDecodeFlat16HostOrder(t *testing.T) {
	original := image.NewGray16(image.Rect(0, 0, 4, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			original.SetGray16(x, y, color.Gray16{Y: uint16(0x0100*y + x + 0x1234)})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, jpegls.Encode(&buf, original, nil))

	p, err := jpegls.ReadHeader(buf.Bytes())
	require.NoError(t, err)
	dst := make([]byte, p.FrameSize())
	require.NoError(t, jpegls.Decode(buf.Bytes(), dst, codec.TransformNone))

	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			off := (y*4 + x) * 2
			got := binary.NativeEndian.Uint16(dst[off : off+2])
			assert.Equal(t, original.Gray16At(x, y).Y, got, "sample (%d, %d)", x, y)
		}
	}
}

// entropySegment returns the entropy-coded bytes between the SOS header
// and the trailing EOI marker.
func entropySegment(t *testing.T, data []byte) []byte {
	t.Helper()
	i := bytes.Index(data, []byte{0xFF, 0xDA})
	require.NotEqual(t, -1, i, "no SOS marker")
	length := int(data[i+2])<<8 | int(data[i+3])
	require.Equal(t, []byte{0xFF, 0xD9}, data[len(data)-2:], "no trailing EOI")
	return data[i+2+length : len(data)-2]
}

func TestEntropySegmentMarkerProtection(t *testing.T) {
	// Noisy samples push plenty of 0xFF bytes into the entropy data;
	// every byte following one must have its MSB clear.
	original := image.NewGray(image.Rect(0, 0, 64, 64))
	seed := uint32(1)
	for i := range original.Pix {
		seed = seed*1664525 + 1013904223
		original.Pix[i] = byte(seed >> 24)
	}

	var buf bytes.Buffer
	require.NoError(t, jpegls.Encode(&buf, original, nil))
	data := buf.Bytes()

	for seg, i := entropySegment(t, data), 0; i+1 < len(seg); i++ {
		if seg[i] == 0xFF {
			assert.Less(t, seg[i+1], byte(0x80), "unprotected byte after 0xFF at offset %d", i)
		}
	}

	p, err := jpegls.ReadHeader(data)
	require.NoError(t, err)
	dst := make([]byte, p.FrameSize())
	require.NoError(t, jpegls.Decode(data, dst, codec.TransformNone))
	assert.Equal(t, original.Pix, dst)
}

func TestLineEndingRunBits(t *testing.T) {
	// All-zero lines are single runs to the line end. A line-ending run
	// emits 1 bits for its segments and a lone 1 for a partial tail,
	// never a remainder, and the run-length order carries over to the
	// next line. 7x1 is six 1 bits zero-padded (0xFC); 7x2 is ten 1
	// bits, whose first byte 0xFF forces a stuffed second byte (0x60).
	cases := []struct {
		width, height int
		entropy       []byte
	}{
		{7, 1, []byte{0xFC}},
		{7, 2, []byte{0xFF, 0x60}},
	}
	for _, tc := range cases {
		original := image.NewGray(image.Rect(0, 0, tc.width, tc.height))

		var buf bytes.Buffer
		require.NoError(t, jpegls.Encode(&buf, original, nil))
		data := buf.Bytes()

		assert.Equal(t, tc.entropy, entropySegment(t, data), "%dx%d", tc.width, tc.height)

		p, err := jpegls.ReadHeader(data)
		require.NoError(t, err)
		dst := make([]byte, p.FrameSize())
		require.NoError(t, jpegls.Decode(data, dst, codec.TransformNone))
		assert.Equal(t, original.Pix, dst, "%dx%d", tc.width, tc.height)
	}
}

func TestDecodeTruncated(t *testing.T) {
	original := image.NewGray(image.Rect(0, 0, 64, 64))
	for i := range original.Pix {
		original.Pix[i] = uint8((i * 7) % 256)
	}

	var buf bytes.Buffer
	require.NoError(t, jpegls.Encode(&buf, original, nil))
	data := buf.Bytes()
	require.Greater(t, len(data), 40)

	truncated := data[:len(data)-16]
	p, err := jpegls.ReadHeader(truncated)
	require.NoError(t, err)

	err = jpegls.Decode(truncated, make([]byte, p.FrameSize()), codec.TransformNone)
	var ce *codec.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, codec.CodeStreamEmpty, ce.Code)
}
