package jpegli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpfielding/libjpeg.go/pkg/codec"
)

// writeCategory emits the Huffman code for a difference's SSSS category
// followed by its magnitude bits.
func writeCategory(t *testing.T, bw *bitWriter, ht *huffmanTable, diff int) {
	t.Helper()
	ssss := categorize(diff)
	found := false
	for i, val := range ht.values {
		if int(val) == ssss {
			bw.writeBits(int(ht.codes[i]), ht.sizes[i])
			found = true
			break
		}
	}
	require.True(t, found, "category %d", ssss)
	if ssss > 0 {
		if diff < 0 {
			diff += (1 << ssss) - 1
		}
		bw.writeBits(diff, ssss)
	}
}

func TestRestartResetsPrediction(t *testing.T) {
	ht := defaultLosslessTable()

	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xD8})
	// SOF3: 8-bit, 1 row, 2 columns, one component.
	buf.Write([]byte{0xFF, 0xC3, 0x00, 0x0B, 8, 0x00, 0x01, 0x00, 0x02, 1, 0x01, 0x11, 0x00})
	// DHT: DC class, table 0.
	length := 2 + 1 + 16 + len(ht.values)
	buf.Write([]byte{0xFF, 0xC4, byte(length >> 8), byte(length), 0x00})
	for i := 1; i <= 16; i++ {
		buf.WriteByte(byte(ht.bits[i]))
	}
	buf.Write(ht.values)
	// DRI: restart after every sample.
	buf.Write([]byte{0xFF, 0xDD, 0x00, 0x04, 0x00, 0x01})
	// SOS: predictor 1, no point transform.
	buf.Write([]byte{0xFF, 0xDA, 0x00, 0x08, 1, 0x01, 0x00, 1, 0x00, 0x00})

	bw := newBitWriter(&buf)
	writeCategory(t, bw, ht, 200-128)
	require.NoError(t, bw.flush())
	buf.Write([]byte{0xFF, 0xD0})
	// The sample after the restart is coded against the half-range
	// default prediction, not its left neighbour.
	writeCategory(t, bw, ht, 50-128)
	require.NoError(t, bw.flush())
	buf.Write([]byte{0xFF, 0xD9})

	dst := make([]byte, 2)
	require.NoError(t, Decode(buf.Bytes(), dst, codec.TransformNone))
	assert.Equal(t, []byte{200, 50}, dst)
}
