package jpegsq

import (
	"io"

	"github.com/jpfielding/libjpeg.go/pkg/codec"
)

// huffmanTable holds one Huffman table in canonical form plus an 8-bit
// fast lookup. lookup entries pack size<<8|value; -1 marks codes longer
// than 8 bits, which take the bit-by-bit slow path. Baseline scans use
// four of these: two DC and two AC.
type huffmanTable struct {
	bits   [17]int  // bits[i] = number of codes of length i
	values []byte   // symbol values in code order
	codes  []uint16 // canonical codes, parallel to values
	sizes  []int    // code lengths, parallel to values
	lookup [256]int32
}

// assignCodes derives canonical codes and sizes from bits/values and
// fills the fast lookup table.
func (ht *huffmanTable) assignCodes() {
	total := 0
	for i := 1; i <= 16; i++ {
		total += ht.bits[i]
	}

	ht.codes = make([]uint16, total)
	ht.sizes = make([]int, total)

	k := 0
	for i := 1; i <= 16; i++ {
		for j := 0; j < ht.bits[i]; j++ {
			ht.sizes[k] = i
			k++
		}
	}

	code := uint16(0)
	si := 0
	if total > 0 {
		si = ht.sizes[0]
	}
	for k := 0; k < total; k++ {
		for ht.sizes[k] > si {
			code <<= 1
			si++
		}
		ht.codes[k] = code
		code++
	}

	for i := range ht.lookup {
		ht.lookup[i] = -1
	}
	for k := 0; k < total; k++ {
		size := ht.sizes[k]
		if size > 8 {
			continue
		}
		base := int(ht.codes[k]) << (8 - size)
		span := 1 << (8 - size)
		for j := 0; j < span; j++ {
			ht.lookup[base+j] = int32(size)<<8 | int32(ht.values[k])
		}
	}
}

// decodeHuffman reads one symbol: 8-bit table lookup on the fast path,
// bit-by-bit canonical search beyond 8 bits.
func decodeHuffman(br *bitReader, ht *huffmanTable) (int, error) {
	peek, err := br.peekBits(8)
	if err != nil && err != io.EOF {
		return 0, err
	}
	if entry := ht.lookup[peek&0xFF]; entry >= 0 {
		br.consumeBits(int(entry >> 8))
		return int(entry & 0xFF), nil
	}

	code := 0
	idx := 0
	for size := 1; size <= 16; size++ {
		bit, err := br.readBit()
		if err != nil {
			return 0, err
		}
		code = code<<1 | bit

		for i := 0; i < ht.bits[size]; i++ {
			if ht.codes[idx+i] == uint16(code) {
				return int(ht.values[idx+i]), nil
			}
		}
		idx += ht.bits[size]
	}
	return 0, codec.Errorf(codec.CodeNoHuffmanCode, "no huffman code matches %b after 16 bits", code)
}

// extend converts ssss magnitude bits to a signed coefficient.
func extend(bits, ssss int) int {
	if ssss == 0 {
		return 0
	}
	vt := 1 << (ssss - 1)
	if bits < vt {
		return bits - (1<<ssss - 1)
	}
	return bits
}
