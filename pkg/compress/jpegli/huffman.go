package jpegli

// huffmanTable holds one DC Huffman table in canonical form plus an
// 8-bit fast lookup. lookup entries pack size<<8|value; -1 marks codes
// longer than 8 bits, which take the bit-by-bit slow path.
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

// defaultLosslessTable returns a fixed table covering every SSSS
// category 0-16, used by the encoder. The code-length distribution keeps
// the common small categories short.
func defaultLosslessTable() *huffmanTable {
	ht := &huffmanTable{}
	ht.bits = [17]int{0, 0, 1, 5, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0, 0}
	ht.values = []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	ht.assignCodes()
	return ht
}
