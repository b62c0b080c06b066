// Package jpegli decodes and encodes lossless JPEG (ISO/IEC 10918-1
// process 14, SOF3). The decoder reconstructs 2-16 bit samples for up to
// four interleaved components; the encoder emits single-component
// grayscale streams and exists mainly to produce round-trip fixtures.
package jpegli

// JPEG markers used by the lossless process, as full 16-bit values.
const (
	MarkerSOI  = 0xFFD8
	MarkerEOI  = 0xFFD9
	MarkerSOS  = 0xFFDA
	MarkerDHT  = 0xFFC4
	MarkerDRI  = 0xFFDD
	MarkerSOF3 = 0xFFC3
	MarkerAPP0 = 0xFFE0
	MarkerCOM  = 0xFFFE
)
