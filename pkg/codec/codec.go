package codec

// Codec is the contract between the boundary layer and one of the
// compression packages under pkg/compress. Implementations hold no state
// between calls; every Decode builds a fresh decoder over the input, so
// concurrent calls on disjoint buffers are safe.
type Codec interface {
	// Name returns the codec identifier (e.g. "jpeg-sq").
	Name() string
	// ReadHeader walks the marker structure of data and returns the frame
	// parameters without entropy decoding. On failure the zero Parameters
	// value is returned together with an *Error.
	ReadHeader(data []byte) (Parameters, error)
	// Decode reconstructs pixel samples into dst. len(dst) must equal
	// FrameSize() of the parameters ReadHeader reports for the same data;
	// a mis-sized dst is rejected with CodeParameterOutOfRange. Samples
	// are written row-major with components interleaved, 16-bit samples
	// in host byte order.
	Decode(data, dst []byte, t Transform) error
}

// JPEG frame markers recognized by DetectFrame. The low byte is the
// marker code following 0xFF in the stream.
const (
	MarkerSOF0  = 0xC0 // baseline sequential DCT
	MarkerSOF1  = 0xC1 // extended sequential DCT
	MarkerSOF2  = 0xC2 // progressive DCT
	MarkerSOF3  = 0xC3 // lossless sequential
	MarkerSOF55 = 0xF7 // JPEG-LS
	MarkerDHT   = 0xC4
	MarkerDAC   = 0xCC
	MarkerSOI   = 0xD8
	MarkerEOI   = 0xD9
	MarkerSOS   = 0xDA
)

// isFrameMarker reports whether m is one of the SOFn markers (C0-CF
// excluding DHT/JPG/DAC) or the JPEG-LS SOF55.
func isFrameMarker(m byte) bool {
	if m == MarkerSOF55 {
		return true
	}
	return m >= 0xC0 && m <= 0xCF && m != MarkerDHT && m != 0xC8 && m != MarkerDAC
}

// hasSegmentBody reports whether marker m is followed by a 16-bit length
// and a payload. TEM, RSTn, SOI and EOI stand alone.
func hasSegmentBody(m byte) bool {
	if m == 0x01 || (m >= 0xD0 && m <= 0xD7) {
		return false
	}
	return m != MarkerSOI && m != MarkerEOI
}

// DetectFrame scans the marker structure of data up to the first frame
// header and returns the SOFn marker code together with the offset of its
// segment body. The walk reads lengths only, never scan data, so its cost
// is proportional to the header size.
func DetectFrame(data []byte) (marker byte, offset int, err error) {
	if len(data) == 0 {
		return 0, 0, Errorf(CodeStreamEmpty, "empty stream")
	}
	if len(data) < 2 || data[0] != 0xFF || data[1] != MarkerSOI {
		return 0, 0, Errorf(CodeNotAJPEG, "missing SOI marker")
	}

	pos := 2
	for {
		if pos >= len(data) {
			return 0, 0, Errorf(CodeStreamEmpty, "stream ended before frame header")
		}
		if data[pos] != 0xFF {
			return 0, 0, Errorf(CodeMisplacedMarker, "expected marker at offset %d, found 0x%02X", pos, data[pos])
		}
		// Skip fill bytes.
		for pos < len(data) && data[pos] == 0xFF {
			pos++
		}
		if pos >= len(data) {
			return 0, 0, Errorf(CodeStreamEmpty, "stream ended inside marker")
		}

		m := data[pos]
		pos++

		if isFrameMarker(m) {
			return m, pos, nil
		}
		switch {
		case m == MarkerEOI:
			return 0, 0, Errorf(CodeMisplacedMarker, "EOI before frame header")
		case m == MarkerSOS:
			return 0, 0, Errorf(CodeMisplacedMarker, "SOS before frame header")
		case !hasSegmentBody(m):
			continue
		}

		if pos+2 > len(data) {
			return 0, 0, Errorf(CodeStreamEmpty, "truncated segment length for marker 0x%02X", m)
		}
		length := int(data[pos])<<8 | int(data[pos+1])
		if length < 2 {
			return 0, 0, Errorf(CodeValueOutOfRange, "segment length %d for marker 0x%02X", length, m)
		}
		if pos+length > len(data) {
			return 0, 0, Errorf(CodeStreamEmpty, "segment for marker 0x%02X overruns stream", m)
		}
		pos += length
	}
}

// ReadFrameHeader locates the frame header in data and parses its fixed
// part: precision, dimensions and component count. It is the shared
// parameter-extraction path for every codec; per-codec constraints
// (supported precision, component counts) are checked by the callers.
func ReadFrameHeader(data []byte) (Parameters, byte, error) {
	marker, pos, err := DetectFrame(data)
	if err != nil {
		return Parameters{}, 0, err
	}

	// Segment: length(2) precision(1) height(2) width(2) components(1).
	if pos+8 > len(data) {
		return Parameters{}, 0, Errorf(CodeStreamEmpty, "truncated frame header")
	}
	length := int(data[pos])<<8 | int(data[pos+1])
	precision := data[pos+2]
	rows := uint32(data[pos+3])<<8 | uint32(data[pos+4])
	columns := uint32(data[pos+5])<<8 | uint32(data[pos+6])
	ncomp := data[pos+7]

	if length < 8+3*int(ncomp) || pos+length > len(data) {
		return Parameters{}, 0, Errorf(CodeStreamEmpty, "frame header shorter than %d components require", ncomp)
	}
	if rows == 0 || columns == 0 {
		return Parameters{}, 0, Errorf(CodeValueOutOfRange, "frame dimensions %dx%d", columns, rows)
	}
	if ncomp == 0 {
		return Parameters{}, 0, Errorf(CodeParameterMissing, "frame header declares no components")
	}
	if precision < 2 || precision > 16 {
		return Parameters{}, 0, Errorf(CodeValueOutOfRange, "sample precision %d", precision)
	}

	return Parameters{
		Rows:       rows,
		Columns:    columns,
		Components: ncomp,
		Precision:  precision,
	}, marker, nil
}
