package codec

// Parameters describes an encoded image as recovered from its frame header.
// A successful header read populates every field with a strictly positive
// value; on failure the zero value is returned so callers never see a
// partially filled record.
type Parameters struct {
	Rows       uint32 // image height in pixels
	Columns    uint32 // image width in pixels
	Components uint8  // samples per pixel (1=grayscale, 3=colour)
	Precision  uint8  // bits per sample (2-16)
}

// Valid reports whether all four fields are populated.
func (p Parameters) Valid() bool {
	return p.Rows > 0 && p.Columns > 0 && p.Components > 0 && p.Precision > 0
}

// BytesPerSample returns the storage width of one sample: 1 byte for
// precision up to 8 bits, 2 bytes for 9-16 bits.
func (p Parameters) BytesPerSample() int {
	return (int(p.Precision) + 7) / 8
}

// FrameSize returns the exact byte length of a decoded frame:
// rows * columns * components * bytes-per-sample. Destination buffers
// passed to Codec.Decode must have exactly this length.
func (p Parameters) FrameSize() int {
	return int(p.Rows) * int(p.Columns) * int(p.Components) * p.BytesPerSample()
}

// Transform selects the colour transform applied while reconstructing
// multi-component samples. It has no effect on buffer sizing and is a
// no-op for single-component images.
type Transform int

const (
	// TransformNone leaves decoded components untouched.
	TransformNone Transform = 0
	// TransformYCbCr converts YCbCr components to RGB.
	TransformYCbCr Transform = 1
	// TransformRCT applies the inverse reversible colour transform.
	TransformRCT Transform = 2
	// TransformLSRCT is the historical JPEG-LS alias for TransformRCT.
	TransformLSRCT Transform = 2
	// TransformFreeform selects a caller-defined transform. No codec in
	// this repository implements one; decoding with it fails with an
	// unsupported-profile error.
	TransformFreeform Transform = 3
)

// Known reports whether t is one of the recognized selector values.
func (t Transform) Known() bool {
	return t >= TransformNone && t <= TransformFreeform
}
