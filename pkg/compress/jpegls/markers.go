package jpegls

// JPEG-LS marker assignments (ITU-T T.87).
const (
	MarkerSOI   = 0xFFD8
	MarkerEOI   = 0xFFD9
	MarkerSOS   = 0xFFDA
	MarkerDNL   = 0xFFDC
	MarkerSOF55 = 0xFFF7 // start of JPEG-LS frame
	MarkerLSE   = 0xFFF8 // preset parameters
	MarkerCOM   = 0xFFFE
)
