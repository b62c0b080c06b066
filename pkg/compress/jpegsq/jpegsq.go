// Package jpegsq decodes sequential DCT JPEG streams (SOF0 baseline and
// SOF1 extended, 8-bit precision): Huffman entropy coding, dequantization,
// inverse DCT and chroma upsampling.
package jpegsq

import (
	"github.com/jpfielding/libjpeg.go/pkg/codec"
)

// Name identifies this codec in registries and log output.
const Name = "jpeg-sq"

// component carries one colour component through the decode: layout
// from SOF, table bindings from SOS and its reconstructed sample plane.
type component struct {
	id       byte
	ssX, ssY int

	width, height int
	stride        int

	qtSel, dcSel, acSel int

	dcPred int
	pixels []byte
}

// decoder holds per-call state for one sequential decode.
type decoder struct {
	data   []byte
	params codec.Parameters
	comps  []component

	ssxMax, ssyMax     int
	mbWidth, mbHeight  int
	qtab               [4][64]int32
	qtSeen             [4]bool
	dcTables, acTables [4]*huffmanTable

	restart   int
	scanStart int
	block     [64]int32
}

// zigzag maps the stream order of coefficients to their position in an
// 8x8 block.
var zigzag = [64]int{
	0, 1, 8, 16, 9, 2, 3, 10, 17, 24, 32, 25, 18,
	11, 4, 5, 12, 19, 26, 33, 40, 48, 41, 34, 27, 20, 13, 6, 7, 14, 21, 28, 35,
	42, 49, 56, 57, 50, 43, 36, 29, 22, 15, 23, 30, 37, 44, 51, 58, 59, 52, 45,
	38, 31, 39, 46, 53, 60, 61, 54, 47, 55, 62, 63,
}

// ReadHeader extracts frame parameters from a sequential DCT stream
// without entropy decoding. Extended 12-bit frames parse fine here;
// Decode is where the precision limit applies.
func ReadHeader(data []byte) (codec.Parameters, error) {
	p, marker, err := codec.ReadFrameHeader(data)
	if err != nil {
		return codec.Parameters{}, err
	}
	if marker != codec.MarkerSOF0 && marker != codec.MarkerSOF1 {
		return codec.Parameters{}, codec.Errorf(codec.CodeOperationNotApply, "frame marker 0x%02X is not sequential DCT", marker)
	}
	return p, nil
}

// Decode reconstructs the samples of a sequential DCT stream into dst.
// len(dst) must equal the FrameSize of the parameters ReadHeader reports.
func Decode(data, dst []byte, t codec.Transform) error {
	params, err := ReadHeader(data)
	if err != nil {
		return err
	}
	if len(dst) != params.FrameSize() {
		return codec.Errorf(codec.CodeParameterOutOfRange,
			"destination length %d, frame requires %d", len(dst), params.FrameSize())
	}
	if !t.Known() {
		return codec.Errorf(codec.CodeParameterOutOfRange, "colour transform selector %d", int(t))
	}
	if params.Precision != 8 {
		return codec.Errorf(codec.CodeUnsupportedProfile,
			"%d-bit sequential DCT samples", params.Precision)
	}
	if params.Components != 1 && params.Components != 3 {
		return codec.Errorf(codec.CodeUnsupportedProfile,
			"%d-component sequential scans are unsupported", params.Components)
	}
	if params.Components == 3 && (t == codec.TransformRCT || t == codec.TransformFreeform) {
		return codec.Errorf(codec.CodeUnsupportedProfile,
			"colour transform selector %d for the DCT process", int(t))
	}

	d := &decoder{data: data, params: params}
	if err := d.readSegments(); err != nil {
		return err
	}
	if err := d.decodeScan(); err != nil {
		return err
	}
	return d.assemble(dst, t)
}

// readSegments walks the marker structure up to the start of entropy
// data. APPn segments (JFIF, EXIF, the JPEG XT extension boxes in APP11)
// carry nothing the base layer needs and are skipped.
func (d *decoder) readSegments() error {
	pos := 2 // past SOI, validated by ReadHeader
	sofSeen := false

	for {
		if pos+2 > len(d.data) {
			return codec.Errorf(codec.CodeStreamEmpty, "stream ended before SOS")
		}
		if d.data[pos] != 0xFF {
			return codec.Errorf(codec.CodeMisplacedMarker, "expected marker at offset %d", pos)
		}
		for pos < len(d.data) && d.data[pos] == 0xFF {
			pos++
		}
		if pos >= len(d.data) {
			return codec.Errorf(codec.CodeStreamEmpty, "stream ended inside marker")
		}
		marker := d.data[pos]
		pos++

		if marker == codec.MarkerEOI {
			return codec.Errorf(codec.CodeMisplacedMarker, "EOI before scan data")
		}

		if pos+2 > len(d.data) {
			return codec.Errorf(codec.CodeStreamEmpty, "truncated segment length")
		}
		length := int(d.data[pos])<<8 | int(d.data[pos+1])
		if length < 2 || pos+length > len(d.data) {
			return codec.Errorf(codec.CodeStreamEmpty, "segment 0x%02X overruns stream", marker)
		}
		body := d.data[pos+2 : pos+length]

		switch marker {
		case codec.MarkerSOF0, codec.MarkerSOF1:
			if sofSeen {
				return codec.Errorf(codec.CodeDuplicateMarker, "second frame marker")
			}
			if err := d.readSOF(body); err != nil {
				return err
			}
			sofSeen = true
		case codec.MarkerDHT:
			if err := d.readDHT(body); err != nil {
				return err
			}
		case 0xDB: // DQT
			if err := d.readDQT(body); err != nil {
				return err
			}
		case 0xDD: // DRI
			if len(body) < 2 {
				return codec.Errorf(codec.CodeStreamEmpty, "truncated DRI segment")
			}
			d.restart = int(body[0])<<8 | int(body[1])
		case codec.MarkerSOS:
			if !sofSeen {
				return codec.Errorf(codec.CodeMisplacedMarker, "SOS before frame header")
			}
			if err := d.readSOS(body); err != nil {
				return err
			}
			d.scanStart = pos + length
			return nil
		}
		pos += length
	}
}

// readSOF records the component layout and sizes the sample planes.
func (d *decoder) readSOF(body []byte) error {
	if len(body) < 6 {
		return codec.Errorf(codec.CodeStreamEmpty, "truncated frame header")
	}
	ncomp := int(body[5])
	if len(body) < 6+3*ncomp {
		return codec.Errorf(codec.CodeStreamEmpty, "frame header shorter than %d components require", ncomp)
	}

	d.comps = make([]component, ncomp)
	for i := 0; i < ncomp; i++ {
		spec := body[6+3*i : 6+3*i+3]
		c := &d.comps[i]
		c.id = spec[0]
		c.ssX = int(spec[1] >> 4)
		c.ssY = int(spec[1] & 0x0F)
		c.qtSel = int(spec[2])

		if c.ssX == 0 || c.ssX > 4 || c.ssX&(c.ssX-1) != 0 ||
			c.ssY == 0 || c.ssY > 4 || c.ssY&(c.ssY-1) != 0 {
			return codec.Errorf(codec.CodeUnsupportedProfile,
				"component %d sampling %dx%d", c.id, c.ssX, c.ssY)
		}
		if c.qtSel > 3 {
			return codec.Errorf(codec.CodeValueOutOfRange, "quantization table selector %d", c.qtSel)
		}
		if c.ssX > d.ssxMax {
			d.ssxMax = c.ssX
		}
		if c.ssY > d.ssyMax {
			d.ssyMax = c.ssY
		}
	}
	if ncomp == 1 {
		d.comps[0].ssX, d.comps[0].ssY = 1, 1
		d.ssxMax, d.ssyMax = 1, 1
	}

	width := int(d.params.Columns)
	height := int(d.params.Rows)
	mbSizeX := d.ssxMax << 3
	mbSizeY := d.ssyMax << 3
	d.mbWidth = (width + mbSizeX - 1) / mbSizeX
	d.mbHeight = (height + mbSizeY - 1) / mbSizeY

	for i := range d.comps {
		c := &d.comps[i]
		c.width = (width*c.ssX + d.ssxMax - 1) / d.ssxMax
		c.height = (height*c.ssY + d.ssyMax - 1) / d.ssyMax
		c.stride = d.mbWidth * c.ssX << 3
		c.pixels = make([]byte, c.stride*d.mbHeight*c.ssY<<3)
	}
	return nil
}

// readDHT parses one or more Huffman table definitions, DC and AC
// classes alike.
func (d *decoder) readDHT(body []byte) error {
	for len(body) > 0 {
		if len(body) < 17 {
			return codec.Errorf(codec.CodeStreamEmpty, "truncated DHT segment")
		}
		class := body[0] >> 4
		id := int(body[0] & 0x0F)
		if class > 1 || id > 3 {
			return codec.Errorf(codec.CodeValueOutOfRange, "huffman table class %d id %d", class, id)
		}

		ht := &huffmanTable{}
		total := 0
		for i := 1; i <= 16; i++ {
			ht.bits[i] = int(body[i])
			total += ht.bits[i]
		}
		if total > 256 || len(body) < 17+total {
			return codec.Errorf(codec.CodeStreamEmpty, "DHT values overrun segment")
		}
		ht.values = append([]byte(nil), body[17:17+total]...)
		ht.assignCodes()

		if class == 0 {
			d.dcTables[id] = ht
		} else {
			d.acTables[id] = ht
		}
		body = body[17+total:]
	}
	return nil
}

// readDQT parses quantization tables, stored in zigzag order the way
// the coefficients arrive. 16-bit tables (Pq=1) parse for completeness
// even though 12-bit frames are rejected at Decode.
func (d *decoder) readDQT(body []byte) error {
	for len(body) > 0 {
		pq := body[0] >> 4
		id := int(body[0] & 0x0F)
		if pq > 1 || id > 3 {
			return codec.Errorf(codec.CodeValueOutOfRange, "quantization table precision %d id %d", pq, id)
		}

		if pq == 0 {
			if len(body) < 65 {
				return codec.Errorf(codec.CodeStreamEmpty, "truncated DQT segment")
			}
			for j := 0; j < 64; j++ {
				d.qtab[id][j] = int32(body[1+j])
			}
			body = body[65:]
		} else {
			if len(body) < 129 {
				return codec.Errorf(codec.CodeStreamEmpty, "truncated DQT segment")
			}
			for j := 0; j < 64; j++ {
				d.qtab[id][j] = int32(body[1+2*j])<<8 | int32(body[2+2*j])
			}
			body = body[129:]
		}
		d.qtSeen[id] = true
	}
	return nil
}

// readSOS binds the scan components to their entropy tables and checks
// the spectral selection bytes for the sequential process.
func (d *decoder) readSOS(body []byte) error {
	if len(body) < 1 {
		return codec.Errorf(codec.CodeStreamEmpty, "truncated SOS segment")
	}
	ns := int(body[0])
	if ns != len(d.comps) {
		return codec.Errorf(codec.CodeUnsupportedProfile,
			"scan holds %d of %d components, partial scans are unsupported", ns, len(d.comps))
	}
	if len(body) < 1+2*ns+3 {
		return codec.Errorf(codec.CodeStreamEmpty, "SOS shorter than %d components require", ns)
	}

	for i := 0; i < ns; i++ {
		id := body[1+2*i]
		sel := body[1+2*i+1]
		found := false
		for j := range d.comps {
			if d.comps[j].id == id {
				d.comps[j].dcSel = int(sel >> 4)
				d.comps[j].acSel = int(sel & 0x0F)
				if d.comps[j].dcSel > 3 || d.comps[j].acSel > 3 {
					return codec.Errorf(codec.CodeValueOutOfRange, "huffman table selector 0x%02X", sel)
				}
				found = true
				break
			}
		}
		if !found {
			return codec.Errorf(codec.CodeObjectMissing, "scan component %d missing from frame", id)
		}
	}

	tail := body[1+2*ns:]
	if tail[0] != 0 || tail[1] != 63 || tail[2] != 0 {
		return codec.Errorf(codec.CodeUnsupportedProfile,
			"spectral selection %d..%d/%d is not sequential", tail[0], tail[1], tail[2])
	}

	for i := range d.comps {
		c := &d.comps[i]
		if d.dcTables[c.dcSel] == nil || d.acTables[c.acSel] == nil {
			return codec.Errorf(codec.CodeObjectMissing, "huffman tables %d/%d were never defined", c.dcSel, c.acSel)
		}
		if !d.qtSeen[c.qtSel] {
			return codec.Errorf(codec.CodeObjectMissing, "quantization table %d was never defined", c.qtSel)
		}
	}
	return nil
}
