package jpegli

import (
	"github.com/jpfielding/libjpeg.go/pkg/codec"
)

// Name identifies this codec in registries and log output.
const Name = "jpeg-lossless"

// maxComponents is the interleaving limit for a single lossless scan.
const maxComponents = 4

// component describes one frame component as declared by SOF3/SOS.
type component struct {
	id      byte
	dcTable int
}

// decoder holds per-call state for one lossless decode. A fresh decoder
// is built for every call; nothing is shared between calls.
type decoder struct {
	data       []byte
	params     codec.Parameters
	comps      []component
	tables     [4]*huffmanTable
	predictor  int
	pointTrans int
	restart    int
	scanStart  int
}

// ReadHeader extracts frame parameters from a lossless stream without
// entropy decoding.
func ReadHeader(data []byte) (codec.Parameters, error) {
	p, marker, err := codec.ReadFrameHeader(data)
	if err != nil {
		return codec.Parameters{}, err
	}
	if marker != codec.MarkerSOF3 {
		return codec.Parameters{}, codec.Errorf(codec.CodeOperationNotApply, "frame marker 0x%02X is not lossless", marker)
	}
	if p.Components > maxComponents {
		return codec.Parameters{}, codec.Errorf(codec.CodeUnsupportedProfile, "%d components exceed the lossless scan limit", p.Components)
	}
	return p, nil
}

// Decode reconstructs the samples of a lossless stream into dst.
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

	d := &decoder{data: data, params: params}
	if err := d.readSegments(); err != nil {
		return err
	}
	if err := d.decodeScan(dst); err != nil {
		return err
	}
	return d.applyTransform(dst, t)
}

// readSegments walks the marker structure up to the start of entropy
// data, collecting Huffman tables, the restart interval, the component
// layout and the scan parameters.
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
		case codec.MarkerSOF3:
			if sofSeen {
				return codec.Errorf(codec.CodeDuplicateMarker, "second SOF3 marker")
			}
			if err := d.readSOF(body); err != nil {
				return err
			}
			sofSeen = true
		case codec.MarkerDHT:
			if err := d.readDHT(body); err != nil {
				return err
			}
		case 0xDD: // DRI
			if len(body) < 2 {
				return codec.Errorf(codec.CodeStreamEmpty, "truncated DRI segment")
			}
			d.restart = int(body[0])<<8 | int(body[1])
		case codec.MarkerSOS:
			if !sofSeen {
				return codec.Errorf(codec.CodeMisplacedMarker, "SOS before SOF3")
			}
			if err := d.readSOS(body); err != nil {
				return err
			}
			d.scanStart = pos + length
			return nil
		default:
			// APPn, COM and other table segments carry nothing the
			// lossless process needs.
		}
		pos += length
	}
}

// readSOF parses the SOF3 segment body (fixed part already validated by
// ReadHeader; this pass records the component layout).
func (d *decoder) readSOF(body []byte) error {
	if len(body) < 6 {
		return codec.Errorf(codec.CodeStreamEmpty, "truncated SOF3 segment")
	}
	ncomp := int(body[5])
	if len(body) < 6+3*ncomp {
		return codec.Errorf(codec.CodeStreamEmpty, "SOF3 shorter than %d components require", ncomp)
	}
	d.comps = make([]component, ncomp)
	for i := 0; i < ncomp; i++ {
		spec := body[6+3*i : 6+3*i+3]
		if spec[1] != 0x11 {
			return codec.Errorf(codec.CodeUnsupportedProfile,
				"component %d sampling 0x%02X, lossless scans are 1x1 only", spec[0], spec[1])
		}
		d.comps[i] = component{id: spec[0]}
	}
	return nil
}

// readDHT parses one or more Huffman table definitions. Lossless scans
// use DC-class tables only; AC-class definitions are skipped.
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

		if class == 0 {
			ht.assignCodes()
			d.tables[id] = ht
		}
		body = body[17+total:]
	}
	return nil
}

// readSOS parses the scan header: component table bindings, the
// predictor selector (Ss) and the point transform (Al).
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
		sel := int(body[1+2*i+1] >> 4)
		if sel > 3 {
			return codec.Errorf(codec.CodeValueOutOfRange, "DC table selector %d", sel)
		}
		found := false
		for j := range d.comps {
			if d.comps[j].id == id {
				d.comps[j].dcTable = sel
				found = true
				break
			}
		}
		if !found {
			return codec.Errorf(codec.CodeObjectMissing, "scan component %d missing from frame", id)
		}
	}

	tail := body[1+2*ns:]
	d.predictor = int(tail[0])
	d.pointTrans = int(tail[2] & 0x0F)
	if d.predictor > 7 {
		return codec.Errorf(codec.CodeValueOutOfRange, "predictor selector %d", d.predictor)
	}
	if d.pointTrans >= int(d.params.Precision) {
		return codec.Errorf(codec.CodeValueOutOfRange, "point transform %d for %d-bit samples", d.pointTrans, d.params.Precision)
	}

	for i := range d.comps {
		if d.tables[d.comps[i].dcTable] == nil {
			return codec.Errorf(codec.CodeObjectMissing, "huffman table %d was never defined", d.comps[i].dcTable)
		}
	}
	return nil
}
