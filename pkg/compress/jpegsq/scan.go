package jpegsq

import (
	"bytes"
	"io"

	"github.com/jpfielding/libjpeg.go/pkg/codec"
)

// decodeScan entropy-decodes every MCU of the scan into the component
// sample planes.
func (d *decoder) decodeScan() error {
	br := newBitReader(bytes.NewReader(d.data[d.scanStart:]))

	mcu := 0
	for mby := 0; mby < d.mbHeight; mby++ {
		for mbx := 0; mbx < d.mbWidth; mbx++ {
			if d.restart > 0 && mcu > 0 && mcu%d.restart == 0 {
				br.consumeRestart()
				for i := range d.comps {
					d.comps[i].dcPred = 0
				}
			}

			for i := range d.comps {
				c := &d.comps[i]
				for sby := 0; sby < c.ssY; sby++ {
					for sbx := 0; sbx < c.ssX; sbx++ {
						offset := ((mby*c.ssY+sby)*c.stride + mbx*c.ssX + sbx) << 3
						if err := d.decodeBlock(br, c, offset); err != nil {
							return scanError(err, mcu, d.mbWidth*d.mbHeight)
						}
					}
				}
			}
			mcu++
		}
	}
	return nil
}

// decodeBlock decodes one 8x8 block: DC difference, AC run-lengths,
// dequantization and the inverse DCT into the component plane.
func (d *decoder) decodeBlock(br *bitReader, c *component, outOffset int) error {
	d.block = [64]int32{}
	qt := &d.qtab[c.qtSel]

	ssss, err := decodeHuffman(br, d.dcTables[c.dcSel])
	if err != nil {
		return err
	}
	if ssss > 11 {
		return codec.Errorf(codec.CodeValueOutOfRange, "DC category %d", ssss)
	}
	if ssss > 0 {
		bits, err := br.readBits(ssss)
		if err != nil {
			return err
		}
		c.dcPred += extend(bits, ssss)
	}
	d.block[0] = int32(c.dcPred) * qt[0]

	coef := 1
	for coef <= 63 {
		sym, err := decodeHuffman(br, d.acTables[c.acSel])
		if err != nil {
			return err
		}
		if sym == 0 { // EOB
			break
		}
		if sym&0x0F == 0 {
			if sym != 0xF0 { // ZRL
				return codec.Errorf(codec.CodeValueOutOfRange, "AC symbol 0x%02X", sym)
			}
			coef += 16
			continue
		}

		coef += sym >> 4
		if coef > 63 {
			return codec.Errorf(codec.CodeValueOutOfRange, "AC run past the end of the block")
		}
		bits, err := br.readBits(sym & 0x0F)
		if err != nil {
			return err
		}
		d.block[zigzag[coef]] = int32(extend(bits, sym&0x0F)) * qt[coef]
		coef++
	}

	idct(&d.block, c.pixels, outOffset, c.stride)
	return nil
}

// scanError maps bitstream failures to the stream/block error classes,
// annotated with how far the scan got.
func scanError(err error, decoded, expected int) error {
	if ce, ok := err.(*codec.Error); ok {
		return ce
	}
	if err == io.EOF {
		return codec.Errorf(codec.CodeStreamEmpty,
			"scan data ended after %d of %d MCUs", decoded, expected)
	}
	return codec.Errorf(codec.CodeBlockEmpty, "scan data unreadable after %d of %d MCUs: %v", decoded, expected, err)
}
