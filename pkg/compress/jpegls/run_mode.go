package jpegls

// Run mode (ITU-T T.87 A.7). Entered when all three local gradients are
// zero; encodes the length of the run of samples equal to Ra with the
// adaptive J table, then the sample that interrupted the run against
// one of the two dedicated interruption contexts. The encoding and
// decoding sides must mirror each other bit for bit, including the
// RunIndex updates.

// runInterruptionContext selects between the Ra==Rb context (365) and
// the Ra!=Rb context (366), together with the prediction and sign the
// interruption sample uses.
func runInterruptionContext(Ra, Rb int) (Q, Px, sign int) {
	if Ra == Rb {
		return 365, Ra, 1
	}
	if Ra > Rb {
		return 366, Rb, -1
	}
	return 366, Rb, 1
}

// decodeRun reads one run segment starting at *x and fills currLine with
// the reconstructed samples. On return *x is the first undecoded
// position.
func (d *Decoder) decodeRun(Ra, Rb int, currLine []int, x *int) error {
	width := d.params.Width

	for {
		b, err := d.br.ReadBit()
		if err != nil {
			return err
		}

		if b == 1 {
			// One segment of up to 2^J samples, all equal to Ra. A
			// segment cut short by the end of the line carries no
			// remainder and leaves RunIndex alone (A.7.1.2); an exact
			// fit is a full segment and still bumps it.
			segment := 1 << d.context.J[d.context.RunIndex]
			remaining := width - *x
			if segment >= remaining {
				for i := 0; i < remaining; i++ {
					currLine[*x] = Ra
					*x++
				}
				if segment == remaining && d.context.RunIndex < 31 {
					d.context.RunIndex++
				}
				return nil
			}
			for i := 0; i < segment; i++ {
				currLine[*x] = Ra
				*x++
			}
			if d.context.RunIndex < 31 {
				d.context.RunIndex++
			}
			continue
		}

		// Run interrupted before the line end: the remainder length in
		// J bits, then the interruption sample.
		j := d.context.J[d.context.RunIndex]
		var rBits uint32
		if j > 0 {
			rBits, err = d.br.ReadBits(j)
			if err != nil {
				return err
			}
		}
		runLength := int(rBits)
		if remaining := width - *x; runLength > remaining {
			runLength = remaining
		}
		for i := 0; i < runLength; i++ {
			currLine[*x] = Ra
			*x++
		}

		if d.context.RunIndex > 0 {
			d.context.RunIndex--
		}
		if *x >= width {
			return nil
		}

		Q, Px, sign := runInterruptionContext(Ra, Rb)
		k := d.context.ComputeK(Q)
		mapped, err := d.br.ReadGolomb(k)
		if err != nil {
			return err
		}
		ErrVal := unmapError(mapped)
		d.context.UpdateStats(Q, ErrVal)

		maxVal := d.context.MaxVal
		rangeVal := maxVal + 1
		Rx := Px + sign*ErrVal
		if Rx < 0 {
			Rx += rangeVal
		}
		if Rx > maxVal {
			Rx -= rangeVal
		}

		currLine[*x] = Rx
		*x++
		return nil
	}
}

// encodeRun writes one run segment starting at *x. On return *x is the
// first unencoded position.
func (e *Encoder) encodeRun(currLine []int, x *int, Ra, Rb int) error {
	width := e.params.Width

	runLength := 0
	for *x < width && currLine[*x] == Ra {
		runLength++
		*x++
	}
	atEOL := *x == width

	for runLength >= 1<<e.context.J[e.context.RunIndex] {
		if err := e.bw.WriteBit(1); err != nil {
			return err
		}
		runLength -= 1 << e.context.J[e.context.RunIndex]
		if e.context.RunIndex < 31 {
			e.context.RunIndex++
		}
	}

	if atEOL {
		// A line-ending run closes with a lone 1 bit for its partial
		// tail (A.7.1.2); an exact fit needs nothing further.
		if runLength > 0 {
			return e.bw.WriteBit(1)
		}
		return nil
	}

	if err := e.bw.WriteBit(0); err != nil {
		return err
	}
	if j := e.context.J[e.context.RunIndex]; j > 0 {
		if err := e.bw.WriteBits(uint32(runLength), j); err != nil {
			return err
		}
	}
	if e.context.RunIndex > 0 {
		e.context.RunIndex--
	}

	// Interruption sample.
	Ix := currLine[*x]
	Q, Px, sign := runInterruptionContext(Ra, Rb)

	ErrVal := Ix - Px
	if sign == -1 {
		ErrVal = -ErrVal
	}
	maxVal := e.context.MaxVal
	rangeVal := maxVal + 1
	if ErrVal < -rangeVal/2 {
		ErrVal += rangeVal
	}
	if ErrVal > rangeVal/2 {
		ErrVal -= rangeVal
	}

	k := e.context.ComputeK(Q)
	if err := e.bw.WriteGolomb(k, mapError(ErrVal)); err != nil {
		return err
	}
	e.context.UpdateStats(Q, ErrVal)

	*x++
	return nil
}

// mapError folds a signed prediction error into the non-negative code
// value of A.5.3.
func mapError(ErrVal int) uint32 {
	if ErrVal >= 0 {
		return uint32(2 * ErrVal)
	}
	return uint32(-2*ErrVal - 1)
}
