package jpegls

// PredictMED is the median edge detection predictor: Ra is the left
// neighbour, Rb the one above, Rc the one above-left.
func PredictMED(Ra, Rb, Rc int) int {
	if Rc >= max(Ra, Rb) {
		return min(Ra, Rb)
	}
	if Rc <= min(Ra, Rb) {
		return max(Ra, Rb)
	}
	return Ra + Rb - Rc
}

func clip(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
