package jpegls

// ContextModel holds the adaptive state of one scan: gradient
// quantization thresholds, per-context error statistics and the run
// mode order table. Contexts 0-364 are the regular mode contexts,
// 365 and 366 the run interruption contexts.
type ContextModel struct {
	// Gradient quantization thresholds.
	T1, T2, T3 int

	MaxVal int

	// Per-context statistics: A accumulates absolute errors, B signed
	// errors, C the bias correction, N the occurrence count.
	A []int
	B []int
	C []int
	N []int

	// Halving threshold for the statistics.
	Reset int

	// Run mode order table and current position in it.
	J        [32]int
	RunIndex int
}

// NewContextModel initializes the scan state for the given sample range.
// Thresholds follow the default derivation of ISO 14495-1 A.3: T1=3,
// T2=7, T3=21 for 8-bit samples, scaled for wider ranges.
func NewContextModel(maxVal, near, reset int) *ContextModel {
	cm := &ContextModel{
		MaxVal: maxVal,
		Reset:  reset,
	}

	factor := (min(maxVal, 4095) + 128) / 256
	cm.T1 = clip(factor*(3-2)+2+3*near, near+1, maxVal)
	cm.T2 = clip(factor*(7-3)+3+5*near, cm.T1, maxVal)
	cm.T3 = clip(factor*(21-4)+4+7*near, cm.T2, maxVal)

	const size = 367
	cm.A = make([]int, size)
	cm.B = make([]int, size)
	cm.C = make([]int, size)
	cm.N = make([]int, size)
	initA := max((maxVal+1+32)/64, 2)
	for i := 0; i < size; i++ {
		cm.A[i] = initA
		cm.N[i] = 1
	}

	copy(cm.J[:], []int{
		0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3,
		4, 4, 5, 5, 6, 6, 7, 7, 8, 9, 10, 11, 12, 13, 14, 15,
	})
	return cm
}

// QuantizeGradient maps a local gradient to one of the nine regions.
func (cm *ContextModel) QuantizeGradient(D int) int {
	switch {
	case D <= -cm.T3:
		return -4
	case D <= -cm.T2:
		return -3
	case D <= -cm.T1:
		return -2
	case D < 0:
		return -1
	case D == 0:
		return 0
	case D < cm.T1:
		return 1
	case D < cm.T2:
		return 2
	case D < cm.T3:
		return 3
	default:
		return 4
	}
}

// GetContextIndex folds the three quantized gradients into a context
// index in [0, 364] and the sign the error is coded under.
func (cm *ContextModel) GetContextIndex(D1, D2, D3 int) (int, int) {
	Q1 := cm.QuantizeGradient(D1)
	Q2 := cm.QuantizeGradient(D2)
	Q3 := cm.QuantizeGradient(D3)

	sign := 1
	if Q1 < 0 || (Q1 == 0 && Q2 < 0) || (Q1 == 0 && Q2 == 0 && Q3 < 0) {
		Q1, Q2, Q3 = -Q1, -Q2, -Q3
		sign = -1
	}

	return Q1*81 + Q2*9 + Q3, sign
}

// ComputeK derives the Golomb parameter for context Q from its
// statistics. Both sides compute k before updating the stats, keeping
// the parameter sequence identical.
func (cm *ContextModel) ComputeK(Q int) int {
	k := 0
	for (cm.N[Q] << k) < cm.A[Q] {
		k++
	}
	return k
}

// UpdateStats folds the unmapped prediction error into context Q and
// applies the bias correction step.
func (cm *ContextModel) UpdateStats(Q, ErrVal int) {
	cm.B[Q] += ErrVal
	cm.A[Q] += abs(ErrVal)

	if cm.N[Q] == cm.Reset {
		cm.A[Q] >>= 1
		cm.B[Q] >>= 1
		cm.N[Q] >>= 1
	}
	cm.N[Q]++
	cm.updateBias(Q)
}

func (cm *ContextModel) updateBias(Q int) {
	if cm.B[Q] <= -cm.N[Q] {
		cm.B[Q] += cm.N[Q]
		cm.C[Q]--
		if cm.B[Q] <= -cm.N[Q] {
			cm.B[Q] += cm.N[Q]
			cm.C[Q]--
		}
	} else if cm.B[Q] > 0 {
		cm.B[Q] -= cm.N[Q]
		cm.C[Q]++
		if cm.B[Q] > 0 {
			cm.B[Q] -= cm.N[Q]
			cm.C[Q]++
		}
	}
	cm.C[Q] = clip(cm.C[Q], -128, 127)
}
