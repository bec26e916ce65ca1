package resample

import "math"

// tableOversample is the number of kernel table entries per zero crossing.
const tableOversample = 256

// kernelTable tabulates one side of a Kaiser-windowed sinc, indexed in units
// of zero crossings times tableOversample.
func kernelTable(zeroCrossings int, beta float64) []float64 {
	n := zeroCrossings * tableOversample
	table := make([]float64, n+2)

	for i := 0; i <= n; i++ {
		u := float64(i) / tableOversample
		table[i] = sinc(u) * kaiser(u/float64(zeroCrossings), beta)
	}

	// table[n+1] stays zero so interpolation at the last entry needs no bounds check.
	return table
}

// lookup returns the linearly interpolated table value at u zero crossings.
func lookup(table []float64, u float64) float64 {
	x := math.Abs(u) * tableOversample
	i := int(x)
	if i >= len(table)-1 {
		return 0
	}

	frac := x - float64(i)

	return table[i] + frac*(table[i+1]-table[i])
}

func sinc(x float64) float64 {
	if math.Abs(x) < 1e-12 {
		return 1
	}

	pix := math.Pi * x

	return math.Sin(pix) / pix
}

// kaiser evaluates the Kaiser window at normalized position x in [-1, 1].
func kaiser(x, beta float64) float64 {
	if beta == 0 {
		return 1
	}

	a := math.Sqrt(math.Max(0, 1-x*x))

	return i0(beta*a) / i0(beta)
}

func i0(x float64) float64 {
	// Power series approximation.
	sum := 1.0
	term := 1.0

	x2 := (x * x) / 4
	for k := 1; k < 64; k++ {
		term *= x2 / float64(k*k)

		sum += term
		if term < 1e-16*sum {
			break
		}
	}

	return sum
}
