package spectrum

// SplitComplex writes the real and imaginary parts of in into re and im.
// All three slices must have the same length.
func SplitComplex(re, im []float64, in []complex128) {
	for i, c := range in {
		re[i] = real(c)
		im[i] = imag(c)
	}
}
