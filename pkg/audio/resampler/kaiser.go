package resampler

import "math"

// kaiserBeta returns the Kaiser window shape parameter for a stopband
// attenuation of a dB.
func kaiserBeta(a float64) float64 {
	switch {
	case a > 50:
		return 0.1102 * (a - 8.7)
	case a >= 21:
		return 0.5842*math.Pow(a-21, 0.4) + 0.07886*(a-21)
	default:
		return 0
	}
}

// kaiser returns a symmetric Kaiser window of length n.
func kaiser(n int, beta float64) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	alpha := float64(n-1) / 2
	norm := besselI0(beta)
	for i := range w {
		r := (float64(i) - alpha) / alpha
		w[i] = besselI0(beta*math.Sqrt(max(0, 1-r*r))) / norm
	}
	return w
}

// besselI0 evaluates the zeroth-order modified Bessel function of the first
// kind by its power series, which converges to full precision for the small
// arguments used in window design.
func besselI0(x float64) float64 {
	q := x * x / 4
	sum, term := 1.0, 1.0
	for k := 1; k < 500; k++ {
		term *= q / float64(k*k)
		sum += term
		if term < sum*1e-17 {
			break
		}
	}
	return sum
}
