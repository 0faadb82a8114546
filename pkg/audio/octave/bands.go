package octave

import (
	"math"

	"gonum.org/v1/gonum/dsp/window"
)

// AnalysisWindow returns a Hann window of length n+2 with both zero-valued
// end points removed, so every one of the n samples carries weight.
func AnalysisWindow(n int) []float64 {
	w := make([]float64, n+2)
	for i := range w {
		w[i] = 1
	}
	window.Hann(w)
	return w[1 : n+1 : n+1]
}

// thirdOctaveBands returns band centre frequencies and the FFT bins nearest
// to each band's lower and upper edge.
func thirdOctaveBands(numBands, fftSize, sampleRate int, minFreq float64) (centers []float64, lo, hi []int) {
	halfFFT := fftSize/2 + 1
	freqs := make([]float64, halfFFT)
	for k := range freqs {
		freqs[k] = float64(k) * float64(sampleRate) / float64(fftSize)
	}

	centers = make([]float64, numBands)
	lo = make([]int, numBands)
	hi = make([]int, numBands)
	for i := 0; i < numBands; i++ {
		k := float64(i)
		centers[i] = math.Pow(math.Pow(2, 1.0/3), k) * minFreq
		lo[i] = nearestBin(freqs, minFreq*math.Pow(2, (2*k-1)/6))
		hi[i] = nearestBin(freqs, minFreq*math.Pow(2, (2*k+1)/6))
	}
	return centers, lo, hi
}

// nearestBin returns the index of the frequency closest to f. Ties resolve
// to the lower index.
func nearestBin(freqs []float64, f float64) int {
	best, bestDist := 0, math.Inf(1)
	for k, v := range freqs {
		d := (v - f) * (v - f)
		if d < bestDist {
			best, bestDist = k, d
		}
	}
	return best
}

// bandWeights creates the band weight matrix.
// Returns [numBands][halfFFT] where halfFFT = fftSize/2 + 1.
func bandWeights(shape Weighting, centers []float64, lo, hi []int, fftSize, sampleRate int) [][]float64 {
	halfFFT := fftSize/2 + 1
	binHz := float64(sampleRate) / float64(fftSize)

	bank := make([][]float64, len(centers))
	for j := range bank {
		filter := make([]float64, halfFFT)
		left, right := lo[j], hi[j]
		switch shape {
		case Triangular:
			center := int(math.Round(centers[j] / binHz))
			center = min(max(center, left), right)
			for k := left; k < right; k++ {
				switch {
				case k < center:
					filter[k] = float64(k-left+1) / float64(center-left+1)
				case k == center:
					filter[k] = 1
				default:
					filter[k] = float64(right-k) / float64(right-center)
				}
			}
		default:
			for k := left; k < right; k++ {
				filter[k] = 1
			}
		}
		bank[j] = filter
	}
	return bank
}
