// Package octave computes one-third-octave band envelopes from a short-time
// Fourier transform.
//
// This is the time-frequency front-end of the STOI/ESTOI intelligibility
// measures. The output is a [numBands][T] float64 matrix of band magnitudes,
// one column per analysis frame.
//
// Default parameters match the published STOI definition:
//
//	SampleRate: 10000
//	FrameSize:    256 (25.6 ms)
//	HopSize:      128 (50% overlap)
//	FFTSize:      512
//	NumBands:      15
//	MinFreq:      150
package octave

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Weighting selects the shape of each band's spectral weights.
type Weighting int

const (
	// Rectangular gives every FFT bin inside a band weight 1. This is the
	// weighting of the published STOI definition.
	Rectangular Weighting = iota

	// Triangular ramps linearly from the band edges to the bin nearest the
	// centre frequency.
	Triangular
)

func (w Weighting) String() string {
	switch w {
	case Rectangular:
		return "rectangular"
	case Triangular:
		return "triangular"
	default:
		return fmt.Sprintf("Weighting(%d)", int(w))
	}
}

// ParseWeighting parses "rectangular" or "triangular". An empty string
// selects Rectangular.
func ParseWeighting(s string) (Weighting, error) {
	switch s {
	case "", "rectangular", "rect":
		return Rectangular, nil
	case "triangular", "tri":
		return Triangular, nil
	default:
		return 0, fmt.Errorf("octave: unknown weighting %q", s)
	}
}

// Config controls the analysis parameters.
type Config struct {
	SampleRate int       // sample rate in Hz (default 10000)
	FrameSize  int       // window length in samples (default 256)
	HopSize    int       // hop length in samples (default 128)
	FFTSize    int       // FFT size, frames are zero padded (default 512)
	NumBands   int       // number of one-third-octave bands (default 15)
	MinFreq    float64   // centre frequency of the lowest band (default 150)
	Weighting  Weighting // band weight shape (default Rectangular)
}

// DefaultConfig returns the STOI analysis config.
func DefaultConfig() Config {
	return Config{
		SampleRate: 10000,
		FrameSize:  256,
		HopSize:    128,
		FFTSize:    512,
		NumBands:   15,
		MinFreq:    150,
	}
}

// Bank holds the analysis window and band weights. Both are computed once
// in New and never modified, so a Bank may be shared between goroutines.
type Bank struct {
	cfg     Config
	window  []float64
	weights [][]float64 // [numBands][fftSize/2+1]
	lo, hi  []int       // band edges as FFT bins, half open
	centers []float64
}

// New creates a Bank with the given config.
func New(cfg Config) *Bank {
	b := &Bank{cfg: cfg}
	b.window = AnalysisWindow(cfg.FrameSize)
	b.centers, b.lo, b.hi = thirdOctaveBands(cfg.NumBands, cfg.FFTSize, cfg.SampleRate, cfg.MinFreq)
	b.weights = bandWeights(cfg.Weighting, b.centers, b.lo, b.hi, cfg.FFTSize, cfg.SampleRate)
	return b
}

// Config returns the config the Bank was built with.
func (b *Bank) Config() Config { return b.cfg }

// Window returns a copy of the analysis window.
func (b *Bank) Window() []float64 {
	return append([]float64(nil), b.window...)
}

// Centers returns a copy of the band centre frequencies in Hz.
func (b *Bank) Centers() []float64 {
	return append([]float64(nil), b.centers...)
}

// Edges returns copies of the lower (inclusive) and upper (exclusive) FFT
// bin of every band.
func (b *Bank) Edges() (lo, hi []int) {
	return append([]int(nil), b.lo...), append([]int(nil), b.hi...)
}

// Weights returns a copy of the band weight matrix.
func (b *Bank) Weights() [][]float64 {
	w := make([][]float64, len(b.weights))
	for i, row := range b.weights {
		w[i] = append([]float64(nil), row...)
	}
	return w
}

// NumFrames returns the number of analysis frames in a signal of n samples.
// Frames start at 0, HopSize, ... while the start is below n-FrameSize.
func (b *Bank) NumFrames(n int) int {
	span := n - b.cfg.FrameSize
	if span <= 0 {
		return 0
	}
	return (span + b.cfg.HopSize - 1) / b.cfg.HopSize
}

// Envelopes computes the band envelopes of x.
// Output: [numBands][T] where T = NumFrames(len(x)); entry [j][t] is the
// square root of the weighted power of band j in frame t.
func (b *Bank) Envelopes(x []float64) [][]float64 {
	cfg := b.cfg
	numFrames := b.NumFrames(len(x))
	halfFFT := cfg.FFTSize/2 + 1

	env := make([][]float64, cfg.NumBands)
	for j := range env {
		env[j] = make([]float64, numFrames)
	}
	if numFrames == 0 {
		return env
	}

	// Working buffers, owned by this call.
	fft := fourier.NewFFT(cfg.FFTSize)
	frame := make([]float64, cfg.FFTSize)
	coeffs := make([]complex128, halfFFT)
	power := make([]float64, halfFFT)

	for t := 0; t < numFrames; t++ {
		start := t * cfg.HopSize

		// Windowing; the tail stays zero padded.
		for i := 0; i < cfg.FrameSize; i++ {
			frame[i] = x[start+i] * b.window[i]
		}

		fft.Coefficients(coeffs, frame)
		for k, c := range coeffs {
			re, im := real(c), imag(c)
			power[k] = re*re + im*im
		}

		for j, w := range b.weights {
			sum := 0.0
			for k := b.lo[j]; k < b.hi[j]; k++ {
				sum += w[k] * power[k]
			}
			env[j][t] = math.Sqrt(sum)
		}
	}
	return env
}
