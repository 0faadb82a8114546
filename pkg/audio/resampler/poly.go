package resampler

import (
	"math"
	"sync"
)

// Filter design constants for the polyphase low-pass.
const (
	// rejectionDB is the stopband attenuation of the anti-aliasing filter.
	rejectionDB = 60.0

	// rollOffFraction is the transition width as a fraction of the cut-off.
	rollOffFraction = 0.1
)

// Poly resamples with a zero-phase polyphase FIR filter. Filters are designed
// once per reduced ratio and shared read-only between calls.
type Poly struct {
	filters sync.Map // ratioKey -> []float64
}

type ratioKey struct {
	up, down int
}

// NewPoly returns a polyphase resampler with an empty filter cache.
func NewPoly() *Poly {
	return &Poly{}
}

// Name implements Resampler.
func (p *Poly) Name() string { return NamePoly }

// Resample implements Resampler.
func (p *Poly) Resample(x []float64, from, to int) ([]float64, error) {
	if err := validate(x, from, to); err != nil {
		return nil, err
	}
	up, down := ratio(from, to)
	if up == 1 && down == 1 {
		return append([]float64(nil), x...), nil
	}
	return upfirdn(p.filter(up, down), x, up, down), nil
}

// filter returns the cached taps for up/down, designing them on first use.
// Concurrent first calls may design the same filter twice; the result is
// identical so either copy may win.
func (p *Poly) filter(up, down int) []float64 {
	key := ratioKey{up, down}
	if h, ok := p.filters.Load(key); ok {
		return h.([]float64)
	}
	h, _ := p.filters.LoadOrStore(key, designFilter(up, down))
	return h.([]float64)
}

// designFilter builds a Kaiser-windowed sinc low-pass for an up/down ratio.
// The taps are normalised to unit DC gain and then scaled by up to make up
// for the zero-stuffing in upfirdn.
func designFilter(up, down int) []float64 {
	cutoff := 1 / float64(2*max(up, down))
	rollOff := cutoff * rollOffFraction
	half := int(math.Ceil((rejectionDB - 8) / (28.714 * rollOff)))
	beta := kaiserBeta(rejectionDB)

	n := 2*half + 1
	win := kaiser(n, beta)
	h := make([]float64, n)
	sum := 0.0
	for i := range h {
		t := float64(i - half)
		h[i] = win[i] * 2 * float64(up) * cutoff * sinc(2*cutoff*t)
		sum += h[i]
	}
	scale := float64(up) / sum
	for i := range h {
		h[i] *= scale
	}
	return h
}

// upfirdn upsamples x by up, filters it with h and downsamples by down. The
// output is aligned on the centre tap of h and truncated to
// ceil(len(x)*up/down) samples.
func upfirdn(h, x []float64, up, down int) []float64 {
	half := (len(h) - 1) / 2
	y := make([]float64, (len(x)*up+down-1)/down)
	for j := range y {
		// Output j sits at position j*down in the upsampled stream; tap
		// index s - i*up pairs with input sample i.
		s := j*down + half
		iMin := 0
		if s >= len(h) {
			iMin = (s - len(h) + up) / up
		}
		iMax := min(s/up, len(x)-1)
		acc := 0.0
		for i := iMin; i <= iMax; i++ {
			acc += h[s-i*up] * x[i]
		}
		y[j] = acc
	}
	return y
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}

var _ Resampler = (*Poly)(nil)
