package stoi

import "math"

// Sample is the set of sample types accepted by the signal constructors.
type Sample interface {
	~float32 | ~float64 | ~int16 | ~int32
}

// Signal1D is a single channel of samples tagged with its sample rate.
type Signal1D struct {
	Samples    []float64
	SampleRate int
}

// NewSignal1D upcasts samples to float64. Integer samples are used as is,
// without scaling; STOI is invariant to a common gain.
func NewSignal1D[T Sample](samples []T, sampleRate int) Signal1D {
	return Signal1D{Samples: upcast(samples), SampleRate: sampleRate}
}

// Len returns the number of samples.
func (s Signal1D) Len() int { return len(s.Samples) }

// SignalBatch is a set of equal-length channels sharing one sample rate,
// one row per channel.
type SignalBatch struct {
	Channels   [][]float64
	SampleRate int
}

// NewSignalBatch upcasts every channel to float64.
func NewSignalBatch[T Sample](channels [][]T, sampleRate int) SignalBatch {
	b := SignalBatch{Channels: make([][]float64, len(channels)), SampleRate: sampleRate}
	for i, ch := range channels {
		b.Channels[i] = upcast(ch)
	}
	return b
}

// Channel returns channel i as a Signal1D sharing the batch storage.
func (b SignalBatch) Channel(i int) Signal1D {
	return Signal1D{Samples: b.Channels[i], SampleRate: b.SampleRate}
}

// Len returns the number of channels.
func (b SignalBatch) Len() int { return len(b.Channels) }

func upcast[T Sample](in []T) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

// validatePair checks the preconditions of Compute.
func validatePair(ref, deg Signal1D) error {
	if ref.SampleRate <= 0 {
		return invalidInput("sample rate %d is not positive", ref.SampleRate)
	}
	if ref.SampleRate != deg.SampleRate {
		return invalidInput("sample rates differ: reference %d, degraded %d", ref.SampleRate, deg.SampleRate)
	}
	if ref.Len() == 0 {
		return invalidInput("empty signal")
	}
	if ref.Len() != deg.Len() {
		return invalidInput("lengths differ: reference %d, degraded %d", ref.Len(), deg.Len())
	}
	if i := firstNonFinite(ref.Samples); i >= 0 {
		return invalidInput("reference sample %d is not finite", i)
	}
	if i := firstNonFinite(deg.Samples); i >= 0 {
		return invalidInput("degraded sample %d is not finite", i)
	}
	return nil
}

// validateBatch checks the preconditions of ComputeBatch.
func validateBatch(ref, deg SignalBatch) error {
	if ref.Len() == 0 {
		return invalidInput("batch has no channels")
	}
	if ref.Len() != deg.Len() {
		return invalidInput("channel counts differ: reference %d, degraded %d", ref.Len(), deg.Len())
	}
	if ref.SampleRate != deg.SampleRate {
		return invalidInput("sample rates differ: reference %d, degraded %d", ref.SampleRate, deg.SampleRate)
	}
	n := len(ref.Channels[0])
	for i := range ref.Channels {
		if len(ref.Channels[i]) != n || len(deg.Channels[i]) != n {
			return invalidInput("channel %d: ragged batch, want %d samples", i, n)
		}
	}
	return nil
}

func firstNonFinite(x []float64) int {
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return i
		}
	}
	return -1
}
