package resampler

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrInvalidRate is returned when a source or target rate is not positive.
	ErrInvalidRate = errors.New("resampler: invalid sample rate")

	// ErrEmptyInput is returned when the input signal has no samples.
	ErrEmptyInput = errors.New("resampler: empty input")
)

// Resampler converts a whole signal from one sample rate to another.
//
// Implementations must be safe for concurrent use and must not modify x.
type Resampler interface {
	// Resample returns x converted from rate from to rate to. When the rates
	// are equal a copy of x is returned.
	Resample(x []float64, from, to int) ([]float64, error)

	// Name returns the backend name as accepted by ByName.
	Name() string
}

// Backend names accepted by ByName.
const (
	NamePoly = "poly"
	NameSoxr = "soxr"
)

// ByName returns the resampler registered under name. An empty name selects
// the poly backend.
func ByName(name string) (Resampler, error) {
	switch name {
	case "", NamePoly:
		return NewPoly(), nil
	case NameSoxr:
		return NewSoxr(QualityHigh), nil
	default:
		return nil, fmt.Errorf("resampler: unknown backend %q", name)
	}
}

// OutputLen returns the number of samples produced when resampling n samples
// from rate from to rate to.
func OutputLen(n, from, to int) int {
	up, down := ratio(from, to)
	return (n*up + down - 1) / down
}

// ratio reduces to/from to lowest terms, returning (up, down).
func ratio(from, to int) (int, int) {
	g := gcd(from, to)
	return to / g, from / g
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func validate(x []float64, from, to int) error {
	if from <= 0 {
		return fmt.Errorf("%w: source rate %d", ErrInvalidRate, from)
	}
	if to <= 0 {
		return fmt.Errorf("%w: target rate %d", ErrInvalidRate, to)
	}
	if len(x) == 0 {
		return ErrEmptyInput
	}
	return nil
}
