package resampler

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Quality selects the filter quality of the Soxr backend.
type Quality int

const (
	QualityLow Quality = iota
	QualityMedium
	QualityHigh
	QualityVeryHigh
)

func (q Quality) spec() resampling.QualitySpec {
	switch q {
	case QualityLow:
		return resampling.QualitySpec{Preset: resampling.QualityLow}
	case QualityMedium:
		return resampling.QualitySpec{Preset: resampling.QualityMedium}
	case QualityVeryHigh:
		return resampling.QualitySpec{Preset: resampling.QualityVeryHigh}
	default:
		return resampling.QualitySpec{Preset: resampling.QualityHigh}
	}
}

// Soxr resamples using a pure Go SoX resampler (no CGO/FFI dependencies).
// A fresh streaming resampler is created per call so Soxr itself holds no
// mutable state.
type Soxr struct {
	quality Quality
}

// NewSoxr creates a Soxr backend with the given quality.
func NewSoxr(q Quality) *Soxr {
	return &Soxr{quality: q}
}

// Name implements Resampler.
func (s *Soxr) Name() string { return NameSoxr }

// Resample implements Resampler. The streamed output, including the flushed
// tail, is fitted to OutputLen samples: surplus samples are dropped and a
// short result is zero padded.
func (s *Soxr) Resample(x []float64, from, to int) ([]float64, error) {
	if err := validate(x, from, to); err != nil {
		return nil, err
	}
	if from == to {
		return append([]float64(nil), x...), nil
	}

	r, err := resampling.New(&resampling.Config{
		InputRate:  float64(from),
		OutputRate: float64(to),
		Channels:   1,
		Quality:    s.quality.spec(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}

	out, err := r.Process(x)
	if err != nil {
		return nil, fmt.Errorf("resample error: %w", err)
	}
	tail, err := r.Flush()
	if err != nil {
		return nil, fmt.Errorf("resample flush: %w", err)
	}
	out = append(out, tail...)

	want := OutputLen(len(x), from, to)
	if len(out) >= want {
		return out[:want:want], nil
	}
	return append(out, make([]float64, want-len(out))...), nil
}

var _ Resampler = (*Soxr)(nil)
