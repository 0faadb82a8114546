package stoi

import (
	"fmt"

	"github.com/GnRlLeclerc/STOI/pkg/audio/octave"
)

// Algorithm constants of the published STOI definition.
const (
	SampleRate   = 10000 // internal processing rate in Hz
	FrameSize    = 256   // analysis frame length in samples
	HopSize      = 128   // frame hop in samples
	FFTSize      = 512   // zero-padded FFT length
	NumBands     = 15    // one-third-octave bands
	MinFreq      = 150.0 // centre frequency of the lowest band in Hz
	SegmentLen   = 30    // frames per short-time segment (384 ms)
	Beta         = -15.0 // lower signal-to-distortion bound in dB
	DynamicRange = 40.0  // silence gate range in dB
)

// SilentScore is the score conventionally reported for signals without
// enough speech to measure.
const SilentScore = 1e-5

// eps is the float64 machine epsilon, used to keep norms off zero.
const eps = 0x1p-52

// degenerateRatio bounds the centred norm of an envelope relative to its raw
// norm below which the envelope is treated as constant.
const degenerateRatio = 1e-10

// Gate selects the signal whose frame energies drive silence removal.
type Gate int

const (
	// GateReference measures frame energy on the clean reference.
	GateReference Gate = iota

	// GateDegraded measures frame energy on the degraded signal.
	GateDegraded
)

func (g Gate) String() string {
	switch g {
	case GateReference:
		return "reference"
	case GateDegraded:
		return "degraded"
	default:
		return fmt.Sprintf("Gate(%d)", int(g))
	}
}

// ParseGate parses "reference" or "degraded". An empty string selects
// GateReference.
func ParseGate(s string) (Gate, error) {
	switch s {
	case "", "reference", "ref":
		return GateReference, nil
	case "degraded", "deg":
		return GateDegraded, nil
	default:
		return 0, fmt.Errorf("stoi: unknown gate %q", s)
	}
}

// Config holds the behavioural options of an Engine. The frame, band and
// segment geometry are fixed constants and not part of Config.
type Config struct {
	// Gate selects which signal drives silence removal.
	Gate Gate

	// Weighting selects the band weight shape. Rectangular reproduces the
	// published scores.
	Weighting octave.Weighting
}

// DefaultConfig returns the config that reproduces the published STOI and
// ESTOI scores.
func DefaultConfig() Config {
	return Config{
		Gate:      GateReference,
		Weighting: octave.Rectangular,
	}
}

// Validate reports whether every option holds a known value.
func (c Config) Validate() error {
	switch c.Gate {
	case GateReference, GateDegraded:
	default:
		return fmt.Errorf("%w: unknown gate %d", ErrInvalidConfig, int(c.Gate))
	}
	switch c.Weighting {
	case octave.Rectangular, octave.Triangular:
	default:
		return fmt.Errorf("%w: unknown weighting %d", ErrInvalidConfig, int(c.Weighting))
	}
	return nil
}

// Fingerprint returns a stable string identifying every setting that
// affects scores, for use in cache keys.
func (c Config) Fingerprint() string {
	return fmt.Sprintf("v1/fs=%d/frame=%d/hop=%d/nfft=%d/bands=%d/seg=%d/gate=%s/weight=%d",
		SampleRate, FrameSize, HopSize, FFTSize, NumBands, SegmentLen, c.Gate, int(c.Weighting))
}

// bankConfig returns the filterbank config for c.
func (c Config) bankConfig() octave.Config {
	return octave.Config{
		SampleRate: SampleRate,
		FrameSize:  FrameSize,
		HopSize:    HopSize,
		FFTSize:    FFTSize,
		NumBands:   NumBands,
		MinFreq:    MinFreq,
		Weighting:  c.Weighting,
	}
}
