package stoi

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/GnRlLeclerc/STOI/pkg/audio/octave"
	"github.com/GnRlLeclerc/STOI/pkg/audio/resampler"
)

// Mode selects the scoring variant.
type Mode int

const (
	// Standard is STOI: clipped correlation per band, averaged over bands
	// and segments.
	Standard Mode = iota

	// Extended is ESTOI: spectral correlation of row and column normalised
	// segments, averaged over segments.
	Extended
)

// ModeOf returns Extended when extended is true and Standard otherwise.
func ModeOf(extended bool) Mode {
	if extended {
		return Extended
	}
	return Standard
}

func (m Mode) String() string {
	switch m {
	case Standard:
		return "standard"
	case Extended:
		return "extended"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Status distinguishes a measured score from the degenerate outcomes.
type Status string

const (
	// StatusOK means Score holds a measured intelligibility.
	StatusOK Status = "ok"

	// StatusAllSilent means fewer than SegmentLen frames survived silence
	// removal.
	StatusAllSilent Status = "all_silent"

	// StatusNoValidSegments means every unit had a constant envelope.
	StatusNoValidSegments Status = "no_valid_segments"
)

// Result is the outcome of one Compute call.
type Result struct {
	Status   Status  `json:"status" yaml:"status" msgpack:"status"`
	Score    float64 `json:"score" yaml:"score" msgpack:"score"`
	Mode     string  `json:"mode" yaml:"mode" msgpack:"mode"`
	Frames   int     `json:"frames" yaml:"frames" msgpack:"frames"`       // STFT frames after silence removal
	Segments int     `json:"segments" yaml:"segments" msgpack:"segments"` // short-time segments
	Units    int     `json:"units" yaml:"units" msgpack:"units"`          // correlations averaged into Score
	Skipped  int     `json:"skipped" yaml:"skipped" msgpack:"skipped"`    // units with a constant envelope
}

// OK reports whether r holds a measured score.
func (r Result) OK() bool { return r.Status == StatusOK }

// ScoreOr returns the score, or fallback when r holds no measured score.
func (r Result) ScoreOr(fallback float64) float64 {
	if r.OK() {
		return r.Score
	}
	return fallback
}

// Err returns nil for StatusOK and ErrAllSilent or ErrNoValidSegments
// otherwise.
func (r Result) Err() error {
	switch r.Status {
	case StatusOK:
		return nil
	case StatusAllSilent:
		return ErrAllSilent
	default:
		return ErrNoValidSegments
	}
}

// Engine computes STOI and ESTOI scores. An Engine is immutable after New and
// safe for concurrent use.
type Engine struct {
	cfg       Config
	bank      *octave.Bank
	window    []float64
	resampler resampler.Resampler
	workers   int
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithResampler sets the resampler used for inputs not at SampleRate. The
// default is resampler.NewPoly, which reproduces reference scores.
func WithResampler(r resampler.Resampler) Option {
	return func(e *Engine) { e.resampler = r }
}

// WithLogger sets the logger. If nil, slog.Default() is used.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithWorkers bounds the channels ComputeBatch processes concurrently.
// Values below 1 select runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// New creates an Engine, computing its analysis tables once.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	if e.resampler == nil {
		e.resampler = resampler.NewPoly()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.workers < 1 {
		e.workers = runtime.GOMAXPROCS(0)
	}
	e.bank = octave.New(cfg.bankConfig())
	e.window = e.bank.Window()
	return e, nil
}

var defaultEngine = sync.OnceValue(func() *Engine {
	e, err := New(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return e
})

// Default returns a process-wide Engine with DefaultConfig.
func Default() *Engine { return defaultEngine() }

// Compute scores deg against ref using the default Engine.
func Compute(ref, deg []float64, sampleRate int, extended bool) (Result, error) {
	return Default().Compute(
		Signal1D{Samples: ref, SampleRate: sampleRate},
		Signal1D{Samples: deg, SampleRate: sampleRate},
		ModeOf(extended),
	)
}

// Config returns the engine config.
func (e *Engine) Config() Config { return e.cfg }

// Resampler returns the resampler used for non-native rates.
func (e *Engine) Resampler() resampler.Resampler { return e.resampler }

// Compute scores the intelligibility of deg relative to ref. Both signals
// must share a positive sample rate and length. Input slices are never
// modified.
//
// Invalid input returns an error wrapping ErrInvalidInput. Degenerate but
// valid input returns a Result with a non-OK Status and a nil error.
func (e *Engine) Compute(ref, deg Signal1D, mode Mode) (Result, error) {
	if err := validatePair(ref, deg); err != nil {
		return Result{}, err
	}
	if mode != Standard && mode != Extended {
		return Result{}, invalidInput("unknown mode %d", int(mode))
	}

	x, y, err := e.prepare(ref, deg)
	if err != nil {
		return Result{}, err
	}

	xs, ys, kept := removeSilentFrames(x, y, e.window, e.cfg.Gate)
	refEnv := e.bank.Envelopes(xs)
	degEnv := e.bank.Envelopes(ys)

	res := Result{Mode: mode.String(), Frames: len(refEnv[0])}
	e.logger.Debug("stoi: frames", "samples", len(x), "kept", kept, "stft_frames", res.Frames)
	if res.Frames < SegmentLen {
		res.Status = StatusAllSilent
		e.logger.Debug("stoi: not enough speech", "stft_frames", res.Frames, "need", SegmentLen)
		return res, nil
	}

	segs := buildSegments(refEnv, degEnv, SegmentLen)
	res.Segments = len(segs)

	var t tally
	if mode == Extended {
		t = scoreExtended(segs)
	} else {
		t = scoreStandard(segs)
	}
	res.Units, res.Skipped = t.units, t.skipped
	if t.units == 0 {
		res.Status = StatusNoValidSegments
		e.logger.Debug("stoi: no valid segments", "segments", res.Segments, "skipped", t.skipped)
		return res, nil
	}

	res.Status = StatusOK
	res.Score = t.mean()
	e.logger.Debug("stoi: scored", "mode", res.Mode, "score", res.Score, "units", t.units, "skipped", t.skipped)
	return res, nil
}

// prepare returns working copies of both signals at SampleRate.
func (e *Engine) prepare(ref, deg Signal1D) (x, y []float64, err error) {
	if ref.SampleRate == SampleRate {
		return append([]float64(nil), ref.Samples...), append([]float64(nil), deg.Samples...), nil
	}
	if x, err = e.resampler.Resample(ref.Samples, ref.SampleRate, SampleRate); err != nil {
		return nil, nil, fmt.Errorf("stoi: resample reference: %w", err)
	}
	if y, err = e.resampler.Resample(deg.Samples, deg.SampleRate, SampleRate); err != nil {
		return nil, nil, fmt.Errorf("stoi: resample degraded: %w", err)
	}
	return x, y, nil
}
