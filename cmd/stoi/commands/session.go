package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/GnRlLeclerc/STOI/pkg/audio/octave"
	"github.com/GnRlLeclerc/STOI/pkg/audio/resampler"
	"github.com/GnRlLeclerc/STOI/pkg/audio/wavfile"
	"github.com/GnRlLeclerc/STOI/pkg/cache"
	"github.com/GnRlLeclerc/STOI/pkg/cli"
	"github.com/GnRlLeclerc/STOI/pkg/stoi"
	"github.com/GnRlLeclerc/STOI/pkg/storage"
)

// scoreFlags are the scoring options shared by score and batch. Flags left
// unset fall back to the active context.
type scoreFlags struct {
	extended  bool
	gate      string
	weighting string
	resampler string
	workers   int
	noCache   bool
	rate      int
	sentinel  float64
	strict    bool
}

func (f *scoreFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.extended, "extended", false, "use extended STOI (ESTOI)")
	cmd.Flags().StringVar(&f.gate, "gate", "", "signal driving silence removal: reference, degraded")
	cmd.Flags().StringVar(&f.weighting, "weighting", "", "band weights: rectangular, triangular")
	cmd.Flags().StringVar(&f.resampler, "resampler", "", "resampler for non-10 kHz input: poly, soxr")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "concurrent scoring jobs (0 = all CPUs)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "do not read or write the score cache")
	cmd.Flags().IntVar(&f.rate, "rate", 16000, "sample rate of raw PCM (.pcm, .raw, .l16) input")
	cmd.Flags().Float64Var(&f.sentinel, "sentinel", stoi.SilentScore, "score reported when nothing measurable remains")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "fail when a pair has no measurable speech")
}

// session holds everything a scoring command needs.
type session struct {
	engine  *stoi.Engine
	mode    stoi.Mode
	workers int
	rate    int
	opener  *storage.Opener
	store   cache.Store   // nil when caching is off
	scores  *cache.Scores // nil when caching is off
}

func openSession(cmd *cobra.Command, f *scoreFlags) (*session, error) {
	c, err := getContext()
	if err != nil {
		return nil, err
	}

	extended := c.Extended
	if cmd.Flags().Changed("extended") {
		extended = f.extended
	}
	cfg := stoi.DefaultConfig()
	if cfg.Gate, err = stoi.ParseGate(pick(f.gate, c.Gate)); err != nil {
		return nil, err
	}
	if cfg.Weighting, err = octave.ParseWeighting(pick(f.weighting, c.Weighting)); err != nil {
		return nil, err
	}
	rs, err := resampler.ByName(pick(f.resampler, c.Resampler))
	if err != nil {
		return nil, err
	}
	workers := c.Workers
	if cmd.Flags().Changed("workers") {
		workers = f.workers
	}
	engine, err := stoi.New(cfg, stoi.WithResampler(rs), stoi.WithWorkers(workers))
	if err != nil {
		return nil, err
	}

	s := &session{
		engine:  engine,
		mode:    stoi.ModeOf(extended),
		workers: workers,
		rate:    f.rate,
		opener:  storage.NewOpener(s3Config(c)),
	}
	if f.noCache || (c.Cache != nil && c.Cache.Disabled) {
		return s, nil
	}
	store, err := openCache(c)
	if err != nil {
		// Another process may hold the cache lock; score without it.
		slog.Warn("score cache unavailable", "error", err)
		return s, nil
	}
	s.store = store
	s.scores = cache.NewScores(store, nil)
	slog.Debug("session ready", "context", c.Name, "mode", s.mode, "gate", cfg.Gate, "resampler", rs.Name())
	return s, nil
}

func (s *session) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// load reads and decodes the audio at uri.
func (s *session) load(ctx context.Context, uri string) (*wavfile.Audio, error) {
	data, err := s.opener.ReadFile(ctx, uri)
	if err != nil {
		return nil, err
	}
	a, err := wavfile.Load(data, uri, s.rate, 1)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", uri, err)
	}
	return a, nil
}

// score computes one pair, through the cache when it is on.
func (s *session) score(ctx context.Context, ref, deg stoi.Signal1D, mode stoi.Mode) (stoi.Result, bool, error) {
	if s.scores == nil {
		r, err := s.engine.Compute(ref, deg, mode)
		return r, false, err
	}
	return s.scores.Compute(ctx, s.engine, ref, deg, mode)
}

// scoreChannels scores every channel pair of ref and deg, through the
// cache when it is on. The second slice reports a cache hit per channel.
func (s *session) scoreChannels(ctx context.Context, ref, deg stoi.SignalBatch, mode stoi.Mode) ([]stoi.Result, []bool, error) {
	if s.scores == nil || ref.Len() == 0 || ref.Len() != deg.Len() {
		results, err := s.engine.ComputeBatch(ctx, ref, deg, mode)
		if err != nil {
			return nil, nil, err
		}
		return results, make([]bool, len(results)), nil
	}
	results := make([]stoi.Result, ref.Len())
	cached := make([]bool, ref.Len())
	errs := make([]error, ref.Len())
	forEachLimit(ctx, ref.Len(), s.workers, func(i int) {
		results[i], cached[i], errs[i] = s.scores.Compute(ctx, s.engine, ref.Channel(i), deg.Channel(i), mode)
	})
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	for i, err := range errs {
		if err != nil {
			return nil, nil, fmt.Errorf("channel %d: %w", i, err)
		}
	}
	return results, cached, nil
}

// openCache opens the on-disk score cache of context c.
func openCache(c *cli.Context) (*cache.Badger, error) {
	var dir string
	if c.Cache != nil {
		dir = c.Cache.Dir
	}
	if dir == "" {
		paths, err := cli.NewPaths(appName)
		if err != nil {
			return nil, err
		}
		if err := paths.EnsureCacheDir(); err != nil {
			return nil, err
		}
		dir = paths.CacheDir()
	}
	return cache.NewBadger(cache.BadgerOptions{Dir: dir})
}

func s3Config(c *cli.Context) storage.S3Config {
	if c.S3 == nil {
		return storage.S3Config{}
	}
	return storage.S3Config{
		Region:    c.S3.Region,
		Endpoint:  c.S3.Endpoint,
		PathStyle: c.S3.PathStyle,
	}
}

// selectChannel picks channel ch of a, or the mono mix when ch is negative.
func selectChannel(a *wavfile.Audio, ch int) ([]float64, error) {
	if ch < 0 {
		return a.Mono(), nil
	}
	return a.Channel(ch)
}

func pick(flag, fallback string) string {
	if flag != "" {
		return flag
	}
	return fallback
}
