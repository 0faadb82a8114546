package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/GnRlLeclerc/STOI/pkg/cli"
	"github.com/GnRlLeclerc/STOI/pkg/stoi"
	"github.com/GnRlLeclerc/STOI/pkg/storage"
)

var (
	batchOpts   scoreFlags
	batchReport string
	batchForce  bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Score every pair listed in a manifest",
	Long: `Score every reference/degraded pair listed in a manifest file.

Relative paths in the manifest resolve against the manifest's own location.
Pairs are scored concurrently (--workers). A pair that fails is reported
with its error and does not stop the run; the command exits non-zero if any
pair failed.

Manifest example (YAML or JSON):

  sample_rate: 16000        # raw PCM inputs only
  extended: false           # default mode for all items
  items:
    - name: babble-0db
      reference: clean/001.wav
      degraded: babble/001.wav
    - name: enhanced
      reference: s3://corpus/clean/002.wav
      degraded: s3://corpus/enhanced/002.wav
      extended: true
      channel: 0

Examples:
  stoi batch -f pairs.yaml
  stoi batch -f pairs.yaml --format table
  stoi batch -f s3://corpus/pairs.yaml --report s3://corpus/reports/run.json
  stoi batch -f pairs.yaml --report run.yaml --force`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

func init() {
	batchOpts.register(batchCmd)
	batchCmd.Flags().StringVar(&batchReport, "report", "", "also write the report to this path or s3:// URI")
	batchCmd.Flags().BoolVar(&batchForce, "force", false, "overwrite an existing --report")
}

type manifest struct {
	SampleRate int            `json:"sample_rate" yaml:"sample_rate"`
	Extended   *bool          `json:"extended" yaml:"extended"`
	Items      []manifestItem `json:"items" yaml:"items"`
}

type manifestItem struct {
	Name      string `json:"name" yaml:"name"`
	Reference string `json:"reference" yaml:"reference"`
	Degraded  string `json:"degraded" yaml:"degraded"`
	Extended  *bool  `json:"extended" yaml:"extended"`
	Channel   *int   `json:"channel" yaml:"channel"`
}

// loadManifest reads the manifest at uri and resolves its relative paths.
func loadManifest(ctx context.Context, o *storage.Opener, uri string) (*manifest, error) {
	data, err := o.ReadFile(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m manifest
	if err := cli.DecodeFile(data, uri, &m); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", uri, err)
	}
	if len(m.Items) == 0 {
		return nil, fmt.Errorf("manifest %s: no items", uri)
	}
	for i := range m.Items {
		it := &m.Items[i]
		if it.Reference == "" || it.Degraded == "" {
			return nil, fmt.Errorf("manifest %s: item %d: reference and degraded are required", uri, i)
		}
		if it.Name == "" {
			it.Name = fmt.Sprintf("item-%d", i)
		}
		it.Reference = resolveURI(uri, it.Reference)
		it.Degraded = resolveURI(uri, it.Degraded)
	}
	return &m, nil
}

// resolveURI resolves p against the directory holding base.
func resolveURI(base, p string) string {
	if strings.HasPrefix(p, "s3://") || filepath.IsAbs(p) {
		return p
	}
	if loc, err := storage.Parse(base); err == nil && loc.IsS3() {
		loc.Path = path.Join(path.Dir(loc.Path), p)
		return loc.String()
	}
	return filepath.Join(filepath.Dir(base), p)
}

// batchResult is the output of the batch command.
type batchResult struct {
	RunID     string       `json:"run_id" yaml:"run_id"`
	Manifest  string       `json:"manifest" yaml:"manifest"`
	StartedAt time.Time    `json:"started_at" yaml:"started_at"`
	Elapsed   string       `json:"elapsed" yaml:"elapsed"`
	Summary   batchSummary `json:"summary" yaml:"summary"`
	Items     []pairScore  `json:"items" yaml:"items"`
}

type batchSummary struct {
	Count  int     `json:"count" yaml:"count"`
	OK     int     `json:"ok" yaml:"ok"`
	NotOK  int     `json:"not_ok" yaml:"not_ok"` // all_silent or no_valid_segments
	Failed int     `json:"failed" yaml:"failed"`
	Cached int     `json:"cached" yaml:"cached"`
	Mean   float64 `json:"mean" yaml:"mean"` // over OK items only
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
}

func (r *batchResult) TableHeaders() []string { return scoreHeaders }

func (r *batchResult) TableRows() [][]string {
	rows := make([][]string, len(r.Items))
	for i, p := range r.Items {
		rows[i] = p.row()
	}
	return rows
}

func summarize(items []pairScore) batchSummary {
	s := batchSummary{Count: len(items), Min: math.Inf(1), Max: math.Inf(-1)}
	var sum float64
	for _, p := range items {
		if p.Cached {
			s.Cached++
		}
		switch {
		case p.Error != "":
			s.Failed++
		case p.Status != stoi.StatusOK:
			s.NotOK++
		default:
			s.OK++
			sum += p.Score
			s.Min = min(s.Min, p.Score)
			s.Max = max(s.Max, p.Score)
		}
	}
	if s.OK == 0 {
		s.Min, s.Max = 0, 0
		return s
	}
	s.Mean = sum / float64(s.OK)
	return s
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if inputFile == "" {
		return errors.New("a manifest is required (-f manifest.yaml)")
	}
	s, err := openSession(cmd, &batchOpts)
	if err != nil {
		return err
	}
	defer s.Close()

	m, err := loadManifest(ctx, s.opener, inputFile)
	if err != nil {
		return err
	}
	if batchReport != "" && !batchForce {
		exists, err := s.opener.Exists(ctx, batchReport)
		if err != nil {
			return fmt.Errorf("check report: %w", err)
		}
		if exists {
			return fmt.Errorf("report %s already exists (use --force to overwrite)", batchReport)
		}
	}
	if m.SampleRate > 0 && !cmd.Flags().Changed("rate") {
		s.rate = m.SampleRate
	}
	defaultMode := s.mode
	if m.Extended != nil && !cmd.Flags().Changed("extended") {
		defaultMode = stoi.ModeOf(*m.Extended)
	}

	res := &batchResult{
		RunID:     uuid.NewString(),
		Manifest:  inputFile,
		StartedAt: time.Now().UTC(),
		Items:     make([]pairScore, len(m.Items)),
	}
	logger := slog.With("run_id", res.RunID)
	logger.Info("batch started", "items", len(m.Items), "workers", s.workers)

	forEachLimit(ctx, len(m.Items), s.workers, func(i int) {
		it := m.Items[i]
		mode := defaultMode
		if it.Extended != nil {
			mode = stoi.ModeOf(*it.Extended)
		}
		res.Items[i] = scoreItem(ctx, s, it, mode, batchOpts.sentinel)
		if e := res.Items[i].Error; e != "" {
			logger.Warn("pair failed", "name", it.Name, "error", e)
		} else {
			logger.Debug("pair scored", "name", it.Name, "status", res.Items[i].Status, "score", res.Items[i].Score)
		}
	})
	if err := ctx.Err(); err != nil {
		return err
	}

	elapsed := time.Since(res.StartedAt)
	res.Elapsed = cli.FormatDuration(elapsed)
	res.Summary = summarize(res.Items)
	logger.Info("batch finished", "ok", res.Summary.OK, "not_ok", res.Summary.NotOK, "failed", res.Summary.Failed, "elapsed", elapsed)

	if batchReport != "" {
		if err := writeReport(ctx, s.opener, batchReport, res); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		printVerbose("report written to %s", batchReport)
	}
	if err := outputResult(res); err != nil {
		return err
	}
	if res.Summary.Failed > 0 {
		return fmt.Errorf("%d of %d pairs failed", res.Summary.Failed, res.Summary.Count)
	}
	if batchOpts.strict && res.Summary.NotOK > 0 {
		return fmt.Errorf("%d of %d pairs have no measurable speech", res.Summary.NotOK, res.Summary.Count)
	}
	return nil
}

// forEachLimit calls fn for every index in [0, n) with at most workers
// calls in flight, or GOMAXPROCS when workers < 1. It stops scheduling once
// ctx is done and returns after every started call has returned.
func forEachLimit(ctx context.Context, n, workers int, fn func(i int)) {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	sem := make(chan struct{}, min(workers, max(n, 1)))
	var wg sync.WaitGroup
schedule:
	for i := range n {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break schedule
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			fn(i)
		}()
	}
	wg.Wait()
}

// scoreItem scores one manifest item, recording any error in the result.
func scoreItem(ctx context.Context, s *session, it manifestItem, mode stoi.Mode, sentinel float64) pairScore {
	p := pairScore{
		Name:      it.Name,
		Reference: it.Reference,
		Degraded:  it.Degraded,
		Channel:   -1,
		Mode:      mode.String(),
	}
	if it.Channel != nil {
		p.Channel = *it.Channel
	}
	fail := func(err error) pairScore {
		p.Error = err.Error()
		return p
	}

	refAudio, err := s.load(ctx, it.Reference)
	if err != nil {
		return fail(err)
	}
	degAudio, err := s.load(ctx, it.Degraded)
	if err != nil {
		return fail(err)
	}
	x, err := selectChannel(refAudio, p.Channel)
	if err != nil {
		return fail(err)
	}
	y, err := selectChannel(degAudio, p.Channel)
	if err != nil {
		return fail(err)
	}
	r, cached, err := s.score(ctx,
		stoi.Signal1D{Samples: x, SampleRate: refAudio.SampleRate},
		stoi.Signal1D{Samples: y, SampleRate: degAudio.SampleRate},
		mode)
	if err != nil {
		return fail(err)
	}
	out := newPairScore(r, sentinel, cached)
	out.Name, out.Reference, out.Degraded, out.Channel = p.Name, p.Reference, p.Degraded, p.Channel
	return out
}

// writeReport writes res to uri as JSON for .json names and YAML otherwise.
func writeReport(ctx context.Context, o *storage.Opener, uri string, res *batchResult) error {
	format := cli.FormatYAML
	if strings.EqualFold(path.Ext(uri), ".json") {
		format = cli.FormatJSON
	}
	var buf bytes.Buffer
	if err := cli.Output(res, cli.OutputOptions{Format: format, Writer: &buf}); err != nil {
		return err
	}
	return o.WriteFile(ctx, uri, buf.Bytes())
}
