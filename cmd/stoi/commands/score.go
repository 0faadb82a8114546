package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GnRlLeclerc/STOI/pkg/stoi"
)

var (
	scoreOpts        scoreFlags
	scoreChannel     int
	scoreAllChannels bool
)

var scoreCmd = &cobra.Command{
	Use:   "score <reference> <degraded>",
	Short: "Score a degraded recording against its reference",
	Long: `Score the intelligibility of a degraded recording relative to its clean
reference. Both inputs must have the same sample rate and length.

Inputs are WAV files or raw 16-bit little-endian PCM (.pcm, .raw, .l16, see
--rate), given as local paths or s3://bucket/key URIs. Multi-channel input
is mixed to mono unless --channel or --all-channels is given.

Examples:
  stoi score clean.wav noisy.wav
  stoi score --extended --format table clean.wav noisy.wav
  stoi score --all-channels s3://corpus/ref.wav s3://corpus/enhanced.wav`,
	Args: cobra.ExactArgs(2),
	RunE: runScore,
}

func init() {
	scoreOpts.register(scoreCmd)
	scoreCmd.Flags().IntVar(&scoreChannel, "channel", -1, "channel to score (-1 mixes to mono)")
	scoreCmd.Flags().BoolVar(&scoreAllChannels, "all-channels", false, "score every channel separately")
}

func runScore(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := openSession(cmd, &scoreOpts)
	if err != nil {
		return err
	}
	defer s.Close()

	refAudio, err := s.load(ctx, args[0])
	if err != nil {
		return err
	}
	degAudio, err := s.load(ctx, args[1])
	if err != nil {
		return err
	}
	printVerbose("reference: %d channels, %d samples at %d Hz", len(refAudio.Channels), refAudio.Len(), refAudio.SampleRate)
	printVerbose("degraded: %d channels, %d samples at %d Hz", len(degAudio.Channels), degAudio.Len(), degAudio.SampleRate)

	report := &scoreReport{
		Reference:  args[0],
		Degraded:   args[1],
		SampleRate: refAudio.SampleRate,
	}

	if scoreAllChannels {
		ref := stoi.SignalBatch{Channels: refAudio.Channels, SampleRate: refAudio.SampleRate}
		deg := stoi.SignalBatch{Channels: degAudio.Channels, SampleRate: degAudio.SampleRate}
		results, cached, err := s.scoreChannels(ctx, ref, deg, s.mode)
		if err != nil {
			return err
		}
		for i, r := range results {
			p := newPairScore(r, scoreOpts.sentinel, cached[i])
			p.Channel = i
			report.Results = append(report.Results, p)
		}
	} else {
		x, err := selectChannel(refAudio, scoreChannel)
		if err != nil {
			return fmt.Errorf("reference: %w", err)
		}
		y, err := selectChannel(degAudio, scoreChannel)
		if err != nil {
			return fmt.Errorf("degraded: %w", err)
		}
		r, cached, err := s.score(ctx,
			stoi.Signal1D{Samples: x, SampleRate: refAudio.SampleRate},
			stoi.Signal1D{Samples: y, SampleRate: degAudio.SampleRate},
			s.mode)
		if err != nil {
			return err
		}
		p := newPairScore(r, scoreOpts.sentinel, cached)
		p.Channel = scoreChannel
		report.Results = append(report.Results, p)
	}

	if err := outputResult(report); err != nil {
		return err
	}
	if scoreOpts.strict {
		for _, p := range report.Results {
			if p.Status != stoi.StatusOK {
				return fmt.Errorf("%s: %w", p.label(), stoi.Result{Status: p.Status}.Err())
			}
		}
	}
	return nil
}
