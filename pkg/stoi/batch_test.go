package stoi

import (
	"context"
	"errors"
	"testing"
)

func TestComputeBatch(t *testing.T) {
	const n = 20000
	ref := SignalBatch{SampleRate: 8000}
	deg := SignalBatch{SampleRate: 8000}
	for c := 0; c < 4; c++ {
		x := uniform(uint64(200+c), n)
		ref.Channels = append(ref.Channels, x)
		deg.Channels = append(deg.Channels, mix(x, uniform(uint64(300+c), n), 0.2*float64(c+1)))
	}

	e := mustEngine(t, DefaultConfig(), WithWorkers(2))
	got, err := e.ComputeBatch(context.Background(), ref, deg, Standard)
	if err != nil {
		t.Fatalf("ComputeBatch: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}
	for c := range got {
		want, err := e.Compute(ref.Channel(c), deg.Channel(c), Standard)
		if err != nil {
			t.Fatalf("Compute channel %d: %v", c, err)
		}
		if got[c] != want {
			t.Errorf("channel %d: %+v, want %+v", c, got[c], want)
		}
	}
	// More noise, lower intelligibility.
	for c := 1; c < len(got); c++ {
		if got[c].Score >= got[c-1].Score {
			t.Errorf("channel %d score %v not below channel %d score %v", c, got[c].Score, c-1, got[c-1].Score)
		}
	}
}

func TestComputeBatchValidation(t *testing.T) {
	a := uniform(1, 5000)
	b := uniform(2, 4000)
	tests := []struct {
		name     string
		ref, deg SignalBatch
	}{
		{"no channels", SignalBatch{SampleRate: 8000}, SignalBatch{SampleRate: 8000}},
		{"channel count", SignalBatch{[][]float64{a, a}, 8000}, SignalBatch{[][]float64{a}, 8000}},
		{"ragged", SignalBatch{[][]float64{a, b}, 8000}, SignalBatch{[][]float64{a, b}, 8000}},
		{"rate mismatch", SignalBatch{[][]float64{a}, 8000}, SignalBatch{[][]float64{a}, 16000}},
		{"zero rate", SignalBatch{[][]float64{a}, 0}, SignalBatch{[][]float64{a}, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Default().ComputeBatch(context.Background(), tt.ref, tt.deg, Standard)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestComputeBatchCanceled(t *testing.T) {
	x := uniform(5, 8000)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Default().ComputeBatch(ctx, SignalBatch{[][]float64{x}, 8000}, SignalBatch{[][]float64{x}, 8000}, Standard)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
