package stoi

import (
	"math"
	"testing"
)

func ramp(n int, slope, offset float64) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = offset + slope*float64(i)
	}
	return v
}

func envelopeMatrix(frames int, f func(b, t int) float64) [][]float64 {
	m := newMatrix(NumBands, frames)
	for b := range m {
		for t := range m[b] {
			m[b][t] = f(b, t)
		}
	}
	return m
}

func TestBuildSegments(t *testing.T) {
	ref := envelopeMatrix(40, func(b, t int) float64 { return float64(100*b + t) })
	deg := envelopeMatrix(40, func(b, t int) float64 { return -float64(100*b + t) })

	segs := buildSegments(ref, deg, SegmentLen)
	if len(segs) != 40-SegmentLen+1 {
		t.Fatalf("len = %d, want %d", len(segs), 40-SegmentLen+1)
	}
	s := segs[7]
	if len(s.ref) != NumBands || len(s.ref[3]) != SegmentLen {
		t.Fatalf("segment shape [%d][%d]", len(s.ref), len(s.ref[3]))
	}
	if s.ref[3][0] != 307 || s.deg[3][SegmentLen-1] != -(307+SegmentLen-1) {
		t.Errorf("segment 7 band 3 = %v..., deg tail %v", s.ref[3][0], s.deg[3][SegmentLen-1])
	}
	if got := buildSegments(envelopeMatrix(29, func(int, int) float64 { return 1 }), envelopeMatrix(29, func(int, int) float64 { return 1 }), SegmentLen); got != nil {
		t.Errorf("29 frames: got %d segments, want none", len(got))
	}
}

func TestCenter(t *testing.T) {
	tests := []struct {
		name string
		v    []float64
		want bool
	}{
		{"ramp", ramp(30, 1, 5), true},
		{"constant", ramp(30, 0, 5), false},
		{"zero", make([]float64, 30), false},
		{"tiny wiggle on large offset", append(ramp(29, 0, 1e6), 1e6+1e-6), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := append([]float64(nil), tt.v...)
			if got := center(v); got != tt.want {
				t.Fatalf("center = %v, want %v", got, tt.want)
			}
			mean := 0.0
			for _, x := range v {
				mean += x
			}
			if math.Abs(mean/float64(len(v))) > 1e-6 {
				t.Fatalf("mean after centring = %v", mean/float64(len(v)))
			}
		})
	}
}

func TestScoreStandardPerfect(t *testing.T) {
	ref := envelopeMatrix(35, func(b, t int) float64 { return 1 + math.Sin(float64(t+b)) })
	// A scaled copy correlates perfectly.
	deg := envelopeMatrix(35, func(b, t int) float64 { return 0.1 * (1 + math.Sin(float64(t+b))) })
	got := scoreStandard(buildSegments(ref, deg, SegmentLen))
	if got.units != 6*NumBands || got.skipped != 0 {
		t.Fatalf("units = %d skipped = %d, want %d and 0", got.units, got.skipped, 6*NumBands)
	}
	if math.Abs(got.mean()-1) > 1e-12 {
		t.Fatalf("mean = %v, want 1", got.mean())
	}
}

func TestScoreStandardClips(t *testing.T) {
	// A single loud spike in the degraded envelope dominates the
	// correlation.
	ref := envelopeMatrix(SegmentLen, func(b, t int) float64 { return 1 + 0.1*float64(t%3) })
	deg := envelopeMatrix(SegmentLen, func(b, t int) float64 {
		if t == 5 {
			return 1000
		}
		return 1 + 0.1*float64(t%3)
	})
	segs := buildSegments(ref, deg, SegmentLen)
	got := scoreStandard(segs)
	if got.units != NumBands {
		t.Fatalf("units = %d, want %d", got.units, NumBands)
	}
	if m := got.mean(); m <= -1 || m >= 0.9 {
		t.Fatalf("mean = %v, want within (-1, 0.9)", m)
	}
}

func TestScoreStandardSkipsConstant(t *testing.T) {
	ref := envelopeMatrix(SegmentLen, func(b, t int) float64 {
		if b == 0 {
			return 2 // constant band
		}
		return float64(t % 4)
	})
	deg := envelopeMatrix(SegmentLen, func(b, t int) float64 { return float64(t % 4) })
	got := scoreStandard(buildSegments(ref, deg, SegmentLen))
	if got.skipped != 1 || got.units != NumBands-1 {
		t.Fatalf("units = %d skipped = %d, want %d and 1", got.units, got.skipped, NumBands-1)
	}
}

func TestScoreExtended(t *testing.T) {
	ref := envelopeMatrix(32, func(b, t int) float64 { return 1 + math.Sin(0.3*float64(t)+float64(b*b)) })
	got := scoreExtended(buildSegments(ref, ref, SegmentLen))
	if got.units != 3 || math.Abs(got.mean()-1) > 1e-12 {
		t.Fatalf("identity: units = %d mean = %v, want 3 and 1", got.units, got.mean())
	}

	silent := envelopeMatrix(32, func(int, int) float64 { return 0 })
	got = scoreExtended(buildSegments(ref, silent, SegmentLen))
	if got.units != 0 || got.skipped != 3 {
		t.Fatalf("silent: units = %d skipped = %d, want 0 and 3", got.units, got.skipped)
	}
}

func TestRemoveSilentFrames(t *testing.T) {
	w := Default().window
	x := append(uniform(1, 1280), make([]float64, 1280)...)
	y := uniform(2, len(x))

	xs, ys, kept := removeSilentFrames(x, y, w, GateReference)
	// Frames 10..17 lie entirely in the silent half.
	if kept != 10 {
		t.Fatalf("kept = %d, want 10 of 18 frames", kept)
	}
	if want := (kept-1)*HopSize + FrameSize; len(xs) != want || len(ys) != want {
		t.Fatalf("len = %d/%d, want %d", len(xs), len(ys), want)
	}

	// Gating on the degraded signal keeps every frame of loud noise.
	_, _, kept = removeSilentFrames(x, y, w, GateDegraded)
	if kept != 18 {
		t.Fatalf("degraded gate kept = %d, want 18", kept)
	}

	if xs, _, kept := removeSilentFrames(x[:FrameSize], y[:FrameSize], w, GateReference); xs != nil || kept != 0 {
		t.Fatalf("one frame: kept = %d, want 0", kept)
	}
}
