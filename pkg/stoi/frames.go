package stoi

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// removeSilentFrames drops frame pairs whose energy on the gating signal
// lies DynamicRange dB or more below the loudest frame. Both signals are
// rebuilt from their kept windowed frames by overlap-add, so frame k of the
// result starts at k*HopSize. Removal is always paired.
func removeSilentFrames(x, y, w []float64, gate Gate) (xs, ys []float64, kept int) {
	numFrames := 0
	if span := len(x) - FrameSize; span > 0 {
		numFrames = (span + HopSize - 1) / HopSize
	}
	if numFrames == 0 {
		return nil, nil, 0
	}

	g := x
	if gate == GateDegraded {
		g = y
	}

	energy := make([]float64, numFrames)
	frame := make([]float64, FrameSize)
	maxEnergy := math.Inf(-1)
	for i := range energy {
		floats.MulTo(frame, w, g[i*HopSize:i*HopSize+FrameSize])
		energy[i] = 20 * math.Log10(floats.Norm(frame, 2)+eps)
		maxEnergy = max(maxEnergy, energy[i])
	}

	keep := make([]int, 0, numFrames)
	for i, e := range energy {
		if maxEnergy-DynamicRange-e < 0 {
			keep = append(keep, i)
		}
	}

	n := (len(keep)-1)*HopSize + FrameSize
	xs = make([]float64, n)
	ys = make([]float64, n)
	for k, i := range keep {
		src, dst := i*HopSize, k*HopSize
		for j, wj := range w {
			xs[dst+j] += wj * x[src+j]
			ys[dst+j] += wj * y[src+j]
		}
	}
	return xs, ys, len(keep)
}
