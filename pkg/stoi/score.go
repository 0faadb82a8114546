package stoi

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// tally accumulates per-unit correlations. A unit is a (segment, band) pair
// in standard mode and a whole segment in extended mode.
type tally struct {
	sum     float64
	units   int
	skipped int
}

func (t tally) mean() float64 {
	return t.sum / float64(t.units)
}

// clipFactor is the upper bound of the scaled degraded envelope relative to
// the reference envelope.
func clipFactor() float64 {
	return 1 + math.Pow(10, -Beta/20)
}

// scoreStandard computes the clipped correlation of every (segment, band)
// pair. Pairs with a constant reference or clipped degraded envelope are
// skipped.
func scoreStandard(segs []segment) tally {
	clip := clipFactor()
	xc := make([]float64, SegmentLen)
	yp := make([]float64, SegmentLen)

	var t tally
	for _, s := range segs {
		for b, x := range s.ref {
			y := s.deg[b]

			// Scale y to the energy of x, then bound it from above.
			alpha := floats.Norm(x, 2) / (floats.Norm(y, 2) + eps)
			for i := range yp {
				yp[i] = min(alpha*y[i], x[i]*clip)
			}
			copy(xc, x)

			if !center(xc) || !center(yp) {
				t.skipped++
				continue
			}
			t.sum += floats.Dot(xc, yp) / ((floats.Norm(xc, 2) + eps) * (floats.Norm(yp, 2) + eps))
			t.units++
		}
	}
	return t
}

// scoreExtended computes the spectral correlation of every segment after
// row (time) and column (band) normalisation. Constant rows are zeroed; a
// segment is skipped when every row of either signal is constant.
func scoreExtended(segs []segment) tally {
	x := newMatrix(NumBands, SegmentLen)
	y := newMatrix(NumBands, SegmentLen)
	col := make([]float64, NumBands)

	var t tally
	for _, s := range segs {
		copyMatrix(x, s.ref)
		copyMatrix(y, s.deg)
		if normalizeRows(x) == 0 || normalizeRows(y) == 0 {
			t.skipped++
			continue
		}
		normalizeCols(x, col)
		normalizeCols(y, col)

		d := 0.0
		for b := range x {
			d += floats.Dot(x[b], y[b])
		}
		t.sum += d / SegmentLen
		t.units++
	}
	return t
}

// center subtracts the mean of v in place. It reports false when v is
// constant, meaning its centred norm vanishes relative to its raw norm.
func center(v []float64) bool {
	raw := floats.Norm(v, 2)
	floats.AddConst(-floats.Sum(v)/float64(len(v)), v)
	return floats.Norm(v, 2) > degenerateRatio*raw
}

// normalizeRows centres every row and scales it to unit norm. Constant rows
// are zeroed. Returns the number of non-constant rows.
func normalizeRows(m [][]float64) int {
	valid := 0
	for _, row := range m {
		if !center(row) {
			floats.Scale(0, row)
			continue
		}
		floats.Scale(1/(floats.Norm(row, 2)+eps), row)
		valid++
	}
	return valid
}

// normalizeCols centres every column across bands and scales it to unit
// norm. col is scratch space of len(m).
func normalizeCols(m [][]float64, col []float64) {
	for t := range m[0] {
		for b := range m {
			col[b] = m[b][t]
		}
		floats.AddConst(-floats.Sum(col)/float64(len(col)), col)
		scale := 1 / (floats.Norm(col, 2) + eps)
		for b := range m {
			m[b][t] = col[b] * scale
		}
	}
}

func newMatrix(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}

func copyMatrix(dst, src [][]float64) {
	for i := range dst {
		copy(dst[i], src[i])
	}
}
