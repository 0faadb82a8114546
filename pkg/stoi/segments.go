package stoi

// segment is one short-time segment: SegmentLen consecutive frames of every
// band envelope of both signals. Rows alias the envelope matrices and must
// not be modified.
type segment struct {
	ref, deg [][]float64 // [NumBands][SegmentLen]
}

// buildSegments slides a window of n frames with unit hop over the band
// envelopes. Envelopes are indexed by retained frame, so no segment spans
// removed silence. Returns nil when there are fewer than n frames.
func buildSegments(refEnv, degEnv [][]float64, n int) []segment {
	if len(refEnv) == 0 {
		return nil
	}
	numFrames := len(refEnv[0])
	if numFrames < n {
		return nil
	}
	segs := make([]segment, numFrames-n+1)
	for m := range segs {
		s := segment{
			ref: make([][]float64, len(refEnv)),
			deg: make([][]float64, len(degEnv)),
		}
		for b := range refEnv {
			s.ref[b] = refEnv[b][m : m+n : m+n]
			s.deg[b] = degEnv[b][m : m+n : m+n]
		}
		segs[m] = s
	}
	return segs
}
