// Package stoi computes the Short-Time Objective Intelligibility measure
// (STOI) and its extended variant (ESTOI) of a degraded speech signal
// relative to a clean reference.
//
// The pipeline is strictly linear:
//
//	resample to 10 kHz -> remove silent frames -> one-third-octave band
//	envelopes -> 30-frame short-time segments -> per-segment correlation
//	-> mean
//
// An Engine holds the analysis tables (window, band matrix, resampler
// filters). They are computed once and shared read-only, so a single
// Engine serves any number of concurrent Compute calls.
//
// Compute never maps degenerate input to a score. Instead a Result carries a
// Status: StatusAllSilent when fewer than one segment of speech survives the
// silence gate, StatusNoValidSegments when every segment has a
// zero-variance envelope. The published tooling reports SilentScore (1e-5)
// for both; callers opt into that with Result.ScoreOr.
//
// Example usage:
//
//	res, err := stoi.Compute(clean, degraded, 16000, false)
//	if err != nil {
//	    log.Fatal(err) // invalid input
//	}
//	fmt.Println(res.ScoreOr(stoi.SilentScore))
package stoi
