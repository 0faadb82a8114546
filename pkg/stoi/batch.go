package stoi

import (
	"context"
	"fmt"
	"sync"
)

// ComputeBatch scores every channel pair of ref and deg. Channels are
// independent and processed concurrently by up to the engine's worker
// count; results are returned in channel order.
//
// Cancelling ctx stops scheduling further channels and returns ctx.Err().
func (e *Engine) ComputeBatch(ctx context.Context, ref, deg SignalBatch, mode Mode) ([]Result, error) {
	if err := validateBatch(ref, deg); err != nil {
		return nil, err
	}

	results := make([]Result, ref.Len())
	errs := make([]error, ref.Len())
	sem := make(chan struct{}, e.workers)
	var wg sync.WaitGroup

schedule:
	for i := range ref.Channels {
		select {
		case <-ctx.Done():
			break schedule
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i], errs[i] = e.Compute(ref.Channel(i), deg.Channel(i), mode)
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("stoi: channel %d: %w", i, err)
		}
	}
	return results, nil
}
