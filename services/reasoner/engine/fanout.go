// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/AleutianAI/AleutianReason/services/reasoner/datatypes"
)

// fanOut runs k independent reasoning paths under the engine's
// concurrency cap and joins over all of them. Failures are isolated:
// each slot i holds either results[i] or errs[i], never both.
//
// When the context deadline expires mid-flight, in-progress paths fail
// fast on their next model call and unstarted paths are never launched;
// completed paths are still returned so the voter can proceed on a
// degraded sample set.
func (e *Engine) fanOut(ctx context.Context, base pathSpec, k int) ([]*datatypes.ReasoningPath, []error) {
	results := make([]*datatypes.ReasoningPath, k)
	errs := make([]error, k)

	sem := semaphore.NewWeighted(int64(e.maxConcurrent))
	var wg sync.WaitGroup

	for i := 0; i < k; i++ {
		if err := sem.Acquire(ctx, 1); err != nil {
			errs[i] = &datatypes.ReasoningPathError{SampleNumber: i + 1, Err: err}
			continue
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer sem.Release(1)

			spec := base
			spec.sampleNumber = i + 1
			results[i], errs[i] = e.runPath(ctx, spec)
		}(i)
	}

	wg.Wait()
	return results, errs
}
