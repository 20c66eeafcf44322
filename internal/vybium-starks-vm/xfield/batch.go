package xfield

import (
	"fmt"
	"sync"
)

// BatchInverse inverts every element of elements using Montgomery's trick:
// one accumulated-product inversion instead of len(elements) individual
// inversions. Mirrors core.Field.BatchInversion's three-phase structure.
func BatchInverse(elements []Element) ([]Element, error) {
	n := len(elements)
	if n == 0 {
		return []Element{}, nil
	}
	if n == 1 {
		inv, err := elements[0].Inv()
		if err != nil {
			return nil, err
		}
		return []Element{inv}, nil
	}

	for i, e := range elements {
		if e.IsZero() {
			return nil, fmt.Errorf("xfield: cannot batch-invert zero element at index %d", i)
		}
	}

	acc := make([]Element, n)
	acc[0] = elements[0]
	for i := 1; i < n; i++ {
		acc[i] = acc[i-1].Mul(elements[i])
	}

	accInv, err := acc[n-1].Inv()
	if err != nil {
		return nil, fmt.Errorf("xfield: failed to invert accumulator: %w", err)
	}

	results := make([]Element, n)
	for i := n - 1; i > 0; i-- {
		results[i] = accInv.Mul(acc[i-1])
		accInv = accInv.Mul(elements[i])
	}
	results[0] = accInv

	return results, nil
}

// ParallelBatchInverse splits elements into numWorkers chunks and batch
// inverts each chunk concurrently, falling back to the serial algorithm
// below a size threshold. Mirrors core.Field.ParallelBatchInversion.
func ParallelBatchInverse(elements []Element, numWorkers int) ([]Element, error) {
	n := len(elements)
	if n == 0 {
		return []Element{}, nil
	}
	if n < 1000 || numWorkers <= 1 {
		return BatchInverse(elements)
	}

	chunkSize := (n + numWorkers - 1) / numWorkers
	results := make([]Element, n)

	var wg sync.WaitGroup
	errCh := make(chan error, numWorkers)

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			start := workerID * chunkSize
			if start >= n {
				return
			}
			end := start + chunkSize
			if end > n {
				end = n
			}
			inverted, err := BatchInverse(elements[start:end])
			if err != nil {
				errCh <- fmt.Errorf("worker %d: %w", workerID, err)
				return
			}
			copy(results[start:end], inverted)
		}(w)
	}

	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
