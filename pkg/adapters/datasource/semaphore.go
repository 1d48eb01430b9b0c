package datasource

import "context"

// Semaphore bounds concurrent data-source operations. One semaphore is
// shared across a whole assessment run so statistics batches and the
// sample draw compete for the same budget.
type Semaphore chan struct{}

// NewSemaphore creates a semaphore admitting n concurrent operations.
func NewSemaphore(n int) Semaphore {
	if n < 1 {
		n = 1
	}
	return make(Semaphore, n)
}

// Acquire blocks until a slot is free or the context is done.
func (s Semaphore) Acquire(ctx context.Context) error {
	select {
	case s <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot acquired with Acquire.
func (s Semaphore) Release() {
	<-s
}
