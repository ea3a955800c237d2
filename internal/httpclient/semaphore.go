package httpclient

import "context"

// semaphore is a counting semaphore bounding the number of in-flight HTTP
// requests across every namespace-bound sub-client sharing one Client
// (spec §5: "one process-wide counting semaphore").
type semaphore struct {
	slots chan struct{}
}

func newSemaphore(capacity int) *semaphore {
	if capacity <= 0 {
		capacity = 1
	}
	return &semaphore{slots: make(chan struct{}, capacity)}
}

// acquire blocks until a permit is available or ctx is cancelled.
func (s *semaphore) acquire(ctx context.Context) error {
	select {
	case s.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *semaphore) release() {
	<-s.slots
}
