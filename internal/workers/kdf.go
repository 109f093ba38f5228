package workers

import "context"

// KDFPool caps how many memory-hard key derivations may run at once. Each
// Argon2id invocation allocates tens of MiB; an unbounded burst of code
// seal/open calls would exhaust the process before the allocator noticed.
type KDFPool struct {
	slots chan struct{}
}

// NewKDFPool returns a pool admitting at most size concurrent derivations.
// A size below one is raised to one.
func NewKDFPool(size int) *KDFPool {
	if size < 1 {
		size = 1
	}
	return &KDFPool{
		slots: make(chan struct{}, size),
	}
}

// Do runs fn once a slot is free, releasing the slot when fn returns.
// Returns ctx.Err() without running fn if the context ends first.
func (p *KDFPool) Do(ctx context.Context, fn func() error) error {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-p.slots }()

	return fn()
}
