package workers

import "context"

// Workers aggregates background workers and runs them as one unit.
type Workers struct {
	workers []Worker
}

// NewWorkers returns an aggregate over the given workers.
func NewWorkers(ws ...Worker) *Workers {
	return &Workers{workers: ws}
}

// Run starts every worker in order. Workers that need to run concurrently
// spawn their own goroutines; Run itself returns once each worker's Run has.
func (w *Workers) Run(ctx context.Context) {
	for _, worker := range w.workers {
		worker.Run(ctx)
	}
}
