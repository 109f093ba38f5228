// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MKhiriev/vault-sync/internal/logger"
)

// mockWorker is a test implementation of the Worker interface
// that tracks how many times Run was called.
type mockWorker struct {
	runCount int
}

func (m *mockWorker) Run(_ context.Context) {
	m.runCount++
}

func TestWorkers_Run_AllWorkersAreCalled(t *testing.T) {
	w1 := &mockWorker{}
	w2 := &mockWorker{}
	w3 := &mockWorker{}

	ws := NewWorkers(w1, w2, w3)
	ws.Run(context.Background())

	for i, w := range []*mockWorker{w1, w2, w3} {
		if w.runCount != 1 {
			t.Errorf("worker[%d]: expected runCount=1, got %d", i, w.runCount)
		}
	}
}

func TestWorkers_Run_Empty(t *testing.T) {
	ws := NewWorkers()

	// Should not panic on empty workers list
	ws.Run(context.Background())
}

func TestWorkers_Run_Order(t *testing.T) {
	order := []int{}

	// orderWorker records its index into the shared order slice
	newOrderWorker := func(id int) Worker {
		return &orderWorker{id: id, order: &order}
	}

	ws := NewWorkers(
		newOrderWorker(1),
		newOrderWorker(2),
		newOrderWorker(3),
	)
	ws.Run(context.Background())

	expected := []int{1, 2, 3}
	for i, v := range expected {
		if order[i] != v {
			t.Errorf("expected order[%d]=%d, got %d", i, v, order[i])
		}
	}
}

func TestCodeSweeper_Run_SweepsImmediately(t *testing.T) {
	var calls atomic.Int64
	sweep := func(_ context.Context) (int64, error) {
		calls.Add(1)
		return 0, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewCodeSweeper(sweep, time.Hour, logger.Nop())
	s.Run(ctx)

	if got := calls.Load(); got != 1 {
		t.Errorf("expected one immediate sweep, got %d", got)
	}
}

func TestCodeSweeper_Run_SweepsOnTicker(t *testing.T) {
	var calls atomic.Int64
	sweep := func(_ context.Context) (int64, error) {
		calls.Add(1)
		return 0, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewCodeSweeper(sweep, time.Second, logger.Nop())
	s.interval = 20 * time.Millisecond // NewCodeSweeper raises anything shorter
	s.Run(ctx)

	deadline := time.After(2 * time.Second)
	for calls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 3 sweeps, got %d", calls.Load())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestCodeSweeper_Run_StopsOnCancel(t *testing.T) {
	var calls atomic.Int64
	sweep := func(_ context.Context) (int64, error) {
		calls.Add(1)
		return 0, nil
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := NewCodeSweeper(sweep, time.Second, logger.Nop())
	s.interval = 20 * time.Millisecond
	s.Run(ctx)
	cancel()

	time.Sleep(50 * time.Millisecond)
	after := calls.Load()
	time.Sleep(100 * time.Millisecond)

	if got := calls.Load(); got != after {
		t.Errorf("sweeper kept running after cancel: %d -> %d", after, got)
	}
}

// orderWorker is a helper that appends its ID to a shared slice on Run.
type orderWorker struct {
	id    int
	order *[]int
}

func (o *orderWorker) Run(_ context.Context) {
	*o.order = append(*o.order, o.id)
}
