// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"time"

	"github.com/MKhiriev/vault-sync/internal/logger"
)

// CodeSweeper periodically removes expired invite and share codes. Expiry is
// still enforced lazily at consume time; the sweeper only reclaims rows that
// no consume will ever touch again.
type CodeSweeper struct {
	sweep    func(ctx context.Context) (int64, error)
	interval time.Duration
	logger   *logger.Logger
}

// NewCodeSweeper returns a sweeper that calls sweep every interval.
// An interval below one second is raised to one second.
func NewCodeSweeper(sweep func(ctx context.Context) (int64, error), interval time.Duration, log *logger.Logger) *CodeSweeper {
	if interval < time.Second {
		interval = time.Second
	}
	return &CodeSweeper{
		sweep:    sweep,
		interval: interval,
		logger:   log,
	}
}

// Run sweeps once immediately, then on every tick until ctx is cancelled.
// The ticker loop runs in its own goroutine; Run returns after the first sweep.
func (s *CodeSweeper) Run(ctx context.Context) {
	// codes expired while the server was down
	s.sweepOnce(ctx)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweepOnce(ctx)
			}
		}
	}()
}

func (s *CodeSweeper) sweepOnce(ctx context.Context) {
	if _, err := s.sweep(ctx); err != nil {
		s.logger.Warn().Str("func", "CodeSweeper.sweepOnce").Err(err).Msg("sweep of expired codes failed")
	}
}
