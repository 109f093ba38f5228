// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"strings"
	"time"
)

// Fallbacks applied by validate when a tunable is left unset.
const (
	defaultCodeTTL        = 15 * time.Minute
	defaultSweepInterval  = 10 * time.Minute
	defaultBackfillWindow = 10
	defaultSendBufferSize = 32
	defaultKDFWorkers     = 4
)

// validate checks that the final merged [StructuredConfig] satisfies all
// application invariants before it is used at startup, and fills in
// defaults for optional tunables.
//
// Returns nil if the configuration is valid, or a descriptive error
// otherwise.
func (cfg *StructuredConfig) validate() error {
	if cfg.Hub.BackfillWindow <= 0 {
		cfg.Hub.BackfillWindow = defaultBackfillWindow
	}
	if cfg.Hub.SendBufferSize <= 0 {
		cfg.Hub.SendBufferSize = defaultSendBufferSize
	}
	if cfg.Workers.KDFWorkers <= 0 {
		cfg.Workers.KDFWorkers = defaultKDFWorkers
	}
	if cfg.App.CodeTTL <= 0 {
		cfg.App.CodeTTL = defaultCodeTTL
	}
	if cfg.App.SweepInterval <= 0 {
		cfg.App.SweepInterval = defaultSweepInterval
	}

	return nil
}

func (cfg *ClientConfig) validate() error {
	if cfg.Storage.DB.DSN == "" || strings.Contains(cfg.Storage.DB.DSN, "memory") {
		return ErrInvalidStorageConfigs
	}

	if cfg.Adapter.HTTPAddress == "" || cfg.Adapter.RequestTimeout == 0 {
		return ErrInvalidAdapterConfigs
	}

	return nil
}
