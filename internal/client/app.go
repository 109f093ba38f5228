// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MKhiriev/vault-sync/internal/config"
	"github.com/MKhiriev/vault-sync/internal/logger"
)

// UI is the interactive surface the app drives once the session is live.
type UI interface {
	Run(ctx context.Context) error
}

// App ties a keyed session to the UI for the lifetime of the process.
type App struct {
	session    *Session
	ui         UI
	adapterCfg config.ClientAdapter

	// seedEntity appends the EntityCreated event after connecting. Safe to
	// repeat on an existing stream: the reducer never re-seeds.
	seedEntity bool

	logger *logger.Logger
}

// NewApp wires the session runtime. The session must already hold keys.
func NewApp(session *Session, ui UI, adapterCfg config.ClientAdapter, seedEntity bool, log *logger.Logger) (*App, error) {
	if session.EntityID() == "" {
		return nil, fmt.Errorf("session has no entity: bootstrap or consume an invite first")
	}
	return &App{session: session, ui: ui, adapterCfg: adapterCfg, seedEntity: seedEntity, logger: log}, nil
}

// Run implements [Client]. It connects the sync socket, starts the read
// loop and blocks in the UI until the user quits or the process is
// signalled.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := a.session.Connect(ctx, a.adapterCfg.HTTPAddress); err != nil {
		return fmt.Errorf("connect session: %w", err)
	}

	if a.seedEntity {
		if err := a.session.SeedEntity(); err != nil {
			return fmt.Errorf("seed entity stream: %w", err)
		}
	}

	go func() {
		if err := a.session.Run(ctx); err != nil && ctx.Err() == nil {
			a.logger.Error().Err(err).Str("func", "App.Run").Msg("sync connection closed")
			stop()
		}
	}()

	return a.ui.Run(ctx)
}
