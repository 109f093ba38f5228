package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/vault-sync/internal/adapter"
	"github.com/MKhiriev/vault-sync/internal/client"
	"github.com/MKhiriev/vault-sync/internal/config"
	"github.com/MKhiriev/vault-sync/internal/crypto"
	"github.com/MKhiriev/vault-sync/internal/logger"
	"github.com/MKhiriev/vault-sync/internal/store"
	"github.com/MKhiriev/vault-sync/internal/tui"
	"github.com/MKhiriev/vault-sync/internal/workers"
	"github.com/MKhiriev/vault-sync/migrations"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewClientLogger("vault-sync-client")
	cfg, err := config.GetClientConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	serverAdapter, err := adapter.NewHTTPServerAdapter(cfg.Adapter, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create server adapter")
	}

	session := client.NewSession(
		serverAdapter,
		crypto.NewKeyring(),
		crypto.NewEventCodec(),
		workers.NewKDFPool(cfg.Workers.KDFWorkers),
		log,
	)

	ctx := context.Background()

	choice, err := tui.LoginFlow(ctx)
	if err != nil {
		if errors.Is(err, tui.ErrUserQuit) {
			return
		}
		log.Fatal().Err(err).Msg("login flow error")
	}

	// a synced passkey maps to the same entity on every device, so both
	// paths start with a registration
	if err = session.Bootstrap(ctx, choice.CredentialID); err != nil {
		log.Fatal().Err(err).Msg("entity registration error")
	}

	if !choice.Register {
		if err = session.ConsumeInvite(ctx, choice.InviteCode); err != nil {
			log.Fatal().Err(err).Msg("device link error")
		}
	}

	if cfg.Storage.DB.DSN != "" {
		db, dbErr := store.NewConnectSQLite(ctx, cfg.Storage.DB, log)
		if dbErr != nil {
			log.Fatal().Err(dbErr).Msg("open local event cache")
		}
		if dbErr = migrations.Migrate(db.DB, "sqlite3"); dbErr != nil {
			log.Fatal().Err(dbErr).Msg("migrate local event cache")
		}

		session.AttachCache(store.NewEventRepository(db, log))
		if dbErr = session.LoadCachedState(ctx); dbErr != nil {
			log.Warn().Err(dbErr).Msg("cannot load cached state, continuing without it")
		}
	}

	ui := tui.New(session, buildVersion)

	app, err := client.NewApp(session, ui, cfg.Adapter, choice.Register, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init client app error")
	}

	if err = app.Run(); err != nil {
		log.Fatal().Err(err).Msg("client run error")
	}
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	if buildDate == "" {
		buildDate = "N/A"
	}
	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
