// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides transport-layer abstractions for communicating with
// the vault-sync server control plane.
//
// The primary abstraction is [ServerAdapter], which decouples client code from
// the underlying protocol. The package ships an HTTP/REST implementation
// ([NewHTTPServerAdapter]); the realtime event stream is not part of this
// package, it is dialed separately by the client session.
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] for transport-agnostic error
// handling (e.g. [ErrConflict] for 409, [ErrUnauthorized] for 401).
package adapter

import (
	"context"

	"github.com/MKhiriev/vault-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/server_adapter_mock.go -package=mock

// ServerAdapter defines transport-agnostic communication with the vault-sync
// control plane. Implementations are responsible for serialisation,
// authentication header management, and mapping transport-level errors to the
// sentinel values defined in this package.
type ServerAdapter interface {
	// SetToken stores the bearer token that will be attached to all
	// subsequent authenticated requests.
	SetToken(token string)

	// Token returns the bearer token currently held by the adapter, or an
	// empty string if none has been set.
	Token() string

	// Register exchanges a passkey credential identifier for a session.
	// On success the adapter stores the returned token for subsequent
	// requests. Registration is idempotent per credential id.
	Register(ctx context.Context, req models.RegisterRequest) (models.RegisterResponse, error)

	// CreateInvite registers a one-time device-link code for the session
	// entity. Returns [ErrConflict] if the code is already registered.
	CreateInvite(ctx context.Context, req models.CreateInviteRequest) error

	// ConsumeInvite claims a pending invite code and returns the sealed
	// private key. Unknown, expired and already-consumed codes all surface
	// as [ErrNotFound].
	ConsumeInvite(ctx context.Context, code string) (models.ConsumeInviteResponse, error)

	// CreateShare registers a one-time share code for one property of the
	// session entity.
	CreateShare(ctx context.Context, req models.CreateShareRequest) error

	// ConsumeShare claims a pending share code for the session entity and
	// returns the sealed content key together with the share scope.
	ConsumeShare(ctx context.Context, code string) (models.ConsumeShareResponse, error)

	// RevokeShare removes a live grant from either side. Returns whether a
	// grant was actually removed.
	RevokeShare(ctx context.Context, req models.RevokeShareRequest) (bool, error)

	// ListShares returns the live grants involving the session entity,
	// both directions.
	ListShares(ctx context.Context) (models.ShareList, error)

	// EraseEntity permanently deletes the session entity's event log,
	// codes and grants.
	EraseEntity(ctx context.Context) error

	// ServerVersion reports the server build version.
	ServerVersion(ctx context.Context) (string, error)
}
