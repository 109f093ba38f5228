// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package app contains shared application-layer constants used across the
// vault-sync server handlers and middleware.
//
// All Msg* constants are human-readable message strings that are written into
// HTTP response bodies or log entries to describe the outcome of an operation.
// Keeping them in one place ensures consistent wording throughout the API.
package app

const (
	// MsgInvalidJSON is returned when the request body cannot be decoded.
	MsgInvalidJSON = "Invalid JSON was passed"

	// MsgInvalidDataProvided is returned when a decoded request fails basic
	// validation (e.g. missing required fields).
	MsgInvalidDataProvided = "invalid data provided"

	// MsgNoEntityIDProvided is returned when a handler requires an entity id
	// (extracted from the JWT claim) but none is present in the request
	// context.
	MsgNoEntityIDProvided = "no entity id was given"

	// MsgInvalidOrExpiredCode is the single client-facing text for every way
	// a code consumption can fail: unknown code, expired code, seal that
	// does not open. One message regardless of cause, so a caller guessing
	// codes learns nothing about which stage rejected it.
	MsgInvalidOrExpiredCode = "invalid or expired code"

	// MsgCodeAlreadyRegistered is returned when a create request reuses an
	// invite or share code that is still pending.
	MsgCodeAlreadyRegistered = "code already registered"

	// MsgAlreadyConsumed is returned when a consume request races another
	// device and loses: the code was valid but is already spent.
	MsgAlreadyConsumed = "already consumed"

	// MsgOperationNotAllowed is returned when a structurally valid request
	// is semantically forbidden, e.g. consuming one's own share code.
	MsgOperationNotAllowed = "operation not allowed"

	// MsgMissingRevokeSide is returned when a revoke request names neither
	// side of the grant.
	MsgMissingRevokeSide = "source or target entity id is required"

	// MsgForeignGrant is returned when the authenticated entity attempts to
	// revoke a grant it is not a party to.
	MsgForeignGrant = "grant does not involve the session entity"
)
