// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client implements the device-side session runtime.
//
// A [Session] owns the sync WebSocket, the reduced entity state and the
// per-source queues of shared event envelopes; the terminal UI and the
// command binary drive everything through it.
package client
