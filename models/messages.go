// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "encoding/json"

// Realtime protocol message types. Client-to-server and server-to-client
// messages share one envelope shape ([ClientMessage] / [ServerMessage])
// discriminated by these tags.
const (
	// client -> server
	MessageSubscribe   = "subscribe"
	MessageUnsubscribe = "unsubscribe"
	MessageAppend      = "append"

	// server -> client
	MessageReplay      = "replay"
	MessageEvent       = "event"
	MessageSharedEvent = "sharedEvent"
	MessageError       = "error"
)

// ClientMessage is one inbound frame on the realtime connection.
type ClientMessage struct {
	// Type is one of MessageSubscribe, MessageUnsubscribe, MessageAppend.
	Type string `json:"type"`

	// EntityID names the room the message targets.
	EntityID string `json:"entity_id"`

	// Payload is the encrypted event to append. Only set for MessageAppend.
	Payload *EncryptedPayload `json:"payload,omitempty"`

	// PropertyHints names the properties the appended event touches, so
	// the hub can route the event to matching outgoing shares without
	// decrypting anything. Optional; routing metadata only.
	PropertyHints []string `json:"property_hints,omitempty"`
}

// SharedEventEnvelope wraps an event propagated across entities through a
// live share grant.
type SharedEventEnvelope struct {
	SourceEntityID string         `json:"source_entity_id"`
	PropertyName   string         `json:"property_name"`
	Event          EncryptedEvent `json:"event"`
}

// ServerMessage is one outbound frame on the realtime connection. Exactly
// one of the payload fields is set, matching Type.
type ServerMessage struct {
	// Type is one of MessageReplay, MessageEvent, MessageSharedEvent,
	// MessageError.
	Type string `json:"type"`

	// EntityID names the room the message originates from. Unset for
	// MessageError.
	EntityID string `json:"entity_id,omitempty"`

	// Events is the full replay, in append order. Set for MessageReplay.
	Events []EncryptedEvent `json:"events,omitempty"`

	// Event is one broadcast event. Set for MessageEvent.
	Event *EncryptedEvent `json:"event,omitempty"`

	// Shared is the cross-entity envelope. Set for MessageSharedEvent.
	Shared *SharedEventEnvelope `json:"shared,omitempty"`

	// Message is the operator-safe error text. Set for MessageError.
	Message string `json:"message,omitempty"`
}

// Encode serializes the message for the wire.
func (m ServerMessage) Encode() ([]byte, error) {
	return json.Marshal(m)
}
