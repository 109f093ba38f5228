// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EventType discriminates the closed set of logical vault mutations.
type EventType string

const (
	// EventEntityCreated seeds an entity's state. Only the first occurrence
	// in a stream matters; later ones are ignored by the reducer.
	EventEntityCreated EventType = "entity_created"

	// EventPropertySet sets or overwrites a single named property.
	EventPropertySet EventType = "property_set"

	// EventPropertyDeleted removes a named property if present.
	EventPropertyDeleted EventType = "property_deleted"
)

// Event is the closed sum of logical vault mutations. Exactly three types
// implement it: [EntityCreated], [PropertySet] and [PropertyDeleted].
// The sealed method keeps external packages from adding variants, so a
// switch over the concrete types stays exhaustive.
type Event interface {
	Type() EventType
	sealedEvent()
}

// EntityCreated records the birth of an entity. It is always the first
// event appended to a fresh stream.
type EntityCreated struct {
	EntityID string `json:"entity_id"`
}

// PropertySet records a property write. Value is an arbitrary JSON value;
// the server never sees it in plaintext.
type PropertySet struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// PropertyDeleted records a property removal.
type PropertyDeleted struct {
	Key string `json:"key"`
}

func (EntityCreated) Type() EventType   { return EventEntityCreated }
func (PropertySet) Type() EventType     { return EventPropertySet }
func (PropertyDeleted) Type() EventType { return EventPropertyDeleted }

func (EntityCreated) sealedEvent()   {}
func (PropertySet) sealedEvent()     {}
func (PropertyDeleted) sealedEvent() {}

// ErrUnknownEventType is returned by [DecodeEvent] when the serialized tag
// does not name one of the three event variants.
var ErrUnknownEventType = errors.New("unknown event type")

// eventEnvelope is the serialized form of an [Event]: a type tag plus the
// variant's own fields. This is the only place where the tag is dispatched
// on; everywhere else the compiler checks the sum.
type eventEnvelope struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

// EncodeEvent serializes an [Event] into its tagged JSON envelope. The
// result is the plaintext handed to the event codec for encryption.
func EncodeEvent(event Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event data: %w", err)
	}

	return json.Marshal(eventEnvelope{Type: event.Type(), Data: data})
}

// DecodeEvent parses a tagged JSON envelope back into a concrete [Event].
// Returns [ErrUnknownEventType] if the tag is not one of the closed set.
func DecodeEvent(raw []byte) (Event, error) {
	var envelope eventEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("unmarshal event envelope: %w", err)
	}

	switch envelope.Type {
	case EventEntityCreated:
		var event EntityCreated
		if err := json.Unmarshal(envelope.Data, &event); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", envelope.Type, err)
		}
		return event, nil
	case EventPropertySet:
		var event PropertySet
		if err := json.Unmarshal(envelope.Data, &event); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", envelope.Type, err)
		}
		return event, nil
	case EventPropertyDeleted:
		var event PropertyDeleted
		if err := json.Unmarshal(envelope.Data, &event); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", envelope.Type, err)
		}
		return event, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, envelope.Type)
	}
}
