// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package reducer folds a decrypted, ordered event sequence into the
// current logical state of an entity. Reduction is a pure left fold:
// replaying the same sequence always yields the same state, and replaying
// a prefix followed by the remaining suffix yields the same result as
// replaying the whole sequence at once. That property is what lets replay,
// echoed self-appends and live events all flow through one code path.
package reducer

import (
	"encoding/json"
	"maps"

	"github.com/MKhiriev/vault-sync/models"
)

// EntityState is the derived property map of one entity. It is never
// persisted; it exists only as the result of a reduction.
type EntityState struct {
	// EntityID is seeded by the first EntityCreated event in the stream.
	EntityID string

	// Properties maps property name to its current JSON value.
	Properties map[string]json.RawMessage
}

// Clone returns an independent copy of the state. Useful когда UI держит
// снапшот, а редьюсер продолжает применять события.
func (s *EntityState) Clone() *EntityState {
	if s == nil {
		return nil
	}
	return &EntityState{
		EntityID:   s.EntityID,
		Properties: maps.Clone(s.Properties),
	}
}

// Apply folds one event into state and returns the updated state.
//
// A nil state means no EntityCreated has been observed yet: every event
// except EntityCreated is ignored in that case. A second EntityCreated in
// the same stream never changes the seeded EntityID.
//
// Apply mutates state in place (when non-nil); callers that need an
// unchanging snapshot take a [EntityState.Clone] first.
func Apply(state *EntityState, event models.Event) *EntityState {
	switch e := event.(type) {
	case models.EntityCreated:
		if state == nil {
			return &EntityState{
				EntityID:   e.EntityID,
				Properties: make(map[string]json.RawMessage),
			}
		}
		return state
	case models.PropertySet:
		if state == nil {
			return nil
		}
		state.Properties[e.Key] = e.Value
		return state
	case models.PropertyDeleted:
		if state == nil {
			return nil
		}
		delete(state.Properties, e.Key)
		return state
	default:
		return state
	}
}

// Reduce folds an ordered event sequence left to right starting from the
// undefined (nil) state.
func Reduce(events []models.Event) *EntityState {
	var state *EntityState
	for _, event := range events {
		state = Apply(state, event)
	}
	return state
}
