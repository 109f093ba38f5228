// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import (
	"encoding/json"

	"github.com/MKhiriev/vault-sync/models"
)

// shareSource is the client-side state of one incoming share. Envelopes that
// arrive before the content key is registered are queued in arrival order;
// once the key lands, the queue is drained through the same apply path as
// live traffic. Ordering between drained and live envelopes is resolved by
// the source stream's server sequence, never by wall clock.
type shareSource struct {
	key     []byte
	pending []models.SharedEventEnvelope

	// properties is the set of property names granted from this source.
	// Frames from the source's own room carry no property scope, so the
	// grant set decides which properties the fold may touch.
	properties map[string]struct{}

	// lastSeq is the highest applied sequence per property name. An
	// envelope with a sequence at or below the recorded one is stale and
	// ignored.
	lastSeq map[string]int64

	// values holds the current plaintext JSON value per shared property.
	values map[string]json.RawMessage
}

func newShareSource() *shareSource {
	return &shareSource{
		properties: make(map[string]struct{}),
		lastSeq:    make(map[string]int64),
		values:     make(map[string]json.RawMessage),
	}
}

// grant records one granted property name.
func (s *shareSource) grant(propertyName string) {
	s.properties[propertyName] = struct{}{}
}

// enqueue holds env until a key is registered.
func (s *shareSource) enqueue(env models.SharedEventEnvelope) {
	s.pending = append(s.pending, env)
}

// drain hands back the queued envelopes in arrival order and empties the
// queue.
func (s *shareSource) drain() []models.SharedEventEnvelope {
	queued := s.pending
	s.pending = nil
	return queued
}

// accept reports whether the envelope's event is newer than everything
// already applied for its property, and records it if so.
func (s *shareSource) accept(env models.SharedEventEnvelope) bool {
	if env.Event.Sequence <= s.lastSeq[env.PropertyName] {
		return false
	}
	s.lastSeq[env.PropertyName] = env.Event.Sequence
	return true
}

// fold applies the decrypted event to the shared property map. Only the
// property named by the grant is visible; anything else in the event is
// outside the share's scope and dropped.
func (s *shareSource) fold(propertyName string, event models.Event) {
	switch e := event.(type) {
	case models.PropertySet:
		if e.Key == propertyName {
			s.values[e.Key] = e.Value
		}
	case models.PropertyDeleted:
		if e.Key == propertyName {
			delete(s.values, e.Key)
		}
	}
}
