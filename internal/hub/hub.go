// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package hub

import (
	"context"
	"errors"
	"sync"

	"github.com/MKhiriev/vault-sync/internal/config"
	"github.com/MKhiriev/vault-sync/internal/logger"
	"github.com/MKhiriev/vault-sync/internal/service"
	"github.com/MKhiriev/vault-sync/models"
)

// Conn is the hub's view of one realtime connection.
type Conn interface {
	// EntityID returns the authenticated session entity.
	EntityID() string

	// Send enqueues one outbound frame. Returns false when the connection
	// cannot accept it (buffer full or already closed).
	Send(msg models.ServerMessage) bool

	// Close tears the connection down. Safe to call more than once.
	Close()
}

// Hub fans encrypted events out to live connections. One room per entity:
// members receive every event appended to that entity's log, and events
// touching shared properties are additionally wrapped into sharedEvent
// envelopes for the rooms of share targets.
//
// The hub never looks inside ciphertext; routing is driven entirely by
// entity ids and client-supplied property hints.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[Conn]struct{}

	// entityGates maps entityID -> *sync.Mutex. The gate serializes the
	// append+broadcast and replay+join pairs for one entity, so a frame can
	// never fall between a subscriber's replay and its room membership, and
	// broadcast order always matches store order. Entries are never removed;
	// entity ids are low-cardinality per process lifetime.
	entityGates sync.Map

	events service.EventService
	shares service.ShareService

	backfillWindow int

	logger *logger.Logger
}

// NewHub builds a hub over the given services. Constructed once in main and
// injected into the transport layer.
func NewHub(events service.EventService, shares service.ShareService, cfg config.Hub, log *logger.Logger) *Hub {
	return &Hub{
		rooms:          make(map[string]map[Conn]struct{}),
		events:         events,
		shares:         shares,
		backfillWindow: cfg.BackfillWindow,
		logger:         log,
	}
}

// HandleMessage dispatches one inbound frame. Failures are reported as an
// error envelope to the triggering connection only; other room members are
// never notified.
func (h *Hub) HandleMessage(ctx context.Context, c Conn, msg models.ClientMessage) {
	log := logger.FromContext(ctx)

	var err error
	switch msg.Type {
	case models.MessageSubscribe:
		err = h.Subscribe(ctx, c, msg.EntityID)
	case models.MessageUnsubscribe:
		h.Unsubscribe(c, msg.EntityID)
	case models.MessageAppend:
		var payload models.EncryptedPayload
		if msg.Payload != nil {
			payload = *msg.Payload
		}
		err = h.Append(ctx, c, msg.EntityID, payload, msg.PropertyHints)
	default:
		err = ErrUnknownMessageType
	}

	if err != nil {
		log.Err(err).Str("func", "*Hub.HandleMessage").
			Str("type", msg.Type).
			Str("entity_id", msg.EntityID).
			Msg("realtime operation failed")
		h.sendError(c, errorText(err))
	}
}

// Subscribe adds the connection to the entity's room and sends the full
// replay to the joining connection only. A connection may subscribe to its
// own entity and to any entity it holds an incoming share from.
func (h *Hub) Subscribe(ctx context.Context, c Conn, entityID string) error {
	if entityID == "" {
		return ErrRoomForbidden
	}

	if entityID != c.EntityID() {
		allowed, err := h.sharesFrom(ctx, c.EntityID(), entityID)
		if err != nil {
			return err
		}
		if !allowed {
			return ErrRoomForbidden
		}
	}

	// держим gate на всё время replay+join: append в этот момент ждёт
	gate := h.gate(entityID)
	gate.Lock()
	defer gate.Unlock()

	events, err := h.events.Replay(ctx, entityID)
	if err != nil {
		return err
	}

	h.mu.Lock()
	room, ok := h.rooms[entityID]
	if !ok {
		room = make(map[Conn]struct{})
		h.rooms[entityID] = room
	}
	room[c] = struct{}{}
	h.mu.Unlock()

	h.deliver(c, models.ServerMessage{
		Type:     models.MessageReplay,
		EntityID: entityID,
		Events:   events,
	})
	return nil
}

func (h *Hub) gate(entityID string) *sync.Mutex {
	mu, _ := h.entityGates.LoadOrStore(entityID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Unsubscribe removes the connection from the entity's room. Idempotent:
// leaving a room the connection never joined is a no-op.
func (h *Hub) Unsubscribe(c Conn, entityID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c, entityID)
}

// Disconnect releases every room membership held by the connection. Called
// by the transport when the connection closes.
func (h *Hub) Disconnect(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for entityID := range h.rooms {
		h.removeLocked(c, entityID)
	}
}

// Append stores one encrypted event on the session entity's log and
// broadcasts the stored event, server-assigned sequence included, to every
// room member — the originator hears its own append echoed back. Events
// whose hints match an outgoing share are additionally propagated to the
// share targets' rooms as sharedEvent envelopes.
func (h *Hub) Append(ctx context.Context, c Conn, entityID string, payload models.EncryptedPayload, propertyHints []string) error {
	if entityID != c.EntityID() {
		return ErrEntityMismatch
	}

	gate := h.gate(entityID)
	gate.Lock()
	event, err := h.events.Append(ctx, entityID, payload)
	if err != nil {
		gate.Unlock()
		return err
	}

	h.broadcast(entityID, models.ServerMessage{
		Type:     models.MessageEvent,
		EntityID: entityID,
		Event:    &event,
	})
	gate.Unlock()

	// sharedEvent envelopes stay outside the gate: targets resolve ordering
	// by sequence on their side, and share fan-out must not block the
	// source's own stream
	h.propagate(ctx, entityID, event, propertyHints)
	return nil
}

// BackfillShare pushes the source's most recent events to the target's live
// connections as sharedEvent envelopes. Called by the control plane right
// after a share code is consumed so an online target sees current state
// without waiting for the next append. The window is a delivery heuristic;
// completeness comes from replay.
func (h *Hub) BackfillShare(ctx context.Context, sourceEntityID, targetEntityID, propertyName string) error {
	events, err := h.events.ReplayTail(ctx, sourceEntityID, uint64(h.backfillWindow))
	if err != nil {
		return err
	}

	for i := range events {
		h.broadcast(targetEntityID, models.ServerMessage{
			Type:     models.MessageSharedEvent,
			EntityID: targetEntityID,
			Shared: &models.SharedEventEnvelope{
				SourceEntityID: sourceEntityID,
				PropertyName:   propertyName,
				Event:          events[i],
			},
		})
	}
	return nil
}

// propagate routes one stored event to the rooms of share targets whose
// granted property appears in the hint set.
func (h *Hub) propagate(ctx context.Context, sourceEntityID string, event models.EncryptedEvent, propertyHints []string) {
	log := logger.FromContext(ctx)

	for _, property := range propertyHints {
		targets, err := h.shares.ShareTargets(ctx, sourceEntityID, property)
		if err != nil {
			log.Err(err).Str("func", "*Hub.propagate").
				Str("entity_id", sourceEntityID).
				Str("property_name", property).
				Msg("error resolving share targets")
			continue
		}

		for _, target := range targets {
			h.broadcast(target, models.ServerMessage{
				Type:     models.MessageSharedEvent,
				EntityID: target,
				Shared: &models.SharedEventEnvelope{
					SourceEntityID: sourceEntityID,
					PropertyName:   property,
					Event:          event,
				},
			})
		}
	}
}

// sharesFrom reports whether target holds an incoming share originating
// from source.
func (h *Hub) sharesFrom(ctx context.Context, targetEntityID, sourceEntityID string) (bool, error) {
	list, err := h.shares.ListShares(ctx, targetEntityID)
	if err != nil {
		return false, err
	}

	for _, incoming := range list.Incoming {
		if incoming.SourceEntityID == sourceEntityID {
			return true, nil
		}
	}
	return false, nil
}

// broadcast delivers a frame to every member of the entity's room.
func (h *Hub) broadcast(entityID string, msg models.ServerMessage) {
	h.mu.Lock()
	members := make([]Conn, 0, len(h.rooms[entityID]))
	for c := range h.rooms[entityID] {
		members = append(members, c)
	}
	h.mu.Unlock()

	for _, c := range members {
		h.deliver(c, msg)
	}
}

// deliver sends one frame and drops the connection if it cannot keep up.
func (h *Hub) deliver(c Conn, msg models.ServerMessage) {
	if c.Send(msg) {
		return
	}

	h.logger.Warn().Str("func", "*Hub.deliver").
		Str("entity_id", c.EntityID()).
		Msg("dropping slow connection")
	h.Disconnect(c)
	c.Close()
}

func (h *Hub) sendError(c Conn, text string) {
	h.deliver(c, models.ServerMessage{
		Type:    models.MessageError,
		Message: text,
	})
}

// removeLocked deletes the connection from one room and drops the room when
// it empties. Caller holds h.mu.
func (h *Hub) removeLocked(c Conn, entityID string) {
	room, ok := h.rooms[entityID]
	if !ok {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, entityID)
	}
}

// errorText maps an operation failure to an operator-safe envelope text.
// The precise cause stays in the server log.
func errorText(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEntityMismatch),
		errors.Is(err, ErrRoomForbidden),
		errors.Is(err, ErrUnknownMessageType):
		return err.Error()
	default:
		return "operation failed"
	}
}
