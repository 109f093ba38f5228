// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/MKhiriev/vault-sync/internal/adapter"
	"github.com/MKhiriev/vault-sync/internal/crypto"
	"github.com/MKhiriev/vault-sync/internal/logger"
	"github.com/MKhiriev/vault-sync/internal/reducer"
	"github.com/MKhiriev/vault-sync/internal/store"
	"github.com/MKhiriev/vault-sync/internal/workers"
	"github.com/MKhiriev/vault-sync/models"
	"github.com/gorilla/websocket"
)

// Session owns one device's live view of its entity: the sync WebSocket,
// the reduced entity state, and the per-source state of incoming shares.
// All mutation flows through handleMessage — an append is only reflected
// locally once the server echoes it back, so every device converges on the
// stream the server actually stored.
type Session struct {
	server  adapter.ServerAdapter
	keyring crypto.Keyring
	codec   crypto.EventCodec
	kdf     *workers.KDFPool

	// cache is the optional local replica of the entity's own stream, so a
	// device can render its last known state before the socket is up.
	cache store.EventRepository

	entityID   string
	privateKey []byte
	contentKey []byte

	wsMu sync.Mutex
	ws   *websocket.Conn

	mu      sync.Mutex
	state   *reducer.EntityState
	shares  map[string]*shareSource
	lastErr string

	updates chan struct{}

	logger *logger.Logger
}

// NewSession wires a session over an authenticated server adapter. Keys are
// attached later via Bootstrap or AdoptKeys.
func NewSession(server adapter.ServerAdapter, keyring crypto.Keyring, codec crypto.EventCodec, kdf *workers.KDFPool, log *logger.Logger) *Session {
	return &Session{
		server:  server,
		keyring: keyring,
		codec:   codec,
		kdf:     kdf,
		shares:  make(map[string]*shareSource),
		updates: make(chan struct{}, 1),
		logger:  log,
	}
}

// AttachCache enables the local event replica. Every event of the session
// entity's own stream is written through to repo as it is applied.
func (s *Session) AttachCache(repo store.EventRepository) {
	s.cache = repo
}

// LoadCachedState replays the locally cached stream into the reduced state.
// Call after keys are adopted and before Connect; the server replay that
// follows re-applies the same prefix, which reduction tolerates.
func (s *Session) LoadCachedState(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	events, err := s.cache.ReplayEvents(ctx, s.entityID)
	if err != nil {
		return fmt.Errorf("replay cached events: %w", err)
	}
	s.applyOwn(events...)
	return nil
}

// EntityID returns the session entity's identifier, empty before Bootstrap.
func (s *Session) EntityID() string { return s.entityID }

// Updates signals that the derived state changed. The channel is a
// coalescing notification, not a queue; read State after each signal.
func (s *Session) Updates() <-chan struct{} { return s.updates }

// Bootstrap registers a fresh entity: it exchanges the passkey credential
// for a session, generates the entity keypair and derives the content key.
// The first appended event is EntityCreated, sent once the socket is up.
func (s *Session) Bootstrap(ctx context.Context, credentialID string) error {
	pair, err := s.keyring.GenerateEntityKeyPair()
	if err != nil {
		return fmt.Errorf("generate entity key pair: %w", err)
	}

	resp, err := s.server.Register(ctx, models.RegisterRequest{
		CredentialID: credentialID,
		PublicKey:    base64.StdEncoding.EncodeToString(pair.Public),
	})
	if err != nil {
		return fmt.Errorf("register entity: %w", err)
	}

	contentKey, err := s.keyring.DeriveContentKey(pair.Private)
	if err != nil {
		return fmt.Errorf("derive content key: %w", err)
	}

	s.entityID = resp.EntityID
	s.privateKey = pair.Private
	s.contentKey = contentKey
	return nil
}

// AdoptKeys installs an already-recovered private key, e.g. after a device
// link via ConsumeInvite on a prior run, together with the entity id the
// key belongs to.
func (s *Session) AdoptKeys(entityID string, privateKey []byte) error {
	contentKey, err := s.keyring.DeriveContentKey(privateKey)
	if err != nil {
		return fmt.Errorf("derive content key: %w", err)
	}
	s.entityID = entityID
	s.privateKey = privateKey
	s.contentKey = contentKey
	return nil
}

// Connect dials the sync endpoint and subscribes to the session entity plus
// every incoming share source already known to the server.
func (s *Session) Connect(ctx context.Context, httpAddress string) error {
	target, err := syncURL(httpAddress)
	if err != nil {
		return fmt.Errorf("resolve sync url: %w", err)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.server.Token())

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, target, header)
	if err != nil {
		return fmt.Errorf("dial sync endpoint: %w", err)
	}
	s.ws = ws

	if err = s.send(models.ClientMessage{Type: models.MessageSubscribe, EntityID: s.entityID}); err != nil {
		return err
	}

	list, err := s.server.ListShares(ctx)
	if err != nil {
		return fmt.Errorf("list shares: %w", err)
	}
	for _, in := range list.Incoming {
		// the grant scope must be known before the source replay arrives,
		// even while the key is still unrecovered
		s.mu.Lock()
		s.source(in.SourceEntityID).grant(in.PropertyName)
		s.mu.Unlock()

		if err = s.send(models.ClientMessage{Type: models.MessageSubscribe, EntityID: in.SourceEntityID}); err != nil {
			return err
		}
	}

	return nil
}

// Run reads server frames until the socket closes or ctx is done.
func (s *Session) Run(ctx context.Context) error {
	defer func() {
		if s.ws != nil {
			_ = s.ws.Close()
		}
	}()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		var msg models.ServerMessage
		if err := s.ws.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read sync frame: %w", err)
		}

		s.handleMessage(msg)
	}
}

// Append encrypts one logical event and submits it to the server. The local
// state is untouched until the echoed broadcast arrives.
func (s *Session) Append(event models.Event) error {
	payload, err := s.codec.EncryptEvent(s.contentKey, event)
	if err != nil {
		return fmt.Errorf("encrypt event: %w", err)
	}

	return s.send(models.ClientMessage{
		Type:          models.MessageAppend,
		EntityID:      s.entityID,
		Payload:       &payload,
		PropertyHints: propertyHints(event),
	})
}

// SeedEntity appends the EntityCreated event that starts a fresh stream.
// Appending it again to an existing stream is harmless: reduction ignores
// every EntityCreated after the first.
func (s *Session) SeedEntity() error {
	return s.Append(models.EntityCreated{EntityID: s.entityID})
}

// SetProperty appends a PropertySet event for one property.
func (s *Session) SetProperty(key string, value json.RawMessage) error {
	return s.Append(models.PropertySet{Key: key, Value: value})
}

// DeleteProperty appends a PropertyDeleted event for one property.
func (s *Session) DeleteProperty(key string) error {
	return s.Append(models.PropertyDeleted{Key: key})
}

// CreateInvite seals the entity private key under code and registers the
// one-time device-link code with the server. The Argon2id derivation runs
// on the bounded KDF pool.
func (s *Session) CreateInvite(ctx context.Context, code string, ttlSeconds int64) error {
	var sealed models.SealedPayload
	err := s.kdf.Do(ctx, func() error {
		var sealErr error
		sealed, sealErr = s.keyring.SealForCode(s.privateKey, code)
		return sealErr
	})
	if err != nil {
		return fmt.Errorf("seal private key: %w", err)
	}

	return s.server.CreateInvite(ctx, models.CreateInviteRequest{
		Code:       code,
		SealedKey:  sealed,
		TTLSeconds: ttlSeconds,
	})
}

// ConsumeInvite claims a device-link code, recovers the entity private key
// and adopts it for this device.
func (s *Session) ConsumeInvite(ctx context.Context, code string) error {
	resp, err := s.server.ConsumeInvite(ctx, code)
	if err != nil {
		return err
	}

	var privateKey []byte
	err = s.kdf.Do(ctx, func() error {
		var openErr error
		privateKey, openErr = s.keyring.OpenSealedPayload(resp.SealedKey, code)
		return openErr
	})
	if err != nil {
		return fmt.Errorf("open sealed private key: %w", err)
	}

	return s.AdoptKeys(resp.EntityID, privateKey)
}

// CreateShare seals the content key under code and registers a one-time
// share code scoped to one property.
func (s *Session) CreateShare(ctx context.Context, code, propertyName string, ttlSeconds int64) error {
	var sealed models.SealedPayload
	err := s.kdf.Do(ctx, func() error {
		var sealErr error
		sealed, sealErr = s.keyring.SealForCode(s.contentKey, code)
		return sealErr
	})
	if err != nil {
		return fmt.Errorf("seal content key: %w", err)
	}

	return s.server.CreateShare(ctx, models.CreateShareRequest{
		Code:         code,
		PropertyName: propertyName,
		SealedKey:    sealed,
		TTLSeconds:   ttlSeconds,
	})
}

// ConsumeShare claims a share code, recovers the source's content key,
// registers it so queued envelopes drain, and subscribes to the source's
// room for live updates.
func (s *Session) ConsumeShare(ctx context.Context, code string) (models.ConsumeShareResponse, error) {
	resp, err := s.server.ConsumeShare(ctx, code)
	if err != nil {
		return models.ConsumeShareResponse{}, err
	}

	var key []byte
	err = s.kdf.Do(ctx, func() error {
		var openErr error
		key, openErr = s.keyring.OpenSealedPayload(resp.SealedKey, code)
		return openErr
	})
	if err != nil {
		return models.ConsumeShareResponse{}, fmt.Errorf("open sealed content key: %w", err)
	}

	s.RegisterShareKey(resp.SourceEntityID, resp.PropertyName, key)

	if s.ws != nil {
		if err = s.send(models.ClientMessage{Type: models.MessageSubscribe, EntityID: resp.SourceEntityID}); err != nil {
			return models.ConsumeShareResponse{}, err
		}
	}

	return resp, nil
}

// ListShares returns the live grants involving the session entity.
func (s *Session) ListShares(ctx context.Context) (models.ShareList, error) {
	return s.server.ListShares(ctx)
}

// RevokeShare removes a live grant from either side.
func (s *Session) RevokeShare(ctx context.Context, req models.RevokeShareRequest) (bool, error) {
	return s.server.RevokeShare(ctx, req)
}

// RegisterShareKey installs the content key for one share source, records
// the granted property and drains every envelope queued while the key was
// unknown, in arrival order.
func (s *Session) RegisterShareKey(sourceEntityID, propertyName string, key []byte) {
	s.mu.Lock()
	src := s.source(sourceEntityID)
	src.grant(propertyName)
	src.key = key
	queued := src.drain()
	for _, env := range queued {
		s.applySharedLocked(src, env)
	}
	s.mu.Unlock()

	if len(queued) > 0 {
		s.notify()
	}
}

// RecoverShareKey re-opens the sealed key of an already-established grant
// with its share code. Grants outlive the process but recovered keys never
// touch disk, so after a restart the target re-enters the code it already
// knows instead of asking the source for a fresh one.
func (s *Session) RecoverShareKey(ctx context.Context, sourceEntityID, code string) error {
	list, err := s.server.ListShares(ctx)
	if err != nil {
		return fmt.Errorf("list shares: %w", err)
	}

	recovered := false
	for _, in := range list.Incoming {
		if in.SourceEntityID != sourceEntityID {
			continue
		}

		var key []byte
		err = s.kdf.Do(ctx, func() error {
			var openErr error
			key, openErr = s.keyring.OpenSealedPayload(in.SealedKey, code)
			return openErr
		})
		if err != nil {
			// другой код для другого гранта этого же источника
			continue
		}

		s.RegisterShareKey(sourceEntityID, in.PropertyName, key)
		recovered = true
	}

	if !recovered {
		return fmt.Errorf("no grant from %s opens with this code", sourceEntityID)
	}
	return nil
}

// State returns an independent snapshot of the session entity's reduced
// state. May be nil before the replay lands.
func (s *Session) State() *reducer.EntityState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// SharedValues returns the current plaintext values of one source's shared
// properties.
func (s *Session) SharedValues(sourceEntityID string) map[string]json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.shares[sourceEntityID]
	if !ok {
		return nil
	}
	out := make(map[string]json.RawMessage, len(src.values))
	for k, v := range src.values {
		out[k] = v
	}
	return out
}

// ShareSources lists the source entity ids this session has seen shared
// traffic or keys for, sorted for stable iteration.
func (s *Session) ShareSources() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.shares))
	for id := range s.shares {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// LastError returns the most recent error envelope text from the server.
func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Session) handleMessage(msg models.ServerMessage) {
	log := s.logger.With().Str("func", "Session.handleMessage").Logger()

	switch msg.Type {
	case models.MessageReplay:
		if s.foreign(msg.EntityID) {
			s.applySourceEvents(msg.EntityID, msg.Events...)
			return
		}
		s.applyOwn(msg.Events...)
	case models.MessageEvent:
		if msg.Event == nil {
			return
		}
		if s.foreign(msg.EntityID) {
			s.applySourceEvents(msg.EntityID, *msg.Event)
			return
		}
		s.applyOwn(*msg.Event)
	case models.MessageSharedEvent:
		if msg.Shared != nil {
			s.applyShared(*msg.Shared)
		}
	case models.MessageError:
		s.mu.Lock()
		s.lastErr = msg.Message
		s.mu.Unlock()
		log.Warn().Str("message", msg.Message).Msg("server rejected an operation")
		s.notify()
	default:
		log.Warn().Str("type", msg.Type).Msg("unknown server message type")
	}
}

// applyOwn decrypts events from the session entity's own stream and folds
// them into the reduced state. Replay and echoed appends both land here.
func (s *Session) applyOwn(events ...models.EncryptedEvent) {
	log := s.logger.With().Str("func", "Session.applyOwn").Logger()

	s.mu.Lock()
	for _, enc := range events {
		event, err := s.codec.DecryptEvent(s.contentKey, enc.Payload)
		if err != nil {
			log.Error().Err(err).Str("event_id", enc.ID).Msg("cannot decrypt own event")
			continue
		}
		s.state = reducer.Apply(s.state, event)

		if s.cache != nil {
			if cacheErr := s.cache.CacheEvent(context.Background(), enc); cacheErr != nil {
				log.Warn().Err(cacheErr).Str("event_id", enc.ID).Msg("cannot cache event locally")
			}
		}
	}
	s.mu.Unlock()

	if len(events) > 0 {
		s.notify()
	}
}

// foreign reports whether an entity id names a share source rather than the
// session entity. Frames from subscribed source rooms carry the source id.
func (s *Session) foreign(entityID string) bool {
	return entityID != "" && entityID != s.entityID
}

// applySourceEvents routes frames from a share source's room through the
// per-source share state: each event goes through the same queue/accept/fold
// path as a sharedEvent envelope, once per granted property. This is how a
// source replay lands as shared values after a reconnect.
func (s *Session) applySourceEvents(sourceEntityID string, events ...models.EncryptedEvent) {
	s.mu.Lock()
	src := s.source(sourceEntityID)
	applied := false
	for _, enc := range events {
		for property := range src.properties {
			env := models.SharedEventEnvelope{
				SourceEntityID: sourceEntityID,
				PropertyName:   property,
				Event:          enc,
			}
			if src.key == nil {
				src.enqueue(env)
				continue
			}
			s.applySharedLocked(src, env)
			applied = true
		}
	}
	s.mu.Unlock()

	if applied {
		s.notify()
	}
}

func (s *Session) applyShared(env models.SharedEventEnvelope) {
	s.mu.Lock()
	src := s.source(env.SourceEntityID)
	src.grant(env.PropertyName)
	if src.key == nil {
		src.enqueue(env)
		s.mu.Unlock()
		return
	}
	s.applySharedLocked(src, env)
	s.mu.Unlock()

	s.notify()
}

func (s *Session) applySharedLocked(src *shareSource, env models.SharedEventEnvelope) {
	if !src.accept(env) {
		return
	}

	event, err := s.codec.DecryptEvent(src.key, env.Event.Payload)
	if err != nil {
		s.logger.Error().Err(err).
			Str("func", "Session.applySharedLocked").
			Str("source_entity_id", env.SourceEntityID).
			Msg("cannot decrypt shared event")
		return
	}

	src.fold(env.PropertyName, event)
}

func (s *Session) source(sourceEntityID string) *shareSource {
	src, ok := s.shares[sourceEntityID]
	if !ok {
		src = newShareSource()
		s.shares[sourceEntityID] = src
	}
	return src
}

func (s *Session) send(msg models.ClientMessage) error {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()

	if s.ws == nil {
		return fmt.Errorf("sync connection is not established")
	}
	if err := s.ws.WriteJSON(msg); err != nil {
		return fmt.Errorf("write sync frame: %w", err)
	}
	return nil
}

func (s *Session) notify() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}

// propertyHints extracts routing metadata from an event so the server can
// match it against outgoing shares without decrypting anything.
func propertyHints(event models.Event) []string {
	switch e := event.(type) {
	case models.PropertySet:
		return []string{e.Key}
	case models.PropertyDeleted:
		return []string{e.Key}
	default:
		return nil
	}
}

func syncURL(httpAddress string) (string, error) {
	raw := strings.TrimSpace(httpAddress)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	u.Path = "/api/sync"
	return u.String(), nil
}
