package hub

import "errors"

var (
	// ErrRoomForbidden is returned when a connection subscribes to an
	// entity it neither owns nor receives shares from.
	ErrRoomForbidden = errors.New("subscription to this entity is not allowed")

	// ErrEntityMismatch is returned when an append names an entity other
	// than the session entity.
	ErrEntityMismatch = errors.New("append is allowed only for the session entity")

	// ErrUnknownMessageType is returned for inbound frames with an
	// unrecognized type tag.
	ErrUnknownMessageType = errors.New("unknown message type")
)
