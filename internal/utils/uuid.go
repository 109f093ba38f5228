package utils

import "github.com/google/uuid"

// UUIDGenerator produces time-ordered identifiers for entities and events.
// UUIDv7 keeps ids roughly sortable by creation time, which makes event
// logs easier to eyeball; ordering guarantees still come from the
// per-entity sequence, never from the id.
type UUIDGenerator struct {
}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) Generate() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return v7.String()
}
