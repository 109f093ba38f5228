// Package utils provides general-purpose helper utilities
// used across different parts of the application.
// Includes tools for working with context, type-safe keys,
// HTTP response writing, JWT token generation and validation,
// and other common operations.
package utils

import (
	"context"
)

// contextKey is a private type for context keys.
// Using a dedicated type instead of a plain string prevents key collisions
// with other packages that may use string-based keys in the context.
type contextKey string

// String returns the string representation of the context key.
// Implements the fmt.Stringer interface.
func (c contextKey) String() string {
	return string(c)
}

// EntityIDCtxKey is the key used to store the entity identifier in the
// context. Used together with GetEntityIDFromContext for type-safe
// retrieval of the entity id from context.Context.
//
// Example of writing a value to the context:
//
//	ctx := context.WithValue(ctx, utils.EntityIDCtxKey, entityID)
var EntityIDCtxKey = contextKey("entityID")

// GetEntityIDFromContext retrieves the entity identifier from the context.
//
// Returns the entity id and an ok flag:
//   - ok == true  — value is found, has the correct type, and is non-empty
//   - ok == false — value is missing, empty, or has an unexpected type
func GetEntityIDFromContext(ctx context.Context) (string, bool) {
	entityID, ok := ctx.Value(EntityIDCtxKey).(string)
	if entityID == "" {
		return "", false
	}
	return entityID, ok
}
