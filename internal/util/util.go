// Package util holds small internal helpers shared across packages.
package util

import "github.com/google/uuid"

// NewID returns a new UUIDv4 string.
func NewID() string {
	return uuid.NewString()
}

// IfNone returns the pointed-to value when v is non-nil, else def.
func IfNone[T any](v *T, def T) T {
	if v != nil {
		return *v
	}
	return def
}
