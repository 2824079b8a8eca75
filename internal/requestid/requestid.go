// Package requestid generates short request correlation IDs.
package requestid

import "github.com/google/uuid"

// Length is the number of characters in a generated request ID.
const Length = 8

// Generator generates request IDs.
type Generator interface {
	Generate() string
}

// ShortUUID generates IDs from the leading characters of a random UUID.
type ShortUUID struct{}

// NewShortUUID returns a ShortUUID generator.
func NewShortUUID() *ShortUUID {
	return &ShortUUID{}
}

// Generate returns a new request ID.
func (g *ShortUUID) Generate() string {
	return uuid.NewString()[:Length]
}
