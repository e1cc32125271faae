// Package uuid provides run identifier generation.
package uuid

import (
	"github.com/google/uuid"
)

// Generator creates time-ordered run identifiers.
type Generator struct{}

// NewGenerator creates a new Generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// NewRunID returns a UUIDv7 string so run IDs sort by start time. It falls
// back to a random v4 if the v7 clock source fails.
func (Generator) NewRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
