// Package uuid generates run and request correlation identifiers.
package uuid

import (
	"fmt"

	"github.com/google/uuid"
)

// Version selects the UUID layout a Generator emits.
type Version int

// Supported versions.
const (
	// V7 ids sort by creation time; used for run ids.
	V7 Version = 7
	// V4 ids are random; the document service expects them in request envelopes.
	V4 Version = 4
)

// Generator implements tender.IDGenerator.
type Generator struct {
	version Version
}

// NewRunIDGenerator returns a time-ordered (v7) generator.
func NewRunIDGenerator() *Generator {
	return &Generator{version: V7}
}

// NewEnvelopeIDGenerator returns a random (v4) generator.
func NewEnvelopeIDGenerator() *Generator {
	return &Generator{version: V4}
}

// NewID returns a new id string.
func (g Generator) NewID() (string, error) {
	id, err := g.raw()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (g Generator) raw() (uuid.UUID, error) {
	switch g.version {
	case V4:
		id, err := uuid.NewRandom()
		if err != nil {
			return uuid.Nil, fmt.Errorf("generate uuid4: %w", err)
		}
		return id, nil
	default:
		id, err := uuid.NewV7()
		if err != nil {
			return uuid.Nil, fmt.Errorf("generate uuid7: %w", err)
		}
		return id, nil
	}
}
