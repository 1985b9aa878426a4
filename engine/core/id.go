package core

import (
	"fmt"

	"github.com/google/uuid"
)

// ID identifies a single execution.
type ID string

func (i ID) String() string {
	return string(i)
}

// NewID generates a new random execution ID.
func NewID() (ID, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate id: %w", err)
	}
	return ID(id.String()), nil
}

// MustNewID generates a new ID and panics on failure. Intended for tests.
func MustNewID() ID {
	id, err := NewID()
	if err != nil {
		panic(err)
	}
	return id
}
