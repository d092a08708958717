package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// ParseID parses an entity identifier. Any syntax accepted by uuid.Parse is
// allowed; callers should store the canonical form returned by ID.String().
func ParseID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%w: empty identifier", ErrInvalidID)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidID, raw)
	}
	return id, nil
}

// IsValidID reports whether raw is a syntactically valid identifier.
func IsValidID(raw string) bool {
	_, err := ParseID(raw)
	return err == nil
}
