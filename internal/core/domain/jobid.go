package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidJobID is returned for identifiers that are not UUIDs.
var ErrInvalidJobID = errors.New("invalid job id")

// ValidateJobID checks that id has the shape the backend assigns.
func ValidateJobID(id string) error {
	if _, err := uuid.Parse(strings.TrimSpace(id)); err != nil {
		return fmt.Errorf("%w %q", ErrInvalidJobID, id)
	}
	return nil
}
