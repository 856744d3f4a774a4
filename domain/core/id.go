package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	// RunID identifies one execution of the analysis pipeline.
	RunID ID
	// MeasureKey names an economic measure, e.g. "expectations" or "nondurables".
	MeasureKey ID
)

func (id RunID) String() string      { return ID(id).String() }
func (id MeasureKey) String() string { return ID(id).String() }

// ParseMeasureKey parses a string into MeasureKey
func ParseMeasureKey(s string) (MeasureKey, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("measure key cannot be empty")
	}
	return MeasureKey(s), nil
}

// MeasurePair identifies an ordered pair of measures compared by the
// cross-wavelet and detail-regression layers.
type MeasurePair struct {
	X MeasureKey `json:"x"`
	Y MeasureKey `json:"y"`
}

// String returns "x:y"
func (p MeasurePair) String() string {
	return fmt.Sprintf("%s:%s", p.X, p.Y)
}
