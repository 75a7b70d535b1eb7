package tessera

import (
	"errors"
	"fmt"
)

// Sentinel errors for malformed input. The resolution pass itself never
// returns these: structural problems inside a well-formed graph are
// reported as Diagnostic values, not Go errors. These errors mean the
// input could not become a graph in the first place.
//
// Use the Is*Err helpers to check for specific errors when decoding
// snapshots or building graphs programmatically.
var (
	// ErrDuplicateNode is returned by NewGraph when two nodes share an
	// identity. Identities are fully qualified names and must be unique
	// within one snapshot.
	ErrDuplicateNode = errors.New("tessera: duplicate node identity")

	// ErrUnknownKind is returned when a node kind string is not one of
	// the closed kind set.
	ErrUnknownKind = errors.New("tessera: unknown node kind")

	// ErrUnknownMarker is returned when a role marker string is not one
	// of the known markers.
	ErrUnknownMarker = errors.New("tessera: unknown role marker")
)

// IsDuplicateNodeErr returns true if err is or wraps ErrDuplicateNode.
func IsDuplicateNodeErr(err error) bool {
	return errors.Is(err, ErrDuplicateNode)
}

// IsUnknownKindErr returns true if err is or wraps ErrUnknownKind.
func IsUnknownKindErr(err error) bool {
	return errors.Is(err, ErrUnknownKind)
}

// IsUnknownMarkerErr returns true if err is or wraps ErrUnknownMarker.
func IsUnknownMarkerErr(err error) bool {
	return errors.Is(err, ErrUnknownMarker)
}

func duplicateNodeError(name string) error {
	return fmt.Errorf("%w: %q", ErrDuplicateNode, name)
}

func unknownKindError(s string) error {
	return fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func unknownMarkerError(s string) error {
	return fmt.Errorf("%w: %q", ErrUnknownMarker, s)
}
