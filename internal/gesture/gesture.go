// Package gesture turns hand observations into hand seals and tracks progress
// through ordered seal combos.
package gesture

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownGesture is returned when a gesture name is not in the vocabulary.
var ErrUnknownGesture = errors.New("unknown gesture")

// Gesture is a hand seal from a closed vocabulary.
type Gesture int

const (
	None Gesture = iota
	Ram
	Dog
	Horse
)

var gestureNames = map[Gesture]string{
	None:  "none",
	Ram:   "ram",
	Dog:   "dog",
	Horse: "horse",
}

// String returns the lower-case seal name.
func (g Gesture) String() string {
	if name, ok := gestureNames[g]; ok {
		return name
	}
	return fmt.Sprintf("gesture(%d)", int(g))
}

// ParseGesture parses a seal name, ignoring case and surrounding space.
func ParseGesture(s string) (Gesture, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for g, n := range gestureNames {
		if n == name {
			return g, nil
		}
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownGesture, s)
}

// MarshalText implements encoding.TextMarshaler.
func (g Gesture) MarshalText() ([]byte, error) {
	if _, ok := gestureNames[g]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownGesture, int(g))
	}
	return []byte(g.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *Gesture) UnmarshalText(text []byte) error {
	parsed, err := ParseGesture(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}
