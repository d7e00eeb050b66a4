package gesture

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrUnknownCombo is returned when a combo id is not in the library.
	ErrUnknownCombo = errors.New("unknown combo")
	// ErrDuplicateCombo is returned when adding an id the library already holds.
	ErrDuplicateCombo = errors.New("duplicate combo id")
	// ErrEmptySequence is returned for a combo without any seals.
	ErrEmptySequence = errors.New("combo sequence is empty")
)

// ComboDefinition is a named, ordered seal sequence. A zero Duration means the
// effect length is derived from the effect asset.
type ComboDefinition struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Sequence []Gesture `json:"sequence"`
	Duration int       `json:"duration_frames,omitempty"`
}

// Validate checks the definition is usable by the matcher.
func (c ComboDefinition) Validate() error {
	if c.ID == "" {
		return errors.New("combo id is empty")
	}
	if c.Name == "" {
		return fmt.Errorf("combo %s: name is empty", c.ID)
	}
	if len(c.Sequence) == 0 {
		return fmt.Errorf("combo %s: %w", c.ID, ErrEmptySequence)
	}
	for i, g := range c.Sequence {
		if g == None {
			return fmt.Errorf("combo %s: step %d: %w", c.ID, i, ErrUnknownGesture)
		}
		if _, ok := gestureNames[g]; !ok {
			return fmt.Errorf("combo %s: step %d: %w", c.ID, i, ErrUnknownGesture)
		}
	}
	if c.Duration < 0 {
		return fmt.Errorf("combo %s: negative duration %d", c.ID, c.Duration)
	}
	return nil
}

// Library is the set of combos, in the order they were added. It is safe for
// concurrent use; the matcher copies a definition when it is selected, so edits
// never affect a combo already in progress.
type Library struct {
	mu     sync.RWMutex
	order  []string
	combos map[string]ComboDefinition
}

// NewLibrary validates and indexes the given combos.
func NewLibrary(defs ...ComboDefinition) (*Library, error) {
	l := &Library{combos: make(map[string]ComboDefinition, len(defs))}
	for _, d := range defs {
		if err := l.Add(d); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Add validates and appends a combo. Duplicate ids are rejected.
func (l *Library) Add(d ComboDefinition) error {
	if err := d.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.combos[d.ID]; exists {
		return fmt.Errorf("%w %q", ErrDuplicateCombo, d.ID)
	}
	d.Sequence = append([]Gesture(nil), d.Sequence...)
	l.combos[d.ID] = d
	l.order = append(l.order, d.ID)
	return nil
}

// Get returns the combo with the given id.
func (l *Library) Get(id string) (ComboDefinition, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	d, ok := l.combos[id]
	return d, ok
}

// List returns all combos in insertion order.
func (l *Library) List() []ComboDefinition {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]ComboDefinition, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.combos[id])
	}
	return out
}

// Len returns the number of combos.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}

// Replace swaps the definition of an existing combo, keeping its position.
func (l *Library) Replace(d ComboDefinition) error {
	if err := d.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.combos[d.ID]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCombo, d.ID)
	}
	d.Sequence = append([]Gesture(nil), d.Sequence...)
	l.combos[d.ID] = d
	return nil
}

// Remove deletes a combo.
func (l *Library) Remove(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.combos[id]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCombo, id)
	}
	delete(l.combos, id)
	for i, o := range l.order {
		if o == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return nil
}
