// Package effect loads jutsu effect assets and plays them back onto live frames.
package effect

import (
	"fmt"

	"github.com/ayusman/jutsu/internal/compositor"
)

// Mode selects how an effect is composited onto the frame.
type Mode string

const (
	// ModeAnchorHand follows a landmark of the first detected hand.
	ModeAnchorHand Mode = "anchor-hand"
	// ModeAnchorEyes stamps a small copy on each eye center.
	ModeAnchorEyes Mode = "anchor-eyes"
	// ModeFullFrame replaces the entire frame.
	ModeFullFrame Mode = "full-frame"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeAnchorHand, ModeAnchorEyes, ModeFullFrame:
		return true
	}
	return false
}

// Spec describes one catalog entry: which file backs an effect and how it is drawn.
type Spec struct {
	Name string `json:"name"`
	File string `json:"file"`
	Mode Mode   `json:"mode"`
	// FixedDuration pins every session of this effect to a frame count,
	// regardless of how long the asset is. Zero means use the asset length.
	FixedDuration int `json:"fixed_duration_frames,omitempty"`
}

// Validate checks the catalog entry.
func (s Spec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("effect name is empty")
	}
	if s.File == "" {
		return fmt.Errorf("effect %s: file is empty", s.Name)
	}
	if !s.Mode.Valid() {
		return fmt.Errorf("effect %s: unknown mode %q", s.Name, s.Mode)
	}
	if s.FixedDuration < 0 {
		return fmt.Errorf("effect %s: negative fixed duration", s.Name)
	}
	return nil
}

// DefaultCatalog returns the built-in effects.
func DefaultCatalog() []Spec {
	return []Spec{
		{Name: "Rasengan", File: "rasengan.gif", Mode: ModeAnchorHand, FixedDuration: 300},
		{Name: "Chidori", File: "cidori.gif", Mode: ModeAnchorHand, FixedDuration: 300},
		{Name: "Fire Ball", File: "fireball.mp4", Mode: ModeFullFrame},
		{Name: "Sharingan", File: "sharingan.gif", Mode: ModeAnchorEyes, FixedDuration: 300},
	}
}

// Asset is a loaded effect: a non-empty, looping frame sequence and an
// optional audio file played alongside it.
type Asset struct {
	Name          string
	Mode          Mode
	Frames        []compositor.Source
	Audio         string
	FixedDuration int
}

// FrameCount returns the number of frames in the loop.
func (a *Asset) FrameCount() int {
	return len(a.Frames)
}

// Frame returns the frame shown at the given elapsed count, looping.
func (a *Asset) Frame(elapsed int) compositor.Source {
	if len(a.Frames) == 0 {
		return nil
	}
	return a.Frames[elapsed%len(a.Frames)]
}

// Close releases every decoded frame.
func (a *Asset) Close() error {
	var firstErr error
	for _, f := range a.Frames {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.Frames = nil
	return firstErr
}
