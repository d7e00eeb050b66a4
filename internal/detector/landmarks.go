// Package detector provides the perception types and detector implementations
// that feed hand and face landmarks into the seal engine.
package detector

import "image"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Digit positions in a HandObservation's Fingers vector.
const (
	Thumb = iota
	Index
	Middle
	Ring
	Pinky
	NumFingers
)

// tipIDs maps each digit to its tip landmark.
var tipIDs = [NumFingers]int{ThumbTip, IndexTip, MiddleTip, RingTip, PinkyTip}

// jointOffset is how many landmarks proximal to the tip the extension test looks.
const jointOffset = 2

// Handedness labels a detected hand.
type Handedness string

const (
	Left  Handedness = "Left"
	Right Handedness = "Right"
)

// Point3D is a normalized landmark as reported by MediaPipe (x, y in [0,1]).
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks is the normalized wire form of one detected hand.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness Handedness            `json:"handedness"`
	Score      float64               `json:"score"`
}

// HandObservation is one detected hand in pixel space for the current frame.
// It is never mutated after construction.
type HandObservation struct {
	Handedness Handedness
	Points     [NumLandmarks]image.Point
	Fingers    [NumFingers]bool
}

// EyePair holds the left and right eye centers in pixel space.
type EyePair struct {
	Left  image.Point `json:"left"`
	Right image.Point `json:"right"`
}

// Points returns both eye centers, left first.
func (e EyePair) Points() []image.Point {
	return []image.Point{e.Left, e.Right}
}

// Perception is everything the perception collaborator reports for one frame.
type Perception struct {
	Hands []HandObservation
	Eyes  *EyePair
}

// NewHandObservation builds an observation and derives the extended-finger vector.
//
// The thumb compares tip and joint on the x axis; the sign flips with handedness
// because a left thumb points the opposite way to a right one in image space.
// The other digits are extended when the tip is above (smaller y) the joint.
func NewHandObservation(handedness Handedness, points [NumLandmarks]image.Point) HandObservation {
	h := HandObservation{
		Handedness: handedness,
		Points:     points,
	}

	tip := points[tipIDs[Thumb]]
	joint := points[tipIDs[Thumb]-jointOffset]
	if handedness == Left {
		h.Fingers[Thumb] = tip.X > joint.X
	} else {
		h.Fingers[Thumb] = tip.X < joint.X
	}

	for f := Index; f < NumFingers; f++ {
		h.Fingers[f] = points[tipIDs[f]].Y < points[tipIDs[f]-jointOffset].Y
	}

	return h
}

// Sum returns the number of extended digits.
func (h HandObservation) Sum() int {
	n := 0
	for _, up := range h.Fingers {
		if up {
			n++
		}
	}
	return n
}

// ToPixels converts normalized landmarks to a pixel-space observation for a
// frame of the given size.
func (h HandLandmarks) ToPixels(width, height int) HandObservation {
	var points [NumLandmarks]image.Point
	for i, p := range h.Points {
		points[i] = toPixel(p, width, height)
	}
	return NewHandObservation(h.Handedness, points)
}

func toPixel(p Point3D, width, height int) image.Point {
	return image.Point{X: int(p.X * float64(width)), Y: int(p.Y * float64(height))}
}
