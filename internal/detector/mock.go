package detector

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []HandObservation
	eyes  *EyePair
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandObservation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetEyes sets the eye centers returned by Detect. Nil means no face.
func (m *MockDetector) SetEyes(eyes *EyePair) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eyes = eyes
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls reports how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured perception or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (Perception, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return Perception{}, m.err
	}
	return Perception{Hands: m.hands, Eyes: m.eyes}, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Pose builds a pixel-space hand with the given digits extended, wrist at origin.
// Digits are ordered thumb, index, middle, ring, pinky.
func Pose(handedness Handedness, origin image.Point, fingers [NumFingers]bool) HandObservation {
	var pts [NumLandmarks]image.Point

	// Left hands are mirrored around the wrist.
	dir := 1
	if handedness == Left {
		dir = -1
	}
	at := func(dx, dy int) image.Point {
		return image.Point{X: origin.X + dir*dx, Y: origin.Y + dy}
	}

	pts[Wrist] = at(0, 0)

	// Thumb sits on the +x side; extended points back toward -x past its MCP.
	pts[ThumbCMC] = at(40, -30)
	pts[ThumbMCP] = at(60, -60)
	if fingers[Thumb] {
		pts[ThumbIP] = at(45, -85)
		pts[ThumbTip] = at(25, -105)
	} else {
		pts[ThumbIP] = at(70, -70)
		pts[ThumbTip] = at(80, -75)
	}

	columns := [NumFingers]int{0, 30, 10, -10, -30}
	for f := Index; f < NumFingers; f++ {
		mcp := tipIDs[f] - 3
		x := columns[f]
		pts[mcp] = at(x, -100)
		pts[mcp+1] = at(x, -140)
		if fingers[f] {
			pts[mcp+2] = at(x, -170)
			pts[mcp+3] = at(x, -200)
		} else {
			pts[mcp+2] = at(x, -120)
			pts[mcp+3] = at(x, -110)
		}
	}

	return NewHandObservation(handedness, pts)
}

// RamLandmarks returns a right hand with index and middle extended.
func RamLandmarks() HandObservation {
	return Pose(Right, image.Pt(320, 400), [NumFingers]bool{false, true, true, false, false})
}

// DogLandmarks returns a right hand with thumb and pinky extended.
func DogLandmarks() HandObservation {
	return Pose(Right, image.Pt(320, 400), [NumFingers]bool{true, false, false, false, true})
}

// HorseLandmarks returns a right hand with every digit extended.
func HorseLandmarks() HandObservation {
	return Pose(Right, image.Pt(320, 400), [NumFingers]bool{true, true, true, true, true})
}

// FistLandmarks returns a right hand with every digit curled.
func FistLandmarks() HandObservation {
	return Pose(Right, image.Pt(320, 400), [NumFingers]bool{})
}
