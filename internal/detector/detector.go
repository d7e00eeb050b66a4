package detector

import "gocv.io/x/gocv"

// Face mesh landmark indices used as eye centers.
const (
	LeftEyeLandmark  = 159
	RightEyeLandmark = 386
)

// Detector defines the interface for perception implementations.
type Detector interface {
	// Detect analyzes a video frame and returns hand observations and eye
	// centers in pixel space. An empty Perception means nothing was found.
	Detect(frame *gocv.Mat) (Perception, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand and face detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int `json:"max_hands"`

	// MinConfidence is the minimum hand detection confidence threshold (0.0-1.0).
	MinConfidence float64 `json:"min_confidence"`

	// MinTrackingConf is the minimum hand tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64 `json:"min_tracking_confidence"`

	// Face enables face mesh detection for eye anchors.
	Face bool `json:"face"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        2,
		MinConfidence:   0.7,
		MinTrackingConf: 0.7,
		Face:            true,
	}
}
