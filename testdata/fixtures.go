// Package testdata builds synthetic camera frames for tests that need real
// Mats but no recorded footage.
package testdata

import (
	"gocv.io/x/gocv"

	"github.com/ayusman/jutsu/internal/capture"
)

// Frame returns a camera-sized BGR frame filled with a single gray level.
func Frame(level float64) *gocv.Mat {
	mat := gocv.NewMatWithSizeFromScalar(
		gocv.NewScalar(level, level, level, 0),
		capture.DefaultHeight, capture.DefaultWidth, gocv.MatTypeCV8UC3,
	)
	return &mat
}

// Sequence returns n frames of slowly increasing brightness so consecutive
// frames differ.
func Sequence(n int) []*gocv.Mat {
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		frames[i] = Frame(float64(20 + i%200))
	}
	return frames
}

// Close releases every frame.
func Close(frames []*gocv.Mat) {
	for _, f := range frames {
		if f != nil {
			f.Close()
		}
	}
}
