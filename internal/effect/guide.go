package effect

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/ayusman/jutsu/internal/compositor"
	"github.com/ayusman/jutsu/internal/gesture"
)

// Guide stamp placement, in pixels from the top-right corner.
const (
	GuideSize   = 150
	GuideMargin = 20
)

// Guides holds one still image per seal, shown while that seal is awaited.
type Guides struct {
	images map[gesture.Gesture]compositor.Source
}

// NewGuides wraps preloaded seal images. It takes ownership of the sources.
func NewGuides(images map[gesture.Gesture]compositor.Source) *Guides {
	if images == nil {
		images = make(map[gesture.Gesture]compositor.Source)
	}
	return &Guides{images: images}
}

// Has reports whether a guide image exists for the seal.
func (g *Guides) Has(seal gesture.Gesture) bool {
	if g == nil {
		return false
	}
	_, ok := g.images[seal]
	return ok
}

// Draw stamps the seal's guide at the top-right of frame. It reports whether
// anything was drawn; a missing image is not an error.
func (g *Guides) Draw(frame *gocv.Mat, seal gesture.Gesture) bool {
	if g == nil || frame == nil || frame.Empty() {
		return false
	}
	src, ok := g.images[seal]
	if !ok {
		return false
	}

	x := frame.Cols() - GuideSize - GuideMargin
	compositor.Blend(frame, src, x, GuideMargin, image.Pt(GuideSize, GuideSize))
	return true
}

// Close releases every guide image.
func (g *Guides) Close() error {
	if g == nil {
		return nil
	}
	var firstErr error
	for seal, src := range g.images {
		if err := src.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(g.images, seal)
	}
	return firstErr
}
