package compositor

import (
	"image"
	"math"

	"gocv.io/x/gocv"
)

// Blend stamps src onto target in place with its top-left corner at (x, y),
// after resizing src to size. A zero size keeps the source's native size.
//
// The stamp is clipped to the target; an empty intersection leaves target
// untouched. Each of the three color channels is mixed as
// mask*overlay + (1-mask)*background. Any fourth target channel is left alone.
func Blend(target *gocv.Mat, src Source, x, y int, size image.Point) {
	if target == nil || target.Empty() || src == nil || target.Channels() < 3 {
		return
	}

	if size.X <= 0 || size.Y <= 0 {
		size = src.Size()
	}
	if size.X <= 0 || size.Y <= 0 {
		return
	}

	clip := image.Rect(x, y, x+size.X, y+size.Y).Intersect(image.Rect(0, 0, target.Cols(), target.Rows()))
	if clip.Empty() {
		return
	}

	color := src.color(size)
	defer color.Close()
	mask := src.mask(color, size)
	defer mask.Close()

	roi := target.Region(clip)
	defer roi.Close()
	// A region is a view with the parent's stride; work on a continuous copy.
	patch := roi.Clone()
	defer patch.Close()

	bg, err := patch.DataPtrUint8()
	if err != nil {
		return
	}
	fg, err := color.DataPtrUint8()
	if err != nil {
		return
	}
	alpha, err := mask.DataPtrUint8()
	if err != nil {
		return
	}

	blendPixels(bg, patch.Channels(), clip.Dx(), clip.Dy(), fg, alpha, size.X, clip.Min.X-x, clip.Min.Y-y)
	patch.CopyTo(&roi)
}

// blendPixels mixes the w x h window at (ox, oy) of the BGR overlay fg,
// weighted by alpha, into bg. fg and alpha are stride pixels wide; bg is a
// continuous w x h image with ch channels.
func blendPixels(bg []uint8, ch, w, h int, fg, alpha []uint8, stride, ox, oy int) {
	for row := 0; row < h; row++ {
		src := (oy+row)*stride + ox
		dst := row * w * ch
		for col := 0; col < w; col++ {
			a := alpha[src+col]
			if a == 0 {
				continue
			}
			weight := float64(a) / 255.0

			b := dst + col*ch
			f := (src + col) * 3
			for c := 0; c < 3; c++ {
				bg[b+c] = uint8(math.Round(weight*float64(fg[f+c]) + (1-weight)*float64(bg[b+c])))
			}
		}
	}
}

// BlendCentered stamps a size x size square centered on center.
func BlendCentered(target *gocv.Mat, src Source, center image.Point, size int) {
	Blend(target, src, center.X-size/2, center.Y-size/2, image.Pt(size, size))
}

// Cover replaces the whole target with src resized to the target's dimensions.
func Cover(target *gocv.Mat, src Source) {
	if target == nil || target.Empty() || src == nil {
		return
	}

	color := src.color(image.Pt(target.Cols(), target.Rows()))
	defer color.Close()

	if target.Channels() == color.Channels() {
		color.CopyTo(target)
		return
	}

	// Keep the frame's own channel layout.
	code := gocv.ColorBGRToBGRA
	if target.Channels() == 1 {
		code = gocv.ColorBGRToGray
	}
	converted := gocv.NewMat()
	defer converted.Close()
	gocv.CvtColor(color, &converted, code)
	converted.CopyTo(target)
}
