// Package compositor stamps overlay images onto live video frames with alpha
// blending and bounds clipping.
package compositor

import (
	"image"

	"gocv.io/x/gocv"
)

// LumaThreshold is the 8-bit gray level at or below which an opaque overlay
// pixel is treated as transparent.
const LumaThreshold = 10

// Source is an overlay image. It is either Opaque or WithAlpha; the variant is
// decided once when the image is loaded.
type Source interface {
	// Size returns the source's native width and height.
	Size() image.Point
	// Close releases the underlying Mats.
	Close() error

	// color returns a BGR copy resized to size. The caller closes it.
	color(size image.Point) gocv.Mat
	// mask returns a single-channel 0..255 blend weight for a color Mat
	// produced by color(size). The caller closes it.
	mask(color gocv.Mat, size image.Point) gocv.Mat
}

// Opaque is a BGR overlay without a transparency channel. Near-black pixels
// are masked out so plain photographs work as stamps.
type Opaque struct {
	Image gocv.Mat
}

// WithAlpha is a BGR overlay paired with its own 8-bit alpha channel.
type WithAlpha struct {
	Image gocv.Mat
	Alpha gocv.Mat
}

// NewSource wraps a decoded image, taking ownership of img. Four-channel images
// become WithAlpha, everything else becomes Opaque BGR.
func NewSource(img gocv.Mat) Source {
	switch img.Channels() {
	case 4:
		channels := gocv.Split(img)
		img.Close()

		bgr := gocv.NewMat()
		gocv.Merge(channels[:3], &bgr)
		for _, c := range channels[:3] {
			c.Close()
		}
		return &WithAlpha{Image: bgr, Alpha: channels[3]}

	case 1:
		bgr := gocv.NewMat()
		gocv.CvtColor(img, &bgr, gocv.ColorGrayToBGR)
		img.Close()
		return &Opaque{Image: bgr}

	default:
		return &Opaque{Image: img}
	}
}

// Size returns the image size.
func (o *Opaque) Size() image.Point {
	return image.Pt(o.Image.Cols(), o.Image.Rows())
}

// Close releases the image.
func (o *Opaque) Close() error {
	return o.Image.Close()
}

func (o *Opaque) color(size image.Point) gocv.Mat {
	return resized(o.Image, size)
}

func (o *Opaque) mask(color gocv.Mat, _ image.Point) gocv.Mat {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(color, &gray, gocv.ColorBGRToGray)

	mask := gocv.NewMat()
	gocv.Threshold(gray, &mask, LumaThreshold, 255, gocv.ThresholdBinary)
	return mask
}

// Size returns the image size.
func (a *WithAlpha) Size() image.Point {
	return image.Pt(a.Image.Cols(), a.Image.Rows())
}

// Close releases the image and its alpha channel.
func (a *WithAlpha) Close() error {
	err := a.Image.Close()
	if aerr := a.Alpha.Close(); err == nil {
		err = aerr
	}
	return err
}

func (a *WithAlpha) color(size image.Point) gocv.Mat {
	return resized(a.Image, size)
}

func (a *WithAlpha) mask(_ gocv.Mat, size image.Point) gocv.Mat {
	return resized(a.Alpha, size)
}

func resized(src gocv.Mat, size image.Point) gocv.Mat {
	dst := gocv.NewMat()
	if src.Cols() == size.X && src.Rows() == size.Y {
		src.CopyTo(&dst)
		return dst
	}
	gocv.Resize(src, &dst, size, 0, 0, gocv.InterpolationLinear)
	return dst
}
