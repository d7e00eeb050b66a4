package compositor

import (
	"bytes"
	"image"
	"testing"

	"gocv.io/x/gocv"
)

func solid(rows, cols int, b, g, r float64) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(b, g, r, 0), rows, cols, gocv.MatTypeCV8UC3)
}

func pixel(m gocv.Mat, row, col int) [3]uint8 {
	ch := m.Channels()
	return [3]uint8{
		m.GetUCharAt(row, col*ch),
		m.GetUCharAt(row, col*ch+1),
		m.GetUCharAt(row, col*ch+2),
	}
}

func TestBlend_OpaqueInBoundsReproducesOverlay(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	target := solid(100, 100, 10, 20, 30)
	defer target.Close()
	before := target.Clone()
	defer before.Close()

	src := NewSource(solid(20, 20, 200, 150, 100))
	defer src.Close()

	Blend(&target, src, 30, 40, image.Pt(20, 20))

	for row := 0; row < 100; row++ {
		for col := 0; col < 100; col++ {
			got := pixel(target, row, col)
			inside := row >= 40 && row < 60 && col >= 30 && col < 50
			want := pixel(before, row, col)
			if inside {
				want = [3]uint8{200, 150, 100}
			}
			if got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v (inside=%v)", row, col, got, want, inside)
			}
		}
	}
}

func TestBlend_FullyOutOfBoundsIsNoop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	target := solid(60, 80, 1, 2, 3)
	defer target.Close()
	before := target.ToBytes()

	src := NewSource(solid(10, 10, 255, 255, 255))
	defer src.Close()

	positions := []image.Point{{-50, -50}, {80, 0}, {0, 60}, {-10, 10}, {200, 200}}
	for _, p := range positions {
		Blend(&target, src, p.X, p.Y, image.Pt(10, 10))
	}

	if !bytes.Equal(target.ToBytes(), before) {
		t.Error("target changed by out-of-bounds blend")
	}
}

func TestBlend_PartiallyOutOfBoundsIsClipped(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	target := solid(100, 100, 0, 0, 0)
	defer target.Close()

	src := NewSource(solid(20, 20, 50, 60, 70))
	defer src.Close()

	Blend(&target, src, -10, 90, image.Pt(20, 20))

	if got := pixel(target, 90, 0); got != [3]uint8{50, 60, 70} {
		t.Errorf("clipped corner = %v, want overlay", got)
	}
	if got := pixel(target, 99, 9); got != [3]uint8{50, 60, 70} {
		t.Errorf("clipped edge = %v, want overlay", got)
	}
	if got := pixel(target, 90, 10); got != [3]uint8{0, 0, 0} {
		t.Errorf("outside stamp = %v, want background", got)
	}
	if got := pixel(target, 89, 0); got != [3]uint8{0, 0, 0} {
		t.Errorf("above stamp = %v, want background", got)
	}
}

func TestBlend_NearBlackOpaquePixelsAreTransparent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	target := solid(40, 40, 90, 90, 90)
	defer target.Close()
	before := target.ToBytes()

	src := NewSource(solid(10, 10, 5, 5, 5))
	defer src.Close()

	if _, ok := src.(*Opaque); !ok {
		t.Fatalf("3-channel source should be Opaque, got %T", src)
	}

	Blend(&target, src, 5, 5, image.Pt(10, 10))

	if !bytes.Equal(target.ToBytes(), before) {
		t.Error("near-black overlay should not change the target")
	}
}

func TestBlend_AlphaChannelWeights(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	target := solid(20, 20, 0, 0, 0)
	defer target.Close()

	// Fully black color with full alpha must still be drawn: alpha, not luminance, decides.
	bgra := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 200, 128), 10, 10, gocv.MatTypeCV8UC4)
	src := NewSource(bgra)
	defer src.Close()

	if _, ok := src.(*WithAlpha); !ok {
		t.Fatalf("4-channel source should be WithAlpha, got %T", src)
	}

	Blend(&target, src, 0, 0, image.Point{})

	got := pixel(target, 5, 5)
	if got[0] != 0 || got[1] != 0 {
		t.Errorf("blue/green = %v, want 0", got)
	}
	if got[2] < 99 || got[2] > 101 {
		t.Errorf("red = %d, want about 100 for half alpha", got[2])
	}
	if got := pixel(target, 15, 15); got != [3]uint8{} {
		t.Errorf("pixel outside native size = %v, want untouched", got)
	}
}

func TestBlend_ResizesToRequestedSize(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	target := solid(50, 50, 0, 0, 0)
	defer target.Close()

	src := NewSource(solid(5, 5, 100, 100, 100))
	defer src.Close()

	BlendCentered(&target, src, image.Pt(25, 25), 20)

	if got := pixel(target, 15, 15); got != [3]uint8{100, 100, 100} {
		t.Errorf("top-left of centered stamp = %v", got)
	}
	if got := pixel(target, 34, 34); got != [3]uint8{100, 100, 100} {
		t.Errorf("bottom-right of centered stamp = %v", got)
	}
	if got := pixel(target, 35, 35); got != [3]uint8{} {
		t.Errorf("beyond stamp = %v, want untouched", got)
	}
}

func TestCover_ReplacesWholeFrame(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	target := solid(48, 64, 0, 0, 0)
	defer target.Close()

	src := NewSource(solid(10, 10, 30, 40, 50))
	defer src.Close()

	Cover(&target, src)

	if target.Rows() != 48 || target.Cols() != 64 {
		t.Fatalf("size changed to %dx%d", target.Cols(), target.Rows())
	}
	for _, p := range []image.Point{{0, 0}, {63, 47}, {32, 24}} {
		if got := pixel(target, p.Y, p.X); got != [3]uint8{30, 40, 50} {
			t.Errorf("pixel %v = %v, want asset color", p, got)
		}
	}
}

func TestNewSource_GrayBecomesBGR(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	gray := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(77, 0, 0, 0), 4, 4, gocv.MatTypeCV8UC1)
	src := NewSource(gray)
	defer src.Close()

	op, ok := src.(*Opaque)
	if !ok {
		t.Fatalf("gray source should be Opaque, got %T", src)
	}
	if op.Image.Channels() != 3 {
		t.Errorf("Channels() = %d, want 3", op.Image.Channels())
	}
	if src.Size() != image.Pt(4, 4) {
		t.Errorf("Size() = %v", src.Size())
	}
}

func TestBlend_NilAndEmptyInputs(t *testing.T) {
	Blend(nil, nil, 0, 0, image.Pt(1, 1))
	Cover(nil, nil)
}

func TestBlendPixels_WindowOffsetAndExtraChannel(t *testing.T) {
	// 3x2 overlay; the window starts at column 1 of row 1.
	fg := []uint8{
		0, 0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 200, 100, 50, 90, 90, 90,
	}
	alpha := []uint8{
		255, 255, 255,
		255, 255, 0,
	}
	// 2x1 BGRA background.
	bg := []uint8{10, 20, 30, 77, 40, 50, 60, 88}

	blendPixels(bg, 4, 2, 1, fg, alpha, 3, 1, 1)

	want := []uint8{200, 100, 50, 77, 40, 50, 60, 88}
	if !bytes.Equal(bg, want) {
		t.Errorf("bg = %v, want %v", bg, want)
	}
}

func TestBlendPixels_HalfWeightRounds(t *testing.T) {
	fg := []uint8{255, 0, 101}
	alpha := []uint8{128}
	bg := []uint8{0, 255, 100}

	blendPixels(bg, 3, 1, 1, fg, alpha, 1, 0, 0)

	// 128/255 of the overlay plus the rest of the background.
	want := []uint8{128, 127, 101}
	if !bytes.Equal(bg, want) {
		t.Errorf("bg = %v, want %v", bg, want)
	}
}
