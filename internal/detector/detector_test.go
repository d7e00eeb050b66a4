package detector

import (
	"errors"
	"image"
	"testing"
)

func TestNewHandObservation_Fingers(t *testing.T) {
	tests := []struct {
		name    string
		hand    Handedness
		fingers [NumFingers]bool
		sum     int
	}{
		{name: "fist right", hand: Right, fingers: [NumFingers]bool{}, sum: 0},
		{name: "open right", hand: Right, fingers: [NumFingers]bool{true, true, true, true, true}, sum: 5},
		{name: "open left", hand: Left, fingers: [NumFingers]bool{true, true, true, true, true}, sum: 5},
		{name: "thumb only left", hand: Left, fingers: [NumFingers]bool{true, false, false, false, false}, sum: 1},
		{name: "index and middle", hand: Right, fingers: [NumFingers]bool{false, true, true, false, false}, sum: 2},
		{name: "thumb and pinky", hand: Right, fingers: [NumFingers]bool{true, false, false, false, true}, sum: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := Pose(tt.hand, image.Pt(300, 400), tt.fingers)

			if obs.Fingers != tt.fingers {
				t.Errorf("Fingers = %v, want %v", obs.Fingers, tt.fingers)
			}
			if obs.Sum() != tt.sum {
				t.Errorf("Sum() = %d, want %d", obs.Sum(), tt.sum)
			}
			if obs.Handedness != tt.hand {
				t.Errorf("Handedness = %s, want %s", obs.Handedness, tt.hand)
			}
		})
	}
}

func TestNewHandObservation_ThumbMirrorsWithHandedness(t *testing.T) {
	var pts [NumLandmarks]image.Point
	pts[ThumbMCP] = image.Pt(100, 100)
	pts[ThumbTip] = image.Pt(80, 100)

	right := NewHandObservation(Right, pts)
	if !right.Fingers[Thumb] {
		t.Error("right thumb tip left of joint should be extended")
	}

	left := NewHandObservation(Left, pts)
	if left.Fingers[Thumb] {
		t.Error("left thumb tip left of joint should be folded")
	}
}

func TestNewHandObservation_VerticalUsesJointTwoBack(t *testing.T) {
	var pts [NumLandmarks]image.Point
	// Tip above DIP but below PIP: the PIP comparison decides.
	pts[IndexPIP] = image.Pt(0, 100)
	pts[IndexDIP] = image.Pt(0, 130)
	pts[IndexTip] = image.Pt(0, 120)

	obs := NewHandObservation(Right, pts)
	if obs.Fingers[Index] {
		t.Error("index should not be extended when tip is below PIP")
	}
}

func TestHandLandmarks_ToPixels(t *testing.T) {
	var lm HandLandmarks
	lm.Handedness = Right
	lm.Points[MiddleMCP] = Point3D{X: 0.5, Y: 0.25}

	obs := lm.ToPixels(640, 480)

	if got := obs.Points[MiddleMCP]; got != image.Pt(320, 120) {
		t.Errorf("MiddleMCP = %v, want (320,120)", got)
	}
}

func TestJSONResponse_ToPerception(t *testing.T) {
	t.Run("short landmark lists are dropped", func(t *testing.T) {
		r := jsonResponse{Hands: []jsonHand{{Points: make([]Point3D, 5), Handedness: "Left"}}}

		p := r.toPerception(640, 480)
		if len(p.Hands) != 0 {
			t.Errorf("expected no hands, got %d", len(p.Hands))
		}
	})

	t.Run("eyes converted to pixels", func(t *testing.T) {
		r := jsonResponse{Eyes: &jsonEyes{
			Left:  Point3D{X: 0.25, Y: 0.5},
			Right: Point3D{X: 0.75, Y: 0.5},
		}}

		p := r.toPerception(640, 480)
		if p.Eyes == nil {
			t.Fatal("expected eyes")
		}
		if p.Eyes.Left != image.Pt(160, 240) || p.Eyes.Right != image.Pt(480, 240) {
			t.Errorf("eyes = %+v", *p.Eyes)
		}
	})

	t.Run("no face yields nil eyes", func(t *testing.T) {
		p := jsonResponse{}.toPerception(640, 480)
		if p.Eyes != nil {
			t.Error("expected nil eyes")
		}
	})
}

func TestMockDetector(t *testing.T) {
	t.Run("returns empty perception by default", func(t *testing.T) {
		mock := NewMockDetector()

		p, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if p.Hands != nil || p.Eyes != nil {
			t.Errorf("expected empty perception, got %+v", p)
		}
	})

	t.Run("returns configured hands and eyes", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetHands([]HandObservation{RamLandmarks(), HorseLandmarks()})
		mock.SetEyes(&EyePair{Left: image.Pt(1, 2), Right: image.Pt(3, 4)})

		p, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(p.Hands) != 2 {
			t.Errorf("expected 2 hands, got %d", len(p.Hands))
		}
		if p.Eyes == nil {
			t.Error("expected eyes")
		}
		if mock.Calls() != 1 {
			t.Errorf("Calls() = %d, want 1", mock.Calls())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()

		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		p, err := mock.Detect(nil)

		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if p.Hands != nil {
			t.Errorf("expected no hands when error is set, got %v", p.Hands)
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
		var _ Detector = (*MediaPipeDetector)(nil)
	})
}

func TestPresetPoses(t *testing.T) {
	tests := []struct {
		name string
		obs  HandObservation
		want [NumFingers]bool
	}{
		{"ram", RamLandmarks(), [NumFingers]bool{false, true, true, false, false}},
		{"dog", DogLandmarks(), [NumFingers]bool{true, false, false, false, true}},
		{"horse", HorseLandmarks(), [NumFingers]bool{true, true, true, true, true}},
		{"fist", FistLandmarks(), [NumFingers]bool{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.obs.Fingers != tt.want {
				t.Errorf("Fingers = %v, want %v", tt.obs.Fingers, tt.want)
			}
		})
	}
}
