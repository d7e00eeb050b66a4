package gesture

import (
	"image"
	"testing"

	"github.com/ayusman/jutsu/internal/detector"
)

func hand(fingers ...bool) detector.HandObservation {
	var f [detector.NumFingers]bool
	copy(f[:], fingers)
	return detector.Pose(detector.Right, image.Pt(320, 400), f)
}

func TestClassifier_Classify(t *testing.T) {
	c := NewClassifier(DefaultRules())

	tests := []struct {
		name  string
		hands []detector.HandObservation
		want  Gesture
	}{
		{"no hands", nil, None},
		{"fist", []detector.HandObservation{hand()}, None},
		{"index and middle is ram", []detector.HandObservation{hand(false, true, true, false, false)}, Ram},
		{"index middle ring is ram", []detector.HandObservation{hand(false, true, true, true, false)}, Ram},
		{"thumb and index is ram before dog", []detector.HandObservation{hand(true, true, false, false, false)}, Ram},
		{"thumb index pinky is ram before dog", []detector.HandObservation{hand(true, true, false, false, true)}, Ram},
		{"thumb and pinky is dog", []detector.HandObservation{hand(true, false, false, false, true)}, Dog},
		{"thumb ring pinky is dog", []detector.HandObservation{hand(true, false, false, true, true)}, Dog},
		{"four with thumb and pinky is dog", []detector.HandObservation{hand(true, false, true, true, true)}, Dog},
		{"four without thumb is horse", []detector.HandObservation{hand(false, true, true, true, true)}, Horse},
		{"open palm is horse", []detector.HandObservation{hand(true, true, true, true, true)}, Horse},
		{"single index is none", []detector.HandObservation{hand(false, true, false, false, false)}, None},
		{"middle and ring without index is none", []detector.HandObservation{hand(false, false, true, true, false)}, None},
		{"first matching hand wins", []detector.HandObservation{hand(true, true, true, true, true), hand(false, true, true, false, false)}, Horse},
		{"unmatched hand is skipped", []detector.HandObservation{hand(), hand(true, false, false, false, true)}, Dog},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.hands); got != tt.want {
				t.Errorf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifier_FourOrMoreIsHorseUnlessEarlierRuleHolds(t *testing.T) {
	c := NewClassifier(DefaultRules())

	// Every finger vector with sum >= 4.
	for mask := 0; mask < 1<<detector.NumFingers; mask++ {
		var f [detector.NumFingers]bool
		sum := 0
		for i := range f {
			f[i] = mask&(1<<i) != 0
			if f[i] {
				sum++
			}
		}
		if sum < 4 {
			continue
		}

		h := detector.Pose(detector.Left, image.Pt(200, 300), f)
		want := Horse
		if f[detector.Thumb] && f[detector.Pinky] && sum <= 4 {
			want = Dog
		}

		first := c.Classify([]detector.HandObservation{h})
		if first != want {
			t.Errorf("fingers %v: Classify() = %s, want %s", f, first, want)
		}
		if again := c.Classify([]detector.HandObservation{h}); again != first {
			t.Errorf("fingers %v: repeated Classify() = %s, first %s", f, again, first)
		}
	}
}

func TestClassifier_CustomRules(t *testing.T) {
	rules := DefaultRules()
	rules.HorseMinSum = 5
	c := NewClassifier(rules)

	got := c.Classify([]detector.HandObservation{hand(false, true, true, true, true)})
	if got != None {
		t.Errorf("Classify() = %s, want none with HorseMinSum=5", got)
	}
}

func TestParseGesture(t *testing.T) {
	tests := []struct {
		in      string
		want    Gesture
		wantErr bool
	}{
		{"ram", Ram, false},
		{" Dog ", Dog, false},
		{"HORSE", Horse, false},
		{"none", None, false},
		{"tiger", None, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseGesture(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseGesture(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseGesture(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestGesture_TextRoundTrip(t *testing.T) {
	var g Gesture
	if err := g.UnmarshalText([]byte("dog")); err != nil {
		t.Fatalf("UnmarshalText() error = %v", err)
	}
	text, err := g.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText() error = %v", err)
	}
	if string(text) != "dog" {
		t.Errorf("MarshalText() = %q, want dog", text)
	}
	if _, err := Gesture(42).MarshalText(); err == nil {
		t.Error("expected error for out-of-range gesture")
	}
}
