package app

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/jutsu/internal/capture"
	"github.com/ayusman/jutsu/internal/compositor"
	"github.com/ayusman/jutsu/internal/detector"
	"github.com/ayusman/jutsu/internal/effect"
	"github.com/ayusman/jutsu/internal/engine"
	"github.com/ayusman/jutsu/internal/gesture"
	"github.com/ayusman/jutsu/testdata"
)

func testEngine(t *testing.T) *engine.Engine {
	t.Helper()
	lib, err := gesture.NewLibrary(
		gesture.ComboDefinition{ID: "1", Name: "Rasengan", Sequence: []gesture.Gesture{gesture.Ram, gesture.Horse}},
		gesture.ComboDefinition{ID: "4", Name: "Sharingan", Sequence: []gesture.Gesture{gesture.Ram}, Duration: 3},
	)
	if err != nil {
		t.Fatal(err)
	}
	assets := map[string]*effect.Asset{
		"Sharingan": {Name: "Sharingan", Mode: effect.ModeAnchorEyes, Frames: make([]compositor.Source, 4)},
	}
	return engine.New(engine.DefaultConfig(), lib, effect.NewPlayer(assets, nil, 0, nil), nil, nil)
}

func TestApp_SelectRejectsUnknownCombo(t *testing.T) {
	a := New(Config{}, capture.NewMockCamera(nil, false), nil, testEngine(t))

	if err := a.Select("9"); !errors.Is(err, gesture.ErrUnknownCombo) {
		t.Errorf("Select() error = %v, want ErrUnknownCombo", err)
	}
	if err := a.Select("1"); err != nil {
		t.Errorf("Select() error = %v", err)
	}
	if len(a.commands) != 1 {
		t.Errorf("queued %d commands, want 1", len(a.commands))
	}
}

func TestApp_HandleKey(t *testing.T) {
	tests := []struct {
		name    string
		key     int
		handled bool
		want    commandKind
	}{
		{"combo id", '1', true, cmdSelect},
		{"cancel", 'c', true, cmdCancel},
		{"quit", 'q', true, cmdQuit},
		{"high bits masked", 0x100 | 'q', true, cmdQuit},
		{"unbound", 'z', false, 0},
		{"unknown combo", '7', false, 0},
		{"no key", -1, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(Config{}, capture.NewMockCamera(nil, false), nil, testEngine(t))
			if got := a.HandleKey(tt.key); got != tt.handled {
				t.Fatalf("HandleKey(%d) = %v, want %v", tt.key, got, tt.handled)
			}
			if !tt.handled {
				if len(a.commands) != 0 {
					t.Errorf("unbound key queued %+v", a.commands)
				}
				return
			}
			if len(a.commands) != 1 || a.commands[0].kind != tt.want {
				t.Errorf("commands = %+v", a.commands)
			}
		})
	}
}

func TestReservedKey(t *testing.T) {
	for id, want := range map[string]bool{"c": true, "q": true, "1": false, "cq": false, "": false} {
		if got := ReservedKey(id); got != want {
			t.Errorf("ReservedKey(%q) = %v, want %v", id, got, want)
		}
	}
}

func TestApp_DrainCommandsStopsAtQuit(t *testing.T) {
	a := New(Config{}, capture.NewMockCamera(nil, false), nil, testEngine(t))
	a.Select("1")
	a.Quit()
	a.Select("4")

	if !a.drainCommands() {
		t.Fatal("drainCommands() did not report quit")
	}
	if got := a.engine.Status().Progress; got.ComboID != "1" {
		t.Errorf("progress = %+v, want combo 1 selected before quit", got)
	}
}

func TestApp_EmitDropsWhenFull(t *testing.T) {
	a := New(Config{EventBuffer: 1}, capture.NewMockCamera(nil, false), nil, testEngine(t))

	done := make(chan struct{})
	go func() {
		a.emit([]engine.Event{{Type: engine.EventSelected}, {Type: engine.EventSealMatched}})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("emit blocked on a full channel")
	}
	if ev := <-a.Events(); ev.Type != engine.EventSelected {
		t.Errorf("first event = %v", ev.Type)
	}
	select {
	case ev := <-a.Events():
		t.Errorf("unexpected buffered event %v", ev.Type)
	default:
	}
}

func newMockFrames(t *testing.T) []*gocv.Mat {
	t.Helper()
	frames := testdata.Sequence(3)
	t.Cleanup(func() { testdata.Close(frames) })
	return frames
}

func TestApp_StepRunsEngine(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	cam := capture.NewMockCamera(newMockFrames(t), true)
	cam.Open()
	det := detector.NewMockDetector()
	det.SetHands([]detector.HandObservation{detector.RamLandmarks()})
	det.SetEyes(&detector.EyePair{Left: image.Pt(200, 200), Right: image.Pt(260, 200)})

	a := New(Config{}, cam, det, testEngine(t))
	a.Select("4")
	a.drainCommands()

	a.Step()
	if _, seq := a.Frames().Latest(); seq != 0 {
		t.Errorf("frame encoded without a reader (seq %d)", seq)
	}
	defer a.Frames().Watch()()
	a.Step()

	st := a.Status()
	if st.Frame != 2 || st.Raw != gesture.Ram || st.Hands != 1 {
		t.Errorf("status = %+v", st)
	}
	if st.Effect == nil || st.Effect.Name != "Sharingan" {
		t.Errorf("effect = %+v, want Sharingan running", st.Effect)
	}

	var types []engine.EventType
	for len(a.events) > 0 {
		types = append(types, (<-a.events).Type)
	}
	want := []engine.EventType{engine.EventSelected, engine.EventSealMatched, engine.EventActivated}
	if len(types) != len(want) {
		t.Fatalf("events = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("events = %v, want %v", types, want)
		}
	}

	if jpeg, seq := a.Frames().Latest(); seq != 1 || len(jpeg) == 0 {
		t.Errorf("frame buffer seq=%d len=%d", seq, len(jpeg))
	}
}

func TestApp_StepSurvivesPerceptionError(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	cam := capture.NewMockCamera(newMockFrames(t), true)
	cam.Open()
	det := detector.NewMockDetector()
	det.SetError(errors.New("subprocess gone"))

	var shown int
	a := New(Config{OnFrame: func(*gocv.Mat) { shown++ }}, cam, det, testEngine(t))
	a.Step()

	if a.Status().Frame != 1 || shown != 1 {
		t.Errorf("frame=%d shown=%d, want the frame processed anyway", a.Status().Frame, shown)
	}
}

func TestApp_RunQuit(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	cam := capture.NewMockCamera(newMockFrames(t), true)
	det := detector.NewMockDetector()
	a := New(Config{FPS: 100}, cam, det, testEngine(t))

	errCh := make(chan error, 1)
	go func() { errCh <- a.Run(context.Background()) }()

	deadline := time.Now().Add(2 * time.Second)
	for a.Status().Frame < 3 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	a.Quit()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after Quit")
	}

	if cam.IsOpen() {
		t.Error("camera left open")
	}
	if a.Status().Running {
		t.Error("status still running")
	}
	// Ranging only terminates once the channel is closed.
	for range a.Events() {
	}
}

func TestApp_RunContextCancel(t *testing.T) {
	a := New(Config{FPS: 50}, capture.NewMockCamera(nil, true), nil, testEngine(t))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	if err := a.Run(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run() error = %v, want ErrAlreadyRunning", err)
	}
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
