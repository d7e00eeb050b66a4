// Package app runs the live frame loop: camera in, perception, seal engine,
// composited frame out.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/jutsu/internal/capture"
	"github.com/ayusman/jutsu/internal/detector"
	"github.com/ayusman/jutsu/internal/engine"
	"github.com/ayusman/jutsu/internal/gesture"
)

// DefaultEventBuffer is the capacity of the event channel read by the recorder.
const DefaultEventBuffer = 64

// ErrAlreadyRunning is returned by Run when the loop is already running.
var ErrAlreadyRunning = errors.New("app is already running")

// Config holds options for the frame loop.
type Config struct {
	FPS         int
	EventBuffer int
	Logger      *zap.Logger
	// OnFrame is called on the loop goroutine with each composited frame,
	// before it is released. Window display and keyboard polling hook in here.
	OnFrame func(frame *gocv.Mat)
}

// Status is a snapshot of the loop for status displays.
type Status struct {
	engine.Status
	Raw       gesture.Gesture `json:"raw"`
	Confirmed gesture.Gesture `json:"confirmed"`
	Hands     int             `json:"hands"`
	Frame     uint64          `json:"frame"`
	Running   bool            `json:"running"`
}

type commandKind int

const (
	cmdSelect commandKind = iota
	cmdCancel
	cmdQuit
)

type command struct {
	kind    commandKind
	comboID string
}

// App owns the camera, detector and engine and drives them one frame at a
// time. Select, Cancel and Quit may be called from any goroutine; they take
// effect at the start of the next frame.
type App struct {
	config   Config
	camera   capture.Camera
	detector detector.Detector
	engine   *engine.Engine
	frames   *FrameBuffer
	logger   *zap.Logger

	events    chan engine.Event
	closeOnce sync.Once

	mu       sync.Mutex
	commands []command
	status   Status
	running  bool
}

// New creates an App. det may be nil, in which case no hands are ever seen.
func New(config Config, camera capture.Camera, det detector.Detector, eng *engine.Engine) *App {
	if config.FPS <= 0 {
		config.FPS = capture.DefaultFPS
	}
	if config.EventBuffer <= 0 {
		config.EventBuffer = DefaultEventBuffer
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &App{
		config:   config,
		camera:   camera,
		detector: det,
		engine:   eng,
		frames:   NewFrameBuffer(),
		logger:   logger,
		events:   make(chan engine.Event, config.EventBuffer),
	}
	a.status.Status = eng.Status()
	return a
}

// Library returns the combo library.
func (a *App) Library() *gesture.Library {
	return a.engine.Library()
}

// Frames returns the buffer holding the latest composited frame.
func (a *App) Frames() *FrameBuffer {
	return a.frames
}

// Events returns the channel engine events are published on. It is closed
// when Run returns.
func (a *App) Events() <-chan engine.Event {
	return a.events
}

// Status returns the snapshot taken after the last processed frame.
func (a *App) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Select queues selection of a combo. Unknown ids are rejected immediately.
func (a *App) Select(id string) error {
	if _, ok := a.engine.Library().Get(id); !ok {
		return fmt.Errorf("%w: %q", gesture.ErrUnknownCombo, id)
	}
	a.enqueue(command{kind: cmdSelect, comboID: id})
	return nil
}

// Cancel queues dropping the selection and any running effect.
func (a *App) Cancel() {
	a.enqueue(command{kind: cmdCancel})
}

// Quit queues stopping the loop.
func (a *App) Quit() {
	a.enqueue(command{kind: cmdQuit})
}

func (a *App) enqueue(c command) {
	a.mu.Lock()
	a.commands = append(a.commands, c)
	a.mu.Unlock()
}

// Run opens the camera and processes frames at the configured rate until ctx
// is done or Quit is called. The events channel is closed when it returns.
func (a *App) Run(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return ErrAlreadyRunning
	}
	a.running = true
	a.status.Running = true
	a.mu.Unlock()

	defer a.closeOnce.Do(func() { close(a.events) })

	if err := a.camera.Open(); err != nil {
		a.setStopped()
		return fmt.Errorf("open camera: %w", err)
	}
	defer a.stop()

	ticker := time.NewTicker(time.Second / time.Duration(a.config.FPS))
	defer ticker.Stop()

	a.logger.Info("frame loop started", zap.Int("fps", a.config.FPS))

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if quit := a.drainCommands(); quit {
				a.logger.Info("quit requested")
				return nil
			}
			a.Step()
		}
	}
}

// drainCommands applies queued commands in order and reports whether a quit
// was requested.
func (a *App) drainCommands() bool {
	a.mu.Lock()
	pending := a.commands
	a.commands = nil
	a.mu.Unlock()

	for _, c := range pending {
		switch c.kind {
		case cmdSelect:
			if err := a.engine.Select(c.comboID); err != nil {
				a.logger.Warn("select failed", zap.String("combo", c.comboID), zap.Error(err))
			}
		case cmdCancel:
			a.engine.Cancel()
		case cmdQuit:
			return true
		}
	}
	return false
}

// Step processes a single frame. A camera failure skips the frame; a
// perception failure still runs the engine so effects keep timing.
func (a *App) Step() {
	frame, err := a.camera.ReadFrame()
	if err != nil {
		a.logger.Warn("camera read failed", zap.Error(err))
		return
	}
	defer frame.Close()

	var perception detector.Perception
	if a.detector != nil {
		perception, err = a.detector.Detect(frame)
		if err != nil {
			a.logger.Warn("perception failed", zap.Error(err))
			perception = detector.Perception{}
		}
	}

	res := a.engine.ProcessFrame(frame, perception)

	a.mu.Lock()
	a.status.Status = a.engine.Status()
	a.status.Raw = res.Raw
	a.status.Confirmed = res.Confirmed
	a.status.Hands = len(perception.Hands)
	a.status.Frame++
	a.mu.Unlock()

	// Observers reading Status after an event see the frame that raised it.
	a.emit(res.Events)

	if err := a.frames.Set(frame); err != nil {
		a.logger.Debug("frame encode failed", zap.Error(err))
	}
	if a.config.OnFrame != nil {
		a.config.OnFrame(frame)
	}
}

// emit publishes events without ever blocking the frame loop.
func (a *App) emit(events []engine.Event) {
	for _, ev := range events {
		select {
		case a.events <- ev:
		default:
			a.logger.Warn("event dropped, recorder is behind", zap.String("type", string(ev.Type)))
		}
	}
}

func (a *App) stop() {
	a.emit(a.engine.Shutdown())

	if err := a.camera.Close(); err != nil {
		a.logger.Warn("camera close failed", zap.Error(err))
	}
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			a.logger.Warn("detector close failed", zap.Error(err))
		}
	}
	a.setStopped()
	a.logger.Info("frame loop stopped")
}

func (a *App) setStopped() {
	a.mu.Lock()
	a.running = false
	a.status.Running = false
	a.status.Status = a.engine.Status()
	a.mu.Unlock()
}
