// Package engine owns the per-frame seal pipeline: classify, debounce, match
// and play back effects, in that fixed order.
package engine

import (
	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/jutsu/internal/detector"
	"github.com/ayusman/jutsu/internal/effect"
	"github.com/ayusman/jutsu/internal/gesture"
)

// EventType names something the engine did during a frame.
type EventType string

const (
	EventSelected    EventType = "selected"
	EventSealMatched EventType = "seal_matched"
	EventActivated   EventType = "activated"
	EventEnded       EventType = "ended"
)

// EndReason says why an effect session ended.
type EndReason string

const (
	EndTimeout   EndReason = "timeout"
	EndCancelled EndReason = "cancelled"
)

// Event is emitted to observers such as the history recorder and the
// websocket feed.
type Event struct {
	Type     EventType       `json:"type"`
	ComboID  string          `json:"combo_id,omitempty"`
	Name     string          `json:"name,omitempty"`
	Seal     gesture.Gesture `json:"seal,omitempty"`
	Step     int             `json:"step,omitempty"`
	Total    int             `json:"total,omitempty"`
	Duration int             `json:"duration_frames,omitempty"`
	Reason   EndReason       `json:"reason,omitempty"`
}

// Result is the outcome of one frame.
type Result struct {
	Raw       gesture.Gesture
	Confirmed gesture.Gesture
	Events    []Event
}

// Status is a snapshot for status displays.
type Status struct {
	Progress gesture.Progress `json:"progress"`
	Effect   *effect.Session  `json:"effect,omitempty"`
}

// Config tunes the seal pipeline.
type Config struct {
	RequiredHold   int
	CooldownFrames int
	Rules          gesture.Rules
}

// DefaultConfig returns hold 1, a 30 frame cooldown and the default rules.
func DefaultConfig() Config {
	return Config{
		RequiredHold:   1,
		CooldownFrames: 30,
		Rules:          gesture.DefaultRules(),
	}
}

// Engine is the single owner of combo and effect state. It is driven by one
// goroutine; callers serialize Select, Cancel and ProcessFrame.
type Engine struct {
	library    *gesture.Library
	classifier *gesture.Classifier
	debouncer  *gesture.Debouncer
	matcher    *gesture.Matcher
	player     *effect.Player
	guides     *effect.Guides
	logger     *zap.Logger

	// pending holds events raised by Select and Cancel until the next frame.
	pending []Event
}

// New wires an Engine. player and guides may be nil, in which case no effects
// or guides are drawn.
func New(cfg Config, library *gesture.Library, player *effect.Player, guides *effect.Guides, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if player == nil {
		player = effect.NewPlayer(nil, nil, 0, logger)
	}
	debouncer := gesture.NewDebouncer(cfg.RequiredHold)
	return &Engine{
		library:    library,
		classifier: gesture.NewClassifier(cfg.Rules),
		debouncer:  debouncer,
		matcher:    gesture.NewMatcher(library, debouncer, cfg.CooldownFrames, player),
		player:     player,
		guides:     guides,
		logger:     logger,
	}
}

// Library returns the combo library.
func (e *Engine) Library() *gesture.Library {
	return e.library
}

// Select starts awaiting the first seal of a combo, stopping any running effect.
func (e *Engine) Select(id string) error {
	if err := e.matcher.Select(id); err != nil {
		return err
	}
	e.stopEffect()

	p := e.matcher.Progress()
	e.pending = append(e.pending, Event{
		Type:    EventSelected,
		ComboID: p.ComboID,
		Name:    p.Name,
		Total:   p.Total,
	})
	e.logger.Info("combo selected", zap.String("combo", p.Name), zap.Int("seals", p.Total))
	return nil
}

// Cancel drops the current selection and stops any running effect.
func (e *Engine) Cancel() {
	e.matcher.Clear()
	e.debouncer.SetCooldown(0)
	e.stopEffect()
}

// Shutdown cancels everything before the process exits and returns the
// events that produced, since no further frame will deliver them.
func (e *Engine) Shutdown() []Event {
	e.Cancel()
	events := e.pending
	e.pending = nil
	return events
}

func (e *Engine) stopEffect() {
	s, ok := e.player.Session()
	if !ok {
		return
	}
	e.player.Cancel()
	e.pending = append(e.pending, Event{Type: EventEnded, Name: s.Name, Reason: EndCancelled})
	e.logger.Info("jutsu ended", zap.String("jutsu", s.Name), zap.String("reason", string(EndCancelled)))
}

// ProcessFrame runs one pass over a frame and its perception results,
// drawing guides and effects into frame in place. frame may be nil.
func (e *Engine) ProcessFrame(frame *gocv.Mat, perception detector.Perception) Result {
	res := Result{Events: e.pending}
	e.pending = nil

	res.Raw = e.classifier.Classify(perception.Hands)
	res.Confirmed = e.debouncer.Update(res.Raw)

	if e.matcher.State() == gesture.StateAwaiting && !e.player.IsActive() {
		e.guides.Draw(frame, e.matcher.Progress().Target)
	}

	progress := e.matcher.Progress()
	out := e.matcher.OnConfirmed(res.Confirmed)
	if out.Advanced {
		res.Events = append(res.Events, Event{
			Type:    EventSealMatched,
			ComboID: progress.ComboID,
			Name:    progress.Name,
			Seal:    res.Confirmed,
			Step:    out.Step,
			Total:   out.Total,
		})
		e.logger.Info("seal matched",
			zap.String("combo", progress.Name),
			zap.Stringer("seal", res.Confirmed),
			zap.Int("step", out.Step),
			zap.Int("total", out.Total))
	}

	if act := out.Activation; act != nil {
		e.matcher.Release()
		if e.player.Activate(act.Name, act.Duration) {
			res.Events = append(res.Events, Event{
				Type:     EventActivated,
				ComboID:  act.ComboID,
				Name:     act.Name,
				Duration: act.Duration,
			})
			e.logger.Info("jutsu activated", zap.String("jutsu", act.Name), zap.Int("frames", act.Duration))
		} else {
			e.logger.Info("jutsu has no effect asset", zap.String("jutsu", act.Name))
		}
	}

	if s, ok := e.player.Session(); ok && e.player.Tick(frame, perception) {
		res.Events = append(res.Events, Event{Type: EventEnded, Name: s.Name, Reason: EndTimeout})
		e.logger.Info("jutsu ended", zap.String("jutsu", s.Name), zap.String("reason", string(EndTimeout)))
	}

	return res
}

// Status returns the current matcher progress and effect session.
func (e *Engine) Status() Status {
	st := Status{Progress: e.matcher.Progress()}
	if s, ok := e.player.Session(); ok {
		st.Effect = &s
	}
	return st
}
