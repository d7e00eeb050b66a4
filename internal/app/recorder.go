package app

import (
	"go.uber.org/zap"

	"github.com/ayusman/jutsu/internal/engine"
	"github.com/ayusman/jutsu/internal/store"
)

// Publisher fans engine events out to live observers.
type Publisher interface {
	Publish(ev engine.Event)
}

// LastComboSetting is the settings key holding the most recently selected combo.
const LastComboSetting = "last_combo"

// Recorder persists activation history and forwards events to a Publisher.
// It runs on its own goroutine so storage latency never reaches the frame loop.
type Recorder struct {
	store     *store.Store
	publisher Publisher
	logger    *zap.Logger

	// current is the id of the activation row for the running effect.
	current string
}

// NewRecorder creates a Recorder. s and pub may each be nil.
func NewRecorder(s *store.Store, pub Publisher, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{store: s, publisher: pub, logger: logger}
}

// Run handles events until the channel is closed.
func (r *Recorder) Run(events <-chan engine.Event) {
	for ev := range events {
		r.Handle(ev)
	}
}

// Handle records and publishes a single event.
func (r *Recorder) Handle(ev engine.Event) {
	if r.publisher != nil {
		r.publisher.Publish(ev)
	}
	if r.store == nil {
		return
	}

	switch ev.Type {
	case engine.EventSelected:
		if err := r.store.Settings().Set(LastComboSetting, ev.ComboID); err != nil {
			r.logger.Warn("failed to save last combo", zap.Error(err))
		}

	case engine.EventActivated:
		r.finishCurrent(string(engine.EndCancelled))
		a := &store.Activation{
			ComboID:        ev.ComboID,
			Name:           ev.Name,
			DurationFrames: ev.Duration,
		}
		if err := r.store.Activations().Create(a); err != nil {
			r.logger.Warn("failed to record activation", zap.String("jutsu", ev.Name), zap.Error(err))
			return
		}
		r.current = a.ID

	case engine.EventEnded:
		r.finishCurrent(string(ev.Reason))
	}
}

func (r *Recorder) finishCurrent(reason string) {
	if r.current == "" {
		return
	}
	if err := r.store.Activations().Finish(r.current, reason); err != nil {
		r.logger.Warn("failed to finish activation", zap.String("id", r.current), zap.Error(err))
	}
	r.current = ""
}
