package effect

import (
	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/jutsu/internal/audio"
	"github.com/ayusman/jutsu/internal/compositor"
	"github.com/ayusman/jutsu/internal/detector"
	"github.com/ayusman/jutsu/internal/gesture"
)

// Overlay sizes for the anchored modes.
const (
	HandOverlaySize = 250
	EyeOverlaySize  = 40
)

// Session is a snapshot of the running effect.
type Session struct {
	Name      string `json:"name"`
	Mode      Mode   `json:"mode"`
	Elapsed   int    `json:"elapsed_frames"`
	Remaining int    `json:"remaining_frames"`
}

// Player runs at most one effect session at a time. It is driven from the
// frame loop and is not safe for concurrent use.
type Player struct {
	assets          map[string]*Asset
	audio           audio.Player
	logger          *zap.Logger
	defaultDuration int

	asset     *Asset
	elapsed   int
	remaining int
}

// NewPlayer creates a Player over the loaded assets. A nil audio player plays
// nothing; a non-positive defaultDuration falls back to 300 frames.
func NewPlayer(assets map[string]*Asset, a audio.Player, defaultDuration int, logger *zap.Logger) *Player {
	if a == nil {
		a = audio.NopPlayer{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultDuration <= 0 {
		defaultDuration = gesture.DefaultDurationFrames
	}
	if assets == nil {
		assets = make(map[string]*Asset)
	}
	return &Player{
		assets:          assets,
		audio:           a,
		logger:          logger,
		defaultDuration: defaultDuration,
	}
}

// Has reports whether an asset is loaded for name.
func (p *Player) Has(name string) bool {
	_, ok := p.assets[name]
	return ok
}

// ResolveDuration picks the session length for an effect: an explicit combo
// duration, else the effect's fixed duration, else the asset's frame count,
// else the default.
func (p *Player) ResolveDuration(name string, explicit int) int {
	if explicit > 0 {
		return explicit
	}
	if a, ok := p.assets[name]; ok {
		if a.FixedDuration > 0 {
			return a.FixedDuration
		}
		if n := a.FrameCount(); n > 0 {
			return n
		}
	}
	return p.defaultDuration
}

// Activate starts a session for name lasting duration frames, ending any
// running session first. It returns false, doing nothing else, when no asset
// is loaded under name.
func (p *Player) Activate(name string, duration int) bool {
	asset, ok := p.assets[name]
	if !ok {
		p.logger.Debug("effect not loaded", zap.String("effect", name))
		return false
	}

	p.Cancel()

	if duration <= 0 {
		duration = p.ResolveDuration(name, 0)
	}
	p.asset = asset
	p.elapsed = 0
	p.remaining = duration

	if asset.Audio != "" {
		if err := p.audio.Start(asset.Audio); err != nil {
			p.logger.Warn("audio start failed", zap.String("effect", name), zap.Error(err))
		}
	}
	return true
}

// Tick draws the current asset frame onto frame and advances the session by
// one frame. frame may be nil, in which case only timing advances. It returns
// true on the tick that ends the session.
func (p *Player) Tick(frame *gocv.Mat, perception detector.Perception) bool {
	if p.asset == nil {
		return false
	}

	if frame != nil && !frame.Empty() {
		p.draw(frame, perception)
	}

	p.elapsed++
	p.remaining--
	if p.remaining <= 0 {
		p.deactivate()
		return true
	}
	return false
}

func (p *Player) draw(frame *gocv.Mat, perception detector.Perception) {
	src := p.asset.Frame(p.elapsed)
	if src == nil {
		return
	}

	switch p.asset.Mode {
	case ModeFullFrame:
		compositor.Cover(frame, src)

	case ModeAnchorEyes:
		if perception.Eyes == nil {
			return
		}
		for _, center := range perception.Eyes.Points() {
			compositor.BlendCentered(frame, src, center, EyeOverlaySize)
		}

	case ModeAnchorHand:
		if len(perception.Hands) == 0 {
			return
		}
		center := perception.Hands[0].Points[detector.MiddleMCP]
		compositor.BlendCentered(frame, src, center, HandOverlaySize)
	}
}

// IsActive reports whether a session is running.
func (p *Player) IsActive() bool {
	return p.asset != nil
}

// Session returns the running session, if any.
func (p *Player) Session() (Session, bool) {
	if p.asset == nil {
		return Session{}, false
	}
	return Session{
		Name:      p.asset.Name,
		Mode:      p.asset.Mode,
		Elapsed:   p.elapsed,
		Remaining: p.remaining,
	}, true
}

// Cancel ends the running session early. It reports whether one was running.
func (p *Player) Cancel() bool {
	if p.asset == nil {
		return false
	}
	p.deactivate()
	return true
}

func (p *Player) deactivate() {
	p.asset = nil
	p.elapsed = 0
	p.remaining = 0
	if err := p.audio.Stop(); err != nil {
		p.logger.Warn("audio stop failed", zap.Error(err))
	}
}
