package gesture

import "fmt"

// DefaultDurationFrames is used when nothing else decides an effect's length.
const DefaultDurationFrames = 300

// State is the matcher's state.
type State string

const (
	StateIdle      State = "idle"
	StateAwaiting  State = "awaiting"
	StateCompleted State = "completed"
)

// Cooldown is the debouncer hook the matcher arms after every matched step.
type Cooldown interface {
	SetCooldown(frames int)
}

// DurationResolver decides the effect length for a completed combo.
type DurationResolver interface {
	ResolveDuration(name string, explicit int) int
}

// Activation is emitted once when a combo's last seal is matched.
type Activation struct {
	ComboID  string `json:"combo_id"`
	Name     string `json:"name"`
	Duration int    `json:"duration_frames"`
}

// Outcome reports what a confirmed seal did to the matcher.
type Outcome struct {
	Advanced   bool
	Step       int
	Total      int
	Activation *Activation
}

// Progress is a snapshot of the matcher for guides and status displays.
type Progress struct {
	State   State   `json:"state"`
	ComboID string  `json:"combo_id,omitempty"`
	Name    string  `json:"name,omitempty"`
	Step    int     `json:"step"`
	Total   int     `json:"total"`
	Target  Gesture `json:"target"`
}

// Matcher walks a selected combo one confirmed seal at a time.
// Wrong seals are ignored; they never reset progress.
type Matcher struct {
	library  *Library
	cooldown Cooldown
	window   int
	resolver DurationResolver

	state State
	combo ComboDefinition
	step  int
}

// NewMatcher creates an idle matcher. window is the cooldown armed after each
// matched step; resolver may be nil.
func NewMatcher(library *Library, cooldown Cooldown, window int, resolver DurationResolver) *Matcher {
	return &Matcher{
		library:  library,
		cooldown: cooldown,
		window:   window,
		resolver: resolver,
		state:    StateIdle,
	}
}

// Select starts awaiting the first seal of the given combo from any state and
// clears the cooldown.
func (m *Matcher) Select(id string) error {
	def, ok := m.library.Get(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCombo, id)
	}
	m.combo = def
	m.step = 0
	m.state = StateAwaiting
	if m.cooldown != nil {
		m.cooldown.SetCooldown(0)
	}
	return nil
}

// OnConfirmed consumes one confirmed seal. It only acts while awaiting.
func (m *Matcher) OnConfirmed(g Gesture) Outcome {
	if m.state != StateAwaiting {
		return Outcome{}
	}

	total := len(m.combo.Sequence)
	if g == None || g != m.combo.Sequence[m.step] {
		return Outcome{Step: m.step, Total: total}
	}

	m.step++
	if m.cooldown != nil {
		m.cooldown.SetCooldown(m.window)
	}

	out := Outcome{Advanced: true, Step: m.step, Total: total}
	if m.step == total {
		m.state = StateCompleted
		out.Activation = &Activation{
			ComboID:  m.combo.ID,
			Name:     m.combo.Name,
			Duration: m.resolveDuration(),
		}
	}
	return out
}

// Release hands a completed combo off and returns to idle.
func (m *Matcher) Release() {
	if m.state == StateCompleted {
		m.Clear()
	}
}

// Clear drops any selection and returns to idle.
func (m *Matcher) Clear() {
	m.state = StateIdle
	m.combo = ComboDefinition{}
	m.step = 0
}

// State returns the current state.
func (m *Matcher) State() State {
	return m.state
}

// Progress returns a snapshot of the current selection.
func (m *Matcher) Progress() Progress {
	p := Progress{State: m.state}
	if m.state == StateIdle {
		return p
	}
	p.ComboID = m.combo.ID
	p.Name = m.combo.Name
	p.Step = m.step
	p.Total = len(m.combo.Sequence)
	if m.step < p.Total {
		p.Target = m.combo.Sequence[m.step]
	}
	return p
}

func (m *Matcher) resolveDuration() int {
	if m.resolver != nil {
		return m.resolver.ResolveDuration(m.combo.Name, m.combo.Duration)
	}
	if m.combo.Duration > 0 {
		return m.combo.Duration
	}
	return DefaultDurationFrames
}
