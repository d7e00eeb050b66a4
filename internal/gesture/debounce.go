package gesture

// Debouncer confirms a seal once it has been held for enough consecutive
// frames, and suppresses confirmations while a cooldown is running.
// Update must be called exactly once per frame.
type Debouncer struct {
	requiredHold int
	lastRaw      Gesture
	holdCount    int
	cooldown     int
}

// NewDebouncer creates a Debouncer. Negative holds are treated as zero.
func NewDebouncer(requiredHold int) *Debouncer {
	if requiredHold < 0 {
		requiredHold = 0
	}
	return &Debouncer{requiredHold: requiredHold}
}

// Update feeds this frame's raw seal and returns the confirmed seal, or None.
func (d *Debouncer) Update(raw Gesture) Gesture {
	if raw == d.lastRaw && raw != None {
		d.holdCount++
	} else {
		d.lastRaw = raw
		d.holdCount = 0
	}

	confirmed := None
	if d.holdCount >= d.requiredHold {
		confirmed = d.lastRaw
	}

	if d.cooldown > 0 {
		d.cooldown--
		confirmed = None
	}

	return confirmed
}

// SetCooldown suppresses confirmations for the next frames calls to Update.
func (d *Debouncer) SetCooldown(frames int) {
	if frames < 0 {
		frames = 0
	}
	d.cooldown = frames
}

// Cooldown returns the frames left in the current cooldown window.
func (d *Debouncer) Cooldown() int {
	return d.cooldown
}

// HoldCount returns how many consecutive repeat frames the last seal has had.
func (d *Debouncer) HoldCount() int {
	return d.holdCount
}

// Reset clears hold and cooldown state.
func (d *Debouncer) Reset() {
	d.lastRaw = None
	d.holdCount = 0
	d.cooldown = 0
}
