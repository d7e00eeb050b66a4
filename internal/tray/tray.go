// Package tray provides a system tray menu for picking combos while the
// frame loop runs.
package tray

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/getlantern/systray"

	"github.com/ayusman/jutsu/internal/engine"
	"github.com/ayusman/jutsu/internal/gesture"
)

// StatusInterval is how often the status line is refreshed by Watch.
const StatusInterval = 250 * time.Millisecond

// Tray represents the system tray application.
type Tray struct {
	combos []gesture.ComboDefinition

	onSelect func(id string)
	onCancel func()
	onQuit   func()
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuStatus *systray.MenuItem
	status     string
}

// New creates a Tray with one menu item per combo.
func New(combos []gesture.ComboDefinition) *Tray {
	return &Tray{
		combos: append([]gesture.ComboDefinition(nil), combos...),
		status: StatusLine(engine.Status{}),
	}
}

// OnSelect sets the callback invoked with the combo id when a combo item is clicked.
func (t *Tray) OnSelect(fn func(id string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSelect = fn
}

// OnCancel sets the callback invoked when the cancel item is clicked.
func (t *Tray) OnCancel(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onCancel = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application. It must be called from the main
// goroutine and blocks until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray, making Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// ComboLabel is the menu title for a combo.
func ComboLabel(c gesture.ComboDefinition) string {
	return fmt.Sprintf("%s: %s", c.ID, c.Name)
}

func (t *Tray) onReady() {
	systray.SetTitle("Jutsu")
	systray.SetTooltip("Jutsu hand seal effects")

	for _, c := range t.combos {
		item := systray.AddMenuItem(ComboLabel(c), "Select "+c.Name)
		go t.forward(item, c.ID)
	}
	systray.AddSeparator()

	menuCancel := systray.AddMenuItem("Cancel", "Cancel the current combo and effect")
	systray.AddSeparator()

	t.mu.Lock()
	t.menuStatus = systray.AddMenuItem(t.status, "Current state")
	t.menuStatus.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Jutsu")

	go func() {
		for {
			select {
			case <-menuCancel.ClickedCh:
				t.handleCancel()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) forward(item *systray.MenuItem, id string) {
	for range item.ClickedCh {
		t.handleSelect(id)
	}
}

func (t *Tray) onExit() {}

func (t *Tray) handleSelect(id string) {
	t.mu.RLock()
	callback := t.onSelect
	t.mu.RUnlock()

	if callback != nil {
		callback(id)
	}
}

func (t *Tray) handleCancel() {
	t.mu.RLock()
	callback := t.onCancel
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback()
	}

	systray.Quit()
}

// StatusLine renders engine state for the tray: the running effect wins over
// an awaited combo.
func StatusLine(st engine.Status) string {
	if st.Effect != nil {
		return "Active: " + st.Effect.Name
	}
	if st.Progress.State == gesture.StateAwaiting {
		return fmt.Sprintf("Awaiting: %s %d/%d", st.Progress.Name, st.Progress.Step, st.Progress.Total)
	}
	return "Idle"
}

// SetStatus updates the status line.
func (t *Tray) SetStatus(st engine.Status) {
	line := StatusLine(st)

	t.mu.Lock()
	defer t.mu.Unlock()
	if line == t.status {
		return
	}
	t.status = line
	if t.menuStatus != nil {
		t.menuStatus.SetTitle(line)
	}
}

// Status returns the current status line.
func (t *Tray) Status() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// Watch polls status every interval and updates the status line until ctx is done.
func (t *Tray) Watch(ctx context.Context, status func() engine.Status, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.SetStatus(status())
		}
	}
}
