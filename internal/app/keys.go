package app

// Key bindings outside the combo ids.
const (
	KeyCancel = 'c'
	KeyQuit   = 'q'
)

// ReservedKey reports whether id is a key binding that shadows a combo id.
func ReservedKey(id string) bool {
	return id == string(KeyCancel) || id == string(KeyQuit)
}

// HandleKey maps a key code from the display window to a command: a combo id
// selects that combo, KeyCancel cancels and KeyQuit quits. It reports whether
// the key was bound. Negative codes mean no key was pressed.
func (a *App) HandleKey(key int) bool {
	if key < 0 {
		return false
	}
	ch := rune(key & 0xFF)

	switch ch {
	case KeyQuit:
		a.Quit()
		return true
	case KeyCancel:
		a.Cancel()
		return true
	}

	return a.Select(string(ch)) == nil
}
