// Package audio plays effect soundtracks through an external player process.
package audio

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"go.uber.org/zap"
)

// Player is the audio collaborator the effect player drives.
// Start and Stop must return promptly; playback happens in the background.
type Player interface {
	Start(handle string) error
	Stop() error
}

// DefaultCommand plays a file once without a window.
var DefaultCommand = []string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"}

// ProcessPlayer plays one file at a time by launching an external command with
// the audio path appended.
type ProcessPlayer struct {
	command []string
	logger  *zap.Logger

	mu      sync.Mutex
	current *exec.Cmd
}

// NewProcessPlayer creates a ProcessPlayer for the given command line.
// An empty command falls back to DefaultCommand.
func NewProcessPlayer(command []string, logger *zap.Logger) *ProcessPlayer {
	if len(command) == 0 {
		command = DefaultCommand
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProcessPlayer{
		command: append([]string(nil), command...),
		logger:  logger,
	}
}

// Start stops any running track and launches a new one without waiting for it.
func (p *ProcessPlayer) Start(handle string) error {
	if handle == "" {
		return errors.New("empty audio handle")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	_ = p.stopLocked()

	args := append(append([]string(nil), p.command[1:]...), handle)
	cmd := exec.Command(p.command[0], args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start audio %s: %w", handle, err)
	}
	p.current = cmd

	// Reap the process so it never lingers as a zombie.
	go func() {
		err := cmd.Wait()
		p.mu.Lock()
		if p.current == cmd {
			p.current = nil
		}
		p.mu.Unlock()
		if err != nil {
			p.logger.Debug("audio process exited", zap.String("handle", handle), zap.Error(err))
		}
	}()

	return nil
}

// Stop kills the running track, if any.
func (p *ProcessPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopLocked()
}

// Playing reports whether a track process is currently running.
func (p *ProcessPlayer) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil
}

func (p *ProcessPlayer) stopLocked() error {
	if p.current == nil || p.current.Process == nil {
		return nil
	}
	cmd := p.current
	p.current = nil
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("stop audio: %w", err)
	}
	return nil
}

// NopPlayer discards all calls.
type NopPlayer struct{}

// Start does nothing.
func (NopPlayer) Start(string) error { return nil }

// Stop does nothing.
func (NopPlayer) Stop() error { return nil }
