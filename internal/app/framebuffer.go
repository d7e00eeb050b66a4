package app

import (
	"context"
	"errors"
	"sync"

	"gocv.io/x/gocv"
)

// FrameBuffer holds the most recent frame as JPEG for any number of readers.
// Frames are only encoded while at least one reader is watching.
type FrameBuffer struct {
	mu      sync.Mutex
	jpeg    []byte
	seq     uint64
	readers int
	updated chan struct{}
}

// NewFrameBuffer creates an empty FrameBuffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{updated: make(chan struct{})}
}

// Watch registers a reader until the returned func is called.
func (b *FrameBuffer) Watch() (release func()) {
	b.mu.Lock()
	b.readers++
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			b.readers--
			b.mu.Unlock()
		})
	}
}

// Watching reports whether any reader is registered.
func (b *FrameBuffer) Watching() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.readers > 0
}

// Set encodes frame and replaces the stored image. Without readers the frame
// is dropped unencoded.
func (b *FrameBuffer) Set(frame *gocv.Mat) error {
	if frame == nil || frame.Empty() {
		return errors.New("empty frame")
	}
	if !b.Watching() {
		return nil
	}
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return err
	}
	defer buf.Close()

	b.SetJPEG(append([]byte(nil), buf.GetBytes()...))
	return nil
}

// SetJPEG stores an already encoded image and wakes waiting readers.
func (b *FrameBuffer) SetJPEG(jpeg []byte) {
	b.mu.Lock()
	b.jpeg = jpeg
	b.seq++
	close(b.updated)
	b.updated = make(chan struct{})
	b.mu.Unlock()
}

// Latest returns the current image and its sequence number. The sequence is
// zero until the first frame arrives.
func (b *FrameBuffer) Latest() ([]byte, uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.jpeg, b.seq
}

// Next blocks until a frame newer than after is available or ctx is done.
func (b *FrameBuffer) Next(ctx context.Context, after uint64) ([]byte, uint64, error) {
	for {
		b.mu.Lock()
		if b.seq > after {
			jpeg, seq := b.jpeg, b.seq
			b.mu.Unlock()
			return jpeg, seq, nil
		}
		wait := b.updated
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, after, ctx.Err()
		case <-wait:
		}
	}
}
