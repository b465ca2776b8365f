package camera

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// FrameSource owns one acquired camera stream: constraint negotiation with
// tier fallback on the way in, guaranteed release on the way out.
type FrameSource struct {
	device Device

	mu       sync.Mutex
	handle   StreamHandle
	tier     ConstraintTier
	width    int
	height   int
	released bool
}

func NewFrameSource(device Device) *FrameSource {
	return &FrameSource{
		device: device,
	}
}

// Acquire walks the tiers most-specific first and keeps the first stream the
// device grants. Permission and secure-context failures abort the walk; the
// remaining failures fall through to the next tier.
func (s *FrameSource) Acquire(ctx context.Context, tiers []ConstraintTier) error {
	if len(tiers) == 0 {
		return errors.New("no constraint tiers given")
	}

	s.mu.Lock()
	if s.handle != nil {
		s.mu.Unlock()
		return errors.New("frame source already holds a stream")
	}
	s.mu.Unlock()

	var lastErr error
	for _, tier := range tiers {
		if err := ctx.Err(); err != nil {
			return err
		}

		handle, err := s.device.RequestStream(ctx, tier)
		if err != nil {
			if errors.Is(err, ErrPermissionDenied) || errors.Is(err, ErrInsecureContext) {
				return err
			}

			lastErr = err
			continue
		}

		w, h := handle.Resolution()

		s.mu.Lock()
		s.handle = handle
		s.tier = tier
		s.width = w
		s.height = h
		s.released = false
		s.mu.Unlock()

		return nil
	}

	return fmt.Errorf("all constraint tiers failed -> %w", lastErr)
}

// Frame returns the stream's most recent frame.
func (s *FrameSource) Frame() (Frame, error) {
	s.mu.Lock()
	handle := s.handle
	s.mu.Unlock()

	if handle == nil {
		return Frame{}, errors.New("frame source has no active stream")
	}

	return handle.Frame()
}

// Ready reports whether the stream is acquired and still producing frames.
func (s *FrameSource) Ready() bool {
	s.mu.Lock()
	handle := s.handle
	s.mu.Unlock()

	return handle != nil && handle.Playing()
}

func (s *FrameSource) Resolution() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.width, s.height
}

func (s *FrameSource) Tier() ConstraintTier {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.tier
}

// Release returns the device. Safe to call more than once and on every exit
// path; the second and later calls are no-ops.
func (s *FrameSource) Release() {
	s.mu.Lock()
	handle := s.handle
	s.handle = nil
	already := s.released
	s.released = true
	s.mu.Unlock()

	if already || handle == nil {
		return
	}

	_ = handle.Close()
}
