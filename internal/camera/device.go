package camera

import (
	"context"
	"errors"
)

// Acquisition failures, mirrored from the platform error taxonomy. Permission
// and secure-context failures apply to every constraint tier, so acquisition
// stops walking the tier list when it sees them.
var (
	ErrPermissionDenied  = errors.New("camera permission denied")
	ErrDeviceNotFound    = errors.New("no camera device found")
	ErrDeviceUnsupported = errors.New("camera device does not support the requested constraints")
	ErrDeviceBusy        = errors.New("camera device is in use by another consumer")
	ErrInsecureContext   = errors.New("camera requires a secure transport")
)

// ConstraintTier is one level of camera capability to request. Tiers are
// tried most-specific first; a device grants the first tier it can satisfy.
type ConstraintTier struct {
	Label      string
	FacingRear bool
	Width      int
	Height     int
	FrameRate  int
}

// DefaultTiers orders requests from best decode accuracy down to
// "any camera at all", which matters on older mobile hardware.
func DefaultTiers() []ConstraintTier {
	return []ConstraintTier{
		{Label: "rear-hd", FacingRear: true, Width: 1280, Height: 720, FrameRate: 30},
		{Label: "rear-sd", FacingRear: true, Width: 640, Height: 480, FrameRate: 30},
		{Label: "any-sd", Width: 640, Height: 480, FrameRate: 15},
		{Label: "any-min", Width: 320, Height: 240},
	}
}

// Device is the platform camera collaborator.
type Device interface {
	// RequestStream opens a stream satisfying the tier, or fails with one of
	// the taxonomy errors above.
	RequestStream(ctx context.Context, tier ConstraintTier) (StreamHandle, error)
}

// StreamHandle is an open video stream. The holder owns the device
// exclusively until Close.
type StreamHandle interface {
	// Frame returns the most recent frame. Older frames are dropped, never
	// queued; scanning wants latency over completeness.
	Frame() (Frame, error)
	Resolution() (width, height int)
	// Playing reports whether the stream is still producing frames.
	Playing() bool
	Close() error
}
