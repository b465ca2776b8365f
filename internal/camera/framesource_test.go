package camera

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedDevice replies to each RequestStream call with the next scripted
// result and remembers which tiers were asked for.
type scriptedDevice struct {
	script  []error
	asked   []ConstraintTier
	granted []*countingStream
}

func (d *scriptedDevice) RequestStream(_ context.Context, tier ConstraintTier) (StreamHandle, error) {
	d.asked = append(d.asked, tier)

	call := len(d.asked) - 1
	if call < len(d.script) && d.script[call] != nil {
		return nil, d.script[call]
	}

	stream := &countingStream{width: tier.Width, height: tier.Height}
	d.granted = append(d.granted, stream)

	return stream, nil
}

type countingStream struct {
	width   int
	height  int
	closes  int
	playing bool
}

func (s *countingStream) Frame() (Frame, error) {
	return Frame{
		Data:      make([]byte, s.width*s.height),
		Width:     s.width,
		Height:    s.height,
		Timestamp: time.Now(),
	}, nil
}

func (s *countingStream) Resolution() (int, int) { return s.width, s.height }
func (s *countingStream) Playing() bool          { return s.closes == 0 }
func (s *countingStream) Close() error {
	s.closes++

	return nil
}

func TestFrameSource_Acquire(t *testing.T) {
	t.Run("keeps the first tier the device grants", func(t *testing.T) {
		device := &scriptedDevice{}
		src := NewFrameSource(device)

		err := src.Acquire(context.Background(), DefaultTiers())

		require.NoError(t, err)
		assert.Equal(t, "rear-hd", src.Tier().Label)

		w, h := src.Resolution()
		assert.Equal(t, 1280, w)
		assert.Equal(t, 720, h)
	})

	t.Run("falls through unsupported tiers", func(t *testing.T) {
		device := &scriptedDevice{script: []error{
			ErrDeviceUnsupported,
			ErrDeviceUnsupported,
			nil,
		}}
		src := NewFrameSource(device)

		err := src.Acquire(context.Background(), DefaultTiers())

		require.NoError(t, err)
		assert.Len(t, device.asked, 3)
		assert.Equal(t, "any-sd", src.Tier().Label)
	})

	t.Run("permission denial aborts the walk", func(t *testing.T) {
		device := &scriptedDevice{script: []error{ErrPermissionDenied}}
		src := NewFrameSource(device)

		err := src.Acquire(context.Background(), DefaultTiers())

		assert.ErrorIs(t, err, ErrPermissionDenied)
		assert.Len(t, device.asked, 1, "no point retrying other tiers without permission")
	})

	t.Run("insecure context aborts the walk", func(t *testing.T) {
		device := &scriptedDevice{script: []error{ErrInsecureContext}}
		src := NewFrameSource(device)

		err := src.Acquire(context.Background(), DefaultTiers())

		assert.ErrorIs(t, err, ErrInsecureContext)
		assert.Len(t, device.asked, 1)
	})

	t.Run("reports the last failure when every tier fails", func(t *testing.T) {
		device := &scriptedDevice{script: []error{
			ErrDeviceUnsupported,
			ErrDeviceUnsupported,
			ErrDeviceBusy,
			ErrDeviceNotFound,
		}}
		src := NewFrameSource(device)

		err := src.Acquire(context.Background(), DefaultTiers())

		assert.ErrorIs(t, err, ErrDeviceNotFound)
		assert.Len(t, device.asked, len(DefaultTiers()))
	})

	t.Run("rejects a second acquire while holding a stream", func(t *testing.T) {
		src := NewFrameSource(&scriptedDevice{})

		require.NoError(t, src.Acquire(context.Background(), DefaultTiers()))

		err := src.Acquire(context.Background(), DefaultTiers())
		require.Error(t, err)
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		src := NewFrameSource(&scriptedDevice{})
		err := src.Acquire(ctx, DefaultTiers())

		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("rejects an empty tier list", func(t *testing.T) {
		src := NewFrameSource(&scriptedDevice{})

		err := src.Acquire(context.Background(), nil)
		require.Error(t, err)
	})
}

func TestFrameSource_Frame(t *testing.T) {
	t.Run("draws from the acquired stream", func(t *testing.T) {
		src := NewFrameSource(&scriptedDevice{})
		require.NoError(t, src.Acquire(context.Background(), DefaultTiers()))

		frame, err := src.Frame()

		require.NoError(t, err)
		assert.False(t, frame.Empty())
		assert.True(t, src.Ready())
	})

	t.Run("errors without a stream", func(t *testing.T) {
		src := NewFrameSource(&scriptedDevice{})

		_, err := src.Frame()

		require.Error(t, err)
		assert.False(t, src.Ready())
	})
}

func TestFrameSource_Release(t *testing.T) {
	t.Run("closes the stream exactly once", func(t *testing.T) {
		device := &scriptedDevice{}
		src := NewFrameSource(device)
		require.NoError(t, src.Acquire(context.Background(), DefaultTiers()))

		require.Len(t, device.granted, 1)
		stream := device.granted[0]

		src.Release()
		src.Release()
		src.Release()

		assert.Equal(t, 1, stream.closes)
		assert.False(t, src.Ready())
	})

	t.Run("is a no-op before acquire", func(t *testing.T) {
		src := NewFrameSource(&scriptedDevice{})

		assert.NotPanics(t, func() { src.Release() })
	})
}

func TestDefaultTiers(t *testing.T) {
	tiers := DefaultTiers()

	require.NotEmpty(t, tiers)
	assert.True(t, tiers[0].FacingRear, "best tier prefers the rear camera")
	assert.Equal(t, "any-min", tiers[len(tiers)-1].Label)
}
