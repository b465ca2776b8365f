package scan

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/yizeng/gab/gin/gorm/event-checkin/internal/camera"
)

const (
	// DefaultSampleInterval decodes every 15th tick. Decoding every frame
	// buys nothing and burns CPU; the skip interval is the performance knob
	// of this component.
	DefaultSampleInterval = 15

	// DefaultTickRate approximates a 30fps per-frame callback.
	DefaultTickRate = 33 * time.Millisecond
)

// ErrNoCodeInFrame is returned by TriggerDecode when the operator forces a
// decode and the current frame holds no readable code. The automatic loop
// never surfaces this; it just waits for the next sample.
var ErrNoCodeInFrame = errors.New("no code in frame")

var ErrLoopStopped = errors.New("scan loop is stopped")

// FrameProvider is what the loop needs from an acquired FrameSource.
type FrameProvider interface {
	Ready() bool
	Frame() (camera.Frame, error)
}

// Detection receives the decoded payload. It is invoked at most once per
// loop activation.
type Detection func(payload string)

// Loop drives frame sampling at a throttled rate and emits at most one
// detection per activation. Single consumer, no parallel decode workers.
type Loop struct {
	source      FrameProvider
	decode      DecodeFunc
	onDetect    Detection
	tickRate    time.Duration
	sampleEvery uint64

	stopped atomic.Bool
	ticks   atomic.Uint64
}

func NewLoop(source FrameProvider, decode DecodeFunc, onDetect Detection) *Loop {
	return &Loop{
		source:      source,
		decode:      decode,
		onDetect:    onDetect,
		tickRate:    DefaultTickRate,
		sampleEvery: DefaultSampleInterval,
	}
}

// SetTickRate adjusts the tick cadence. Test hook, also used by hosts whose
// frame callback runs slower than 30fps.
func (l *Loop) SetTickRate(d time.Duration) {
	if d > 0 {
		l.tickRate = d
	}
}

// Ticks reports how many ticks this activation has run.
func (l *Loop) Ticks() uint64 {
	return l.ticks.Load()
}

// Run blocks until a detection fires, Stop is called, or the context ends.
// A tick with the source not ready reschedules without sampling; a sampling
// tick draws the current frame and decodes it.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.tickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if l.stopped.Load() {
			return
		}

		if !l.source.Ready() {
			continue
		}

		tick := l.ticks.Add(1)
		if tick%l.sampleEvery != 0 {
			continue
		}

		if l.fireIfDecoded() {
			return
		}
	}
}

// TriggerDecode is the operator-initiated retry path: one decode attempt
// outside the throttle schedule. Unlike the automatic path, a miss is
// reported to the caller as ErrNoCodeInFrame.
func (l *Loop) TriggerDecode() error {
	if l.stopped.Load() {
		return ErrLoopStopped
	}

	if l.fireIfDecoded() {
		return nil
	}

	return ErrNoCodeInFrame
}

// Stop cancels the loop. No detection fires after Stop returns; the stop flag
// is checked both before scheduling and before invoking the callback.
func (l *Loop) Stop() {
	l.stopped.Store(true)
}

// fireIfDecoded draws the current frame, decodes, and on success claims the
// single detection slot for this activation. The flag flips before the
// callback runs so no second tick can be scheduled behind it.
func (l *Loop) fireIfDecoded() bool {
	frame, err := l.source.Frame()
	if err != nil {
		return false
	}

	payload, ok := l.decode(frame)
	if !ok {
		return false
	}

	if !l.stopped.CompareAndSwap(false, true) {
		// Lost the race with Stop or another detection path; the
		// activation already ended, so this result is dropped.
		return true
	}

	l.onDetect(payload)

	return true
}
