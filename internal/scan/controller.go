package scan

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yizeng/gab/gin/gorm/event-checkin/internal/camera"
	"github.com/yizeng/gab/gin/gorm/event-checkin/internal/domain"
)

// Phase is the UI-observable state of one scanner activation.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseRequesting Phase = "requesting"
	PhaseActive     Phase = "active"
	PhaseDetected   Phase = "detected"
	PhaseCooldown   Phase = "cooldown"
	PhaseError      Phase = "error"
)

// DefaultCooldown is how long a surfaced outcome stays on screen before the
// camera is refreshed and scanning resumes.
const DefaultCooldown = 2 * time.Second

// firstFrameTimeout bounds the wait for the stream to verifiably produce
// frames before the loop starts. Starting early means decoding black frames.
const firstFrameTimeout = 5 * time.Second

// Resolver turns a payload into an admission decision. Implementations return
// failures as outcome values, never as faults.
type Resolver interface {
	Resolve(ctx context.Context, eventID, payload string) domain.CheckInOutcome
}

// Session is the transient state of one camera activation.
type Session struct {
	Phase        Phase
	EventID      string
	FrameCounter uint64
	LastError    error
}

// Controller binds the scan loop lifecycle to observable phases and routes
// detections into the resolver. One controller drives one camera; detections
// are strictly sequential within its lifetime.
type Controller struct {
	device    camera.Device
	tiers     []camera.ConstraintTier
	decode    DecodeFunc
	resolver  Resolver
	cooldown  time.Duration
	onOutcome func(domain.CheckInOutcome)
	logger    *zap.Logger

	mu      sync.Mutex
	phase   Phase
	eventID string
	lastErr error
	gen     uint64
	loop    *Loop
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

type ControllerOption func(*Controller)

func WithTiers(tiers []camera.ConstraintTier) ControllerOption {
	return func(c *Controller) { c.tiers = tiers }
}

func WithCooldown(d time.Duration) ControllerOption {
	return func(c *Controller) { c.cooldown = d }
}

func WithDecoder(decode DecodeFunc) ControllerOption {
	return func(c *Controller) { c.decode = decode }
}

// OnOutcome registers the callback that surfaces outcomes to the operator UI.
func OnOutcome(fn func(domain.CheckInOutcome)) ControllerOption {
	return func(c *Controller) { c.onOutcome = fn }
}

func NewController(device camera.Device, resolver Resolver, opts ...ControllerOption) *Controller {
	c := &Controller{
		device:    device,
		tiers:     camera.DefaultTiers(),
		decode:    DecodeFrame,
		resolver:  resolver,
		cooldown:  DefaultCooldown,
		onOutcome: func(domain.CheckInOutcome) {},
		logger:    zap.L(),
		phase:     PhaseIdle,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Session snapshots the current activation state.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	var ticks uint64
	if c.loop != nil {
		ticks = c.loop.Ticks()
	}

	return Session{
		Phase:        c.phase,
		EventID:      c.eventID,
		FrameCounter: ticks,
		LastError:    c.lastErr,
	}
}

func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.phase
}

// SelectEvent sets the event scope. Changing the event tears the current
// session down; scanning never runs without an event context.
func (c *Controller) SelectEvent(ctx context.Context, eventID string) {
	c.Stop()

	c.mu.Lock()
	c.eventID = eventID
	c.mu.Unlock()

	if eventID != "" {
		c.Start(ctx)
	}
}

// Start begins a scan session. With no event selected the controller stays
// Idle and the camera is never touched.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return
	}
	if c.eventID == "" {
		c.phase = PhaseIdle
		c.mu.Unlock()
		return
	}

	c.gen++
	gen := c.gen
	eventID := c.eventID
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go c.run(runCtx, gen, eventID)
}

// Stop cancels the pending tick and releases the device synchronously.
// An in-flight resolution may still complete but its outcome is discarded.
func (c *Controller) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.gen++ // invalidates in-flight outcomes
	if c.loop != nil {
		c.loop.Stop()
	}
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()

	c.mu.Lock()
	if c.phase != PhaseError {
		c.phase = PhaseIdle
	}
	c.mu.Unlock()
}

// TriggerDecode forces one decode attempt outside the throttle schedule.
func (c *Controller) TriggerDecode() error {
	c.mu.Lock()
	loop := c.loop
	phase := c.phase
	c.mu.Unlock()

	if loop == nil || phase != PhaseActive {
		return ErrLoopStopped
	}

	return loop.TriggerDecode()
}

// run is one session: acquire, verify frames, scan, resolve, cooldown,
// refresh, repeat. The camera is re-acquired from scratch after every
// detection; mobile streams degrade after a scan and a clean start is more
// reliable than a resume.
func (c *Controller) run(ctx context.Context, gen uint64, eventID string) {
	defer c.wg.Done()

	for ctx.Err() == nil {
		c.setPhase(gen, PhaseRequesting)

		src := camera.NewFrameSource(c.device)
		if err := src.Acquire(ctx, c.tiers); err != nil {
			c.fail(gen, err)
			return
		}

		if err := waitFirstFrame(ctx, src); err != nil {
			src.Release()
			if ctx.Err() != nil {
				return
			}
			c.fail(gen, err)
			return
		}

		payloadCh := make(chan string, 1)
		loop := NewLoop(src, c.decode, func(payload string) {
			payloadCh <- payload
		})

		c.mu.Lock()
		if gen != c.gen {
			c.mu.Unlock()
			src.Release()
			return
		}
		c.loop = loop
		c.phase = PhaseActive
		c.mu.Unlock()

		loop.Run(ctx)

		var payload string
		select {
		case payload = <-payloadCh:
		default:
			// Stopped without a detection.
			src.Release()
			return
		}

		c.setPhase(gen, PhaseDetected)

		outcome := c.resolver.Resolve(ctx, eventID, payload)
		if !c.deliver(gen, outcome) {
			src.Release()
			return
		}

		c.setPhase(gen, PhaseCooldown)
		select {
		case <-ctx.Done():
			src.Release()
			return
		case <-time.After(c.cooldown):
		}

		// Full refresh, not a resume.
		src.Release()
	}
}

// deliver surfaces an outcome unless the session it belongs to has ended.
func (c *Controller) deliver(gen uint64, outcome domain.CheckInOutcome) bool {
	c.mu.Lock()
	stale := gen != c.gen
	c.mu.Unlock()

	if stale {
		c.logger.Info("discarding outcome from ended scan session",
			zap.Bool("success", outcome.Success),
			zap.String("message", outcome.Message))
		return false
	}

	c.onOutcome(outcome)

	return true
}

func (c *Controller) setPhase(gen uint64, phase Phase) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return
	}
	c.phase = phase
}

func (c *Controller) fail(gen uint64, err error) {
	c.logger.Warn("scan session failed", zap.Error(err))

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return
	}
	c.phase = PhaseError
	c.lastErr = err
}

// LastError returns the acquisition or stream error that put the controller
// into the Error phase.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lastErr
}

// waitFirstFrame confirms the stream is actually producing frames before the
// loop starts sampling. Verified, not assumed.
func waitFirstFrame(ctx context.Context, src *camera.FrameSource) error {
	deadline := time.NewTimer(firstFrameTimeout)
	defer deadline.Stop()

	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()

	for {
		if frame, err := src.Frame(); err == nil && !frame.Empty() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return errors.New("stream produced no frames")
		case <-tick.C:
		}
	}
}
