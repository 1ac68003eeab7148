// Package session owns one viewer's scene and camera. Every mutation runs on
// a single goroutine; public methods hand work to it and wait for the result.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/signalsfoundry/orrery/catalog"
	"github.com/signalsfoundry/orrery/core"
	"github.com/signalsfoundry/orrery/internal/logging"
	"github.com/signalsfoundry/orrery/internal/observability"
	"github.com/signalsfoundry/orrery/kb"
	"github.com/signalsfoundry/orrery/model"
	"github.com/signalsfoundry/orrery/timectrl"
)

// ErrClosed is returned by calls made after Close.
var ErrClosed = errors.New("session closed")

// Config describes a session.
type Config struct {
	Offset core.TimeOffset
	// Bodies defaults to the embedded catalog. The session takes ownership.
	Bodies []*model.CelestialBody
	// Clock timestamps snapshots and is what Now reports; defaults to the
	// wall clock. Transitions are timed on the frame times passed to Tick.
	Clock              timectrl.Clock
	TransitionDuration time.Duration

	Log     logging.Logger
	Scene   *observability.SceneCollector
	Metrics *observability.ViewerCollector
}

// Session is a single viewer: its placed bodies, scene registry, focus
// controller and frame loop.
type Session struct {
	log     logging.Logger
	metrics *observability.ViewerCollector
	sceneM  *observability.SceneCollector
	clock   timectrl.Clock

	offset     core.TimeOffset
	placements []core.Placement
	view       SceneView

	tasks     chan func()
	quit      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once

	// Owned by the run goroutine.
	scene  *kb.KnowledgeBase
	focus  *core.FocusController
	loop   *core.FrameLoop
	panel  *infoPanel
	frames *frameClock
	last   Frame
}

// frameClock reads the time of the last frame the session ran. Transition
// starts are stamped from it, so progress is always measured on the time base
// of the ticks that advance it. It reads zero before the first frame, which
// leaves the stamp to the first Tick.
type frameClock struct {
	last time.Time
}

func (c *frameClock) Now() time.Time { return c.last }

// New validates the catalog and offset, places every body once and starts
// the session goroutine. Any precondition failure aborts construction.
func New(ctx context.Context, cfg Config) (*Session, error) {
	log := cfg.Log
	if log == nil {
		log = logging.Noop()
	}
	if _, err := core.NewTimeOffset(cfg.Offset.Days()); err != nil {
		return nil, err
	}

	bodies := cfg.Bodies
	if bodies == nil {
		bodies = catalog.Default()
	}
	if err := catalog.Validate(bodies); err != nil {
		return nil, err
	}

	placements, err := core.PlaceBodies(cfg.Offset, bodies)
	if err != nil {
		return nil, fmt.Errorf("place bodies: %w", err)
	}
	for _, p := range placements {
		if p.Degenerate {
			log.Warn(ctx, "body has no usable orbital period; parked at the centre",
				logging.String("body_id", p.ID),
			)
			continue
		}
		if p.Radius > 0 {
			log.Info(ctx, "planet placed",
				logging.String("body_id", p.ID),
				logging.Float("angle", p.Angle),
				logging.Float("x", p.Position.X),
				logging.Float("z", p.Position.Z),
			)
		}
	}

	scene, err := buildScene(bodies)
	if err != nil {
		return nil, err
	}
	scene.Subscribe(func(e kb.Event) {
		switch e.Type {
		case kb.EventSkyboxChanged:
			log.Debug(ctx, "skybox changed", logging.String("skybox", e.Skybox))
		case kb.EventLabelsChanged:
			log.Debug(ctx, "labels changed", logging.String("body_id", e.BodyID))
		}
	})

	clock := cfg.Clock
	if clock == nil {
		clock = timectrl.WallClock{}
	}
	panel := &infoPanel{}
	opts := []core.FocusOption{
		core.WithOverlay(panel),
		core.WithSkyboxSwitcher(scene),
	}
	if cfg.Scene != nil {
		opts = append(opts, core.WithFocusObserver(cfg.Scene))
	}
	if cfg.TransitionDuration > 0 {
		opts = append(opts, core.WithTransitionDuration(cfg.TransitionDuration))
	}
	frames := &frameClock{}
	focus := core.NewFocusController(frames, scene, scene, opts...)

	s := &Session{
		log:        log,
		metrics:    cfg.Metrics,
		sceneM:     cfg.Scene,
		clock:      clock,
		offset:     cfg.Offset,
		placements: placements,
		tasks:      make(chan func()),
		quit:       make(chan struct{}),
		stopped:    make(chan struct{}),
		scene:      scene,
		focus:      focus,
		loop:       core.NewFrameLoop(scene, focus),
		panel:      panel,
		frames:     frames,
	}
	s.view = s.describe(bodies)
	s.last = frameFrom(0, clock.Now(), 0, focus.State(), scene, panel)

	s.metrics.SessionOpened()
	go s.run()
	return s, nil
}

func (s *Session) run() {
	defer close(s.stopped)
	for {
		select {
		case fn := <-s.tasks:
			fn()
		case <-s.quit:
			return
		}
	}
}

// do runs fn on the session goroutine and waits for it.
func (s *Session) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	task := func() {
		fn()
		close(done)
	}
	select {
	case s.tasks <- task:
	case <-s.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the session goroutine. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.quit)
		<-s.stopped
		s.metrics.SessionClosed()
	})
}

// Offset returns the time offset the bodies were placed at.
func (s *Session) Offset() core.TimeOffset { return s.offset }

// InitialPositions returns where each body was placed, in catalog order.
// Placements never change after New.
func (s *Session) InitialPositions() []core.Placement {
	return append([]core.Placement(nil), s.placements...)
}

// Scene returns the static scene description.
func (s *Session) Scene() SceneView {
	v := s.view
	v.Bodies = append([]BodyView(nil), s.view.Bodies...)
	v.Lights = append([]kb.Light(nil), s.view.Lights...)
	v.Skyboxes = append([]string(nil), s.view.Skyboxes...)
	return v
}

// Now reads the session clock.
func (s *Session) Now() time.Time { return s.clock.Now() }

// Tick runs one frame at now: spin, transition, skybox follow, render. Every
// caller of Tick on a session must use the same time base; transitions are
// timed against it.
func (s *Session) Tick(ctx context.Context, now time.Time) (Frame, error) {
	var f Frame
	err := s.do(ctx, func() {
		start := time.Now()
		s.frames.last = now
		info := s.loop.Tick(now)
		f = frameFrom(info.Seq, now, info.Progress, info.Focus, s.scene, s.panel)
		s.last = f
		s.sceneM.ObserveFrame(time.Since(start))
	})
	return f, err
}

// Select focuses on id; an empty id deselects.
func (s *Session) Select(ctx context.Context, id string) (Frame, error) {
	var (
		f      Frame
		selErr error
	)
	err := s.do(ctx, func() {
		if id == "" {
			s.focus.Deselect()
		} else {
			selErr = s.focus.SelectBody(id)
		}
		f = s.snapshot()
	})
	if err != nil {
		return Frame{}, err
	}
	if selErr != nil {
		return f, selErr
	}
	s.log.Debug(ctx, "selection changed", logging.String("body_id", id))
	return f, nil
}

// Pick resolves a pointer ray: the nearest body is selected, a miss
// deselects. It returns the picked body ID or "".
func (s *Session) Pick(ctx context.Context, ray core.Ray) (string, Frame, error) {
	var (
		id      string
		f       Frame
		pickErr error
	)
	err := s.do(ctx, func() {
		id, pickErr = s.focus.Click(ray)
		if id == "" && pickErr == nil {
			s.sceneM.IncPickMisses()
		}
		f = s.snapshot()
	})
	if err != nil {
		return "", Frame{}, err
	}
	return id, f, pickErr
}

// ToggleTopView flips between free and top-down view.
func (s *Session) ToggleTopView(ctx context.Context) (Frame, error) {
	var f Frame
	err := s.do(ctx, func() {
		mode, skyErr := s.focus.ToggleTopView()
		if skyErr != nil {
			s.log.Warn(ctx, "skybox not switched", logging.String("mode", mode.String()), logging.Err(skyErr))
		}
		s.log.Debug(ctx, "view mode toggled", logging.String("mode", mode.String()))
		f = s.snapshot()
	})
	return f, err
}

// ExitView returns the camera to the overview of the central body.
func (s *Session) ExitView(ctx context.Context) (Frame, error) {
	var (
		f       Frame
		exitErr error
	)
	err := s.do(ctx, func() {
		exitErr = s.focus.ExitView()
		f = s.snapshot()
	})
	if err != nil {
		return Frame{}, err
	}
	return f, exitErr
}

// Snapshot returns the current state without running a frame.
func (s *Session) Snapshot(ctx context.Context) (Frame, error) {
	var f Frame
	err := s.do(ctx, func() { f = s.snapshot() })
	return f, err
}

// snapshot must run on the session goroutine. It is stamped with the last
// frame's time so renderers only ever see one time base.
func (s *Session) snapshot() Frame {
	now := s.frames.last
	if now.IsZero() {
		now = s.clock.Now()
	}
	return frameFrom(s.last.Seq, now, 0, s.focus.State(), s.scene, s.panel)
}

func (s *Session) describe(bodies []*model.CelestialBody) SceneView {
	byID := make(map[string]core.Placement, len(s.placements))
	for _, p := range s.placements {
		byID[p.ID] = p
	}
	v := SceneView{
		OffsetDays: s.offset.Days(),
		Lights:     s.scene.ListLights(),
		Skyboxes:   []string{core.SkyboxNormal, core.SkyboxTop},
		Camera:     defaultCameraHints(),
	}
	for _, b := range bodies {
		v.Bodies = append(v.Bodies, BodyView{
			ID:          b.ID,
			Name:        b.Name,
			Texture:     b.Texture,
			Material:    string(b.Material),
			Size:        b.Size,
			OrbitRadius: b.OrbitRadius,
			PeriodDays:  b.PeriodDays,
			Central:     b.Central,
			Angle:       b.Angle,
			Position:    b.Position,
			Degenerate:  byID[b.ID].Degenerate,
		})
	}
	return v
}
