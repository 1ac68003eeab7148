package session

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/signalsfoundry/orrery/catalog"
	"github.com/signalsfoundry/orrery/core"
	"github.com/signalsfoundry/orrery/internal/logging"
	"github.com/signalsfoundry/orrery/internal/observability"
	"github.com/signalsfoundry/orrery/kb"
	"github.com/signalsfoundry/orrery/model"
	"github.com/signalsfoundry/orrery/timectrl"
)

var testStart = time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

func newTestSession(t *testing.T, offset core.TimeOffset) (*Session, *timectrl.ManualClock) {
	t.Helper()
	clock := timectrl.NewManualClock(testStart)
	s, err := New(context.Background(), Config{Offset: offset, Clock: clock})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Close)
	// A renderer runs a frame before anything is clicked.
	if _, err := s.Tick(context.Background(), testStart); err != nil {
		t.Fatalf("first Tick: %v", err)
	}
	return s, clock
}

func TestNewPlacesBodiesOnce(t *testing.T) {
	s, _ := newTestSession(t, 182.5)

	positions := s.InitialPositions()
	if len(positions) != 9 {
		t.Fatalf("placements = %d, want 9", len(positions))
	}
	var earth core.Placement
	for _, p := range positions {
		if p.ID == "earth" {
			earth = p
		}
	}
	if earth.Position.X > -70+1e-9 || earth.Position.X < -70-1e-9 {
		t.Fatalf("earth at %+v, want (-70, 0, ~0)", earth.Position)
	}

	// Ticks never move bodies.
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := s.Tick(ctx, testStart.Add(time.Duration(i)*16*time.Millisecond)); err != nil {
			t.Fatalf("Tick: %v", err)
		}
	}
	for i, p := range s.InitialPositions() {
		if p != positions[i] {
			t.Fatalf("placement %s changed after ticks", p.ID)
		}
	}
}

func TestNewRejectsBadInputs(t *testing.T) {
	ctx := context.Background()
	if _, err := New(ctx, Config{Offset: -1}); !errors.Is(err, core.ErrInvalidTimeOffset) {
		t.Fatalf("negative offset error = %v", err)
	}
	bad := []*model.CelestialBody{{ID: "earth", Size: 1, OrbitRadius: 70, PeriodDays: 365}}
	if _, err := New(ctx, Config{Bodies: bad}); !errors.Is(err, catalog.ErrInvalidCatalog) {
		t.Fatalf("catalog without central body error = %v", err)
	}
}

func TestNewLogsDegenerateBody(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewWithWriter(logging.Config{Level: "debug"}, &buf)
	bodies := catalog.Default()
	for _, b := range bodies {
		if b.ID == "mars" {
			b.PeriodDays = 0
		}
	}
	s, err := New(context.Background(), Config{Bodies: bodies, Log: log})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	out := buf.String()
	if !strings.Contains(out, "parked at the centre") || !strings.Contains(out, "body_id=mars") {
		t.Fatalf("missing degenerate warning:\n%s", out)
	}
	for _, p := range s.InitialPositions() {
		if p.ID == "mars" && (!p.Degenerate || p.Position != (core.Vec3{})) {
			t.Fatalf("mars placement = %+v", p)
		}
	}
}

func TestSceneDescription(t *testing.T) {
	s, _ := newTestSession(t, 0)
	v := s.Scene()

	if len(v.Bodies) != 9 || v.Bodies[0].ID != "sun" || !v.Bodies[0].Central {
		t.Fatalf("bodies = %+v", v.Bodies)
	}
	if v.Camera.FieldOfView != 32 || v.Camera.MinDistance != 12 || v.Camera.MaxDistance != 1000 {
		t.Fatalf("camera hints = %+v", v.Camera)
	}

	var point, directional int
	for _, l := range v.Lights {
		switch l.Kind {
		case kb.LightPoint:
			point++
			if l.BodyID == "sun" && l.Range != 0 {
				t.Fatalf("sun light range = %v, want unlimited", l.Range)
			}
			if l.BodyID == "earth" && (l.Range != 50 || l.Position != (model.Coordinates{X: 70})) {
				t.Fatalf("earth light = %+v", l)
			}
		case kb.LightDirectional:
			directional++
			if l.Intensity != 0.5 {
				t.Fatalf("fill light intensity = %v", l.Intensity)
			}
		}
	}
	if point != 9 || directional != 4 {
		t.Fatalf("lights: %d point, %d directional", point, directional)
	}

	// The copy handed out is not the session's own.
	v.Bodies[0].Name = "changed"
	if s.Scene().Bodies[0].Name != "Sun" {
		t.Fatalf("Scene() exposed internal state")
	}
}

func TestSelectTickAndSettle(t *testing.T) {
	s, clock := newTestSession(t, 0)
	ctx := context.Background()

	f, err := s.Select(ctx, "earth")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if f.Selected != "earth" || !f.Transitioning || f.Info != "Earth" {
		t.Fatalf("frame after select = %+v", f)
	}
	if len(f.Labels) != 1 || f.Labels[0].Position != (model.Coordinates{X: 70, Y: 10}) {
		t.Fatalf("labels = %+v", f.Labels)
	}

	f, _ = s.Tick(ctx, clock.Advance(500*time.Millisecond))
	if f.Progress != 0.5 || f.Camera.Position != (model.Coordinates{X: 35, Z: 67.5}) {
		t.Fatalf("halfway frame = %+v", f)
	}
	if f.Skybox.Position != f.Camera.Position {
		t.Fatalf("skybox at %+v, camera at %+v", f.Skybox.Position, f.Camera.Position)
	}

	f, _ = s.Tick(ctx, clock.Advance(600*time.Millisecond))
	if f.Transitioning || f.Camera.Position != (model.Coordinates{X: 70, Z: 35}) {
		t.Fatalf("settled frame = %+v", f)
	}
	if f.Rotations["earth"] < 2*core.SpinPerTick-1e-12 {
		t.Fatalf("rotation = %v after two ticks", f.Rotations["earth"])
	}
}

func TestSelectEmptyDeselects(t *testing.T) {
	s, _ := newTestSession(t, 0)
	ctx := context.Background()
	_, _ = s.Select(ctx, "mars")

	f, err := s.Select(ctx, "")
	if err != nil {
		t.Fatalf("deselect: %v", err)
	}
	if f.Selected != "" || f.Info != "" || len(f.Labels) != 0 {
		t.Fatalf("frame after deselect = %+v", f)
	}
}

func TestSelectUnknownBody(t *testing.T) {
	s, _ := newTestSession(t, 0)
	if _, err := s.Select(context.Background(), "pluto"); !errors.Is(err, core.ErrBodyNotFound) {
		t.Fatalf("Select(pluto) error = %v", err)
	}
}

func TestPickHitAndMiss(t *testing.T) {
	reg := prometheus.NewRegistry()
	sceneMetrics, err := observability.NewSceneCollector(reg)
	if err != nil {
		t.Fatalf("NewSceneCollector: %v", err)
	}
	s, err := New(context.Background(), Config{Offset: 0, Clock: timectrl.NewManualClock(testStart), Scene: sceneMetrics})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	id, f, err := s.Pick(ctx, core.Ray{Origin: core.Vec3{X: 100, Z: 200}, Direction: core.Vec3{Z: -1}})
	if err != nil || id != "jupiter" || f.Selected != "jupiter" {
		t.Fatalf("Pick = %q, %+v, %v", id, f, err)
	}

	id, f, err = s.Pick(ctx, core.Ray{Origin: core.Vec3{Y: 300}, Direction: core.Vec3{Y: 1}})
	if err != nil || id != "" || f.Selected != "" {
		t.Fatalf("miss Pick = %q, %+v, %v", id, f, err)
	}
	if got := testutil.ToFloat64(sceneMetrics.PickMisses); got != 1 {
		t.Fatalf("pick misses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(sceneMetrics.Selections.WithLabelValues("jupiter")); got != 1 {
		t.Fatalf("jupiter selections = %v, want 1", got)
	}
}

func TestToggleTopViewAndExit(t *testing.T) {
	s, clock := newTestSession(t, 0)
	ctx := context.Background()

	f, _ := s.ToggleTopView(ctx)
	if f.Mode != "top_down" || f.Skybox.Name != core.SkyboxTop || f.Camera.ControlsEnabled {
		t.Fatalf("top view frame = %+v", f)
	}
	if f.Camera.Position != (model.Coordinates{Y: 450, Z: -50}) {
		t.Fatalf("top view camera = %+v", f.Camera.Position)
	}

	f, _ = s.ToggleTopView(ctx)
	if f.Mode != "free" || f.Skybox.Name != core.SkyboxNormal || !f.Camera.ControlsEnabled {
		t.Fatalf("free view frame = %+v", f)
	}

	_, _ = s.Select(ctx, "saturn")
	f, err := s.ExitView(ctx)
	if err != nil {
		t.Fatalf("ExitView: %v", err)
	}
	if f.Info != "" || !f.Transitioning {
		t.Fatalf("exit frame = %+v", f)
	}
	f, _ = s.Tick(ctx, clock.Advance(2*time.Second))
	if f.Camera.Position != (model.Coordinates{Z: 100}) {
		t.Fatalf("camera after exit = %+v", f.Camera.Position)
	}
}

func TestSnapshotDoesNotAdvance(t *testing.T) {
	s, clock := newTestSession(t, 0)
	ctx := context.Background()
	_, _ = s.Select(ctx, "venus")
	clock.Advance(5 * time.Second)

	f, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if !f.Transitioning || f.Camera.Position != (model.Coordinates{Z: 100}) {
		t.Fatalf("snapshot advanced the transition: %+v", f)
	}
}

func TestClosedSession(t *testing.T) {
	reg := prometheus.NewRegistry()
	viewer, _ := observability.NewViewerCollector(reg)
	s, err := New(context.Background(), Config{Metrics: viewer})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := testutil.ToFloat64(viewer.ActiveSessions); got != 1 {
		t.Fatalf("active sessions = %v, want 1", got)
	}
	s.Close()
	s.Close()
	if got := testutil.ToFloat64(viewer.ActiveSessions); got != 0 {
		t.Fatalf("active sessions = %v after close", got)
	}
	if _, err := s.Tick(context.Background(), time.Now()); !errors.Is(err, ErrClosed) {
		t.Fatalf("Tick after Close error = %v", err)
	}
}

func TestCancelledContext(t *testing.T) {
	s, _ := newTestSession(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// The session goroutine may win the race with the cancelled context, so
	// success is allowed; any error must be the context's.
	if _, err := s.Snapshot(ctx); err != nil && !errors.Is(err, context.Canceled) {
		t.Fatalf("Snapshot error = %v", err)
	}
}

func TestConcurrentCallers(t *testing.T) {
	s, clock := newTestSession(t, 0)
	ctx := context.Background()
	ids := []string{"mercury", "venus", "earth", "mars", ""}

	done := make(chan struct{})
	for i := 0; i < 20; i++ {
		i := i
		go func() {
			defer func() { done <- struct{}{} }()
			_, _ = s.Select(ctx, ids[i%len(ids)])
			_, _ = s.Tick(ctx, clock.Now())
		}()
	}
	for i := 0; i < 20; i++ {
		<-done
	}
	if _, err := s.Snapshot(ctx); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
}

func TestFormatPositionTable(t *testing.T) {
	s, _ := newTestSession(t, 0)
	table := FormatPositionTable(s.InitialPositions())
	lines := strings.Split(strings.TrimSpace(table), "\n")
	if len(lines) != 8 {
		t.Fatalf("table has %d lines, want 8:\n%s", len(lines), table)
	}
	if lines[2] != "Earth position - x: 70.00, y: 0.00" {
		t.Fatalf("earth line = %q", lines[2])
	}
}

func TestTransitionsUseTickTimeBase(t *testing.T) {
	s, clock := newTestSession(t, 0)
	ctx := context.Background()

	// The renderer's clock runs three seconds ahead of the session clock.
	renderer := clock.Now().Add(3 * time.Second)
	if _, err := s.Tick(ctx, renderer); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if _, err := s.Select(ctx, "earth"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	f, err := s.Tick(ctx, renderer.Add(16*time.Millisecond))
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if !f.Transitioning || f.Progress < 0.015 || f.Progress > 0.017 {
		t.Fatalf("first frame 16ms after select: progress=%v transitioning=%v", f.Progress, f.Transitioning)
	}

	f, _ = s.Tick(ctx, renderer.Add(516*time.Millisecond))
	if math.Abs(f.Progress-0.516) > 1e-9 {
		t.Fatalf("progress = %v, want 0.516", f.Progress)
	}
}

func TestSelectBeforeFirstFrameStartsOnIt(t *testing.T) {
	clock := timectrl.NewManualClock(testStart)
	s, err := New(context.Background(), Config{Clock: clock})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Close)
	ctx := context.Background()

	if _, err := s.Select(ctx, "earth"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	renderer := testStart.Add(3*time.Second + 16*time.Millisecond)
	f, _ := s.Tick(ctx, renderer)
	if !f.Transitioning || f.Progress != 0 {
		t.Fatalf("first frame: progress=%v transitioning=%v", f.Progress, f.Transitioning)
	}
	f, _ = s.Tick(ctx, renderer.Add(time.Second))
	if f.Transitioning || f.Camera.Position != (model.Coordinates{X: 70, Z: 35}) {
		t.Fatalf("frame one second later = %+v", f)
	}
}
