package core

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/signalsfoundry/orrery/model"
	"github.com/signalsfoundry/orrery/timectrl"
)

// ErrBodyNotFound is returned when a selection names an unknown body.
var ErrBodyNotFound = errors.New("body not found")

const (
	// TransitionDuration is how long a focus move takes.
	TransitionDuration = 1000 * time.Millisecond
	// ExitStandoff is how far in front of the central body the overview sits.
	ExitStandoff = 100.0
	// MinDistance and MaxDistance bound the orbit controls' zoom.
	MinDistance = 12.0
	MaxDistance = 1000.0

	SkyboxNormal = "normal"
	SkyboxTop    = "top"
)

var (
	// InitialCameraPosition is where the camera starts.
	InitialCameraPosition = Vec3{Z: 100}
	// TopViewPosition looks down on the orbital plane.
	TopViewPosition = Vec3{Y: 450, Z: -50}
	// NormalViewPosition is where leaving the top view puts the camera.
	NormalViewPosition = Vec3{X: 100, Z: 200}
)

// ViewMode is the camera's base mode. A transition overlays either mode.
type ViewMode int

const (
	// ViewFree lets the user orbit the camera.
	ViewFree ViewMode = iota
	// ViewTopDown fixes the camera above the scene with panning disabled.
	ViewTopDown
)

func (m ViewMode) String() string {
	switch m {
	case ViewFree:
		return "free"
	case ViewTopDown:
		return "top_down"
	default:
		return "unknown"
	}
}

// BodyLookup resolves bodies by ID.
type BodyLookup interface {
	GetBody(id string) *model.CelestialBody
	CentralBody() *model.CelestialBody
	ListBodies() []*model.CelestialBody
}

// LabelBoard controls per-body label visibility.
type LabelBoard interface {
	ShowOnlyLabel(id string) error
	HideAllLabels()
}

// SkyboxSwitcher swaps the skybox when the view mode changes.
type SkyboxSwitcher interface {
	SetActiveSkybox(name string) error
}

// Overlay shows and hides the information panel for a body.
type Overlay interface {
	ShowInfo(bodyName string)
	HideInfo()
}

// FocusObserver is told about controller activity; used for metrics.
type FocusObserver interface {
	Selected(bodyID string)
	Deselected()
	TransitionStarted(reason string)
	TransitionCompleted()
	ViewModeChanged(mode ViewMode)
}

// Camera is the controller's view of the render camera.
type Camera struct {
	Position Vec3
	// LookAt is the orbit controls' pivot.
	LookAt          Vec3
	ControlsEnabled bool
}

// Transition is a timed move of the camera from Start to Target. A zero
// StartedAt is stamped by the first Tick that advances it.
type Transition struct {
	Start     Vec3
	Target    Vec3
	StartedAt time.Time
	Duration  time.Duration
	Reason    string

	progress float64
}

// Progress returns the last progress value computed for the transition.
func (t Transition) Progress() float64 { return t.progress }

// advance moves progress to the value for now. Progress never decreases, so a
// clock that steps backwards holds the camera still instead of reversing it.
func (t *Transition) advance(now time.Time) float64 {
	if t.StartedAt.IsZero() {
		t.StartedAt = now
	}
	p := 1.0
	if t.Duration > 0 {
		p = float64(now.Sub(t.StartedAt)) / float64(t.Duration)
	}
	p = math.Max(0, math.Min(1, p))
	if p < t.progress {
		p = t.progress
	}
	t.progress = p
	return p
}

// FocusState is a read-only snapshot of the controller.
type FocusState struct {
	Mode       ViewMode
	Camera     Camera
	Selected   string
	Transition *Transition
}

// Transitioning reports whether a camera move is in progress.
func (s FocusState) Transitioning() bool { return s.Transition != nil }

// FocusController decides where the camera is and what it looks at. It is not
// safe for concurrent use: exactly one owner calls it, once per event or frame.
type FocusController struct {
	clock    timectrl.Clock
	bodies   BodyLookup
	labels   LabelBoard
	skybox   SkyboxSwitcher
	overlay  Overlay
	observer FocusObserver
	duration time.Duration

	camera     Camera
	mode       ViewMode
	transition *Transition
	selected   string
}

// FocusOption customises FocusController construction.
type FocusOption func(*FocusController)

// WithOverlay attaches the information panel collaborator.
func WithOverlay(o Overlay) FocusOption {
	return func(c *FocusController) { c.overlay = o }
}

// WithSkyboxSwitcher attaches the skybox collaborator used by the top view.
func WithSkyboxSwitcher(s SkyboxSwitcher) FocusOption {
	return func(c *FocusController) { c.skybox = s }
}

// WithFocusObserver attaches an observer notified of selections and transitions.
func WithFocusObserver(o FocusObserver) FocusOption {
	return func(c *FocusController) { c.observer = o }
}

// WithTransitionDuration overrides TransitionDuration.
func WithTransitionDuration(d time.Duration) FocusOption {
	return func(c *FocusController) { c.duration = d }
}

// NewFocusController returns a controller in free view with the camera at
// InitialCameraPosition looking at the origin.
func NewFocusController(clock timectrl.Clock, bodies BodyLookup, labels LabelBoard, opts ...FocusOption) *FocusController {
	if clock == nil {
		clock = timectrl.WallClock{}
	}
	c := &FocusController{
		clock:    clock,
		bodies:   bodies,
		labels:   labels,
		duration: TransitionDuration,
		camera: Camera{
			Position:        InitialCameraPosition,
			ControlsEnabled: true,
		},
		mode: ViewFree,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Standoff is the offset from a body at which the camera settles when
// focusing on it: half the orbit radius along +z, never closer than
// MinDistance.
func Standoff(b *model.CelestialBody) Vec3 {
	return Vec3{Z: math.Max(b.OrbitRadius/2, MinDistance)}
}

// SelectBody focuses the camera on id: it shows only that body's label, opens
// the overlay and starts a transition to the body's stand-off point. A
// transition already in progress is replaced.
func (c *FocusController) SelectBody(id string) error {
	b := c.bodies.GetBody(id)
	if b == nil {
		return fmt.Errorf("%w: %q", ErrBodyNotFound, id)
	}
	if c.labels != nil {
		if err := c.labels.ShowOnlyLabel(id); err != nil {
			return err
		}
	}
	c.selected = id
	if c.observer != nil {
		c.observer.Selected(id)
	}

	pos := VecFrom(b.Position)
	c.camera.LookAt = pos
	c.startTransition(pos.Add(Standoff(b)), "select")

	if c.overlay != nil {
		c.overlay.ShowInfo(b.Name)
	}
	return nil
}

// Deselect hides every label, clears the selection and closes the overlay.
// A running transition is left alone.
func (c *FocusController) Deselect() {
	if c.labels != nil {
		c.labels.HideAllLabels()
	}
	c.selected = ""
	if c.overlay != nil {
		c.overlay.HideInfo()
	}
	if c.observer != nil {
		c.observer.Deselected()
	}
}

// ExitView closes the overlay and moves the camera back to the overview in
// front of the central body.
func (c *FocusController) ExitView() error {
	if c.overlay != nil {
		c.overlay.HideInfo()
	}
	central := c.bodies.CentralBody()
	if central == nil {
		return fmt.Errorf("%w: no central body", ErrBodyNotFound)
	}
	pos := VecFrom(central.Position)
	c.camera.LookAt = pos
	c.startTransition(pos.Add(Vec3{Z: ExitStandoff}), "exit")
	return nil
}

// ToggleTopView flips between free and top-down view. The camera jumps
// immediately; a running transition keeps writing the camera on later ticks.
// The mode changes even when the skybox cannot be switched; that failure is
// returned alongside the new mode.
func (c *FocusController) ToggleTopView() (ViewMode, error) {
	skybox := SkyboxNormal
	if c.mode == ViewFree {
		c.mode = ViewTopDown
		c.camera.Position = TopViewPosition
		c.camera.ControlsEnabled = false
		skybox = SkyboxTop
	} else {
		c.mode = ViewFree
		c.camera.Position = NormalViewPosition
		c.camera.ControlsEnabled = true
	}
	var err error
	if c.skybox != nil {
		// A scene without the named skybox keeps its current one.
		if serr := c.skybox.SetActiveSkybox(skybox); serr != nil {
			err = fmt.Errorf("switch skybox for %s view: %w", c.mode, serr)
		}
	}
	if c.observer != nil {
		c.observer.ViewModeChanged(c.mode)
	}
	return c.mode, err
}

// Tick advances a running transition to now and moves the camera. It returns
// the transition's progress and whether one was running.
func (c *FocusController) Tick(now time.Time) (float64, bool) {
	if c.transition == nil {
		return 0, false
	}
	p := c.transition.advance(now)
	if p >= 1 {
		c.camera.Position = c.transition.Target
		c.transition = nil
		if c.observer != nil {
			c.observer.TransitionCompleted()
		}
		return 1, true
	}
	c.camera.Position = Lerp(c.transition.Start, c.transition.Target, p)
	return p, true
}

// State returns a snapshot of the controller.
func (c *FocusController) State() FocusState {
	s := FocusState{
		Mode:     c.mode,
		Camera:   c.camera,
		Selected: c.selected,
	}
	if c.transition != nil {
		tr := *c.transition
		s.Transition = &tr
	}
	return s
}

// Camera returns the current camera.
func (c *FocusController) Camera() Camera { return c.camera }

// Selected returns the selected body ID, or "".
func (c *FocusController) Selected() string { return c.selected }

// Mode returns the base view mode.
func (c *FocusController) Mode() ViewMode { return c.mode }

func (c *FocusController) startTransition(target Vec3, reason string) {
	start := c.camera.Position
	if start == target {
		// Already there; a zero-length move would never differ from a settled camera.
		c.transition = nil
		return
	}
	c.transition = &Transition{
		Start:     start,
		Target:    target,
		StartedAt: c.clock.Now(),
		Duration:  c.duration,
		Reason:    reason,
	}
	if c.observer != nil {
		c.observer.TransitionStarted(reason)
	}
}
