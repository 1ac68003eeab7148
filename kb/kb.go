package kb

import (
	"errors"
	"fmt"
	"sync"

	"github.com/signalsfoundry/orrery/model"
)

var (
	// ErrBodyExists indicates a body with the same ID is already registered.
	ErrBodyExists = errors.New("body already exists")
	// ErrBodyNotFound indicates a requested body is not registered.
	ErrBodyNotFound = errors.New("body not found")
	// ErrSkyboxNotFound indicates a requested skybox is not registered.
	ErrSkyboxNotFound = errors.New("skybox not found")
)

// LabelOffsetY is how far above its body a label floats.
const LabelOffsetY = 10.0

// EventType indicates what kind of change happened in the scene.
type EventType int

const (
	EventBodyAdded EventType = iota
	EventLabelsChanged
	EventSkyboxChanged
)

// Event is emitted to subscribers when something interesting happens.
type Event struct {
	Type EventType
	// BodyID is set for EventBodyAdded and, when a single label is shown,
	// for EventLabelsChanged.
	BodyID string
	// Skybox is set for EventSkyboxChanged.
	Skybox string
}

// LightKind distinguishes point lights from directional lights.
type LightKind string

const (
	LightPoint       LightKind = "point"
	LightDirectional LightKind = "directional"
)

// Light is a scene light. Point lights sit on a body; directional lights only
// carry a direction in Position.
type Light struct {
	ID        string            `json:"id"`
	Kind      LightKind         `json:"kind"`
	BodyID    string            `json:"body_id,omitempty"`
	Position  model.Coordinates `json:"position"`
	Intensity float64           `json:"intensity"`
	// Range is the point light cutoff distance; 0 means unlimited.
	Range float64 `json:"range"`
}

// Skybox is a cube of textures drawn around the camera.
type Skybox struct {
	Name     string
	Size     float64
	Textures []string
	Position model.Coordinates
}

// KnowledgeBase is the in-memory scene registry: bodies, their labels and
// spin, lights and skyboxes. Skyboxes that track the camera are held in an
// explicit follow-camera set.
type KnowledgeBase struct {
	mu sync.RWMutex

	bodies []*model.CelestialBody
	byID   map[string]*model.CelestialBody
	spin   map[string]float64
	labels map[string]bool

	lights []Light

	skyboxes     map[string]*Skybox
	followCamera map[string]struct{}
	activeSkybox string

	subs []func(Event)
}

// NewKnowledgeBase constructs an empty scene.
func NewKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{
		byID:         make(map[string]*model.CelestialBody),
		spin:         make(map[string]float64),
		labels:       make(map[string]bool),
		skyboxes:     make(map[string]*Skybox),
		followCamera: make(map[string]struct{}),
	}
}

// AddBody registers a body with a hidden label. It returns an error if the ID
// already exists.
func (kb *KnowledgeBase) AddBody(b *model.CelestialBody) error {
	if b == nil || b.ID == "" {
		return fmt.Errorf("nil or empty body")
	}

	kb.mu.Lock()
	if _, exists := kb.byID[b.ID]; exists {
		kb.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrBodyExists, b.ID)
	}
	// store pointer so that motion models can update in-place
	kb.byID[b.ID] = b
	kb.bodies = append(kb.bodies, b)
	kb.labels[b.ID] = false
	subs := kb.subscribers()
	kb.mu.Unlock()

	notify(subs, Event{Type: EventBodyAdded, BodyID: b.ID})
	return nil
}

// GetBody returns the body with the given ID, or nil if not found.
func (kb *KnowledgeBase) GetBody(id string) *model.CelestialBody {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return kb.byID[id]
}

// CentralBody returns the body every orbit is centred on, or nil.
func (kb *KnowledgeBase) CentralBody() *model.CelestialBody {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	for _, b := range kb.bodies {
		if b.Central {
			return b
		}
	}
	return nil
}

// ListBodies returns the bodies in registration order.
func (kb *KnowledgeBase) ListBodies() []*model.CelestialBody {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return append([]*model.CelestialBody(nil), kb.bodies...)
}

// ShowOnlyLabel makes id's label the only visible one.
func (kb *KnowledgeBase) ShowOnlyLabel(id string) error {
	kb.mu.Lock()
	if _, ok := kb.byID[id]; !ok {
		kb.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrBodyNotFound, id)
	}
	for k := range kb.labels {
		kb.labels[k] = k == id
	}
	subs := kb.subscribers()
	kb.mu.Unlock()

	notify(subs, Event{Type: EventLabelsChanged, BodyID: id})
	return nil
}

// HideAllLabels hides every label.
func (kb *KnowledgeBase) HideAllLabels() {
	kb.mu.Lock()
	for k := range kb.labels {
		kb.labels[k] = false
	}
	subs := kb.subscribers()
	kb.mu.Unlock()

	notify(subs, Event{Type: EventLabelsChanged})
}

// LabelVisible reports whether id's label is shown.
func (kb *KnowledgeBase) LabelVisible(id string) bool {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return kb.labels[id]
}

// VisibleLabels returns the IDs of shown labels in body order.
func (kb *KnowledgeBase) VisibleLabels() []string {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	var out []string
	for _, b := range kb.bodies {
		if kb.labels[b.ID] {
			out = append(out, b.ID)
		}
	}
	return out
}

// LabelPosition returns where id's label is drawn: just above the body.
func (kb *KnowledgeBase) LabelPosition(id string) (model.Coordinates, bool) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	b, ok := kb.byID[id]
	if !ok {
		return model.Coordinates{}, false
	}
	pos := b.Position
	pos.Y += LabelOffsetY
	return pos, true
}

// Spin rotates every body about its own y axis by delta radians.
func (kb *KnowledgeBase) Spin(delta float64) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	for _, b := range kb.bodies {
		kb.spin[b.ID] += delta
	}
}

// Rotation returns id's accumulated spin in radians.
func (kb *KnowledgeBase) Rotation(id string) float64 {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return kb.spin[id]
}

// AddLight registers a light.
func (kb *KnowledgeBase) AddLight(l Light) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	kb.lights = append(kb.lights, l)
}

// ListLights returns a snapshot of the registered lights. Point lights bound
// to a body report the body's current position.
func (kb *KnowledgeBase) ListLights() []Light {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	out := make([]Light, len(kb.lights))
	for i, l := range kb.lights {
		if b, ok := kb.byID[l.BodyID]; ok && l.Kind == LightPoint {
			l.Position = b.Position
		}
		out[i] = l
	}
	return out
}

// AddSkybox registers a skybox. When followCamera is set the skybox is
// re-centred on the camera every frame. The first skybox added becomes active.
func (kb *KnowledgeBase) AddSkybox(s Skybox, followCamera bool) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	sb := s
	kb.skyboxes[s.Name] = &sb
	if followCamera {
		kb.followCamera[s.Name] = struct{}{}
	}
	if kb.activeSkybox == "" {
		kb.activeSkybox = s.Name
	}
}

// SetActiveSkybox swaps the skybox in the scene.
func (kb *KnowledgeBase) SetActiveSkybox(name string) error {
	kb.mu.Lock()
	if _, ok := kb.skyboxes[name]; !ok {
		kb.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrSkyboxNotFound, name)
	}
	changed := kb.activeSkybox != name
	kb.activeSkybox = name
	subs := kb.subscribers()
	kb.mu.Unlock()

	if changed {
		notify(subs, Event{Type: EventSkyboxChanged, Skybox: name})
	}
	return nil
}

// ActiveSkybox returns a copy of the skybox currently in the scene.
func (kb *KnowledgeBase) ActiveSkybox() (Skybox, bool) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	sb, ok := kb.skyboxes[kb.activeSkybox]
	if !ok {
		return Skybox{}, false
	}
	return *sb, true
}

// FollowCamera moves every follow-camera skybox to pos.
func (kb *KnowledgeBase) FollowCamera(pos model.Coordinates) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	for name := range kb.followCamera {
		kb.skyboxes[name].Position = pos
	}
}

// Subscribe registers a callback for scene events. It returns an unsubscribe function.
func (kb *KnowledgeBase) Subscribe(fn func(Event)) (unsubscribe func()) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	kb.subs = append(kb.subs, fn)
	idx := len(kb.subs) - 1

	return func() {
		kb.mu.Lock()
		defer kb.mu.Unlock()
		if idx < 0 || idx >= len(kb.subs) {
			return
		}
		kb.subs[idx] = nil
		idx = -1
	}
}

// subscribers must be called with kb.mu held.
func (kb *KnowledgeBase) subscribers() []func(Event) {
	return append([]func(Event){}, kb.subs...)
}

// notify runs outside the lock to avoid deadlocks.
func notify(subs []func(Event), e Event) {
	for _, sub := range subs {
		if sub != nil {
			sub(e)
		}
	}
}
