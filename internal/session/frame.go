package session

import (
	"time"

	"github.com/signalsfoundry/orrery/core"
	"github.com/signalsfoundry/orrery/kb"
	"github.com/signalsfoundry/orrery/model"
)

// CameraView is the camera as renderers see it.
type CameraView struct {
	Position        model.Coordinates `json:"position"`
	LookAt          model.Coordinates `json:"look_at"`
	ControlsEnabled bool              `json:"controls_enabled"`
}

// LabelView is a visible label and where to draw it.
type LabelView struct {
	BodyID   string            `json:"body_id"`
	Position model.Coordinates `json:"position"`
}

// SkyboxView is the active skybox.
type SkyboxView struct {
	Name     string            `json:"name"`
	Position model.Coordinates `json:"position"`
}

// Frame is the per-frame state a renderer needs. Reason names what started a
// running transition: "select" or "exit".
type Frame struct {
	Seq           uint64             `json:"seq"`
	TimeMs        int64              `json:"time_ms"`
	Mode          string             `json:"mode"`
	Camera        CameraView         `json:"camera"`
	Transitioning bool               `json:"transitioning"`
	Reason        string             `json:"transition_reason,omitempty"`
	Progress      float64            `json:"progress"`
	Selected      string             `json:"selected,omitempty"`
	Info          string             `json:"info,omitempty"`
	Labels        []LabelView        `json:"labels"`
	Skybox        SkyboxView         `json:"skybox"`
	Rotations     map[string]float64 `json:"rotations"`
}

// infoPanel is the session's overlay: it remembers which body's information
// is on display.
type infoPanel struct {
	name string
}

func (p *infoPanel) ShowInfo(name string) { p.name = name }
func (p *infoPanel) HideInfo()            { p.name = "" }

// frameFrom assembles a Frame. It must run on the session goroutine.
func frameFrom(seq uint64, now time.Time, progress float64, st core.FocusState, scene *kb.KnowledgeBase, panel *infoPanel) Frame {
	f := Frame{
		Seq:           seq,
		TimeMs:        now.UnixMilli(),
		Mode:          st.Mode.String(),
		Transitioning: st.Transitioning(),
		Progress:      progress,
		Selected:      st.Selected,
		Info:          panel.name,
		Camera: CameraView{
			Position:        st.Camera.Position.Coordinates(),
			LookAt:          st.Camera.LookAt.Coordinates(),
			ControlsEnabled: st.Camera.ControlsEnabled,
		},
		Labels:    []LabelView{},
		Rotations: make(map[string]float64),
	}
	if st.Transition != nil {
		f.Reason = st.Transition.Reason
		f.Progress = st.Transition.Progress()
	}
	for _, id := range scene.VisibleLabels() {
		if pos, ok := scene.LabelPosition(id); ok {
			f.Labels = append(f.Labels, LabelView{BodyID: id, Position: pos})
		}
	}
	if sb, ok := scene.ActiveSkybox(); ok {
		f.Skybox = SkyboxView{Name: sb.Name, Position: sb.Position}
	}
	for _, b := range scene.ListBodies() {
		f.Rotations[b.ID] = scene.Rotation(b.ID)
	}
	return f
}
