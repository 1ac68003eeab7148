package core

import (
	"time"

	"github.com/signalsfoundry/orrery/model"
)

// SpinPerTick is how far every body turns about its own axis each frame.
const SpinPerTick = 0.005

// Scene is the part of the scene registry the frame loop drives.
type Scene interface {
	Spin(delta float64)
	FollowCamera(pos model.Coordinates)
}

// FrameInfo is what a render listener receives for one frame.
type FrameInfo struct {
	Seq   uint64
	Time  time.Time
	Focus FocusState
	// Progress is the transition progress computed this frame, 0 when idle.
	Progress float64
}

// FrameLoop runs the per-frame work in a fixed order: spin bodies, advance
// the camera transition, re-centre follow-camera skyboxes, render.
type FrameLoop struct {
	Scene Scene
	Focus *FocusController

	seq             uint64
	renderListeners []func(FrameInfo)
}

// NewFrameLoop wires a loop over scene and focus.
func NewFrameLoop(scene Scene, focus *FocusController) *FrameLoop {
	return &FrameLoop{
		Scene:           scene,
		Focus:           focus,
		renderListeners: []func(FrameInfo){},
	}
}

// RegisterRenderListener adds a callback run at the end of every frame.
func (l *FrameLoop) RegisterRenderListener(fn func(FrameInfo)) {
	l.renderListeners = append(l.renderListeners, fn)
}

// Tick runs one frame at now.
func (l *FrameLoop) Tick(now time.Time) FrameInfo {
	l.Scene.Spin(SpinPerTick)

	progress, _ := l.Focus.Tick(now)

	l.Scene.FollowCamera(l.Focus.Camera().Position.Coordinates())

	l.seq++
	info := FrameInfo{
		Seq:      l.seq,
		Time:     now,
		Focus:    l.Focus.State(),
		Progress: progress,
	}
	for _, fn := range l.renderListeners {
		fn(info)
	}
	return info
}

// Run ticks the loop n times at the times produced by next.
func (l *FrameLoop) Run(n int, next func() time.Time) {
	for i := 0; i < n; i++ {
		l.Tick(next())
	}
}
