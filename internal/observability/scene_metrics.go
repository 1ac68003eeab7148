package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalsfoundry/orrery/core"
)

// SceneCollector exposes frame loop and camera focus metrics. It satisfies
// core.FocusObserver so a focus controller can drive it directly.
type SceneCollector struct {
	gatherer prometheus.Gatherer

	FrameDuration        prometheus.Histogram
	FramesTotal          prometheus.Counter
	TransitionsStarted   *prometheus.CounterVec
	TransitionsCompleted prometheus.Counter
	Selections           *prometheus.CounterVec
	Deselections         prometheus.Counter
	PickMisses           prometheus.Counter
	ViewMode             prometheus.Gauge
}

// NewSceneCollector registers scene metrics against the provided registerer.
func NewSceneCollector(reg prometheus.Registerer) (*SceneCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	frameHistogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "orrery_frame_duration_seconds",
		Help:    "Time spent running one frame: spin, transition, skybox follow and render callbacks.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.016, 0.033, 0.1},
	})
	frameHistogram, err := registerHistogram(reg, frameHistogram, "orrery_frame_duration_seconds")
	if err != nil {
		return nil, err
	}

	frames, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orrery_frames_total",
		Help: "Frames run across all sessions.",
	}), "orrery_frames_total")
	if err != nil {
		return nil, err
	}

	started, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orrery_transitions_started_total",
		Help: "Camera transitions started, labeled by reason (select or exit).",
	}, []string{"reason"}), "orrery_transitions_started_total")
	if err != nil {
		return nil, err
	}

	completed, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orrery_transitions_completed_total",
		Help: "Camera transitions that reached their target.",
	}), "orrery_transitions_completed_total")
	if err != nil {
		return nil, err
	}

	selections, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orrery_selections_total",
		Help: "Body selections, labeled by body ID.",
	}, []string{"body"}), "orrery_selections_total")
	if err != nil {
		return nil, err
	}

	deselections, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orrery_deselections_total",
		Help: "Times the selection was cleared.",
	}), "orrery_deselections_total")
	if err != nil {
		return nil, err
	}

	misses, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orrery_pick_misses_total",
		Help: "Pointer picks that hit no body.",
	}), "orrery_pick_misses_total")
	if err != nil {
		return nil, err
	}

	mode, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orrery_view_mode",
		Help: "Last view mode entered: 0 free, 1 top-down.",
	}), "orrery_view_mode")
	if err != nil {
		return nil, err
	}

	return &SceneCollector{
		gatherer:             gatherer,
		FrameDuration:        frameHistogram,
		FramesTotal:          frames,
		TransitionsStarted:   started,
		TransitionsCompleted: completed,
		Selections:           selections,
		Deselections:         deselections,
		PickMisses:           misses,
		ViewMode:             mode,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *SceneCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// ObserveFrame records one frame and how long it took.
func (c *SceneCollector) ObserveFrame(d time.Duration) {
	if c == nil {
		return
	}
	c.FramesTotal.Inc()
	c.FrameDuration.Observe(d.Seconds())
}

// IncPickMisses counts a pick that hit nothing.
func (c *SceneCollector) IncPickMisses() {
	if c == nil {
		return
	}
	c.PickMisses.Inc()
}

func (c *SceneCollector) Selected(bodyID string) {
	if c == nil {
		return
	}
	c.Selections.WithLabelValues(bodyID).Inc()
}

func (c *SceneCollector) Deselected() {
	if c == nil {
		return
	}
	c.Deselections.Inc()
}

func (c *SceneCollector) TransitionStarted(reason string) {
	if c == nil {
		return
	}
	c.TransitionsStarted.WithLabelValues(reason).Inc()
}

func (c *SceneCollector) TransitionCompleted() {
	if c == nil {
		return
	}
	c.TransitionsCompleted.Inc()
}

func (c *SceneCollector) ViewModeChanged(mode core.ViewMode) {
	if c == nil {
		return
	}
	c.ViewMode.Set(float64(mode))
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
