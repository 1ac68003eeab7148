package session

import (
	"fmt"
	"strings"

	"github.com/signalsfoundry/orrery/core"
	"github.com/signalsfoundry/orrery/kb"
	"github.com/signalsfoundry/orrery/model"
)

const (
	// SkyboxSize is the edge length of both skybox cubes.
	SkyboxSize = 1000.0

	planetLightIntensity = 1.0
	planetLightRange     = 50.0
	fillLightIntensity   = 0.5
)

// Projection hints handed to renderers.
const (
	FieldOfView = 32.0
	NearPlane   = 0.1
	FarPlane    = 1000.0
)

var (
	normalSkyboxTextures = []string{
		"img/skybox/space_ft.png",
		"img/skybox/space_bk.png",
		"img/skybox/space_up.png",
		"img/skybox/space_dn.png",
		"img/skybox/space_rt.png",
		"img/skybox/space_lf.png",
	}
	topSkyboxTextures = []string{
		"img/rashi.jpeg", "img/rashi.jpeg", "img/rashi.jpeg",
		"img/rashi.jpeg", "img/rashi.jpeg", "img/rashi.jpeg",
	}

	// fillLights light the planets' far sides. Directions are normalized.
	fillLights = []struct {
		id  string
		dir core.Vec3
	}{
		{"back", core.Vec3{X: 160}},
		{"right", core.Vec3{X: 80, Y: -160}},
		{"top", core.Vec3{X: 80, Z: 80}},
		{"left", core.Vec3{X: 80, Y: 160}},
	}
)

// buildScene registers placed bodies, their lights and both skyboxes.
func buildScene(bodies []*model.CelestialBody) (*kb.KnowledgeBase, error) {
	scene := kb.NewKnowledgeBase()
	for _, b := range bodies {
		if err := scene.AddBody(b); err != nil {
			return nil, fmt.Errorf("build scene: %w", err)
		}
		light := kb.Light{
			ID:        b.ID + "-light",
			Kind:      kb.LightPoint,
			BodyID:    b.ID,
			Intensity: planetLightIntensity,
			Range:     planetLightRange,
		}
		if b.Central {
			light.Range = 0
		}
		scene.AddLight(light)
	}
	for _, l := range fillLights {
		scene.AddLight(kb.Light{
			ID:        l.id + "-fill",
			Kind:      kb.LightDirectional,
			Position:  l.dir.Normalize().Coordinates(),
			Intensity: fillLightIntensity,
		})
	}

	scene.AddSkybox(kb.Skybox{Name: core.SkyboxNormal, Size: SkyboxSize, Textures: normalSkyboxTextures}, true)
	scene.AddSkybox(kb.Skybox{Name: core.SkyboxTop, Size: SkyboxSize, Textures: topSkyboxTextures}, true)
	return scene, nil
}

// BodyView is the static description of a body sent to renderers.
type BodyView struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Texture     string            `json:"texture"`
	Material    string            `json:"material"`
	Size        float64           `json:"size"`
	OrbitRadius float64           `json:"orbit_radius"`
	PeriodDays  float64           `json:"period_days"`
	Central     bool              `json:"central"`
	Angle       float64           `json:"angle"`
	Position    model.Coordinates `json:"position"`
	Degenerate  bool              `json:"degenerate,omitempty"`
}

// CameraHints carries projection and orbit-control limits.
type CameraHints struct {
	FieldOfView     float64           `json:"fov"`
	Near            float64           `json:"near"`
	Far             float64           `json:"far"`
	MinDistance     float64           `json:"min_distance"`
	MaxDistance     float64           `json:"max_distance"`
	InitialPosition model.Coordinates `json:"initial_position"`
}

// SceneView is everything a renderer needs to build its scene graph once.
type SceneView struct {
	OffsetDays float64     `json:"offset_days"`
	Bodies     []BodyView  `json:"bodies"`
	Lights     []kb.Light  `json:"lights"`
	Skyboxes   []string    `json:"skyboxes"`
	Camera     CameraHints `json:"camera"`
}

func defaultCameraHints() CameraHints {
	return CameraHints{
		FieldOfView:     FieldOfView,
		Near:            NearPlane,
		Far:             FarPlane,
		MinDistance:     core.MinDistance,
		MaxDistance:     core.MaxDistance,
		InitialPosition: core.InitialCameraPosition.Coordinates(),
	}
}

// FormatPositionTable renders one line per orbiting body with its in-plane
// coordinates to two decimals.
func FormatPositionTable(placements []core.Placement) string {
	var sb strings.Builder
	for _, p := range placements {
		if p.Radius == 0 {
			continue
		}
		fmt.Fprintf(&sb, "%s position - x: %.2f, y: %.2f\n", p.Name, p.Position.X, p.Position.Z)
	}
	return sb.String()
}
