package viewerapi

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/orrery/core"
	"github.com/signalsfoundry/orrery/internal/session"
	"github.com/signalsfoundry/orrery/model"
)

// ToStruct encodes v through its JSON form into a protobuf Struct.
func ToStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return out, nil
}

// FromStruct decodes a protobuf Struct into v using v's JSON tags.
func FromStruct(s *structpb.Struct, v any) error {
	if s == nil {
		return fmt.Errorf("%w: empty payload", ErrInvalidRequest)
	}
	raw, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

// PlacementView is a placement on the wire.
type PlacementView struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Angle      float64           `json:"angle"`
	Position   model.Coordinates `json:"position"`
	Radius     float64           `json:"radius"`
	Degenerate bool              `json:"degenerate,omitempty"`
}

// InitialPositionsReply is the InitialPositions payload.
type InitialPositionsReply struct {
	OffsetDays float64           `json:"offset_days"`
	Placements []PlacementView   `json:"placements"`
	Scene      session.SceneView `json:"scene"`
}

// PickRequest is the Pick payload.
type PickRequest struct {
	Origin    *model.Coordinates `json:"origin"`
	Direction *model.Coordinates `json:"direction"`
}

// Ray validates the request and converts it.
func (r PickRequest) Ray() (core.Ray, error) {
	return core.NewRay(r.Origin, r.Direction)
}

// PickReply is the Pick payload returned to callers. Picked is empty on a miss.
type PickReply struct {
	Picked string        `json:"picked"`
	Frame  session.Frame `json:"frame"`
}

func placementViews(ps []core.Placement) []PlacementView {
	out := make([]PlacementView, 0, len(ps))
	for _, p := range ps {
		out = append(out, PlacementView{
			ID:         p.ID,
			Name:       p.Name,
			Angle:      p.Angle,
			Position:   p.Position.Coordinates(),
			Radius:     p.Radius,
			Degenerate: p.Degenerate,
		})
	}
	return out
}
