package viewerapi

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/signalsfoundry/orrery/internal/logging"
	"github.com/signalsfoundry/orrery/internal/session"
)

// Server implements ViewerServiceServer over one session. gRPC callers share
// that session; renderers that need their own use the WebSocket bridge.
type Server struct {
	sess *session.Session
	log  logging.Logger

	serverFrames bool
}

// ServerOption customises a Server.
type ServerOption func(*Server)

// WithServerDrivenFrames declares that something else ticks the session on
// the server clock. Tick then reports the latest frame without running one,
// and a client-supplied now_ms is rejected since it would mix a second time
// base into the session.
func WithServerDrivenFrames() ServerOption {
	return func(s *Server) { s.serverFrames = true }
}

// NewServer wires a Server to sess.
func NewServer(sess *session.Session, log logging.Logger, opts ...ServerOption) *Server {
	if log == nil {
		log = logging.Noop()
	}
	s := &Server{sess: sess, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) InitialPositions(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	return ToStruct(InitialPositionsReply{
		OffsetDays: s.sess.Offset().Days(),
		Placements: placementViews(s.sess.InitialPositions()),
		Scene:      s.sess.Scene(),
	})
}

func (s *Server) Tick(ctx context.Context, in *wrapperspb.Int64Value) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	ms := in.GetValue()
	if s.serverFrames {
		if ms > 0 {
			return nil, fmt.Errorf("%w: now_ms is not accepted while the server drives frames", ErrInvalidRequest)
		}
		f, err := s.sess.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		return ToStruct(f)
	}

	now := s.sess.Now()
	if ms > 0 {
		now = time.UnixMilli(ms)
	}

	ctx, span := StartChildSpan(ctx, "session.Tick", "", "", attribute.Int64("now_ms", now.UnixMilli()))
	defer span.End()

	f, err := s.sess.Tick(ctx, now)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(FrameAttributes(f)...)
	return ToStruct(f)
}

func (s *Server) Select(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	id := in.GetValue()
	ctx, span := StartChildSpan(ctx, "session.Select", "body", id)
	defer span.End()

	f, err := s.sess.Select(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(FrameAttributes(f)...)
	s.requestLog(ctx).Info(ctx, "selection changed", logging.String("body_id", id))
	return ToStruct(f)
}

func (s *Server) Pick(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	var req PickRequest
	if err := FromStruct(in, &req); err != nil {
		return nil, err
	}
	ray, err := req.Ray()
	if err != nil {
		return nil, err
	}

	ctx, span := StartChildSpan(ctx, "session.Pick", "", "")
	defer span.End()

	id, f, err := s.sess.Pick(ctx, ray)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("picked", id))
	span.SetAttributes(FrameAttributes(f)...)
	return ToStruct(PickReply{Picked: id, Frame: f})
}

func (s *Server) ToggleTopView(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	ctx, span := StartChildSpan(ctx, "session.ToggleTopView", "", "")
	defer span.End()

	f, err := s.sess.ToggleTopView(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(FrameAttributes(f)...)
	s.requestLog(ctx).Info(ctx, "view mode toggled", logging.String("mode", f.Mode))
	return ToStruct(f)
}

func (s *Server) ExitView(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	ctx, span := StartChildSpan(ctx, "session.ExitView", "", "")
	defer span.End()

	f, err := s.sess.ExitView(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(FrameAttributes(f)...)
	return ToStruct(f)
}

func (s *Server) GetFrame(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	f, err := s.sess.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return ToStruct(f)
}

func (s *Server) ensureReady() error {
	if s == nil || s.sess == nil {
		return session.ErrClosed
	}
	return nil
}

func (s *Server) requestLog(ctx context.Context) logging.Logger {
	if l := logging.LoggerFromContext(ctx); l != nil {
		return l
	}
	return s.log
}
