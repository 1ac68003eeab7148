package viewerapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "orrery.viewer.v1.ViewerService"

const (
	methodInitialPositions = "/" + ServiceName + "/InitialPositions"
	methodTick             = "/" + ServiceName + "/Tick"
	methodSelect           = "/" + ServiceName + "/Select"
	methodPick             = "/" + ServiceName + "/Pick"
	methodToggleTopView    = "/" + ServiceName + "/ToggleTopView"
	methodExitView         = "/" + ServiceName + "/ExitView"
	methodGetFrame         = "/" + ServiceName + "/GetFrame"
)

// ViewerServiceServer is the server API for ViewerService, declared in
// proto/orrery/viewer/v1/viewer.proto. Every payload is a well-known type, so
// the descriptor, handlers and client below are written out here instead of
// generated; service_test.go keeps them in step with the proto file.
type ViewerServiceServer interface {
	InitialPositions(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	// Tick runs one frame. A zero value means "now" on the server clock.
	Tick(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	// Select focuses a body; an empty value deselects.
	Select(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	// Pick takes {"origin": {x,y,z}, "direction": {x,y,z}}.
	Pick(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ToggleTopView(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ExitView(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetFrame(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterViewerServiceServer registers srv on s.
func RegisterViewerServiceServer(s grpc.ServiceRegistrar, srv ViewerServiceServer) {
	s.RegisterService(&ViewerServiceDesc, srv)
}

// ViewerServiceDesc is the grpc.ServiceDesc for ViewerService.
var ViewerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ViewerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "InitialPositions", Handler: initialPositionsHandler},
		{MethodName: "Tick", Handler: tickHandler},
		{MethodName: "Select", Handler: selectHandler},
		{MethodName: "Pick", Handler: pickHandler},
		{MethodName: "ToggleTopView", Handler: toggleTopViewHandler},
		{MethodName: "ExitView", Handler: exitViewHandler},
		{MethodName: "GetFrame", Handler: getFrameHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "orrery/viewer/v1/viewer.proto",
}

func initialPositionsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ViewerServiceServer).InitialPositions(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodInitialPositions}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ViewerServiceServer).InitialPositions(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func tickHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ViewerServiceServer).Tick(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodTick}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ViewerServiceServer).Tick(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

func selectHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ViewerServiceServer).Select(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodSelect}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ViewerServiceServer).Select(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func pickHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ViewerServiceServer).Pick(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodPick}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ViewerServiceServer).Pick(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func toggleTopViewHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ViewerServiceServer).ToggleTopView(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodToggleTopView}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ViewerServiceServer).ToggleTopView(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func exitViewHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ViewerServiceServer).ExitView(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodExitView}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ViewerServiceServer).ExitView(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func getFrameHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ViewerServiceServer).GetFrame(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetFrame}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ViewerServiceServer).GetFrame(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// ViewerServiceClient is the client API for ViewerService.
type ViewerServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewViewerServiceClient wraps cc.
func NewViewerServiceClient(cc grpc.ClientConnInterface) *ViewerServiceClient {
	return &ViewerServiceClient{cc: cc}
}

func (c *ViewerServiceClient) InitialPositions(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodInitialPositions, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ViewerServiceClient) Tick(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodTick, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ViewerServiceClient) Select(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodSelect, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ViewerServiceClient) Pick(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodPick, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ViewerServiceClient) ToggleTopView(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodToggleTopView, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ViewerServiceClient) ExitView(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodExitView, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ViewerServiceClient) GetFrame(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodGetFrame, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
