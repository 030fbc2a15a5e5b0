// adjudicator.proto 서비스의 수기 관리 gRPC 바인딩.
// 와이어 정의를 바꾸면 adjudicator.proto와 함께 갱신한다.

package proto

import (
	context "context"

	grpc "google.golang.org/grpc"
)

// AdjudicatorClient is the client API for Adjudicator service.
type AdjudicatorClient interface {
	Adjudicate(ctx context.Context, in *AdjudicateRequest, opts ...grpc.CallOption) (*AdjudicateResponse, error)
	LoadModel(ctx context.Context, in *ModelRequest, opts ...grpc.CallOption) (*ModelStatus, error)
	UnloadModel(ctx context.Context, in *ModelRequest, opts ...grpc.CallOption) (*ModelStatus, error)
	HealthCheck(ctx context.Context, in *HealthCheckRequest, opts ...grpc.CallOption) (*HealthCheckResponse, error)
}

type adjudicatorClient struct {
	cc grpc.ClientConnInterface
}

func NewAdjudicatorClient(cc grpc.ClientConnInterface) AdjudicatorClient {
	return &adjudicatorClient{cc}
}

func (c *adjudicatorClient) Adjudicate(ctx context.Context, in *AdjudicateRequest, opts ...grpc.CallOption) (*AdjudicateResponse, error) {
	out := new(AdjudicateResponse)
	err := c.cc.Invoke(ctx, "/adjudicator.Adjudicator/Adjudicate", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *adjudicatorClient) LoadModel(ctx context.Context, in *ModelRequest, opts ...grpc.CallOption) (*ModelStatus, error) {
	out := new(ModelStatus)
	err := c.cc.Invoke(ctx, "/adjudicator.Adjudicator/LoadModel", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *adjudicatorClient) UnloadModel(ctx context.Context, in *ModelRequest, opts ...grpc.CallOption) (*ModelStatus, error) {
	out := new(ModelStatus)
	err := c.cc.Invoke(ctx, "/adjudicator.Adjudicator/UnloadModel", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *adjudicatorClient) HealthCheck(ctx context.Context, in *HealthCheckRequest, opts ...grpc.CallOption) (*HealthCheckResponse, error) {
	out := new(HealthCheckResponse)
	err := c.cc.Invoke(ctx, "/adjudicator.Adjudicator/HealthCheck", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AdjudicatorServer is the server API for Adjudicator service.
type AdjudicatorServer interface {
	Adjudicate(context.Context, *AdjudicateRequest) (*AdjudicateResponse, error)
	LoadModel(context.Context, *ModelRequest) (*ModelStatus, error)
	UnloadModel(context.Context, *ModelRequest) (*ModelStatus, error)
	HealthCheck(context.Context, *HealthCheckRequest) (*HealthCheckResponse, error)
}

// RegisterAdjudicatorServer registers the service implementation with a gRPC server.
func RegisterAdjudicatorServer(s grpc.ServiceRegistrar, srv AdjudicatorServer) {
	s.RegisterService(&_Adjudicator_serviceDesc, srv)
}

func _Adjudicator_Adjudicate_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(AdjudicateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdjudicatorServer).Adjudicate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/adjudicator.Adjudicator/Adjudicate",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AdjudicatorServer).Adjudicate(ctx, req.(*AdjudicateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Adjudicator_LoadModel_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ModelRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdjudicatorServer).LoadModel(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/adjudicator.Adjudicator/LoadModel",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AdjudicatorServer).LoadModel(ctx, req.(*ModelRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Adjudicator_UnloadModel_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ModelRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdjudicatorServer).UnloadModel(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/adjudicator.Adjudicator/UnloadModel",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AdjudicatorServer).UnloadModel(ctx, req.(*ModelRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Adjudicator_HealthCheck_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(HealthCheckRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdjudicatorServer).HealthCheck(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/adjudicator.Adjudicator/HealthCheck",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AdjudicatorServer).HealthCheck(ctx, req.(*HealthCheckRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var _Adjudicator_serviceDesc = grpc.ServiceDesc{
	ServiceName: "adjudicator.Adjudicator",
	HandlerType: (*AdjudicatorServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Adjudicate",
			Handler:    _Adjudicator_Adjudicate_Handler,
		},
		{
			MethodName: "LoadModel",
			Handler:    _Adjudicator_LoadModel_Handler,
		},
		{
			MethodName: "UnloadModel",
			Handler:    _Adjudicator_UnloadModel_Handler,
		},
		{
			MethodName: "HealthCheck",
			Handler:    _Adjudicator_HealthCheck_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "adjudicator.proto",
}
