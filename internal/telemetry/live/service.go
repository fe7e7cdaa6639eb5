package live

import (
	"context"
	"fmt"

	"github.com/banshee-data/racecore/internal/telemetry"
	"github.com/banshee-data/racecore/internal/wire"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "racecore.telemetry.Telemetry"

// TelemetryServer is the server API of the live telemetry service. Each
// streamed message is a BytesValue holding one wire-encoded frame.
type TelemetryServer interface {
	StreamFrames(*emptypb.Empty, FrameStreamServer) error
}

// FrameStreamServer is the server side of a StreamFrames call.
type FrameStreamServer interface {
	Send(*wrapperspb.BytesValue) error
	grpc.ServerStream
}

type frameStreamServer struct {
	grpc.ServerStream
}

func (s *frameStreamServer) Send(m *wrapperspb.BytesValue) error {
	return s.ServerStream.SendMsg(m)
}

func streamFramesHandler(srv interface{}, stream grpc.ServerStream) error {
	req := new(emptypb.Empty)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(TelemetryServer).StreamFrames(req, &frameStreamServer{stream})
}

// ServiceDesc describes the telemetry service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TelemetryServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamFrames",
			Handler:       streamFramesHandler,
			ServerStreams: true,
		},
	},
	Metadata: "racecore/telemetry.proto",
}

// RegisterTelemetryServer registers srv on s.
func RegisterTelemetryServer(s grpc.ServiceRegistrar, srv TelemetryServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// FrameStream is the client side of a StreamFrames call.
type FrameStream struct {
	stream grpc.ClientStream
}

// StreamFrames opens a frame stream on conn.
func StreamFrames(ctx context.Context, conn grpc.ClientConnInterface, opts ...grpc.CallOption) (*FrameStream, error) {
	stream, err := conn.NewStream(ctx, &ServiceDesc.Streams[0], "/"+ServiceName+"/StreamFrames", opts...)
	if err != nil {
		return nil, fmt.Errorf("open frame stream: %w", err)
	}
	if err := stream.SendMsg(&emptypb.Empty{}); err != nil {
		return nil, fmt.Errorf("send stream request: %w", err)
	}
	if err := stream.CloseSend(); err != nil {
		return nil, fmt.Errorf("close send: %w", err)
	}
	return &FrameStream{stream: stream}, nil
}

// Recv blocks for the next frame.
func (s *FrameStream) Recv() (*telemetry.Frame, error) {
	m := new(wrapperspb.BytesValue)
	if err := s.stream.RecvMsg(m); err != nil {
		return nil, err
	}
	f, err := wire.DecodeFrame(m.GetValue())
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return f, nil
}
