package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const CallServiceName = "huddle.v1.CallService"

// CallServer drives the local call session.
type CallServer interface {
	GetCall(context.Context, *Empty) (*CallResponse, error)
	StartCall(context.Context, *StartCallRequest) (*CallResponse, error)
	JoinCall(context.Context, *MessageRequest) (*CallResponse, error)
	EnterRoom(context.Context, *Empty) (*RoomResponse, error)
	ReportCallSignal(context.Context, *SignalRequest) (*CallResponse, error)
	LeaveCall(context.Context, *Empty) (*CallResponse, error)
	RequestEndCall(context.Context, *MessageRequest) (*Empty, error)
}

var CallServiceDesc = grpc.ServiceDesc{
	ServiceName: CallServiceName,
	HandlerType: (*CallServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(CallServiceName, "GetCall", CallServer.GetCall),
		unary(CallServiceName, "StartCall", CallServer.StartCall),
		unary(CallServiceName, "JoinCall", CallServer.JoinCall),
		unary(CallServiceName, "EnterRoom", CallServer.EnterRoom),
		unary(CallServiceName, "ReportCallSignal", CallServer.ReportCallSignal),
		unary(CallServiceName, "LeaveCall", CallServer.LeaveCall),
		unary(CallServiceName, "RequestEndCall", CallServer.RequestEndCall),
	},
}

func RegisterCallServer(s grpc.ServiceRegistrar, srv CallServer) {
	s.RegisterService(&CallServiceDesc, srv)
}

// CallClient is the client side of CallService.
type CallClient struct {
	cc grpc.ClientConnInterface
}

func NewCallClient(cc grpc.ClientConnInterface) *CallClient {
	return &CallClient{cc: cc}
}

func (c *CallClient) GetCall(ctx context.Context) (*CallResponse, error) {
	return invoke[CallResponse](ctx, c.cc, CallServiceName, "GetCall", &Empty{})
}

func (c *CallClient) StartCall(ctx context.Context, in *StartCallRequest) (*CallResponse, error) {
	return invoke[CallResponse](ctx, c.cc, CallServiceName, "StartCall", in)
}

func (c *CallClient) JoinCall(ctx context.Context, messageID string) (*CallResponse, error) {
	return invoke[CallResponse](ctx, c.cc, CallServiceName, "JoinCall", &MessageRequest{MessageID: messageID})
}

func (c *CallClient) EnterRoom(ctx context.Context) (*RoomResponse, error) {
	return invoke[RoomResponse](ctx, c.cc, CallServiceName, "EnterRoom", &Empty{})
}

func (c *CallClient) ReportCallSignal(ctx context.Context, signal string) (*CallResponse, error) {
	return invoke[CallResponse](ctx, c.cc, CallServiceName, "ReportCallSignal", &SignalRequest{Signal: signal})
}

func (c *CallClient) LeaveCall(ctx context.Context) (*CallResponse, error) {
	return invoke[CallResponse](ctx, c.cc, CallServiceName, "LeaveCall", &Empty{})
}

func (c *CallClient) RequestEndCall(ctx context.Context, messageID string) error {
	_, err := invoke[Empty](ctx, c.cc, CallServiceName, "RequestEndCall", &MessageRequest{MessageID: messageID})
	return err
}
