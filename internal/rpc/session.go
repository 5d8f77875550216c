package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const SessionServiceName = "huddle.v1.SessionService"

// SessionServer reports daemon status and streams bus events.
type SessionServer interface {
	GetStatus(context.Context, *Empty) (*StatusResponse, error)
	ListPresence(context.Context, *Empty) (*PresenceResponse, error)
	WatchEvents(*WatchRequest, EventStream) error
}

// EventStream is the server side of WatchEvents.
type EventStream interface {
	Send(*Event) error
	Context() context.Context
}

type eventServerStream struct {
	grpc.ServerStream
}

func (s *eventServerStream) Send(e *Event) error { return s.SendMsg(e) }

func watchEventsHandler(srv any, stream grpc.ServerStream) error {
	in := new(WatchRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(SessionServer).WatchEvents(in, &eventServerStream{stream})
}

var SessionServiceDesc = grpc.ServiceDesc{
	ServiceName: SessionServiceName,
	HandlerType: (*SessionServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(SessionServiceName, "GetStatus", SessionServer.GetStatus),
		unary(SessionServiceName, "ListPresence", SessionServer.ListPresence),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchEvents",
			Handler:       watchEventsHandler,
			ServerStreams: true,
		},
	},
}

func RegisterSessionServer(s grpc.ServiceRegistrar, srv SessionServer) {
	s.RegisterService(&SessionServiceDesc, srv)
}

// SessionClient is the client side of SessionService.
type SessionClient struct {
	cc grpc.ClientConnInterface
}

func NewSessionClient(cc grpc.ClientConnInterface) *SessionClient {
	return &SessionClient{cc: cc}
}

func (c *SessionClient) GetStatus(ctx context.Context) (*StatusResponse, error) {
	return invoke[StatusResponse](ctx, c.cc, SessionServiceName, "GetStatus", &Empty{})
}

func (c *SessionClient) ListPresence(ctx context.Context) (*PresenceResponse, error) {
	return invoke[PresenceResponse](ctx, c.cc, SessionServiceName, "ListPresence", &Empty{})
}

// EventReceiver is the client side of WatchEvents.
type EventReceiver struct {
	stream grpc.ClientStream
}

func (r *EventReceiver) Recv() (*Event, error) {
	e := new(Event)
	if err := r.stream.RecvMsg(e); err != nil {
		return nil, err
	}
	return e, nil
}

// WatchEvents streams daemon events until ctx is cancelled.
func (c *SessionClient) WatchEvents(ctx context.Context, in *WatchRequest) (*EventReceiver, error) {
	stream, err := c.cc.NewStream(ctx, &SessionServiceDesc.Streams[0], "/"+SessionServiceName+"/WatchEvents", CallOption())
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &EventReceiver{stream: stream}, nil
}
