package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const MessageServiceName = "huddle.v1.MessageService"

// MessageServer acts on messages of the active chat.
type MessageServer interface {
	Send(context.Context, *SendRequest) (*MessageResponse, error)
	SendFile(context.Context, *SendFileRequest) (*MessageResponse, error)
	SetReply(context.Context, *MessageRequest) (*Empty, error)
	Delete(context.Context, *DeleteRequest) (*Empty, error)
	Forward(context.Context, *ForwardRequest) (*MessageResponse, error)
	Pin(context.Context, *PinRequest) (*MessageResponse, error)
	MovePin(context.Context, *PinNavRequest) (*PinResponse, error)
	JumpToPin(context.Context, *Empty) (*JumpResponse, error)
	SaveAsIdea(context.Context, *MessageRequest) (*AnalysisResponse, error)
	ListIdeas(context.Context, *Empty) (*IdeasResponse, error)
	DeleteIdea(context.Context, *IdeaRequest) (*Empty, error)
}

var MessageServiceDesc = grpc.ServiceDesc{
	ServiceName: MessageServiceName,
	HandlerType: (*MessageServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MessageServiceName, "Send", MessageServer.Send),
		unary(MessageServiceName, "SendFile", MessageServer.SendFile),
		unary(MessageServiceName, "SetReply", MessageServer.SetReply),
		unary(MessageServiceName, "Delete", MessageServer.Delete),
		unary(MessageServiceName, "Forward", MessageServer.Forward),
		unary(MessageServiceName, "Pin", MessageServer.Pin),
		unary(MessageServiceName, "MovePin", MessageServer.MovePin),
		unary(MessageServiceName, "JumpToPin", MessageServer.JumpToPin),
		unary(MessageServiceName, "SaveAsIdea", MessageServer.SaveAsIdea),
		unary(MessageServiceName, "ListIdeas", MessageServer.ListIdeas),
		unary(MessageServiceName, "DeleteIdea", MessageServer.DeleteIdea),
	},
}

func RegisterMessageServer(s grpc.ServiceRegistrar, srv MessageServer) {
	s.RegisterService(&MessageServiceDesc, srv)
}

// MessageClient is the client side of MessageService.
type MessageClient struct {
	cc grpc.ClientConnInterface
}

func NewMessageClient(cc grpc.ClientConnInterface) *MessageClient {
	return &MessageClient{cc: cc}
}

func (c *MessageClient) Send(ctx context.Context, text string) (*MessageResponse, error) {
	return invoke[MessageResponse](ctx, c.cc, MessageServiceName, "Send", &SendRequest{Text: text})
}

func (c *MessageClient) SendFile(ctx context.Context, path, caption string) (*MessageResponse, error) {
	return invoke[MessageResponse](ctx, c.cc, MessageServiceName, "SendFile", &SendFileRequest{Path: path, Caption: caption})
}

// SetReply sets the reply target; an empty id clears it.
func (c *MessageClient) SetReply(ctx context.Context, messageID string) error {
	_, err := invoke[Empty](ctx, c.cc, MessageServiceName, "SetReply", &MessageRequest{MessageID: messageID})
	return err
}

func (c *MessageClient) Delete(ctx context.Context, messageID string, forEveryone bool) error {
	_, err := invoke[Empty](ctx, c.cc, MessageServiceName, "Delete", &DeleteRequest{MessageID: messageID, ForEveryone: forEveryone})
	return err
}

func (c *MessageClient) Forward(ctx context.Context, messageID, targetChat string) (*MessageResponse, error) {
	return invoke[MessageResponse](ctx, c.cc, MessageServiceName, "Forward", &ForwardRequest{MessageID: messageID, TargetChat: targetChat})
}

func (c *MessageClient) Pin(ctx context.Context, messageID, mode string) (*MessageResponse, error) {
	return invoke[MessageResponse](ctx, c.cc, MessageServiceName, "Pin", &PinRequest{MessageID: messageID, Mode: mode})
}

func (c *MessageClient) MovePin(ctx context.Context, forward bool) (*PinResponse, error) {
	return invoke[PinResponse](ctx, c.cc, MessageServiceName, "MovePin", &PinNavRequest{Forward: forward})
}

func (c *MessageClient) JumpToPin(ctx context.Context) (*JumpResponse, error) {
	return invoke[JumpResponse](ctx, c.cc, MessageServiceName, "JumpToPin", &Empty{})
}

// SaveAsIdea sends a message to the Idea Hub analyzer.
func (c *MessageClient) SaveAsIdea(ctx context.Context, messageID string) (*AnalysisResponse, error) {
	return invoke[AnalysisResponse](ctx, c.cc, MessageServiceName, "SaveAsIdea", &MessageRequest{MessageID: messageID})
}

func (c *MessageClient) ListIdeas(ctx context.Context) (*IdeasResponse, error) {
	return invoke[IdeasResponse](ctx, c.cc, MessageServiceName, "ListIdeas", &Empty{})
}

func (c *MessageClient) DeleteIdea(ctx context.Context, ideaID string) error {
	_, err := invoke[Empty](ctx, c.cc, MessageServiceName, "DeleteIdea", &IdeaRequest{IdeaID: ideaID})
	return err
}
