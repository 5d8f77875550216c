package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const ChatServiceName = "huddle.v1.ChatService"

// ChatServer manages chats, the active chat and its overlays.
type ChatServer interface {
	ListChats(context.Context, *ListChatsRequest) (*ListChatsResponse, error)
	CreateChat(context.Context, *CreateChatRequest) (*ChatResponse, error)
	JoinChat(context.Context, *ChatRequest) (*ChatResponse, error)
	OpenChat(context.Context, *ChatRequest) (*Empty, error)
	CloseChat(context.Context, *Empty) (*Empty, error)
	Refresh(context.Context, *Empty) (*Empty, error)
	GetView(context.Context, *Empty) (*View, error)
	ListParticipants(context.Context, *Empty) (*ParticipantsResponse, error)
	AddMember(context.Context, *AddMemberRequest) (*ParticipantResponse, error)
	RequestClearChat(context.Context, *Empty) (*Empty, error)
	RequestDeleteChat(context.Context, *Empty) (*Empty, error)
	OpenOverlay(context.Context, *OverlayRequest) (*Empty, error)
	Confirm(context.Context, *Empty) (*Empty, error)
	Cancel(context.Context, *Empty) (*Empty, error)
	DismissNotice(context.Context, *Empty) (*Empty, error)
}

var ChatServiceDesc = grpc.ServiceDesc{
	ServiceName: ChatServiceName,
	HandlerType: (*ChatServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(ChatServiceName, "ListChats", ChatServer.ListChats),
		unary(ChatServiceName, "CreateChat", ChatServer.CreateChat),
		unary(ChatServiceName, "JoinChat", ChatServer.JoinChat),
		unary(ChatServiceName, "OpenChat", ChatServer.OpenChat),
		unary(ChatServiceName, "CloseChat", ChatServer.CloseChat),
		unary(ChatServiceName, "Refresh", ChatServer.Refresh),
		unary(ChatServiceName, "GetView", ChatServer.GetView),
		unary(ChatServiceName, "ListParticipants", ChatServer.ListParticipants),
		unary(ChatServiceName, "AddMember", ChatServer.AddMember),
		unary(ChatServiceName, "RequestClearChat", ChatServer.RequestClearChat),
		unary(ChatServiceName, "RequestDeleteChat", ChatServer.RequestDeleteChat),
		unary(ChatServiceName, "OpenOverlay", ChatServer.OpenOverlay),
		unary(ChatServiceName, "Confirm", ChatServer.Confirm),
		unary(ChatServiceName, "Cancel", ChatServer.Cancel),
		unary(ChatServiceName, "DismissNotice", ChatServer.DismissNotice),
	},
}

func RegisterChatServer(s grpc.ServiceRegistrar, srv ChatServer) {
	s.RegisterService(&ChatServiceDesc, srv)
}

// ChatClient is the client side of ChatService.
type ChatClient struct {
	cc grpc.ClientConnInterface
}

func NewChatClient(cc grpc.ClientConnInterface) *ChatClient {
	return &ChatClient{cc: cc}
}

func (c *ChatClient) ListChats(ctx context.Context, public bool) (*ListChatsResponse, error) {
	return invoke[ListChatsResponse](ctx, c.cc, ChatServiceName, "ListChats", &ListChatsRequest{Public: public})
}

func (c *ChatClient) CreateChat(ctx context.Context, in *CreateChatRequest) (*ChatResponse, error) {
	return invoke[ChatResponse](ctx, c.cc, ChatServiceName, "CreateChat", in)
}

func (c *ChatClient) JoinChat(ctx context.Context, chatID string) (*ChatResponse, error) {
	return invoke[ChatResponse](ctx, c.cc, ChatServiceName, "JoinChat", &ChatRequest{ChatID: chatID})
}

func (c *ChatClient) OpenChat(ctx context.Context, chatID string) error {
	_, err := invoke[Empty](ctx, c.cc, ChatServiceName, "OpenChat", &ChatRequest{ChatID: chatID})
	return err
}

func (c *ChatClient) CloseChat(ctx context.Context) error {
	_, err := invoke[Empty](ctx, c.cc, ChatServiceName, "CloseChat", &Empty{})
	return err
}

func (c *ChatClient) Refresh(ctx context.Context) error {
	_, err := invoke[Empty](ctx, c.cc, ChatServiceName, "Refresh", &Empty{})
	return err
}

func (c *ChatClient) GetView(ctx context.Context) (*View, error) {
	return invoke[View](ctx, c.cc, ChatServiceName, "GetView", &Empty{})
}

func (c *ChatClient) ListParticipants(ctx context.Context) (*ParticipantsResponse, error) {
	return invoke[ParticipantsResponse](ctx, c.cc, ChatServiceName, "ListParticipants", &Empty{})
}

func (c *ChatClient) AddMember(ctx context.Context, email string) (*ParticipantResponse, error) {
	return invoke[ParticipantResponse](ctx, c.cc, ChatServiceName, "AddMember", &AddMemberRequest{Email: email})
}

func (c *ChatClient) RequestClearChat(ctx context.Context) error {
	_, err := invoke[Empty](ctx, c.cc, ChatServiceName, "RequestClearChat", &Empty{})
	return err
}

func (c *ChatClient) RequestDeleteChat(ctx context.Context) error {
	_, err := invoke[Empty](ctx, c.cc, ChatServiceName, "RequestDeleteChat", &Empty{})
	return err
}

func (c *ChatClient) OpenOverlay(ctx context.Context, kind, messageID string) error {
	_, err := invoke[Empty](ctx, c.cc, ChatServiceName, "OpenOverlay", &OverlayRequest{Kind: kind, MessageID: messageID})
	return err
}

func (c *ChatClient) Confirm(ctx context.Context) error {
	_, err := invoke[Empty](ctx, c.cc, ChatServiceName, "Confirm", &Empty{})
	return err
}

func (c *ChatClient) Cancel(ctx context.Context) error {
	_, err := invoke[Empty](ctx, c.cc, ChatServiceName, "Cancel", &Empty{})
	return err
}

func (c *ChatClient) DismissNotice(ctx context.Context) error {
	_, err := invoke[Empty](ctx, c.cc, ChatServiceName, "DismissNotice", &Empty{})
	return err
}
