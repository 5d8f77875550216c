package api

import (
	"context"

	"github.com/huddlehq/huddle/internal/apperr"
	"github.com/huddlehq/huddle/internal/controller"
	"github.com/huddlehq/huddle/internal/presence"
	"github.com/huddlehq/huddle/internal/rpc"
)

// ChatService implements rpc.ChatServer over the session controller.
type ChatService struct {
	ctrl     *controller.Controller
	presence *presence.Consumer
}

// NewChatService creates a new chat service.
func NewChatService(ctrl *controller.Controller, consumer *presence.Consumer) *ChatService {
	return &ChatService{ctrl: ctrl, presence: consumer}
}

func (s *ChatService) ListChats(ctx context.Context, req *rpc.ListChatsRequest) (*rpc.ListChatsResponse, error) {
	list := s.ctrl.Chats
	if req.Public {
		list = s.ctrl.PublicChats
	}
	chats, err := list(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.ListChatsResponse{Chats: chats}, nil
}

func (s *ChatService) CreateChat(ctx context.Context, req *rpc.CreateChatRequest) (*rpc.ChatResponse, error) {
	chat, err := s.ctrl.CreateChat(ctx, req.Name, req.Kind, req.Private)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.ChatResponse{Chat: chat}, nil
}

func (s *ChatService) JoinChat(ctx context.Context, req *rpc.ChatRequest) (*rpc.ChatResponse, error) {
	chat, err := s.ctrl.JoinChat(ctx, req.ChatID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.ChatResponse{Chat: chat}, nil
}

func (s *ChatService) OpenChat(_ context.Context, req *rpc.ChatRequest) (*rpc.Empty, error) {
	if err := s.ctrl.Open(req.ChatID); err != nil {
		return nil, toStatus(err)
	}
	return &rpc.Empty{}, nil
}

func (s *ChatService) CloseChat(_ context.Context, _ *rpc.Empty) (*rpc.Empty, error) {
	s.ctrl.Close()
	return &rpc.Empty{}, nil
}

func (s *ChatService) Refresh(_ context.Context, _ *rpc.Empty) (*rpc.Empty, error) {
	s.ctrl.Refresh()
	return &rpc.Empty{}, nil
}

func (s *ChatService) GetView(_ context.Context, _ *rpc.Empty) (*rpc.View, error) {
	var entries map[string]presence.Entry
	if s.presence != nil {
		entries = s.presence.Snapshot()
	}
	return viewToRPC(s.ctrl.View(), entries), nil
}

func (s *ChatService) ListParticipants(ctx context.Context, _ *rpc.Empty) (*rpc.ParticipantsResponse, error) {
	ps, err := s.ctrl.Participants(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.ParticipantsResponse{Participants: ps}, nil
}

func (s *ChatService) AddMember(ctx context.Context, req *rpc.AddMemberRequest) (*rpc.ParticipantResponse, error) {
	p, err := s.ctrl.AddMember(ctx, req.Email)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.ParticipantResponse{Participant: p}, nil
}

func (s *ChatService) RequestClearChat(_ context.Context, _ *rpc.Empty) (*rpc.Empty, error) {
	if err := s.ctrl.RequestClearChat(); err != nil {
		return nil, toStatus(err)
	}
	return &rpc.Empty{}, nil
}

func (s *ChatService) RequestDeleteChat(_ context.Context, _ *rpc.Empty) (*rpc.Empty, error) {
	if err := s.ctrl.RequestDeleteChat(); err != nil {
		return nil, toStatus(err)
	}
	return &rpc.Empty{}, nil
}

func (s *ChatService) OpenOverlay(_ context.Context, req *rpc.OverlayRequest) (*rpc.Empty, error) {
	var err error
	switch req.Kind {
	case controller.MenuOverlay{}.Kind():
		err = s.ctrl.OpenMenu(req.MessageID)
	case controller.ForwardOverlay{}.Kind():
		err = s.ctrl.OpenForward(req.MessageID)
	case controller.AddMemberOverlay{}.Kind():
		err = s.ctrl.OpenAddMember()
	case controller.ParticipantsOverlay{}.Kind():
		err = s.ctrl.OpenParticipants()
	case controller.NoOverlay{}.Kind():
		s.ctrl.Cancel()
	default:
		err = apperr.Validationf("open overlay", "unknown overlay %q", req.Kind)
	}
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.Empty{}, nil
}

func (s *ChatService) Confirm(ctx context.Context, _ *rpc.Empty) (*rpc.Empty, error) {
	if err := s.ctrl.Confirm(ctx); err != nil {
		return nil, toStatus(err)
	}
	return &rpc.Empty{}, nil
}

func (s *ChatService) Cancel(_ context.Context, _ *rpc.Empty) (*rpc.Empty, error) {
	s.ctrl.Cancel()
	return &rpc.Empty{}, nil
}

func (s *ChatService) DismissNotice(_ context.Context, _ *rpc.Empty) (*rpc.Empty, error) {
	s.ctrl.DismissNotice()
	return &rpc.Empty{}, nil
}

func viewToRPC(v controller.View, entries map[string]presence.Entry) *rpc.View {
	out := &rpc.View{
		ChatID:      v.ChatID,
		Messages:    v.Messages,
		Pins:        v.Pins,
		PinCursor:   v.PinCursor,
		Revision:    v.Revision,
		ReplyTo:     v.ReplyTo,
		Overlay:     overlayToRPC(v.Overlay),
		Call:        v.Call,
		Room:        v.Room,
		Affordances: v.Affordances,
		Presence:    entries,
	}
	if v.Notice != nil {
		out.Notice = &rpc.Notice{
			Level:    string(v.Notice.Level),
			Text:     v.Notice.Text,
			AtUnixMs: v.Notice.At.UnixMilli(),
		}
	}
	return out
}

func overlayToRPC(o controller.Overlay) rpc.Overlay {
	if o == nil {
		return rpc.Overlay{Kind: controller.NoOverlay{}.Kind()}
	}
	out := rpc.Overlay{Kind: o.Kind()}
	switch ov := o.(type) {
	case controller.MenuOverlay:
		out.MessageID = ov.MessageID
	case controller.ForwardOverlay:
		src := ov.Source
		out.MessageID = src.ID
		out.Source = &src
	case controller.ConfirmOverlay:
		out.Action = string(ov.Action)
		out.Target = ov.Target
		out.Prompt = ov.Prompt
	}
	return out
}
