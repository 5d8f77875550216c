package api

import (
	"context"
	"os"

	"github.com/huddlehq/huddle/internal/apperr"
	"github.com/huddlehq/huddle/internal/controller"
	"github.com/huddlehq/huddle/internal/rpc"
	"github.com/huddlehq/huddle/internal/timeline"
)

// MessageService implements rpc.MessageServer.
type MessageService struct {
	ctrl *controller.Controller
}

// NewMessageService creates a new message service.
func NewMessageService(ctrl *controller.Controller) *MessageService {
	return &MessageService{ctrl: ctrl}
}

func (s *MessageService) Send(ctx context.Context, req *rpc.SendRequest) (*rpc.MessageResponse, error) {
	m, err := s.ctrl.Send(ctx, req.Text)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.MessageResponse{Message: m}, nil
}

func (s *MessageService) SendFile(ctx context.Context, req *rpc.SendFileRequest) (*rpc.MessageResponse, error) {
	if req.Path == "" {
		return nil, toStatus(apperr.Validationf("send file", "file path is required"))
	}
	f, err := os.Open(req.Path)
	if err != nil {
		return nil, toStatus(&apperr.Error{Kind: apperr.Validation, Op: "send file", Detail: "cannot read " + req.Path, Err: err})
	}
	defer func() { _ = f.Close() }()

	m, err := s.ctrl.SendFile(ctx, req.Path, f, req.Caption)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.MessageResponse{Message: m}, nil
}

func (s *MessageService) SetReply(_ context.Context, req *rpc.MessageRequest) (*rpc.Empty, error) {
	if req.MessageID == "" {
		s.ctrl.ClearReplyTarget()
		return &rpc.Empty{}, nil
	}
	if err := s.ctrl.SetReplyTarget(req.MessageID); err != nil {
		return nil, toStatus(err)
	}
	return &rpc.Empty{}, nil
}

func (s *MessageService) Delete(ctx context.Context, req *rpc.DeleteRequest) (*rpc.Empty, error) {
	var err error
	if req.ForEveryone {
		err = s.ctrl.DeleteForEveryone(ctx, req.MessageID)
	} else {
		err = s.ctrl.DeleteForMe(req.MessageID)
	}
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.Empty{}, nil
}

func (s *MessageService) Forward(ctx context.Context, req *rpc.ForwardRequest) (*rpc.MessageResponse, error) {
	m, err := s.ctrl.Forward(ctx, req.MessageID, req.TargetChat)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.MessageResponse{Message: m}, nil
}

func (s *MessageService) Pin(ctx context.Context, req *rpc.PinRequest) (*rpc.MessageResponse, error) {
	var (
		m   timeline.Message
		err error
	)
	switch req.Mode {
	case "", rpc.PinToggle:
		m, err = s.ctrl.TogglePin(ctx, req.MessageID)
	case rpc.PinOn:
		m, err = s.ctrl.Pin(ctx, req.MessageID)
	case rpc.PinOff:
		m, err = s.ctrl.Unpin(ctx, req.MessageID)
	default:
		err = apperr.Validationf("pin message", "unknown pin mode %q", req.Mode)
	}
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.MessageResponse{Message: m}, nil
}

func (s *MessageService) MovePin(_ context.Context, req *rpc.PinNavRequest) (*rpc.PinResponse, error) {
	if req.Forward {
		s.ctrl.NextPin()
	} else {
		s.ctrl.PrevPin()
	}
	v := s.ctrl.View()
	resp := &rpc.PinResponse{Cursor: v.PinCursor, Count: len(v.Pins)}
	if cur, ok := v.CurrentPin(); ok {
		resp.Current = &cur
	}
	return resp, nil
}

func (s *MessageService) JumpToPin(_ context.Context, _ *rpc.Empty) (*rpc.JumpResponse, error) {
	m, idx, err := s.ctrl.JumpToPinned()
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.JumpResponse{Message: m, Index: idx}, nil
}

func (s *MessageService) SaveAsIdea(ctx context.Context, req *rpc.MessageRequest) (*rpc.AnalysisResponse, error) {
	a, err := s.ctrl.SaveAsIdea(ctx, req.MessageID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.AnalysisResponse{Analysis: a}, nil
}

func (s *MessageService) ListIdeas(ctx context.Context, _ *rpc.Empty) (*rpc.IdeasResponse, error) {
	ideas, err := s.ctrl.Ideas(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.IdeasResponse{Ideas: ideas}, nil
}

func (s *MessageService) DeleteIdea(ctx context.Context, req *rpc.IdeaRequest) (*rpc.Empty, error) {
	if err := s.ctrl.DeleteIdea(ctx, req.IdeaID); err != nil {
		return nil, toStatus(err)
	}
	return &rpc.Empty{}, nil
}
