package api

import (
	"context"

	"github.com/huddlehq/huddle/internal/apperr"
	"github.com/huddlehq/huddle/internal/call"
	"github.com/huddlehq/huddle/internal/conference"
	"github.com/huddlehq/huddle/internal/controller"
	"github.com/huddlehq/huddle/internal/rpc"
	"go.uber.org/zap"
)

// CallService implements rpc.CallServer.
type CallService struct {
	ctrl   *controller.Controller
	logger *zap.Logger
}

// NewCallService creates a new call service.
func NewCallService(ctrl *controller.Controller, logger *zap.Logger) *CallService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CallService{ctrl: ctrl, logger: logger}
}

func (s *CallService) current() *rpc.CallResponse {
	m := s.ctrl.Calls()
	resp := &rpc.CallResponse{State: m.Current()}
	if sess, ok := m.Session(); ok {
		resp.Session = &sess
	}
	return resp
}

func (s *CallService) GetCall(_ context.Context, _ *rpc.Empty) (*rpc.CallResponse, error) {
	return s.current(), nil
}

func (s *CallService) StartCall(ctx context.Context, req *rpc.StartCallRequest) (*rpc.CallResponse, error) {
	kind := req.Kind
	switch kind {
	case "":
		kind = call.Video
	case call.Video, call.Voice:
	default:
		return nil, toStatus(apperr.Validationf("start call", "unknown call kind %q", req.Kind))
	}
	if _, err := s.ctrl.StartCall(ctx, kind); err != nil {
		return nil, toStatus(err)
	}
	return s.current(), nil
}

func (s *CallService) JoinCall(_ context.Context, req *rpc.MessageRequest) (*rpc.CallResponse, error) {
	if _, err := s.ctrl.JoinCall(req.MessageID); err != nil {
		return nil, toStatus(err)
	}
	return s.current(), nil
}

func (s *CallService) EnterRoom(ctx context.Context, _ *rpc.Empty) (*rpc.RoomResponse, error) {
	room, err := s.ctrl.EnterRoom(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	resp := &rpc.RoomResponse{Room: room}
	if room.URL != "" {
		qr, err := conference.RenderQR(room.URL)
		if err != nil {
			s.logger.Warn("render room QR", zap.Error(err))
		} else {
			resp.QR = qr
		}
	}
	return resp, nil
}

func (s *CallService) ReportCallSignal(_ context.Context, req *rpc.SignalRequest) (*rpc.CallResponse, error) {
	sig, err := conference.ParseSignal(req.Signal)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := s.ctrl.HandleSignal(sig); err != nil {
		return nil, toStatus(err)
	}
	return s.current(), nil
}

func (s *CallService) LeaveCall(_ context.Context, _ *rpc.Empty) (*rpc.CallResponse, error) {
	if err := s.ctrl.LeaveCall(); err != nil {
		return nil, toStatus(err)
	}
	return s.current(), nil
}

func (s *CallService) RequestEndCall(_ context.Context, req *rpc.MessageRequest) (*rpc.Empty, error) {
	if err := s.ctrl.RequestEndCall(req.MessageID); err != nil {
		return nil, toStatus(err)
	}
	return &rpc.Empty{}, nil
}
