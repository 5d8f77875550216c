package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/huddlehq/huddle/internal/bus"
	"github.com/huddlehq/huddle/internal/controller"
	"github.com/huddlehq/huddle/internal/presence"
	"github.com/huddlehq/huddle/internal/rpc"
	"github.com/huddlehq/huddle/internal/status"
	"go.uber.org/zap"
)

// Profile identifies the signed-in user of a session.
type Profile struct {
	Session     string
	UserID      string
	DisplayName string
	APIURL      string
}

// SessionService implements rpc.SessionServer.
type SessionService struct {
	profile   Profile
	startedAt time.Time
	machine   *status.Machine
	ctrl      *controller.Controller
	presence  *presence.Consumer
	bus       *bus.Bus
	logger    *zap.Logger
}

// NewSessionService creates a new session service.
func NewSessionService(p Profile, machine *status.Machine, ctrl *controller.Controller, consumer *presence.Consumer, b *bus.Bus, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		profile:   p,
		startedAt: time.Now(),
		machine:   machine,
		ctrl:      ctrl,
		presence:  consumer,
		bus:       b,
		logger:    logger,
	}
}

func (s *SessionService) GetStatus(_ context.Context, _ *rpc.Empty) (*rpc.StatusResponse, error) {
	resp := &rpc.StatusResponse{
		Session:     s.profile.Session,
		Status:      string(s.machine.Current()),
		UserID:      s.profile.UserID,
		DisplayName: s.profile.DisplayName,
		APIURL:      s.profile.APIURL,
		UptimeMs:    time.Since(s.startedAt).Milliseconds(),
	}
	if s.ctrl != nil {
		resp.ActiveChat = s.ctrl.ActiveChat()
		resp.CallState = string(s.ctrl.Calls().Current())
	}
	if s.presence != nil {
		for _, e := range s.presence.Snapshot() {
			if e.Status == presence.Online {
				resp.Online++
			}
		}
	}
	return resp, nil
}

func (s *SessionService) ListPresence(_ context.Context, _ *rpc.Empty) (*rpc.PresenceResponse, error) {
	resp := &rpc.PresenceResponse{}
	if s.presence == nil {
		return resp, nil
	}
	for _, e := range s.presence.Snapshot() {
		resp.Entries = append(resp.Entries, e)
	}
	return resp, nil
}

func (s *SessionService) WatchEvents(req *rpc.WatchRequest, stream rpc.EventStream) error {
	ch, unsub := s.bus.Subscribe(req.Namespace, 64)
	defer unsub()

	for {
		select {
		case evt := <-ch:
			out := &rpc.Event{
				ID:               evt.ID,
				Kind:             evt.Kind,
				OccurredAtUnixMs: evt.Timestamp.UnixMilli(),
			}
			if evt.Payload != nil {
				raw, err := json.Marshal(evt.Payload)
				if err != nil {
					s.logger.Warn("event payload not encodable", zap.String("kind", evt.Kind), zap.Error(err))
				} else {
					out.Payload = raw
				}
			}
			if err := stream.Send(out); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return nil
		}
	}
}
