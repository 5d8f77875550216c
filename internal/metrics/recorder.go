package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/huddlehq/huddle/internal/bus"
	"github.com/huddlehq/huddle/internal/call"
	"github.com/huddlehq/huddle/internal/controller"
	"github.com/huddlehq/huddle/internal/presence"
	"github.com/huddlehq/huddle/internal/status"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var linkStates = []status.State{
	status.Booting, status.Connecting, status.Ready,
	status.Degraded, status.Reconnecting, status.Error,
}

// Recorder turns bus events into metric updates.
type Recorder struct {
	bus    *bus.Bus
	logger *zap.Logger
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRecorder(b *bus.Bus, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	Register()
	return &Recorder{bus: b, logger: logger}
}

// Start subscribes to every event kind.
func (r *Recorder) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	ch, unsub := r.bus.Subscribe("", 256)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer unsub()
		for {
			select {
			case evt := <-ch:
				r.Observe(evt)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (r *Recorder) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

// Observe records a single event.
func (r *Recorder) Observe(evt bus.Event) {
	Events().WithLabelValues(evt.Kind).Inc()

	switch evt.Kind {
	case bus.KindReplaced:
		Polls().WithLabelValues(string(controller.Applied)).Inc()
	case bus.KindPollDiscarded:
		Polls().WithLabelValues(string(controller.Stale)).Inc()
	case bus.KindPollFailed:
		Polls().WithLabelValues("failed").Inc()
	case bus.KindCallChanged:
		if c, ok := evt.Payload.(call.Change); ok {
			CallTransitions().WithLabelValues(string(c.From), string(c.To)).Inc()
		}
	case bus.KindPresenceChanged:
		if e, ok := evt.Payload.(presence.Entry); ok {
			PresenceUpdates().WithLabelValues(string(e.Status)).Inc()
		}
	case bus.KindNotice:
		if n, ok := evt.Payload.(controller.Notice); ok {
			Notices().WithLabelValues(string(n.Level)).Inc()
		}
	case bus.KindStatusChanged:
		if c, ok := evt.Payload.(status.StatusChange); ok {
			setLinkStatus(c.To)
		}
	}
}

func setLinkStatus(current status.State) {
	for _, s := range linkStates {
		v := 0.0
		if s == current {
			v = 1
		}
		LinkStatus().WithLabelValues(string(s)).Set(v)
	}
}

// Server serves /metrics over plain HTTP.
type Server struct {
	srv    *http.Server
	logger *zap.Logger
}

// NewServer returns a metrics server for addr. An empty addr disables it.
func NewServer(addr string, logger *zap.Logger) *Server {
	if addr == "" {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	Register()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &Server{
		srv:    &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		logger: logger,
	}
}

// Start listens in the background. Safe on a nil server.
func (s *Server) Start() error {
	if s == nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	s.logger.Info("metrics server starting", zap.String("addr", ln.Addr().String()))
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server error", zap.Error(err))
		}
	}()
	return nil
}

func (s *Server) Stop(ctx context.Context) {
	if s == nil {
		return
	}
	_ = s.srv.Shutdown(ctx)
}
