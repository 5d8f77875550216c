package daemon

import (
	"context"
	"fmt"

	"github.com/huddlehq/huddle/internal/api"
	"github.com/huddlehq/huddle/internal/backend"
	"github.com/huddlehq/huddle/internal/bus"
	"github.com/huddlehq/huddle/internal/call"
	"github.com/huddlehq/huddle/internal/conference"
	"github.com/huddlehq/huddle/internal/config"
	"github.com/huddlehq/huddle/internal/controller"
	"github.com/huddlehq/huddle/internal/lock"
	"github.com/huddlehq/huddle/internal/logging"
	"github.com/huddlehq/huddle/internal/metrics"
	"github.com/huddlehq/huddle/internal/presence"
	"github.com/huddlehq/huddle/internal/session"
	"github.com/huddlehq/huddle/internal/status"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved session configuration passed to the fx module.
type Params struct {
	SessionName string
	SocketPath  string // optional override for testing; empty = use default
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideSettings,
			provideBus,
			provideStateMachine,
			provideLock,
			provideBackend,
			provideCallMachine,
			provideConference,
			provideController,
			provideConsumer,
			provideLink,
			provideRecorder,
			provideMetricsServer,
			provideProfile,
			api.NewSessionService,
			api.NewChatService,
			api.NewMessageService,
			api.NewCallService,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(session.LogPath(p.SessionName), p.SessionName)
}

func provideSettings(p Params, logger *zap.Logger) (*config.Session, error) {
	path := session.SettingsPath(p.SessionName)
	cfg, err := config.LoadSession(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Info("settings loaded",
		zap.String("path", path),
		zap.String("api_url", cfg.Server.APIURL),
		zap.String("user_id", cfg.Profile.UserID),
		zap.Duration("poll_interval", cfg.Sync.PollInterval.Duration))
	return cfg, nil
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := session.EnsureDir(p.SessionName); err != nil {
		return nil, err
	}
	logger.Info("acquiring session lock", zap.String("session", p.SessionName))
	l, err := lock.Acquire(session.Dir(p.SessionName), "huddled")
	if err != nil {
		return nil, err
	}
	logger.Info("session lock acquired")
	return l, nil
}

func provideBackend(cfg *config.Session, logger *zap.Logger) (*backend.Client, error) {
	return backend.New(cfg.Server.APIURL, cfg.Server.RequestTimeout.Duration, logger)
}

func provideCallMachine(b *bus.Bus) *call.Machine {
	return call.NewMachine(b)
}

func provideConference(cfg *config.Session) conference.Provider {
	j := conference.Jitsi{Domain: cfg.Conference.Domain}
	if cfg.Conference.OpenBrowser {
		j.Launch = conference.BrowserLauncher
	}
	return j
}

func provideController(
	client *backend.Client,
	provider conference.Provider,
	calls *call.Machine,
	machine *status.Machine,
	b *bus.Bus,
	logger *zap.Logger,
	cfg *config.Session,
) *controller.Controller {
	return controller.New(client, client, client, client, provider, calls, machine, b, logger.Named("controller"), controller.Options{
		UserID:        cfg.Profile.UserID,
		DisplayName:   cfg.Profile.DisplayName,
		PollInterval:  cfg.Sync.PollInterval.Duration,
		DegradedAfter: cfg.Sync.DegradedAfter,
	})
}

func provideConsumer(b *bus.Bus, logger *zap.Logger) *presence.Consumer {
	return presence.NewConsumer(b, logger.Named("presence"))
}

func provideLink(cfg *config.Session, consumer *presence.Consumer, machine *status.Machine, logger *zap.Logger) (*presence.Link, error) {
	base, err := presence.Endpoint(cfg.Server.APIURL, cfg.Server.WSURL)
	if err != nil {
		return nil, err
	}
	d := presence.WSDialer{BaseURL: base}
	return presence.NewLink(d, cfg.Profile.UserID, consumer, machine, cfg.Presence.ReconnectDelay.Duration, logger.Named("presence")), nil
}

func provideRecorder(b *bus.Bus, logger *zap.Logger) *metrics.Recorder {
	return metrics.NewRecorder(b, logger)
}

func provideMetricsServer(cfg *config.Session, logger *zap.Logger) *metrics.Server {
	return metrics.NewServer(cfg.Metrics.Addr, logger)
}

func provideProfile(p Params, cfg *config.Session) api.Profile {
	return api.Profile{
		Session:     p.SessionName,
		UserID:      cfg.Profile.UserID,
		DisplayName: cfg.Profile.DisplayName,
		APIURL:      cfg.Server.APIURL,
	}
}

func registerLifecycle(
	lc fx.Lifecycle,
	srv *Server,
	lk *lock.Lock,
	ctrl *controller.Controller,
	link *presence.Link,
	recorder *metrics.Recorder,
	metricsSrv *metrics.Server,
	machine *status.Machine,
	logger *zap.Logger,
) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// Metrics first so the boot transitions are counted.
			recorder.Start(ctx)
			if err := metricsSrv.Start(); err != nil {
				return fmt.Errorf("start metrics server: %w", err)
			}

			ctrl.Start(ctx)

			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("gRPC server error", zap.Error(err))
				}
			}()

			// The presence link drives the session status from here on.
			link.Start(ctx)
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			link.Stop()
			ctrl.Stop()
			srv.Stop(stopCtx)
			metricsSrv.Stop(stopCtx)
			recorder.Stop()
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped", zap.String("status", string(machine.Current())))
			return nil
		},
	})
}
