package di

import (
	"sync/atomic"

	"go.uber.org/zap"

	"cogmap/application/commands/bus"
	"cogmap/application/commands/handlers"
	"cogmap/application/graphsync"
	"cogmap/application/session"
	"cogmap/domain/services"
	"cogmap/infrastructure/config"
	"cogmap/infrastructure/observability"
	"cogmap/infrastructure/persistence/sqlite"
	wstransport "cogmap/infrastructure/transport/websocket"
	"cogmap/interfaces/http/rest"
	"cogmap/interfaces/websocket"
	"cogmap/pkg/logging"
)

// Container holds all client-side dependencies
type Container struct {
	Config    *config.Config
	Logger    *zap.Logger
	Collector *observability.Collector
	Hub       *websocket.Hub
	Presenter *websocket.Presenter
	Transport *wstransport.Client
	Session   *session.Session
	Store     *sqlite.SnapshotStore
	Router    *rest.Router
}

// FrameRelay forwards transport frames to the session. It exists because
// the transport is built before the session it feeds.
type FrameRelay struct {
	target atomic.Pointer[session.Session]
}

// Deliver implements ports.FrameHandler
func (r *FrameRelay) Deliver(frame []byte) {
	if s := r.target.Load(); s != nil {
		s.Deliver(frame)
	}
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(cfg.IsProduction(), cfg.LogLevel)
}

// ProvideCollector creates the metrics collector
func ProvideCollector() *observability.Collector {
	return observability.NewCollector("cogmap")
}

// ProvideLayoutConfig loads the layout file, or the defaults without one
func ProvideLayoutConfig(cfg *config.Config) (services.LayoutConfig, error) {
	if cfg.LayoutFile == "" {
		return services.DefaultLayoutConfig(), nil
	}
	return config.LoadLayoutFile(cfg.LayoutFile)
}

// ProvideUpdateHandler creates the inbound mutation handler
func ProvideUpdateHandler(cfg *config.Config, layout services.LayoutConfig, collector *observability.Collector, logger *zap.Logger) (*graphsync.UpdateHandler, error) {
	policy, err := graphsync.PolicyByName(cfg.FocusPolicy)
	if err != nil {
		return nil, err
	}
	var metrics graphsync.Metrics
	if cfg.EnableMetrics {
		metrics = collector
	}
	return graphsync.NewUpdateHandler(services.NewLayoutEngine(layout), policy, metrics, logger), nil
}

// ProvideHub creates the presentation socket hub
func ProvideHub(cfg *config.Config, collector *observability.Collector, logger *zap.Logger) *websocket.Hub {
	var opts []websocket.HubOption
	if cfg.EnableMetrics {
		opts = append(opts, websocket.WithObserver("view", collector))
	}
	return websocket.NewHub(logger.Named("view-hub"), opts...)
}

// ProvidePresenter creates the presenter that feeds browsers
func ProvidePresenter(hub *websocket.Hub, logger *zap.Logger) *websocket.Presenter {
	return websocket.NewPresenter(hub, logger)
}

// ProvideFrameRelay creates an unbound relay
func ProvideFrameRelay() *FrameRelay {
	return &FrameRelay{}
}

// ProvideTransport creates the authority link
func ProvideTransport(cfg *config.Config, relay *FrameRelay, collector *observability.Collector, logger *zap.Logger) *wstransport.Client {
	var opts []wstransport.Option
	if cfg.EnableMetrics {
		opts = append(opts, wstransport.WithLinkMetrics(collector))
	}
	return wstransport.NewClient(cfg.AuthorityURL, relay.Deliver, logger, opts...)
}

// ProvideCommandBus creates the outbound command bus
func ProvideCommandBus(cfg *config.Config, transport *wstransport.Client, collector *observability.Collector, logger *zap.Logger) (*bus.CommandBus, error) {
	middlewares := []bus.Middleware{bus.LoggingMiddleware(logger.Named("commands"))}
	if cfg.EnableMetrics {
		middlewares = append(middlewares, bus.MetricsMiddleware(collector))
	}
	commandBus := bus.NewCommandBus(middlewares...)
	if err := handlers.RegisterAll(commandBus, handlers.NewRequestHandler(transport, logger)); err != nil {
		return nil, err
	}
	return commandBus, nil
}

// ProvideSnapshotStore opens the snapshot database; nil when disabled
func ProvideSnapshotStore(cfg *config.Config, logger *zap.Logger) (*sqlite.SnapshotStore, func(), error) {
	if cfg.SnapshotPath == "" {
		return nil, func() {}, nil
	}
	store, err := sqlite.Open(cfg.SnapshotPath, logger)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close snapshot store", zap.Error(err))
		}
	}, nil
}

// ProvideSession creates the session and binds the relay to it
func ProvideSession(
	cfg *config.Config,
	handler *graphsync.UpdateHandler,
	commandBus *bus.CommandBus,
	presenter *websocket.Presenter,
	store *sqlite.SnapshotStore,
	relay *FrameRelay,
	logger *zap.Logger,
) (*session.Session, error) {
	opts := []session.Option{
		session.WithRenderSink(presenter),
		session.WithNotifier(presenter),
		session.WithChatSink(presenter),
	}
	if store != nil {
		opts = append(opts, session.WithSnapshotStore(store))
	}

	s, err := session.New(session.Config{
		RootID:    cfg.RootID,
		RootLabel: cfg.RootLabel,
		QueueSize: cfg.QueueSize,
	}, handler, commandBus, logger, opts...)
	if err != nil {
		return nil, err
	}
	relay.target.Store(s)
	return s, nil
}

// ProvideRouter creates the presentation API router
func ProvideRouter(cfg *config.Config, s *session.Session, collector *observability.Collector, presenter *websocket.Presenter, logger *zap.Logger) *rest.Router {
	opts := rest.Options{ViewSocket: presenter}
	if cfg.EnableMetrics {
		opts.Registry = collector.GetRegistry()
		opts.Observer = collector
	}
	if cfg.EnableCORS {
		opts.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	return rest.NewRouter(s, opts, logger.Named("http"))
}
