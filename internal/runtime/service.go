package runtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/plugin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/drblury/hostbridge/internal/runtime/bridge"
	configpkg "github.com/drblury/hostbridge/internal/runtime/config"
	errspkg "github.com/drblury/hostbridge/internal/runtime/errors"
	handlerpkg "github.com/drblury/hostbridge/internal/runtime/handlers"
	idspkg "github.com/drblury/hostbridge/internal/runtime/ids"
	loggingpkg "github.com/drblury/hostbridge/internal/runtime/logging"
	"github.com/drblury/hostbridge/internal/runtime/pending"
	"github.com/drblury/hostbridge/internal/runtime/sdk"
	"github.com/drblury/hostbridge/internal/runtime/store"
	transportpkg "github.com/drblury/hostbridge/internal/runtime/transport"
)

var routerRun = func(router *message.Router, ctx context.Context) error {
	return router.Run(ctx)
}

const inboundHandlerName = "inbound_push"

// ServiceDependencies holds the optional collaborators that the Service can use.
// Leave fields nil to get the defaults.
type ServiceDependencies struct {
	Middlewares               []MiddlewareRegistration // Appended after the default middleware chain.
	DisableDefaultMiddlewares bool                     // Skips registering the default middleware chain when true.
	TransportFactory          transportpkg.Factory

	// MetricsRegisterer receives the bridge and router collectors when
	// metrics are enabled. Defaults to prometheus.DefaultRegisterer.
	MetricsRegisterer prometheus.Registerer
	// TokenSource replaces the random correlation token generator.
	TokenSource func() string
	// Host replaces the publisher-backed host link. Commands then bypass the
	// command topic entirely.
	Host bridge.HostTransport
}

// Service wires a Watermill router, the in-process transport and the bridge
// components. Host pushes arrive on the push topic and are handed to the
// bridge router by a single router handler, so inbound processing is
// sequential.
type Service struct {
	Conf   *configpkg.Config
	Logger loggingpkg.ServiceLogger

	publisher  message.Publisher
	subscriber message.Subscriber
	transport  transportpkg.Transport
	router     *message.Router

	registerer prometheus.Registerer
	metrics    *bridge.Metrics
	bridge     *bridge.Bridge
	client     *sdk.Client

	handlers   []HandlerInfo
	handlersMu sync.RWMutex

	httpServers   map[int]*http.ServeMux
	httpServersMu sync.Mutex

	started   atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// NewService constructs a Service for the supplied configuration. Register
// extra handlers on the returned Service before calling Start.
func NewService(conf *configpkg.Config, log loggingpkg.ServiceLogger, ctx context.Context, deps ServiceDependencies) (*Service, error) {
	if conf == nil {
		return nil, errspkg.ErrConfigRequired
	}
	log = loggingpkg.OrNop(log)

	effective := conf.WithDefaults()
	if err := effective.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	wmLogger := loggingpkg.NewWatermillAdapter(log)
	log.Info("Creating bridge service",
		loggingpkg.LogFields{
			"pubsub_system": effective.PubSubSystem,
			"config":        effective,
		})

	s := &Service{
		Conf:       &effective,
		Logger:     log,
		registerer: deps.MetricsRegisterer,
	}
	if s.registerer == nil {
		s.registerer = prometheus.DefaultRegisterer
	}

	factory := deps.TransportFactory
	if factory == nil {
		factory = transportpkg.DefaultFactory()
	}
	transport, err := factory.Build(ctx, s.Conf, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("build transport: %w", err)
	}
	s.transport = transport
	s.publisher = transport.Publisher
	s.subscriber = transport.Subscriber

	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		_ = transport.Close()
		return nil, fmt.Errorf("create router: %w", err)
	}
	s.router = router
	s.router.AddPlugin(plugin.SignalsHandler)

	if err := s.buildBridge(deps); err != nil {
		_ = transport.Close()
		return nil, err
	}

	if err := s.registerConfiguredMiddlewares(deps); err != nil {
		_ = transport.Close()
		return nil, err
	}

	if err := s.registerInboundHandler(); err != nil {
		_ = transport.Close()
		return nil, err
	}

	return s, nil
}

func (s *Service) buildBridge(deps ServiceDependencies) error {
	if s.Conf.MetricsEnabled {
		m, err := bridge.NewMetrics(s.registerer)
		if err != nil {
			return fmt.Errorf("register bridge metrics: %w", err)
		}
		s.metrics = m
	}

	registryOpts := []pending.Option{pending.WithTimeout(s.Conf.RequestTimeout)}
	if s.metrics != nil {
		registryOpts = append(registryOpts, pending.WithObserver(s.metrics.SetPending))
	}
	registry := pending.NewRegistry(registryOpts...)

	allocator := idspkg.NewAllocator(registry,
		idspkg.WithMaxAttempts(s.Conf.MaxIDAttempts),
		idspkg.WithTokenSource(deps.TokenSource),
	)

	host := deps.Host
	if host == nil {
		host = &publisherHost{publisher: s.publisher, topic: s.Conf.CommandTopic}
	}

	st := store.New()
	dispatcher := bridge.NewDispatcher(
		bridge.WithHost(host),
		bridge.WithDispatcherLogger(s.Logger),
		bridge.WithDispatcherMetrics(s.metrics),
	)
	inbound := bridge.NewRouter(registry, st,
		bridge.WithRouterLogger(s.Logger),
		bridge.WithRouterMetrics(s.metrics),
	)

	s.bridge = bridge.New(allocator, registry, st, dispatcher, inbound)
	s.client = sdk.NewClient(s.bridge)
	return nil
}

func (s *Service) registerInboundHandler() error {
	return RegisterMessageHandler(s, MessageHandlerRegistration{
		Name:         inboundHandlerName,
		ConsumeQueue: s.Conf.PushTopic,
		Handler:      s.handlePush,
	})
}

// handlePush feeds one host push into the bridge router. Pushes the router
// ignores are still acknowledged: the host never retransmits.
func (s *Service) handlePush(msg *message.Message) error {
	push := handlerpkg.NewPushContext(msg, s.Logger)
	push.Logger.Trace("Inbound push", nil)
	s.bridge.Router.OnInbound(msg.Context(), bridge.Channel(push.Channel()), msg.Payload)
	return nil
}

// Start runs the underlying Watermill router until the provided context is cancelled.
func (s *Service) Start(ctx context.Context) error {
	s.started.Store(true)
	s.StartDiagnosticsServer()
	s.startHTTPServers()
	return routerRun(s.router, ctx)
}

// Running is closed once the router subscribed to every topic. Pushes
// published before that are dropped by the in-process transport.
func (s *Service) Running() chan struct{} {
	return s.router.Running()
}

// Client returns the application-facing bridge surface.
func (s *Service) Client() *sdk.Client { return s.client }

// Bridge exposes the assembled correlation components.
func (s *Service) Bridge() *bridge.Bridge { return s.bridge }

// Publisher returns the transport publisher shared with the host side.
func (s *Service) Publisher() message.Publisher { return s.publisher }

// Subscriber returns the transport subscriber shared with the host side.
func (s *Service) Subscriber() message.Subscriber { return s.subscriber }

// Close fails every pending request with ErrRegistryClosed, stops the
// router when Start ran and closes the transport. Calling it again returns
// the first result.
func (s *Service) Close() error {
	s.closeOnce.Do(func() {
		if n := s.bridge.Close(); n > 0 {
			s.Logger.Info("Rejected pending requests on close", loggingpkg.LogFields{"pending": n})
		}
		s.bridge.Dispatcher.Detach()

		var errs []error
		// A router that never ran waits out its close timeout.
		if s.started.Load() {
			if err := s.router.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close router: %w", err))
			}
		}
		if err := s.transport.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close transport: %w", err))
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

func (s *Service) registerConfiguredMiddlewares(deps ServiceDependencies) error {
	var defaults []MiddlewareRegistration
	if !deps.DisableDefaultMiddlewares {
		defaults = DefaultMiddlewares()
	}
	registrations := make([]MiddlewareRegistration, 0, len(defaults)+len(deps.Middlewares))
	registrations = append(registrations, defaults...)
	registrations = append(registrations, deps.Middlewares...)

	for _, reg := range registrations {
		if err := s.RegisterMiddleware(reg); err != nil {
			name := reg.Name
			if name == "" {
				name = "anonymous_middleware"
			}
			return fmt.Errorf("register middleware %s: %w", name, err)
		}
	}
	return nil
}

func (s *Service) RegisterHTTPHandler(port int, pattern string, handler http.Handler) {
	s.httpServersMu.Lock()
	defer s.httpServersMu.Unlock()

	if s.httpServers == nil {
		s.httpServers = make(map[int]*http.ServeMux)
	}

	mux, ok := s.httpServers[port]
	if !ok {
		mux = http.NewServeMux()
		s.httpServers[port] = mux
	}

	mux.Handle(pattern, handler)
}

func (s *Service) startHTTPServers() {
	s.httpServersMu.Lock()
	defer s.httpServersMu.Unlock()

	for port, mux := range s.httpServers {
		addr := fmt.Sprintf(":%d", port)
		s.Logger.Info("Starting HTTP server", loggingpkg.LogFields{"address": addr})
		go func(addr string, handler http.Handler) {
			if err := http.ListenAndServe(addr, handler); err != nil {
				s.Logger.Error("Failed to start HTTP server", err, loggingpkg.LogFields{"address": addr})
			}
		}(addr, mux)
	}
}
