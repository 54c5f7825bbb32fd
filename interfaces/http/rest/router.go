package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"cogmap/interfaces/http/rest/handlers"
	"cogmap/interfaces/http/rest/middleware"
)

// Options holds the optional parts of the router
type Options struct {
	// Registry is served on /metrics when set
	Registry *prometheus.Registry
	// Observer receives per-request metrics when set
	Observer middleware.HTTPObserver
	// ViewSocket is mounted on /ws/view when set
	ViewSocket http.Handler
	// AllowedOrigins enables CORS for these origins when non-empty
	AllowedOrigins []string
}

// Router creates and configures the HTTP router
type Router struct {
	session handlers.Session
	opts    Options
	logger  *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(session handlers.Session, opts Options, logger *zap.Logger) *Router {
	return &Router{
		session: session,
		opts:    opts,
		logger:  logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	if rt.opts.Observer != nil {
		router.Use(middleware.Metrics(rt.opts.Observer))
	}

	if len(rt.opts.AllowedOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: rt.opts.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
			ExposedHeaders: []string{middleware.RequestIDHeader},
			MaxAge:         300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	if rt.opts.Registry != nil {
		router.Handle("/metrics", promhttp.HandlerFor(rt.opts.Registry, promhttp.HandlerOpts{}))
	}
	if rt.opts.ViewSocket != nil {
		router.Handle("/ws/view", rt.opts.ViewSocket)
	}

	graphHandler := handlers.NewGraphHandler(rt.session, rt.logger)
	nodeHandler := handlers.NewNodeHandler(rt.session, rt.logger)
	chatHandler := handlers.NewChatHandler(rt.session, rt.logger)

	router.Route("/api", func(r chi.Router) {
		r.Get("/graph", graphHandler.GetGraph)
		r.Get("/path", graphHandler.GetPath)
		r.Post("/focus", graphHandler.Focus)

		r.Route("/nodes", func(r chi.Router) {
			r.Post("/", nodeHandler.CreateNode)
			r.Put("/{nodeID}", nodeHandler.RenameNode)
			r.Delete("/{nodeID}", nodeHandler.DeleteNode)
		})

		r.Post("/chat", chatHandler.Ask)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
