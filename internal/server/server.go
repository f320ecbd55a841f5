package server

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
	"github.com/userdir/apiserver/config"
	"github.com/userdir/apiserver/internal/db"
	"github.com/userdir/apiserver/internal/events"
	"github.com/userdir/apiserver/internal/handlers"
	"github.com/userdir/apiserver/internal/mq"
	"github.com/userdir/apiserver/internal/obs"
	"github.com/userdir/apiserver/internal/services"
	"github.com/userdir/apiserver/internal/store"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Server wraps the HTTP server, router and the resources it owns.
type Server struct {
	httpServer     *http.Server
	router         *chi.Mux
	db             *sql.DB
	mq             *mq.MQ
	shutdownTracer func(context.Context) error
}

// New opens the database and optional collaborators and builds the router.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s := &Server{db: dbConn}

	var publisher services.EventPublisher
	broker, err := mq.Open(ctx, cfg)
	switch {
	case errors.Is(err, mq.ErrDisabled):
		log.Info("user events disabled")
	case err != nil:
		s.close(ctx)
		return nil, err
	default:
		s.mq = broker
		publisher = events.NewPublisher(broker, cfg.Events.Channel)
		log.WithFields(log.Fields{
			"backend": cfg.Events.Backend,
			"channel": cfg.Events.Channel,
		}).Info("publishing user events")
	}

	shutdownTracer, err := obs.InitTracer(ctx, cfg.Tracing, handlers.APIVersion)
	switch {
	case errors.Is(err, obs.ErrDisabled):
	case err != nil:
		s.close(ctx)
		return nil, err
	default:
		s.shutdownTracer = shutdownTracer
	}

	userService := services.NewUserService(store.NewUserRepository(dbConn), publisher)
	s.router = NewRouter(cfg, userService)

	var handler http.Handler = s.router
	if s.shutdownTracer != nil {
		handler = otelhttp.NewHandler(s.router, "userdir",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 65 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// NewRouter builds the chi router with middleware and all routes.
func NewRouter(cfg config.Config, userService *services.UserService) *chi.Mux {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		handlers.RequestLogger,
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
	)
	handlers.SystemRouter(router, userService, cfg)
	router.Route("/users", func(r chi.Router) {
		handlers.UserRouter(r, userService)
	})
	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start runs the HTTP server. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	log.WithField("addr", s.httpServer.Addr).Info("http server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and then releases the database,
// broker and tracer.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.close(ctx)
	return err
}

func (s *Server) close(ctx context.Context) {
	if s.shutdownTracer != nil {
		if err := s.shutdownTracer(ctx); err != nil {
			log.WithError(err).Warn("tracer shutdown")
		}
	}
	if s.mq != nil {
		if err := s.mq.Close(); err != nil {
			log.WithError(err).Warn("broker close")
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.WithError(err).Warn("database close")
		}
	}
}
