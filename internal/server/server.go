package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/inkpost/blogapi/config"
	"github.com/inkpost/blogapi/internal/db"
	"github.com/inkpost/blogapi/internal/handlers"
	"github.com/inkpost/blogapi/internal/mq"
	"github.com/inkpost/blogapi/internal/services"
	"github.com/inkpost/blogapi/internal/session"
	"github.com/inkpost/blogapi/internal/storage"
	"github.com/inkpost/blogapi/internal/store"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Services groups what the HTTP layer needs. Media may be nil when no
// storage backend is configured.
type Services struct {
	Auth     *services.AuthService
	Sessions *session.Manager
	Posts    *services.PostService
	Comments *services.CommentService
	Media    *services.MediaService
}

// Server wraps the HTTP server, its router and the resources it owns.
type Server struct {
	httpServer    *http.Server
	router        *chi.Mux
	db            *sql.DB
	mq            *mq.MQ
	sessions      *session.Manager
	sweepInterval time.Duration
}

// New connects every backend named in cfg and wires the HTTP routes.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sessions, err := session.NewManager(store.NewSessionRepository(dbConn), cfg.Session)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("SESSION_SECRET: %w", err)
	}

	broker, err := mq.FromConfig(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	var events services.EventPublisher
	if broker != nil {
		events = mq.NewEvents(broker, cfg.MQ.Channel)
	}

	objects, err := storage.FromConfig(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		if broker != nil {
			_ = broker.Close()
		}
		return nil, err
	}
	var media *services.MediaService
	if objects != nil {
		media = services.NewMediaService(objects)
	}

	posts := services.NewPostService(store.NewPostRepository(dbConn), events)
	router := NewRouter(Services{
		Auth:     services.NewAuthService(store.NewAuthorRepository(dbConn), nil),
		Sessions: sessions,
		Posts:    posts,
		Comments: services.NewCommentService(posts, store.NewCommentRepository(dbConn), events),
		Media:    media,
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	slog.Info("server configured",
		slog.Int("port", port),
		slog.String("mq_backend", cfg.MQ.Backend),
		slog.String("storage_backend", cfg.Storage.Backend))

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router:        router,
		db:            dbConn,
		mq:            broker,
		sessions:      sessions,
		sweepInterval: cfg.Session.SweepInterval,
	}, nil
}

// NewRouter builds the chi router with the standard middleware stack.
func NewRouter(svc Services) *chi.Mux {
	authHandler := handlers.NewAuthHandler(svc.Auth, svc.Sessions)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
		authHandler.LoadPrincipal,
	)
	router.Get("/healthz", handlers.Healthz)
	handlers.AuthRouter(router, authHandler)
	handlers.PostRouter(router, handlers.NewPostHandler(svc.Posts))
	handlers.CommentRouter(router, handlers.NewCommentHandler(svc.Comments))
	handlers.MediaRouter(router, handlers.NewMediaHandler(svc.Media))
	return router
}

// Router exposes the chi router.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Run serves HTTP and sweeps expired sessions until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("http server listening", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return s.sessions.RunSweeper(ctx, s.sweepInterval)
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("shutting down")
		return s.httpServer.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	s.closeBackends()
	return err
}

// Start runs the HTTP server without the sweeper.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown closes the listener and releases backends immediately.
func (s *Server) Shutdown() error {
	s.closeBackends()
	return s.httpServer.Close()
}

func (s *Server) closeBackends() {
	if s.mq != nil {
		if err := s.mq.Close(); err != nil {
			slog.Warn("close mq", slog.String("error", err.Error()))
		}
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}
