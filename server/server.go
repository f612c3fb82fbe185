package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"
	"github.com/microcosm-cc/bluemonday"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/umputun/scrollfeed/pkg/session"
)

//go:generate moq -out mocks/config.go -pkg mocks -skip-ensure -fmt goimports . ConfigProvider
//go:generate moq -out mocks/gate.go -pkg mocks -skip-ensure -fmt goimports . Gate

//go:embed templates/*.html
var templatesFS embed.FS

// Server represents HTTP server instance
type Server struct {
	config   ConfigProvider
	sessions Sessions
	gate     Gate
	version  string
	debug    bool

	templates *template.Template
	sanitizer *bluemonday.Policy

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
}

// Sessions keeps logged-in users and their feeds
type Sessions interface {
	Login(ctx context.Context) (id string, sess *session.Session)
	Get(id string) (*session.Session, bool)
	Logout(id string)
}

// Gate decides whether a login attempt succeeds
type Gate interface {
	Authenticate(username, password string) bool
}

// ConfigProvider provides server configuration
type ConfigProvider interface {
	GetServerConfig() (listen string, timeout time.Duration)
}

// New initializes a new server instance
func New(cfg ConfigProvider, sessions Sessions, gate Gate, version string, debug bool) *Server {
	s := &Server{
		config:    cfg,
		sessions:  sessions,
		gate:      gate,
		version:   version,
		debug:     debug,
		sanitizer: bluemonday.StrictPolicy(),
		router:    routegroup.New(http.NewServeMux()),
	}
	s.templates = template.Must(template.New("").Funcs(s.templateFuncs()).ParseFS(templatesFS, "templates/*.html"))

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Run starts the HTTP server and handles graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	listen, timeout := s.config.GetServerConfig()
	log.Printf("[INFO] starting server on %s", listen)

	s.lock.Lock()
	s.httpServer = &http.Server{
		Addr:              listen,
		Handler:           s.router,
		ReadHeaderTimeout: timeout,
		WriteTimeout:      timeout,
		IdleTimeout:       timeout,
	}
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		log.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		s.lock.Lock()
		defer s.lock.Unlock()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

// setupMiddleware configures standard middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("scrollfeed", "umputun", s.version))
	s.router.Use(rest.Ping)

	if s.debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(100))
	s.router.Use(rest.SizeLimit(64 * 1024)) // login form and htmx requests only
}

// setupRoutes configures application routes
func (s *Server) setupRoutes() {
	// web ui routes
	s.router.HandleFunc("GET /{$}", s.indexHandler)
	s.router.HandleFunc("POST /login", s.loginHandler)
	s.router.HandleFunc("POST /logout", s.logoutHandler)
	s.router.HandleFunc("GET /feed/more", s.moreHandler)
	s.router.HandleFunc("POST /feed/retry", s.retryHandler)

	// API routes
	s.router.Mount("/api/v1").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("GET /status", s.statusHandler)
		r.HandleFunc("GET /feed", s.feedStateHandler)
	})

	s.router.Handle("GET /metrics", promhttp.Handler())
}
