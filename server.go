package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Blog struct {
	store PostStore
	log   *logrus.Logger
}

func NewBlog(store PostStore, log *logrus.Logger) *Blog {
	return &Blog{
		store: store,
		log:   log,
	}
}

// Routes returns the API handler, instrumented with metrics, request logging
// and tracing.
func (b *Blog) Routes(m *Metrics) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /posts", b.ListPosts)
	mux.HandleFunc("GET /posts/{id}", b.GetPost)
	mux.HandleFunc("POST /posts", b.CreatePost)
	mux.HandleFunc("PUT /posts/{id}", b.UpdatePost)
	mux.HandleFunc("DELETE /posts/{id}", b.DeletePost)

	mux.Handle("GET /metrics", m.Handler())

	mux.HandleFunc("/posts", methodNotAllowed("GET, HEAD, POST"))
	mux.HandleFunc("/posts/{id}", methodNotAllowed("GET, HEAD, PUT, DELETE"))
	mux.HandleFunc("/metrics", methodNotAllowed("GET, HEAD"))
	mux.HandleFunc("/", notFound)

	return otelhttp.NewHandler(instrument(mux, m, b.log), "blogging-api")
}

// Server owns the store connection and the HTTP listener between Start and
// Close.
type Server struct {
	cfg   Config
	log   *logrus.Logger
	store PostStore
	http  *http.Server
	ln    net.Listener
	errc  chan error
}

func NewServer(cfg Config, log *logrus.Logger) *Server {
	return &Server{cfg: cfg, log: log}
}

// Start connects to the database at databaseURL and begins serving on the
// configured port. Port 0 picks a free port; see Addr.
func (s *Server) Start(ctx context.Context, databaseURL string) error {
	if s.http != nil {
		return errors.New("server already started")
	}

	store, err := openStore(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		_ = store.Close(ctx)
		return fmt.Errorf("listening on port %d: %w", s.cfg.Port, err)
	}

	blog := NewBlog(store, s.log)
	s.store = store
	s.ln = ln
	s.errc = make(chan error, 1)
	s.http = &http.Server{
		Handler:           blog.Routes(NewMetrics()),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		err := s.http.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.errc <- err
	}()

	s.log.WithField("addr", ln.Addr().String()).Info("Your app is listening")
	return nil
}

func (s *Server) Store() PostStore {
	return s.store
}

// Addr returns the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// URL returns the base URL clients on this host can reach the server at, or
// "" before Start.
func (s *Server) URL() string {
	if s.ln == nil {
		return ""
	}
	addr, ok := s.ln.Addr().(*net.TCPAddr)
	if !ok {
		return "http://" + s.Addr()
	}
	return fmt.Sprintf("http://127.0.0.1:%d", addr.Port)
}

// Done delivers the error, if any, that stopped the server from serving.
func (s *Server) Done() <-chan error {
	return s.errc
}

// Close stops accepting requests, waits for in-flight ones until ctx is
// done, and closes the store connection.
func (s *Server) Close(ctx context.Context) error {
	if s.http == nil {
		return nil
	}

	s.log.Info("Closing server")
	err := s.http.Shutdown(ctx)
	if cerr := s.store.Close(ctx); cerr != nil {
		err = errors.Join(err, fmt.Errorf("closing store: %w", cerr))
	}
	s.http = nil
	return err
}
