// Package server exposes the FlexDB REST API over HTTP(S).
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"

	"github.com/flexdb/flexdb-go/internal/api"
	"github.com/flexdb/flexdb-go/internal/engine"
)

// Options configures a Router.
type Options struct {
	// Accounts maps API keys to account names.
	Accounts map[string]string
	// BasePath prefixes every route, e.g. "/api/v1".
	BasePath string
	Logger   hclog.Logger
}

type Router struct {
	engine *gin.Engine
	logger hclog.Logger
	cert   *tls.Certificate

	mu       sync.Mutex
	listener net.Listener
	srv      *http.Server
	stopped  bool
}

func NewRouter(s *engine.MemStore, opts Options) *Router {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	r := gin.New()
	r.Use(requestLogger(logger), gin.Recovery(), cors)

	h := &api.Handler{Store: s, Accounts: opts.Accounts}
	base := "/" + strings.Trim(opts.BasePath, "/")
	h.Register(r.Group(base))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	return &Router{engine: r, logger: logger}
}

// SetCertificate sets the TLS certificate for the router
func (r *Router) SetCertificate(cert tls.Certificate) {
	r.cert = &cert
}

// Handler returns the underlying http.Handler, for tests and embedding.
func (r *Router) Handler() http.Handler {
	return r.engine
}

// Listen serves on addr until Stop is called. It returns nil after a clean stop,
// including when Stop was called before Listen.
func (r *Router) Listen(addr string) error {
	var listener net.Listener
	var err error

	if r.cert != nil {
		config := &tls.Config{Certificates: []tls.Certificate{*r.cert}, MinVersion: tls.VersionTLS12}
		listener, err = tls.Listen("tcp", addr, config)
	} else {
		listener, err = net.Listen("tcp", addr)
	}
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           r.engine,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       5 * time.Minute,
	}

	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		listener.Close()
		r.logger.Info("stop requested before listening, not serving", "addr", addr)
		return nil
	}
	if r.srv != nil {
		r.mu.Unlock()
		listener.Close()
		return errors.New("server: already listening")
	}
	r.listener = listener
	r.srv = srv
	r.mu.Unlock()

	r.logger.Info("listening", "addr", listener.Addr().String(), "tls", r.cert != nil)
	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (r *Router) Addr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listener == nil {
		return nil
	}
	return r.listener.Addr()
}

// Stop gracefully shuts the server down, waiting for in-flight requests until ctx is done.
// A Stop before Listen makes the later Listen return immediately.
func (r *Router) Stop(ctx context.Context) error {
	r.mu.Lock()
	r.stopped = true
	srv := r.srv
	r.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func cors(c *gin.Context) {
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
	c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
	c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")
	if c.Request.Method == "OPTIONS" {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}
	c.Next()
}

func requestLogger(logger hclog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}
