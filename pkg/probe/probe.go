// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package probe

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/memo-labs/memo-core/pkg/log"
)

const _readHeaderTimeout = 5 * time.Second

type (
	// Server serves liveness, readiness and metrics of a process
	Server struct {
		ready  atomic.Bool
		check  func() error
		server http.Server
	}

	// Option sets a probe server option
	Option func(*Server)
)

// WithReadinessCheck makes readiness also depend on check returning nil
func WithReadinessCheck(check func() error) Option {
	return func(s *Server) { s.check = check }
}

// New creates a probe server listening on port
func New(port int, opts ...Option) *Server {
	s := &Server{check: func() error { return nil }}
	for _, opt := range opts {
		opt(s)
	}
	s.server = http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: _readHeaderTimeout,
	}
	return s
}

// Handler returns the probe routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/liveness", successHandleFunc)
	readiness := func(w http.ResponseWriter, r *http.Request) {
		if !s.ready.Load() {
			failureHandleFunc(w, r)
			return
		}
		if err := s.check(); err != nil {
			log.L().Debug("Readiness check failed.", zap.Error(err))
			failureHandleFunc(w, r)
			return
		}
		successHandleFunc(w, r)
	}
	mux.HandleFunc("/readiness", readiness)
	mux.HandleFunc("/health", readiness)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Start starts serving in the background
func (s *Server) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", s.server.Addr)
	}
	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.L().Error("Probe server stopped.", zap.Error(err))
		}
	}()
	return nil
}

// Ready makes readiness and health report success
func (s *Server) Ready() { s.ready.Store(true) }

// NotReady makes readiness and health report failure
func (s *Server) NotReady() { s.ready.Store(false) }

// Stop shuts the server down
func (s *Server) Stop(ctx context.Context) error { return s.server.Shutdown(ctx) }

func successHandleFunc(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		log.L().Warn("Failed to send http response.", zap.Error(err))
	}
}

func failureHandleFunc(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusServiceUnavailable)
	if _, err := w.Write([]byte("FAIL")); err != nil {
		log.L().Warn("Failed to send http response.", zap.Error(err))
	}
}
