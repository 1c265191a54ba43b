// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package status

import (
	"context"
	"errors"
	"net"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// Server is the status HTTP server
type Server struct {
	addr     string
	server   *http.Server
	listener net.Listener
}

func NewServer(addr string, d Dispatcher) *Server {
	return &Server{
		addr:   addr,
		server: &http.Server{Handler: NewRouter(d)},
	}
}

// Listen binds the address so callers know the server is reachable before Serve runs.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = ln
	log.WithField("addr", ln.Addr().String()).Info("Status server listening")
	return nil
}

// Addr returns the bound address, or the configured one before Listen.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Serve handles requests until ctx is cancelled, then shuts the server down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	errs := make(chan error, 1)
	go func() {
		errs <- s.server.Serve(s.listener)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		if err := s.server.Shutdown(context.Background()); err != nil {
			return err
		}
		if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		log.Info("Status server closed")
		return nil
	}
}
