package server

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

// Server owns the listeners and the registry of live sessions a Cancel
// request needs to look up by backend key (spec §5 "Cancellation &
// timeouts").
type Server struct {
	cfg Config
	log *logrus.Logger

	mu        sync.Mutex
	listeners []net.Listener
	byKey     map[backendKey]*conn
	nextID    int64

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

type backendKey struct {
	pid    int32
	secret int32
}

func New(cfg Config) *Server {
	log := cfg.Log
	if log == nil {
		log = logrus.New()
	}
	return &Server{
		cfg:   cfg,
		log:   log,
		byKey: make(map[backendKey]*conn),
	}
}

// ListenAndServe opens the configured TCP and/or Unix listeners and
// accepts connections until ctx is cancelled or Shutdown is called.
// It blocks; callers typically run it in its own goroutine.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	if s.cfg.ListenAddr == "" && s.cfg.UnixSocketDir == "" {
		return fmt.Errorf("server: at least one of ListenAddr or UnixSocketDir must be set")
	}

	var listeners []net.Listener
	if s.cfg.ListenAddr != "" {
		ln, err := net.Listen("tcp", s.cfg.ListenAddr)
		if err != nil {
			return fmt.Errorf("server: listening on %s: %w", s.cfg.ListenAddr, err)
		}
		listeners = append(listeners, ln)
		s.log.WithField("addr", ln.Addr().String()).Info("listening (tcp)")
	}
	if s.cfg.UnixSocketDir != "" {
		path := filepath.Join(s.cfg.UnixSocketDir, fmt.Sprintf(".s.PGSQL.%d", s.cfg.UnixSocketPort))
		os.Remove(path) // stale socket from an unclean shutdown, spec §6 "owner-only" perms come from the OS umask
		ln, err := net.Listen("unix", path)
		if err != nil {
			return fmt.Errorf("server: listening on %s: %w", path, err)
		}
		listeners = append(listeners, ln)
		s.log.WithField("path", path).Info("listening (unix)")
	}

	s.mu.Lock()
	s.listeners = listeners
	s.mu.Unlock()

	errCh := make(chan error, len(listeners))
	for _, ln := range listeners {
		ln := ln
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			errCh <- s.acceptLoop(ctx, ln)
		}()
	}

	<-ctx.Done()
	for _, ln := range listeners {
		ln.Close()
	}
	s.wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil && ctx.Err() == nil {
			return err
		}
	}
	return nil
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		netConn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serve(ctx, netConn)
		}()
	}
}

// Shutdown stops accepting new connections and closes every live
// session's socket, then waits for their goroutines to return.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Lock()
	conns := make([]*conn, 0, len(s.byKey))
	for _, c := range s.byKey {
		conns = append(conns, c)
	}
	s.mu.Unlock()
	for _, c := range conns {
		c.sess.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) register(c *conn) {
	s.mu.Lock()
	s.byKey[backendKey{pid: c.pid, secret: c.sess.Secret}] = c
	s.mu.Unlock()
}

func (s *Server) unregister(c *conn) {
	s.mu.Lock()
	delete(s.byKey, backendKey{pid: c.pid, secret: c.sess.Secret})
	s.mu.Unlock()
}

// cancelSession interrupts the statement in flight on the session identified
// by a CancelRequest's (pid, secret) pair; an unknown pair is silently
// ignored, matching real PostgreSQL's refusal to confirm or deny a
// backend's existence to an unauthenticated cancel sender.
func (s *Server) cancelSession(pid, secret int32) {
	s.mu.Lock()
	c, ok := s.byKey[backendKey{pid: pid, secret: secret}]
	s.mu.Unlock()
	if !ok {
		return
	}
	c.cancelStatement()
}

func (s *Server) nextSessionID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	return s.nextID
}

// randomSecret mirrors the unguessable-but-unauthenticated secret real
// PostgreSQL hands out in BackendKeyData; it is not a credential, only
// a shared token the client echoes back in a CancelRequest.
func randomSecret() int32 {
	return int32(rand.Uint32() & 0x7fffffff)
}
