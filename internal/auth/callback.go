package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// DefaultCallbackTimeout is how long a flow waits for the authorization
// callback before giving up.
const DefaultCallbackTimeout = 2 * time.Minute

// AuthorizationCode is the ephemeral result of one authorization callback.
// It is consumed exactly once by the token exchange, then discarded.
type AuthorizationCode struct {
	Code  string
	State string
}

// authorizationDeniedError carries an error relayed by the authorization
// server through the callback query string (e.g. access_denied).
type authorizationDeniedError struct {
	code        string
	description string
}

func (e *authorizationDeniedError) Error() string {
	if e.description != "" {
		return fmt.Sprintf("authorization failed: %s: %s", e.code, e.description)
	}
	return fmt.Sprintf("authorization failed: %s", e.code)
}

// CallbackServer is a temporary local HTTP server receiving the single
// authorization callback of one flow attempt. It binds only when Start is
// called, serves at most one successful callback, then shuts down. The
// port is always released, on error paths included.
type CallbackServer struct {
	host     string
	port     string
	path     string
	metadata EndpointMetadata
	logger   *slog.Logger

	server    *http.Server
	listener  net.Listener
	resultCh  chan AuthorizationCode
	errorCh   chan error
	once      sync.Once
	boundAddr string
}

// NewCallbackServer creates a callback server for the host, port and path
// of the given redirect URI. The listener is not bound until Start.
func NewCallbackServer(redirectURI string, metadata EndpointMetadata, logger *slog.Logger) (*CallbackServer, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect URI %q: %w", redirectURI, err)
	}
	if u.Scheme != "http" {
		return nil, fmt.Errorf("redirect URI must use http for the loopback callback, got %q", redirectURI)
	}

	host := u.Hostname()
	if host == "" {
		host = "127.0.0.1"
	}
	path := u.Path
	if path == "" {
		path = "/callback"
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &CallbackServer{
		host:     host,
		port:     u.Port(),
		path:     path,
		metadata: metadata,
		logger:   logger,
		resultCh: make(chan AuthorizationCode, 1),
		errorCh:  make(chan error, 1),
	}, nil
}

// Start binds the listener and begins serving on a background goroutine.
// The server stops automatically when the context is cancelled.
func (s *CallbackServer) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.host, s.port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start callback server on %s: %w", addr, err)
	}

	s.listener = listener
	s.boundAddr = listener.Addr().String()

	s.server = &http.Server{
		Handler:           http.HandlerFunc(s.handleRequest),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			select {
			case s.errorCh <- err:
			default:
			}
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Debug("callback server listening",
		"addr", s.boundAddr,
		"path", s.path,
	)
	return nil
}

// Wait blocks until the callback delivers an authorization code, the
// authorization server relays an error, or the context ends.
func (s *CallbackServer) Wait(ctx context.Context) (AuthorizationCode, error) {
	select {
	case code := <-s.resultCh:
		return code, nil
	case err := <-s.errorCh:
		return AuthorizationCode{}, err
	case <-ctx.Done():
		return AuthorizationCode{}, ctx.Err()
	}
}

// handleRequest routes inbound requests. Requests outside the redirect
// path get a 404 and do not consume the single-use slot.
func (s *CallbackServer) handleRequest(w http.ResponseWriter, r *http.Request) {
	if strings.Trim(r.URL.Path, "/") != strings.Trim(s.path, "/") {
		s.logger.Debug("ignoring request outside redirect path", "path", r.URL.Path)
		http.NotFound(w, r)
		return
	}

	var handled bool
	s.once.Do(func() {
		handled = true
		s.processCallback(w, r)
	})

	if !handled {
		http.Error(w, "Callback already processed", http.StatusBadRequest)
	}
}

// processCallback runs exactly once per flow attempt.
func (s *CallbackServer) processCallback(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'unsafe-inline'")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	query := r.URL.Query()

	if errCode := query.Get("error"); errCode != "" {
		body := s.metadata.FailureHTML
		if body == nil {
			body = DefaultFailureHTML(s.metadata.Label, errCode, query.Get("error_description"))
		}
		_, _ = w.Write(body)

		select {
		case s.errorCh <- &authorizationDeniedError{code: errCode, description: query.Get("error_description")}:
		default:
		}
		s.scheduleStop()
		return
	}

	body := s.metadata.SuccessHTML
	if body == nil {
		body = DefaultSuccessHTML(s.metadata.Label)
	}
	_, _ = w.Write(body)

	select {
	case s.resultCh <- AuthorizationCode{Code: query.Get("code"), State: query.Get("state")}:
	default:
	}
	s.scheduleStop()
}

// scheduleStop shuts the server down shortly after the response is sent,
// leaving the browser time to read it.
func (s *CallbackServer) scheduleStop() {
	go func() {
		time.Sleep(1 * time.Second)
		s.Stop()
	}()
}

// Stop gracefully shuts down the callback server and releases the port.
// Safe to call multiple times.
func (s *CallbackServer) Stop() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(ctx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
}

// Addr returns the bound listen address, valid after Start. When the
// redirect URI carried port 0 this reports the kernel-assigned port.
func (s *CallbackServer) Addr() string {
	return s.boundAddr
}
