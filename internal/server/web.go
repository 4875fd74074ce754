package server

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	cws "github.com/coder/websocket"
	"github.com/creachadair/jrpc2"

	"github.com/aquabalance/aquabalance/internal/host/notify"
	"github.com/aquabalance/aquabalance/internal/wschan"
	"github.com/aquabalance/aquabalance/pkg/logger"
)

// WebServer serves the JSON-RPC endpoints and the notification action
// links over HTTP.
type WebServer struct {
	log      logger.Logger
	rpc      *RPCServer
	notifier *RPCNotifier
	server   *http.Server
	closed   bool
	mu       sync.Mutex
}

// NewWebServer creates a WebServer. rpc may be nil, in which case only the
// action links are served.
func NewWebServer(l logger.Logger, rpc *RPCServer, notifier *RPCNotifier) *WebServer {
	return &WebServer{
		log:      logger.OrNop(l),
		rpc:      rpc,
		notifier: notifier,
	}
}

func (s *WebServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.rpc != nil {
		mux.HandleFunc("GET /actions/{token}", s.handleAction)
		mux.HandleFunc("POST /actions/{token}", s.handleAction)
		mux.Handle("/jsonrpc", requireToken(s.rpc.secret, s.log, s.rpc.bridge))
		mux.Handle("/jsonrpc/ws", requireToken(s.rpc.secret, s.log, http.HandlerFunc(s.handleWebSocket)))
	}
	return mux
}

// handleAction resolves an action link. The token itself is the
// credential, so the route is not behind the RPC secret.
func (s *WebServer) handleAction(w http.ResponseWriter, r *http.Request) {
	actionID, err := s.rpc.notifs.Tap(r.PathValue("token"))
	if errors.Is(err, notify.ErrUnknownToken) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "recorded %s\n", actionID)
}

// handleWebSocket upgrades the connection and serves JSON-RPC over it with
// server push enabled. The connection is part of the broadcast set until it
// closes.
func (s *WebServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := cws.Accept(w, r, nil)
	if err != nil {
		s.log.Warning("websocket accept: %v", err)
		return
	}
	ch := wschan.New(r.Context(), conn)
	srv := jrpc2.NewServer(s.rpc.methods, &jrpc2.ServerOptions{AllowPush: true})
	srv.Start(ch)

	if s.notifier != nil {
		s.notifier.Register(srv)
		defer s.notifier.Unregister(srv)
	}
	if err := srv.Wait(); err != nil {
		s.log.Info("websocket client disconnected: %v", err)
	}
}

// Serve accepts connections on l until Shutdown is called.
func (s *WebServer) Serve(l net.Listener) error {
	s.mu.Lock()
	s.server = &http.Server{
		Handler:  s.handler(),
		ErrorLog: logger.ToStdLogger(s.log),
	}
	srv := s.server
	s.mu.Unlock()

	s.log.Info("listening on %s", l.Addr())
	err := srv.Serve(l)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close stops the web server and the RPC bridge. Later calls are no-ops.
func (s *WebServer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	if s.server != nil {
		err = s.server.Close()
	}
	if s.rpc != nil {
		if cerr := s.rpc.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
