package livereload

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	kiterrors "github.com/xdevkit/xdevkit-cli/internal/errors"
	"github.com/xdevkit/xdevkit-cli/internal/logging"
)

// ScriptPath serves a small client that reloads the page on every message.
const ScriptPath = "/livereload.js"

const (
	host            = "127.0.0.1"
	shutdownTimeout = 2 * time.Second
)

const clientScript = `(function () {
  var url = %q;
  function connect() {
    var ws = new WebSocket(url);
    ws.onmessage = function (e) {
      try { if (JSON.parse(e.data).type === "reload") location.reload(); } catch (_) {}
    };
    ws.onclose = function () { setTimeout(connect, 1000); };
  }
  connect();
})();
`

// Server exposes a Hub on the loopback interface.
type Server struct {
	hub    *Hub
	port   int
	logger logging.Logger
}

// NewServer creates a server for hub on port.
func NewServer(hub *Hub, port int, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Server{hub: hub, port: port, logger: logger.WithComponent("livereload")}
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(host, strconv.Itoa(s.port))
}

// URL is the websocket endpoint handed to development renders.
func (s *Server) URL() string {
	return "ws://" + s.Addr() + Path
}

// Handler routes the websocket endpoint and the client script.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(Path, s.hub)
	mux.HandleFunc(ScriptPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/javascript")
		w.Header().Set("Cache-Control", "no-store")
		fmt.Fprintf(w, clientScript, "ws://"+r.Host+Path)
	})

	return mux
}

// Run serves until ctx is cancelled, then disconnects all clients.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return kiterrors.NewNetworkError(kiterrors.ErrCodeInternalError, "unable to start live reload server on "+s.Addr(), err).
			WithComponent("livereload")
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	s.logger.Info(ctx, "live reload listening", "url", s.URL())

	select {
	case err := <-errCh:
		s.hub.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return kiterrors.NewNetworkError(kiterrors.ErrCodeInternalError, "live reload server failed", err)
	case <-ctx.Done():
	}

	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
