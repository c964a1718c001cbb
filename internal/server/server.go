package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/soilboard/internal/chart"
	"github.com/jpalmerr/soilboard/internal/store"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write operation.
	// Must be <= shutdown timeout to ensure clean shutdown.
	sseWriteTimeout = 5 * time.Second

	// shutdownTimeout bounds graceful shutdown of in-flight requests.
	shutdownTimeout = 5 * time.Second

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "SoilBoard"

	// titlePlaceholder is the marker in HTML that gets replaced with the actual title.
	titlePlaceholder = "{{.Title}}"

	// maxRangeBody limits the size of a POST /api/range body.
	maxRangeBody = 1 << 10
)

// RangeSelector applies a range chosen on the dashboard, given as a number
// of hours in text form, and returns the resulting range in seconds.
type RangeSelector interface {
	Select(value string) (int64, error)
}

// Config holds everything the [Server] serves besides the store.
type Config struct {
	// Port is the TCP port to listen on. Zero lets the OS choose.
	Port int

	// Title replaces {{.Title}} in the dashboard page. Defaults to "SoilBoard".
	Title string

	// Assets contains assets/index.html. May be nil, in which case "/" is not served.
	Assets fs.FS

	// RangeOptions are the hour values offered by the range selector.
	RangeOptions []float64

	// Chart controls /chart.svg rendering.
	Chart chart.Options

	// Ranges handles POST /api/range. May be nil, in which case range
	// changes are refused.
	Ranges RangeSelector

	// Metrics serves /metrics. May be nil, in which case it is not routed.
	Metrics http.Handler

	// Logger receives server events.
	Logger *slog.Logger
}

// Server handles HTTP requests for the SoilBoard dashboard and API.
//
// Server provides these endpoints:
//   - GET /: Serves the embedded dashboard HTML
//   - GET /api/state: Returns the current dashboard state as JSON
//   - GET /api/sse: Server-Sent Events stream of state changes
//   - GET /api/ws: WebSocket stream of state changes
//   - POST /api/range: Changes the requested range
//   - GET /chart.svg: The soil-moisture chart as SVG
//   - GET /metrics: Prometheus metrics
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	store  store.Store
	cfg    Config
	logger *slog.Logger

	mu         sync.Mutex
	httpServer *http.Server
	addr       net.Addr
}

// stateResponse is the body of GET /api/state.
type stateResponse struct {
	store.State
	RangeOptions []float64 `json:"range_options"`
}

// rangeRequest is the JSON body accepted by POST /api/range. Hours may be
// sent as a number or a string.
type rangeRequest struct {
	Hours json.RawMessage `json:"hours"`
}

type rangeResponse struct {
	RangeSeconds int64 `json:"range_seconds"`
}

// NewServer creates a new HTTP [Server].
//
// The server is not started until [Server.Start] is called.
func NewServer(st store.Store, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:  st,
		cfg:    cfg,
		logger: logger,
	}
}

// Handler returns the routed handler without starting a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// API routes
	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/api/sse", s.handleSSE)
	mux.HandleFunc("/api/ws", s.handleWebSocket)
	mux.HandleFunc("/api/range", s.handleRange)
	mux.HandleFunc("/chart.svg", s.handleChart)

	if s.cfg.Metrics != nil {
		mux.Handle("/metrics", s.cfg.Metrics)
	}

	// serve dashboard assets
	if s.cfg.Assets != nil {
		mux.HandleFunc("/", s.handleDashboard)
	}
	return mux
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server will continue running until the context is
// cancelled, at which point it initiates a graceful shutdown with a 5-second
// timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.cfg.Port, err)
	}

	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// BaseContext derives all request contexts from the server context.
		// When ctx is cancelled, all request contexts are also cancelled,
		// ending long-running handlers like SSE and WebSocket.
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	s.mu.Lock()
	s.httpServer = httpServer
	s.addr = ln.Addr()
	s.mu.Unlock()

	go func() {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()

	// shutdown on context cancellation
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	s.logger.Info("dashboard listening", "addr", ln.Addr().String())
	return nil
}

// Addr returns the address the server is listening on, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// handleDashboard serves the main dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if s.cfg.Assets == nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	content, err := fs.ReadFile(s.cfg.Assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	// apply title substitution with HTML escaping to prevent XSS
	title := s.cfg.Title
	if title == "" {
		title = defaultTitle
	}
	rendered := strings.ReplaceAll(string(content), titlePlaceholder, html.EscapeString(title))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write dashboard response", "error", err)
	}
}

// handleState returns the current dashboard state as JSON.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := stateResponse{
		State:        s.store.Snapshot(),
		RangeOptions: s.cfg.RangeOptions,
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("failed to encode state response", "error", err)
	}
}

// handleRange changes the requested range. The new value is read from a JSON
// body {"hours": ...} or from the "hours" form field.
func (s *Server) handleRange(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.cfg.Ranges == nil {
		http.Error(w, "Range selection not available", http.StatusServiceUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRangeBody)
	value, err := rangeValue(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	seconds, err := s.cfg.Ranges.Select(value)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rangeResponse{RangeSeconds: seconds}); err != nil {
		s.logger.Error("failed to encode range response", "error", err)
	}
}

func rangeValue(r *http.Request) (string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		return r.FormValue("hours"), nil
	}

	var req rangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", fmt.Errorf("invalid JSON body: %w", err)
	}
	var str string
	if err := json.Unmarshal(req.Hours, &str); err == nil {
		return str, nil
	}
	return strings.TrimSpace(string(req.Hours)), nil
}

// handleChart renders the current frame as SVG.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var buf bytes.Buffer
	if err := chart.RenderSVG(&buf, s.store.Snapshot().Frame, s.cfg.Chart); err != nil {
		s.logger.Error("failed to render chart", "error", err)
		http.Error(w, "Chart unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Error("failed to write chart response", "error", err)
	}
}

// handleSSE streams state changes via Server-Sent Events.
//
// The first event is a snapshot of the full state. The handler uses write
// deadlines so that a slow or disconnected client cannot block it forever.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)
	log := s.logger.With("client_id", uuid.NewString(), "transport", "sse")

	// track if write deadlines are supported (may not be for some ResponseWriter impls)
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				log.Warn("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	log.Debug("client connected", "remote", r.RemoteAddr)
	defer log.Debug("client disconnected")

	st := s.store.Snapshot()
	data, err := json.Marshal(store.Event{Type: store.EventSnapshot, State: &st})
	if err == nil {
		if err := writeAndFlush(data); err != nil {
			return
		}
	}

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if err := writeAndFlush(data); err != nil {
				return
			}

		case <-r.Context().Done():
			// fires on both client disconnect and server shutdown
			return
		}
	}
}
