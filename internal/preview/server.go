// Package preview serves the LED scatter to browsers over websockets.
package preview

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	diag "github.com/coreman2200/neopixelsim/internal/diagnostics"
	"github.com/coreman2200/neopixelsim/internal/pixel"
	"github.com/coreman2200/neopixelsim/internal/render"
)

//go:embed index.html
var indexHTML []byte

const writeWait = 200 * time.Millisecond

type Options struct {
	Addr string
	// CloseOnDisconnect treats the last viewer leaving as closing the window.
	CloseOnDisconnect bool
	// Throttle drops frames that arrive sooner than this after the last one sent.
	Throttle time.Duration
}

// Server is a render.Canvas backed by an HTTP server.
type Server struct {
	opts Options

	mu          sync.Mutex
	ln          net.Listener
	srv         *http.Server
	clients     map[*websocket.Conn]bool
	diagClients map[*websocket.Conn]bool
	hadViewer   bool
	frameID     uint64
	startTime   time.Time
	lastEmit    time.Time
	locs        []pixel.Vec3
	bounds      render.Bounds
	count       int

	closed    chan struct{}
	closeOnce sync.Once
}

func New(opts Options) *Server {
	return &Server{
		opts:        opts,
		clients:     map[*websocket.Conn]bool{},
		diagClients: map[*websocket.Conn]bool{},
		startTime:   time.Now(),
		closed:      make(chan struct{}),
	}
}

// Handler routes /, /ws, /diag and /health.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(indexHTML)
	})
	mux.HandleFunc("/ws", s.HandleFramesWS)
	mux.HandleFunc("/diag", s.HandleDiagWS)
	mux.HandleFunc("/health", s.HandleHealth)
	return mux
}

func (s *Server) Open() error {
	addr := s.opts.Addr
	if addr == "" {
		addr = "127.0.0.1:8080"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.srv = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	srv := s.srv
	s.mu.Unlock()

	log.Info().Str("addr", ln.Addr().String()).Msg("preview listening")
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("preview server")
		}
	}()
	return nil
}

// Addr is the bound listen address, useful when Options.Addr used port 0.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

func (s *Server) Draw(sc render.Scene) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sc.BoundsChanged || len(sc.Colors) != s.count {
		s.locs = sc.Points()
		s.bounds = sc.Bounds
		s.count = len(sc.Colors)
		b := s.topologyLocked()
		for c := range s.clients {
			s.write(c, b)
		}
	}

	now := time.Now()
	if s.opts.Throttle > 0 && s.lastEmit.Add(s.opts.Throttle).After(now) {
		return nil
	}
	s.lastEmit = now
	s.frameID++

	rgb := make([]byte, 0, len(sc.Colors)*3)
	for _, c := range sc.Colors {
		rgb = append(rgb, byte(pixel.Channel255(c.R)), byte(pixel.Channel255(c.G)), byte(pixel.Channel255(c.B)))
	}
	type frame struct {
		Type    string `json:"type"`
		T       int64  `json:"t"`
		FrameID uint64 `json:"frame_id"`
		RGB     []byte `json:"rgb"`
	}
	b, _ := json.Marshal(frame{Type: "frame", T: now.UnixNano(), FrameID: s.frameID, RGB: rgb})
	for c := range s.clients {
		s.write(c, b)
	}
	return nil
}

func (s *Server) Closed() <-chan struct{} { return s.closed }

// Close stops the HTTP server and drops every viewer.
func (s *Server) Close() error {
	s.mu.Lock()
	srv := s.srv
	for c := range s.clients {
		_ = c.Close()
	}
	for c := range s.diagClients {
		_ = c.Close()
	}
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// Push sends a diagnostic to every /diag viewer.
func (s *Server) Push(d diag.Diagnostic) {
	b, _ := json.Marshal(d)
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.diagClients {
		s.write(c, b)
	}
}

func (s *Server) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.clients[conn] = true
	s.hadViewer = true
	s.write(conn, s.topologyLocked())
	s.mu.Unlock()
	log.Debug().Str("remote", r.RemoteAddr).Msg("preview viewer joined")

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.clients, conn)
			last := s.hadViewer && len(s.clients) == 0
			s.mu.Unlock()
			conn.Close()
			if last && s.opts.CloseOnDisconnect {
				s.closeOnce.Do(func() { close(s.closed) })
			}
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.diagClients[conn] = true
	s.mu.Unlock()
	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.diagClients, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp := map[string]any{
		"frame_id": s.frameID,
		"uptime_s": time.Since(s.startTime).Seconds(),
		"count":    s.count,
		"viewers":  len(s.clients),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

type topology struct {
	Type      string       `json:"type"`
	Count     int          `json:"count"`
	Locations [][3]float64 `json:"locations"`
	Min       [3]float64   `json:"min"`
	Max       [3]float64   `json:"max"`
}

func (s *Server) topologyLocked() []byte {
	top := topology{
		Type:      "topology",
		Count:     s.count,
		Locations: make([][3]float64, len(s.locs)),
		Min:       [3]float64{s.bounds.Min.X, s.bounds.Min.Y, s.bounds.Min.Z},
		Max:       [3]float64{s.bounds.Max.X, s.bounds.Max.Y, s.bounds.Max.Z},
	}
	for i, p := range s.locs {
		top.Locations[i] = [3]float64{p.X, p.Y, p.Z}
	}
	b, _ := json.Marshal(top)
	return b
}

// write must be called with s.mu held; gorilla conns allow one writer at a time.
func (s *Server) write(c *websocket.Conn, b []byte) {
	_ = c.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
		log.Debug().Err(err).Msg("preview write")
	}
}
