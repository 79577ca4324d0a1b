package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/dlford/clock/internal/config"
	diag "github.com/dlford/clock/internal/diagnostics"
	"github.com/dlford/clock/internal/facesvg"
	"github.com/dlford/clock/internal/metrics"
	"github.com/dlford/clock/internal/render"
	"github.com/dlford/clock/internal/selftest"
)

const writeWait = 200 * time.Millisecond

// State serves the clock over HTTP. It is a render.Driver: every frame the
// engine writes is kept and pushed to the /ws clients.
type State struct {
	mu sync.RWMutex

	Engine   *render.Engine
	Registry *render.Registry
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	SVG      facesvg.Options

	// Config mirrors the live settings; it is saved to ConfigPath after
	// every control message.
	Config        *config.Config
	ConfigPath    string
	CurrentDriver string

	last        *render.Frame
	startTime   time.Time
	clients     map[*client]bool
	diagClients map[*client]bool

	test      selftest.Kind
	lagWarned bool
	writeErr  bool

	upgrader websocket.Upgrader
	now      func() time.Time
}

func NewState(e *render.Engine, reg *render.Registry, cfg *config.Config) *State {
	if cfg == nil {
		cfg = config.Default()
	}
	return &State{
		Engine:      e,
		Registry:    reg,
		Config:      cfg,
		SVG:         facesvg.DefaultOptions(),
		startTime:   time.Now(),
		clients:     map[*client]bool{},
		diagClients: map[*client]bool{},
		upgrader:    websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		now:         time.Now,
	}
}

// Handler returns the routes wrapped in CORS.
func (s *State) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleFramesWS)
	mux.HandleFunc("/diag", s.HandleDiagWS)
	mux.HandleFunc("/control", s.HandleControlWS)
	mux.HandleFunc("/health", s.HandleHealth)
	mux.HandleFunc("/clock.svg", s.HandleSVG)
	mux.HandleFunc("/clock-animated.svg", s.HandleAnimatedSVG)
	if s.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}
	return withCORS(mux)
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		h.ServeHTTP(w, r)
	})
}

// Write keeps f as the latest frame and broadcasts it.
func (s *State) Write(f *render.Frame) error {
	s.mu.Lock()
	s.last = f
	s.mu.Unlock()
	s.broadcastFrame(f)
	return nil
}

// SetConfig replaces the mirrored config, e.g. after a reload from disk.
func (s *State) SetConfig(c *config.Config) {
	if c == nil {
		return
	}
	s.mu.Lock()
	s.Config = c
	s.mu.Unlock()
}

// Clients returns the number of frame and diagnostic subscribers.
func (s *State) Clients() (frames, diags int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients), len(s.diagClients)
}

// Last is the latest frame written, nil before the first.
func (s *State) Last() *render.Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// OnFrame turns frame stats into metrics and diagnostics. Lag and write
// failures are reported once when they start, not on every frame.
func (s *State) OnFrame(st render.FrameStats) {
	s.Metrics.Observe(st)

	var pending []diag.Diagnostic
	s.mu.Lock()
	if st.DigitsChanged {
		late := st.Lag > diag.LagThreshold
		if late && !s.lagWarned {
			pending = append(pending, diag.Lag(st.Lag))
		}
		s.lagWarned = late
	}
	failed := st.Err != nil
	if failed && !s.writeErr {
		pending = append(pending, diag.Write(st.Err))
		log.Warn().Err(st.Err).Uint64("frame", st.ID).Msg("frame write failed")
	}
	s.writeErr = failed
	s.mu.Unlock()

	for _, d := range pending {
		s.pushDiag(d)
	}
}

type frameMsg struct {
	T       int64             `json:"t"`
	FrameID uint64            `json:"frame_id"`
	Digits  string            `json:"digits"`
	Fills   map[string]string `json:"fills"`
}

func encodeFrame(f *render.Frame) ([]byte, error) {
	m := frameMsg{
		T:       f.Time.UnixNano(),
		FrameID: f.ID,
		Digits:  f.Digits,
		Fills:   make(map[string]string, len(f.Colors)),
	}
	for i, c := range f.Colors {
		m.Fills[strconv.Itoa(i+1)] = c.CSS()
	}
	return json.Marshal(m)
}

func (s *State) broadcastFrame(f *render.Frame) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.clients) == 0 {
		return
	}
	b, err := encodeFrame(f)
	if err != nil {
		log.Debug().Err(err).Msg("encode frame")
		return
	}
	for c := range s.clients {
		if err := c.send(b); err != nil {
			log.Debug().Err(err).Msg("write frame")
		}
	}
}

// pushDiag is called from the render loop and from control handlers.
func (s *State) pushDiag(d diag.Diagnostic) {
	b, _ := json.Marshal(d)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.diagClients {
		if err := c.send(b); err != nil {
			log.Debug().Err(err).Msg("write diagnostic")
		}
	}
}

// client serializes writes to one websocket; gorilla allows a single
// concurrent writer per connection.
type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) send(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

// track registers conn in set and drains it until the peer goes away.
func (s *State) track(conn *websocket.Conn, set map[*client]bool, stream string) {
	c := &client{conn: conn}
	s.mu.Lock()
	set[c] = true
	s.mu.Unlock()
	if s.Metrics != nil {
		s.Metrics.WSClients.WithLabelValues(stream).Inc()
	}
	go func() {
		defer func() {
			s.mu.Lock()
			delete(set, c)
			s.mu.Unlock()
			if s.Metrics != nil {
				s.Metrics.WSClients.WithLabelValues(stream).Dec()
			}
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *State) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	if f := s.Last(); f != nil {
		if b, err := encodeFrame(f); err == nil {
			_ = conn.WriteMessage(websocket.TextMessage, b)
		}
	}
	s.track(conn, s.clients, "frames")
}

func (s *State) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.track(conn, s.diagClients, "diag")
}

func (s *State) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := map[string]any{
		"uptime_s":   time.Since(s.startTime).Seconds(),
		"driver":     s.CurrentDriver,
		"ws_clients": len(s.clients),
		"test":       string(s.test),
	}
	if s.last != nil {
		resp["frame_id"] = s.last.ID
		resp["digits"] = s.last.Digits
	}
	s.mu.RUnlock()
	if s.Engine != nil {
		resp["fps"] = s.Engine.FPS()
		resp["brightness"] = s.Engine.Brightness()
		resp["dim"] = s.Engine.Dim()
		resp["renderer"] = s.Engine.ActiveName()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *State) HandleSVG(w http.ResponseWriter, r *http.Request) {
	f := s.Last()
	if f == nil {
		http.Error(w, "no frame rendered yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	if err := facesvg.Write(w, f, s.SVG); err != nil {
		log.Debug().Err(err).Msg("write svg")
	}
}

func (s *State) HandleAnimatedSVG(w http.ResponseWriter, r *http.Request) {
	if s.Engine == nil {
		http.Error(w, "no engine", http.StatusServiceUnavailable)
		return
	}
	steps, _ := strconv.Atoi(r.URL.Query().Get("steps"))
	sc := s.Engine.Scene(s.now())
	w.Header().Set("Content-Type", "image/svg+xml")
	if err := facesvg.WriteAnimated(w, facesvg.Animation{Scene: sc, Steps: steps}, s.SVG); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	}
}

var _ render.Driver = (*State)(nil)
