package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dlford/clock/internal/config"
	diag "github.com/dlford/clock/internal/diagnostics"
	"github.com/dlford/clock/internal/render"
	"github.com/dlford/clock/internal/render/scenes/solid"
	"github.com/dlford/clock/internal/render/scenes/wave"
	"github.com/dlford/clock/internal/selftest"
)

// Control is one message on /control. Absent fields are left alone.
type Control struct {
	Brightness *float64           `json:"brightness,omitempty"`
	FPS        *int               `json:"fps,omitempty"`
	Renderer   string             `json:"renderer,omitempty"`
	Preset     string             `json:"preset,omitempty"`
	FadeMs     *int               `json:"fade_ms,omitempty"`
	Wave       *WaveControl       `json:"wave,omitempty"`
	Params     map[string]float64 `json:"params,omitempty"`
	Bools      map[string]bool    `json:"bools,omitempty"` // e.g. calib FlipX
	Color      string             `json:"color,omitempty"` // solid color, hex
	HourFormat *int               `json:"hour_format,omitempty"`
	OffColor   string             `json:"off_color,omitempty"`
	RunTest    string             `json:"runTest,omitempty"`
}

// WaveControl changes single wave parameters.
type WaveControl struct {
	Center          *float64 `json:"center,omitempty"`
	Width           *float64 `json:"width,omitempty"`
	ShiftHorizontal *float64 `json:"shift_horizontal,omitempty"`
	ShiftVertical   *float64 `json:"shift_vertical,omitempty"`
	ShiftTime       *float64 `json:"shift_time,omitempty"`
}

func (w *WaveControl) apply(p render.WaveParams) render.WaveParams {
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&p.Center, w.Center)
	set(&p.Width, w.Width)
	set(&p.ShiftHorizontal, w.ShiftHorizontal)
	set(&p.ShiftVertical, w.ShiftVertical)
	set(&p.ShiftTime, w.ShiftTime)
	return p
}

// Status is the reply to every control message.
type Status struct {
	Renderer   string   `json:"renderer"`
	Renderers  []string `json:"renderers"`
	Presets    []string `json:"presets"`
	Brightness float64  `json:"brightness"`
	FPS        int      `json:"fps"`
	HourFormat int      `json:"hour_format"`
	OffColor   string   `json:"off_color"`
	Driver     string   `json:"driver"`
	Test       string   `json:"test,omitempty"`
	Errors     []string `json:"errors,omitempty"`
}

func (s *State) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	s.sendStatus(conn, nil)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Control
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendStatus(conn, fmt.Errorf("bad control message: %w", err))
			continue
		}
		s.sendStatus(conn, s.Apply(msg))
	}
}

// Apply executes a control message and persists the resulting config.
func (s *State) Apply(msg Control) error {
	e := s.Engine
	if e == nil {
		return errors.New("no engine")
	}
	var errs []error

	s.mu.Lock()
	cfg := s.Config
	if msg.Brightness != nil {
		b := clamp(*msg.Brightness, 0, 1)
		e.SetBrightness(b)
		cfg.Brightness = b
	}
	if msg.FPS != nil {
		if *msg.FPS > 0 {
			e.SetFPS(*msg.FPS)
			cfg.FPS = *msg.FPS
		} else {
			errs = append(errs, fmt.Errorf("fps must be positive, got %d", *msg.FPS))
		}
	}
	if msg.FadeMs != nil && *msg.FadeMs >= 0 {
		cfg.FadeMs = *msg.FadeMs
	}
	if msg.HourFormat != nil {
		switch *msg.HourFormat {
		case 12, 24:
			e.SetTwentyFour(*msg.HourFormat == 24)
			cfg.HourFormat = *msg.HourFormat
		default:
			errs = append(errs, fmt.Errorf("hour_format must be 12 or 24, got %d", *msg.HourFormat))
		}
	}
	if msg.OffColor != "" {
		if c, err := render.ParseHex(msg.OffColor); err != nil {
			errs = append(errs, err)
		} else {
			e.SetOffColor(c)
			cfg.OffColor = c.Hex()
		}
	}
	fade := time.Duration(cfg.FadeMs) * time.Millisecond
	s.mu.Unlock()

	if msg.Renderer != "" || msg.Preset != "" {
		name := msg.Renderer
		if name == "" {
			name = e.ActiveName()
		}
		if err := e.FadeTo(name, msg.Preset, s.Registry, fade); err != nil {
			errs = append(errs, err)
		} else {
			s.mu.Lock()
			cfg.Renderer, cfg.Preset = name, msg.Preset
			if p, ok := s.presetWave(name, msg.Preset); ok {
				cfg.SetWaveParams(p)
			}
			s.mu.Unlock()
		}
	}
	if msg.Wave != nil {
		s.mu.Lock()
		p := msg.Wave.apply(cfg.WaveParams())
		cfg.SetWaveParams(p)
		s.mu.Unlock()
		e.SetParams(wave.Params(p))
	}
	if msg.Color != "" {
		if c, err := render.ParseHex(msg.Color); err != nil {
			errs = append(errs, err)
		} else {
			u := render.NewUniforms()
			solid.SetColor(u, c)
			e.SetParams(u.Params)
		}
	}
	if len(msg.Params) > 0 {
		e.SetParams(msg.Params)
	}
	for k, v := range msg.Bools {
		e.SetBool(k, v)
	}
	if msg.RunTest != "" {
		if err := s.runTest(msg.RunTest); err != nil {
			errs = append(errs, err)
		}
	}

	if err := s.saveConfig(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// presetWave returns the wave parameters a wave preset sets, so the saved
// config reloads to the same look.
func (s *State) presetWave(name, preset string) (render.WaveParams, bool) {
	if preset == "" || s.Registry == nil {
		return render.WaveParams{}, false
	}
	rr, ok := s.Registry.Get(name)
	if !ok {
		return render.WaveParams{}, false
	}
	if _, isWave := rr.(*wave.Renderer); !isWave {
		return render.WaveParams{}, false
	}
	u := render.NewUniforms()
	rr.ApplyPreset(preset, u)
	return wave.FromUniforms(u), true
}

func (s *State) runTest(name string) error {
	kind, err := selftest.Parse(name)
	if err != nil {
		s.pushDiag(diag.Diagnostic{
			Severity: diag.Warn, Code: diag.TestUnknown, Summary: "Unknown test name",
			Evidence: map[string]any{"name": name, "known": selftest.Kinds},
		})
		return err
	}
	s.pushDiag(diag.Diagnostic{Severity: diag.Info, Code: diag.TestRunning, Summary: "Running test", Detail: name})
	s.mu.Lock()
	s.test = kind
	s.mu.Unlock()

	hold := s.Engine.FPS() / 4
	s.Engine.RunPattern(selftest.NewRunner(selftest.Plan{Kind: kind, Hold: hold}), func() {
		s.mu.Lock()
		s.test = selftest.None
		s.mu.Unlock()
		s.pushDiag(diag.Diagnostic{Severity: diag.Info, Code: diag.TestDone, Summary: "Test complete", Detail: name})
	})
	return nil
}

func (s *State) saveConfig() error {
	s.mu.RLock()
	path, cfg := s.ConfigPath, *s.Config
	s.mu.RUnlock()
	if path == "" {
		return nil
	}
	if err := config.Save(path, &cfg); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("save config")
		s.pushDiag(diag.Diagnostic{Severity: diag.Warn, Code: diag.ConfigSave, Summary: "Could not save config", Detail: err.Error()})
		return err
	}
	return nil
}

func (s *State) status(err error) Status {
	s.mu.RLock()
	st := Status{
		HourFormat: s.Config.HourFormat,
		OffColor:   s.Config.OffColor,
		Driver:     s.CurrentDriver,
		Test:       string(s.test),
	}
	s.mu.RUnlock()
	if s.Registry != nil {
		st.Renderers = s.Registry.List()
	}
	if s.Engine != nil {
		st.Renderer = s.Engine.ActiveName()
		st.Brightness = s.Engine.Brightness()
		st.FPS = s.Engine.FPS()
		if s.Registry != nil {
			if rr, ok := s.Registry.Get(st.Renderer); ok {
				st.Presets = rr.Presets()
			}
		}
	}
	if err != nil {
		st.Errors = []string{err.Error()}
	}
	return st
}

func (s *State) sendStatus(conn *websocket.Conn, err error) {
	b, _ := json.Marshal(s.status(err))
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.TextMessage, b)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
