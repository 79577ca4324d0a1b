package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dlford/clock/internal/config"
	diag "github.com/dlford/clock/internal/diagnostics"
	"github.com/dlford/clock/internal/metrics"
	"github.com/dlford/clock/internal/render"
	"github.com/dlford/clock/internal/render/scenes/solid"
	"github.com/dlford/clock/internal/render/scenes/wave"
)

var t0 = time.Date(2024, 3, 9, 21, 4, 5, 0, time.Local)

type fixture struct {
	state  *State
	engine *render.Engine
	srv    *httptest.Server
	path   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg := render.NewRegistry()
	reg.Register(wave.New("wave"))
	reg.Register(solid.New("solid", render.Color{R: 1}))
	w, _ := reg.Get("wave")

	e, err := render.NewEngine(render.NewClock(t0, false), nil, w, nil)
	require.NoError(t, err)

	cfg := config.Default()
	path := filepath.Join(t.TempDir(), "config.yaml")
	promReg := prometheus.NewRegistry()

	s := NewState(e, reg, cfg)
	s.ConfigPath = path
	s.CurrentDriver = "sim"
	s.Metrics = metrics.New(promReg)
	s.Gatherer = promReg
	s.now = func() time.Time { return t0 }
	e.SetDriver(s)
	e.OnFrame = s.OnFrame

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return &fixture{state: s, engine: e, srv: srv, path: path}
}

func (f *fixture) dial(t *testing.T, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, b, err := conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, v))
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func TestFrameStream(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.engine.RenderOnce(t0))

	conn := f.dial(t, "/ws")
	var first frameMsg
	readJSON(t, conn, &first)
	assert.Equal(t, uint64(1), first.FrameID)
	assert.Equal(t, "090405", first.Digits)
	assert.Len(t, first.Fills, 46)
	assert.Equal(t, "rgb(0,16,16)", first.Fills["3"], "middle bar of the leading zero is dark")

	require.Eventually(t, func() bool { n, _ := f.state.Clients(); return n == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, f.engine.RenderOnce(t0.Add(20*time.Millisecond)))
	var next frameMsg
	readJSON(t, conn, &next)
	assert.Equal(t, uint64(2), next.FrameID)
	assert.NotEqual(t, first.Fills["43"], next.Fills["43"], "wave moves between frames")
}

func TestControlUpdatesEngineAndConfig(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, "/control")

	var st Status
	readJSON(t, conn, &st)
	assert.Equal(t, "wave", st.Renderer)
	assert.Equal(t, []string{"solid", "wave"}, st.Renderers)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"brightness":  0.5,
		"fade_ms":     0,
		"renderer":    "solid",
		"preset":      "Amber",
		"hour_format": 24,
	}))
	readJSON(t, conn, &st)
	assert.Empty(t, st.Errors)
	assert.Equal(t, "solid", st.Renderer)
	assert.Equal(t, 0.5, st.Brightness)
	assert.Equal(t, 24, st.HourFormat)

	saved, err := config.Load(f.path)
	require.NoError(t, err)
	assert.Equal(t, "solid", saved.Renderer)
	assert.Equal(t, "Amber", saved.Preset)
	assert.Equal(t, 0.5, saved.Brightness)

	require.NoError(t, f.engine.RenderOnce(t0))
	assert.Equal(t, "210405", f.state.Last().Digits)

	require.NoError(t, conn.WriteJSON(map[string]any{"fps": 0, "off_color": "nope"}))
	readJSON(t, conn, &st)
	assert.NotEmpty(t, st.Errors)
}

func TestControlWaveParams(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.state.Apply(Control{Wave: &WaveControl{ShiftTime: ptr(1.0)}}))
	assert.Equal(t, 1.0, f.state.Config.Wave.ShiftTime)
	assert.Equal(t, 128.0, f.state.Config.Wave.Center)
	sc := f.engine.Scene(t0)
	assert.Equal(t, 1.0, wave.FromUniforms(sc.Uniforms).ShiftTime)
}

func TestControlPresetSavesWaveParams(t *testing.T) {
	f := newFixture(t)
	fade := 0
	require.NoError(t, f.state.Apply(Control{Preset: "Pastel", FadeMs: &fade, Bools: map[string]bool{"FlipX": true}}))
	assert.Equal(t, "wave", f.state.Config.Renderer)
	assert.Equal(t, 200.0, f.state.Config.Wave.Center)
	assert.Equal(t, 55.0, f.state.Config.Wave.Width)
	assert.True(t, f.engine.Scene(t0).Uniforms.Bools["FlipX"])

	saved, err := config.Load(f.path)
	require.NoError(t, err)
	assert.Equal(t, "Pastel", saved.Preset)
	assert.Equal(t, 200.0, saved.Wave.Center)
}

func TestControlFadeKeepsWaveParams(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.engine.SetRenderer("solid", "", f.state.Registry))
	fade := 100
	require.NoError(t, f.state.Apply(Control{Renderer: "wave", FadeMs: &fade, Wave: &WaveControl{ShiftTime: ptr(2.0)}}))

	require.NoError(t, f.engine.RenderOnce(t0))
	require.NoError(t, f.engine.RenderOnce(t0.Add(200*time.Millisecond)))
	require.Equal(t, "wave", f.engine.ActiveName())
	assert.Equal(t, 2.0, wave.FromUniforms(f.engine.Scene(t0).Uniforms).ShiftTime)
	assert.Equal(t, 2.0, f.state.Config.Wave.ShiftTime)
}

func TestDiagnosticsFromManyGoroutines(t *testing.T) {
	f := newFixture(t)
	d := f.dial(t, "/diag")
	require.Eventually(t, func() bool { _, n := f.state.Clients(); return n == 1 }, time.Second, 10*time.Millisecond)

	const writers, each = 8, 25
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				f.state.pushDiag(diag.Diagnostic{Severity: diag.Info, Code: diag.TestRunning})
			}
		}()
	}
	for i := 0; i < writers*each; i++ {
		var msg diag.Diagnostic
		readJSON(t, d, &msg)
		require.Equal(t, diag.TestRunning, msg.Code)
	}
	wg.Wait()
}

func TestRunTestEmitsDiagnostics(t *testing.T) {
	f := newFixture(t)
	d := f.dial(t, "/diag")
	require.Eventually(t, func() bool { _, n := f.state.Clients(); return n == 1 }, time.Second, 10*time.Millisecond)

	f.engine.SetFPS(4) // one frame per step
	require.NoError(t, f.state.Apply(Control{RunTest: "rgb_channels"}))
	var msg diag.Diagnostic
	readJSON(t, d, &msg)
	assert.Equal(t, diag.TestRunning, msg.Code)
	assert.True(t, f.engine.PatternActive())

	for i := 0; i < 4; i++ {
		require.NoError(t, f.engine.RenderOnce(t0))
	}
	readJSON(t, d, &msg)
	assert.Equal(t, diag.TestDone, msg.Code)
	assert.False(t, f.engine.PatternActive())

	assert.Error(t, f.state.Apply(Control{RunTest: "plane_z"}))
	readJSON(t, d, &msg)
	assert.Equal(t, diag.TestUnknown, msg.Code)
}

func TestLagAndWriteDiagnosticsOnce(t *testing.T) {
	f := newFixture(t)
	d := f.dial(t, "/diag")
	require.Eventually(t, func() bool { _, n := f.state.Clients(); return n == 1 }, time.Second, 10*time.Millisecond)

	f.state.OnFrame(render.FrameStats{ID: 1, DigitsChanged: true, Lag: 700 * time.Millisecond})
	f.state.OnFrame(render.FrameStats{ID: 2, DigitsChanged: true, Lag: 800 * time.Millisecond})
	f.state.OnFrame(render.FrameStats{ID: 3, Err: errors.New("bus gone")})

	var msg diag.Diagnostic
	readJSON(t, d, &msg)
	assert.Equal(t, diag.SamplerLag, msg.Code)
	readJSON(t, d, &msg)
	assert.Equal(t, diag.DriverWrite, msg.Code)
	assert.Equal(t, "bus gone", msg.Detail)
}

func TestHTTPEndpoints(t *testing.T) {
	f := newFixture(t)

	resp, _ := get(t, f.srv.URL+"/clock.svg")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	require.NoError(t, f.engine.RenderOnce(t0))

	resp, body := get(t, f.srv.URL+"/clock.svg")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	assert.Equal(t, 46, strings.Count(body, "data-led="))

	_, body = get(t, f.srv.URL+"/clock-animated.svg?steps=8")
	assert.Contains(t, body, "<animate ")

	resp, body = get(t, f.srv.URL+"/health")
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	var health map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &health))
	assert.Equal(t, "wave", health["renderer"])
	assert.Equal(t, "090405", health["digits"])
	assert.Equal(t, "sim", health["driver"])

	_, body = get(t, f.srv.URL+"/metrics")
	assert.Contains(t, body, "ledclock_frames_total 1")

	req, _ := http.NewRequest(http.MethodOptions, f.srv.URL+"/control", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func ptr[T any](v T) *T { return &v }
