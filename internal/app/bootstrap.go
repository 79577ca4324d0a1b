package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/dlford/clock/internal/config"
	"github.com/dlford/clock/internal/led"
	"github.com/dlford/clock/internal/metrics"
	"github.com/dlford/clock/internal/render"
	"github.com/dlford/clock/internal/render/scenes/calib"
	"github.com/dlford/clock/internal/render/scenes/solid"
	"github.com/dlford/clock/internal/render/scenes/wave"
	"github.com/dlford/clock/internal/schedule"
	"github.com/dlford/clock/internal/server"
)

// Core is the running clock: engine, drivers, HTTP state and schedule.
type Core struct {
	Cfg     *config.Config
	Eng     *render.Engine
	Reg     *render.Registry
	State   *server.State
	Metrics *metrics.Metrics
	Prom    *prometheus.Registry

	sched      atomic.Pointer[schedule.Player]
	hw         *led.Output
	configPath string
}

// NewRegistry returns the built-in renderers.
func NewRegistry() *render.Registry {
	reg := render.NewRegistry()
	reg.Register(wave.New("wave"))
	reg.Register(solid.New("solid", render.Color{R: 1, G: 0.75}))
	reg.Register(calib.New("calib"))
	return reg
}

// NewEngine builds the engine for cfg without any driver attached.
func NewEngine(cfg *config.Config, reg *render.Registry, anchor time.Time) (*render.Engine, error) {
	rr, ok := reg.Get(cfg.Renderer)
	if !ok {
		return nil, fmt.Errorf("renderer not found: %s", cfg.Renderer)
	}
	eng, err := render.NewEngine(render.NewClock(anchor, cfg.TwentyFour()), nil, rr, render.NewUniforms())
	if err != nil {
		return nil, err
	}
	if cfg.Preset != "" {
		rr.ApplyPreset(cfg.Preset, eng.UActive)
	}
	if err := ApplyConfig(eng, reg, cfg, 0); err != nil {
		return nil, err
	}
	return eng, nil
}

func applyPostDefaults(eng *render.Engine, cfg *config.Config) {
	kv := map[string]float64{
		render.KeyLEDChanmA:   20,
		render.KeyLimiterKnee: 0.9,
		render.KeyWhiteCap:    cfg.Power.WhiteCap,
		render.KeyBudgetmA:    cfg.Power.LimitAmps * 1000,
	}
	eng.SetParams(kv)
}

// ApplyConfig pushes cfg into a running engine. A renderer change fades
// over fade; a renderer that is already active or being faded to keeps
// its current preset and fade.
func ApplyConfig(eng *render.Engine, reg *render.Registry, cfg *config.Config, fade time.Duration) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	eng.SetFPS(cfg.FPS)
	eng.SetBrightness(cfg.Brightness)
	eng.SetOffColor(cfg.Off())
	eng.SetTwentyFour(cfg.TwentyFour())
	if eng.TargetName() != cfg.Renderer {
		if err := eng.FadeTo(cfg.Renderer, cfg.Preset, reg, fade); err != nil {
			return err
		}
	}
	eng.SetParams(wave.Params(cfg.WaveParams()))
	applyPostDefaults(eng, cfg)
	return nil
}

// OpenDriver opens the LED hardware named by cfg.Driver. Hardware that
// fails to open falls back to the simulator with a warning. "none" returns nil.
func OpenDriver(cfg *config.Config) (led.Driver, string) {
	n := cfg.Strip.Count
	switch cfg.Driver {
	case "none":
		return nil, "none"
	case "spi":
		drv, err := led.NewSPI(cfg.SPI.Dev, n, cfg.Strip.ColorOrder, cfg.SPI.SpeedHz, cfg.SPI.ResetUs)
		if err == nil {
			return drv, "spi"
		}
		log.Warn().Err(err).
			Str("driver", "spi").
			Str("dev", cfg.SPI.Dev).
			Int("speed_hz", cfg.SPI.SpeedHz).
			Msg("SPI init failed; falling back to SIM")
	case "nrz":
		drv, err := led.OpenNRZ(cfg.SPI.Port, n, led.DefaultNRZFreq)
		if err == nil {
			return drv, "nrz"
		}
		log.Warn().Err(err).Str("driver", "nrz").Str("port", cfg.SPI.Port).Msg("nrzled init failed; falling back to SIM")
	case "sim":
	default:
		log.Warn().Str("driver", cfg.Driver).Msg("unknown driver; using SIM")
	}
	return &led.Sim{}, "sim"
}

// InitCore wires engine, hardware output, HTTP state, metrics and schedule.
func InitCore(cfg *config.Config, configPath string) (*Core, error) {
	reg := NewRegistry()
	eng, err := NewEngine(cfg, reg, time.Now())
	if err != nil {
		return nil, err
	}

	prom := prometheus.NewRegistry()
	prom.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(prom)

	st := server.NewState(eng, reg, cfg)
	st.ConfigPath = configPath
	st.Metrics = m
	st.Gatherer = prom

	c := &Core{Cfg: cfg, Eng: eng, Reg: reg, State: st, Metrics: m, Prom: prom, configPath: configPath}

	hw, name := OpenDriver(cfg)
	st.CurrentDriver = name
	sinks := render.Fanout{st}
	if hw != nil {
		out, err := led.NewOutput(hw, cfg.StripLayout(), cfg.Strip.Gamma)
		if err != nil {
			_ = hw.Close()
			return nil, err
		}
		c.hw = out
		sinks = append(sinks, out)
	}
	eng.SetDriver(sinks)

	if err := c.setSchedule(cfg.Schedule); err != nil {
		_ = c.Close()
		return nil, err
	}
	eng.OnFrame = func(s render.FrameStats) {
		st.OnFrame(s)
		if p := c.sched.Load(); p != nil {
			p.Tick(s.Time)
		}
	}
	return c, nil
}

func (c *Core) setSchedule(plan schedule.Plan) error {
	if plan.Empty() {
		c.sched.Store(nil)
		c.Eng.SetDim(1)
		return nil
	}
	p, err := NewConductor(c.Eng, c.Reg, plan)
	if err != nil {
		return err
	}
	c.sched.Store(p)
	return nil
}

// Schedule returns the active time-of-day player, or nil.
func (c *Core) Schedule() *schedule.Player { return c.sched.Load() }

// Reload applies a config read from disk.
func (c *Core) Reload(cfg *config.Config) {
	fade := time.Duration(cfg.FadeMs) * time.Millisecond
	if err := ApplyConfig(c.Eng, c.Reg, cfg, fade); err != nil {
		log.Warn().Err(err).Msg("config reload rejected")
		return
	}
	// Saves from /control land here too; keep the player (and its look)
	// unless the plan itself changed.
	if !reflect.DeepEqual(c.Cfg.Schedule, cfg.Schedule) {
		if err := c.setSchedule(cfg.Schedule); err != nil {
			log.Warn().Err(err).Msg("schedule rejected")
		}
	}
	c.Cfg = cfg
	c.State.SetConfig(cfg)
	log.Info().Str("renderer", cfg.Renderer).Float64("brightness", cfg.Brightness).Msg("config applied")
}

// Run renders and serves until ctx is done.
func (c *Core) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      c.State.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if c.configPath != "" {
		w := config.NewWatcher(c.configPath, 0)
		w.OnReload(c.Reload)
		if err := w.Start(); err != nil {
			log.Warn().Err(err).Str("path", c.configPath).Msg("config watcher disabled")
		} else {
			defer w.Stop()
		}
	}

	errc := make(chan error, 2)
	go func() {
		log.Info().Str("addr", addr).Str("driver", c.State.CurrentDriver).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { errc <- c.Eng.Run(runCtx) }()

	var err error
	select {
	case <-ctx.Done():
	case err = <-errc:
		log.Error().Err(err).Msg("clock stopped")
	}
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 2*time.Second)
	defer stop()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		log.Warn().Err(serr).Msg("HTTP shutdown")
	}
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return err
}

// Close blanks and releases the hardware output.
func (c *Core) Close() error {
	if c.hw == nil {
		return nil
	}
	return c.hw.Close()
}
