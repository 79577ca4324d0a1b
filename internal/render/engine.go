package render

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dlford/clock/internal/face"
)

// Pattern overrides the face with a diagnostic pattern. Step returns false
// once the pattern is finished; dst is then rendered normally.
type Pattern interface {
	Step(dst []Color) bool
}

// PostPipeline groups post stages; all are optional.
type PostPipeline struct {
	Limiter func([]Color, *Uniforms)
}

// Engine renders the clock face once per frame with the active Renderer,
// an optional next Renderer for crossfades, then writes to the driver.
type Engine struct {
	mu sync.Mutex

	Clock *Clock
	Cells []face.Cell
	Drv   Driver
	Off   Color

	// active + next renderer and uniforms
	RActive Renderer
	RNext   Renderer
	UActive *Uniforms
	UNext   *Uniforms

	bufA []Color
	bufB []Color

	// crossfade; fadeDur > 0 drives alpha from the frame clock
	alpha     float64
	fading    bool
	fadeDur   time.Duration
	fadeStart time.Time

	pattern     Pattern
	patternDone func()

	post    PostPipeline
	dim     float64
	fps     int
	frameID uint64
	last    *Frame

	// OnFrame is called after each frame, outside the engine lock.
	OnFrame func(FrameStats)

	now func() time.Time
}

const DefaultFPS = 60

func NewEngine(c *Clock, drv Driver, r Renderer, u *Uniforms) (*Engine, error) {
	if c == nil {
		return nil, errors.New("clock is nil")
	}
	if u == nil {
		u = NewUniforms()
	}
	e := &Engine{
		Clock:   c,
		Cells:   face.Cells(),
		Drv:     drv,
		Off:     OffColor,
		RActive: r,
		UActive: u,
		bufA:    make([]Color, face.LEDCount),
		bufB:    make([]Color, face.LEDCount),
		post:    PostPipeline{Limiter: DefaultLimiter},
		dim:     1,
		fps:     DefaultFPS,
		now:     time.Now,
	}
	return e, nil
}

// SetDriver replaces the frame sink.
func (e *Engine) SetDriver(d Driver) {
	e.mu.Lock()
	e.Drv = d
	e.mu.Unlock()
}

func (e *Engine) SetPost(p PostPipeline) {
	e.mu.Lock()
	e.post = p
	e.mu.Unlock()
}

// RenderOnce renders and writes the frame for wall-clock time now.
func (e *Engine) RenderOnce(now time.Time) error {
	start := time.Now()

	e.mu.Lock()
	changed, tickErr := e.Clock.Tick(now)
	t := e.Clock.Elapsed(now).Seconds() * timeScale(e.UActive)

	out := make([]Color, face.LEDCount)
	var done func()
	if stepped := e.pattern != nil && e.pattern.Step(out); !stepped {
		if e.pattern != nil {
			e.pattern = nil
			done, e.patternDone = e.patternDone, nil
		}
		e.renderFace(out, t, now)
	}
	if e.post.Limiter != nil {
		e.post.Limiter(out, e.UActive)
	}

	e.frameID++
	f := &Frame{
		ID:         e.frameID,
		Time:       now,
		Digits:     e.Clock.Digits,
		Lit:        e.Clock.State,
		Colors:     out,
		Brightness: e.UActive.GlobalBrightness * e.dim,
	}
	e.last = f
	drv := e.Drv
	lag := e.Clock.Sampler.Lag()
	e.mu.Unlock()

	if done != nil {
		done()
	}

	var err error
	if drv != nil {
		err = drv.Write(f)
	}
	err = errors.Join(tickErr, err)

	if e.OnFrame != nil {
		e.OnFrame(FrameStats{
			ID:            f.ID,
			Time:          now,
			Duration:      time.Since(start),
			DigitsChanged: changed,
			Digits:        f.Digits,
			Lag:           lag,
			Err:           err,
		})
	}
	return err
}

func (e *Engine) renderFace(out []Color, t float64, now time.Time) {
	if e.RActive != nil {
		e.RActive.Render(e.bufA, e.Cells, t, e.UActive)
	} else {
		clear(e.bufA)
	}

	if e.fading && e.RNext != nil {
		if e.fadeDur > 0 {
			if e.fadeStart.IsZero() {
				e.fadeStart = now
			}
			e.alpha = float64(now.Sub(e.fadeStart)) / float64(e.fadeDur)
		}
		e.RNext.Render(e.bufB, e.Cells, t, e.UNext)
		Mix(out, e.bufA, e.bufB, e.alpha)
		if e.alpha >= 1 {
			e.promote()
		}
	} else {
		copy(out, e.bufA)
	}

	for _, c := range e.Cells {
		if !e.Clock.State.On(c.ID) {
			out[c.ID-1] = e.Off
		}
	}
}

func timeScale(u *Uniforms) float64 {
	if u != nil && u.TimeScale != 0 {
		return u.TimeScale
	}
	return 1
}

// Run renders frames on a ticker until ctx is done. Driver errors are
// logged and the loop keeps going.
func (e *Engine) Run(ctx context.Context) error {
	cur := e.FPS()
	ticker := time.NewTicker(frameInterval(cur))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := e.RenderOnce(e.now()); err != nil {
				log.Debug().Err(err).Msg("render frame")
			}
			if fps := e.FPS(); fps != cur {
				cur = fps
				ticker.Reset(frameInterval(cur))
			}
		}
	}
}

func frameInterval(fps int) time.Duration {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return time.Second / time.Duration(fps)
}

// Scene captures the active renderer state as of the last clock tick,
// with renderer time computed for now.
func (e *Engine) Scene(now time.Time) Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Scene{
		Renderer: e.RActive,
		Uniforms: e.UActive.Clone(),
		Lit:      e.Clock.State,
		Digits:   e.Clock.Digits,
		Off:      e.Off,
		T:        e.Clock.Elapsed(now).Seconds() * timeScale(e.UActive),
	}
}

func (e *Engine) FPS() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fps
}

func (e *Engine) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	e.mu.Lock()
	e.fps = fps
	e.mu.Unlock()
}

// Last returns the most recent frame, nil before the first render.
func (e *Engine) Last() *Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// ActiveName is the name of the active renderer.
func (e *Engine) ActiveName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.RActive == nil {
		return ""
	}
	return e.RActive.Name()
}

// TargetName is the renderer the face is heading to: the armed one while
// a crossfade runs, the active one otherwise.
func (e *Engine) TargetName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fading && e.RNext != nil {
		return e.RNext.Name()
	}
	if e.RActive == nil {
		return ""
	}
	return e.RActive.Name()
}

// SetRenderer becomes the active renderer immediately.
// If preset != "", ApplyPreset is called on the renderer with UActive.
func (e *Engine) SetRenderer(name string, preset string, reg *Registry) error {
	if reg == nil {
		return errors.New("registry is nil")
	}
	rr, ok := reg.Get(name)
	if !ok {
		return errors.New("renderer not found: " + name)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.RActive = rr
	if preset != "" {
		rr.ApplyPreset(preset, e.UActive)
	}
	e.RNext, e.UNext = nil, nil
	e.fading = false
	e.alpha = 0
	e.fadeDur = 0
	return nil
}

// ArmNext prepares the next renderer for a crossfade driven by SetCrossfade.
func (e *Engine) ArmNext(name string, preset string, reg *Registry) error {
	if reg == nil {
		return errors.New("registry is nil")
	}
	rr, ok := reg.Get(name)
	if !ok {
		return errors.New("renderer not found: " + name)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.armLocked(rr, preset)
	e.fadeDur = 0
	return nil
}

// FadeTo crossfades to another renderer over d, timed by the frames rendered.
func (e *Engine) FadeTo(name string, preset string, reg *Registry, d time.Duration) error {
	if d <= 0 {
		return e.SetRenderer(name, preset, reg)
	}
	if err := e.ArmNext(name, preset, reg); err != nil {
		return err
	}
	e.mu.Lock()
	e.fadeDur = d
	e.fadeStart = time.Time{}
	e.alpha = 0
	e.mu.Unlock()
	return nil
}

func (e *Engine) armLocked(rr Renderer, preset string) {
	e.RNext = rr
	e.UNext = e.UActive.Clone()
	if preset != "" {
		rr.ApplyPreset(preset, e.UNext)
	}
	e.alpha = 0
	e.fading = true
}

// SetCrossfade sets mix alpha 0..1. At 1 the armed renderer becomes active.
func (e *Engine) SetCrossfade(alpha float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case alpha <= 0:
		e.alpha = 0
		e.fading = false
	case alpha >= 1:
		e.promote()
	default:
		e.alpha = alpha
		e.fading = e.RNext != nil
	}
}

func (e *Engine) promote() {
	if e.RNext != nil {
		e.RActive = e.RNext
		e.UActive = e.UNext
	}
	e.RNext = nil
	e.UNext = nil
	e.alpha = 0
	e.fading = false
	e.fadeDur = 0
}

// SetParam updates active uniforms.
func (e *Engine) SetParam(name string, v float64) {
	e.SetParams(map[string]float64{name: v})
}

// SetParams updates several uniforms at once. During a crossfade both
// sides are updated, so the values survive promotion.
func (e *Engine) SetParams(kv map[string]float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, u := range e.uniformsLocked() {
		if u.Params == nil {
			u.Params = map[string]float64{}
		}
		for k, v := range kv {
			u.Params[k] = v
		}
	}
}

// SetBool updates active and armed uniforms.
func (e *Engine) SetBool(name string, b bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, u := range e.uniformsLocked() {
		if u.Bools == nil {
			u.Bools = map[string]bool{}
		}
		u.Bools[name] = b
	}
}

func (e *Engine) uniformsLocked() []*Uniforms {
	if e.UNext != nil {
		return []*Uniforms{e.UActive, e.UNext}
	}
	return []*Uniforms{e.UActive}
}

func (e *Engine) SetBrightness(b float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.UActive.GlobalBrightness = clampF(b, 0, 1)
	if e.UNext != nil {
		e.UNext.GlobalBrightness = e.UActive.GlobalBrightness
	}
}

func (e *Engine) Brightness() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.UActive.GlobalBrightness
}

// SetDim sets a scheduled dimming factor applied on top of the brightness.
func (e *Engine) SetDim(d float64) {
	e.mu.Lock()
	e.dim = clampF(d, 0, 1)
	e.mu.Unlock()
}

func (e *Engine) Dim() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dim
}

func (e *Engine) SetOffColor(c Color) {
	e.mu.Lock()
	e.Off = c
	e.mu.Unlock()
}

// SetTwentyFour switches the hour format; the next frame re-reads the clock.
func (e *Engine) SetTwentyFour(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Clock.Sampler.TwentyFour == on {
		return
	}
	e.Clock.Sampler.TwentyFour = on
	e.Clock.Sampler.Reset()
}

// RunPattern shows p until it reports completion, then calls done (may be nil).
// A running pattern is replaced without calling its done.
func (e *Engine) RunPattern(p Pattern, done func()) {
	e.mu.Lock()
	e.pattern = p
	e.patternDone = done
	e.mu.Unlock()
}

func (e *Engine) PatternActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pattern != nil
}

func clampF(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
