package render

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/dlford/clock/internal/face"
)

// Color is linear RGB in 0..1.
type Color struct{ R, G, B float32 }

func (c Color) colorful() colorful.Color {
	return colorful.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B)}
}

// RGB255 clamps to 0..1 and rounds to bytes.
func (c Color) RGB255() (uint8, uint8, uint8) {
	return c.colorful().Clamped().RGB255()
}

// CSS formats the color as rgb(r,g,b).
func (c Color) CSS() string {
	r, g, b := c.RGB255()
	return fmt.Sprintf("rgb(%d,%d,%d)", r, g, b)
}

func (c Color) Hex() string { return c.colorful().Clamped().Hex() }

// FromRGB255 converts byte channels to a Color.
func FromRGB255(r, g, b uint8) Color {
	return Color{R: float32(r) / 255, G: float32(g) / 255, B: float32(b) / 255}
}

// ParseHex accepts "#rrggbb", "rrggbb" or the 3-digit short forms.
func ParseHex(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	return Color{R: float32(c.R), G: float32(c.G), B: float32(c.B)}, nil
}

// OffColor is the fill of an unlit segment.
var OffColor = FromRGB255(0x00, 0x10, 0x10)

type Uniforms struct {
	GlobalBrightness float64
	TimeScale        float64
	Params           map[string]float64
	Bools            map[string]bool
}

func NewUniforms() *Uniforms {
	return &Uniforms{
		GlobalBrightness: 1,
		TimeScale:        1,
		Params:           map[string]float64{},
		Bools:            map[string]bool{},
	}
}

// Clone copies u including its maps.
func (u *Uniforms) Clone() *Uniforms {
	if u == nil {
		return NewUniforms()
	}
	c := &Uniforms{
		GlobalBrightness: u.GlobalBrightness,
		TimeScale:        u.TimeScale,
		Params:           make(map[string]float64, len(u.Params)),
		Bools:            make(map[string]bool, len(u.Bools)),
	}
	for k, v := range u.Params {
		c.Params[k] = v
	}
	for k, v := range u.Bools {
		c.Bools[k] = v
	}
	return c
}

// Param reads a numeric uniform with a default.
func (u *Uniforms) Param(key string, def float64) float64 {
	if u == nil || u.Params == nil {
		return def
	}
	if v, ok := u.Params[key]; ok {
		return v
	}
	return def
}

// Renderer fills dst (indexed by LED id-1) for every cell.
// t is seconds since the clock anchor, already scaled by TimeScale.
type Renderer interface {
	Name() string
	Presets() []string
	ApplyPreset(name string, u *Uniforms)
	Render(dst []Color, cells []face.Cell, t float64, u *Uniforms)
}

// Periodic is implemented by renderers whose output repeats. Period is in
// renderer time (before TimeScale); zero means the output is static.
type Periodic interface {
	Period(u *Uniforms) time.Duration
}

type Registry struct{ m map[string]Renderer }

func NewRegistry() *Registry { return &Registry{m: map[string]Renderer{}} }

func (r *Registry) Register(rr Renderer) {
	if rr == nil {
		return
	}
	r.m[rr.Name()] = rr
}

func (r *Registry) Get(name string) (Renderer, bool) { rr, ok := r.m[name]; return rr, ok }

// List returns renderer names sorted.
func (r *Registry) List() []string {
	out := make([]string, 0, len(r.m))
	for k := range r.m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Frame is one rendered clock face.
type Frame struct {
	ID     uint64
	Time   time.Time
	Digits string
	Lit    face.State
	Colors []Color // indexed by LED id-1

	// Brightness is the global brightness at render time. Colors are not
	// pre-scaled; hardware outputs apply it.
	Brightness float64
}

// Color returns the color of LED id.
func (f *Frame) Color(id int) (Color, bool) {
	if f == nil || id < 1 || id > len(f.Colors) {
		return Color{}, false
	}
	return f.Colors[id-1], true
}

// Driver receives every rendered frame.
type Driver interface {
	Write(f *Frame) error
}

// FrameStats is reported to Engine.OnFrame after each frame.
type FrameStats struct {
	ID            uint64
	Time          time.Time
	Duration      time.Duration
	DigitsChanged bool
	Digits        string
	Lag           time.Duration
	Err           error
}

// Scene is a copy of what the engine is drawing, for off-loop rendering.
type Scene struct {
	Renderer Renderer
	Uniforms *Uniforms
	Lit      face.State
	Digits   string
	Off      Color
	// T is the renderer time of the scene, seconds.
	T float64
}
