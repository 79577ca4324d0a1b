package wave

import (
	"time"

	"github.com/dlford/clock/internal/face"
	"github.com/dlford/clock/internal/render"
)

// Param keys read from render.Uniforms.
const (
	KeyCenter          = "WaveCenter"
	KeyWidth           = "WaveWidth"
	KeyShiftHorizontal = "ShiftHorizontal"
	KeyShiftVertical   = "ShiftVertical"
	KeyShiftTime       = "ShiftTime"
)

// Renderer paints every cell with the three-phase sine color wave.
type Renderer struct {
	name string
}

func New(name string) *Renderer { return &Renderer{name: name} }

func (r *Renderer) Name() string { return r.name }

func (r *Renderer) Presets() []string { return []string{"Classic", "Slow", "Pastel"} }

func (r *Renderer) ApplyPreset(name string, u *render.Uniforms) {
	if u == nil {
		return
	}
	p := render.DefaultWave()
	switch name {
	case "Slow":
		p.ShiftTime = 1
	case "Pastel":
		p.Center = 200
		p.Width = 55
	}
	Apply(u, p)
}

// Apply stores p in the uniforms.
func Apply(u *render.Uniforms, p render.WaveParams) {
	if u.Params == nil {
		u.Params = map[string]float64{}
	}
	for k, v := range Params(p) {
		u.Params[k] = v
	}
}

// Params flattens p into uniform keys.
func Params(p render.WaveParams) map[string]float64 {
	return map[string]float64{
		KeyCenter:          p.Center,
		KeyWidth:           p.Width,
		KeyShiftHorizontal: p.ShiftHorizontal,
		KeyShiftVertical:   p.ShiftVertical,
		KeyShiftTime:       p.ShiftTime,
	}
}

// FromUniforms reads wave params, falling back to the defaults per key.
func FromUniforms(u *render.Uniforms) render.WaveParams {
	d := render.DefaultWave()
	return render.WaveParams{
		Center:          u.Param(KeyCenter, d.Center),
		Width:           u.Param(KeyWidth, d.Width),
		ShiftHorizontal: u.Param(KeyShiftHorizontal, d.ShiftHorizontal),
		ShiftVertical:   u.Param(KeyShiftVertical, d.ShiftVertical),
		ShiftTime:       u.Param(KeyShiftTime, d.ShiftTime),
	}
}

func (r *Renderer) Render(dst []render.Color, cells []face.Cell, t float64, u *render.Uniforms) {
	p := FromUniforms(u)
	for _, c := range cells {
		if c.ID < 1 || c.ID > len(dst) {
			continue
		}
		dst[c.ID-1] = render.PixelColorAt(p, c.Col, c.Row, t)
	}
}

func (r *Renderer) Period(u *render.Uniforms) time.Duration { return FromUniforms(u).Period() }
