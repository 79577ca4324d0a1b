package solid

import (
	"math"
	"time"

	"github.com/dlford/clock/internal/face"
	"github.com/dlford/clock/internal/render"
)

// Solid fills every segment with one color, kept in the uniforms as
// "SolidR/G/B" so two presets of the same renderer can crossfade.
// An optional "PulseHz" param modulates brightness.
type Solid struct {
	name string
	def  render.Color
}

func New(name string, c render.Color) *Solid { return &Solid{name: name, def: c} }

func (s *Solid) Name() string { return s.name }

func (s *Solid) Presets() []string { return []string{"Red", "Green", "Blue", "White", "Amber"} }

var presets = map[string]render.Color{
	"Red":   {R: 1},
	"Green": {G: 1},
	"Blue":  {B: 1},
	"White": {R: 1, G: 1, B: 1},
	"Amber": {R: 1, G: 0.75},
}

func (s *Solid) ApplyPreset(name string, u *render.Uniforms) {
	c, ok := presets[name]
	if !ok || u == nil {
		return
	}
	SetColor(u, c)
}

// SetColor stores c as the solid color in u.
func SetColor(u *render.Uniforms, c render.Color) {
	if u.Params == nil {
		u.Params = map[string]float64{}
	}
	u.Params["SolidR"] = float64(c.R)
	u.Params["SolidG"] = float64(c.G)
	u.Params["SolidB"] = float64(c.B)
}

func (s *Solid) Render(dst []render.Color, cells []face.Cell, t float64, u *render.Uniforms) {
	scale := float32(1.0)
	if hz := u.Param("PulseHz", 0); hz > 0 {
		scale = float32(0.5 + 0.5*math.Sin(2*math.Pi*hz*t))
	}
	c := render.Color{
		R: float32(u.Param("SolidR", float64(s.def.R))) * scale,
		G: float32(u.Param("SolidG", float64(s.def.G))) * scale,
		B: float32(u.Param("SolidB", float64(s.def.B))) * scale,
	}
	for _, cell := range cells {
		if cell.ID < 1 || cell.ID > len(dst) {
			continue
		}
		dst[cell.ID-1] = c
	}
}

// Period is the pulse period, zero when not pulsing.
func (s *Solid) Period(u *render.Uniforms) time.Duration {
	hz := u.Param("PulseHz", 0)
	if hz <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / hz)
}
