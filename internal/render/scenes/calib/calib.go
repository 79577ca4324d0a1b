package calib

import (
	"math"

	"github.com/dlford/clock/internal/face"
	"github.com/dlford/clock/internal/render"
)

// Renderer is a static wiring aid: each digit position gets one primary
// channel (red, green, blue, repeating), darkening left to right across
// the face and pulled toward white on the top row. The colon is white.
type Renderer struct {
	name   string
	preset string
}

func New(name string) *Renderer {
	return &Renderer{name: name, preset: "DigitChanSweep"}
}

func (r *Renderer) Name() string      { return r.name }
func (r *Renderer) Presets() []string { return []string{"DigitChanSweep"} }

func (r *Renderer) ApplyPreset(p string, u *render.Uniforms) {
	r.preset = p
	if u == nil {
		return
	}
	ensure(u, Params())
}

// Params lists the tweakable knobs and their defaults.
func Params() map[string]float64 {
	return map[string]float64{
		"Gamma":         1.0,
		"LRGamma":       1.2, // >1 keeps the left side bright longer
		"TopWhiteMix":   0.6,
		"BaseIntensity": 1.0,
		"RightFloor":    0.1,
		"Saturation":    1.0,
	}
}

func pget(u *render.Uniforms, key string, def float64) float64 { return u.Param(key, def) }

func bget(u *render.Uniforms, key string, def bool) bool {
	if u == nil || u.Bools == nil {
		return def
	}
	if v, ok := u.Bools[key]; ok {
		return v
	}
	return def
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func ensure(u *render.Uniforms, kv map[string]float64) {
	if u.Params == nil {
		u.Params = map[string]float64{}
	}
	for k, v := range kv {
		if _, ok := u.Params[k]; !ok {
			u.Params[k] = v
		}
	}
}

func (r *Renderer) Render(dst []render.Color, cells []face.Cell, _ float64, u *render.Uniforms) {
	gamma := pget(u, "Gamma", 1.0)
	if gamma <= 0 {
		gamma = 1
	}
	lrPow := pget(u, "LRGamma", 1.2)
	topMix := clamp01(pget(u, "TopWhiteMix", 0.6))
	rightFloor := clamp01(pget(u, "RightFloor", 0.1))
	baseInt := clamp01(pget(u, "BaseIntensity", 1.0))
	sat := clamp01(pget(u, "Saturation", 1.0))
	flip := bget(u, "FlipX", false) || pget(u, "FlipX", 0) > 0.5

	for _, c := range cells {
		if c.ID < 1 || c.ID > len(dst) {
			continue
		}
		if face.IsColon(c.ID) {
			dst[c.ID-1] = render.Color{R: 1, G: 1, B: 1}
			continue
		}
		col := c.Col
		if flip {
			col = face.Columns - 1 - col
		}

		R, G, B := 0.0, 0.0, 0.0
		switch ((c.ID - 1) / face.SegmentsPerDigit) % 3 {
		case 0:
			R = 1
		case 1:
			G = 1
		case 2:
			B = 1
		}

		nx := float64(col) / float64(face.Columns-1)
		lr := 1.0 - math.Pow(nx, lrPow)
		lr = rightFloor + (1.0-rightFloor)*lr
		R, G, B = R*lr, G*lr, B*lr

		if c.Row == 0 {
			R += (1.0 - R) * topMix
			G += (1.0 - G) * topMix
			B += (1.0 - B) * topMix
		}

		if sat < 1.0 {
			y := 0.2126*R + 0.7152*G + 0.0722*B
			R = y + (R-y)*sat
			G = y + (G-y)*sat
			B = y + (B-y)*sat
		}

		ig := 1.0 / gamma
		dst[c.ID-1] = render.Color{
			R: float32(math.Pow(clamp01(R*baseInt), ig)),
			G: float32(math.Pow(clamp01(G*baseInt), ig)),
			B: float32(math.Pow(clamp01(B*baseInt), ig)),
		}
	}
}
