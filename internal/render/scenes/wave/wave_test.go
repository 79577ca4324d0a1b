package wave

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dlford/clock/internal/face"
	"github.com/dlford/clock/internal/render"
)

func TestPresets(t *testing.T) {
	r := New("wave")
	assert.Equal(t, "wave", r.Name())
	assert.Equal(t, []string{"Classic", "Slow", "Pastel"}, r.Presets())

	u := render.NewUniforms()
	r.ApplyPreset("Slow", u)
	p := FromUniforms(u)
	assert.Equal(t, 1.0, p.ShiftTime)
	assert.Equal(t, 128.0, p.Center)

	r.ApplyPreset("Pastel", u)
	p = FromUniforms(u)
	assert.Equal(t, 200.0, p.Center)
	assert.Equal(t, 55.0, p.Width)
	assert.Equal(t, 3.0, p.ShiftTime, "presets start from the defaults")

	r.ApplyPreset("Classic", u)
	assert.Equal(t, render.DefaultWave(), FromUniforms(u))

	r.ApplyPreset("Slow", nil) // no panic
}

func TestFromUniformsFallsBackPerKey(t *testing.T) {
	u := &render.Uniforms{Params: map[string]float64{KeyWidth: 40}}
	p := FromUniforms(u)
	want := render.DefaultWave()
	want.Width = 40
	assert.Equal(t, want, p)

	assert.Equal(t, render.DefaultWave(), FromUniforms(&render.Uniforms{}))
}

func TestApplyAndParamsRoundTrip(t *testing.T) {
	p := render.WaveParams{Center: 100, Width: 90, ShiftHorizontal: 0.1, ShiftVertical: 0.2, ShiftTime: 5}
	u := &render.Uniforms{}
	Apply(u, p)
	assert.Len(t, Params(p), 5)
	assert.Equal(t, p, FromUniforms(u))
}

func TestRenderPaintsEveryCell(t *testing.T) {
	r := New("wave")
	u := render.NewUniforms()
	p := render.DefaultWave()
	Apply(u, p)

	dst := make([]render.Color, face.LEDCount)
	r.Render(dst, face.Cells(), 0.5, u)
	for _, c := range face.Cells() {
		require.Equal(t, render.PixelColorAt(p, c.Col, c.Row, 0.5), dst[c.ID-1], "LED %d", c.ID)
	}

	// out-of-range ids are skipped
	short := make([]render.Color, 7)
	r.Render(short, face.Cells(), 0.5, u)
}

func TestPeriod(t *testing.T) {
	r := New("wave")
	u := render.NewUniforms()
	assert.InDelta(t, 2*math.Pi/3, r.Period(u).Seconds(), 1e-6)

	Apply(u, render.WaveParams{Center: 128, Width: 127, ShiftTime: 1})
	assert.InDelta(t, 2*math.Pi, r.Period(u).Seconds(), 1e-6)

	Apply(u, render.WaveParams{ShiftTime: 0})
	assert.Equal(t, time.Duration(0), r.Period(u))
}
