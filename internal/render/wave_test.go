package render

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaveOrigin(t *testing.T) {
	v := Wave(DefaultWave(), 0, 0, 0)
	assert.InDelta(t, 128, v[0], 1e-9)
	assert.InDelta(t, 128+127*math.Sin(2*math.Pi/3), v[1], 1e-9)
	assert.InDelta(t, 128+127*math.Sin(4*math.Pi/3), v[2], 1e-9)
}

func TestWaveNeighboursDiffer(t *testing.T) {
	p := DefaultWave()
	a := PixelColorAt(p, 4, 1, 2)
	assert.NotEqual(t, a, PixelColorAt(p, 5, 1, 2))
	assert.NotEqual(t, a, PixelColorAt(p, 4, 2, 2))
}

func TestWavePeriodic(t *testing.T) {
	p := DefaultWave()
	period := p.Period()
	require.InDelta(t, 2*math.Pi/3, period.Seconds(), 1e-6)

	for _, tc := range []struct{ col, row int }{{0, 0}, {5, 2}, {26, 4}} {
		for _, s := range []float64{0, 0.37, 12.5} {
			a := PixelColorAt(p, tc.col, tc.row, s)
			b := PixelColorAt(p, tc.col, tc.row, s+period.Seconds())
			assert.InDelta(t, a.R, b.R, 1e-4)
			assert.InDelta(t, a.G, b.G, 1e-4)
			assert.InDelta(t, a.B, b.B, 1e-4)
		}
	}
	assert.Zero(t, WaveParams{}.Period())
}

func TestPixelColorClamped(t *testing.T) {
	p := DefaultWave()
	p.Width = 400
	for col := 0; col < 27; col++ {
		for ms := 0; ms < 2000; ms += 97 {
			c := PixelColor(p, col, col%5, time.Duration(ms)*time.Millisecond)
			for _, ch := range []float32{c.R, c.G, c.B} {
				require.GreaterOrEqual(t, ch, float32(0))
				require.LessOrEqual(t, ch, float32(1))
			}
		}
	}
}

func TestColorFormats(t *testing.T) {
	assert.Equal(t, "rgb(255,0,0)", Color{R: 1}.CSS())
	assert.Equal(t, "rgb(255,255,255)", Color{R: 2, G: 1, B: 1.5}.CSS())
	assert.Equal(t, "#001010", OffColor.Hex())

	c, err := ParseHex("001010")
	require.NoError(t, err)
	assert.Equal(t, "#001010", c.Hex())

	_, err = ParseHex("not-a-color")
	assert.Error(t, err)
}

func TestUniformsClone(t *testing.T) {
	u := NewUniforms()
	u.Params["x"] = 1
	c := u.Clone()
	c.Params["x"] = 2
	assert.Equal(t, 1.0, u.Param("x", 0))
	assert.Equal(t, 5.0, u.Param("missing", 5))
}
