package render

import (
	"math"
	"time"
)

// Three sine waves 120 degrees apart, one per channel.
var Phases = [3]float64{0, 2 * math.Pi / 3, 4 * math.Pi / 3}

// WaveParams shape the color wave. Center and Width are in 0..255 units;
// the shifts are radians per column, per row and per second.
type WaveParams struct {
	Center          float64
	Width           float64
	ShiftHorizontal float64
	ShiftVertical   float64
	ShiftTime       float64
}

func DefaultWave() WaveParams {
	return WaveParams{
		Center:          128,
		Width:           127,
		ShiftHorizontal: 0.25,
		ShiftVertical:   0.3,
		ShiftTime:       3,
	}
}

// Period is the time after which every pixel repeats its color.
func (p WaveParams) Period() time.Duration {
	if p.ShiftTime == 0 {
		return 0
	}
	return time.Duration(math.Abs(2 * math.Pi / p.ShiftTime * float64(time.Second)))
}

// Wave returns the raw R, G, B values for a pixel. Values are not clamped.
func Wave(p WaveParams, col, row int, elapsed time.Duration) [3]float64 {
	return waveAt(p, col, row, elapsed.Seconds())
}

func waveAt(p WaveParams, col, row int, seconds float64) [3]float64 {
	base := p.ShiftVertical*float64(row) + p.ShiftHorizontal*float64(col) + p.ShiftTime*seconds
	var out [3]float64
	for i, ph := range Phases {
		out[i] = math.Sin(ph+base)*p.Width + p.Center
	}
	return out
}

// PixelColor is Wave clamped to 0..255 and normalised.
func PixelColor(p WaveParams, col, row int, elapsed time.Duration) Color {
	return PixelColorAt(p, col, row, elapsed.Seconds())
}

// PixelColorAt is PixelColor with the elapsed time given in seconds.
func PixelColorAt(p WaveParams, col, row int, seconds float64) Color {
	v := waveAt(p, col, row, seconds)
	return Color{
		R: float32(clamp255(v[0]) / 255),
		G: float32(clamp255(v[1]) / 255),
		B: float32(clamp255(v[2]) / 255),
	}
}

func clamp255(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 255 {
		return 255
	}
	return x
}
