package render

// Uniform keys read by DefaultLimiter.
const (
	KeyWhiteCap    = "WhiteCap"    // max R+G+B per LED, 3 = off
	KeyLEDChanmA   = "LEDChan_mA"  // full-scale current per channel
	KeyBudgetmA    = "Budget_mA"   // supply budget, 0 = unlimited
	KeyLimiterKnee = "LimiterKnee" // fraction of budget where scaling starts
)

type limits struct {
	whiteCap float32
	chanmA   float64
	budget   float64
	knee     float64
}

func readLimits(u *Uniforms) limits {
	l := limits{whiteCap: 3, chanmA: 20, knee: 0.9}
	if v := u.Param(KeyWhiteCap, 0); v > 0 {
		l.whiteCap = float32(v)
	}
	if v := u.Param(KeyLEDChanmA, 0); v > 0 {
		l.chanmA = v
	}
	if v := u.Param(KeyLimiterKnee, 0); v > 0 && v < 1 {
		l.knee = v
	}
	l.budget = u.Param(KeyBudgetmA, 0)
	return l
}

// DefaultLimiter caps each LED at WhiteCap and then scales the whole face
// so the estimated draw stays under Budget_mA. Between knee*budget and the
// budget the scale eases in instead of clipping.
func DefaultLimiter(buf []Color, u *Uniforms) {
	if u == nil {
		return
	}
	l := readLimits(u)

	for i := range buf {
		s := buf[i].R + buf[i].G + buf[i].B
		if s > l.whiteCap {
			scaleColor(&buf[i], l.whiteCap/s)
		}
	}

	if l.budget <= 0 {
		return
	}
	total := EstimateCurrent(buf, l.chanmA)
	if total <= 0 {
		return
	}
	ratio := total / l.budget
	var s float64
	switch {
	case ratio <= l.knee:
		return
	case ratio <= 1:
		t := (ratio - l.knee) / (1 - l.knee)
		s = 1 - t*(1-l.budget/total)
	default:
		s = l.budget / total
	}
	for i := range buf {
		scaleColor(&buf[i], float32(s))
	}
}

// EstimateCurrent returns the face's draw in mA.
func EstimateCurrent(buf []Color, chanmA float64) float64 {
	var total float64
	for _, c := range buf {
		total += float64(clamp01(c.R)+clamp01(c.G)+clamp01(c.B)) * chanmA
	}
	return total
}

func scaleColor(c *Color, s float32) {
	c.R *= s
	c.G *= s
	c.B *= s
}

func clamp01(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
