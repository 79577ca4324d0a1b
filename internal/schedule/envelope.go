package schedule

import "sort"

// Keyframe is a value at hour T of the day (0..<24) with the easing used on
// the segment starting at it.
type Keyframe struct {
	T    float64 `yaml:"t" json:"t"`
	V    float64 `yaml:"v" json:"v"`
	Ease string  `yaml:"ease,omitempty" json:"ease,omitempty"` // "linear","smooth","cubic"
}

// Envelope interpolates a daily value. The last key wraps around midnight
// into the first.
type Envelope struct {
	Keys []Keyframe
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// 6x^5 - 15x^4 + 10x^3
func smootherstep(x float64) float64 {
	return x * x * x * (x*(x*6-15) + 10)
}

func easeApply(kind string, x float64) float64 {
	switch kind {
	case "smooth":
		return x * x * (3 - 2*x)
	case "cubic":
		return smootherstep(x)
	default:
		return x
	}
}

// NewEnvelope copies keys sorted by T.
func NewEnvelope(keys []Keyframe) Envelope {
	k := append([]Keyframe(nil), keys...)
	sort.SliceStable(k, func(i, j int) bool { return k[i].T < k[j].T })
	return Envelope{Keys: k}
}

// Eval returns the value at hour h. No keys evaluates to def.
func (e Envelope) Eval(h, def float64) float64 {
	n := len(e.Keys)
	switch n {
	case 0:
		return def
	case 1:
		return e.Keys[0].V
	}
	h = wrapHour(h)

	// a is the last key at or before h (wrapping to yesterday's last key)
	a, b := e.Keys[n-1], e.Keys[0]
	aT, bT := a.T-Day, b.T
	for i := 0; i < n; i++ {
		if e.Keys[i].T > h {
			break
		}
		a = e.Keys[i]
		aT = a.T
		if i+1 < n {
			b, bT = e.Keys[i+1], e.Keys[i+1].T
		} else {
			b, bT = e.Keys[0], e.Keys[0].T+Day
		}
	}
	den := bT - aT
	if den <= 0 {
		return b.V
	}
	u := easeApply(a.Ease, clamp01((h-aT)/den))
	return a.V + (b.V-a.V)*u
}
