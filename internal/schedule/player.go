// Package schedule changes the clock's look over the day: a brightness
// envelope for night dimming and timed switches between renderer presets.
package schedule

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Day is the envelope period in hours.
const Day = 24.0

// Look selects a renderer and preset from hour At onwards.
type Look struct {
	At       float64 `yaml:"at" json:"at"`
	Renderer string  `yaml:"renderer" json:"renderer"`
	Preset   string  `yaml:"preset,omitempty" json:"preset,omitempty"`
}

// Plan is a daily program. FadeS is the crossfade between looks.
type Plan struct {
	Dim   []Keyframe `yaml:"dim,omitempty" json:"dim,omitempty"`
	Looks []Look     `yaml:"looks,omitempty" json:"looks,omitempty"`
	FadeS float64    `yaml:"fade_s,omitempty" json:"fade_s,omitempty"`
}

func (p Plan) Empty() bool { return len(p.Dim) == 0 && len(p.Looks) == 0 }

func (p Plan) Validate() error {
	var errs []error
	for _, k := range p.Dim {
		if k.T < 0 || k.T >= Day {
			errs = append(errs, fmt.Errorf("dim key at hour %v out of 0..<24", k.T))
		}
		if k.V < 0 || k.V > 1 {
			errs = append(errs, fmt.Errorf("dim value %v out of 0..1", k.V))
		}
	}
	for _, l := range p.Looks {
		if l.At < 0 || l.At >= Day {
			errs = append(errs, fmt.Errorf("look at hour %v out of 0..<24", l.At))
		}
		if l.Renderer == "" {
			errs = append(errs, errors.New("look without renderer"))
		}
	}
	if p.FadeS < 0 {
		errs = append(errs, fmt.Errorf("fade_s %v is negative", p.FadeS))
	}
	return errors.Join(errs...)
}

// Hooks are the engine callbacks the player drives.
type Hooks struct {
	SetDim func(d float64)
	FadeTo func(name, preset string, d time.Duration)
}

// Player evaluates a Plan against wall-clock time.
type Player struct {
	mu    sync.Mutex
	plan  Plan
	dim   Envelope
	looks []Look
	hooks Hooks

	look    int // index into looks, -1 before the first Tick
	lastDim float64
	last    time.Time
	// Every is the minimum interval between evaluations.
	Every time.Duration
}

func NewPlayer(plan Plan, h Hooks) (*Player, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	looks := append([]Look(nil), plan.Looks...)
	sort.SliceStable(looks, func(i, j int) bool { return looks[i].At < looks[j].At })
	return &Player{
		plan:    plan,
		dim:     NewEnvelope(plan.Dim),
		looks:   looks,
		hooks:   h,
		look:    -1,
		lastDim: -1,
		Every:   time.Second,
	}, nil
}

// HourOf returns the fractional hour of t in its location.
func HourOf(t time.Time) float64 {
	h, m, s := t.Clock()
	return float64(h) + float64(m)/60 + (float64(s)+float64(t.Nanosecond())/1e9)/3600
}

func wrapHour(h float64) float64 {
	for h < 0 {
		h += Day
	}
	for h >= Day {
		h -= Day
	}
	return h
}

// lookAt is the index of the look active at hour h; before the first look
// of the day the last one is still on.
func (p *Player) lookAt(h float64) int {
	if len(p.looks) == 0 {
		return -1
	}
	idx := len(p.looks) - 1
	for i, l := range p.looks {
		if l.At > h {
			break
		}
		idx = i
	}
	return idx
}

// Tick applies the plan for now. The first call switches to the current
// look without fading.
func (p *Player) Tick(now time.Time) {
	p.mu.Lock()
	if !p.last.IsZero() && now.Sub(p.last) < p.Every && now.After(p.last) {
		p.mu.Unlock()
		return
	}
	first := p.last.IsZero()
	p.last = now
	h := HourOf(now)

	dim := p.dim.Eval(h, 1)
	setDim := dim != p.lastDim
	p.lastDim = dim

	var look *Look
	if idx := p.lookAt(h); idx >= 0 && idx != p.look {
		p.look = idx
		l := p.looks[idx]
		look = &l
	}
	fade := time.Duration(p.plan.FadeS * float64(time.Second))
	if first {
		fade = 0
	}
	p.mu.Unlock()

	if setDim && p.hooks.SetDim != nil {
		p.hooks.SetDim(dim)
	}
	if look != nil && p.hooks.FadeTo != nil {
		p.hooks.FadeTo(look.Renderer, look.Preset, fade)
	}
}

// Current returns the active look, false if there is none.
func (p *Player) Current() (Look, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.look < 0 {
		return Look{}, false
	}
	return p.looks[p.look], true
}
