// Package selftest holds wiring patterns that temporarily replace the clock face.
package selftest

import (
	"fmt"

	"github.com/dlford/clock/internal/face"
	"github.com/dlford/clock/internal/render"
)

type Kind string

const (
	None       Kind = ""
	IndexSweep Kind = "index_sweep"
	RGBTest    Kind = "rgb_channels"
	Digits     Kind = "digits"
)

// Kinds lists every runnable pattern.
var Kinds = []Kind{IndexSweep, RGBTest, Digits}

// Plan describes a run. Hold is the number of frames each step stays on
// screen (minimum 1).
type Plan struct {
	Kind Kind
	Hold int
}

type Runner struct {
	plan  Plan
	step  int
	frame int
}

func NewRunner(plan Plan) *Runner {
	if plan.Hold < 1 {
		plan.Hold = 1
	}
	return &Runner{plan: plan}
}

// Parse resolves a pattern name.
func Parse(name string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == name {
			return k, nil
		}
	}
	return None, fmt.Errorf("unknown test %q", name)
}

func (r *Runner) Kind() Kind { return r.plan.Kind }

// Steps is the number of distinct steps of the plan.
func (r *Runner) Steps() int {
	switch r.plan.Kind {
	case IndexSweep:
		return face.LEDCount
	case RGBTest:
		return 3
	case Digits:
		return 10
	}
	return 0
}

var white = render.Color{R: 1, G: 1, B: 1}

// Step fills dst (indexed by LED id-1); returns false when complete.
func (r *Runner) Step(dst []render.Color) bool {
	if r.step >= r.Steps() {
		return false
	}
	clear(dst)

	switch r.plan.Kind {
	case IndexSweep:
		if r.step < len(dst) {
			dst[r.step] = white
		}
	case RGBTest:
		var c render.Color
		switch r.step {
		case 0:
			c.R = 1
		case 1:
			c.G = 1
		case 2:
			c.B = 1
		}
		for i := range dst {
			dst[i] = c
		}
	case Digits:
		s := face.NewState()
		for pos := 0; pos < face.DigitCount; pos++ {
			s.SetDigit(pos, r.step)
		}
		for _, id := range s.LitIDs() {
			if id <= len(dst) {
				dst[id-1] = white
			}
		}
	}

	r.frame++
	if r.frame >= r.plan.Hold {
		r.frame = 0
		r.step++
	}
	return true
}
