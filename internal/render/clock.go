package render

import (
	"time"

	"github.com/dlford/clock/internal/clock"
	"github.com/dlford/clock/internal/face"
)

// Clock is the per-face state: which segments are lit and the time anchor
// the color wave is measured from.
type Clock struct {
	Sampler *clock.Sampler
	State   face.State
	Anchor  time.Time
	Digits  string
}

func NewClock(anchor time.Time, twentyFour bool) *Clock {
	return &Clock{
		Sampler: clock.NewSampler(twentyFour),
		State:   face.NewState(),
		Anchor:  anchor,
	}
}

// Tick refreshes the lit segments at most once per sampler threshold.
func (c *Clock) Tick(now time.Time) (bool, error) {
	s, changed := c.Sampler.Sample(now)
	if !changed {
		return false, nil
	}
	if err := c.State.SetDigits(s); err != nil {
		return false, err
	}
	c.Digits = s
	return true, nil
}

// Elapsed is the wave time for now.
func (c *Clock) Elapsed(now time.Time) time.Duration {
	return now.Sub(c.Anchor)
}
