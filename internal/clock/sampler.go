package clock

import (
	"fmt"
	"time"
)

// DefaultThreshold is how long the sampler holds a value before re-reading the clock.
const DefaultThreshold = time.Second

// Format renders t as HHMMSS. In 12-hour mode midnight and noon both read 12.
func Format(t time.Time, twentyFour bool) string {
	h, m, s := t.Clock()
	if !twentyFour {
		h %= 12
		if h == 0 {
			h = 12
		}
	}
	return fmt.Sprintf("%02d%02d%02d", h, m, s)
}

// Sampler throttles time formatting to once per Threshold. It is not a
// scheduler: a refresh happens on the first Sample call after the threshold
// has passed, so under load the displayed second can lag.
type Sampler struct {
	Threshold  time.Duration
	TwentyFour bool

	last    time.Time
	value   string
	lag     time.Duration
	primed  bool
	Samples uint64
}

func NewSampler(twentyFour bool) *Sampler {
	return &Sampler{Threshold: DefaultThreshold, TwentyFour: twentyFour}
}

// Sample returns the current time string and whether it was refreshed by this call.
func (s *Sampler) Sample(now time.Time) (string, bool) {
	th := s.Threshold
	if th <= 0 {
		th = DefaultThreshold
	}
	if s.primed {
		elapsed := now.Sub(s.last)
		if elapsed <= th {
			return s.value, false
		}
		s.lag = elapsed - th
	}
	s.primed = true
	s.last = now
	s.Samples++
	s.value = Format(now, s.TwentyFour)
	return s.value, true
}

// Value is the last sampled string ("" before the first Sample).
func (s *Sampler) Value() string { return s.value }

// Lag is how far past the threshold the last refresh happened.
func (s *Sampler) Lag() time.Duration { return s.lag }

// Reset forces a refresh on the next Sample.
func (s *Sampler) Reset() {
	s.primed = false
	s.lag = 0
}
