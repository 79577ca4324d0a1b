package layout

import (
	"fmt"

	"github.com/dlford/clock/internal/face"
)

// Strip describes how the 46 clock LEDs sit on a physical pixel chain.
// LED id 1 is the first pixel after Offset unless Reverse is set, in which
// case the chain is wired from id 46 backwards.
type Strip struct {
	Count   int
	Reverse bool
	Offset  int
}

// DefaultStrip is one pixel per LED id, wired in id order.
func DefaultStrip() Strip { return Strip{Count: face.LEDCount} }

// Index maps LED id (1..46) -> strip pixel index, or -1 if it is off the strip.
func (s Strip) Index(id int) int {
	if id < 1 || id > face.LEDCount {
		return -1
	}
	pos := id - 1
	if s.Reverse {
		pos = face.LEDCount - 1 - pos
	}
	pos += s.Offset
	if pos < 0 || pos >= s.Count {
		return -1
	}
	return pos
}

func (s Strip) Validate() error {
	if s.Count <= 0 {
		return fmt.Errorf("strip count must be positive, got %d", s.Count)
	}
	if s.Offset < 0 {
		return fmt.Errorf("strip offset must not be negative, got %d", s.Offset)
	}
	if s.Offset+face.LEDCount > s.Count {
		return fmt.Errorf("strip of %d pixels cannot hold %d LEDs at offset %d", s.Count, face.LEDCount, s.Offset)
	}
	return nil
}
