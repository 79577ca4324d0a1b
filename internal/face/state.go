package face

import (
	"errors"
	"fmt"
)

// ErrTimeString is returned for anything other than six ASCII digits.
var ErrTimeString = errors.New("time string must be 6 digits")

// State is the on/off vector indexed by LED id. Index 0 is unused.
type State [LEDCount + 1]bool

// NewState returns a blank face with the colon lit.
func NewState() State {
	var s State
	s.lightColon()
	return s
}

func (s *State) lightColon() {
	for id := ColonFirst; id <= ColonLast; id++ {
		s[id] = true
	}
}

// SetDigits lights the segments for a HHMMSS string. The colon stays on.
func (s *State) SetDigits(timeStr string) error {
	if len(timeStr) != DigitCount {
		return fmt.Errorf("%w: got %q", ErrTimeString, timeStr)
	}
	for pos := 0; pos < DigitCount; pos++ {
		c := timeStr[pos]
		if c < '0' || c > '9' {
			return fmt.Errorf("%w: got %q", ErrTimeString, timeStr)
		}
	}
	for pos := 0; pos < DigitCount; pos++ {
		s.SetDigit(pos, int(timeStr[pos]-'0'))
	}
	s.lightColon()
	return nil
}

// SetDigit writes the pattern of d into position pos. Out of range values are ignored.
func (s *State) SetDigit(pos, d int) {
	if pos < 0 || pos >= DigitCount || d < 0 || d > 9 {
		return
	}
	i := SegmentStart(pos)
	for _, on := range Digits[d] {
		s[i] = on
		i++
	}
}

// On reports whether LED id is lit.
func (s *State) On(id int) bool {
	if id < 1 || id > LEDCount {
		return false
	}
	return s[id]
}

// LitIDs lists the lit LED ids in ascending order.
func (s *State) LitIDs() []int {
	var out []int
	for id := 1; id <= LEDCount; id++ {
		if s[id] {
			out = append(out, id)
		}
	}
	return out
}
