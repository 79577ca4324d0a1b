package face

/*
Segment layout of one digit (LED order inside a digit position):

	  |---5---|
	  |4|   |6|
	  |---3---|
	  |2|   |7|
	  |---1---|

Six digit positions (HH MM SS) use LEDs 1-42. The first LED of position p
(0-based) is p*7+1. The colon LEDs are 43-46, numbered bottom to top.
*/

const (
	SegmentsPerDigit = 7
	DigitCount       = 6
	LEDCount         = 46

	// ColonFirst..ColonLast are always lit.
	ColonFirst = 43
	ColonLast  = 46
)

// Pattern holds the on/off flag for segments 1..7 of a digit.
type Pattern [SegmentsPerDigit]bool

// Digits maps a digit value to its 7-segment pattern.
var Digits = [10]Pattern{
	{true, true, false, true, true, true, true},     // 0
	{false, false, false, false, false, true, true}, // 1
	{true, true, true, false, true, true, false},    // 2
	{true, false, true, false, true, true, true},    // 3
	{false, false, true, true, false, true, true},   // 4
	{true, false, true, true, true, false, true},    // 5
	{true, true, true, true, true, false, true},     // 6
	{false, false, false, false, true, true, true},  // 7
	{true, true, true, true, true, true, true},      // 8
	{true, false, true, true, true, true, true},     // 9
}

// SegmentStart returns the LED id of segment 1 of digit position pos (0..5).
func SegmentStart(pos int) int {
	return pos*SegmentsPerDigit + 1
}

// Lit returns the 1-based segment numbers that are on.
func (p Pattern) Lit() []int {
	out := make([]int, 0, SegmentsPerDigit)
	for i, on := range p {
		if on {
			out = append(out, i+1)
		}
	}
	return out
}

// IsColon reports whether id is one of the colon LEDs.
func IsColon(id int) bool {
	return id >= ColonFirst && id <= ColonLast
}
