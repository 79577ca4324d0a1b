package led

import "fmt"

// Encoder expands RGB pixels into the WS2812-over-SPI bit stream: every data
// bit becomes three SPI bits, 110 for a one and 100 for a zero, so one color
// byte takes three SPI bytes.
type Encoder struct {
	order [3]byte
	// byte -> 24-bit encoded (3 bytes)
	lut [256][3]byte
}

// NewEncoder builds an encoder for a color order like "GRB" or "RGB".
func NewEncoder(colorOrder string) (*Encoder, error) {
	e := &Encoder{order: [3]byte{'G', 'R', 'B'}}
	if colorOrder != "" {
		if err := validOrder(colorOrder); err != nil {
			return nil, err
		}
		e.order = [3]byte{colorOrder[0], colorOrder[1], colorOrder[2]}
	}
	for v := 0; v < 256; v++ {
		out := uint32(0)
		for i := 7; i >= 0; i-- {
			tri := uint32(0b100)
			if (v>>i)&1 == 1 {
				tri = 0b110
			}
			out = (out << 3) | tri
		}
		e.lut[v] = [3]byte{byte(out >> 16), byte(out >> 8), byte(out)}
	}
	return e, nil
}

func validOrder(s string) error {
	if len(s) != 3 {
		return fmt.Errorf("color order %q: want 3 letters", s)
	}
	var seen [3]bool
	for i := 0; i < 3; i++ {
		var k int
		switch s[i] {
		case 'R':
			k = 0
		case 'G':
			k = 1
		case 'B':
			k = 2
		default:
			return fmt.Errorf("color order %q: unknown channel %q", s, s[i])
		}
		if seen[k] {
			return fmt.Errorf("color order %q: repeated channel %q", s, s[i])
		}
		seen[k] = true
	}
	return nil
}

// EncodedLen is the stream size for n pixels, without the latch tail.
func EncodedLen(n int) int { return n * 9 }

// Reorder returns r, g, b permuted into wire order.
func (e *Encoder) Reorder(r, g, b byte) [3]byte {
	var v [3]byte
	for i, ch := range e.order {
		switch ch {
		case 'R':
			v[i] = r
		case 'G':
			v[i] = g
		default:
			v[i] = b
		}
	}
	return v
}

// Encode appends the encoded stream for rgb (3 bytes per pixel) to dst.
func (e *Encoder) Encode(dst, rgb []byte) []byte {
	for i := 0; i+2 < len(rgb); i += 3 {
		for _, v := range e.Reorder(rgb[i], rgb[i+1], rgb[i+2]) {
			dst = append(dst, e.lut[v][0], e.lut[v][1], e.lut[v][2])
		}
	}
	return dst
}

// LatchBytes is the number of zero bytes that hold the line low for resetUs.
func LatchBytes(resetUs, speedHz int) int {
	if speedHz <= 0 {
		speedHz = DefaultSPISpeed
	}
	n := int((int64(resetUs)*int64(speedHz)/8 + 999_999) / 1_000_000)
	if n < 128 {
		n = 128
	}
	return n
}
