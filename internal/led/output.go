package led

import (
	"fmt"
	"math"
	"sync"

	"github.com/dlford/clock/internal/layout"
	"github.com/dlford/clock/internal/render"
)

// Output adapts a byte-level Driver to render.Driver. Colors are scaled by
// the frame brightness, gamma corrected and placed on the strip by id.
type Output struct {
	mu    sync.Mutex
	drv   Driver
	strip layout.Strip
	gamma GammaLUT
	buf   []byte
}

func NewOutput(drv Driver, strip layout.Strip, gamma float64) (*Output, error) {
	if drv == nil {
		return nil, fmt.Errorf("driver is nil")
	}
	if err := strip.Validate(); err != nil {
		return nil, err
	}
	return &Output{
		drv:   drv,
		strip: strip,
		gamma: BuildGamma(gamma),
		buf:   make([]byte, strip.Count*3),
	}, nil
}

func (o *Output) Write(f *render.Frame) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	clear(o.buf)
	b := f.Brightness
	if b < 0 {
		b = 0
	} else if b > 1 {
		b = 1
	}
	for i, c := range f.Colors {
		px := o.strip.Index(i + 1)
		if px < 0 {
			continue
		}
		r, g, bl := c.RGB255()
		o.buf[px*3] = o.gamma[scaleByte(r, b)]
		o.buf[px*3+1] = o.gamma[scaleByte(g, b)]
		o.buf[px*3+2] = o.gamma[scaleByte(bl, b)]
	}
	return o.drv.Write(o.buf)
}

// Driver returns the byte-level driver behind o.
func (o *Output) Driver() Driver { return o.drv }

func (o *Output) Close() error { return o.drv.Close() }

func scaleByte(v uint8, s float64) uint8 {
	return uint8(math.Round(float64(v) * s))
}
