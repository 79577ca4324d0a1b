package led

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Driver abstracts an LED output sink.
type Driver interface {
	// Write pushes an RGB frame to hardware. len(rgb) must be 3*N.
	Write(rgb []byte) error
	// Close releases resources.
	Close() error
}

// Sim is a headless Driver that logs a compact summary of each frame
// (first pixel and average) at debug level.
type Sim struct {
	mu    sync.Mutex
	Count int
	Last  []byte
}

func (d *Sim) Write(rgb []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Count++
	d.Last = append(d.Last[:0], rgb...)

	var r, g, b int
	n := len(rgb) / 3
	for i := 0; i < n; i++ {
		r += int(rgb[i*3])
		g += int(rgb[i*3+1])
		b += int(rgb[i*3+2])
	}
	div := n
	if div == 0 {
		div = 1
	}
	ev := log.Debug().Int("frame", d.Count).Ints("avg", []int{r / div, g / div, b / div})
	if n > 0 {
		ev = ev.Ints("first", []int{int(rgb[0]), int(rgb[1]), int(rgb[2])})
	}
	ev.Msg("sim frame")
	return nil
}

// Frame returns a copy of the last written frame.
func (d *Sim) Frame() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.Last...)
}

func (d *Sim) Close() error { return nil }
