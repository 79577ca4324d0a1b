// Package facesvg draws the clock face as SVG. Every LED is one element with
// id "led-N" and a data-led attribute; horizontal segments sit on even grid
// rows, vertical segments on odd rows and the colon LEDs are circles.
package facesvg

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/dlford/clock/internal/face"
	"github.com/dlford/clock/internal/render"
)

type Options struct {
	Unit       int    // grid cell size in px
	Background string // css color, "" for transparent
	Title      string
}

func DefaultOptions() Options {
	return Options{Unit: 20, Background: "#000000", Title: "LED clock"}
}

func (o Options) unit() int {
	if o.Unit <= 0 {
		return 20
	}
	return o.Unit
}

// Size is the canvas size in px.
func (o Options) Size() (int, int) {
	u := o.unit()
	return face.Columns*u + 2*u, face.Rows*u + 2*u
}

func start(w io.Writer, o Options) *svg.SVG {
	canvas := svg.New(w)
	cw, ch := o.Size()
	canvas.Start(cw, ch)
	if o.Title != "" {
		canvas.Title(o.Title)
	}
	if o.Background != "" {
		canvas.Rect(0, 0, cw, ch, "fill:"+o.Background)
	}
	return canvas
}

// shape draws the LED element for c.
func shape(canvas *svg.SVG, o Options, c face.Cell, attrs ...string) {
	u := o.unit()
	cx := u + c.Col*u + u/2
	cy := u + c.Row*u + u/2
	long := 2*u - u/5
	thick := u / 2
	attrs = append([]string{fmt.Sprintf(`id="led-%d"`, c.ID), fmt.Sprintf(`data-led="%d"`, c.ID)}, attrs...)
	switch {
	case face.IsColon(c.ID):
		canvas.Circle(cx, cy, thick/2, attrs...)
	case c.Horizontal():
		canvas.Roundrect(cx-long/2, cy-thick/2, long, thick, thick/3, thick/3, attrs...)
	default:
		canvas.Roundrect(cx-thick/2, cy-long/2, thick, long, thick/3, thick/3, attrs...)
	}
}

func fill(css string) string { return fmt.Sprintf(`fill="%s"`, css) }

// Write renders a still SVG of f.
func Write(w io.Writer, f *render.Frame, o Options) error {
	if f == nil {
		return errors.New("no frame")
	}
	canvas := start(w, o)
	canvas.Gid("face")
	for _, c := range face.Cells() {
		col, ok := f.Color(c.ID)
		if !ok {
			continue
		}
		shape(canvas, o, c, fill(col.CSS()))
	}
	canvas.Gend()
	canvas.End()
	return nil
}

// DefaultSteps is the number of keyframes per period.
const DefaultSteps = 60

// Animation describes an animated face: the digits stay as in Scene while
// lit LEDs cycle through one period of the scene's renderer.
type Animation struct {
	Scene render.Scene
	Steps int
}

// WriteAnimated renders a SMIL-animated SVG that loops indefinitely. A
// renderer without a period produces a still image.
func WriteAnimated(w io.Writer, a Animation, o Options) error {
	sc := a.Scene
	if sc.Renderer == nil {
		return errors.New("no renderer")
	}
	steps := a.Steps
	if steps <= 0 {
		steps = DefaultSteps
	}
	period := 0.0
	if p, ok := sc.Renderer.(render.Periodic); ok {
		period = p.Period(sc.Uniforms).Seconds()
	}
	// renderer time runs backwards under a negative time scale; the
	// keyframes follow it so the loop plays the way the live face moves
	scale, dir := 1.0, 1.0
	if sc.Uniforms != nil && sc.Uniforms.TimeScale != 0 {
		scale = math.Abs(sc.Uniforms.TimeScale)
		dir = math.Copysign(1, sc.Uniforms.TimeScale)
	}

	// keyframes[k][id-1]; the last one equals the first so the loop is seamless
	n := steps
	if period == 0 {
		n = 0
	}
	keyframes := make([][]render.Color, n+1)
	cells := face.Cells()
	for k := range keyframes {
		keyframes[k] = make([]render.Color, face.LEDCount)
		t := sc.T + dir*period*float64(k)/float64(steps)
		sc.Renderer.Render(keyframes[k], cells, t, sc.Uniforms)
	}

	canvas := start(w, o)
	canvas.Gid("face")
	for _, c := range cells {
		if !sc.Lit.On(c.ID) {
			shape(canvas, o, c, fill(sc.Off.CSS()))
			continue
		}
		first := keyframes[0][c.ID-1].CSS()
		if n == 0 {
			shape(canvas, o, c, fill(first))
			continue
		}
		shape(canvas, o, c, fill(first))
		values := make([]string, len(keyframes))
		for k := range keyframes {
			values[k] = keyframes[k][c.ID-1].CSS()
		}
		fmt.Fprintf(canvas.Writer, `<animate xlink:href="#led-%d" attributeName="fill" dur="%.3fs" repeatCount="indefinite" values="%s"/>`+"\n",
			c.ID, period/scale, strings.Join(values, ";"))
	}
	canvas.Gend()
	canvas.End()
	return nil
}
