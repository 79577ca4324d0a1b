package calib

import (
	"testing"

	"github.com/dlford/clock/internal/face"
	"github.com/dlford/clock/internal/render"
)

func renderSweep(t *testing.T, u *render.Uniforms) []render.Color {
	t.Helper()
	dst := make([]render.Color, face.LEDCount)
	r := New("calib")
	r.ApplyPreset("DigitChanSweep", u)
	r.Render(dst, face.Cells(), 0, u)
	return dst
}

func TestDigitChanSweepChannels(t *testing.T) {
	dst := renderSweep(t, render.NewUniforms())

	// bottom segments of positions 0, 1 and 2
	red, green, blue := dst[0], dst[7], dst[14]
	t.Logf("pos0 bottom=%+v pos1 bottom=%+v pos2 bottom=%+v", red, green, blue)

	if red.R < 0.3 || red.G > 0 || red.B > 0 {
		t.Fatalf("expected red at LED 1; got %+v", red)
	}
	if green.G < 0.3 || green.R > 0 || green.B > 0 {
		t.Fatalf("expected green at LED 8; got %+v", green)
	}
	if blue.B < 0.3 || blue.R > 0 || blue.G > 0 {
		t.Fatalf("expected blue at LED 15; got %+v", blue)
	}
}

func TestDigitChanSweepFadesRight(t *testing.T) {
	dst := renderSweep(t, render.NewUniforms())

	// bottom segments of the red positions 0 and 3
	left, right := dst[0], dst[21]
	if right.R >= left.R {
		t.Fatalf("expected fade left->right: %.4f -> %.4f", left.R, right.R)
	}
	if right.R < 0.1-1e-4 {
		t.Fatalf("right edge fell below floor: %+v", right)
	}
}

func TestDigitChanSweepTopRowAndColon(t *testing.T) {
	dst := renderSweep(t, render.NewUniforms())

	top := dst[4] // LED 5, top bar of position 0
	if top.G < 0.5 || top.B < 0.5 {
		t.Fatalf("expected top row pulled toward white, got %+v", top)
	}
	for id := face.ColonFirst; id <= face.ColonLast; id++ {
		c := dst[id-1]
		if c.R != 1 || c.G != 1 || c.B != 1 {
			t.Fatalf("colon %d not white: %+v", id, c)
		}
	}
}

func TestDigitChanSweepFlip(t *testing.T) {
	u := render.NewUniforms()
	u.Params["FlipX"] = 1
	dst := renderSweep(t, u)
	if dst[21].R <= dst[0].R {
		t.Fatalf("expected flipped fade, got %.4f vs %.4f", dst[0].R, dst[21].R)
	}
}
