package selftest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dlford/clock/internal/face"
	"github.com/dlford/clock/internal/render"
)

func lit(dst []render.Color) []int {
	var out []int
	for i, c := range dst {
		if c != (render.Color{}) {
			out = append(out, i+1)
		}
	}
	return out
}

func TestIndexSweep(t *testing.T) {
	r := NewRunner(Plan{Kind: IndexSweep})
	dst := make([]render.Color, face.LEDCount)
	for id := 1; id <= face.LEDCount; id++ {
		require.True(t, r.Step(dst))
		assert.Equal(t, []int{id}, lit(dst))
	}
	assert.False(t, r.Step(dst))
}

func TestRGBChannels(t *testing.T) {
	r := NewRunner(Plan{Kind: RGBTest, Hold: 2})
	dst := make([]render.Color, face.LEDCount)
	want := []render.Color{{R: 1}, {R: 1}, {G: 1}, {G: 1}, {B: 1}, {B: 1}}
	for i, c := range want {
		require.True(t, r.Step(dst), "step %d", i)
		assert.Equal(t, c, dst[0])
		assert.Equal(t, c, dst[face.LEDCount-1])
	}
	assert.False(t, r.Step(dst))
}

func TestDigitsShowsEveryDigit(t *testing.T) {
	r := NewRunner(Plan{Kind: Digits})
	dst := make([]render.Color, face.LEDCount)

	require.True(t, r.Step(dst)) // all zeros
	// 0 lights everything but the middle bar; 6 positions + colon
	assert.Len(t, lit(dst), 6*6+4)
	assert.Equal(t, render.Color{}, dst[2], "middle bar of a zero is dark")

	require.True(t, r.Step(dst)) // all ones
	assert.Len(t, lit(dst), 6*2+4)

	for i := 2; i < 10; i++ {
		require.True(t, r.Step(dst))
	}
	assert.False(t, r.Step(dst))
}

func TestParse(t *testing.T) {
	k, err := Parse("digits")
	require.NoError(t, err)
	assert.Equal(t, Digits, k)
	_, err = Parse("plane_z")
	assert.Error(t, err)
}

func TestRunnerImplementsPattern(t *testing.T) {
	var _ render.Pattern = NewRunner(Plan{Kind: IndexSweep})
	assert.False(t, NewRunner(Plan{}).Step(make([]render.Color, 3)))
}
