package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(h, m int) time.Time { return time.Date(2024, 5, 1, h, m, 0, 0, time.UTC) }

func TestEnvelopeEval(t *testing.T) {
	env := NewEnvelope([]Keyframe{
		{T: 20, V: 0.2},
		{T: 8, V: 1},
	})
	assert.Equal(t, 0.7, Envelope{}.Eval(3, 0.7))
	assert.InDelta(t, 1, env.Eval(8, 0), 1e-9)
	assert.InDelta(t, 0.6, env.Eval(14, 0), 1e-9)
	assert.InDelta(t, 0.2, env.Eval(20, 0), 1e-9)
	// wraps through midnight: 20h -> 8h next day
	assert.InDelta(t, 0.6, env.Eval(2, 0), 1e-9)
	assert.InDelta(t, 0.6, env.Eval(26, 0), 1e-9)
}

func TestEnvelopeEase(t *testing.T) {
	env := NewEnvelope([]Keyframe{{T: 0, V: 0, Ease: "smooth"}, {T: 10, V: 10}})
	assert.InDelta(t, 5, env.Eval(5, 0), 1e-9)
	assert.Less(t, env.Eval(2, 0), 2.0)
}

func TestPlayerLooksAndDim(t *testing.T) {
	type fade struct {
		name, preset string
		d            time.Duration
	}
	var fades []fade
	var dims []float64
	p, err := NewPlayer(Plan{
		Dim: []Keyframe{{T: 7, V: 1}, {T: 22, V: 0.3}},
		Looks: []Look{
			{At: 22, Renderer: "solid", Preset: "Amber"},
			{At: 7, Renderer: "wave", Preset: "Classic"},
		},
		FadeS: 2,
	}, Hooks{
		SetDim: func(d float64) { dims = append(dims, d) },
		FadeTo: func(n, pr string, d time.Duration) { fades = append(fades, fade{n, pr, d}) },
	})
	require.NoError(t, err)

	p.Tick(at(3, 0)) // night: still yesterday's 22h look
	require.Len(t, fades, 1)
	assert.Equal(t, fade{"solid", "Amber", 0}, fades[0])
	l, ok := p.Current()
	require.True(t, ok)
	assert.Equal(t, "solid", l.Renderer)

	p.Tick(at(3, 0).Add(500 * time.Millisecond)) // throttled
	assert.Len(t, dims, 1)

	p.Tick(at(7, 0))
	require.Len(t, fades, 2)
	assert.Equal(t, fade{"wave", "Classic", 2 * time.Second}, fades[1])
	assert.InDelta(t, 1.0, dims[len(dims)-1], 1e-9)

	p.Tick(at(8, 0)) // same look, no new fade
	assert.Len(t, fades, 2)
}

func TestPlanValidate(t *testing.T) {
	assert.True(t, Plan{}.Empty())
	assert.NoError(t, Plan{}.Validate())
	assert.Error(t, Plan{Dim: []Keyframe{{T: 25, V: 1}}}.Validate())
	assert.Error(t, Plan{Dim: []Keyframe{{T: 1, V: 2}}}.Validate())
	assert.Error(t, Plan{Looks: []Look{{At: 3}}}.Validate())

	// 24 is the next day's 0
	assert.NoError(t, Plan{Dim: []Keyframe{{T: 23.99, V: 1}}}.Validate())
	err := Plan{Looks: []Look{{At: 24, Renderer: "wave"}}}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0..<24")
	_, err = NewPlayer(Plan{FadeS: -1}, Hooks{})
	assert.Error(t, err)
}

func TestHourOf(t *testing.T) {
	assert.InDelta(t, 13.5, HourOf(at(13, 30)), 1e-9)
}
