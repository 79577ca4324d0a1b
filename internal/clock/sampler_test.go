package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(h, m, s int) time.Time {
	return time.Date(2024, 3, 9, h, m, s, 0, time.UTC)
}

func TestFormat12Hour(t *testing.T) {
	cases := []struct {
		t    time.Time
		want string
	}{
		{at(0, 0, 0), "120000"},
		{at(0, 5, 9), "120509"},
		{at(1, 2, 3), "010203"},
		{at(11, 59, 59), "115959"},
		{at(12, 0, 0), "120000"},
		{at(13, 4, 5), "010405"},
		{at(23, 59, 59), "115959"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Format(c.t, false), c.t.Format(time.TimeOnly))
	}
}

func TestFormat24Hour(t *testing.T) {
	assert.Equal(t, "000000", Format(at(0, 0, 0), true))
	assert.Equal(t, "134500", Format(at(13, 45, 0), true))
}

func TestSamplerThrottle(t *testing.T) {
	s := NewSampler(false)
	t0 := at(9, 0, 0)

	v, changed := s.Sample(t0)
	assert.True(t, changed, "first sample always refreshes")
	assert.Equal(t, "090000", v)

	v, changed = s.Sample(t0.Add(500 * time.Millisecond))
	assert.False(t, changed)
	assert.Equal(t, "090000", v)

	// exactly on the threshold still holds the old value
	_, changed = s.Sample(t0.Add(time.Second))
	assert.False(t, changed)

	v, changed = s.Sample(t0.Add(time.Second + time.Millisecond))
	assert.True(t, changed)
	assert.Equal(t, "090001", v)
	assert.Equal(t, time.Millisecond, s.Lag())
	assert.Equal(t, uint64(2), s.Samples)
}

func TestSamplerLagUnderLoad(t *testing.T) {
	s := NewSampler(false)
	t0 := at(9, 0, 0)
	s.Sample(t0)

	v, changed := s.Sample(t0.Add(2500 * time.Millisecond))
	assert.True(t, changed)
	assert.Equal(t, "090002", v)
	assert.Equal(t, 1500*time.Millisecond, s.Lag())
}

func TestSamplerReset(t *testing.T) {
	s := NewSampler(true)
	t0 := at(15, 0, 0)
	s.Sample(t0)
	s.Reset()
	_, changed := s.Sample(t0.Add(10 * time.Millisecond))
	assert.True(t, changed)
	assert.Equal(t, "150000", s.Value())
}
