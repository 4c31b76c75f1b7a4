package audiomixer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harshabose/framemixer/pkg/frame"
	"github.com/harshabose/framemixer/pkg/transform"
)

func TestSamplesPerTickRounds(t *testing.T) {
	m := New(48000, 2, 1.0/50)
	assert.Equal(t, 960, m.SamplesPerTick())
}

func TestEndProducesCorrectSampleCount(t *testing.T) {
	m := New(48000, 2, 1.0/50)
	pass := m.BeginPass()
	pass.Accept(frame.NewSingle(0, transform.IdentityImage, transform.IdentityAudio))

	out := pass.End()
	require.Len(t, out, m.SamplesPerTick()*2)
}

func TestFullVolumeIdentityRouteHitsFullScale(t *testing.T) {
	m := New(48000, 2, 1.0/50)
	pass := m.BeginPass()
	pass.Accept(frame.NewSingle(0, transform.IdentityImage, transform.Audio{Volume: 1, Route: transform.IdentityChannelRoute}))

	out := pass.End()
	require.NotEmpty(t, out)
	assert.Equal(t, int16(32767), out[0])
	assert.Equal(t, int16(32767), out[1])
}

func TestZeroVolumeProducesSilence(t *testing.T) {
	m := New(48000, 2, 1.0/50)
	pass := m.BeginPass()
	pass.Accept(frame.NewSingle(0, transform.IdentityImage, transform.Audio{Volume: 0, Route: transform.IdentityChannelRoute}))

	out := pass.End()
	for _, s := range out {
		assert.Equal(t, int16(0), s)
	}
}

func TestLayersAccumulateAndClip(t *testing.T) {
	m := New(48000, 2, 1.0/50)
	pass := m.BeginPass()
	full := transform.Audio{Volume: 1, Route: transform.IdentityChannelRoute}
	pass.Accept(frame.NewSingle(0, transform.IdentityImage, full))
	pass.Accept(frame.NewSingle(1, transform.IdentityImage, full))

	out := pass.End()
	require.NotEmpty(t, out)
	assert.Equal(t, int16(math.MaxInt16), out[0])
}

func TestClampInt16Boundaries(t *testing.T) {
	assert.Equal(t, int16(math.MaxInt16), clampInt16(1e9))
	assert.Equal(t, int16(math.MinInt16), clampInt16(-1e9))
	assert.Equal(t, int16(100), clampInt16(100))
}
