package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harshabose/framemixer/pkg/transform"
)

func TestNewRegistryStartsAtIdentity(t *testing.T) {
	r := New[transform.Image](transform.IdentityImage)
	assert.Equal(t, transform.IdentityImage, r.Root())
	assert.Equal(t, transform.IdentityImage, r.Layer(3))
}

func TestSetRootExactAtDuration(t *testing.T) {
	r := New[transform.Image](transform.IdentityImage)
	target := transform.Image{Opacity: 0.2, Fill: transform.IdentityPlacement, Clip: transform.IdentityPlacement, Levels: transform.IdentityLevels}

	require.NoError(t, r.SetRoot(target, 5, "linear"))
	for i := 0; i < 5; i++ {
		r.TickRoot(1)
	}
	assert.Equal(t, target, r.Root())
}

func TestSetLayerIndependentFromRoot(t *testing.T) {
	r := New[transform.Image](transform.IdentityImage)
	target := transform.Image{Opacity: 0.3, Fill: transform.IdentityPlacement, Clip: transform.IdentityPlacement, Levels: transform.IdentityLevels}

	require.NoError(t, r.SetLayer(1, target, 1, "linear"))
	r.TickLayer(1, 1)

	assert.Equal(t, target, r.Layer(1))
	assert.Equal(t, transform.IdentityImage, r.Root())
	assert.Equal(t, transform.IdentityImage, r.Layer(2))
}

func TestApplyRootUsesCurrentValue(t *testing.T) {
	r := New[transform.Image](transform.IdentityImage)
	require.NoError(t, r.SetRoot(transform.Image{Opacity: 0.5, Fill: transform.IdentityPlacement, Clip: transform.IdentityPlacement, Levels: transform.IdentityLevels}, 0, "linear"))

	require.NoError(t, r.ApplyRoot(func(cur transform.Image) transform.Image {
		cur.Opacity *= 0.5
		return cur
	}, 0, "linear"))

	assert.InDelta(t, 0.25, r.Root().Opacity, 1e-9)
}

func TestResetMovesRootAndEveryKnownLayerToIdentity(t *testing.T) {
	r := New[transform.Image](transform.IdentityImage)
	off := transform.Image{Opacity: 0.1, Fill: transform.IdentityPlacement, Clip: transform.IdentityPlacement, Levels: transform.IdentityLevels}

	require.NoError(t, r.SetRoot(off, 0, "linear"))
	require.NoError(t, r.SetLayer(0, off, 0, "linear"))
	require.NoError(t, r.SetLayer(1, off, 0, "linear"))

	require.NoError(t, r.Reset(0, "linear"))

	assert.Equal(t, transform.IdentityImage, r.Root())
	assert.Equal(t, transform.IdentityImage, r.Layer(0))
	assert.Equal(t, transform.IdentityImage, r.Layer(1))
}

func TestTickLayerFirstAccessDefaultsToIdentity(t *testing.T) {
	r := New[transform.Audio](transform.IdentityAudio)
	got := r.TickLayer(7, 1)
	assert.Equal(t, transform.IdentityAudio, got)
}

func TestSetRootInvalidEasingPropagatesError(t *testing.T) {
	r := New[transform.Image](transform.IdentityImage)
	err := r.SetRoot(transform.IdentityImage, 5, "not-a-curve")
	assert.Error(t, err)
}
