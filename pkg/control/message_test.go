package control

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harshabose/framemixer/pkg/frame"
	"github.com/harshabose/framemixer/pkg/mixer"
	"github.com/harshabose/framemixer/pkg/transform"
)

func newTestMixer(t *testing.T) *mixer.Mixer {
	t.Helper()
	m := mixer.New(context.Background(), frame.VideoFormat{Width: 4, Height: 4, Field: frame.Progressive, TickInterval: 1.0 / 50}, 48000, 2)
	t.Cleanup(m.Close)
	return m
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	img := transform.Image{Opacity: 0.4, Fill: transform.IdentityPlacement, Clip: transform.IdentityPlacement, Levels: transform.IdentityLevels}
	msg := Message{Op: OpSetImageLayer, Layer: 3, Image: &img, DurationTicks: 5, Easing: "ease-in"}

	data, err := Encode(msg)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, msg.Op, got.Op)
	assert.Equal(t, msg.Layer, got.Layer)
	require.NotNil(t, got.Image)
	assert.Equal(t, img, *got.Image)
	assert.Equal(t, msg.DurationTicks, got.DurationTicks)
	assert.Equal(t, msg.Easing, got.Easing)
}

func TestDispatchSetImageAndSetAudio(t *testing.T) {
	m := newTestMixer(t)

	img := transform.Image{Opacity: 0.3, Fill: transform.IdentityPlacement, Clip: transform.IdentityPlacement, Levels: transform.IdentityLevels}
	require.NoError(t, Dispatch(m, Message{Op: OpSetImage, Image: &img, Easing: "linear"}))

	audio := transform.Audio{Volume: 0.6, Route: transform.IdentityChannelRoute}
	require.NoError(t, Dispatch(m, Message{Op: OpSetAudio, Audio: &audio, Easing: "linear"}))
}

func TestDispatchApplyImageComposesDeltaOntoCurrent(t *testing.T) {
	m := newTestMixer(t)

	base := transform.Image{Opacity: 0.5, Fill: transform.IdentityPlacement, Clip: transform.IdentityPlacement, Levels: transform.IdentityLevels}
	require.NoError(t, Dispatch(m, Message{Op: OpSetImage, Image: &base, Easing: "linear"}))

	delta := transform.Image{Opacity: 0.5, Fill: transform.IdentityPlacement, Clip: transform.IdentityPlacement, Levels: transform.IdentityLevels}
	require.NoError(t, Dispatch(m, Message{Op: OpApplyImage, Image: &delta, Easing: "linear"}))

	ch := make(chan mixer.Composite, 1)
	conn := m.Connect(func(c mixer.Composite) { ch <- c })
	defer conn.Disconnect()

	require.NoError(t, m.Send([]frame.Frame{frame.NewSingle(0, transform.IdentityImage, transform.IdentityAudio)}))

	select {
	case c := <-ch:
		buf, err := c.Image.Wait(context.Background())
		require.NoError(t, err)
		require.Len(t, buf.Layers, 1)
		assert.InDelta(t, 0.25, buf.Layers[0].Opacity, 1e-9)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for tick")
	}
}

func TestDispatchResetImageAndResetAudio(t *testing.T) {
	m := newTestMixer(t)
	require.NoError(t, Dispatch(m, Message{Op: OpResetImage, Easing: "linear"}))
	require.NoError(t, Dispatch(m, Message{Op: OpResetAudio, Easing: "linear"}))
}

func TestDispatchRequiresImageForSetImage(t *testing.T) {
	m := newTestMixer(t)
	err := Dispatch(m, Message{Op: OpSetImage, Easing: "linear"})
	assert.Error(t, err)
}

func TestDispatchRequiresAudioForApplyAudioLayer(t *testing.T) {
	m := newTestMixer(t)
	err := Dispatch(m, Message{Op: OpApplyAudioLayer, Layer: 1, Easing: "linear"})
	assert.Error(t, err)
}

func TestDispatchUnknownOp(t *testing.T) {
	m := newTestMixer(t)
	err := Dispatch(m, Message{Op: Op("bogus")})
	assert.Error(t, err)
}
