// Package mixer implements the frame mixer (C7): it owns the image and
// audio transform registries, orchestrates the per-tick mix against the
// image and audio mixer facades, and publishes the result to subscribers.
package mixer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/google/uuid"

	"github.com/harshabose/framemixer/pkg/audiomixer"
	"github.com/harshabose/framemixer/pkg/executor"
	"github.com/harshabose/framemixer/pkg/frame"
	"github.com/harshabose/framemixer/pkg/imagemixer"
	"github.com/harshabose/framemixer/pkg/metrics"
	"github.com/harshabose/framemixer/pkg/registry"
	"github.com/harshabose/framemixer/pkg/transform"
)

// ErrMixStageFailed marks a tick fatal: the image or audio pass failed as
// a whole and the subscribers receive nothing for that tick.
var ErrMixStageFailed = errors.New("mixer: mix stage failed")

// sendCapacity is the mixer's own task queue bound: one tick in flight,
// one pending. A third concurrent Send blocks its caller.
const sendCapacity = 2

// Composite is what one tick publishes to subscribers: a future host
// image buffer plus one tick's worth of interleaved PCM.
type Composite struct {
	Image *imagemixer.Future
	PCM   []int16
}

// Subscriber receives one Composite per tick.
type Subscriber func(Composite)

// Connection is returned by Connect and lets a caller detach its
// subscriber.
type Connection struct {
	id    uuid.UUID
	mixer *Mixer
}

// Disconnect removes the subscriber this connection was created for.
func (c Connection) Disconnect() {
	c.mixer.disconnect(c.id)
}

// Option configures a Mixer at construction time.
type Option func(*Mixer)

// WithLogger overrides the mixer's logger. The default is a no-op logger.
func WithLogger(logger log.Logger) Option {
	return func(m *Mixer) { m.logger = logger }
}

// Mixer is the frame mixer (C7).
type Mixer struct {
	format frame.VideoFormat
	logger log.Logger

	imageReg *registry.Registry[transform.Image]
	audioReg *registry.Registry[transform.Audio]

	image *imagemixer.Mixer
	audio *audiomixer.Mixer

	exec *executor.Executor

	mu            sync.RWMutex
	subs          map[uuid.UUID]Subscriber
	lastFrameTime time.Time
}

// New creates a Mixer producing output in the given video format, with
// audio mixed at sampleRate/channels.
func New(ctx context.Context, format frame.VideoFormat, sampleRate, channels int, options ...Option) *Mixer {
	exec := executor.New(ctx, sendCapacity)
	exec.Start()

	m := &Mixer{
		format:   format,
		logger:   log.NewNopLogger(),
		imageReg: registry.New[transform.Image](transform.IdentityImage),
		audioReg: registry.New[transform.Audio](transform.IdentityAudio),
		image:    imagemixer.New(ctx, format.Width, format.Height),
		audio:    audiomixer.New(sampleRate, channels, format.TickInterval),
		exec:     exec,
		subs:     make(map[uuid.UUID]Subscriber),
	}

	for _, option := range options {
		option(m)
	}

	return m
}

// Connect attaches sub as an output sink and returns a handle to detach
// it later.
func (m *Mixer) Connect(sub Subscriber) Connection {
	id := uuid.New()

	m.mu.Lock()
	m.subs[id] = sub
	m.mu.Unlock()

	return Connection{id: id, mixer: m}
}

func (m *Mixer) disconnect(id uuid.UUID) {
	m.mu.Lock()
	delete(m.subs, id)
	m.mu.Unlock()
}

func (m *Mixer) publish(c Composite) {
	m.mu.RLock()
	snapshot := make([]Subscriber, 0, len(m.subs))
	for _, sub := range m.subs {
		snapshot = append(snapshot, sub)
	}
	m.mu.RUnlock()

	for _, sub := range snapshot {
		sub(c)
	}
}

// Send enqueues frames for mixing. It returns as soon as the task is
// admitted; the third concurrent Send on a mixer with the default
// capacity blocks its caller until the first tick completes.
func (m *Mixer) Send(frames []frame.Frame) error {
	_, err := m.exec.BeginInvoke(func() error {
		return m.tick(frames)
	})
	return err
}

func (m *Mixer) tick(frames []frame.Frame) error {
	now := m.updateFrameTime()
	tickStart := now

	live := make([]frame.Frame, 0, len(frames))
	for _, f := range frames {
		if f.Live() {
			live = append(live, f)
		}
	}

	imageFuture, err := m.mixImage(live)
	if err != nil {
		return fmt.Errorf("%w: image pass: %v", ErrMixStageFailed, err)
	}
	pcm := m.mixAudio(live)

	m.publish(Composite{Image: imageFuture, PCM: pcm})

	metrics.SetTickTime(time.Since(tickStart).Seconds())
	metrics.SetInputBuffer(float64(m.exec.Size()) / float64(m.exec.Capacity()))

	return nil
}

func (m *Mixer) updateFrameTime() time.Time {
	now := time.Now()
	if !m.lastFrameTime.IsZero() {
		metrics.SetFrameTime(now.Sub(m.lastFrameTime).Seconds())
	}
	m.lastFrameTime = now
	return now
}

func (m *Mixer) mixImage(frames []frame.Frame) (*imagemixer.Future, error) {
	pass := m.image.BeginPass()
	for _, f := range frames {
		pass.Accept(m.evaluateImage(f))
	}
	return pass.End()
}

// evaluateImage ticks the root and per-layer image tweens for f, once for
// progressive output or twice (one per field) for interlaced, and folds
// the two fields into one Composite frame only when they differ.
func (m *Mixer) evaluateImage(f frame.Frame) frame.Frame {
	if m.format.Field == frame.Progressive {
		img := m.imageReg.TickRoot(1).Mul(m.imageReg.TickLayer(f.LayerIndex, 1))
		return frame.NewSingle(f.LayerIndex, img, transform.IdentityAudio)
	}

	a := m.imageReg.TickRoot(1).Mul(m.imageReg.TickLayer(f.LayerIndex, 1))
	b := m.imageReg.TickRoot(1).Mul(m.imageReg.TickLayer(f.LayerIndex, 1))
	if !a.Equal(b) {
		return frame.Interlace(f.LayerIndex, a, b, transform.IdentityAudio)
	}
	return frame.NewSingle(f.LayerIndex, b, transform.IdentityAudio)
}

func (m *Mixer) mixAudio(frames []frame.Frame) []int16 {
	n := 1
	if m.format.Field != frame.Progressive {
		n = 2
	}

	pass := m.audio.BeginPass()
	for _, f := range frames {
		audio := m.audioReg.TickRoot(n).Mul(m.audioReg.TickLayer(f.LayerIndex, n))
		pass.Accept(frame.NewSingle(f.LayerIndex, transform.IdentityImage, audio))
	}
	return pass.End()
}

// CreateFrame allocates a writeable frame in the mixer's active pixel
// format.
func (m *Mixer) CreateFrame(width, height int) []*imagemixer.Buffer {
	return m.image.CreateBuffers(width, height)
}

// SetImageTransform replaces the root image transform's in-flight tween.
func (m *Mixer) SetImageTransform(value transform.Image, durationTicks int, easing string) error {
	return m.exec.Invoke(func() error { return m.imageReg.SetRoot(value, durationTicks, easing) })
}

// SetImageTransformLayer replaces layer index's image transform tween.
func (m *Mixer) SetImageTransformLayer(index int, value transform.Image, durationTicks int, easing string) error {
	return m.exec.Invoke(func() error { return m.imageReg.SetLayer(index, value, durationTicks, easing) })
}

// SetAudioTransform replaces the root audio transform's in-flight tween.
func (m *Mixer) SetAudioTransform(value transform.Audio, durationTicks int, easing string) error {
	return m.exec.Invoke(func() error { return m.audioReg.SetRoot(value, durationTicks, easing) })
}

// SetAudioTransformLayer replaces layer index's audio transform tween.
func (m *Mixer) SetAudioTransformLayer(index int, value transform.Audio, durationTicks int, easing string) error {
	return m.exec.Invoke(func() error { return m.audioReg.SetLayer(index, value, durationTicks, easing) })
}

// ApplyImageTransform replaces the root image transform's tween with one
// moving to fn(current).
func (m *Mixer) ApplyImageTransform(fn func(transform.Image) transform.Image, durationTicks int, easing string) error {
	return m.exec.Invoke(func() error { return m.imageReg.ApplyRoot(fn, durationTicks, easing) })
}

// ApplyImageTransformLayer is ApplyImageTransform for a single layer.
func (m *Mixer) ApplyImageTransformLayer(index int, fn func(transform.Image) transform.Image, durationTicks int, easing string) error {
	return m.exec.Invoke(func() error { return m.imageReg.ApplyLayer(index, fn, durationTicks, easing) })
}

// ApplyAudioTransform replaces the root audio transform's tween with one
// moving to fn(current).
func (m *Mixer) ApplyAudioTransform(fn func(transform.Audio) transform.Audio, durationTicks int, easing string) error {
	return m.exec.Invoke(func() error { return m.audioReg.ApplyRoot(fn, durationTicks, easing) })
}

// ApplyAudioTransformLayer is ApplyAudioTransform for a single layer.
func (m *Mixer) ApplyAudioTransformLayer(index int, fn func(transform.Audio) transform.Audio, durationTicks int, easing string) error {
	return m.exec.Invoke(func() error { return m.audioReg.ApplyLayer(index, fn, durationTicks, easing) })
}

// ResetImageTransform moves the root and every layer's image transform
// back to identity.
func (m *Mixer) ResetImageTransform(durationTicks int, easing string) error {
	return m.exec.Invoke(func() error { return m.imageReg.Reset(durationTicks, easing) })
}

// ResetAudioTransform moves the root and every layer's audio transform
// back to identity.
func (m *Mixer) ResetAudioTransform(durationTicks int, easing string) error {
	return m.exec.Invoke(func() error { return m.audioReg.Reset(durationTicks, easing) })
}

// Close stops the mixer's tick executor and the image mixer's own
// executor.
func (m *Mixer) Close() {
	m.exec.Stop()
	m.image.Close()
}
