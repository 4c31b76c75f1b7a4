// Package imagemixer is the image mixer facade (C5): a sink that accepts
// frames carrying resolved image transforms, in z-order, and eventually
// produces a host-visible buffer. The actual GPU composition kernel is
// external to this module; this package's Mixer is the reference software
// compositor that stands in for it, so the rest of the tree has something
// concrete to drive and test against.
package imagemixer

import (
	"context"

	"github.com/harshabose/framemixer/pkg/executor"
	"github.com/harshabose/framemixer/pkg/frame"
	"github.com/harshabose/framemixer/pkg/transform"
)

// Buffer is a composited host-visible image: one interleaved 8-bit plane
// holding the painter's-algorithm-composited opacity of every accepted
// layer, plus the resolved per-layer transforms in z-order.
type Buffer struct {
	Width, Height int
	Pixels        []byte
	Layers        []transform.Image
}

// Future resolves to a Buffer once the pass that produced it has finished
// running on the mixer's executor.
type Future struct {
	handle *executor.Handle
	result *Buffer
}

// Wait blocks until the pass completes or ctx is done, whichever is
// first, and returns the resulting buffer.
func (f *Future) Wait(ctx context.Context) (*Buffer, error) {
	if err := f.handle.Wait(ctx); err != nil {
		return nil, err
	}
	return f.result, nil
}

// Mixer is the image mixer facade. Every pass it runs composites into a
// buffer of the dimensions it was created with.
type Mixer struct {
	width, height int
	exec          *executor.Executor
}

// New creates an image mixer producing width x height buffers, backed by
// a two-slot executor standing in for the GPU dispatch queue.
func New(ctx context.Context, width, height int) *Mixer {
	exec := executor.New(ctx, 2)
	exec.Start()
	return &Mixer{width: width, height: height, exec: exec}
}

// Pass accumulates the frames accepted between BeginPass and End.
type Pass struct {
	mixer  *Mixer
	layers []transform.Image
}

// BeginPass opens a new compositing pass.
func (m *Mixer) BeginPass() *Pass {
	return &Pass{mixer: m}
}

// Accept submits f into the pass at the next z-order slot (first Accept
// call is the bottom layer).
func (p *Pass) Accept(f frame.Frame) {
	p.layers = append(p.layers, f.Image)
}

// End finalizes the pass and returns a Future resolving to the
// composited Buffer, dispatched onto the mixer's executor.
func (p *Pass) End() (*Future, error) {
	result := &Buffer{Width: p.mixer.width, Height: p.mixer.height}
	layers := p.layers

	handle, err := p.mixer.exec.BeginInvoke(func() error {
		composite(result, layers)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Future{handle: handle, result: result}, nil
}

// composite runs back-to-front alpha compositing over the layer
// opacities (the Porter-Duff "over" operator collapsed to a scalar since
// this reference compositor has no real pixel content to blend) and
// records every layer's resolved transform for callers that need the
// numeric result rather than pixels.
func composite(buf *Buffer, layers []transform.Image) {
	buf.Layers = append([]transform.Image(nil), layers...)

	var alpha float64
	for _, layer := range layers {
		alpha = layer.Opacity + alpha*(1-layer.Opacity)
	}

	value := byte(clamp01(alpha) * 255)
	buf.Pixels = make([]byte, buf.Width*buf.Height)
	for i := range buf.Pixels {
		buf.Pixels[i] = value
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// CreateBuffers allocates one writeable host buffer of the given
// dimensions, standing in for the GPU-backed per-plane allocation the
// real engine would perform.
func (m *Mixer) CreateBuffers(width, height int) []*Buffer {
	return []*Buffer{{Width: width, Height: height, Pixels: make([]byte, width*height)}}
}

// Close stops the mixer's executor.
func (m *Mixer) Close() {
	m.exec.Stop()
}
