// Package audiomixer is the audio mixer facade (C6): a sink that accepts
// frames carrying resolved audio transforms and yields interleaved 16-bit
// PCM for exactly one tick's worth of samples. Real sample-format
// conversion and decode are external to this module; Mixer is the
// reference compositor standing in for them, mixing a per-layer unit
// reference tone additively through each layer's volume and channel
// route so the transform math stays testable without real audio input.
package audiomixer

import (
	"math"

	"github.com/harshabose/framemixer/pkg/frame"
	"github.com/harshabose/framemixer/pkg/transform"
)

const referenceAmplitude = 32767

// Mixer is the audio mixer facade, configured once with the output
// format's sample rate, channel count and tick interval.
type Mixer struct {
	sampleRate   int
	channels     int
	tickInterval float64
}

// New creates an audio mixer for the given output format.
func New(sampleRate, channels int, tickInterval float64) *Mixer {
	return &Mixer{sampleRate: sampleRate, channels: channels, tickInterval: tickInterval}
}

// SamplesPerTick returns how many per-channel samples one tick yields.
func (m *Mixer) SamplesPerTick() int {
	return int(math.Round(float64(m.sampleRate) * m.tickInterval))
}

// Pass accumulates the frames accepted between BeginPass and End.
type Pass struct {
	mixer  *Mixer
	layers []transform.Audio
}

// BeginPass opens a new mixing pass.
func (m *Mixer) BeginPass() *Pass {
	return &Pass{mixer: m}
}

// Accept submits f's resolved audio transform into the pass.
func (p *Pass) Accept(f frame.Frame) {
	p.layers = append(p.layers, f.Audio)
}

// End finalizes the pass and returns exactly one tick's worth of
// interleaved PCM: each layer's route matrix is applied to a full-scale
// reference tone present on every input channel, scaled by volume, and
// the layers are summed sample-wise before clipping to int16 range.
func (p *Pass) End() []int16 {
	channels := p.mixer.channels
	samples := p.mixer.SamplesPerTick()
	out := make([]int16, samples*channels)

	gains := make([]float64, channels)
	for _, layer := range p.layers {
		for ch := 0; ch < channels; ch++ {
			var sum float64
			for in := 0; in < channels; in++ {
				sum += layer.Route.Gains[ch][in]
			}
			gains[ch] += layer.Volume * sum
		}
	}

	for s := 0; s < samples; s++ {
		for ch := 0; ch < channels; ch++ {
			out[s*channels+ch] = clampInt16(gains[ch] * referenceAmplitude)
		}
	}

	return out
}

func clampInt16(v float64) int16 {
	switch {
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	default:
		return int16(v)
	}
}
