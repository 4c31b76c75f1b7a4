// Package frame defines the Basic Frame tagged variant that flows from the
// upstream producer graph into the mixer, and the video format geometry
// the mixer needs to decide how to tween and compose it.
package frame

import "github.com/harshabose/framemixer/pkg/transform"

// FieldMode describes how a video stream's frames are scanned.
type FieldMode int

const (
	Progressive FieldMode = iota
	InterlacedUpper
	InterlacedLower
)

// VideoFormat describes the geometry and timing the mixer composes
// against: pixel dimensions, scan mode, and the duration of one output
// tick.
type VideoFormat struct {
	Width, Height int
	Field         FieldMode
	TickInterval  float64
}

// Kind tags which variant a Frame holds.
type Kind int

const (
	// Empty carries no media; it is filtered out before the mix passes.
	Empty Kind = iota
	// EOF marks a producer that has nothing left to contribute.
	EOF
	// Single carries one image/audio bundle from one layer.
	Single
	// Composite carries two interlaced fields folded into one frame.
	Composite
)

// Frame is the tagged variant that passes between the producer graph and
// the mixer. Image and Audio are mutable slots the mixer writes into just
// before handing the frame to the image/audio mixer facades; callers
// should treat a Frame as borrowed for one tick and never alias it across
// ticks (construct a fresh by-value child per pass instead).
type Frame struct {
	Kind        Kind
	LayerIndex  int
	Image       transform.Image
	Audio       transform.Audio
	fields      [2]transform.Image // set only when Kind == Composite
}

// NewEmpty builds an Empty frame for layer index.
func NewEmpty(layerIndex int) Frame {
	return Frame{Kind: Empty, LayerIndex: layerIndex}
}

// NewEOF builds an EOF frame for layer index.
func NewEOF(layerIndex int) Frame {
	return Frame{Kind: EOF, LayerIndex: layerIndex}
}

// NewSingle builds a Single frame for layer index carrying image and audio
// transforms already evaluated for this tick.
func NewSingle(layerIndex int, image transform.Image, audio transform.Audio) Frame {
	return Frame{Kind: Single, LayerIndex: layerIndex, Image: image, Audio: audio}
}

// Live reports whether a frame should participate in a tick's mix passes;
// Empty and EOF frames are filtered out before begin_pass.
func (f Frame) Live() bool {
	return f.Kind == Single || f.Kind == Composite
}

// Interlace combines two fields, A then B, into one Composite frame when
// their transforms differ. If they are equal, the caller should accept B
// directly instead (A contributes nothing distinguishable), per the
// per-tick algorithm's field-collapse rule; Interlace itself always
// produces a Composite and leaves that choice to the caller.
func Interlace(layerIndex int, a, b transform.Image, audio transform.Audio) Frame {
	return Frame{
		Kind:       Composite,
		LayerIndex: layerIndex,
		Image:      b,
		Audio:      audio,
		fields:     [2]transform.Image{a, b},
	}
}

// Fields returns the two field transforms of a Composite frame. It panics
// if f is not Composite.
func (f Frame) Fields() (a, b transform.Image) {
	if f.Kind != Composite {
		panic("frame: Fields called on non-composite frame")
	}
	return f.fields[0], f.fields[1]
}
