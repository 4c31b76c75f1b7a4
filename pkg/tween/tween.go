// Package tween implements timed interpolation between two values of a
// transform type, ticked forward one output frame (or one field, for
// interlaced video) at a time.
package tween

// Epsilon keeps the progress fraction's denominator away from zero for a
// zero-duration tween. A zero-duration tween never actually evaluates the
// curve with it, though: Fetch short-circuits duration<=0 straight to dest.
const Epsilon = 1e-6

// Interpolable is a transform type that knows how to blend towards another
// value of the same type at a given progress fraction in [0, 1].
type Interpolable[T any] interface {
	Lerp(dest T, frac float64) T
}

// Tweened evaluates a linear-in-ticks move from a source value to a dest
// value over durationTicks, using a named easing curve to shape the
// progress fraction. Its zero value is not usable; construct with New.
type Tweened[T Interpolable[T]] struct {
	source        T
	dest          T
	durationTicks int
	elapsedTicks  int
	easingName    string
	curve         Curve
}

// New builds a Tweened moving from source to dest over durationTicks,
// shaped by the named easing curve. A durationTicks of 0 or less makes the
// tween resolve to dest immediately, regardless of curve.
func New[T Interpolable[T]](source, dest T, durationTicks int, easingName string) (Tweened[T], error) {
	curve, err := Lookup(easingName)
	if err != nil {
		return Tweened[T]{}, err
	}
	if durationTicks < 0 {
		durationTicks = 0
	}
	return Tweened[T]{
		source:        source,
		dest:          dest,
		durationTicks: durationTicks,
		easingName:    easingName,
		curve:         curve,
	}, nil
}

// Fetch evaluates the tween at its current elapsed-ticks position without
// advancing it. fetch_at(0) is always exactly source and fetch_at(duration)
// is always exactly dest; interior points follow the named easing curve.
func (tw Tweened[T]) Fetch() T {
	switch {
	case tw.durationTicks <= 0 || tw.elapsedTicks >= tw.durationTicks:
		return tw.dest
	case tw.elapsedTicks <= 0:
		return tw.source
	}

	frac := tw.curve(float64(tw.elapsedTicks), float64(tw.durationTicks)+Epsilon)
	return tw.source.Lerp(tw.dest, frac)
}

// FetchAndTick advances elapsed ticks by n (clamped to durationTicks) and
// returns the resulting value. n is 1 for a progressive frame and 1 per
// field (so 2 per frame) for interlaced video.
func (tw *Tweened[T]) FetchAndTick(n int) T {
	tw.elapsedTicks += n
	if tw.elapsedTicks > tw.durationTicks {
		tw.elapsedTicks = tw.durationTicks
	}
	return tw.Fetch()
}

// Done reports whether the tween has reached its destination.
func (tw Tweened[T]) Done() bool {
	return tw.elapsedTicks >= tw.durationTicks
}

// Dest returns the tween's destination value, used when a caller needs to
// start a new tween from the current one's endpoint.
func (tw Tweened[T]) Dest() T {
	return tw.dest
}

// Easing returns the name of the curve this tween was constructed with.
func (tw Tweened[T]) Easing() string {
	return tw.easingName
}
