// Package registry holds the live tweened transforms the mixer applies to
// the root and to each layer. Mutation is not internally synchronised:
// callers are expected to run every Set/Apply/Reset/Tick call through the
// owning executor's single worker, the same way the mixer serialises tick
// evaluation against control-surface writes.
package registry

import "github.com/harshabose/framemixer/pkg/tween"

// linearEasing is the curve used for a registry's own bookkeeping tweens
// (the zero-duration placeholder a never-set layer starts at); it is
// always a valid name, so the error from tween.New is never possible here.
const linearEasing = "linear"

// Registry holds one transform kind's root tween plus a per-layer map of
// tweens, mirroring the tick loop's mutable state directly rather than
// caching a separately-updated plain value.
type Registry[T tween.Interpolable[T]] struct {
	identity T
	root     tween.Tweened[T]
	layers   map[int]*tween.Tweened[T]
}

// New creates a Registry whose root and every not-yet-set layer evaluate
// to identity.
func New[T tween.Interpolable[T]](identity T) *Registry[T] {
	root, _ := tween.New(identity, identity, 0, linearEasing)
	return &Registry[T]{
		identity: identity,
		root:     root,
		layers:   make(map[int]*tween.Tweened[T]),
	}
}

// Root returns the root transform's current value without advancing it.
func (r *Registry[T]) Root() T {
	return r.root.Fetch()
}

// Layer returns layer index's current value without advancing it, or
// identity if the layer has never been set.
func (r *Registry[T]) Layer(index int) T {
	if tw, ok := r.layers[index]; ok {
		return tw.Fetch()
	}
	return r.identity
}

// SetRoot replaces the root's in-flight tween with one moving from its
// current evaluated value to value over durationTicks, shaped by
// easingName.
func (r *Registry[T]) SetRoot(value T, durationTicks int, easingName string) error {
	tw, err := tween.New(r.Root(), value, durationTicks, easingName)
	if err != nil {
		return err
	}
	r.root = tw
	return nil
}

// SetLayer replaces layer index's in-flight tween with one moving from
// its current evaluated value to value over durationTicks, shaped by
// easingName.
func (r *Registry[T]) SetLayer(index int, value T, durationTicks int, easingName string) error {
	tw, err := tween.New(r.Layer(index), value, durationTicks, easingName)
	if err != nil {
		return err
	}
	r.layers[index] = &tw
	return nil
}

// ApplyRoot replaces the root's in-flight tween with one moving from its
// current evaluated value to fn(current), over durationTicks, shaped by
// easingName.
func (r *Registry[T]) ApplyRoot(fn func(T) T, durationTicks int, easingName string) error {
	return r.SetRoot(fn(r.Root()), durationTicks, easingName)
}

// ApplyLayer is ApplyRoot for a single layer.
func (r *Registry[T]) ApplyLayer(index int, fn func(T) T, durationTicks int, easingName string) error {
	return r.SetLayer(index, fn(r.Layer(index)), durationTicks, easingName)
}

// Reset replaces the root's tween and every known layer's tween with one
// moving from its current evaluated value back to identity, over
// durationTicks.
func (r *Registry[T]) Reset(durationTicks int, easingName string) error {
	if err := r.SetRoot(r.identity, durationTicks, easingName); err != nil {
		return err
	}
	for index := range r.layers {
		if err := r.SetLayer(index, r.identity, durationTicks, easingName); err != nil {
			return err
		}
	}
	return nil
}

// TickRoot advances the root tween by n ticks and returns the resulting
// value.
func (r *Registry[T]) TickRoot(n int) T {
	return r.root.FetchAndTick(n)
}

// TickLayer advances layer index's tween by n ticks and returns the
// resulting value. A layer ticked for the first time starts from an
// identity-to-identity, zero-duration tween, the same way the underlying
// map would default-construct an entry on first access.
func (r *Registry[T]) TickLayer(index int, n int) T {
	tw, ok := r.layers[index]
	if !ok {
		fresh, _ := tween.New(r.identity, r.identity, 0, linearEasing)
		tw = &fresh
		r.layers[index] = tw
	}
	return tw.FetchAndTick(n)
}
