package value

import (
	derr "datex/internal/errors"
)

// ReferenceMutability governs whether AssignToReference is permitted
// (spec.md §3/§5).
type ReferenceMutability int

const (
	Immutable ReferenceMutability = iota
	Mutable
	Final
)

func (m ReferenceMutability) String() string {
	switch m {
	case Immutable:
		return "immutable"
	case Mutable:
		return "mutable"
	case Final:
		return "final"
	default:
		return "?"
	}
}

// Reference is a shared cell with optional pointer identity (spec.md
// §3). It is always handled through a pointer in Go, which gives it the
// same sharing semantics as Rust's Rc<RefCell<_>>: copies of *Reference
// observe each other's mutations, and `==` on two *Reference values is
// exactly the identity check spec.md describes.
type Reference struct {
	Address     *PointerAddress
	Mutability  ReferenceMutability
	held        Container
	observers   map[*Reference]struct{}
	finalized   bool
}

// NewReference creates a fresh reference holding held, with the given
// mutability and an optional address (nil for an anonymous local
// reference not yet assigned one).
func NewReference(held Container, mutability ReferenceMutability, addr *PointerAddress) *Reference {
	return &Reference{Address: addr, Mutability: mutability, held: held}
}

func (r *Reference) isContainer() {}

func (r *Reference) String() string {
	return "$(" + r.Resolve().String() + ")"
}

// Resolve walks the chain of nested references down to the final
// non-reference Value ("collapsed on resolution", spec.md §3).
func (r *Reference) Resolve() Value {
	return r.held.Resolve()
}

// Get returns the immediately held container, without walking further
// reference chains — used by Deref, which only unwraps one level.
func (r *Reference) Get() Container {
	return r.held
}

// Set overwrites the held container, enforcing mutability. Reading
// always succeeds regardless of mutability (spec.md §3 invariant);
// only writes are gated.
func (r *Reference) Set(c Container) error {
	if r.Mutability == Immutable {
		return derr.ErrAssignment(derr.Immutable)
	}
	if r.Mutability == Final && r.finalized {
		return derr.ErrAssignment(derr.FinalAssignment)
	}
	r.held = c
	if r.Mutability == Final {
		r.finalized = true
	}
	r.notify()
	return nil
}

// Observe registers dependent for change notification — used by
// computed/reactive bindings layered over the core engine; the core
// engine itself only needs to notify, never subscribe.
func (r *Reference) Observe(dependent *Reference) {
	if r.observers == nil {
		r.observers = make(map[*Reference]struct{})
	}
	r.observers[dependent] = struct{}{}
}

func (r *Reference) notify() {
	for obs := range r.observers {
		_ = obs // no-op propagation hook; a reactive layer above the
		// core engine would recompute obs here.
	}
}

// Identical implements the identity relation: true only when two
// references share the same underlying cell (spec.md §4.A).
func (r *Reference) Identical(other *Reference) bool {
	return r == other
}
