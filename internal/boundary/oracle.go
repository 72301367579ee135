// Package boundary implements the execution engine's escape hatch to
// the outside world (spec.md §4.G): pointer resolution, calling into
// built-ins/user callables, and remote dispatch. The engine itself
// never touches a network socket or a global registry directly — it
// only ever calls through this one interface, which is what lets the
// same coroutine run identically against a test double and a real
// network stack.
package boundary

import "datex/internal/value"

// Oracle is the trait spec.md §4.G describes. All four operations may
// be synchronous or asynchronous from the engine's point of view; Go
// expresses that as "however the concrete implementation wants to
// block", since the engine calls these from its own goroutine and
// simply waits on the return.
type Oracle interface {
	// ResolvePointer returns the reference stored for a full/local/
	// internal address, or ok=false if unknown.
	ResolvePointer(addr value.PointerAddress) (value.Container, bool)

	// Apply invokes a built-in or user-defined callable with the given
	// arguments, in order.
	Apply(callee value.Container, args []value.Container) (value.Container, error)

	// RemoteExecute sends a compiled DXB fragment to receivers and
	// returns the reply.
	RemoteExecute(receivers value.Container, dxb []byte) (value.Container, error)

	// GetInternalSlot returns a runtime-provided value such as ENDPOINT
	// (spec.md §4.G, §6).
	GetInternalSlot(slotID uint32) (value.Container, error)
}

// Reserved internal slot ids (spec.md §4.G: "notably ENDPOINT").
const (
	SlotEndpoint uint32 = 0
)
