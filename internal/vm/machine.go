// Package vm is the execution engine (spec.md §4.F): it walks a
// compiler.Instruction tree, maintaining a slot table and a scope
// stack, and produces a final ValueContainer by calling out to a
// boundary.Oracle wherever the instruction stream names an external
// operation (pointer resolution, Apply, RemoteExecution).
//
// spec.md models this as a coroutine that suspends at every interrupt
// and resumes on a driver-supplied reply, so that replaying the same
// DXB against the same oracle replies is deterministic. A literal
// generator with a `GetNextInstruction`/reply channel protocol is how
// that reads in a language with native coroutines; in Go, the
// language's own call stack already gives every in-flight instruction
// a suspended frame for free, so Machine.eval is a direct recursive
// walk: each case "suspends" simply by calling m.eval on a child and
// using its return value, and an External operation "suspends" by
// calling straight into the Oracle and waiting on its return. The
// net effect — deterministic, single-threaded, instruction-order
// evaluation where the oracle may itself block or not — is identical;
// only the suspension mechanism differs. ExecuteAsync (context
// package) wraps a full Execute call in a goroutine for callers that
// want a cancellable/concurrent entry point, which is the piece of the
// coroutine model Go's stack can't give for free.
package vm

import (
	"datex/internal/bytecode"
	"datex/internal/boundary"
	"datex/internal/compiler"
	derr "datex/internal/errors"
	"datex/internal/value"
)

// Machine holds one execution context's mutable state (spec.md §4.F).
type Machine struct {
	Oracle boundary.Oracle
	Slots  map[uint32]value.Container
	Scopes []*Frame
	Trace  func(msg string)

	placeholders   []value.Container
	placeholderIdx int
	traceSeq       uint64

	// AddressAllocator mints a fresh local pointer address for a newly
	// created reference, if set (internal/context wires this to a
	// session-seeded value.DeriveAddress counter). Left nil, CREATE_REF/
	// CREATE_REF_MUT produce anonymous references with no address.
	AddressAllocator func() *value.PointerAddress
}

// New builds a Machine with an empty slot table. oracle may be nil for
// scripts that never resolve a pointer, apply a callee the Machine
// can't apply_single itself, or remote-execute.
func New(oracle boundary.Oracle) *Machine {
	return &Machine{
		Oracle: oracle,
		Slots:  make(map[uint32]value.Container),
	}
}

func (m *Machine) push(kind FrameKind) {
	m.Scopes = append(m.Scopes, &Frame{Kind: kind})
	if m.Trace != nil {
		m.Trace(m.traceLine("enter", kind))
	}
}

func (m *Machine) pop() {
	if len(m.Scopes) == 0 {
		return
	}
	top := m.Scopes[len(m.Scopes)-1]
	m.Scopes = m.Scopes[:len(m.Scopes)-1]
	if m.Trace != nil {
		m.Trace(m.traceLine("leave", top.Kind))
	}
}

// Execute runs a fully compiled instruction tree to a final result
// (spec.md §4.F "Result(Option<ValueContainer>)"). A nil result with a
// nil error means the program produced no value, e.g. a terminated
// statement sequence.
func (m *Machine) Execute(root *compiler.Instruction) (value.Container, error) {
	m.push(FramePlain)
	defer m.pop()
	return m.eval(root)
}

func (m *Machine) getSlot(addr uint32) (value.Container, error) {
	c, ok := m.Slots[addr]
	if !ok {
		return nil, derr.ErrSlotNotAllocated(addr)
	}
	if c == nil {
		return nil, derr.ErrSlotNotInitialized(addr)
	}
	return c, nil
}

func (m *Machine) setSlot(addr uint32, c value.Container) {
	m.Slots[addr] = c
}

func (m *Machine) allocateSlot(addr uint32) {
	if _, exists := m.Slots[addr]; !exists {
		m.Slots[addr] = nil
	}
}

func (m *Machine) dropSlot(addr uint32) {
	delete(m.Slots, addr)
}

// resolvePointer dispatches GET_REF/GET_LOCAL_REF to the oracle,
// surfacing ReferenceNotFound when it has nothing registered for addr.
func (m *Machine) resolvePointer(addr value.PointerAddress) (value.Container, error) {
	if m.Oracle == nil {
		return nil, derr.ErrReferenceNotFound(addr.String())
	}
	c, ok := m.Oracle.ResolvePointer(addr)
	if !ok {
		return nil, derr.ErrReferenceNotFound(addr.String())
	}
	return c, nil
}

func (m *Machine) getInternalSlot(slotID uint32) (value.Container, error) {
	if m.Oracle == nil {
		return nil, derr.ErrReferenceNotFound("no oracle configured for internal slot")
	}
	return m.Oracle.GetInternalSlot(slotID)
}

// apply implements spec.md §4.F's Apply semantics: try SingleApplier
// locally for a one-arg call (e.g. a type cast), otherwise defer to
// the oracle's External::Apply.
func (m *Machine) apply(callee value.Container, args []value.Container) (value.Container, error) {
	if len(args) == 1 {
		if applier, ok := callee.Resolve().Inner.(SingleApplier); ok {
			result, err := applier.Apply(args[0].Resolve())
			if err != nil {
				return nil, err
			}
			return value.Box(result), nil
		}
	}
	if m.Oracle == nil {
		return nil, derr.ErrValue(derr.InvalidOperation, "apply requires an oracle for non-local callees")
	}
	return m.Oracle.Apply(callee, args)
}

func (m *Machine) remoteExecute(receivers value.Container, dxb []byte) (value.Container, error) {
	if m.Oracle == nil {
		return nil, derr.ErrValue(derr.InvalidOperation, "remote execution requires an oracle")
	}
	return m.Oracle.RemoteExecute(receivers, dxb)
}

// isType reports whether instr belongs to the type-instruction space,
// i.e. is the TYPE_EXPRESSION wrapper around a TypeInstr (spec.md
// §4.E point 9 / §4.F "Type instructions").
func isType(instr *compiler.Instruction) bool {
	return instr.Op.Code == bytecode.TYPE_EXPRESSION
}
