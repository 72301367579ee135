package boundary

import (
	derr "datex/internal/errors"
	"datex/internal/value"
)

// Callable is a built-in or host-registered function reachable through
// Apply. It receives already-evaluated argument containers in order.
type Callable func(args []value.Container) (value.Container, error)

// Memory is a single-process Oracle: pointers and callables live in
// plain Go maps, and RemoteExecute loops a DXB fragment back to a
// registered peer's own Memory instance rather than touching a real
// transport. It is enough to run scripts end to end with no network
// stack present, and is what the engine's tests exercise against
// (spec.md §4.G: "for purely local execution... the oracle may be
// absent" — Memory is the smallest oracle that isn't).
type Memory struct {
	pointers  map[string]value.Container
	callables map[string]Callable
	internals map[uint32]value.Container
	peers     map[string]*Memory
	execute   func(receiver *Memory, dxb []byte) (value.Container, error)
}

// NewMemory builds an empty oracle. Another Memory reaches it as a
// RemoteExecute receiver only after registering it with Peer.
func NewMemory() *Memory {
	return &Memory{
		pointers:  make(map[string]value.Container),
		callables: make(map[string]Callable),
		internals: make(map[uint32]value.Container),
		peers:     make(map[string]*Memory),
	}
}

// SetPointer registers the container a full/local/internal address
// resolves to.
func (m *Memory) SetPointer(addr value.PointerAddress, c value.Container) {
	m.pointers[addr.String()] = c
}

// Register names a callable reachable via Apply when the callee
// resolves to an endpoint or text value matching name — the stand-in
// for DATEX's built-in function table.
func (m *Memory) Register(name string, fn Callable) {
	m.callables[name] = fn
}

// SetInternalSlot seeds a runtime-provided value such as ENDPOINT.
func (m *Memory) SetInternalSlot(slotID uint32, c value.Container) {
	m.internals[slotID] = c
}

// Peer registers another Memory as the receiver reachable under an
// endpoint identifier, so RemoteExecute has somewhere to dispatch to
// without a real network.
func (m *Memory) Peer(identifier string, peer *Memory) {
	m.peers[identifier] = peer
}

// SetExecutor overrides how RemoteExecute interprets a dispatched DXB
// fragment against the receiving peer; tests that don't need actual
// remote evaluation can leave this nil and get ErrResponse instead.
func (m *Memory) SetExecutor(fn func(receiver *Memory, dxb []byte) (value.Container, error)) {
	m.execute = fn
}

func (m *Memory) ResolvePointer(addr value.PointerAddress) (value.Container, bool) {
	c, ok := m.pointers[addr.String()]
	return c, ok
}

func (m *Memory) Apply(callee value.Container, args []value.Container) (value.Container, error) {
	resolved := callee.Resolve()

	if applier, ok := resolved.Inner.(value.Type); ok {
		if len(args) != 1 {
			return nil, derr.ErrValue(derr.InvalidOperation, "type cast takes exactly one argument")
		}
		cast, err := applier.Apply(args[0].Resolve())
		if err != nil {
			return nil, err
		}
		return value.Box(cast), nil
	}

	name := resolved.String()
	if fn, ok := m.callables[name]; ok {
		return fn(args)
	}
	return nil, derr.ErrValue(derr.InvalidOperation, "no callable registered for "+name)
}

func (m *Memory) RemoteExecute(receivers value.Container, dxb []byte) (value.Container, error) {
	resolved := receivers.Resolve()
	ep, ok := resolved.Inner.(value.Endpoint)
	if !ok {
		return nil, derr.ErrResponse("remote execution receivers must resolve to an endpoint")
	}
	peer, ok := m.peers[ep.Identifier]
	if !ok {
		return nil, derr.ErrResponse("no peer registered for " + ep.String())
	}
	if m.execute == nil {
		return nil, derr.ErrResponse("no remote executor configured for " + ep.String())
	}
	return m.execute(peer, dxb)
}

func (m *Memory) GetInternalSlot(slotID uint32) (value.Container, error) {
	c, ok := m.internals[slotID]
	if !ok {
		return nil, derr.ErrReferenceNotFound("internal slot not set")
	}
	return c, nil
}
