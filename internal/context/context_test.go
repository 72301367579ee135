package context

import (
	"context"
	"math/big"
	"testing"

	"datex/internal/boundary"
	"datex/internal/compiler"
	"datex/internal/value"
	"datex/internal/vm"
)

func intResult(t *testing.T, c value.Container) *big.Int {
	t.Helper()
	i, ok := c.Resolve().Inner.(value.Integer)
	if !ok {
		t.Fatalf("expected an integer result, got %#v", c.Resolve().Inner)
	}
	return i.Val
}

func TestExecuteSyncArithmetic(t *testing.T) {
	ec := New(nil, ExecutionOptions{})
	result, err := ec.ExecuteSync("1 + 2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := intResult(t, result); got.Cmp(big.NewInt(3)) != 0 {
		t.Errorf("1 + 2 = %v, want 3", got)
	}
}

func TestExecuteSyncSlotPersistsAcrossCalls(t *testing.T) {
	ec := New(nil, ExecutionOptions{})
	if _, err := ec.ExecuteSync("const x: integer = 1 + 2;"); err != nil {
		t.Fatalf("declaration failed: %v", err)
	}
	result, err := ec.ExecuteSync("x")
	if err != nil {
		t.Fatalf("reading x in a later call failed: %v", err)
	}
	if got := intResult(t, result); got.Cmp(big.NewInt(3)) != 0 {
		t.Errorf("x = %v, want 3", got)
	}
}

func TestExecuteSyncMutableReference(t *testing.T) {
	ec := New(nil, ExecutionOptions{})
	result, err := ec.ExecuteSync("const x = &mut 42; *x += 1; *x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := intResult(t, result); got.Cmp(big.NewInt(43)) != 0 {
		t.Errorf("*x = %v, want 43", got)
	}
}

func TestExecuteSyncListLiteral(t *testing.T) {
	ec := New(nil, ExecutionOptions{})
	result, err := ec.ExecuteSync("[1, (2 + 3), 4]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	list, ok := result.Resolve().Inner.(*value.List)
	if !ok {
		t.Fatalf("expected a list, got %#v", result.Resolve().Inner)
	}
	want := []int64{1, 5, 4}
	if len(list.Items) != len(want) {
		t.Fatalf("list has %d items, want %d", len(list.Items), len(want))
	}
	for i, item := range list.Items {
		if got := intResult(t, item); got.Cmp(big.NewInt(want[i])) != 0 {
			t.Errorf("item %d = %v, want %d", i, got, want[i])
		}
	}
}

func TestExecuteSyncComparisons(t *testing.T) {
	ec := New(nil, ExecutionOptions{})

	structuralEq, err := ec.ExecuteSync("1 === 1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b, ok := structuralEq.Resolve().Inner.(value.Boolean); !ok || !bool(b) {
		t.Errorf("1 === 1 should be true, got %#v", structuralEq.Resolve().Inner)
	}

	identity, err := ec.ExecuteSync("1 is 1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b, ok := identity.Resolve().Inner.(value.Boolean); !ok || bool(b) {
		t.Errorf("1 is 1 should be false (not the same reference), got %#v", identity.Resolve().Inner)
	}
}

func TestExecuteAsyncDeliversResult(t *testing.T) {
	ec := New(nil, ExecutionOptions{})
	ch := ec.ExecuteAsync(context.Background(), "10 / 2")
	res, ok := <-ch
	if !ok {
		t.Fatal("channel closed before delivering a result")
	}
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if got := intResult(t, res.Value); got.Cmp(big.NewInt(5)) != 0 {
		t.Errorf("10 / 2 = %v, want 5", got)
	}
}

func TestExecuteSyncDistinctContextsDoNotShareSlots(t *testing.T) {
	a := New(nil, ExecutionOptions{})
	b := New(nil, ExecutionOptions{})
	if _, err := a.ExecuteSync("const x: integer = 7;"); err != nil {
		t.Fatalf("declaration in context a failed: %v", err)
	}
	if _, err := b.ExecuteSync("x"); err == nil {
		t.Error("expected context b to not see context a's binding")
	}
}

func TestContextAddressAllocatorMintsDistinctAddresses(t *testing.T) {
	ec := New(nil, ExecutionOptions{})
	first := ec.nextLocalAddress()
	second := ec.nextLocalAddress()
	if first == nil || second == nil {
		t.Fatal("expected non-nil derived addresses")
	}
	if first.Equal(*second) {
		t.Error("successive allocations should mint distinct addresses")
	}
}

// relayOracle is a minimal boundary.Oracle that simply executes any
// dispatched fragment against its own Memory, exercising RemoteContext's
// delegation path without a real network endpoint.
type relayOracle struct {
	mem *boundary.Memory
}

func (r *relayOracle) ResolvePointer(addr value.PointerAddress) (value.Container, bool) {
	return r.mem.ResolvePointer(addr)
}
func (r *relayOracle) Apply(callee value.Container, args []value.Container) (value.Container, error) {
	return r.mem.Apply(callee, args)
}
func (r *relayOracle) RemoteExecute(receivers value.Container, dxb []byte) (value.Container, error) {
	return r.mem.RemoteExecute(receivers, dxb)
}
func (r *relayOracle) GetInternalSlot(slotID uint32) (value.Container, error) {
	return r.mem.GetInternalSlot(slotID)
}

func TestRemoteContextDelegatesToOracle(t *testing.T) {
	mem := boundary.NewMemory()
	self := value.Endpoint{Identifier: "relay"}
	mem.SetExecutor(func(receiver *boundary.Memory, dxb []byte) (value.Container, error) {
		instr, _, err := compiler.Decode(dxb)
		if err != nil {
			return nil, err
		}
		return vm.New(&relayOracle{mem: receiver}).Execute(instr)
	})
	mem.Peer(self.Identifier, mem)

	rc := NewRemote(&relayOracle{mem: mem}, self)
	result, err := rc.ExecuteSync("3 * 4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := intResult(t, result); got.Cmp(big.NewInt(12)) != 0 {
		t.Errorf("3 * 4 = %v, want 12", got)
	}
}
