package boundary_test

import (
	"math/big"
	"testing"

	"datex/internal/boundary"
	"datex/internal/value"
)

func TestMemoryResolvePointer(t *testing.T) {
	mem := boundary.NewMemory()
	addr, err := value.DeriveAddress(value.LocalAddress, []byte("seed"), 0)
	if err != nil {
		t.Fatalf("DeriveAddress failed: %v", err)
	}
	want := value.ValueOf(value.Integer{Val: big.NewInt(5), Width: value.WidthI64})
	mem.SetPointer(addr, want)

	got, ok := mem.ResolvePointer(addr)
	if !ok {
		t.Fatal("expected pointer to resolve")
	}
	if got.Resolve().Inner.(value.Integer).Val.Cmp(big.NewInt(5)) != 0 {
		t.Errorf("got %v, want 5", got.Resolve().Inner)
	}

	other, err := value.DeriveAddress(value.LocalAddress, []byte("seed"), 1)
	if err != nil {
		t.Fatalf("DeriveAddress failed: %v", err)
	}
	if _, ok := mem.ResolvePointer(other); ok {
		t.Error("expected an unregistered address to not resolve")
	}
}

func TestMemoryApplyCallable(t *testing.T) {
	mem := boundary.NewMemory()
	mem.Register("double", func(args []value.Container) (value.Container, error) {
		i := args[0].Resolve().Inner.(value.Integer)
		sum, err := i.Add(i)
		if err != nil {
			return nil, err
		}
		return value.ValueOf(sum), nil
	})
	result, err := mem.Apply(value.ValueOf(value.Text("double")), []value.Container{
		value.ValueOf(value.Integer{Val: big.NewInt(21), Width: value.WidthI64}),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := result.Resolve().Inner.(value.Integer).Val; got.Cmp(big.NewInt(42)) != 0 {
		t.Errorf("double(21) = %v, want 42", got)
	}
}

func TestMemoryApplyUnregisteredCallable(t *testing.T) {
	mem := boundary.NewMemory()
	_, err := mem.Apply(value.ValueOf(value.Text("missing")), nil)
	if err == nil {
		t.Error("expected an error for an unregistered callable")
	}
}

func TestMemoryRemoteExecuteRoundTrip(t *testing.T) {
	local := boundary.NewMemory()
	remote := boundary.NewMemory()
	remoteEndpoint := value.NewEndpoint("remote")
	local.Peer(remoteEndpoint.Identifier, remote)

	var received []byte
	local.SetExecutor(func(receiver *boundary.Memory, dxb []byte) (value.Container, error) {
		received = dxb
		return value.ValueOf(value.Boolean(true)), nil
	})

	result, err := local.RemoteExecute(value.ValueOf(remoteEndpoint), []byte{0x01, 0x02})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b, ok := result.Resolve().Inner.(value.Boolean); !ok || !bool(b) {
		t.Errorf("expected true, got %#v", result.Resolve().Inner)
	}
	if len(received) != 2 {
		t.Errorf("executor received %d bytes, want 2", len(received))
	}
}

func TestMemoryRemoteExecuteUnknownPeer(t *testing.T) {
	mem := boundary.NewMemory()
	_, err := mem.RemoteExecute(value.ValueOf(value.NewEndpoint("ghost")), nil)
	if err == nil {
		t.Error("expected an error for an unregistered peer")
	}
}

func TestMemoryInternalSlot(t *testing.T) {
	mem := boundary.NewMemory()
	self := value.NewEndpoint("self")
	mem.SetInternalSlot(boundary.SlotEndpoint, value.ValueOf(self))

	got, err := mem.GetInternalSlot(boundary.SlotEndpoint)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ep, ok := got.Resolve().Inner.(value.Endpoint); !ok || !ep.Equal(self) {
		t.Errorf("got %#v, want %v", got.Resolve().Inner, self)
	}

	if _, err := mem.GetInternalSlot(99); err == nil {
		t.Error("expected an error for an unset internal slot")
	}
}
