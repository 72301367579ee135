package vm

import (
	"math/big"
	"strings"
	"testing"

	"datex/internal/boundary"
	"datex/internal/bytecode"
	"datex/internal/compiler"
	"datex/internal/value"
)

func intLiteral(n int64) *compiler.Instruction {
	return &compiler.Instruction{Op: compiler.Op(bytecode.INT_64), IntVal: big.NewInt(n), IntWidth: value.WidthI64}
}

func mustInt(t *testing.T, c value.Container) *big.Int {
	t.Helper()
	i, ok := c.Resolve().Inner.(value.Integer)
	if !ok {
		t.Fatalf("expected integer result, got %#v", c.Resolve().Inner)
	}
	return i.Val
}

func TestMachineTraceEmitsPushPopLines(t *testing.T) {
	m := New(nil)
	var lines []string
	m.Trace = func(msg string) { lines = append(lines, msg) }
	instr := &compiler.Instruction{Op: compiler.Op(bytecode.NEGATE), Operand: intLiteral(5)}
	if _, err := m.Execute(instr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Execute's own FramePlain push/pop plus NEGATE's FrameUnaryOperation
	// push/pop: 4 lines total.
	if len(lines) != 4 {
		t.Fatalf("got %d trace lines, want 4: %v", len(lines), lines)
	}
	if !strings.Contains(lines[0], "enter") || !strings.Contains(lines[0], "#1") {
		t.Errorf("first trace line = %q, want an enter line carrying sequence #1", lines[0])
	}
	if !strings.Contains(lines[len(lines)-1], "leave") {
		t.Errorf("last trace line = %q, want a leave line", lines[len(lines)-1])
	}
}

func TestEvalArithmetic(t *testing.T) {
	m := New(nil)
	instr := &compiler.Instruction{Op: compiler.Op(bytecode.ADD), Left: intLiteral(1), Right: intLiteral(2)}
	result, err := m.Execute(instr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := mustInt(t, result); got.Cmp(big.NewInt(3)) != 0 {
		t.Errorf("1 + 2 = %v, want 3", got)
	}
}

func TestEvalSlotAllocateSetGet(t *testing.T) {
	m := New(nil)
	statements := &compiler.Instruction{
		Op: compiler.Op(bytecode.SHORT_STATEMENTS),
		Items: []*compiler.Instruction{
			{Op: compiler.Op(bytecode.ALLOCATE_SLOT), SlotAddr: 0},
			{Op: compiler.Op(bytecode.SET_SLOT), SlotAddr: 0, Value: intLiteral(42)},
			{Op: compiler.Op(bytecode.GET_SLOT), SlotAddr: 0},
		},
		Terminated: false,
	}
	result, err := m.Execute(statements)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := mustInt(t, result); got.Cmp(big.NewInt(42)) != 0 {
		t.Errorf("slot 0 = %v, want 42", got)
	}
}

func getSlot(addr uint32) *compiler.Instruction {
	return &compiler.Instruction{Op: compiler.Op(bytecode.GET_SLOT), SlotAddr: addr}
}

func deref(operand *compiler.Instruction) *compiler.Instruction {
	return &compiler.Instruction{Op: compiler.Op(bytecode.DEREF), Operand: operand}
}

func TestEvalCreateRefAndAssign(t *testing.T) {
	m := New(nil)
	createRef := &compiler.Instruction{Op: compiler.Op(bytecode.CREATE_REF_MUT), Operand: intLiteral(42)}
	assign := &compiler.Instruction{
		Op:       compiler.Op(bytecode.ASSIGN_TO_REFERENCE),
		Target:   getSlot(0),
		Value:    intLiteral(1),
		AssignOp: compiler.AssignAdd,
	}
	statements := &compiler.Instruction{
		Op: compiler.Op(bytecode.SHORT_STATEMENTS),
		Items: []*compiler.Instruction{
			{Op: compiler.Op(bytecode.ALLOCATE_SLOT), SlotAddr: 0},
			{Op: compiler.Op(bytecode.SET_SLOT), SlotAddr: 0, Value: createRef},
			assign,
			deref(getSlot(0)),
		},
	}
	result, err := m.Execute(statements)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := mustInt(t, result); got.Cmp(big.NewInt(43)) != 0 {
		t.Errorf("*x after += 1 = %v, want 43", got)
	}
}

func TestEvalApplySingleApplier(t *testing.T) {
	m := New(nil)
	textType := &compiler.Instruction{
		Op:        compiler.Op(bytecode.TYPE_EXPRESSION),
		TypeInstr: &compiler.TypeInstruction{Op: compiler.TOp(bytecode.T_TEXT)},
	}
	instr := &compiler.Instruction{
		Op:     compiler.Op(bytecode.APPLY),
		Callee: textType,
		Args:   []*compiler.Instruction{intLiteral(7)},
	}
	result, err := m.Execute(instr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := result.Resolve().Inner.(value.Text); !ok {
		t.Errorf("casting 7 to text should produce a Text value, got %#v", result.Resolve().Inner)
	}
}

func TestEvalRemoteExecutionDelegatesToOracle(t *testing.T) {
	mem := boundary.NewMemory()
	self := value.NewEndpoint("peer")
	mem.Peer(self.Identifier, mem)
	mem.SetExecutor(func(receiver *boundary.Memory, dxb []byte) (value.Container, error) {
		instr, _, err := compiler.Decode(dxb)
		if err != nil {
			return nil, err
		}
		return New(&memOracle{mem: receiver}).Execute(instr)
	})

	m := New(&memOracle{mem: mem})
	frag := bytecode.NewBody()
	if err := compiler.EncodeValue(frag, value.NewValue(value.Integer{Val: big.NewInt(9), Width: value.WidthI64})); err != nil {
		t.Fatalf("encoding injected slot failed: %v", err)
	}
	instr := &compiler.Instruction{
		Op:         compiler.Op(bytecode.REMOTE_EXECUTION),
		Target:     &compiler.Instruction{Op: compiler.Op(bytecode.ENDPOINT), Endpoint: self},
		RemoteBody: frag.Bytes,
	}
	result, err := m.Execute(instr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := mustInt(t, result); got.Cmp(big.NewInt(9)) != 0 {
		t.Errorf("remote result = %v, want 9", got)
	}
}

type memOracle struct {
	mem *boundary.Memory
}

func (o *memOracle) ResolvePointer(addr value.PointerAddress) (value.Container, bool) {
	return o.mem.ResolvePointer(addr)
}
func (o *memOracle) Apply(callee value.Container, args []value.Container) (value.Container, error) {
	return o.mem.Apply(callee, args)
}
func (o *memOracle) RemoteExecute(receivers value.Container, dxb []byte) (value.Container, error) {
	return o.mem.RemoteExecute(receivers, dxb)
}
func (o *memOracle) GetInternalSlot(slotID uint32) (value.Container, error) {
	return o.mem.GetInternalSlot(slotID)
}
