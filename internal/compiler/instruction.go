// Package compiler turns a resolved AST (post-precompiler) into a DXB
// byte stream and decodes DXB back into an instruction tree (spec.md
// §4.E). The emitter writes bytes directly; the Instruction tree below
// is the decoder's output only, tagged directly by bytecode.OpCode
// rather than a second parallel enum.
package compiler

import (
	"math/big"

	"datex/internal/bytecode"
	"datex/internal/value"
)

// MapEntry is one key/value pair of a decoded MAP/SHORT_MAP instruction.
type MapEntry struct {
	Key   *Instruction
	Value *Instruction
}

// TupleEntry mirrors parser.TupleEntry at the instruction level: Key is
// nil for a bare positional entry.
type TupleEntry struct {
	Key   *Instruction
	Value *Instruction
}

// Instruction is one decoded (or about-to-be-emitted) DXB node. It is
// tagged by the same bytecode.OpCode the wire format uses, so adding an
// opcode never requires a second switch to stay in sync — the scalar
// and child fields below are simply the ones that opcode's payload
// uses; every other field stays zero.
type Instruction struct {
	Op OpCodeOrType

	// scalar payloads
	Bool         bool
	IntVal       *big.Int
	IntWidth     value.IntWidth
	HasIntWidth  bool
	DecVal       *value.Decimal
	TypedDecVal  *value.TypedDecimal
	Text         string
	SlotAddr     uint32
	AssignOp     AssignOp
	Endpoint     value.Endpoint
	PointerAddr  value.PointerAddress
	Terminated   bool
	InjectedSlots []uint32
	RemoteBody   []byte

	// child nodes
	Left, Right *Instruction
	Operand     *Instruction
	Target      *Instruction
	Value       *Instruction
	Callee      *Instruction
	Args        []*Instruction
	Items       []*Instruction
	Entries     []MapEntry
	TupleEntries []TupleEntry
	HasElse     bool

	// type-instruction payload, set only when Op.Code is TYPE_EXPRESSION
	TypeInstr *TypeInstruction
}

// OpCodeOrType lets an Instruction carry either a regular-space opcode
// or mark itself as the TYPE_EXPRESSION wrapper; the wrapper's own Op is
// always bytecode.TYPE_EXPRESSION and its payload lives in TypeInstr.
type OpCodeOrType struct {
	Code bytecode.OpCode
}

func Op(code bytecode.OpCode) OpCodeOrType { return OpCodeOrType{Code: code} }

// AssignOp mirrors parser.AssignmentOperator at the instruction level
// (compound-assignment opcodes carry this as a one-byte payload).
type AssignOp byte

const (
	AssignSet AssignOp = iota
	AssignAdd
	AssignSub
	AssignMul
	AssignDiv
)

// TypeInstruction is one decoded node in the parallel type-instruction
// space (spec.md §4.E point 9), tagged by bytecode.TypeOpCode the same
// way Instruction is tagged by bytecode.OpCode.
type TypeInstruction struct {
	Op TypeOpWrap

	IntWidth    int8
	DecWidth    int8
	Name        string
	PointerAddr value.PointerAddress
	LiteralInt  *big.Int

	Left, Right *TypeInstruction
	Element     *TypeInstruction
	Base        *TypeInstruction
	Params      []*TypeInstruction
	Entries     []TypeFieldEntry
	ImplAddrs   []value.PointerAddress
}

type TypeOpWrap struct {
	Code bytecode.TypeOpCode
}

func TOp(code bytecode.TypeOpCode) TypeOpWrap { return TypeOpWrap{Code: code} }

// TypeFieldEntry is one (name, type) or (key type, value type) pair of a
// T_STRUCT/T_MAP type instruction.
type TypeFieldEntry struct {
	Name string // set for T_STRUCT; empty (use Key) for T_MAP
	Key  *TypeInstruction
	Type *TypeInstruction
}
