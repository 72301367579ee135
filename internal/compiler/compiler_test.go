package compiler_test

import (
	"math/big"
	"testing"

	"datex/internal/bytecode"
	"datex/internal/compiler"
	"datex/internal/parser"
	"datex/internal/precompiler"
	"datex/internal/value"
)

// compile runs the full parse -> resolve -> emit -> decode pipeline a
// test needs to exercise the compiler package against real source text,
// the way internal/context wires it end to end.
func compile(t *testing.T, src string) *compiler.Instruction {
	t.Helper()
	result := parser.Parse(src)
	if len(result.Errors) > 0 {
		t.Fatalf("parse errors for %q: %v", src, result.Errors)
	}
	ast := precompiler.New().Run(result.AST)
	body, err := compiler.Compile(ast)
	if err != nil {
		t.Fatalf("compile error for %q: %v", src, err)
	}
	instr, rest, err := compiler.Decode(body.Bytes)
	if err != nil {
		t.Fatalf("decode error for %q: %v", src, err)
	}
	if len(rest) != 0 {
		t.Fatalf("decode left %d trailing bytes for %q", len(rest), src)
	}
	return instr
}

func TestCompileDecodeIntegerLiteral(t *testing.T) {
	instr := compile(t, "42")
	if instr.IntVal == nil || instr.IntVal.Cmp(big.NewInt(42)) != 0 {
		t.Errorf("got IntVal %v, want 42", instr.IntVal)
	}
}

func TestCompileDecodeBigIntegerIsBigEndian(t *testing.T) {
	huge := new(big.Int)
	huge.SetString("123456789012345678901234567890123456789012345678901234567890", 10)
	expr := parser.IntegerExpr{Value: value.Integer{Val: huge, Width: value.WidthBig}}
	instr := compileExpr(t, expr)
	if instr.Op.Code != bytecode.BIG_INTEGER {
		t.Fatalf("expected a BIG_INTEGER opcode for an oversized literal, got %v", instr.Op.Code)
	}
	if instr.IntVal.Cmp(huge) != 0 {
		t.Errorf("got IntVal %v, want %v", instr.IntVal, huge)
	}
}

func compileExpr(t *testing.T, expr parser.Expr) *compiler.Instruction {
	t.Helper()
	body, err := compiler.Compile(expr)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	instr, _, err := compiler.Decode(body.Bytes)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return instr
}

func TestCompileDecodeArithmeticTree(t *testing.T) {
	instr := compile(t, "1 + 2 * 3")
	if instr.Op.Code != bytecode.ADD {
		t.Fatalf("expected top-level ADD, got %v", instr.Op.Code)
	}
	if instr.Left.IntVal.Cmp(big.NewInt(1)) != 0 {
		t.Errorf("left operand = %v, want 1", instr.Left.IntVal)
	}
	if instr.Right.Op.Code != bytecode.MUL {
		t.Fatalf("right operand should be MUL, got %v", instr.Right.Op.Code)
	}
}

func TestCompileDecodeList(t *testing.T) {
	instr := compile(t, "[1, 2, 3]")
	if instr.Op.Code != bytecode.SHORT_LIST && instr.Op.Code != bytecode.LIST {
		t.Fatalf("expected a list opcode, got %v", instr.Op.Code)
	}
	if len(instr.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(instr.Items))
	}
}

func TestCompileDecodeRemoteExecutionInjectsOuterSlot(t *testing.T) {
	instr := compile(t, "const x = 5; @alice :: x + 1")
	stmts := instr
	if stmts.Op.Code != bytecode.SHORT_STATEMENTS && stmts.Op.Code != bytecode.STATEMENTS {
		t.Fatalf("expected a statement sequence, got %v", stmts.Op.Code)
	}
	if len(stmts.Items) != 2 {
		t.Fatalf("expected 2 top-level instructions, got %d", len(stmts.Items))
	}
	remote := stmts.Items[1]
	if remote.Op.Code != bytecode.REMOTE_EXECUTION {
		t.Fatalf("expected REMOTE_EXECUTION, got %v", remote.Op.Code)
	}
	if len(remote.InjectedSlots) != 1 {
		t.Fatalf("expected 1 injected slot, got %v", remote.InjectedSlots)
	}
}

func TestEncodeValueRoundTripsThroughDecode(t *testing.T) {
	b := bytecode.NewBody()
	v := value.NewValue(value.Integer{Val: big.NewInt(99), Width: value.WidthI64})
	if err := compiler.EncodeValue(b, v); err != nil {
		t.Fatalf("EncodeValue failed: %v", err)
	}
	instr, rest, err := compiler.Decode(b.Bytes)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(rest) != 0 {
		t.Fatalf("decode left %d trailing bytes", len(rest))
	}
	if instr.IntVal.Cmp(big.NewInt(99)) != 0 {
		t.Errorf("got IntVal %v, want 99", instr.IntVal)
	}
}
