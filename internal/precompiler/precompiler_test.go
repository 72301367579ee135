package precompiler_test

import (
	"testing"

	derr "datex/internal/errors"
	"datex/internal/parser"
	"datex/internal/precompiler"
)

func run(t *testing.T, src string) (parser.Expr, *precompiler.Precompiler) {
	t.Helper()
	result := parser.Parse(src)
	if len(result.Errors) > 0 {
		t.Fatalf("parse errors for %q: %v", src, result.Errors)
	}
	p := precompiler.New()
	return p.Run(result.AST), p
}

func declarationMetadata(t *testing.T, ast parser.Expr, p *precompiler.Precompiler, name string) *precompiler.VariableMetadata {
	t.Helper()
	stmts, ok := ast.(parser.StatementsExpr)
	if !ok {
		t.Fatalf("expected StatementsExpr, got %#v", ast)
	}
	for _, st := range stmts.Statements {
		decl, ok := st.Expr.(parser.VariableDeclarationExpr)
		if ok && decl.Name == name {
			return p.Metadata.Variables[*decl.ID]
		}
	}
	t.Fatalf("no declaration named %q found", name)
	return nil
}

func TestInferBinaryOpJoinsIntegerIntegerToInteger(t *testing.T) {
	ast, p := run(t, "const x = 1 + 2; x")
	meta := declarationMetadata(t, ast, p, "x")
	te, ok := meta.InferredType.(parser.TypeExpr)
	if !ok || te.Name != "integer" {
		t.Errorf("inferred type = %#v, want integer", meta.InferredType)
	}
	if len(p.Errors) != 0 {
		t.Errorf("unexpected errors: %v", p.Errors)
	}
}

func TestInferBinaryOpJoinsDecimalDecimalToDecimal(t *testing.T) {
	ast, p := run(t, "const x = 1.5 + 2.5; x")
	meta := declarationMetadata(t, ast, p, "x")
	te, ok := meta.InferredType.(parser.TypeExpr)
	if !ok || te.Name != "decimal" {
		t.Errorf("inferred type = %#v, want decimal", meta.InferredType)
	}
}

func TestInferBinaryOpMismatchIsCompilerError(t *testing.T) {
	_, p := run(t, "const x = 1 + 1.5;")
	if len(p.Errors) == 0 {
		t.Fatal("expected a compiler error for mismatched operand types")
	}
	found := false
	for _, e := range p.Errors {
		if e.Kind == derr.MismatchedOperandTypes {
			found = true
		}
	}
	if !found {
		t.Errorf("errors = %v, want a MismatchedOperandTypes entry", p.Errors)
	}
}

func TestRemoteExecutionCapturesOuterSlot(t *testing.T) {
	ast, _ := run(t, "const x = 5; @alice :: x + 1")
	stmts, ok := ast.(parser.StatementsExpr)
	if !ok || len(stmts.Statements) != 2 {
		t.Fatalf("expected two top-level statements, got %#v", ast)
	}
	decl := stmts.Statements[0].Expr.(parser.VariableDeclarationExpr)
	rexec, ok := stmts.Statements[1].Expr.(parser.RemoteExecutionExpr)
	if !ok {
		t.Fatalf("expected RemoteExecutionExpr, got %#v", stmts.Statements[1].Expr)
	}
	if len(rexec.InjectedSlots) != 1 || rexec.InjectedSlots[0] != *decl.ID {
		t.Errorf("InjectedSlots = %v, want [%d]", rexec.InjectedSlots, *decl.ID)
	}
}

func TestRemoteExecutionDoesNotCaptureOwnLocals(t *testing.T) {
	ast, _ := run(t, "@alice :: (const y = 1; y + 1)")
	rexec, ok := ast.(parser.RemoteExecutionExpr)
	if !ok {
		t.Fatalf("expected RemoteExecutionExpr, got %#v", ast)
	}
	if len(rexec.InjectedSlots) != 0 {
		t.Errorf("InjectedSlots = %v, want none (y is declared inside the body)", rexec.InjectedSlots)
	}
}
