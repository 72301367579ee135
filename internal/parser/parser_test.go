package parser

import "testing"

func parseOK(t *testing.T, input string) Expr {
	t.Helper()
	result := Parse(input)
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected parse errors for %q: %v", input, result.Errors)
	}
	return result.AST
}

func TestParseLiterals(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  ExprKind
	}{
		{"null", "null", KNull},
		{"true", "true", KBoolean},
		{"false", "false", KBoolean},
		{"string", `"hello"`, KText},
		{"integer", "42", KInteger},
		{"hex integer", "0xFF", KInteger},
		{"binary integer", "0b101", KInteger},
		{"octal integer", "0o17", KInteger},
		{"decimal", "1.5", KDecimal},
		{"typed decimal", "1.5f32", KDecimal},
		{"fraction", "1/3", KDecimal},
		{"nan", "nan", KDecimal},
		{"infinity", "infinity", KDecimal},
		{"endpoint", "@alice", KEndpoint},
		{"placeholder", "?", KPlaceholder},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ast := parseOK(t, tc.input)
			if ast.Kind() != tc.kind {
				t.Errorf("%s: got kind %v, want %v", tc.input, ast.Kind(), tc.kind)
			}
		})
	}
}

func TestParseArrayAndObjectLiterals(t *testing.T) {
	ast := parseOK(t, `[1, 2, 3]`)
	arr, ok := ast.(ArrayExpr)
	if !ok || len(arr.Elements) != 3 {
		t.Fatalf("expected 3-element array, got %#v", ast)
	}

	ast = parseOK(t, `{x: 1, "y": 2}`)
	obj, ok := ast.(ObjectExpr)
	if !ok || len(obj.Entries) != 2 {
		t.Fatalf("expected 2-entry object, got %#v", ast)
	}
	if key, ok := obj.Entries[0].Key.(TextExpr); !ok || key.Value != "x" {
		t.Errorf("bare identifier key should become a string key, got %#v", obj.Entries[0].Key)
	}
}

func TestParseTupleCanonicalization(t *testing.T) {
	// All surface forms of a tuple fold to the same TupleExpr shape
	// (spec.md §9 open question).
	for _, input := range []string{"(1, 2)", "(1, x: 2)"} {
		ast := parseOK(t, input)
		if ast.Kind() != KTuple {
			t.Errorf("%s: expected tuple, got %v", input, ast.Kind())
		}
	}
}

func TestParseBinaryAndComparisonPrecedence(t *testing.T) {
	// `*` binds tighter than `+` (spec.md §4.C binding-power table).
	ast := parseOK(t, "1 + 2 * 3")
	bin, ok := ast.(BinaryOpExpr)
	if !ok || bin.Op != OpAdd {
		t.Fatalf("expected top-level add, got %#v", ast)
	}
	rhs, ok := bin.Right.(BinaryOpExpr)
	if !ok || rhs.Op != OpMul {
		t.Fatalf("expected right operand to be a mul, got %#v", bin.Right)
	}
}

func TestParsePropertyAccessAsStringKey(t *testing.T) {
	ast := parseOK(t, "foo.bar")
	chain, ok := ast.(ApplyChainExpr)
	if !ok || len(chain.Chain) != 1 {
		t.Fatalf("expected a one-step apply chain, got %#v", ast)
	}
	key, ok := chain.Chain[0].Key.(TextExpr)
	if !ok || key.Value != "bar" {
		t.Errorf("foo.bar should read bar as a string key, got %#v", chain.Chain[0].Key)
	}
}

func TestParseApplyJuxtaposition(t *testing.T) {
	ast := parseOK(t, "foo(1, 2)")
	chain, ok := ast.(ApplyChainExpr)
	if !ok || len(chain.Chain) != 1 || !chain.Chain[0].IsCall {
		t.Fatalf("expected a one-step call chain, got %#v", ast)
	}
	if len(chain.Chain[0].Args) != 2 {
		t.Errorf("expected 2 call arguments, got %d", len(chain.Chain[0].Args))
	}
}

func TestParseVariableDeclaration(t *testing.T) {
	ast := parseOK(t, "const x = 5")
	decl, ok := ast.(VariableDeclarationExpr)
	if !ok {
		t.Fatalf("expected VariableDeclarationExpr, got %#v", ast)
	}
	if decl.VarKind != VarConst || decl.Name != "x" {
		t.Errorf("unexpected declaration fields: %#v", decl)
	}

	ast = parseOK(t, "var y: integer/u8 = 1")
	decl, ok = ast.(VariableDeclarationExpr)
	if !ok || decl.VarKind != VarVar || decl.DeclaredType == nil {
		t.Fatalf("expected typed var declaration, got %#v", ast)
	}
}

func TestParseSlotAssignment(t *testing.T) {
	ast := parseOK(t, "#0 = 5")
	assign, ok := ast.(SlotAssignmentExpr)
	if !ok || !assign.Slot.Addressed || assign.Slot.Address != 0 {
		t.Fatalf("expected slot assignment to slot 0, got %#v", ast)
	}
}

func TestParseRemoteExecution(t *testing.T) {
	ast := parseOK(t, "@alice :: 1 + 1")
	rexec, ok := ast.(RemoteExecutionExpr)
	if !ok {
		t.Fatalf("expected RemoteExecutionExpr, got %#v", ast)
	}
	if _, ok := rexec.Receivers.(EndpointExpr); !ok {
		t.Errorf("expected endpoint receiver, got %#v", rexec.Receivers)
	}
}

func TestParseStatementsSequence(t *testing.T) {
	ast := parseOK(t, "1; 2; 3")
	stmts, ok := ast.(StatementsExpr)
	if !ok || len(stmts.Statements) != 3 {
		t.Fatalf("expected 3 statements, got %#v", ast)
	}
}

func TestParseSingleUnterminatedStatementUnwraps(t *testing.T) {
	ast := parseOK(t, "42")
	if ast.Kind() != KInteger {
		t.Fatalf("a single unterminated statement should unwrap directly, got %#v", ast)
	}
}

func TestParseRecoversFromError(t *testing.T) {
	result := Parse("let 1 2 3; 5 + 5")
	if len(result.Errors) == 0 {
		t.Fatalf("expected at least one recoverable error")
	}
	if result.Valid {
		t.Errorf("Valid should be false when errors were recorded")
	}
}

func TestParseTypeDeclaration(t *testing.T) {
	ast := parseOK(t, "type Point = {x: integer, y: integer}")
	decl, ok := ast.(TypeDeclarationExpr)
	if !ok || decl.Name != "Point" {
		t.Fatalf("expected TypeDeclarationExpr named Point, got %#v", ast)
	}
	te, ok := decl.Type.(TypeExpr)
	if !ok || te.TypeKind != TEStruct || len(te.Entries) != 2 {
		t.Fatalf("expected a 2-field struct type, got %#v", decl.Type)
	}
}

func TestParseIfExpression(t *testing.T) {
	ast := parseOK(t, "if true 1 else 2")
	ifExpr, ok := ast.(IfExpr)
	if !ok || ifExpr.Else == nil {
		t.Fatalf("expected IfExpr with an else branch, got %#v", ast)
	}
}
