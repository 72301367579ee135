package precompiler

import (
	derr "datex/internal/errors"
	"datex/internal/parser"
)

// inferVariableDeclarationType infers the static type of a declaration's
// init expression and records it as the variable's InferredType (spec.md
// §4.D), grounded on original_source's infer_expression_type handling of
// VariableDeclaration. A declared type annotation still wins at runtime;
// this pass only fills in what the precompiler can tell statically.
func (p *Precompiler) inferVariableDeclarationType(e parser.VariableDeclarationExpr, id uint32) {
	t := p.inferExprType(e.Value)
	if t == nil {
		return
	}
	if meta, ok := p.Metadata.Variables[id]; ok {
		meta.InferredType = t
	}
}

// inferExprType infers expr's static type where possible, returning nil
// when the expression isn't one this pass can reason about yet (matching
// original_source's "other expressions not handled yet" fallback).
func (p *Precompiler) inferExprType(expr parser.Expr) parser.Expr {
	switch e := expr.(type) {
	case parser.NullExpr:
		return typeIdent("null")
	case parser.BooleanExpr:
		return typeIdent("boolean")
	case parser.TextExpr:
		return typeIdent("text")
	case parser.IntegerExpr:
		return typeIdent("integer")
	case parser.DecimalExpr:
		return typeIdent("decimal")
	case parser.EndpointExpr:
		return typeIdent("endpoint")

	case parser.VariableExpr:
		if e.ID == nil {
			return nil
		}
		meta, ok := p.Metadata.Variables[*e.ID]
		if !ok {
			return nil
		}
		if meta.InferredType != nil {
			return meta.InferredType
		}
		return meta.DeclaredType

	case parser.RefExpr:
		return p.inferExprType(e.Operand)
	case parser.RefMutExpr:
		return p.inferExprType(e.Operand)

	case parser.BinaryOpExpr:
		return p.inferBinaryOpType(e)

	case parser.VariableDeclarationExpr:
		return p.inferExprType(e.Value)

	default:
		return nil
	}
}

// inferBinaryOpType is the join-type rule for arithmetic operators
// (spec.md §4.D), grounded on infer_binary_expression_type: integer op
// integer joins to integer, decimal op decimal joins to decimal, any
// other pairing of statically-known types is a MismatchedOperandTypes
// error. An operand whose type this pass can't determine yet is left
// unchecked rather than flagged, matching the original's treatment of
// untyped results as "nothing to compare".
func (p *Precompiler) inferBinaryOpType(e parser.BinaryOpExpr) parser.Expr {
	lhs := typeIdentName(p.inferExprType(e.Left))
	rhs := typeIdentName(p.inferExprType(e.Right))

	switch {
	case lhs == "integer" && rhs == "integer":
		return typeIdent("integer")
	case lhs == "decimal" && rhs == "decimal":
		return typeIdent("decimal")
	case lhs == "" || rhs == "":
		return nil
	default:
		p.Errors = append(p.Errors, derr.NewCompilerError(derr.MismatchedOperandTypes, derr.Span{},
			"mismatched operand types in binary operation: "+lhs+" vs "+rhs))
		return nil
	}
}

func typeIdent(name string) parser.Expr {
	return parser.TypeExpr{TypeKind: parser.TEIdentifier, Name: name}
}

func typeIdentName(t parser.Expr) string {
	te, ok := t.(parser.TypeExpr)
	if !ok || te.TypeKind != parser.TEIdentifier {
		return ""
	}
	return te.Name
}
