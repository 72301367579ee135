package parser

import (
	derr "datex/internal/errors"
	"datex/internal/lexer"
)

// typeInfixBindingPower is the type-expression side of spec.md §4.C's
// binding-power table: `&`=1,2 `|`=3,4 `+`=5,6 `/`=7,8 `.`=9,10.
func typeInfixBindingPower(k lexer.TokenKind) (left, right int, ok bool) {
	switch k {
	case lexer.Ampersand:
		return 1, 2, true
	case lexer.Pipe:
		return 3, 4, true
	case lexer.Plus:
		return 5, 6, true
	case lexer.Slash:
		return 7, 8, true
	case lexer.Dot:
		return 9, 10, true
	default:
		return 0, 0, false
	}
}

// parseTypeExpr is the Pratt engine for type expressions: identifiers
// (with optional `<...>` generic parameters), struct/map/tuple/array
// literal shapes, and the `&`/`|`/`+`/`/`/`.` combinators.
func (p *Parser) parseTypeExpr(minBP int) Expr {
	left := p.typeAtom()
	for {
		kind := p.peekKind()
		lbp, rbp, ok := typeInfixBindingPower(kind)
		if !ok || lbp < minBP {
			break
		}
		p.advance()
		right := p.parseTypeExpr(rbp)
		left = p.combineTypeInfix(kind, left, right)
	}
	return left
}

func (p *Parser) combineTypeInfix(kind lexer.TokenKind, left, right Expr) Expr {
	switch kind {
	case lexer.Ampersand:
		return TypeExpr{TypeKind: TEIntersection, Left: left, Right: right}
	case lexer.Pipe:
		return TypeExpr{TypeKind: TEUnion, Left: left, Right: right}
	case lexer.Plus:
		return TypeExpr{TypeKind: TEInterface, Left: left, Right: right}
	case lexer.Slash:
		return TypeExpr{TypeKind: TEVariant, Left: left, Right: right}
	case lexer.Dot:
		return TypeExpr{TypeKind: TEMember, Left: left, Right: right}
	default:
		return TypeExpr{TypeKind: TEIdentifier}
	}
}

func (p *Parser) typeAtom() Expr {
	switch p.peekKind() {
	case lexer.Identifier:
		tok := p.advance()
		base := TypeExpr{TypeKind: TEIdentifier, Name: tok.Token.Lexeme}
		if p.check(lexer.LeftAngle) {
			return p.typeGeneric(base)
		}
		return base
	case lexer.LeftBracket:
		return p.typeArray()
	case lexer.LeftCurly:
		return p.typeStruct()
	case lexer.LeftParen:
		return p.typeTuple()
	default:
		tok := p.peek()
		p.errorAt(tok.Span, derr.UnexpectedToken, "expected a type")
		return InvalidExpr{}
	}
}

// typeGeneric parses `Name<T, U, ...>` (spec.md §4.C's generic-parameter
// form — the reason plain `<` can't be resolved on the value-expression
// side without a speculative parse).
func (p *Parser) typeGeneric(base Expr) Expr {
	p.advance() // '<'
	var params []Expr
	for !p.check(lexer.RightAngle) && !p.atEnd() {
		params = append(params, p.parseTypeExpr(0))
		if !p.match(lexer.Comma) {
			break
		}
	}
	p.expect(lexer.RightAngle, ">")
	return TypeExpr{TypeKind: TEGeneric, Base: base, Params: params}
}

func (p *Parser) typeArray() Expr {
	p.advance() // '['
	elem := p.parseTypeExpr(0)
	p.expect(lexer.RightBracket, "]")
	return TypeExpr{TypeKind: TEArray, Element: elem}
}

func (p *Parser) typeStruct() Expr {
	p.advance() // '{'
	var entries []TypeExprEntry
	for !p.check(lexer.RightCurly) && !p.atEnd() {
		name, ok := p.expectIdentifier()
		if !ok {
			break
		}
		p.expect(lexer.Colon, ":")
		t := p.parseTypeExpr(0)
		entries = append(entries, TypeExprEntry{Name: name, Type: t})
		if !p.match(lexer.Comma) {
			break
		}
	}
	p.expect(lexer.RightCurly, "}")
	return TypeExpr{TypeKind: TEStruct, Entries: entries}
}

func (p *Parser) typeTuple() Expr {
	p.advance() // '('
	var entries []TypeExprEntry
	for !p.check(lexer.RightParen) && !p.atEnd() {
		t := p.parseTypeExpr(0)
		entries = append(entries, TypeExprEntry{Type: t})
		if !p.match(lexer.Comma) {
			break
		}
	}
	p.expect(lexer.RightParen, ")")
	return TypeExpr{TypeKind: TETuple, Entries: entries}
}
