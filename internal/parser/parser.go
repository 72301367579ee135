package parser

import (
	"strconv"

	derr "datex/internal/errors"
	"datex/internal/lexer"
	"datex/internal/value"
)

// Parser drives a Pratt engine over a token stream (spec.md §4.C). Errors
// are recoverable: a failed atom becomes an InvalidExpr sentinel, the
// error is recorded, and parsing resumes at the next statement boundary.
type Parser struct {
	tokens  []lexer.SpannedToken
	current int
	Errors  []*derr.SpannedParserError
}

func NewParser(tokens []lexer.SpannedToken) *Parser {
	return &Parser{tokens: tokens}
}

// ParseResult is spec.md §4.C's `Valid{ast}` / `Invalid{ast,errors}`.
type ParseResult struct {
	AST    Expr
	Valid  bool
	Errors []*derr.SpannedParserError
}

// Parse parses source text end to end (lexing included).
func Parse(src string) ParseResult {
	tokens, lexErrs := lexer.Scan(src)
	p := NewParser(tokens)
	p.Errors = append(p.Errors, lexErrs...)
	ast := p.ParseTopLevel()
	return ParseResult{AST: ast, Valid: len(p.Errors) == 0, Errors: p.Errors}
}

// ParseTopLevel parses the top-level statement sequence (spec.md §4.C:
// "a Statements node when more than one statement or an explicit
// terminator is present, else the inner expression directly").
func (p *Parser) ParseTopLevel() Expr {
	var stmts []Statement
	anyTerminator := false
	for !p.atEnd() {
		expr := p.statement()
		terminated := p.match(lexer.Semicolon)
		if terminated {
			anyTerminator = true
		}
		stmts = append(stmts, Statement{Expr: expr, Terminated: terminated})
		if p.check(lexer.EOF) {
			break
		}
	}
	if len(stmts) == 1 && !anyTerminator {
		return stmts[0].Expr
	}
	return StatementsExpr{Statements: stmts}
}

// statement parses one statement: a declaration if one opens here,
// otherwise a value expression (spec.md §4.C: "Declarations ... are only
// valid in statement position").
func (p *Parser) statement() Expr {
	switch p.peekKind() {
	case lexer.Const:
		p.advance()
		return p.variableDeclaration(VarConst)
	case lexer.Variable:
		p.advance()
		return p.variableDeclaration(VarVar)
	case lexer.TypeDeclaration:
		p.advance()
		return p.typeDeclaration()
	case lexer.TypeAlias:
		p.advance()
		return p.typeAlias()
	case lexer.Function:
		p.advance()
		return p.callableDeclaration(CallableFunction)
	case lexer.Procedure:
		p.advance()
		return p.callableDeclaration(CallableProcedure)
	case lexer.If:
		p.advance()
		return p.ifExpr()
	default:
		expr, err := p.parseExpr(0)
		if err != nil {
			p.recover()
			return InvalidExpr{}
		}
		return expr
	}
}

func (p *Parser) variableDeclaration(kind VariableKind) Expr {
	binding := BindingImmutable
	if kind == VarVar {
		binding = BindingMutable
	}
	refMut := RefMutNone
	if p.match(lexer.Mutable) {
		refMut = RefMutMutable
	}
	name, ok := p.expectIdentifier()
	if !ok {
		p.recover()
		return InvalidExpr{}
	}
	var declType Expr
	if p.match(lexer.Colon) {
		declType = p.parseTypeExpr(0)
	}
	if !p.expect(lexer.Assign, "=") {
		p.recover()
		return InvalidExpr{}
	}
	wrapRefMut := p.match(lexer.MutRef)
	if wrapRefMut {
		refMut = RefMutMutable
	}
	valueExpr, err := p.parseExpr(0)
	if err != nil {
		p.recover()
		return InvalidExpr{}
	}
	if wrapRefMut {
		// `= &mut v` binds a fresh mutable reference holding v
		valueExpr = RefMutExpr{Operand: valueExpr}
	}
	return VariableDeclarationExpr{
		VarKind: kind, Binding: binding, RefMutable: refMut,
		Name: name, DeclaredType: declType, Value: valueExpr,
	}
}

func (p *Parser) typeDeclaration() Expr {
	name, ok := p.expectIdentifier()
	if !ok {
		p.recover()
		return InvalidExpr{}
	}
	if !p.expect(lexer.Assign, "=") {
		p.recover()
		return InvalidExpr{}
	}
	t := p.parseTypeExpr(0)
	return TypeDeclarationExpr{Name: name, Type: t}
}

func (p *Parser) typeAlias() Expr {
	name, ok := p.expectIdentifier()
	if !ok {
		p.recover()
		return InvalidExpr{}
	}
	if !p.expect(lexer.Assign, "=") {
		p.recover()
		return InvalidExpr{}
	}
	t := p.parseTypeExpr(0)
	return TypeAliasExpr{Name: name, Type: t}
}

func (p *Parser) callableDeclaration(kind CallableKind) Expr {
	name, ok := p.expectIdentifier()
	if !ok {
		p.recover()
		return InvalidExpr{}
	}
	var params []Param
	if p.match(lexer.LeftParen) {
		for !p.check(lexer.RightParen) && !p.atEnd() {
			pname, ok := p.expectIdentifier()
			if !ok {
				break
			}
			var ptype Expr
			if p.match(lexer.Colon) {
				ptype = p.parseTypeExpr(0)
			}
			params = append(params, Param{Name: pname, Type: ptype})
			if !p.match(lexer.Comma) {
				break
			}
		}
		p.expect(lexer.RightParen, ")")
	}
	var retType Expr
	if p.match(lexer.Arrow) {
		retType = p.parseTypeExpr(0)
	}
	body, err := p.parseExpr(0)
	if err != nil {
		p.recover()
		return InvalidExpr{}
	}
	return CallableDeclarationExpr{CallableKind: kind, Name: name, Params: params, ReturnType: retType, Body: body}
}

func (p *Parser) ifExpr() Expr {
	cond, err := p.parseExpr(0)
	if err != nil {
		p.recover()
		return InvalidExpr{}
	}
	then, err := p.parseExpr(0)
	if err != nil {
		p.recover()
		return InvalidExpr{}
	}
	var elseExpr Expr
	if p.match(lexer.Else) {
		elseExpr, err = p.parseExpr(0)
		if err != nil {
			p.recover()
			return InvalidExpr{}
		}
	}
	return IfExpr{Cond: cond, Then: then, Else: elseExpr}
}

// --- Pratt engine (value-expression side), binding powers per spec.md
// §4.C's table (higher binds tighter; odd right side == right-assoc). ---

func infixBindingPower(k lexer.TokenKind) (left, right int, ok bool) {
	switch k {
	case lexer.DoubleColon:
		return 1, 2, true
	case lexer.StructuralEqual, lexer.ValueEqual, lexer.NotStructuralEqual, lexer.NotEqual, lexer.Is, lexer.Matches:
		return 3, 4, true
	case lexer.LeftAngle, lexer.LessEqual, lexer.RightAngle, lexer.GreaterEqual:
		return 5, 6, true
	case lexer.Or:
		return 7, 8, true
	case lexer.And:
		return 9, 10, true
	case lexer.Plus, lexer.Minus:
		return 11, 12, true
	case lexer.Star, lexer.Slash:
		return 13, 14, true
	case lexer.Dot:
		return 17, 18, true
	default:
		return 0, 0, false
	}
}

// applyLeftBindingPower is the binding power of a juxtaposed/parenthesized
// apply argument (spec.md §4.C: "apply ... | 17, 18").
const applyLeftBindingPower = 17

func (p *Parser) parseExpr(minBP int) (Expr, error) {
	left, err := p.parseAtomWithPrefix()
	if err != nil {
		return nil, err
	}
	for {
		if p.canStartApplyArgument() && applyLeftBindingPower >= minBP {
			left = p.continueApplyChain(left)
			continue
		}
		kind := p.peekKind()
		lbp, rbp, ok := infixBindingPower(kind)
		if !ok || lbp < minBP {
			break
		}
		p.advance()
		if kind == lexer.Dot {
			left = p.continuePropertyAccess(left)
			continue
		}
		if kind == lexer.DoubleColon {
			body, err := p.parseExpr(rbp)
			if err != nil {
				return nil, err
			}
			left = RemoteExecutionExpr{Receivers: left, Body: body}
			continue
		}
		right, err := p.parseExpr(rbp)
		if err != nil {
			return nil, err
		}
		left = combineInfix(kind, left, right)
	}
	return left, nil
}

func combineInfix(kind lexer.TokenKind, left, right Expr) Expr {
	switch kind {
	case lexer.Plus:
		return BinaryOpExpr{Op: OpAdd, Left: left, Right: right}
	case lexer.Minus:
		return BinaryOpExpr{Op: OpSub, Left: left, Right: right}
	case lexer.Star:
		return BinaryOpExpr{Op: OpMul, Left: left, Right: right}
	case lexer.Slash:
		return BinaryOpExpr{Op: OpDiv, Left: left, Right: right}
	case lexer.StructuralEqual:
		return ComparisonOpExpr{Op: CmpStructuralEqual, Left: left, Right: right}
	case lexer.ValueEqual:
		return ComparisonOpExpr{Op: CmpValueEqual, Left: left, Right: right}
	case lexer.NotStructuralEqual:
		return ComparisonOpExpr{Op: CmpNotStructuralEqual, Left: left, Right: right}
	case lexer.NotEqual:
		return ComparisonOpExpr{Op: CmpNotValueEqual, Left: left, Right: right}
	case lexer.Is:
		return ComparisonOpExpr{Op: CmpIs, Left: left, Right: right}
	case lexer.Matches:
		return ComparisonOpExpr{Op: CmpMatches, Left: left, Right: right}
	case lexer.LeftAngle:
		return ComparisonOpExpr{Op: CmpLessThan, Left: left, Right: right}
	case lexer.LessEqual:
		return ComparisonOpExpr{Op: CmpLessThanOrEqual, Left: left, Right: right}
	case lexer.RightAngle:
		return ComparisonOpExpr{Op: CmpGreaterThan, Left: left, Right: right}
	case lexer.GreaterEqual:
		return ComparisonOpExpr{Op: CmpGreaterThanOrEqual, Left: left, Right: right}
	case lexer.And:
		return ComparisonOpExpr{Op: CmpAnd, Left: left, Right: right}
	case lexer.Or:
		return ComparisonOpExpr{Op: CmpOr, Left: left, Right: right}
	default:
		return InvalidExpr{}
	}
}

// canStartApplyArgument decides whether the next token can open an Apply
// argument in juxtaposition position (spec.md §4.C: "any atomic RHS
// immediately after an operand is treated as a call argument").
func (p *Parser) canStartApplyArgument() bool {
	switch p.peekKind() {
	case lexer.LeftParen, lexer.LeftCurly, lexer.Identifier,
		lexer.IntegerLiteral, lexer.BinaryIntegerLiteral, lexer.OctalIntegerLiteral,
		lexer.HexadecimalIntegerLiteral, lexer.DecimalLiteral, lexer.FractionLiteral,
		lexer.StringLiteral, lexer.True, lexer.False, lexer.Null, lexer.EndpointTok,
		lexer.Nan, lexer.Infinity:
		return true
	default:
		return false
	}
}

func (p *Parser) continueApplyChain(callee Expr) Expr {
	chain := ApplyChainExpr{Callee: callee}
	for p.canStartApplyArgument() {
		if p.check(lexer.LeftParen) {
			args := p.argumentList()
			chain.Chain = append(chain.Chain, ApplyStep{IsCall: true, Args: args})
			continue
		}
		arg, err := p.parseExpr(applyLeftBindingPower + 1)
		if err != nil {
			break
		}
		chain.Chain = append(chain.Chain, ApplyStep{IsCall: true, Args: []Expr{arg}})
	}
	return chain
}

func (p *Parser) argumentList() []Expr {
	p.advance() // consume '('
	var args []Expr
	for !p.check(lexer.RightParen) && !p.atEnd() {
		arg, err := p.parseExpr(0)
		if err != nil {
			break
		}
		args = append(args, arg)
		if !p.match(lexer.Comma) {
			break
		}
	}
	p.expect(lexer.RightParen, ")")
	return args
}

// continuePropertyAccess treats a bare identifier after `.` as a string
// key (spec.md §4.C: "foo.bar ≡ foo.\"bar\"").
func (p *Parser) continuePropertyAccess(object Expr) Expr {
	var key Expr
	if p.check(lexer.Identifier) {
		tok := p.advance()
		key = TextExpr{Value: tok.Token.Lexeme}
	} else {
		k, err := p.parseExpr(18)
		if err != nil {
			key = InvalidExpr{}
		} else {
			key = k
		}
	}
	if chain, ok := object.(ApplyChainExpr); ok {
		chain.Chain = append(chain.Chain, ApplyStep{IsCall: false, Key: key})
		return chain
	}
	return ApplyChainExpr{Callee: object, Chain: []ApplyStep{{IsCall: false, Key: key}}}
}

// parseAtomWithPrefix handles prefix operators then delegates to the
// atom parser.
func (p *Parser) parseAtomWithPrefix() (Expr, error) {
	switch p.peekKind() {
	case lexer.Minus:
		p.advance()
		operand, err := p.parseExpr(15)
		if err != nil {
			return nil, err
		}
		return UnaryOpExpr{Op: UnaryNegate, Operand: operand}, nil
	case lexer.Star:
		p.advance()
		operand, err := p.parseExpr(15)
		if err != nil {
			return nil, err
		}
		// `*x op= v` assigns through the reference x holds: the
		// assignment's target is the reference itself, not its deref
		if assign, ok := operand.(AssignmentOpExpr); ok {
			return assign, nil
		}
		return UnaryOpExpr{Op: UnaryDeref, Operand: operand}, nil
	case lexer.MutRef:
		p.advance()
		operand, err := p.parseExpr(15)
		if err != nil {
			return nil, err
		}
		return RefMutExpr{Operand: operand}, nil
	case lexer.Ampersand:
		p.advance()
		operand, err := p.parseExpr(15)
		if err != nil {
			return nil, err
		}
		return RefExpr{Operand: operand}, nil
	default:
		return p.atom()
	}
}

func (p *Parser) atom() (Expr, error) {
	tok := p.peek()
	switch tok.Token.Kind {
	case lexer.True:
		p.advance()
		return BooleanExpr{Value: true}, nil
	case lexer.False:
		p.advance()
		return BooleanExpr{Value: false}, nil
	case lexer.Null:
		p.advance()
		return NullExpr{}, nil
	case lexer.Placeholder:
		p.advance()
		return PlaceholderExpr{}, nil
	case lexer.StringLiteral:
		p.advance()
		return TextExpr{Value: unescapeText(tok.Token.Lexeme)}, nil
	case lexer.IntegerLiteral, lexer.BinaryIntegerLiteral, lexer.OctalIntegerLiteral,
		lexer.HexadecimalIntegerLiteral, lexer.DecimalLiteral, lexer.FractionLiteral,
		lexer.Nan, lexer.Infinity:
		p.advance()
		return p.literalFromToken(tok), nil
	case lexer.EndpointTok:
		p.advance()
		return EndpointExpr{Value: value.NewEndpoint(tok.Token.Lexeme[1:])}, nil
	case lexer.Slot:
		p.advance()
		n, _ := strconv.ParseUint(tok.Token.Lexeme[1:], 10, 32)
		return p.maybeSlotAssignment(Slot{Addressed: true, Address: uint32(n)}), nil
	case lexer.NamedSlot:
		p.advance()
		return p.maybeSlotAssignment(Slot{Name: tok.Token.Lexeme[1:]}), nil
	case lexer.Identifier:
		p.advance()
		return p.maybeAssignment(tok.Token.Lexeme), nil
	case lexer.LeftBracket:
		return p.arrayLiteral(), nil
	case lexer.LeftCurly:
		return p.objectLiteral(), nil
	case lexer.LeftParen:
		return p.parenthesized(), nil
	default:
		err := derr.NewUnexpectedToken(tok.Span, "an expression", tok.Token.Kind.String())
		p.Errors = append(p.Errors, err)
		return InvalidExpr{}, err
	}
}

func (p *Parser) maybeAssignment(name string) Expr {
	switch p.peekKind() {
	case lexer.Assign:
		p.advance()
		v, err := p.parseExpr(0)
		if err != nil {
			return InvalidExpr{}
		}
		return AssignmentOpExpr{Op: AssignSet, Target: VariableExpr{Name: name}, Value: v}
	case lexer.AddAssign, lexer.SubAssign, lexer.MulAssign, lexer.DivAssign:
		op := p.advance()
		v, err := p.parseExpr(0)
		if err != nil {
			return InvalidExpr{}
		}
		return AssignmentOpExpr{Op: compoundOp(op.Token.Kind), Target: VariableExpr{Name: name}, Value: v}
	default:
		return VariableExpr{Name: name}
	}
}

func (p *Parser) maybeSlotAssignment(slot Slot) Expr {
	if p.match(lexer.Assign) {
		v, err := p.parseExpr(0)
		if err != nil {
			return InvalidExpr{}
		}
		return SlotAssignmentExpr{Slot: slot, Value: v}
	}
	return SlotExpr{Slot: slot}
}

func compoundOp(k lexer.TokenKind) AssignmentOperator {
	switch k {
	case lexer.AddAssign:
		return AssignAdd
	case lexer.SubAssign:
		return AssignSub
	case lexer.MulAssign:
		return AssignMul
	case lexer.DivAssign:
		return AssignDiv
	default:
		return AssignSet
	}
}

func (p *Parser) arrayLiteral() Expr {
	p.advance() // '['
	var elems []Expr
	for !p.check(lexer.RightBracket) && !p.atEnd() {
		e, err := p.parseExpr(0)
		if err != nil {
			break
		}
		elems = append(elems, e)
		if !p.match(lexer.Comma) {
			break
		}
	}
	p.expect(lexer.RightBracket, "]")
	return ArrayExpr{Elements: elems}
}

func (p *Parser) objectLiteral() Expr {
	p.advance() // '{'
	var entries []ObjectEntry
	for !p.check(lexer.RightCurly) && !p.atEnd() {
		key := p.objectKey()
		if !p.expect(lexer.Colon, ":") {
			break
		}
		v, err := p.parseExpr(0)
		if err != nil {
			break
		}
		entries = append(entries, ObjectEntry{Key: key, Value: v})
		if !p.match(lexer.Comma) {
			break
		}
	}
	p.expect(lexer.RightCurly, "}")
	return ObjectExpr{Entries: entries}
}

func (p *Parser) objectKey() Expr {
	if p.check(lexer.Identifier) {
		tok := p.advance()
		return TextExpr{Value: tok.Token.Lexeme}
	}
	e, err := p.parseExpr(0)
	if err != nil {
		return InvalidExpr{}
	}
	return e
}

// parenthesized handles `(expr)`, `(1;2)` statements, and tuples
// (`(1,2)`, `(x:1)`); all tuple surface forms fold to TupleExpr (spec.md
// §9 open question, resolved here).
func (p *Parser) parenthesized() Expr {
	p.advance() // '('
	if p.check(lexer.RightParen) {
		p.advance()
		return TupleExpr{}
	}
	first := p.tupleEntryOrStatement()
	if entry, isTuple := first.(tupleEntryMarker); isTuple {
		entries := []TupleEntry{entry.entry}
		for p.match(lexer.Comma) {
			if p.check(lexer.RightParen) {
				break
			}
			entries = append(entries, p.tupleEntry())
		}
		p.expect(lexer.RightParen, ")")
		return TupleExpr{Entries: entries}
	}
	stmts := []Statement{{Expr: first.(Expr)}}
	for p.match(lexer.Semicolon) {
		stmts[len(stmts)-1].Terminated = true
		if p.check(lexer.RightParen) {
			break
		}
		e, err := p.parseExpr(0)
		if err != nil {
			break
		}
		stmts = append(stmts, Statement{Expr: e})
	}
	p.expect(lexer.RightParen, ")")
	if len(stmts) == 1 && !stmts[0].Terminated {
		return stmts[0].Expr
	}
	return StatementsExpr{Statements: stmts}
}

// tupleEntryMarker distinguishes "this parenthesized group turned out to
// be a tuple" from a plain expression/statement sequence, since both
// start by parsing an expression.
type tupleEntryMarker struct{ entry TupleEntry }

func (tupleEntryMarker) Kind() ExprKind { return KTuple }

func (p *Parser) tupleEntryOrStatement() interface{} {
	switch p.peekKind() {
	case lexer.Const, lexer.Variable, lexer.TypeDeclaration, lexer.TypeAlias,
		lexer.Function, lexer.Procedure, lexer.If:
		return p.statement()
	}
	e, err := p.parseExpr(0)
	if err != nil {
		return InvalidExpr{}
	}
	if p.check(lexer.Colon) {
		p.advance()
		v, err := p.parseExpr(0)
		if err != nil {
			v = InvalidExpr{}
		}
		return tupleEntryMarker{entry: TupleEntry{Key: e, Value: v}}
	}
	if p.check(lexer.Comma) {
		return tupleEntryMarker{entry: TupleEntry{Value: e}}
	}
	return e
}

func (p *Parser) tupleEntry() TupleEntry {
	e, err := p.parseExpr(0)
	if err != nil {
		return TupleEntry{Value: InvalidExpr{}}
	}
	if p.match(lexer.Colon) {
		v, err := p.parseExpr(0)
		if err != nil {
			v = InvalidExpr{}
		}
		return TupleEntry{Key: e, Value: v}
	}
	return TupleEntry{Value: e}
}

// --- token stream primitives ---

func (p *Parser) peek() lexer.SpannedToken { return p.tokens[p.current] }

func (p *Parser) peekKind() lexer.TokenKind {
	if p.current >= len(p.tokens) {
		return lexer.EOF
	}
	return p.tokens[p.current].Token.Kind
}

func (p *Parser) atEnd() bool { return p.peekKind() == lexer.EOF }

func (p *Parser) check(k lexer.TokenKind) bool { return p.peekKind() == k }

func (p *Parser) advance() lexer.SpannedToken {
	tok := p.tokens[p.current]
	if p.current < len(p.tokens)-1 {
		p.current++
	}
	return tok
}

func (p *Parser) match(k lexer.TokenKind) bool {
	if p.check(k) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(k lexer.TokenKind, label string) bool {
	if p.check(k) {
		p.advance()
		return true
	}
	p.errorAt(p.peek().Span, derr.UnexpectedToken, "expected "+label)
	return false
}

func (p *Parser) expectIdentifier() (string, bool) {
	if p.check(lexer.Identifier) {
		return p.advance().Token.Lexeme, true
	}
	p.errorAt(p.peek().Span, derr.UnexpectedToken, "expected an identifier")
	return "", false
}

func (p *Parser) errorAt(span derr.Span, kind derr.ParserErrorKind, message string) {
	p.Errors = append(p.Errors, derr.NewParserError(kind, span, message))
}

// recover advances to the next statement boundary after a parse error
// (spec.md §4.C).
func (p *Parser) recover() {
	for !p.atEnd() && !p.check(lexer.Semicolon) {
		p.advance()
	}
}

func unescapeText(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			case 'r':
				out = append(out, '\r')
			default:
				out = append(out, s[i])
			}
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}
