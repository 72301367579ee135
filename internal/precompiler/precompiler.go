// Package precompiler performs the single post-order scope-resolution
// pass between parsing and byte compilation (spec.md §4.D): it assigns
// a VariableId/slot address to every declaration, rewrites identifier
// references to resolved VariableExpr nodes, and hoists TypeDeclaration
// nodes ahead of the statements in their enclosing scope.
package precompiler

import (
	"sort"

	derr "datex/internal/errors"
	"datex/internal/parser"
)

// Scope is one lexical binding level. Resolution walks outward through
// Parent until a name is found or the chain is exhausted.
type Scope struct {
	Parent *Scope
	Depth  int
	vars   map[string]uint32
	types  map[string]parser.Expr
}

func newScope(parent *Scope) *Scope {
	depth := 0
	if parent != nil {
		depth = parent.Depth + 1
	}
	return &Scope{Parent: parent, Depth: depth, vars: map[string]uint32{}, types: map[string]parser.Expr{}}
}

func (s *Scope) declare(name string, id uint32) {
	s.vars[name] = id
}

func (s *Scope) resolve(name string) (uint32, bool) {
	for sc := s; sc != nil; sc = sc.Parent {
		if id, ok := sc.vars[name]; ok {
			return id, true
		}
	}
	return 0, false
}

// resolveScope is resolve plus the scope the binding was found in, so a
// caller can tell whether the reference crossed a remote-execution
// boundary (spec.md §4.E point 8).
func (s *Scope) resolveScope(name string) (uint32, *Scope, bool) {
	for sc := s; sc != nil; sc = sc.Parent {
		if id, ok := sc.vars[name]; ok {
			return id, sc, true
		}
	}
	return 0, nil, false
}

func (s *Scope) resolveType(name string) (parser.Expr, bool) {
	for sc := s; sc != nil; sc = sc.Parent {
		if t, ok := sc.types[name]; ok {
			return t, true
		}
	}
	return nil, false
}

// VariableMetadata records what the precompiler learned about one
// VariableId, consulted by later passes (spec.md §4.D "AstMetadata").
type VariableMetadata struct {
	Name         string
	Mutable      bool
	DeclaredType parser.Expr
	InferredType parser.Expr
}

// AstMetadata is the precompiler's shared output: every variable's
// metadata keyed by its allocated slot id.
type AstMetadata struct {
	Variables map[uint32]*VariableMetadata
}

func newMetadata() *AstMetadata {
	return &AstMetadata{Variables: map[uint32]*VariableMetadata{}}
}

// Precompiler assigns VariableIds across one or more successive
// compilation units sharing the same root scope, matching spec.md §4.H's
// "successive compilations see prior bindings" contract.
type Precompiler struct {
	nextSlot uint32
	root     *Scope
	Metadata *AstMetadata
	Errors   []*derr.CompilerError

	// remoteBarrier/freeVars track the innermost remote-execution body
	// currently being resolved, so a VariableExpr resolving to a scope
	// outside that body can be recorded as a captured slot (spec.md §4.E
	// point 8). Both are nil/unset outside a RemoteExecutionExpr.Body.
	remoteBarrier int
	freeVars      map[uint32]bool
	slotDepth     map[uint32]int
}

func New() *Precompiler {
	return &Precompiler{root: newScope(nil), Metadata: newMetadata(), slotDepth: map[uint32]int{}}
}

// Run resolves one AST in the precompiler's persistent root scope and
// returns the (mutated in place) tree.
func (p *Precompiler) Run(expr parser.Expr) parser.Expr {
	// top-level statements declare into the root scope itself rather
	// than a child scope, so a later Run still sees their bindings
	if stmts, ok := expr.(parser.StatementsExpr); ok {
		p.hoistTypes(stmts, p.root)
		for i, st := range stmts.Statements {
			stmts.Statements[i].Expr = p.resolve(st.Expr, p.root)
		}
		return stmts
	}
	return p.resolve(expr, p.root)
}

func (p *Precompiler) allocateSlot(name string, mutable bool, declaredType parser.Expr, scope *Scope) uint32 {
	id := p.nextSlot
	p.nextSlot++
	p.Metadata.Variables[id] = &VariableMetadata{Name: name, Mutable: mutable, DeclaredType: declaredType}
	p.slotDepth[id] = scope.Depth
	return id
}

// declDepth is the scope depth a slot id was declared at, used to decide
// whether a reference crosses a remote-execution boundary.
func (p *Precompiler) declDepth(id uint32) int {
	return p.slotDepth[id]
}

func (p *Precompiler) undeclared(name string) {
	p.Errors = append(p.Errors, derr.NewCompilerError(derr.UndeclaredVariable, derr.Span{}, "undeclared variable '"+name+"'"))
}

// resolve walks expr, hoisting TypeDeclaration nodes within any
// StatementsExpr before visiting the rest of that scope's statements
// (spec.md §4.D hoisting contract).
func (p *Precompiler) resolve(expr parser.Expr, scope *Scope) parser.Expr {
	switch e := expr.(type) {
	case nil:
		return nil
	case parser.InvalidExpr, parser.NullExpr, parser.BooleanExpr, parser.TextExpr,
		parser.IntegerExpr, parser.DecimalExpr, parser.EndpointExpr, parser.PlaceholderExpr:
		return expr

	case parser.ArrayExpr:
		for i, el := range e.Elements {
			e.Elements[i] = p.resolve(el, scope)
		}
		return e

	case parser.ObjectExpr:
		for i, ent := range e.Entries {
			e.Entries[i].Key = p.resolve(ent.Key, scope)
			e.Entries[i].Value = p.resolve(ent.Value, scope)
		}
		return e

	case parser.TupleExpr:
		for i, ent := range e.Entries {
			if ent.Key != nil {
				e.Entries[i].Key = p.resolve(ent.Key, scope)
			}
			e.Entries[i].Value = p.resolve(ent.Value, scope)
		}
		return e

	case parser.StatementsExpr:
		inner := newScope(scope)
		p.hoistTypes(e, inner)
		for i, st := range e.Statements {
			e.Statements[i].Expr = p.resolve(st.Expr, inner)
		}
		return e

	case parser.VariableExpr:
		if id, found, ok := scope.resolveScope(e.Name); ok {
			v := id
			e.ID = &v
			if p.freeVars != nil && found.Depth < p.remoteBarrier {
				p.freeVars[id] = true
			}
			return e
		}
		p.undeclared(e.Name)
		return e

	case parser.VariableDeclarationExpr:
		e.Value = p.resolve(e.Value, scope)
		if e.DeclaredType != nil {
			e.DeclaredType = p.resolveTypeExpr(e.DeclaredType, scope)
		}
		id := p.allocateSlot(e.Name, e.VarKind == parser.VarVar, e.DeclaredType, scope)
		scope.declare(e.Name, id)
		e.ID = &id
		p.inferVariableDeclarationType(e, id)
		return e

	case parser.RefExpr:
		e.Operand = p.resolve(e.Operand, scope)
		return e
	case parser.RefMutExpr:
		e.Operand = p.resolve(e.Operand, scope)
		return e

	case parser.SlotExpr:
		return e
	case parser.SlotAssignmentExpr:
		e.Value = p.resolve(e.Value, scope)
		return e

	case parser.BinaryOpExpr:
		e.Left = p.resolve(e.Left, scope)
		e.Right = p.resolve(e.Right, scope)
		return e

	case parser.ComparisonOpExpr:
		e.Left = p.resolve(e.Left, scope)
		e.Right = p.resolve(e.Right, scope)
		return e

	case parser.AssignmentOpExpr:
		e.Target = p.resolve(e.Target, scope)
		e.Value = p.resolve(e.Value, scope)
		return e

	case parser.UnaryOpExpr:
		e.Operand = p.resolve(e.Operand, scope)
		return e

	case parser.ApplyChainExpr:
		e.Callee = p.resolve(e.Callee, scope)
		for i, step := range e.Chain {
			if step.IsCall {
				for j, a := range step.Args {
					e.Chain[i].Args[j] = p.resolve(a, scope)
				}
			} else {
				e.Chain[i].Key = p.resolve(step.Key, scope)
			}
		}
		return e

	case parser.RemoteExecutionExpr:
		e.Receivers = p.resolve(e.Receivers, scope)
		// the body runs on the receiver, which has none of the sender's
		// slots; any name it resolves outside its own bodyScope is a
		// free variable that must be injected across the wire (spec.md
		// §4.E point 8). bodyScope marks that boundary: a reference
		// found at a shallower depth crossed it.
		bodyScope := newScope(scope)
		outerFree, outerBarrier := p.freeVars, p.remoteBarrier
		p.freeVars = map[uint32]bool{}
		p.remoteBarrier = bodyScope.Depth
		e.Body = p.resolve(e.Body, bodyScope)
		captured := make([]uint32, 0, len(p.freeVars))
		for id := range p.freeVars {
			captured = append(captured, id)
		}
		sort.Slice(captured, func(i, j int) bool { return captured[i] < captured[j] })
		e.InjectedSlots = captured
		p.freeVars, p.remoteBarrier = outerFree, outerBarrier
		// a reference captured here may itself be free relative to an
		// enclosing remote-execution body (nested `@ep :: @ep2 :: ...`);
		// re-check each against the restored (possibly still active)
		// barrier so it also gets injected one level out.
		if p.freeVars != nil {
			for _, id := range captured {
				if p.declDepth(id) < p.remoteBarrier {
					p.freeVars[id] = true
				}
			}
		}
		return e

	case parser.TypeDeclarationExpr:
		e.Type = p.resolveTypeExpr(e.Type, scope)
		scope.types[e.Name] = e.Type
		return e

	case parser.TypeAliasExpr:
		e.Type = p.resolveTypeExpr(e.Type, scope)
		scope.types[e.Name] = e.Type
		return e

	case parser.CallableDeclarationExpr:
		inner := newScope(scope)
		for i, param := range e.Params {
			id := p.allocateSlot(param.Name, false, param.Type, inner)
			inner.declare(param.Name, id)
			if param.Type != nil {
				e.Params[i].Type = p.resolveTypeExpr(param.Type, inner)
			}
		}
		if e.ReturnType != nil {
			e.ReturnType = p.resolveTypeExpr(e.ReturnType, inner)
		}
		e.Body = p.resolve(e.Body, inner)
		id := p.allocateSlot(e.Name, false, nil, scope)
		scope.declare(e.Name, id)
		return e

	case parser.IfExpr:
		e.Cond = p.resolve(e.Cond, scope)
		e.Then = p.resolve(e.Then, newScope(scope))
		if e.Else != nil {
			e.Else = p.resolve(e.Else, newScope(scope))
		}
		return e

	default:
		return expr
	}
}

// hoistTypes pre-registers every TypeDeclaration directly inside a
// Statements block before its statements are visited, so a type may be
// referenced textually above its declaration within the same block.
func (p *Precompiler) hoistTypes(stmts parser.StatementsExpr, scope *Scope) {
	for _, st := range stmts.Statements {
		if decl, ok := st.Expr.(parser.TypeDeclarationExpr); ok {
			scope.types[decl.Name] = decl.Type
		}
	}
}

func (p *Precompiler) resolveTypeExpr(expr parser.Expr, scope *Scope) parser.Expr {
	te, ok := expr.(parser.TypeExpr)
	if !ok {
		return expr
	}
	switch te.TypeKind {
	case parser.TEIdentifier:
		return te
	case parser.TEIntersection, parser.TEUnion, parser.TEInterface, parser.TEVariant, parser.TEMember:
		te.Left = p.resolveTypeExpr(te.Left, scope)
		te.Right = p.resolveTypeExpr(te.Right, scope)
		return te
	case parser.TEGeneric:
		te.Base = p.resolveTypeExpr(te.Base, scope)
		for i, param := range te.Params {
			te.Params[i] = p.resolveTypeExpr(param, scope)
		}
		return te
	case parser.TEArray:
		te.Element = p.resolveTypeExpr(te.Element, scope)
		return te
	case parser.TEStruct, parser.TEMap, parser.TETuple:
		for i, ent := range te.Entries {
			te.Entries[i].Type = p.resolveTypeExpr(ent.Type, scope)
		}
		return te
	default:
		return te
	}
}
