// Package parser turns a DATEX token stream into an AST (spec.md §4.C).
package parser

import (
	"datex/internal/value"
)

// ExprKind tags the DatexExpression variant an Expr carries.
type ExprKind int

const (
	KInvalid ExprKind = iota
	KNull
	KBoolean
	KText
	KInteger
	KDecimal
	KEndpoint
	KArray
	KObject
	KTuple
	KStatements
	KVariable
	KVariableDeclaration
	KRef
	KRefMut
	KSlot
	KSlotAssignment
	KBinaryOp
	KComparisonOp
	KAssignmentOp
	KUnaryOp
	KApplyChain
	KPlaceholder
	KRemoteExecution
	KTypeDeclaration
	KTypeAlias
	KCallableDeclaration
	KIf
	KTypeExpr
)

// Expr is any DATEX AST node.
type Expr interface {
	Kind() ExprKind
}

type InvalidExpr struct{}

func (InvalidExpr) Kind() ExprKind { return KInvalid }

type NullExpr struct{}

func (NullExpr) Kind() ExprKind { return KNull }

type BooleanExpr struct{ Value bool }

func (BooleanExpr) Kind() ExprKind { return KBoolean }

type TextExpr struct{ Value string }

func (TextExpr) Kind() ExprKind { return KText }

type IntegerExpr struct{ Value value.Integer }

func (IntegerExpr) Kind() ExprKind { return KInteger }

// DecimalExpr carries either an untyped value.Decimal or a typed
// value.TypedDecimal; exactly one of the two is set.
type DecimalExpr struct {
	Decimal      *value.Decimal
	TypedDecimal *value.TypedDecimal
}

func (DecimalExpr) Kind() ExprKind { return KDecimal }

type EndpointExpr struct{ Value value.Endpoint }

func (EndpointExpr) Kind() ExprKind { return KEndpoint }

type ArrayExpr struct{ Elements []Expr }

func (ArrayExpr) Kind() ExprKind { return KArray }

type ObjectEntry struct {
	Key   Expr
	Value Expr
}

type ObjectExpr struct{ Entries []ObjectEntry }

func (ObjectExpr) Kind() ExprKind { return KObject }

// TupleEntry is either a bare value or a key:value pair (spec.md §9 open
// question: all surface forms collapse to this single canonical shape).
type TupleEntry struct {
	Key   Expr // nil for a bare value entry
	Value Expr
}

type TupleExpr struct{ Entries []TupleEntry }

func (TupleExpr) Kind() ExprKind { return KTuple }

type Statement struct {
	Expr       Expr
	Terminated bool
}

type StatementsExpr struct{ Statements []Statement }

func (StatementsExpr) Kind() ExprKind { return KStatements }

// VariableExpr references a binding by name; ID is filled in by the
// precompiler (spec.md §4.D), nil until then.
type VariableExpr struct {
	ID   *uint32
	Name string
}

func (VariableExpr) Kind() ExprKind { return KVariable }

type VariableKind int

const (
	VarConst VariableKind = iota
	VarVar
)

type BindingMutability int

const (
	BindingImmutable BindingMutability = iota
	BindingMutable
)

type ReferenceMutability int

const (
	RefMutNone ReferenceMutability = iota
	RefMutMutable
	RefMutImmutable
)

type VariableDeclarationExpr struct {
	ID           *uint32
	VarKind      VariableKind
	Binding      BindingMutability
	RefMutable   ReferenceMutability
	Name         string
	DeclaredType Expr // type-expression side, nil if unannotated
	Value        Expr
}

func (VariableDeclarationExpr) Kind() ExprKind { return KVariableDeclaration }

type RefExpr struct{ Operand Expr }

func (RefExpr) Kind() ExprKind { return KRef }

type RefMutExpr struct{ Operand Expr }

func (RefMutExpr) Kind() ExprKind { return KRefMut }

// Slot is either a numeric slot address or a named slot resolved later.
type Slot struct {
	Addressed bool
	Address   uint32
	Name      string
}

type SlotExpr struct{ Slot Slot }

func (SlotExpr) Kind() ExprKind { return KSlot }

type SlotAssignmentExpr struct {
	Slot  Slot
	Value Expr
}

func (SlotAssignmentExpr) Kind() ExprKind { return KSlotAssignment }

type BinaryOperator int

const (
	OpAdd BinaryOperator = iota
	OpSub
	OpMul
	OpDiv
	OpMod
)

type BinaryOpExpr struct {
	Op          BinaryOperator
	Left, Right Expr
}

func (BinaryOpExpr) Kind() ExprKind { return KBinaryOp }

type ComparisonOperator int

const (
	CmpIs ComparisonOperator = iota
	CmpStructuralEqual
	CmpNotStructuralEqual
	CmpValueEqual
	CmpNotValueEqual
	CmpLessThan
	CmpGreaterThan
	CmpLessThanOrEqual
	CmpGreaterThanOrEqual
	CmpMatches
	CmpAnd
	CmpOr
)

type ComparisonOpExpr struct {
	Op          ComparisonOperator
	Left, Right Expr
}

func (ComparisonOpExpr) Kind() ExprKind { return KComparisonOp }

type AssignmentOperator int

const (
	AssignSet AssignmentOperator = iota
	AssignAdd
	AssignSub
	AssignMul
	AssignDiv
)

// AssignmentOpExpr is `target op= value`; Target is evaluated as an
// lvalue (must resolve to a Reference at execution time).
type AssignmentOpExpr struct {
	Op     AssignmentOperator
	Target Expr
	Value  Expr
}

func (AssignmentOpExpr) Kind() ExprKind { return KAssignmentOp }

type UnaryOperator int

const (
	UnaryNegate UnaryOperator = iota
	UnaryDeref
)

type UnaryOpExpr struct {
	Op      UnaryOperator
	Operand Expr
}

func (UnaryOpExpr) Kind() ExprKind { return KUnaryOp }

// ApplyStep is one link of a `.`/call chain: either a function-call
// argument list or a property-access key expression.
type ApplyStep struct {
	IsCall bool
	Args   []Expr // set when IsCall
	Key    Expr   // set when !IsCall (property access)
}

type ApplyChainExpr struct {
	Callee Expr
	Chain  []ApplyStep
}

func (ApplyChainExpr) Kind() ExprKind { return KApplyChain }

type PlaceholderExpr struct{}

func (PlaceholderExpr) Kind() ExprKind { return KPlaceholder }

// RemoteExecutionExpr is `receivers :: body` (spec.md §8 scenario 7).
// InjectedSlots is filled in by the precompiler: the slot ids of every
// outer-scope variable Body references, which must be serialized across
// the wire alongside it (spec.md §4.E point 8).
type RemoteExecutionExpr struct {
	Receivers     Expr
	Body          Expr
	InjectedSlots []uint32
}

func (RemoteExecutionExpr) Kind() ExprKind { return KRemoteExecution }

type TypeDeclarationExpr struct {
	Name string
	Type Expr // type-expression
}

func (TypeDeclarationExpr) Kind() ExprKind { return KTypeDeclaration }

type TypeAliasExpr struct {
	Name string
	Type Expr
}

func (TypeAliasExpr) Kind() ExprKind { return KTypeAlias }

type CallableKind int

const (
	CallableFunction CallableKind = iota
	CallableProcedure
)

type Param struct {
	Name string
	Type Expr // may be nil
}

type CallableDeclarationExpr struct {
	CallableKind CallableKind
	Name         string
	Params       []Param
	ReturnType   Expr // may be nil
	Body         Expr
}

func (CallableDeclarationExpr) Kind() ExprKind { return KCallableDeclaration }

type IfExpr struct {
	Cond Expr
	Then Expr
	Else Expr // nil if absent
}

func (IfExpr) Kind() ExprKind { return KIf }

// --- type-expression AST (spec.md §4.C type-expression side) ---

type TypeExprKind int

const (
	TEIdentifier TypeExprKind = iota
	TEIntersection // &
	TEUnion        // |
	TEInterface    // +
	TEVariant      // /
	TEMember       // .
	TEGeneric
	TEArray
	TEMap
	TEStruct
	TETuple
)

type TypeExprEntry struct {
	Name string // field/key name, empty for positional
	Type Expr
}

type TypeExpr struct {
	TypeKind TypeExprKind
	Name     string          // TEIdentifier / TEMember base
	Left     Expr            // binary forms
	Right    Expr            // binary forms
	Base     Expr            // TEGeneric
	Params   []Expr          // TEGeneric
	Entries  []TypeExprEntry // TEStruct/TEMap/TETuple
	Element  Expr            // TEArray
}

func (TypeExpr) Kind() ExprKind { return KTypeExpr }
