// Package value implements the DATEX data model (spec.md §3/§4.A):
// typed scalars, lists, maps, endpoints, references and types, plus the
// structural/value/identity equality relations and arithmetic that the
// compiler and execution engine depend on.
package value

import "fmt"

// CoreValueKind tags the variant carried by a CoreValue.
type CoreValueKind int

const (
	KindNull CoreValueKind = iota
	KindBoolean
	KindInteger
	KindDecimal
	KindTypedDecimal
	KindText
	KindEndpoint
	KindList
	KindMap
	KindType
)

func (k CoreValueKind) String() string {
	names := [...]string{"null", "boolean", "integer", "decimal", "typed_decimal", "text", "endpoint", "list", "map", "type"}
	if int(k) < len(names) {
		return names[k]
	}
	return "unknown"
}

// CoreValue is the payload carried by a Value (spec.md §3).
type CoreValue interface {
	Kind() CoreValueKind
	fmt.Stringer
}

type Null struct{}

func (Null) Kind() CoreValueKind { return KindNull }
func (Null) String() string      { return "null" }

type Boolean bool

func (Boolean) Kind() CoreValueKind { return KindBoolean }
func (b Boolean) String() string {
	if b {
		return "true"
	}
	return "false"
}

func (i Integer) Kind() CoreValueKind { return KindInteger }

func (d Decimal) Kind() CoreValueKind { return KindDecimal }

func (t TypedDecimal) Kind() CoreValueKind { return KindTypedDecimal }

type Text string

func (Text) Kind() CoreValueKind { return KindText }
func (t Text) String() string    { return string(t) }

func (e Endpoint) Kind() CoreValueKind { return KindEndpoint }

// Value pairs a CoreValue with the Type that it was actually
// constructed/cast as (spec.md §3: "Value carries an inner CoreValue
// variant and an actual_type descriptor").
type Value struct {
	Inner      CoreValue
	ActualType Type
}

func NewValue(inner CoreValue) Value {
	return Value{Inner: inner, ActualType: InferStructuralType(inner)}
}

func (v Value) String() string {
	if v.Inner == nil {
		return "null"
	}
	return v.Inner.String()
}
