package value

import (
	"fmt"
	"strings"

	derr "datex/internal/errors"
)

// StructuralKind enumerates the literal-type shapes from spec.md §3.
type StructuralKind int

const (
	SBoolean StructuralKind = iota
	SInteger
	SDecimal
	SText
	SNull
	SArray
	SMap
	SStruct
	SEndpoint
)

// StructField is one (name, type) pair of a Struct structural type.
type StructField struct {
	Name  string
	Value TypeContainer
}

// MapField is one (key-type, value-type) pair of a Map structural type.
type MapField struct {
	Key   TypeContainer
	Value TypeContainer
}

// StructuralTypeDefinition is a literal type (spec.md §3).
type StructuralTypeDefinition struct {
	Kind         StructuralKind
	IntWidth     IntWidth
	DecWidth     DecWidth
	HasIntWidth  bool
	HasDecWidth  bool
	ArrayElement TypeContainer
	MapFields    []MapField
	StructFields []StructField
}

func (s StructuralTypeDefinition) String() string {
	switch s.Kind {
	case SBoolean:
		return "boolean"
	case SInteger:
		if s.HasIntWidth {
			return "integer/" + s.IntWidth.String()
		}
		return "integer"
	case SDecimal:
		if s.HasDecWidth {
			return "decimal/" + s.DecWidth.String()
		}
		return "decimal"
	case SText:
		return "text"
	case SNull:
		return "null"
	case SEndpoint:
		return "endpoint"
	case SArray:
		return "Array<" + s.ArrayElement.String() + ">"
	case SMap:
		parts := make([]string, len(s.MapFields))
		for i, f := range s.MapFields {
			parts[i] = f.Key.String() + ": " + f.Value.String()
		}
		return "Map{" + strings.Join(parts, ", ") + "}"
	case SStruct:
		parts := make([]string, len(s.StructFields))
		for i, f := range s.StructFields {
			parts[i] = f.Name + ": " + f.Value.String()
		}
		return "struct{" + strings.Join(parts, ", ") + "}"
	default:
		return "?"
	}
}

// TypeDefinitionKind tags a TypeDefinition's variant (spec.md §3).
type TypeDefinitionKind int

const (
	TDStructural TypeDefinitionKind = iota
	TDImplType
	TDReference
	TDUnknown
)

// TypeDefinition is the payload of a first-class Type value.
type TypeDefinition struct {
	Kind          TypeDefinitionKind
	Structural    StructuralTypeDefinition
	ImplBase      *TypeDefinition
	ImplAddresses []PointerAddress
	Ref           *TypeReference
}

func (d TypeDefinition) String() string {
	switch d.Kind {
	case TDStructural:
		return d.Structural.String()
	case TDImplType:
		return fmt.Sprintf("%s(+%d impls)", d.ImplBase.String(), len(d.ImplAddresses))
	case TDReference:
		return d.Ref.Name
	default:
		return "unknown"
	}
}

// Type is a first-class type value (spec.md §3), itself a CoreValue
// variant so it can flow through expressions like any other value.
type Type struct {
	Definition TypeDefinition
	Name       string
}

func (Type) Kind() CoreValueKind { return KindType }

func (t Type) String() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Definition.String()
}

func StructuralType(def StructuralTypeDefinition) Type {
	return Type{Definition: TypeDefinition{Kind: TDStructural, Structural: def}}
}

func NamedStructuralType(name string, def StructuralTypeDefinition) Type {
	return Type{Name: name, Definition: TypeDefinition{Kind: TDStructural, Structural: def}}
}

func UnknownType() Type {
	return Type{Name: "unknown", Definition: TypeDefinition{Kind: TDUnknown}}
}

// Built-in base types, addressed internally per spec.md §6 ("Internal:
// 6 bytes, reserved for built-in library entries, e.g. the standard
// integer, decimal types").
var (
	TypeInteger = NamedStructuralType("integer", StructuralTypeDefinition{Kind: SInteger})
	TypeDecimal = NamedStructuralType("decimal", StructuralTypeDefinition{Kind: SDecimal})
	TypeText    = NamedStructuralType("text", StructuralTypeDefinition{Kind: SText})
	TypeBoolean = NamedStructuralType("boolean", StructuralTypeDefinition{Kind: SBoolean})
	TypeNull    = NamedStructuralType("null", StructuralTypeDefinition{Kind: SNull})
	TypeEndpoint = NamedStructuralType("endpoint", StructuralTypeDefinition{Kind: SEndpoint})
)

func typedIntegerType(w IntWidth) Type {
	return NamedStructuralType("integer/"+w.String(), StructuralTypeDefinition{Kind: SInteger, HasIntWidth: true, IntWidth: w})
}

func typedDecimalType(w DecWidth) Type {
	return NamedStructuralType("decimal/"+w.String(), StructuralTypeDefinition{Kind: SDecimal, HasDecWidth: true, DecWidth: w})
}

// InferStructuralType computes the literal type of a freshly built
// CoreValue, used as a Value's initial actual_type (spec.md §3).
func InferStructuralType(inner CoreValue) Type {
	switch v := inner.(type) {
	case Null:
		return TypeNull
	case Boolean:
		return TypeBoolean
	case Integer:
		if v.Width != WidthBig {
			return typedIntegerType(v.Width)
		}
		return TypeInteger
	case Decimal:
		return TypeDecimal
	case TypedDecimal:
		return typedDecimalType(v.Width)
	case Text:
		return TypeText
	case Endpoint:
		return TypeEndpoint
	case *List:
		elem := TypeContainer(TypeValueBox{T: UnknownType()})
		if len(v.Items) > 0 {
			elem = TypeValueBox{T: InferStructuralType(v.Items[0].Resolve().Inner)}
		}
		return StructuralType(StructuralTypeDefinition{Kind: SArray, ArrayElement: elem})
	case *Map:
		fields := make([]MapField, 0, v.Len())
		for _, e := range v.entries {
			fields = append(fields, MapField{
				Key:   TypeValueBox{T: InferStructuralType(e.key.Resolve().Inner)},
				Value: TypeValueBox{T: InferStructuralType(e.val.Resolve().Inner)},
			})
		}
		return StructuralType(StructuralTypeDefinition{Kind: SMap, MapFields: fields})
	case Type:
		return Type{Name: "type"}
	default:
		return UnknownType()
	}
}

// StructuralEqual compares two Types by shape (used by equality.go and
// by the `matches` operator below).
func (t Type) StructuralEqual(other Type) bool {
	return t.Definition.structuralEqual(other.Definition)
}

func (d TypeDefinition) structuralEqual(other TypeDefinition) bool {
	resolved := d.resolve()
	otherResolved := other.resolve()
	if resolved.Kind != otherResolved.Kind {
		return false
	}
	switch resolved.Kind {
	case TDStructural:
		return resolved.Structural.structuralEqual(otherResolved.Structural)
	case TDImplType:
		return resolved.ImplBase.structuralEqual(*otherResolved.ImplBase)
	default:
		return true
	}
}

func (d TypeDefinition) resolve() TypeDefinition {
	for d.Kind == TDReference && d.Ref != nil && d.Ref.Resolved != nil {
		d = d.Ref.Resolved.Definition
	}
	return d
}

func (s StructuralTypeDefinition) structuralEqual(other StructuralTypeDefinition) bool {
	if s.Kind != other.Kind {
		return false
	}
	switch s.Kind {
	case SInteger:
		return s.HasIntWidth == other.HasIntWidth && (!s.HasIntWidth || s.IntWidth == other.IntWidth)
	case SDecimal:
		return s.HasDecWidth == other.HasDecWidth && (!s.HasDecWidth || s.DecWidth == other.DecWidth)
	case SArray:
		return s.ArrayElement.StructuralEqual(other.ArrayElement)
	case SStruct:
		if len(s.StructFields) != len(other.StructFields) {
			return false
		}
		for i := range s.StructFields {
			if s.StructFields[i].Name != other.StructFields[i].Name {
				return false
			}
			if !s.StructFields[i].Value.StructuralEqual(other.StructFields[i].Value) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// TypeReference is the dedicated reference variant backing named
// (nominal) types (spec.md §3).
type TypeReference struct {
	Name     string
	Address  *PointerAddress
	Resolved *Type
}

// TypeContainer is either an inline Type or an indirect TypeReference
// (spec.md §3).
type TypeContainer interface {
	isTypeContainer()
	String() string
	StructuralEqual(other TypeContainer) bool
	AsType() Type
}

type TypeValueBox struct{ T Type }

func (TypeValueBox) isTypeContainer() {}
func (b TypeValueBox) String() string { return b.T.String() }
func (b TypeValueBox) AsType() Type   { return b.T }
func (b TypeValueBox) StructuralEqual(other TypeContainer) bool {
	return b.T.StructuralEqual(other.AsType())
}

type TypeReferenceBox struct{ Ref *TypeReference }

func (TypeReferenceBox) isTypeContainer() {}
func (b TypeReferenceBox) String() string { return b.Ref.Name }
func (b TypeReferenceBox) AsType() Type {
	if b.Ref.Resolved != nil {
		return *b.Ref.Resolved
	}
	return Type{Name: b.Ref.Name, Definition: TypeDefinition{Kind: TDReference, Ref: b.Ref}}
}
func (b TypeReferenceBox) StructuralEqual(other TypeContainer) bool {
	return b.AsType().StructuralEqual(other.AsType())
}

// Matches implements the `matches` comparison operator (spec.md §4.F):
// does value v's runtime shape satisfy type t.
func Matches(v Value, t Type) bool {
	def := t.Definition.resolve()
	if def.Kind == TDImplType {
		def = def.ImplBase.resolve()
	}
	if def.Kind != TDStructural {
		return true // Unknown/unresolved types match permissively
	}
	s := def.Structural
	switch s.Kind {
	case SBoolean:
		return v.Inner.Kind() == KindBoolean
	case SInteger:
		i, ok := v.Inner.(Integer)
		if !ok {
			return false
		}
		return !s.HasIntWidth || i.Width == s.IntWidth
	case SDecimal:
		_, isDec := v.Inner.(Decimal)
		td, isTyped := v.Inner.(TypedDecimal)
		if !isDec && !isTyped {
			return false
		}
		return !s.HasDecWidth || (isTyped && td.Width == s.DecWidth)
	case SText:
		return v.Inner.Kind() == KindText
	case SNull:
		return v.Inner.Kind() == KindNull
	case SEndpoint:
		return v.Inner.Kind() == KindEndpoint
	case SArray:
		l, ok := v.Inner.(*List)
		if !ok {
			return false
		}
		for _, item := range l.Items {
			if !Matches(item.Resolve(), s.ArrayElement.AsType()) {
				return false
			}
		}
		return true
	case SStruct:
		m, ok := v.Inner.(*Map)
		if !ok {
			return false
		}
		for _, f := range s.StructFields {
			val, found := m.GetText(f.Name)
			if !found || !Matches(val.Resolve(), f.Value.AsType()) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Apply implements Type as a single-argument callable: casting a value
// to this type (spec.md §4.A "cast operations ... apply a target Type
// as a callable to a value"). It satisfies vm's SingleApplier interface
// structurally (see internal/vm/apply.go).
func (t Type) Apply(arg Value) (Value, error) {
	def := t.Definition.resolve()
	if def.Kind != TDStructural {
		return Value{}, derr.ErrInvalidTypeCast(fmt.Sprintf("cannot cast to unresolved type %s", t))
	}
	s := def.Structural
	switch s.Kind {
	case SInteger:
		return castToInteger(arg, s)
	case SDecimal:
		return castToDecimal(arg, s)
	case SText:
		return NewValue(Text(arg.String())), nil
	case SBoolean:
		return castToBoolean(arg)
	default:
		return Value{}, derr.ErrInvalidTypeCast(fmt.Sprintf("no cast defined to %s", t))
	}
}

func castToInteger(arg Value, s StructuralTypeDefinition) (Value, error) {
	i, ok := arg.Inner.(Integer)
	if !ok {
		return Value{}, derr.ErrInvalidTypeCast("source value is not an integer")
	}
	if !s.HasIntWidth {
		return NewValue(Integer{Val: i.Val, Width: WidthBig}), nil
	}
	typed, err := NewTypedInteger(i.Val, s.IntWidth)
	if err != nil {
		return Value{}, derr.ErrInvalidTypeCast(err.Error())
	}
	return NewValue(typed), nil
}

func castToDecimal(arg Value, s StructuralTypeDefinition) (Value, error) {
	d, ok := asDecimal(arg.Inner)
	if !ok {
		return Value{}, derr.ErrInvalidTypeCast("source value is not a decimal")
	}
	if !s.HasDecWidth {
		return NewValue(d), nil
	}
	switch s.DecWidth {
	case WidthF32:
		f, _ := d.Val.Float64()
		return NewValue(NewTypedDecimalF32(float32(f))), nil
	case WidthF64:
		f, _ := d.Val.Float64()
		return NewValue(NewTypedDecimalF64(f)), nil
	default:
		return NewValue(NewTypedDecimalDBig(d.Val)), nil
	}
}

func castToBoolean(arg Value) (Value, error) {
	switch v := arg.Inner.(type) {
	case Boolean:
		return arg, nil
	case Integer:
		return NewValue(Boolean(v.Val.Sign() != 0)), nil
	case Null:
		return NewValue(Boolean(false)), nil
	default:
		return NewValue(Boolean(true)), nil
	}
}
