package vm

import (
	"datex/internal/bytecode"
	"datex/internal/compiler"
	"datex/internal/value"
)

// evalType builds a value.Type from a decoded type-instruction tree
// (spec.md §4.E point 9 / §4.F "Type instructions"). Every combinator
// the wire format supports beyond spec.md §3's explicit four
// TypeDefinitionKind variants (Union/Intersection/Interface/Variant/
// Member/Generic, plus the value-less LiteralInteger match) has no
// faithful runtime representation in that data model, so it evaluates
// to value.UnknownType(), which Matches() already treats as matching
// permissively — the honest behavior for a type the engine can parse
// but can't structurally check.
func (m *Machine) evalType(ti *compiler.TypeInstruction) (value.Type, error) {
	if ti == nil {
		return value.UnknownType(), nil
	}

	switch ti.Op.Code {
	case bytecode.T_UNKNOWN:
		return value.UnknownType(), nil
	case bytecode.T_BOOLEAN:
		return value.TypeBoolean, nil
	case bytecode.T_TEXT:
		return value.TypeText, nil
	case bytecode.T_NULL:
		return value.TypeNull, nil
	case bytecode.T_ENDPOINT:
		return value.TypeEndpoint, nil

	case bytecode.T_INTEGER:
		w := value.IntWidth(ti.IntWidth)
		if ti.IntWidth < 0 || w == value.WidthBig {
			return value.TypeInteger, nil
		}
		return value.StructuralType(value.StructuralTypeDefinition{
			Kind: value.SInteger, HasIntWidth: true, IntWidth: w,
		}), nil
	case bytecode.T_DECIMAL:
		if ti.DecWidth < 0 {
			return value.TypeDecimal, nil
		}
		w := value.DecWidth(ti.DecWidth)
		return value.StructuralType(value.StructuralTypeDefinition{
			Kind: value.SDecimal, HasDecWidth: true, DecWidth: w,
		}), nil

	case bytecode.T_ARRAY:
		elem, err := m.evalType(ti.Element)
		if err != nil {
			return value.Type{}, err
		}
		return value.StructuralType(value.StructuralTypeDefinition{
			Kind: value.SArray, ArrayElement: value.TypeValueBox{T: elem},
		}), nil

	case bytecode.T_MAP:
		fields := make([]value.MapField, 0, len(ti.Entries))
		for _, e := range ti.Entries {
			k, err := m.evalType(e.Key)
			if err != nil {
				return value.Type{}, err
			}
			v, err := m.evalType(e.Type)
			if err != nil {
				return value.Type{}, err
			}
			fields = append(fields, value.MapField{Key: value.TypeValueBox{T: k}, Value: value.TypeValueBox{T: v}})
		}
		return value.StructuralType(value.StructuralTypeDefinition{Kind: value.SMap, MapFields: fields}), nil

	case bytecode.T_STRUCT, bytecode.T_TUPLE:
		// TUPLE lowers to a Map at the value level (see eval.go's
		// evalTuple), so its type is checked the same Struct-shaped way:
		// named fields by name, positional fields by stringified index.
		fields := make([]value.StructField, 0, len(ti.Entries))
		for i, e := range ti.Entries {
			v, err := m.evalType(e.Type)
			if err != nil {
				return value.Type{}, err
			}
			name := e.Name
			if name == "" {
				name = indexName(i)
			}
			fields = append(fields, value.StructField{Name: name, Value: value.TypeValueBox{T: v}})
		}
		return value.StructuralType(value.StructuralTypeDefinition{Kind: value.SStruct, StructFields: fields}), nil

	case bytecode.T_TYPE_REFERENCE:
		if ti.Name != "" {
			return value.Type{Name: ti.Name, Definition: value.TypeDefinition{
				Kind: value.TDReference,
				Ref:  &value.TypeReference{Name: ti.Name},
			}}, nil
		}
		return m.resolveTypeByAddress(ti.PointerAddr)

	case bytecode.T_IMPL_TYPE:
		base, err := m.evalType(ti.Base)
		if err != nil {
			return value.Type{}, err
		}
		return value.Type{Definition: value.TypeDefinition{
			Kind:          value.TDImplType,
			ImplBase:      &base.Definition,
			ImplAddresses: ti.ImplAddrs,
		}}, nil

	case bytecode.T_UNION, bytecode.T_INTERSECTION, bytecode.T_INTERFACE, bytecode.T_VARIANT,
		bytecode.T_MEMBER, bytecode.T_GENERIC, bytecode.T_LITERAL_INTEGER:
		return value.UnknownType(), nil

	default:
		return value.UnknownType(), nil
	}
}

// resolveTypeByAddress asks the oracle for a named-type slot (stored the
// same way any other pointer address is, per spec.md §4.G).
func (m *Machine) resolveTypeByAddress(addr value.PointerAddress) (value.Type, error) {
	c, err := m.resolvePointer(addr)
	if err != nil {
		return value.Type{}, err
	}
	t, ok := c.Resolve().Inner.(value.Type)
	if !ok {
		return value.UnknownType(), nil
	}
	return t, nil
}

func indexName(i int) string {
	digits := "0123456789"
	if i < 10 {
		return string(digits[i])
	}
	// rare multi-digit tuple positions; simple base-10 without fmt.
	var buf []byte
	for i > 0 {
		buf = append([]byte{digits[i%10]}, buf...)
		i /= 10
	}
	return string(buf)
}
