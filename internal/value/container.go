package value

import (
	"strings"

	derr "datex/internal/errors"
)

// Container is a ValueContainer (spec.md §3): either an immediate Value
// or a shared, possibly-mutable Reference. Only references carry
// identity — two independently constructed Boxed containers are never
// identical even when structurally equal.
type Container interface {
	isContainer()
	String() string
	// Resolve collapses any chain of references down to the Value they
	// ultimately hold ("a reference's stored value may itself be a
	// reference (collapsed on resolution)", spec.md §3).
	Resolve() Value
}

// Boxed is the ValueContainer::Value(v) variant: an immediate value
// with no shared identity.
type Boxed struct {
	V Value
}

func (Boxed) isContainer()      {}
func (b Boxed) String() string  { return b.V.String() }
func (b Boxed) Resolve() Value  { return b.V }

// ValueOf boxes a CoreValue as an immediate (non-reference) container.
func ValueOf(inner CoreValue) Container {
	return Boxed{V: NewValue(inner)}
}

// Box wraps an already-built Value.
func Box(v Value) Container { return Boxed{V: v} }

// AsReference returns c's underlying *Reference, if it is one.
func AsReference(c Container) (*Reference, bool) {
	r, ok := c.(*Reference)
	return r, ok
}

// binaryArith resolves both sides through any reference chain before
// delegating to the CoreValue-level operation. This mirrors
// value_container.rs's Add/Sub impls, which operate transparently
// across Value/Reference combinations (see SPEC_FULL.md's "ValueContainer
// arithmetic operator overloading" note).
func binaryArith(a, b Container, op func(x, y Value) (Value, error)) (Container, error) {
	result, err := op(a.Resolve(), b.Resolve())
	if err != nil {
		return nil, err
	}
	return Box(result), nil
}

func Add(a, b Container) (Container, error) { return binaryArith(a, b, addValues) }
func Sub(a, b Container) (Container, error) { return binaryArith(a, b, subValues) }
func Mul(a, b Container) (Container, error) { return binaryArith(a, b, mulValues) }
func Div(a, b Container) (Container, error) { return binaryArith(a, b, divValues) }
func Mod(a, b Container) (Container, error) { return binaryArith(a, b, modValues) }

// addValues etc. implement spec.md §4.A's promotion/mismatch rules:
// integer+integer promotes per Integer.Add; decimal+decimal combines
// per Decimal.Add; mixing Integer and Decimal without an explicit cast
// is a TypeError::MismatchedOperands.
func addValues(a, b Value) (Value, error) {
	// text + text is concatenation, a common DATEX convenience. Add is
	// the only arithmetic operator this applies to; Sub/Mul/Div on text
	// fall through numericOp to the MismatchedOperands error below.
	if at, aok := a.Inner.(Text); aok {
		if bt, bok := b.Inner.(Text); bok {
			return NewValue(Text(string(at) + string(bt))), nil
		}
	}
	return numericOp(a, b, Integer.Add, Decimal.Add)
}
func subValues(a, b Value) (Value, error) { return numericOp(a, b, Integer.Sub, Decimal.Sub) }
func mulValues(a, b Value) (Value, error) { return numericOp(a, b, Integer.Mul, Decimal.Mul) }
func divValues(a, b Value) (Value, error) { return numericOp(a, b, Integer.Div, Decimal.Div) }

func modValues(a, b Value) (Value, error) {
	ai, aok := a.Inner.(Integer)
	bi, bok := b.Inner.(Integer)
	if aok && bok {
		r, err := ai.Mod(bi)
		if err != nil {
			return Value{}, err
		}
		return NewValue(r), nil
	}
	if a.Inner.Kind() == KindText && b.Inner.Kind() == KindText {
		return Value{}, derr.ErrValue(derr.InvalidOperation, "% is not defined for text")
	}
	return Value{}, derr.ErrType(derr.MismatchedOperands, "% requires two integers")
}

func numericOp(a, b Value, intOp func(Integer, Integer) (Integer, error), decOp func(Decimal, Decimal) (Decimal, error)) (Value, error) {
	ai, aIsInt := a.Inner.(Integer)
	bi, bIsInt := b.Inner.(Integer)
	if aIsInt && bIsInt {
		r, err := intOp(ai, bi)
		if err != nil {
			return Value{}, err
		}
		return NewValue(r), nil
	}

	ad, aIsDec := asDecimal(a.Inner)
	bd, bIsDec := asDecimal(b.Inner)
	if aIsDec && bIsDec {
		r, err := decOp(ad, bd)
		if err != nil {
			return Value{}, err
		}
		return NewValue(r), nil
	}

	if (aIsInt || aIsDec) && (bIsInt || bIsDec) {
		return Value{}, derr.ErrType(derr.MismatchedOperands, "mixing integer and decimal requires an explicit cast")
	}
	return Value{}, derr.ErrType(derr.MismatchedOperands, "operands are not numeric")
}

// Compare orders two containers for the <, >, <=, >= comparison
// operators (spec.md §4.A). Only integer/integer, decimal/decimal and
// text/text pairs are ordered; anything else is a mismatched-operand
// type error, the same restriction numericOp applies to arithmetic.
func Compare(a, b Container) (int, error) {
	av, bv := a.Resolve(), b.Resolve()

	ai, aIsInt := av.Inner.(Integer)
	bi, bIsInt := bv.Inner.(Integer)
	if aIsInt && bIsInt {
		return ai.Cmp(bi), nil
	}

	ad, aIsDec := asDecimal(av.Inner)
	bd, bIsDec := asDecimal(bv.Inner)
	if aIsDec && bIsDec {
		ar, aok := ad.asBigRat()
		br, bok := bd.asBigRat()
		if aok && bok {
			return ar.Cmp(br), nil
		}
		return 0, derr.ErrType(derr.MismatchedOperands, "cannot order a non-finite decimal")
	}

	if at, aok := av.Inner.(Text); aok {
		if bt, bok := bv.Inner.(Text); bok {
			return strings.Compare(string(at), string(bt)), nil
		}
	}

	return 0, derr.ErrType(derr.MismatchedOperands, "operands are not ordered")
}

func asDecimal(c CoreValue) (Decimal, bool) {
	switch v := c.(type) {
	case Decimal:
		return v, true
	case TypedDecimal:
		return typedDecimalToDecimal(v), true
	default:
		return Decimal{}, false
	}
}

func typedDecimalToDecimal(t TypedDecimal) Decimal {
	switch t.Width {
	case WidthF32:
		return NewFiniteDecimal(decimalFromFloat64(float64(t.F32)))
	case WidthF64:
		return NewFiniteDecimal(decimalFromFloat64(t.F64))
	default:
		return NewFiniteDecimal(t.DBig)
	}
}
