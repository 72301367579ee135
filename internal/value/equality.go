package value

// StructuralEqual compares two containers by shape and value, collapsing
// references to their resolved payload (spec.md §4.A/§8 property 3):
// two references built independently from equal values are structurally
// equal even though they are never identical.
func StructuralEqual(a, b Container) bool {
	return structuralEqualValue(a.Resolve(), b.Resolve())
}

// ValueEqual is structural equality after deref (spec.md §4.A). Since
// Resolve() already derefs fully, it coincides with StructuralEqual in
// this model — the distinction in the original design is about which
// collapsing step has already happened by the time two values meet,
// which Resolve always performs here.
func ValueEqual(a, b Container) bool {
	return StructuralEqual(a, b)
}

// Identical returns true only when a and b are the same reference cell
// (spec.md §4.A): value-value and value-reference pairs are never
// identical.
func Identical(a, b Container) bool {
	ra, aok := AsReference(a)
	rb, bok := AsReference(b)
	if aok && bok {
		return ra.Identical(rb)
	}
	return false
}

func structuralEqualValue(a, b Value) bool {
	if a.Inner == nil || b.Inner == nil {
		return a.Inner == nil && b.Inner == nil
	}
	if a.Inner.Kind() != b.Inner.Kind() {
		return false
	}
	switch av := a.Inner.(type) {
	case Null:
		return true
	case Boolean:
		bv := b.Inner.(Boolean)
		return av == bv
	case Integer:
		bv := b.Inner.(Integer)
		return av.Equal(bv)
	case Decimal:
		bv := b.Inner.(Decimal)
		return decimalStructuralEqual(av, bv)
	case TypedDecimal:
		bv := b.Inner.(TypedDecimal)
		return typedDecimalToDecimal(av).Display(DatexDisplay) == typedDecimalToDecimal(bv).Display(DatexDisplay)
	case Text:
		bv := b.Inner.(Text)
		return av == bv
	case Endpoint:
		bv := b.Inner.(Endpoint)
		return av.Equal(bv)
	case *List:
		bv := b.Inner.(*List)
		if len(av.Items) != len(bv.Items) {
			return false
		}
		for i := range av.Items {
			if !StructuralEqual(av.Items[i], bv.Items[i]) {
				return false
			}
		}
		return true
	case *Map:
		bv := b.Inner.(*Map)
		if av.Len() != bv.Len() {
			return false
		}
		for _, e := range av.entries {
			other, ok := bv.Get(e.key)
			if !ok || !StructuralEqual(e.val, other) {
				return false
			}
		}
		return true
	case Type:
		bv := b.Inner.(Type)
		return av.StructuralEqual(bv)
	default:
		return false
	}
}

func decimalStructuralEqual(a, b Decimal) bool {
	if a.Kind != b.Kind {
		// a finite decimal and an equal-valued rational are still
		// structurally equal if they denote the same number.
		ar, aok := a.asBigRat()
		br, bok := b.asBigRat()
		if aok && bok {
			return ar.Cmp(br) == 0
		}
		return false
	}
	switch a.Kind {
	case DecimalFinite:
		return a.Val.Equal(b.Val)
	case DecimalRational:
		return a.Rat.Cmp(b.Rat) == 0
	default:
		return true // NaN/+Inf/-Inf compare equal to themselves structurally
	}
}
