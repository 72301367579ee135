package value

import (
	"fmt"
	"math/big"

	mewfloat "github.com/mewmew/float"
	"github.com/shopspring/decimal"
	"modernc.org/mathutil"

	derr "datex/internal/errors"
)

// DecimalKind distinguishes the special forms an untyped Decimal can
// take (spec.md §3: "arbitrary precision, plus NaN, +Inf, -Inf,
// rational").
type DecimalKind int

const (
	DecimalFinite DecimalKind = iota
	DecimalNaN
	DecimalPosInf
	DecimalNegInf
	DecimalRational
)

// Decimal is DATEX's untyped, arbitrary-precision decimal value. Finite
// values are backed by shopspring/decimal; the rational form keeps an
// exact numerator/denominator pair reduced via GCD instead of losing
// precision to a decimal approximation.
type Decimal struct {
	Kind DecimalKind
	Val  decimal.Decimal
	Rat  *big.Rat
}

func NewFiniteDecimal(d decimal.Decimal) Decimal {
	return Decimal{Kind: DecimalFinite, Val: d}
}

// NewDecimalFromString parses a decimal literal's digit text (mantissa
// plus optional exponent, underscores already stripped) into a finite
// Decimal.
func NewDecimalFromString(text string) (Decimal, error) {
	d, err := decimal.NewFromString(text)
	if err != nil {
		return Decimal{}, derr.ErrValue(derr.TypeConversionError, err.Error())
	}
	return NewFiniteDecimal(d), nil
}

func decimalFromFloat64(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func NewNaNDecimal() Decimal  { return Decimal{Kind: DecimalNaN} }
func NewPosInfDecimal() Decimal { return Decimal{Kind: DecimalPosInf} }
func NewNegInfDecimal() Decimal { return Decimal{Kind: DecimalNegInf} }

// NewRationalDecimal builds the exact rational form of numerator/
// denominator, reducing by their GCD the same way the lexer's `N/M`
// fraction literals (spec.md §4.B) are normalized before being handed
// to the compiler as a constant.
func NewRationalDecimal(num, den *big.Int) (Decimal, error) {
	if den.Sign() == 0 {
		return Decimal{}, derr.ErrValue(derr.InvalidOperation, "fraction with zero denominator")
	}
	g := mathutil.GCD(new(big.Int).Abs(num), new(big.Int).Abs(den))
	if g.Sign() != 0 && g.Cmp(big.NewInt(1)) != 0 {
		num = new(big.Int).Quo(num, g)
		den = new(big.Int).Quo(den, g)
	}
	r := new(big.Rat).SetFrac(num, den)
	return Decimal{Kind: DecimalRational, Rat: r}, nil
}

// DisplayMode selects between DATEX's own literal forms and
// JSON-compatible output for NaN/Infinity (spec.md §4.A).
type DisplayMode int

const (
	DatexDisplay DisplayMode = iota
	JSONDisplay
)

func (d Decimal) Display(mode DisplayMode) string {
	switch d.Kind {
	case DecimalNaN:
		if mode == JSONDisplay {
			return "NaN"
		}
		return "nan"
	case DecimalPosInf:
		if mode == JSONDisplay {
			return "Infinity"
		}
		return "infinity"
	case DecimalNegInf:
		if mode == JSONDisplay {
			return "-Infinity"
		}
		return "-infinity"
	case DecimalRational:
		return d.Rat.RatString()
	default:
		return d.Val.String()
	}
}

func (d Decimal) String() string { return d.Display(DatexDisplay) }

func (d Decimal) IsSpecial() bool {
	return d.Kind != DecimalFinite && d.Kind != DecimalRational
}

func (d Decimal) asBigRat() (*big.Rat, bool) {
	switch d.Kind {
	case DecimalRational:
		return d.Rat, true
	case DecimalFinite:
		r := new(big.Rat)
		r.SetString(d.Val.String())
		return r, true
	default:
		return nil, false
	}
}

func (a Decimal) Add(b Decimal) (Decimal, error) {
	if a.Kind == DecimalRational || b.Kind == DecimalRational {
		ar, _ := a.asBigRat()
		br, _ := b.asBigRat()
		return Decimal{Kind: DecimalRational, Rat: new(big.Rat).Add(ar, br)}, nil
	}
	if a.IsSpecial() || b.IsSpecial() {
		return decimalInfNaNAdd(a, b), nil
	}
	return NewFiniteDecimal(a.Val.Add(b.Val)), nil
}

func (a Decimal) Sub(b Decimal) (Decimal, error) {
	if a.Kind == DecimalRational || b.Kind == DecimalRational {
		ar, _ := a.asBigRat()
		br, _ := b.asBigRat()
		return Decimal{Kind: DecimalRational, Rat: new(big.Rat).Sub(ar, br)}, nil
	}
	if a.IsSpecial() || b.IsSpecial() {
		return decimalInfNaNAdd(a, decimalNegate(b)), nil
	}
	return NewFiniteDecimal(a.Val.Sub(b.Val)), nil
}

func (a Decimal) Mul(b Decimal) (Decimal, error) {
	if a.Kind == DecimalRational || b.Kind == DecimalRational {
		ar, _ := a.asBigRat()
		br, _ := b.asBigRat()
		return Decimal{Kind: DecimalRational, Rat: new(big.Rat).Mul(ar, br)}, nil
	}
	if a.IsSpecial() || b.IsSpecial() {
		return NewNaNDecimal(), nil
	}
	return NewFiniteDecimal(a.Val.Mul(b.Val)), nil
}

func (a Decimal) Div(b Decimal) (Decimal, error) {
	if b.Kind == DecimalFinite && b.Val.IsZero() {
		if a.Val.IsZero() {
			return NewNaNDecimal(), nil
		}
		if a.Val.IsPositive() {
			return NewPosInfDecimal(), nil
		}
		return NewNegInfDecimal(), nil
	}
	if a.Kind == DecimalRational || b.Kind == DecimalRational {
		ar, _ := a.asBigRat()
		br, _ := b.asBigRat()
		if br.Sign() == 0 {
			return NewNaNDecimal(), nil
		}
		return Decimal{Kind: DecimalRational, Rat: new(big.Rat).Quo(ar, br)}, nil
	}
	if a.IsSpecial() || b.IsSpecial() {
		return NewNaNDecimal(), nil
	}
	return NewFiniteDecimal(a.Val.Div(b.Val)), nil
}

// Negate returns -d.
func (d Decimal) Negate() Decimal { return decimalNegate(d) }

func decimalNegate(d Decimal) Decimal {
	switch d.Kind {
	case DecimalPosInf:
		return NewNegInfDecimal()
	case DecimalNegInf:
		return NewPosInfDecimal()
	case DecimalNaN:
		return d
	case DecimalRational:
		return Decimal{Kind: DecimalRational, Rat: new(big.Rat).Neg(d.Rat)}
	default:
		return NewFiniteDecimal(d.Val.Neg())
	}
}

func decimalInfNaNAdd(a, b Decimal) Decimal {
	if a.Kind == DecimalNaN || b.Kind == DecimalNaN {
		return NewNaNDecimal()
	}
	if a.Kind == DecimalPosInf || b.Kind == DecimalPosInf {
		if a.Kind == DecimalNegInf || b.Kind == DecimalNegInf {
			return NewNaNDecimal()
		}
		return NewPosInfDecimal()
	}
	if a.Kind == DecimalNegInf || b.Kind == DecimalNegInf {
		return NewNegInfDecimal()
	}
	// one finite + no special: shouldn't reach here, but stay defined
	if a.IsSpecial() {
		return a
	}
	return b
}

// DecWidth enumerates the fixed-width TypedDecimal variants.
type DecWidth int

const (
	WidthF32 DecWidth = iota
	WidthF64
	WidthDBig
)

func (w DecWidth) String() string {
	switch w {
	case WidthF32:
		return "f32"
	case WidthF64:
		return "f64"
	case WidthDBig:
		return "dbig"
	default:
		return "?"
	}
}

// TypedDecimal is a fixed-representation decimal (spec.md §3).
type TypedDecimal struct {
	Width DecWidth
	F32   float32
	F64   float64
	DBig  decimal.Decimal
}

func NewTypedDecimalF32(f float32) TypedDecimal { return TypedDecimal{Width: WidthF32, F32: f} }
func NewTypedDecimalF64(f float64) TypedDecimal { return TypedDecimal{Width: WidthF64, F64: f} }
func NewTypedDecimalDBig(d decimal.Decimal) TypedDecimal {
	return TypedDecimal{Width: WidthDBig, DBig: d}
}

func (t TypedDecimal) String() string {
	switch t.Width {
	case WidthF32:
		return fmt.Sprintf("%g", t.F32)
	case WidthF64:
		return fmt.Sprintf("%g", t.F64)
	default:
		return t.DBig.String()
	}
}

// ExactFloatBits32 (and ExactFloatBits64) parse a decimal literal's
// digits into the exact float32/float64 bit pattern it denotes, matching the precision a
// `1.5f32`/`1.5f64` suffixed literal (spec.md §4.B) must carry rather
// than whatever strconv.ParseFloat happens to round to — mirroring the
// role mewmew/float plays converting exact numeric-literal text to IEEE
// 754 bits elsewhere in the retrieval pack.
func ExactFloatBits32(text string) (float32, error) {
	f, err := mewfloat.NewFloat32FromString(text)
	if err != nil {
		return 0, derr.ErrValue(derr.TypeConversionError, err.Error())
	}
	return f, nil
}

func ExactFloatBits64(text string) (float64, error) {
	f, err := mewfloat.NewFloat64FromString(text)
	if err != nil {
		return 0, derr.ErrValue(derr.TypeConversionError, err.Error())
	}
	return f, nil
}
