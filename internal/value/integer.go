package value

import (
	"fmt"
	"math/big"

	"github.com/remyoudompheng/bigfft"

	derr "datex/internal/errors"
)

// IntWidth enumerates the typed-integer width variants from spec.md §3.
type IntWidth int

const (
	// WidthBig marks an untyped, arbitrary-precision integer.
	WidthBig IntWidth = iota
	WidthI8
	WidthI16
	WidthI32
	WidthI64
	WidthI128
	WidthU8
	WidthU16
	WidthU32
	WidthU64
	WidthU128
)

func (w IntWidth) String() string {
	switch w {
	case WidthBig:
		return "big"
	case WidthI8:
		return "i8"
	case WidthI16:
		return "i16"
	case WidthI32:
		return "i32"
	case WidthI64:
		return "i64"
	case WidthI128:
		return "i128"
	case WidthU8:
		return "u8"
	case WidthU16:
		return "u16"
	case WidthU32:
		return "u32"
	case WidthU64:
		return "u64"
	case WidthU128:
		return "u128"
	default:
		return "?"
	}
}

// bitsAndSigned returns the bit width and signedness for a fixed-width
// variant; WidthBig has no fixed bounds.
func (w IntWidth) bitsAndSigned() (bits int, signed bool, ok bool) {
	switch w {
	case WidthI8:
		return 8, true, true
	case WidthI16:
		return 16, true, true
	case WidthI32:
		return 32, true, true
	case WidthI64:
		return 64, true, true
	case WidthI128:
		return 128, true, true
	case WidthU8:
		return 8, false, true
	case WidthU16:
		return 16, false, true
	case WidthU32:
		return 32, false, true
	case WidthU64:
		return 64, false, true
	case WidthU128:
		return 128, false, true
	default:
		return 0, false, false
	}
}

// bounds returns [min, max] (inclusive) for a fixed-width variant.
func (w IntWidth) bounds() (min, max *big.Int) {
	bits, signed, ok := w.bitsAndSigned()
	if !ok {
		return nil, nil
	}
	if signed {
		max = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(bits-1)), big.NewInt(1))
		min = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), uint(bits-1)))
	} else {
		max = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(bits)), big.NewInt(1))
		min = big.NewInt(0)
	}
	return min, max
}

// Integer is DATEX's arbitrary-precision integer, optionally carrying a
// fixed-width typed variant (spec.md §3: `Integer` and `TypedInteger`).
type Integer struct {
	Val   *big.Int
	Width IntWidth
}

func NewInteger(v *big.Int) Integer {
	return Integer{Val: v, Width: WidthBig}
}

func NewTypedInteger(v *big.Int, width IntWidth) (Integer, error) {
	i := Integer{Val: v, Width: width}
	if width != WidthBig {
		min, max := width.bounds()
		if v.Cmp(min) < 0 || v.Cmp(max) > 0 {
			return Integer{}, derr.ErrValue(derr.IntegerOverflow, fmt.Sprintf("%s does not fit in %s", v.String(), width))
		}
	}
	return i, nil
}

func IntegerFromInt64(v int64) Integer {
	return Integer{Val: big.NewInt(v), Width: WidthBig}
}

func (i Integer) String() string {
	return i.Val.String()
}

func (i Integer) Clone() Integer {
	return Integer{Val: new(big.Int).Set(i.Val), Width: i.Width}
}

func (i Integer) Equal(other Integer) bool {
	return i.Val.Cmp(other.Val) == 0
}

// promotedWidth implements the promotion rule from spec.md §4.A:
// "Arithmetic on integers promotes to a wider typed integer if both
// operands carry the same width variant; otherwise BigInteger."
func promotedWidth(a, b IntWidth) IntWidth {
	if a == b {
		return a
	}
	return WidthBig
}

type intOp func(z, x, y *big.Int) *big.Int

func addOp(z, x, y *big.Int) *big.Int { return z.Add(x, y) }
func subOp(z, x, y *big.Int) *big.Int { return z.Sub(x, y) }
func modOp(z, x, y *big.Int) *big.Int { return z.Mod(x, y) }

// mulOp multiplies using bigfft for operands large enough that FFT
// multiplication beats big.Int's schoolbook/Karatsuba implementation;
// small operands fall back to the stdlib path bigfft itself uses
// internally below its crossover size.
func mulOp(z, x, y *big.Int) *big.Int {
	return z.Set(bigfft.Mul(x, y))
}

func (i Integer) arith(other Integer, op intOp, symbol string) (Integer, error) {
	width := promotedWidth(i.Width, other.Width)
	result := op(new(big.Int), i.Val, other.Val)
	return NewTypedInteger(result, width)
}

func (i Integer) Add(other Integer) (Integer, error) { return i.arith(other, addOp, "+") }
func (i Integer) Sub(other Integer) (Integer, error) { return i.arith(other, subOp, "-") }
func (i Integer) Mul(other Integer) (Integer, error) { return i.arith(other, mulOp, "*") }

func (i Integer) Div(other Integer) (Integer, error) {
	if other.Val.Sign() == 0 {
		return Integer{}, derr.ErrValue(derr.InvalidOperation, "division by zero")
	}
	width := promotedWidth(i.Width, other.Width)
	q := new(big.Int).Quo(i.Val, other.Val)
	return NewTypedInteger(q, width)
}

func (i Integer) Mod(other Integer) (Integer, error) {
	if other.Val.Sign() == 0 {
		return Integer{}, derr.ErrValue(derr.InvalidOperation, "modulo by zero")
	}
	return i.arith(other, modOp, "%")
}

func (i Integer) Cmp(other Integer) int {
	return i.Val.Cmp(other.Val)
}

// Negate returns -i, keeping the same typed width.
func (i Integer) Negate() Integer {
	return Integer{Val: new(big.Int).Neg(i.Val), Width: i.Width}
}
