package parser

import (
	"math/big"
	"strings"

	derr "datex/internal/errors"
	"datex/internal/lexer"
	"datex/internal/value"
)

// intWidthSuffixes maps a literal's trailing suffix to its IntWidth, per
// spec.md §6's numeric suffix list.
var intWidthSuffixes = map[string]value.IntWidth{
	"u8": value.WidthU8, "u16": value.WidthU16, "u32": value.WidthU32,
	"u64": value.WidthU64, "u128": value.WidthU128,
	"i8": value.WidthI8, "i16": value.WidthI16, "i32": value.WidthI32,
	"i64": value.WidthI64, "i128": value.WidthI128,
	"ubig": value.WidthBig, "ibig": value.WidthBig, "big": value.WidthBig,
}

var decWidthSuffixes = map[string]value.DecWidth{
	"f32": value.WidthF32, "f64": value.WidthF64, "dbig": value.WidthDBig,
}

// splitIntegerSuffix separates a decimal-radix integer lexeme's digit run
// (with underscores, and an optional bare exponent) from its trailing
// type suffix, mirroring original_source's NumericLiteralParts.
func splitIntegerSuffix(text string) (digits, exponent, suffix string) {
	i := 0
	for i < len(text) && (isASCIIDigit(text[i]) || text[i] == '_') {
		i++
	}
	digits = text[:i]
	if i < len(text) && (text[i] == 'e' || text[i] == 'E') {
		j := i + 1
		if j < len(text) && (text[j] == '+' || text[j] == '-') {
			j++
		}
		k := j
		for k < len(text) && isASCIIDigit(text[k]) {
			k++
		}
		if k > j {
			exponent = text[i:k]
			i = k
		}
	}
	suffix = text[i:]
	return
}

func isASCIIDigit(c byte) bool { return c >= '0' && c <= '9' }

// literalFromToken builds the literal node for every numeric token kind.
// Resolves spec.md §9's `0e0` open question: any exponent marker routes
// the literal through the decimal path regardless of the mantissa's
// shape, since an exponent is meaningless for an exact integer. The
// lexer emits DecimalLiteral only when a `.` is present; an
// exponent-only literal such as `0e0` arrives as an IntegerLiteral and
// is redirected to the decimal path in that case below.
func (p *Parser) literalFromToken(tok lexer.SpannedToken) Expr {
	text := strings.ReplaceAll(tok.Token.Lexeme, "_", "")
	switch tok.Token.Kind {
	case lexer.IntegerLiteral:
		digits, exponent, suffix := splitIntegerSuffix(text)
		if exponent != "" || suffix != "" && isDecimalSuffix(suffix) {
			return p.decimalFromDigitsExponent(digits, exponent, suffix, tok)
		}
		return p.integerFromDigits(digits, 10, suffix, tok)
	case lexer.BinaryIntegerLiteral:
		digits, suffix := splitRadixSuffix(text[2:])
		return p.integerFromDigits(digits, 2, suffix, tok)
	case lexer.OctalIntegerLiteral:
		digits, suffix := splitRadixSuffix(text[2:])
		return p.integerFromDigits(digits, 8, suffix, tok)
	case lexer.HexadecimalIntegerLiteral:
		digits, suffix := splitRadixSuffix(text[2:])
		return p.integerFromDigits(digits, 16, suffix, tok)
	case lexer.DecimalLiteral:
		mantissa, exponent, suffix := splitDecimalParts(text)
		return p.decimalFromDigitsExponent(mantissa, exponent, suffix, tok)
	case lexer.FractionLiteral:
		parts := strings.SplitN(text, "/", 2)
		num, ok1 := new(big.Int).SetString(parts[0], 10)
		den, ok2 := new(big.Int).SetString(parts[1], 10)
		if !ok1 || !ok2 {
			p.errorAt(tok.Span, derr.NumberParseErrorInvalidFormat, "malformed fraction literal")
			return InvalidExpr{}
		}
		d, err := value.NewRationalDecimal(num, den)
		if err != nil {
			p.errorAt(tok.Span, derr.NumberParseErrorInvalidFormat, err.Error())
			return InvalidExpr{}
		}
		return DecimalExpr{Decimal: &d}
	case lexer.Nan:
		d := value.NewNaNDecimal()
		return DecimalExpr{Decimal: &d}
	case lexer.Infinity:
		neg := strings.HasPrefix(text, "-")
		var d value.Decimal
		if neg {
			d = value.NewNegInfDecimal()
		} else {
			d = value.NewPosInfDecimal()
		}
		return DecimalExpr{Decimal: &d}
	default:
		p.errorAt(tok.Span, derr.NumberParseErrorInvalidFormat, "not a numeric literal")
		return InvalidExpr{}
	}
}

func isDecimalSuffix(suffix string) bool {
	_, ok := decWidthSuffixes[suffix]
	return ok
}

func splitRadixSuffix(text string) (digits, suffix string) {
	i := 0
	for i < len(text) && isHexDigitASCII(text[i]) {
		i++
	}
	return text[:i], text[i:]
}

func isHexDigitASCII(c byte) bool {
	return isASCIIDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func splitDecimalParts(text string) (mantissa, exponent, suffix string) {
	i := 0
	for i < len(text) && isASCIIDigit(text[i]) {
		i++
	}
	if i < len(text) && text[i] == '.' {
		i++
		for i < len(text) && isASCIIDigit(text[i]) {
			i++
		}
	}
	mantissa = text[:i]
	if i < len(text) && (text[i] == 'e' || text[i] == 'E') {
		j := i + 1
		if j < len(text) && (text[j] == '+' || text[j] == '-') {
			j++
		}
		k := j
		for k < len(text) && isASCIIDigit(text[k]) {
			k++
		}
		if k > j {
			exponent = text[i:k]
			i = k
		}
	}
	suffix = text[i:]
	return
}

func (p *Parser) integerFromDigits(digits string, radix int, suffix string, tok lexer.SpannedToken) Expr {
	v, ok := new(big.Int).SetString(digits, radix)
	if !ok {
		p.errorAt(tok.Span, derr.NumberParseErrorInvalidFormat, "invalid integer digits")
		return InvalidExpr{}
	}
	if suffix == "" {
		return IntegerExpr{Value: value.NewInteger(v)}
	}
	width, ok := intWidthSuffixes[suffix]
	if !ok {
		p.errorAt(tok.Span, derr.NumberParseErrorInvalidFormat, "unrecognized integer suffix '"+suffix+"'")
		return InvalidExpr{}
	}
	i, err := value.NewTypedInteger(v, width)
	if err != nil {
		p.errorAt(tok.Span, derr.NumberParseErrorOutOfRange, err.Error())
		return InvalidExpr{}
	}
	return IntegerExpr{Value: i}
}

func (p *Parser) decimalFromDigitsExponent(mantissa, exponent, suffix string, tok lexer.SpannedToken) Expr {
	full := mantissa
	if exponent != "" {
		full += exponent
	}
	if suffix == "" {
		d, err := value.NewDecimalFromString(full)
		if err != nil {
			p.errorAt(tok.Span, derr.NumberParseErrorInvalidFormat, err.Error())
			return InvalidExpr{}
		}
		return DecimalExpr{Decimal: &d}
	}
	width, ok := decWidthSuffixes[suffix]
	if !ok {
		p.errorAt(tok.Span, derr.NumberParseErrorInvalidFormat, "unrecognized decimal suffix '"+suffix+"'")
		return InvalidExpr{}
	}
	switch width {
	case value.WidthF32:
		f, err := value.ExactFloatBits32(full)
		if err != nil {
			p.errorAt(tok.Span, derr.NumberParseErrorInvalidFormat, err.Error())
			return InvalidExpr{}
		}
		td := value.NewTypedDecimalF32(f)
		return DecimalExpr{TypedDecimal: &td}
	case value.WidthF64:
		f, err := value.ExactFloatBits64(full)
		if err != nil {
			p.errorAt(tok.Span, derr.NumberParseErrorInvalidFormat, err.Error())
			return InvalidExpr{}
		}
		td := value.NewTypedDecimalF64(f)
		return DecimalExpr{TypedDecimal: &td}
	default: // dbig
		d, err := value.NewDecimalFromString(full)
		if err != nil {
			p.errorAt(tok.Span, derr.NumberParseErrorInvalidFormat, err.Error())
			return InvalidExpr{}
		}
		td := value.NewTypedDecimalDBig(d.Val)
		return DecimalExpr{TypedDecimal: &td}
	}
}
