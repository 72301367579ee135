package value_test

import (
	"math/big"
	"testing"

	derr "datex/internal/errors"
	"datex/internal/value"
)

func text(s string) value.Container { return value.ValueOf(value.Text(s)) }

func intC(n int64) value.Container {
	return value.ValueOf(value.Integer{Val: big.NewInt(n), Width: value.WidthI64})
}

func TestAddConcatenatesText(t *testing.T) {
	result, err := value.Add(text("foo"), text("bar"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := result.Resolve().Inner.(value.Text); got != "foobar" {
		t.Errorf(`"foo" + "bar" = %q, want "foobar"`, got)
	}
}

func TestSubMulDivRejectText(t *testing.T) {
	cases := []struct {
		name string
		op   func(a, b value.Container) (value.Container, error)
	}{
		{"Sub", value.Sub},
		{"Mul", value.Mul},
		{"Div", value.Div},
	}
	for _, c := range cases {
		_, err := c.op(text("a"), text("b"))
		if err == nil {
			t.Errorf(`%s("a", "b") should reject text operands, got no error`, c.name)
			continue
		}
		execErr, ok := err.(*derr.ExecutionError)
		if !ok || execErr.Type == nil || execErr.Type.Kind != derr.MismatchedOperands {
			t.Errorf("%s(\"a\", \"b\") error = %v, want MismatchedOperands", c.name, err)
		}
	}
}

func TestAddIntegers(t *testing.T) {
	result, err := value.Add(intC(1), intC(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := result.Resolve().Inner.(value.Integer).Val; got.Cmp(big.NewInt(3)) != 0 {
		t.Errorf("1 + 2 = %v, want 3", got)
	}
}
