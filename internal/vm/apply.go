package vm

import "datex/internal/value"

// SingleApplier is implemented by any value that can be invoked with
// exactly one argument without going through the oracle — currently
// only value.Type, whose Apply method performs a cast (spec.md §4.F:
// "Single-arg applies may invoke apply_single for callees that
// implement it, e.g., types performing a cast"). Checking for this
// interface before falling back to External::Apply lets a cast like
// `integer(x)` resolve locally even when no oracle is configured.
type SingleApplier interface {
	Apply(arg value.Value) (value.Value, error)
}

var _ SingleApplier = value.Type{}
