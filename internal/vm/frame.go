package vm

import "datex/internal/value"

// FrameKind tags why a scope-stack frame was pushed, mirroring the
// teacher's `Scope` enum that the real engine's execution loop
// switches on to route a freshly produced value back to its parent
// instruction (spec.md §4.F "push the result as the active value").
// This Go port drives that routing through ordinary recursive return
// values instead (see eval.go's doc comment), but keeps the same tag
// set on the frame stack so Execute's trace output and stack-depth
// reporting describe the same shape of computation the original
// scope-stack walk would have shown.
type FrameKind int

const (
	FramePlain FrameKind = iota
	FrameKeyValuePair
	FrameSlotAssignment
	FrameDeref
	FrameAssignToReference
	FrameApply
	FrameAssignmentOperation
	FrameUnaryOperation
	FrameBinaryOperation
	FrameComparisonOperation
	FrameCollection
)

func (k FrameKind) String() string {
	switch k {
	case FrameKeyValuePair:
		return "key_value_pair"
	case FrameSlotAssignment:
		return "slot_assignment"
	case FrameDeref:
		return "deref"
	case FrameAssignToReference:
		return "assign_to_reference"
	case FrameApply:
		return "apply"
	case FrameAssignmentOperation:
		return "assignment_operation"
	case FrameUnaryOperation:
		return "unary_operation"
	case FrameBinaryOperation:
		return "binary_operation"
	case FrameComparisonOperation:
		return "comparison_operation"
	case FrameCollection:
		return "collection"
	default:
		return "plain"
	}
}

// Frame is one entry of the machine's scope stack (spec.md §4.F: "a
// scope stack of frames; each frame holds an optional active value, a
// scope kind, and frame-local data").
type Frame struct {
	Kind   FrameKind
	Active value.Container
}
