// Package errors defines the typed error taxonomy shared by every stage
// of the DATEX pipeline (lexer, parser, precompiler, compiler, execution
// engine). Each stage gets its own error type instead of one catch-all.
// Parser and compiler errors carry a source span and DXB decoding errors
// a byte offset; the value-level and execution errors carry neither.
package errors

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Span is a half-open byte range in the original source text.
type Span struct {
	Start int
	End   int
}

func (s Span) String() string {
	return fmt.Sprintf("%d..%d", s.Start, s.End)
}

// ParserErrorKind enumerates the recoverable lexical/syntactic failures
// from spec.md §7.
type ParserErrorKind int

const (
	InvalidToken ParserErrorKind = iota
	UnexpectedToken
	ExpectedMoreTokens
	InvalidEndpointName
	InvalidAssignmentTarget
	NumberParseErrorInvalidFormat
	NumberParseErrorOutOfRange
)

func (k ParserErrorKind) String() string {
	switch k {
	case InvalidToken:
		return "InvalidToken"
	case UnexpectedToken:
		return "UnexpectedToken"
	case ExpectedMoreTokens:
		return "ExpectedMoreTokens"
	case InvalidEndpointName:
		return "InvalidEndpointName"
	case InvalidAssignmentTarget:
		return "InvalidAssignmentTarget"
	case NumberParseErrorInvalidFormat:
		return "NumberParseError(InvalidFormat)"
	case NumberParseErrorOutOfRange:
		return "NumberParseError(OutOfRange)"
	default:
		return "UnknownParserError"
	}
}

// SpannedParserError is a single recoverable parse failure. The parser
// collects these instead of aborting; see spec.md §4.C.
type SpannedParserError struct {
	Kind     ParserErrorKind
	Message  string
	Span     Span
	Expected string
	Found    string
}

func (e *SpannedParserError) Error() string {
	if e.Kind == UnexpectedToken {
		return fmt.Sprintf("%s at %s: expected %s, found %s", e.Kind, e.Span, e.Expected, e.Found)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s at %s: %s", e.Kind, e.Span, e.Message)
	}
	return fmt.Sprintf("%s at %s", e.Kind, e.Span)
}

func NewUnexpectedToken(span Span, expected, found string) *SpannedParserError {
	return &SpannedParserError{Kind: UnexpectedToken, Span: span, Expected: expected, Found: found}
}

func NewParserError(kind ParserErrorKind, span Span, message string) *SpannedParserError {
	return &SpannedParserError{Kind: kind, Span: span, Message: message}
}

// CompilerErrorKind enumerates fatal precompile/compile failures.
type CompilerErrorKind int

const (
	UndeclaredVariable CompilerErrorKind = iota
	IntegerOutOfBounds
	InvalidPlaceholderCount
	NonStaticValue
	ScopePopError
	MismatchedOperandTypes
)

func (k CompilerErrorKind) String() string {
	switch k {
	case UndeclaredVariable:
		return "UndeclaredVariable"
	case IntegerOutOfBounds:
		return "IntegerOutOfBounds"
	case InvalidPlaceholderCount:
		return "InvalidPlaceholderCount"
	case NonStaticValue:
		return "NonStaticValue"
	case ScopePopError:
		return "ScopePopError"
	case MismatchedOperandTypes:
		return "MismatchedOperandTypes"
	default:
		return "UnknownCompilerError"
	}
}

// CompilerError is fatal for the compilation unit it occurs in.
type CompilerError struct {
	Kind    CompilerErrorKind
	Message string
	Span    Span
}

func (e *CompilerError) Error() string {
	return fmt.Sprintf("%s at %s: %s", e.Kind, e.Span, e.Message)
}

func NewCompilerError(kind CompilerErrorKind, span Span, message string) *CompilerError {
	return &CompilerError{Kind: kind, Span: span, Message: message}
}

func WrapCompilerError(kind CompilerErrorKind, span Span, cause error, context string) *CompilerError {
	return &CompilerError{Kind: kind, Span: span, Message: pkgerrors.Wrap(cause, context).Error()}
}

// DXBParserErrorKind enumerates decoding failures for the DXB byte
// stream (spec.md §4.E/§7).
type DXBParserErrorKind int

const (
	UnknownOpcode DXBParserErrorKind = iota
	TruncatedPayload
	MalformedOpcode
)

func (k DXBParserErrorKind) String() string {
	switch k {
	case UnknownOpcode:
		return "UnknownOpcode"
	case TruncatedPayload:
		return "TruncatedPayload"
	case MalformedOpcode:
		return "MalformedOpcode"
	default:
		return "UnknownDXBParserError"
	}
}

// DXBParserError reports a malformed DXB body at a given byte offset.
type DXBParserError struct {
	Kind    DXBParserErrorKind
	Offset  int
	Message string
}

func (e *DXBParserError) Error() string {
	return fmt.Sprintf("%s at byte %d: %s", e.Kind, e.Offset, e.Message)
}

func NewDXBParserError(kind DXBParserErrorKind, offset int, message string) *DXBParserError {
	return &DXBParserError{Kind: kind, Offset: offset, Message: message}
}

// ValueErrorKind enumerates operand-level failures from the value model
// (spec.md §4.A).
type ValueErrorKind int

const (
	IsVoid ValueErrorKind = iota
	InvalidOperation
	IntegerOverflow
	TypeConversionError
	InvalidTypeCastValue
)

func (k ValueErrorKind) String() string {
	switch k {
	case IsVoid:
		return "IsVoid"
	case InvalidOperation:
		return "InvalidOperation"
	case IntegerOverflow:
		return "IntegerOverflow"
	case TypeConversionError:
		return "TypeConversionError"
	case InvalidTypeCastValue:
		return "InvalidTypeCastValue"
	default:
		return "UnknownValueError"
	}
}

type ValueError struct {
	Kind    ValueErrorKind
	Message string
}

func (e *ValueError) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewValueError(kind ValueErrorKind, message string) *ValueError {
	return &ValueError{Kind: kind, Message: message}
}

// TypeErrorKind enumerates type-system level failures.
type TypeErrorKind int

const (
	MismatchedOperands TypeErrorKind = iota
	ExpectedTypeValueKind
)

func (k TypeErrorKind) String() string {
	switch k {
	case MismatchedOperands:
		return "MismatchedOperands"
	case ExpectedTypeValueKind:
		return "ExpectedTypeValue"
	default:
		return "UnknownTypeError"
	}
}

type TypeError struct {
	Kind    TypeErrorKind
	Message string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewTypeError(kind TypeErrorKind, message string) *TypeError {
	return &TypeError{Kind: kind, Message: message}
}

// AssignmentErrorKind enumerates reference-mutability failures.
type AssignmentErrorKind int

const (
	Immutable AssignmentErrorKind = iota
	FinalAssignment
)

func (k AssignmentErrorKind) String() string {
	switch k {
	case Immutable:
		return "Immutable"
	case FinalAssignment:
		return "Final"
	default:
		return "UnknownAssignmentError"
	}
}

type AssignmentError struct {
	Kind AssignmentErrorKind
}

func (e *AssignmentError) Error() string {
	return fmt.Sprintf("AssignmentError: %s", e.Kind)
}

// AccessErrorKind enumerates access-level execution failures.
type AccessErrorKind int

const (
	PropertyNotFound AccessErrorKind = iota
	IndexOutOfBounds
)

type AccessError struct {
	Kind    AccessErrorKind
	Message string
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("AccessError: %s", e.Message)
}

// InvalidProgramKind enumerates unrecoverable execution-engine
// invariant violations — these indicate a bug in the compiler, not in
// user code (spec.md §7).
type InvalidProgramKind int

const (
	UnterminatedSequence InvalidProgramKind = iota
	MissingRemoteExecutionReceiver
	ExpectedTypeValue
	NotImplemented
)

func (k InvalidProgramKind) String() string {
	switch k {
	case UnterminatedSequence:
		return "UnterminatedSequence"
	case MissingRemoteExecutionReceiver:
		return "MissingRemoteExecutionReceiver"
	case ExpectedTypeValue:
		return "ExpectedTypeValue"
	case NotImplemented:
		return "NotImplemented"
	default:
		return "UnknownInvalidProgram"
	}
}

// ExecutionError is the unified error type returned by the execution
// engine (Component F). Exactly one of the typed fields is non-nil;
// InvalidProgram/SlotNotAllocated/etc. are plain sentinels carrying just
// enough data to report.
type ExecutionError struct {
	Value                  *ValueError
	Type                   *TypeError
	Assignment             *AssignmentError
	Access                 *AccessError
	InvalidProgram         *InvalidProgramKind
	SlotNotAllocated       *uint32
	SlotNotInitialized     *uint32
	RequiresAsyncExecution bool
	RequiresRuntime        bool
	DerefOfNonReference    bool
	InvalidTypeCast        string
	ResponseError          string
	ReferenceNotFound      string
}

func (e *ExecutionError) Error() string {
	switch {
	case e.Value != nil:
		return e.Value.Error()
	case e.Type != nil:
		return e.Type.Error()
	case e.Assignment != nil:
		return e.Assignment.Error()
	case e.Access != nil:
		return e.Access.Error()
	case e.InvalidProgram != nil:
		return fmt.Sprintf("InvalidProgram: %s", *e.InvalidProgram)
	case e.SlotNotAllocated != nil:
		return fmt.Sprintf("SlotNotAllocated(%d)", *e.SlotNotAllocated)
	case e.SlotNotInitialized != nil:
		return fmt.Sprintf("SlotNotInitialized(%d)", *e.SlotNotInitialized)
	case e.RequiresAsyncExecution:
		return "RequiresAsyncExecution"
	case e.RequiresRuntime:
		return "RequiresRuntime"
	case e.DerefOfNonReference:
		return "DerefOfNonReference"
	case e.InvalidTypeCast != "":
		return fmt.Sprintf("InvalidTypeCast: %s", e.InvalidTypeCast)
	case e.ResponseError != "":
		return fmt.Sprintf("ResponseError: %s", e.ResponseError)
	case e.ReferenceNotFound != "":
		return fmt.Sprintf("ReferenceNotFound: %s", e.ReferenceNotFound)
	default:
		return "ExecutionError"
	}
}

func ErrValue(kind ValueErrorKind, message string) *ExecutionError {
	return &ExecutionError{Value: &ValueError{Kind: kind, Message: message}}
}

func ErrType(kind TypeErrorKind, message string) *ExecutionError {
	return &ExecutionError{Type: &TypeError{Kind: kind, Message: message}}
}

func ErrAssignment(kind AssignmentErrorKind) *ExecutionError {
	return &ExecutionError{Assignment: &AssignmentError{Kind: kind}}
}

func ErrInvalidProgram(kind InvalidProgramKind) *ExecutionError {
	k := kind
	return &ExecutionError{InvalidProgram: &k}
}

func ErrSlotNotAllocated(addr uint32) *ExecutionError {
	a := addr
	return &ExecutionError{SlotNotAllocated: &a}
}

func ErrSlotNotInitialized(addr uint32) *ExecutionError {
	a := addr
	return &ExecutionError{SlotNotInitialized: &a}
}

func ErrDerefOfNonReference() *ExecutionError {
	return &ExecutionError{DerefOfNonReference: true}
}

func ErrInvalidTypeCast(message string) *ExecutionError {
	return &ExecutionError{InvalidTypeCast: message}
}

func ErrReferenceNotFound(addr string) *ExecutionError {
	return &ExecutionError{ReferenceNotFound: addr}
}

func ErrResponse(message string) *ExecutionError {
	return &ExecutionError{ResponseError: message}
}

// Wrap attaches additional context to an arbitrary error using
// github.com/pkg/errors, preserving the cause chain for %+v reporting.
func Wrap(err error, context string) error {
	if err == nil {
		return nil
	}
	return pkgerrors.Wrap(err, context)
}
