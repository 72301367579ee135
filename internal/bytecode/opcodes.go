// Package bytecode defines the DXB opcode tables shared by the compiler's
// emitter and decoder (spec.md §4.E). Payload layouts are fixed per
// opcode and little-endian throughout.
package bytecode

// OpCode is a single DXB instruction tag in the regular instruction
// space.
type OpCode byte

const (
	NULL OpCode = iota
	TRUE
	FALSE

	UINT_8
	UINT_16
	UINT_32
	UINT_64
	UINT_128
	INT_8
	INT_16
	INT_32
	INT_64
	INT_128
	BIG_INTEGER // length:u32, bytes (big-endian two's complement)

	DECIMAL_AS_INT16
	DECIMAL_AS_INT32
	DECIMAL_F32
	DECIMAL_F64
	DECIMAL // length:u32, bytes — arbitrary-precision/NaN/Inf/rational text form
	DECIMAL_NAN
	DECIMAL_POS_INF
	DECIMAL_NEG_INF

	SHORT_TEXT // len:u8, utf8
	TEXT       // len:u32, utf8

	SHORT_LIST // count:u8, elements
	LIST       // count:u32, elements

	SHORT_MAP // count:u8, (key,value) pairs
	MAP       // count:u32, (key,value) pairs

	TUPLE // count:u32, entries: has_key:u8 [key] value

	SHORT_STATEMENTS       // count:u8, terminated:u8, statements
	STATEMENTS             // count:u32, terminated:u8, statements
	UNBOUNDED_STATEMENTS   // statements until UNBOUNDED_STATEMENTS_END
	UNBOUNDED_STATEMENTS_END // terminated:u8

	ENDPOINT        // len:u8, ascii identifier
	POINTER_ADDRESS // kind:u8 (0=full,1=local,2=internal), bytes
	PLACEHOLDER

	ALLOCATE_SLOT // addr:u32
	GET_SLOT      // addr:u32
	SET_SLOT      // addr:u32, value
	ADD_SLOT      // addr:u32, value  (compound +=)
	SUB_SLOT      // addr:u32, value
	MUL_SLOT      // addr:u32, value
	DIV_SLOT      // addr:u32, value
	DROP_SLOT     // addr:u32

	CREATE_REF        // value
	CREATE_REF_MUT    // value
	DEREF             // operand
	ASSIGN_TO_REFERENCE // op:u8 (AssignmentOperator), target, value
	GET_REF           // addr kind:u8, bytes
	GET_LOCAL_REF     // bytes
	GET_INTERNAL_REF  // slot_id:u32

	NEGATE // operand

	ADD // lhs, rhs
	SUB
	MUL
	DIV
	MOD

	CMP_STRUCTURAL_EQUAL // ==
	CMP_VALUE_EQUAL       // ===
	CMP_NOT_STRUCTURAL_EQUAL
	CMP_NOT_VALUE_EQUAL
	CMP_IS
	CMP_MATCHES
	CMP_LESS_THAN
	CMP_GREATER_THAN
	CMP_LESS_EQUAL
	CMP_GREATER_EQUAL
	CMP_AND
	CMP_OR

	APPLY // arg_count:u8, callee, args...

	REMOTE_EXECUTION // injected_slot_count:u8, slots:u32..., body_len:u32, body, receivers

	TYPE_EXPRESSION // a type-instruction stream follows, terminated by END_TYPE_EXPRESSION
	END_TYPE_EXPRESSION
	TYPED_VALUE // a Type (type-expression) followed by the value it types

	CONDITIONAL // has_else:u8, cond, then, [else]
)

func (op OpCode) String() string {
	if name, ok := opCodeNames[op]; ok {
		return name
	}
	return "UNKNOWN_OPCODE"
}

var opCodeNames = map[OpCode]string{
	NULL: "NULL", TRUE: "TRUE", FALSE: "FALSE",
	UINT_8: "UINT_8", UINT_16: "UINT_16", UINT_32: "UINT_32", UINT_64: "UINT_64", UINT_128: "UINT_128",
	INT_8: "INT_8", INT_16: "INT_16", INT_32: "INT_32", INT_64: "INT_64", INT_128: "INT_128",
	BIG_INTEGER: "BIG_INTEGER",
	DECIMAL_AS_INT16: "DECIMAL_AS_INT16", DECIMAL_AS_INT32: "DECIMAL_AS_INT32",
	DECIMAL_F32: "DECIMAL_F32", DECIMAL_F64: "DECIMAL_F64", DECIMAL: "DECIMAL",
	DECIMAL_NAN: "DECIMAL_NAN", DECIMAL_POS_INF: "DECIMAL_POS_INF", DECIMAL_NEG_INF: "DECIMAL_NEG_INF",
	SHORT_TEXT: "SHORT_TEXT", TEXT: "TEXT",
	SHORT_LIST: "SHORT_LIST", LIST: "LIST",
	SHORT_MAP: "SHORT_MAP", MAP: "MAP", TUPLE: "TUPLE",
	SHORT_STATEMENTS: "SHORT_STATEMENTS", STATEMENTS: "STATEMENTS",
	UNBOUNDED_STATEMENTS: "UNBOUNDED_STATEMENTS", UNBOUNDED_STATEMENTS_END: "UNBOUNDED_STATEMENTS_END",
	ENDPOINT: "ENDPOINT", POINTER_ADDRESS: "POINTER_ADDRESS", PLACEHOLDER: "PLACEHOLDER",
	ALLOCATE_SLOT: "ALLOCATE_SLOT", GET_SLOT: "GET_SLOT", SET_SLOT: "SET_SLOT",
	ADD_SLOT: "ADD_SLOT", SUB_SLOT: "SUB_SLOT", MUL_SLOT: "MUL_SLOT", DIV_SLOT: "DIV_SLOT",
	DROP_SLOT: "DROP_SLOT",
	CREATE_REF: "CREATE_REF", CREATE_REF_MUT: "CREATE_REF_MUT", DEREF: "DEREF",
	ASSIGN_TO_REFERENCE: "ASSIGN_TO_REFERENCE",
	GET_REF: "GET_REF", GET_LOCAL_REF: "GET_LOCAL_REF", GET_INTERNAL_REF: "GET_INTERNAL_REF",
	NEGATE: "NEGATE",
	ADD: "ADD", SUB: "SUB", MUL: "MUL", DIV: "DIV", MOD: "MOD",
	CMP_STRUCTURAL_EQUAL: "CMP_STRUCTURAL_EQUAL", CMP_VALUE_EQUAL: "CMP_VALUE_EQUAL",
	CMP_NOT_STRUCTURAL_EQUAL: "CMP_NOT_STRUCTURAL_EQUAL", CMP_NOT_VALUE_EQUAL: "CMP_NOT_VALUE_EQUAL",
	CMP_IS: "CMP_IS", CMP_MATCHES: "CMP_MATCHES",
	CMP_LESS_THAN: "CMP_LESS_THAN", CMP_GREATER_THAN: "CMP_GREATER_THAN",
	CMP_LESS_EQUAL: "CMP_LESS_EQUAL", CMP_GREATER_EQUAL: "CMP_GREATER_EQUAL",
	CMP_AND: "CMP_AND", CMP_OR: "CMP_OR",
	APPLY: "APPLY", REMOTE_EXECUTION: "REMOTE_EXECUTION",
	TYPE_EXPRESSION: "TYPE_EXPRESSION", END_TYPE_EXPRESSION: "END_TYPE_EXPRESSION",
	TYPED_VALUE: "TYPED_VALUE",
	CONDITIONAL: "CONDITIONAL",
}

// TypeOpCode is the opcode of the parallel type-instruction space,
// valid only between TYPE_EXPRESSION/END_TYPE_EXPRESSION markers.
type TypeOpCode byte

const (
	T_UNKNOWN TypeOpCode = iota
	T_BOOLEAN
	T_INTEGER // width:i8 (-1 = untyped)
	T_DECIMAL // width:i8 (-1 = untyped)
	T_TEXT
	T_NULL
	T_ENDPOINT
	T_ARRAY  // element type follows
	T_MAP    // count:u32, (key,value) type pairs
	T_STRUCT // count:u32, (name:SHORT_TEXT, value) type pairs
	T_TUPLE  // count:u32, (has_name:u8 [name:SHORT_TEXT], type) entries
	T_UNION        // left, right
	T_INTERSECTION // left, right
	T_INTERFACE    // left, right — structural-impl combination (`+`)
	T_VARIANT      // left, right — tagged alternative (`/`)
	T_MEMBER       // base, name:SHORT_TEXT — nested type member access (`.`)
	T_GENERIC      // base, param_count:u8, params
	T_IMPL_TYPE    // base type, impl_count:u8, addresses
	T_TYPE_REFERENCE // addr kind:u8, bytes; kind 0 instead carries name_len:u32, name
	T_LITERAL_INTEGER // a constant integer used as a type-level literal
)

func (op TypeOpCode) String() string {
	names := map[TypeOpCode]string{
		T_UNKNOWN: "T_UNKNOWN", T_BOOLEAN: "T_BOOLEAN", T_INTEGER: "T_INTEGER",
		T_DECIMAL: "T_DECIMAL", T_TEXT: "T_TEXT", T_NULL: "T_NULL", T_ENDPOINT: "T_ENDPOINT",
		T_ARRAY: "T_ARRAY", T_MAP: "T_MAP", T_STRUCT: "T_STRUCT", T_TUPLE: "T_TUPLE",
		T_UNION: "T_UNION", T_INTERSECTION: "T_INTERSECTION",
		T_INTERFACE: "T_INTERFACE", T_VARIANT: "T_VARIANT", T_MEMBER: "T_MEMBER",
		T_GENERIC: "T_GENERIC",
		T_IMPL_TYPE: "T_IMPL_TYPE", T_TYPE_REFERENCE: "T_TYPE_REFERENCE",
		T_LITERAL_INTEGER: "T_LITERAL_INTEGER",
	}
	if s, ok := names[op]; ok {
		return s
	}
	return "UNKNOWN_TYPE_OPCODE"
}
