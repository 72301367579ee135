package compiler

import (
	"math"
	"math/big"

	"datex/internal/bytecode"
	derr "datex/internal/errors"
	"datex/internal/value"
)

// Decode parses one full DXB instruction tree out of data, propagating a
// *derr.DXBParserError on any malformed input (spec.md §4.E
// `iterate_instructions`). It consumes exactly one top-level instruction
// and its payload; trailing bytes (e.g. further top-level statements)
// are left for the caller to decode in a further call.
func Decode(data []byte) (*Instruction, []byte, error) {
	r := bytecode.NewReader(data)
	instr, err := decodeOne(r)
	if err != nil {
		return nil, nil, err
	}
	return instr, data[r.Pos():], nil
}

// DecodeAll decodes every top-level instruction in data in sequence.
func DecodeAll(data []byte) ([]*Instruction, error) {
	var out []*Instruction
	rest := data
	for len(rest) > 0 {
		instr, tail, err := Decode(rest)
		if err != nil {
			return nil, err
		}
		out = append(out, instr)
		rest = tail
	}
	return out, nil
}

func truncated(r *bytecode.Reader, what string) error {
	return derr.NewDXBParserError(derr.TruncatedPayload, r.Pos(), "truncated "+what)
}

func decodeOne(r *bytecode.Reader) (*Instruction, error) {
	op, ok := r.ReadOp()
	if !ok {
		return nil, truncated(r, "opcode")
	}
	return decodeOneGivenOp(r, op)
}

// decodeOneGivenOp continues decoding after op has already been read off
// r — used directly by decodeOne, and by the unbounded-statements loop
// which must peek at one byte to tell an ordinary instruction from
// UNBOUNDED_STATEMENTS_END before committing to decode it.
func decodeOneGivenOp(r *bytecode.Reader, op bytecode.OpCode) (*Instruction, error) {
	switch op {
	case bytecode.NULL, bytecode.TRUE, bytecode.FALSE, bytecode.PLACEHOLDER,
		bytecode.DECIMAL_NAN, bytecode.DECIMAL_POS_INF, bytecode.DECIMAL_NEG_INF,
		bytecode.UNBOUNDED_STATEMENTS_END, bytecode.END_TYPE_EXPRESSION:
		return decodeNoPayload(r, op)

	case bytecode.UINT_8, bytecode.INT_8:
		return decodeFixedInt(r, op, 1)
	case bytecode.UINT_16, bytecode.INT_16:
		return decodeFixedInt(r, op, 2)
	case bytecode.UINT_32, bytecode.INT_32:
		return decodeFixedInt(r, op, 4)
	case bytecode.UINT_64, bytecode.INT_64:
		return decodeFixedInt(r, op, 8)
	case bytecode.UINT_128, bytecode.INT_128:
		return decodeFixedInt(r, op, 16)
	case bytecode.BIG_INTEGER:
		return decodeBigInteger(r)

	case bytecode.DECIMAL_AS_INT16:
		return decodeDecimalAsInt(r, op, 2)
	case bytecode.DECIMAL_AS_INT32:
		return decodeDecimalAsInt(r, op, 4)
	case bytecode.DECIMAL_F32:
		return decodeDecimalF32(r)
	case bytecode.DECIMAL_F64:
		return decodeDecimalF64(r)
	case bytecode.DECIMAL:
		return decodeDecimalText(r)

	case bytecode.SHORT_TEXT:
		return decodeText(r, false)
	case bytecode.TEXT:
		return decodeText(r, true)

	case bytecode.SHORT_LIST:
		return decodeList(r, false)
	case bytecode.LIST:
		return decodeList(r, true)

	case bytecode.SHORT_MAP:
		return decodeMap(r, false)
	case bytecode.MAP:
		return decodeMap(r, true)

	case bytecode.TUPLE:
		return decodeTuple(r)

	case bytecode.SHORT_STATEMENTS:
		return decodeStatements(r, false)
	case bytecode.STATEMENTS:
		return decodeStatements(r, true)
	case bytecode.UNBOUNDED_STATEMENTS:
		return decodeUnboundedStatements(r)

	case bytecode.ENDPOINT:
		return decodeEndpoint(r)
	case bytecode.POINTER_ADDRESS:
		return decodePointerAddress(r)

	case bytecode.ALLOCATE_SLOT, bytecode.GET_SLOT, bytecode.DROP_SLOT:
		return decodeSlotAddrOnly(r, op)
	case bytecode.SET_SLOT, bytecode.ADD_SLOT, bytecode.SUB_SLOT, bytecode.MUL_SLOT, bytecode.DIV_SLOT:
		return decodeSlotAddrValue(r, op)

	case bytecode.CREATE_REF, bytecode.CREATE_REF_MUT, bytecode.DEREF, bytecode.NEGATE:
		return decodeOperandOnly(r, op)
	case bytecode.ASSIGN_TO_REFERENCE:
		return decodeAssignToReference(r)
	case bytecode.GET_REF, bytecode.GET_LOCAL_REF:
		return decodeGetRef(r, op)
	case bytecode.GET_INTERNAL_REF:
		return decodeSlotAddrOnly(r, op)

	case bytecode.ADD, bytecode.SUB, bytecode.MUL, bytecode.DIV, bytecode.MOD,
		bytecode.CMP_STRUCTURAL_EQUAL, bytecode.CMP_VALUE_EQUAL,
		bytecode.CMP_NOT_STRUCTURAL_EQUAL, bytecode.CMP_NOT_VALUE_EQUAL,
		bytecode.CMP_IS, bytecode.CMP_MATCHES, bytecode.CMP_LESS_THAN,
		bytecode.CMP_GREATER_THAN, bytecode.CMP_LESS_EQUAL, bytecode.CMP_GREATER_EQUAL,
		bytecode.CMP_AND, bytecode.CMP_OR:
		return decodeLeftRight(r, op)

	case bytecode.APPLY:
		return decodeApply(r)
	case bytecode.REMOTE_EXECUTION:
		return decodeRemoteExecution(r)
	case bytecode.CONDITIONAL:
		return decodeConditional(r)

	case bytecode.TYPE_EXPRESSION:
		return decodeTypeExpression(r)

	default:
		return nil, derr.NewDXBParserError(derr.UnknownOpcode, r.Pos(), op.String())
	}
}

func decodeNoPayload(r *bytecode.Reader, op bytecode.OpCode) (*Instruction, error) {
	return &Instruction{Op: Op(op)}, nil
}

func decodeFixedInt(r *bytecode.Reader, op bytecode.OpCode, n int) (*Instruction, error) {
	bs, ok := r.ReadBytes(n)
	if !ok {
		return nil, truncated(r, op.String())
	}
	v := intFromLittleEndian(bs, isSignedOp(op))
	return &Instruction{Op: Op(op), IntVal: v, IntWidth: intWidthForOp(op), HasIntWidth: true}, nil
}

// intWidthForOp recovers the typed integer width the narrowest-fitting
// opcode encodes; the wire format has no separate width byte for these
// opcodes; the opcode itself is the width tag.
func intWidthForOp(op bytecode.OpCode) value.IntWidth {
	switch op {
	case bytecode.UINT_8:
		return value.WidthU8
	case bytecode.INT_8:
		return value.WidthI8
	case bytecode.UINT_16:
		return value.WidthU16
	case bytecode.INT_16:
		return value.WidthI16
	case bytecode.UINT_32:
		return value.WidthU32
	case bytecode.INT_32:
		return value.WidthI32
	case bytecode.UINT_64:
		return value.WidthU64
	case bytecode.INT_64:
		return value.WidthI64
	case bytecode.UINT_128:
		return value.WidthU128
	case bytecode.INT_128:
		return value.WidthI128
	default:
		return value.WidthBig
	}
}

func isSignedOp(op bytecode.OpCode) bool {
	switch op {
	case bytecode.INT_8, bytecode.INT_16, bytecode.INT_32, bytecode.INT_64, bytecode.INT_128:
		return true
	default:
		return false
	}
}

// intFromLittleEndian reverses the wire's little-endian byte order into
// big-endian for math/big, sign-extending two's-complement when signed.
func intFromLittleEndian(bs []byte, signed bool) *big.Int {
	be := make([]byte, len(bs))
	for i, b := range bs {
		be[len(bs)-1-i] = b
	}
	if !signed || len(be) == 0 || be[0]&0x80 == 0 {
		return new(big.Int).SetBytes(be)
	}
	mod := new(big.Int).Lsh(big.NewInt(1), uint(len(be)*8))
	u := new(big.Int).SetBytes(be)
	return new(big.Int).Sub(u, mod)
}

func decodeBigInteger(r *bytecode.Reader) (*Instruction, error) {
	bs, ok := r.ReadLenPrefixedBytes()
	if !ok {
		return nil, truncated(r, "BIG_INTEGER")
	}
	// big-endian two's complement (spec.md §4.E's BIG_INTEGER is the one
	// opcode documented as big-endian rather than little-endian, since
	// it mirrors math/big's own native byte order).
	v := bigIntFromBigEndian(bs)
	return &Instruction{Op: Op(bytecode.BIG_INTEGER), IntVal: v, IntWidth: value.WidthBig, HasIntWidth: true}, nil
}

func bigIntFromBigEndian(be []byte) *big.Int {
	if len(be) == 0 || be[0]&0x80 == 0 {
		return new(big.Int).SetBytes(be)
	}
	mod := new(big.Int).Lsh(big.NewInt(1), uint(len(be)*8))
	u := new(big.Int).SetBytes(be)
	return new(big.Int).Sub(u, mod)
}

func decodeDecimalAsInt(r *bytecode.Reader, op bytecode.OpCode, n int) (*Instruction, error) {
	bs, ok := r.ReadBytes(n)
	if !ok {
		return nil, truncated(r, op.String())
	}
	v := intFromLittleEndian(bs, true)
	d, err := value.NewDecimalFromString(v.String())
	if err != nil {
		return nil, derr.NewDXBParserError(derr.MalformedOpcode, r.Pos(), err.Error())
	}
	return &Instruction{Op: Op(op), DecVal: &d}, nil
}

func decodeDecimalF32(r *bytecode.Reader) (*Instruction, error) {
	bs, ok := r.ReadBytes(4)
	if !ok {
		return nil, truncated(r, "DECIMAL_F32")
	}
	bits := uint32(bs[0]) | uint32(bs[1])<<8 | uint32(bs[2])<<16 | uint32(bs[3])<<24
	f := math.Float32frombits(bits)
	td := value.NewTypedDecimalF32(f)
	return &Instruction{Op: Op(bytecode.DECIMAL_F32), TypedDecVal: &td}, nil
}

func decodeDecimalF64(r *bytecode.Reader) (*Instruction, error) {
	v, ok := r.ReadUint64()
	if !ok {
		return nil, truncated(r, "DECIMAL_F64")
	}
	f := math.Float64frombits(v)
	td := value.NewTypedDecimalF64(f)
	return &Instruction{Op: Op(bytecode.DECIMAL_F64), TypedDecVal: &td}, nil
}

func decodeDecimalText(r *bytecode.Reader) (*Instruction, error) {
	bs, ok := r.ReadLenPrefixedBytes()
	if !ok {
		return nil, truncated(r, "DECIMAL")
	}
	d, err := value.NewDecimalFromString(string(bs))
	if err != nil {
		return nil, derr.NewDXBParserError(derr.MalformedOpcode, r.Pos(), err.Error())
	}
	return &Instruction{Op: Op(bytecode.DECIMAL), DecVal: &d}, nil
}

func decodeText(r *bytecode.Reader, long bool) (*Instruction, error) {
	var bs []byte
	var ok bool
	if long {
		bs, ok = r.ReadLenPrefixedBytes()
	} else {
		var n byte
		n, ok = r.ReadByte()
		if ok {
			bs, ok = r.ReadBytes(int(n))
		}
	}
	if !ok {
		return nil, truncated(r, "text")
	}
	op := bytecode.SHORT_TEXT
	if long {
		op = bytecode.TEXT
	}
	return &Instruction{Op: Op(op), Text: string(bs)}, nil
}

func decodeList(r *bytecode.Reader, long bool) (*Instruction, error) {
	count, op, err := readCollectionCount(r, long, bytecode.SHORT_LIST, bytecode.LIST)
	if err != nil {
		return nil, err
	}
	items := make([]*Instruction, 0, count)
	for i := uint32(0); i < count; i++ {
		el, err := decodeOne(r)
		if err != nil {
			return nil, err
		}
		items = append(items, el)
	}
	return &Instruction{Op: Op(op), Items: items}, nil
}

func decodeMap(r *bytecode.Reader, long bool) (*Instruction, error) {
	count, op, err := readCollectionCount(r, long, bytecode.SHORT_MAP, bytecode.MAP)
	if err != nil {
		return nil, err
	}
	entries := make([]MapEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		k, err := decodeOne(r)
		if err != nil {
			return nil, err
		}
		v, err := decodeOne(r)
		if err != nil {
			return nil, err
		}
		entries = append(entries, MapEntry{Key: k, Value: v})
	}
	return &Instruction{Op: Op(op), Entries: entries}, nil
}

func readCollectionCount(r *bytecode.Reader, long bool, shortOp, longOp bytecode.OpCode) (uint32, bytecode.OpCode, error) {
	if long {
		n, ok := r.ReadUint32()
		if !ok {
			return 0, longOp, truncated(r, longOp.String())
		}
		return n, longOp, nil
	}
	n, ok := r.ReadByte()
	if !ok {
		return 0, shortOp, truncated(r, shortOp.String())
	}
	return uint32(n), shortOp, nil
}

func decodeTuple(r *bytecode.Reader) (*Instruction, error) {
	count, ok := r.ReadUint32()
	if !ok {
		return nil, truncated(r, "TUPLE")
	}
	entries := make([]TupleEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		hasKey, ok := r.ReadByte()
		if !ok {
			return nil, truncated(r, "TUPLE entry flag")
		}
		var key *Instruction
		if hasKey != 0 {
			k, err := decodeOne(r)
			if err != nil {
				return nil, err
			}
			key = k
		}
		v, err := decodeOne(r)
		if err != nil {
			return nil, err
		}
		entries = append(entries, TupleEntry{Key: key, Value: v})
	}
	return &Instruction{Op: Op(bytecode.TUPLE), TupleEntries: entries}, nil
}

func decodeStatements(r *bytecode.Reader, long bool) (*Instruction, error) {
	count, op, err := readCollectionCount(r, long, bytecode.SHORT_STATEMENTS, bytecode.STATEMENTS)
	if err != nil {
		return nil, err
	}
	term, ok := r.ReadByte()
	if !ok {
		return nil, truncated(r, "STATEMENTS terminated flag")
	}
	items := make([]*Instruction, 0, count)
	for i := uint32(0); i < count; i++ {
		st, err := decodeOne(r)
		if err != nil {
			return nil, err
		}
		items = append(items, st)
	}
	return &Instruction{Op: Op(op), Items: items, Terminated: term != 0}, nil
}

func decodeUnboundedStatements(r *bytecode.Reader) (*Instruction, error) {
	var items []*Instruction
	for {
		op, ok := r.ReadByte()
		if !ok {
			return nil, truncated(r, "UNBOUNDED_STATEMENTS")
		}
		if bytecode.OpCode(op) == bytecode.UNBOUNDED_STATEMENTS_END {
			term, ok := r.ReadByte()
			if !ok {
				return nil, truncated(r, "UNBOUNDED_STATEMENTS_END")
			}
			return &Instruction{Op: Op(bytecode.UNBOUNDED_STATEMENTS), Items: items, Terminated: term != 0}, nil
		}
		instr, err := decodeOneGivenOp(r, bytecode.OpCode(op))
		if err != nil {
			return nil, err
		}
		items = append(items, instr)
	}
}

func decodeEndpoint(r *bytecode.Reader) (*Instruction, error) {
	n, ok := r.ReadByte()
	if !ok {
		return nil, truncated(r, "ENDPOINT")
	}
	bs, ok := r.ReadBytes(int(n))
	if !ok {
		return nil, truncated(r, "ENDPOINT identifier")
	}
	return &Instruction{Op: Op(bytecode.ENDPOINT), Endpoint: value.NewEndpoint(string(bs))}, nil
}

func decodePointerAddress(r *bytecode.Reader) (*Instruction, error) {
	kindByte, ok := r.ReadByte()
	if !ok {
		return nil, truncated(r, "POINTER_ADDRESS kind")
	}
	n := addressByteLen(value.PointerAddressKind(kindByte))
	bs, ok := r.ReadBytes(n)
	if !ok {
		return nil, truncated(r, "POINTER_ADDRESS bytes")
	}
	addr, err := value.NewPointerAddress(value.PointerAddressKind(kindByte), bs)
	if err != nil {
		return nil, derr.NewDXBParserError(derr.MalformedOpcode, r.Pos(), err.Error())
	}
	return &Instruction{Op: Op(bytecode.POINTER_ADDRESS), PointerAddr: addr}, nil
}

func addressByteLen(kind value.PointerAddressKind) int {
	switch kind {
	case value.FullAddress:
		return 26
	case value.LocalAddress:
		return 10
	default:
		return 6
	}
}

func decodeSlotAddrOnly(r *bytecode.Reader, op bytecode.OpCode) (*Instruction, error) {
	addr, ok := r.ReadUint32()
	if !ok {
		return nil, truncated(r, op.String())
	}
	return &Instruction{Op: Op(op), SlotAddr: addr}, nil
}

func decodeSlotAddrValue(r *bytecode.Reader, op bytecode.OpCode) (*Instruction, error) {
	addr, ok := r.ReadUint32()
	if !ok {
		return nil, truncated(r, op.String())
	}
	v, err := decodeOne(r)
	if err != nil {
		return nil, err
	}
	return &Instruction{Op: Op(op), SlotAddr: addr, Value: v}, nil
}

func decodeOperandOnly(r *bytecode.Reader, op bytecode.OpCode) (*Instruction, error) {
	operand, err := decodeOne(r)
	if err != nil {
		return nil, err
	}
	return &Instruction{Op: Op(op), Operand: operand}, nil
}

func decodeAssignToReference(r *bytecode.Reader) (*Instruction, error) {
	opByte, ok := r.ReadByte()
	if !ok {
		return nil, truncated(r, "ASSIGN_TO_REFERENCE op")
	}
	target, err := decodeOne(r)
	if err != nil {
		return nil, err
	}
	v, err := decodeOne(r)
	if err != nil {
		return nil, err
	}
	return &Instruction{Op: Op(bytecode.ASSIGN_TO_REFERENCE), AssignOp: AssignOp(opByte), Target: target, Value: v}, nil
}

func decodeGetRef(r *bytecode.Reader, op bytecode.OpCode) (*Instruction, error) {
	if op == bytecode.GET_REF {
		kindByte, ok := r.ReadByte()
		if !ok {
			return nil, truncated(r, "GET_REF kind")
		}
		n := addressByteLen(value.PointerAddressKind(kindByte))
		bs, ok := r.ReadBytes(n)
		if !ok {
			return nil, truncated(r, "GET_REF bytes")
		}
		addr, err := value.NewPointerAddress(value.PointerAddressKind(kindByte), bs)
		if err != nil {
			return nil, derr.NewDXBParserError(derr.MalformedOpcode, r.Pos(), err.Error())
		}
		return &Instruction{Op: Op(op), PointerAddr: addr}, nil
	}
	// GET_LOCAL_REF: bytes only, local-kind address implied.
	bs, ok := r.ReadBytes(addressByteLen(value.LocalAddress))
	if !ok {
		return nil, truncated(r, "GET_LOCAL_REF bytes")
	}
	addr, err := value.NewPointerAddress(value.LocalAddress, bs)
	if err != nil {
		return nil, derr.NewDXBParserError(derr.MalformedOpcode, r.Pos(), err.Error())
	}
	return &Instruction{Op: Op(op), PointerAddr: addr}, nil
}

func decodeLeftRight(r *bytecode.Reader, op bytecode.OpCode) (*Instruction, error) {
	left, err := decodeOne(r)
	if err != nil {
		return nil, err
	}
	right, err := decodeOne(r)
	if err != nil {
		return nil, err
	}
	return &Instruction{Op: Op(op), Left: left, Right: right}, nil
}

func decodeApply(r *bytecode.Reader) (*Instruction, error) {
	argCount, ok := r.ReadByte()
	if !ok {
		return nil, truncated(r, "APPLY arg count")
	}
	callee, err := decodeOne(r)
	if err != nil {
		return nil, err
	}
	args := make([]*Instruction, 0, argCount)
	for i := byte(0); i < argCount; i++ {
		a, err := decodeOne(r)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
	}
	return &Instruction{Op: Op(bytecode.APPLY), Callee: callee, Args: args}, nil
}

func decodeRemoteExecution(r *bytecode.Reader) (*Instruction, error) {
	injectedCount, ok := r.ReadByte()
	if !ok {
		return nil, truncated(r, "REMOTE_EXECUTION injected count")
	}
	slots := make([]uint32, 0, injectedCount)
	for i := byte(0); i < injectedCount; i++ {
		s, ok := r.ReadUint32()
		if !ok {
			return nil, truncated(r, "REMOTE_EXECUTION injected slot")
		}
		slots = append(slots, s)
	}
	body, ok := r.ReadLenPrefixedBytes()
	if !ok {
		return nil, truncated(r, "REMOTE_EXECUTION body")
	}
	receivers, err := decodeOne(r)
	if err != nil {
		return nil, err
	}
	return &Instruction{
		Op: Op(bytecode.REMOTE_EXECUTION), InjectedSlots: slots, RemoteBody: body, Target: receivers,
	}, nil
}

func decodeConditional(r *bytecode.Reader) (*Instruction, error) {
	hasElse, ok := r.ReadByte()
	if !ok {
		return nil, truncated(r, "CONDITIONAL flag")
	}
	cond, err := decodeOne(r)
	if err != nil {
		return nil, err
	}
	then, err := decodeOne(r)
	if err != nil {
		return nil, err
	}
	instr := &Instruction{Op: Op(bytecode.CONDITIONAL), Operand: cond, Left: then, HasElse: hasElse != 0}
	if hasElse != 0 {
		els, err := decodeOne(r)
		if err != nil {
			return nil, err
		}
		instr.Right = els
	}
	return instr, nil
}

func decodeTypeExpression(r *bytecode.Reader) (*Instruction, error) {
	ti, err := decodeTypeInstruction(r)
	if err != nil {
		return nil, err
	}
	end, ok := r.ReadOp()
	if !ok || end != bytecode.END_TYPE_EXPRESSION {
		return nil, derr.NewDXBParserError(derr.MalformedOpcode, r.Pos(), "missing END_TYPE_EXPRESSION")
	}
	return &Instruction{Op: Op(bytecode.TYPE_EXPRESSION), TypeInstr: ti}, nil
}

func decodeTypeInstruction(r *bytecode.Reader) (*TypeInstruction, error) {
	op, ok := r.ReadTypeOp()
	if !ok {
		return nil, truncated(r, "type opcode")
	}
	switch op {
	case bytecode.T_UNKNOWN, bytecode.T_BOOLEAN, bytecode.T_TEXT, bytecode.T_NULL, bytecode.T_ENDPOINT:
		return &TypeInstruction{Op: TOp(op)}, nil
	case bytecode.T_INTEGER, bytecode.T_DECIMAL:
		w, ok := r.ReadByte()
		if !ok {
			return nil, truncated(r, op.String())
		}
		ti := &TypeInstruction{Op: TOp(op)}
		if op == bytecode.T_INTEGER {
			ti.IntWidth = int8(w)
		} else {
			ti.DecWidth = int8(w)
		}
		return ti, nil
	case bytecode.T_ARRAY:
		el, err := decodeTypeInstruction(r)
		if err != nil {
			return nil, err
		}
		return &TypeInstruction{Op: TOp(op), Element: el}, nil
	case bytecode.T_MAP:
		count, ok := r.ReadUint32()
		if !ok {
			return nil, truncated(r, "T_MAP count")
		}
		entries := make([]TypeFieldEntry, 0, count)
		for i := uint32(0); i < count; i++ {
			k, err := decodeTypeInstruction(r)
			if err != nil {
				return nil, err
			}
			v, err := decodeTypeInstruction(r)
			if err != nil {
				return nil, err
			}
			entries = append(entries, TypeFieldEntry{Key: k, Type: v})
		}
		return &TypeInstruction{Op: TOp(op), Entries: entries}, nil
	case bytecode.T_STRUCT:
		count, ok := r.ReadUint32()
		if !ok {
			return nil, truncated(r, "T_STRUCT count")
		}
		entries := make([]TypeFieldEntry, 0, count)
		for i := uint32(0); i < count; i++ {
			n, ok := r.ReadByte()
			if !ok {
				return nil, truncated(r, "T_STRUCT name length")
			}
			nb, ok := r.ReadBytes(int(n))
			if !ok {
				return nil, truncated(r, "T_STRUCT name")
			}
			v, err := decodeTypeInstruction(r)
			if err != nil {
				return nil, err
			}
			entries = append(entries, TypeFieldEntry{Name: string(nb), Type: v})
		}
		return &TypeInstruction{Op: TOp(op), Entries: entries}, nil
	case bytecode.T_TUPLE:
		count, ok := r.ReadUint32()
		if !ok {
			return nil, truncated(r, "T_TUPLE count")
		}
		entries := make([]TypeFieldEntry, 0, count)
		for i := uint32(0); i < count; i++ {
			hasName, ok := r.ReadByte()
			if !ok {
				return nil, truncated(r, "T_TUPLE entry flag")
			}
			name := ""
			if hasName != 0 {
				n, ok := r.ReadByte()
				if !ok {
					return nil, truncated(r, "T_TUPLE name length")
				}
				nb, ok := r.ReadBytes(int(n))
				if !ok {
					return nil, truncated(r, "T_TUPLE name")
				}
				name = string(nb)
			}
			v, err := decodeTypeInstruction(r)
			if err != nil {
				return nil, err
			}
			entries = append(entries, TypeFieldEntry{Name: name, Type: v})
		}
		return &TypeInstruction{Op: TOp(op), Entries: entries}, nil
	case bytecode.T_UNION, bytecode.T_INTERSECTION, bytecode.T_INTERFACE, bytecode.T_VARIANT:
		left, err := decodeTypeInstruction(r)
		if err != nil {
			return nil, err
		}
		right, err := decodeTypeInstruction(r)
		if err != nil {
			return nil, err
		}
		return &TypeInstruction{Op: TOp(op), Left: left, Right: right}, nil
	case bytecode.T_MEMBER:
		base, err := decodeTypeInstruction(r)
		if err != nil {
			return nil, err
		}
		n, ok := r.ReadByte()
		if !ok {
			return nil, truncated(r, "T_MEMBER name length")
		}
		nb, ok := r.ReadBytes(int(n))
		if !ok {
			return nil, truncated(r, "T_MEMBER name")
		}
		return &TypeInstruction{Op: TOp(op), Base: base, Name: string(nb)}, nil
	case bytecode.T_GENERIC:
		base, err := decodeTypeInstruction(r)
		if err != nil {
			return nil, err
		}
		n, ok := r.ReadByte()
		if !ok {
			return nil, truncated(r, "T_GENERIC param count")
		}
		params := make([]*TypeInstruction, 0, n)
		for i := byte(0); i < n; i++ {
			p, err := decodeTypeInstruction(r)
			if err != nil {
				return nil, err
			}
			params = append(params, p)
		}
		return &TypeInstruction{Op: TOp(op), Base: base, Params: params}, nil
	case bytecode.T_IMPL_TYPE:
		base, err := decodeTypeInstruction(r)
		if err != nil {
			return nil, err
		}
		n, ok := r.ReadByte()
		if !ok {
			return nil, truncated(r, "T_IMPL_TYPE count")
		}
		addrs := make([]value.PointerAddress, 0, n)
		for i := byte(0); i < n; i++ {
			kindByte, ok := r.ReadByte()
			if !ok {
				return nil, truncated(r, "T_IMPL_TYPE kind")
			}
			bs, ok := r.ReadBytes(addressByteLen(value.PointerAddressKind(kindByte)))
			if !ok {
				return nil, truncated(r, "T_IMPL_TYPE bytes")
			}
			addr, err := value.NewPointerAddress(value.PointerAddressKind(kindByte), bs)
			if err != nil {
				return nil, derr.NewDXBParserError(derr.MalformedOpcode, r.Pos(), err.Error())
			}
			addrs = append(addrs, addr)
		}
		return &TypeInstruction{Op: TOp(op), Base: base, ImplAddrs: addrs}, nil
	case bytecode.T_TYPE_REFERENCE:
		kindByte, ok := r.ReadByte()
		if !ok {
			return nil, truncated(r, "T_TYPE_REFERENCE kind")
		}
		if kindByte == 0 {
			n, ok := r.ReadUint32()
			if !ok {
				return nil, truncated(r, "T_TYPE_REFERENCE name length")
			}
			nb, ok := r.ReadBytes(int(n))
			if !ok {
				return nil, truncated(r, "T_TYPE_REFERENCE name")
			}
			return &TypeInstruction{Op: TOp(op), Name: string(nb)}, nil
		}
		bs, ok := r.ReadBytes(addressByteLen(value.PointerAddressKind(kindByte)))
		if !ok {
			return nil, truncated(r, "T_TYPE_REFERENCE bytes")
		}
		addr, err := value.NewPointerAddress(value.PointerAddressKind(kindByte), bs)
		if err != nil {
			return nil, derr.NewDXBParserError(derr.MalformedOpcode, r.Pos(), err.Error())
		}
		return &TypeInstruction{Op: TOp(op), PointerAddr: addr}, nil
	case bytecode.T_LITERAL_INTEGER:
		instr, err := decodeOne(r)
		if err != nil {
			return nil, err
		}
		return &TypeInstruction{Op: TOp(op), LiteralInt: instr.IntVal}, nil
	default:
		return nil, derr.NewDXBParserError(derr.UnknownOpcode, r.Pos(), op.String())
	}
}
