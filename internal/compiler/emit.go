package compiler

import (
	"math"
	"math/big"

	"github.com/pkg/errors"

	"datex/internal/bytecode"
	"datex/internal/parser"
	"datex/internal/value"
)

// Compile emits a resolved AST (post-precompiler) as a DXB byte stream
// (spec.md §4.E). Emission never allocates an intermediate Instruction
// tree — it writes straight into a Body, mirroring the spec's
// description of the compiler as a pure linear emitter; the Instruction
// tree only exists on the decode side.
func Compile(expr parser.Expr) (*bytecode.Body, error) {
	b := bytecode.NewBody()
	if err := emit(b, expr); err != nil {
		return nil, err
	}
	return b, nil
}

func emit(b *bytecode.Body, expr parser.Expr) error {
	switch e := expr.(type) {
	case nil:
		b.WriteOp(bytecode.NULL)
		return nil

	case parser.InvalidExpr:
		return errors.New("cannot compile an invalid expression")

	case parser.NullExpr:
		b.WriteOp(bytecode.NULL)
		return nil

	case parser.BooleanExpr:
		if e.Value {
			b.WriteOp(bytecode.TRUE)
		} else {
			b.WriteOp(bytecode.FALSE)
		}
		return nil

	case parser.TextExpr:
		emitText(b, e.Value)
		return nil

	case parser.IntegerExpr:
		emitInteger(b, e.Value)
		return nil

	case parser.DecimalExpr:
		return emitDecimalExpr(b, e)

	case parser.EndpointExpr:
		emitEndpoint(b, e.Value)
		return nil

	case parser.ArrayExpr:
		return emitList(b, e.Elements)

	case parser.ObjectExpr:
		return emitMap(b, e.Entries)

	case parser.TupleExpr:
		return emitTuple(b, e.Entries)

	case parser.StatementsExpr:
		return emitStatements(b, e)

	case parser.VariableExpr:
		if e.ID == nil {
			return errors.Errorf("variable %q was never resolved by the precompiler", e.Name)
		}
		b.WriteOp(bytecode.GET_SLOT)
		b.WriteUint32(*e.ID)
		return nil

	case parser.VariableDeclarationExpr:
		if e.ID == nil {
			return errors.Errorf("variable declaration %q was never resolved by the precompiler", e.Name)
		}
		// ALLOCATE_SLOT and SET_SLOT are two separate wire instructions
		// (spec.md §4.F lists AllocateSlot/SetSlot as distinct driver
		// interrupts), but a declaration is one statement — wrapping the
		// pair in a 2-item SHORT_STATEMENTS keeps the surrounding
		// STATEMENTS/SHORT_STATEMENTS item count equal to the number of
		// source statements instead of the number of wire instructions.
		b.WriteOp(bytecode.SHORT_STATEMENTS)
		b.WriteByte(2)
		b.WriteByte(0)
		b.WriteOp(bytecode.ALLOCATE_SLOT)
		b.WriteUint32(*e.ID)
		b.WriteOp(bytecode.SET_SLOT)
		b.WriteUint32(*e.ID)
		return emit(b, e.Value)

	case parser.RefExpr:
		b.WriteOp(bytecode.CREATE_REF)
		return emit(b, e.Operand)

	case parser.RefMutExpr:
		b.WriteOp(bytecode.CREATE_REF_MUT)
		return emit(b, e.Operand)

	case parser.SlotExpr:
		b.WriteOp(bytecode.GET_SLOT)
		b.WriteUint32(e.Slot.Address)
		return nil

	case parser.SlotAssignmentExpr:
		b.WriteOp(bytecode.SET_SLOT)
		b.WriteUint32(e.Slot.Address)
		return emit(b, e.Value)

	case parser.BinaryOpExpr:
		b.WriteOp(binaryOpCode(e.Op))
		if err := emit(b, e.Left); err != nil {
			return err
		}
		return emit(b, e.Right)

	case parser.ComparisonOpExpr:
		b.WriteOp(comparisonOpCode(e.Op))
		if err := emit(b, e.Left); err != nil {
			return err
		}
		return emit(b, e.Right)

	case parser.AssignmentOpExpr:
		b.WriteOp(bytecode.ASSIGN_TO_REFERENCE)
		b.WriteByte(byte(assignOpCode(e.Op)))
		if err := emit(b, e.Target); err != nil {
			return err
		}
		return emit(b, e.Value)

	case parser.UnaryOpExpr:
		switch e.Op {
		case parser.UnaryNegate:
			b.WriteOp(bytecode.NEGATE)
		case parser.UnaryDeref:
			b.WriteOp(bytecode.DEREF)
		default:
			return errors.Errorf("unknown unary operator %v", e.Op)
		}
		return emit(b, e.Operand)

	case parser.ApplyChainExpr:
		return emitApplyChain(b, e)

	case parser.PlaceholderExpr:
		b.WriteOp(bytecode.PLACEHOLDER)
		return nil

	case parser.RemoteExecutionExpr:
		return emitRemoteExecution(b, e)

	case parser.IfExpr:
		return emitConditional(b, e)

	case parser.TypeDeclarationExpr, parser.TypeAliasExpr, parser.CallableDeclarationExpr:
		// These carry no runtime value once the precompiler has handled
		// their scope information; they compile to a bare NULL (judgment
		// call, see DESIGN.md and emitDeclarationLikeExpr).
		return emitDeclarationLikeExpr(b, e)

	case parser.TypeExpr:
		b.WriteOp(bytecode.TYPE_EXPRESSION)
		if err := emitTypeExpr(b, e); err != nil {
			return err
		}
		b.WriteOp(bytecode.END_TYPE_EXPRESSION)
		return nil

	default:
		return errors.Errorf("compiler: unhandled expression kind %v", expr.Kind())
	}
}

func emitText(b *bytecode.Body, s string) {
	bs := []byte(s)
	if len(bs) <= 255 {
		b.WriteOp(bytecode.SHORT_TEXT)
		b.WriteByte(byte(len(bs)))
		b.WriteBytes(bs)
		return
	}
	b.WriteOp(bytecode.TEXT)
	b.WriteLenPrefixedBytes(bs)
}

// emitInteger picks the narrowest opcode that fits the value (spec.md
// §4.E point 1), honoring an explicit typed width when the literal
// carried one.
func emitInteger(b *bytecode.Body, i value.Integer) {
	if i.Width != value.WidthBig {
		emitFixedWidthInteger(b, i.Val, i.Width)
		return
	}
	emitNarrowestInteger(b, i.Val)
}

func emitFixedWidthInteger(b *bytecode.Body, v *big.Int, width value.IntWidth) {
	switch width {
	case value.WidthU8, value.WidthI8:
		op := bytecode.UINT_8
		if width == value.WidthI8 {
			op = bytecode.INT_8
		}
		b.WriteOp(op)
		b.WriteByte(byte(v.Int64()))
	case value.WidthU16, value.WidthI16:
		op := bytecode.UINT_16
		if width == value.WidthI16 {
			op = bytecode.INT_16
		}
		b.WriteOp(op)
		writeIntBytes(b, v, 2)
	case value.WidthU32, value.WidthI32:
		op := bytecode.UINT_32
		if width == value.WidthI32 {
			op = bytecode.INT_32
		}
		b.WriteOp(op)
		writeIntBytes(b, v, 4)
	case value.WidthU64, value.WidthI64:
		op := bytecode.UINT_64
		if width == value.WidthI64 {
			op = bytecode.INT_64
		}
		b.WriteOp(op)
		writeIntBytes(b, v, 8)
	default: // WidthU128 / WidthI128
		op := bytecode.UINT_128
		if width == value.WidthI128 {
			op = bytecode.INT_128
		}
		b.WriteOp(op)
		writeIntBytes(b, v, 16)
	}
}

// emitNarrowestInteger picks the smallest fixed-width opcode the value
// fits in, falling back to BIG_INTEGER only when it truly doesn't.
func emitNarrowestInteger(b *bytecode.Body, v *big.Int) {
	unsigned := v.Sign() >= 0
	widths := []struct {
		width   value.IntWidth
		uop     bytecode.OpCode
		iop     bytecode.OpCode
		bytes   int
	}{
		{value.WidthU8, bytecode.UINT_8, bytecode.INT_8, 1},
		{value.WidthU16, bytecode.UINT_16, bytecode.INT_16, 2},
		{value.WidthU32, bytecode.UINT_32, bytecode.INT_32, 4},
		{value.WidthU64, bytecode.UINT_64, bytecode.INT_64, 8},
		{value.WidthU128, bytecode.UINT_128, bytecode.INT_128, 16},
	}
	for _, w := range widths {
		if unsigned {
			if fitsUnsigned(v, w.bytes) {
				b.WriteOp(w.uop)
				writeIntBytes(b, v, w.bytes)
				return
			}
		} else if fitsSigned(v, w.bytes) {
			b.WriteOp(w.iop)
			writeIntBytes(b, v, w.bytes)
			return
		}
	}
	b.WriteOp(bytecode.BIG_INTEGER)
	bs := v.Bytes()
	if !unsigned {
		bs = twosComplementBytes(v)
	} else if len(bs) > 0 && bs[0]&0x80 != 0 {
		// keep the sign bit clear so the decoder reads a positive value
		bs = append([]byte{0}, bs...)
	}
	b.WriteLenPrefixedBytes(bs)
}

func fitsUnsigned(v *big.Int, bytes int) bool {
	max := new(big.Int).Lsh(big.NewInt(1), uint(bytes*8))
	return v.Sign() >= 0 && v.Cmp(max) < 0
}

func fitsSigned(v *big.Int, bytes int) bool {
	bits := uint(bytes*8 - 1)
	min := new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), bits))
	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), bits), big.NewInt(1))
	return v.Cmp(min) >= 0 && v.Cmp(max) <= 0
}

func writeIntBytes(b *bytecode.Body, v *big.Int, n int) {
	buf := make([]byte, n)
	bs := v.Bytes()
	if v.Sign() < 0 {
		bs = twosComplementBytes(v)
		// two's complement already n bytes (or fewer, sign-extend below)
	}
	// big-endian magnitude/two's-complement bytes right-aligned, then
	// reversed into the wire's little-endian byte order.
	start := n - len(bs)
	if start < 0 {
		bs = bs[len(bs)-n:]
		start = 0
	}
	fill := byte(0)
	if v.Sign() < 0 {
		fill = 0xFF
	}
	for i := 0; i < start; i++ {
		buf[i] = fill
	}
	copy(buf[start:], bs)
	// reverse to little-endian
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	b.WriteBytes(buf)
}

func twosComplementBytes(v *big.Int) []byte {
	bits := v.BitLen() + 1
	nbytes := (bits + 7) / 8
	mod := new(big.Int).Lsh(big.NewInt(1), uint(nbytes*8))
	u := new(big.Int).Add(mod, v)
	bs := u.Bytes()
	if len(bs) < nbytes {
		pad := make([]byte, nbytes-len(bs))
		bs = append(pad, bs...)
	}
	return bs
}

// emitDecimalExpr routes an untyped Decimal through the compact
// integer-as-decimal forms when possible, and a TypedDecimal through its
// matching fixed-width opcode (spec.md §4.E point 2).
func emitDecimalExpr(b *bytecode.Body, e parser.DecimalExpr) error {
	if e.TypedDecimal != nil {
		return emitTypedDecimal(b, *e.TypedDecimal)
	}
	if e.Decimal == nil {
		return errors.New("decimal literal has neither a Decimal nor a TypedDecimal payload")
	}
	emitDecimal(b, *e.Decimal)
	return nil
}

func emitTypedDecimal(b *bytecode.Body, d value.TypedDecimal) error {
	switch d.Width {
	case value.WidthF32:
		b.WriteOp(bytecode.DECIMAL_F32)
		b.WriteUint32(float32bits(d.F32))
	case value.WidthF64:
		b.WriteOp(bytecode.DECIMAL_F64)
		b.WriteUint64(float64bits(d.F64))
	case value.WidthDBig:
		b.WriteOp(bytecode.DECIMAL)
		b.WriteLenPrefixedBytes([]byte(d.DBig.String()))
	default:
		return errors.Errorf("unknown typed decimal width %v", d.Width)
	}
	return nil
}

func emitDecimal(b *bytecode.Body, d value.Decimal) {
	switch d.Kind {
	case value.DecimalNaN:
		b.WriteOp(bytecode.DECIMAL_NAN)
		return
	case value.DecimalPosInf:
		b.WriteOp(bytecode.DECIMAL_POS_INF)
		return
	case value.DecimalNegInf:
		b.WriteOp(bytecode.DECIMAL_NEG_INF)
		return
	}
	if d.Kind == value.DecimalFinite {
		if iv, ok := decimalAsExactInt(d); ok {
			if fitsSigned(iv, 2) {
				b.WriteOp(bytecode.DECIMAL_AS_INT16)
				writeIntBytes(b, iv, 2)
				return
			}
			if fitsSigned(iv, 4) {
				b.WriteOp(bytecode.DECIMAL_AS_INT32)
				writeIntBytes(b, iv, 4)
				return
			}
		}
	}
	b.WriteOp(bytecode.DECIMAL)
	b.WriteLenPrefixedBytes([]byte(d.Display(value.DatexDisplay)))
}

// decimalAsExactInt reports whether a finite decimal is an exact integer
// (no fractional digits), the case the compact INT16/INT32 decimal forms
// exist for.
func decimalAsExactInt(d value.Decimal) (*big.Int, bool) {
	s := d.Val.String()
	bi, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, false
	}
	if bi.String() != s {
		return nil, false
	}
	return bi, true
}

func float32bits(f float32) uint32 { return math.Float32bits(f) }
func float64bits(f float64) uint64 { return math.Float64bits(f) }

func emitEndpoint(b *bytecode.Body, ep value.Endpoint) {
	b.WriteOp(bytecode.ENDPOINT)
	id := []byte(ep.Identifier)
	b.WriteByte(byte(len(id)))
	b.WriteBytes(id)
}

func emitList(b *bytecode.Body, elements []parser.Expr) error {
	if len(elements) <= 255 {
		b.WriteOp(bytecode.SHORT_LIST)
		b.WriteByte(byte(len(elements)))
	} else {
		b.WriteOp(bytecode.LIST)
		b.WriteUint32(uint32(len(elements)))
	}
	for _, el := range elements {
		if err := emit(b, el); err != nil {
			return err
		}
	}
	return nil
}

func emitMap(b *bytecode.Body, entries []parser.ObjectEntry) error {
	if len(entries) <= 255 {
		b.WriteOp(bytecode.SHORT_MAP)
		b.WriteByte(byte(len(entries)))
	} else {
		b.WriteOp(bytecode.MAP)
		b.WriteUint32(uint32(len(entries)))
	}
	for _, ent := range entries {
		if err := emit(b, ent.Key); err != nil {
			return err
		}
		if err := emit(b, ent.Value); err != nil {
			return err
		}
	}
	return nil
}

func emitTuple(b *bytecode.Body, entries []parser.TupleEntry) error {
	b.WriteOp(bytecode.TUPLE)
	b.WriteUint32(uint32(len(entries)))
	for _, ent := range entries {
		if ent.Key != nil {
			b.WriteByte(1)
			if err := emit(b, ent.Key); err != nil {
				return err
			}
		} else {
			b.WriteByte(0)
		}
		if err := emit(b, ent.Value); err != nil {
			return err
		}
	}
	return nil
}

func emitStatements(b *bytecode.Body, e parser.StatementsExpr) error {
	count := len(e.Statements)
	terminated := count > 0 && e.Statements[count-1].Terminated
	if count <= 255 {
		b.WriteOp(bytecode.SHORT_STATEMENTS)
		b.WriteByte(byte(count))
	} else {
		b.WriteOp(bytecode.STATEMENTS)
		b.WriteUint32(uint32(count))
	}
	b.WriteByte(boolByte(terminated))
	for _, st := range e.Statements {
		if err := emit(b, st.Expr); err != nil {
			return err
		}
	}
	return nil
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

// emitApplyChain emits a chain of Apply/property-access steps as nested
// APPLY instructions built right-to-left: `a.b(1).c` becomes
// Apply(Apply(Apply(a,"b"),1),"c") — each step's callee is whatever the
// previous step's APPLY produced, so the chain is collapsed into one
// expression tree before a single recursive emit (spec.md §4.E point 9).
func emitApplyChain(b *bytecode.Body, e parser.ApplyChainExpr) error {
	var built parser.Expr = e.Callee
	for _, step := range e.Chain {
		if step.IsCall {
			built = parser.ApplyChainExpr{Callee: built, Chain: []parser.ApplyStep{{IsCall: true, Args: step.Args}}}
		} else {
			// property access desugars to a single-arg Apply of the
			// object against its string key (spec.md §4.C).
			built = parser.ApplyChainExpr{Callee: built, Chain: []parser.ApplyStep{{IsCall: false, Key: step.Key}}}
		}
	}
	single := built.(parser.ApplyChainExpr)
	args := single.Chain[0].Args
	if !single.Chain[0].IsCall {
		args = []parser.Expr{single.Chain[0].Key}
	}
	b.WriteOp(bytecode.APPLY)
	b.WriteByte(byte(len(args)))
	if err := emit(b, single.Callee); err != nil {
		return err
	}
	for _, a := range args {
		if err := emit(b, a); err != nil {
			return err
		}
	}
	return nil
}

func emitRemoteExecution(b *bytecode.Body, e parser.RemoteExecutionExpr) error {
	body, err := Compile(e.Body)
	if err != nil {
		return err
	}
	b.WriteOp(bytecode.REMOTE_EXECUTION)
	b.WriteByte(byte(len(e.InjectedSlots)))
	for _, slot := range e.InjectedSlots {
		b.WriteUint32(slot)
	}
	b.WriteLenPrefixedBytes(body.Bytes)
	return emit(b, e.Receivers)
}

// emitConditional emits spec.md's Conditional node. The opcode table in
// §4.E never names one explicitly (the spec's listed opcodes cover
// values, slots, references, and operators, but the AST's If/Else form
// has no wire encoding on record) — CONDITIONAL was added to
// bytecode.OpCode as a judgment call, documented in DESIGN.md, with the
// simplest layout consistent with the rest of the table: a flag byte
// then one sub-expression per branch.
func emitConditional(b *bytecode.Body, e parser.IfExpr) error {
	b.WriteOp(bytecode.CONDITIONAL)
	b.WriteByte(boolByte(e.Else != nil))
	if err := emit(b, e.Cond); err != nil {
		return err
	}
	if err := emit(b, e.Then); err != nil {
		return err
	}
	if e.Else != nil {
		return emit(b, e.Else)
	}
	return nil
}

func binaryOpCode(op parser.BinaryOperator) bytecode.OpCode {
	switch op {
	case parser.OpAdd:
		return bytecode.ADD
	case parser.OpSub:
		return bytecode.SUB
	case parser.OpMul:
		return bytecode.MUL
	case parser.OpDiv:
		return bytecode.DIV
	case parser.OpMod:
		return bytecode.MOD
	default:
		return bytecode.NULL
	}
}

func comparisonOpCode(op parser.ComparisonOperator) bytecode.OpCode {
	switch op {
	case parser.CmpStructuralEqual:
		return bytecode.CMP_STRUCTURAL_EQUAL
	case parser.CmpValueEqual:
		return bytecode.CMP_VALUE_EQUAL
	case parser.CmpNotStructuralEqual:
		return bytecode.CMP_NOT_STRUCTURAL_EQUAL
	case parser.CmpNotValueEqual:
		return bytecode.CMP_NOT_VALUE_EQUAL
	case parser.CmpIs:
		return bytecode.CMP_IS
	case parser.CmpMatches:
		return bytecode.CMP_MATCHES
	case parser.CmpLessThan:
		return bytecode.CMP_LESS_THAN
	case parser.CmpGreaterThan:
		return bytecode.CMP_GREATER_THAN
	case parser.CmpLessThanOrEqual:
		return bytecode.CMP_LESS_EQUAL
	case parser.CmpGreaterThanOrEqual:
		return bytecode.CMP_GREATER_EQUAL
	case parser.CmpAnd:
		return bytecode.CMP_AND
	case parser.CmpOr:
		return bytecode.CMP_OR
	default:
		return bytecode.NULL
	}
}

func assignOpCode(op parser.AssignmentOperator) AssignOp {
	switch op {
	case parser.AssignAdd:
		return AssignAdd
	case parser.AssignSub:
		return AssignSub
	case parser.AssignMul:
		return AssignMul
	case parser.AssignDiv:
		return AssignDiv
	default:
		return AssignSet
	}
}

// emitDeclarationLikeExpr handles the three declaration forms that carry
// no runtime value of their own: TypeDeclaration/TypeAlias exist purely
// for the precompiler's type scope (resolved away by the time emission
// runs) and compile to NULL; CallableDeclaration's closure/invocation
// machinery is VM-level scope-capture work the wire format itself
// doesn't describe, so it likewise emits NULL here and is exercised at
// the instruction-tree level instead (see internal/vm).
func emitDeclarationLikeExpr(b *bytecode.Body, expr parser.Expr) error {
	b.WriteOp(bytecode.NULL)
	return nil
}

func emitTypeExpr(b *bytecode.Body, te parser.TypeExpr) error {
	switch te.TypeKind {
	case parser.TEIdentifier:
		b.WriteTypeOp(bytecode.T_TYPE_REFERENCE)
		b.WriteByte(0) // kind byte 0: a length-prefixed type name follows, not address bytes
		b.WriteLenPrefixedBytes([]byte(te.Name))
		return nil
	case parser.TEIntersection:
		b.WriteTypeOp(bytecode.T_INTERSECTION)
		if err := emitTypeOperand(b, te.Left); err != nil {
			return err
		}
		return emitTypeOperand(b, te.Right)
	case parser.TEUnion:
		b.WriteTypeOp(bytecode.T_UNION)
		if err := emitTypeOperand(b, te.Left); err != nil {
			return err
		}
		return emitTypeOperand(b, te.Right)
	case parser.TEInterface:
		b.WriteTypeOp(bytecode.T_INTERFACE)
		if err := emitTypeOperand(b, te.Left); err != nil {
			return err
		}
		return emitTypeOperand(b, te.Right)
	case parser.TEVariant:
		b.WriteTypeOp(bytecode.T_VARIANT)
		if err := emitTypeOperand(b, te.Left); err != nil {
			return err
		}
		return emitTypeOperand(b, te.Right)
	case parser.TEMember:
		b.WriteTypeOp(bytecode.T_MEMBER)
		if err := emitTypeOperand(b, te.Left); err != nil {
			return err
		}
		name, ok := te.Right.(parser.TypeExpr)
		if !ok || name.TypeKind != parser.TEIdentifier {
			return errors.New("type member access expects an identifier on the right")
		}
		nb := []byte(name.Name)
		b.WriteByte(byte(len(nb)))
		b.WriteBytes(nb)
		return nil
	case parser.TEGeneric:
		b.WriteTypeOp(bytecode.T_GENERIC)
		if err := emitTypeOperand(b, te.Base); err != nil {
			return err
		}
		b.WriteByte(byte(len(te.Params)))
		for _, p := range te.Params {
			if err := emitTypeOperand(b, p); err != nil {
				return err
			}
		}
		return nil
	case parser.TETuple:
		b.WriteTypeOp(bytecode.T_TUPLE)
		b.WriteUint32(uint32(len(te.Entries)))
		for _, ent := range te.Entries {
			if ent.Name == "" {
				b.WriteByte(0)
			} else {
				b.WriteByte(1)
				nb := []byte(ent.Name)
				b.WriteByte(byte(len(nb)))
				b.WriteBytes(nb)
			}
			if err := emitTypeOperand(b, ent.Type); err != nil {
				return err
			}
		}
		return nil
	case parser.TEArray:
		b.WriteTypeOp(bytecode.T_ARRAY)
		return emitTypeOperand(b, te.Element)
	case parser.TEStruct:
		b.WriteTypeOp(bytecode.T_STRUCT)
		b.WriteUint32(uint32(len(te.Entries)))
		for _, ent := range te.Entries {
			name := []byte(ent.Name)
			b.WriteByte(byte(len(name)))
			b.WriteBytes(name)
			if err := emitTypeOperand(b, ent.Type); err != nil {
				return err
			}
		}
		return nil
	case parser.TEMap:
		b.WriteTypeOp(bytecode.T_MAP)
		b.WriteUint32(uint32(len(te.Entries)))
		for _, ent := range te.Entries {
			if err := emitTypeExprFromName(b, ent.Name); err != nil {
				return err
			}
			if err := emitTypeOperand(b, ent.Type); err != nil {
				return err
			}
		}
		return nil
	default:
		return errors.Errorf("compiler: unsupported type-expression kind %v", te.TypeKind)
	}
}

func emitTypeExprFromName(b *bytecode.Body, name string) error {
	b.WriteTypeOp(bytecode.T_TYPE_REFERENCE)
	b.WriteByte(0)
	b.WriteLenPrefixedBytes([]byte(name))
	return nil
}

func emitTypeOperand(b *bytecode.Body, expr parser.Expr) error {
	te, ok := expr.(parser.TypeExpr)
	if !ok {
		return errors.New("expected a type-expression operand")
	}
	return emitTypeExpr(b, te)
}

// EncodeValue writes a runtime value.Value back out as a DXB literal,
// the inverse of decodeOne's literal cases. The execution engine needs
// this to serialize a slot's current value into an injected-slot
// fragment ahead of a remote-execution body (spec.md §4.F).
func EncodeValue(b *bytecode.Body, v value.Value) error {
	switch inner := v.Inner.(type) {
	case value.Null:
		b.WriteOp(bytecode.NULL)
	case value.Boolean:
		if inner {
			b.WriteOp(bytecode.TRUE)
		} else {
			b.WriteOp(bytecode.FALSE)
		}
	case value.Integer:
		emitInteger(b, inner)
	case value.Decimal:
		emitDecimal(b, inner)
	case value.TypedDecimal:
		return emitTypedDecimal(b, inner)
	case value.Text:
		emitText(b, string(inner))
	case value.Endpoint:
		emitEndpoint(b, inner)
	case *value.List:
		if len(inner.Items) <= 255 {
			b.WriteOp(bytecode.SHORT_LIST)
			b.WriteByte(byte(len(inner.Items)))
		} else {
			b.WriteOp(bytecode.LIST)
			b.WriteUint32(uint32(len(inner.Items)))
		}
		for _, item := range inner.Items {
			if err := EncodeValue(b, item.Resolve()); err != nil {
				return err
			}
		}
	case *value.Map:
		keys, vals := inner.Keys(), inner.Values()
		if len(keys) <= 255 {
			b.WriteOp(bytecode.SHORT_MAP)
			b.WriteByte(byte(len(keys)))
		} else {
			b.WriteOp(bytecode.MAP)
			b.WriteUint32(uint32(len(keys)))
		}
		for i, k := range keys {
			if err := EncodeValue(b, k.Resolve()); err != nil {
				return err
			}
			if err := EncodeValue(b, vals[i].Resolve()); err != nil {
				return err
			}
		}
	default:
		return errors.Errorf("compiler: value kind %v has no literal DXB encoding", v.Inner.Kind())
	}
	return nil
}
