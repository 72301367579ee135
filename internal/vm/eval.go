package vm

import (
	"math/big"

	"datex/internal/bytecode"
	"datex/internal/compiler"
	derr "datex/internal/errors"
	"datex/internal/value"
)

// SetPlaceholders seeds the ordered values PLACEHOLDER instructions are
// substituted with (DATEX's templated-script mechanism: a compiled DXB
// fragment with `?` placeholders, filled in per execution rather than
// recompiled). Evaluating more placeholders than were supplied fails
// with an InvalidProgram error of kind NotImplemented.
func (m *Machine) SetPlaceholders(values []value.Container) {
	m.placeholders = values
}

func (m *Machine) nextPlaceholder() (value.Container, error) {
	if m.placeholderIdx >= len(m.placeholders) {
		return nil, derr.ErrInvalidProgram(derr.NotImplemented)
	}
	v := m.placeholders[m.placeholderIdx]
	m.placeholderIdx++
	return v, nil
}

// eval walks one Instruction and returns its produced container
// (spec.md §4.F: "push the result as the active value"). A nil,nil
// return means the instruction produced no value, which only happens
// for ALLOCATE_SLOT/DROP_SLOT and a terminated statement sequence.
func (m *Machine) eval(instr *compiler.Instruction) (value.Container, error) {
	if instr == nil {
		return value.ValueOf(value.Null{}), nil
	}

	switch instr.Op.Code {
	case bytecode.NULL:
		return value.ValueOf(value.Null{}), nil
	case bytecode.TRUE:
		return value.ValueOf(value.Boolean(true)), nil
	case bytecode.FALSE:
		return value.ValueOf(value.Boolean(false)), nil
	case bytecode.PLACEHOLDER:
		return m.nextPlaceholder()

	case bytecode.UINT_8, bytecode.UINT_16, bytecode.UINT_32, bytecode.UINT_64, bytecode.UINT_128,
		bytecode.INT_8, bytecode.INT_16, bytecode.INT_32, bytecode.INT_64, bytecode.INT_128,
		bytecode.BIG_INTEGER:
		return value.ValueOf(value.Integer{Val: instr.IntVal, Width: instr.IntWidth}), nil

	case bytecode.DECIMAL_AS_INT16, bytecode.DECIMAL_AS_INT32, bytecode.DECIMAL:
		return value.ValueOf(*instr.DecVal), nil
	case bytecode.DECIMAL_NAN:
		return value.ValueOf(value.NewNaNDecimal()), nil
	case bytecode.DECIMAL_POS_INF:
		return value.ValueOf(value.NewPosInfDecimal()), nil
	case bytecode.DECIMAL_NEG_INF:
		return value.ValueOf(value.NewNegInfDecimal()), nil
	case bytecode.DECIMAL_F32, bytecode.DECIMAL_F64:
		return value.ValueOf(*instr.TypedDecVal), nil

	case bytecode.SHORT_TEXT, bytecode.TEXT:
		return value.ValueOf(value.Text(instr.Text)), nil

	case bytecode.ENDPOINT:
		return value.ValueOf(instr.Endpoint), nil

	case bytecode.POINTER_ADDRESS, bytecode.GET_REF, bytecode.GET_LOCAL_REF:
		return m.resolvePointer(instr.PointerAddr)
	case bytecode.GET_INTERNAL_REF:
		return m.getInternalSlot(instr.SlotAddr)

	case bytecode.SHORT_LIST, bytecode.LIST:
		return m.evalList(instr)
	case bytecode.SHORT_MAP, bytecode.MAP:
		return m.evalMap(instr)
	case bytecode.TUPLE:
		return m.evalTuple(instr)

	case bytecode.SHORT_STATEMENTS, bytecode.STATEMENTS, bytecode.UNBOUNDED_STATEMENTS:
		return m.evalStatements(instr)

	case bytecode.ALLOCATE_SLOT:
		m.allocateSlot(instr.SlotAddr)
		return nil, nil
	case bytecode.DROP_SLOT:
		m.dropSlot(instr.SlotAddr)
		return nil, nil
	case bytecode.GET_SLOT:
		return m.getSlot(instr.SlotAddr)
	case bytecode.SET_SLOT:
		m.push(FrameSlotAssignment)
		defer m.pop()
		v, err := m.eval(instr.Value)
		if err != nil {
			return nil, err
		}
		m.setSlot(instr.SlotAddr, v)
		return v, nil
	case bytecode.ADD_SLOT, bytecode.SUB_SLOT, bytecode.MUL_SLOT, bytecode.DIV_SLOT:
		return m.evalCompoundSlot(instr)

	case bytecode.CREATE_REF:
		return m.evalCreateRef(instr, value.Immutable)
	case bytecode.CREATE_REF_MUT:
		return m.evalCreateRef(instr, value.Mutable)
	case bytecode.DEREF:
		m.push(FrameDeref)
		defer m.pop()
		operand, err := m.eval(instr.Operand)
		if err != nil {
			return nil, err
		}
		ref, ok := value.AsReference(operand)
		if !ok {
			return nil, derr.ErrDerefOfNonReference()
		}
		return ref.Get(), nil

	case bytecode.ASSIGN_TO_REFERENCE:
		return m.evalAssignToReference(instr)

	case bytecode.NEGATE:
		m.push(FrameUnaryOperation)
		defer m.pop()
		operand, err := m.eval(instr.Operand)
		if err != nil {
			return nil, err
		}
		return negate(operand)

	case bytecode.ADD, bytecode.SUB, bytecode.MUL, bytecode.DIV, bytecode.MOD:
		return m.evalBinaryOp(instr)

	case bytecode.CMP_STRUCTURAL_EQUAL, bytecode.CMP_VALUE_EQUAL,
		bytecode.CMP_NOT_STRUCTURAL_EQUAL, bytecode.CMP_NOT_VALUE_EQUAL,
		bytecode.CMP_IS, bytecode.CMP_MATCHES, bytecode.CMP_LESS_THAN,
		bytecode.CMP_GREATER_THAN, bytecode.CMP_LESS_EQUAL, bytecode.CMP_GREATER_EQUAL,
		bytecode.CMP_AND, bytecode.CMP_OR:
		return m.evalComparison(instr)

	case bytecode.APPLY:
		return m.evalApply(instr)

	case bytecode.REMOTE_EXECUTION:
		return m.evalRemoteExecution(instr)

	case bytecode.CONDITIONAL:
		return m.evalConditional(instr)

	case bytecode.TYPE_EXPRESSION:
		t, err := m.evalType(instr.TypeInstr)
		if err != nil {
			return nil, err
		}
		return value.ValueOf(t), nil

	default:
		return nil, derr.ErrInvalidProgram(derr.NotImplemented)
	}
}

func (m *Machine) evalList(instr *compiler.Instruction) (value.Container, error) {
	m.push(FrameCollection)
	defer m.pop()
	items := make([]value.Container, 0, len(instr.Items))
	for _, it := range instr.Items {
		v, err := m.eval(it)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return value.Box(value.NewValue(value.NewList(items...))), nil
}

func (m *Machine) evalMap(instr *compiler.Instruction) (value.Container, error) {
	m.push(FrameCollection)
	defer m.pop()
	mp := value.NewMap()
	for _, ent := range instr.Entries {
		m.push(FrameKeyValuePair)
		k, err := m.eval(ent.Key)
		if err != nil {
			m.pop()
			return nil, err
		}
		v, err := m.eval(ent.Value)
		m.pop()
		if err != nil {
			return nil, err
		}
		mp.TrySet(k, v)
	}
	return value.Box(value.NewValue(mp)), nil
}

// evalTuple lowers a Tuple onto the same ordered Map the value model
// already has, since spec.md §3's CoreValue list has no dedicated
// Tuple variant — positional entries are keyed by their index, named
// entries by their name, exactly the shape DATEX's actual tuple
// representation takes at the wire/value level.
func (m *Machine) evalTuple(instr *compiler.Instruction) (value.Container, error) {
	m.push(FrameCollection)
	defer m.pop()
	mp := value.NewMap()
	for i, ent := range instr.TupleEntries {
		var key value.Container
		if ent.Key != nil {
			k, err := m.eval(ent.Key)
			if err != nil {
				return nil, err
			}
			key = k
		} else {
			key = value.ValueOf(value.Integer{Val: big.NewInt(int64(i)), Width: value.WidthBig})
		}
		v, err := m.eval(ent.Value)
		if err != nil {
			return nil, err
		}
		mp.TrySet(key, v)
	}
	return value.Box(value.NewValue(mp)), nil
}

func (m *Machine) evalStatements(instr *compiler.Instruction) (value.Container, error) {
	m.push(FramePlain)
	defer m.pop()
	var last value.Container
	for _, st := range instr.Items {
		v, err := m.eval(st)
		if err != nil {
			return nil, err
		}
		if v != nil {
			last = v
		}
	}
	if instr.Terminated {
		return nil, nil
	}
	return last, nil
}

func (m *Machine) evalCompoundSlot(instr *compiler.Instruction) (value.Container, error) {
	m.push(FrameSlotAssignment)
	defer m.pop()
	current, err := m.getSlot(instr.SlotAddr)
	if err != nil {
		return nil, err
	}
	rhs, err := m.eval(instr.Value)
	if err != nil {
		return nil, err
	}
	result, err := binaryOpResult(instr.Op.Code, current, rhs)
	if err != nil {
		return nil, err
	}
	m.setSlot(instr.SlotAddr, result)
	return result, nil
}

func (m *Machine) evalCreateRef(instr *compiler.Instruction, mutability value.ReferenceMutability) (value.Container, error) {
	held, err := m.eval(instr.Operand)
	if err != nil {
		return nil, err
	}
	var addr *value.PointerAddress
	if m.AddressAllocator != nil {
		addr = m.AddressAllocator()
	}
	return value.NewReference(held, mutability, addr), nil
}

// evalAssignToReference implements spec.md §4.F's AssignToReference: for
// a compound operator the current value is combined with the RHS
// first, then the reference is written.
func (m *Machine) evalAssignToReference(instr *compiler.Instruction) (value.Container, error) {
	m.push(FrameAssignToReference)
	defer m.pop()
	target, err := m.eval(instr.Target)
	if err != nil {
		return nil, err
	}
	ref, ok := value.AsReference(target)
	if !ok {
		return nil, derr.ErrDerefOfNonReference()
	}
	rhs, err := m.eval(instr.Value)
	if err != nil {
		return nil, err
	}

	m.push(FrameAssignmentOperation)
	var newVal value.Container
	switch instr.AssignOp {
	case compiler.AssignSet:
		newVal = rhs
	case compiler.AssignAdd:
		newVal, err = value.Add(ref.Get(), rhs)
	case compiler.AssignSub:
		newVal, err = value.Sub(ref.Get(), rhs)
	case compiler.AssignMul:
		newVal, err = value.Mul(ref.Get(), rhs)
	case compiler.AssignDiv:
		newVal, err = value.Div(ref.Get(), rhs)
	}
	m.pop()
	if err != nil {
		return nil, err
	}

	if err := ref.Set(newVal); err != nil {
		return nil, err
	}
	return newVal, nil
}

func (m *Machine) evalBinaryOp(instr *compiler.Instruction) (value.Container, error) {
	m.push(FrameBinaryOperation)
	defer m.pop()
	lhs, err := m.eval(instr.Left)
	if err != nil {
		return nil, err
	}
	rhs, err := m.eval(instr.Right)
	if err != nil {
		return nil, err
	}
	return binaryOpResult(instr.Op.Code, lhs, rhs)
}

func binaryOpResult(op bytecode.OpCode, lhs, rhs value.Container) (value.Container, error) {
	switch op {
	case bytecode.ADD, bytecode.ADD_SLOT:
		return value.Add(lhs, rhs)
	case bytecode.SUB, bytecode.SUB_SLOT:
		return value.Sub(lhs, rhs)
	case bytecode.MUL, bytecode.MUL_SLOT:
		return value.Mul(lhs, rhs)
	case bytecode.DIV, bytecode.DIV_SLOT:
		return value.Div(lhs, rhs)
	case bytecode.MOD:
		return value.Mod(lhs, rhs)
	default:
		return nil, derr.ErrInvalidProgram(derr.NotImplemented)
	}
}

func negate(operand value.Container) (value.Container, error) {
	resolved := operand.Resolve()
	switch v := resolved.Inner.(type) {
	case value.Integer:
		return value.Box(value.NewValue(v.Negate())), nil
	case value.Decimal:
		return value.Box(value.NewValue(v.Negate())), nil
	case value.TypedDecimal:
		return value.Box(value.NewValue(typedDecimalNegate(v))), nil
	default:
		return nil, derr.ErrValue(derr.InvalidOperation, "negation requires an integer or decimal")
	}
}

func typedDecimalNegate(t value.TypedDecimal) value.TypedDecimal {
	switch t.Width {
	case value.WidthF32:
		return value.NewTypedDecimalF32(-t.F32)
	case value.WidthF64:
		return value.NewTypedDecimalF64(-t.F64)
	default:
		return value.NewTypedDecimalDBig(t.DBig.Neg())
	}
}

// evalComparison implements spec.md §4.F's comparison semantics: `==`
// structural, `===` value (coincides with structural here), `is`
// identity, `matches` type matching; ordering operators defer to
// value.Compare, and `and`/`or` are plain boolean logic.
func (m *Machine) evalComparison(instr *compiler.Instruction) (value.Container, error) {
	m.push(FrameComparisonOperation)
	defer m.pop()

	if instr.Op.Code == bytecode.CMP_MATCHES {
		lhs, err := m.eval(instr.Left)
		if err != nil {
			return nil, err
		}
		rhsContainer, err := m.eval(instr.Right)
		if err != nil {
			return nil, err
		}
		t, ok := rhsContainer.Resolve().Inner.(value.Type)
		if !ok {
			return nil, derr.ErrType(derr.ExpectedTypeValueKind, "matches requires a type on the right")
		}
		return value.ValueOf(value.Boolean(value.Matches(lhs.Resolve(), t))), nil
	}

	lhs, err := m.eval(instr.Left)
	if err != nil {
		return nil, err
	}
	rhs, err := m.eval(instr.Right)
	if err != nil {
		return nil, err
	}

	switch instr.Op.Code {
	case bytecode.CMP_STRUCTURAL_EQUAL:
		return value.ValueOf(value.Boolean(value.StructuralEqual(lhs, rhs))), nil
	case bytecode.CMP_NOT_STRUCTURAL_EQUAL:
		return value.ValueOf(value.Boolean(!value.StructuralEqual(lhs, rhs))), nil
	case bytecode.CMP_VALUE_EQUAL:
		return value.ValueOf(value.Boolean(value.ValueEqual(lhs, rhs))), nil
	case bytecode.CMP_NOT_VALUE_EQUAL:
		return value.ValueOf(value.Boolean(!value.ValueEqual(lhs, rhs))), nil
	case bytecode.CMP_IS:
		return value.ValueOf(value.Boolean(value.Identical(lhs, rhs))), nil
	case bytecode.CMP_AND:
		return value.ValueOf(value.Boolean(isTruthy(lhs) && isTruthy(rhs))), nil
	case bytecode.CMP_OR:
		return value.ValueOf(value.Boolean(isTruthy(lhs) || isTruthy(rhs))), nil
	case bytecode.CMP_LESS_THAN, bytecode.CMP_GREATER_THAN, bytecode.CMP_LESS_EQUAL, bytecode.CMP_GREATER_EQUAL:
		cmp, err := value.Compare(lhs, rhs)
		if err != nil {
			return nil, err
		}
		return value.ValueOf(value.Boolean(orderingHolds(instr.Op.Code, cmp))), nil
	default:
		return nil, derr.ErrInvalidProgram(derr.NotImplemented)
	}
}

func orderingHolds(op bytecode.OpCode, cmp int) bool {
	switch op {
	case bytecode.CMP_LESS_THAN:
		return cmp < 0
	case bytecode.CMP_GREATER_THAN:
		return cmp > 0
	case bytecode.CMP_LESS_EQUAL:
		return cmp <= 0
	case bytecode.CMP_GREATER_EQUAL:
		return cmp >= 0
	default:
		return false
	}
}

func isTruthy(c value.Container) bool {
	resolved := c.Resolve()
	switch v := resolved.Inner.(type) {
	case value.Boolean:
		return bool(v)
	case value.Null:
		return false
	default:
		return true
	}
}

func (m *Machine) evalApply(instr *compiler.Instruction) (value.Container, error) {
	m.push(FrameApply)
	defer m.pop()
	callee, err := m.eval(instr.Callee)
	if err != nil {
		return nil, err
	}
	args := make([]value.Container, 0, len(instr.Args))
	for _, a := range instr.Args {
		v, err := m.eval(a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return m.apply(callee, args)
}

// evalRemoteExecution builds the DXB fragment spec.md §4.F describes
// (an ALLOCATE_SLOT + current-value pair per injected slot, then the
// captured body), evaluates the receivers expression, and defers to
// the oracle.
func (m *Machine) evalRemoteExecution(instr *compiler.Instruction) (value.Container, error) {
	frag := bytecode.NewBody()
	for _, slot := range instr.InjectedSlots {
		v, err := m.getSlot(slot)
		if err != nil {
			return nil, err
		}
		frag.WriteOp(bytecode.ALLOCATE_SLOT)
		frag.WriteUint32(slot)
		frag.WriteOp(bytecode.SET_SLOT)
		frag.WriteUint32(slot)
		if err := compiler.EncodeValue(frag, v.Resolve()); err != nil {
			return nil, err
		}
	}
	frag.WriteBytes(instr.RemoteBody)

	receivers, err := m.eval(instr.Target)
	if err != nil {
		return nil, err
	}
	return m.remoteExecute(receivers, frag.Bytes)
}

func (m *Machine) evalConditional(instr *compiler.Instruction) (value.Container, error) {
	cond, err := m.eval(instr.Operand)
	if err != nil {
		return nil, err
	}
	if isTruthy(cond) {
		return m.eval(instr.Left)
	}
	if instr.HasElse {
		return m.eval(instr.Right)
	}
	return value.ValueOf(value.Null{}), nil
}
