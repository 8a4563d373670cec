package cvalue

// EvalUnaryOperation implements the four unary opcodes the stepper
// delegates here: Plus, Minus, LNot (logical not) and Not (bitwise
// complement). PreInc/PreDec/PostInc/PostDec go through
// EvalBinaryOperation with a constant 1 instead, and AddrOf/Deref never
// reach this function at all — see spec §4.3.
func EvalUnaryOperation(opcode string, v Value) (Value, error) {
	switch opcode {
	case "Plus":
		return v, nil
	case "Minus":
		switch t := v.(type) {
		case IntegralValue:
			return NewIntegral(t.Ty, truncate(t.Ty, -t.Int)), nil
		case FloatingValue:
			return NewFloating(t.Ty, -t.Float), nil
		default:
			return nil, ErrIncompatibleTypes
		}
	case "LNot":
		return NewIntegral(ScalarTypes["int"], boolToInt(!v.ToBool())), nil
	case "Not":
		iv, ok := v.(IntegralValue)
		if !ok {
			return nil, ErrIncompatibleTypes
		}
		return NewIntegral(iv.Ty, truncate(iv.Ty, ^iv.Int)), nil
	default:
		return nil, ErrUnknownUnaryOp
	}
}

// EvalBinaryOperation implements every binary opcode that reaches it.
// Comma, LAnd and LOr are handled by the BinaryOperator stepper itself
// (short-circuiting) and never call this function — see spec §4.3.
func EvalBinaryOperation(opcode string, lhs, rhs Value) (Value, error) {
	switch opcode {
	case "Add":
		if p, ok := lhs.(PointerValue); ok {
			return EvalPointerAdd(p, rhs)
		}
		if p, ok := rhs.(PointerValue); ok {
			return EvalPointerAdd(p, lhs)
		}
		return arith(opcode, lhs, rhs)
	case "Sub":
		if lp, ok := lhs.(PointerValue); ok {
			if rp, ok2 := rhs.(PointerValue); ok2 {
				return pointerDiff(lp, rp)
			}
			return EvalPointerAdd(lp, negateIndex(rhs))
		}
		return arith(opcode, lhs, rhs)
	case "Mul", "Div", "Rem", "Shl", "Shr", "And", "Or", "Xor":
		return arith(opcode, lhs, rhs)
	case "LT", "GT", "LE", "GE", "EQ", "NE":
		return compare(opcode, lhs, rhs)
	default:
		return nil, ErrUnknownBinaryOp
	}
}

// EvalCast converts v to type t: integral<->floating truncation/widening,
// integral<->pointer reinterpretation, and pointer<->pointer retyping.
func EvalCast(t Type, v Value) (Value, error) {
	switch dst := t.(type) {
	case *ScalarType:
		if dst.Float {
			f, ok := asFloat(v)
			if !ok {
				return nil, ErrUnsupportedCast
			}
			return NewFloating(t, f), nil
		}
		var iv int64
		switch src := v.(type) {
		case IntegralValue:
			iv = src.Int
		case FloatingValue:
			iv = int64(src.Float)
		case PointerValue:
			iv = int64(src.Address)
		default:
			return nil, ErrUnsupportedCast
		}
		return NewIntegral(t, truncate(t, iv)), nil
	case *PointerType:
		switch src := v.(type) {
		case PointerValue:
			return NewPointer(dst, src.Address), nil
		case IntegralValue:
			return NewPointer(dst, uint64(src.Int)), nil
		default:
			return nil, ErrUnsupportedCast
		}
	default:
		return nil, ErrUnsupportedCast
	}
}

// EvalPointerAdd forms ptr + index, scaling index by the pointee's size —
// the operation array subscripting and pointer +/- int both reduce to.
func EvalPointerAdd(ptr PointerValue, index Value) (PointerValue, error) {
	pt, ok := ptr.Ty.(*PointerType)
	if !ok {
		return PointerValue{}, ErrNotAPointer
	}
	idx, ok := asInt(index)
	if !ok {
		return PointerValue{}, ErrIncompatibleTypes
	}
	elemSize := int64(pt.Pointee.Size())
	if elemSize == 0 {
		elemSize = 1
	}
	newAddr := uint64(int64(ptr.Address) + idx*elemSize)
	return NewPointer(pt, newAddr), nil
}

func pointerDiff(lp, rp PointerValue) (Value, error) {
	pt, ok := lp.Ty.(*PointerType)
	if !ok {
		return nil, ErrNotAPointer
	}
	elemSize := int64(pt.Pointee.Size())
	if elemSize == 0 {
		elemSize = 1
	}
	diff := int64(lp.Address) - int64(rp.Address)
	return NewIntegral(ScalarTypes["long"], diff/elemSize), nil
}

func negateIndex(v Value) Value {
	switch t := v.(type) {
	case IntegralValue:
		return NewIntegral(t.Ty, -t.Int)
	case FloatingValue:
		return NewIntegral(ScalarTypes["int"], -int64(t.Float))
	default:
		return v
	}
}

func arith(opcode string, lhs, rhs Value) (Value, error) {
	if isFloatOperand(lhs) || isFloatOperand(rhs) {
		switch opcode {
		case "Add", "Sub", "Mul", "Div":
			a, aok := asFloat(lhs)
			b, bok := asFloat(rhs)
			if !aok || !bok {
				return nil, ErrIncompatibleTypes
			}
			rt := promoteFloat(lhs.Type(), rhs.Type())
			switch opcode {
			case "Add":
				return NewFloating(rt, a+b), nil
			case "Sub":
				return NewFloating(rt, a-b), nil
			case "Mul":
				return NewFloating(rt, a*b), nil
			case "Div":
				if b == 0 {
					return nil, ErrDivisionByZero
				}
				return NewFloating(rt, a/b), nil
			}
		}
		return nil, ErrIncompatibleTypes
	}

	a, aok := asInt(lhs)
	b, bok := asInt(rhs)
	if !aok || !bok {
		return nil, ErrIncompatibleTypes
	}
	rt := promoteIntegral(lhs.Type(), rhs.Type())
	switch opcode {
	case "Add":
		return NewIntegral(rt, truncate(rt, a+b)), nil
	case "Sub":
		return NewIntegral(rt, truncate(rt, a-b)), nil
	case "Mul":
		return NewIntegral(rt, truncate(rt, a*b)), nil
	case "Div":
		if b == 0 {
			return nil, ErrDivisionByZero
		}
		return NewIntegral(rt, truncate(rt, a/b)), nil
	case "Rem":
		if b == 0 {
			return nil, ErrDivisionByZero
		}
		return NewIntegral(rt, truncate(rt, a%b)), nil
	case "Shl":
		return NewIntegral(rt, truncate(rt, a<<uint(b))), nil
	case "Shr":
		return NewIntegral(rt, truncate(rt, a>>uint(b))), nil
	case "And":
		return NewIntegral(rt, truncate(rt, a&b)), nil
	case "Or":
		return NewIntegral(rt, truncate(rt, a|b)), nil
	case "Xor":
		return NewIntegral(rt, truncate(rt, a^b)), nil
	default:
		return nil, ErrUnknownBinaryOp
	}
}

func compare(opcode string, lhs, rhs Value) (Value, error) {
	intType := ScalarTypes["int"]

	lp, lIsPtr := lhs.(PointerValue)
	rp, rIsPtr := rhs.(PointerValue)
	if lIsPtr && rIsPtr {
		return NewIntegral(intType, boolToInt(cmpUint(opcode, lp.Address, rp.Address))), nil
	}
	if isFloatOperand(lhs) || isFloatOperand(rhs) {
		a, aok := asFloat(lhs)
		b, bok := asFloat(rhs)
		if !aok || !bok {
			return nil, ErrIncompatibleTypes
		}
		return NewIntegral(intType, boolToInt(cmpFloat(opcode, a, b))), nil
	}
	a, aok := asInt(lhs)
	b, bok := asInt(rhs)
	if !aok || !bok {
		return nil, ErrIncompatibleTypes
	}
	return NewIntegral(intType, boolToInt(cmpInt(opcode, a, b))), nil
}

func cmpInt(opcode string, a, b int64) bool {
	switch opcode {
	case "LT":
		return a < b
	case "GT":
		return a > b
	case "LE":
		return a <= b
	case "GE":
		return a >= b
	case "EQ":
		return a == b
	case "NE":
		return a != b
	default:
		return false
	}
}

func cmpUint(opcode string, a, b uint64) bool {
	switch opcode {
	case "LT":
		return a < b
	case "GT":
		return a > b
	case "LE":
		return a <= b
	case "GE":
		return a >= b
	case "EQ":
		return a == b
	case "NE":
		return a != b
	default:
		return false
	}
}

func cmpFloat(opcode string, a, b float64) bool {
	switch opcode {
	case "LT":
		return a < b
	case "GT":
		return a > b
	case "LE":
		return a <= b
	case "GE":
		return a >= b
	case "EQ":
		return a == b
	case "NE":
		return a != b
	default:
		return false
	}
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func isFloatOperand(v Value) bool {
	_, ok := v.(FloatingValue)
	return ok
}

func asFloat(v Value) (float64, bool) {
	switch t := v.(type) {
	case FloatingValue:
		return t.Float, true
	case IntegralValue:
		return float64(t.Int), true
	default:
		return 0, false
	}
}

func asInt(v Value) (int64, bool) {
	switch t := v.(type) {
	case IntegralValue:
		return t.Int, true
	case PointerValue:
		return int64(t.Address), true
	default:
		return 0, false
	}
}

// promoteIntegral and promoteFloat implement a simplified version of C's
// usual arithmetic conversions. promoteIntegral: the wider type wins,
// unsigned wins ties. promoteFloat: the result is always double, even for
// float operands.
func promoteIntegral(a, b Type) Type {
	sa, aok := a.(*ScalarType)
	sb, bok := b.(*ScalarType)
	switch {
	case aok && bok:
		if sa.ByteSize == sb.ByteSize {
			if sa.Unsigned || sb.Unsigned {
				if sa.Unsigned {
					return sa
				}
				return sb
			}
			return sa
		}
		if sa.ByteSize > sb.ByteSize {
			return sa
		}
		return sb
	case aok:
		return sa
	case bok:
		return sb
	default:
		return ScalarTypes["int"]
	}
}

func promoteFloat(a, b Type) Type {
	if sa, ok := a.(*ScalarType); ok && sa.Float && sa.ByteSize >= 8 {
		return sa
	}
	if sb, ok := b.(*ScalarType); ok && sb.Float && sb.ByteSize >= 8 {
		return sb
	}
	return ScalarTypes["double"]
}

// truncate masks v to t's bit width and sign-extends when t is signed,
// modeling the wraparound every C integer type exhibits.
func truncate(t Type, v int64) int64 {
	st, ok := t.(*ScalarType)
	if !ok || st.Float || st.ByteSize <= 0 || st.ByteSize >= 8 {
		return v
	}
	bits := uint(st.ByteSize * 8)
	mask := (int64(1) << bits) - 1
	v &= mask
	if !st.Unsigned && v&(int64(1)<<(bits-1)) != 0 {
		v -= int64(1) << bits
	}
	return v
}
