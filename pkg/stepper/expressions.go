package stepper

import (
	"strconv"
	"strings"

	"github.com/persistent-c/persistent-c-go/pkg/ast"
	"github.com/persistent-c/persistent-c-go/pkg/cvalue"
)

// --- literals ---------------------------------------------------------

// stepIntegerLiteral parses the lexeme's numeric payload and a trailing
// u/l suffix run, defaulting to int when unsuffixed.
func stepIntegerLiteral(state *State, control *Control) Result {
	lexeme := control.Node.Attrs.Value
	v, t, err := parseIntegerLiteral(lexeme)
	if err != nil {
		return fail(control, newError(ErrEvaluation, lexeme, err))
	}
	return ok(control.Cont, cvalue.NewIntegral(t, v))
}

// parseIntegerLiteral strips a trailing case-insensitive run of u/l
// characters and maps the combination onto unsigned int, long, unsigned
// long, long long or unsigned long long, defaulting to int when there is
// no suffix.
func parseIntegerLiteral(lexeme string) (int64, cvalue.Type, error) {
	digits := lexeme
	suffix := ""
	for len(digits) > 0 {
		c := digits[len(digits)-1]
		if c == 'u' || c == 'U' || c == 'l' || c == 'L' {
			suffix = string(c) + suffix
			digits = digits[:len(digits)-1]
			continue
		}
		break
	}
	suffix = strings.ToLower(suffix)
	unsigned := strings.Contains(suffix, "u")
	long := strings.Count(suffix, "l")

	var t *cvalue.ScalarType
	switch {
	case long >= 2 && unsigned:
		t = cvalue.ScalarTypes["unsigned long long"]
	case long >= 2:
		t = cvalue.ScalarTypes["long long"]
	case long == 1 && unsigned:
		t = cvalue.ScalarTypes["unsigned long"]
	case long == 1:
		t = cvalue.ScalarTypes["long"]
	case unsigned:
		t = cvalue.ScalarTypes["unsigned int"]
	default:
		t = cvalue.ScalarTypes["int"]
	}

	if unsigned {
		v, err := strconv.ParseUint(digits, 0, 64)
		if err != nil {
			return 0, t, err
		}
		return int64(v), t, nil
	}
	v, err := strconv.ParseInt(digits, 0, 64)
	if err != nil {
		return 0, t, err
	}
	return v, t, nil
}

// stepCharacterLiteral parses a single-quoted character lexeme, optionally
// prefixed with "u" to mark an unsigned char literal.
func stepCharacterLiteral(state *State, control *Control) Result {
	lexeme := control.Node.Attrs.Value
	typeName := "char"
	if strings.HasPrefix(lexeme, "u") {
		typeName = "unsigned char"
		lexeme = lexeme[1:]
	}
	code, err := parseCharacterLexeme(lexeme)
	if err != nil {
		return fail(control, newError(ErrEvaluation, lexeme, err))
	}
	return ok(control.Cont, cvalue.NewIntegral(cvalue.ScalarTypes[typeName], code))
}

func parseCharacterLexeme(lexeme string) (int64, error) {
	body := strings.Trim(lexeme, "'")
	if body == "" {
		return 0, strconv.ErrSyntax
	}
	if body[0] == '\\' && len(body) > 1 {
		switch body[1] {
		case 'n':
			return int64('\n'), nil
		case 't':
			return int64('\t'), nil
		case 'r':
			return int64('\r'), nil
		case '0':
			return 0, nil
		case '\\':
			return int64('\\'), nil
		case '\'':
			return int64('\''), nil
		default:
			return int64(body[1]), nil
		}
	}
	return int64(body[0]), nil
}

// stepFloatingLiteral parses the lexeme, picking float when it ends in
// f/F and double otherwise.
func stepFloatingLiteral(state *State, control *Control) Result {
	lexeme := control.Node.Attrs.Value
	typeName := "double"
	digits := lexeme
	if strings.HasSuffix(digits, "f") || strings.HasSuffix(digits, "F") {
		typeName = "float"
		digits = digits[:len(digits)-1]
	}
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return fail(control, newError(ErrEvaluation, lexeme, err))
	}
	return ok(control.Cont, cvalue.NewFloating(cvalue.ScalarTypes[typeName], v))
}

// stepStringLiteral returns the pre-materialized pointer the AST's builder
// stashed in attrs.Ref (the JSON program loader never sets it).
func stepStringLiteral(state *State, control *Control) Result {
	ptr, isPtr := control.Node.Attrs.Ref.(cvalue.PointerValue)
	if !isPtr {
		return fail(control, newError(ErrEvaluation, string(control.Node.Kind), nil))
	}
	return ok(control.Cont, ptr)
}

// --- transparent and name-lookup expressions ---------------------------

// stepParenExpr is transparent in mode: evaluate the single child, pass
// its result through unchanged.
func stepParenExpr(state *State, control *Control) Result {
	node := control.Node
	if control.Step == 0 {
		next := &Control{Node: node, Step: 1, Cont: control.Cont}
		return ok(Enter(node.Child(0), next, control.Mode, SeqNone), nil)
	}
	return ok(control.Cont, state.Result)
}

// stepDeclRefExpr resolves an identifier against scope and yields either
// its address (lvalue mode, addressable), its decayed-or-loaded value
// (value mode, addressable), or its stored binding (non-addressable).
func stepDeclRefExpr(state *State, control *Control) Result {
	node := control.Node
	ref, err := findDeclaration(state, node.Attrs.Identifier)
	if err != nil {
		return fail(control, err)
	}

	if ref.Pointer == nil {
		if control.Mode == ModeLvalue {
			return fail(control, newError(ErrNotAnLvalue, node.Attrs.Identifier, nil))
		}
		return ok(control.Cont, ref.Value)
	}

	if control.Mode == ModeLvalue {
		return ok(control.Cont, *ref.Pointer)
	}

	pt, isPtr := ref.Pointer.Ty.(*cvalue.PointerType)
	if !isPtr {
		return fail(control, newError(ErrEvaluation, node.Attrs.Identifier, nil))
	}
	if arr, isArr := cvalue.IsArray(pt.Pointee); isArr {
		decayed := cvalue.NewPointer(cvalue.NewPointerType(arr.Elem), ref.Pointer.Address)
		return ok(control.Cont, decayed)
	}

	val, err := state.Memory.ReadValue(*ref.Pointer)
	if err != nil {
		return fail(control, newError(ErrEvaluation, node.Attrs.Identifier, err))
	}
	return ok(control.Cont, val, Effect{Kind: EffectLoad, Pointer: ref.Pointer})
}

// --- unary family -------------------------------------------------------

func stepUnaryOperator(state *State, control *Control) Result {
	node := control.Node
	switch node.Attrs.Opcode {
	case "Plus", "Minus", "LNot", "Not":
		return stepSimpleUnary(state, control)
	case "PreInc", "PreDec", "PostInc", "PostDec":
		return stepIncDec(state, control)
	case "AddrOf":
		return stepAddrOf(state, control)
	case "Deref":
		return stepDeref(state, control)
	default:
		return fail(control, newError(ErrUnknownOpcode, node.Attrs.Opcode, nil))
	}
}

func stepSimpleUnary(state *State, control *Control) Result {
	node := control.Node
	if control.Step == 0 {
		next := &Control{Node: node, Step: 1, Cont: control.Cont}
		return ok(Enter(node.Child(0), next, ModeValue, SeqNone), nil)
	}
	result, err := cvalue.EvalUnaryOperation(node.Attrs.Opcode, state.Result)
	if err != nil {
		return fail(control, newError(ErrEvaluation, node.Attrs.Opcode, err))
	}
	return ok(control.Cont, result)
}

func stepIncDec(state *State, control *Control) Result {
	node := control.Node
	if control.Step == 0 {
		next := &Control{Node: node, Step: 1, Cont: control.Cont}
		return ok(Enter(node.Child(0), next, ModeLvalue, SeqNone), nil)
	}
	lv, isPtr := state.Result.(cvalue.PointerValue)
	if !isPtr {
		return fail(control, newError(ErrNotAnLvalue, node.Attrs.Opcode, nil))
	}
	old, err := state.Memory.ReadValue(lv)
	if err != nil {
		return fail(control, newError(ErrEvaluation, node.Attrs.Opcode, err))
	}
	binOp := "Add"
	if node.Attrs.Opcode == "PreDec" || node.Attrs.Opcode == "PostDec" {
		binOp = "Sub"
	}
	one := cvalue.NewIntegral(cvalue.ScalarTypes["int"], 1)
	newVal, err := cvalue.EvalBinaryOperation(binOp, old, one)
	if err != nil {
		return fail(control, newError(ErrEvaluation, node.Attrs.Opcode, err))
	}
	result := newVal
	if node.Attrs.Opcode == "PostInc" || node.Attrs.Opcode == "PostDec" {
		result = old
	}
	return ok(control.Cont, result,
		Effect{Kind: EffectLoad, Pointer: &lv},
		Effect{Kind: EffectStore, Pointer: &lv, Value: newVal})
}

func stepAddrOf(state *State, control *Control) Result {
	node := control.Node
	if control.Step == 0 {
		next := &Control{Node: node, Step: 1, Cont: control.Cont}
		return ok(Enter(node.Child(0), next, ModeLvalue, SeqNone), nil)
	}
	ptr, isPtr := state.Result.(cvalue.PointerValue)
	if !isPtr {
		return fail(control, newError(ErrNotAnLvalue, node.Attrs.Opcode, nil))
	}
	return ok(control.Cont, ptr)
}

func stepDeref(state *State, control *Control) Result {
	node := control.Node
	if control.Step == 0 {
		next := &Control{Node: node, Step: 1, Cont: control.Cont, Mode: control.Mode}
		return ok(Enter(node.Child(0), next, ModeValue, SeqNone), nil)
	}
	ptr, isPtr := state.Result.(cvalue.PointerValue)
	if !isPtr {
		return fail(control, newError(ErrEvaluation, node.Attrs.Opcode, cvalue.ErrNotAPointer))
	}
	if control.Mode == ModeLvalue {
		return ok(control.Cont, ptr)
	}
	val, err := state.Memory.ReadValue(ptr)
	if err != nil {
		return fail(control, newError(ErrEvaluation, node.Attrs.Opcode, err))
	}
	return ok(control.Cont, val, Effect{Kind: EffectLoad, Pointer: &ptr})
}

// --- sizeof ---------------------------------------------------------

// stepSizeofExpr walks its operand without evaluating it: a ParenExpr
// recurses on its inner child, a DeclRefExpr yields the pointee's size (or
// 0 for a non-addressable binding — XXX a correct implementation should
// consult the referent's declared type size instead). Other operand
// shapes are unimplemented.
func stepSizeofExpr(state *State, control *Control) Result {
	size, err := sizeofOperand(state, control.Node.Child(0))
	if err != nil {
		return fail(control, err)
	}
	return ok(control.Cont, cvalue.NewIntegral(cvalue.ScalarTypes["int"], int64(size)))
}

func sizeofOperand(state *State, node *ast.Node) (int, error) {
	if node == nil {
		return 0, newError(ErrEvaluation, "sizeof", nil)
	}
	switch node.Kind {
	case ast.ParenExpr:
		return sizeofOperand(state, node.Child(0))
	case ast.DeclRefExpr:
		ref, err := findDeclaration(state, node.Attrs.Identifier)
		if err != nil {
			return 0, err
		}
		if ref.Pointer == nil {
			return 0, nil
		}
		pt, isPtr := ref.Pointer.Ty.(*cvalue.PointerType)
		if !isPtr {
			return 0, newError(ErrEvaluation, node.Attrs.Identifier, nil)
		}
		return pt.Pointee.Size(), nil
	default:
		return 0, newError(ErrEvaluation, string(node.Kind), nil)
	}
}

// --- binary family -------------------------------------------------------

func stepBinaryOperator(state *State, control *Control) Result {
	node := control.Node
	if node.Attrs.Opcode == "Assign" {
		return stepAssignment(state, control)
	}

	switch control.Step {
	case 0:
		next := &Control{Node: node, Step: 1, Cont: control.Cont}
		return ok(Enter(node.Child(0), next, ModeValue, SeqNone), nil)
	case 1:
		lhs := state.Result
		switch node.Attrs.Opcode {
		case "LAnd":
			if !lhs.ToBool() {
				return ok(control.Cont, lhs)
			}
		case "LOr":
			if lhs.ToBool() {
				return ok(control.Cont, lhs)
			}
		}
		next := &Control{Node: node, Step: 2, Cont: control.Cont, LHS: lhs}
		return ok(Enter(node.Child(1), next, ModeValue, SeqNone), nil)
	case 2:
		rhs := state.Result
		switch node.Attrs.Opcode {
		case "Comma", "LAnd", "LOr":
			return ok(control.Cont, rhs)
		default:
			result, err := cvalue.EvalBinaryOperation(node.Attrs.Opcode, control.LHS, rhs)
			if err != nil {
				return fail(control, newError(ErrEvaluation, node.Attrs.Opcode, err))
			}
			return ok(control.Cont, result)
		}
	default:
		return fail(control, newError(ErrEvaluation, string(node.Kind), nil))
	}
}

func stepAssignment(state *State, control *Control) Result {
	node := control.Node
	switch control.Step {
	case 0:
		next := &Control{Node: node, Step: 1, Cont: control.Cont}
		return ok(Enter(node.Child(0), next, ModeLvalue, SeqNone), nil)
	case 1:
		lv, isPtr := state.Result.(cvalue.PointerValue)
		if !isPtr {
			return fail(control, newError(ErrNotAnLvalue, node.Attrs.Opcode, nil))
		}
		next := &Control{Node: node, Step: 2, Cont: control.Cont, LValue: &lv}
		return ok(Enter(node.Child(1), next, ModeValue, SeqNone), nil)
	case 2:
		rhs := state.Result
		return ok(control.Cont, rhs, Effect{Kind: EffectStore, Pointer: control.LValue, Value: rhs})
	default:
		return fail(control, newError(ErrEvaluation, string(node.Kind), nil))
	}
}

// stepCompoundAssignOperator implements `op=`: load the old lvalue,
// combine with the rhs via the named binary op, store the result.
func stepCompoundAssignOperator(state *State, control *Control) Result {
	node := control.Node
	switch control.Step {
	case 0:
		next := &Control{Node: node, Step: 1, Cont: control.Cont}
		return ok(Enter(node.Child(0), next, ModeLvalue, SeqNone), nil)
	case 1:
		lv, isPtr := state.Result.(cvalue.PointerValue)
		if !isPtr {
			return fail(control, newError(ErrNotAnLvalue, node.Attrs.Opcode, nil))
		}
		old, err := state.Memory.ReadValue(lv)
		if err != nil {
			return fail(control, newError(ErrEvaluation, node.Attrs.Opcode, err))
		}
		next := &Control{Node: node, Step: 2, Cont: control.Cont, LValue: &lv, LHS: old}
		return ok(Enter(node.Child(1), next, ModeValue, SeqNone), nil, Effect{Kind: EffectLoad, Pointer: &lv})
	case 2:
		rhs := state.Result
		newVal, err := cvalue.EvalBinaryOperation(node.Attrs.Opcode, control.LHS, rhs)
		if err != nil {
			return fail(control, newError(ErrEvaluation, node.Attrs.Opcode, err))
		}
		return ok(control.Cont, newVal, Effect{Kind: EffectStore, Pointer: control.LValue, Value: newVal})
	default:
		return fail(control, newError(ErrEvaluation, string(node.Kind), nil))
	}
}

// --- array subscript, casts, ternary -------------------------------------

func stepArraySubscriptExpr(state *State, control *Control) Result {
	node := control.Node
	switch control.Step {
	case 0:
		next := &Control{Node: node, Step: 1, Cont: control.Cont, Mode: control.Mode}
		return ok(Enter(node.Child(0), next, ModeValue, SeqNone), nil)
	case 1:
		base, isPtr := state.Result.(cvalue.PointerValue)
		if !isPtr {
			return fail(control, newError(ErrEvaluation, string(node.Kind), cvalue.ErrNotAPointer))
		}
		next := &Control{Node: node, Step: 2, Cont: control.Cont, Mode: control.Mode, Array: &base}
		return ok(Enter(node.Child(1), next, ModeValue, SeqNone), nil)
	case 2:
		elemPtr, err := cvalue.EvalPointerAdd(*control.Array, state.Result)
		if err != nil {
			return fail(control, newError(ErrEvaluation, string(node.Kind), err))
		}
		if control.Mode == ModeLvalue {
			return ok(control.Cont, elemPtr)
		}
		val, err := state.Memory.ReadValue(elemPtr)
		if err != nil {
			return fail(control, newError(ErrEvaluation, string(node.Kind), err))
		}
		return ok(control.Cont, val, Effect{Kind: EffectLoad, Pointer: &elemPtr})
	default:
		return fail(control, newError(ErrEvaluation, string(node.Kind), nil))
	}
}

// stepImplicitCastExpr forwards mode into the value child (XXX: it is
// unclear whether mode-sensitive implicit casts occur in practice; this
// preserves the forwarding behavior regardless).
func stepImplicitCastExpr(state *State, control *Control) Result {
	node := control.Node
	switch control.Step {
	case 0:
		next := &Control{Node: node, Step: 1, Cont: control.Cont}
		return ok(Enter(node.Child(0), next, control.Mode, SeqNone), nil)
	case 1:
		next := &Control{Node: node, Step: 2, Cont: control.Cont, Value: state.Result}
		return ok(Enter(node.Child(1), next, ModeValue, SeqNone), nil)
	case 2:
		result, err := cvalue.EvalCast(control.Type, control.Value)
		if err != nil {
			return fail(control, newError(ErrEvaluation, string(node.Kind), err))
		}
		return ok(control.Cont, result)
	default:
		return fail(control, newError(ErrEvaluation, string(node.Kind), nil))
	}
}

// stepCStyleCastExpr evaluates the target type first, then the value.
func stepCStyleCastExpr(state *State, control *Control) Result {
	node := control.Node
	switch control.Step {
	case 0:
		next := &Control{Node: node, Step: 1, Cont: control.Cont}
		return ok(Enter(node.Child(0), next, ModeValue, SeqNone), nil)
	case 1:
		next := &Control{Node: node, Step: 2, Cont: control.Cont, Type: control.Type}
		return ok(Enter(node.Child(1), next, ModeValue, SeqNone), nil)
	case 2:
		result, err := cvalue.EvalCast(control.Type, state.Result)
		if err != nil {
			return fail(control, newError(ErrEvaluation, string(node.Kind), err))
		}
		return ok(control.Cont, result)
	default:
		return fail(control, newError(ErrEvaluation, string(node.Kind), nil))
	}
}

func stepConditionalOperator(state *State, control *Control) Result {
	node := control.Node
	switch control.Step {
	case 0:
		next := &Control{Node: node, Step: 1, Cont: control.Cont}
		return ok(Enter(node.Child(0), next, ModeValue, SeqExpr), nil)
	case 1:
		branch := node.Child(2)
		if state.Result.ToBool() {
			branch = node.Child(1)
		}
		next := &Control{Node: node, Step: 2, Cont: control.Cont}
		return ok(Enter(branch, next, control.Mode, SeqStmt), nil)
	case 2:
		return ok(control.Cont, state.Result)
	default:
		return fail(control, newError(ErrEvaluation, string(node.Kind), nil))
	}
}
