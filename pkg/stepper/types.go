package stepper

import "github.com/persistent-c/persistent-c-go/pkg/cvalue"

// stepVarDecl evaluates the declared type, optionally the initializer, and
// emits a vardecl effect for the driver to allocate storage for.
func stepVarDecl(state *State, control *Control) Result {
	node := control.Node
	switch control.Step {
	case 0:
		next := &Control{Node: node, Step: 1, Cont: control.Cont}
		return ok(Enter(node.Child(0), next, ModeValue, SeqNone), nil)
	case 1:
		declType := control.Type
		if init := node.Child(1); init != nil {
			next := &Control{Node: node, Step: 2, Cont: control.Cont, Type: declType}
			return ok(Enter(init, next, ModeValue, SeqExpr), nil)
		}
		return ok(control.Cont, nil, Effect{Kind: EffectVarDecl, Name: node.Attrs.Name, DeclType: declType})
	case 2:
		declType := control.Type
		return ok(control.Cont, nil, Effect{Kind: EffectVarDecl, Name: node.Attrs.Name, DeclType: declType, Init: state.Result})
	default:
		return fail(control, newError(ErrEvaluation, string(node.Kind), nil))
	}
}

// stepParmVarDecl evaluates its type child and reports {name, type} to its
// parent (FunctionProtoType/FunctionNoProtoType) by appending to the
// parent's accumulating Params slice.
func stepParmVarDecl(state *State, control *Control) Result {
	node := control.Node
	switch control.Step {
	case 0:
		next := &Control{Node: node, Step: 1, Cont: control.Cont, Params: control.Params}
		return ok(Enter(node.Child(0), next, ModeValue, SeqNone), nil)
	case 1:
		control.Cont.Params = append(control.Cont.Params, Param{Name: node.Attrs.Name, Type: control.Type})
		return ok(control.Cont, nil)
	default:
		return fail(control, newError(ErrEvaluation, string(node.Kind), nil))
	}
}

// stepBuiltinType looks the named scalar type up in cvalue.ScalarTypes and
// stashes it on the continuation's Type field.
func stepBuiltinType(state *State, control *Control) Result {
	node := control.Node
	t, found := cvalue.ScalarTypes[node.Attrs.Name]
	if !found {
		return fail(control, newError(ErrEvaluation, node.Attrs.Name, nil))
	}
	control.Cont.Type = t
	return ok(control.Cont, nil)
}

// stepPointerType evaluates the pointee type then wraps it.
func stepPointerType(state *State, control *Control) Result {
	node := control.Node
	switch control.Step {
	case 0:
		next := &Control{Node: node, Step: 1, Cont: control.Cont}
		return ok(Enter(node.Child(0), next, ModeValue, SeqNone), nil)
	case 1:
		control.Cont.Type = cvalue.NewPointerType(control.Type)
		return ok(control.Cont, nil)
	default:
		return fail(control, newError(ErrEvaluation, string(node.Kind), nil))
	}
}

// stepConstantArrayType evaluates the element type, then the count
// expression, then wraps both into a ConstantArrayType.
func stepConstantArrayType(state *State, control *Control) Result {
	node := control.Node
	switch control.Step {
	case 0:
		next := &Control{Node: node, Step: 1, Cont: control.Cont}
		return ok(Enter(node.Child(0), next, ModeValue, SeqNone), nil)
	case 1:
		elemType := control.Type
		next := &Control{Node: node, Step: 2, Cont: control.Cont, ElemType: elemType}
		return ok(Enter(node.Child(1), next, ModeValue, SeqExpr), nil)
	case 2:
		count, isIntegral := state.Result.(cvalue.IntegralValue)
		if !isIntegral {
			return fail(control, newError(ErrEvaluation, string(node.Kind), nil))
		}
		control.Cont.Type = cvalue.NewConstantArrayType(control.ElemType, int(count.Int))
		return ok(control.Cont, nil)
	default:
		return fail(control, newError(ErrEvaluation, string(node.Kind), nil))
	}
}

// stepFunctionType handles both FunctionProtoType and FunctionNoProtoType:
// evaluate the result type (child 0), then each ParmVarDecl child in
// order, accumulating Params, then build the function type.
func stepFunctionType(state *State, control *Control) Result {
	node := control.Node
	if control.Step == 0 {
		next := &Control{Node: node, Step: 1, Cont: control.Cont}
		return ok(Enter(node.Child(0), next, ModeValue, SeqNone), nil)
	}

	paramIdx := control.Step - 1
	totalParams := len(node.Children) - 1
	if paramIdx < totalParams {
		child := node.Child(1 + paramIdx)
		next := &Control{Node: node, Step: control.Step + 1, Cont: control.Cont, Type: control.Type, Params: control.Params}
		return ok(Enter(child, next, ModeValue, SeqNone), nil)
	}

	paramTypes := make([]cvalue.Type, len(control.Params))
	for i, p := range control.Params {
		paramTypes[i] = p.Type
	}
	control.Cont.Type = cvalue.NewFunctionType(control.Type, paramTypes)
	control.Cont.Params = control.Params
	return ok(control.Cont, nil)
}
