package stepper

import (
	"github.com/persistent-c/persistent-c-go/pkg/ast"
	"github.com/persistent-c/persistent-c-go/pkg/cvalue"
)

// BuiltinFunc is the shape of an opaque builtin: once dispatched, it owns
// every remaining sub-step and effect for the call, exactly like any other
// stepper function. cont is the caller's continuation (the CallExpr
// control's own Cont, i.e. the point execution resumes at once the call is
// done); values holds the evaluated arguments, without the callee.
type BuiltinFunc func(state *State, cont *Control, values []cvalue.Value) Result

// functionPseudoType is the placeholder type reported by FunctionValue and
// BuiltinValue. Nothing in the arithmetic or memory layer ever inspects it;
// it only exists so those pseudo-values satisfy cvalue.Value.
var functionPseudoType = cvalue.NewFunctionType(cvalue.ScalarTypes["void"], nil)

// FunctionValue is the non-addressable binding a DeclRef holds for a
// user-defined function. Node.Child(0) is the function's type AST
// (FunctionProtoType/FunctionNoProtoType); Node.Child(1) is its body
// (a CompoundStmt).
type FunctionValue struct {
	Node *ast.Node
}

func (FunctionValue) Type() cvalue.Type { return functionPseudoType }
func (FunctionValue) ToBool() bool      { return true }

// BuiltinValue is the non-addressable binding a DeclRef holds for a
// builtin registered by the driver.
type BuiltinValue struct {
	Name string
	Fn   BuiltinFunc
}

func (BuiltinValue) Type() cvalue.Type { return functionPseudoType }
func (BuiltinValue) ToBool() bool      { return true }

// stepCallExpr implements the call protocol: numerically-stepped argument
// evaluation (child 0 is the callee expression, producing values[0]),
// followed by a dispatch on the callee's tag once every child is
// evaluated.
func stepCallExpr(state *State, control *Control) Result {
	node := control.Node

	switch {
	case control.Step == StepCallFrame:
		return stepCallFrame(state, control)
	case control.Step == StepCallReturn:
		return stepCallReturn(state, control)
	case control.Step == 0:
		next := &Control{Node: node, Step: 1, Cont: control.Cont, Values: []cvalue.Value{}}
		return ok(Enter(node.Child(0), next, ModeValue, SeqNone), nil)
	case control.Step >= 1 && control.Step <= len(node.Children):
		values := append(append([]cvalue.Value{}, control.Values...), state.Result)
		if control.Step < len(node.Children) {
			next := &Control{Node: node, Step: control.Step + 1, Cont: control.Cont, Values: values}
			return ok(Enter(node.Child(control.Step), next, ModeValue, SeqNone), nil)
		}
		return dispatchCallee(state, control, values)
	default:
		return fail(control, newError(ErrEvaluation, string(node.Kind), nil))
	}
}

// dispatchCallee inspects values[0] (the evaluated callee) and routes to a
// builtin, a user function's call-frame setup, or a call error.
func dispatchCallee(state *State, control *Control, values []cvalue.Value) Result {
	if len(values) == 0 {
		return fail(control, newError(ErrBadCallTarget, string(control.Node.Kind), nil))
	}
	args := values[1:]
	switch callee := values[0].(type) {
	case BuiltinValue:
		return callee.Fn(state, control.Cont, args)
	case FunctionValue:
		frameNext := &Control{Node: control.Node, Step: StepCallFrame, Cont: control.Cont, Values: args, Func: callee.Node}
		typeNode := callee.Node.Child(0)
		if typeNode == nil {
			frameNext.Type = functionPseudoType
			return ok(frameNext, nil)
		}
		return ok(Enter(typeNode, frameNext, ModeValue, SeqNone), nil)
	default:
		return fail(control, newError(ErrBadCallTarget, string(control.Node.Kind), nil))
	}
}

// stepCallFrame opens a function frame: it emits the call effect capturing
// the return continuation, one vardecl effect per formal parameter paired
// with its argument by position, then descends into the body with the
// return sentinel as its continuation, so falling off the end behaves like
// an implicit "return;".
func stepCallFrame(state *State, control *Control) Result {
	funcDecl := control.Func
	body := funcDecl.Child(1)
	returnCont := &Control{Node: control.Node, Step: StepCallReturn, Cont: control.Cont}

	effects := []Effect{{Kind: EffectCall, ReturnCont: returnCont, CallValues: control.Values}}
	for i, p := range control.Params {
		var init cvalue.Value
		if i < len(control.Values) {
			init = control.Values[i]
		}
		effects = append(effects, Effect{Kind: EffectVarDecl, Name: p.Name, DeclType: p.Type, Init: init})
	}

	return Result{Control: Enter(body, Return(), ModeValue, SeqStmt), Effects: effects}
}

// stepCallReturn forwards the value the driver placed into state.Result
// when unwinding the callee's frame to the caller's continuation.
func stepCallReturn(state *State, control *Control) Result {
	return ok(control.Cont, state.Result)
}
