package stepper

import (
	"github.com/persistent-c/persistent-c-go/pkg/ast"
	"github.com/persistent-c/persistent-c-go/pkg/cvalue"
)

// stepCompoundStmt implements a block: enter a scope before the first
// child, step through each child as a statement, leave the scope once
// exhausted.
func stepCompoundStmt(state *State, control *Control) Result {
	node := control.Node
	if control.Step == 0 {
		child := node.Child(0)
		if child == nil {
			return ok(control.Cont, nil, Effect{Kind: EffectEnter, Node: node}, Effect{Kind: EffectLeave, Node: node})
		}
		next := &Control{Node: node, Step: 1, Cont: control.Cont, Mode: control.Mode, Seq: control.Seq, HasBreak: control.HasBreak, Break: control.Break}
		return ok(Enter(child, next, ModeValue, SeqStmt), nil, Effect{Kind: EffectEnter, Node: node})
	}
	if control.Step < len(node.Children) {
		child := node.Child(control.Step)
		next := &Control{Node: node, Step: control.Step + 1, Cont: control.Cont, Mode: control.Mode, Seq: control.Seq, HasBreak: control.HasBreak, Break: control.Break}
		return ok(Enter(child, next, ModeValue, SeqStmt), nil)
	}
	return ok(control.Cont, nil, Effect{Kind: EffectLeave, Node: node})
}

// stepDeclStmt sequentially enters each VarDecl child; void result when
// exhausted.
func stepDeclStmt(state *State, control *Control) Result {
	node := control.Node
	if control.Step >= len(node.Children) {
		return ok(control.Cont, nil)
	}
	child := node.Child(control.Step)
	next := &Control{Node: node, Step: control.Step + 1, Cont: control.Cont}
	return ok(Enter(child, next, ModeValue, SeqNone), nil)
}

// stepIfStmt evaluates the condition, then enters the matching branch.
func stepIfStmt(state *State, control *Control) Result {
	node := control.Node
	switch control.Step {
	case 0:
		next := &Control{Node: node, Step: 1, Cont: control.Cont}
		return ok(Enter(node.Child(0), next, ModeValue, SeqExpr), nil)
	case 1:
		cond := state.Result
		if cond != nil && cond.ToBool() {
			next := &Control{Node: node, Step: 2, Cont: control.Cont}
			return ok(Enter(node.Child(1), next, ModeValue, SeqStmt), nil)
		}
		if elseChild := node.Child(2); elseChild != nil {
			next := &Control{Node: node, Step: 2, Cont: control.Cont}
			return ok(Enter(elseChild, next, ModeValue, SeqStmt), nil)
		}
		return ok(control.Cont, nil)
	default:
		return ok(control.Cont, nil)
	}
}

// stepForStmt drives a classic for loop: init, cond, body (as loop frame),
// update.
func stepForStmt(state *State, control *Control) Result {
	node := control.Node
	switch control.Step {
	case 0:
		next := &Control{Node: node, Step: 1, Cont: control.Cont}
		if init := node.Child(0); init != nil {
			return ok(Enter(init, next, ModeValue, SeqStmt), nil)
		}
		return ok(next, nil)
	case 1:
		next := &Control{Node: node, Step: 3, Cont: control.Cont}
		if cond := node.Child(1); cond != nil {
			return ok(Enter(cond, next, ModeValue, SeqStmt), nil)
		}
		return ok(next, cvalue.NewIntegral(cvalue.ScalarTypes["int"], 1))
	case 3:
		cond := state.Result
		if cond == nil || cond.ToBool() {
			loopFrame := &Control{Node: node, Step: 2, Cont: control.Cont, HasBreak: true, Break: 4}
			return ok(Enter(node.Child(3), loopFrame, ModeValue, SeqStmt), nil)
		}
		return ok(control.Cont, nil)
	case 2:
		next := &Control{Node: node, Step: 1, Cont: control.Cont}
		if upd := node.Child(2); upd != nil {
			return ok(Enter(upd, next, ModeValue, SeqStmt), nil)
		}
		return ok(next, nil)
	case 4:
		return ok(control.Cont, nil)
	default:
		return fail(control, newError(ErrEvaluation, string(node.Kind), nil))
	}
}

// stepWhileStmt: cond at step 0, body (loop frame, break->2, continue->0)
// at step 1.
func stepWhileStmt(state *State, control *Control) Result {
	node := control.Node
	switch control.Step {
	case 0:
		next := &Control{Node: node, Step: 1, Cont: control.Cont}
		return ok(Enter(node.Child(0), next, ModeValue, SeqStmt), nil)
	case 1:
		cond := state.Result
		if cond != nil && cond.ToBool() {
			loopFrame := &Control{Node: node, Step: 0, Cont: control.Cont, HasBreak: true, Break: 2}
			return ok(Enter(node.Child(1), loopFrame, ModeValue, SeqStmt), nil)
		}
		return ok(control.Cont, nil)
	case 2:
		return ok(control.Cont, nil)
	default:
		return fail(control, newError(ErrEvaluation, string(node.Kind), nil))
	}
}

// stepDoStmt: body at step 0, cond at step 1, re-entry at step 2;
// break target 3, continue resumes at step 1 (the condition).
func stepDoStmt(state *State, control *Control) Result {
	node := control.Node
	switch control.Step {
	case 0:
		next := &Control{Node: node, Step: 1, Cont: control.Cont, HasBreak: true, Break: 3}
		return ok(Enter(node.Child(0), next, ModeValue, SeqStmt), nil)
	case 1:
		next := &Control{Node: node, Step: 2, Cont: control.Cont}
		return ok(Enter(node.Child(1), next, ModeValue, SeqStmt), nil)
	case 2:
		cond := state.Result
		if cond != nil && cond.ToBool() {
			loopFrame := &Control{Node: node, Step: 1, Cont: control.Cont, HasBreak: true, Break: 3}
			return ok(Enter(node.Child(0), loopFrame, ModeValue, SeqStmt), nil)
		}
		return ok(control.Cont, nil)
	case 3:
		return ok(control.Cont, nil)
	default:
		return fail(control, newError(ErrEvaluation, string(node.Kind), nil))
	}
}

// stepBreakStmt walks cont ancestors to the nearest loop frame and
// transitions into it at its break target.
func stepBreakStmt(state *State, control *Control) Result {
	frame := control.Cont
	for frame != nil && !frame.HasBreak {
		frame = frame.Cont
	}
	if frame == nil {
		return fail(control, newError(ErrBreakOutsideLoop, string(control.Node.Kind), nil))
	}
	target := &Control{Node: frame.Node, Step: frame.Break, Cont: frame.Cont, HasBreak: frame.HasBreak, Break: frame.Break, Seq: SeqStmt}
	return ok(target, nil)
}

// stepContinueStmt is the same walk, but re-enters the loop frame at its
// own unchanged step (the update/cond rehead for while/for; the
// condition for do-while, since its loop frame step is already 1).
func stepContinueStmt(state *State, control *Control) Result {
	frame := control.Cont
	for frame != nil && !frame.HasBreak {
		frame = frame.Cont
	}
	if frame == nil {
		return fail(control, newError(ErrContinueOutsideLoop, string(control.Node.Kind), nil))
	}
	target := &Control{Node: frame.Node, Step: frame.Step, Cont: frame.Cont, HasBreak: frame.HasBreak, Break: frame.Break, Seq: SeqStmt}
	return ok(target, nil)
}

// stepReturnStmt evaluates its expression then hands control to the
// return sentinel, emitting a leave effect for every enclosing block of
// the function (innermost first) on the way out.
func stepReturnStmt(state *State, control *Control) Result {
	node := control.Node
	var leaves []Effect
	for c := control.Cont; c != nil && !c.IsReturn; c = c.Cont {
		if c.Node != nil && c.Node.Kind == ast.CompoundStmt {
			leaves = append(leaves, Effect{Kind: EffectLeave, Node: c.Node})
		}
	}
	if control.Step == 0 {
		expr := node.Child(0)
		if expr == nil {
			return ok(Return(), nil, leaves...)
		}
		next := &Control{Node: node, Step: 1, Cont: control.Cont}
		return ok(Enter(expr, next, ModeValue, SeqExpr), nil)
	}
	return ok(Return(), state.Result, leaves...)
}
