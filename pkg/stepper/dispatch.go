package stepper

import "github.com/persistent-c/persistent-c-go/pkg/ast"

// Step is the stepper's single entry point: it advances control by exactly
// one node-kind-specific sub-action and returns the replacement control,
// an optional result value, any effects the driver must apply before the
// next call, and an error if dispatch or evaluation failed. Step never
// mutates state; state is read-only input.
func Step(state *State, control *Control) Result {
	if control == nil || control.IsReturn {
		return fail(control, newError(ErrEvaluation, "<return>", nil))
	}
	node := control.Node
	if node == nil {
		return fail(control, newError(ErrUnknownNodeKind, "<nil>", nil))
	}

	switch node.Kind {
	case ast.CompoundStmt:
		return stepCompoundStmt(state, control)
	case ast.DeclStmt:
		return stepDeclStmt(state, control)
	case ast.IfStmt:
		return stepIfStmt(state, control)
	case ast.ForStmt:
		return stepForStmt(state, control)
	case ast.WhileStmt:
		return stepWhileStmt(state, control)
	case ast.DoStmt:
		return stepDoStmt(state, control)
	case ast.BreakStmt:
		return stepBreakStmt(state, control)
	case ast.ContinueStmt:
		return stepContinueStmt(state, control)
	case ast.ReturnStmt:
		return stepReturnStmt(state, control)

	case ast.IntegerLiteral:
		return stepIntegerLiteral(state, control)
	case ast.CharacterLiteral:
		return stepCharacterLiteral(state, control)
	case ast.FloatingLiteral:
		return stepFloatingLiteral(state, control)
	case ast.StringLiteral:
		return stepStringLiteral(state, control)
	case ast.ParenExpr:
		return stepParenExpr(state, control)
	case ast.DeclRefExpr:
		return stepDeclRefExpr(state, control)
	case ast.UnaryOperator:
		return stepUnaryOperator(state, control)
	case ast.UnaryExprOrTypeTraitExpr:
		return stepSizeofExpr(state, control)
	case ast.BinaryOperator:
		return stepBinaryOperator(state, control)
	case ast.CompoundAssignOperator:
		return stepCompoundAssignOperator(state, control)
	case ast.ArraySubscriptExpr:
		return stepArraySubscriptExpr(state, control)
	case ast.ImplicitCastExpr:
		return stepImplicitCastExpr(state, control)
	case ast.CStyleCastExpr:
		return stepCStyleCastExpr(state, control)
	case ast.ConditionalOperator:
		return stepConditionalOperator(state, control)

	case ast.CallExpr:
		return stepCallExpr(state, control)

	case ast.VarDecl:
		return stepVarDecl(state, control)
	case ast.ParmVarDecl:
		return stepParmVarDecl(state, control)
	case ast.BuiltinType:
		return stepBuiltinType(state, control)
	case ast.PointerType:
		return stepPointerType(state, control)
	case ast.ConstantArrayType:
		return stepConstantArrayType(state, control)
	case ast.FunctionProtoType, ast.FunctionNoProtoType:
		return stepFunctionType(state, control)

	default:
		return fail(control, newError(ErrUnknownNodeKind, string(node.Kind), nil))
	}
}
