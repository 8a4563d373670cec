// Package stepper implements the pure, reifiable small-step transition
// function for the C-subset AST: Step(state, control) -> {control,
// result?, effects?, error?}. The stepper never mutates State directly;
// every change it wants made is requested through an Effect the driver
// applies between calls.
package stepper

import (
	"github.com/persistent-c/persistent-c-go/pkg/ast"
	"github.com/persistent-c/persistent-c-go/pkg/cvalue"
)

// Mode distinguishes evaluating an expression for its address (Lvalue)
// from evaluating it for its value (Value, the default).
type Mode int

const (
	ModeValue Mode = iota
	ModeLvalue
)

// Seq marks a sequence-point boundary a driver can use to offer the host
// a pause: the end of a full expression, or a statement boundary.
type Seq int

const (
	SeqNone Seq = iota
	SeqExpr
	SeqStmt
)

// Step-tag sentinels for CallExpr's two-phase protocol (spec §4.4): once
// argument collection is done, a CallExpr control moves to StepCallFrame
// to open the function frame, then to StepCallReturn to forward the
// callee's result. Both are negative so they never collide with a
// legitimate child index.
const (
	StepCallFrame  = -1
	StepCallReturn = -2
)

// Param is a bound parameter name/type pair, produced by ParmVarDecl and
// consumed by FunctionProtoType/FunctionNoProtoType.
type Param struct {
	Name string
	Type cvalue.Type
}

// Control is the reified continuation: the node currently being evaluated,
// which sub-action to perform next, scratch fields particular node kinds
// stash between sub-steps, and the parent control to resume once this node
// is done. IsReturn, when set, is the sentinel spec.md calls "return": it
// signals the driver to unwind one function frame; Cont and every scratch
// field are meaningless on a sentinel.
type Control struct {
	Node     *ast.Node
	Step     int
	Cont     *Control
	IsReturn bool

	Mode     Mode
	Seq      Seq
	Break    int
	HasBreak bool

	Values   []cvalue.Value
	LHS      cvalue.Value
	LValue   *cvalue.PointerValue
	Type     cvalue.Type
	Value    cvalue.Value
	Array    *cvalue.PointerValue
	Params   []Param
	ElemType cvalue.Type

	// Func holds the callee's FunctionDecl node across the CallExpr call
	// protocol's StepCallFrame/StepCallReturn phase. Meaningless outside it.
	Func *ast.Node
}

// Return builds the sentinel control that unwinds one function frame.
func Return() *Control {
	return &Control{IsReturn: true}
}

// Enter builds a fresh child control over node, resuming into cont once
// node completes. mode and seq are the child's initial evaluation mode and
// sequence-point tag.
func Enter(node *ast.Node, cont *Control, mode Mode, seq Seq) *Control {
	return &Control{Node: node, Step: 0, Cont: cont, Mode: mode, Seq: seq}
}

// EffectKind tags the declarative state-change requests a Step call
// returns for the driver to apply, in order, before the next Step call.
type EffectKind int

const (
	EffectEnter EffectKind = iota
	EffectLeave
	EffectVarDecl
	EffectLoad
	EffectStore
	EffectCall
)

// Effect is the sum type spec.md §9's Design Notes recommends in place of
// nested nameless tuples.
type Effect struct {
	Kind EffectKind

	// Enter, Leave
	Node *ast.Node

	// VarDecl
	Name     string
	DeclType cvalue.Type
	Init     cvalue.Value

	// Load, Store
	Pointer *cvalue.PointerValue
	Value   cvalue.Value

	// Call
	ReturnCont *Control
	CallValues []cvalue.Value
}

// ScopeKind marks whether a Scope is an ordinary block scope or a function
// barrier past which name lookup does not escape.
type ScopeKind int

const (
	ScopeBlock ScopeKind = iota
	ScopeFunction
)

// DeclRef is what scope lookup returns: either addressable storage
// (Pointer) or a non-addressable binding (Value — a function or builtin).
type DeclRef struct {
	Pointer *cvalue.PointerValue
	Value   cvalue.Value
}

// Addressable reports whether this reference can be used as an lvalue.
func (r DeclRef) Addressable() bool { return r.Pointer != nil }

// Scope is a linked scope-chain record, grounded on the teacher's
// Environment{values, parent} shape and extended with the function
// barrier spec.md §3 requires.
type Scope struct {
	Decl   map[string]DeclRef
	Kind   ScopeKind
	Parent *Scope
}

// NewScope creates an empty scope of the given kind, chained to parent.
func NewScope(kind ScopeKind, parent *Scope) *Scope {
	return &Scope{Decl: make(map[string]DeclRef), Kind: kind, Parent: parent}
}

// State is the stepper's read-only view of driver-owned storage: the most
// recently produced value, the memory arena, the live scope chain, and the
// flat global name table consulted once the scope chain is exhausted.
type State struct {
	Result    cvalue.Value
	Memory    Memory
	Scope     *Scope
	GlobalMap map[string]DeclRef
}

// Memory is the narrow read surface the stepper needs from pkg/cmemory,
// expressed as an interface so this package never imports cmemory
// directly (and so tests can substitute a fake). Writes never happen
// synchronously inside the stepper; they are always requested through a
// Store effect for the driver to apply.
type Memory interface {
	ReadValue(ptr cvalue.PointerValue) (cvalue.Value, error)
}

// Result is what Step returns: the replacement control, an optional value
// to install as the new State.Result, effects to apply in order, and an
// error if the node kind or opcode was not recognized or name resolution
// failed.
type Result struct {
	Control *Control
	Result  cvalue.Value
	Effects []Effect
	Err     error
}

func ok(control *Control, value cvalue.Value, effects ...Effect) Result {
	return Result{Control: control, Result: value, Effects: effects}
}

func fail(control *Control, err error) Result {
	return Result{Control: control, Err: err}
}
