// Package ast defines the uniform node tuple the stepper consumes.
//
// A program is a tree of Nodes. Producing that tree — lexing and parsing
// C source — is explicitly someone else's job; this package only fixes the
// shape callers (a parser, a JSON program loader, or a test building
// fixtures by hand) must produce.
package ast

// Kind tags a Node with the statement or expression form it represents.
type Kind string

const (
	CompoundStmt             Kind = "CompoundStmt"
	DeclStmt                 Kind = "DeclStmt"
	ForStmt                  Kind = "ForStmt"
	WhileStmt                Kind = "WhileStmt"
	DoStmt                   Kind = "DoStmt"
	BreakStmt                Kind = "BreakStmt"
	ContinueStmt             Kind = "ContinueStmt"
	IfStmt                   Kind = "IfStmt"
	ReturnStmt               Kind = "ReturnStmt"
	VarDecl                  Kind = "VarDecl"
	ParenExpr                Kind = "ParenExpr"
	CallExpr                 Kind = "CallExpr"
	ImplicitCastExpr         Kind = "ImplicitCastExpr"
	CStyleCastExpr           Kind = "CStyleCastExpr"
	DeclRefExpr              Kind = "DeclRefExpr"
	IntegerLiteral           Kind = "IntegerLiteral"
	CharacterLiteral         Kind = "CharacterLiteral"
	FloatingLiteral          Kind = "FloatingLiteral"
	StringLiteral            Kind = "StringLiteral"
	UnaryOperator            Kind = "UnaryOperator"
	UnaryExprOrTypeTraitExpr Kind = "UnaryExprOrTypeTraitExpr"
	BinaryOperator           Kind = "BinaryOperator"
	CompoundAssignOperator   Kind = "CompoundAssignOperator"
	ArraySubscriptExpr       Kind = "ArraySubscriptExpr"
	ConditionalOperator      Kind = "ConditionalOperator"
	BuiltinType              Kind = "BuiltinType"
	PointerType              Kind = "PointerType"
	ConstantArrayType        Kind = "ConstantArrayType"
	FunctionProtoType        Kind = "FunctionProtoType"
	FunctionNoProtoType      Kind = "FunctionNoProtoType"
	ParmVarDecl              Kind = "ParmVarDecl"

	// FunctionDecl is never dispatched through the stepper directly: it is
	// a container the program loader builds for each defined function,
	// holding the function's type node (child 0) and body (child 1).
	// CallExpr reads its children directly once a lookup resolves a name
	// to one.
	FunctionDecl Kind = "FunctionDecl"
)

// Attrs carries the kind-specific metadata a Node's stepper reads. Only the
// fields relevant to a given Kind are populated; the rest stay zero.
type Attrs struct {
	// Opcode names a unary or binary operator ("Plus", "Add", "PreInc", ...).
	Opcode string
	// Name holds a declaration or type name (VarDecl, ParmVarDecl, BuiltinType).
	Name string
	// Value holds a literal's source lexeme, suffixes included.
	Value string
	// Identifier holds the name a DeclRefExpr resolves against scope.
	Identifier string
	// Ref holds a StringLiteral's pre-materialized pointer. nil otherwise.
	Ref any
}

// Node is the tree shape the stepper walks: a tag, its attributes, and an
// ordered list of children. Arity per Kind is fixed by the stepper that
// dispatches on it, not enforced here.
type Node struct {
	Kind     Kind
	Attrs    Attrs
	Children []*Node
}

// New constructs a Node with the given children — used by fixtures and the
// JSON program loader alike.
func New(kind Kind, attrs Attrs, children ...*Node) *Node {
	return &Node{Kind: kind, Attrs: attrs, Children: children}
}

// Child returns the i-th child, or nil if the node has fewer children than
// that, so a malformed tree fails as a nil node rather than a panic.
func (n *Node) Child(i int) *Node {
	if n == nil || i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}
