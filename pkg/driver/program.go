package driver

import (
	"encoding/json"
	"fmt"

	"github.com/persistent-c/persistent-c-go/pkg/ast"
	"github.com/persistent-c/persistent-c-go/pkg/stepper"
)

// buildGlobalMap binds every top-level function declaration and every
// registered builtin into a single flat name table, the table
// findDeclaration falls back to once the live scope chain is exhausted.
func buildGlobalMap(functions []*ast.Node, builtins map[string]stepper.BuiltinFunc) (map[string]stepper.DeclRef, error) {
	globals := make(map[string]stepper.DeclRef, len(functions)+len(builtins))
	for _, fn := range functions {
		if fn.Kind != ast.FunctionDecl {
			return nil, fmt.Errorf("driver: top-level node %q is not a FunctionDecl", fn.Kind)
		}
		name := fn.Attrs.Name
		if name == "" {
			return nil, fmt.Errorf("driver: FunctionDecl with no name")
		}
		if _, exists := globals[name]; exists {
			return nil, fmt.Errorf("driver: duplicate top-level definition of %q", name)
		}
		globals[name] = stepper.DeclRef{Value: stepper.FunctionValue{Node: fn}}
	}
	for name, fn := range builtins {
		if _, exists := globals[name]; exists {
			return nil, fmt.Errorf("driver: %q is both a builtin and a user function", name)
		}
		globals[name] = stepper.DeclRef{Value: stepper.BuiltinValue{Name: name, Fn: fn}}
	}
	return globals, nil
}

// rawNode is the on-the-wire shape of an ast.Node, minus Attrs.Ref (a
// StringLiteral's pre-materialized pointer cannot be expressed in JSON;
// programs needing string literals are built as Go fixtures instead).
type rawNode struct {
	Kind     string     `json:"kind"`
	Opcode   string     `json:"opcode,omitempty"`
	Name     string     `json:"name,omitempty"`
	Value    string     `json:"value,omitempty"`
	Ident    string     `json:"identifier,omitempty"`
	Children []rawNode  `json:"children,omitempty"`
}

// LoadProgramJSON parses a JSON-encoded forest of FunctionDecl nodes, the
// format cmd/pc's "run" subcommand reads from disk.
func LoadProgramJSON(data []byte) ([]*ast.Node, error) {
	var roots []rawNode
	if err := json.Unmarshal(data, &roots); err != nil {
		return nil, fmt.Errorf("driver: parsing program json: %w", err)
	}
	out := make([]*ast.Node, len(roots))
	for i, r := range roots {
		out[i] = r.toNode()
	}
	return out, nil
}

func (r rawNode) toNode() *ast.Node {
	children := make([]*ast.Node, len(r.Children))
	for i, c := range r.Children {
		children[i] = c.toNode()
	}
	return &ast.Node{
		Kind: ast.Kind(r.Kind),
		Attrs: ast.Attrs{
			Opcode:     r.Opcode,
			Name:       r.Name,
			Value:      r.Value,
			Identifier: r.Ident,
		},
		Children: children,
	}
}
