package stepper

// findDeclaration walks state.Scope from the innermost block outward,
// returning the first scope whose Decl map binds name. The walk stops
// after checking the first function-kind scope it reaches — bindings
// outside a function boundary never leak into it. Failing the scope
// chain, it falls back to state.GlobalMap.
func findDeclaration(state *State, name string) (DeclRef, error) {
	for scope := state.Scope; scope != nil; scope = scope.Parent {
		if ref, ok := scope.Decl[name]; ok {
			return ref, nil
		}
		if scope.Kind == ScopeFunction {
			break
		}
	}
	if ref, ok := state.GlobalMap[name]; ok {
		return ref, nil
	}
	return DeclRef{}, newError(ErrUnboundIdentifier, name, nil)
}
